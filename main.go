package main

import (
	"os"

	"github.com/textvault/textvault/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
