// Package cmd provides the command-line interface for textvault.
//
// # Available Commands
//
//   - serve: run the composer server (page, session channel and JSON API)
//   - compose: compose and submit a paste from a file or stdin
//   - languages: print the language table
//   - version: print build information
//
// # Command Examples
//
//	// Start the composer on another port, storing pastes in a backend
//	textvault serve --port 3000 --vault-url https://vault.example.com
//
//	// Submit a file
//	textvault compose --file main.go --language go --title "entry point"
//
//	// Edit a file in any editor and press Enter to submit each revision
//	textvault compose --file notes.txt --watch
//
//	// Print the payload instead of submitting it
//	echo 'print(1)' | textvault compose --language python --dry-run -o yaml
//
// Configuration is read from .textvault.yml, TEXTVAULT_* environment
// variables and a .env file in the working directory.
package cmd
