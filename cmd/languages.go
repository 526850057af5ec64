package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/textvault/textvault/internal/language"
)

var languagesFormat string

var languagesCmd = &cobra.Command{
	Use:     "languages",
	Aliases: []string{"langs"},
	Short:   "List the languages a paste can be tagged with",
	Args:    cobra.NoArgs,
	RunE:    runLanguages,
}

func init() {
	rootCmd.AddCommand(languagesCmd)
	addOutputFlag(languagesCmd, &languagesFormat, FormatTable, FormatJSON, FormatYAML)
}

func runLanguages(cmd *cobra.Command, args []string) error {
	entries := language.All()
	out := cmd.OutOrStdout()

	if languagesFormat != FormatTable {
		return writeStructured(out, languagesFormat, entries)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VALUE\tLABEL")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\n", e.Tag, e.Label)
	}
	return w.Flush()
}
