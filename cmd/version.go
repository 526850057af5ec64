package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/textvault/textvault/internal/version"
)

var (
	versionFormat   string
	versionShort    bool
	versionDetailed bool
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display version information for textvault.

Examples:
  textvault version               # Show version, commit and platform
  textvault version --short       # Show the version only
  textvault version --detailed    # Show every known build field
  textvault version --format json # Output as JSON`,
	Args: cobra.NoArgs,
	RunE: runVersionCommand,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().VarP(newChoiceValue(FormatText, &versionFormat, FormatText, FormatJSON), "format", "f",
		"Output format (text|json)")
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Show short version only")
	versionCmd.Flags().BoolVar(&versionDetailed, "detailed", false, "Show detailed version information")
}

func runVersionCommand(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if versionFormat == FormatJSON {
		return outputVersionJSON(out)
	}

	switch {
	case versionShort:
		_, err := fmt.Fprintln(out, version.GetShortVersion())
		return err
	case versionDetailed:
		return outputVersionDetailed(out)
	default:
		return outputVersionDefault(out)
	}
}

func outputVersionDefault(out io.Writer) error {
	info := version.GetBuildInfo()

	line := "textvault " + version.GetShortVersion()
	if info.Dirty {
		line += " (dirty)"
	}
	_, err := fmt.Fprintf(out, "%s\nGo: %s\nPlatform: %s\n", line, info.GoVersion, info.Platform)
	return err
}

func outputVersionDetailed(out io.Writer) error {
	buildType := "development"
	if version.IsRelease() {
		buildType = "release"
	}
	_, err := fmt.Fprintf(out, "%s\nBuild type: %s\n", version.GetDetailedVersion(), buildType)
	return err
}

func outputVersionJSON(out io.Writer) error {
	return writeStructured(out, FormatJSON, struct {
		*version.BuildInfo
		IsRelease bool `json:"is_release"`
	}{version.GetBuildInfo(), version.IsRelease()})
}
