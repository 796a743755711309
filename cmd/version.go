package cmd

import (
	"runtime"

	"github.com/prelev/prelev/core/catalog"
	"github.com/spf13/cobra"
)

// versionCmd shows the verbose version for diagnostic purposes.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of prelev.",
	Long: `Display version information including build details.

Shows:
- Release version and Git commit
- Build timestamp and Go runtime
- Version of the built-in parameter catalog

The catalog version is part of every cache key, so a catalog change
invalidates cached results.`,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("prelev CLI\n")
		cmd.Printf("  Version: %s\n", version)
		cmd.Printf("  Commit:  %s\n", commit)
		cmd.Printf("  Built:   %s\n", date)
		cmd.Printf("  Runtime: %s\n", runtime.Version())
		cmd.Printf("  Catalog: %s\n", catalog.Default().Version())
	},
}
