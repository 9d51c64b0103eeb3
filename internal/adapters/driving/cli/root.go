// Package cli implements the kbsync command-line interface.
package cli

import (
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

// verbose lowers the log level to debug for every command.
var verbose bool

var rootCmd = &cobra.Command{
	Use:   "kbsync",
	Short: "Watch a directory and sync file knowledge to a remote knowledge base",
	Long: `kbsync watches a directory for new and changed files, extracts their
text, summarises them and uploads both an index record and the original
file to a remote knowledge base.

Configuration lives in ~/.kbsync/config.toml; every option also has a
KBSYNC_* environment override.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
