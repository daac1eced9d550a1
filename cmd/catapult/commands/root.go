package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	verbose    bool
	jsonOutput bool
	auditDB    string
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "catapult",
		Short: "Catapult - Browser Resolution for Test Automation",
		Long: `Catapult resolves the single concrete browser a test-automation run
should control, from a fixed ordered set of discovery backends.

Features:
  - Desktop, Android and ChromeOS discovery backends
  - Default-selection heuristics with deterministic tie-breaking
  - Memoized resolution for repeated identical configurations
  - Optional SQLite audit trail of resolution decisions`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "finder options file path (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().StringVar(&auditDB, "audit-db", "", "SQLite database path for the resolution audit trail")

	// Add subcommands
	rootCmd.AddCommand(newBrowsersCommand())

	return rootCmd
}
