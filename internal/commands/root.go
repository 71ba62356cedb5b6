package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spendguard-dev/spendguard/internal/buildinfo"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "spendguard",
		Short:   "Bank statement anomaly detection and risk scoring",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newProcessCommand())
	rootCmd.AddCommand(newListCommand())
	rootCmd.AddCommand(newLogCommand())
	rootCmd.AddCommand(newSummaryCommand())
	rootCmd.AddCommand(newSynthCommand())

	return rootCmd
}
