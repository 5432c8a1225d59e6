package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/repoatlas/repoatlas/internal/log"
)

// New creates the root command with all subcommands registered.
func New() *cobra.Command {
	opts := NewOptions()

	rootCmd := &cobra.Command{
		Use:   "repoatlas",
		Short: "GitHub repository metadata aggregator",
		Long: `A tool that aggregates repository metadata from GitHub: branches,
topics, declared dependencies, pipeline presence, and team access,
assembled into point-in-time snapshots you can store and search.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			log.Initialize(opts.Verbosity, os.Stderr)
		},
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.Format, "output", "o", "", "Output format (table, json)")
	rootCmd.PersistentFlags().CountVarP(&opts.Verbosity, "verbose", "v", "Increase verbosity (-v info, -vv debug, -vvv trace)")

	// Register subcommands
	rootCmd.AddCommand(NewCmdSnapshot(opts))
	rootCmd.AddCommand(NewCmdScan(opts))
	rootCmd.AddCommand(NewCmdRepos(opts))
	rootCmd.AddCommand(NewCmdTeams(opts))
	rootCmd.AddCommand(NewCmdSearch(opts))
	rootCmd.AddCommand(NewCmdServe(opts))
	rootCmd.AddCommand(NewCmdConfig())
	rootCmd.AddCommand(NewCmdVersion())

	return rootCmd
}
