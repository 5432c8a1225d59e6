package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// NewCmdRepos creates the repos command.
func NewCmdRepos(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "repos <owner>",
		Short: "List repositories of a user or organization",
		Long: `Lists all repositories of a user or organization, ordered by
most-recently-pushed descending.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepos(cmd, args[0], opts)
		},
	}
}

func runRepos(cmd *cobra.Command, owner string, opts *Options) error {
	ctx := cmd.Context()

	cfg, client, err := loadConfigAndClient()
	if err != nil {
		return err
	}

	repos, err := client.ListRepositories(ctx, owner)
	if err != nil {
		return err
	}

	return newFormatter(opts, cfg).Repositories(repos, os.Stdout)
}
