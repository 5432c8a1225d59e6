package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// NewCmdTeams creates the teams command.
func NewCmdTeams(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "teams <org>",
		Short: "Show team repository access for an organization",
		Long: `Walks all teams of an organization and the repositories each team
can access, with the permission level the team holds.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTeams(cmd, args[0], opts)
		},
	}
}

func runTeams(cmd *cobra.Command, org string, opts *Options) error {
	ctx := cmd.Context()

	cfg, client, err := loadConfigAndClient()
	if err != nil {
		return err
	}

	teams, err := client.TeamRepositories(ctx, org)
	if err != nil {
		return err
	}

	return newFormatter(opts, cfg).Teams(teams, os.Stdout)
}
