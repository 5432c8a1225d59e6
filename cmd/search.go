package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/repoatlas/repoatlas/internal/search"
)

// NewCmdSearch creates the search command.
func NewCmdSearch(opts *Options) *cobra.Command {
	var (
		owner  string
		topics []string
		teams  []string
		kind   string
		hasCD  string
	)

	cmd := &cobra.Command{
		Use:   "search [dependency[:op?version]...]",
		Short: "Search stored snapshots",
		Long: `Searches the newest stored snapshot of each repository. Dependency
arguments use the name[:op?version] grammar:

  Newtonsoft.Json            any version
  Newtonsoft.Json:13         versions starting with 13
  Newtonsoft.Json:>=13.0.1   semver range

All criteria must hold for a repository to match.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := search.Query{
				Owner:        owner,
				Topics:       topics,
				Teams:        teams,
				ManifestKind: kind,
				Dependencies: args,
			}
			if hasCD != "" {
				v, err := strconv.ParseBool(hasCD)
				if err != nil {
					return fmt.Errorf("invalid --has-cd %q (expected true or false)", hasCD)
				}
				q.HasCD = &v
			}
			return runSearch(cmd, q, opts)
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Restrict to one owner's repositories")
	cmd.Flags().StringSliceVar(&topics, "topic", nil, "Require a repository topic (repeatable)")
	cmd.Flags().StringSliceVar(&teams, "team", nil, "Require team access (repeatable)")
	cmd.Flags().StringVar(&kind, "kind", "", "Require a manifest kind (nuget, npm, gomod, pip)")
	cmd.Flags().StringVar(&hasCD, "has-cd", "", "Filter by pipeline presence (true or false)")

	return cmd
}

func runSearch(cmd *cobra.Command, q search.Query, opts *Options) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close(ctx)

	results, err := search.New(st).Search(ctx, q)
	if err != nil {
		return err
	}

	return newFormatter(opts, cfg).SearchResults(results, os.Stdout)
}
