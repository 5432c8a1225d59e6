package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/repoatlas/repoatlas/internal/log"
	"github.com/repoatlas/repoatlas/internal/snapshot"
)

// NewCmdSnapshot creates the snapshot command.
func NewCmdSnapshot(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot <owner>/<repo>",
		Short: "Build and store a snapshot of one repository",
		Long: `Builds a point-in-time snapshot of a repository: metadata, the
resolved commit, declared dependencies, pipeline presence, and
optionally team access. The snapshot is stored unless --dry-run is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Branch, "branch", "b", "", "Branch to snapshot (default: the repository's default branch)")
	cmd.Flags().StringVar(&opts.AsOf, "as-of", "", "Resolve against the newest commit at or before this RFC 3339 instant")
	cmd.Flags().BoolVar(&opts.IncludeTeams, "teams", false, "Include team access (organization owners only)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Build and print the snapshot without storing it")

	return cmd
}

func runSnapshot(cmd *cobra.Command, arg string, opts *Options) error {
	ctx := cmd.Context()

	owner, repo, err := splitRepoArg(arg)
	if err != nil {
		return err
	}
	asOf, err := parseAsOf(opts.AsOf)
	if err != nil {
		return err
	}

	cfg, client, err := loadConfigAndClient()
	if err != nil {
		return err
	}

	builder := snapshot.NewBuilder(client, newTreeCache(cfg))
	snap, err := builder.Build(ctx, owner, repo, snapshot.Options{
		Branch:       opts.Branch,
		AsOf:         asOf,
		IncludeTeams: opts.IncludeTeams,
	})
	if err != nil {
		return err
	}

	if !opts.DryRun {
		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close(ctx)

		if err := st.Upsert(ctx, snap); err != nil {
			return err
		}
		log.Info("snapshot stored", "id", snap.ID)
	}

	return newFormatter(opts, cfg).Snapshot(snap, os.Stdout)
}
