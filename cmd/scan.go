package cmd

import (
	"fmt"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/repoatlas/repoatlas/internal/log"
	"github.com/repoatlas/repoatlas/internal/snapshot"
	"github.com/repoatlas/repoatlas/internal/store"
)

// NewCmdScan creates the scan command.
func NewCmdScan(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <owner>",
		Short: "Snapshot every repository of an owner",
		Long: `Enumerates all repositories of a user or organization and builds a
snapshot of each, storing them as they complete. Builds run
concurrently; the first failure aborts the scan.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.AsOf, "as-of", "", "Resolve against the newest commit at or before this RFC 3339 instant")
	cmd.Flags().BoolVar(&opts.IncludeTeams, "teams", false, "Include team access (organization owners only)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Build snapshots without storing them")
	cmd.Flags().IntVarP(&opts.Workers, "workers", "w", opts.Workers, "Number of concurrent snapshot builds")

	return cmd
}

func runScan(cmd *cobra.Command, owner string, opts *Options) error {
	ctx := cmd.Context()

	asOf, err := parseAsOf(opts.AsOf)
	if err != nil {
		return err
	}

	cfg, client, err := loadConfigAndClient()
	if err != nil {
		return err
	}

	repos, err := client.ListRepositories(ctx, owner)
	if err != nil {
		return err
	}
	if len(repos) == 0 {
		fmt.Println("No repositories found.")
		return nil
	}
	log.Info("scanning repositories", "owner", owner, "count", len(repos))

	var st store.SnapshotStore
	if !opts.DryRun {
		st, err = openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close(ctx)
	}

	builder := snapshot.NewBuilder(client, newTreeCache(cfg))
	buildOpts := snapshot.Options{AsOf: asOf, IncludeTeams: opts.IncludeTeams}

	var built int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for _, r := range repos {
		g.Go(func() error {
			snap, err := builder.Build(gctx, owner, r.Name, buildOpts)
			if err != nil {
				return fmt.Errorf("%s/%s: %w", owner, r.Name, err)
			}
			if st != nil {
				if err := st.Upsert(gctx, snap); err != nil {
					return fmt.Errorf("%s/%s: %w", owner, r.Name, err)
				}
			}
			atomic.AddInt64(&built, 1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Printf("Built %d snapshots for %s.\n", built, owner)
	return nil
}
