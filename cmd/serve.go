package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/repoatlas/repoatlas/internal/api"
	"github.com/repoatlas/repoatlas/internal/log"
	"github.com/repoatlas/repoatlas/internal/search"
	"github.com/repoatlas/repoatlas/internal/snapshot"
)

// NewCmdServe creates the serve command.
func NewCmdServe(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Runs the HTTP API server, exposing snapshot building, storage, and
search over REST. The server shuts down gracefully on SIGINT/SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Listen, "listen", "", "Listen address (default from config, falling back to :8080)")

	return cmd
}

func runServe(cmd *cobra.Command, opts *Options) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, client, err := loadConfigAndClient()
	if err != nil {
		return err
	}

	// Fail fast on a bad token instead of surfacing it per request.
	user, err := client.AuthenticatedUser(ctx)
	if err != nil {
		return err
	}
	log.Info("authenticated", "user", user)

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close(context.Background())

	builder := snapshot.NewBuilder(client, newTreeCache(cfg))
	srv := api.NewServer(builder, client, st, search.New(st))

	listen := opts.Listen
	if listen == "" {
		listen = cfg.Listen()
	}
	return srv.ListenAndServe(ctx, listen)
}
