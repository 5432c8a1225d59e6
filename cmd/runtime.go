package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/repoatlas/repoatlas/config"
	"github.com/repoatlas/repoatlas/internal/cache"
	"github.com/repoatlas/repoatlas/internal/github"
	"github.com/repoatlas/repoatlas/internal/output"
	"github.com/repoatlas/repoatlas/internal/store"
)

// loadConfig loads the merged configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// loadConfigAndClient loads configuration and builds the GitHub client.
func loadConfigAndClient() (*config.Config, *github.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	token := cfg.GetGitHubToken()
	if token == "" {
		return nil, nil, fmt.Errorf("GitHub token not configured. Set the GITHUB_TOKEN environment variable")
	}

	var ghOpts []github.Option
	if cfg.GitHub != nil {
		if cfg.GitHub.PageSize != nil {
			ghOpts = append(ghOpts, github.WithPageSize(*cfg.GitHub.PageSize))
		}
		if cfg.GitHub.RESTURL != "" || cfg.GitHub.GraphQLURL != "" {
			ghOpts = append(ghOpts, github.WithBaseURLs(cfg.GitHub.RESTURL, cfg.GitHub.UploadURL, cfg.GitHub.GraphQLURL))
		}
	}

	client, err := github.NewClient(token, ghOpts...)
	if err != nil {
		return nil, nil, err
	}
	return cfg, client, nil
}

// newTreeCache builds the tree-listing cache. Without a configured Redis
// address it degrades to a pass-through.
func newTreeCache(cfg *config.Config) *cache.TreeCache {
	if cfg.Redis == nil || cfg.Redis.Addr == "" {
		return cache.NewTreeCache(nil, "", 0)
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return cache.NewTreeCache(client, "", cfg.Redis.TTL)
}

// openStore connects to the configured snapshot store.
func openStore(ctx context.Context, cfg *config.Config) (store.SnapshotStore, error) {
	return store.NewMongoStore(ctx, cfg.MongoURI(), cfg.MongoDatabase())
}

// newFormatter resolves the output format from flags and config.
func newFormatter(opts *Options, cfg *config.Config) output.Formatter {
	format := output.Format(opts.Format)
	if format == "" {
		format = output.Format(cfg.DefaultFormat)
	}
	return output.NewFormatter(format)
}

// splitRepoArg splits an owner/repo argument.
func splitRepoArg(arg string) (string, string, error) {
	owner, repo, ok := strings.Cut(arg, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("invalid repository %q (expected owner/repo)", arg)
	}
	return owner, repo, nil
}

// parseAsOf parses the optional --as-of flag.
func parseAsOf(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("invalid --as-of %q (expected RFC 3339, e.g. 2023-05-01T00:00:00Z)", s)
	}
	return &t, nil
}
