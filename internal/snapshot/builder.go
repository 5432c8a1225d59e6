// Package snapshot assembles point-in-time repository snapshots:
// metadata, the resolved commit, declared dependencies, pipeline
// presence, and team access.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/repoatlas/repoatlas/internal/cache"
	"github.com/repoatlas/repoatlas/internal/github"
	"github.com/repoatlas/repoatlas/internal/log"
	"github.com/repoatlas/repoatlas/internal/manifest"
	"github.com/repoatlas/repoatlas/internal/model"
)

// GitHubClient is the slice of the API client the builder consumes.
type GitHubClient interface {
	GetRepository(ctx context.Context, owner, name string) (*model.Repository, error)
	ResolveCommit(ctx context.Context, owner, repo, branch string, asOf *time.Time) (model.CommitRef, error)
	ListTree(ctx context.Context, owner, repo, treeOID string) ([]model.TreeEntry, error)
	ReadFiles(ctx context.Context, owner, repo, ref string, paths []string) ([]model.FileEntry, error)
	TeamRepositories(ctx context.Context, org string) (map[string][]model.TeamRepository, error)
}

// Options tune one snapshot build.
type Options struct {
	// Branch overrides the repository's default branch.
	Branch string

	// AsOf resolves the snapshot against the newest commit at or before
	// this instant instead of the branch tip.
	AsOf *time.Time

	// IncludeTeams populates team access. Only meaningful when the owner
	// is an organization.
	IncludeTeams bool
}

// Builder produces snapshots. It never returns partial results: any
// upstream failure fails the whole build.
type Builder struct {
	client GitHubClient
	trees  *cache.TreeCache
}

func NewBuilder(client GitHubClient, trees *cache.TreeCache) *Builder {
	if trees == nil {
		trees = cache.NewTreeCache(nil, "", 0)
	}
	return &Builder{client: client, trees: trees}
}

// Build aggregates one snapshot. An empty repository yields an empty
// snapshot rather than an error, since there is nothing stale or wrong
// about a repository with no commits.
func (b *Builder) Build(ctx context.Context, owner, repo string, opts Options) (model.Snapshot, error) {
	takenAt := time.Now().UTC()

	meta, err := b.client.GetRepository(ctx, owner, repo)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("failed to fetch metadata for %s/%s: %w", owner, repo, err)
	}

	branch := opts.Branch
	if branch == "" {
		branch = meta.DefaultBranch
	}

	snap := model.Snapshot{
		Owner:         owner,
		Repository:    repo,
		Branch:        branch,
		TakenAt:       takenAt,
		AsOf:          opts.AsOf,
		Metadata:      *meta,
		Dependencies:  []model.Dependency{},
		Teams:         []string{},
		ManifestKinds: []string{},
		CDFiles:       []string{},
	}

	commit, err := b.client.ResolveCommit(ctx, owner, repo, branch, opts.AsOf)
	if errors.Is(err, github.ErrEmptyRepository) {
		snap.ID = model.SnapshotID(owner, repo, "empty")
		return snap, nil
	}
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("failed to resolve commit for %s/%s: %w", owner, repo, err)
	}
	snap.ID = model.SnapshotID(owner, repo, commit.OID)
	snap.Commit = commit

	entries, err := b.trees.Fetch(ctx, commit.TreeOID, func(ctx context.Context) ([]model.TreeEntry, error) {
		return b.client.ListTree(ctx, owner, repo, commit.TreeOID)
	})
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("failed to list tree for %s/%s: %w", owner, repo, err)
	}

	blobs := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type == "blob" {
			blobs = append(blobs, e.Path)
		}
	}

	snap.CDFiles = detectCDFiles(blobs)
	snap.HasCD = len(snap.CDFiles) > 0

	manifestPaths := manifest.Detect(blobs)
	if len(manifestPaths) > 0 {
		// Content is addressed by commit OID so the read cannot race a
		// concurrent push to the branch.
		files, err := b.client.ReadFiles(ctx, owner, repo, commit.OID, manifestPaths)
		if err != nil {
			return model.Snapshot{}, fmt.Errorf("failed to read manifests for %s/%s: %w", owner, repo, err)
		}
		deps, kinds := manifest.ParseFiles(files)
		if deps != nil {
			snap.Dependencies = deps
		}
		snap.ManifestKinds = kinds
	}

	if opts.IncludeTeams {
		teams, err := b.teamsFor(ctx, owner, repo)
		if err != nil {
			return model.Snapshot{}, err
		}
		snap.Teams = teams
	}

	log.Info("snapshot built",
		"repository", owner+"/"+repo,
		"commit", commit.OID,
		"dependencies", len(snap.Dependencies),
		"has_cd", snap.HasCD)
	return snap, nil
}

func (b *Builder) teamsFor(ctx context.Context, org, repo string) ([]string, error) {
	byTeam, err := b.client.TeamRepositories(ctx, org)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve team access for %s/%s: %w", org, repo, err)
	}

	teams := []string{}
	for team, repos := range byTeam {
		for _, tr := range repos {
			if strings.EqualFold(tr.Repository, repo) {
				teams = append(teams, team)
				break
			}
		}
	}
	sort.Strings(teams)
	return teams, nil
}

// cdRootFiles are pipeline definitions recognized at the tree root.
var cdRootFiles = []string{
	"appveyor.yml",
	"azure-pipelines.yml",
	"Jenkinsfile",
	".gitlab-ci.yml",
}

// detectCDFiles finds recognized pipeline definitions: well-known root
// files plus anything under .github/workflows.
func detectCDFiles(paths []string) []string {
	var found []string
	for _, p := range paths {
		if isCDFile(p) {
			found = append(found, p)
		}
	}
	if found == nil {
		return []string{}
	}
	return found
}

func isCDFile(p string) bool {
	for _, root := range cdRootFiles {
		if p == root {
			return true
		}
	}
	if strings.HasPrefix(p, ".github/workflows/") {
		ext := path.Ext(p)
		return ext == ".yml" || ext == ".yaml"
	}
	return false
}
