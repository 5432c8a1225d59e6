// Package search answers "which repositories depend on X" style queries
// over stored snapshots. Exact-match criteria narrow the candidate set
// in MongoDB; version range predicates run in Go because they need
// semver semantics.
package search

import (
	"context"
	"fmt"
	"sort"

	"github.com/repoatlas/repoatlas/internal/depfilter"
	"github.com/repoatlas/repoatlas/internal/log"
	"github.com/repoatlas/repoatlas/internal/model"
	"github.com/repoatlas/repoatlas/internal/store"
)

// Query describes one search. All populated criteria must hold for a
// repository to match.
type Query struct {
	// Owner restricts results to one owner's repositories.
	Owner string `json:"owner,omitempty"`

	// Topics must all be present on the repository.
	Topics []string `json:"topics,omitempty"`

	// Teams must all have access to the repository.
	Teams []string `json:"teams,omitempty"`

	// HasCD filters on the presence of a recognized pipeline definition.
	HasCD *bool `json:"hasCd,omitempty"`

	// ManifestKind restricts to repositories carrying a manifest of this
	// kind (nuget, npm, gomod, pip).
	ManifestKind string `json:"manifestKind,omitempty"`

	// Dependencies are textual filters in the name[:op?version] grammar.
	Dependencies []string `json:"dependencies,omitempty"`
}

// Result is one matching repository, pinned to the snapshot that
// satisfied the query.
type Result struct {
	Owner      string `json:"owner"`
	Repository string `json:"repository"`
	SnapshotID string `json:"snapshotId"`
}

// Searcher evaluates queries against a snapshot store.
type Searcher struct {
	store store.SnapshotStore
}

func New(st store.SnapshotStore) *Searcher {
	return &Searcher{store: st}
}

// Search runs one query. Only the newest snapshot per repository is
// considered: search answers what repositories look like now, not what
// they ever looked like.
func (s *Searcher) Search(ctx context.Context, q Query) ([]Result, error) {
	filters := depfilter.ParseAll(q.Dependencies)

	depNames := make([]string, 0, len(filters))
	for _, f := range filters {
		depNames = append(depNames, f.Name)
	}

	candidates, err := s.store.Candidates(ctx, store.CandidateQuery{
		Owner:    q.Owner,
		Topics:   q.Topics,
		Teams:    q.Teams,
		HasCD:    q.HasCD,
		DepNames: depNames,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load search candidates: %w", err)
	}
	log.Debug("evaluating search candidates", "candidates", len(candidates), "filters", len(filters))

	// Candidates arrive newest first, so the first snapshot seen per
	// repository is the current one.
	seen := make(map[string]bool)
	var results []Result
	for _, snap := range candidates {
		repoKey := snap.Owner + "/" + snap.Repository
		if seen[repoKey] {
			continue
		}
		seen[repoKey] = true

		if !matches(snap, q, filters) {
			continue
		}
		results = append(results, Result{
			Owner:      snap.Owner,
			Repository: snap.Repository,
			SnapshotID: snap.ID,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Owner != results[j].Owner {
			return results[i].Owner < results[j].Owner
		}
		return results[i].Repository < results[j].Repository
	})
	return results, nil
}

func matches(snap model.Snapshot, q Query, filters []depfilter.Filter) bool {
	if q.ManifestKind != "" && !contains(snap.ManifestKinds, q.ManifestKind) {
		return false
	}
	for _, f := range filters {
		if !anyDependencyMatches(snap.Dependencies, f) {
			return false
		}
	}
	return true
}

func anyDependencyMatches(deps []model.Dependency, f depfilter.Filter) bool {
	for _, d := range deps {
		if f.Matches(d.Name, d.Version) {
			return true
		}
	}
	return false
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}
