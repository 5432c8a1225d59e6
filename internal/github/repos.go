package github

import (
	"context"
	"fmt"

	"github.com/shurcooL/githubv4"

	"github.com/repoatlas/repoatlas/internal/log"
	"github.com/repoatlas/repoatlas/internal/model"
)

// repoSummaryNode is the per-repository shape of the owner-scoped
// listing query.
type repoSummaryNode struct {
	Name             githubv4.String
	URL              githubv4.URI
	PushedAt         githubv4.DateTime
	DefaultBranchRef *struct {
		Name githubv4.String
	}
}

func mapRepoSummary(n repoSummaryNode) model.RepositorySummary {
	s := model.RepositorySummary{
		Name:     string(n.Name),
		URL:      n.URL.String(),
		PushedAt: n.PushedAt.Time,
	}
	if n.DefaultBranchRef != nil {
		s.DefaultBranch = string(n.DefaultBranchRef.Name)
	}
	return s
}

// ListRepositoryPage fetches a single page of the owner's repositories,
// ordered by most-recently-pushed descending, and returns a resumable
// cursor. This is the externally exposed variant of the walk: callers
// paginate at their own cadence instead of eagerly exhausting.
func (c *Client) ListRepositoryPage(ctx context.Context, owner, cursor string, size int) (Page[model.RepositorySummary], error) {
	if size <= 0 {
		size = c.pageSize
	}

	ownerType, err := c.OwnerType(ctx, owner)
	if err != nil {
		return Page[model.RepositorySummary]{}, err
	}

	variables := map[string]any{
		"login":  githubv4.String(owner),
		"size":   githubv4.Int(size),
		"cursor": gqlCursor(cursor),
	}

	var nodes []repoSummaryNode
	var info pageInfo

	switch ownerType {
	case model.OwnerOrganization:
		var q struct {
			Organization struct {
				Repositories struct {
					Nodes    []repoSummaryNode
					PageInfo pageInfo
				} `graphql:"repositories(first: $size, after: $cursor, orderBy: {field: PUSHED_AT, direction: DESC})"`
			} `graphql:"organization(login: $login)"`
		}
		if err := c.query(ctx, &q, variables); err != nil {
			return Page[model.RepositorySummary]{}, mapListError(owner, err)
		}
		nodes, info = q.Organization.Repositories.Nodes, q.Organization.Repositories.PageInfo
	default:
		var q struct {
			User struct {
				Repositories struct {
					Nodes    []repoSummaryNode
					PageInfo pageInfo
				} `graphql:"repositories(first: $size, after: $cursor, orderBy: {field: PUSHED_AT, direction: DESC})"`
			} `graphql:"user(login: $login)"`
		}
		if err := c.query(ctx, &q, variables); err != nil {
			return Page[model.RepositorySummary]{}, mapListError(owner, err)
		}
		nodes, info = q.User.Repositories.Nodes, q.User.Repositories.PageInfo
	}

	page := Page[model.RepositorySummary]{
		Items:   make([]model.RepositorySummary, 0, len(nodes)),
		Cursor:  string(info.EndCursor),
		HasNext: bool(info.HasNextPage),
	}
	for _, n := range nodes {
		page.Items = append(page.Items, mapRepoSummary(n))
	}
	return page, nil
}

func mapListError(owner string, err error) error {
	if isGraphQLNotFound(err) {
		return fmt.Errorf("owner %q: %w", owner, ErrNotFound)
	}
	return fmt.Errorf("failed to list repositories for %q: %w", owner, err)
}

// ListRepositories fully enumerates the owner's repositories.
func (c *Client) ListRepositories(ctx context.Context, owner string) ([]model.RepositorySummary, error) {
	repos, err := WalkPages(ctx, c.pageSize, func(ctx context.Context, cursor string, size int) (Page[model.RepositorySummary], error) {
		return c.ListRepositoryPage(ctx, owner, cursor, size)
	})
	if err != nil {
		return nil, err
	}
	log.Debug("listed repositories", "owner", owner, "count", len(repos))
	return repos, nil
}

// GetRepository fetches the full metadata record for one repository:
// name, URL, timestamps, default branch, the complete branch and topic
// sets, and project/issue/pull-request counts.
func (c *Client) GetRepository(ctx context.Context, owner, name string) (*model.Repository, error) {
	var q struct {
		Repository struct {
			Name             githubv4.String
			URL              githubv4.URI
			PushedAt         githubv4.DateTime
			CreatedAt        githubv4.DateTime
			DefaultBranchRef *struct {
				Name githubv4.String
			}
			Refs struct {
				Nodes []struct {
					Name githubv4.String
				}
				PageInfo pageInfo
			} `graphql:"refs(refPrefix: \"refs/heads/\", first: $size)"`
			RepositoryTopics struct {
				Nodes []struct {
					Topic struct {
						Name githubv4.String
					}
				}
				PageInfo pageInfo
			} `graphql:"repositoryTopics(first: $size)"`
			ProjectsV2 struct {
				TotalCount githubv4.Int
			} `graphql:"projectsV2(first: 1)"`
			Issues struct {
				TotalCount githubv4.Int
			}
			PullRequests struct {
				TotalCount githubv4.Int
			}
		} `graphql:"repository(owner: $owner, name: $name)"`
	}
	variables := map[string]any{
		"owner": githubv4.String(owner),
		"name":  githubv4.String(name),
		"size":  githubv4.Int(c.pageSize),
	}

	if err := c.query(ctx, &q, variables); err != nil {
		if isGraphQLNotFound(err) {
			return nil, fmt.Errorf("repository %s/%s: %w", owner, name, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch repository %s/%s: %w", owner, name, err)
	}

	repo := &model.Repository{
		Name:             string(q.Repository.Name),
		URL:              q.Repository.URL.String(),
		PushedAt:         q.Repository.PushedAt.Time,
		CreatedAt:        q.Repository.CreatedAt.Time,
		Branches:         make([]string, 0, len(q.Repository.Refs.Nodes)),
		Topics:           make([]string, 0, len(q.Repository.RepositoryTopics.Nodes)),
		ProjectCount:     int(q.Repository.ProjectsV2.TotalCount),
		IssueCount:       int(q.Repository.Issues.TotalCount),
		PullRequestCount: int(q.Repository.PullRequests.TotalCount),
	}
	if q.Repository.DefaultBranchRef != nil {
		repo.DefaultBranch = string(q.Repository.DefaultBranchRef.Name)
	}
	for _, n := range q.Repository.Refs.Nodes {
		repo.Branches = append(repo.Branches, string(n.Name))
	}
	for _, n := range q.Repository.RepositoryTopics.Nodes {
		repo.Topics = append(repo.Topics, string(n.Topic.Name))
	}

	// Large repositories can spill branches or topics past the first page.
	if bool(q.Repository.Refs.PageInfo.HasNextPage) {
		rest, err := c.walkBranches(ctx, owner, name, string(q.Repository.Refs.PageInfo.EndCursor))
		if err != nil {
			return nil, err
		}
		repo.Branches = append(repo.Branches, rest...)
	}
	if bool(q.Repository.RepositoryTopics.PageInfo.HasNextPage) {
		rest, err := c.walkTopics(ctx, owner, name, string(q.Repository.RepositoryTopics.PageInfo.EndCursor))
		if err != nil {
			return nil, err
		}
		repo.Topics = append(repo.Topics, rest...)
	}

	repo.Branches = dedupe(repo.Branches)
	repo.Topics = dedupe(repo.Topics)
	return repo, nil
}

func (c *Client) walkBranches(ctx context.Context, owner, name, after string) ([]string, error) {
	fetch := func(ctx context.Context, cursor string, size int) (Page[string], error) {
		var q struct {
			Repository struct {
				Refs struct {
					Nodes []struct {
						Name githubv4.String
					}
					PageInfo pageInfo
				} `graphql:"refs(refPrefix: \"refs/heads/\", first: $size, after: $cursor)"`
			} `graphql:"repository(owner: $owner, name: $name)"`
		}
		variables := map[string]any{
			"owner":  githubv4.String(owner),
			"name":   githubv4.String(name),
			"size":   githubv4.Int(size),
			"cursor": gqlCursor(cursor),
		}
		if err := c.query(ctx, &q, variables); err != nil {
			return Page[string]{}, fmt.Errorf("failed to walk branches of %s/%s: %w", owner, name, err)
		}
		page := Page[string]{
			Cursor:  string(q.Repository.Refs.PageInfo.EndCursor),
			HasNext: bool(q.Repository.Refs.PageInfo.HasNextPage),
		}
		for _, n := range q.Repository.Refs.Nodes {
			page.Items = append(page.Items, string(n.Name))
		}
		return page, nil
	}

	// Resume after the inline first page.
	first, err := fetch(ctx, after, c.pageSize)
	if err != nil {
		return nil, err
	}
	if !first.HasNext {
		return first.Items, nil
	}
	rest, err := WalkPages(ctx, c.pageSize, func(ctx context.Context, cursor string, size int) (Page[string], error) {
		if cursor == "" {
			cursor = first.Cursor
		}
		return fetch(ctx, cursor, size)
	})
	if err != nil {
		return nil, err
	}
	return append(first.Items, rest...), nil
}

func (c *Client) walkTopics(ctx context.Context, owner, name, after string) ([]string, error) {
	fetch := func(ctx context.Context, cursor string, size int) (Page[string], error) {
		var q struct {
			Repository struct {
				RepositoryTopics struct {
					Nodes []struct {
						Topic struct {
							Name githubv4.String
						}
					}
					PageInfo pageInfo
				} `graphql:"repositoryTopics(first: $size, after: $cursor)"`
			} `graphql:"repository(owner: $owner, name: $name)"`
		}
		variables := map[string]any{
			"owner":  githubv4.String(owner),
			"name":   githubv4.String(name),
			"size":   githubv4.Int(size),
			"cursor": gqlCursor(cursor),
		}
		if err := c.query(ctx, &q, variables); err != nil {
			return Page[string]{}, fmt.Errorf("failed to walk topics of %s/%s: %w", owner, name, err)
		}
		page := Page[string]{
			Cursor:  string(q.Repository.RepositoryTopics.PageInfo.EndCursor),
			HasNext: bool(q.Repository.RepositoryTopics.PageInfo.HasNextPage),
		}
		for _, n := range q.Repository.RepositoryTopics.Nodes {
			page.Items = append(page.Items, string(n.Topic.Name))
		}
		return page, nil
	}

	first, err := fetch(ctx, after, c.pageSize)
	if err != nil {
		return nil, err
	}
	if !first.HasNext {
		return first.Items, nil
	}
	rest, err := WalkPages(ctx, c.pageSize, func(ctx context.Context, cursor string, size int) (Page[string], error) {
		if cursor == "" {
			cursor = first.Cursor
		}
		return fetch(ctx, cursor, size)
	})
	if err != nil {
		return nil, err
	}
	return append(first.Items, rest...), nil
}

// dedupe removes duplicates while preserving arrival order.
func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
