package github

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/shurcooL/githubv4"
	"golang.org/x/sync/errgroup"

	"github.com/repoatlas/repoatlas/internal/log"
	"github.com/repoatlas/repoatlas/internal/model"
)

type teamRepoEdge struct {
	Permission githubv4.String
	Node       struct {
		Name githubv4.String
	}
}

type teamNode struct {
	Name         githubv4.String
	Repositories struct {
		Edges    []teamRepoEdge
		PageInfo pageInfo
	} `graphql:"repositories(first: $repoSize)"`
}

// TeamRepositories walks every team in the organization and returns a
// map from team name to the team's complete, deduplicated repository
// permission list.
//
// The walk has two independent cursor levels. Each outer page of teams
// arrives with the first inner page of every team's repositories; teams
// whose inner cursor is not yet exhausted are drained concurrently
// before the outer cursor advances. The platform offers no direct
// "team N's next repository page" query, so inner continuation re-scopes
// through the organization by team name.
//
// Team names are assumed unique within an organization; the upstream
// enforces slug uniqueness, and the map is keyed on that assumption.
func (c *Client) TeamRepositories(ctx context.Context, org string) (map[string][]model.TeamRepository, error) {
	result := make(map[string][]model.TeamRepository)
	var mu sync.Mutex

	teamsCursor := ""
	for {
		var q struct {
			Organization struct {
				Teams struct {
					Nodes    []teamNode
					PageInfo pageInfo
				} `graphql:"teams(first: $teamSize, after: $teamCursor)"`
			} `graphql:"organization(login: $org)"`
		}
		variables := map[string]any{
			"org":        githubv4.String(org),
			"teamSize":   githubv4.Int(c.pageSize),
			"teamCursor": gqlCursor(teamsCursor),
			"repoSize":   githubv4.Int(c.pageSize),
		}
		if err := c.query(ctx, &q, variables); err != nil {
			if isGraphQLNotFound(err) {
				return nil, fmt.Errorf("organization %q: %w", org, ErrNotFound)
			}
			return nil, fmt.Errorf("failed to list teams for %q: %w", org, err)
		}

		// Independent teams' inner pagination may run concurrently; only
		// the outer cursor is sequential.
		g, gctx := errgroup.WithContext(ctx)
		for _, team := range q.Organization.Teams.Nodes {
			name := string(team.Name)
			repos := mapTeamEdges(team.Repositories.Edges)
			inner := team.Repositories.PageInfo

			g.Go(func() error {
				if bool(inner.HasNextPage) {
					rest, err := c.walkTeamRepositories(gctx, org, name, string(inner.EndCursor))
					if err != nil {
						return err
					}
					repos = append(repos, rest...)
				}
				mu.Lock()
				result[name] = dedupeTeamRepos(repos)
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		if !bool(q.Organization.Teams.PageInfo.HasNextPage) {
			break
		}
		teamsCursor = string(q.Organization.Teams.PageInfo.EndCursor)
	}

	log.Debug("walked organization teams", "org", org, "teams", len(result))
	return result, nil
}

// walkTeamRepositories drains the remaining repository pages of one team.
// The scoped query re-searches the organization for exactly that team by
// name and resumes its inner cursor.
func (c *Client) walkTeamRepositories(ctx context.Context, org, team, after string) ([]model.TeamRepository, error) {
	fetch := func(ctx context.Context, cursor string, size int) (Page[model.TeamRepository], error) {
		var q struct {
			Organization struct {
				Teams struct {
					Nodes []struct {
						Name         githubv4.String
						Repositories struct {
							Edges    []teamRepoEdge
							PageInfo pageInfo
						} `graphql:"repositories(first: $size, after: $cursor)"`
					}
				} `graphql:"teams(first: 1, query: $team)"`
			} `graphql:"organization(login: $org)"`
		}
		variables := map[string]any{
			"org":    githubv4.String(org),
			"team":   githubv4.String(team),
			"size":   githubv4.Int(size),
			"cursor": gqlCursor(cursor),
		}
		if err := c.query(ctx, &q, variables); err != nil {
			return Page[model.TeamRepository]{}, fmt.Errorf("failed to continue repositories of team %q: %w", team, err)
		}

		nodes := q.Organization.Teams.Nodes
		if len(nodes) == 0 || !strings.EqualFold(string(nodes[0].Name), team) {
			return Page[model.TeamRepository]{}, fmt.Errorf("team %q in %q: %w", team, org, ErrNotFound)
		}

		return Page[model.TeamRepository]{
			Items:   mapTeamEdges(nodes[0].Repositories.Edges),
			Cursor:  string(nodes[0].Repositories.PageInfo.EndCursor),
			HasNext: bool(nodes[0].Repositories.PageInfo.HasNextPage),
		}, nil
	}

	return WalkPages(ctx, c.pageSize, func(ctx context.Context, cursor string, size int) (Page[model.TeamRepository], error) {
		if cursor == "" {
			cursor = after
		}
		return fetch(ctx, cursor, size)
	})
}

func mapTeamEdges(edges []teamRepoEdge) []model.TeamRepository {
	repos := make([]model.TeamRepository, 0, len(edges))
	for _, e := range edges {
		repos = append(repos, model.TeamRepository{
			Repository: string(e.Node.Name),
			Permission: mapPermission(string(e.Permission)),
		})
	}
	return repos
}

// mapPermission folds the upstream permission enum onto the three levels
// the search layer distinguishes.
func mapPermission(p string) string {
	switch strings.ToUpper(p) {
	case "ADMIN":
		return "admin"
	case "MAINTAIN", "WRITE":
		return "write"
	default:
		return "read"
	}
}

func dedupeTeamRepos(repos []model.TeamRepository) []model.TeamRepository {
	seen := make(map[string]struct{}, len(repos))
	out := repos[:0]
	for _, r := range repos {
		if _, ok := seen[r.Repository]; ok {
			continue
		}
		seen[r.Repository] = struct{}{}
		out = append(out, r)
	}
	return out
}
