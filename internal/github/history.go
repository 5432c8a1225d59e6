package github

import (
	"context"
	"fmt"
	"time"

	"github.com/shurcooL/githubv4"

	"github.com/repoatlas/repoatlas/internal/model"
)

// commitHistoryRepo is the shared result shape of the commit-history
// query; the user and organization roots both resolve to it.
type commitHistoryRepo struct {
	IsEmpty githubv4.Boolean
	Ref     *struct {
		Target struct {
			Commit struct {
				History struct {
					Nodes []historyNode
				} `graphql:"history(first: 1, until: $until)"`
			} `graphql:"... on Commit"`
		}
	} `graphql:"ref(qualifiedName: $branch)"`
}

type historyNode struct {
	Oid           githubv4.GitObjectID
	PushedDate    *githubv4.DateTime
	CommittedDate githubv4.DateTime
	Tree          struct {
		Oid githubv4.GitObjectID
	}
}

// ResolveCommit answers "what did this repository look like at or before
// asOf on branch?". With a nil asOf it resolves the branch tip. Only one
// history entry is requested: the upstream `until` ordering makes the
// first node the closest match.
//
// Failure modes are kept distinct: an unknown owner, repository, or
// branch is ErrNotFound; a repository with no commits at all is
// ErrEmptyRepository; a branch whose history starts after asOf is
// ErrNoCommitBefore.
func (c *Client) ResolveCommit(ctx context.Context, owner, repo, branch string, asOf *time.Time) (model.CommitRef, error) {
	ownerType, err := c.OwnerType(ctx, owner)
	if err != nil {
		return model.CommitRef{}, err
	}

	var until *githubv4.GitTimestamp
	if asOf != nil {
		until = &githubv4.GitTimestamp{Time: *asOf}
	}
	variables := map[string]any{
		"login":  githubv4.String(owner),
		"name":   githubv4.String(repo),
		"branch": githubv4.String(branch),
		"until":  until,
	}

	var result commitHistoryRepo
	switch ownerType {
	case model.OwnerOrganization:
		var q struct {
			Organization struct {
				Repository commitHistoryRepo `graphql:"repository(name: $name)"`
			} `graphql:"organization(login: $login)"`
		}
		if err := c.query(ctx, &q, variables); err != nil {
			return model.CommitRef{}, mapHistoryError(owner, repo, err)
		}
		result = q.Organization.Repository
	default:
		var q struct {
			User struct {
				Repository commitHistoryRepo `graphql:"repository(name: $name)"`
			} `graphql:"user(login: $login)"`
		}
		if err := c.query(ctx, &q, variables); err != nil {
			return model.CommitRef{}, mapHistoryError(owner, repo, err)
		}
		result = q.User.Repository
	}

	if bool(result.IsEmpty) {
		return model.CommitRef{}, fmt.Errorf("repository %s/%s: %w", owner, repo, ErrEmptyRepository)
	}
	if result.Ref == nil {
		return model.CommitRef{}, fmt.Errorf("branch %q in %s/%s: %w", branch, owner, repo, ErrNotFound)
	}

	nodes := result.Ref.Target.Commit.History.Nodes
	if len(nodes) == 0 {
		if asOf != nil {
			return model.CommitRef{}, fmt.Errorf("branch %q in %s/%s has no commit at or before %s: %w",
				branch, owner, repo, asOf.Format(time.RFC3339), ErrNoCommitBefore)
		}
		return model.CommitRef{}, fmt.Errorf("repository %s/%s: %w", owner, repo, ErrEmptyRepository)
	}

	node := nodes[0]
	ref := model.CommitRef{
		OID:         string(node.Oid),
		CommittedAt: node.CommittedDate.Time,
		TreeOID:     string(node.Tree.Oid),
	}
	if node.PushedDate != nil {
		ref.PushedAt = node.PushedDate.Time
	}
	return ref, nil
}

func mapHistoryError(owner, repo string, err error) error {
	if isGraphQLNotFound(err) {
		return fmt.Errorf("repository %s/%s: %w", owner, repo, ErrNotFound)
	}
	return fmt.Errorf("failed to resolve commit history for %s/%s: %w", owner, repo, err)
}
