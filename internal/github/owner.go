package github

import (
	"context"
	"fmt"

	"github.com/shurcooL/githubv4"

	"github.com/repoatlas/repoatlas/internal/log"
	"github.com/repoatlas/repoatlas/internal/model"
)

// OwnerType probes whether login is a user or an organization. The two
// entity types need different query roots but produce identical result
// shapes, so every owner-scoped operation probes once and dispatches.
// Results are memoized: an owner's type never changes.
func (c *Client) OwnerType(ctx context.Context, login string) (model.OwnerType, error) {
	if t, ok := c.ownerTypes.Get(login); ok {
		return t, nil
	}

	var q struct {
		RepositoryOwner struct {
			TypeName githubv4.String `graphql:"__typename"`
		} `graphql:"repositoryOwner(login: $login)"`
	}
	variables := map[string]any{
		"login": githubv4.String(login),
	}

	if err := c.query(ctx, &q, variables); err != nil {
		if isGraphQLNotFound(err) {
			return "", fmt.Errorf("owner %q: %w", login, ErrNotFound)
		}
		return "", fmt.Errorf("failed to probe owner type for %q: %w", login, err)
	}

	switch model.OwnerType(q.RepositoryOwner.TypeName) {
	case model.OwnerUser:
		c.ownerTypes.Add(login, model.OwnerUser)
		return model.OwnerUser, nil
	case model.OwnerOrganization:
		c.ownerTypes.Add(login, model.OwnerOrganization)
		return model.OwnerOrganization, nil
	case "":
		// A null repositoryOwner decodes to an empty typename without a
		// transport error.
		return "", fmt.Errorf("owner %q: %w", login, ErrNotFound)
	default:
		log.Debug("unexpected owner type", "login", login, "type", string(q.RepositoryOwner.TypeName))
		return "", fmt.Errorf("owner %q has unsupported type %q", login, q.RepositoryOwner.TypeName)
	}
}
