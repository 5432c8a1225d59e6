package github

import (
	"context"
	"fmt"
	"net/http"

	"github.com/repoatlas/repoatlas/internal/model"
)

// ListTree fetches the recursive listing of a tree through the REST
// endpoint; the GraphQL surface has no recursive tree query. Tree OIDs
// address immutable content, so the result is safe to cache indefinitely.
func (c *Client) ListTree(ctx context.Context, owner, repo, treeOID string) ([]model.TreeEntry, error) {
	var entries []model.TreeEntry

	err := c.retrier.Do(ctx, func() error {
		tree, resp, err := c.rest.Git.GetTree(ctx, owner, repo, treeOID, true)
		if err != nil {
			if resp != nil && resp.StatusCode == http.StatusNotFound {
				return fmt.Errorf("tree %s in %s/%s: %w", treeOID, owner, repo, ErrNotFound)
			}
			return fmt.Errorf("failed to list tree %s in %s/%s: %w", treeOID, owner, repo, err)
		}

		entries = make([]model.TreeEntry, 0, len(tree.Entries))
		for _, e := range tree.Entries {
			entries = append(entries, model.TreeEntry{
				Path: e.GetPath(),
				Type: e.GetType(),
				Size: e.GetSize(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// AuthenticatedUser returns the login the client's token belongs to.
func (c *Client) AuthenticatedUser(ctx context.Context) (string, error) {
	user, _, err := c.rest.Users.Get(ctx, "")
	if err != nil {
		return "", fmt.Errorf("failed to fetch authenticated user: %w", err)
	}
	return user.GetLogin(), nil
}
