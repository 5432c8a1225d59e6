package github

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/repoatlas/repoatlas/internal/model"
)

// ReadFiles fetches the contents of multiple paths inside one repository
// tree in a single round trip. The query language forbids two sibling
// fields with identical names, so each path gets a position-based alias
// (f1, f2, ...) and the response is parsed by alias, never by path text.
//
// The returned sequence has exactly one entry per input path, in input
// order. If any path has no node at the given reference the whole call
// fails with a StaleIndexError naming that path: a missing path almost
// always means the cached file listing is stale, and partial results
// would let callers silently operate on incomplete data.
func (c *Client) ReadFiles(ctx context.Context, owner, repo, ref string, paths []string) ([]model.FileEntry, error) {
	if len(paths) == 0 {
		return []model.FileEntry{}, nil
	}

	query := buildFileBatchQuery(owner, repo, ref, paths)

	var data json.RawMessage
	err := c.retrier.Do(ctx, func() error {
		var qerr error
		data, qerr = c.executeGraphQL(ctx, query)
		return qerr
	})
	if err != nil {
		return nil, err
	}

	return parseFileBatchResponse(data, owner, repo, paths)
}

// buildFileBatchQuery emits one aliased blob sub-query per path. All
// user-supplied values pass through strconv.Quote so names containing
// quotes or backslashes cannot escape their argument position.
func buildFileBatchQuery(owner, repo, ref string, paths []string) string {
	var sb strings.Builder
	sb.WriteString("query {\n")
	fmt.Fprintf(&sb, "  repository(owner: %s, name: %s) {\n", strconv.Quote(owner), strconv.Quote(repo))
	for i, path := range paths {
		// Aliases are 1-indexed by position.
		fmt.Fprintf(&sb, "    f%d: object(expression: %s) {\n", i+1, strconv.Quote(ref+":"+path))
		sb.WriteString("      ... on Blob {\n        text\n      }\n    }\n")
	}
	sb.WriteString("  }\n}")
	return sb.String()
}

func parseFileBatchResponse(data json.RawMessage, owner, repo string, paths []string) ([]model.FileEntry, error) {
	var payload struct {
		Repository map[string]json.RawMessage `json:"repository"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse file batch response: %w", err)
	}
	if payload.Repository == nil {
		return nil, fmt.Errorf("repository %s/%s: %w", owner, repo, ErrNotFound)
	}

	files := make([]model.FileEntry, 0, len(paths))
	for i, path := range paths {
		alias := fmt.Sprintf("f%d", i+1)
		raw, ok := payload.Repository[alias]
		if !ok || string(raw) == "null" {
			return nil, &StaleIndexError{Owner: owner, Repo: repo, Path: path}
		}

		var blob struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(raw, &blob); err != nil {
			return nil, fmt.Errorf("failed to parse blob for %q: %w", path, err)
		}
		files = append(files, model.FileEntry{Path: path, Content: blob.Text})
	}
	return files, nil
}
