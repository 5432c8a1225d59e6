package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/repoatlas/repoatlas/internal/log"
)

// graphqlRequest represents a GraphQL request payload.
type graphqlRequest struct {
	Query string `json:"query"`
}

// graphqlResponse represents a generic GraphQL response.
type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

type graphqlError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// executeGraphQL posts a raw query to the GraphQL endpoint. The typed
// githubv4 client covers every fixed-shape query; this path exists for
// the batched file reads, whose alias count is only known at runtime.
func (c *Client) executeGraphQL(ctx context.Context, query string) (json.RawMessage, error) {
	body, err := json.Marshal(graphqlRequest{Query: query})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GraphQL request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create GraphQL request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	log.Trace("executing GraphQL query", "bytes", len(body))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GraphQL request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read GraphQL response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusForbidden && strings.Contains(strings.ToLower(string(respBody)), abuseMarker) {
			return nil, &AbuseError{StatusCode: resp.StatusCode, Body: string(respBody)}
		}
		return nil, fmt.Errorf("GraphQL request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var gqlResp graphqlResponse
	if err := json.Unmarshal(respBody, &gqlResp); err != nil {
		return nil, fmt.Errorf("failed to parse GraphQL response: %w", err)
	}

	for _, e := range gqlResp.Errors {
		if strings.EqualFold(e.Type, "NOT_FOUND") {
			return nil, fmt.Errorf("%s: %w", e.Message, ErrNotFound)
		}
	}
	if len(gqlResp.Errors) > 0 {
		return nil, fmt.Errorf("GraphQL query failed: %s", gqlResp.Errors[0].Message)
	}

	return gqlResp.Data, nil
}
