package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// newTestClient wires a Client against a local test server for both the
// REST and GraphQL surfaces, with an instant backoff so retry tests do
// not sleep.
func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient("test-token",
		WithBaseURLs(srv.URL+"/", srv.URL+"/", srv.URL+"/graphql"),
		WithRetrier(&AbuseRetrier{
			Sleep:   func(context.Context, time.Duration) error { return nil },
			OnRetry: func(time.Duration, int) {},
		}),
	)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return c
}

// gqlRequest is the decoded body of one GraphQL POST.
type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

func decodeGQL(t *testing.T, r *http.Request) gqlRequest {
	t.Helper()
	var req gqlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		t.Fatalf("failed to decode GraphQL request: %v", err)
	}
	return req
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatalf("failed to encode response: %v", err)
	}
}

func stringVar(vars map[string]any, key string) string {
	if v, ok := vars[key].(string); ok {
		return v
	}
	return ""
}
