package github

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
)

func teamEdge(repo, permission string) map[string]any {
	return map[string]any{
		"permission": permission,
		"node":       map[string]any{"name": repo},
	}
}

func TestTeamRepositoriesTwoLevelWalk(t *testing.T) {
	// Team "platform" carries 150 repository edges split across two inner
	// pages; its inner cursor must be exhausted before the outer cursor
	// advances to the second page of teams.
	firstInner := make([]any, 0, 100)
	for i := range 100 {
		firstInner = append(firstInner, teamEdge(fmt.Sprintf("repo-%d", i), "WRITE"))
	}
	secondInner := make([]any, 0, 51)
	for i := 99; i < 150; i++ { // repo-99 repeats across the page boundary
		secondInner = append(secondInner, teamEdge(fmt.Sprintf("repo-%d", i), "WRITE"))
	}

	var mu sync.Mutex
	var sequence []string

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := decodeGQL(t, r)
		switch {
		case strings.Contains(req.Query, "teams(first: 1, query:"):
			mu.Lock()
			sequence = append(sequence, "inner:"+stringVar(req.Variables, "team"))
			mu.Unlock()

			if got := stringVar(req.Variables, "cursor"); got != "r100" {
				t.Errorf("inner continuation cursor = %q, want %q", got, "r100")
			}
			writeJSON(t, w, map[string]any{
				"data": map[string]any{
					"organization": map[string]any{
						"teams": map[string]any{
							"nodes": []any{
								map[string]any{
									"name": "platform",
									"repositories": map[string]any{
										"edges":    secondInner,
										"pageInfo": map[string]any{"endCursor": "", "hasNextPage": false},
									},
								},
							},
						},
					},
				},
			})

		case strings.Contains(req.Query, "teams(first: $teamSize"):
			cursor := stringVar(req.Variables, "teamCursor")
			mu.Lock()
			sequence = append(sequence, "outer:"+cursor)
			mu.Unlock()

			if cursor == "" {
				writeJSON(t, w, map[string]any{
					"data": map[string]any{
						"organization": map[string]any{
							"teams": map[string]any{
								"nodes": []any{
									map[string]any{
										"name": "platform",
										"repositories": map[string]any{
											"edges":    firstInner,
											"pageInfo": map[string]any{"endCursor": "r100", "hasNextPage": true},
										},
									},
									map[string]any{
										"name": "tools",
										"repositories": map[string]any{
											"edges": []any{
												teamEdge("cli", "ADMIN"),
												teamEdge("docs", "READ"),
											},
											"pageInfo": map[string]any{"endCursor": "", "hasNextPage": false},
										},
									},
								},
								"pageInfo": map[string]any{"endCursor": "T1", "hasNextPage": true},
							},
						},
					},
				})
				return
			}

			writeJSON(t, w, map[string]any{
				"data": map[string]any{
					"organization": map[string]any{
						"teams": map[string]any{
							"nodes": []any{
								map[string]any{
									"name": "security",
									"repositories": map[string]any{
										"edges":    []any{teamEdge("scanner", "MAINTAIN")},
										"pageInfo": map[string]any{"endCursor": "", "hasNextPage": false},
									},
								},
							},
							"pageInfo": map[string]any{"endCursor": "", "hasNextPage": false},
						},
					},
				},
			})

		default:
			t.Errorf("unexpected query: %s", req.Query)
		}
	})

	c := newTestClient(t, handler)

	teams, err := c.TeamRepositories(context.Background(), "acme")
	if err != nil {
		t.Fatalf("TeamRepositories failed: %v", err)
	}

	if len(teams) != 3 {
		t.Fatalf("expected 3 teams, got %d", len(teams))
	}
	if got := len(teams["platform"]); got != 150 {
		t.Errorf("platform: expected 150 deduplicated repositories, got %d", got)
	}
	if got := len(teams["tools"]); got != 2 {
		t.Errorf("tools: expected 2 repositories, got %d", got)
	}
	if got := len(teams["security"]); got != 1 {
		t.Errorf("security: expected 1 repository, got %d", got)
	}

	// Inner exhaustion happens before the outer cursor advances.
	want := []string{"outer:", "inner:platform", "outer:T1"}
	if len(sequence) != len(want) {
		t.Fatalf("expected %d requests %v, got %v", len(want), want, sequence)
	}
	for i := range want {
		if sequence[i] != want[i] {
			t.Errorf("request %d: got %q, want %q", i, sequence[i], want[i])
		}
	}
}

func TestMapPermission(t *testing.T) {
	tests := []struct {
		upstream string
		want     string
	}{
		{"ADMIN", "admin"},
		{"MAINTAIN", "write"},
		{"WRITE", "write"},
		{"TRIAGE", "read"},
		{"READ", "read"},
		{"", "read"},
	}

	for _, tt := range tests {
		if got := mapPermission(tt.upstream); got != tt.want {
			t.Errorf("mapPermission(%q) = %q, want %q", tt.upstream, got, tt.want)
		}
	}
}
