package github

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestBuildFileBatchQuery(t *testing.T) {
	query := buildFileBatchQuery("acme", "widgets", "main", []string{"go.mod", "src/app.csproj"})

	if !strings.Contains(query, `repository(owner: "acme", name: "widgets")`) {
		t.Error("query should scope to the repository")
	}
	// Aliases are position-based and 1-indexed.
	if !strings.Contains(query, `f1: object(expression: "main:go.mod")`) {
		t.Error("query should alias the first path as f1")
	}
	if !strings.Contains(query, `f2: object(expression: "main:src/app.csproj")`) {
		t.Error("query should alias the second path as f2")
	}
	if !strings.Contains(query, "... on Blob") {
		t.Error("query should select blob text")
	}
}

func TestBuildFileBatchQueryQuotesSpecialCharacters(t *testing.T) {
	query := buildFileBatchQuery("o", "r", "main", []string{`path"with{quote`})

	if !strings.Contains(query, `"main:path\"with{quote"`) {
		t.Errorf("special characters must stay inside the quoted argument, got:\n%s", query)
	}
}

func TestReadFilesPreservesInputOrder(t *testing.T) {
	paths := []string{"b.txt", "a.txt", "c/a.txt"}

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"data": map[string]any{
				"repository": map[string]any{
					"f1": map[string]any{"text": "content-b"},
					"f2": map[string]any{"text": "content-a"},
					"f3": map[string]any{"text": "content-ca"},
				},
			},
		})
	}))

	files, err := c.ReadFiles(context.Background(), "acme", "widgets", "main", paths)
	if err != nil {
		t.Fatalf("ReadFiles failed: %v", err)
	}
	if len(files) != len(paths) {
		t.Fatalf("expected %d files, got %d", len(paths), len(files))
	}

	wantContent := []string{"content-b", "content-a", "content-ca"}
	for i := range paths {
		if files[i].Path != paths[i] {
			t.Errorf("files[%d].Path = %q, want %q", i, files[i].Path, paths[i])
		}
		if files[i].Content != wantContent[i] {
			t.Errorf("files[%d].Content = %q, want %q", i, files[i].Content, wantContent[i])
		}
	}
}

func TestReadFilesMissingPathFailsWhole(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"data": map[string]any{
				"repository": map[string]any{
					"f1": map[string]any{"text": "here"},
					"f2": nil,
				},
			},
		})
	}))

	files, err := c.ReadFiles(context.Background(), "acme", "widgets", "main", []string{"present.txt", "gone.txt"})
	if files != nil {
		t.Error("expected no partial results on a missing path")
	}

	var stale *StaleIndexError
	if !errors.As(err, &stale) {
		t.Fatalf("expected StaleIndexError, got %v", err)
	}
	if stale.Path != "gone.txt" {
		t.Errorf("expected error to name %q, got %q", "gone.txt", stale.Path)
	}
	if stale.Owner != "acme" || stale.Repo != "widgets" {
		t.Errorf("expected error to name the repository, got %s/%s", stale.Owner, stale.Repo)
	}
}

func TestReadFilesEmptyInputSkipsRequest(t *testing.T) {
	requests := 0
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))

	files, err := c.ReadFiles(context.Background(), "acme", "widgets", "main", nil)
	if err != nil {
		t.Fatalf("ReadFiles failed: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("expected empty result, got %d entries", len(files))
	}
	if requests != 0 {
		t.Errorf("expected no round trip for empty input, got %d requests", requests)
	}
}

func TestReadFilesRetriesAbuseSignature(t *testing.T) {
	requests := 0
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"message": "You have triggered an abuse detection mechanism"}`))
			return
		}
		writeJSON(t, w, map[string]any{
			"data": map[string]any{
				"repository": map[string]any{
					"f1": map[string]any{"text": "ok"},
				},
			},
		})
	}))

	files, err := c.ReadFiles(context.Background(), "acme", "widgets", "main", []string{"x"})
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if requests != 2 {
		t.Errorf("expected 2 requests, got %d", requests)
	}
	if len(files) != 1 || files[0].Content != "ok" {
		t.Errorf("unexpected result after retry: %+v", files)
	}
}
