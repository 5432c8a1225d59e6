package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/repoatlas/repoatlas/internal/github"
	"github.com/repoatlas/repoatlas/internal/model"
	"github.com/repoatlas/repoatlas/internal/search"
	"github.com/repoatlas/repoatlas/internal/snapshot"
	"github.com/repoatlas/repoatlas/internal/store"
)

type fakeBuilder struct {
	snap model.Snapshot
	err  error
	opts snapshot.Options
}

func (f *fakeBuilder) Build(_ context.Context, owner, repo string, opts snapshot.Options) (model.Snapshot, error) {
	f.opts = opts
	if f.err != nil {
		return model.Snapshot{}, f.err
	}
	snap := f.snap
	snap.Owner, snap.Repository = owner, repo
	return snap, nil
}

type fakeStore struct {
	store.SnapshotStore
	upserted  []model.Snapshot
	snapshots []model.Snapshot
	latestErr error
	deleted   []string
	deleteErr error
}

func (f *fakeStore) Upsert(_ context.Context, snap model.Snapshot) error {
	f.upserted = append(f.upserted, snap)
	return nil
}

func (f *fakeStore) ListByRepository(context.Context, string, string) ([]model.Snapshot, error) {
	return f.snapshots, nil
}

func (f *fakeStore) GetLatest(context.Context, string, string) (model.Snapshot, error) {
	if f.latestErr != nil {
		return model.Snapshot{}, f.latestErr
	}
	if len(f.snapshots) == 0 {
		return model.Snapshot{}, store.ErrNotFound
	}
	return f.snapshots[0], nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeLister struct {
	page     github.Page[model.RepositorySummary]
	err      error
	gotSize  int
	gotCurs  string
	teams    map[string][]model.TeamRepository
	teamsErr error
}

func (f *fakeLister) ListRepositoryPage(_ context.Context, _, cursor string, size int) (github.Page[model.RepositorySummary], error) {
	f.gotCurs, f.gotSize = cursor, size
	return f.page, f.err
}

func (f *fakeLister) TeamRepositories(context.Context, string) (map[string][]model.TeamRepository, error) {
	return f.teams, f.teamsErr
}

type fakeSearcher struct {
	results []search.Result
	err     error
}

func (f *fakeSearcher) Search(context.Context, search.Query) ([]search.Result, error) {
	return f.results, f.err
}

type testServer struct {
	builder  *fakeBuilder
	store    *fakeStore
	lister   *fakeLister
	searcher *fakeSearcher
	handler  http.Handler
}

func newTestServer() *testServer {
	ts := &testServer{
		builder:  &fakeBuilder{},
		store:    &fakeStore{},
		lister:   &fakeLister{},
		searcher: &fakeSearcher{},
	}
	ts.handler = NewServer(ts.builder, ts.lister, ts.store, ts.searcher).Router()
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	rec := newTestServer().do(t, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCreateSnapshotStoresByDefault(t *testing.T) {
	ts := newTestServer()
	ts.builder.snap = model.Snapshot{ID: "acme/widgets@abc"}

	rec := ts.do(t, http.MethodPost, "/api/snapshots", `{"owner":"acme","repository":"widgets","includeTeams":true}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(ts.store.upserted) != 1 {
		t.Errorf("expected the snapshot to be persisted, got %d upserts", len(ts.store.upserted))
	}
	if !ts.builder.opts.IncludeTeams {
		t.Error("includeTeams was not forwarded to the builder")
	}

	var snap model.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if snap.Owner != "acme" || snap.Repository != "widgets" {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
}

func TestCreateSnapshotDryRun(t *testing.T) {
	ts := newTestServer()
	rec := ts.do(t, http.MethodPost, "/api/snapshots", `{"owner":"acme","repository":"widgets","store":false}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(ts.store.upserted) != 0 {
		t.Error("a dry run must not persist the snapshot")
	}
}

func TestCreateSnapshotValidation(t *testing.T) {
	ts := newTestServer()
	rec := ts.do(t, http.MethodPost, "/api/snapshots", `{"owner":"acme"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"stale index", &github.StaleIndexError{Owner: "a", Repo: "r", Path: "p"}, http.StatusConflict, "stale_index"},
		{"not found", github.ErrNotFound, http.StatusNotFound, "not_found"},
		{"as-of precedes history", github.ErrNoCommitBefore, http.StatusUnprocessableEntity, "no_commit_before"},
		{"abuse exhaustion", &github.AbuseError{StatusCode: 403, Body: "abuse detected"}, http.StatusBadGateway, "upstream_rate_limited"},
		{"anything else", fmt.Errorf("boom"), http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer()
			ts.builder.err = tt.err

			rec := ts.do(t, http.MethodPost, "/api/snapshots", `{"owner":"acme","repository":"widgets"}`)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}

			var resp struct {
				Code string `json:"code"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("bad error body: %v", err)
			}
			if resp.Code != tt.code {
				t.Errorf("code = %q, want %q", resp.Code, tt.code)
			}
		})
	}
}

func TestListRepositoriesPaging(t *testing.T) {
	ts := newTestServer()
	ts.lister.page = github.Page[model.RepositorySummary]{
		Items:   []model.RepositorySummary{{Name: "widgets"}},
		Cursor:  "C2",
		HasNext: true,
	}

	rec := ts.do(t, http.MethodGet, "/api/repositories/acme?cursor=C1&page_size=25", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ts.lister.gotCurs != "C1" || ts.lister.gotSize != 25 {
		t.Errorf("lister got cursor=%q size=%d", ts.lister.gotCurs, ts.lister.gotSize)
	}

	var page repositoryPage
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if page.NextCursor != "C2" {
		t.Errorf("NextCursor = %q", page.NextCursor)
	}
}

func TestListRepositoriesLastPageOmitsCursor(t *testing.T) {
	ts := newTestServer()
	ts.lister.page = github.Page[model.RepositorySummary]{Cursor: "C9", HasNext: false}

	rec := ts.do(t, http.MethodGet, "/api/repositories/acme", "")
	if strings.Contains(rec.Body.String(), "nextCursor") {
		t.Errorf("exhausted listing must not advertise a cursor: %s", rec.Body.String())
	}
}

func TestListRepositoriesPageSizeValidation(t *testing.T) {
	ts := newTestServer()
	for _, raw := range []string{"0", "101", "abc"} {
		rec := ts.do(t, http.MethodGet, "/api/repositories/acme?page_size="+raw, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("page_size=%s: status = %d, want 400", raw, rec.Code)
		}
	}
}

func TestLatestSnapshotNotFound(t *testing.T) {
	ts := newTestServer()
	rec := ts.do(t, http.MethodGet, "/api/snapshots/acme/ghost/latest", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestDeleteSnapshot(t *testing.T) {
	ts := newTestServer()
	rec := ts.do(t, http.MethodDelete, "/api/snapshots/acme/widgets/abc123", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(ts.store.deleted) != 1 || ts.store.deleted[0] != "acme/widgets@abc123" {
		t.Errorf("deleted = %v", ts.store.deleted)
	}
}

func TestSearchEndpoint(t *testing.T) {
	ts := newTestServer()
	ts.searcher.results = []search.Result{{Owner: "acme", Repository: "widgets", SnapshotID: "acme/widgets@abc"}}

	rec := ts.do(t, http.MethodPost, "/api/search", `{"dependencies":["Newtonsoft.Json:>=12"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var results []search.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &results); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if len(results) != 1 || results[0].Repository != "widgets" {
		t.Errorf("results = %+v", results)
	}
}

func TestSearchEmptyResultIsArray(t *testing.T) {
	ts := newTestServer()
	rec := ts.do(t, http.MethodPost, "/api/search", `{}`)
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("empty result must serialize as [], got %s", body)
	}
}

func TestListSnapshots(t *testing.T) {
	ts := newTestServer()
	ts.store.snapshots = []model.Snapshot{
		{ID: "acme/widgets@new", TakenAt: time.Now()},
		{ID: "acme/widgets@old", TakenAt: time.Now().Add(-time.Hour)},
	}

	rec := ts.do(t, http.MethodGet, "/api/snapshots/acme/widgets", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var snaps []model.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snaps); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if len(snaps) != 2 || snaps[0].ID != "acme/widgets@new" {
		t.Errorf("snaps = %+v", snaps)
	}
}
