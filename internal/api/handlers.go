package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/repoatlas/repoatlas/internal/model"
	"github.com/repoatlas/repoatlas/internal/search"
	"github.com/repoatlas/repoatlas/internal/snapshot"
)

const maxPageSize = 100

type snapshotRequest struct {
	Owner        string     `json:"owner"`
	Repository   string     `json:"repository"`
	Branch       string     `json:"branch,omitempty"`
	AsOf         *time.Time `json:"asOf,omitempty"`
	IncludeTeams bool       `json:"includeTeams,omitempty"`

	// Store controls whether the built snapshot is persisted. Defaults
	// to true; a dry run sets it to false.
	Store *bool `json:"store,omitempty"`
}

type repositoryPage struct {
	Items      []model.RepositorySummary `json:"items"`
	NextCursor string                    `json:"nextCursor,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateSnapshot(w http.ResponseWriter, r *http.Request) {
	var req snapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if req.Owner == "" || req.Repository == "" {
		writeError(w, fmt.Errorf("%w: owner and repository are required", errBadRequest))
		return
	}

	snap, err := s.builder.Build(r.Context(), req.Owner, req.Repository, snapshot.Options{
		Branch:       req.Branch,
		AsOf:         req.AsOf,
		IncludeTeams: req.IncludeTeams,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if req.Store == nil || *req.Store {
		if err := s.store.Upsert(r.Context(), snap); err != nil {
			writeError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	repo := chi.URLParam(r, "repo")

	snaps, err := s.store.ListByRepository(r.Context(), owner, repo)
	if err != nil {
		writeError(w, err)
		return
	}
	if snaps == nil {
		snaps = []model.Snapshot{}
	}
	writeJSON(w, http.StatusOK, snaps)
}

func (s *Server) handleLatestSnapshot(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	repo := chi.URLParam(r, "repo")

	snap, err := s.store.GetLatest(r.Context(), owner, repo)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleDeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	id := model.SnapshotID(chi.URLParam(r, "owner"), chi.URLParam(r, "repo"), chi.URLParam(r, "oid"))

	if err := s.store.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListRepositories(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	cursor := r.URL.Query().Get("cursor")

	size := maxPageSize
	if raw := r.URL.Query().Get("page_size"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxPageSize {
			writeError(w, fmt.Errorf("%w: page_size must be between 1 and %d", errBadRequest, maxPageSize))
			return
		}
		size = parsed
	}

	page, err := s.lister.ListRepositoryPage(r.Context(), owner, cursor, size)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := repositoryPage{Items: page.Items}
	if resp.Items == nil {
		resp.Items = []model.RepositorySummary{}
	}
	if page.HasNext {
		resp.NextCursor = page.Cursor
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTeams(w http.ResponseWriter, r *http.Request) {
	org := chi.URLParam(r, "org")

	teams, err := s.lister.TeamRepositories(r.Context(), org)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, teams)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var q search.Query
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeError(w, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	results, err := s.searcher.Search(r.Context(), q)
	if err != nil {
		writeError(w, err)
		return
	}
	if results == nil {
		results = []search.Result{}
	}
	writeJSON(w, http.StatusOK, results)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already out; nothing left to do but record it.
		logEncodeFailure(err)
	}
}

var errBadRequest = errors.New("bad request")
