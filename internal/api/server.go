// Package api exposes the snapshot engine over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/repoatlas/repoatlas/internal/github"
	"github.com/repoatlas/repoatlas/internal/log"
	"github.com/repoatlas/repoatlas/internal/model"
	"github.com/repoatlas/repoatlas/internal/search"
	"github.com/repoatlas/repoatlas/internal/snapshot"
	"github.com/repoatlas/repoatlas/internal/store"
)

const shutdownTimeout = 10 * time.Second

// SnapshotBuilder builds snapshots on demand.
type SnapshotBuilder interface {
	Build(ctx context.Context, owner, repo string, opts snapshot.Options) (model.Snapshot, error)
}

// RepositoryLister serves the read-through listing endpoints.
type RepositoryLister interface {
	ListRepositoryPage(ctx context.Context, owner, cursor string, size int) (github.Page[model.RepositorySummary], error)
	TeamRepositories(ctx context.Context, org string) (map[string][]model.TeamRepository, error)
}

// Searcher evaluates snapshot search queries.
type Searcher interface {
	Search(ctx context.Context, q search.Query) ([]search.Result, error)
}

// Server wires the engine's pieces behind a chi router.
type Server struct {
	builder  SnapshotBuilder
	lister   RepositoryLister
	store    store.SnapshotStore
	searcher Searcher
}

func NewServer(builder SnapshotBuilder, lister RepositoryLister, st store.SnapshotStore, searcher Searcher) *Server {
	return &Server{builder: builder, lister: lister, store: st, searcher: searcher}
}

// Router builds the route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/snapshots", s.handleCreateSnapshot)
		r.Get("/snapshots/{owner}/{repo}", s.handleListSnapshots)
		r.Get("/snapshots/{owner}/{repo}/latest", s.handleLatestSnapshot)
		r.Delete("/snapshots/{owner}/{repo}/{oid}", s.handleDeleteSnapshot)
		r.Get("/repositories/{owner}", s.handleListRepositories)
		r.Get("/teams/{org}", s.handleTeams)
		r.Post("/search", s.handleSearch)
	})

	return r
}

// ListenAndServe runs the server until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start))
	})
}
