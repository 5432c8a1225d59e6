package api

import (
	"errors"
	"net/http"

	"github.com/repoatlas/repoatlas/internal/github"
	"github.com/repoatlas/repoatlas/internal/log"
	"github.com/repoatlas/repoatlas/internal/store"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeError maps engine errors onto HTTP statuses:
//
//	stale index        409  the search index lagged the tree
//	not found          404  unknown repository, branch, or snapshot
//	as-of miss         422  the instant precedes all history
//	abuse exhaustion   502  upstream kept rejecting after backoff
func writeError(w http.ResponseWriter, err error) {
	var stale *github.StaleIndexError

	status := http.StatusInternalServerError
	code := "internal"

	switch {
	case errors.Is(err, errBadRequest):
		status, code = http.StatusBadRequest, "bad_request"
	case errors.As(err, &stale):
		status, code = http.StatusConflict, "stale_index"
	case errors.Is(err, github.ErrNoCommitBefore):
		status, code = http.StatusUnprocessableEntity, "no_commit_before"
	case errors.Is(err, github.ErrNotFound), errors.Is(err, store.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case github.IsAbuseRateLimit(err):
		status, code = http.StatusBadGateway, "upstream_rate_limited"
	}

	if status == http.StatusInternalServerError {
		log.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Code: code})
}

func logEncodeFailure(err error) {
	log.Warn("failed to encode response", "error", err)
}
