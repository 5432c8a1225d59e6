package github

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	gogithub "github.com/google/go-github/v57/github"
)

// Sentinel errors for the lookups that can fail in more than one way.
// Callers branch on these with errors.Is, so each failure mode stays
// distinct.
var (
	// ErrNotFound covers unknown owners, repositories, and branches.
	ErrNotFound = errors.New("not found")

	// ErrNoCommitBefore means the as-of instant precedes all history on
	// the branch. The repository has commits; none are old enough.
	ErrNoCommitBefore = errors.New("no commit at or before the requested time")

	// ErrEmptyRepository means the repository has no commits at all.
	ErrEmptyRepository = errors.New("repository has no commits")
)

// StaleIndexError reports a file that the search index listed but the
// tree no longer contains. The batch read fails as a whole rather than
// returning partial results.
type StaleIndexError struct {
	Owner string
	Repo  string
	Path  string
}

func (e *StaleIndexError) Error() string {
	return fmt.Sprintf("missing file %q in %s/%s: stale index", e.Path, e.Owner, e.Repo)
}

// AbuseError is the raw-transport form of GitHub's abuse rate limit
// rejection: HTTP 403 with an abuse marker in the body.
type AbuseError struct {
	StatusCode int
	Body       string
}

func (e *AbuseError) Error() string {
	return fmt.Sprintf("abuse rate limit (status %d): %s", e.StatusCode, e.Body)
}

// abuseMarker is the case-insensitive substring GitHub puts in abuse
// rate limit rejections.
const abuseMarker = "abuse"

// IsAbuseRateLimit reports whether err is GitHub's abuse rate limit
// rejection in any of its shapes: our own transport error, go-github's
// typed errors, or the opaque string error the githubv4 client returns.
// The secondary rate limit (RateLimitError) deliberately does not
// match; backing off seconds does not help a depleted hourly quota.
func IsAbuseRateLimit(err error) bool {
	if err == nil {
		return false
	}

	var abuse *AbuseError
	if errors.As(err, &abuse) {
		return true
	}

	var ghAbuse *gogithub.AbuseRateLimitError
	if errors.As(err, &ghAbuse) {
		return true
	}

	var ghResp *gogithub.ErrorResponse
	if errors.As(err, &ghResp) {
		return ghResp.Response != nil &&
			ghResp.Response.StatusCode == http.StatusForbidden &&
			strings.Contains(strings.ToLower(ghResp.Message), abuseMarker)
	}

	// githubv4 surfaces transport failures as plain string errors.
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, abuseMarker) {
		return false
	}
	return strings.Contains(msg, "403") || strings.Contains(msg, "forbidden")
}

// isGraphQLNotFound matches the shapes a missing entity takes in
// githubv4 error strings.
func isGraphQLNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNotFound) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "could not resolve to") || strings.Contains(msg, "not_found")
}
