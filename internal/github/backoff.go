package github

import (
	"context"
	"time"

	"github.com/repoatlas/repoatlas/internal/log"
)

// abuseMaxAttempts bounds one guarded operation: the initial call plus
// four retries, waiting 2, 4, 8, and 16 seconds between them.
const abuseMaxAttempts = 5

// AbuseRetrier retries operations rejected by the abuse rate limit with
// exponential backoff. Any other error passes through untouched on the
// first attempt.
type AbuseRetrier struct {
	// Attempts is the total number of calls, including the first.
	Attempts int

	// Sleep waits out one backoff period. Left nil, it sleeps on a timer
	// and aborts early when ctx is cancelled. Tests inject a recorder.
	Sleep func(ctx context.Context, d time.Duration) error

	// OnRetry observes each backoff before the wait starts. Left nil, a
	// warning is logged.
	OnRetry func(wait time.Duration, attempt int)
}

// NewAbuseRetrier returns the default policy.
func NewAbuseRetrier() *AbuseRetrier {
	return &AbuseRetrier{Attempts: abuseMaxAttempts}
}

// Do runs fn until it succeeds, fails with a non-abuse error, or the
// attempts are exhausted. On exhaustion the original rejection comes
// back so callers can still recognize it.
func (r *AbuseRetrier) Do(ctx context.Context, fn func() error) error {
	attempts := r.Attempts
	if attempts <= 0 {
		attempts = abuseMaxAttempts
	}

	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !IsAbuseRateLimit(err) {
			return err
		}
		if attempt == attempts {
			return err
		}

		wait := time.Duration(1<<uint(attempt)) * time.Second
		if r.OnRetry != nil {
			r.OnRetry(wait, attempt)
		} else {
			log.Warn("abuse rate limit tripped, backing off", "wait", wait, "attempt", attempt)
		}

		if err := r.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

func (r *AbuseRetrier) sleep(ctx context.Context, d time.Duration) error {
	if r.Sleep != nil {
		return r.Sleep(ctx, d)
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
