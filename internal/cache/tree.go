// Package cache provides a Redis-backed cache for repository tree
// listings keyed by tree OID.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/repoatlas/repoatlas/internal/log"
	"github.com/repoatlas/repoatlas/internal/model"
)

const (
	// DefaultKeyPrefix namespaces cache entries in a shared Redis.
	DefaultKeyPrefix = "repoatlas:tree"

	// DefaultTTL is deliberately long: a tree OID is a content hash, so
	// an entry can never go stale, only cold.
	DefaultTTL = 7 * 24 * time.Hour
)

// TreeCache caches tree listings. A nil client degrades to a
// pass-through so callers never branch on whether Redis is configured.
type TreeCache struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewTreeCache wraps a Redis client. The client may be nil.
func NewTreeCache(client *redis.Client, keyPrefix string, ttl time.Duration) *TreeCache {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &TreeCache{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

func (c *TreeCache) key(treeOID string) string {
	return fmt.Sprintf("%s:%s", c.keyPrefix, treeOID)
}

// Get returns the cached listing for a tree OID, if present.
func (c *TreeCache) Get(ctx context.Context, treeOID string) ([]model.TreeEntry, bool, error) {
	if c.client == nil {
		return nil, false, nil
	}

	data, err := c.client.Get(ctx, c.key(treeOID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached tree %s: %w", treeOID, err)
	}

	var entries []model.TreeEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		// A corrupt entry behaves like a miss; the next Put overwrites it.
		log.Warn("discarding corrupt tree cache entry", "tree", treeOID, "error", err)
		return nil, false, nil
	}
	return entries, true, nil
}

// Put stores a tree listing.
func (c *TreeCache) Put(ctx context.Context, treeOID string, entries []model.TreeEntry) error {
	if c.client == nil {
		return nil
	}

	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode tree %s: %w", treeOID, err)
	}
	if err := c.client.Set(ctx, c.key(treeOID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache tree %s: %w", treeOID, err)
	}
	return nil
}

// Fetch returns the cached listing or falls back to fetch, caching the
// result. Cache failures degrade to the fallback rather than failing
// the caller.
func (c *TreeCache) Fetch(ctx context.Context, treeOID string, fetch func(ctx context.Context) ([]model.TreeEntry, error)) ([]model.TreeEntry, error) {
	entries, ok, err := c.Get(ctx, treeOID)
	if err != nil {
		log.Warn("tree cache read failed, falling back to the API", "tree", treeOID, "error", err)
	}
	if ok {
		log.Debug("tree cache hit", "tree", treeOID, "entries", len(entries))
		return entries, nil
	}

	entries, err = fetch(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.Put(ctx, treeOID, entries); err != nil {
		log.Warn("tree cache write failed", "tree", treeOID, "error", err)
	}
	return entries, nil
}
