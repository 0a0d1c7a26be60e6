package storage

import (
	"context"

	"github.com/papillon-fyi/feedgen/core"
)

// CacheStore reads and writes built feed results keyed by (owner, feed).
// Exactly one entry exists per key; writes overwrite with last-writer-wins
// semantics. Implementations must be thread-safe.
type CacheStore interface {
	// GetCacheEntry retrieves the cache entry for a feed.
	// Returns ErrNotFound if no entry exists.
	GetCacheEntry(ctx context.Context, ownerDID, feedID string) (*core.CacheEntry, error)

	// PutCacheEntry stores the cache entry for a feed, overwriting any
	// previous entry.
	PutCacheEntry(ctx context.Context, ownerDID, feedID string, entry *core.CacheEntry) error

	// Close closes the storage backend and releases resources.
	Close() error
}
