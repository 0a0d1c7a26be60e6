// Copyright 2026 Papillon FYI
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/papillon-fyi/feedgen/core"
	"github.com/papillon-fyi/feedgen/storage"
)

// Page is one slice of a feed skeleton.
type Page struct {
	ItemIDs []core.ItemID

	// NextCursor addresses the following page; empty when exhausted.
	NextCursor string
}

// Gate serves feed pages out of the cache store, deciding per request
// between a fresh hit, serve-stale-and-refresh, and a blocking rebuild.
type Gate struct {
	store          storage.CacheStore
	builder        *Builder
	staleThreshold time.Duration
	maxItemAge     time.Duration
	responseLimit  int
	logger         *slog.Logger
	now            func() time.Time

	// rebuilds dedups concurrent rebuilds per feed; inflight lets
	// requests observe a running rebuild without joining it.
	rebuilds singleflight.Group
	inflight sync.Map
}

// GateOption configures a Gate.
type GateOption func(*Gate) error

// WithGateLogger sets a custom logger.
// Default is slog.Default().
func WithGateLogger(logger *slog.Logger) GateOption {
	return func(g *Gate) error {
		if logger == nil {
			logger = slog.Default()
		}
		g.logger = logger
		return nil
	}
}

// WithGateClock sets the time source, for tests.
func WithGateClock(now func() time.Time) GateOption {
	return func(g *Gate) error {
		if now != nil {
			g.now = now
		}
		return nil
	}
}

// NewGate creates a gate over a cache store and a builder.
func NewGate(store storage.CacheStore, builder *Builder, cfg Config, opts ...GateOption) (*Gate, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if builder == nil {
		return nil, ErrBuilderRequired
	}

	g := &Gate{
		store:          store,
		builder:        builder,
		staleThreshold: cfg.StaleThreshold,
		maxItemAge:     cfg.MaxItemAge,
		responseLimit:  cfg.ResponseLimit,
		logger:         slog.Default(),
		now:            time.Now,
	}

	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}

	return g, nil
}

// GetFeedPage serves one page of the feed's skeleton, rebuilding the cache
// entry first when it is missing, blueprint-drifted or aged out. Callers
// always get a page, possibly empty or stale; only a malformed cursor or
// configuration is an error.
func (g *Gate) GetFeedPage(ctx context.Context, cfg *core.FeedConfig, cursor string, limit int) (Page, error) {
	offset, err := parseCursor(cursor)
	if err != nil {
		return Page{}, err
	}
	if err := core.ValidateFeedConfig(cfg); err != nil {
		return Page{}, err
	}

	entry := g.load(ctx, cfg)

	switch g.classify(entry, cfg) {
	case cacheFresh:
		// Serve as-is.

	case cacheStale:
		g.refreshInBackground(ctx, cfg)

	case cacheInvalid:
		if _, busy := g.inflight.Load(cfg.Key()); busy {
			// A rebuild is already running; serve the last known
			// skeleton, absent or not, rather than waiting on it.
			break
		}
		built, err := g.rebuild(ctx, cfg)
		if err != nil {
			return Page{}, err
		}
		entry = built
	}

	return g.page(entry, offset, limit), nil
}

type cacheState int

const (
	cacheFresh cacheState = iota
	cacheStale
	cacheInvalid
)

// classify decides what the cached entry is worth against the current
// blueprint: absent or drifted or aged-out entries force a rebuild, old
// ones are served while refreshed, the rest are fresh hits.
func (g *Gate) classify(entry *core.CacheEntry, cfg *core.FeedConfig) cacheState {
	if entry == nil {
		return cacheInvalid
	}
	if entry.BlueprintHash != cfg.BlueprintHash() {
		return cacheInvalid
	}
	now := g.now()
	if !entry.OldestItem.IsZero() && now.Sub(entry.OldestItem) > g.maxItemAge {
		return cacheInvalid
	}
	if now.Sub(entry.BuiltAt) > g.staleThreshold {
		return cacheStale
	}
	return cacheFresh
}

// load reads the cache entry, treating every read failure as a miss.
func (g *Gate) load(ctx context.Context, cfg *core.FeedConfig) *core.CacheEntry {
	entry, err := g.store.GetCacheEntry(ctx, cfg.OwnerDID, cfg.FeedID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			g.logger.Warn("cache read failed, treating as miss",
				"feed", cfg.Key(), "err", err)
		}
		return nil
	}
	return entry
}

// rebuild runs one build for the feed and writes it back. Concurrent
// callers of the same feed share a single flight. The build is detached
// from the request context: a disconnecting caller abandons its response,
// not the work, which the cache shares with future callers.
func (g *Gate) rebuild(ctx context.Context, cfg *core.FeedConfig) (*core.CacheEntry, error) {
	key := cfg.Key()
	result, err, _ := g.rebuilds.Do(key, func() (any, error) {
		g.inflight.Store(key, g.now())
		defer g.inflight.Delete(key)

		bctx := context.WithoutCancel(ctx)
		built, err := g.builder.Build(bctx, cfg)
		if err != nil {
			return nil, err
		}

		if err := g.store.PutCacheEntry(bctx, cfg.OwnerDID, cfg.FeedID, built); err != nil {
			// Best-effort persistence: the caller still gets the
			// fresh skeleton, a later read just rebuilds again.
			g.logger.Warn("cache write failed after rebuild",
				"feed", key, "err", err)
		}
		return built, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*core.CacheEntry), nil
}

// refreshInBackground starts an asynchronous rebuild unless one is already
// running. A failed refresh leaves the stored entry untouched.
func (g *Gate) refreshInBackground(ctx context.Context, cfg *core.FeedConfig) {
	if _, busy := g.inflight.Load(cfg.Key()); busy {
		return
	}

	bctx := context.WithoutCancel(ctx)
	go func() {
		if _, err := g.rebuild(bctx, cfg); err != nil {
			g.logger.Warn("background refresh failed, stale entry remains",
				"feed", cfg.Key(), "err", err)
		}
	}()
}

// page slices the skeleton by offset and limit.
func (g *Gate) page(entry *core.CacheEntry, offset, limit int) Page {
	if limit <= 0 {
		limit = g.responseLimit
	}
	if entry == nil || offset >= len(entry.Skeleton) {
		return Page{}
	}

	end := offset + limit
	if end > len(entry.Skeleton) {
		end = len(entry.Skeleton)
	}

	page := Page{ItemIDs: entry.Skeleton[offset:end]}
	if end < len(entry.Skeleton) {
		page.NextCursor = strconv.Itoa(end)
	}
	return page
}

func parseCursor(cursor string) (int, error) {
	if cursor == "" {
		return 0, nil
	}
	offset, err := strconv.Atoi(cursor)
	if err != nil || offset < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCursor, cursor)
	}
	return offset, nil
}
