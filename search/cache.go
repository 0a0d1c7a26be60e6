package search

import (
	"sync"
	"time"

	"github.com/papillon-fyi/feedgen/core"
)

// resultCache memoizes search results per (mode, query) for a short window,
// so rapid successive builds of feeds sharing a topic do not repeat
// upstream calls. Engagement freshness is restored by enrichment anyway.
type resultCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[uint64]cachedResult
	now     func() time.Time
}

type cachedResult struct {
	candidates []core.Candidate
	at         time.Time
}

func newResultCache(ttl time.Duration) *resultCache {
	return &resultCache{
		ttl:     ttl,
		entries: make(map[uint64]cachedResult),
		now:     time.Now,
	}
}

func cacheKey(mode core.MatchMode, text string) uint64 {
	return core.KeyFromContent(string(mode) + "\x00" + text)
}

func (c *resultCache) get(key uint64) ([]core.Candidate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.at) > c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return entry.candidates, true
}

func (c *resultCache) put(key uint64, candidates []core.Candidate) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Opportunistically drop expired entries so the map does not grow
	// unbounded across many distinct queries.
	now := c.now()
	for k, entry := range c.entries {
		if now.Sub(entry.at) > c.ttl {
			delete(c.entries, k)
		}
	}

	c.entries[key] = cachedResult{candidates: candidates, at: now}
}
