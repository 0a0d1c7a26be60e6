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


package search

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/papillon-fyi/feedgen/ai"
	"github.com/papillon-fyi/feedgen/bsky"
	"github.com/papillon-fyi/feedgen/core"
)

const (
	defaultResponseLimit   = 10
	defaultSimilarityFloor = 0.45
	defaultResultCacheTTL  = 30 * time.Second
)

// SearchClient is the slice of the content API the executor consumes.
// *bsky.Client satisfies it.
type SearchClient interface {
	SearchPosts(ctx context.Context, query string, limit int, token string) ([]bsky.RawItem, error)
	AuthorFeed(ctx context.Context, actorDID string, limit int) ([]bsky.RawItem, error)
}

// Executor runs routed queries against the content API under a shared
// outbound-call budget and collects raw candidates per source.
type Executor struct {
	client          SearchClient
	embedder        ai.Embedder
	pool            *ants.Pool
	cache           *resultCache
	responseLimit   int
	similarityFloor float32
	logger          *slog.Logger
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor) error

// WithResponseLimit sets how many raw candidates one call may yield.
// Default is 10.
func WithResponseLimit(limit int) ExecutorOption {
	return func(e *Executor) error {
		if limit > 0 {
			e.responseLimit = limit
		}
		return nil
	}
}

// WithSimilarityFloor sets the cosine similarity below which semantic
// matches are dropped. Default is 0.45.
func WithSimilarityFloor(floor float32) ExecutorOption {
	return func(e *Executor) error {
		e.similarityFloor = floor
		return nil
	}
}

// WithResultCacheTTL sets how long search results are memoized.
// Default is 30 seconds.
func WithResultCacheTTL(ttl time.Duration) ExecutorOption {
	return func(e *Executor) error {
		if ttl > 0 {
			e.cache = newResultCache(ttl)
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) ExecutorOption {
	return func(e *Executor) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewExecutor creates an executor. The pool bounds simultaneous outbound
// calls and is shared with enrichment.
func NewExecutor(client SearchClient, embedder ai.Embedder, pool *ants.Pool, opts ...ExecutorOption) (*Executor, error) {
	if client == nil {
		return nil, ErrSearchClientRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if pool == nil {
		return nil, ErrPoolRequired
	}

	e := &Executor{
		client:          client,
		embedder:        embedder,
		pool:            pool,
		cache:           newResultCache(defaultResultCacheTTL),
		responseLimit:   defaultResponseLimit,
		similarityFloor: defaultSimilarityFloor,
		logger:          slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// Execute runs every query concurrently and returns candidates grouped by
// source label. A query that fails upstream contributes zero candidates;
// the loss is logged, never fatal. Missing-credential failures are the
// common case of this and simply skip the affected source.
func (e *Executor) Execute(ctx context.Context, queries []Query, token string) map[string][]core.Candidate {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string][]core.Candidate)
	)

	for _, query := range queries {
		wg.Add(1)
		q := query
		err := e.pool.Submit(func() {
			defer wg.Done()

			candidates, err := e.runQuery(ctx, q, token)
			if err != nil {
				e.logger.Warn("search query failed, source contributes nothing",
					"source", q.SourceLabel, "mode", q.Mode, "err", err)
				return
			}

			mu.Lock()
			results[q.SourceLabel] = append(results[q.SourceLabel], candidates...)
			mu.Unlock()
		})
		if err != nil {
			wg.Done()
			e.logger.Warn("failed to schedule search query",
				"source", q.SourceLabel, "mode", q.Mode, "err", err)
		}
	}

	wg.Wait()
	return results
}

// runQuery executes one query, consulting the result cache first. Cached
// candidates are re-labeled for the requesting source, since distinct
// sources can share a query.
func (e *Executor) runQuery(ctx context.Context, q Query, token string) ([]core.Candidate, error) {
	key := cacheKey(q.Mode, q.Text)
	if cached, ok := e.cache.get(key); ok {
		return relabel(cached, q.SourceLabel), nil
	}

	var (
		items []bsky.RawItem
		err   error
	)
	switch q.Mode {
	case core.MatchAuthor:
		items, err = e.client.AuthorFeed(ctx, q.SourceLabel, e.responseLimit)
	default:
		items, err = e.client.SearchPosts(ctx, q.Text, e.responseLimit, token)
	}
	if err != nil {
		return nil, err
	}

	candidates := toCandidates(items, q)
	if q.Mode == core.MatchVector {
		candidates, err = e.semanticFilter(ctx, q.Text, candidates)
		if err != nil {
			return nil, err
		}
	}

	e.cache.put(key, candidates)
	return relabel(candidates, q.SourceLabel), nil
}

// semanticFilter ranks recalled candidates against the query by embedding
// similarity. The query and every candidate text go upstream in a single
// batched call; per-item calls would multiply fixed overhead by the
// response limit.
func (e *Executor) semanticFilter(ctx context.Context, queryText string, candidates []core.Candidate) ([]core.Candidate, error) {
	if len(candidates) == 0 {
		return candidates, nil
	}

	texts := make([]string, 0, len(candidates)+1)
	texts = append(texts, queryText)
	for _, c := range candidates {
		texts = append(texts, c.Text)
	}

	vectors, err := e.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		e.logger.Warn("embedding batch came back short, dropping semantic results",
			"want", len(texts), "got", len(vectors))
		return nil, nil
	}

	queryVector := vectors[0]
	type scored struct {
		candidate  core.Candidate
		similarity float32
	}
	kept := make([]scored, 0, len(candidates))
	for i, c := range candidates {
		similarity := cosineSimilarity(queryVector, vectors[i+1])
		if similarity < e.similarityFloor {
			continue
		}
		kept = append(kept, scored{candidate: c, similarity: similarity})
	}

	slices.SortFunc(kept, func(a, b scored) int {
		if a.similarity > b.similarity {
			return -1
		}
		if a.similarity < b.similarity {
			return 1
		}
		return 0
	})

	filtered := make([]core.Candidate, 0, len(kept))
	for _, s := range kept {
		filtered = append(filtered, s.candidate)
	}
	return filtered, nil
}

func toCandidates(items []bsky.RawItem, q Query) []core.Candidate {
	candidates := make([]core.Candidate, 0, len(items))
	for _, item := range items {
		candidates = append(candidates, core.Candidate{
			ItemID:      item.URI,
			AuthorID:    item.AuthorDID,
			Text:        item.Text,
			CreatedAt:   item.CreatedAt,
			Engagement:  item.Engagement(),
			SourceLabel: q.SourceLabel,
			MatchedBy:   q.Mode,
		})
	}
	return candidates
}

func relabel(candidates []core.Candidate, label string) []core.Candidate {
	out := make([]core.Candidate, len(candidates))
	copy(out, candidates)
	for i := range out {
		out[i].SourceLabel = label
	}
	return out
}
