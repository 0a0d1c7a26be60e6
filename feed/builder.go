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
	"log/slog"
	"slices"
	"time"

	"github.com/papillon-fyi/feedgen/bsky"
	"github.com/papillon-fyi/feedgen/core"
	"github.com/papillon-fyi/feedgen/enrich"
	"github.com/papillon-fyi/feedgen/rank"
	"github.com/papillon-fyi/feedgen/search"
)

// Builder runs one full feed build: route, search, enrich, score, assemble.
type Builder struct {
	router          *search.Router
	executor        *search.Executor
	enricher        *enrich.Enricher
	ranker          *rank.Ranker
	assembler       *Assembler
	targetCollected int
	logger          *slog.Logger
	now             func() time.Time
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder) error

// WithBuilderLogger sets a custom logger.
// Default is slog.Default().
func WithBuilderLogger(logger *slog.Logger) BuilderOption {
	return func(b *Builder) error {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
		return nil
	}
}

// NewBuilder wires the build pipeline together.
func NewBuilder(
	router *search.Router,
	executor *search.Executor,
	enricher *enrich.Enricher,
	ranker *rank.Ranker,
	cfg Config,
	opts ...BuilderOption,
) (*Builder, error) {
	if router == nil {
		return nil, ErrRouterRequired
	}
	if executor == nil {
		return nil, ErrExecutorRequired
	}
	if enricher == nil {
		return nil, ErrEnricherRequired
	}
	if ranker == nil {
		return nil, ErrRankerRequired
	}

	b := &Builder{
		router:          router,
		executor:        executor,
		enricher:        enricher,
		ranker:          ranker,
		assembler:       NewAssembler(cfg),
		targetCollected: cfg.TargetCollected(),
		logger:          slog.Default(),
		now:             time.Now,
	}

	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}

	return b, nil
}

// Build produces a fresh cache entry for the feed. Upstream losses shrink
// the result; only a malformed configuration fails the build.
func (b *Builder) Build(ctx context.Context, cfg *core.FeedConfig) (*core.CacheEntry, error) {
	if err := core.ValidateFeedConfig(cfg); err != nil {
		return nil, err
	}

	started := b.now()

	queries := b.router.Plan(ctx, cfg)
	bySource := b.executor.Execute(ctx, queries, cfg.AccessToken)

	candidates := mergeSources(bySource)
	candidates = truncateCandidates(candidates, b.targetCollected)

	ids := uniqueIDs(candidates)
	details := b.enricher.Enrich(ctx, ids)
	enriched := applyDetails(candidates, details)

	scored := b.ranker.ScoreAll(enriched, cfg)
	skeleton := b.assembler.Assemble(scored, cfg)

	entry := &core.CacheEntry{
		Skeleton:      skeleton,
		BuiltAt:       b.now().UTC(),
		BlueprintHash: cfg.BlueprintHash(),
		OldestItem:    oldestCreated(skeleton, enriched),
	}

	b.logger.Info("feed built",
		"feed", cfg.Key(),
		"sources", len(cfg.Sources),
		"candidates", len(candidates),
		"enriched", len(details),
		"skeleton", len(skeleton),
		"took", time.Since(started))

	return entry, nil
}

// mergeSources flattens per-source candidates in sorted label order, so the
// merged sequence does not depend on map iteration.
func mergeSources(bySource map[string][]core.Candidate) []core.Candidate {
	labels := make([]string, 0, len(bySource))
	for label := range bySource {
		labels = append(labels, label)
	}
	slices.Sort(labels)

	var merged []core.Candidate
	for _, label := range labels {
		merged = append(merged, bySource[label]...)
	}
	return merged
}

// truncateCandidates keeps candidates of the first target distinct items.
// Truncation is positional over the deterministic merge order, so repeat
// builds over the same upstream data gather the same set.
func truncateCandidates(candidates []core.Candidate, target int) []core.Candidate {
	if target <= 0 {
		return candidates
	}

	seen := make(map[core.ItemID]bool, target)
	kept := make([]core.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if !seen[c.ItemID] {
			if len(seen) >= target {
				continue
			}
			seen[c.ItemID] = true
		}
		kept = append(kept, c)
	}
	return kept
}

func uniqueIDs(candidates []core.Candidate) []core.ItemID {
	seen := make(map[core.ItemID]bool, len(candidates))
	ids := make([]core.ItemID, 0, len(candidates))
	for _, c := range candidates {
		if seen[c.ItemID] {
			continue
		}
		seen[c.ItemID] = true
		ids = append(ids, c.ItemID)
	}
	return ids
}

// applyDetails replaces each candidate's engagement and timestamp with the
// enriched values. Candidates whose detail lookup failed are dropped; stale
// search-index counts must not leak into ranking.
func applyDetails(candidates []core.Candidate, details map[core.ItemID]bsky.RawItem) []core.Candidate {
	kept := make([]core.Candidate, 0, len(candidates))
	for _, c := range candidates {
		item, ok := details[c.ItemID]
		if !ok {
			continue
		}
		c.Engagement = item.Engagement()
		if !item.CreatedAt.IsZero() {
			c.CreatedAt = item.CreatedAt
		}
		if item.Text != "" {
			c.Text = item.Text
		}
		kept = append(kept, c)
	}
	return kept
}

func oldestCreated(skeleton []core.ItemID, candidates []core.Candidate) time.Time {
	inSkeleton := make(map[core.ItemID]bool, len(skeleton))
	for _, id := range skeleton {
		inSkeleton[id] = true
	}

	var oldest time.Time
	for _, c := range candidates {
		if !inSkeleton[c.ItemID] || c.CreatedAt.IsZero() {
			continue
		}
		if oldest.IsZero() || c.CreatedAt.Before(oldest) {
			oldest = c.CreatedAt
		}
	}
	return oldest
}
