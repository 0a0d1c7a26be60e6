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


// Package enrich fetches full item detail for candidate ids ahead of
// ranking: fresh engagement counts and authoritative timestamps.
package enrich

import (
	"context"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/papillon-fyi/feedgen/bsky"
	"github.com/papillon-fyi/feedgen/core"
)

// DetailClient is the slice of the content API the enricher consumes.
// *bsky.Client satisfies it.
type DetailClient interface {
	ItemDetails(ctx context.Context, ids []core.ItemID) (map[core.ItemID]bsky.RawItem, error)
}

// Enricher batches item ids into detail lookups over a bounded worker pool.
// The pool is shared with the search executor so total simultaneous
// outbound calls stay under one budget.
type Enricher struct {
	client    DetailClient
	pool      *ants.Pool
	batchSize int
	logger    *slog.Logger
}

// Option configures an Enricher.
type Option func(*Enricher) error

// WithBatchSize sets how many ids one detail call may carry.
// Default is bsky.MaxDetailIDs.
func WithBatchSize(size int) Option {
	return func(e *Enricher) error {
		if size > 0 && size <= bsky.MaxDetailIDs {
			e.batchSize = size
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Enricher) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEnricher creates an enricher on a shared worker pool.
func NewEnricher(client DetailClient, pool *ants.Pool, opts ...Option) (*Enricher, error) {
	if client == nil {
		return nil, ErrDetailClientRequired
	}
	if pool == nil {
		return nil, ErrPoolRequired
	}

	e := &Enricher{
		client:    client,
		pool:      pool,
		batchSize: bsky.MaxDetailIDs,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// Enrich fetches detail for every id and returns what came back. Ids whose
// batch failed, or that the upstream no longer knows (deleted items), are
// simply absent from the result; their loss never fails a build.
func (e *Enricher) Enrich(ctx context.Context, ids []core.ItemID) map[core.ItemID]bsky.RawItem {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		details = make(map[core.ItemID]bsky.RawItem, len(ids))
	)

	for start := 0; start < len(ids); start += e.batchSize {
		end := start + e.batchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]

		wg.Add(1)
		err := e.pool.Submit(func() {
			defer wg.Done()

			found, err := e.client.ItemDetails(ctx, batch)
			if err != nil {
				e.logger.Warn("detail batch failed, dropping its items",
					"batchSize", len(batch), "err", err)
				return
			}

			mu.Lock()
			for id, item := range found {
				details[id] = item
			}
			mu.Unlock()
		})
		if err != nil {
			wg.Done()
			e.logger.Warn("failed to schedule detail batch",
				"batchSize", len(batch), "err", err)
		}
	}

	wg.Wait()
	return details
}
