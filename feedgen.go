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


package feedgen

import (
	"log/slog"

	"github.com/panjf2000/ants/v2"

	"github.com/papillon-fyi/feedgen/ai"
	"github.com/papillon-fyi/feedgen/ai/openai"
	"github.com/papillon-fyi/feedgen/bsky"
	"github.com/papillon-fyi/feedgen/enrich"
	"github.com/papillon-fyi/feedgen/feed"
	"github.com/papillon-fyi/feedgen/rank"
	"github.com/papillon-fyi/feedgen/search"
	"github.com/papillon-fyi/feedgen/server"
	"github.com/papillon-fyi/feedgen/storage"
)

// Engine bundles the full build pipeline behind one handle: content API
// client, AI provider, worker pool, cache gate and feed registry.
type Engine struct {
	store    storage.CacheStore
	client   *bsky.Client
	provider ai.Provider
	pool     *ants.Pool
	gate     *feed.Gate
	registry *server.Registry
	logger   *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig   *ai.Config
	feedConfig feed.Config
	clientOpts []bsky.Option
}

// WithAIConfig sets the embedding and classifier endpoints.
func WithAIConfig(cfg *ai.Config) EngineOption {
	return func(o *engineOptions) {
		if cfg != nil {
			o.aiConfig = cfg
		}
	}
}

// WithFeedConfig sets the build tunables.
func WithFeedConfig(cfg feed.Config) EngineOption {
	return func(o *engineOptions) {
		o.feedConfig = cfg
	}
}

// WithClientOptions passes options through to the content API client.
func WithClientOptions(opts ...bsky.Option) EngineOption {
	return func(o *engineOptions) {
		o.clientOpts = append(o.clientOpts, opts...)
	}
}

// NewEngine assembles the feed engine on top of a cache store. The caller
// keeps ownership of the store's backing resources; Close releases
// everything the engine created itself.
func NewEngine(store storage.CacheStore, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		aiConfig:   ai.DefaultConfig(),
		feedConfig: feed.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	client, err := bsky.NewClient(options.clientOpts...)
	if err != nil {
		return nil, err
	}

	provider, err := openai.NewProvider(options.aiConfig)
	if err != nil {
		return nil, err
	}

	pool, err := ants.NewPool(options.feedConfig.Concurrency)
	if err != nil {
		provider.Close()
		return nil, err
	}

	executor, err := search.NewExecutor(client, provider.Embedder(), pool,
		search.WithResponseLimit(options.feedConfig.ResponseLimit),
		search.WithResultCacheTTL(options.feedConfig.SearchCacheTTL))
	if err != nil {
		pool.Release()
		provider.Close()
		return nil, err
	}

	enricher, err := enrich.NewEnricher(client, pool)
	if err != nil {
		pool.Release()
		provider.Close()
		return nil, err
	}

	builder, err := feed.NewBuilder(
		search.NewRouter(provider.AcronymClassifier()),
		executor,
		enricher,
		rank.NewRanker(rank.WithMaxAge(options.feedConfig.MaxItemAge)),
		options.feedConfig,
	)
	if err != nil {
		pool.Release()
		provider.Close()
		return nil, err
	}

	gate, err := feed.NewGate(store, builder, options.feedConfig)
	if err != nil {
		pool.Release()
		provider.Close()
		return nil, err
	}

	return &Engine{
		store:    store,
		client:   client,
		provider: provider,
		pool:     pool,
		gate:     gate,
		registry: server.NewRegistry(),
		logger:   slog.Default(),
	}, nil
}

// Close releases the engine's worker pool and AI provider, then the store.
func (e *Engine) Close() error {
	e.pool.Release()

	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}

	if err := e.store.Close(); err != nil {
		e.logger.Error("error closing cache store", "err", err)
		return err
	}
	return nil
}

// Gate exposes the cache gate.
func (e *Engine) Gate() *feed.Gate {
	return e.gate
}

// Registry exposes the feed registry.
func (e *Engine) Registry() *server.Registry {
	return e.registry
}

// NewServer creates the HTTP surface for this engine's feeds.
func (e *Engine) NewServer(hostname string, opts ...server.Option) (*server.Server, error) {
	return server.NewServer(e.registry, e.gate, hostname, opts...)
}
