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


package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/papillon-fyi/feedgen"
	"github.com/papillon-fyi/feedgen/ai"
	"github.com/papillon-fyi/feedgen/bsky"
	"github.com/papillon-fyi/feedgen/feed"
	"github.com/papillon-fyi/feedgen/server"
	"github.com/papillon-fyi/feedgen/storage"
	"github.com/papillon-fyi/feedgen/storage/api"
	"github.com/papillon-fyi/feedgen/storage/badger"
)

func main() {
	app := &cli.App{
		Name:  "feedgen",
		Usage: "Ranked feed generator for configured content sources",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve feed skeletons over HTTP",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "hostname",
						Usage:    "Public hostname this generator is served under",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "feeds",
						Aliases:  []string{"f"},
						Usage:    "Path to the feeds definition file",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "listen",
						Usage: "HTTP listen address",
						Value: ":8080",
					},
					&cli.StringFlag{
						Name:  "service-did",
						Usage: "Service DID (defaults to did:web:<hostname>)",
					},
					&cli.StringFlag{
						Name:  "search-base",
						Usage: "Authenticated content API base URL (defaults to the public network)",
					},
					&cli.StringFlag{
						Name:  "public-base",
						Usage: "Public content API base URL (defaults to the public network)",
					},
					&cli.StringFlag{
						Name:  "cache-api-base",
						Usage: "Feeds API base URL for cache storage (uses BadgerDB when unset)",
					},
					&cli.StringFlag{
						Name:    "cache-api-key",
						Usage:   "API key for the feeds API",
						EnvVars: []string{"API_KEY"},
					},
					&cli.StringFlag{
						Name:    "db",
						Aliases: []string{"d"},
						Usage:   "Path to BadgerDB cache directory",
						Value:   "feedgen-cache",
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
						Value: "embeddinggemma",
					},
					&cli.StringFlag{
						Name:  "classifier-host",
						Usage: "Classifier service host URL (defaults to embedding-host)",
					},
					&cli.StringFlag{
						Name:  "classifier-model",
						Usage: "Classifier model name for acronym expansion",
						Value: "qwen2.5:3b",
					},
					&cli.StringFlag{
						Name:    "ai-token",
						Usage:   "API token for the AI endpoints",
						EnvVars: []string{"AI_API_TOKEN"},
					},
					&cli.DurationFlag{
						Name:  "stale-threshold",
						Usage: "Cache age past which a request triggers a background refresh",
						Value: feed.DefaultStaleThreshold,
					},
					&cli.DurationFlag{
						Name:  "max-item-age",
						Usage: "Oldest content an entry may carry before a full rebuild",
						Value: feed.DefaultMaxItemAge,
					},
					&cli.IntFlag{
						Name:  "response-limit",
						Usage: "Items per upstream call and default page size",
						Value: feed.DefaultResponseLimit,
					},
					&cli.IntFlag{
						Name:  "feed-limit",
						Usage: "Maximum skeleton length",
						Value: feed.DefaultFeedLimit,
					},
					&cli.IntFlag{
						Name:  "max-per-author",
						Usage: "Maximum items one author may contribute",
						Value: feed.DefaultMaxPerAuthor,
					},
					&cli.DurationFlag{
						Name:  "search-cache-ttl",
						Usage: "How long upstream search results are memoized",
						Value: feed.DefaultSearchCacheTTL,
					},
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "Simultaneous outbound calls across search and enrichment",
						Value: feed.DefaultConcurrency,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func serveCommand(c *cli.Context) error {
	feeds, err := loadFeeds(c.String("feeds"))
	if err != nil {
		return err
	}
	if len(feeds) == 0 {
		return fmt.Errorf("feeds file %s defines no feeds", c.String("feeds"))
	}

	store, cleanup, err := openStore(c)
	if err != nil {
		return err
	}
	defer cleanup()

	classifierHost := c.String("classifier-host")
	if classifierHost == "" {
		classifierHost = c.String("embedding-host")
	}

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithClassifierHost(classifierHost),
		ai.WithClassifierModel(c.String("classifier-model")),
		ai.WithAPIToken(c.String("ai-token")),
	)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}

	engineOpts := []feedgen.EngineOption{
		feedgen.WithAIConfig(aiConfig),
		feedgen.WithFeedConfig(feed.Config{
			StaleThreshold: c.Duration("stale-threshold"),
			MaxItemAge:     c.Duration("max-item-age"),
			ResponseLimit:  c.Int("response-limit"),
			FeedLimit:      c.Int("feed-limit"),
			MaxPerAuthor:   c.Int("max-per-author"),
			SearchCacheTTL: c.Duration("search-cache-ttl"),
			Concurrency:    c.Int("concurrency"),
		}),
	}

	var clientOpts []bsky.Option
	if base := c.String("search-base"); base != "" {
		clientOpts = append(clientOpts, bsky.WithSearchBase(base))
	}
	if base := c.String("public-base"); base != "" {
		clientOpts = append(clientOpts, bsky.WithPublicBase(base))
	}
	if len(clientOpts) > 0 {
		engineOpts = append(engineOpts, feedgen.WithClientOptions(clientOpts...))
	}

	engine, err := feedgen.NewEngine(store, engineOpts...)
	if err != nil {
		return fmt.Errorf("failed to assemble engine: %w", err)
	}
	defer engine.Close()

	for _, cfg := range feeds {
		if err := engine.Registry().Register(cfg); err != nil {
			return fmt.Errorf("failed to register feed %s: %w", cfg.Key(), err)
		}
		slog.Info("feed registered", "uri", cfg.FeedURI())
	}

	var serverOpts []server.Option
	if did := c.String("service-did"); did != "" {
		serverOpts = append(serverOpts, server.WithServiceDID(did))
	}
	srv, err := engine.NewServer(c.String("hostname"), serverOpts...)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	httpServer := &http.Server{
		Addr:              c.String("listen"),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("serving feeds", "addr", httpServer.Addr, "feeds", len(feeds))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}

	return nil
}

// openStore picks the cache store: the feeds API when a base URL is given,
// otherwise a local BadgerDB directory.
func openStore(c *cli.Context) (storage.CacheStore, func(), error) {
	if base := c.String("cache-api-base"); base != "" {
		store := api.NewStore(strings.TrimRight(base, "/"), c.String("cache-api-key"))
		return store, func() {}, nil
	}

	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	store, err := badger.NewCacheStore(backend)
	if err != nil {
		backend.Close()
		return nil, nil, err
	}
	return store, func() { backend.Close() }, nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
