package server

import (
	"slices"
	"sync"

	"github.com/papillon-fyi/feedgen/core"
)

// Registry maps published feed URIs to their configurations. Feeds are
// registered at startup from the feeds file and may be added at runtime.
type Registry struct {
	mu    sync.RWMutex
	feeds map[string]*core.FeedConfig
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{feeds: make(map[string]*core.FeedConfig)}
}

// Register validates and publishes a feed under its at:// URI. Registering
// the same URI again replaces the previous configuration.
func (r *Registry) Register(cfg *core.FeedConfig) error {
	if err := core.ValidateFeedConfig(cfg); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.feeds[cfg.FeedURI()] = cfg
	return nil
}

// Lookup resolves a feed URI to its configuration.
func (r *Registry) Lookup(uri string) (*core.FeedConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cfg, ok := r.feeds[uri]
	return cfg, ok
}

// URIs lists every published feed URI in sorted order.
func (r *Registry) URIs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	uris := make([]string, 0, len(r.feeds))
	for uri := range r.feeds {
		uris = append(uris, uri)
	}
	slices.Sort(uris)
	return uris
}
