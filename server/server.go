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


// Package server exposes built feeds over the feed-generator HTTP surface:
// the skeleton and description XRPC endpoints plus the did:web document.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/papillon-fyi/feedgen/core"
	"github.com/papillon-fyi/feedgen/feed"
)

// Server handles feed-generator requests against a registry of published
// feeds and the cache gate.
type Server struct {
	registry   *Registry
	gate       *feed.Gate
	hostname   string
	serviceDID string
	logger     *slog.Logger
}

// Option configures a Server.
type Option func(*Server) error

// WithServiceDID overrides the service DID.
// Default is did:web:<hostname>.
func WithServiceDID(did string) Option {
	return func(s *Server) error {
		if did != "" {
			s.serviceDID = did
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewServer creates a feed-generator server.
func NewServer(registry *Registry, gate *feed.Gate, hostname string, opts ...Option) (*Server, error) {
	if registry == nil {
		return nil, ErrRegistryRequired
	}
	if gate == nil {
		return nil, ErrGateRequired
	}
	if hostname == "" {
		return nil, ErrHostnameRequired
	}

	s := &Server{
		registry:   registry,
		gate:       gate,
		hostname:   hostname,
		serviceDID: "did:web:" + hostname,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleIndex)
	mux.HandleFunc("GET /.well-known/did.json", s.handleDIDDocument)
	mux.HandleFunc("GET /xrpc/app.bsky.feed.describeFeedGenerator", s.handleDescribe)
	mux.HandleFunc("GET /xrpc/app.bsky.feed.getFeedSkeleton", s.handleSkeleton)
	return mux
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "Papillon Feed Generator\nhttps://%s\n", s.hostname)
}

type didService struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	ServiceEndpoint string `json:"serviceEndpoint"`
}

type didDocument struct {
	Context []string     `json:"@context"`
	ID      string       `json:"id"`
	Service []didService `json:"service"`
}

func (s *Server) handleDIDDocument(w http.ResponseWriter, r *http.Request) {
	// A did:web identity is only resolvable on its own host.
	if !strings.HasSuffix(s.serviceDID, s.hostname) {
		http.NotFound(w, r)
		return
	}

	writeJSON(w, http.StatusOK, didDocument{
		Context: []string{"https://www.w3.org/ns/did/v1"},
		ID:      s.serviceDID,
		Service: []didService{
			{
				ID:              "#bsky_fg",
				Type:            "BskyFeedGenerator",
				ServiceEndpoint: "https://" + s.hostname,
			},
		},
	})
}

type feedRef struct {
	URI string `json:"uri"`
}

type describeResponse struct {
	DID   string    `json:"did"`
	Feeds []feedRef `json:"feeds"`
}

func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request) {
	uris := s.registry.URIs()
	feeds := make([]feedRef, 0, len(uris))
	for _, uri := range uris {
		feeds = append(feeds, feedRef{URI: uri})
	}
	writeJSON(w, http.StatusOK, describeResponse{DID: s.serviceDID, Feeds: feeds})
}

type skeletonItem struct {
	Post string `json:"post"`
}

type skeletonResponse struct {
	Cursor string         `json:"cursor,omitempty"`
	Feed   []skeletonItem `json:"feed"`
}

func (s *Server) handleSkeleton(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	cfg, ok := s.registry.Lookup(query.Get("feed"))
	if !ok {
		writeError(w, http.StatusBadRequest, "unsupported feed")
		return
	}

	limit := 0
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "malformed limit")
			return
		}
		limit = parsed
	}

	page, err := s.gate.GetFeedPage(r.Context(), cfg, query.Get("cursor"), limit)
	switch {
	case errors.Is(err, feed.ErrInvalidCursor):
		writeError(w, http.StatusBadRequest, "malformed cursor")
		return
	case errors.Is(err, core.ErrConfigInvalid):
		s.logger.Error("registered feed has invalid configuration",
			"feed", cfg.Key(), "err", err)
		writeError(w, http.StatusInternalServerError, "feed misconfigured")
		return
	case err != nil:
		s.logger.Error("feed page failed", "feed", cfg.Key(), "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	items := make([]skeletonItem, 0, len(page.ItemIDs))
	for _, id := range page.ItemIDs {
		items = append(items, skeletonItem{Post: string(id)})
	}
	writeJSON(w, http.StatusOK, skeletonResponse{Cursor: page.NextCursor, Feed: items})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
