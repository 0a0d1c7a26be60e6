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


// Package api implements storage.CacheStore against the remote feeds API,
// which owns feed records and their cache attachments.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/papillon-fyi/feedgen/core"
	"github.com/papillon-fyi/feedgen/storage"
)

// Store reads and writes feed cache entries through the feeds API:
//
//	GET  {base}/feeds/{did}/{feedId}        -> {"cache": {...}, ...}
//	POST {base}/feeds/{did}/{feedId}/cache  <- {"cache": {...}}
//
// Requests authenticate with an x-api-key header.
type Store struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *slog.Logger
}

var _ storage.CacheStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *Store) {
		if hc != nil {
			s.httpClient = hc
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// NewStore creates a cache store backed by the feeds API at baseURL.
func NewStore(baseURL, apiKey string, opts ...Option) *Store {
	s := &Store{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
		logger:     slog.Default().With("component", "api-cache-store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// wireEntry is the JSON shape of a cache entry as stored by the feeds API.
type wireEntry struct {
	Skeleton      []string `json:"skeleton"`
	BuiltAt       int64    `json:"timestamp"`
	OldestItem    int64    `json:"oldest_timestamp,omitempty"`
	BlueprintHash string   `json:"blueprint_hash"`
}

type wireFeedRecord struct {
	Cache *wireEntry `json:"cache"`
}

// GetCacheEntry fetches the cache attachment of a feed record.
// A missing record or a record without a cache yields storage.ErrNotFound.
func (s *Store) GetCacheEntry(ctx context.Context, ownerDID, feedID string) (*core.CacheEntry, error) {
	endpoint := fmt.Sprintf("%s/feeds/%s/%s", s.baseURL, ownerDID, feedID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	s.authorize(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, storage.ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("feeds API get: status %d", resp.StatusCode)
	}

	var record wireFeedRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}
	if record.Cache == nil {
		return nil, storage.ErrNotFound
	}

	return record.Cache.toEntry(), nil
}

// PutCacheEntry stores the cache attachment of a feed record.
func (s *Store) PutCacheEntry(ctx context.Context, ownerDID, feedID string, entry *core.CacheEntry) error {
	payload, err := json.Marshal(wireFeedRecord{Cache: fromEntry(entry)})
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}

	endpoint := fmt.Sprintf("%s/feeds/%s/%s/cache", s.baseURL, ownerDID, feedID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	s.authorize(req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("feeds API put: status %d", resp.StatusCode)
	}
	return nil
}

// Close is a no-op; the store holds no resources beyond the HTTP client.
func (s *Store) Close() error {
	return nil
}

func (s *Store) authorize(req *http.Request) {
	if s.apiKey != "" {
		req.Header.Set("x-api-key", s.apiKey)
	}
}

func (w *wireEntry) toEntry() *core.CacheEntry {
	entry := &core.CacheEntry{
		Skeleton:      make([]core.ItemID, 0, len(w.Skeleton)),
		BuiltAt:       time.Unix(w.BuiltAt, 0).UTC(),
		BlueprintHash: w.BlueprintHash,
	}
	for _, id := range w.Skeleton {
		entry.Skeleton = append(entry.Skeleton, core.ItemID(id))
	}
	if w.OldestItem != 0 {
		entry.OldestItem = time.Unix(w.OldestItem, 0).UTC()
	}
	return entry
}

func fromEntry(entry *core.CacheEntry) *wireEntry {
	w := &wireEntry{
		Skeleton:      make([]string, 0, len(entry.Skeleton)),
		BuiltAt:       entry.BuiltAt.Unix(),
		BlueprintHash: entry.BlueprintHash,
	}
	for _, id := range entry.Skeleton {
		w.Skeleton = append(w.Skeleton, string(id))
	}
	if !entry.OldestItem.IsZero() {
		w.OldestItem = entry.OldestItem.Unix()
	}
	return w
}
