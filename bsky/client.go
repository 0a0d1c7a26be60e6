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


package bsky

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/papillon-fyi/feedgen/core"
	"golang.org/x/time/rate"
)

const (
	defaultSearchBase = "https://bsky.social/xrpc"
	defaultPublicBase = "https://public.api.bsky.app/xrpc"

	// MaxDetailIDs is the upstream limit on URIs per getPosts call.
	MaxDetailIDs = 25

	defaultMaxAttempts = 3
	defaultRetryDelay  = 500 * time.Millisecond
)

// Client issues keyword search, author-timeline and item-detail queries
// against the content API. Authenticated search uses a bearer token supplied
// per call; timeline and detail reads go through the public endpoint.
//
// All outbound requests pass through a shared rate limiter and are retried
// with exponential backoff on transient failures.
type Client struct {
	httpClient  *http.Client
	searchBase  string
	publicBase  string
	limiter     *rate.Limiter
	maxAttempts int
	retryDelay  time.Duration
	logger      *slog.Logger
}

// Option configures a Client.
type Option func(*Client) error

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			hc = http.DefaultClient
		}
		c.httpClient = hc
		return nil
	}
}

// WithSearchBase overrides the authenticated API base URL.
func WithSearchBase(base string) Option {
	return func(c *Client) error {
		c.searchBase = base
		return nil
	}
}

// WithPublicBase overrides the public API base URL.
func WithPublicBase(base string) Option {
	return func(c *Client) error {
		c.publicBase = base
		return nil
	}
}

// WithRateLimit caps outbound requests per second.
// Default is 20 req/s with a burst of 10.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) error {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		return nil
	}
}

// WithRetry configures the retry policy for transient failures.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(c *Client) error {
		if maxAttempts < 1 {
			maxAttempts = 1
		}
		c.maxAttempts = maxAttempts
		c.retryDelay = baseDelay
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewClient creates a content API client.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		searchBase:  defaultSearchBase,
		publicBase:  defaultPublicBase,
		limiter:     rate.NewLimiter(rate.Limit(20), 10),
		maxAttempts: defaultMaxAttempts,
		retryDelay:  defaultRetryDelay,
		logger:      slog.Default().With("component", "bsky-client"),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// SearchPosts runs a keyword search and returns up to limit raw items.
// An empty token yields ErrMissingCredential without issuing a request.
func (c *Client) SearchPosts(ctx context.Context, query string, limit int, token string) ([]RawItem, error) {
	if token == "" {
		return nil, ErrMissingCredential
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))
	endpoint := c.searchBase + "/app.bsky.feed.searchPosts?" + params.Encode()

	var body wirePostList
	if err := c.getJSON(ctx, endpoint, token, &body); err != nil {
		return nil, fmt.Errorf("searchPosts %q: %w", query, err)
	}

	return collectItems(body.Posts, limit), nil
}

// AuthorFeed returns up to limit recent items from one author's timeline.
func (c *Client) AuthorFeed(ctx context.Context, actorDID string, limit int) ([]RawItem, error) {
	params := url.Values{}
	params.Set("actor", actorDID)
	params.Set("limit", strconv.Itoa(limit))
	endpoint := c.publicBase + "/app.bsky.feed.getAuthorFeed?" + params.Encode()

	var body wireAuthorFeed
	if err := c.getJSON(ctx, endpoint, "", &body); err != nil {
		return nil, fmt.Errorf("getAuthorFeed %q: %w", actorDID, err)
	}

	posts := make([]wirePost, 0, len(body.Feed))
	for _, item := range body.Feed {
		posts = append(posts, item.Post)
	}
	return collectItems(posts, limit), nil
}

// ItemDetails fetches full detail for up to MaxDetailIDs items in one call.
// Items deleted upstream are simply absent from the returned map.
func (c *Client) ItemDetails(ctx context.Context, ids []core.ItemID) (map[core.ItemID]RawItem, error) {
	if len(ids) == 0 {
		return map[core.ItemID]RawItem{}, nil
	}
	if len(ids) > MaxDetailIDs {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyIDs, len(ids), MaxDetailIDs)
	}

	params := url.Values{}
	for _, id := range ids {
		params.Add("uris", string(id))
	}
	endpoint := c.publicBase + "/app.bsky.feed.getPosts?" + params.Encode()

	var body wirePostList
	if err := c.getJSON(ctx, endpoint, "", &body); err != nil {
		return nil, fmt.Errorf("getPosts: %w", err)
	}

	details := make(map[core.ItemID]RawItem, len(body.Posts))
	for i := range body.Posts {
		if item, ok := body.Posts[i].toRawItem(); ok {
			details[item.URI] = item
		}
	}
	return details, nil
}

// getJSON performs a rate-limited GET with retries and decodes the JSON body.
func (c *Client) getJSON(ctx context.Context, endpoint, token string, out any) error {
	return retryWithBackoff(ctx, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			// 429 stays retryable; other 4xx statuses will not change
			// on a repeat of the same request.
			if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return fmt.Errorf("%w: status %d", ErrRequestRejected, resp.StatusCode)
			}
			return fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode)
		}

		return json.NewDecoder(resp.Body).Decode(out)
	}, c.maxAttempts, c.retryDelay)
}

func collectItems(posts []wirePost, limit int) []RawItem {
	items := make([]RawItem, 0, len(posts))
	for i := range posts {
		item, ok := posts[i].toRawItem()
		if !ok {
			continue
		}
		items = append(items, item)
		if len(items) >= limit {
			break
		}
	}
	return items
}
