package bsky

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/papillon-fyi/feedgen/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const postJSON = `{
	"uri": "at://did:plc:alice/app.bsky.feed.post/3k1",
	"author": {"did": "did:plc:alice", "handle": "alice.test"},
	"record": {"text": "rust is great", "createdAt": "2026-08-30T12:00:00Z"},
	"likeCount": 4, "replyCount": 1, "repostCount": 2, "quoteCount": 0
}`

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(
		WithHTTPClient(server.Client()),
		WithSearchBase(server.URL),
		WithPublicBase(server.URL),
		WithRateLimit(1000, 1000),
		WithRetry(2, time.Millisecond),
		WithLogger(slog.Default()),
	)
	require.NoError(t, err)
	return client, server
}

func TestSearchPosts(t *testing.T) {
	t.Run("returns decoded items", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/app.bsky.feed.searchPosts", r.URL.Path)
			assert.Equal(t, "Bearer jwt-token", r.Header.Get("Authorization"))
			assert.Equal(t, "rust", r.URL.Query().Get("q"))
			fmt.Fprintf(w, `{"posts": [%s]}`, postJSON)
		}))

		items, err := client.SearchPosts(context.Background(), "rust", 10, "jwt-token")
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, core.ItemID("at://did:plc:alice/app.bsky.feed.post/3k1"), items[0].URI)
		assert.Equal(t, core.AuthorID("did:plc:alice"), items[0].AuthorDID)
		assert.Equal(t, "rust is great", items[0].Text)
		assert.Equal(t, core.EngagementCounts{Likes: 4, Replies: 1, Reposts: 2}, items[0].Engagement())
	})

	t.Run("missing credential", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected without a credential")
		}))

		_, err := client.SearchPosts(context.Background(), "rust", 10, "")
		assert.ErrorIs(t, err, ErrMissingCredential)
	})

	t.Run("retries transient failures", func(t *testing.T) {
		var calls atomic.Int32
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			fmt.Fprintf(w, `{"posts": [%s]}`, postJSON)
		}))

		items, err := client.SearchPosts(context.Background(), "rust", 10, "jwt-token")
		require.NoError(t, err)
		assert.Len(t, items, 1)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("surfaces persistent failure", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))

		_, err := client.SearchPosts(context.Background(), "rust", 10, "jwt-token")
		assert.ErrorIs(t, err, ErrRequestFailed)
	})

	t.Run("does not retry rejected requests", func(t *testing.T) {
		var calls atomic.Int32
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
		}))

		_, err := client.SearchPosts(context.Background(), "rust", 10, "bad-token")
		assert.ErrorIs(t, err, ErrRequestRejected)
		assert.Equal(t, int32(1), calls.Load())
	})
}

func TestAuthorFeed(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/app.bsky.feed.getAuthorFeed", r.URL.Path)
		assert.Equal(t, "did:plc:alice", r.URL.Query().Get("actor"))
		assert.Empty(t, r.Header.Get("Authorization"))
		fmt.Fprintf(w, `{"feed": [{"post": %s}]}`, postJSON)
	}))

	items, err := client.AuthorFeed(context.Background(), "did:plc:alice", 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, core.AuthorID("did:plc:alice"), items[0].AuthorDID)
}

func TestItemDetails(t *testing.T) {
	t.Run("returns details keyed by id", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/app.bsky.feed.getPosts", r.URL.Path)
			fmt.Fprintf(w, `{"posts": [%s]}`, postJSON)
		}))

		details, err := client.ItemDetails(context.Background(), []core.ItemID{"at://did:plc:alice/app.bsky.feed.post/3k1"})
		require.NoError(t, err)
		require.Len(t, details, 1)
		assert.Contains(t, details, core.ItemID("at://did:plc:alice/app.bsky.feed.post/3k1"))
	})

	t.Run("empty request short-circuits", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected for empty id set")
		}))

		details, err := client.ItemDetails(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, details)
	})

	t.Run("rejects oversized batches", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		ids := make([]core.ItemID, MaxDetailIDs+1)
		for i := range ids {
			ids[i] = core.ItemID(fmt.Sprintf("at://did:plc:a/app.bsky.feed.post/%d", i))
		}
		_, err := client.ItemDetails(context.Background(), ids)
		assert.ErrorIs(t, err, ErrTooManyIDs)
	})

	t.Run("skips malformed posts", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, `{"posts": [%s, {"uri": "", "record": {"createdAt": "bad"}}]}`, postJSON)
		}))

		details, err := client.ItemDetails(context.Background(), []core.ItemID{"at://did:plc:alice/app.bsky.feed.post/3k1", "at://x/app.bsky.feed.post/y"})
		require.NoError(t, err)
		assert.Len(t, details, 1)
	})
}
