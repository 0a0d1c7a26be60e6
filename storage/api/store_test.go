package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papillon-fyi/feedgen/core"
	"github.com/papillon-fyi/feedgen/storage"
)

func TestGetCacheEntry(t *testing.T) {
	t.Run("decodes cache attachment", func(t *testing.T) {
		var gotPath, gotKey string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotKey = r.Header.Get("x-api-key")
			_, _ = w.Write([]byte(`{
				"cache": {
					"skeleton": ["at://did:plc:a/app.bsky.feed.post/1", "at://did:plc:b/app.bsky.feed.post/2"],
					"timestamp": 1700000000,
					"oldest_timestamp": 1699990000,
					"blueprint_hash": "deadbeefdeadbeef"
				}
			}`))
		}))
		defer server.Close()

		store := NewStore(server.URL, "secret",
			WithHTTPClient(server.Client()),
			WithLogger(slog.Default()))
		entry, err := store.GetCacheEntry(context.Background(), "did:plc:owner", "tech-feed")
		require.NoError(t, err)

		assert.Equal(t, "/feeds/did:plc:owner/tech-feed", gotPath)
		assert.Equal(t, "secret", gotKey)
		require.Len(t, entry.Skeleton, 2)
		assert.Equal(t, core.ItemID("at://did:plc:a/app.bsky.feed.post/1"), entry.Skeleton[0])
		assert.Equal(t, "deadbeefdeadbeef", entry.BlueprintHash)
		assert.Equal(t, int64(1700000000), entry.BuiltAt.Unix())
		assert.Equal(t, int64(1699990000), entry.OldestItem.Unix())
	})

	t.Run("missing record is not found", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		store := NewStore(server.URL, "secret")
		_, err := store.GetCacheEntry(context.Background(), "did:plc:owner", "tech-feed")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("record without cache is not found", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"name": "tech-feed"}`))
		}))
		defer server.Close()

		store := NewStore(server.URL, "secret")
		_, err := store.GetCacheEntry(context.Background(), "did:plc:owner", "tech-feed")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("server error surfaces", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		store := NewStore(server.URL, "secret")
		_, err := store.GetCacheEntry(context.Background(), "did:plc:owner", "tech-feed")
		require.Error(t, err)
		assert.False(t, errors.Is(err, storage.ErrNotFound))
	})

	t.Run("malformed body is a serialization error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"cache": `))
		}))
		defer server.Close()

		store := NewStore(server.URL, "secret")
		_, err := store.GetCacheEntry(context.Background(), "did:plc:owner", "tech-feed")
		assert.ErrorIs(t, err, storage.ErrSerializationFailed)
	})
}

func TestPutCacheEntry(t *testing.T) {
	t.Run("posts cache payload", func(t *testing.T) {
		var gotPath string
		var gotBody wireFeedRecord
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		entry := &core.CacheEntry{
			Skeleton:      []core.ItemID{"at://did:plc:a/app.bsky.feed.post/1"},
			BuiltAt:       time.Unix(1700000000, 0).UTC(),
			OldestItem:    time.Unix(1699990000, 0).UTC(),
			BlueprintHash: "cafebabecafebabe",
		}

		store := NewStore(server.URL, "secret")
		require.NoError(t, store.PutCacheEntry(context.Background(), "did:plc:owner", "tech-feed", entry))

		assert.Equal(t, "/feeds/did:plc:owner/tech-feed/cache", gotPath)
		require.NotNil(t, gotBody.Cache)
		assert.Equal(t, []string{"at://did:plc:a/app.bsky.feed.post/1"}, gotBody.Cache.Skeleton)
		assert.Equal(t, int64(1700000000), gotBody.Cache.BuiltAt)
		assert.Equal(t, int64(1699990000), gotBody.Cache.OldestItem)
		assert.Equal(t, "cafebabecafebabe", gotBody.Cache.BlueprintHash)
	})

	t.Run("rejected write surfaces", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer server.Close()

		store := NewStore(server.URL, "wrong-key")
		err := store.PutCacheEntry(context.Background(), "did:plc:owner", "tech-feed", &core.CacheEntry{})
		assert.Error(t, err)
	})
}

func TestEntryRoundTrip(t *testing.T) {
	entry := &core.CacheEntry{
		Skeleton:      []core.ItemID{"a", "b", "c"},
		BuiltAt:       time.Unix(1700000000, 0).UTC(),
		BlueprintHash: "0123456789abcdef",
	}
	got := fromEntry(entry).toEntry()
	assert.Equal(t, entry, got)

	// Zero oldest time must survive the omitted field.
	assert.True(t, got.OldestItem.IsZero())
}
