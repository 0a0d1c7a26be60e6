package enrich

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papillon-fyi/feedgen/bsky"
	"github.com/papillon-fyi/feedgen/core"
)

type fakeDetailClient struct {
	mu         sync.Mutex
	batches    [][]core.ItemID
	known      map[core.ItemID]bsky.RawItem
	failBatch  int // 1-based index of the batch to fail, 0 for none
	batchCount int
}

func (f *fakeDetailClient) ItemDetails(ctx context.Context, ids []core.ItemID) (map[core.ItemID]bsky.RawItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchCount++
	f.batches = append(f.batches, ids)
	if f.failBatch != 0 && f.batchCount == f.failBatch {
		return nil, errors.New("upstream 502")
	}
	found := make(map[core.ItemID]bsky.RawItem)
	for _, id := range ids {
		if item, ok := f.known[id]; ok {
			found[id] = item
		}
	}
	return found, nil
}

func newTestPool(t *testing.T) *ants.Pool {
	t.Helper()
	pool, err := ants.NewPool(10)
	require.NoError(t, err)
	t.Cleanup(pool.Release)
	return pool
}

func makeIDs(n int) []core.ItemID {
	ids := make([]core.ItemID, n)
	for i := range ids {
		ids[i] = core.ItemID(string(rune('a'+i%26)) + string(rune('0'+i/26)))
	}
	return ids
}

func TestEnrich(t *testing.T) {
	ctx := context.Background()

	t.Run("fetches detail for every id", func(t *testing.T) {
		known := map[core.ItemID]bsky.RawItem{
			"at://a/1": {URI: "at://a/1", Likes: 3, CreatedAt: time.Now().UTC()},
			"at://b/2": {URI: "at://b/2", Replies: 1},
		}
		client := &fakeDetailClient{known: known}
		enricher, err := NewEnricher(client, newTestPool(t))
		require.NoError(t, err)

		details := enricher.Enrich(ctx, []core.ItemID{"at://a/1", "at://b/2"})
		require.Len(t, details, 2)
		assert.Equal(t, 3, details["at://a/1"].Likes)
	})

	t.Run("splits ids into bounded batches", func(t *testing.T) {
		ids := makeIDs(60)
		known := make(map[core.ItemID]bsky.RawItem, len(ids))
		for _, id := range ids {
			known[id] = bsky.RawItem{URI: id}
		}
		client := &fakeDetailClient{known: known}
		enricher, err := NewEnricher(client, newTestPool(t))
		require.NoError(t, err)

		details := enricher.Enrich(ctx, ids)
		assert.Len(t, details, 60)

		client.mu.Lock()
		defer client.mu.Unlock()
		require.Len(t, client.batches, 3) // 25 + 25 + 10
		for _, batch := range client.batches {
			assert.LessOrEqual(t, len(batch), bsky.MaxDetailIDs)
		}
	})

	t.Run("deleted items are silently absent", func(t *testing.T) {
		client := &fakeDetailClient{
			known: map[core.ItemID]bsky.RawItem{"at://a/1": {URI: "at://a/1"}},
		}
		enricher, err := NewEnricher(client, newTestPool(t))
		require.NoError(t, err)

		details := enricher.Enrich(ctx, []core.ItemID{"at://a/1", "at://gone/9"})
		assert.Len(t, details, 1)
		_, ok := details["at://gone/9"]
		assert.False(t, ok)
	})

	t.Run("failed batch drops only its own items", func(t *testing.T) {
		ids := makeIDs(50)
		known := make(map[core.ItemID]bsky.RawItem, len(ids))
		for _, id := range ids {
			known[id] = bsky.RawItem{URI: id}
		}
		client := &fakeDetailClient{known: known, failBatch: 1}
		enricher, err := NewEnricher(client, newSerialPool(t), WithBatchSize(25))
		require.NoError(t, err)

		details := enricher.Enrich(ctx, ids)
		assert.Len(t, details, 25)
	})

	t.Run("empty input yields empty output", func(t *testing.T) {
		client := &fakeDetailClient{}
		enricher, err := NewEnricher(client, newTestPool(t))
		require.NoError(t, err)
		assert.Empty(t, enricher.Enrich(ctx, nil))
	})
}

// newSerialPool builds a single-worker pool so batch order is deterministic.
func newSerialPool(t *testing.T) *ants.Pool {
	t.Helper()
	pool, err := ants.NewPool(1)
	require.NoError(t, err)
	t.Cleanup(pool.Release)
	return pool
}

func TestNewEnricherValidation(t *testing.T) {
	pool := newTestPool(t)
	_, err := NewEnricher(nil, pool)
	assert.ErrorIs(t, err, ErrDetailClientRequired)

	_, err = NewEnricher(&fakeDetailClient{}, nil)
	assert.ErrorIs(t, err, ErrPoolRequired)

	enricher, err := NewEnricher(&fakeDetailClient{}, pool, WithLogger(slog.Default()))
	require.NoError(t, err)
	assert.NotNil(t, enricher)

	enricher, err = NewEnricher(&fakeDetailClient{}, pool, WithLogger(nil))
	require.NoError(t, err)
	assert.NotNil(t, enricher.logger)
}
