package search

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

	"github.com/papillon-fyi/feedgen/ai"
	"github.com/papillon-fyi/feedgen/ai/mock"
	"github.com/papillon-fyi/feedgen/bsky"
	"github.com/papillon-fyi/feedgen/core"
)

// fakeSearchClient records every call and serves canned items per query.
type fakeSearchClient struct {
	mu            sync.Mutex
	searchQueries []string
	authorCalls   []string
	itemsByQuery  map[string][]bsky.RawItem
	itemsByAuthor map[string][]bsky.RawItem
	searchErr     error
}

func (f *fakeSearchClient) SearchPosts(ctx context.Context, query string, limit int, token string) ([]bsky.RawItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchQueries = append(f.searchQueries, query)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.itemsByQuery[query], nil
}

func (f *fakeSearchClient) AuthorFeed(ctx context.Context, actorDID string, limit int) ([]bsky.RawItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authorCalls = append(f.authorCalls, actorDID)
	return f.itemsByAuthor[actorDID], nil
}

func (f *fakeSearchClient) searchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.searchQueries)
}

func newTestPool(t *testing.T) *ants.Pool {
	t.Helper()
	pool, err := ants.NewPool(10)
	require.NoError(t, err)
	t.Cleanup(pool.Release)
	return pool
}

// alignedEmbedder returns the query vector for the query text and either an
// aligned or an orthogonal vector per candidate, keyed by candidate text.
func alignedEmbedder(orthogonal map[string]bool) *mock.MockEmbedder {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		vectors := make([][]float32, len(texts))
		vectors[0] = []float32{1, 0}
		for i, text := range texts[1:] {
			if orthogonal[text] {
				vectors[i+1] = []float32{0, 1}
			} else {
				vectors[i+1] = []float32{1, 0}
			}
		}
		return vectors, nil
	}
	return embedder
}

func item(uri, author, text string) bsky.RawItem {
	return bsky.RawItem{
		URI:       core.ItemID(uri),
		AuthorDID: core.AuthorID(author),
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
}

func TestNewExecutor(t *testing.T) {
	pool := newTestPool(t)

	t.Run("with custom logger", func(t *testing.T) {
		executor, err := NewExecutor(&fakeSearchClient{}, mock.NewMockEmbedder(), pool,
			WithLogger(slog.Default()))
		require.NoError(t, err)
		assert.NotNil(t, executor)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		executor, err := NewExecutor(&fakeSearchClient{}, mock.NewMockEmbedder(), pool,
			WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, executor.logger)
	})

	t.Run("nil search client", func(t *testing.T) {
		_, err := NewExecutor(nil, mock.NewMockEmbedder(), pool)
		assert.ErrorIs(t, err, ErrSearchClientRequired)
	})

	t.Run("nil embedder", func(t *testing.T) {
		_, err := NewExecutor(&fakeSearchClient{}, nil, pool)
		assert.ErrorIs(t, err, ErrEmbedderRequired)
	})

	t.Run("nil pool", func(t *testing.T) {
		_, err := NewExecutor(&fakeSearchClient{}, mock.NewMockEmbedder(), nil)
		assert.ErrorIs(t, err, ErrPoolRequired)
	})
}

func TestExecutorTextSearch(t *testing.T) {
	client := &fakeSearchClient{
		itemsByQuery: map[string][]bsky.RawItem{
			"rust": {
				item("at://a/1", "did:plc:a", "rust is fast"),
				item("at://b/2", "did:plc:b", "rust borrow checker"),
			},
		},
	}
	executor, err := NewExecutor(client, mock.NewMockEmbedder(), newTestPool(t))
	require.NoError(t, err)

	results := executor.Execute(context.Background(), []Query{
		{SourceLabel: "rust", Mode: core.MatchText, Text: "rust"},
	}, "token")

	require.Len(t, results["rust"], 2)
	assert.Equal(t, core.MatchText, results["rust"][0].MatchedBy)
	assert.Equal(t, "rust", results["rust"][0].SourceLabel)
}

func TestExecutorVectorSearch(t *testing.T) {
	t.Run("drops candidates below the similarity floor", func(t *testing.T) {
		client := &fakeSearchClient{
			itemsByQuery: map[string][]bsky.RawItem{
				"gardening": {
					item("at://a/1", "did:plc:a", "pruning tomatoes"),
					item("at://b/2", "did:plc:b", "crypto giveaway"),
				},
			},
		}
		embedder := alignedEmbedder(map[string]bool{"crypto giveaway": true})
		executor, err := NewExecutor(client, embedder, newTestPool(t))
		require.NoError(t, err)

		results := executor.Execute(context.Background(), []Query{
			{SourceLabel: "gardening", Mode: core.MatchVector, Text: "gardening"},
		}, "token")

		require.Len(t, results["gardening"], 1)
		assert.Equal(t, core.ItemID("at://a/1"), results["gardening"][0].ItemID)
		assert.Equal(t, core.MatchVector, results["gardening"][0].MatchedBy)
	})

	t.Run("raised floor drops loosely related candidates", func(t *testing.T) {
		client := &fakeSearchClient{
			itemsByQuery: map[string][]bsky.RawItem{
				"gardening": {
					item("at://a/1", "did:plc:a", "pruning tomatoes"),
				},
			},
		}
		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			// Query aligned, candidate at cosine 0.8: above the
			// default floor, below the raised one.
			vectors := make([][]float32, len(texts))
			vectors[0] = []float32{1, 0}
			for i := 1; i < len(texts); i++ {
				vectors[i] = []float32{0.8, 0.6}
			}
			return vectors, nil
		}

		executor, err := NewExecutor(client, embedder, newTestPool(t),
			WithSimilarityFloor(0.9))
		require.NoError(t, err)

		results := executor.Execute(context.Background(), []Query{
			{SourceLabel: "gardening", Mode: core.MatchVector, Text: "gardening"},
		}, "token")

		assert.Empty(t, results["gardening"])
	})

	t.Run("embeds query and candidates in one batch", func(t *testing.T) {
		client := &fakeSearchClient{
			itemsByQuery: map[string][]bsky.RawItem{
				"gardening": {
					item("at://a/1", "did:plc:a", "pruning tomatoes"),
					item("at://b/2", "did:plc:b", "soil acidity"),
				},
			},
		}
		var batchSizes []int
		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			batchSizes = append(batchSizes, len(texts))
			vectors := make([][]float32, len(texts))
			for i := range vectors {
				vectors[i] = []float32{1, 0}
			}
			return vectors, nil
		}
		executor, err := NewExecutor(client, embedder, newTestPool(t))
		require.NoError(t, err)

		executor.Execute(context.Background(), []Query{
			{SourceLabel: "gardening", Mode: core.MatchVector, Text: "gardening"},
		}, "token")

		// One call covering the query plus both candidates.
		assert.Equal(t, []int{3}, batchSizes)
	})

	t.Run("embedding failure drops the source, not the build", func(t *testing.T) {
		client := &fakeSearchClient{
			itemsByQuery: map[string][]bsky.RawItem{
				"gardening": {item("at://a/1", "did:plc:a", "pruning tomatoes")},
			},
		}
		embedder := mock.NewMockEmbedder()
		embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
			return nil, errors.New("model offline")
		}
		executor, err := NewExecutor(client, embedder, newTestPool(t))
		require.NoError(t, err)

		results := executor.Execute(context.Background(), []Query{
			{SourceLabel: "gardening", Mode: core.MatchVector, Text: "gardening"},
		}, "token")
		assert.Empty(t, results["gardening"])
	})
}

func TestExecutorAuthorFeed(t *testing.T) {
	client := &fakeSearchClient{
		itemsByAuthor: map[string][]bsky.RawItem{
			"did:plc:friend": {item("at://f/1", "did:plc:friend", "hello")},
		},
	}
	executor, err := NewExecutor(client, mock.NewMockEmbedder(), newTestPool(t))
	require.NoError(t, err)

	results := executor.Execute(context.Background(), []Query{
		{SourceLabel: "did:plc:friend", Mode: core.MatchAuthor, Text: "did:plc:friend"},
	}, "")

	require.Len(t, results["did:plc:friend"], 1)
	assert.Equal(t, core.MatchAuthor, results["did:plc:friend"][0].MatchedBy)
	assert.Equal(t, []string{"did:plc:friend"}, client.authorCalls)
	assert.Zero(t, client.searchCount())
}

func TestExecutorAcronymNeverTextSearched(t *testing.T) {
	// An acronym topic must reach upstream only through the semantic path
	// with the expansion phrase, never as a bare keyword query.
	expansion := "human-computer interaction research"
	client := &fakeSearchClient{
		itemsByQuery: map[string][]bsky.RawItem{
			expansion: {item("at://a/1", "did:plc:a", "new CHI paper on input latency")},
		},
	}
	embedder := alignedEmbedder(nil)
	executor, err := NewExecutor(client, embedder, newTestPool(t))
	require.NoError(t, err)

	router := NewRouter(nil)
	queries := router.Plan(context.Background(), &core.FeedConfig{
		Sources: []core.FeedSource{
			{Kind: core.SourceTopicPreference, Identifier: "CHI", IsAcronym: true, Context: expansion},
		},
	})
	results := executor.Execute(context.Background(), queries, "token")

	require.Len(t, results["CHI"], 1)
	for _, query := range client.searchQueries {
		assert.NotEqual(t, "CHI", query)
	}
	assert.Equal(t, []string{expansion}, client.searchQueries)
}

func TestExecutorUpstreamFailure(t *testing.T) {
	client := &fakeSearchClient{searchErr: errors.New("upstream 500")}
	executor, err := NewExecutor(client, mock.NewMockEmbedder(), newTestPool(t))
	require.NoError(t, err)

	results := executor.Execute(context.Background(), []Query{
		{SourceLabel: "rust", Mode: core.MatchText, Text: "rust"},
	}, "token")
	assert.Empty(t, results["rust"])
}

func TestExecutorResultCache(t *testing.T) {
	t.Run("repeat query within TTL hits the cache", func(t *testing.T) {
		client := &fakeSearchClient{
			itemsByQuery: map[string][]bsky.RawItem{
				"rust": {item("at://a/1", "did:plc:a", "rust is fast")},
			},
		}
		executor, err := NewExecutor(client, mock.NewMockEmbedder(), newTestPool(t))
		require.NoError(t, err)

		q := []Query{{SourceLabel: "rust", Mode: core.MatchText, Text: "rust"}}
		executor.Execute(context.Background(), q, "token")
		executor.Execute(context.Background(), q, "token")

		assert.Equal(t, 1, client.searchCount())
	})

	t.Run("expired entries are re-fetched", func(t *testing.T) {
		client := &fakeSearchClient{
			itemsByQuery: map[string][]bsky.RawItem{
				"rust": {item("at://a/1", "did:plc:a", "rust is fast")},
			},
		}
		executor, err := NewExecutor(client, mock.NewMockEmbedder(), newTestPool(t))
		require.NoError(t, err)

		now := time.Now()
		executor.cache.now = func() time.Time { return now }

		q := []Query{{SourceLabel: "rust", Mode: core.MatchText, Text: "rust"}}
		executor.Execute(context.Background(), q, "token")

		executor.cache.now = func() time.Time { return now.Add(time.Minute) }
		executor.Execute(context.Background(), q, "token")

		assert.Equal(t, 2, client.searchCount())
	})

	t.Run("cached results are relabeled per source", func(t *testing.T) {
		client := &fakeSearchClient{
			itemsByQuery: map[string][]bsky.RawItem{
				"rust": {item("at://a/1", "did:plc:a", "rust is fast")},
			},
		}
		executor, err := NewExecutor(client, mock.NewMockEmbedder(), newTestPool(t))
		require.NoError(t, err)

		first := executor.Execute(context.Background(), []Query{
			{SourceLabel: "rust", Mode: core.MatchText, Text: "rust"},
		}, "token")
		second := executor.Execute(context.Background(), []Query{
			{SourceLabel: "rustlang", Mode: core.MatchText, Text: "rust"},
		}, "token")

		require.Len(t, first["rust"], 1)
		require.Len(t, second["rustlang"], 1)
		assert.Equal(t, "rustlang", second["rustlang"][0].SourceLabel)
		assert.Equal(t, 1, client.searchCount())
	})
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-6)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.InDelta(t, -1.0, cosineSimilarity([]float32{1, 0}, []float32{-3, 0}), 1e-6)
	assert.Zero(t, cosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}

var _ ai.Embedder = (*mock.MockEmbedder)(nil)
