package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity
// ranking. Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a
	// batch. Batch processing amortizes fixed per-call overhead and is
	// preferred over repeated EmbedText calls. The returned slice contains
	// embeddings in the same order as the input texts.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// AcronymResult is the outcome of classifying a topic label.
type AcronymResult struct {
	// IsAcronym reports whether the label is a short ambiguous acronym.
	IsAcronym bool

	// Expansion is a longer descriptive phrase capturing the label's
	// intended meaning. Only set when IsAcronym is true.
	Expansion string
}

// AcronymClassifier decides whether a topic label is an acronym that needs
// disambiguation before semantic search.
// Implementations must be thread-safe for concurrent use.
type AcronymClassifier interface {
	// ClassifyAcronym analyzes a short label together with the user's
	// stated intent and returns whether the label is an acronym and, if so,
	// an expansion phrase suitable as a semantic search query.
	ClassifyAcronym(ctx context.Context, label, intent string) (AcronymResult, error)
}

// Provider aggregates AI services for convenient initialization and
// lifecycle management.
type Provider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// AcronymClassifier returns the acronym classification service.
	// The returned AcronymClassifier is safe for concurrent use.
	AcronymClassifier() AcronymClassifier

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
