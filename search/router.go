package search

import (
	"context"
	"log/slog"

	"github.com/papillon-fyi/feedgen/ai"
	"github.com/papillon-fyi/feedgen/core"
)

// Query is one concrete search the executor will run: a source, the mode to
// run it in, and the query text for that mode.
type Query struct {
	SourceLabel string
	Mode        core.MatchMode
	Text        string
}

// Route decides which search modes apply to a source.
//
//   - Profile preferences fetch the author's feed only.
//   - Acronym topics run semantic search only, over the expansion phrase.
//     Keyword search on a bare acronym is all false positives.
//   - Plain topics run both keyword and semantic search; results merge
//     downstream.
//   - Filters are exclusion predicates, not searches.
func Route(source core.FeedSource) []core.MatchMode {
	switch source.Kind {
	case core.SourceProfilePreference:
		return []core.MatchMode{core.MatchAuthor}
	case core.SourceTopicPreference:
		if source.IsAcronym {
			return []core.MatchMode{core.MatchVector}
		}
		return []core.MatchMode{core.MatchText, core.MatchVector}
	default:
		return nil
	}
}

// Router expands a feed's sources into the concrete query list for one build.
type Router struct {
	classifier ai.AcronymClassifier
	logger     *slog.Logger
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithRouterLogger sets a custom logger.
// Default is slog.Default().
func WithRouterLogger(logger *slog.Logger) RouterOption {
	return func(r *Router) {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
	}
}

// NewRouter creates a router. The classifier may be nil, in which case
// acronym sources without a stored expansion fall back to their bare label.
func NewRouter(classifier ai.AcronymClassifier, opts ...RouterOption) *Router {
	r := &Router{
		classifier: classifier,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Plan routes every source of the feed and resolves acronym expansions,
// returning the deduplicated query list for one build.
func (r *Router) Plan(ctx context.Context, cfg *core.FeedConfig) []Query {
	queries := make([]Query, 0, 2*len(cfg.Sources))
	seen := make(map[Query]bool)

	for _, source := range cfg.Sources {
		for _, mode := range Route(source) {
			q := Query{
				SourceLabel: source.Identifier,
				Mode:        mode,
				Text:        r.queryText(ctx, source, mode),
			}
			if seen[q] {
				continue
			}
			seen[q] = true
			queries = append(queries, q)
		}
	}

	return queries
}

// queryText picks the text the given mode searches with. Semantic search of
// an acronym uses its expansion; when none is stored the classifier supplies
// one on the fly.
func (r *Router) queryText(ctx context.Context, source core.FeedSource, mode core.MatchMode) string {
	if mode != core.MatchVector || !source.IsAcronym {
		return source.Identifier
	}
	if source.Context != "" {
		return source.Context
	}
	if r.classifier == nil {
		return source.Identifier
	}

	result, err := r.classifier.ClassifyAcronym(ctx, source.Identifier, "")
	if err != nil {
		r.logger.Warn("acronym expansion failed, using bare label",
			"label", source.Identifier, "err", err)
		return source.Identifier
	}
	if result.Expansion == "" {
		return source.Identifier
	}
	return result.Expansion
}
