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


// Package rank scores candidates on relevance, popularity and recency and
// combines the three into a composite score with caller-supplied weights.
package rank

import (
	"math"
	"strings"
	"time"

	"github.com/papillon-fyi/feedgen/core"
)

const (
	// DefaultMaxAge is how old an item may be before it is considered
	// fully decayed.
	DefaultMaxAge = 48 * time.Hour

	// popularityDivisor maps ln(1+engagement) into [0,1]; engagement
	// around e^5-1 ≈ 147 saturates the popularity signal.
	popularityDivisor = 5.0
)

// Ranker scores candidates for one feed.
type Ranker struct {
	maxAge time.Duration
	now    func() time.Time
}

// Option configures a Ranker.
type Option func(*Ranker)

// WithMaxAge sets the age at which recency fully decays.
// Default is 48 hours.
func WithMaxAge(maxAge time.Duration) Option {
	return func(r *Ranker) {
		if maxAge > 0 {
			r.maxAge = maxAge
		}
	}
}

// WithClock sets the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Ranker) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRanker creates a ranker.
func NewRanker(opts ...Option) *Ranker {
	r := &Ranker{
		maxAge: DefaultMaxAge,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Score computes the per-dimension scores and their weighted combination.
// The weights are linear coefficients; the composite is deliberately not
// clamped, so weights that do not sum to 1 scale the result accordingly.
func (r *Ranker) Score(candidate core.Candidate, cfg *core.FeedConfig) core.ScoredItem {
	relevance := r.relevance(candidate, cfg)
	popularity := r.popularity(candidate)
	recency := r.recency(candidate)

	return core.ScoredItem{
		Candidate:  candidate,
		Relevance:  relevance,
		Popularity: popularity,
		Recency:    recency,
		Score: relevance*cfg.Weights.Relevance +
			popularity*cfg.Weights.Popularity +
			recency*cfg.Weights.Recency,
	}
}

// ScoreAll scores a batch of candidates.
func (r *Ranker) ScoreAll(candidates []core.Candidate, cfg *core.FeedConfig) []core.ScoredItem {
	scored := make([]core.ScoredItem, 0, len(candidates))
	for _, candidate := range candidates {
		scored = append(scored, r.Score(candidate, cfg))
	}
	return scored
}

// relevance is 1 for items by a followed author, otherwise the highest
// weight among topic preferences the item matched, clamped to [0,1].
func (r *Ranker) relevance(candidate core.Candidate, cfg *core.FeedConfig) float64 {
	text := strings.ToLower(candidate.Text)
	label := strings.ToLower(candidate.SourceLabel)

	var best float64
	for _, source := range cfg.Sources {
		switch source.Kind {
		case core.SourceProfilePreference:
			if core.AuthorID(source.Identifier) == candidate.AuthorID {
				return 1.0
			}
		case core.SourceTopicPreference:
			if !topicMatches(source, text, label) {
				continue
			}
			if source.Weight > best {
				best = source.Weight
			}
		}
	}

	return math.Min(math.Max(best, 0), 1)
}

// topicMatches reports whether the candidate was retrieved for this topic
// or mentions its label (or expansion) outright.
func topicMatches(source core.FeedSource, text, label string) bool {
	identifier := strings.ToLower(source.Identifier)
	if identifier == label {
		return true
	}
	if strings.Contains(text, identifier) {
		return true
	}
	if source.Context != "" && strings.Contains(text, strings.ToLower(source.Context)) {
		return true
	}
	return false
}

// popularity compresses weighted engagement logarithmically so a handful
// of interactions matters and virality saturates.
func (r *Ranker) popularity(candidate core.Candidate) float64 {
	engagement := float64(candidate.Engagement.Weighted())
	return math.Min(math.Log1p(engagement)/popularityDivisor, 1.0)
}

// recency decays exponentially with a time constant of a third of the max
// age, about a 16 hour half-life-equivalent at the 48h default.
func (r *Ranker) recency(candidate core.Candidate) float64 {
	if candidate.CreatedAt.IsZero() {
		return 0
	}
	age := r.now().Sub(candidate.CreatedAt).Seconds()
	if age < 0 {
		age = 0
	}
	return math.Exp(-age / (r.maxAge.Seconds() / 3))
}
