package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ItemID identifies a single content item, e.g.
// "at://did:plc:abc123/app.bsky.feed.post/3kh2ab".
type ItemID string

// AuthorID identifies a content author by DID, e.g. "did:plc:abc123".
type AuthorID string

// KeyFromContent generates a deterministic 64-bit key from text using BLAKE2b.
// Identical content always produces the same key.
func KeyFromContent(text string) uint64 {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return binary.LittleEndian.Uint64(sum)
}

// SourceKind discriminates the types of configured feed sources.
type SourceKind string

const (
	// SourceTopicPreference searches for a topic and weighs matching items.
	SourceTopicPreference SourceKind = "topic_preference"
	// SourceProfilePreference follows a specific author.
	SourceProfilePreference SourceKind = "profile_preference"
	// SourceTopicFilter excludes items whose text contains a label.
	SourceTopicFilter SourceKind = "topic_filter"
	// SourceProfileFilter excludes items from a specific author.
	SourceProfileFilter SourceKind = "profile_filter"
)

// FeedSource is one configured input to a feed: a topic to search for, an
// author to follow, or an exclusion rule.
type FeedSource struct {
	Kind       SourceKind
	Identifier string  // topic label or author DID
	Weight     float64 // relevance weight for preferences, unused for filters
	IsAcronym  bool    // topic label is a short ambiguous acronym
	Context    string  // semantic expansion used instead of an acronym label
}

// RankingWeights are the linear coefficients of the composite score.
// They are not required to sum to 1; callers supplying weights that do not
// sum to 1 get a composite score scaled accordingly.
type RankingWeights struct {
	Relevance  float64
	Popularity float64
	Recency    float64
}

// DefaultRankingWeights returns the weights used when a feed specifies none.
func DefaultRankingWeights() RankingWeights {
	return RankingWeights{Relevance: 0.5, Popularity: 0.3, Recency: 0.2}
}

// FeedConfig is the immutable blueprint of one feed: its identity, sources
// and ranking weights. The engine only reads it; mutation happens in the
// record-storage layer that owns feed records.
type FeedConfig struct {
	OwnerDID string
	FeedID   string
	Sources  []FeedSource
	Weights  RankingWeights

	// AccessToken is the bearer credential used for authenticated search
	// calls. May be empty, in which case search sources are skipped.
	AccessToken string
}

// Key returns the cache coordination key for this feed.
func (c *FeedConfig) Key() string {
	return c.OwnerDID + "/" + c.FeedID
}

// EngagementCounts holds the interaction counters of a content item.
type EngagementCounts struct {
	Likes   int
	Replies int
	Reposts int
	Quotes  int
}

// Weighted returns the engagement total with replies and quotes counted
// double and reposts triple.
func (e EngagementCounts) Weighted() int {
	return e.Likes + 2*e.Replies + 3*e.Reposts + 2*e.Quotes
}

// MatchMode records which search mode produced a candidate.
type MatchMode string

const (
	MatchText   MatchMode = "text"
	MatchVector MatchMode = "vector"
	MatchAuthor MatchMode = "author"
)

// Candidate is a content item under consideration for one feed build.
// It exists only within a single build.
type Candidate struct {
	ItemID      ItemID
	AuthorID    AuthorID
	Text        string
	CreatedAt   time.Time
	Engagement  EngagementCounts
	SourceLabel string // identifier of the source that retrieved it
	MatchedBy   MatchMode
}

// ScoredItem is a candidate with its per-dimension and composite scores.
type ScoredItem struct {
	Candidate
	Relevance  float64
	Popularity float64
	Recency    float64
	Score      float64
}

// CacheEntry is one built feed result as persisted in the cache store.
// It is created or overwritten only on a successful rebuild.
type CacheEntry struct {
	Skeleton      []ItemID
	BuiltAt       time.Time
	BlueprintHash string
	OldestItem    time.Time // zero when the skeleton is empty
}
