package feed

import "time"

// Tunables of the build pipeline, all with defaults.
const (
	// DefaultStaleThreshold is how old a cache entry may be before a
	// request triggers a background refresh.
	DefaultStaleThreshold = 5 * time.Minute

	// DefaultMaxItemAge is how old the oldest skeleton item may be
	// before the whole entry is invalid.
	DefaultMaxItemAge = 48 * time.Hour

	// DefaultResponseLimit is the page size when the caller names none,
	// and the per-call limit for upstream searches.
	DefaultResponseLimit = 10

	// DefaultFeedLimit caps the skeleton length.
	DefaultFeedLimit = 100

	// DefaultMaxPerAuthor caps how many items one author may contribute.
	DefaultMaxPerAuthor = 10

	// DefaultSearchCacheTTL is how long upstream search results are
	// memoized between builds.
	DefaultSearchCacheTTL = 30 * time.Second

	// DefaultConcurrency bounds simultaneous outbound calls across
	// search and enrichment combined.
	DefaultConcurrency = 10
)

// Config collects the recognized tunables.
type Config struct {
	StaleThreshold time.Duration
	MaxItemAge     time.Duration
	ResponseLimit  int
	FeedLimit      int
	MaxPerAuthor   int
	SearchCacheTTL time.Duration
	Concurrency    int
}

// DefaultConfig returns the default tunables.
func DefaultConfig() Config {
	return Config{
		StaleThreshold: DefaultStaleThreshold,
		MaxItemAge:     DefaultMaxItemAge,
		ResponseLimit:  DefaultResponseLimit,
		FeedLimit:      DefaultFeedLimit,
		MaxPerAuthor:   DefaultMaxPerAuthor,
		SearchCacheTTL: DefaultSearchCacheTTL,
		Concurrency:    DefaultConcurrency,
	}
}

// TargetCollected is how many unique candidates a build gathers before the
// per-author cap thins them out. The surplus keeps diversity filtering from
// starving the feed below FeedLimit.
func (c Config) TargetCollected() int {
	factor := 2
	if c.MaxPerAuthor > 0 && 10/c.MaxPerAuthor > factor {
		factor = 10 / c.MaxPerAuthor
	}
	return c.FeedLimit * factor
}
