package feed

import (
	"slices"
	"strings"
	"time"

	"github.com/papillon-fyi/feedgen/core"
)

// Assembler turns scored candidates into an ordered skeleton: filter,
// deduplicate, cap per author, sort, truncate.
type Assembler struct {
	feedLimit    int
	maxPerAuthor int
	maxItemAge   time.Duration
	now          func() time.Time
}

// NewAssembler creates an assembler from the build tunables.
func NewAssembler(cfg Config) *Assembler {
	return &Assembler{
		feedLimit:    cfg.FeedLimit,
		maxPerAuthor: cfg.MaxPerAuthor,
		maxItemAge:   cfg.MaxItemAge,
		now:          time.Now,
	}
}

// Assemble produces the ordered skeleton for one build, at most FeedLimit
// item ids long.
func (a *Assembler) Assemble(scored []core.ScoredItem, cfg *core.FeedConfig) []core.ItemID {
	kept := a.filter(scored, cfg)
	kept = dedupe(kept)
	sortByScore(kept)
	kept = a.capAuthors(kept)

	if len(kept) > a.feedLimit {
		kept = kept[:a.feedLimit]
	}

	skeleton := make([]core.ItemID, 0, len(kept))
	for _, item := range kept {
		skeleton = append(skeleton, item.ItemID)
	}
	return skeleton
}

// filter drops items hit by an exclusion rule or older than the max age.
// Topic filters match case-insensitively anywhere in the text.
func (a *Assembler) filter(scored []core.ScoredItem, cfg *core.FeedConfig) []core.ScoredItem {
	cutoff := a.now().Add(-a.maxItemAge)

	kept := make([]core.ScoredItem, 0, len(scored))
	for _, item := range scored {
		if item.CreatedAt.Before(cutoff) {
			continue
		}
		if excluded(item, cfg) {
			continue
		}
		kept = append(kept, item)
	}
	return kept
}

func excluded(item core.ScoredItem, cfg *core.FeedConfig) bool {
	text := strings.ToLower(item.Text)
	for _, source := range cfg.Sources {
		switch source.Kind {
		case core.SourceTopicFilter:
			if strings.Contains(text, strings.ToLower(source.Identifier)) {
				return true
			}
		case core.SourceProfileFilter:
			if core.AuthorID(source.Identifier) == item.AuthorID {
				return true
			}
		}
	}
	return false
}

// dedupe collapses items sharing an id, keeping the highest-scored
// instance. The same item routinely arrives via both keyword and semantic
// search, or from two overlapping sources.
func dedupe(scored []core.ScoredItem) []core.ScoredItem {
	best := make(map[core.ItemID]core.ScoredItem, len(scored))
	order := make([]core.ItemID, 0, len(scored))
	for _, item := range scored {
		existing, seen := best[item.ItemID]
		if !seen {
			order = append(order, item.ItemID)
			best[item.ItemID] = item
			continue
		}
		if item.Score > existing.Score {
			best[item.ItemID] = item
		}
	}

	unique := make([]core.ScoredItem, 0, len(order))
	for _, id := range order {
		unique = append(unique, best[id])
	}
	return unique
}

// sortByScore orders by composite score descending; ties go to the more
// recent item, then to the lexically smaller id so output is deterministic.
func sortByScore(scored []core.ScoredItem) {
	slices.SortFunc(scored, func(a, b core.ScoredItem) int {
		if a.Score != b.Score {
			if a.Score > b.Score {
				return -1
			}
			return 1
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if a.CreatedAt.After(b.CreatedAt) {
				return -1
			}
			return 1
		}
		return strings.Compare(string(a.ItemID), string(b.ItemID))
	})
}

// capAuthors walks the sorted items and skips anything past an author's
// quota. A prolific author's eleventh item loses to a lower-scored item
// from someone else; the feed trades score optimality for diversity.
func (a *Assembler) capAuthors(scored []core.ScoredItem) []core.ScoredItem {
	perAuthor := make(map[core.AuthorID]int)
	kept := make([]core.ScoredItem, 0, len(scored))
	for _, item := range scored {
		if a.maxPerAuthor > 0 && perAuthor[item.AuthorID] >= a.maxPerAuthor {
			continue
		}
		perAuthor[item.AuthorID]++
		kept = append(kept, item)
	}
	return kept
}
