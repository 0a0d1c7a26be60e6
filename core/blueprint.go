package core

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// BlueprintHash computes a stable hash over a feed's sources and ranking
// weights. It detects configuration drift between a cached result and the
// configuration that would be used for a rebuild.
//
// The hash is a pure function of the blueprint and does not depend on source
// ordering: sources are normalized into a canonical order before hashing.
func (c *FeedConfig) BlueprintHash() string {
	sources := slices.Clone(c.Sources)
	slices.SortFunc(sources, compareSources)

	hasher := xxhash.New()
	for _, src := range sources {
		_, _ = hasher.WriteString(string(src.Kind))
		_, _ = hasher.Write([]byte{0})
		_, _ = hasher.WriteString(src.Identifier)
		_, _ = hasher.Write([]byte{0})
		_, _ = hasher.WriteString(formatWeight(src.Weight))
		_, _ = hasher.Write([]byte{0})
		_, _ = hasher.WriteString(strconv.FormatBool(src.IsAcronym))
		_, _ = hasher.Write([]byte{0})
		_, _ = hasher.WriteString(src.Context)
		_, _ = hasher.Write([]byte{0})
	}
	_, _ = hasher.Write([]byte{0}) // Section separator

	_, _ = hasher.WriteString(formatWeight(c.Weights.Relevance))
	_, _ = hasher.Write([]byte{0})
	_, _ = hasher.WriteString(formatWeight(c.Weights.Popularity))
	_, _ = hasher.Write([]byte{0})
	_, _ = hasher.WriteString(formatWeight(c.Weights.Recency))

	return fmt.Sprintf("%016x", hasher.Sum64())
}

// compareSources orders sources canonically by kind, identifier, weight,
// acronym flag and context.
func compareSources(a, b FeedSource) int {
	if cmp := strings.Compare(string(a.Kind), string(b.Kind)); cmp != 0 {
		return cmp
	}
	if cmp := strings.Compare(a.Identifier, b.Identifier); cmp != 0 {
		return cmp
	}
	if a.Weight != b.Weight {
		if a.Weight < b.Weight {
			return -1
		}
		return 1
	}
	if a.IsAcronym != b.IsAcronym {
		if !a.IsAcronym {
			return -1
		}
		return 1
	}
	return strings.Compare(a.Context, b.Context)
}

// formatWeight renders a weight with a fixed representation so the hash is
// stable across runs and platforms.
func formatWeight(w float64) string {
	return strconv.FormatFloat(w, 'g', -1, 64)
}
