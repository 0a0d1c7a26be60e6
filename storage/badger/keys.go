package badger

import "fmt"

// Key prefixes for different data types
const (
	feedCachePrefix = "fdcache"
)

// makeFeedCacheKey generates a key for a feed's cache entry.
// Format: prefix:ownerDID/feedID
func makeFeedCacheKey(ownerDID, feedID string) []byte {
	return []byte(fmt.Sprintf("%s:%s/%s", feedCachePrefix, ownerDID, feedID))
}
