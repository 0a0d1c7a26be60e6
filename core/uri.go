package core

import (
	"fmt"
	"strings"
)

const feedGeneratorCollection = "app.bsky.feed.generator"

// FeedURI renders the canonical at:// URI of a feed generator record.
func (c *FeedConfig) FeedURI() string {
	return fmt.Sprintf("at://%s/%s/%s", c.OwnerDID, feedGeneratorCollection, c.FeedID)
}

// ParseFeedURI extracts the owner DID and feed id from a feed generator URI.
// Example: at://did:plc:abc123/app.bsky.feed.generator/my-feed ->
// (did:plc:abc123, my-feed).
func ParseFeedURI(uri string) (ownerDID, feedID string, err error) {
	trimmed := strings.TrimPrefix(uri, "at://")
	parts := strings.Split(trimmed, "/")
	if len(parts) < 3 || parts[0] == "" || parts[len(parts)-1] == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidFeedURI, uri)
	}
	return parts[0], parts[len(parts)-1], nil
}
