package bsky

import (
	"time"

	"github.com/papillon-fyi/feedgen/core"
)

// RawItem is one content item as returned by the content API, carrying just
// the fields the feed engine consumes.
type RawItem struct {
	URI       core.ItemID
	AuthorDID core.AuthorID
	Text      string
	CreatedAt time.Time
	Likes     int
	Replies   int
	Reposts   int
	Quotes    int
}

// Engagement returns the item's interaction counters as a domain value.
func (r *RawItem) Engagement() core.EngagementCounts {
	return core.EngagementCounts{
		Likes:   r.Likes,
		Replies: r.Replies,
		Reposts: r.Reposts,
		Quotes:  r.Quotes,
	}
}

// Wire shapes of the app.bsky.feed responses.

type wireAuthor struct {
	DID    string `json:"did"`
	Handle string `json:"handle"`
}

type wireRecord struct {
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
}

type wirePost struct {
	URI         string     `json:"uri"`
	Author      wireAuthor `json:"author"`
	Record      wireRecord `json:"record"`
	LikeCount   int        `json:"likeCount"`
	ReplyCount  int        `json:"replyCount"`
	RepostCount int        `json:"repostCount"`
	QuoteCount  int        `json:"quoteCount"`
}

type wirePostList struct {
	Posts []wirePost `json:"posts"`
}

type wireFeedItem struct {
	Post wirePost `json:"post"`
}

type wireAuthorFeed struct {
	Feed []wireFeedItem `json:"feed"`
}

// toRawItem converts a wire post into a RawItem. Posts without a URI or an
// unparseable creation time yield ok == false and are skipped by callers.
func (p *wirePost) toRawItem() (RawItem, bool) {
	if p.URI == "" {
		return RawItem{}, false
	}

	createdAt, err := time.Parse(time.RFC3339, p.Record.CreatedAt)
	if err != nil {
		return RawItem{}, false
	}

	return RawItem{
		URI:       core.ItemID(p.URI),
		AuthorDID: core.AuthorID(p.Author.DID),
		Text:      p.Record.Text,
		CreatedAt: createdAt,
		Likes:     p.LikeCount,
		Replies:   p.ReplyCount,
		Reposts:   p.RepostCount,
		Quotes:    p.QuoteCount,
	}, true
}
