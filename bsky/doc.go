// Package bsky is the HTTP adapter for the external content API.
//
// It exposes the three read operations the feed engine needs: keyword
// search (authenticated with a per-feed bearer token), author timelines,
// and batched item detail lookups. Requests are rate limited and retried
// with exponential backoff; response decoding drops malformed posts rather
// than failing a call.
package bsky
