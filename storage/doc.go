// Package storage defines the cache store contract of the feed engine and
// the binary serialization of cache entries.
//
// Two implementations exist: storage/api talks to the remote feeds API that
// owns feed records in production, and storage/badger keeps entries in a
// local BadgerDB (including a pure in-memory mode used as the test fake).
package storage
