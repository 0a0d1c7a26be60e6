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


// Package badger implements storage.CacheStore on BadgerDB, for
// standalone deployments and tests that want a real store without a
// feeds API.
package badger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/papillon-fyi/feedgen/core"
	"github.com/papillon-fyi/feedgen/storage"
)

// CacheStore implements storage.CacheStore for BadgerDB.
type CacheStore struct {
	backend *Backend
}

var _ storage.CacheStore = (*CacheStore)(nil)

// NewCacheStore creates a new CacheStore on an open backend.
func NewCacheStore(backend *Backend) (*CacheStore, error) {
	return &CacheStore{
		backend: backend,
	}, nil
}

// GetCacheEntry retrieves the cache entry for a feed, or storage.ErrNotFound.
func (s *CacheStore) GetCacheEntry(ctx context.Context, ownerDID, feedID string) (*core.CacheEntry, error) {
	if s.backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}

	var entry *core.CacheEntry
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeFeedCacheKey(ownerDID, feedID))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			entry, err = storage.UnmarshalCacheEntry(val)
			return err
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// PutCacheEntry stores the cache entry for a feed, replacing any previous one.
func (s *CacheStore) PutCacheEntry(ctx context.Context, ownerDID, feedID string, entry *core.CacheEntry) error {
	if s.backend.IsClosed() {
		return storage.ErrStorageClosed
	}

	value := storage.MarshalCacheEntry(entry)

	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeFeedCacheKey(ownerDID, feedID), value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Close releases resources. CacheStore has no resources of its own;
// the caller owns the backend.
func (s *CacheStore) Close() error {
	return nil
}
