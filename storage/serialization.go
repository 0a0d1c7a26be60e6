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


package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/papillon-fyi/feedgen/core"
)

// MarshalCacheEntry serializes a CacheEntry to MUS-encoded bytes.
// Layout: skeleton length, skeleton item ids, built-at micros, oldest-item
// micros (0 for an empty skeleton), blueprint hash.
func MarshalCacheEntry(entry *core.CacheEntry) []byte {
	size := varint.PositiveInt.Size(len(entry.Skeleton))
	for _, id := range entry.Skeleton {
		size += ord.String.Size(string(id))
	}
	size += varint.Int64.Size(entry.BuiltAt.UnixMicro())
	size += varint.Int64.Size(oldestMicros(entry))
	size += ord.String.Size(entry.BlueprintHash)

	buf := make([]byte, size)
	n := varint.PositiveInt.Marshal(len(entry.Skeleton), buf)
	for _, id := range entry.Skeleton {
		n += ord.String.Marshal(string(id), buf[n:])
	}
	n += varint.Int64.Marshal(entry.BuiltAt.UnixMicro(), buf[n:])
	n += varint.Int64.Marshal(oldestMicros(entry), buf[n:])
	ord.String.Marshal(entry.BlueprintHash, buf[n:])
	return buf
}

// UnmarshalCacheEntry deserializes a CacheEntry from MUS-encoded bytes.
func UnmarshalCacheEntry(data []byte) (*core.CacheEntry, error) {
	count, n, err := varint.PositiveInt.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: skeleton length: %w", ErrSerializationFailed, err)
	}

	// Each encoded item takes at least one byte, so a count beyond the
	// remaining payload is corrupt. Reject it before sizing the slice.
	if count > len(data)-n {
		return nil, fmt.Errorf("%w: skeleton length %d exceeds payload", ErrSerializationFailed, count)
	}

	entry := &core.CacheEntry{Skeleton: make([]core.ItemID, 0, count)}
	for i := 0; i < count; i++ {
		id, n1, err := ord.String.Unmarshal(data[n:])
		if err != nil {
			return nil, fmt.Errorf("%w: skeleton item %d: %w", ErrSerializationFailed, i, err)
		}
		n += n1
		entry.Skeleton = append(entry.Skeleton, core.ItemID(id))
	}

	builtAt, n1, err := varint.Int64.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: built-at: %w", ErrSerializationFailed, err)
	}
	n += n1
	entry.BuiltAt = time.UnixMicro(builtAt).UTC()

	oldest, n1, err := varint.Int64.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: oldest-item: %w", ErrSerializationFailed, err)
	}
	n += n1
	if oldest != 0 {
		entry.OldestItem = time.UnixMicro(oldest).UTC()
	}

	hash, _, err := ord.String.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: blueprint hash: %w", ErrSerializationFailed, err)
	}
	entry.BlueprintHash = hash

	return entry, nil
}

func oldestMicros(entry *core.CacheEntry) int64 {
	if entry.OldestItem.IsZero() {
		return 0
	}
	return entry.OldestItem.UnixMicro()
}
