// Copyright ©2020 Dan Kortschak. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package family

import (
	"bytes"
	"encoding/binary"
	"sort"

	"modernc.org/kv"
)

// Cache is the optional global distance/bootstrap cache a ClusterSet may
// be configured with (spec.md §3). A nil Cache disables caching; callers
// always recompute in that case.
type Cache interface {
	Get(key []byte) (value []byte, ok bool, err error)
	Set(key, value []byte) error
	Close() error
}

// KVCache is a Cache backed by an ordered modernc.org/kv store, the same
// on-disk key-value engine kortschak-ins uses for its forward.db and
// regions.db blast-hit caches.
type KVCache struct {
	db *kv.DB
}

// OpenKVCache opens (or creates) an ordered kv store at path for use as a
// distance or bootstrap cache.
func OpenKVCache(path string) (*KVCache, error) {
	db, err := kv.Open(path, &kv.Options{})
	if err != nil {
		db, err = kv.Create(path, &kv.Options{})
		if err != nil {
			return nil, err
		}
	}
	return &KVCache{db: db}, nil
}

func (c *KVCache) Get(key []byte) ([]byte, bool, error) {
	v, err := c.db.Get(nil, key)
	if err != nil {
		return nil, false, err
	}
	return v, v != nil, nil
}

func (c *KVCache) Set(key, value []byte) error {
	return c.db.Set(key, value)
}

func (c *KVCache) Close() error { return c.db.Close() }

var order = binary.BigEndian

// CacheKey encodes a family id together with the sorted member ids
// contributing to the cached artifact, following the length-prefixed
// field encoding internal/store uses for its blast-record keys: every
// variable-length field is preceded by its byte length so the encoding
// is unambiguous and directly usable as an ordered kv key.
func CacheKey(familyID string, memberIDs []string) []byte {
	ids := make([]string, len(memberIDs))
	copy(ids, memberIDs)
	sort.Strings(ids)

	var buf bytes.Buffer
	var b [8]byte
	order.PutUint64(b[:], uint64(len(familyID)))
	buf.Write(b[:])
	buf.WriteString(familyID)
	order.PutUint64(b[:], uint64(len(ids)))
	buf.Write(b[:])
	for _, id := range ids {
		order.PutUint64(b[:], uint64(len(id)))
		buf.Write(b[:])
		buf.WriteString(id)
	}
	return buf.Bytes()
}
