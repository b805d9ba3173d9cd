// Package util contains internal helpers (hashing, sharding, padding).
package util

import (
	"github.com/cespare/xxhash/v2"
	"github.com/spaolacci/murmur3"
)

// HashKey returns a 32-bit xxhash of key, for callers that need to
// produce the precomputed hash the cache's Insert/Lookup require but
// don't already have one lying around (e.g. from an on-disk index).
// The cache itself never calls this — hashing is always the caller's
// responsibility, per spec.
func HashKey(key []byte) uint32 {
	return uint32(xxhash.Sum64(key))
}

// HashKeyMurmur3 is an alternate 32-bit hash for callers whose on-disk
// block index already stores Murmur-hashed handles (common in
// RocksDB-family engines).
func HashKeyMurmur3(key []byte) uint32 {
	return murmur3.Sum32(key)
}
