package cache

import "errors"

// ErrIncomplete is returned by Insert when the caller requested a
// pinned handle back, strict_capacity_limit is enabled, and eviction
// could not free enough space. No state change occurs; *handle is nil.
var ErrIncomplete = errors.New("cache: insert incomplete, capacity exceeded under strict limit")

// ErrInvalidOptions is returned by the fallible constructors
// (NewLRUCache, NewLRUCacheWithOptions, NewDiagnosableLRUCache) when
// num_shard_bits or high_pri_pool_ratio are out of range. The original
// C++ factory returns a null shared_ptr<Cache> for this condition
// (NullFactoryResult); Go's idiom is a (nil, error) return instead.
var ErrInvalidOptions = errors.New("cache: invalid options (num_shard_bits >= 20 or high_pri_pool_ratio outside [0,1])")
