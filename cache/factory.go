package cache

import (
	"github.com/shardlru/blockcache/internal/util"
	"github.com/shardlru/blockcache/monitor"
)

// DefaultHighPriPoolRatio is used by NewLRUCache, splitting each
// shard's capacity evenly between the high and low priority pools.
const DefaultHighPriPoolRatio = 0.5

// NewLRUCache builds a sharded LRU cache of the given total capacity,
// using a size-derived shard count (internal/util.DefaultShardBits),
// strict_capacity_limit off, and DefaultHighPriPoolRatio.
func NewLRUCache(capacity uint64) (Cache, error) {
	return NewLRUCacheWithOptions(LRUCacheOptions{
		Capacity:         capacity,
		NumShardBits:     -1,
		HighPriPoolRatio: DefaultHighPriPoolRatio,
	})
}

// NewLRUCacheWithOptions builds a sharded LRU cache per opts. A
// negative NumShardBits selects util.DefaultShardBits(opts.Capacity);
// NumShardBits >= util.MaxShardBits or a HighPriPoolRatio outside
// [0, 1] is rejected with ErrInvalidOptions.
func NewLRUCacheWithOptions(opts LRUCacheOptions) (Cache, error) {
	numShardBits, err := resolveShardBits(opts)
	if err != nil {
		return nil, err
	}
	return newShardedCache[monitor.Noop](opts, numShardBits, "LRUCache", newNoopMonitor), nil
}

func newNoopMonitor() monitor.Noop { return monitor.Noop{} }

func resolveShardBits(opts LRUCacheOptions) (int, error) {
	numShardBits := opts.NumShardBits
	if numShardBits < 0 {
		numShardBits = util.DefaultShardBits(opts.Capacity)
	}
	if numShardBits >= util.MaxShardBits {
		return 0, ErrInvalidOptions
	}
	if opts.HighPriPoolRatio < 0 || opts.HighPriPoolRatio > 1 {
		return 0, ErrInvalidOptions
	}
	return numShardBits, nil
}
