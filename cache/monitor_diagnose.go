//go:build !nodiagnose

package cache

import "github.com/shardlru/blockcache/monitor"

// NewDiagnosableLRUCache builds a sharded LRU cache identical to
// NewLRUCacheWithOptions but with each shard's Monitor set to a TopK
// largest-entries tracker (sized opts.TopK, or defaultTopK), surfaced
// through DumpStatistics. Build with -tags nodiagnose to compile this
// variant out entirely — the Go equivalent of the original's #ifdef
// WITH_DIAGNOSE_CACHE — in which case this falls back to a plain
// LRUCache (see monitor_diagnose_off.go).
func NewDiagnosableLRUCache(opts LRUCacheOptions) (Cache, error) {
	numShardBits, err := resolveShardBits(opts)
	if err != nil {
		return nil, err
	}
	topK := opts.TopK
	if topK <= 0 {
		topK = defaultTopK
	}
	return newShardedCache[*monitor.TopK](opts, numShardBits, "DiagnosableLRUCache", func() *monitor.TopK {
		return monitor.NewTopK(topK)
	}), nil
}
