package cache

import (
	"strconv"
	"strings"

	"github.com/shardlru/blockcache/monitor"
)

// ShardedCache fans a logical cache out across 2^numShardBits
// independent shards, selected by the high bits of the caller-supplied
// hash (spec.md §4.1). M is the Monitor type every shard is
// instantiated with; NewLRUCache and NewLRUCacheWithOptions return one
// with M = monitor.Noop, and NewDiagnosableLRUCache returns one with
// M = *monitor.TopK.
type ShardedCache[M monitor.Monitor] struct {
	shards       []*shard[M]
	numShardBits int
	name         string
}

var _ Cache = (*ShardedCache[monitor.Noop])(nil)
var _ Cache = (*ShardedCache[*monitor.TopK])(nil)

func newShardedCache[M monitor.Monitor](opts LRUCacheOptions, numShardBits int, name string, newMonitor func() M) *ShardedCache[M] {
	numShards := 1 << numShardBits
	metrics := opts.Metrics
	if metrics == nil {
		metrics = NoopMetrics{}
	}

	perShard := ceilDiv(opts.Capacity, uint64(numShards))
	shards := make([]*shard[M], numShards)
	for i := range shards {
		shards[i] = newShard(perShard, opts.StrictCapacityLimit, opts.HighPriPoolRatio, newMonitor(), metrics, i)
	}

	return &ShardedCache[M]{
		shards:       shards,
		numShardBits: numShardBits,
		name:         name,
	}
}

func ceilDiv(n, d uint64) uint64 {
	if d == 0 {
		return 0
	}
	return (n + d - 1) / d
}

// shardFor selects the shard owning hash, using its high bits so that
// the low bits (which the handleTable uses for bucket selection) stay
// independent of shard assignment.
func (c *ShardedCache[M]) shardFor(hash uint32) *shard[M] {
	if c.numShardBits == 0 {
		return c.shards[0]
	}
	return c.shards[hash>>(32-uint(c.numShardBits))]
}

func (c *ShardedCache[M]) Insert(key []byte, hash uint32, value any, charge uint64, deleter Deleter, handleOut **Handle, priority Priority) error {
	return c.shardFor(hash).Insert(key, hash, value, charge, deleter, handleOut, priority)
}

func (c *ShardedCache[M]) Lookup(key []byte, hash uint32) *Handle {
	return c.shardFor(hash).Lookup(key, hash)
}

func (c *ShardedCache[M]) Ref(h *Handle) bool {
	return c.shardFor(h.hash).Ref(h)
}

func (c *ShardedCache[M]) Release(h *Handle, forceErase bool) bool {
	if h == nil {
		return false
	}
	return c.shardFor(h.hash).Release(h, forceErase)
}

func (c *ShardedCache[M]) Erase(key []byte, hash uint32) {
	c.shardFor(hash).Erase(key, hash)
}

func (c *ShardedCache[M]) Value(h *Handle) any        { return h.Value() }
func (c *ShardedCache[M]) GetCharge(h *Handle) uint64 { return h.Charge() }
func (c *ShardedCache[M]) GetHash(h *Handle) uint32   { return h.Hash() }

func (c *ShardedCache[M]) SetCapacity(capacity uint64) {
	perShard := ceilDiv(capacity, uint64(len(c.shards)))
	for _, s := range c.shards {
		s.SetCapacity(perShard)
	}
}

func (c *ShardedCache[M]) SetStrictCapacityLimit(strict bool) {
	for _, s := range c.shards {
		s.SetStrictCapacityLimit(strict)
	}
}

func (c *ShardedCache[M]) SetHighPriorityPoolRatio(ratio float64) {
	for _, s := range c.shards {
		s.SetHighPriorityPoolRatio(ratio)
	}
}

// HighPriorityPoolRatio returns the ratio as configured on shard 0
// (every shard is kept in lockstep by SetHighPriorityPoolRatio).
func (c *ShardedCache[M]) HighPriorityPoolRatio() float64 {
	return c.shards[0].HighPriorityPoolRatio()
}

func (c *ShardedCache[M]) GetUsage() uint64 {
	var total uint64
	for _, s := range c.shards {
		total += s.GetUsage()
	}
	return total
}

func (c *ShardedCache[M]) GetPinnedUsage() uint64 {
	var total uint64
	for _, s := range c.shards {
		total += s.GetPinnedUsage()
	}
	return total
}

func (c *ShardedCache[M]) ApplyToAllCacheEntries(fn func(value any, charge uint64), threadSafe bool) {
	for _, s := range c.shards {
		s.ApplyToAllCacheEntries(fn, threadSafe)
	}
}

// DisownData drops the shard array without erasing its entries. Go's
// GC reclaims the abandoned shards (and runs no Deleter for any of
// them) once nothing else references this ShardedCache; kept for
// interface parity with the original's fast-exit path, which skips
// teardown outright rather than pay to erase a cache about to vanish.
func (c *ShardedCache[M]) DisownData() {
	c.shards = nil
}

func (c *ShardedCache[M]) Name() string { return c.name }

func (c *ShardedCache[M]) ReportUsage() {
	for _, s := range c.shards {
		s.reportUsage()
	}
}

func (c *ShardedCache[M]) Stats() (hits, misses int64, evicts uint64) {
	for _, s := range c.shards {
		sh, sm, se := s.Stats()
		hits += sh
		misses += sm
		evicts += se
	}
	return hits, misses, evicts
}

func (c *ShardedCache[M]) DumpStatistics() string {
	var b strings.Builder
	for i, s := range c.shards {
		line := s.report()
		if line == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("shard ")
		b.WriteString(strconv.Itoa(i))
		b.WriteString(": ")
		b.WriteString(line)
	}
	return b.String()
}
