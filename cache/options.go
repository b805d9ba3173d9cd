package cache

// LRUCacheOptions configures NewLRUCacheWithOptions and
// NewDiagnosableLRUCache — the record form of the Factory surface
// described in spec.md §6, with TopK added for the diagnostic variant.
type LRUCacheOptions struct {
	// Capacity is the soft (or strict) byte-size cap across all shards.
	Capacity uint64

	// NumShardBits sets the shard count to 2^NumShardBits. A negative
	// value selects a size-derived default (see internal/util.DefaultShardBits);
	// a value >= util.MaxShardBits is rejected.
	NumShardBits int

	// StrictCapacityLimit, if true, makes Insert calls that request a
	// pinned handle back fail with ErrIncomplete rather than
	// transiently exceed capacity.
	StrictCapacityLimit bool

	// HighPriPoolRatio is the fraction of each shard's capacity
	// reserved for the high-priority pool; must be in [0, 1].
	HighPriPoolRatio float64

	// MemoryAllocator is passed through to entries' Deleter closures;
	// the cache itself never calls it. May be nil.
	MemoryAllocator MemoryAllocator

	// Metrics receives per-shard observability events. Defaults to
	// NoopMetrics when nil.
	Metrics Metrics

	// TopK sizes the diagnostic largest-entry report used only by
	// NewDiagnosableLRUCache. Zero selects a small default.
	TopK int
}

const defaultTopK = 16
