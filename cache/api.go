package cache

// Cache is the per-entry boundary the surrounding storage engine
// expects (spec.md §6). A Cache is a sharded, reference-counted LRU
// keyed by an opaque byte string plus a caller-supplied 32-bit hash.
//
// All methods are safe for concurrent use by multiple goroutines;
// operations on different keys never block each other beyond sharing a
// shard's mutex (spec.md §5).
type Cache interface {
	// Insert adds key->value with the given charge and priority. If
	// handleOut is non-nil, *handleOut receives a pinned Handle the
	// caller must eventually Release; otherwise the new entry is placed
	// directly on the LRU, unpinned. Returns ErrIncomplete if a pinned
	// insert could not be admitted under strict_capacity_limit.
	Insert(key []byte, hash uint32, value any, charge uint64, deleter Deleter, handleOut **Handle, priority Priority) error

	// Lookup returns the resident handle for (key, hash), pinning it,
	// or nil on a miss. A hit sets the handle's has-hit bit, biasing
	// its next LRU_Insert toward the high-priority pool.
	Lookup(key []byte, hash uint32) *Handle

	// Ref adds a reference to an already-known-valid handle (one the
	// caller still holds a reference to from Insert, Lookup or Ref).
	Ref(h *Handle) bool

	// Release drops a reference obtained from Insert/Lookup/Ref. If
	// forceErase is true and this was the entry's last external
	// reference, the entry is erased rather than placed on the LRU.
	// Returns true iff this call observed the last reference (in which
	// case the Deleter has already run).
	Release(h *Handle, forceErase bool) bool

	// Erase removes (key, hash) from the cache if present. The entry's
	// storage is freed once the last reference (possibly held by a
	// caller) is released.
	Erase(key []byte, hash uint32)

	// Value returns h's opaque value.
	Value(h *Handle) any
	// GetCharge returns h's charge.
	GetCharge(h *Handle) uint64
	// GetHash returns h's hash.
	GetHash(h *Handle) uint32

	// SetCapacity changes the total byte-size cap, evicting as needed.
	SetCapacity(capacity uint64)
	// SetStrictCapacityLimit toggles strict_capacity_limit.
	SetStrictCapacityLimit(strict bool)
	// SetHighPriorityPoolRatio changes the high-priority pool fraction,
	// promoting/demoting entries by shifting each shard's pivot only.
	SetHighPriorityPoolRatio(ratio float64)

	// GetUsage returns the sum of charges resident across all shards.
	GetUsage() uint64
	// GetPinnedUsage returns the sum of charges currently pinned
	// (usage - lru_usage) across all shards.
	GetPinnedUsage() uint64

	// ApplyToAllCacheEntries visits every resident entry exactly once.
	// threadSafe selects whether each shard is locked during its visit.
	ApplyToAllCacheEntries(fn func(value any, charge uint64), threadSafe bool)

	// DisownData drops the shard array without destroying entries, for
	// fast process exit. Go's GC makes this largely moot compared to
	// the original's ASAN-aware leak suppression, but the operation is
	// kept for interface parity.
	DisownData()

	// Name identifies the cache implementation ("LRUCache" or
	// "DiagnosableLRUCache").
	Name() string

	// DumpStatistics renders a short per-shard diagnostic report: each
	// shard's hit/miss/eviction counts followed by its monitor's report.
	// The Noop monitor adds nothing after the counts.
	DumpStatistics() string

	// ReportUsage pushes a Metrics.Usage snapshot for every shard. Not
	// called internally on any hot path; a caller wires it to a ticker
	// or a Prometheus collector's Collect method.
	ReportUsage()

	// Stats returns lifetime hit/miss/eviction counts aggregated across
	// all shards. Backed by per-shard padded atomics so it never
	// contends with a shard's mutex.
	Stats() (hits, misses int64, evicts uint64)
}
