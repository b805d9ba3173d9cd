// Package cache implements a sharded, reference-counted LRU cache for
// caching opaque values under a caller-supplied key and 32-bit hash —
// the storage-engine block/table cache role RocksDB and TerarkDB fill
// with their LRUCache.
//
// # Design
//
//   - Each of a cache's 2^num_shard_bits shards owns an independent
//     mutex, hash table, and intrusive LRU list; the shard for a given
//     hash is chosen from its high bits, keeping shard assignment
//     independent of the hash table's own (low-bit) bucket selection.
//   - A resident entry is reference-counted: the cache itself holds one
//     logical reference while in_cache is set, and Lookup/Ref/a pinned
//     Insert each add one more. An entry sits on the LRU list only
//     while the cache holds its sole reference; a pinned Insert or a
//     Lookup unlinks it, and Release relinks it (or evicts it) once the
//     external reference count returns to zero.
//   - Entries split into a high-priority pool and a low-priority pool
//     via a single movable pivot on the LRU list rather than two
//     separate lists, so eviction pressure only ever touches the tail.
//   - Allocation and Deleter invocation always happen outside the owning
//     shard's mutex (a new handle is allocated before it is taken, and
//     Deleters run after it is released) — the "critical section" only
//     performs pointer bookkeeping, so a slow deleter never blocks
//     unrelated lookups on the same shard.
//   - An optional Monitor observes handle lifecycle events (see
//     package monitor) without ever influencing eviction; it is bound
//     at compile time as a generic type parameter so the default no-op
//     monitor costs nothing on the hot path.
//
// # Basic usage
//
//	c, err := cache.NewLRUCache(64 << 20) // 64MiB
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	hash := util.HashKey(key)
//	c.Insert(key, hash, value, uint64(len(value)), nil, nil, cache.Low)
//
//	if h := c.Lookup(key, hash); h != nil {
//		v := c.Value(h)
//		_ = v
//		c.Release(h, false)
//	}
//
// # Pinned handles
//
// Passing a non-nil handleOut to Insert returns a Handle the caller
// must Release exactly once, in exchange for a guarantee that the
// entry survives (barring an explicit Erase or a duplicate Insert for
// the same key) until then:
//
//	var h *cache.Handle
//	if err := c.Insert(key, hash, value, charge, deleter, &h, cache.High); err != nil {
//		// strict_capacity_limit rejected the insert; caller still owns value.
//	}
//	defer c.Release(h, false)
//
// # Diagnostics
//
// NewDiagnosableLRUCache builds a cache whose per-shard Monitor tracks
// the largest resident entries, surfaced through DumpStatistics:
//
//	c, _ := cache.NewDiagnosableLRUCache(cache.LRUCacheOptions{
//		Capacity: 64 << 20,
//		TopK:     32,
//	})
//	fmt.Println(c.DumpStatistics())
//
// Build with -tags nodiagnose to compile the tracking out entirely.
package cache
