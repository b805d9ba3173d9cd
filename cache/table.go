package cache

import "github.com/shardlru/blockcache/internal/util"

// handleTable is a separate-chained hash table mapping (hash, key) to
// *Handle. Bucket count is always a power of two; the table grows (and
// never shrinks) so the average chain length stays close to one.
//
// Grounded directly on LRUHandleTable from the original C++ source:
// findPointer walks a bucket chain returning the address of the slot
// that holds (or would hold) the match, exactly like the original's
// LRUHandle**. Go doesn't need manual allocation here, but the
// double-pointer idiom is otherwise a direct translation and keeps
// Insert/Remove O(1) once the slot is found.
type handleTable struct {
	buckets []*Handle
	elems   int
}

const initialTableBuckets = 16

func newHandleTable() *handleTable {
	t := &handleTable{}
	t.resize()
	return t
}

// lookup returns the handle matching (key, hash), or nil.
func (t *handleTable) lookup(key []byte, hash uint32) *Handle {
	return *t.findPointer(key, hash)
}

// insert links h into its bucket chain, returning any handle it
// displaced (same hash and key): h takes the displaced handle's place
// in the chain, or is appended at the chain's end when there is none.
// Grows the table afterward
// if the chain-length invariant would otherwise be violated.
func (t *handleTable) insert(h *Handle) *Handle {
	ptr := t.findPointer(h.keyBytes, h.hash)
	old := *ptr
	if old != nil {
		h.nextHash = old.nextHash
	} else {
		h.nextHash = nil
	}
	*ptr = h
	if old == nil {
		t.elems++
		if t.elems > len(t.buckets) {
			t.resize()
		}
	}
	return old
}

// remove unlinks and returns the handle matching (key, hash), or nil.
func (t *handleTable) remove(key []byte, hash uint32) *Handle {
	ptr := t.findPointer(key, hash)
	result := *ptr
	if result != nil {
		*ptr = result.nextHash
		result.nextHash = nil
		t.elems--
	}
	return result
}

// findPointer returns the address of the bucket slot (or in-chain
// nextHash field) holding the handle matching (key, hash), or the
// address of the nil terminator if no such handle exists.
func (t *handleTable) findPointer(key []byte, hash uint32) **Handle {
	ptr := &t.buckets[hash&uint32(len(t.buckets)-1)]
	for *ptr != nil && !(*ptr).keyEquals(key, hash) {
		ptr = &(*ptr).nextHash
	}
	return ptr
}

// resize doubles the bucket count, starting from initialTableBuckets,
// until length >= ceil(1.5 * elems); it then relinks every handle into
// the new buckets. Order within a chain has no semantic meaning, so
// relinking may reverse it.
func (t *handleTable) resize() {
	// ceil(1.5 * elems), at least initialTableBuckets.
	target := uint64(t.elems) + (uint64(t.elems)+1)/2
	if target < initialTableBuckets {
		target = initialTableBuckets
	}
	newLength := util.NextPow2(target)
	newBuckets := make([]*Handle, newLength)
	for _, h := range t.buckets {
		for h != nil {
			next := h.nextHash
			idx := uint64(h.hash) & (newLength - 1)
			h.nextHash = newBuckets[idx]
			newBuckets[idx] = h
			h = next
		}
	}
	t.buckets = newBuckets
}

// applyToAll visits every entry in the table exactly once. The caller
// must ensure the table is not concurrently mutated (the shard either
// holds its mutex or, for the thread-unsafe variant of
// ApplyToAllCacheEntries, accepts that responsibility itself).
func (t *handleTable) applyToAll(fn func(h *Handle)) {
	for _, h := range t.buckets {
		for h != nil {
			next := h.nextHash
			fn(h)
			h = next
		}
	}
}
