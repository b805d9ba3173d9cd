package cache

import (
	"fmt"
	"sync"

	"github.com/shardlru/blockcache/internal/util"
	"github.com/shardlru/blockcache/monitor"
)

// shard is one LRUCacheShardTemplate-equivalent slice of the cache: its
// own mutex, hash table, and intrusive LRU list. A ShardedCache fans out
// across 2^numShardBits of these by the high bits of the caller's hash.
//
// The LRU list is circular with sentinel as its head/tail; entries with
// flagInHighPriPool set live between sentinel and lruLowPri, everything
// else between lruLowPri and sentinel going the other way — lruLowPri is
// the movable pivot described in spec.md §4.2. An entry is "on the LRU"
// (onLRU()) iff the cache holds its only reference; as soon as a second
// reference is taken it is unlinked, and it is relinked on the last
// Release iff it's still in_cache.
//
// M is the compile-time-selected Monitor (spec.md §4.5): embedding it by
// value as a type parameter, rather than storing a Monitor interface
// field, avoids a vtable call on every Insert/Lookup/Release for the
// default Noop case.
type shard[M monitor.Monitor] struct {
	mu sync.Mutex

	table handleTable

	sentinel  Handle
	lruLowPri *Handle

	capacity            uint64
	highPriPoolRatio    float64
	highPriPoolCapacity uint64
	strictCapacityLimit bool

	usage            uint64
	lruUsage         uint64
	highPriPoolUsage uint64

	mon        M
	metrics    Metrics
	shardIndex int

	// ---- hot counters (separate cache lines to avoid false sharing) ----
	// These back Stats()/report()'s lock-free summary line; Metrics (when
	// wired to metrics/prom.Adapter) gets the same events through the
	// metrics field above under the shard's mutex. Kept as atomics rather
	// than mutex-guarded fields so a caller can poll Stats() without
	// contending with Lookup/Insert/Release/Erase.
	_      util.CacheLinePad
	hits   util.PaddedAtomicInt64
	misses util.PaddedAtomicInt64
	evicts util.PaddedAtomicUint64
}

func newShard[M monitor.Monitor](capacity uint64, strict bool, highPriPoolRatio float64, mon M, metrics Metrics, shardIndex int) *shard[M] {
	s := &shard[M]{
		capacity:            capacity,
		strictCapacityLimit: strict,
		highPriPoolRatio:    highPriPoolRatio,
		highPriPoolCapacity: uint64(float64(capacity) * highPriPoolRatio),
		mon:                 mon,
		metrics:             metrics,
		shardIndex:          shardIndex,
	}
	s.table.resize()
	s.sentinel.next = &s.sentinel
	s.sentinel.prev = &s.sentinel
	s.lruLowPri = &s.sentinel
	return s
}

// lruInsert threads e onto the LRU list. e must hold the cache's sole
// reference (refs == 1) and not already be linked. High-priority
// entries, and any entry that was hit while pinned, are inserted ahead
// of the pivot (in the high-priority pool) as long as the pool has any
// capacity configured; everything else goes immediately after the
// pivot, becoming the new pivot.
func (s *shard[M]) lruInsert(e *Handle) {
	if s.highPriPoolRatio > 0 && (e.isHighPri() || e.hasHit()) {
		e.next = &s.sentinel
		e.prev = s.sentinel.prev
		e.prev.next = e
		e.next.prev = e
		e.setInHighPriPool(true)
		s.highPriPoolUsage += e.charge
		s.maintainPoolSize()
	} else {
		e.next = s.lruLowPri.next
		e.prev = s.lruLowPri
		e.prev.next = e
		e.next.prev = e
		e.setInHighPriPool(false)
		s.lruLowPri = e
	}
	s.lruUsage += e.charge
}

// lruRemove unlinks e from the LRU list. e must currently be onLRU().
func (s *shard[M]) lruRemove(e *Handle) {
	assertf(e.onLRU(), "lruRemove: handle not linked")
	if s.lruLowPri == e {
		s.lruLowPri = e.prev
	}
	e.next.prev = e.prev
	e.prev.next = e.next
	e.prev, e.next = nil, nil
	s.lruUsage -= e.charge
	if e.inHighPriPool() {
		s.highPriPoolUsage -= e.charge
	}
}

// maintainPoolSize demotes entries from the head of the high-priority
// pool (just after the pivot) until the pool again fits within
// highPriPoolCapacity, sliding the pivot to match.
func (s *shard[M]) maintainPoolSize() {
	for s.highPriPoolUsage > s.highPriPoolCapacity {
		s.lruLowPri = s.lruLowPri.next
		assertf(s.lruLowPri != &s.sentinel, "maintainPoolSize: pivot reached sentinel")
		s.lruLowPri.setInHighPriPool(false)
		s.highPriPoolUsage -= s.lruLowPri.charge
	}
}

// evictFromLRU evicts from the tail of the LRU list until usage+extraCharge
// fits within capacity or the list is empty, appending each evicted
// handle to *victims for the caller to free() once unlocked.
func (s *shard[M]) evictFromLRU(extraCharge uint64, victims *[]*Handle) {
	for s.usage+extraCharge > s.capacity && s.sentinel.next != &s.sentinel {
		old := s.sentinel.next
		s.lruRemove(old)
		s.table.remove(old.keyBytes, old.hash)
		old.setInCache(false)
		old.refs--
		s.usage -= old.charge
		s.mon.OnRemove(old.keyBytes, old.charge)
		s.metrics.Evict(EvictLRU)
		s.evicts.Add(1)
		*victims = append(*victims, old)
	}
}

// Lookup finds (key, hash), pinning and hit-marking the result.
func (s *shard[M]) Lookup(key []byte, hash uint32) *Handle {
	s.mu.Lock()
	e := s.table.lookup(key, hash)
	if e != nil {
		if e.refs == 1 {
			s.lruRemove(e)
		}
		e.refs++
		e.setHit()
	}
	s.metrics.Lookup(e != nil)
	if e != nil {
		s.hits.Add(1)
	} else {
		s.misses.Add(1)
	}
	s.mu.Unlock()
	return e
}

// Ref adds a reference to a handle already known to be valid.
func (s *shard[M]) Ref(h *Handle) bool {
	s.mu.Lock()
	if h.refs == 1 && h.inCache() {
		s.lruRemove(h)
	}
	h.refs++
	s.mu.Unlock()
	return true
}

// Release drops a reference. Returns true iff it observed the last
// reference, in which case the Deleter has run by the time it returns.
func (s *shard[M]) Release(h *Handle, forceErase bool) bool {
	if h == nil {
		return false
	}

	s.mu.Lock()
	h.refs--
	lastReference := h.refs == 0
	if lastReference {
		s.usage -= h.charge
	}
	if h.refs == 1 && h.inCache() {
		if s.usage > s.capacity || forceErase {
			assertf(s.usage <= s.capacity || s.sentinel.next == &s.sentinel, "Release: LRU not empty while usage > capacity")
			s.table.remove(h.keyBytes, h.hash)
			h.setInCache(false)
			h.refs--
			s.usage -= h.charge
			lastReference = true
			s.mon.OnRemove(h.keyBytes, h.charge)
			s.metrics.Evict(EvictRelease)
			s.evicts.Add(1)
		} else {
			s.lruInsert(h)
		}
	}
	s.metrics.Release(lastReference)
	s.mu.Unlock()

	if lastReference {
		h.free()
	}
	return lastReference
}

// Insert admits (key, hash, value) with charge, evicting as needed.
// When handleOut is non-nil the caller receives a pinned Handle (or nil
// + ErrIncomplete if strictCapacityLimit rejected it); otherwise the
// entry is placed unpinned on the LRU (and may be evicted before this
// call returns, running its Deleter before Insert returns).
func (s *shard[M]) Insert(key []byte, hash uint32, value any, charge uint64, deleter Deleter, handleOut **Handle, priority Priority) error {
	initialRefs := int32(1)
	if handleOut != nil {
		initialRefs = 2
	}
	e := newHandle(key, hash, value, charge, deleter, priority, initialRefs)

	var victims []*Handle
	var err error

	s.mu.Lock()
	s.evictFromLRU(charge, &victims)

	if s.usage-s.lruUsage+charge > s.capacity && (s.strictCapacityLimit || handleOut == nil) {
		if handleOut == nil {
			// Fire-and-forget over capacity: accept then immediately evict.
			victims = append(victims, e)
		} else {
			err = ErrIncomplete
		}
	} else {
		old := s.table.insert(e)
		s.usage += charge
		if old != nil {
			old.setInCache(false)
			old.refs--
			s.mon.OnRemove(old.keyBytes, old.charge)
			if old.refs == 0 {
				s.usage -= old.charge
				s.lruRemove(old)
				s.metrics.Evict(EvictDisplaced)
				s.evicts.Add(1)
				victims = append(victims, old)
			}
		}
		s.mon.OnAdd(e.keyBytes, e.charge)
		if handleOut == nil {
			s.lruInsert(e)
		} else {
			*handleOut = e
		}
	}
	if err == nil {
		s.metrics.Insert()
	}
	s.mu.Unlock()

	for _, v := range victims {
		v.free()
	}
	if err != nil && handleOut != nil {
		*handleOut = nil
	}
	return err
}

// Erase removes (key, hash) if present, freeing it once its last
// reference (possibly one held by a caller) is dropped.
func (s *shard[M]) Erase(key []byte, hash uint32) {
	s.mu.Lock()
	e := s.table.remove(key, hash)
	lastReference := false
	if e != nil {
		e.refs--
		lastReference = e.refs == 0
		if lastReference && e.inCache() {
			s.lruRemove(e)
		}
		if lastReference {
			s.usage -= e.charge
		}
		e.setInCache(false)
		s.mon.OnRemove(e.keyBytes, e.charge)
		s.metrics.Erase()
		if lastReference {
			s.metrics.Evict(EvictErase)
			s.evicts.Add(1)
		}
	}
	s.mu.Unlock()

	if e != nil && lastReference {
		e.free()
	}
}

// EraseUnRefEntries drops every entry currently unpinned (i.e. resident
// only on the LRU list); pinned entries are left untouched.
func (s *shard[M]) EraseUnRefEntries() {
	var victims []*Handle

	s.mu.Lock()
	for s.sentinel.next != &s.sentinel {
		old := s.sentinel.next
		s.lruRemove(old)
		s.table.remove(old.keyBytes, old.hash)
		old.setInCache(false)
		old.refs--
		s.usage -= old.charge
		s.mon.OnRemove(old.keyBytes, old.charge)
		s.metrics.Evict(EvictDrain)
		s.evicts.Add(1)
		victims = append(victims, old)
	}
	s.mu.Unlock()

	for _, v := range victims {
		v.free()
	}
}

// SetCapacity changes this shard's capacity, evicting if it shrank.
func (s *shard[M]) SetCapacity(capacity uint64) {
	var victims []*Handle

	s.mu.Lock()
	s.capacity = capacity
	s.highPriPoolCapacity = uint64(float64(capacity) * s.highPriPoolRatio)
	s.evictFromLRU(0, &victims)
	s.mu.Unlock()

	for _, v := range victims {
		v.free()
	}
}

func (s *shard[M]) SetStrictCapacityLimit(strict bool) {
	s.mu.Lock()
	s.strictCapacityLimit = strict
	s.mu.Unlock()
}

// SetHighPriorityPoolRatio changes the pool fraction and slides the
// pivot to match, demoting entries as necessary. No entry is allocated,
// freed, or moved between data structures other than the pivot shift.
func (s *shard[M]) SetHighPriorityPoolRatio(ratio float64) {
	s.mu.Lock()
	s.highPriPoolRatio = ratio
	s.highPriPoolCapacity = uint64(float64(s.capacity) * ratio)
	s.maintainPoolSize()
	s.mu.Unlock()
}

// HighPriorityPoolRatio returns the shard's current pool fraction
// (supplemental accessor; see SPEC_FULL.md §12).
func (s *shard[M]) HighPriorityPoolRatio() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.highPriPoolRatio
}

func (s *shard[M]) GetUsage() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usage
}

func (s *shard[M]) GetPinnedUsage() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usage - s.lruUsage
}

// reportUsage pushes a Metrics.Usage snapshot for this shard.
func (s *shard[M]) reportUsage() {
	s.mu.Lock()
	usage, pinned, highPri := s.usage, s.usage-s.lruUsage, s.highPriPoolUsage
	s.mu.Unlock()
	s.metrics.Usage(s.shardIndex, usage, pinned, highPri)
}

// ApplyToAllCacheEntries visits every resident entry exactly once. When
// threadSafe is false the caller must guarantee no concurrent mutation.
func (s *shard[M]) ApplyToAllCacheEntries(fn func(value any, charge uint64), threadSafe bool) {
	if threadSafe {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	s.table.applyToAll(func(h *Handle) {
		fn(h.value, h.charge)
	})
}

// Stats returns this shard's lifetime hit/miss/eviction counts. Safe to
// poll from any goroutine without contending with Lookup/Insert/Release/
// Erase — it reads the padded atomics directly rather than the mutex.
func (s *shard[M]) Stats() (hits, misses int64, evicts uint64) {
	return s.hits.Load(), s.misses.Load(), s.evicts.Load()
}

// report renders this shard's stats and monitor diagnostic under its lock.
func (s *shard[M]) report() string {
	hits, misses, evicts := s.Stats()
	s.mu.Lock()
	defer s.mu.Unlock()
	summary := fmt.Sprintf("hits=%d misses=%d evicts=%d", hits, misses, evicts)
	if extra := s.mon.Report(); extra != "" {
		return summary + " " + extra
	}
	return summary
}
