package monitor

import (
	"container/list"
	"fmt"
	"strings"
)

type topKEntry struct {
	key    []byte
	charge uint64
}

// TopK is a diagnostic Monitor that tracks the K largest live entries
// (by charge) in a shard and renders them as a short text report —
// the Go-native equivalent of the original LRUCacheDiagnosableShard's
// DumpDiagnoseInfo.
//
// Bookkeeping follows the same container/list-plus-index-map idiom the
// teacher's 2Q ghost queue uses (policy/twoq/twoq.go): an ordered list
// gives O(1) eviction of the smallest tracked entry once the list grows
// past K, and a map gives O(1) membership/update lookups by key.
// Unlike the 2Q ghost queue, order here is "largest charge first", not
// recency.
//
// A key trimmed out of the tracked set is not re-admitted when a tracked
// entry is later removed, so after removals the report can list fewer
// than K entries even while more than K are live.
type TopK struct {
	k     int
	order *list.List // front = largest charge, back = smallest
	index map[string]*list.Element
}

// NewTopK returns a Monitor tracking the k largest live entries by
// charge. k is clamped to at least 1.
func NewTopK(k int) *TopK {
	if k < 1 {
		k = 1
	}
	return &TopK{k: k, order: list.New(), index: make(map[string]*list.Element)}
}

// OnAdd records (or updates) key's charge and trims the tracked set
// back down to k entries, dropping the smallest.
func (m *TopK) OnAdd(key []byte, charge uint64) {
	ks := string(key)
	if el, ok := m.index[ks]; ok {
		m.order.Remove(el)
		delete(m.index, ks)
	}
	m.insertSorted(topKEntry{key: append([]byte(nil), key...), charge: charge})
	for m.order.Len() > m.k {
		back := m.order.Back()
		e := back.Value.(topKEntry)
		delete(m.index, string(e.key))
		m.order.Remove(back)
	}
}

// OnRemove stops tracking key, if it was tracked.
func (m *TopK) OnRemove(key []byte, _ uint64) {
	ks := string(key)
	if el, ok := m.index[ks]; ok {
		m.order.Remove(el)
		delete(m.index, ks)
	}
}

// Report renders the tracked entries, largest charge first.
func (m *TopK) Report() string {
	if m.order.Len() == 0 {
		return "  (no entries)\n"
	}
	var b strings.Builder
	i := 1
	for el := m.order.Front(); el != nil; el = el.Next() {
		e := el.Value.(topKEntry)
		fmt.Fprintf(&b, "  #%d key=%q charge=%d\n", i, e.key, e.charge)
		i++
	}
	return b.String()
}

func (m *TopK) insertSorted(e topKEntry) {
	for el := m.order.Front(); el != nil; el = el.Next() {
		if el.Value.(topKEntry).charge < e.charge {
			ne := m.order.InsertBefore(e, el)
			m.index[string(e.key)] = ne
			return
		}
	}
	ne := m.order.PushBack(e)
	m.index[string(e.key)] = ne
}

var _ Monitor = (*TopK)(nil)
