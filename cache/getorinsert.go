package cache

import "golang.org/x/sync/singleflight"

// GetOrInserter adds miss-coalescing on top of a Cache: concurrent
// GetOrInsert calls for the same key run create() at most once. This is
// additive — it changes nothing about eviction, refcounting, or any
// other behavior, and a caller could reach the same end state with a
// hand-rolled Lookup-then-Insert sequence. Not required by the core
// contract; kept separate so Cache implementations stay free of it.
type GetOrInserter struct {
	cache Cache
	group singleflight.Group
}

// NewGetOrInserter wraps c with miss-coalescing.
func NewGetOrInserter(c Cache) *GetOrInserter {
	return &GetOrInserter{cache: c}
}

// GetOrInsert returns the pinned handle for (key, hash), calling
// create() to produce it on a miss. Concurrent callers racing on the
// same key share one create() call; each still gets back its own
// pinned Handle via an independent Lookup once the fill lands.
func (g *GetOrInserter) GetOrInsert(key []byte, hash uint32, priority Priority, create func() (value any, charge uint64, deleter Deleter, err error)) (*Handle, error) {
	if h := g.cache.Lookup(key, hash); h != nil {
		return h, nil
	}

	_, err, _ := g.group.Do(string(key), func() (any, error) {
		if h := g.cache.Lookup(key, hash); h != nil {
			g.cache.Release(h, false)
			return nil, nil
		}
		value, charge, deleter, cerr := create()
		if cerr != nil {
			return nil, cerr
		}
		return nil, g.cache.Insert(key, hash, value, charge, deleter, nil, priority)
	})
	if err != nil {
		return nil, err
	}

	if h := g.cache.Lookup(key, hash); h != nil {
		return h, nil
	}
	// The fill landed and was evicted again before we could pin it
	// (possible under heavy pressure with a tiny capacity); the caller
	// sees this the same as if its own Insert had lost the race.
	return nil, ErrIncomplete
}
