package cache

import (
	"fmt"
	"sync/atomic"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/shardlru/blockcache/internal/util"
)

func TestGetOrInserter_MissCallsCreateOnce(t *testing.T) {
	t.Parallel()

	c, err := NewLRUCache(1 << 20)
	if err != nil {
		t.Fatalf("NewLRUCache: %v", err)
	}
	g := NewGetOrInserter(c)

	key, hash := []byte("k"), util.HashKey([]byte("k"))
	var creates int32
	create := func() (value any, charge uint64, deleter Deleter, err error) {
		atomic.AddInt32(&creates, 1)
		return "v", 1, nil, nil
	}

	const concurrency = 50
	var eg errgroup.Group
	results := make([]*Handle, concurrency)
	for i := 0; i < concurrency; i++ {
		i := i
		eg.Go(func() error {
			h, err := g.GetOrInsert(key, hash, Low, create)
			if err != nil {
				return fmt.Errorf("GetOrInsert: %w", err)
			}
			results[i] = h
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		t.Fatal(err)
	}

	if got := atomic.LoadInt32(&creates); got != 1 {
		t.Fatalf("create() ran %d times, want exactly 1", got)
	}
	for i, h := range results {
		if h == nil {
			t.Fatalf("result %d is nil", i)
			continue
		}
		if c.Value(h) != "v" {
			t.Fatalf("result %d value = %v, want v", i, c.Value(h))
		}
		c.Release(h, false)
	}
}

func TestGetOrInserter_HitSkipsCreate(t *testing.T) {
	t.Parallel()

	c, err := NewLRUCache(1 << 20)
	if err != nil {
		t.Fatalf("NewLRUCache: %v", err)
	}
	key, hash := []byte("k"), util.HashKey([]byte("k"))
	if err := c.Insert(key, hash, "already-there", 1, nil, nil, Low); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	g := NewGetOrInserter(c)
	called := false
	create := func() (value any, charge uint64, deleter Deleter, err error) {
		called = true
		return "new", 1, nil, nil
	}

	h, err := g.GetOrInsert(key, hash, Low, create)
	if err != nil {
		t.Fatalf("GetOrInsert: %v", err)
	}
	if called {
		t.Fatal("create must not run on a hit")
	}
	if c.Value(h) != "already-there" {
		t.Fatalf("Value = %v, want already-there", c.Value(h))
	}
	c.Release(h, false)
}

func TestGetOrInserter_CreateErrorPropagates(t *testing.T) {
	t.Parallel()

	c, err := NewLRUCache(1 << 20)
	if err != nil {
		t.Fatalf("NewLRUCache: %v", err)
	}
	g := NewGetOrInserter(c)

	wantErr := ErrIncomplete
	create := func() (value any, charge uint64, deleter Deleter, err error) {
		return nil, 0, nil, wantErr
	}

	_, err = g.GetOrInsert([]byte("k"), util.HashKey([]byte("k")), Low, create)
	if err != wantErr {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}
