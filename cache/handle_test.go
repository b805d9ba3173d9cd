package cache

import "testing"

func TestNewHandle_CopiesKey(t *testing.T) {
	t.Parallel()

	key := []byte("mutable")
	h := newHandle(key, 42, "v", 7, nil, Low, 1)
	key[0] = 'X'

	if string(h.keyBytes) != "mutable" {
		t.Fatalf("handle key mutated by caller's buffer: got %q", h.keyBytes)
	}
	if !h.keyEquals([]byte("mutable"), 42) {
		t.Fatal("keyEquals should match the original key and hash")
	}
	if h.keyEquals([]byte("mutable"), 43) {
		t.Fatal("keyEquals must check hash, not just bytes")
	}
}

func TestHandle_Flags(t *testing.T) {
	t.Parallel()

	h := newHandle([]byte("k"), 1, "v", 1, nil, High, 1)
	if !h.inCache() {
		t.Fatal("newHandle must start in_cache")
	}
	if !h.isHighPri() {
		t.Fatal("High priority must set the priority flag")
	}
	if h.hasHit() || h.inHighPriPool() {
		t.Fatal("hasHit/inHighPriPool must start clear")
	}

	h.setHit()
	if !h.hasHit() {
		t.Fatal("setHit must set hasHit")
	}

	h.setInCache(false)
	if h.inCache() {
		t.Fatal("setInCache(false) must clear in_cache")
	}
	h.setInCache(true)
	if !h.inCache() {
		t.Fatal("setInCache(true) must set in_cache")
	}
}

func TestHandle_OnLRU(t *testing.T) {
	t.Parallel()

	h := newHandle([]byte("k"), 1, "v", 1, nil, Low, 1)
	if h.onLRU() {
		t.Fatal("a fresh handle must not report onLRU")
	}
	other := newHandle([]byte("k2"), 2, "v2", 1, nil, Low, 1)
	h.prev, h.next = other, other
	if !h.onLRU() {
		t.Fatal("a handle with both links set must report onLRU")
	}
}

func TestHandle_Free_RunsDeleterOnce(t *testing.T) {
	t.Parallel()

	var calls int
	var gotKey string
	var gotValue any
	deleter := func(key []byte, value any) {
		calls++
		gotKey = string(key)
		gotValue = value
	}

	h := newHandle([]byte("k"), 1, "payload", 1, deleter, Low, 1)
	h.free()
	h.free() // idempotent: deleter is cleared after the first call

	if calls != 1 {
		t.Fatalf("deleter must run exactly once, ran %d times", calls)
	}
	if gotKey != "k" || gotValue != "payload" {
		t.Fatalf("deleter got (%q, %v), want (\"k\", \"payload\")", gotKey, gotValue)
	}
	if h.value != nil {
		t.Fatal("free must clear value for GC")
	}
}
