package cache

// MemoryAllocator is a pluggable allocator for cached values. Per
// spec.md §5, the cache core never calls it directly — a caller's
// Deleter closes over the allocator to release the value's memory
// when the handle is freed. It is threaded through LRUCacheOptions only so a
// caller can share one allocator between cache construction and the
// Deleter closures it builds.
type MemoryAllocator interface {
	Allocate(size int) []byte
	Free(buf []byte)
}
