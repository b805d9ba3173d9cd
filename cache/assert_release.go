//go:build !blockcacheassert

package cache

// assertf is a no-op in the default build; pass -tags blockcacheassert
// to enable the underlying invariant checks.
func assertf(cond bool, format string, args ...any) {}
