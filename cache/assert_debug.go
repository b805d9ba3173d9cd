//go:build blockcacheassert

package cache

import "fmt"

// assertf panics with a formatted message when cond is false. Only
// compiled in with the blockcacheassert build tag; see DESIGN.md's
// "Open Question resolution" for why the original's invariant
// assertions (e.g. "the LRU is empty whenever usage > capacity") are
// debug-only rather than always-enforced.
func assertf(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}
