package monitor

import (
	"strings"
	"testing"
)

func TestTopK_TracksLargestEntries(t *testing.T) {
	t.Parallel()

	m := NewTopK(2)
	m.OnAdd([]byte("small"), 1)
	m.OnAdd([]byte("medium"), 5)
	m.OnAdd([]byte("large"), 10)

	report := m.Report()
	if strings.Contains(report, "small") {
		t.Fatalf("tracking is supposed to trim to the top 2 entries, report: %q", report)
	}
	if !strings.Contains(report, "large") || !strings.Contains(report, "medium") {
		t.Fatalf("report must contain the two largest entries, got: %q", report)
	}

	// Largest must be listed first.
	if strings.Index(report, "large") > strings.Index(report, "medium") {
		t.Fatalf("entries must be ordered largest-first, got: %q", report)
	}
}

func TestTopK_OnRemoveStopsTracking(t *testing.T) {
	t.Parallel()

	m := NewTopK(5)
	m.OnAdd([]byte("a"), 10)
	m.OnRemove([]byte("a"), 10)

	if report := m.Report(); strings.Contains(report, "\"a\"") {
		t.Fatalf("a removed key must not appear in the report, got: %q", report)
	}
}

func TestTopK_OnAddUpdatesExistingKey(t *testing.T) {
	t.Parallel()

	m := NewTopK(1)
	m.OnAdd([]byte("a"), 1)
	m.OnAdd([]byte("b"), 2)

	report := m.Report()
	if !strings.Contains(report, "\"b\"") || strings.Contains(report, "\"a\"") {
		t.Fatalf("with k=1 only the larger of two distinct keys should remain, got: %q", report)
	}

	// Re-adding "b" with a smaller charge must replace, not duplicate, its entry.
	m.OnAdd([]byte("b"), 1)
	if got := m.order.Len(); got != 1 {
		t.Fatalf("order.Len() = %d, want 1 (no duplicate entries for the same key)", got)
	}
}

func TestTopK_EmptyReport(t *testing.T) {
	t.Parallel()

	m := NewTopK(4)
	if got := m.Report(); got == "" {
		t.Fatal("an empty TopK should still render a non-empty placeholder report")
	}
}

func TestNewTopK_ClampsKToOne(t *testing.T) {
	t.Parallel()

	m := NewTopK(0)
	if m.k != 1 {
		t.Fatalf("NewTopK(0).k = %d, want 1", m.k)
	}
	m = NewTopK(-5)
	if m.k != 1 {
		t.Fatalf("NewTopK(-5).k = %d, want 1", m.k)
	}
}

func TestNoop_IsAMonitor(t *testing.T) {
	t.Parallel()

	var m Monitor = Noop{}
	m.OnAdd([]byte("k"), 1)
	m.OnRemove([]byte("k"), 1)
	if got := m.Report(); got != "" {
		t.Fatalf("Noop.Report() = %q, want empty string", got)
	}
}
