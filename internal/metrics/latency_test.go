package metrics

import (
	"strings"
	"testing"
	"time"
)

func TestLatencyTrackerStats(t *testing.T) {
	lt := NewLatencyTracker(0.01)
	for i := 1; i <= 100; i++ {
		lt.Record(OpHTTP, time.Duration(i)*time.Millisecond)
	}

	stats, err := lt.GetStats(OpHTTP)
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if stats.Count != 100 {
		t.Fatalf("expected 100 samples, got %d", stats.Count)
	}
	if stats.P50 < 45 || stats.P50 > 55 {
		t.Fatalf("p50 out of range: %.2f", stats.P50)
	}
	if stats.Max < 98 {
		t.Fatalf("max too small: %.2f", stats.Max)
	}
	if !strings.Contains(stats.String(), "fetch.http (n=100)") {
		t.Fatalf("unexpected string form: %s", stats.String())
	}
}

func TestLatencyTrackerMissingOperation(t *testing.T) {
	lt := NewLatencyTracker(0.01)
	if _, err := lt.GetStats("absent"); err == nil {
		t.Fatalf("expected error for unknown operation")
	}
}

func TestSnapshotSorted(t *testing.T) {
	lt := NewLatencyTracker(0.01)
	lt.Record(OpCacheWrite, time.Millisecond)
	lt.Record(OpCacheRead, time.Millisecond)
	lt.Record(OpHTTP, time.Millisecond)

	snap := lt.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("expected 3 operations, got %d", len(snap))
	}
	if snap[0].Operation != OpCacheRead || snap[2].Operation != OpHTTP {
		t.Fatalf("snapshot not sorted: %+v", snap)
	}
}

func TestNilTrackerIsSafe(t *testing.T) {
	var lt *LatencyTracker
	lt.Record(OpHTTP, time.Second)
	if snap := lt.Snapshot(); snap != nil {
		t.Fatalf("nil tracker should return nil snapshot")
	}
}
