package main

import (
	"strings"
	"testing"

	"github.com/Possseidon/ssdedupe/internal/entry"
	"github.com/Possseidon/ssdedupe/internal/scan"
)

// =============================================================================
// Section 1: Report ordering
// =============================================================================

// TestSortGroupsLargestFirst tests that groups come out ordered by
// reclaimable size descending.
func TestSortGroupsLargestFirst(t *testing.T) {
	dups := entry.Duplicates{
		{Bytes: 10, Kind: entry.KindFile, Hash: 1}:  {"a", "b"},      // 10 redundant
		{Bytes: 5, Kind: entry.KindFile, Hash: 2}:   {"c", "d", "e"}, // 10 redundant
		{Bytes: 100, Kind: entry.KindFile, Hash: 3}: {"f", "g"},      // 100 redundant
		{Bytes: 1, Kind: entry.KindFile, Hash: 4}:   {"h", "i"},      // 1 redundant
	}

	groups := sortGroups(dups)
	if len(groups) != 4 {
		t.Fatalf("got %d groups, want 4", len(groups))
	}
	if groups[0].redundant != 100 || groups[3].redundant != 1 {
		t.Errorf("groups not ordered by redundant bytes: %v", groups)
	}
	for i := 1; i < len(groups); i++ {
		if groups[i].redundant > groups[i-1].redundant {
			t.Errorf("group %d (%d redundant) out of order", i, groups[i].redundant)
		}
	}
}

// TestSortGroupsTieBreakDeterministic tests that equal reclaimable sizes
// still order deterministically: files before directories, larger groups
// before smaller ones, then the Info order.
func TestSortGroupsTieBreakDeterministic(t *testing.T) {
	dups := entry.Duplicates{
		{Bytes: 10, Kind: entry.KindFile, Hash: 7}: {"a", "b"},
		{Bytes: 10, Kind: entry.KindDir, Hash: 9}:  {"c", "d"},
		{Bytes: 5, Kind: entry.KindFile, Hash: 1}:  {"e", "f", "g"},
	}

	first := sortGroups(dups)
	for n := 0; n < 10; n++ {
		again := sortGroups(dups)
		for i := range first {
			if first[i].info != again[i].info {
				t.Fatalf("ordering not deterministic at index %d", i)
			}
		}
	}

	// All three groups have 10 redundant bytes; files order before
	// directories on a tie.
	if first[0].info.Kind != entry.KindFile {
		t.Errorf("expected a File group first on tie, got %+v", first[0].info)
	}
	if first[2].info.Kind != entry.KindDir {
		t.Errorf("expected the Dir group last on tie, got %+v", first[2].info)
	}
}

// =============================================================================
// Section 2: Progress aggregation
// =============================================================================

// TestCombinedProgressSums tests that the spinner line sums counters across
// scan states.
func TestCombinedProgressSums(t *testing.T) {
	states := combinedProgress{scan.NewState(), scan.NewState()}

	out := states.String()
	if !strings.Contains(out, "0 dirs") || !strings.Contains(out, "0 files") {
		t.Errorf("fresh combined progress = %q, want zero counts", out)
	}
}
