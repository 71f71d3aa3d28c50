package types

import (
	"testing"
	"time"
)

func at(h, m int) time.Time {
	return time.Date(2025, 6, 3, h, m, 0, 0, time.UTC)
}

func TestWindowOverlaps(t *testing.T) {
	cases := []struct {
		name string
		a, b Window
		want bool
	}{
		{"disjoint", Window{at(9, 0), at(10, 0)}, Window{at(11, 0), at(12, 0)}, false},
		{"contained", Window{at(9, 0), at(12, 0)}, Window{at(10, 0), at(11, 0)}, true},
		{"partial", Window{at(9, 0), at(10, 30)}, Window{at(10, 0), at(11, 0)}, true},
		{"identical", Window{at(9, 0), at(10, 0)}, Window{at(9, 0), at(10, 0)}, true},
		// half-open: a trip ending at 10:00 does not conflict with one starting at 10:00
		{"touching", Window{at(9, 0), at(10, 0)}, Window{at(10, 0), at(11, 0)}, false},
		{"touching reversed", Window{at(10, 0), at(11, 0)}, Window{at(9, 0), at(10, 0)}, false},
	}
	for _, tc := range cases {
		if got := tc.a.Overlaps(tc.b); got != tc.want {
			t.Errorf("%s: Overlaps = %v, want %v", tc.name, got, tc.want)
		}
		if got := tc.b.Overlaps(tc.a); got != tc.want {
			t.Errorf("%s (sym): Overlaps = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestWindowContains(t *testing.T) {
	parent := Window{at(9, 0), at(12, 0)}
	if !parent.Contains(Window{at(9, 0), at(12, 0)}) {
		t.Error("window should contain itself")
	}
	if !parent.Contains(Window{at(9, 15), at(9, 45)}) {
		t.Error("inner window should be contained")
	}
	if parent.Contains(Window{at(11, 0), at(12, 30)}) {
		t.Error("window extending past the end should not be contained")
	}
}

func TestWindowValid(t *testing.T) {
	if !(Window{at(9, 0), at(10, 0)}).Valid() {
		t.Error("ordered window should be valid")
	}
	if (Window{at(10, 0), at(9, 0)}).Valid() {
		t.Error("reversed window should be invalid")
	}
	if (Window{at(9, 0), at(9, 0)}).Valid() {
		t.Error("empty window should be invalid")
	}
	if (Window{}).Valid() {
		t.Error("zero window should be invalid")
	}
}

func TestDateOf(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	local := time.Date(2025, 6, 3, 2, 30, 0, 0, loc) // 2025-06-02 18:30 UTC
	if got := DateOf(local); got != time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC) {
		t.Errorf("DateOf normalises in UTC, got %v", got)
	}
	if !SameDate(at(0, 1), at(23, 59)) {
		t.Error("same calendar day expected")
	}
}
