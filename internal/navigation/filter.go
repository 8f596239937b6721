package navigation

import "outtake/internal/listing"

// NoSelection is the previous index before anything has been selected.
const NoSelection = -1

// Result is the effective selection after a requested move.
type Result struct {
	// Index is the effective selection. It equals the previous index when
	// Changed is false.
	Index int `json:"index"`
	// Redirected is set when the requested entry was RAW and the selection
	// moved past it.
	Redirected bool `json:"redirected"`
	Changed    bool `json:"changed"`
}

// Resolve maps a requested move from previous to next onto the effective
// selection.
func Resolve(entries []listing.Entry, previous, next int) Result {
	stay := Result{Index: previous}
	if next == previous || next < 0 || next >= len(entries) {
		return stay
	}
	if !entries[next].IsRaw {
		return Result{Index: next, Changed: true}
	}

	step := -1
	if next > previous {
		step = 1
	}
	idx := next
	for range len(entries) {
		idx += step
		if idx < 0 || idx >= len(entries) {
			return stay
		}
		if !entries[idx].IsRaw {
			return Result{Index: idx, Redirected: true, Changed: true}
		}
	}
	return stay
}

// Step resolves a relative move of delta rows from previous. From no
// selection a forward move starts at the first row and a backward move at
// the last.
func Step(entries []listing.Entry, previous, delta int) Result {
	next := previous + delta
	if previous == NoSelection {
		next = 0
		if delta < 0 {
			next = len(entries) - 1
		}
	}
	return Resolve(entries, previous, next)
}
