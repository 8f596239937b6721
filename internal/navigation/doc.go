// Package navigation decides the effective selection when the user moves
// through a folder listing. RAW companions are never selected: a move that
// lands on one keeps stepping in the same direction until it reaches a
// non-RAW entry, or stays put when none exists.
package navigation
