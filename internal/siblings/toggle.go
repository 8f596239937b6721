package siblings

import (
	"errors"
	"fmt"
	"slices"

	"outtake/internal/listing"
	"outtake/internal/tagstore"
)

// ErrNoSelection is returned when the acted-on index does not name an entry.
var ErrNoSelection = errors.New("no file selected")

// TagSetter is the slice of the tag store the resolver mutates.
type TagSetter interface {
	Tags(filename string) []string
	SetTags(filename string, tags []string)
	Has(filename, tag string) bool
}

// Row identifies one listing row touched by a toggle.
type Row struct {
	Index    int    `json:"index"`
	Filename string `json:"filename"`
}

// Change reports the outcome of a toggle. Added is the state every row in
// the group now has.
type Change struct {
	Added    bool   `json:"added"`
	BaseName string `json:"base_name"`
	Rows     []Row  `json:"rows"`
}

// Toggle flips the outtake tag on the group of entries sharing the base name
// of entries[actedOn]. The target state is taken from the acted-on file
// alone, so a mixed group ends up uniform. Other tags are left in place.
// Persisting the store is the caller's job.
func Toggle(entries []listing.Entry, actedOn int, store TagSetter) (Change, error) {
	if actedOn < 0 || actedOn >= len(entries) {
		return Change{}, fmt.Errorf("toggle index %d of %d: %w", actedOn, len(entries), ErrNoSelection)
	}

	target := entries[actedOn]
	change := Change{
		Added:    !store.Has(target.Filename, tagstore.Outtake),
		BaseName: target.BaseName,
	}

	for _, idx := range Group(entries, target.BaseName) {
		filename := entries[idx].Filename
		store.SetTags(filename, withOuttake(store.Tags(filename), change.Added))
		change.Rows = append(change.Rows, Row{Index: idx, Filename: filename})
	}
	return change, nil
}

// Group returns the indices of entries whose base name equals baseName.
// Comparison is byte-exact.
func Group(entries []listing.Entry, baseName string) []int {
	var out []int
	for i, entry := range entries {
		if entry.BaseName == baseName {
			out = append(out, i)
		}
	}
	return out
}

func withOuttake(tags []string, present bool) []string {
	has := slices.Contains(tags, tagstore.Outtake)
	switch {
	case present && !has:
		return append(tags, tagstore.Outtake)
	case !present && has:
		return slices.DeleteFunc(tags, func(tag string) bool { return tag == tagstore.Outtake })
	default:
		return tags
	}
}
