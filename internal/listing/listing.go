package listing

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// RawExtension marks RAW companion files, which navigation skips over.
const RawExtension = ".nef"

// ImageExtensions is the allow-list of listed file suffixes.
var ImageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".webp", RawExtension}

// Entry describes one listed image.
type Entry struct {
	Filename string `json:"filename"`
	BaseName string `json:"base_name"`
	IsRaw    bool   `json:"is_raw"`
}

// NewEntry derives the entry facts for filename.
func NewEntry(filename string) Entry {
	return Entry{
		Filename: filename,
		BaseName: BaseName(filename),
		IsRaw:    hasSuffixFold(filename, RawExtension),
	}
}

// BaseName strips the final extension. Leading dots do not start an
// extension, so ".png" is its own base name.
func BaseName(filename string) string {
	ext := filepath.Ext(strings.TrimLeft(filename, "."))
	return filename[:len(filename)-len(ext)]
}

// IsImage reports whether filename ends in a supported extension, ignoring case.
func IsImage(filename string) bool {
	for _, ext := range ImageExtensions {
		if hasSuffixFold(filename, ext) {
			return true
		}
	}
	return false
}

func hasSuffixFold(name, suffix string) bool {
	return strings.HasSuffix(cases.Fold().String(name), suffix)
}

// List returns the supported images directly inside dir, sorted by filename.
// Directories and other non-regular entries are ignored; symlinks count when
// they resolve to a regular file.
func List(dir string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list folder %s: %w", dir, err)
	}

	names := make([]string, 0, len(dirEntries))
	for _, de := range dirEntries {
		name := de.Name()
		if !IsImage(name) {
			continue
		}
		if !isRegular(dir, de) {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)

	entries := make([]Entry, len(names))
	for i, name := range names {
		entries[i] = NewEntry(name)
	}
	return entries, nil
}

func isRegular(dir string, de os.DirEntry) bool {
	if de.Type().IsRegular() {
		return true
	}
	if de.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(filepath.Join(dir, de.Name()))
	return err == nil && info.Mode().IsRegular()
}

// Index returns the position of filename in entries, or -1.
func Index(entries []Entry, filename string) int {
	return slices.IndexFunc(entries, func(e Entry) bool { return e.Filename == filename })
}
