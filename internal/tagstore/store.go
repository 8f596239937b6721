package tagstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"slices"
	"sync"

	"outtake/internal/logging"
)

// SidecarName is the tag file kept inside each image folder.
const SidecarName = ".image_tags.json"

// Outtake is the reserved tag that marks a file for relocation.
const Outtake = "outtakes"

// ErrPersist wraps every failure to write the sidecar.
var ErrPersist = errors.New("persist tags")

// Store maps filenames to ordered tag sets.
type Store struct {
	mu    sync.RWMutex
	order []string
	tags  map[string][]string
}

// New returns an empty store.
func New() *Store {
	return &Store{tags: make(map[string][]string)}
}

// Load reads the sidecar at path. It never fails: problems are logged and an
// empty store is returned.
func Load(path string, logger *slog.Logger) *Store {
	logger = logging.NewComponentLogger(logger, "tagstore")

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			warnLoadFailed(logger, path, fmt.Errorf("read sidecar: %w", err))
		}
		return New()
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return New()
	}

	store, err := decode(data, logger)
	if err != nil {
		warnLoadFailed(logger, path, err)
		return New()
	}

	logger.Debug("loaded tag sidecar",
		logging.Int("file_count", store.Len()),
		logging.String("sidecar_path", path))
	return store
}

func warnLoadFailed(logger *slog.Logger, path string, err error) {
	logging.WarnWithContext(logger, "failed to load tag sidecar", "tagstore_load_failed",
		logging.Error(err),
		logging.String("sidecar_path", path),
		logging.String(logging.FieldErrorHint, "fix or delete the sidecar file"),
		logging.String(logging.FieldImpact, "folder opened with no tags"))
}

// decode walks the top-level object token by token so key order survives.
func decode(data []byte, logger *slog.Logger) (*Store, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parse sidecar: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("parse sidecar: top level is not an object")
	}

	store := New()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("parse sidecar: %w", err)
		}
		filename, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("parse sidecar: unexpected key %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("parse sidecar entry %q: %w", filename, err)
		}
		var tags []string
		if err := json.Unmarshal(raw, &tags); err != nil {
			logger.Debug("skipping malformed sidecar entry",
				logging.String(logging.FieldFile, filename),
				logging.Error(err))
			continue
		}
		store.SetTags(filename, tags)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("parse sidecar: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("parse sidecar: trailing data")
	}
	return store, nil
}

// Save writes the whole mapping to path as indented JSON, replacing the file
// atomically. The in-memory state is unchanged on failure.
func (s *Store) Save(path string) error {
	payload, err := s.MarshalJSON()
	if err != nil {
		return fmt.Errorf("%w: marshal: %w", ErrPersist, err)
	}
	var out bytes.Buffer
	if err := json.Indent(&out, payload, "", "  "); err != nil {
		return fmt.Errorf("%w: indent: %w", ErrPersist, err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, out.Bytes(), 0o644); err != nil {
		return fmt.Errorf("%w: write temp file: %w", ErrPersist, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: rename temp file: %w", ErrPersist, err)
	}
	return nil
}

// MarshalJSON encodes the store as an object in insertion order.
func (s *Store) MarshalJSON() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, filename := range s.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(filename)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(s.tags[filename])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Tags returns a copy of the tags for filename; empty when untracked.
func (s *Store) Tags(filename string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.tags[filename])
}

// SetTags replaces the tag set for filename, tracking it if new. Duplicate
// tags collapse to their first occurrence.
func (s *Store) SetTags(filename string, tags []string) {
	set := make([]string, 0, len(tags))
	for _, tag := range tags {
		if !slices.Contains(set, tag) {
			set = append(set, tag)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, tracked := s.tags[filename]; !tracked {
		s.order = append(s.order, filename)
	}
	s.tags[filename] = set
}

// Has reports whether filename carries tag.
func (s *Store) Has(filename, tag string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Contains(s.tags[filename], tag)
}

// Tracked reports whether filename has an entry, tagged or not.
func (s *Store) Tracked(filename string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tags[filename]
	return ok
}

// Files returns tracked filenames in insertion order.
func (s *Store) Files() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.order)
}

// Tagged returns the filenames carrying tag, in insertion order.
func (s *Store) Tagged(tag string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for _, filename := range s.order {
		if slices.Contains(s.tags[filename], tag) {
			out = append(out, filename)
		}
	}
	return out
}

// Len returns the number of tracked filenames.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Clear drops every entry.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = nil
	s.tags = make(map[string][]string)
}
