package session

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"outtake/internal/listing"
	"outtake/internal/logging"
	"outtake/internal/navigation"
	"outtake/internal/preflight"
	"outtake/internal/relocate"
	"outtake/internal/siblings"
	"outtake/internal/tagstore"
)

// PreviewListener is notified when the effective selection changes to a
// previewable file.
type PreviewListener interface {
	EffectiveSelectionChanged(path string)
}

// PreviewFunc adapts a function to PreviewListener.
type PreviewFunc func(path string)

// EffectiveSelectionChanged calls f(path).
func (f PreviewFunc) EffectiveSelectionChanged(path string) { f(path) }

// Session holds the state of one opened folder.
type Session struct {
	relocator *relocate.Relocator
	preview   PreviewListener
	logger    *slog.Logger

	folder    string
	entries   []listing.Entry
	store     *tagstore.Store
	selection int
}

// New constructs a session with no folder open. preview may be nil.
func New(relocator *relocate.Relocator, preview PreviewListener, logger *slog.Logger) *Session {
	return &Session{
		relocator: relocator,
		preview:   preview,
		logger:    logging.NewComponentLogger(logger, "session"),
		store:     tagstore.New(),
		selection: navigation.NoSelection,
	}
}

// OpenFolder lists path and loads its sidecar. An empty listing is valid.
func (s *Session) OpenFolder(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return relocate.ErrNoFolderSelected
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve folder: %w", err)
	}
	if err := preflight.CheckFolder("Folder", abs).Err(); err != nil {
		return err
	}
	entries, err := listing.List(abs)
	if err != nil {
		return err
	}

	s.folder = abs
	s.entries = entries
	s.store = tagstore.Load(s.SidecarPath(), s.logger)
	s.selection = navigation.NoSelection

	s.logger.Debug("folder opened",
		logging.String(logging.FieldFolder, abs),
		logging.Int("entry_count", len(entries)),
		logging.Int("tracked_count", s.store.Len()))
	return nil
}

// Folder returns the open folder, or "".
func (s *Session) Folder() string { return s.folder }

// SidecarPath returns the tag sidecar location for the open folder.
func (s *Session) SidecarPath() string {
	if s.folder == "" {
		return ""
	}
	return filepath.Join(s.folder, tagstore.SidecarName)
}

// Entries returns the current listing.
func (s *Session) Entries() []listing.Entry { return s.entries }

// Tags returns the tags of filename.
func (s *Session) Tags(filename string) []string { return s.store.Tags(filename) }

// Selection returns the effective selection index, or navigation.NoSelection.
func (s *Session) Selection() int { return s.selection }

// ToggleOuttake flips the outtake state of filename's sibling group and
// saves the sidecar once. On a save failure the in-memory change is kept and
// the returned error wraps tagstore.ErrPersist.
func (s *Session) ToggleOuttake(filename string) (siblings.Change, error) {
	if s.folder == "" {
		return siblings.Change{}, relocate.ErrNoFolderSelected
	}
	idx := listing.Index(s.entries, filename)
	if idx < 0 {
		return siblings.Change{}, fmt.Errorf("%s: %w", filename, siblings.ErrNoSelection)
	}

	restore := s.selection
	change, err := siblings.Toggle(s.entries, idx, s.store)
	if err != nil {
		return change, err
	}
	s.selection = restore

	if err := s.store.Save(s.SidecarPath()); err != nil {
		logging.ErrorWithContext(s.logger, "failed to save tags", "tagstore_save_failed",
			logging.Error(err),
			logging.String(logging.FieldFile, filename),
			logging.String(logging.FieldErrorHint, "check that the folder is writable"))
		return change, err
	}

	logging.InfoEvent(s.logger, "outtake toggled", "outtake_toggled",
		logging.String(logging.FieldFile, filename),
		logging.Bool("added", change.Added),
		logging.Int("group_size", len(change.Rows)))
	return change, nil
}

// Navigate resolves a move from previous to next without changing state.
func (s *Session) Navigate(previous, next int) navigation.Result {
	return navigation.Resolve(s.entries, previous, next)
}

// Select moves the selection towards next and notifies the preview listener
// when the effective selection changed.
func (s *Session) Select(next int) (navigation.Result, error) {
	if s.folder == "" {
		return navigation.Result{Index: navigation.NoSelection}, relocate.ErrNoFolderSelected
	}
	return s.apply(navigation.Resolve(s.entries, s.selection, next)), nil
}

// Step moves the selection by delta rows.
func (s *Session) Step(delta int) (navigation.Result, error) {
	if s.folder == "" {
		return navigation.Result{Index: navigation.NoSelection}, relocate.ErrNoFolderSelected
	}
	return s.apply(navigation.Step(s.entries, s.selection, delta)), nil
}

func (s *Session) apply(result navigation.Result) navigation.Result {
	if !result.Changed {
		return result
	}
	s.selection = result.Index
	if result.Redirected {
		s.logger.Debug("skipped raw companion", logging.String(logging.FieldFile, s.entries[result.Index].Filename))
	}
	if s.preview != nil && !s.entries[result.Index].IsRaw {
		s.preview.EffectiveSelectionChanged(filepath.Join(s.folder, s.entries[result.Index].Filename))
	}
	return result
}

// MoveOuttakes relocates the tagged files into the folder's OUTTAKES
// directory, then reloads the listing. The listing is reloaded whenever the
// pass ran, including when the cleared tags could not be saved.
func (s *Session) MoveOuttakes(ctx context.Context) (relocate.Summary, error) {
	if s.folder == "" {
		return relocate.Summary{}, relocate.ErrNoFolderSelected
	}
	summary, err := s.relocator.Run(ctx, relocate.Request{
		Folder:      s.folder,
		Store:       s.store,
		SidecarPath: s.SidecarPath(),
	})
	if summary.RunID == "" {
		return summary, err
	}

	entries, listErr := listing.List(s.folder)
	if listErr != nil {
		logging.WarnWithContext(s.logger, "failed to reload folder", "folder_reload_failed",
			logging.Error(listErr),
			logging.String(logging.FieldErrorHint, "reopen the folder"),
			logging.String(logging.FieldImpact, "listing may show moved files"))
	} else {
		s.entries = entries
	}
	s.selection = navigation.NoSelection
	return summary, err
}
