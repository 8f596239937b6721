package session_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"outtake/internal/logging"
	"outtake/internal/preflight"
	"outtake/internal/relocate"
	"outtake/internal/session"
	"outtake/internal/tagstore"
	"outtake/internal/testsupport"
)

type previewRecorder struct {
	paths []string
}

func (p *previewRecorder) EffectiveSelectionChanged(path string) {
	p.paths = append(p.paths, filepath.Base(path))
}

func newSession(t *testing.T, preview session.PreviewListener) *session.Session {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	return session.New(relocate.New(relocate.OptionsFromConfig(cfg), nil, logging.NewNop()), preview, logging.NewNop())
}

func TestBurstScenarioEndToEnd(t *testing.T) {
	folder := testsupport.ImageFolder(t, "IMG001.jpg", "IMG001.nef", "IMG002.jpg")
	s := newSession(t, nil)
	if err := s.OpenFolder(folder); err != nil {
		t.Fatalf("OpenFolder failed: %v", err)
	}

	change, err := s.ToggleOuttake("IMG001.jpg")
	if err != nil {
		t.Fatalf("ToggleOuttake failed: %v", err)
	}
	if !change.Added || len(change.Rows) != 2 {
		t.Fatalf("unexpected change: %+v", change)
	}
	if !slices.Equal(s.Tags("IMG001.nef"), []string{tagstore.Outtake}) {
		t.Fatalf("expected RAW sibling tagged, got %v", s.Tags("IMG001.nef"))
	}
	reloaded := tagstore.Load(filepath.Join(folder, tagstore.SidecarName), nil)
	if got := reloaded.Tagged(tagstore.Outtake); !slices.Equal(got, []string{"IMG001.jpg", "IMG001.nef"}) {
		t.Fatalf("expected sidecar saved after toggle, got %v", got)
	}

	summary, err := s.MoveOuttakes(context.Background())
	if err != nil {
		t.Fatalf("MoveOuttakes failed: %v", err)
	}
	if summary.Processed != 2 || summary.Verified != 2 || summary.Mismatched != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	for _, name := range []string{"IMG001.jpg", "IMG001.nef"} {
		if !testsupport.Exists(t, filepath.Join(folder, relocate.DestinationName, name)) {
			t.Fatalf("expected %s in OUTTAKES", name)
		}
	}
	if len(s.Entries()) != 1 || s.Entries()[0].Filename != "IMG002.jpg" {
		t.Fatalf("expected listing reloaded, got %+v", s.Entries())
	}
	data, err := os.ReadFile(s.SidecarPath())
	if err != nil || string(data) != "{}" {
		t.Fatalf("expected empty sidecar, got %q (err=%v)", data, err)
	}
	if _, err := s.MoveOuttakes(context.Background()); !errors.Is(err, relocate.ErrNothingToMove) {
		t.Fatalf("expected ErrNothingToMove on second move, got %v", err)
	}
}

func TestSelectNotifiesOnlyForEffectiveSelection(t *testing.T) {
	folder := testsupport.ImageFolder(t, "A.jpg", "A.nef", "B.jpg")
	preview := &previewRecorder{}
	s := newSession(t, preview)
	if err := s.OpenFolder(folder); err != nil {
		t.Fatalf("OpenFolder failed: %v", err)
	}

	if _, err := s.Select(0); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	result, err := s.Select(1)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if !result.Redirected || s.Selection() != 2 {
		t.Fatalf("expected redirect to B.jpg, got %+v selection=%d", result, s.Selection())
	}
	if _, err := s.Select(2); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if _, err := s.Step(-1); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if s.Selection() != 0 {
		t.Fatalf("expected step back over RAW to 0, got %d", s.Selection())
	}
	if want := []string{"A.jpg", "B.jpg", "A.jpg"}; !slices.Equal(preview.paths, want) {
		t.Fatalf("unexpected previews: got %v want %v", preview.paths, want)
	}
}

func TestSelectStaysWhenOnlyRawAhead(t *testing.T) {
	folder := testsupport.ImageFolder(t, "A.jpg", "A.nef")
	preview := &previewRecorder{}
	s := newSession(t, preview)
	if err := s.OpenFolder(folder); err != nil {
		t.Fatalf("OpenFolder failed: %v", err)
	}
	if _, err := s.Select(0); err != nil {
		t.Fatal(err)
	}
	result, err := s.Select(1)
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed || s.Selection() != 0 {
		t.Fatalf("expected selection to stay at 0, got %+v", result)
	}
	if len(preview.paths) != 1 {
		t.Fatalf("expected a single preview, got %v", preview.paths)
	}
	if got := s.Navigate(0, 1); got.Changed {
		t.Fatalf("expected Navigate to agree, got %+v", got)
	}
}

func TestToggleKeepsSelection(t *testing.T) {
	folder := testsupport.ImageFolder(t, "A.jpg", "A.nef", "B.jpg")
	s := newSession(t, session.PreviewFunc(func(string) {}))
	if err := s.OpenFolder(folder); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Select(2); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ToggleOuttake("A.nef"); err != nil {
		t.Fatalf("ToggleOuttake failed: %v", err)
	}
	if s.Selection() != 2 {
		t.Fatalf("expected selection restored to 2, got %d", s.Selection())
	}
	if _, err := s.ToggleOuttake("missing.jpg"); err == nil {
		t.Fatal("expected error for unknown file")
	}
}

func TestReopenLoadsSidecar(t *testing.T) {
	folder := testsupport.ImageFolder(t, "A.jpg")
	s := newSession(t, nil)
	if err := s.OpenFolder(folder); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ToggleOuttake("A.jpg"); err != nil {
		t.Fatal(err)
	}

	other := newSession(t, nil)
	if err := other.OpenFolder(folder); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(other.Tags("A.jpg"), []string{tagstore.Outtake}) {
		t.Fatalf("expected tags loaded from sidecar, got %v", other.Tags("A.jpg"))
	}
	if other.Selection() != -1 {
		t.Fatalf("expected no selection after open, got %d", other.Selection())
	}
}

func TestToggleSaveFailureKeepsChange(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root bypasses permission bits")
	}
	folder := testsupport.ImageFolder(t, "A.jpg")
	s := newSession(t, nil)
	if err := s.OpenFolder(folder); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(folder, 0o555); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(folder, 0o755) })

	if _, err := s.ToggleOuttake("A.jpg"); !errors.Is(err, tagstore.ErrPersist) {
		t.Fatalf("expected ErrPersist, got %v", err)
	}
	if !slices.Equal(s.Tags("A.jpg"), []string{tagstore.Outtake}) {
		t.Fatal("expected in-memory change kept after save failure")
	}
}

func TestCommandsWithoutFolder(t *testing.T) {
	s := newSession(t, nil)
	if _, err := s.ToggleOuttake("A.jpg"); !errors.Is(err, relocate.ErrNoFolderSelected) {
		t.Fatalf("toggle: expected ErrNoFolderSelected, got %v", err)
	}
	if _, err := s.MoveOuttakes(context.Background()); !errors.Is(err, relocate.ErrNoFolderSelected) {
		t.Fatalf("move: expected ErrNoFolderSelected, got %v", err)
	}
	if _, err := s.Select(0); !errors.Is(err, relocate.ErrNoFolderSelected) {
		t.Fatalf("select: expected ErrNoFolderSelected, got %v", err)
	}
	if err := s.OpenFolder(filepath.Join(t.TempDir(), "missing")); !errors.Is(err, preflight.ErrFolderAccess) {
		t.Fatalf("open: expected ErrFolderAccess, got %v", err)
	}
}

func TestOpenEmptyFolder(t *testing.T) {
	s := newSession(t, nil)
	if err := s.OpenFolder(t.TempDir()); err != nil {
		t.Fatalf("expected empty folder to open, got %v", err)
	}
	if len(s.Entries()) != 0 {
		t.Fatalf("expected no entries, got %+v", s.Entries())
	}
}
