package relocate_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"outtake/internal/config"
	"outtake/internal/fileutil"
	"outtake/internal/logging"
	"outtake/internal/relocate"
	"outtake/internal/tagstore"
	"outtake/internal/testsupport"
)

type recorderStub struct {
	runs []relocate.Summary
	err  error
}

func (r *recorderStub) RecordRun(_ context.Context, summary relocate.Summary) error {
	r.runs = append(r.runs, summary)
	return r.err
}

func writeImages(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("pixels of "+name), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func tagged(names ...string) *tagstore.Store {
	store := tagstore.New()
	for _, name := range names {
		store.SetTags(name, []string{tagstore.Outtake})
	}
	return store
}

func newRelocator(recorder relocate.Recorder) *relocate.Relocator {
	return relocate.New(relocate.Options{HashAlgorithm: config.HashSHA1, PreserveMetadata: true}, recorder, logging.NewNop())
}

func exists(t *testing.T, path string) bool {
	t.Helper()
	_, err := os.Stat(path)
	return err == nil
}

func TestRunMovesVerifiedGroup(t *testing.T) {
	folder := t.TempDir()
	writeImages(t, folder, "IMG001.jpg", "IMG001.nef", "IMG002.jpg")
	store := tagged("IMG001.jpg", "IMG001.nef")
	store.SetTags("IMG002.jpg", nil)
	recorder := &recorderStub{}

	summary, err := newRelocator(recorder).Run(context.Background(), relocate.Request{Folder: folder, Store: store})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Processed != 2 || summary.Verified != 2 || summary.Mismatched != 0 || summary.Skipped != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.Warning() != "" {
		t.Fatalf("expected no warning, got %q", summary.Warning())
	}
	for _, name := range []string{"IMG001.jpg", "IMG001.nef"} {
		if exists(t, filepath.Join(folder, name)) {
			t.Fatalf("expected %s removed from folder", name)
		}
		if !exists(t, filepath.Join(folder, relocate.DestinationName, name)) {
			t.Fatalf("expected %s in OUTTAKES", name)
		}
	}
	if !exists(t, filepath.Join(folder, "IMG002.jpg")) {
		t.Fatal("expected untagged file left in place")
	}
	if store.Len() != 0 {
		t.Fatalf("expected store cleared, got %v", store.Files())
	}
	data, err := os.ReadFile(filepath.Join(folder, tagstore.SidecarName))
	if err != nil {
		t.Fatalf("read sidecar: %v", err)
	}
	if string(data) != "{}" {
		t.Fatalf("expected empty sidecar, got %q", data)
	}
	if len(recorder.runs) != 1 || recorder.runs[0].RunID != summary.RunID {
		t.Fatalf("expected run journaled, got %+v", recorder.runs)
	}
}

func TestRunHonoursConfiguredDigest(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithHashAlgorithm(config.HashSHA256))
	folder := filepath.Join(testsupport.BaseDir(cfg), "shoot")
	testsupport.WriteFile(t, filepath.Join(folder, "PANO.jpg"), 200*1024)

	r := relocate.New(relocate.OptionsFromConfig(cfg), nil, logging.NewNop())
	summary, err := r.Run(context.Background(), relocate.Request{Folder: folder, Store: tagged("PANO.jpg")})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.HashAlgorithm != config.HashSHA256 || summary.Verified != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	file := summary.Files[0]
	if len(file.SourceHash) != 64 || file.SourceHash != file.DestinationHash {
		t.Fatalf("expected matching sha256 digests, got %+v", file)
	}
	info, err := os.Stat(filepath.Join(folder, relocate.DestinationName, "PANO.jpg"))
	if err != nil || info.Size() != 200*1024 {
		t.Fatalf("expected full copy in OUTTAKES, got info=%v err=%v", info, err)
	}
}

func TestRunMismatchKeepsOriginal(t *testing.T) {
	folder := t.TempDir()
	writeImages(t, folder, "X.jpg", "Y.jpg")
	store := tagged("X.jpg", "Y.jpg")

	restore := relocate.SetCopyForTests(func(src, dst string, preserve bool) error {
		if filepath.Base(src) == "Y.jpg" {
			return os.WriteFile(dst, []byte("corrupted"), 0o644)
		}
		return fileutil.CopyFile(src, dst, preserve)
	})
	defer restore()

	summary, err := newRelocator(nil).Run(context.Background(), relocate.Request{Folder: folder, Store: store})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Verified != 1 || summary.Mismatched != 1 || summary.Processed != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if exists(t, filepath.Join(folder, "X.jpg")) {
		t.Fatal("expected X.jpg removed after verified copy")
	}
	if !exists(t, filepath.Join(folder, "Y.jpg")) || !exists(t, filepath.Join(folder, relocate.DestinationName, "Y.jpg")) {
		t.Fatal("expected Y.jpg present in both locations")
	}
	if summary.Files[1].Status != relocate.StatusMismatch || summary.Files[1].SourceHash == summary.Files[1].DestinationHash {
		t.Fatalf("unexpected Y result: %+v", summary.Files[1])
	}
	want := "1 file failed verification. The originals were NOT deleted for safety."
	if summary.Warning() != want {
		t.Fatalf("unexpected warning: got %q want %q", summary.Warning(), want)
	}
	if store.Len() != 0 {
		t.Fatal("expected store cleared even with mismatches")
	}
}

func TestRunHardlinkedDestinationKeepsSource(t *testing.T) {
	folder := t.TempDir()
	writeImages(t, folder, "a.jpg")
	dest := filepath.Join(folder, relocate.DestinationName)
	if err := os.Mkdir(dest, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Link(filepath.Join(folder, "a.jpg"), filepath.Join(dest, "a.jpg")); err != nil {
		t.Skipf("hardlinks unsupported: %v", err)
	}

	summary, err := newRelocator(nil).Run(context.Background(), relocate.Request{Folder: folder, Store: tagged("a.jpg")})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Verified != 0 || summary.Mismatched != 1 {
		t.Fatalf("expected one mismatch, got %+v", summary)
	}
	data, err := os.ReadFile(filepath.Join(folder, "a.jpg"))
	if err != nil || string(data) != "pixels of a.jpg" {
		t.Fatalf("expected source content intact, got %q (err=%v)", data, err)
	}
	if !strings.Contains(summary.Files[0].Error, fileutil.ErrSameFile.Error()) {
		t.Fatalf("expected same-file copy error recorded, got %+v", summary.Files[0])
	}
}

func TestRunSkipsNamesOutsideFolder(t *testing.T) {
	base := t.TempDir()
	folder := filepath.Join(base, "shoot")
	if err := os.Mkdir(folder, 0o755); err != nil {
		t.Fatal(err)
	}
	writeImages(t, base, "outside.jpg")
	writeImages(t, folder, "inside.jpg")
	store := tagged("../outside.jpg", "sub/inside.jpg", "..", "inside.jpg")

	summary, err := newRelocator(nil).Run(context.Background(), relocate.Request{Folder: folder, Store: store})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Skipped != 3 || summary.Verified != 1 || summary.Processed != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	for _, file := range summary.Files[:3] {
		if file.Status != relocate.StatusSkipped || !strings.Contains(file.Error, relocate.ErrInvalidFilename.Error()) {
			t.Fatalf("expected %q skipped as invalid, got %+v", file.Filename, file)
		}
	}
	if !exists(t, filepath.Join(base, "outside.jpg")) {
		t.Fatal("expected file outside the folder untouched")
	}
	if exists(t, filepath.Join(base, relocate.DestinationName)) {
		t.Fatal("expected nothing created outside the folder")
	}
}

func TestRunCopyAndHashFailuresAreMismatches(t *testing.T) {
	folder := t.TempDir()
	writeImages(t, folder, "A.jpg", "B.jpg")
	store := tagged("A.jpg", "B.jpg")

	restoreCopy := relocate.SetCopyForTests(func(src, dst string, preserve bool) error {
		if filepath.Base(src) == "A.jpg" {
			return errors.New("disk full")
		}
		return fileutil.CopyFile(src, dst, preserve)
	})
	defer restoreCopy()
	restoreHash := relocate.SetHashForTests(func(string, string) string { return "" })
	defer restoreHash()

	summary, err := newRelocator(nil).Run(context.Background(), relocate.Request{Folder: folder, Store: store})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Mismatched != 2 || summary.Verified != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.Files[0].Error == "" {
		t.Fatal("expected copy error recorded")
	}
	for _, name := range []string{"A.jpg", "B.jpg"} {
		if !exists(t, filepath.Join(folder, name)) {
			t.Fatalf("expected %s kept on uncertain verification", name)
		}
	}
}

func TestRunSkipsMissingSources(t *testing.T) {
	folder := t.TempDir()
	writeImages(t, folder, "present.jpg")
	store := tagged("gone.jpg", "present.jpg")

	summary, err := newRelocator(nil).Run(context.Background(), relocate.Request{Folder: folder, Store: store})
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if summary.Processed != 1 || summary.Skipped != 1 || summary.Verified != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.Files[0].Status != relocate.StatusSkipped {
		t.Fatalf("expected first file skipped, got %+v", summary.Files[0])
	}
}

func TestRunPreconditions(t *testing.T) {
	r := newRelocator(nil)
	if _, err := r.Run(context.Background(), relocate.Request{Store: tagged("a.jpg")}); !errors.Is(err, relocate.ErrNoFolderSelected) {
		t.Fatalf("expected ErrNoFolderSelected, got %v", err)
	}

	store := tagstore.New()
	store.SetTags("a.jpg", []string{"favourite"})
	if _, err := r.Run(context.Background(), relocate.Request{Folder: t.TempDir(), Store: store}); !errors.Is(err, relocate.ErrNothingToMove) {
		t.Fatalf("expected ErrNothingToMove, got %v", err)
	}
}

func TestRunDestinationFailureKeepsTags(t *testing.T) {
	folder := t.TempDir()
	writeImages(t, folder, "a.jpg")
	blocker := filepath.Join(folder, "blocker")
	if err := os.WriteFile(blocker, []byte("file"), 0o644); err != nil {
		t.Fatal(err)
	}
	store := tagged("a.jpg")

	_, err := newRelocator(nil).Run(context.Background(), relocate.Request{
		Folder:         folder,
		DestinationDir: filepath.Join(blocker, relocate.DestinationName),
		Store:          store,
	})
	if !errors.Is(err, relocate.ErrCreateDestination) {
		t.Fatalf("expected ErrCreateDestination, got %v", err)
	}
	if !store.Has("a.jpg", tagstore.Outtake) {
		t.Fatal("expected tags kept when destination cannot be created")
	}
	if !exists(t, filepath.Join(folder, "a.jpg")) {
		t.Fatal("expected source untouched")
	}
}

func TestRunReadOnlyFolderIsDestinationFailure(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	folder := t.TempDir()
	writeImages(t, folder, "a.jpg")
	if err := os.Chmod(folder, 0o555); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(folder, 0o755) })
	store := tagged("a.jpg")

	_, err := newRelocator(nil).Run(context.Background(), relocate.Request{Folder: folder, Store: store})
	if !errors.Is(err, relocate.ErrCreateDestination) {
		t.Fatalf("expected ErrCreateDestination, got %v", err)
	}
	entries, err := os.ReadDir(folder)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "a.jpg" {
		t.Fatalf("expected folder left as-is, got %v", entries)
	}
}

func TestRunLeavesNoLockFileInFolder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	folder := testsupport.ImageFolder(t, "a.jpg", "b.jpg")

	r := relocate.New(relocate.OptionsFromConfig(cfg), nil, logging.NewNop())
	if _, err := r.Run(context.Background(), relocate.Request{Folder: folder, Store: tagged("a.jpg")}); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	entries, err := os.ReadDir(folder)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	want := []string{tagstore.SidecarName, relocate.DestinationName, "b.jpg"}
	if !slices.Equal(names, want) {
		t.Fatalf("unexpected folder contents: got %v want %v", names, want)
	}
	if !exists(t, relocate.LockPath(cfg.LockDir(), folder)) {
		t.Fatal("expected lock file under the state directory")
	}
}

func TestRunPersistFailureReturnsSummary(t *testing.T) {
	folder := t.TempDir()
	writeImages(t, folder, "a.jpg")
	store := tagged("a.jpg")

	summary, err := newRelocator(nil).Run(context.Background(), relocate.Request{
		Folder:      folder,
		Store:       store,
		SidecarPath: filepath.Join(folder, "missing", tagstore.SidecarName),
	})
	if !errors.Is(err, tagstore.ErrPersist) {
		t.Fatalf("expected ErrPersist, got %v", err)
	}
	if summary.Verified != 1 {
		t.Fatalf("expected complete summary alongside error, got %+v", summary)
	}
}

func TestRunRejectsConcurrentRuns(t *testing.T) {
	folder := t.TempDir()
	writeImages(t, folder, "a.jpg")

	held := flock.New(relocate.LockPath("", folder))
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("hold lock: ok=%v err=%v", ok, err)
	}
	r := newRelocator(nil)
	if _, err := r.Run(context.Background(), relocate.Request{Folder: folder, Store: tagged("a.jpg")}); !errors.Is(err, relocate.ErrRelocationInProgress) {
		t.Fatalf("expected ErrRelocationInProgress with folder lock held, got %v", err)
	}
	if err := held.Unlock(); err != nil {
		t.Fatal(err)
	}

	var nestedErr error
	restore := relocate.SetCopyForTests(func(src, dst string, preserve bool) error {
		_, nestedErr = r.Run(context.Background(), relocate.Request{Folder: folder, Store: tagged("a.jpg")})
		return fileutil.CopyFile(src, dst, preserve)
	})
	defer restore()

	if _, err := r.Run(context.Background(), relocate.Request{Folder: folder, Store: tagged("a.jpg")}); err != nil {
		t.Fatalf("outer Run returned error: %v", err)
	}
	if !errors.Is(nestedErr, relocate.ErrRelocationInProgress) {
		t.Fatalf("expected nested run rejected, got %v", nestedErr)
	}
	if r.Running() {
		t.Fatal("expected guard released after run")
	}
}

func TestRunRecorderFailureIsNotFatal(t *testing.T) {
	folder := t.TempDir()
	writeImages(t, folder, "a.jpg")
	recorder := &recorderStub{err: errors.New("database locked")}

	if _, err := newRelocator(recorder).Run(context.Background(), relocate.Request{Folder: folder, Store: tagged("a.jpg")}); err != nil {
		t.Fatalf("expected journal failure swallowed, got %v", err)
	}
}
