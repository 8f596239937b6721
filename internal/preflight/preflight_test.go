package preflight

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"outtake/internal/config"
)

func TestCheckFolder_OK(t *testing.T) {
	result := CheckFolder("Folder", t.TempDir())
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
	if result.Err() != nil {
		t.Fatalf("expected nil error, got %v", result.Err())
	}
}

func TestCheckFolder_NotExist(t *testing.T) {
	result := CheckFolder("Folder", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !errors.Is(result.Err(), ErrFolderAccess) {
		t.Fatalf("expected ErrFolderAccess, got %v", result.Err())
	}
}

func TestCheckFolder_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "IMG001.jpg")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if CheckFolder("Folder", f).Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckWritable_ReadOnly(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root bypasses permission bits")
	}
	dir := filepath.Join(t.TempDir(), "ro")
	if err := os.Mkdir(dir, 0o555); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	if !CheckFolder("Folder", dir).Passed {
		t.Fatal("expected read-only dir to pass folder check")
	}
	if CheckWritable("Destination", dir).Passed {
		t.Fatal("expected read-only dir to fail writable check")
	}
}

func TestRunAll(t *testing.T) {
	cfg := config.Default()
	base := t.TempDir()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	results := RunAll(&cfg)
	if len(results) != 2 {
		t.Fatalf("expected state and log checks, got %d", len(results))
	}
	for _, r := range results {
		if r.Passed {
			t.Fatalf("expected %s to fail before directories exist", r.Name)
		}
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	for _, r := range RunAll(&cfg) {
		if !r.Passed {
			t.Fatalf("expected %s to pass: %s", r.Name, r.Detail)
		}
	}

	cfg.Logging.File = false
	if got := len(RunAll(&cfg)); got != 1 {
		t.Fatalf("expected only state check without file logging, got %d", got)
	}
}
