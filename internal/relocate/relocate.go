package relocate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"outtake/internal/config"
	"outtake/internal/fileutil"
	"outtake/internal/logging"
	"outtake/internal/preflight"
	"outtake/internal/tagstore"
)

// DestinationName is the subdirectory outtakes are moved into.
const DestinationName = "OUTTAKES"

// ErrInvalidFilename marks a tagged name that is not a plain entry of the
// opened folder. Such files are skipped.
var ErrInvalidFilename = errors.New("tagged name is not a file in the folder")

var (
	// ErrNoFolderSelected is returned when no folder is open.
	ErrNoFolderSelected = errors.New("no folder selected")
	// ErrNothingToMove is returned when no file carries the outtake tag.
	ErrNothingToMove = errors.New("no files tagged as outtakes")
	// ErrCreateDestination is returned when the OUTTAKES directory cannot be
	// created or written. Tags are left untouched.
	ErrCreateDestination = errors.New("create destination directory")
	// ErrRelocationInProgress is returned when another run holds the guard.
	ErrRelocationInProgress = errors.New("relocation already in progress")
)

var (
	copyFile = fileutil.CopyFile
	hashFile = fileutil.Digest
)

// Recorder persists the outcome of a run. Failures are logged, never returned.
type Recorder interface {
	RecordRun(ctx context.Context, summary Summary) error
}

// Options configures the verified copy.
type Options struct {
	HashAlgorithm    string
	PreserveMetadata bool
	// LockDir holds the per-folder lock files. Empty means os.TempDir().
	LockDir string
}

// OptionsFromConfig extracts relocation options from cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	if cfg == nil {
		return Options{HashAlgorithm: config.HashSHA1, PreserveMetadata: true}
	}
	return Options{
		HashAlgorithm:    cfg.Relocation.HashAlgorithm,
		PreserveMetadata: cfg.Relocation.PreserveMetadata,
		LockDir:          cfg.LockDir(),
	}
}

// LockPath returns the lock file guarding relocations out of folder. The name
// is derived from the absolute folder path so the folder itself is never
// written to.
func LockPath(lockDir, folder string) string {
	if lockDir == "" {
		lockDir = os.TempDir()
	}
	if abs, err := filepath.Abs(folder); err == nil {
		folder = abs
	}
	key := uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.Clean(folder)))
	return filepath.Join(lockDir, "relocate-"+key.String()+".lock")
}

// Request names the folder and tag store for one run.
type Request struct {
	Folder string
	// DestinationDir defaults to Folder/OUTTAKES.
	DestinationDir string
	Store          *tagstore.Store
	// SidecarPath defaults to Folder/.image_tags.json.
	SidecarPath string
}

// Relocator performs verified outtake moves.
type Relocator struct {
	opts     Options
	recorder Recorder
	logger   *slog.Logger
	running  atomic.Bool
}

// New constructs a Relocator. recorder may be nil.
func New(opts Options, recorder Recorder, logger *slog.Logger) *Relocator {
	return &Relocator{
		opts:     opts,
		recorder: recorder,
		logger:   logging.NewComponentLogger(logger, "relocate"),
	}
}

// Run relocates every outtake-tagged file listed in req.Store. The returned
// summary is complete whenever the pass ran; a non-nil error alongside it
// means the cleared tags could not be persisted.
func (r *Relocator) Run(ctx context.Context, req Request) (Summary, error) {
	folder := strings.TrimSpace(req.Folder)
	if folder == "" || req.Store == nil {
		return Summary{}, ErrNoFolderSelected
	}
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}

	targets := req.Store.Tagged(tagstore.Outtake)
	if len(targets) == 0 {
		return Summary{}, ErrNothingToMove
	}

	if !r.running.CompareAndSwap(false, true) {
		return Summary{}, ErrRelocationInProgress
	}
	defer r.running.Store(false)

	lockPath := LockPath(r.opts.LockDir, folder)
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return Summary{}, fmt.Errorf("create lock directory: %w", err)
	}
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return Summary{}, fmt.Errorf("acquire relocation lock: %w", err)
	}
	if !locked {
		return Summary{}, ErrRelocationInProgress
	}
	defer func() {
		_ = lock.Unlock()
	}()

	destination := req.DestinationDir
	if destination == "" {
		destination = filepath.Join(folder, DestinationName)
	}
	sidecar := req.SidecarPath
	if sidecar == "" {
		sidecar = filepath.Join(folder, tagstore.SidecarName)
	}

	summary := Summary{
		RunID:          uuid.NewString(),
		Folder:         folder,
		DestinationDir: destination,
		HashAlgorithm:  r.opts.HashAlgorithm,
		StartedAt:      time.Now().UTC(),
	}
	ctx = logging.WithFolder(logging.WithRunID(ctx, summary.RunID), folder)
	logger := logging.WithContext(ctx, r.logger)

	if err := ensureDestination(destination); err != nil {
		logging.ErrorWithContext(logger, "cannot prepare outtakes directory", "relocation_destination_failed",
			logging.Error(err),
			logging.String("destination_path", destination),
			logging.String(logging.FieldErrorHint, "check folder permissions and free space"))
		return Summary{}, err
	}

	logger.Debug("relocation started", logging.Int("tagged", len(targets)))

	for _, filename := range targets {
		result := r.relocateOne(logger, folder, destination, filename)
		summary.add(result)
	}
	summary.FinishedAt = time.Now().UTC()

	req.Store.Clear()
	persistErr := req.Store.Save(sidecar)
	if persistErr != nil {
		logging.ErrorWithContext(logger, "failed to persist cleared tags", "tagstore_save_failed",
			logging.Error(persistErr),
			logging.String("sidecar_path", sidecar),
			logging.String(logging.FieldErrorHint, "stale outtake tags may remain in the sidecar"))
	}

	r.record(ctx, logger, summary)

	if summary.Mismatched > 0 {
		logging.WarnWithContext(logger, "some outtakes failed verification", "relocation_mismatch",
			logging.Int("mismatched", summary.Mismatched),
			logging.String(logging.FieldErrorHint, "compare the files kept in both places"),
			logging.String(logging.FieldImpact, "originals were not deleted"))
	}
	logging.InfoEvent(logger, "relocation completed", "relocation_completed",
		logging.Int("processed", summary.Processed),
		logging.Int("verified", summary.Verified),
		logging.Int("mismatched", summary.Mismatched),
		logging.Int("skipped", summary.Skipped),
		logging.Duration("duration", summary.FinishedAt.Sub(summary.StartedAt)))

	return summary, persistErr
}

// Running reports whether a relocation is in flight on this Relocator.
func (r *Relocator) Running() bool {
	return r.running.Load()
}

func ensureDestination(destination string) error {
	if err := os.MkdirAll(destination, 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrCreateDestination, err)
	}
	if err := preflight.CheckWritable("Outtakes directory", destination).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCreateDestination, err)
	}
	return nil
}

// plainName reports whether filename names an entry directly inside a folder.
func plainName(filename string) bool {
	if filename == "" || filename == "." || filename == ".." {
		return false
	}
	return filepath.Base(filename) == filename && !strings.ContainsRune(filename, '/')
}

func (r *Relocator) relocateOne(logger *slog.Logger, folder, destination, filename string) FileResult {
	result := FileResult{Filename: filename}
	logger = logger.With(logging.String(logging.FieldFile, filename))
	if !plainName(filename) {
		result.Status = StatusSkipped
		result.Error = fmt.Sprintf("%v: %q", ErrInvalidFilename, filename)
		logging.WarnWithContext(logger, "tagged name escapes the folder, skipping", "relocation_invalid_name",
			logging.String(logging.FieldErrorHint, "remove the entry from the tag sidecar"),
			logging.String(logging.FieldImpact, "nothing outside the folder is touched"))
		return result
	}
	src := filepath.Join(folder, filename)
	dst := filepath.Join(destination, filename)

	if _, err := os.Stat(src); err != nil {
		result.Status = StatusSkipped
		result.Error = err.Error()
		logger.Debug("tagged file missing, skipping", logging.Error(err))
		return result
	}

	result.SourceHash = hashFile(src, r.opts.HashAlgorithm)
	if err := copyFile(src, dst, r.opts.PreserveMetadata); err != nil {
		result.Status = StatusMismatch
		result.Error = fmt.Sprintf("copy: %v", err)
		logging.WarnWithContext(logger, "copy failed, original kept", "relocation_copy_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check free space in the outtakes directory"),
			logging.String(logging.FieldImpact, "original kept in place"))
		return result
	}
	result.DestinationHash = hashFile(dst, r.opts.HashAlgorithm)

	if result.SourceHash == "" || result.SourceHash != result.DestinationHash {
		result.Status = StatusMismatch
		logging.WarnWithContext(logger, "hash mismatch, original kept", "relocation_hash_mismatch",
			logging.String("source_hash", result.SourceHash),
			logging.String("destination_hash", result.DestinationHash),
			logging.String(logging.FieldErrorHint, "compare the two copies before deleting either"),
			logging.String(logging.FieldImpact, "file present in both locations"))
		return result
	}

	if err := os.Remove(src); err != nil {
		result.Status = StatusMismatch
		result.Error = fmt.Sprintf("delete source: %v", err)
		logging.WarnWithContext(logger, "verified copy but could not delete original", "relocation_delete_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check folder permissions"),
			logging.String(logging.FieldImpact, "file present in both locations"))
		return result
	}

	result.Status = StatusVerified
	logger.Debug("outtake relocated", logging.String("destination_path", dst))
	return result
}

func (r *Relocator) record(ctx context.Context, logger *slog.Logger, summary Summary) {
	if r.recorder == nil {
		return
	}
	if err := r.recorder.RecordRun(ctx, summary); err != nil {
		logging.WarnWithContext(logger, "failed to journal relocation", "journal_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check state_dir permissions"),
			logging.String(logging.FieldImpact, "run missing from history"))
	}
}
