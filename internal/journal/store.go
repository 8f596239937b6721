package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"outtake/internal/config"
	"outtake/internal/relocate"
)

var (
	// ErrRunNotFound is returned when no run matches the requested ID.
	ErrRunNotFound = errors.New("run not found")
	// ErrAmbiguousRun is returned when a run ID prefix matches several runs.
	ErrAmbiguousRun = errors.New("run id prefix is ambiguous")
)

// Run is one journaled relocation.
type Run struct {
	RunID          string    `json:"run_id"`
	Folder         string    `json:"folder"`
	DestinationDir string    `json:"destination_dir"`
	HashAlgorithm  string    `json:"hash_algorithm"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
	Processed      int       `json:"processed"`
	Verified       int       `json:"verified"`
	Mismatched     int       `json:"mismatched"`
	Skipped        int       `json:"skipped"`
}

// Store persists relocation runs in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens the journal at cfg.JournalPath, creating the state directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.JournalPath())
}

// OpenPath opens or creates the journal database at path.
func OpenPath(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// RecordRun stores a relocation summary and its per-file outcomes.
func (s *Store) RecordRun(ctx context.Context, summary relocate.Summary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin run tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (
            run_id, folder, destination_dir, hash_algorithm, started_at, finished_at,
            processed, verified, mismatched, skipped
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		summary.RunID,
		summary.Folder,
		summary.DestinationDir,
		summary.HashAlgorithm,
		formatTime(summary.StartedAt),
		formatTime(summary.FinishedAt),
		summary.Processed,
		summary.Verified,
		summary.Mismatched,
		summary.Skipped,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, file := range summary.Files {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO run_files (
                run_id, position, filename, status, source_hash, destination_hash, error_message
            ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			summary.RunID,
			i,
			file.Filename,
			file.Status,
			nullableString(file.SourceHash),
			nullableString(file.DestinationHash),
			nullableString(file.Error),
		)
		if err != nil {
			return fmt.Errorf("insert run file %s: %w", file.Filename, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

const runColumns = "run_id, folder, destination_dir, hash_algorithm, started_at, finished_at, processed, verified, mismatched, skipped"

// Runs returns the most recent runs, newest first. limit <= 0 returns all.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	query := "SELECT " + runColumns + " FROM runs ORDER BY started_at DESC, run_id"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// FindRun resolves a full run ID or a unique prefix of one.
func (s *Store) FindRun(ctx context.Context, idOrPrefix string) (Run, error) {
	idOrPrefix = strings.TrimSpace(idOrPrefix)
	if idOrPrefix == "" {
		return Run{}, ErrRunNotFound
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs WHERE run_id = ? OR substr(run_id, 1, ?) = ? LIMIT 2",
		idOrPrefix, len(idOrPrefix), idOrPrefix)
	if err != nil {
		return Run{}, fmt.Errorf("query run: %w", err)
	}
	defer rows.Close()

	var matches []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return Run{}, err
		}
		if run.RunID == idOrPrefix {
			return run, nil
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return Run{}, err
	}
	switch len(matches) {
	case 0:
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, idOrPrefix)
	case 1:
		return matches[0], nil
	default:
		return Run{}, fmt.Errorf("%w: %s", ErrAmbiguousRun, idOrPrefix)
	}
}

// Files returns the per-file outcomes of a run in visit order.
func (s *Store) Files(ctx context.Context, runID string) ([]relocate.FileResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT filename, status, source_hash, destination_hash, error_message
         FROM run_files WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run files: %w", err)
	}
	defer rows.Close()

	var files []relocate.FileResult
	for rows.Next() {
		var file relocate.FileResult
		var sourceHash, destHash, errorMessage sql.NullString
		if err := rows.Scan(&file.Filename, &file.Status, &sourceHash, &destHash, &errorMessage); err != nil {
			return nil, fmt.Errorf("scan run file: %w", err)
		}
		file.SourceHash = sourceHash.String
		file.DestinationHash = destHash.String
		file.Error = errorMessage.String
		files = append(files, file)
	}
	return files, rows.Err()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (Run, error) {
	var run Run
	var startedRaw, finishedRaw string
	if err := scanner.Scan(
		&run.RunID,
		&run.Folder,
		&run.DestinationDir,
		&run.HashAlgorithm,
		&startedRaw,
		&finishedRaw,
		&run.Processed,
		&run.Verified,
		&run.Mismatched,
		&run.Skipped,
	); err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.StartedAt = parseTime(startedRaw)
	run.FinishedAt = parseTime(finishedRaw)
	return run, nil
}

// timeLayout is fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
