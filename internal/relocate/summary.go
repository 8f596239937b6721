package relocate

import (
	"fmt"
	"time"
)

// File outcome statuses.
const (
	StatusVerified = "verified"
	StatusMismatch = "mismatch"
	StatusSkipped  = "skipped"
)

// FileResult is the outcome for one tagged file.
type FileResult struct {
	Filename        string `json:"filename"`
	Status          string `json:"status"`
	SourceHash      string `json:"source_hash,omitempty"`
	DestinationHash string `json:"destination_hash,omitempty"`
	Error           string `json:"error,omitempty"`
}

// Summary totals a relocation run. Processed counts files that existed;
// Skipped counts tagged files that were missing.
type Summary struct {
	RunID          string       `json:"run_id"`
	Folder         string       `json:"folder"`
	DestinationDir string       `json:"destination_dir"`
	HashAlgorithm  string       `json:"hash_algorithm"`
	StartedAt      time.Time    `json:"started_at"`
	FinishedAt     time.Time    `json:"finished_at"`
	Processed      int          `json:"processed"`
	Verified       int          `json:"verified"`
	Mismatched     int          `json:"mismatched"`
	Skipped        int          `json:"skipped"`
	Files          []FileResult `json:"files"`
}

func (s *Summary) add(result FileResult) {
	s.Files = append(s.Files, result)
	switch result.Status {
	case StatusSkipped:
		s.Skipped++
		return
	case StatusVerified:
		s.Verified++
	case StatusMismatch:
		s.Mismatched++
	}
	s.Processed++
}

// Warning returns the user-facing mismatch warning, or "" when every
// processed file verified.
func (s Summary) Warning() string {
	if s.Mismatched == 0 {
		return ""
	}
	noun := "files"
	if s.Mismatched == 1 {
		noun = "file"
	}
	return fmt.Sprintf("%d %s failed verification. The originals were NOT deleted for safety.", s.Mismatched, noun)
}
