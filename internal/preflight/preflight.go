package preflight

import (
	"errors"
	"fmt"

	"outtake/internal/config"
)

// ErrFolderAccess wraps every failed check surfaced as an error.
var ErrFolderAccess = errors.New("folder not accessible")

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Err returns nil for a passed check and an error wrapping ErrFolderAccess otherwise.
func (r Result) Err() error {
	if r.Passed {
		return nil
	}
	return fmt.Errorf("%w: %s: %s", ErrFolderAccess, r.Name, r.Detail)
}

// RunAll checks the directories outtake writes on its own behalf. Directories
// that do not exist yet are reported as failures; EnsureDirectories creates them.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{CheckWritable("State directory", cfg.Paths.StateDir)}
	if cfg.Logging.File {
		results = append(results, CheckWritable("Log directory", cfg.Paths.LogDir))
	}
	return results
}
