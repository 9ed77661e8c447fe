package contract

import (
	"errors"
	"fmt"
)

// ErrBatchTooLarge is returned when a caller hands the store more rows than one batch may hold.
var ErrBatchTooLarge = errors.New("batch exceeds maximum size")

// ProcessFailure means git ran but exited with a non-zero status.
type ProcessFailure struct {
	Path     string
	ExitCode int
	Stderr   string
}

func (e *ProcessFailure) Error() string {
	return fmt.Sprintf("git log for %q exited with status %d: %s", e.Path, e.ExitCode, e.Stderr)
}

// ExecutionError means git could not be started at all.
type ExecutionError struct {
	Path  string
	Cause error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("failed to run git for %q: %v. Ensure Git is installed and available on your PATH", e.Path, e.Cause)
}

func (e *ExecutionError) Unwrap() error { return e.Cause }

// SetupFailure is fatal: the run cannot start.
type SetupFailure struct {
	Stage string
	Err   error
}

func (e *SetupFailure) Error() string {
	return fmt.Sprintf("setup failed during %s: %v", e.Stage, e.Err)
}

func (e *SetupFailure) Unwrap() error { return e.Err }

// PersistenceFailure is a batch that was rolled back.
type PersistenceFailure struct {
	Op      string
	BatchID string
	Size    int
	Err     error
}

func (e *PersistenceFailure) Error() string {
	return fmt.Sprintf("failed to persist %s batch %s (%d rows): %v", e.Op, e.BatchID, e.Size, e.Err)
}

func (e *PersistenceFailure) Unwrap() error { return e.Err }
