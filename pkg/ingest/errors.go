package ingest

import (
	"errors"
	"fmt"
)

var (
	// ErrQueueClosed is returned by Queue operations after Close.
	ErrQueueClosed = errors.New("report queue closed")

	// ErrUnknownReportType is returned when no factory is registered for a type.
	ErrUnknownReportType = errors.New("unknown report type")

	// ErrNoRules is returned when a session is configured without rules.
	ErrNoRules = errors.New("no report rules configured")

	// ErrAlreadyRunning is returned when Run is called on a running watcher.
	ErrAlreadyRunning = errors.New("watcher is already running")

	// ErrInvalidInterval is returned for a negative scan interval. Zero
	// selects DefaultScanInterval.
	ErrInvalidInterval = errors.New("scan interval must not be negative")
)

// ParsingError is a structural problem in a report file. It is terminal: the
// file is not parsed again until it changes on disk.
type ParsingError struct {
	Path string
	Err  error
}

// NewParsingError wraps err as a ParsingError for path.
func NewParsingError(path string, err error) *ParsingError {
	return &ParsingError{Path: path, Err: err}
}

func (e *ParsingError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParsingError) Unwrap() error { return e.Err }

// PanicError carries a panic recovered while a parser was running.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("parser panicked: %v", e.Value)
}
