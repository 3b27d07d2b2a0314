package ingest

import (
	"io/fs"
	"time"
)

// ReportState is the processing state of a single report file.
type ReportState int

const (
	StateDiscovered ReportState = iota
	StateQueued
	StateProcessing
	StateProcessed
	StateError
)

func (s ReportState) String() string {
	switch s {
	case StateDiscovered:
		return "discovered"
	case StateQueued:
		return "queued"
	case StateProcessing:
		return "processing"
	case StateProcessed:
		return "processed"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Busy reports whether the file is waiting in the queue or being parsed.
func (s ReportState) Busy() bool {
	return s == StateQueued || s == StateProcessing
}

// Snapshot identifies a version of a file on disk.
type Snapshot struct {
	Size    int64
	ModTime time.Time
}

// SnapshotOf builds a Snapshot from file info.
func SnapshotOf(info fs.FileInfo) Snapshot {
	return Snapshot{Size: info.Size(), ModTime: info.ModTime()}
}

// Equal reports whether both snapshots describe the same file version.
func (s Snapshot) Equal(o Snapshot) bool {
	return s.Size == o.Size && s.ModTime.Equal(o.ModTime)
}

// IsZero reports whether the snapshot was never taken.
func (s Snapshot) IsZero() bool {
	return s.Size == 0 && s.ModTime.IsZero()
}

// FileState is what RulesState knows about one report file.
type FileState struct {
	Path     string
	Type     string
	State    ReportState
	Snapshot Snapshot
	Result   ParsingResult
}
