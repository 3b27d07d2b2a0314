// Package event defines the normalized events produced while ingesting report
// files, and the reporter capabilities parsers emit them through.
//
// Parsers never talk to an output directly. They receive a TestReporter,
// InspectionReporter or DuplicatesReporter; Stream implements all three on top
// of a Sink, which decides where events go (a terminal, a JSON stream, or a
// Recorder in tests).
package event

import "time"

// Kind identifies the type of an event.
type Kind string

const (
	KindSuiteStarted  Kind = "suite-started"
	KindSuiteFinished Kind = "suite-finished"
	KindTestStarted   Kind = "test-started"
	KindTestFinished  Kind = "test-finished"
	KindTestIgnored   Kind = "test-ignored"
	KindTestFailed    Kind = "test-failed"
	KindTestStdOut    Kind = "test-stdout"
	KindTestStdErr    Kind = "test-stderr"

	KindInspectionType Kind = "inspection-type"
	KindInspection     Kind = "inspection"

	KindDuplicatesStarted  Kind = "duplicates-started"
	KindDuplicate          Kind = "duplicate"
	KindDuplicatesFinished Kind = "duplicates-finished"

	KindMessage Kind = "message"
)

// Severity classifies messages and inspection findings.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

func (s Severity) rank() int {
	switch s {
	case SeverityError:
		return 2
	case SeverityWarning:
		return 1
	}
	return 0
}

// AtLeast reports whether s is as severe as min. Unknown severities rank as
// info.
func (s Severity) AtLeast(min Severity) bool { return s.rank() >= min.rank() }

// Event is a single normalized event.
type Event struct {
	Kind     Kind          `json:"kind"`
	Session  string        `json:"session,omitempty"`
	Flow     string        `json:"flow,omitempty"` // report file the event came from
	Time     time.Time     `json:"time"`
	Name     string        `json:"name,omitempty"` // suite or fully qualified test name
	Duration time.Duration `json:"duration,omitempty"`
	Message  string        `json:"message,omitempty"`
	Details  string        `json:"details,omitempty"`
	Severity Severity      `json:"severity,omitempty"`

	InspectionType *InspectionType `json:"inspection_type,omitempty"`
	Inspection     *Inspection     `json:"inspection,omitempty"`
	Duplication    *Duplication    `json:"duplication,omitempty"`
}

// InspectionType describes a rule that inspections refer to.
type InspectionType struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
}

// Inspection is a single static-analysis finding.
type Inspection struct {
	TypeID   string   `json:"type_id"`
	File     string   `json:"file"`
	Line     int      `json:"line,omitempty"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// Duplication is one duplicated code block found in two or more places.
type Duplication struct {
	Lines     int        `json:"lines"`
	Tokens    int        `json:"tokens"`
	Hash      int        `json:"hash"`
	Fragments []Fragment `json:"fragments"`
}

// Fragment is one occurrence of a duplicated block.
type Fragment struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Hash int    `json:"hash"`
}

// IsTest reports whether the event belongs to the test lifecycle.
func (e Event) IsTest() bool {
	switch e.Kind {
	case KindSuiteStarted, KindSuiteFinished, KindTestStarted, KindTestFinished,
		KindTestIgnored, KindTestFailed, KindTestStdOut, KindTestStdErr:
		return true
	}
	return false
}
