// Package testjson parses go test -json NDJSON reports.
package testjson

import "time"

// Actions of go test -json events.
const (
	ActionStart  = "start"
	ActionRun    = "run"
	ActionPause  = "pause"
	ActionCont   = "cont"
	ActionPass   = "pass"
	ActionFail   = "fail"
	ActionSkip   = "skip"
	ActionOutput = "output"
	ActionBench  = "bench"
)

// TestEvent represents a single event from go test -json output.
type TestEvent struct {
	Time    time.Time `json:"Time"`
	Action  string    `json:"Action"` // start, run, pass, fail, skip, output, bench, pause, cont
	Package string    `json:"Package"`
	Test    string    `json:"Test"`
	Elapsed float64   `json:"Elapsed"`
	Output  string    `json:"Output"`
}

// IsTerminal reports whether the event ends a test or a package.
func (e TestEvent) IsTerminal() bool {
	switch e.Action {
	case ActionPass, ActionFail, ActionSkip:
		return true
	}
	return false
}

// ElapsedDuration converts Elapsed seconds to whole milliseconds.
func (e TestEvent) ElapsedDuration() time.Duration {
	if e.Elapsed <= 0 {
		return 0
	}
	return time.Duration(int64(e.Elapsed*1000)) * time.Millisecond
}
