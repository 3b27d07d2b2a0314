package ingest

import "strings"

// ParsingStage is the point of the session lifecycle at which reports of a
// type are parsed.
type ParsingStage int

const (
	// StageRuntime parses reports as soon as they are discovered.
	StageRuntime ParsingStage = iota
	// StageBeforeFinish parses reports when the build is about to finish.
	StageBeforeFinish
	// StageAfterFinish parses reports after the build has finished.
	StageAfterFinish
)

var stageNames = [...]string{
	StageRuntime:      "runtime",
	StageBeforeFinish: "before_finish",
	StageAfterFinish:  "after_finish",
}

func (s ParsingStage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

// ParseStage parses a stage name. Case and the separator ("_" or "-") are not
// significant, so "BEFORE_FINISH" and "before-finish" are both accepted.
func ParseStage(s string) (ParsingStage, bool) {
	norm := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for i, name := range stageNames {
		if name == norm {
			return ParsingStage(i), true
		}
	}
	return StageBeforeFinish, false
}
