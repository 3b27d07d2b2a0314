package ingest

// SuiteMode tells a test parser how to treat a suite it has just entered.
type SuiteMode int

const (
	// SuiteReport: first sighting, report it.
	SuiteReport SuiteMode = iota
	// SuiteResume: started by this file in an earlier partial parse. Do not
	// start it again, but report its remaining tests and its end.
	SuiteResume
	// SuiteReplay: already finished by this file. Count, do not report.
	SuiteReplay
	// SuiteSkip: reported from another file, or a repeat within this file.
	SuiteSkip
)

// EnterSuite decides how the file at path treats suite id and records the
// decision in current. prior is the result of the previous parse of the same
// file and may be nil. reg may be nil, in which case every new suite is
// reported.
func EnterSuite(id SuiteIdentity, path string, prior, current *TestResult, reg SuiteRegistry) SuiteMode {
	switch {
	case current.Open[id] || current.Finished[id]:
		current.SkippedSuites++
		return SuiteSkip
	case prior != nil && prior.Finished[id]:
		return SuiteReplay
	case prior != nil && prior.Open[id]:
		current.Open[id] = true
		return SuiteResume
	case reg != nil && !reg.ClaimSuite(id, path):
		current.SkippedSuites++
		return SuiteSkip
	}
	current.Open[id] = true
	return SuiteReport
}

// LeaveSuite records the end of suite id. It reports whether the parser
// should emit the suite's end.
func LeaveSuite(id SuiteIdentity, path string, mode SuiteMode, current *TestResult, reg SuiteRegistry) bool {
	switch mode {
	case SuiteReport, SuiteResume:
		delete(current.Open, id)
		current.Finished[id] = true
		current.Suites++
		if reg != nil {
			reg.SuiteReported(id, path)
		}
		return true
	case SuiteReplay:
		current.Finished[id] = true
		current.Suites++
	}
	return false
}

// AsTestResult returns r as a *TestResult, or nil.
func AsTestResult(r ParsingResult) *TestResult {
	tr, _ := r.(*TestResult)
	return tr
}
