package ingest

import (
	"fmt"
	"maps"
	"strings"
)

// ParsingResult is what a parser learned about one report file. Units is the
// number of logical units (tests, findings, duplicates) already consumed and
// is used as the skip counter on the next parse of the same file.
type ParsingResult interface {
	Units() int
	Problem() error
	SetProblem(err error)
	Partial() bool
	SetPartial(partial bool)
	// Accumulate adds the counts of other, which must be of the same concrete
	// type, to the receiver.
	Accumulate(other ParsingResult)
	Summary() string
	Failed() bool
	Clone() ParsingResult
}

type status struct {
	problem error
	partial bool
}

func (s *status) Problem() error       { return s.problem }
func (s *status) SetProblem(err error) { s.problem = err }
func (s *status) Partial() bool        { return s.partial }
func (s *status) SetPartial(p bool)    { s.partial = p }

// SuiteIdentity identifies a suite across report files. An empty timestamp is
// a valid key: two untimed suites with the same name collide.
type SuiteIdentity struct {
	Name      string
	Timestamp string
}

func (id SuiteIdentity) String() string {
	if id.Timestamp == "" {
		return id.Name
	}
	return id.Name + "@" + id.Timestamp
}

// TestResult counts suites and tests of a test report.
type TestResult struct {
	status

	Suites        int
	SkippedSuites int
	Tests         int
	Failures      int
	Ignored       int

	// Open holds suites this file started but has not finished yet, Finished
	// the suites it reported completely.
	Open     map[SuiteIdentity]bool
	Finished map[SuiteIdentity]bool
}

// NewTestResult returns an empty TestResult.
func NewTestResult() *TestResult {
	return &TestResult{
		Open:     make(map[SuiteIdentity]bool),
		Finished: make(map[SuiteIdentity]bool),
	}
}

func (r *TestResult) Units() int { return r.Tests }

func (r *TestResult) Failed() bool { return r.Failures > 0 || r.problem != nil }

func (r *TestResult) Accumulate(other ParsingResult) {
	o, ok := other.(*TestResult)
	if !ok {
		return
	}
	r.Suites += o.Suites
	r.SkippedSuites += o.SkippedSuites
	r.Tests += o.Tests
	r.Failures += o.Failures
	r.Ignored += o.Ignored
}

func (r *TestResult) Summary() string {
	var parts []string
	if r.Suites > 0 || r.SkippedSuites == 0 {
		parts = append(parts, fmt.Sprintf("%d suite(s)", r.Suites))
	}
	if r.SkippedSuites > 0 {
		parts = append(parts, fmt.Sprintf("%d suite(s) skipped", r.SkippedSuites))
	}
	parts = append(parts, fmt.Sprintf("%d test(s)", r.Tests))
	if r.Failures > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", r.Failures))
	}
	if r.Ignored > 0 {
		parts = append(parts, fmt.Sprintf("%d ignored", r.Ignored))
	}
	return strings.Join(parts, ", ")
}

func (r *TestResult) Clone() ParsingResult {
	cp := *r
	cp.Open = maps.Clone(r.Open)
	cp.Finished = maps.Clone(r.Finished)
	if cp.Open == nil {
		cp.Open = make(map[SuiteIdentity]bool)
	}
	if cp.Finished == nil {
		cp.Finished = make(map[SuiteIdentity]bool)
	}
	return &cp
}

// InspectionResult counts findings by severity.
type InspectionResult struct {
	status

	Errors   int
	Warnings int
	Infos    int
}

// NewInspectionResult returns an empty InspectionResult.
func NewInspectionResult() *InspectionResult { return &InspectionResult{} }

func (r *InspectionResult) Units() int { return r.Errors + r.Warnings + r.Infos }

func (r *InspectionResult) Failed() bool { return r.problem != nil }

func (r *InspectionResult) Accumulate(other ParsingResult) {
	o, ok := other.(*InspectionResult)
	if !ok {
		return
	}
	r.Errors += o.Errors
	r.Warnings += o.Warnings
	r.Infos += o.Infos
}

func (r *InspectionResult) Summary() string {
	return fmt.Sprintf("%d error(s), %d warning(s), %d info(s)", r.Errors, r.Warnings, r.Infos)
}

func (r *InspectionResult) Clone() ParsingResult {
	cp := *r
	return &cp
}

// DuplicationResult counts duplicated blocks and their fragments.
type DuplicationResult struct {
	status

	Duplicates int
	Fragments  int
}

// NewDuplicationResult returns an empty DuplicationResult.
func NewDuplicationResult() *DuplicationResult { return &DuplicationResult{} }

func (r *DuplicationResult) Units() int { return r.Duplicates }

func (r *DuplicationResult) Failed() bool { return r.problem != nil }

func (r *DuplicationResult) Accumulate(other ParsingResult) {
	o, ok := other.(*DuplicationResult)
	if !ok {
		return
	}
	r.Duplicates += o.Duplicates
	r.Fragments += o.Fragments
}

func (r *DuplicationResult) Summary() string {
	return fmt.Sprintf("%d duplicate(s), %d fragment(s)", r.Duplicates, r.Fragments)
}

func (r *DuplicationResult) Clone() ParsingResult {
	cp := *r
	return &cp
}
