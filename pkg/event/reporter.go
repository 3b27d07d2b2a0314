package event

import (
	"sync"
	"time"
)

// Sink receives events. Implementations must be safe for concurrent use when
// shared between workers; wrap with Synchronized otherwise.
type Sink interface {
	Emit(e Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(e Event)

// Emit implements Sink.
func (f SinkFunc) Emit(e Event) { f(e) }

// Synchronized serializes calls to s.
func Synchronized(s Sink) Sink {
	return &lockedSink{sink: s}
}

type lockedSink struct {
	mu   sync.Mutex
	sink Sink
}

func (l *lockedSink) Emit(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sink.Emit(e)
}

// MessageLogger writes file-level messages into the build output.
type MessageLogger interface {
	Info(msg string)
	Warning(msg string)
	Error(msg string)
}

// TestReporter receives suite and test lifecycle events.
type TestReporter interface {
	MessageLogger
	SuiteStarted(name string, at time.Time)
	SuiteFinished(name string, at time.Time)
	TestStarted(name string, at time.Time)
	TestFinished(name string, at time.Time, d time.Duration)
	TestIgnored(name, reason string)
	TestFailed(name, message, details string)
	TestStdOut(name, text string)
	TestStdErr(name, text string)
}

// InspectionReporter receives static-analysis findings.
type InspectionReporter interface {
	MessageLogger
	InspectionType(t InspectionType)
	Inspection(i Inspection)
}

// DuplicatesReporter receives code duplication results.
type DuplicatesReporter interface {
	MessageLogger
	DuplicatesStarted()
	Duplicate(d Duplication)
	DuplicatesFinished()
}

// Stream turns reporter calls into events on a Sink. A Stream is bound to a
// session and, optionally, a flow (the report file being parsed).
type Stream struct {
	sink    Sink
	session string
	flow    string
	now     func() time.Time
}

var (
	_ TestReporter       = (*Stream)(nil)
	_ InspectionReporter = (*Stream)(nil)
	_ DuplicatesReporter = (*Stream)(nil)
)

// NewStream creates a Stream writing to sink.
func NewStream(sink Sink, session string) *Stream {
	return &Stream{sink: sink, session: session, now: time.Now}
}

// ForFlow returns a copy of s whose events carry flow.
func (s *Stream) ForFlow(flow string) *Stream {
	cp := *s
	cp.flow = flow
	return &cp
}

// Flow returns the flow the stream is bound to.
func (s *Stream) Flow() string { return s.flow }

func (s *Stream) emit(e Event) {
	e.Session = s.session
	e.Flow = s.flow
	if e.Time.IsZero() {
		e.Time = s.now()
	}
	s.sink.Emit(e)
}

func (s *Stream) message(sev Severity, msg string) {
	s.emit(Event{Kind: KindMessage, Severity: sev, Message: msg})
}

// Info implements MessageLogger.
func (s *Stream) Info(msg string) { s.message(SeverityInfo, msg) }

// Warning implements MessageLogger.
func (s *Stream) Warning(msg string) { s.message(SeverityWarning, msg) }

// Error implements MessageLogger.
func (s *Stream) Error(msg string) { s.message(SeverityError, msg) }

// SuiteStarted implements TestReporter.
func (s *Stream) SuiteStarted(name string, at time.Time) {
	s.emit(Event{Kind: KindSuiteStarted, Name: name, Time: at})
}

// SuiteFinished implements TestReporter.
func (s *Stream) SuiteFinished(name string, at time.Time) {
	s.emit(Event{Kind: KindSuiteFinished, Name: name, Time: at})
}

// TestStarted implements TestReporter.
func (s *Stream) TestStarted(name string, at time.Time) {
	s.emit(Event{Kind: KindTestStarted, Name: name, Time: at})
}

// TestFinished implements TestReporter.
func (s *Stream) TestFinished(name string, at time.Time, d time.Duration) {
	s.emit(Event{Kind: KindTestFinished, Name: name, Time: at, Duration: d})
}

// TestIgnored implements TestReporter.
func (s *Stream) TestIgnored(name, reason string) {
	s.emit(Event{Kind: KindTestIgnored, Name: name, Message: reason})
}

// TestFailed implements TestReporter.
func (s *Stream) TestFailed(name, message, details string) {
	s.emit(Event{Kind: KindTestFailed, Name: name, Message: message, Details: details, Severity: SeverityError})
}

// TestStdOut implements TestReporter.
func (s *Stream) TestStdOut(name, text string) {
	s.emit(Event{Kind: KindTestStdOut, Name: name, Message: text})
}

// TestStdErr implements TestReporter.
func (s *Stream) TestStdErr(name, text string) {
	s.emit(Event{Kind: KindTestStdErr, Name: name, Message: text})
}

// InspectionType implements InspectionReporter.
func (s *Stream) InspectionType(t InspectionType) {
	s.emit(Event{Kind: KindInspectionType, Name: t.ID, InspectionType: &t})
}

// Inspection implements InspectionReporter.
func (s *Stream) Inspection(i Inspection) {
	s.emit(Event{Kind: KindInspection, Name: i.TypeID, Message: i.Message, Severity: i.Severity, Inspection: &i})
}

// DuplicatesStarted implements DuplicatesReporter.
func (s *Stream) DuplicatesStarted() {
	s.emit(Event{Kind: KindDuplicatesStarted})
}

// Duplicate implements DuplicatesReporter.
func (s *Stream) Duplicate(d Duplication) {
	s.emit(Event{Kind: KindDuplicate, Duplication: &d})
}

// DuplicatesFinished implements DuplicatesReporter.
func (s *Stream) DuplicatesFinished() {
	s.emit(Event{Kind: KindDuplicatesFinished})
}
