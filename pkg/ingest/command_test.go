package ingest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/reportwatch/pkg/event"
)

func newCommand(t *testing.T, rules *RulesState, rec *event.Recorder, path string) *ParseCommand {
	t.Helper()
	rules.MarkQueued(path, "lines", Snapshot{})
	return &ParseCommand{
		Entry:   QueueEntry{Path: path, Type: "lines"},
		Factory: lineFactory{typ: "lines"},
		Rules:   rules,
		Stream:  event.NewStream(rec, "s"),
	}
}

func TestParseCommand_FinishedReportIsProcessed(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeReport(t, dir, "a.txt", "one\ntwo\nend\n")
	rules := NewRulesState()
	rec := event.NewRecorder()

	out := newCommand(t, rules, rec, path).Run()

	assert.Equal(t, StateProcessed, out.State)
	assert.True(t, out.Finished)
	assert.Equal(t, 2, out.Result.Units())
	assert.False(t, out.Result.Partial())
	assert.Equal(t, 2, rec.Count(event.KindTestFinished))

	msgs := rec.Filter(event.KindMessage)
	require.Len(t, msgs, 1)
	assert.Equal(t, path+" report processed: 0 suite(s), 2 test(s)", msgs[0].Message)
	assert.Equal(t, path, msgs[0].Flow)
}

func TestParseCommand_PartialReportIsResumedWithoutReemission(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeReport(t, dir, "a.txt", "one\n")
	rules := NewRulesState()
	rec := event.NewRecorder()

	out := newCommand(t, rules, rec, path).Run()
	assert.Equal(t, StateDiscovered, out.State)
	assert.False(t, out.Finished)
	assert.True(t, out.Result.Partial())
	assert.Equal(t, 1, rec.Count(event.KindTestStarted))
	assert.Empty(t, rec.Filter(event.KindMessage))

	writeReport(t, dir, "a.txt", "one\ntwo\nend\n")
	out = newCommand(t, rules, rec, path).Run()
	assert.Equal(t, StateProcessed, out.State)
	assert.Equal(t, 2, out.Result.Units())

	started := rec.Filter(event.KindTestStarted)
	require.Len(t, started, 2)
	assert.Equal(t, "one", started[0].Name)
	assert.Equal(t, "two", started[1].Name)
}

func TestParseCommand_MalformedReportIsError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeReport(t, dir, "a.txt", "one\nbad\n")
	rules := NewRulesState()
	rec := event.NewRecorder()

	out := newCommand(t, rules, rec, path).Run()

	assert.Equal(t, StateError, out.State)
	assert.True(t, out.Finished)
	var pe *ParsingError
	require.ErrorAs(t, out.Result.Problem(), &pe)
	assert.Equal(t, path, pe.Path)
	assert.True(t, out.Result.Failed())

	msgs := rec.Filter(event.KindMessage)
	require.Len(t, msgs, 1)
	assert.Equal(t, "Failed to parse "+path+": bad line", msgs[0].Message)
	assert.Equal(t, event.SeverityError, msgs[0].Severity)
}

func TestParseCommand_RecoversParserPanic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeReport(t, dir, "a.txt", "one\npanic\n")
	rules := NewRulesState()
	rec := event.NewRecorder()

	out := newCommand(t, rules, rec, path).Run()

	assert.Equal(t, StateError, out.State)
	var pe *PanicError
	require.ErrorAs(t, out.Result.Problem(), &pe)
	assert.Equal(t, "boom", pe.Value)
	assert.NotEmpty(t, pe.Stack)
	assert.Equal(t, 1, out.Result.Units(), "units consumed before the panic are kept")
}

func TestParseCommand_MissingFileIsSkipped(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "gone.txt")
	rules := NewRulesState()
	rec := event.NewRecorder()

	out := newCommand(t, rules, rec, path).Run()

	assert.True(t, out.Skipped)
	assert.Equal(t, StateDiscovered, out.State)
	fs, ok := rules.State(path)
	require.True(t, ok)
	assert.Equal(t, StateDiscovered, fs.State)
	assert.Empty(t, rec.Events())
}

func TestLogFileResult_NilSafe(t *testing.T) {
	t.Parallel()

	LogFileResult(nil, "a", NewTestResult())
	rec := event.NewRecorder()
	LogFileResult(event.NewStream(rec, "s"), "a", nil)
	assert.Empty(t, rec.Events())
}
