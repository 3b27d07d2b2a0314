package ingest

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/reportwatch/pkg/event"
)

func newTestSession(t *testing.T, rec *event.Recorder, rules ...Rule) *Session {
	t.Helper()
	reg := NewRegistry(
		lineFactory{typ: "now", stage: StageRuntime},
		lineFactory{typ: "later", stage: StageBeforeFinish},
		lineFactory{typ: "last", stage: StageAfterFinish},
		lineFactory{typ: "stuck", stage: StageBeforeFinish, incomplete: true},
	)
	s, err := NewSession(SessionConfig{
		Rules:        rules,
		Registry:     reg,
		Sink:         rec,
		ID:           "session-1",
		BuildStart:   time.Now().Add(-time.Hour),
		Workers:      2,
		ScanInterval: 5 * time.Millisecond,
	})
	require.NoError(t, err)
	return s
}

func messageTexts(rec *event.Recorder) []string {
	var out []string
	for _, e := range rec.Filter(event.KindMessage) {
		out = append(out, e.Message)
	}
	return out
}

func TestSession_StagesRunInOrder(t *testing.T) {
	t.Parallel()

	nowDir, laterDir, lastDir := t.TempDir(), t.TempDir(), t.TempDir()
	rec := event.NewRecorder()
	s := newTestSession(t, rec,
		Rule{Type: "now", Dirs: []string{nowDir}},
		Rule{Type: "later", Dirs: []string{laterDir}},
		Rule{Type: "last", Dirs: []string{lastDir}},
	)
	nowPath := writeReport(t, nowDir, "a.txt", "n1\nend\n")
	laterPath := writeReport(t, laterDir, "b.txt", "l1\nl2\nend\n")
	writeReport(t, lastDir, "c.txt", "z1\nend\n")

	ctx := context.Background()
	require.NoError(t, s.Start(ctx))
	assert.ErrorIs(t, s.Start(ctx), ErrAlreadyRunning)

	require.Eventually(t, func() bool {
		fs, ok := s.RulesState().State(nowPath)
		return ok && fs.State == StateProcessed
	}, 2*time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		_, ok := s.RulesState().State(laterPath)
		return ok
	}, 2*time.Second, 5*time.Millisecond)
	fs, _ := s.RulesState().State(laterPath)
	assert.Equal(t, StateQueued, fs.State, "before-finish reports wait for their stage")

	require.NoError(t, s.BeforeFinish(ctx))
	assert.True(t, s.Watcher().IsStopped())
	fs, _ = s.RulesState().State(laterPath)
	assert.Equal(t, StateProcessed, fs.State)
	assert.Equal(t, 3, rec.Count(event.KindTestFinished))

	sum, err := s.AfterFinish(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, rec.Count(event.KindTestFinished))
	assert.Equal(t, 3, sum.Files)
	assert.Equal(t, 3, sum.Processed)
	assert.False(t, sum.Failed)
	require.Contains(t, sum.Totals, "later")
	assert.Equal(t, 2, sum.Totals["later"].Units())

	msgs := messageTexts(rec)
	assert.Contains(t, msgs, "now totals: 0 suite(s), 1 test(s)")
	assert.Contains(t, msgs, "later totals: 0 suite(s), 2 test(s)")
	assert.Contains(t, msgs, "last totals: 0 suite(s), 1 test(s)")

	for _, e := range rec.Events() {
		assert.Equal(t, "session-1", e.Session)
	}
}

func TestSession_ReportsPartialFilesAndMissingData(t *testing.T) {
	t.Parallel()

	dir, empty := t.TempDir(), t.TempDir()
	rec := event.NewRecorder()
	s := newTestSession(t, rec,
		Rule{Type: "now", Dirs: []string{dir}},
		Rule{Type: "now", Dirs: []string{empty}, Description: "+:empty/*.txt", WhenNoData: NoDataWarning},
		Rule{Type: "later", Dirs: []string{empty}, WhenNoData: NoDataNothing},
	)
	path := writeReport(t, dir, "a.txt", "one\ntwo\n")

	sum, err := runSession(t, s)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Partial)

	msgs := messageTexts(rec)
	assert.Contains(t, msgs, "Couldn't completely parse "+path+" report, 2 unit(s) logged")
	assert.Contains(t, msgs, "No reports found for paths:\n+:empty/*.txt")
	for _, m := range msgs {
		assert.False(t, strings.HasPrefix(m, "No reports found for paths:\n"+empty), m)
	}
	assert.Equal(t, 2, rec.Count(event.KindTestStarted), "retrying the partial file does not re-emit tests")
}

func TestSession_MalformedReportFailsSummary(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rec := event.NewRecorder()
	s := newTestSession(t, rec, Rule{Type: "later", Dirs: []string{dir}})
	writeReport(t, dir, "a.txt", "one\nbad\n")

	sum, err := runSession(t, s)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Errors)
	assert.True(t, sum.Failed)
}

func TestSession_ReportsThatNeverLookCompleteAreParsedAtFinish(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rec := event.NewRecorder()
	s := newTestSession(t, rec, Rule{Type: "stuck", Dirs: []string{dir}})
	broken := writeReport(t, dir, "broken.txt", "one\nbad\n")
	cut := writeReport(t, dir, "cut.txt", "one\ntwo\n")

	ctx := context.Background()
	require.NoError(t, s.Start(ctx))
	time.Sleep(30 * time.Millisecond)
	_, known := s.RulesState().State(broken)
	assert.False(t, known, "not queued while the build runs")

	sum, err := s.Finish(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Errors)
	assert.Equal(t, 1, sum.Partial)
	assert.True(t, sum.Failed)

	fs, ok := s.RulesState().State(broken)
	require.True(t, ok)
	assert.Equal(t, StateError, fs.State)

	var errs []string
	for _, e := range rec.Filter(event.KindMessage) {
		if e.Severity == event.SeverityError {
			errs = append(errs, e.Message)
		}
	}
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "Failed to parse "+broken)
	assert.Contains(t, messageTexts(rec), "Couldn't completely parse "+cut+" report, 2 unit(s) logged")
}

func TestNewSession_Validates(t *testing.T) {
	t.Parallel()

	_, err := NewSession(SessionConfig{})
	assert.ErrorIs(t, err, ErrNoRules)

	_, err = NewSession(SessionConfig{
		Rules:    []Rule{{Type: "nope", Dirs: []string{t.TempDir()}}},
		Registry: NewRegistry(),
		Sink:     event.NewRecorder(),
	})
	assert.ErrorIs(t, err, ErrUnknownReportType)
}

func TestParseNoDataAction(t *testing.T) {
	t.Parallel()

	assert.Equal(t, NoDataNothing, ParseNoDataAction("nothing"))
	assert.Equal(t, NoDataWarning, ParseNoDataAction("WARNING"))
	assert.Equal(t, NoDataError, ParseNoDataAction("error"))
	assert.Equal(t, NoDataError, ParseNoDataAction(""))
}

func runSession(t *testing.T, s *Session) (Summary, error) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.Start(ctx))
	return s.Finish(ctx)
}
