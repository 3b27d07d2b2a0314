package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkoosis/reportwatch/pkg/event"
)

func emitSample(s event.Sink) {
	st := event.NewStream(s, "session").ForFlow("report.xml")
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	st.SuiteStarted("pkg.Suite", at)
	st.TestStarted("pkg.Suite.ok", at)
	st.TestFinished("pkg.Suite.ok", at, 47*time.Millisecond)
	st.TestStarted("pkg.Suite.bad", at)
	st.TestFailed("pkg.Suite.bad", "AssertionError: boom", "line 1\nline 2\nline 3\nline 4\nline 5")
	st.TestFinished("pkg.Suite.bad", at, 0)
	st.TestIgnored("pkg.Suite.later", "not ready")
	st.SuiteFinished("pkg.Suite", at)
	st.Inspection(event.Inspection{TypeID: "lll", File: "b.go", Line: 3, Message: "long line", Severity: event.SeverityInfo})
	st.Inspection(event.Inspection{TypeID: "errcheck", File: "a.go", Line: 9, Message: "unchecked", Severity: event.SeverityError})
	st.Warning("Couldn't completely parse junit report, 2 unit(s) logged")
}

func TestNew_Formats(t *testing.T) {
	t.Parallel()

	for _, f := range Formats() {
		r, err := New(f, MonoTheme(), &bytes.Buffer{}, 0)
		require.NoError(t, err, f)
		assert.NotNil(t, r)
	}
	_, err := New("xml", MonoTheme(), &bytes.Buffer{}, 0)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestTerminal_Lines(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := NewTerminal(&buf, MonoTheme(), 80)
	emitSample(r)
	require.NoError(t, r.Flush())

	out := buf.String()
	assert.Contains(t, out, "pkg.Suite\n")
	assert.Contains(t, out, "+ pkg.Suite.ok  47ms")
	assert.Contains(t, out, "x pkg.Suite.bad: AssertionError: boom")
	assert.NotContains(t, out, "+ pkg.Suite.bad", "a failed test is not also shown as passed")
	assert.Contains(t, out, "    line 5")
	assert.Contains(t, out, "! pkg.Suite.later")
	assert.Contains(t, out, "x a.go:9 unchecked [errcheck]")
	assert.Contains(t, out, "! Couldn't completely parse junit report")
}

func TestTerminal_TruncatesToWidth(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := NewTerminal(&buf, MonoTheme(), 20)
	r.Emit(event.Event{Kind: event.KindSuiteStarted, Name: strings.Repeat("x", 50)})
	assert.Equal(t, strings.Repeat("x", 13)+"...\n", buf.String())
}

func TestLLM_Render(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := NewLLM(&buf)
	emitSample(r)
	require.NoError(t, r.Flush())

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "SCOPE: 3 tests (1 fail, 1 skip), 2 diags (1 err, 0 warn, 1 note)\n"), out)
	assert.Contains(t, out, "WARN Couldn't completely parse")
	assert.Contains(t, out, "FAIL pkg.Suite.bad: AssertionError: boom\n    line 1\n    line 2\n    line 3\n    ... (2 more lines)\n")
	assert.Less(t, strings.Index(out, "## a.go"), strings.Index(out, "## b.go"), "errors sort first")
	assert.NotContains(t, out, "\x1b[")
}

func TestJSON_OneObjectPerLine(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	r := NewJSON(&buf)
	emitSample(r)
	require.NoError(t, r.Flush())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 11)
	var e event.Event
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &e))
	assert.Equal(t, event.KindSuiteStarted, e.Kind)
	assert.Equal(t, "report.xml", e.Flow)
	assert.Equal(t, "session", e.Session)
}

func TestThemeByName(t *testing.T) {
	t.Parallel()

	th, ok := ThemeByName("orca")
	assert.True(t, ok)
	assert.Equal(t, "orca", th.Name)
	th, ok = ThemeByName("neon")
	assert.False(t, ok)
	assert.Equal(t, "default", th.Name)
}
