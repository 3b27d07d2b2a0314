package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/dkoosis/reportwatch/pkg/event"
)

// Terminal writes one styled line per event as events arrive. Callers share
// it between goroutines through event.Synchronized.
type Terminal struct {
	w      io.Writer
	theme  Theme
	width  int
	failed map[string]bool
	err    error
}

// NewTerminal creates a terminal renderer with the given theme.
func NewTerminal(w io.Writer, theme Theme, width int) *Terminal {
	if width <= 0 {
		width = 80
	}
	return &Terminal{w: w, theme: theme, width: width, failed: make(map[string]bool)}
}

// Emit implements event.Sink.
func (t *Terminal) Emit(e event.Event) {
	switch e.Kind {
	case event.KindSuiteStarted:
		t.line(t.theme.Bold.Render(t.fit(e.Name)))
	case event.KindTestFailed:
		t.failed[e.Flow+"\x00"+e.Name] = true
		head := e.Name
		if e.Message != "" {
			head += ": " + e.Message
		}
		t.line("  " + t.theme.Error.Render(t.theme.Icons.Fail+" "+t.fit(head)))
		t.block(e.Details)
	case event.KindTestFinished:
		key := e.Flow + "\x00" + e.Name
		if t.failed[key] {
			delete(t.failed, key)
			return
		}
		line := t.theme.Success.Render(t.theme.Icons.Pass+" ") + t.fit(e.Name)
		if d := formatDuration(e.Duration); d != "" {
			line += "  " + t.theme.Muted.Render(d)
		}
		t.line("  " + line)
	case event.KindTestIgnored:
		line := t.theme.Warning.Render(t.theme.Icons.Warn+" ") + t.fit(e.Name)
		if e.Message != "" {
			line += "  " + t.theme.Muted.Render(t.fit(e.Message))
		}
		t.line("  " + line)
	case event.KindTestStdOut, event.KindTestStdErr:
		t.block(e.Message)
	case event.KindMessage:
		icon, style := t.theme.Severity(e.Severity)
		first, rest, _ := strings.Cut(e.Message, "\n")
		t.line(style.Render(icon + " " + t.fit(first)))
		t.block(rest)
	case event.KindInspection:
		if e.Inspection == nil {
			return
		}
		icon, style := t.theme.Severity(e.Severity)
		loc := e.Inspection.File
		if e.Inspection.Line > 0 {
			loc = fmt.Sprintf("%s:%d", loc, e.Inspection.Line)
		}
		text := t.fit(loc + " " + e.Inspection.Message)
		t.line("  " + style.Render(icon+" ") + text + " " + t.theme.Muted.Render("["+e.Inspection.TypeID+"]"))
	case event.KindDuplicatesStarted:
		t.line(t.theme.Bold.Render("Duplicates"))
	case event.KindDuplicate:
		if e.Duplication == nil {
			return
		}
		d := e.Duplication
		locs := make([]string, 0, len(d.Fragments))
		for _, f := range d.Fragments {
			locs = append(locs, fmt.Sprintf("%s:%d", f.Path, f.Line))
		}
		head := fmt.Sprintf("%s %d lines, %d tokens: ", t.theme.Icons.Bullet, d.Lines, d.Tokens)
		t.line("  " + t.theme.Warning.Render(head) + t.fit(strings.Join(locs, ", ")))
	}
}

// Flush implements Renderer. It returns the first write error.
func (t *Terminal) Flush() error { return t.err }

func (t *Terminal) fit(s string) string {
	return runewidth.Truncate(s, t.width-4, "...")
}

func (t *Terminal) block(text string) {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return
	}
	for _, l := range strings.Split(text, "\n") {
		t.line("    " + t.theme.Muted.Render(l))
	}
}

func (t *Terminal) line(s string) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintln(t.w, s)
}
