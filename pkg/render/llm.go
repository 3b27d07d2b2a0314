package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dkoosis/reportwatch/pkg/event"
)

const detailLines = 3

// LLM collects events and, on Flush, writes terse plain text for AI
// consumption: no ANSI codes, a SCOPE line, deterministic ordering and
// truncated details.
type LLM struct {
	w io.Writer

	tests, ignored int
	failures       []failure
	messages       []event.Event
	diags          []event.Inspection
	dups           []event.Duplication
}

type failure struct {
	name, message, details string
}

// NewLLM creates an LLM renderer.
func NewLLM(w io.Writer) *LLM {
	return &LLM{w: w}
}

// Emit implements event.Sink.
func (l *LLM) Emit(e event.Event) {
	switch e.Kind {
	case event.KindTestFinished:
		l.tests++
	case event.KindTestIgnored:
		l.tests++
		l.ignored++
	case event.KindTestFailed:
		l.failures = append(l.failures, failure{e.Name, e.Message, e.Details})
	case event.KindMessage:
		if e.Severity != event.SeverityInfo {
			l.messages = append(l.messages, e)
		}
	case event.KindInspection:
		if e.Inspection != nil {
			l.diags = append(l.diags, *e.Inspection)
		}
	case event.KindDuplicate:
		if e.Duplication != nil {
			l.dups = append(l.dups, *e.Duplication)
		}
	}
}

// Flush implements Renderer.
func (l *LLM) Flush() error {
	_, err := io.WriteString(l.w, l.String())
	return err
}

// String renders everything collected so far.
func (l *LLM) String() string {
	var sb strings.Builder
	sb.WriteString("SCOPE: " + l.scope() + "\n")

	for _, m := range l.messages {
		level := "WARN"
		if m.Severity == event.SeverityError {
			level = "ERR"
		}
		first, rest, _ := strings.Cut(m.Message, "\n")
		sb.WriteString(level + " " + first + "\n")
		writeDetails(&sb, rest)
	}

	sort.Slice(l.failures, func(i, j int) bool { return l.failures[i].name < l.failures[j].name })
	for _, f := range l.failures {
		sb.WriteString("FAIL " + f.name)
		if f.message != "" {
			sb.WriteString(": " + f.message)
		}
		sb.WriteString("\n")
		writeDetails(&sb, f.details)
	}

	sort.Slice(l.diags, func(i, j int) bool {
		a, b := l.diags[i], l.diags[j]
		if pa, pb := severityPriority(a.Severity), severityPriority(b.Severity); pa != pb {
			return pa < pb
		}
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.TypeID < b.TypeID
	})
	currentFile := ""
	for _, d := range l.diags {
		if d.File != currentFile {
			currentFile = d.File
			sb.WriteString("\n## " + d.File + "\n")
		}
		sb.WriteString(fmt.Sprintf("  %s %s:%d %s\n", levelTag(d.Severity), d.TypeID, d.Line, d.Message))
	}

	for _, d := range l.dups {
		locs := make([]string, 0, len(d.Fragments))
		for _, f := range d.Fragments {
			locs = append(locs, fmt.Sprintf("%s:%d", f.Path, f.Line))
		}
		sb.WriteString(fmt.Sprintf("DUP %d lines %s\n", d.Lines, strings.Join(locs, " ")))
	}
	return sb.String()
}

func (l *LLM) scope() string {
	parts := []string{fmt.Sprintf("%d tests", l.tests)}
	if n := len(l.failures); n > 0 || l.ignored > 0 {
		parts[0] += fmt.Sprintf(" (%d fail, %d skip)", n, l.ignored)
	}
	if len(l.diags) > 0 {
		var errs, warns, notes int
		for _, d := range l.diags {
			switch d.Severity {
			case event.SeverityError:
				errs++
			case event.SeverityWarning:
				warns++
			default:
				notes++
			}
		}
		parts = append(parts, fmt.Sprintf("%d diags (%d err, %d warn, %d note)", len(l.diags), errs, warns, notes))
	}
	if len(l.dups) > 0 {
		parts = append(parts, fmt.Sprintf("%d dups", len(l.dups)))
	}
	return strings.Join(parts, ", ")
}

func writeDetails(sb *strings.Builder, details string) {
	details = strings.TrimSpace(details)
	if details == "" {
		return
	}
	lines := strings.Split(details, "\n")
	for _, line := range lines[:min(len(lines), detailLines)] {
		sb.WriteString("    " + line + "\n")
	}
	if len(lines) > detailLines {
		sb.WriteString(fmt.Sprintf("    ... (%d more lines)\n", len(lines)-detailLines))
	}
}

func levelTag(sev event.Severity) string {
	switch sev {
	case event.SeverityError:
		return "ERR"
	case event.SeverityWarning:
		return "WARN"
	default:
		return "NOTE"
	}
}

func severityPriority(sev event.Severity) int {
	switch sev {
	case event.SeverityError:
		return 0
	case event.SeverityWarning:
		return 1
	default:
		return 2
	}
}
