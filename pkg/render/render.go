// Package render writes ingestion events for people and tools: styled
// terminal lines, terse plain text, or newline-delimited JSON.
package render

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dkoosis/reportwatch/pkg/event"
)

// Output formats.
const (
	FormatTerminal = "terminal"
	FormatLLM      = "llm"
	FormatJSON     = "json"
)

// ErrUnknownFormat is returned by New for an unsupported format.
var ErrUnknownFormat = errors.New("unknown output format")

// Renderer is an event sink that may hold output back until Flush.
type Renderer interface {
	event.Sink
	Flush() error
}

// New creates the renderer for format writing to w. width is only used by
// the terminal renderer; zero means 80 columns.
func New(format string, theme Theme, w io.Writer, width int) (Renderer, error) {
	switch format {
	case FormatTerminal, "":
		return NewTerminal(w, theme, width), nil
	case FormatLLM:
		return NewLLM(w), nil
	case FormatJSON:
		return NewJSON(w), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Formats lists the supported formats.
func Formats() []string { return []string{FormatTerminal, FormatLLM, FormatJSON} }

func formatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return ""
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}
