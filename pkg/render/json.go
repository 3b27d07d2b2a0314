package render

import (
	"encoding/json"
	"io"

	"github.com/dkoosis/reportwatch/pkg/event"
)

// JSON writes every event as one JSON object per line, for automation.
type JSON struct {
	enc *json.Encoder
	err error
}

// NewJSON creates a JSON renderer.
func NewJSON(w io.Writer) *JSON {
	return &JSON{enc: json.NewEncoder(w)}
}

// Emit implements event.Sink.
func (j *JSON) Emit(e event.Event) {
	if j.err != nil {
		return
	}
	j.err = j.enc.Encode(e)
}

// Flush implements Renderer. It returns the first encoding or write error.
func (j *JSON) Flush() error { return j.err }
