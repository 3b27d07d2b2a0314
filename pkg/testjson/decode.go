package testjson

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// DecodeResult describes how far Decode got.
type DecodeResult struct {
	Events    int
	Malformed int
	// Complete is false when the input ends with a partial line, which is
	// left undecoded.
	Complete bool
}

// Decode reads go test -json events line by line and calls fn for each one.
// Lines that are not valid events are counted and skipped.
func Decode(r io.Reader, fn func(TestEvent)) (DecodeResult, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	res := DecodeResult{Complete: true}
	for {
		line, err := br.ReadBytes('\n')
		if errors.Is(err, io.EOF) {
			// A trailing line without a newline may still be being written.
			res.Complete = len(bytes.TrimSpace(line)) == 0
			return res, nil
		}
		if err != nil {
			return res, fmt.Errorf("reading test output: %w", err)
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		var event TestEvent
		if err := json.Unmarshal(line, &event); err != nil || event.Action == "" {
			res.Malformed++
			continue
		}
		res.Events++
		fn(event)
	}
}
