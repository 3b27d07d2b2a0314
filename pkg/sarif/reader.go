package sarif

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	// ErrMissingVersion is returned for JSON documents without a version.
	ErrMissingVersion = errors.New("missing sarif version")
	// ErrTrailingData is returned when the document is followed by more
	// than whitespace.
	ErrTrailingData = errors.New("trailing data after sarif document")
)

// ReadFile parses a SARIF file from disk.
func ReadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sarif file: %w", err)
	}
	defer f.Close()

	return Read(f)
}

// ReadBytes parses SARIF from memory.
func ReadBytes(data []byte) (*Document, error) {
	return Read(bytes.NewReader(data))
}

// Read parses SARIF from an io.Reader. A document cut short returns an error
// wrapping io.ErrUnexpectedEOF.
func Read(r io.Reader) (*Document, error) {
	dec := json.NewDecoder(r)
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("decode sarif: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, ErrTrailingData
	}

	if doc.Version == "" {
		return nil, ErrMissingVersion
	}

	return &doc, nil
}

// IsTruncated reports whether err from Read means the input ended early.
func IsTruncated(err error) bool {
	return errors.Is(err, io.ErrUnexpectedEOF)
}

// NormalizePath strips the file:// scheme from an artifact URI.
func NormalizePath(uri string) string {
	if rest, ok := strings.CutPrefix(uri, "file://"); ok {
		return rest
	}
	return uri
}
