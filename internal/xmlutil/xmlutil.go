// Package xmlutil holds the encoding/xml plumbing shared by the XML report
// parsers.
package xmlutil

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
)

// NewDecoder returns a strict decoder for r that understands the character
// sets registered with IANA, not just UTF-8.
func NewDecoder(r io.Reader) *xml.Decoder {
	d := xml.NewDecoder(r)
	d.Strict = true
	d.CharsetReader = CharsetReader
	return d
}

// CharsetReader converts input in the named charset to UTF-8.
func CharsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, fmt.Errorf("charset %q: %w", label, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("charset %q is not supported", label)
	}
	return enc.NewDecoder().Reader(input), nil
}

// IsTruncated reports whether err means the document ended early, as opposed
// to being malformed.
func IsTruncated(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var se *xml.SyntaxError
	return errors.As(err, &se) && se.Msg == "unexpected EOF"
}

// Attr returns the value of the attribute with the given local name.
func Attr(se xml.StartElement, name string) string {
	v, _ := LookupAttr(se, name)
	return v
}

// LookupAttr is like Attr but also reports whether the attribute is present.
func LookupAttr(se xml.StartElement, name string) (string, bool) {
	for _, a := range se.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// FormatText normalizes line endings and trims surrounding whitespace.
func FormatText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.TrimSpace(s)
}
