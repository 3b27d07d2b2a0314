package detect

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"os"

	"github.com/dkoosis/reportwatch/internal/xmlutil"
)

const (
	tailSize = 1 << 10
	// Small XML files that do not end with a closing root tag are decoded in
	// full, which catches self-closing roots such as <testsuite/>.
	smallXML = 64 << 10
)

// XMLComplete reports whether the file at path is non-empty and ends with the
// closing tag of one of roots.
func XMLComplete(path string, roots ...string) bool {
	tail, size, err := readTail(path)
	if err != nil || size == 0 {
		return false
	}
	tail = bytes.TrimRight(tail, " \t\r\n")
	for _, root := range roots {
		if bytes.HasSuffix(tail, []byte("</"+root+">")) {
			return true
		}
	}
	if !bytes.HasSuffix(tail, []byte("/>")) || size > smallXML {
		return false
	}
	return decodesCompletely(path, roots)
}

// JSONComplete reports whether the file at path is non-empty and ends with the
// end of a JSON object or array.
func JSONComplete(path string) bool {
	tail, size, err := readTail(path)
	if err != nil || size == 0 {
		return false
	}
	tail = bytes.TrimRight(tail, " \t\r\n")
	if len(tail) == 0 {
		return false
	}
	last := tail[len(tail)-1]
	return last == '}' || last == ']'
}

// LinesComplete reports whether the file at path is non-empty and ends with a
// newline.
func LinesComplete(path string) bool {
	tail, size, err := readTail(path)
	if err != nil || size == 0 || len(tail) == 0 {
		return false
	}
	return tail[len(tail)-1] == '\n'
}

func readTail(path string) ([]byte, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, 0, err
	}
	size := info.Size()
	off := size - tailSize
	if off < 0 {
		off = 0
	}
	buf := make([]byte, size-off)
	if _, err := f.ReadAt(buf, off); err != nil && !errors.Is(err, io.EOF) {
		return nil, 0, err
	}
	return buf, size, nil
}

func decodesCompletely(path string, roots []string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	d := xmlutil.NewDecoder(f)
	sawRoot := false
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			return sawRoot
		}
		if err != nil {
			return false
		}
		if se, ok := tok.(xml.StartElement); ok && !sawRoot {
			for _, root := range roots {
				if se.Name.Local == root {
					sawRoot = true
				}
			}
			if !sawRoot {
				return false
			}
		}
	}
}
