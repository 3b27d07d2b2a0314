// Package detect recognizes report formats by content and decides whether a
// report file looks complete enough to parse.
package detect

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"io"
	"os"

	"github.com/dkoosis/reportwatch/internal/xmlutil"
)

// Format represents a recognized report format.
type Format int

const (
	Unknown       Format = iota
	SARIF                // SARIF 2.1.0 JSON document
	GoTestJSON           // go test -json NDJSON stream
	JUnitXML             // Ant JUnit / Surefire XML
	CheckstyleXML        // Checkstyle XML
	JSCPD                // jscpd JSON report
)

// Report type names the formats map to.
const (
	TypeSARIF      = "sarif"
	TypeTestJSON   = "testjson"
	TypeJUnit      = "junit"
	TypeCheckstyle = "checkstyle"
	TypeJSCPD      = "jscpd"
)

// sniffLimit is how much of a file SniffFile looks at.
const sniffLimit = 8 << 10

func (f Format) String() string {
	switch f {
	case SARIF:
		return "SARIF"
	case GoTestJSON:
		return "GoTestJSON"
	case JUnitXML:
		return "JUnitXML"
	case CheckstyleXML:
		return "CheckstyleXML"
	case JSCPD:
		return "JSCPD"
	default:
		return "Unknown"
	}
}

// ReportType returns the report type name for f, or "" for Unknown.
func (f Format) ReportType() string {
	switch f {
	case SARIF:
		return TypeSARIF
	case GoTestJSON:
		return TypeTestJSON
	case JUnitXML:
		return TypeJUnit
	case CheckstyleXML:
		return TypeCheckstyle
	case JSCPD:
		return TypeJSCPD
	default:
		return ""
	}
}

// SniffFile examines the head of the file at path.
func SniffFile(path string) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return Unknown, err
	}
	defer f.Close()

	buf := make([]byte, sniffLimit)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return Unknown, err
	}
	return Sniff(buf[:n]), nil
}

// Sniff examines the first bytes of input to determine format. The input may
// be a prefix of a larger document.
func Sniff(data []byte) Format {
	data = bytes.TrimLeft(data, " \t\r\n\ufeff")
	if len(data) == 0 {
		return Unknown
	}

	switch data[0] {
	case '<':
		return sniffXML(data)
	case '{':
	default:
		return Unknown
	}

	// go test -json is one object per line; try it on the first line before
	// walking the prefix as a single document.
	if isGoTestJSON(data) {
		return GoTestJSON
	}
	return sniffJSONDocument(data)
}

func sniffXML(data []byte) Format {
	d := xmlutil.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := d.Token()
		if err != nil {
			return Unknown
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "testsuite", "testsuites":
			return JUnitXML
		case "checkstyle":
			return CheckstyleXML
		default:
			return Unknown
		}
	}
}

// sniffJSONDocument walks the top-level keys of a (possibly truncated) JSON
// object, skipping over values.
func sniffJSONDocument(data []byte) Format {
	d := json.NewDecoder(bytes.NewReader(data))
	if tok, err := d.Token(); err != nil || tok != json.Delim('{') {
		return Unknown
	}

	var hasVersion, hasRuns bool
	for d.More() {
		tok, err := d.Token()
		if err != nil {
			break
		}
		key, ok := tok.(string)
		if !ok {
			break
		}
		switch key {
		case "duplicates":
			return JSCPD
		case "runs":
			hasRuns = true
		case "version", "$schema":
			hasVersion = true
		}
		if hasRuns && hasVersion {
			return SARIF
		}
		var skip json.RawMessage
		if err := d.Decode(&skip); err != nil {
			break
		}
	}
	if hasRuns && hasVersion {
		return SARIF
	}
	return Unknown
}

func isGoTestJSON(data []byte) bool {
	end := bytes.IndexByte(data, '\n')
	if end < 0 {
		end = len(data)
	}
	firstLine := data[:end]

	var event struct {
		Action  string `json:"Action"`
		Package string `json:"Package"`
	}
	if err := json.Unmarshal(firstLine, &event); err != nil {
		return false
	}

	validActions := map[string]bool{
		"start": true, "run": true, "pause": true, "cont": true,
		"pass": true, "bench": true, "fail": true, "output": true, "skip": true,
	}
	return validActions[event.Action]
}
