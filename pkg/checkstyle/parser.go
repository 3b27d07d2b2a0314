package checkstyle

import (
	"encoding/xml"
	"errors"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/dkoosis/reportwatch/internal/pathrules"
	"github.com/dkoosis/reportwatch/internal/xmlutil"
	"github.com/dkoosis/reportwatch/pkg/event"
	"github.com/dkoosis/reportwatch/pkg/ingest"
)

// Parser reads Checkstyle XML. Every <error> element is one finding; findings
// reported by an earlier pass over the same file are counted but not sent
// again.
type Parser struct {
	out         event.InspectionReporter
	checkoutDir string
	log         *slog.Logger
	// MinSeverity drops less severe findings from the output.
	MinSeverity event.Severity

	result *ingest.InspectionResult
	skip   int
	seen   map[string]bool
}

// NewParser creates a parser that reports to out. File names are made
// relative to checkoutDir when it is set.
func NewParser(out event.InspectionReporter, checkoutDir string, log *slog.Logger) *Parser {
	if log == nil {
		log = slog.Default()
	}
	return &Parser{out: out, checkoutDir: checkoutDir, log: log, result: ingest.NewInspectionResult()}
}

// ParsingResult implements ingest.Parser.
func (p *Parser) ParsingResult() ingest.ParsingResult { return p.result }

// Parse implements ingest.Parser.
func (p *Parser) Parse(path string, prior ingest.ParsingResult) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return true, ingest.NewParsingError(path, err)
	}
	defer f.Close()
	return p.parse(path, f, prior)
}

func (p *Parser) parse(path string, r io.Reader, prior ingest.ParsingResult) (bool, error) {
	p.result = ingest.NewInspectionResult()
	p.seen = make(map[string]bool)
	p.skip = 0
	if prior != nil {
		p.skip = prior.Units()
	}

	d := xmlutil.NewDecoder(r)
	depth := 0
	sawRoot := false
	file := ""
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) && sawRoot && depth == 0 {
			return true, nil
		}
		if err != nil {
			if xmlutil.IsTruncated(err) {
				p.log.Debug("report ends early", "path", path, "findings", p.result.Units())
				return false, nil
			}
			return true, ingest.NewParsingError(path, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 && t.Name.Local != "checkstyle" {
				return true, ingest.NewParsingError(path, errors.New("root element is <"+t.Name.Local+">, want <checkstyle>"))
			}
			sawRoot = true
			depth++
			switch t.Name.Local {
			case "file":
				file = pathrules.Relative(p.checkoutDir, xmlutil.Attr(t, "name"))
			case "error":
				p.finding(file, t)
			}
		case xml.EndElement:
			depth--
			if t.Name.Local == "file" {
				file = ""
			}
		}
	}
}

func (p *Parser) finding(file string, se xml.StartElement) {
	sev := severity(xmlutil.Attr(se, "severity"))
	processed := p.result.Units()
	switch sev {
	case event.SeverityError:
		p.result.Errors++
	case event.SeverityWarning:
		p.result.Warnings++
	default:
		p.result.Infos++
	}

	if !sev.AtLeast(p.MinSeverity) {
		return
	}
	source := xmlutil.Attr(se, "source")
	if source == "" {
		source = "checkstyle"
	}
	first := !p.seen[source]
	p.seen[source] = true
	if processed < p.skip {
		return
	}
	if first {
		p.out.InspectionType(event.InspectionType{ID: source, Name: shortName(source), Category: category(source)})
	}
	line, _ := strconv.Atoi(xmlutil.Attr(se, "line"))
	p.out.Inspection(event.Inspection{
		TypeID:   source,
		File:     file,
		Line:     max(line, 0),
		Message:  xmlutil.FormatText(xmlutil.Attr(se, "message")),
		Severity: sev,
	})
}

func severity(s string) event.Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return event.SeverityError
	case "warning":
		return event.SeverityWarning
	default:
		return event.SeverityInfo
	}
}

// shortName turns "com.puppycrawl.tools.checkstyle.checks.whitespace.TabCheck"
// into "TabCheck".
func shortName(source string) string {
	if i := strings.LastIndexByte(source, '.'); i >= 0 && i < len(source)-1 {
		return source[i+1:]
	}
	return source
}

func category(source string) string {
	parts := strings.Split(source, ".")
	if len(parts) < 2 {
		return ""
	}
	return parts[len(parts)-2]
}
