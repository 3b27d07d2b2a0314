package sarif

import (
	"log/slog"
	"os"

	"github.com/dkoosis/reportwatch/pkg/event"
	"github.com/dkoosis/reportwatch/pkg/ingest"
)

// Parser reports the results of a SARIF document as inspections and its
// rules as inspection types. A SARIF document cannot be read piecemeal, so a
// truncated document yields no results until it is complete.
type Parser struct {
	out    event.InspectionReporter
	log    *slog.Logger
	result *ingest.InspectionResult
	// MinSeverity drops less severe results from the output.
	MinSeverity event.Severity
}

// NewParser creates a parser that reports to out.
func NewParser(out event.InspectionReporter, log *slog.Logger) *Parser {
	if log == nil {
		log = slog.Default()
	}
	return &Parser{out: out, log: log, result: ingest.NewInspectionResult()}
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

	doc, err := Read(f)
	if err != nil {
		if IsTruncated(err) {
			p.log.Debug("report ends early", "path", path)
			return false, nil
		}
		return true, ingest.NewParsingError(path, err)
	}
	skip := 0
	if prior != nil {
		skip = prior.Units()
	}
	p.Report(doc, skip)
	return true, nil
}

// Report counts every result of doc and sends those past the first skip.
func (p *Parser) Report(doc *Document, skip int) {
	p.result = ingest.NewInspectionResult()
	for _, run := range doc.Runs {
		declared := make(map[string]bool)
		for _, res := range run.Results {
			rule, _ := run.Tool.Driver.Rule(res)
			sev := severity(res.Level, rule)
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
				continue
			}
			id := res.RuleID
			if id == "" {
				id = rule.ID
			}
			first := !declared[id]
			declared[id] = true
			if processed < skip {
				continue
			}
			if first {
				p.out.InspectionType(inspectionType(id, rule, run.Tool.Driver.Name))
			}
			p.out.Inspection(event.Inspection{
				TypeID:   id,
				File:     res.File(),
				Line:     res.Line(),
				Message:  res.Message.Text,
				Severity: sev,
			})
		}
	}
}

func inspectionType(id string, rule ReportingDescriptor, tool string) event.InspectionType {
	t := event.InspectionType{ID: id, Name: rule.Name, Category: tool}
	if t.Name == "" {
		t.Name = id
	}
	switch {
	case rule.ShortDescription != nil:
		t.Description = rule.ShortDescription.Text
	case rule.FullDescription != nil:
		t.Description = rule.FullDescription.Text
	}
	return t
}

// severity maps a result level to a severity. A missing level falls back to
// the rule's default, then to warning.
func severity(level string, rule ReportingDescriptor) event.Severity {
	if level == "" && rule.DefaultConfig != nil {
		level = rule.DefaultConfig.Level
	}
	switch level {
	case "error":
		return event.SeverityError
	case "warning", "":
		return event.SeverityWarning
	default:
		return event.SeverityInfo
	}
}
