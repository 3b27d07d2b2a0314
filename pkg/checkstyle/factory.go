// Package checkstyle parses Checkstyle XML inspection reports, as written by
// Checkstyle itself and by linters that borrow its format (golangci-lint,
// ESLint, PHP_CodeSniffer).
package checkstyle

import (
	"github.com/dkoosis/reportwatch/internal/detect"
	"github.com/dkoosis/reportwatch/pkg/ingest"
)

// Type is the report type handled by Factory.
const Type = detect.TypeCheckstyle

// Factory creates Checkstyle parsers.
type Factory struct{}

var _ ingest.ParserFactory = Factory{}

func (Factory) Type() string { return Type }

func (Factory) Description() string { return "Checkstyle inspection reports" }

func (Factory) Stage() ingest.ParsingStage { return ingest.StageBeforeFinish }

func (Factory) CreateParser(p ingest.ParseParameters) ingest.Parser {
	parser := NewParser(p.Inspections, p.CheckoutDir, p.Log())
	parser.MinSeverity = p.MinSeverity()
	return parser
}

func (Factory) CreateEmptyResult() ingest.ParsingResult { return ingest.NewInspectionResult() }

func (Factory) IsReportComplete(path string) bool {
	return detect.XMLComplete(path, "checkstyle")
}
