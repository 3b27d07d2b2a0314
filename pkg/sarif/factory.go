package sarif

import (
	"github.com/dkoosis/reportwatch/internal/detect"
	"github.com/dkoosis/reportwatch/pkg/ingest"
)

// Type is the report type handled by Factory.
const Type = detect.TypeSARIF

// Factory creates SARIF parsers.
type Factory struct{}

var _ ingest.ParserFactory = Factory{}

func (Factory) Type() string { return Type }

func (Factory) Description() string { return "SARIF 2.1.0 static analysis results" }

func (Factory) Stage() ingest.ParsingStage { return ingest.StageBeforeFinish }

func (Factory) CreateParser(p ingest.ParseParameters) ingest.Parser {
	parser := NewParser(p.Inspections, p.Log())
	parser.MinSeverity = p.MinSeverity()
	return parser
}

func (Factory) CreateEmptyResult() ingest.ParsingResult { return ingest.NewInspectionResult() }

func (Factory) IsReportComplete(path string) bool { return detect.JSONComplete(path) }
