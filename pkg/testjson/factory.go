package testjson

import (
	"github.com/dkoosis/reportwatch/internal/detect"
	"github.com/dkoosis/reportwatch/pkg/ingest"
)

// Type is the report type handled by Factory.
const Type = detect.TypeTestJSON

// Factory creates go test -json parsers. Reports are parsed while the build
// runs.
type Factory struct{}

var _ ingest.ParserFactory = Factory{}

func (Factory) Type() string { return Type }

func (Factory) Description() string { return "go test -json output" }

func (Factory) Stage() ingest.ParsingStage { return ingest.StageRuntime }

func (Factory) CreateParser(p ingest.ParseParameters) ingest.Parser {
	return NewParser(p.Tests, p.Suites, p.Log())
}

func (Factory) CreateEmptyResult() ingest.ParsingResult { return ingest.NewTestResult() }

func (Factory) IsReportComplete(path string) bool { return detect.LinesComplete(path) }
