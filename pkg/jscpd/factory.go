package jscpd

import (
	"github.com/dkoosis/reportwatch/internal/detect"
	"github.com/dkoosis/reportwatch/pkg/ingest"
)

// Type is the report type handled by Factory.
const Type = detect.TypeJSCPD

// Factory creates jscpd parsers. Duplication reports are read once the
// build has finished.
type Factory struct{}

var _ ingest.ParserFactory = Factory{}

func (Factory) Type() string { return Type }

func (Factory) Description() string { return "jscpd duplicates reports" }

func (Factory) Stage() ingest.ParsingStage { return ingest.StageAfterFinish }

func (Factory) CreateParser(p ingest.ParseParameters) ingest.Parser {
	return NewParser(p.Duplicates, p.CheckoutDir, p.Log())
}

func (Factory) CreateEmptyResult() ingest.ParsingResult { return ingest.NewDuplicationResult() }

func (Factory) IsReportComplete(path string) bool { return detect.JSONComplete(path) }
