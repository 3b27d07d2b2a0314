// Package junit parses Ant JUnit and Surefire XML test reports.
package junit

import (
	"github.com/dkoosis/reportwatch/internal/detect"
	"github.com/dkoosis/reportwatch/pkg/ingest"
)

const (
	// Type is the report type handled by Factory.
	Type = detect.TypeJUnit
	// SurefireType is an alias for Type; Surefire writes the same schema.
	SurefireType = "surefire"
)

// Factory creates JUnit parsers.
type Factory struct{}

var _ ingest.ParserFactory = Factory{}

func (Factory) Type() string { return Type }

func (Factory) Description() string { return "Ant JUnit reports" }

func (Factory) Stage() ingest.ParsingStage { return ingest.StageBeforeFinish }

func (Factory) CreateParser(p ingest.ParseParameters) ingest.Parser {
	parser := NewParser(p.Tests, p.Suites, p.Log())
	parser.Verbose = p.Verbose
	return parser
}

func (Factory) CreateEmptyResult() ingest.ParsingResult { return ingest.NewTestResult() }

func (Factory) IsReportComplete(path string) bool {
	return detect.XMLComplete(path, "testsuite", "testsuites")
}

// Register adds the JUnit factory and the Surefire alias to r.
func Register(r *ingest.Registry) {
	r.Register(Factory{})
	r.Alias(SurefireType, Type)
}
