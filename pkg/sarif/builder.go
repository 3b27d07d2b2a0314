package sarif

import (
	"encoding/json"
	"io"
)

// Builder constructs valid SARIF 2.1.0 documents. Tests use it to write
// reports for the parser.
type Builder struct {
	doc *Document
}

// NewBuilder creates a SARIF builder for the given tool.
func NewBuilder(toolName, toolVersion string) *Builder {
	return &Builder{
		doc: &Document{
			Version: "2.1.0",
			Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/main/sarif-2.1/schema/sarif-schema-2.1.0.json",
			Runs: []Run{{
				Tool: Tool{Driver: Driver{Name: toolName, Version: toolVersion}},
			}},
		},
	}
}

func (b *Builder) run() *Run { return &b.doc.Runs[len(b.doc.Runs)-1] }

// AddRule declares a rule on the current run.
func (b *Builder) AddRule(id, description string) *Builder {
	rule := ReportingDescriptor{ID: id, Name: id}
	if description != "" {
		rule.ShortDescription = &Message{Text: description}
	}
	b.run().Tool.Driver.Rules = append(b.run().Tool.Driver.Rules, rule)
	return b
}

// AddResult adds a diagnostic result to the current run.
func (b *Builder) AddResult(ruleID, level, message, file string, line, col int) *Builder {
	r := Result{
		RuleID:  ruleID,
		Level:   level,
		Message: Message{Text: message},
	}
	if file != "" {
		r.Locations = []Location{{
			PhysicalLocation: PhysicalLocation{
				ArtifactLocation: ArtifactLocation{URI: file},
				Region: Region{
					StartLine:   line,
					StartColumn: col,
				},
			},
		}}
	}
	run := b.run()
	run.Results = append(run.Results, r)
	return b
}

// NewRun starts another run for a different tool.
func (b *Builder) NewRun(toolName, toolVersion string) *Builder {
	b.doc.Runs = append(b.doc.Runs, Run{Tool: Tool{Driver: Driver{Name: toolName, Version: toolVersion}}})
	return b
}

// Document returns the constructed SARIF document.
func (b *Builder) Document() *Document {
	return b.doc
}

// WriteTo writes the SARIF document as JSON to w.
func (b *Builder) WriteTo(w io.Writer) (int64, error) {
	data, err := json.MarshalIndent(b.doc, "", "  ")
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')
	n, err := w.Write(data)
	return int64(n), err
}
