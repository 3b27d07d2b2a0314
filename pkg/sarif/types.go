// Package sarif reads SARIF 2.1.0 documents and reports their results as
// inspections.
package sarif

// Document represents a SARIF 2.1.0 document.
// See: https://docs.oasis-open.org/sarif/sarif/v2.1.0/sarif-v2.1.0.html
type Document struct {
	Version string `json:"version"`
	Schema  string `json:"$schema,omitempty"`
	Runs    []Run  `json:"runs"`
}

// Run represents a single analysis run.
type Run struct {
	Tool    Tool     `json:"tool"`
	Results []Result `json:"results"`
}

// Tool identifies the analysis tool that produced the results.
type Tool struct {
	Driver Driver `json:"driver"`
}

// Driver describes the tool's identity and the rules it checks.
type Driver struct {
	Name    string                `json:"name"`
	Version string                `json:"version,omitempty"`
	Rules   []ReportingDescriptor `json:"rules,omitempty"`
}

// ReportingDescriptor describes one rule.
type ReportingDescriptor struct {
	ID               string             `json:"id"`
	Name             string             `json:"name,omitempty"`
	ShortDescription *Message           `json:"shortDescription,omitempty"`
	FullDescription  *Message           `json:"fullDescription,omitempty"`
	DefaultConfig    *RuleConfiguration `json:"defaultConfiguration,omitempty"`
	Properties       *RuleProperties    `json:"properties,omitempty"`
}

// RuleConfiguration carries a rule's default level.
type RuleConfiguration struct {
	Level string `json:"level,omitempty"`
}

// RuleProperties holds the property bag fields we read.
type RuleProperties struct {
	Tags []string `json:"tags,omitempty"`
}

// Result represents a single issue found by the tool.
type Result struct {
	RuleID    string     `json:"ruleId"`
	RuleIndex *int       `json:"ruleIndex,omitempty"`
	Level     string     `json:"level"` // "error", "warning", "note", "none"
	Message   Message    `json:"message"`
	Locations []Location `json:"locations,omitempty"`
}

// Message contains the issue description.
type Message struct {
	Text string `json:"text"`
}

// Location identifies where the issue was found.
type Location struct {
	PhysicalLocation PhysicalLocation `json:"physicalLocation"`
}

// PhysicalLocation pinpoints the file and region.
type PhysicalLocation struct {
	ArtifactLocation ArtifactLocation `json:"artifactLocation"`
	Region           Region           `json:"region,omitempty"`
}

// ArtifactLocation identifies the file.
type ArtifactLocation struct {
	URI   string `json:"uri"`
	Index int    `json:"index,omitempty"`
}

// Region identifies the specific location within the file.
type Region struct {
	StartLine   int `json:"startLine,omitempty"`
	StartColumn int `json:"startColumn,omitempty"`
	EndLine     int `json:"endLine,omitempty"`
	EndColumn   int `json:"endColumn,omitempty"`
}

// File returns the URI of the result's first location, normalized.
func (r Result) File() string {
	if len(r.Locations) == 0 {
		return ""
	}
	return NormalizePath(r.Locations[0].PhysicalLocation.ArtifactLocation.URI)
}

// Line returns the start line of the result's first location.
func (r Result) Line() int {
	if len(r.Locations) == 0 {
		return 0
	}
	return r.Locations[0].PhysicalLocation.Region.StartLine
}

// Rule finds the descriptor a result refers to, by index first and then by
// id.
func (d Driver) Rule(r Result) (ReportingDescriptor, bool) {
	if r.RuleIndex != nil && *r.RuleIndex >= 0 && *r.RuleIndex < len(d.Rules) {
		return d.Rules[*r.RuleIndex], true
	}
	for _, rule := range d.Rules {
		if rule.ID == r.RuleID {
			return rule, true
		}
	}
	return ReportingDescriptor{}, false
}
