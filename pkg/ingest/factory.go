package ingest

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/dkoosis/reportwatch/pkg/event"
)

// TypeAuto makes the watcher pick the report type of each file by content.
const TypeAuto = "auto"

// Parser consumes one report file. A Parser is created per parse and is not
// reused.
type Parser interface {
	// Parse reads the file at path from the start. Units already counted in
	// prior are tallied again but not reported. It returns false when the file
	// ends before the document is complete, in which case the partial result
	// is kept and the file is parsed again once it changes. An error is
	// terminal.
	Parse(path string, prior ParsingResult) (finished bool, err error)
	ParsingResult() ParsingResult
}

// ParserFactory creates parsers for one report type. Factories are stateless.
type ParserFactory interface {
	Type() string
	Description() string
	Stage() ParsingStage
	CreateParser(params ParseParameters) Parser
	CreateEmptyResult() ParsingResult
	// IsReportComplete is a cheap check that the file looks finished enough to
	// be worth parsing.
	IsReportComplete(path string) bool
}

// SuiteRegistry tracks which report file owns a suite. RulesState implements
// it.
type SuiteRegistry interface {
	ClaimSuite(id SuiteIdentity, path string) bool
	SuiteReported(id SuiteIdentity, path string)
}

// ParseParameters is everything a parser may need.
type ParseParameters struct {
	Tests       event.TestReporter
	Inspections event.InspectionReporter
	Duplicates  event.DuplicatesReporter
	Suites      SuiteRegistry
	Logger      *slog.Logger // Optional, uses slog.Default() if nil
	Verbose     bool
	CheckoutDir string
	Params      map[string]string
}

// Param returns the named free-form parameter or def.
func (p ParseParameters) Param(name, def string) string {
	if v, ok := p.Params[name]; ok && v != "" {
		return v
	}
	return def
}

// ParamMinSeverity names the parameter that drops inspections below a
// severity ("info", "warning" or "error") from the output. Dropped findings
// still count in the totals.
const ParamMinSeverity = "min_severity"

// MinSeverity returns the min_severity parameter, info when unset or unknown.
func (p ParseParameters) MinSeverity() event.Severity {
	switch sev := event.Severity(strings.ToLower(p.Param(ParamMinSeverity, ""))); sev {
	case event.SeverityError, event.SeverityWarning:
		return sev
	}
	return event.SeverityInfo
}

// Log returns the configured logger or the default one.
func (p ParseParameters) Log() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// TypeInfo describes a registered report type.
type TypeInfo struct {
	Type        string
	Description string
	Stage       ParsingStage
	AliasOf     string
}

// Registry maps report types to factories. It is populated before a session
// starts and only read afterwards.
type Registry struct {
	factories map[string]ParserFactory
	aliases   map[string]string
	stages    map[string]ParsingStage
}

// NewRegistry creates a registry holding factories.
func NewRegistry(factories ...ParserFactory) *Registry {
	r := &Registry{
		factories: make(map[string]ParserFactory),
		aliases:   make(map[string]string),
		stages:    make(map[string]ParsingStage),
	}
	for _, f := range factories {
		r.Register(f)
	}
	return r
}

// Register adds f under f.Type(), replacing any previous factory.
func (r *Registry) Register(f ParserFactory) {
	r.factories[f.Type()] = f
}

// Alias makes alias resolve to the factory registered as target.
func (r *Registry) Alias(alias, target string) {
	r.aliases[alias] = target
}

// Lookup returns the factory for typ.
func (r *Registry) Lookup(typ string) (ParserFactory, error) {
	if target, ok := r.aliases[typ]; ok {
		typ = target
	}
	f, ok := r.factories[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownReportType, typ)
	}
	return f, nil
}

// Has reports whether typ resolves to a factory.
func (r *Registry) Has(typ string) bool {
	_, err := r.Lookup(typ)
	return err == nil
}

// SetStage overrides the parsing stage of typ.
func (r *Registry) SetStage(typ string, s ParsingStage) {
	r.stages[typ] = s
}

// StageOf returns the effective parsing stage of typ: an override for typ or
// for the type it aliases, else the factory's own stage.
func (r *Registry) StageOf(typ string) ParsingStage {
	if s, ok := r.stages[typ]; ok {
		return s
	}
	if target, ok := r.aliases[typ]; ok {
		if s, ok := r.stages[target]; ok {
			return s
		}
	}
	f, err := r.Lookup(typ)
	if err != nil {
		return StageBeforeFinish
	}
	return f.Stage()
}

// Types lists registered types and aliases sorted by name.
func (r *Registry) Types() []TypeInfo {
	out := make([]TypeInfo, 0, len(r.factories)+len(r.aliases))
	for typ, f := range r.factories {
		out = append(out, TypeInfo{Type: typ, Description: f.Description(), Stage: r.StageOf(typ)})
	}
	for alias, target := range r.aliases {
		f, ok := r.factories[target]
		if !ok {
			continue
		}
		out = append(out, TypeInfo{Type: alias, Description: f.Description(), Stage: r.StageOf(alias), AliasOf: target})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}
