package ingest

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/dkoosis/reportwatch/pkg/event"
)

// ParseCommand parses one queued report file and records the outcome in
// RulesState.
type ParseCommand struct {
	Entry   QueueEntry
	Factory ParserFactory
	Rules   *RulesState
	Params  ParseParameters
	// Stream, when set, provides the reporters in Params, bound to the
	// file's flow.
	Stream *event.Stream
	Logger *slog.Logger // Optional, uses slog.Default() if nil
}

// Outcome is the result of running a ParseCommand.
type Outcome struct {
	Path     string
	Type     string
	State    ReportState
	Finished bool
	Skipped  bool
	Result   ParsingResult
}

// Run executes the command. It never panics on behalf of the parser.
func (c *ParseCommand) Run() Outcome {
	path := c.Entry.Path
	log := c.logger().With("path", path, "type", c.Entry.Type)
	out := Outcome{Path: path, Type: c.Entry.Type}

	info, err := os.Stat(path)
	if err != nil {
		log.Debug("report is gone, skipping", "error", err)
		c.Rules.Release(path)
		out.State = StateDiscovered
		out.Skipped = true
		return out
	}
	snap := SnapshotOf(info)

	c.Rules.MarkProcessing(path)
	params := c.bind()
	parser := c.Factory.CreateParser(params)
	prior := c.Rules.ParsingResult(path)

	finished, problem := c.parse(parser, prior, log)

	result := parser.ParsingResult()
	if result == nil {
		result = c.Factory.CreateEmptyResult()
	}
	if problem != nil {
		result.SetProblem(problem)
	}

	switch {
	case !finished:
		result.SetPartial(true)
		out.State = StateDiscovered
		log.Debug("report is incomplete, waiting for more data", "units", result.Units())
	case problem != nil:
		result.SetPartial(false)
		out.State = StateError
	default:
		result.SetPartial(false)
		out.State = StateProcessed
	}
	out.Finished = finished

	c.Rules.SetReportState(path, out.State, snap, result)
	out.Result = c.Rules.ParsingResult(path)

	if finished {
		LogFileResult(messages(params), path, out.Result)
	}
	return out
}

func (c *ParseCommand) parse(p Parser, prior ParsingResult, log *slog.Logger) (finished bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			finished = true
			err = &PanicError{Value: r, Stack: debug.Stack()}
			log.Error("parser panicked", "panic", r)
		}
	}()

	finished, err = p.Parse(c.Entry.Path, prior)
	if err != nil {
		var pe *ParsingError
		if !errors.As(err, &pe) {
			log.Error("unexpected error while parsing report", "error", err)
		}
		return true, err
	}
	return finished, nil
}

func (c *ParseCommand) bind() ParseParameters {
	p := c.Params
	if p.Logger == nil {
		p.Logger = c.logger()
	}
	if p.Suites == nil {
		p.Suites = c.Rules
	}
	if c.Stream != nil {
		s := c.Stream.ForFlow(c.Entry.Path)
		p.Tests = s
		p.Inspections = s
		p.Duplicates = s
	}
	return p
}

func (c *ParseCommand) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func messages(p ParseParameters) event.MessageLogger {
	switch {
	case p.Tests != nil:
		return p.Tests
	case p.Inspections != nil:
		return p.Inspections
	case p.Duplicates != nil:
		return p.Duplicates
	}
	return nil
}

// LogFileResult writes the outcome of a finished parse to the build log.
func LogFileResult(log event.MessageLogger, path string, r ParsingResult) {
	if log == nil || r == nil {
		return
	}
	if err := r.Problem(); err != nil {
		log.Error(fmt.Sprintf("Failed to parse %s: %v", path, problemText(err)))
		return
	}
	log.Info(fmt.Sprintf("%s report processed: %s", path, r.Summary()))
}

func problemText(err error) string {
	var pe *ParsingError
	if errors.As(err, &pe) {
		return pe.Err.Error()
	}
	return err.Error()
}
