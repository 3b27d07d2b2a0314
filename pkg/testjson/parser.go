package testjson

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dkoosis/reportwatch/pkg/event"
	"github.com/dkoosis/reportwatch/pkg/ingest"
)

// Parser reads go test -json reports. Each package is a suite, identified by
// its import path and the time of its first event; each test-level pass, fail
// or skip is one unit.
type Parser struct {
	tests  event.TestReporter
	suites ingest.SuiteRegistry
	log    *slog.Logger

	path     string
	prior    *ingest.TestResult
	result   *ingest.TestResult
	skip     int
	packages map[string]*pkgState
	order    []string
}

type pkgState struct {
	name        string
	id          ingest.SuiteIdentity
	mode        ingest.SuiteMode
	tests       int
	runAt       map[string]time.Time
	outputBuf   map[string][]string
	coverage    float64
	panicked    bool
	panicOutput []string
	done        bool
}

// NewParser creates a parser that reports to tests. suites may be nil.
func NewParser(tests event.TestReporter, suites ingest.SuiteRegistry, log *slog.Logger) *Parser {
	if log == nil {
		log = slog.Default()
	}
	return &Parser{tests: tests, suites: suites, log: log, result: ingest.NewTestResult()}
}

// ParsingResult implements ingest.Parser.
func (p *Parser) ParsingResult() ingest.ParsingResult { return p.result }

// Parse implements ingest.Parser. The report is finished once it ends with a
// complete line and every package in it has finished.
func (p *Parser) Parse(path string, prior ingest.ParsingResult) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return true, ingest.NewParsingError(path, err)
	}
	defer f.Close()

	p.reset(path, ingest.AsTestResult(prior))
	res, err := Decode(f, p.processEvent)
	if err != nil {
		return true, ingest.NewParsingError(path, err)
	}
	if res.Malformed > 0 {
		p.log.Debug("skipped malformed lines", "path", path, "count", res.Malformed)
	}
	return res.Complete && p.allDone(), nil
}

func (p *Parser) reset(path string, prior *ingest.TestResult) {
	p.path = path
	p.prior = prior
	p.result = ingest.NewTestResult()
	p.packages = make(map[string]*pkgState)
	p.order = nil
	p.skip = 0
	if prior != nil {
		p.skip = prior.Tests
	}
}

func (p *Parser) allDone() bool {
	if len(p.order) == 0 {
		return false
	}
	for _, name := range p.order {
		if !p.packages[name].done {
			return false
		}
	}
	return true
}

func (p *Parser) getOrCreate(e TestEvent) *pkgState {
	if pkg, ok := p.packages[e.Package]; ok {
		return pkg
	}
	pkg := &pkgState{
		name:      e.Package,
		id:        ingest.SuiteIdentity{Name: e.Package, Timestamp: timestamp(e.Time)},
		runAt:     make(map[string]time.Time),
		outputBuf: make(map[string][]string),
	}
	pkg.mode = ingest.EnterSuite(pkg.id, p.path, p.prior, p.result, p.suites)
	if pkg.mode == ingest.SuiteReport {
		p.tests.SuiteStarted(pkg.name, e.Time)
	}
	p.packages[e.Package] = pkg
	p.order = append(p.order, e.Package)
	return pkg
}

func (p *Parser) processEvent(e TestEvent) {
	if e.Package == "" {
		return
	}
	pkg := p.getOrCreate(e)
	if pkg.done {
		return
	}

	switch e.Action {
	case ActionRun:
		pkg.runAt[e.Test] = e.Time

	case ActionOutput:
		output := strings.TrimRight(e.Output, "\n")
		if output == "" {
			return
		}
		// Track output per test (empty test name = package-level output)
		pkg.outputBuf[e.Test] = append(pkg.outputBuf[e.Test], output)

		if strings.Contains(output, "panic:") || strings.HasPrefix(output, "goroutine ") {
			pkg.panicked = true
			pkg.panicOutput = append(pkg.panicOutput, output)
		}
		if strings.Contains(output, "coverage:") && strings.Contains(output, "% of statements") {
			var cov float64
			_, _ = fmt.Sscanf(strings.TrimSpace(output), "coverage: %f%% of statements", &cov)
			if cov > 0 {
				pkg.coverage = cov
			}
		}

	case ActionPass, ActionFail, ActionSkip:
		if e.Test != "" {
			p.endTest(pkg, e)
		} else {
			p.endPackage(pkg, e)
		}
	}
}

func (p *Parser) endTest(pkg *pkgState, e TestEvent) {
	processed := p.result.Tests
	p.result.Tests++
	pkg.tests++
	switch e.Action {
	case ActionFail:
		p.result.Failures++
	case ActionSkip:
		p.result.Ignored++
	}

	output := testOutput(pkg.outputBuf[e.Test])
	delete(pkg.outputBuf, e.Test)
	if processed < p.skip || pkg.mode == ingest.SuiteSkip {
		return
	}

	name := pkg.name + "." + e.Test
	if e.Action == ActionSkip {
		p.tests.TestIgnored(name, output)
		return
	}
	d := e.ElapsedDuration()
	start, ok := pkg.runAt[e.Test]
	if !ok {
		start = e.Time.Add(-d)
	}
	p.tests.TestStarted(name, start)
	if e.Action == ActionFail {
		p.tests.TestFailed(name, "", output)
	} else if output != "" {
		p.tests.TestStdOut(name, output)
	}
	p.tests.TestFinished(name, e.Time, d)
}

func (p *Parser) endPackage(pkg *pkgState, e TestEvent) {
	pkg.done = true
	if !ingest.LeaveSuite(pkg.id, p.path, pkg.mode, p.result, p.suites) {
		return
	}

	if e.Action == ActionFail {
		switch {
		case pkg.panicked:
			p.tests.Error(fmt.Sprintf("Package %s panicked:\n%s", pkg.name, strings.Join(pkg.panicOutput, "\n")))
		case pkg.tests == 0:
			// Failed with no tests run: a build error.
			p.tests.Error(fmt.Sprintf("Package %s failed to build:\n%s", pkg.name, strings.Join(pkg.outputBuf[""], "\n")))
		}
	}
	if pkg.coverage > 0 {
		p.tests.Info(fmt.Sprintf("Coverage for %s: %.1f%% of statements", pkg.name, pkg.coverage))
	}
	p.tests.SuiteFinished(pkg.name, e.Time)
}

// testOutput drops the framework's own progress lines.
func testOutput(lines []string) string {
	var kept []string
	for _, l := range lines {
		t := strings.TrimSpace(l)
		if strings.HasPrefix(t, "=== ") || strings.HasPrefix(t, "--- PASS") ||
			strings.HasPrefix(t, "--- FAIL") || strings.HasPrefix(t, "--- SKIP") {
			continue
		}
		kept = append(kept, l)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
