package junit

import (
	"encoding/xml"
	"errors"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dkoosis/reportwatch/internal/xmlutil"
	"github.com/dkoosis/reportwatch/pkg/event"
	"github.com/dkoosis/reportwatch/pkg/ingest"
)

const unknownClass = "<unknown name>"

type frameKind int

const (
	frameOther frameKind = iota
	frameSuite
	frameTest
	frameFailure
	frameOutput
	frameTime
)

// frame is one open element. Suites own tests, tests own at most one failure.
type frame struct {
	kind  frameKind
	name  string
	suite *suiteFrame
	test  *testFrame
	fail  *failure
	text  strings.Builder
}

type suiteFrame struct {
	id       ingest.SuiteIdentity
	mode     ingest.SuiteMode
	start    time.Time
	duration time.Duration
	fail     *failure
	stdout   string
	stderr   string
}

type testFrame struct {
	className string
	name      string
	executed  bool
	skipped   string
	start     time.Time
	duration  time.Duration
	fail      *failure
	stdout    string
	stderr    string
}

func (t *testFrame) fullName() string {
	return t.className + "." + t.name
}

type failure struct {
	typ     string
	message string
	trace   string
}

func (f *failure) text() string {
	switch {
	case f.typ != "" && f.message != "":
		return f.typ + ": " + f.message
	case f.typ != "":
		return f.typ
	default:
		return f.message
	}
}

// Parser reads Ant JUnit XML reports. It may be run repeatedly over a file
// that is still being written; tests reported by an earlier run are counted
// but not reported again.
type Parser struct {
	// Verbose reports suites skipped as duplicates in the build log.
	Verbose bool

	tests  event.TestReporter
	suites ingest.SuiteRegistry
	log    *slog.Logger
	now    func() time.Time

	path   string
	prior  *ingest.TestResult
	result *ingest.TestResult
	skip   int // tests to count without reporting
	seeded int // skip as seeded from the prior result
	stack  []*frame
	suite  *suiteFrame
}

// NewParser creates a parser that reports to tests. suites may be nil.
func NewParser(tests event.TestReporter, suites ingest.SuiteRegistry, log *slog.Logger) *Parser {
	if log == nil {
		log = slog.Default()
	}
	return &Parser{
		tests:  tests,
		suites: suites,
		log:    log,
		now:    time.Now,
		result: ingest.NewTestResult(),
	}
}

// ParsingResult implements ingest.Parser.
func (p *Parser) ParsingResult() ingest.ParsingResult { return p.result }

// Parse implements ingest.Parser.
func (p *Parser) Parse(path string, prior ingest.ParsingResult) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return true, ingest.NewParsingError(path, err)
	}
	defer f.Close()
	return p.parse(path, f, ingest.AsTestResult(prior))
}

func (p *Parser) parse(path string, r io.Reader, prior *ingest.TestResult) (bool, error) {
	p.path = path
	p.prior = prior
	p.result = ingest.NewTestResult()
	p.stack = p.stack[:0]
	p.suite = nil
	p.skip = 0
	if prior != nil {
		p.skip = prior.Tests
	}
	p.seeded = p.skip

	d := xmlutil.NewDecoder(r)
	sawRoot := false
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) && sawRoot && len(p.stack) == 0 {
			return true, nil
		}
		if err != nil {
			if xmlutil.IsTruncated(err) {
				p.log.Debug("report ends early", "path", path, "tests", p.result.Tests)
				return false, nil
			}
			return true, ingest.NewParsingError(path, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			sawRoot = true
			p.startElement(t)
		case xml.EndElement:
			p.endElement()
		case xml.CharData:
			if top := p.top(); top != nil && (top.kind == frameFailure || top.kind == frameOutput || top.kind == frameTime) {
				top.text.Write(t)
			}
		}
	}
}

func (p *Parser) top() *frame {
	if len(p.stack) == 0 {
		return nil
	}
	return p.stack[len(p.stack)-1]
}

// currentTest returns the innermost open test.
func (p *Parser) currentTest() *testFrame {
	for i := len(p.stack) - 1; i >= 0; i-- {
		if p.stack[i].kind == frameTest {
			return p.stack[i].test
		}
	}
	return nil
}

func (p *Parser) startElement(se xml.StartElement) {
	fr := &frame{kind: frameOther, name: se.Name.Local}
	switch se.Name.Local {
	case "testsuite":
		fr.kind = frameSuite
		if p.suite == nil {
			fr.suite = p.startSuite(se)
			p.suite = fr.suite
		}
	case "testcase":
		fr.kind = frameTest
		fr.test = p.startTest(se)
	case "failure", "error":
		fr.kind = frameFailure
		fr.fail = &failure{typ: xmlutil.Attr(se, "type"), message: xmlutil.Attr(se, "message")}
		if t := p.currentTest(); t != nil {
			if t.fail == nil {
				t.fail = fr.fail
			}
		} else if p.suite != nil && p.suite.fail == nil {
			p.suite.fail = fr.fail
		}
	case "skipped":
		if t := p.currentTest(); t != nil {
			t.executed = false
			t.skipped = xmlutil.Attr(se, "message")
		}
	case "system-out", "system-err":
		fr.kind = frameOutput
	case "time":
		fr.kind = frameTime
	}
	p.stack = append(p.stack, fr)
}

func (p *Parser) endElement() {
	fr := p.top()
	if fr == nil {
		return
	}
	p.stack = p.stack[:len(p.stack)-1]

	switch fr.kind {
	case frameSuite:
		if fr.suite != nil {
			p.endSuite(fr.suite)
			p.suite = nil
		}
	case frameTest:
		p.endTest(fr.test)
	case frameFailure:
		fr.fail.trace = xmlutil.FormatText(fr.text.String())
	case frameOutput:
		p.assignOutput(fr.name, xmlutil.FormatText(fr.text.String()))
	case frameTime:
		if t := p.currentTest(); t != nil {
			t.duration = parseDuration(fr.text.String())
		}
	}
}

func (p *Parser) assignOutput(element, text string) {
	if text == "" {
		return
	}
	stdout := element == "system-out"
	if t := p.currentTest(); t != nil {
		if stdout {
			t.stdout = text
		} else {
			t.stderr = text
		}
		return
	}
	if p.suite != nil {
		if stdout {
			p.suite.stdout = text
		} else {
			p.suite.stderr = text
		}
	}
}

func (p *Parser) startSuite(se xml.StartElement) *suiteFrame {
	name := xmlutil.Attr(se, "name")
	if pkg := xmlutil.Attr(se, "package"); pkg != "" && !strings.HasPrefix(name, pkg) {
		name = pkg + "." + name
	}
	s := &suiteFrame{
		id:       ingest.SuiteIdentity{Name: name, Timestamp: xmlutil.Attr(se, "timestamp")},
		start:    p.now(),
		duration: parseDuration(xmlutil.Attr(se, "time")),
	}
	s.mode = ingest.EnterSuite(s.id, p.path, p.prior, p.result, p.suites)

	switch s.mode {
	case ingest.SuiteReport:
		p.tests.SuiteStarted(name, s.start)
	case ingest.SuiteSkip:
		declared := parseCount(xmlutil.Attr(se, "tests"))
		p.skip = max(p.skip, p.result.Tests+declared)
		p.log.Debug("suite already reported from another report, skipping", "suite", s.id.String(), "path", p.path)
		if p.Verbose {
			p.tests.Info("Suite " + s.id.String() + " was already reported from another report, skipping it in " + p.path)
		}
	}
	return s
}

func (p *Parser) endSuite(s *suiteFrame) {
	if s.mode == ingest.SuiteSkip {
		// The declared count may overstate the suite; tests after it are new.
		p.skip = max(p.seeded, p.result.Tests)
	}
	if !ingest.LeaveSuite(s.id, p.path, s.mode, p.result, p.suites) {
		return
	}
	if s.fail != nil {
		p.tests.Error(s.fail.text())
	}
	if s.stdout != "" {
		p.tests.Info("System out from suite " + s.id.Name + ": " + s.stdout)
	}
	if s.stderr != "" {
		p.tests.Warning("System error from suite " + s.id.Name + ": " + s.stderr)
	}
	p.tests.SuiteFinished(s.id.Name, s.start.Add(s.duration))
}

func (p *Parser) startTest(se xml.StartElement) *testFrame {
	className := xmlutil.Attr(se, "classname")
	if className == "" {
		className = unknownClass
		if p.suite != nil {
			className = p.suite.id.Name
		}
	}
	executed := true
	if v, ok := xmlutil.LookupAttr(se, "executed"); ok {
		executed = strings.EqualFold(strings.TrimSpace(v), "true")
	}
	return &testFrame{
		className: className,
		name:      xmlutil.Attr(se, "name"),
		executed:  executed,
		start:     p.now(),
		duration:  parseDuration(xmlutil.Attr(se, "time")),
	}
}

func (p *Parser) endTest(t *testFrame) {
	processed := p.result.Tests
	p.result.Tests++
	if !t.executed {
		p.result.Ignored++
	} else if t.fail != nil {
		p.result.Failures++
	}

	if processed < p.skip || (p.suite != nil && p.suite.mode == ingest.SuiteSkip) {
		return
	}

	name := t.fullName()
	if !t.executed {
		p.tests.TestIgnored(name, t.skipped)
		return
	}
	p.tests.TestStarted(name, t.start)
	if t.fail != nil {
		p.tests.TestFailed(name, t.fail.text(), t.fail.trace)
	}
	if t.stdout != "" {
		p.tests.TestStdOut(name, t.stdout)
	}
	if t.stderr != "" {
		p.tests.TestStdErr(name, t.stderr)
	}
	p.tests.TestFinished(name, t.start.Add(t.duration), t.duration)
}

// parseDuration converts a duration in seconds to whole milliseconds,
// truncating. Missing or malformed values are zero.
func parseDuration(s string) time.Duration {
	secs, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || secs <= 0 || math.IsNaN(secs) || math.IsInf(secs, 0) {
		return 0
	}
	ms := secs * 1000
	if ms > math.MaxInt64/float64(time.Millisecond) {
		return 0
	}
	return time.Duration(int64(ms)) * time.Millisecond
}

func parseCount(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
