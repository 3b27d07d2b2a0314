package ingest

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// lineFactory parses files where every line is one test. A file is finished
// once its last line is "end". A line "bad" is a structural error and a line
// "panic" makes the parser panic.
type lineFactory struct {
	typ        string
	stage      ParsingStage
	incomplete bool
}

func (f lineFactory) Type() string { return f.typ }
func (f lineFactory) Description() string { return "line reports" }
func (f lineFactory) Stage() ParsingStage { return f.stage }
func (f lineFactory) CreateEmptyResult() ParsingResult { return NewTestResult() }
func (f lineFactory) IsReportComplete(path string) bool { return !f.incomplete }
func (f lineFactory) CreateParser(p ParseParameters) Parser {
	return &lineParser{params: p, result: NewTestResult()}
}

type lineParser struct {
	params ParseParameters
	result *TestResult
}

func (p *lineParser) ParsingResult() ParsingResult { return p.result }

func (p *lineParser) Parse(path string, prior ParsingResult) (bool, error) {
	skip := 0
	if prior != nil {
		skip = prior.Units()
	}
	f, err := os.Open(path)
	if err != nil {
		return true, NewParsingError(path, err)
	}
	defer f.Close()

	last := ""
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch line {
		case "":
			continue
		case "end":
			last = line
			continue
		case "bad":
			return true, NewParsingError(path, errors.New("bad line"))
		case "panic":
			panic("boom")
		}
		last = line
		processed := p.result.Tests
		p.result.Tests++
		if processed < skip || p.params.Tests == nil {
			continue
		}
		p.params.Tests.TestStarted(line, time.Time{})
		p.params.Tests.TestFinished(line, time.Time{}, 0)
	}
	return last == "end", nil
}

func writeReport(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// touch moves the modification time of path forward so snapshot changes are
// visible even on coarse file system clocks.
func touch(t *testing.T, path string, offset time.Duration) {
	t.Helper()
	at := time.Now().Add(offset)
	require.NoError(t, os.Chtimes(path, at, at))
}
