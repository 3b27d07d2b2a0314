package jscpd

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/dkoosis/reportwatch/internal/pathrules"
	"github.com/dkoosis/reportwatch/pkg/event"
	"github.com/dkoosis/reportwatch/pkg/ingest"
)

// Parser reports every clone in a jscpd report as one duplicate with two
// fragments.
type Parser struct {
	out         event.DuplicatesReporter
	checkoutDir string
	log         *slog.Logger
	result      *ingest.DuplicationResult
}

// NewParser creates a parser that reports to out. Paths are made relative to
// checkoutDir when it is set.
func NewParser(out event.DuplicatesReporter, checkoutDir string, log *slog.Logger) *Parser {
	if log == nil {
		log = slog.Default()
	}
	return &Parser{out: out, checkoutDir: checkoutDir, log: log, result: ingest.NewDuplicationResult()}
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

	rep, err := Decode(f)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			p.log.Debug("report ends early", "path", path)
			return false, nil
		}
		return true, ingest.NewParsingError(path, err)
	}
	skip := 0
	if prior != nil {
		skip = prior.Units()
	}
	p.Report(rep, skip)
	return true, nil
}

// Report counts every clone of rep and sends those past the first skip.
func (p *Parser) Report(rep *Report, skip int) {
	p.result = ingest.NewDuplicationResult()
	started := false
	for i, c := range rep.Duplicates {
		p.result.Duplicates++
		p.result.Fragments += 2
		if i < skip {
			continue
		}
		if !started {
			p.out.DuplicatesStarted()
			started = true
		}
		p.out.Duplicate(p.duplication(c))
	}
	if !started && skip == 0 {
		p.out.DuplicatesStarted()
		started = true
	}
	if started {
		p.out.DuplicatesFinished()
	}
}

func (p *Parser) duplication(c Clone) event.Duplication {
	files := []File{c.FirstFile, c.SecondFile}
	keys := make([][2]string, len(files))
	for i, f := range files {
		keys[i] = [2]string{pathrules.Relative(p.checkoutDir, f.Name), strconv.Itoa(f.StartLine())}
	}
	dup := c.Hash()
	hashes := fragmentHashes(dup, keys)

	d := event.Duplication{Lines: c.Lines, Tokens: c.Tokens, Hash: dup}
	for i, f := range files {
		d.Fragments = append(d.Fragments, event.Fragment{Path: keys[i][0], Line: f.StartLine(), Hash: hashes[i]})
	}
	return d
}
