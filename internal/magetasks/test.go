package magetasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/magefile/mage/sh"

	"github.com/dkoosis/reportwatch/pkg/ingest"
	"github.com/dkoosis/reportwatch/pkg/render"
	"github.com/dkoosis/reportwatch/pkg/testjson"
)

// testReport is the go test -json output written by the test tasks.
const testReport = "go-test.json"

// TestAll runs the unit tests and renders the results through reportwatch's
// own testjson parser.
func TestAll() error {
	PrintH2Header("Tests")
	return runTests("./...")
}

// TestRace runs the unit tests with the race detector.
func TestRace() error {
	PrintH2Header("Race Detector")
	return runTests("-race", "./...")
}

// TestCoverage runs the unit tests with coverage and prints the per-function
// summary.
func TestCoverage() error {
	PrintH2Header("Test Coverage")
	profile := filepath.Join(ReportDir, "coverage.out")
	if err := runTests("-coverprofile="+profile, "./..."); err != nil {
		return err
	}
	return sh.RunV("go", "tool", "cover", "-func="+profile)
}

func runTests(args ...string) error {
	path := filepath.Join(ReportDir, testReport)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	_, testErr := sh.Exec(nil, f, os.Stderr, "go", append([]string{"test", "-json"}, args...)...)
	if err := f.Close(); err != nil {
		return err
	}

	sum, err := RenderReport(context.Background(), path, Out)
	if err != nil {
		return err
	}
	if testErr != nil || sum.Failed {
		PrintError("Tests failed")
		if testErr == nil {
			testErr = errors.New("test report contains failures")
		}
		return testErr
	}
	PrintSuccess(fmt.Sprintf("All tests passed (%d report parsed)", sum.Processed))
	return nil
}

// RenderReport parses a go test -json report with a one-shot session and
// writes the terminal rendering to w.
func RenderReport(ctx context.Context, path string, w io.Writer) (ingest.Summary, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return ingest.Summary{}, err
	}
	renderer := render.NewTerminal(w, render.DefaultTheme(), 100)
	s, err := ingest.NewSession(ingest.SessionConfig{
		Rules: []ingest.Rule{{
			Type:        testjson.Type,
			Dirs:        []string{filepath.Dir(abs)},
			Accept:      func(p string) bool { return p == abs },
			Description: path,
		}},
		Registry:       ingest.NewRegistry(testjson.Factory{}),
		Sink:           renderer,
		ParseOutOfDate: true,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		return ingest.Summary{}, err
	}
	if err := s.Start(ctx); err != nil {
		return ingest.Summary{}, err
	}
	sum, err := s.Finish(ctx)
	if ferr := renderer.Flush(); err == nil {
		err = ferr
	}
	return sum, err
}
