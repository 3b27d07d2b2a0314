//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"

	"github.com/dkoosis/reportwatch/internal/magetasks"
)

// Default target builds the binary.
var Default = Build

func init() {
	if err := magetasks.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: %v\n", err)
		os.Exit(1)
	}
}

// Build builds the reportwatch binary into bin/.
func Build() error {
	return magetasks.Build()
}

// Clean removes build artifacts.
func Clean() error {
	return magetasks.Clean()
}

// QA runs lint, tests and build.
func QA() error {
	magetasks.PrintH1Header("reportwatch QA")
	mg.SerialDeps(Lint.All, Test.All, Build)
	magetasks.PrintSuccess("QA complete")
	return nil
}

// Lint namespace for linting commands
type Lint mg.Namespace

// All runs all linters
func (Lint) All() error { return magetasks.LintAll() }

// Format checks gofmt
func (Lint) Format() error { return magetasks.LintFormat() }

// Vet runs go vet
func (Lint) Vet() error { return magetasks.LintVet() }

// Fix runs golangci-lint with auto-fixes
func (Lint) Fix() error { return magetasks.LintFix() }

// Test namespace for testing commands
type Test mg.Namespace

// All runs all tests
func (Test) All() error { return magetasks.TestAll() }

// Coverage runs tests with coverage
func (Test) Coverage() error { return magetasks.TestCoverage() }

// Race runs tests with race detector
func (Test) Race() error { return magetasks.TestRace() }
