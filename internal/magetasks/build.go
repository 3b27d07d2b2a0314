package magetasks

import (
	"os"
	"time"

	"github.com/magefile/mage/sh"
)

// Build compiles the reportwatch binary with version information.
func Build() error {
	PrintH2Header("Build")
	version := gitOutput("dev", "describe", "--tags", "--always", "--dirty", "--match=v*")
	commit := gitOutput("unknown", "rev-parse", "--short", "HEAD")
	date := time.Now().UTC().Format(time.RFC3339)

	if err := sh.RunV("go", "build", "-ldflags", LDFlags(version, commit, date), "-o", BinPath, "./cmd/reportwatch"); err != nil {
		PrintError("Build failed")
		return err
	}
	PrintSuccess("Built " + BinPath)
	return nil
}

// Clean removes build artifacts.
func Clean() error {
	PrintH2Header("Clean")
	if err := os.RemoveAll("bin"); err != nil {
		return err
	}
	if err := sh.Run("go", "clean", "-testcache"); err != nil {
		return err
	}
	PrintSuccess("Cleaned build artifacts")
	return nil
}
