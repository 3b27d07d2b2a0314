package magetasks

import (
	"errors"
	"os/exec"
	"strings"

	"github.com/magefile/mage/sh"
)

// IsCommandNotFound reports whether err means the executable is missing.
func IsCommandNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "executable file not found") ||
		strings.Contains(msg, "no such file or directory")
}

// optional runs a tool that may not be installed. A missing tool is reported
// as a warning with an install hint instead of failing the task.
func optional(install, cmd string, args ...string) error {
	err := sh.RunV(cmd, args...)
	if IsCommandNotFound(err) {
		PrintWarning(cmd + " not found (install: go install " + install + ")")
		return nil
	}
	return err
}

// gitOutput runs git and returns its trimmed output, or fallback on error.
func gitOutput(fallback string, args ...string) string {
	out, err := sh.Output("git", args...)
	if err != nil || out == "" {
		return fallback
	}
	return out
}
