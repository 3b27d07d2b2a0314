package magetasks

import (
	"os"
	"path/filepath"
)

var (
	// ModulePath is the Go module path.
	ModulePath = "github.com/dkoosis/reportwatch"

	// BinPath is the output path for the built binary.
	BinPath = filepath.Join("bin", "reportwatch")

	// ReportDir receives machine-readable reports written by tasks.
	ReportDir = filepath.Join("bin", "reports")

	// ProjectRoot is the root directory of the project.
	ProjectRoot string
)

// Initialize records the project root and creates the output directories.
// Call it from the magefile's init().
func Initialize() error {
	var err error
	ProjectRoot, err = os.Getwd()
	if err != nil {
		return err
	}
	return os.MkdirAll(filepath.Join(ProjectRoot, ReportDir), 0o750)
}

// LDFlags returns the linker flags that stamp version information into
// internal/version.
func LDFlags(version, commit, date string) string {
	pkg := ModulePath + "/internal/version"
	return "-s -w" +
		" -X '" + pkg + ".Version=" + version + "'" +
		" -X '" + pkg + ".CommitHash=" + commit + "'" +
		" -X '" + pkg + ".BuildDate=" + date + "'"
}
