// reportwatch discovers build report files while a build runs, parses them
// incrementally and streams test, inspection and duplication events.
//
// Usage:
//
//	reportwatch watch --rule junit=build/test-results -- go test ./...
//	reportwatch scan --rule checkstyle=lint/*.xml --format llm
//	reportwatch types
//
// Rules and other settings can also come from .reportwatch.yaml.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dkoosis/reportwatch/internal/config"
	"github.com/dkoosis/reportwatch/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// exitError carries a process exit code out of a cobra RunE.
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// run executes the CLI and returns the exit code, so tests can call it
// without os.Exit.
func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	err := root.Execute()
	var ee exitError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &ee):
		return ee.code
	default:
		fmt.Fprintf(stderr, "reportwatch: %v\n", err)
		return 2
	}
}

// globalFlags are shared by watch and scan.
type globalFlags struct {
	cli        config.CliFlags
	configPath string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var g globalFlags
	root := &cobra.Command{
		Use:           "reportwatch",
		Short:         "Watch for build reports and stream what they contain",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "Config file (default: "+config.FileName+" in the working directory)")
	pf.StringArrayVarP(&g.cli.Rules, "rule", "r", nil, "Report rule as type=paths; repeatable")
	pf.StringVar(&g.cli.BaseDir, "base-dir", "", "Directory relative rule paths are resolved against")
	pf.StringVar(&g.cli.BuildStart, "build-start", "", "Ignore reports older than this (RFC 3339 or unix millis)")
	pf.BoolVar(&g.cli.ParseOutOfDate, "parse-out-of-date", false, "Also parse reports older than the build start")
	pf.IntVarP(&g.cli.Workers, "workers", "w", config.DefaultWorkers, "Number of parse workers")
	pf.StringVar(&g.cli.Format, "format", config.DefaultFormat, "Output format: terminal, llm, json")
	pf.StringVar(&g.cli.Theme, "theme", config.DefaultTheme, "Theme: default, orca, mono")
	pf.BoolVar(&g.cli.NoColor, "no-color", false, "Disable colors")
	pf.BoolVarP(&g.cli.Verbose, "verbose", "v", false, "Log every processed report")
	pf.BoolVar(&g.cli.Debug, "debug", false, "Enable debug logging")

	root.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		changed := cmd.Flags().Changed
		g.cli.ParseOutOfDateSet = changed("parse-out-of-date")
		g.cli.WorkersSet = changed("workers")
		g.cli.FormatSet = changed("format")
		g.cli.ThemeSet = changed("theme")
		g.cli.NoColorSet = changed("no-color")
		g.cli.VerboseSet = changed("verbose")
		g.cli.DebugSet = changed("debug")
	}

	root.AddCommand(
		newWatchCmd(&g),
		newScanCmd(&g),
		newTypesCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintln(cmd.OutOrStdout(), version.String())
			},
		},
	)
	return root
}

// resolve loads the config file and merges it with the environment and
// flags.
func (g *globalFlags) resolve() (*config.ResolvedConfig, error) {
	var (
		file *config.AppConfig
		path string
		err  error
	)
	if g.configPath != "" {
		path = g.configPath
		file, err = config.LoadFile(path)
	} else {
		wd, wdErr := os.Getwd()
		if wdErr != nil {
			return nil, wdErr
		}
		file, path, err = config.LoadConfig(wd)
	}
	if err != nil {
		return nil, err
	}
	return config.ResolveConfig(g.cli, file, path)
}

func newLogger(w io.Writer, cfg *config.ResolvedConfig) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case cfg.Debug:
		level = slog.LevelDebug
	case cfg.Verbose:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// termWidth returns the width of w if it is a terminal, else 0.
func termWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
		return width
	}
	return 0
}
