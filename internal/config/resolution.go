package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dkoosis/reportwatch/pkg/ingest"
	"github.com/dkoosis/reportwatch/pkg/render"
)

// Priority order for configuration resolution. Lower numbers win.
const (
	// PriorityCLI is the highest priority - explicit user intent via command line
	PriorityCLI = 1

	// PriorityEnv is second - environment variables for automation/CI
	PriorityEnv = 2

	// PriorityFile is third - project-specific configuration
	PriorityFile = 3

	// PriorityDefault is lowest - sensible defaults
	PriorityDefault = 4
)

// Source names recorded in ResolvedConfig.
const (
	SourceCLI     = "cli"
	SourceEnv     = "env"
	SourceFile    = "file"
	SourceDefault = "default"
)

var (
	// ErrNoRules is returned when neither the file nor the command line
	// names any report rules.
	ErrNoRules = errors.New("no report rules configured")
	// ErrInvalidRule is returned for a command line rule that is not
	// type=paths.
	ErrInvalidRule = errors.New("rule must have the form type=paths")
)

// CliFlags holds the values of command-line flags and whether each was set.
type CliFlags struct {
	Rules          []string // type=paths
	BaseDir        string
	BuildStart     string
	ParseOutOfDate bool
	Workers        int
	Format         string
	Theme          string
	NoColor        bool
	Verbose        bool
	Debug          bool

	ParseOutOfDateSet bool
	WorkersSet        bool
	FormatSet         bool
	ThemeSet          bool
	NoColorSet        bool
	VerboseSet        bool
	DebugSet          bool
}

// ResolvedConfig holds the final configuration after applying all priority
// rules.
type ResolvedConfig struct {
	Rules          []RuleConfig
	BaseDir        string
	BuildStart     time.Time // zero means "now"
	ParseOutOfDate bool
	Workers        int
	QueueSize      int
	ScanInterval   time.Duration
	Notify         bool
	Stages         map[string]ingest.ParsingStage
	MaxErrors      *int
	MaxWarnings    *int
	Params         map[string]string
	Format         string
	Theme          string
	NoColor        bool
	Verbose        bool
	Debug          bool

	// Resolution metadata (for debugging)
	ConfigPath           string
	ParseOutOfDateSource string
	WorkersSource        string
	FormatSource         string
	NoColorSource        string
	VerboseSource        string
	DebugSource          string
}

// ResolveConfig merges file, environment and flags. file may be nil.
func ResolveConfig(cli CliFlags, file *AppConfig, configPath string) (*ResolvedConfig, error) {
	fileSource := SourceFile
	if file == nil {
		file = Defaults()
		fileSource = SourceDefault
	} else if configPath == "" {
		fileSource = SourceDefault
	}

	r := &ResolvedConfig{
		Rules:          append([]RuleConfig(nil), file.Rules...),
		BaseDir:        file.BaseDir,
		ParseOutOfDate: file.ParseOutOfDate,
		Workers:        file.Workers,
		QueueSize:      file.QueueSize,
		Notify:         file.Notify,
		MaxErrors:      limit(file.MaxErrors),
		MaxWarnings:    limit(file.MaxWarnings),
		Params:         file.Params,
		Format:         file.Format,
		Theme:          file.Theme,
		NoColor:        file.NoColor,
		Verbose:        file.Verbose,
		Debug:          file.Debug,
		ConfigPath:     configPath,

		ParseOutOfDateSource: fileSource,
		WorkersSource:        fileSource,
		FormatSource:         fileSource,
		NoColorSource:        fileSource,
		VerboseSource:        fileSource,
		DebugSource:          fileSource,
	}

	for _, text := range cli.Rules {
		rule, err := ParseRuleFlag(text)
		if err != nil {
			return nil, err
		}
		r.Rules = append(r.Rules, rule)
	}

	resolveBool(&r.ParseOutOfDate, &r.ParseOutOfDateSource, cli.ParseOutOfDateSet, cli.ParseOutOfDate, "RW_PARSE_OUT_OF_DATE")
	resolveBool(&r.NoColor, &r.NoColorSource, cli.NoColorSet, cli.NoColor, "RW_NO_COLOR", "NO_COLOR")
	resolveBool(&r.Verbose, &r.VerboseSource, cli.VerboseSet, cli.Verbose, "RW_VERBOSE")

	// RW_DEBUG enables debug output when set to anything.
	switch {
	case cli.DebugSet:
		r.Debug, r.DebugSource = cli.Debug, SourceCLI
	case os.Getenv("RW_DEBUG") != "":
		r.Debug, r.DebugSource = true, SourceEnv
	}

	switch {
	case cli.WorkersSet:
		r.Workers, r.WorkersSource = cli.Workers, SourceCLI
	default:
		if v := os.Getenv("RW_WORKERS"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("RW_WORKERS: %w", err)
			}
			r.Workers, r.WorkersSource = n, SourceEnv
		}
	}

	switch {
	case cli.FormatSet:
		r.Format, r.FormatSource = cli.Format, SourceCLI
	case os.Getenv("RW_FORMAT") != "":
		r.Format, r.FormatSource = os.Getenv("RW_FORMAT"), SourceEnv
	}
	if cli.ThemeSet {
		r.Theme = cli.Theme
	}
	if r.NoColor {
		r.Theme = "mono"
	}

	if cli.BaseDir != "" {
		r.BaseDir = cli.BaseDir
	}
	if r.BaseDir == "" {
		r.BaseDir = "."
	}
	abs, err := filepath.Abs(r.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("base dir: %w", err)
	}
	r.BaseDir = abs

	start := file.BuildStart
	if cli.BuildStart != "" {
		start = cli.BuildStart
	}
	if r.BuildStart, err = ParseBuildStart(start); err != nil {
		return nil, err
	}

	if r.ScanInterval, err = time.ParseDuration(file.ScanInterval); err != nil {
		return nil, fmt.Errorf("scan_interval: %w", err)
	}

	r.Stages = make(map[string]ingest.ParsingStage, len(file.Stages))
	for typ, name := range file.Stages {
		stage, ok := ingest.ParseStage(name)
		if !ok {
			return nil, fmt.Errorf("stages.%s: unknown stage %q", typ, name)
		}
		r.Stages[typ] = stage
	}

	if err := validateResolvedConfig(r); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return r, nil
}

// ParseRuleFlag parses a command line rule of the form type=paths. Paths
// may be separated by commas or newlines.
func ParseRuleFlag(text string) (RuleConfig, error) {
	typ, paths, ok := strings.Cut(text, "=")
	typ = strings.TrimSpace(typ)
	if !ok || typ == "" || strings.TrimSpace(paths) == "" {
		return RuleConfig{}, fmt.Errorf("%w: %q", ErrInvalidRule, text)
	}
	return RuleConfig{Type: typ, Paths: strings.ReplaceAll(paths, ",", "\n")}, nil
}

// ParseBuildStart accepts RFC 3339 or unix milliseconds. Empty is the zero
// time.
func ParseBuildStart(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("build_start %q: want RFC 3339 or unix milliseconds", s)
	}
	return t, nil
}

// limit treats a negative limit as no limit.
func limit(n *int) *int {
	if n == nil || *n < 0 {
		return nil
	}
	v := *n
	return &v
}

// resolveBool applies the CLI value if set, else the first parseable
// environment variable among keys.
func resolveBool(dst *bool, source *string, cliSet, cliVal bool, keys ...string) {
	if cliSet {
		*dst, *source = cliVal, SourceCLI
		return
	}
	if v := getEnvBool(keys...); v != nil {
		*dst, *source = *v, SourceEnv
	}
}

// getEnvBool reads a boolean from environment variables, trying multiple keys.
// Returns nil if none are set, or a pointer to the boolean value.
func getEnvBool(keys ...string) *bool {
	for _, key := range keys {
		if val := os.Getenv(key); val != "" {
			if b, err := strconv.ParseBool(val); err == nil {
				return &b
			}
		}
	}
	return nil
}

func validateResolvedConfig(cfg *ResolvedConfig) error {
	if len(cfg.Rules) == 0 {
		return ErrNoRules
	}
	for i, rule := range cfg.Rules {
		if rule.Type == "" || strings.TrimSpace(rule.Paths) == "" {
			return fmt.Errorf("rule %d: type and paths are required", i+1)
		}
	}
	if cfg.Workers < 1 {
		return fmt.Errorf("workers must be positive, got: %d", cfg.Workers)
	}
	if cfg.QueueSize < 1 {
		return fmt.Errorf("queue_size must be positive, got: %d", cfg.QueueSize)
	}
	if cfg.ScanInterval <= 0 {
		return fmt.Errorf("scan_interval must be positive, got: %s", cfg.ScanInterval)
	}
	if !slices.Contains(render.Formats(), cfg.Format) {
		return fmt.Errorf("invalid format: %s (must be one of: %s)", cfg.Format, strings.Join(render.Formats(), ", "))
	}
	return nil
}
