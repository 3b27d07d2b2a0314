package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/dkoosis/reportwatch/internal/config"
	"github.com/dkoosis/reportwatch/internal/pathrules"
	"github.com/dkoosis/reportwatch/pkg/checkstyle"
	"github.com/dkoosis/reportwatch/pkg/ingest"
	"github.com/dkoosis/reportwatch/pkg/jscpd"
	"github.com/dkoosis/reportwatch/pkg/junit"
	"github.com/dkoosis/reportwatch/pkg/render"
	"github.com/dkoosis/reportwatch/pkg/sarif"
	"github.com/dkoosis/reportwatch/pkg/testjson"
)

// newRegistry registers every built-in report type and applies stage
// overrides.
func newRegistry(stages map[string]ingest.ParsingStage) *ingest.Registry {
	r := ingest.NewRegistry(
		testjson.Factory{},
		checkstyle.Factory{},
		sarif.Factory{},
		jscpd.Factory{},
	)
	junit.Register(r)
	for typ, stage := range stages {
		r.SetStage(typ, stage)
	}
	return r
}

// sessionRules turns configured rules into session rules.
func sessionRules(cfg *config.ResolvedConfig) ([]ingest.Rule, error) {
	rules := make([]ingest.Rule, 0, len(cfg.Rules))
	for _, rc := range cfg.Rules {
		prs, err := pathrules.Parse(rc.Paths, cfg.BaseDir)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", rc.Type, err)
		}
		rules = append(rules, ingest.Rule{
			Type:        strings.ToLower(strings.TrimSpace(rc.Type)),
			Dirs:        prs.Dirs(),
			Accept:      prs.Match,
			Description: strings.TrimSpace(rc.Paths),
			WhenNoData:  ingest.ParseNoDataAction(rc.WhenNoData),
			Verbose:     rc.Verbose || cfg.Verbose,
		})
	}
	return rules, nil
}

// newSession builds the renderer and the session for cfg.
func newSession(cfg *config.ResolvedConfig, out io.Writer, log *slog.Logger) (*ingest.Session, render.Renderer, error) {
	theme, ok := render.ThemeByName(cfg.Theme)
	if !ok {
		log.Warn("unknown theme, using default", "theme", cfg.Theme)
	}
	renderer, err := render.New(cfg.Format, theme, out, termWidth(out))
	if err != nil {
		return nil, nil, err
	}
	rules, err := sessionRules(cfg)
	if err != nil {
		return nil, nil, err
	}
	s, err := ingest.NewSession(ingest.SessionConfig{
		Rules:          rules,
		Registry:       newRegistry(cfg.Stages),
		Sink:           renderer,
		BuildStart:     cfg.BuildStart,
		ParseOutOfDate: cfg.ParseOutOfDate,
		Workers:        cfg.Workers,
		QueueSize:      cfg.QueueSize,
		ScanInterval:   cfg.ScanInterval,
		Notify:         cfg.Notify,
		MaxErrors:      cfg.MaxErrors,
		MaxWarnings:    cfg.MaxWarnings,
		Params:         cfg.Params,
		CheckoutDir:    cfg.BaseDir,
		Verbose:        cfg.Verbose,
		Logger:         log,
	})
	if err != nil {
		return nil, nil, err
	}
	return s, renderer, nil
}

// exitCode is 1 when any report failed or a limit was exceeded.
func exitCode(sum ingest.Summary) int {
	if sum.Failed {
		return 1
	}
	return 0
}
