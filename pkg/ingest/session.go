package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dkoosis/reportwatch/pkg/event"
)

// NoDataAction is what to do when a rule matched no report files.
type NoDataAction int

const (
	NoDataError NoDataAction = iota
	NoDataWarning
	NoDataNothing
)

// ParseNoDataAction parses "nothing", "warning" or "error". Anything else,
// including the empty string, means error.
func ParseNoDataAction(s string) NoDataAction {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nothing", "none", "ignore":
		return NoDataNothing
	case "warning", "warn":
		return NoDataWarning
	default:
		return NoDataError
	}
}

// Rule says where reports of one type are expected.
type Rule struct {
	Type string
	Dirs []string
	// Accept filters files inside Dirs. Nil accepts all.
	Accept func(path string) bool
	// Description is shown in "reports found" messages, typically the rule
	// text as configured.
	Description string
	WhenNoData  NoDataAction
	Verbose     bool
}

// SessionConfig configures a Session.
type SessionConfig struct {
	Rules    []Rule
	Registry *Registry
	Sink     event.Sink

	ID             string    // Defaults to a random UUID
	BuildStart     time.Time // Defaults to the time NewSession is called
	ParseOutOfDate bool
	Workers        int // Defaults to 1
	QueueSize      int
	ScanInterval   time.Duration
	Notify         bool

	// Limits on inspection totals; nil disables the check.
	MaxErrors   *int
	MaxWarnings *int

	Params      map[string]string
	CheckoutDir string
	Verbose     bool

	Logger *slog.Logger // Optional, uses slog.Default() if nil
}

// Summary is the outcome of a session.
type Summary struct {
	Files             int
	Processed         int
	Errors            int
	Partial           int
	Failed            bool
	ThresholdExceeded bool
	Totals            map[string]ParsingResult
}

// Session wires the watcher, the queue and a pool of workers, and parses each
// report type at its stage: Runtime types as soon as they are queued, the
// others when BeforeFinish or AfterFinish is called.
type Session struct {
	cfg     SessionConfig
	log     *slog.Logger
	rules   *RulesState
	queue   *Queue
	watcher *Watcher
	stream  *event.Stream

	mu       sync.Mutex
	deferred map[ParsingStage][]QueueEntry
	summary  Summary

	group   *errgroup.Group
	started bool
}

// NewSession validates cfg and builds the session. Nothing runs until Start.
func NewSession(cfg SessionConfig) (*Session, error) {
	if len(cfg.Rules) == 0 {
		return nil, ErrNoRules
	}
	if cfg.Registry == nil {
		return nil, errors.New("session needs a parser registry")
	}
	if cfg.Sink == nil {
		return nil, errors.New("session needs an event sink")
	}
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	if cfg.BuildStart.IsZero() {
		cfg.BuildStart = time.Now()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("session", cfg.ID)

	var dirs []*WatchedDirectory
	for _, r := range cfg.Rules {
		if r.Type != TypeAuto && !cfg.Registry.Has(r.Type) {
			return nil, fmt.Errorf("rule for %q: %w", r.Type, ErrUnknownReportType)
		}
		for _, d := range r.Dirs {
			dirs = append(dirs, NewWatchedDirectory(d, r.Type, cfg.BuildStart, r.Accept))
		}
	}

	rules := NewRulesState()
	queue := NewQueue(cfg.QueueSize)
	w, err := NewWatcher(WatcherConfig{
		Directories:    dirs,
		Queue:          queue,
		Rules:          rules,
		Registry:       cfg.Registry,
		Interval:       cfg.ScanInterval,
		ParseOutOfDate: cfg.ParseOutOfDate,
		Notify:         cfg.Notify,
		Logger:         log,
	})
	if err != nil {
		return nil, err
	}

	return &Session{
		cfg:      cfg,
		log:      log,
		rules:    rules,
		queue:    queue,
		watcher:  w,
		stream:   event.NewStream(event.Synchronized(cfg.Sink), cfg.ID),
		deferred: make(map[ParsingStage][]QueueEntry),
	}, nil
}

// ID returns the session id carried by every event.
func (s *Session) ID() string { return s.cfg.ID }

// RulesState exposes the file table.
func (s *Session) RulesState() *RulesState { return s.rules }

// Watcher exposes the directory watcher.
func (s *Session) Watcher() *Watcher { return s.watcher }

// Start launches the watcher and the workers.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return ErrAlreadyRunning
	}
	s.started = true

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := s.watcher.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	for i := 0; i < s.cfg.Workers; i++ {
		g.Go(func() error { return s.work(gctx) })
	}
	s.group = g
	s.log.Debug("session started", "workers", s.cfg.Workers, "build_start", s.cfg.BuildStart)
	return nil
}

func (s *Session) work(ctx context.Context) error {
	for {
		entry, err := s.queue.Take(ctx)
		if errors.Is(err, ErrQueueClosed) || errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			return err
		}
		stage := s.cfg.Registry.StageOf(entry.Type)
		if stage == StageRuntime {
			s.run(entry)
			continue
		}
		s.mu.Lock()
		s.deferred[stage] = append(s.deferred[stage], entry)
		s.mu.Unlock()
	}
}

func (s *Session) run(entry QueueEntry) Outcome {
	f, err := s.cfg.Registry.Lookup(entry.Type)
	if err != nil {
		s.log.Warn("dropping report of unknown type", "path", entry.Path, "error", err)
		s.rules.Release(entry.Path)
		return Outcome{Path: entry.Path, Type: entry.Type, Skipped: true}
	}
	cmd := &ParseCommand{
		Entry:   entry,
		Factory: f,
		Rules:   s.rules,
		Params: ParseParameters{
			Logger:      s.log,
			Verbose:     s.cfg.Verbose,
			CheckoutDir: s.cfg.CheckoutDir,
			Params:      s.cfg.Params,
		},
		Stream: s.stream,
		Logger: s.log,
	}
	return cmd.Run()
}

// BeforeFinish stops discovery, drains the queue, parses the reports of the
// before-finish stage and logs the totals of runtime and before-finish types.
func (s *Session) BeforeFinish(ctx context.Context) error {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		return errors.New("session not started")
	}

	s.watcher.Stop()
	select {
	case <-s.watcher.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	s.queue.Close()
	err := s.group.Wait()

	s.retryPartial(StageRuntime)
	s.runStage(ctx, StageBeforeFinish)
	s.logTotals(StageRuntime)
	s.logTotals(StageBeforeFinish)
	return err
}

// AfterFinish parses the reports of the after-finish stage, reports files
// that never completed and rules without data, and returns the summary.
func (s *Session) AfterFinish(ctx context.Context) (Summary, error) {
	s.runStage(ctx, StageAfterFinish)
	s.logTotals(StageAfterFinish)
	s.reportPartial()
	s.reportNoData()
	return s.buildSummary(), ctx.Err()
}

// Finish runs BeforeFinish and AfterFinish.
func (s *Session) Finish(ctx context.Context) (Summary, error) {
	if err := s.BeforeFinish(ctx); err != nil {
		sum, _ := s.AfterFinish(context.WithoutCancel(ctx))
		return sum, err
	}
	return s.AfterFinish(ctx)
}

func (s *Session) runStage(ctx context.Context, stage ParsingStage) {
	s.mu.Lock()
	entries := s.deferred[stage]
	delete(s.deferred, stage)
	s.mu.Unlock()
	if len(entries) == 0 {
		return
	}
	s.log.Debug("parsing deferred reports", "stage", stage, "count", len(entries))
	s.runAll(ctx, entries)
}

// retryPartial gives partially parsed reports of stage one last parse once
// discovery has stopped.
func (s *Session) retryPartial(stage ParsingStage) {
	var entries []QueueEntry
	for _, fs := range s.rules.Partial() {
		if s.cfg.Registry.StageOf(fs.Type) != stage {
			continue
		}
		s.rules.MarkQueued(fs.Path, fs.Type, fs.Snapshot)
		entries = append(entries, QueueEntry{Path: fs.Path, Type: fs.Type})
	}
	s.runAll(context.Background(), entries)
}

func (s *Session) runAll(ctx context.Context, entries []QueueEntry) {
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for _, e := range entries {
		g.Go(func() error {
			s.run(e)
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Session) logTotals(stage ParsingStage) {
	for _, typ := range s.fileTypes() {
		if s.cfg.Registry.StageOf(typ) != stage {
			continue
		}
		f, err := s.cfg.Registry.Lookup(typ)
		if err != nil {
			continue
		}
		totals := s.rules.Totals(typ, f.CreateEmptyResult())
		s.stream.Info(fmt.Sprintf("%s totals: %s", typ, totals.Summary()))

		s.mu.Lock()
		if s.summary.Totals == nil {
			s.summary.Totals = make(map[string]ParsingResult)
		}
		s.summary.Totals[typ] = totals
		s.mu.Unlock()

		s.checkThresholds(typ, totals)
	}
}

func (s *Session) checkThresholds(typ string, totals ParsingResult) {
	ir, ok := totals.(*InspectionResult)
	if !ok {
		return
	}
	exceeded := false
	if limit := s.cfg.MaxErrors; limit != nil && ir.Errors > *limit {
		s.stream.Error(fmt.Sprintf("Errors limit reached: found %d %s error(s), limit is %d", ir.Errors, typ, *limit))
		exceeded = true
	}
	if limit := s.cfg.MaxWarnings; limit != nil && ir.Warnings > *limit {
		s.stream.Error(fmt.Sprintf("Warnings limit reached: found %d %s warning(s), limit is %d", ir.Warnings, typ, *limit))
		exceeded = true
	}
	if exceeded {
		s.mu.Lock()
		s.summary.ThresholdExceeded = true
		s.mu.Unlock()
	}
}

func (s *Session) reportPartial() {
	for _, fs := range s.rules.Partial() {
		flow := s.stream.ForFlow(fs.Path)
		if tr := AsTestResult(fs.Result); tr != nil {
			open := make([]SuiteIdentity, 0, len(tr.Open))
			for id := range tr.Open {
				open = append(open, id)
			}
			sort.Slice(open, func(i, j int) bool { return open[i].String() < open[j].String() })
			for _, id := range open {
				flow.SuiteFinished(id.Name, time.Now())
			}
		}
		flow.Warning(fmt.Sprintf(
			"Couldn't completely parse %s report, %d unit(s) logged", fs.Path, fs.Result.Units()))
	}
}

func (s *Session) reportNoData() {
	for _, r := range s.cfg.Rules {
		n := 0
		for _, fs := range s.rules.Files("") {
			if r.Type != TypeAuto && fs.Type != r.Type {
				continue
			}
			if ruleCovers(r, fs.Path) {
				n++
			}
		}
		desc := r.Description
		if desc == "" {
			desc = strings.Join(r.Dirs, "\n")
		}
		if n > 0 {
			if r.Verbose || s.cfg.Verbose {
				s.stream.Info(fmt.Sprintf("%s found for paths:\n%s", plural(n, "report"), desc))
			}
			continue
		}
		msg := fmt.Sprintf("No reports found for paths:\n%s", desc)
		switch r.WhenNoData {
		case NoDataError:
			s.stream.Error(msg)
		case NoDataWarning:
			s.stream.Warning(msg)
		}
	}
}

func ruleCovers(r Rule, path string) bool {
	if r.Accept != nil && !r.Accept(path) {
		return false
	}
	dir := filepath.Dir(path)
	for _, d := range r.Dirs {
		if filepath.Clean(d) == dir {
			return true
		}
	}
	return false
}

func (s *Session) fileTypes() []string {
	seen := make(map[string]bool)
	var out []string
	for _, fs := range s.rules.Files("") {
		if !seen[fs.Type] {
			seen[fs.Type] = true
			out = append(out, fs.Type)
		}
	}
	sort.Strings(out)
	return out
}

func (s *Session) buildSummary() Summary {
	s.mu.Lock()
	sum := s.summary
	s.mu.Unlock()

	for _, fs := range s.rules.Files("") {
		sum.Files++
		switch {
		case fs.State == StateProcessed:
			sum.Processed++
		case fs.State == StateError:
			sum.Errors++
		case fs.Result != nil && fs.Result.Partial():
			sum.Partial++
		}
		if fs.Result != nil && fs.Result.Failed() {
			sum.Failed = true
		}
	}
	if sum.ThresholdExceeded {
		sum.Failed = true
	}
	return sum
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// DefaultWorkers is a reasonable worker count for the host.
func DefaultWorkers() int {
	return max(1, runtime.NumCPU()/2)
}
