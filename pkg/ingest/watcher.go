package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dkoosis/reportwatch/internal/detect"
)

const (
	// DefaultScanInterval is the pause between directory scans.
	DefaultScanInterval = 50 * time.Millisecond

	defaultCompletenessCache = 1024
)

// WatchedDirectory is a directory the watcher lists on every scan. Only its
// direct entries are considered.
type WatchedDirectory struct {
	Path string
	Type string
	// LowerBound excludes files modified at or before it, unless out-of-date
	// reports are allowed.
	LowerBound time.Time
	// Accept filters candidate files by absolute path. Nil accepts all.
	Accept func(path string) bool

	queued map[string]Snapshot
}

// NewWatchedDirectory creates a WatchedDirectory for path.
func NewWatchedDirectory(path, typ string, lowerBound time.Time, accept func(string) bool) *WatchedDirectory {
	return &WatchedDirectory{
		Path:       filepath.Clean(path),
		Type:       typ,
		LowerBound: lowerBound,
		Accept:     accept,
		queued:     make(map[string]Snapshot),
	}
}

// WatcherConfig configures a Watcher.
type WatcherConfig struct {
	Directories []*WatchedDirectory
	Queue       *Queue
	Rules       *RulesState
	Registry    *Registry

	Interval       time.Duration // Defaults to DefaultScanInterval
	ParseOutOfDate bool
	// Notify wakes the scan loop early on file system events.
	Notify    bool
	CacheSize int          // Completeness cache entries
	Logger    *slog.Logger // Optional, uses slog.Default() if nil
}

// Validate checks the configuration.
func (c *WatcherConfig) Validate() error {
	if c.Queue == nil || c.Rules == nil || c.Registry == nil {
		return errors.New("watcher needs a queue, rules state and registry")
	}
	if c.Interval < 0 {
		return ErrInvalidInterval
	}
	return nil
}

type completeKey struct {
	path string
	snap Snapshot
}

// Watcher polls directories for report files and queues the ones that are new
// or changed. A file is queued at most once per snapshot, and never while it
// is already queued or being parsed.
type Watcher struct {
	cfg      WatcherConfig
	log      *slog.Logger
	complete *lru.Cache[completeKey, bool]
	notifier *notifier

	running  atomic.Bool
	stopped  atomic.Bool
	stopCh   chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	wake     chan struct{}
}

// NewWatcher creates a watcher. Call Run to start scanning.
func NewWatcher(cfg WatcherConfig) (*Watcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Interval == 0 {
		cfg.Interval = DefaultScanInterval
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = defaultCompletenessCache
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	cache, err := lru.New[completeKey, bool](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("completeness cache: %w", err)
	}
	for _, d := range cfg.Directories {
		if d.queued == nil {
			d.queued = make(map[string]Snapshot)
		}
	}

	w := &Watcher{
		cfg:      cfg,
		log:      log.With("component", "watcher"),
		complete: cache,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
		wake:     make(chan struct{}, 1),
	}
	if cfg.Notify {
		w.notifier = newNotifier(w.wake, w.log)
	}
	return w, nil
}

// Run scans until Stop is called, then scans once more and returns. It
// returns ctx.Err() without the final scan if ctx is cancelled first.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer func() {
		w.stopped.Store(true)
		close(w.done)
	}()

	if w.notifier != nil {
		go w.notifier.run(w.stopCh)
		defer w.notifier.close()
	}

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for !w.stopRequested() {
		w.Scan(ctx)
		select {
		case <-ticker.C:
		case <-w.wake:
		case <-w.stopCh:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	w.log.Debug("final scan")
	w.scan(ctx, true)
	return nil
}

// Stop asks the loop to finish after one final scan.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
}

// Done is closed once the loop has returned.
func (w *Watcher) Done() <-chan struct{} { return w.done }

// IsStopped reports whether the loop has returned.
func (w *Watcher) IsStopped() bool { return w.stopped.Load() }

func (w *Watcher) stopRequested() bool {
	select {
	case <-w.stopCh:
		return true
	default:
		return false
	}
}

// Scan lists every watched directory once and queues eligible files. It
// returns the number of files queued.
func (w *Watcher) Scan(ctx context.Context) int {
	return w.scan(ctx, false)
}

// scan is Scan; with final set, non-empty files that still fail the
// completeness check are queued too, so they end up parsed as partial or
// broken instead of silently ignored.
func (w *Watcher) scan(ctx context.Context, final bool) int {
	queued := 0
	for _, dir := range w.cfg.Directories {
		n, err := w.scanDir(ctx, dir, final)
		queued += n
		if err != nil {
			w.log.Warn("interrupted while queueing reports", "dir", dir.Path, "error", err)
			return queued
		}
	}
	return queued
}

func (w *Watcher) scanDir(ctx context.Context, dir *WatchedDirectory, final bool) (int, error) {
	entries, err := os.ReadDir(dir.Path)
	if err != nil {
		w.log.Debug("skipping directory", "dir", dir.Path, "error", err)
		return 0, nil
	}
	if w.notifier != nil {
		w.notifier.add(dir.Path)
	}

	queued := 0
	for _, entry := range entries {
		path := filepath.Join(dir.Path, entry.Name())
		if dir.Accept != nil && !dir.Accept(path) {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if !w.cfg.ParseOutOfDate && !info.ModTime().After(dir.LowerBound) {
			continue
		}
		snap := SnapshotOf(info)
		if prev, ok := dir.queued[path]; ok && prev.Equal(snap) {
			continue
		}

		typ, factory, ok := w.resolve(dir, path)
		if !ok || !readable(path) {
			continue
		}
		if !w.isComplete(factory, path, snap) && (!final || snap.Size == 0) {
			continue
		}
		if !w.cfg.Rules.TryQueue(path, typ, snap) {
			continue
		}
		dir.queued[path] = snap

		if err := w.cfg.Queue.Put(ctx, QueueEntry{Path: path, Type: typ}); err != nil {
			w.cfg.Rules.Release(path)
			delete(dir.queued, path)
			return queued, err
		}
		w.log.Debug("queued report", "path", path, "type", typ, "size", snap.Size)
		queued++
	}
	return queued, nil
}

func (w *Watcher) resolve(dir *WatchedDirectory, path string) (string, ParserFactory, bool) {
	typ := dir.Type
	if typ == TypeAuto {
		format, err := detect.SniffFile(path)
		if err != nil || format == detect.Unknown {
			return "", nil, false
		}
		typ = format.ReportType()
	}
	f, err := w.cfg.Registry.Lookup(typ)
	if err != nil {
		w.log.Debug("no parser for report", "path", path, "error", err)
		return "", nil, false
	}
	return typ, f, true
}

func (w *Watcher) isComplete(f ParserFactory, path string, snap Snapshot) bool {
	key := completeKey{path: path, snap: snap}
	if ok, hit := w.complete.Get(key); hit {
		return ok
	}
	ok := f.IsReportComplete(path)
	w.complete.Add(key, ok)
	return ok
}

func readable(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}
