package ingest

import (
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// notifier nudges the scan loop when something changes in a watched
// directory. Scanning still decides what is eligible.
type notifier struct {
	fw      *fsnotify.Watcher
	wake    chan<- struct{}
	log     *slog.Logger
	watched map[string]bool
}

// newNotifier returns nil when the platform watcher cannot be created; the
// scan loop then relies on polling alone.
func newNotifier(wake chan<- struct{}, log *slog.Logger) *notifier {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		log.Debug("file system notifications unavailable", "error", err)
		return nil
	}
	return &notifier{fw: fw, wake: wake, log: log, watched: make(map[string]bool)}
}

// add watches dir. It is called from the scan loop only.
func (n *notifier) add(dir string) {
	if n.watched[dir] {
		return
	}
	if err := n.fw.Add(dir); err != nil {
		n.log.Debug("cannot watch directory", "dir", dir, "error", err)
		return
	}
	n.watched[dir] = true
}

func (n *notifier) run(stop <-chan struct{}) {
	for {
		select {
		case ev, ok := <-n.fw.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) || ev.Has(fsnotify.Rename) {
				select {
				case n.wake <- struct{}{}:
				default:
				}
			}
		case err, ok := <-n.fw.Errors:
			if !ok {
				return
			}
			n.log.Debug("file system notification error", "error", err)
		case <-stop:
			return
		}
	}
}

func (n *notifier) close() {
	_ = n.fw.Close()
}
