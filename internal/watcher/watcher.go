package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports when any of a fixed set of files changes. It watches the
// parent directories, so files replaced by rename (as editors and log
// rotation do) keep being tracked.
type Watcher struct {
	fsw      *fsnotify.Watcher
	files    map[string]bool
	debounce time.Duration
	changes  chan string
}

// New creates a Watcher for paths. Changes closer together than debounce are
// reported once.
func New(paths []string, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:      fsw,
		files:    make(map[string]bool),
		debounce: debounce,
		changes:  make(chan string, 1),
	}

	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		w.files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("cannot watch %s: %w", dir, err)
		}
	}

	return w, nil
}

// Changes emits the path of a changed file, at most once per debounce
// window. It is closed when Start returns.
func (w *Watcher) Changes() <-chan string {
	return w.changes
}

// Start forwards change notifications until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	defer w.fsw.Close()
	defer close(w.changes)

	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending string
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.files[filepath.Clean(ev.Name)] || !relevant(ev.Op) {
				continue
			}
			pending = ev.Name
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C
		case <-timerC:
			timerC = nil
			select {
			case w.changes <- pending:
			case <-ctx.Done():
				return
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("watcher error", "error", err)
		}
	}
}

func relevant(op fsnotify.Op) bool {
	return op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0
}
