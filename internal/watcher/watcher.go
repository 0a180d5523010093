package watcher

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"xpoz/internal/logging"
	"xpoz/internal/metrics"
)

// DefaultDebounce is how long a created file must stay untouched before it
// is reported.
const DefaultDebounce = 2 * time.Second

const eventBuffer = 64

// Watcher reports files created anywhere below a root directory, once each
// file has stopped changing for the debounce window.
type Watcher struct {
	root     string
	fsw      *fsnotify.Watcher
	debounce *debouncer
	sweep    time.Duration
	log      logging.Component

	events   chan string
	done     chan struct{}
	finished chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// New subscribes to root and every directory below it. Failing to watch
// root itself is an error; failures on subdirectories are logged.
func New(root string, window time.Duration) (*Watcher, error) {
	if window <= 0 {
		window = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		metrics.WatcherErrorsTotal.Inc()
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	if err := fsw.Add(root); err != nil {
		_ = fsw.Close()
		metrics.WatcherErrorsTotal.Inc()
		return nil, fmt.Errorf("failed to watch %s: %w", root, err)
	}

	w := &Watcher{
		root:     root,
		fsw:      fsw,
		debounce: newDebouncer(window),
		sweep:    sweepInterval(window),
		log:      logging.For("watcher"),
		events:   make(chan string, eventBuffer),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}

	count := 1 + w.addTree(root, false)
	metrics.WatcherWatchedDirectories.Set(float64(count))
	w.log.Debug("Watching %d directories under %s (debounce %v)", count, root, window)

	go w.run()
	return w, nil
}

// Events returns the channel of debounced creations. It is closed by Close.
func (w *Watcher) Events() <-chan string {
	return w.events
}

// Close stops the watcher and closes the Events channel. Paths still inside
// their debounce window are dropped.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		close(w.done)
		<-w.finished
		w.closeErr = w.fsw.Close()
	})
	return w.closeErr
}

func sweepInterval(window time.Duration) time.Duration {
	interval := window / 4
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	if interval > 500*time.Millisecond {
		interval = 500 * time.Millisecond
	}
	return interval
}

func (w *Watcher) run() {
	defer close(w.finished)
	defer close(w.events)

	ticker := time.NewTicker(w.sweep)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event, time.Now())

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Error("Watcher error: %v", err)
			metrics.WatcherErrorsTotal.Inc()

		case now := <-ticker.C:
			if !w.flush(now) {
				return
			}
		}
	}
}

// flush emits every path whose window has elapsed. When the events buffer
// is full the rest stay pending for the next sweep, so the fsnotify read
// loop never waits on the consumer. It returns false once the watcher is
// closed.
func (w *Watcher) flush(now time.Time) bool {
	ready := w.debounce.due(now)
	for i, path := range ready {
		select {
		case <-w.done:
			return false
		default:
		}

		select {
		case w.events <- path:
			metrics.WatcherEmittedTotal.Inc()
			w.log.Debug("Created: %s", path)
			continue
		default:
		}

		for _, p := range ready[i:] {
			w.debounce.requeue(p, now)
		}
		w.log.Debug("Events buffer full, holding %d paths", len(ready)-i)
		break
	}
	metrics.WatcherPendingPaths.Set(float64(w.debounce.len()))
	return true
}

func (w *Watcher) handleEvent(event fsnotify.Event, now time.Time) {
	if isHidden(event.Name) {
		return
	}

	metrics.WatcherEventsTotal.WithLabelValues(eventType(event.Op)).Inc()

	switch {
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.debounce.cancel(event.Name)

	case event.Op&fsnotify.Create != 0:
		w.handleCreate(event.Name, now)

	case event.Op&(fsnotify.Write|fsnotify.Chmod) != 0:
		// Only creations are reported; writes just extend a pending window.
		if w.debounce.has(event.Name) {
			w.debounce.touch(event.Name, now)
		}
	}

	metrics.WatcherPendingPaths.Set(float64(w.debounce.len()))
}

func (w *Watcher) handleCreate(path string, now time.Time) {
	info, err := os.Lstat(path)
	if err != nil {
		return
	}

	switch {
	case info.IsDir():
		// A directory moved or copied in arrives with its contents already
		// present, so they are treated as created too.
		if err := w.fsw.Add(path); err != nil {
			w.log.Warn("failed to add new directory to watcher %s: %v", path, err)
			metrics.WatcherErrorsTotal.Inc()
			return
		}
		added := 1 + w.addTree(path, true)
		metrics.WatcherWatchedDirectories.Add(float64(added))
		w.log.Debug("Added new directory to watcher: %s", path)

	case info.Mode().IsRegular():
		w.debounce.touch(path, now)
	}
}

// addTree subscribes to every directory below dir (not dir itself) and
// returns how many were added. With markFiles, regular files found on the
// way start a debounce window.
func (w *Watcher) addTree(dir string, markFiles bool) int {
	added := 0
	now := time.Now()

	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			w.log.Warn("failed to walk %s: %v", path, err)
			metrics.WatcherErrorsTotal.Inc()
			return nil
		}
		if path == dir {
			return nil
		}
		if strings.HasPrefix(entry.Name(), ".") {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if entry.IsDir() {
			if addErr := w.fsw.Add(path); addErr != nil {
				w.log.Warn("failed to add path to watcher %s: %v", path, addErr)
				metrics.WatcherErrorsTotal.Inc()
			} else {
				added++
			}
			return nil
		}

		if markFiles && entry.Type().IsRegular() {
			w.debounce.touch(path, now)
		}
		return nil
	})
	if err != nil {
		w.log.Error("failed to walk %s for watcher: %v", dir, err)
		metrics.WatcherErrorsTotal.Inc()
	}
	return added
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

// eventType returns a string representation of the fsnotify operation
func eventType(op fsnotify.Op) string {
	switch {
	case op&fsnotify.Create != 0:
		return "create"
	case op&fsnotify.Write != 0:
		return "write"
	case op&fsnotify.Remove != 0:
		return "remove"
	case op&fsnotify.Rename != 0:
		return "rename"
	case op&fsnotify.Chmod != 0:
		return "chmod"
	default:
		return "unknown"
	}
}
