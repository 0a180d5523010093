package watcher

import (
	"sort"
	"strings"
	"time"
)

// debouncer tracks created paths until they have been quiet for a full
// window. It is not safe for concurrent use; the watcher's event loop owns it.
type debouncer struct {
	window  time.Duration
	pending map[string]time.Time
}

func newDebouncer(window time.Duration) *debouncer {
	return &debouncer{
		window:  window,
		pending: make(map[string]time.Time),
	}
}

// touch records activity on path at now, starting or restarting its window.
func (d *debouncer) touch(path string, now time.Time) {
	d.pending[path] = now
}

func (d *debouncer) has(path string) bool {
	_, ok := d.pending[path]
	return ok
}

// cancel forgets path and anything pending beneath it.
func (d *debouncer) cancel(path string) {
	delete(d.pending, path)
	prefix := strings.TrimSuffix(path, "/") + "/"
	for p := range d.pending {
		if strings.HasPrefix(p, prefix) {
			delete(d.pending, p)
		}
	}
}

// due removes and returns, sorted, every path quiet for at least the window.
func (d *debouncer) due(now time.Time) []string {
	var ready []string
	for p, last := range d.pending {
		if now.Sub(last) >= d.window {
			ready = append(ready, p)
			delete(d.pending, p)
		}
	}
	sort.Strings(ready)
	return ready
}

// requeue puts back a path that was due but could not be delivered, so the
// next due call returns it again.
func (d *debouncer) requeue(path string, now time.Time) {
	if _, ok := d.pending[path]; !ok {
		d.pending[path] = now.Add(-d.window)
	}
}

func (d *debouncer) len() int {
	return len(d.pending)
}
