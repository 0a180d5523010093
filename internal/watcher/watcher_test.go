package watcher

import (
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"
	"time"

	"xpoz/internal/logging"
)

const testWindow = 200 * time.Millisecond

func newTestWatcher(t *testing.T) (*Watcher, string) {
	t.Helper()
	root := t.TempDir()
	w, err := New(root, testWindow)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })
	return w, root
}

// collect gathers events until none arrive for quiet.
func collect(t *testing.T, w *Watcher, quiet time.Duration) []string {
	t.Helper()
	var got []string
	for {
		select {
		case path, ok := <-w.Events():
			if !ok {
				sort.Strings(got)
				return got
			}
			got = append(got, path)
		case <-time.After(quiet):
			sort.Strings(got)
			return got
		}
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestWatcherCoalescesWritesDuringCopy(t *testing.T) {
	w, root := newTestWatcher(t)
	path := filepath.Join(root, "E5F6.mov")

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		if _, err := f.WriteString("chunk"); err != nil {
			t.Fatal(err)
		}
		time.Sleep(testWindow / 5)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	got := collect(t, w, 5*testWindow)
	if !reflect.DeepEqual(got, []string{path}) {
		t.Errorf("events = %v, want exactly [%s]", got, path)
	}
}

func TestWatcherWaitsForQuietBeforeEmitting(t *testing.T) {
	w, root := newTestWatcher(t)
	path := filepath.Join(root, "A1B2.mov")

	start := time.Now()
	writeFile(t, path, "x")

	select {
	case got := <-w.Events():
		if elapsed := time.Since(start); elapsed < testWindow {
			t.Errorf("%s emitted after %v, before the %v window", got, elapsed, testWindow)
		}
	case <-time.After(10 * testWindow):
		t.Fatal("no event for created file")
	}
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	w, root := newTestWatcher(t)

	dir := filepath.Join(root, "2024", "06")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	// Give the watcher a moment to subscribe to the new directories.
	time.Sleep(testWindow / 2)
	path := filepath.Join(dir, "C3D4.MOV")
	writeFile(t, path, "x")

	got := collect(t, w, 5*testWindow)
	if !reflect.DeepEqual(got, []string{path}) {
		t.Errorf("events = %v, want [%s]", got, path)
	}
}

func TestWatcherReportsContentsOfMovedDirectory(t *testing.T) {
	w, root := newTestWatcher(t)

	// Stage a directory next to root so the move is a rename.
	staging := filepath.Join(filepath.Dir(root), filepath.Base(root)+"-staging")
	if err := os.MkdirAll(filepath.Join(staging, "nested"), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(staging) })
	writeFile(t, filepath.Join(staging, "G7H8.mov"), "x")
	writeFile(t, filepath.Join(staging, "nested", "J9K0.mp4"), "x")

	dest := filepath.Join(root, "import")
	if err := os.Rename(staging, dest); err != nil {
		t.Fatal(err)
	}

	got := collect(t, w, 5*testWindow)
	want := []string{
		filepath.Join(dest, "G7H8.mov"),
		filepath.Join(dest, "nested", "J9K0.mp4"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestWatcherDropsFilesRemovedInsideWindow(t *testing.T) {
	w, root := newTestWatcher(t)
	path := filepath.Join(root, "tmp.mov")

	writeFile(t, path, "x")
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	if got := collect(t, w, 5*testWindow); len(got) != 0 {
		t.Errorf("events = %v, want none", got)
	}
}

func TestWatcherIgnoresHiddenFiles(t *testing.T) {
	w, root := newTestWatcher(t)
	writeFile(t, filepath.Join(root, ".DS_Store"), "x")

	if got := collect(t, w, 5*testWindow); len(got) != 0 {
		t.Errorf("events = %v, want none", got)
	}
}

func TestWatcherIgnoresWritesToExistingFiles(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "old.mov")
	writeFile(t, path, "x")

	w, err := New(root, testWindow)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = f.WriteString("more")
	_ = f.Close()

	if got := collect(t, w, 5*testWindow); len(got) != 0 {
		t.Errorf("events = %v, want none", got)
	}
}

func TestWatcherCloseClosesEvents(t *testing.T) {
	w, _ := newTestWatcher(t)

	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	select {
	case _, ok := <-w.Events():
		if ok {
			t.Error("received an event after Close")
		}
	case <-time.After(time.Second):
		t.Fatal("Events channel not closed after Close")
	}

	// Close is idempotent.
	if err := w.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestFlushHoldsPathsWhenBufferFull(t *testing.T) {
	w := &Watcher{
		debounce: newDebouncer(time.Second),
		log:      logging.For("watcher"),
		events:   make(chan string, 2),
		done:     make(chan struct{}),
	}
	t0 := time.Unix(1000, 0)
	for _, p := range []string{"/src/a.mov", "/src/b.mov", "/src/c.mov", "/src/d.mov"} {
		w.debounce.touch(p, t0)
	}

	flushed := make(chan bool, 1)
	go func() { flushed <- w.flush(t0.Add(time.Second)) }()
	select {
	case ok := <-flushed:
		if !ok {
			t.Fatal("flush() = false on an open watcher")
		}
	case <-time.After(time.Second):
		t.Fatal("flush() blocked on a full events buffer")
	}

	if got := []string{<-w.events, <-w.events}; !reflect.DeepEqual(got, []string{"/src/a.mov", "/src/b.mov"}) {
		t.Errorf("first delivery = %v", got)
	}
	if w.debounce.len() != 2 {
		t.Fatalf("pending = %d, want 2 held paths", w.debounce.len())
	}

	if !w.flush(t0.Add(time.Second)) {
		t.Fatal("flush() = false on an open watcher")
	}
	if got := []string{<-w.events, <-w.events}; !reflect.DeepEqual(got, []string{"/src/c.mov", "/src/d.mov"}) {
		t.Errorf("second delivery = %v", got)
	}
	if w.debounce.len() != 0 {
		t.Errorf("pending = %d, want 0", w.debounce.len())
	}
}

func TestNewMissingRoot(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "missing"), testWindow); err == nil {
		t.Error("New() on missing root error = nil, want error")
	}
}

func TestNewDefaultsWindow(t *testing.T) {
	w, err := New(t.TempDir(), 0)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if w.debounce.window != DefaultDebounce {
		t.Errorf("window = %v, want %v", w.debounce.window, DefaultDebounce)
	}
}
