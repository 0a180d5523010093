package startup

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestAcquireLock(t *testing.T) {
	dir := t.TempDir()

	first, err := AcquireLock(dir)
	if err != nil {
		t.Fatalf("AcquireLock() error = %v", err)
	}
	if want := filepath.Join(dir, LockFileName); first.Path() != want {
		t.Errorf("Path() = %q, want %q", first.Path(), want)
	}

	if _, err := AcquireLock(dir); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second AcquireLock() error = %v, want ErrAlreadyRunning", err)
	}

	if err := first.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}

	again, err := AcquireLock(dir)
	if err != nil {
		t.Fatalf("AcquireLock() after Release error = %v", err)
	}
	_ = again.Release()
}

func TestAcquireLockMissingDirectory(t *testing.T) {
	if _, err := AcquireLock(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("AcquireLock() in a missing directory error = nil")
	}
}
