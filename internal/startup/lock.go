package startup

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFileName is created in the videos directory while a transcoder runs.
const LockFileName = ".xpoz-transcoder.lock"

// ErrAlreadyRunning is returned by AcquireLock when another process holds
// the lock for the same videos directory.
var ErrAlreadyRunning = errors.New("another xpoz transcoder is already running")

// Lock is an exclusive advisory lock on a videos directory.
type Lock struct {
	fl *flock.Flock
}

// AcquireLock takes the instance lock in dir without blocking. Two
// transcoders publishing into one directory would race on the same outputs.
func AcquireLock(dir string) (*Lock, error) {
	fl := flock.New(filepath.Join(dir, LockFileName))

	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock held on %s)", ErrAlreadyRunning, fl.Path())
	}
	return &Lock{fl: fl}, nil
}

// Path returns the lock file's location.
func (l *Lock) Path() string {
	return l.fl.Path()
}

// Release unlocks. The lock file is left in place.
func (l *Lock) Release() error {
	return l.fl.Unlock()
}
