package workers

import (
	"errors"
	"fmt"
	"runtime"
)

const (
	// MaxTranscodeWorkers is the highest number of concurrent encoder
	// processes the daemon will start.
	MaxTranscodeWorkers = 24

	// DefaultTranscodeLimit caps the automatic worker count when none is
	// configured.
	DefaultTranscodeLimit = 4
)

// ErrInvalidWorkerCount is returned by Validate for counts outside
// 1..MaxTranscodeWorkers.
var ErrInvalidWorkerCount = errors.New("invalid worker count")

// Count returns the optimal number of workers for a given task type.
// It respects container CPU limits via GOMAXPROCS (Go 1.19+).
//
// The multiplier adjusts for task characteristics; 1.0 is one worker per
// available CPU. The limit parameter caps the worker count to prevent
// resource exhaustion. Use 0 for no limit.
func Count(multiplier float64, limit int) int {
	// GOMAXPROCS is automatically set to container CPU limit in Go 1.19+
	available := runtime.GOMAXPROCS(0)

	workers := int(float64(available) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// ForCPU returns worker count for CPU-bound tasks (1 per CPU).
// The limit parameter caps the maximum number of workers.
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// DefaultTranscode returns the worker count used when the settings leave
// workers unset. Each worker drives one encoder process, so it is CPU-bound.
func DefaultTranscode() int {
	return ForCPU(DefaultTranscodeLimit)
}

// Validate checks a configured transcode worker count against the ceiling.
func Validate(n int) error {
	if n < 1 || n > MaxTranscodeWorkers {
		return fmt.Errorf("%w: %d (must be between 1 and %d)", ErrInvalidWorkerCount, n, MaxTranscodeWorkers)
	}
	return nil
}
