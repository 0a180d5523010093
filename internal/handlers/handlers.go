package handlers

import (
	"sync/atomic"
	"time"

	"xpoz/internal/transcoder"
)

// PoolStatus reports worker and queue state. *transcoder.Pool implements it.
type PoolStatus interface {
	Status() transcoder.Status
}

// ScanReporter returns the most recent scan result, or nil before the first
// scan. *transcoder.Dispatcher implements it.
type ScanReporter interface {
	LastScan() *transcoder.ScanResult
}

// Handlers serves the ops endpoints for one transcoder process.
type Handlers struct {
	pool      PoolStatus
	scans     ScanReporter
	startTime time.Time

	ready   atomic.Bool
	readyAt atomic.Pointer[time.Time]
}

// New creates handlers reporting on pool and scans. Either may be nil when
// transcoding is disabled.
func New(pool PoolStatus, scans ScanReporter) *Handlers {
	return &Handlers{
		pool:      pool,
		scans:     scans,
		startTime: time.Now(),
	}
}

// MarkReady flips /readyz to ready. It is called once the startup scan has
// finished and the watcher is subscribed.
func (h *Handlers) MarkReady() {
	now := time.Now()
	h.readyAt.Store(&now)
	h.ready.Store(true)
}

// IsReady reports whether MarkReady has been called.
func (h *Handlers) IsReady() bool {
	return h.ready.Load()
}

func (h *Handlers) enabled() bool {
	return h.pool != nil
}
