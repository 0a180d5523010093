package handlers

import (
	"net/http"
	"runtime"
	"time"

	"xpoz/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
	statusDisabled = "disabled"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Ready   bool   `json:"ready"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
	ReadyAt string `json:"readyAt,omitempty"`

	// Transcoder summary
	Workers int `json:"workers"`
	Busy    int `json:"busy"`
	Queued  int `json:"queued"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	ready := h.IsReady()

	response := HealthResponse{
		Ready:        ready,
		Version:      startup.Version,
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}

	if at := h.readyAt.Load(); at != nil {
		response.ReadyAt = at.Format(time.RFC3339)
	}

	switch {
	case !h.enabled():
		response.Status = statusDisabled
	case ready:
		response.Status = statusHealthy
	default:
		response.Status = statusStarting
	}

	if h.enabled() {
		s := h.pool.Status()
		response.Workers = s.Workers
		response.Busy = s.Busy
		response.Queued = s.Queued
	}

	w.Header().Set("Content-Type", "application/json")
	if !ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{
			"status": "alive",
		})
	}
}

// ReadinessCheck returns 200 once the startup scan is done and the watcher
// is subscribed.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	status, body := http.StatusServiceUnavailable, "not_ready"
	if h.IsReady() {
		status, body = http.StatusOK, "ready"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{"status": body})
	}
}
