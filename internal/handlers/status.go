package handlers

import (
	"net/http"

	"xpoz/internal/transcoder"
)

// TranscoderStatus is the body of /api/transcoder/status.
type TranscoderStatus struct {
	Enabled  bool                   `json:"enabled"`
	Ready    bool                   `json:"ready"`
	Pool     *transcoder.Status     `json:"pool,omitempty"`
	LastScan *transcoder.ScanResult `json:"lastScan,omitempty"`
}

// GetTranscoderStatus reports pool counters and the last scan result.
func (h *Handlers) GetTranscoderStatus(w http.ResponseWriter, _ *http.Request) {
	resp := TranscoderStatus{
		Enabled: h.enabled(),
		Ready:   h.IsReady(),
	}
	if h.pool != nil {
		s := h.pool.Status()
		resp.Pool = &s
	}
	if h.scans != nil {
		resp.LastScan = h.scans.LastScan()
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, resp)
}
