package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	modes := []string{"sdr", "hdr"}

	for _, mode := range modes {
		for _, status := range []string{"success", "failed", "panic"} {
			TranscoderJobsTotal.WithLabelValues(status, mode)
		}
		TranscoderJobDuration.WithLabelValues(mode)
		TranscoderClassificationsTotal.WithLabelValues(mode, "ok")
		TranscoderClassificationsTotal.WithLabelValues(mode, "error")
	}

	for _, origin := range []string{"scan", "watch"} {
		TranscoderJobsEnqueuedTotal.WithLabelValues(origin)
	}

	for _, kind := range []string{"published", "candidates", "enqueued", "skipped"} {
		ScanFiles.WithLabelValues(kind)
	}

	for _, t := range []string{"create", "write", "remove", "rename", "chmod"} {
		WatcherEventsTotal.WithLabelValues(t)
	}

	volumes := []string{"source", "publish", "scratch", "unknown"}
	for _, op := range []string{"stat", "open", "rename"} {
		for _, vol := range volumes {
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}
}

// SetAppInfo records the build information gauge.
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
