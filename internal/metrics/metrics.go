package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Transcoder job metrics
var (
	TranscoderJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xpoz_transcoder_jobs_total",
			Help: "Total number of transcoding jobs finished, by status and mode",
		},
		[]string{"status", "mode"}, // status: "success", "failed", "panic"
	)

	TranscoderJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "xpoz_transcoder_job_duration_seconds",
			Help:    "Wall time of a transcoding job in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 3600},
		},
		[]string{"mode"},
	)

	TranscoderJobsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "xpoz_transcoder_jobs_in_progress",
			Help: "Number of jobs currently held by a worker",
		},
	)

	TranscoderJobsEnqueuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xpoz_transcoder_jobs_enqueued_total",
			Help: "Total number of jobs pushed to the queue, by origin",
		},
		[]string{"origin"}, // "scan", "watch"
	)

	TranscoderQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "xpoz_transcoder_queue_depth",
			Help: "Number of jobs waiting in the queue",
		},
	)

	TranscoderWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "xpoz_transcoder_workers",
			Help: "Number of transcode workers started",
		},
	)

	TranscoderBusyWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "xpoz_transcoder_busy_workers",
			Help: "Number of workers currently running an encoder",
		},
	)

	TranscoderClassificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xpoz_transcoder_classifications_total",
			Help: "Total number of source classifications, by mode and probe outcome",
		},
		[]string{"mode", "probe"}, // probe: "ok", "error"
	)

	TranscoderPublishedBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "xpoz_transcoder_published_bytes_total",
			Help: "Total bytes published to the videos directory",
		},
	)

	TranscoderPublishCopyFallbackTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "xpoz_transcoder_publish_copy_fallback_total",
			Help: "Publishes that had to copy across filesystems before the final rename",
		},
	)
)

// Scan metrics
var (
	ScanRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "xpoz_scan_runs_total",
			Help: "Total number of backlog scans",
		},
	)

	ScanLastDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "xpoz_scan_last_duration_seconds",
			Help: "Duration of the last backlog scan in seconds",
		},
	)

	ScanLastTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "xpoz_scan_last_timestamp",
			Help: "Unix timestamp of the last backlog scan completion",
		},
	)

	ScanFiles = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "xpoz_scan_files",
			Help: "File counts from the last backlog scan, by kind",
		},
		[]string{"kind"}, // "published", "candidates", "enqueued", "skipped"
	)

	ScanErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "xpoz_scan_errors_total",
			Help: "Total number of unreadable entries skipped during scans",
		},
	)
)

// Watcher metrics
var (
	WatcherEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xpoz_watcher_events_total",
			Help: "Total number of raw filesystem events received, by type",
		},
		[]string{"type"},
	)

	WatcherEmittedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "xpoz_watcher_emitted_total",
			Help: "Total number of debounced creations emitted",
		},
	)

	WatcherErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "xpoz_watcher_errors_total",
			Help: "Total number of watcher errors",
		},
	)

	WatcherWatchedDirectories = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "xpoz_watcher_watched_directories",
			Help: "Number of directories subscribed for notifications",
		},
	)

	WatcherPendingPaths = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "xpoz_watcher_pending_paths",
			Help: "Number of created paths waiting out the debounce window",
		},
	)
)

// Filesystem metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xpoz_filesystem_retry_attempts_total",
			Help: "Total number of filesystem retry attempts",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xpoz_filesystem_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xpoz_filesystem_retry_failures_total",
			Help: "Total number of filesystem operations that failed after all retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "xpoz_filesystem_retry_duration_seconds",
			Help:    "Duration of filesystem operations including retries",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xpoz_filesystem_stale_errors_total",
			Help: "Total number of ESTALE errors seen",
		},
		[]string{"operation", "volume"},
	)
)

// Ops server HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xpoz_http_requests_total",
			Help: "Total number of ops server requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "xpoz_http_request_duration_seconds",
			Help:    "Ops server request latency in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"method", "route"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "xpoz_http_requests_in_flight",
			Help: "Number of ops server requests being served",
		},
	)
)

// AppInfo exposes build information as labels.
var AppInfo = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "xpoz_app_info",
		Help: "Application build information",
	},
	[]string{"version", "commit", "go_version"},
)
