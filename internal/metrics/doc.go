// Package metrics provides Prometheus instrumentation for the xpoz transcoder.
//
// All metrics are registered with the default registry through promauto and
// carry the "xpoz_" prefix.
//
// # Metric Categories
//
// ## Transcoder
//
//   - TranscoderJobsTotal: jobs finished, by status (success/failed/panic) and mode (sdr/hdr)
//   - TranscoderJobDuration: job wall time by mode
//   - TranscoderJobsInProgress: jobs currently held by a worker
//   - TranscoderJobsEnqueuedTotal: jobs pushed, by origin (scan/watch)
//   - TranscoderQueueDepth, TranscoderWorkers, TranscoderBusyWorkers: sampled by the Collector
//   - TranscoderClassificationsTotal: classifier outcomes by mode and probe result
//   - TranscoderPublishedBytesTotal, TranscoderPublishCopyFallbackTotal
//
// ## Scan
//
//   - ScanRunsTotal, ScanLastDuration, ScanLastTimestamp
//   - ScanFiles: counts from the last scan by kind (published/candidates/enqueued/skipped)
//   - ScanErrorsTotal: unreadable entries skipped
//
// ## Watcher
//
//   - WatcherEventsTotal: raw fsnotify events by type
//   - WatcherEmittedTotal: debounced creations handed to the dispatcher
//   - WatcherErrorsTotal, WatcherWatchedDirectories, WatcherPendingPaths
//
// ## Filesystem
//
// Retry counters labeled by operation and volume, recorded through
// NewFilesystemObserver.
//
// # Collector
//
// [Collector] samples a [StatsProvider] on an interval and sets the queue
// and worker gauges:
//
//	collector := metrics.NewCollector(pool, 15*time.Second)
//	collector.Start()
//	defer collector.Stop()
//
// # Prometheus Queries
//
// Failure ratio:
//
//	sum(rate(xpoz_transcoder_jobs_total{status!="success"}[1h])) / sum(rate(xpoz_transcoder_jobs_total[1h]))
//
// P95 encode time for HDR sources:
//
//	histogram_quantile(0.95, sum(rate(xpoz_transcoder_job_duration_seconds_bucket{mode="hdr"}[1h])) by (le))
//
// Backlog:
//
//	xpoz_transcoder_queue_depth
package metrics
