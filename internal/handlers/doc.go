// Package handlers serves the transcoder's ops endpoints: health and
// readiness probes, build information, Prometheus metrics, and a JSON view
// of the worker pool and the last scan.
package handlers
