// Package logging provides a simple leveled logging interface for the
// transcoder daemon.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is taken from the DEBUG or LOG_LEVEL environment variables
// and can be overridden once settings are loaded with [SetLevel].
//
// Long-lived goroutines log through a [Component] so that interleaved output
// from several workers stays attributable:
//
//	log := logging.For("worker 3")
//	log.Info("finished %s", path)
package logging
