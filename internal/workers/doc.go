/*
Package workers sizes the transcode worker pool.

# Overview

Every transcode worker drives one external encoder process for the whole
duration of a job, so the worker count is really a cap on concurrent encoder
processes. That is the scarce resource on the host; the job queue itself is
unbounded.

When running in containers the number of usable CPUs may be limited by cgroup
constraints. Go 1.19+ sets GOMAXPROCS from those limits, while
runtime.NumCPU() still reports the host's CPUs, so sizing is based on
GOMAXPROCS:

	// Wrong: Returns 64 (host CPUs), ignores container limit
	workers := runtime.NumCPU()

	// Correct: Returns 2 (respects container limit in Go 1.19+)
	workers := runtime.GOMAXPROCS(0)

# Usage

	n := cfg.Workers
	if n == 0 {
		n = workers.DefaultTranscode() // min(GOMAXPROCS, 4)
	}
	if err := workers.Validate(n); err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

# Ceiling

[Validate] rejects counts above [MaxTranscodeWorkers]. Exceeding it is a
configuration error reported at startup, before the first scan, never a
runtime condition.
*/
package workers
