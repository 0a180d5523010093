/*
Package filesystem provides the transcoder's filesystem primitives: stat,
open and rename with retry on NFS stale file handles, and an atomic move
used to publish finished encodes.

# Retry Behavior

StatWithRetry, OpenWithRetry and RenameWithRetry retry only on ESTALE
(errno 116). Every other error is returned immediately. Backoff is
exponential and capped:
  - MaxRetries: 3 attempts
  - InitialBackoff: 50ms
  - MaxBackoff: 500ms

# Publishing

AtomicMove guarantees that the destination either does not exist or holds
the complete file. Within one filesystem it is a rename. Across
filesystems (EXDEV) the source is copied to a hidden ".<name>.partial-*"
file next to the destination, synced, and renamed over it.

	if err := filesystem.AtomicMove(scratchPath, publishPath); err != nil {
	    return err
	}

# Metrics

Retry counters and cross-device copies are reported through an Observer
labeled by volume ("source", "publish", "scratch"). The metrics package
provides the implementation; install it with SetObserver and
SetDefaultVolumeResolver at startup. With no observer installed nothing is
recorded.
*/
package filesystem
