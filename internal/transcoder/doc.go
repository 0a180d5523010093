// Package transcoder converts source videos into web-deliverable MP4s in
// the background.
//
// A Dispatcher finds work in two phases. Scan diffs the source tree against
// the publish tree once at startup and enqueues every video whose identity
// key (the file name up to its first ".") has not been published. Watch then
// turns debounced file-creation events into jobs until its EventSource is
// closed.
//
// A Pool of workers drains the shared Queue. For each Job the Transcoder
// probes the source with ffprobe to choose the SDR or HDR argument set, runs
// ffmpeg into a scratch file, and on success moves the result atomically
// into the publish directory. Failed jobs are logged and dropped; the next
// Scan picks them up again.
//
// Transcoding requires ffmpeg and ffprobe; their paths come from Options.
package transcoder
