// Package startup handles configuration loading, the instance lock, and
// startup/shutdown logging.
//
// # Configuration
//
// [Load] layers three sources, later ones winning:
//
//   - built-in defaults ([Default])
//   - a TOML settings file (--config, or xpoz.toml in the working directory
//     when present)
//   - environment variables
//
// Supported keys and their environment variables:
//
//   - transcode_videos / XPOZ_TRANSCODE_VIDEOS: run the transcoder (default: true)
//   - library_dir / XPOZ_LIBRARY_DIR: photo library root (default: ~/Pictures/Photos Library.photoslibrary)
//   - originals_subdir / XPOZ_ORIGINALS_SUBDIR: originals directory inside the library (default: originals)
//   - videos_path / XPOZ_VIDEOS_PATH: where transcoded videos are published (default: ./videos)
//   - scratch_dir / XPOZ_SCRATCH_DIR: encoder working directory (default: $TMPDIR/xpoz-transcode)
//   - workers / XPOZ_WORKERS: concurrent encoder processes, 0 for automatic (max 24)
//   - debounce / XPOZ_DEBOUNCE: quiet period before a new file is picked up (default: 2s)
//   - ffmpeg.bin / XPOZ_FFMPEG_BIN, ffmpeg.probe / XPOZ_FFMPEG_PROBE: encoder binaries
//   - ffmpeg.sdr, ffmpeg.hdr: encoder argument sets (file only)
//   - metrics_enabled / XPOZ_METRICS_ENABLED, metrics_port / XPOZ_METRICS_PORT: ops server
//   - log_level / LOG_LEVEL: debug, info, warn, error (default: info)
//
// The scratch directory may not overlap the videos or originals
// directories, and neither of those may contain the other.
//
// Load only reads the filesystem. [Config.EnsureDirectories] creates the
// videos and scratch directories afterwards.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
package startup
