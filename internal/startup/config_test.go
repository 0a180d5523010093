package startup

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"xpoz/internal/workers"
)

var configEnv = []string{
	"XPOZ_TRANSCODE_VIDEOS", "XPOZ_LIBRARY_DIR", "XPOZ_ORIGINALS_SUBDIR",
	"XPOZ_VIDEOS_PATH", "XPOZ_SCRATCH_DIR", "XPOZ_WORKERS", "XPOZ_DEBOUNCE",
	"XPOZ_FFMPEG_BIN", "XPOZ_FFMPEG_PROBE", "XPOZ_METRICS_ENABLED",
	"XPOZ_METRICS_PORT", "LOG_LEVEL",
}

// testLayout is a library with an originals directory and sibling videos and
// scratch paths, none of which exist yet except the originals.
type testLayout struct {
	root, library, source, videos, scratch string
}

func newLayout(t *testing.T) testLayout {
	t.Helper()
	for _, key := range configEnv {
		t.Setenv(key, "")
	}

	root := t.TempDir()
	l := testLayout{
		root:    root,
		library: filepath.Join(root, "Photos.photoslibrary"),
		videos:  filepath.Join(root, "videos"),
		scratch: filepath.Join(root, "scratch"),
	}
	l.source = filepath.Join(l.library, "originals")
	if err := os.MkdirAll(l.source, 0o755); err != nil {
		t.Fatal(err)
	}
	return l
}

// writeConfig writes a settings file pointing at l, followed by extra.
func (l testLayout) writeConfig(t *testing.T, extra string) string {
	t.Helper()
	body := "library_dir = '" + l.library + "'\n" +
		"videos_path = '" + l.videos + "'\n" +
		"scratch_dir = '" + l.scratch + "'\n" + extra
	path := filepath.Join(l.root, "xpoz.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if !cfg.TranscodeVideos {
		t.Error("TranscodeVideos default = false, want true")
	}
	if cfg.OriginalsSubdir != "originals" {
		t.Errorf("OriginalsSubdir = %q, want originals", cfg.OriginalsSubdir)
	}
	if cfg.Workers != 0 {
		t.Errorf("Workers = %d, want 0 (automatic)", cfg.Workers)
	}
	if cfg.FFmpeg.Bin != "ffmpeg" || cfg.FFmpeg.Probe != "ffprobe" {
		t.Errorf("FFmpeg = %+v", cfg.FFmpeg)
	}
	if !reflect.DeepEqual(cfg.FFmpeg.SDR, DefaultSDRArgs) || !reflect.DeepEqual(cfg.FFmpeg.HDR, DefaultHDRArgs) {
		t.Error("default argument sets differ from DefaultSDRArgs/DefaultHDRArgs")
	}

	// Default hands out copies.
	cfg.FFmpeg.SDR[0] = "changed"
	if DefaultSDRArgs[0] == "changed" {
		t.Error("Default() shares DefaultSDRArgs")
	}
}

func TestLoadFromFile(t *testing.T) {
	l := newLayout(t)
	path := l.writeConfig(t, `
workers = 3
debounce = "500ms"
metrics_port = "9191"

[ffmpeg]
bin = "/opt/ffmpeg/bin/ffmpeg"
sdr = ["-c:v", "libx264"]
hdr = ["-c:v", "libx265"]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !cfg.ConfigFileFound || cfg.ConfigFile != path {
		t.Errorf("config file = %q (found %v), want %q", cfg.ConfigFile, cfg.ConfigFileFound, path)
	}
	if cfg.SourceDir != l.source {
		t.Errorf("SourceDir = %q, want %q", cfg.SourceDir, l.source)
	}
	if cfg.VideosPath != l.videos || cfg.ScratchDir != l.scratch {
		t.Errorf("VideosPath = %q, ScratchDir = %q", cfg.VideosPath, cfg.ScratchDir)
	}
	if cfg.Workers != 3 {
		t.Errorf("Workers = %d, want 3", cfg.Workers)
	}
	if cfg.DebounceInterval != 500*time.Millisecond {
		t.Errorf("DebounceInterval = %v, want 500ms", cfg.DebounceInterval)
	}
	if cfg.MetricsPort != "9191" {
		t.Errorf("MetricsPort = %q, want 9191", cfg.MetricsPort)
	}
	if cfg.FFmpeg.Bin != "/opt/ffmpeg/bin/ffmpeg" {
		t.Errorf("FFmpeg.Bin = %q", cfg.FFmpeg.Bin)
	}
	// Keys not in the file keep their defaults.
	if cfg.FFmpeg.Probe != "ffprobe" {
		t.Errorf("FFmpeg.Probe = %q, want default ffprobe", cfg.FFmpeg.Probe)
	}
	if !reflect.DeepEqual(cfg.FFmpeg.SDR, []string{"-c:v", "libx264"}) {
		t.Errorf("FFmpeg.SDR = %v", cfg.FFmpeg.SDR)
	}
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	l := newLayout(t)
	path := l.writeConfig(t, "workers = 3\n[ffmpeg]\nprobe = 'from-file'\n")

	t.Setenv("XPOZ_WORKERS", "5")
	t.Setenv("XPOZ_FFMPEG_PROBE", "/usr/local/bin/ffprobe")
	t.Setenv("XPOZ_METRICS_ENABLED", "false")
	t.Setenv("XPOZ_DEBOUNCE", "3s")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Workers != 5 {
		t.Errorf("Workers = %d, want 5 from environment", cfg.Workers)
	}
	if cfg.FFmpeg.Probe != "/usr/local/bin/ffprobe" {
		t.Errorf("FFmpeg.Probe = %q, want environment value", cfg.FFmpeg.Probe)
	}
	if cfg.MetricsEnabled {
		t.Error("MetricsEnabled = true, want false from environment")
	}
	if cfg.DebounceInterval != 3*time.Second {
		t.Errorf("DebounceInterval = %v, want 3s", cfg.DebounceInterval)
	}
}

func TestLoadEnvironmentOnly(t *testing.T) {
	l := newLayout(t)
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(l.root); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv("XPOZ_LIBRARY_DIR", l.library)
	t.Setenv("XPOZ_VIDEOS_PATH", l.videos)
	t.Setenv("XPOZ_SCRATCH_DIR", l.scratch)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ConfigFileFound {
		t.Error("ConfigFileFound = true without a settings file")
	}
	if cfg.SourceDir != l.source {
		t.Errorf("SourceDir = %q, want %q", cfg.SourceDir, l.source)
	}
}

func TestLoadWorkerCount(t *testing.T) {
	tests := []struct {
		name    string
		workers string
		want    int
		wantErr bool
	}{
		{"automatic", "0", workers.DefaultTranscode(), false},
		{"one", "1", 1, false},
		{"ceiling", "24", 24, false},
		{"above ceiling", "25", 0, true},
		{"negative", "-2", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLayout(t)
			path := l.writeConfig(t, "workers = "+tt.workers+"\n")

			cfg, err := Load(path)
			if tt.wantErr {
				if !errors.Is(err, workers.ErrInvalidWorkerCount) {
					t.Fatalf("Load() error = %v, want ErrInvalidWorkerCount", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cfg.Workers != tt.want {
				t.Errorf("Workers = %d, want %d", cfg.Workers, tt.want)
			}
		})
	}
}

func TestLoadWorkerCountCheckedFirst(t *testing.T) {
	l := newLayout(t)
	// The source is missing too, but the worker count is reported.
	if err := os.RemoveAll(l.source); err != nil {
		t.Fatal(err)
	}
	path := l.writeConfig(t, "workers = 100\n")

	if _, err := Load(path); !errors.Is(err, workers.ErrInvalidWorkerCount) {
		t.Fatalf("Load() error = %v, want ErrInvalidWorkerCount", err)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		extra   string
		layout  func(l *testLayout)
		wantMsg string
	}{
		{
			name:    "missing source",
			layout:  func(l *testLayout) { _ = os.RemoveAll(l.source) },
			wantMsg: "source directory",
		},
		{
			name:    "empty ffmpeg binary",
			extra:   "[ffmpeg]\nbin = ''\n",
			wantMsg: "ffmpeg.bin",
		},
		{
			name:    "empty argument set",
			extra:   "[ffmpeg]\nhdr = []\n",
			wantMsg: "ffmpeg.hdr",
		},
		{
			name:    "bad debounce",
			extra:   "debounce = 'soon'\n",
			wantMsg: "invalid debounce",
		},
		{
			name:    "bad log level",
			extra:   "log_level = 'loud'\n",
			wantMsg: "unknown log level",
		},
		{
			name:    "bad metrics port",
			extra:   "metrics_port = 'http'\n",
			wantMsg: "metrics_port",
		},
		{
			name:    "unknown key",
			extra:   "wokers = 2\n",
			wantMsg: "unknown keys",
		},
		{
			name:    "scratch inside videos",
			layout:  func(l *testLayout) { l.scratch = filepath.Join(l.videos, "tmp") },
			wantMsg: "must not overlap videos_path",
		},
		{
			name: "videos inside scratch",
			layout: func(l *testLayout) {
				l.scratch = filepath.Join(l.root, "work")
				l.videos = filepath.Join(l.scratch, "videos")
			},
			wantMsg: "must not overlap videos_path",
		},
		{
			name:    "scratch is the library",
			layout:  func(l *testLayout) { l.scratch = l.library },
			wantMsg: "must not overlap the originals",
		},
		{
			name:    "scratch inside originals",
			layout:  func(l *testLayout) { l.scratch = filepath.Join(l.source, "tmp") },
			wantMsg: "must not overlap the originals",
		},
		{
			name:    "scratch contains the library",
			layout:  func(l *testLayout) { l.scratch = l.root },
			wantMsg: "scratch_dir",
		},
		{
			name:    "originals inside videos",
			layout:  func(l *testLayout) { l.videos = l.library },
			wantMsg: "must not be inside videos_path",
		},
		{
			name:    "videos inside originals",
			layout:  func(l *testLayout) { l.videos = filepath.Join(l.source, "videos") },
			wantMsg: "must not be inside the originals",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLayout(t)
			if tt.layout != nil {
				tt.layout(&l)
			}
			path := l.writeConfig(t, tt.extra)

			_, err := Load(path)
			if err == nil {
				t.Fatal("Load() error = nil")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Load() error = %v, want it to mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestLoadTranscodingDisabledSkipsSourceCheck(t *testing.T) {
	l := newLayout(t)
	if err := os.RemoveAll(l.source); err != nil {
		t.Fatal(err)
	}
	path := l.writeConfig(t, "transcode_videos = false\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TranscodeVideos {
		t.Error("TranscodeVideos = true, want false")
	}
}

func TestLoadExplicitMissingFile(t *testing.T) {
	newLayout(t)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("Load() with a missing explicit file error = nil")
	}
}

func TestLoadHasNoSideEffects(t *testing.T) {
	l := newLayout(t)
	path := l.writeConfig(t, "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	for _, dir := range []string{l.videos, l.scratch} {
		if _, err := os.Stat(dir); !os.IsNotExist(err) {
			t.Errorf("%s exists after Load, want it untouched", dir)
		}
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories() error = %v", err)
	}
	for _, dir := range []string{l.videos, l.scratch} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Errorf("%s not created: %v", dir, err)
		}
		entries, _ := os.ReadDir(dir)
		if len(entries) != 0 {
			t.Errorf("%s has leftover entries %v", dir, entries)
		}
	}
}

func TestEnsureDirectoriesRejectsFile(t *testing.T) {
	l := newLayout(t)
	path := l.writeConfig(t, "")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(l.videos, []byte("not a dir"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := cfg.EnsureDirectories(); err == nil {
		t.Error("EnsureDirectories() with a file in place of videos error = nil")
	}
}

func TestOptions(t *testing.T) {
	l := newLayout(t)
	path := l.writeConfig(t, "workers = 2\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	opts := cfg.Options()
	if opts.SourceDir != l.source || opts.PublishDir != l.videos || opts.ScratchDir != l.scratch {
		t.Errorf("Options dirs = %q, %q, %q", opts.SourceDir, opts.PublishDir, opts.ScratchDir)
	}
	if opts.Workers != 2 || opts.FFmpegBin != "ffmpeg" || opts.ProbeBin != "ffprobe" {
		t.Errorf("Options = %+v", opts)
	}

	opts.SDRArgs[0] = "changed"
	if cfg.FFmpeg.SDR[0] == "changed" {
		t.Error("Options() shares the config's argument slice")
	}
}
