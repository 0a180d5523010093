package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var configEnv = []string{
	"XPOZ_TRANSCODE_VIDEOS", "XPOZ_LIBRARY_DIR", "XPOZ_ORIGINALS_SUBDIR",
	"XPOZ_VIDEOS_PATH", "XPOZ_SCRATCH_DIR", "XPOZ_WORKERS", "XPOZ_DEBOUNCE",
	"XPOZ_FFMPEG_BIN", "XPOZ_FFMPEG_PROBE", "XPOZ_METRICS_ENABLED",
	"XPOZ_METRICS_PORT", "LOG_LEVEL",
}

type cliTestEnv struct {
	source     string
	videos     string
	scratch    string
	configPath string
}

// setupCLITestEnv writes a settings file for a library under a temp
// directory. The encoder binaries do not exist.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	for _, key := range configEnv {
		t.Setenv(key, "")
	}

	base := t.TempDir()
	library := filepath.Join(base, "Photos.photoslibrary")
	env := &cliTestEnv{
		source:     filepath.Join(library, "originals"),
		videos:     filepath.Join(base, "videos"),
		scratch:    filepath.Join(base, "scratch"),
		configPath: filepath.Join(base, "xpoz.toml"),
	}
	if err := os.MkdirAll(env.source, 0o755); err != nil {
		t.Fatalf("mkdir source: %v", err)
	}

	body := strings.Join([]string{
		`library_dir = "` + library + `"`,
		`videos_path = "` + env.videos + `"`,
		`scratch_dir = "` + env.scratch + `"`,
		`workers = 1`,
		`metrics_enabled = false`,
		`log_level = "error"`,
		``,
		`[ffmpeg]`,
		`bin = "` + filepath.Join(base, "missing-ffmpeg") + `"`,
		`probe = "` + filepath.Join(base, "missing-ffprobe") + `"`,
		``,
	}, "\n")
	if err := os.WriteFile(env.configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q\noutput:\n%s", needle, haystack)
	}
}
