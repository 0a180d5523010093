package startup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"xpoz/internal/logging"
	"xpoz/internal/transcoder"
	"xpoz/internal/workers"
)

// DefaultConfigFile is read from the working directory when no --config
// flag is given. It is optional.
const DefaultConfigFile = "xpoz.toml"

// Default encoder argument sets. They sit between "-i <source>" and the
// output path on the ffmpeg command line.
var (
	DefaultSDRArgs = []string{
		"-map_metadata", "0",
		"-c:v", "libx264", "-preset", "medium", "-crf", "23",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac", "-b:a", "160k",
		"-movflags", "+faststart",
	}
	DefaultHDRArgs = []string{
		"-map_metadata", "0",
		"-c:v", "libx265", "-preset", "medium", "-crf", "24",
		"-pix_fmt", "yuv420p10le", "-tag:v", "hvc1",
		"-color_primaries", "bt2020", "-color_trc", "arib-std-b67", "-colorspace", "bt2020nc",
		"-c:a", "aac", "-b:a", "160k",
		"-movflags", "+faststart",
	}
)

// FFmpegConfig names the encoder binaries and their argument sets.
type FFmpegConfig struct {
	Bin   string   `toml:"bin"`
	Probe string   `toml:"probe"`
	SDR   []string `toml:"sdr"`
	HDR   []string `toml:"hdr"`
}

// Config holds all application configuration. It is built by Load and not
// modified afterwards.
type Config struct {
	TranscodeVideos bool         `toml:"transcode_videos"`
	LibraryDir      string       `toml:"library_dir"`
	OriginalsSubdir string       `toml:"originals_subdir"`
	VideosPath      string       `toml:"videos_path"`
	ScratchDir      string       `toml:"scratch_dir"`
	Workers         int          `toml:"workers"`
	Debounce        string       `toml:"debounce"`
	FFmpeg          FFmpegConfig `toml:"ffmpeg"`
	MetricsEnabled  bool         `toml:"metrics_enabled"`
	MetricsPort     string       `toml:"metrics_port"`
	LogLevel        string       `toml:"log_level"`

	// Derived
	SourceDir        string        `toml:"-"`
	DebounceInterval time.Duration `toml:"-"`
	ConfigFile       string        `toml:"-"`
	ConfigFileFound  bool          `toml:"-"`
}

// Default returns the configuration used when neither a settings file nor
// the environment says otherwise.
func Default() Config {
	return Config{
		TranscodeVideos: true,
		LibraryDir:      "~/Pictures/Photos Library.photoslibrary",
		OriginalsSubdir: "originals",
		VideosPath:      "./videos",
		ScratchDir:      filepath.Join(os.TempDir(), "xpoz-transcode"),
		Workers:         0,
		Debounce:        "2s",
		FFmpeg: FFmpegConfig{
			Bin:   "ffmpeg",
			Probe: "ffprobe",
			SDR:   append([]string(nil), DefaultSDRArgs...),
			HDR:   append([]string(nil), DefaultHDRArgs...),
		},
		MetricsEnabled: true,
		MetricsPort:    "9090",
		LogLevel:       "info",
	}
}

// Load builds the configuration from defaults, then the TOML file at path,
// then XPOZ_* environment variables, and validates the result. An empty
// path means DefaultConfigFile, which may be absent; an explicit path must
// exist. Load has no side effects on the filesystem.
func Load(path string) (*Config, error) {
	cfg := Default()

	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, err
	}
	cfg.ConfigFile = resolved
	cfg.ConfigFileFound = exists

	if exists {
		if err := cfg.decodeFile(resolved); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}

	info, err := os.Stat(expanded)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if explicit {
			return "", false, fmt.Errorf("config file %s does not exist", expanded)
		}
		return expanded, false, nil
	case err != nil:
		return "", false, fmt.Errorf("stat config: %w", err)
	case info.IsDir():
		return "", false, fmt.Errorf("config path %s is a directory", expanded)
	}
	return expanded, true, nil
}

func (c *Config) decodeFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := toml.NewDecoder(file)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(c); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("parse config %s: unknown keys:\n%s", path, strict.String())
		}
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.TranscodeVideos = getEnvBool("XPOZ_TRANSCODE_VIDEOS", c.TranscodeVideos)
	c.LibraryDir = getEnv("XPOZ_LIBRARY_DIR", c.LibraryDir)
	c.OriginalsSubdir = getEnv("XPOZ_ORIGINALS_SUBDIR", c.OriginalsSubdir)
	c.VideosPath = getEnv("XPOZ_VIDEOS_PATH", c.VideosPath)
	c.ScratchDir = getEnv("XPOZ_SCRATCH_DIR", c.ScratchDir)
	c.Workers = getEnvInt("XPOZ_WORKERS", c.Workers)
	c.Debounce = getEnv("XPOZ_DEBOUNCE", c.Debounce)
	c.FFmpeg.Bin = getEnv("XPOZ_FFMPEG_BIN", c.FFmpeg.Bin)
	c.FFmpeg.Probe = getEnv("XPOZ_FFMPEG_PROBE", c.FFmpeg.Probe)
	c.MetricsEnabled = getEnvBool("XPOZ_METRICS_ENABLED", c.MetricsEnabled)
	c.MetricsPort = getEnv("XPOZ_METRICS_PORT", c.MetricsPort)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
}

// normalize expands paths and fills in derived fields.
func (c *Config) normalize() error {
	var err error
	if c.LibraryDir, err = expandPath(c.LibraryDir); err != nil {
		return err
	}
	if c.VideosPath, err = expandPath(c.VideosPath); err != nil {
		return err
	}
	if c.ScratchDir, err = expandPath(c.ScratchDir); err != nil {
		return err
	}
	c.SourceDir = filepath.Join(c.LibraryDir, c.OriginalsSubdir)

	c.Debounce = strings.TrimSpace(c.Debounce)
	if c.DebounceInterval, err = time.ParseDuration(c.Debounce); err != nil {
		return fmt.Errorf("invalid debounce %q: %w", c.Debounce, err)
	}

	if c.Workers == 0 {
		c.Workers = workers.DefaultTranscode()
	}
	return nil
}

// Validate checks the configuration without touching the filesystem beyond
// stat calls. The worker count is checked first.
func (c *Config) Validate() error {
	if err := workers.Validate(c.Workers); err != nil {
		return err
	}
	if strings.TrimSpace(c.FFmpeg.Bin) == "" {
		return errors.New("ffmpeg.bin must not be empty")
	}
	if strings.TrimSpace(c.FFmpeg.Probe) == "" {
		return errors.New("ffmpeg.probe must not be empty")
	}
	if len(c.FFmpeg.SDR) == 0 || len(c.FFmpeg.HDR) == 0 {
		return errors.New("ffmpeg.sdr and ffmpeg.hdr must not be empty")
	}
	if c.DebounceInterval <= 0 {
		return fmt.Errorf("debounce must be positive, got %s", c.Debounce)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.MetricsEnabled {
		if port, err := strconv.Atoi(c.MetricsPort); err != nil || port < 1 || port > 65535 {
			return fmt.Errorf("invalid metrics_port %q", c.MetricsPort)
		}
	}

	if !c.TranscodeVideos {
		return nil
	}

	info, err := os.Stat(c.SourceDir)
	if err != nil {
		return fmt.Errorf("source directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source directory %s is not a directory", c.SourceDir)
	}

	if overlaps(c.ScratchDir, c.VideosPath) {
		return fmt.Errorf("scratch_dir %s must not overlap videos_path %s", c.ScratchDir, c.VideosPath)
	}
	if overlaps(c.ScratchDir, c.SourceDir) {
		return fmt.Errorf("scratch_dir %s must not overlap the originals directory %s", c.ScratchDir, c.SourceDir)
	}
	if isWithin(c.VideosPath, c.SourceDir) {
		return fmt.Errorf("videos_path %s must not be inside the originals directory %s", c.VideosPath, c.SourceDir)
	}
	if isWithin(c.SourceDir, c.VideosPath) {
		return fmt.Errorf("the originals directory %s must not be inside videos_path %s", c.SourceDir, c.VideosPath)
	}
	return nil
}

// EnsureDirectories creates the publish and scratch directories and checks
// that both are writable.
func (c *Config) EnsureDirectories() error {
	dirs := []struct {
		path, name string
	}{
		{c.VideosPath, "videos"},
		{c.ScratchDir, "scratch"},
	}
	for _, d := range dirs {
		if err := ensureDirectory(d.path, d.name); err != nil {
			return fmt.Errorf("%s directory error: %w", d.name, err)
		}
		if err := testWriteAccess(d.path); err != nil {
			return fmt.Errorf("%s directory is not writable: %w", d.name, err)
		}
		logging.Info("  [OK] %s directory is writable: %s", d.name, d.path)
	}
	return nil
}

// Options returns the transcoder options for this configuration.
func (c *Config) Options() *transcoder.Options {
	return &transcoder.Options{
		SourceDir:  c.SourceDir,
		PublishDir: c.VideosPath,
		ScratchDir: c.ScratchDir,
		FFmpegBin:  c.FFmpeg.Bin,
		ProbeBin:   c.FFmpeg.Probe,
		SDRArgs:    append([]string(nil), c.FFmpeg.SDR...),
		HDRArgs:    append([]string(nil), c.FFmpeg.HDR...),
		Workers:    c.Workers,
	}
}

// LogConfig prints the effective configuration.
func LogConfig(c *Config) {
	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")
	if c.ConfigFileFound {
		logging.Info("  Config file:         %s", c.ConfigFile)
	} else {
		logging.Info("  Config file:         none (%s not found)", c.ConfigFile)
	}
	logging.Info("  TRANSCODE_VIDEOS:    %v", c.TranscodeVideos)
	logging.Info("  LIBRARY_DIR:         %s", c.LibraryDir)
	logging.Info("  ORIGINALS_SUBDIR:    %s", c.OriginalsSubdir)
	logging.Info("  VIDEOS_PATH:         %s", c.VideosPath)
	logging.Info("  SCRATCH_DIR:         %s", c.ScratchDir)
	logging.Info("  WORKERS:             %d", c.Workers)
	logging.Info("  DEBOUNCE:            %v", c.DebounceInterval)
	logging.Info("  FFMPEG_BIN:          %s", c.FFmpeg.Bin)
	logging.Info("  FFMPEG_PROBE:        %s", c.FFmpeg.Probe)
	logging.Info("  METRICS_ENABLED:     %v", c.MetricsEnabled)
	logging.Info("  METRICS_PORT:        %s", c.MetricsPort)
	logging.Info("  LOG_LEVEL:           %s", c.LogLevel)
	logging.Debug("  SDR args:            %s", strings.Join(c.FFmpeg.SDR, " "))
	logging.Debug("  HDR args:            %s", strings.Join(c.FFmpeg.HDR, " "))
	logging.Info("")
	logging.Info("  Source directory:    %s", c.SourceDir)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if strings.HasPrefix(pathValue, "~/") {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// isWithin reports whether path is dir or lies below it. Both must be
// absolute and clean.
func isWithin(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// overlaps reports whether either directory contains the other.
func overlaps(a, b string) bool {
	return isWithin(a, b) || isWithin(b, a)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
