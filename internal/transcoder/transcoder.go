package transcoder

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"xpoz/internal/filesystem"
	"xpoz/internal/logging"
	"xpoz/internal/metrics"
)

// ErrEncoderFailed is returned when ffmpeg cannot be started or exits non-zero.
var ErrEncoderFailed = errors.New("encoder failed")

// stderrTailBytes bounds how much encoder output ends up in an error.
const stderrTailBytes = 2048

// Result describes a finished job.
type Result struct {
	Mode     Mode
	Output   string
	Bytes    int64
	Duration time.Duration
}

// Transcoder runs one job at a time: classify, encode into the scratch
// directory, publish. Methods are safe for concurrent use by workers.
type Transcoder struct {
	opts       *Options
	classifier *Classifier
}

// New creates a Transcoder using the binaries and directories in opts.
func New(opts *Options) *Transcoder {
	return &Transcoder{
		opts:       opts,
		classifier: NewClassifier(opts.ProbeBin),
	}
}

// Transcode encodes job's source and publishes it as <key>.mp4. The
// scratch file is always removed before returning. The returned Result
// carries the selected mode even when an error is returned.
//
// The encoder is waited on without a timeout; a hung ffmpeg holds its
// worker until it exits.
func (t *Transcoder) Transcode(job *Job) (Result, error) {
	start := time.Now()
	res := Result{Mode: ModeSDR}

	if _, err := filesystem.StatWithRetry(job.SourcePath, filesystem.DefaultRetryConfig()); err != nil {
		return res, fmt.Errorf("source unavailable: %w", err)
	}
	res.Mode = t.classifier.Classify(job.SourcePath)

	scratch := job.ScratchPath()
	defer removeScratch(scratch)

	args := make([]string, 0, len(t.opts.Args(res.Mode))+3)
	args = append(args, "-i", job.SourcePath)
	args = append(args, t.opts.Args(res.Mode)...)
	args = append(args, scratch)

	cmd := exec.Command(t.opts.FFmpegBin, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	logging.Debug("Running %s %s", t.opts.FFmpegBin, strings.Join(args, " "))

	if err := cmd.Run(); err != nil {
		return res, fmt.Errorf("%w: %s: %w: %s", ErrEncoderFailed, job.SourcePath, err, stderrTail(&stderr))
	}

	info, err := os.Stat(scratch)
	if err != nil {
		return res, fmt.Errorf("%w: %s: no output written: %w", ErrEncoderFailed, job.SourcePath, err)
	}

	output := job.OutputPath()
	if err := filesystem.AtomicMove(scratch, output); err != nil {
		return res, fmt.Errorf("failed to publish %s: %w", output, err)
	}

	res.Output = output
	res.Bytes = info.Size()
	res.Duration = time.Since(start)
	metrics.TranscoderPublishedBytesTotal.Add(float64(res.Bytes))

	return res, nil
}

// Classify exposes the probe for the probe command.
func (t *Transcoder) Classify(path string) Mode {
	return t.classifier.Classify(path)
}

func removeScratch(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logging.Warn("failed to remove scratch file %s: %v", path, err)
	}
}

func stderrTail(buf *bytes.Buffer) string {
	b := bytes.TrimSpace(buf.Bytes())
	if len(b) > stderrTailBytes {
		b = b[len(b)-stderrTailBytes:]
	}
	return string(b)
}

// CleanScratch removes encoder outputs left in the scratch directory by a
// previous run and returns the number of bytes freed. Only files named like
// a job's scratch path are touched; anything else in the directory is left
// alone. A missing directory is not an error.
func CleanScratch(dir string) (int64, error) {
	if dir == "" {
		return 0, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read scratch directory: %w", err)
	}

	var freedBytes int64
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !isScratchName(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		info, err := entry.Info()
		if err != nil {
			logging.Warn("failed to get info for %s: %v", path, err)
			continue
		}
		if err := os.Remove(path); err != nil {
			logging.Warn("failed to remove file %s: %v", path, err)
			continue
		}
		freedBytes += info.Size()
	}

	if freedBytes > 0 {
		logging.Info("Cleared scratch directory: freed %s", humanize.Bytes(uint64(freedBytes)))
	}
	return freedBytes, nil
}
