package transcoder

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"xpoz/internal/mediatypes"
)

// Mode selects which encoder argument set a job uses.
type Mode int

const (
	// ModeSDR is the standard dynamic range parameter set.
	ModeSDR Mode = iota
	// ModeHDR is the wide color gamut parameter set.
	ModeHDR
)

func (m Mode) String() string {
	if m == ModeHDR {
		return "hdr"
	}
	return "sdr"
}

// Options is the transcoder configuration shared by every job and worker.
// It is built once at startup and must not be modified afterwards.
type Options struct {
	SourceDir  string
	PublishDir string
	ScratchDir string

	FFmpegBin string
	ProbeBin  string
	SDRArgs   []string
	HDRArgs   []string

	Workers int
}

// Args returns the encoder argument set for mode.
func (o *Options) Args(mode Mode) []string {
	if mode == ModeHDR {
		return o.HDRArgs
	}
	return o.SDRArgs
}

// Job is one source file waiting to be transcoded. Jobs live only in memory.
type Job struct {
	ID         uuid.UUID
	SourcePath string
	Options    *Options
	EnqueuedAt time.Time
}

// NewJob creates a job for sourcePath bound to opts.
func NewJob(sourcePath string, opts *Options) *Job {
	return &Job{
		ID:         uuid.New(),
		SourcePath: sourcePath,
		Options:    opts,
		EnqueuedAt: time.Now(),
	}
}

// Key returns the asset identity key of the job's source file.
func (j *Job) Key() string {
	return mediatypes.IdentityKey(j.SourcePath)
}

// OutputPath is where the finished encode is published.
func (j *Job) OutputPath() string {
	return filepath.Join(j.Options.PublishDir, mediatypes.OutputName(j.SourcePath))
}

// ScratchPath is the encoder's temporary output. The job ID keeps two jobs
// for the same key from writing the same file.
func (j *Job) ScratchPath() string {
	return filepath.Join(j.Options.ScratchDir, j.Key()+"-"+j.ID.String()+mediatypes.OutputExtension)
}

// isScratchName reports whether name has the <key>-<job ID>.mp4 form that
// ScratchPath produces.
func isScratchName(name string) bool {
	stem, ok := strings.CutSuffix(name, mediatypes.OutputExtension)
	if !ok || len(stem) < 38 || stem[len(stem)-37] != '-' {
		return false
	}
	_, err := uuid.Parse(stem[len(stem)-36:])
	return err == nil
}
