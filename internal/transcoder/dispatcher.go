package transcoder

import (
	"io/fs"
	"path/filepath"
	"sync/atomic"
	"time"

	"xpoz/internal/filesystem"
	"xpoz/internal/logging"
	"xpoz/internal/mediatypes"
	"xpoz/internal/metrics"
)

// EventSource yields paths of newly created files. The channel is closed
// when the source shuts down, which ends Watch.
type EventSource interface {
	Events() <-chan string
}

// ScanResult summarizes one pass over the publish and source trees.
type ScanResult struct {
	// Published is the number of distinct identity keys in the publish tree.
	Published int `json:"published"`
	// Candidates counts recognized videos in the source tree.
	Candidates int `json:"candidates"`
	// Enqueued counts jobs pushed, or for Plan the jobs that would be.
	Enqueued int `json:"enqueued"`
	// Skipped counts candidates whose key is already published.
	Skipped int `json:"skipped"`
	// Errors counts unreadable entries.
	Errors   int           `json:"errors"`
	Duration time.Duration `json:"duration"`

	// Pending lists the source paths in walk order.
	Pending []string `json:"-"`
}

// Dispatcher discovers work and feeds it to the queue: once with Scan, then
// continuously with Watch.
type Dispatcher struct {
	opts  *Options
	queue *Queue
	log   logging.Component

	lastScan atomic.Pointer[ScanResult]
}

// NewDispatcher creates a dispatcher that pushes jobs for opts onto queue.
func NewDispatcher(opts *Options, queue *Queue) *Dispatcher {
	return &Dispatcher{
		opts:  opts,
		queue: queue,
		log:   logging.For("dispatcher"),
	}
}

// Scan enqueues one job for every source video whose identity key has no
// published counterpart. The published set is rebuilt on every call.
func (d *Dispatcher) Scan() ScanResult {
	d.log.Info("Scanning %s against %s", d.opts.SourceDir, d.opts.PublishDir)

	res := d.diff(true)

	metrics.ScanRunsTotal.Inc()
	metrics.ScanLastDuration.Set(res.Duration.Seconds())
	metrics.ScanLastTimestamp.Set(float64(time.Now().Unix()))
	metrics.ScanFiles.WithLabelValues("published").Set(float64(res.Published))
	metrics.ScanFiles.WithLabelValues("candidates").Set(float64(res.Candidates))
	metrics.ScanFiles.WithLabelValues("enqueued").Set(float64(res.Enqueued))
	metrics.ScanFiles.WithLabelValues("skipped").Set(float64(res.Skipped))
	metrics.ScanErrorsTotal.Add(float64(res.Errors))

	d.lastScan.Store(&res)

	d.log.Info("Scan complete in %v: %d published, %d candidates, %d enqueued, %d errors",
		res.Duration.Round(time.Millisecond), res.Published, res.Candidates, res.Enqueued, res.Errors)
	return res
}

// Plan computes what Scan would enqueue without pushing anything.
func (d *Dispatcher) Plan() ScanResult {
	return d.diff(false)
}

// LastScan returns the result of the most recent Scan, or nil.
func (d *Dispatcher) LastScan() *ScanResult {
	return d.lastScan.Load()
}

// Watch pushes a job for every recognized video reported by source. A
// created file is assumed new, so the publish tree is not consulted. Watch
// returns when the source's channel is closed.
func (d *Dispatcher) Watch(source EventSource) {
	d.log.Info("Watching %s for new videos", d.opts.SourceDir)

	for path := range source.Events() {
		if !mediatypes.IsVideo(path) {
			d.log.Debug("Ignoring %s: not a video", path)
			continue
		}
		if mediatypes.IdentityKey(path) == "" {
			d.log.Debug("Ignoring %s: empty identity key", path)
			continue
		}
		d.push(path, "watch")
	}

	d.log.Info("Stopping watcher")
}

func (d *Dispatcher) diff(enqueue bool) ScanResult {
	start := time.Now()
	var res ScanResult

	published := make(map[string]struct{})
	d.walkVideos(d.opts.PublishDir, filesystem.VolumePublish, &res, func(_, key string) {
		published[key] = struct{}{}
	})
	res.Published = len(published)

	d.walkVideos(d.opts.SourceDir, filesystem.VolumeSource, &res, func(path, key string) {
		res.Candidates++

		if _, ok := published[key]; ok {
			res.Skipped++
			return
		}
		res.Pending = append(res.Pending, path)
		if !enqueue || d.push(path, "scan") {
			res.Enqueued++
		}
	})

	res.Duration = time.Since(start)
	return res
}

// walkVideos calls fn for every recognized video below root. Directories
// and symlinks are not reported; unreadable entries are logged, counted and
// skipped. Paths are reported under root as configured, even when root
// itself is a symlink.
func (d *Dispatcher) walkVideos(root, volume string, res *ScanResult, fn func(path, key string)) {
	if _, err := filesystem.StatWithRetry(root, filesystem.DefaultRetryConfig()); err != nil {
		res.Errors++
		d.log.Warn("Cannot read %s directory %s: %v", volume, root, err)
		return
	}
	// WalkDir does not descend into a symlinked root.
	walkRoot := root
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		walkRoot = resolved
	}

	_ = filepath.WalkDir(walkRoot, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			res.Errors++
			d.log.Warn("Skipping unreadable entry %s: %v", path, err)
			return nil
		}
		if entry.IsDir() || entry.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if !mediatypes.IsVideo(entry.Name()) {
			return nil
		}

		key := mediatypes.IdentityKey(entry.Name())
		if key == "" {
			return nil
		}
		if rel, err := filepath.Rel(walkRoot, path); err == nil {
			path = filepath.Join(root, rel)
		}
		fn(path, key)
		return nil
	})
}

func (d *Dispatcher) push(path, origin string) bool {
	job := NewJob(path, d.opts)
	if !d.queue.Push(job) {
		return false
	}
	metrics.TranscoderJobsEnqueuedTotal.WithLabelValues(origin).Inc()
	d.log.Debug("Sending transcoding job %s: %s", job.ID, path)
	return true
}
