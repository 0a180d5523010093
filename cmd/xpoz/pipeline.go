package main

import (
	"fmt"

	"xpoz/internal/filesystem"
	"xpoz/internal/logging"
	"xpoz/internal/metrics"
	"xpoz/internal/startup"
	"xpoz/internal/transcoder"
)

// pipeline is the queue, worker pool and dispatcher for one configuration,
// together with the instance lock that guards its videos directory.
type pipeline struct {
	opts       *transcoder.Options
	queue      *transcoder.Queue
	pool       *transcoder.Pool
	dispatcher *transcoder.Dispatcher
	lock       *startup.Lock
}

// setupMetrics prepares metrics that must exist before the first job runs.
func setupMetrics() {
	metrics.InitializeMetrics()
	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)
	filesystem.SetObserver(metrics.NewFilesystemObserver())
}

// newPipeline creates the directories, takes the lock, clears leftover
// scratch files and wires the transcoder. The pool is not started.
func newPipeline(cfg *startup.Config) (*pipeline, error) {
	startup.LogDirectorySetup()
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	lock, err := startup.AcquireLock(cfg.VideosPath)
	if err != nil {
		return nil, err
	}
	logging.Info("  [OK] Holding %s", lock.Path())

	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		filesystem.VolumeSource:  cfg.SourceDir,
		filesystem.VolumePublish: cfg.VideosPath,
		filesystem.VolumeScratch: cfg.ScratchDir,
	}))

	if _, err := transcoder.CleanScratch(cfg.ScratchDir); err != nil {
		logging.Warn("  Failed to clear scratch directory: %v", err)
	}

	opts := cfg.Options()
	queue := transcoder.NewQueue()
	pool, err := transcoder.NewPool(opts, queue, transcoder.New(opts))
	if err != nil {
		_ = lock.Release()
		return nil, fmt.Errorf("create worker pool: %w", err)
	}

	return &pipeline{
		opts:       opts,
		queue:      queue,
		pool:       pool,
		dispatcher: transcoder.NewDispatcher(opts, queue),
		lock:       lock,
	}, nil
}

func (p *pipeline) release() {
	if err := p.lock.Release(); err != nil {
		logging.Warn("Failed to release %s: %v", p.lock.Path(), err)
	}
}
