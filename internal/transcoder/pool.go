package transcoder

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"xpoz/internal/logging"
	"xpoz/internal/metrics"
	"xpoz/internal/workers"
)

// JobRunner executes a single job. *Transcoder is the production runner.
type JobRunner interface {
	Transcode(job *Job) (Result, error)
}

// Status is a point-in-time view of the pool.
type Status struct {
	Workers   int   `json:"workers"`
	Busy      int   `json:"busy"`
	Queued    int   `json:"queued"`
	Succeeded int64 `json:"succeeded"`
	Failed    int64 `json:"failed"`
	Panicked  int64 `json:"panicked"`
}

// Pool runs a fixed number of workers that drain a shared queue.
type Pool struct {
	workers int
	queue   *Queue
	runner  JobRunner

	busy      atomic.Int32
	succeeded atomic.Int64
	failed    atomic.Int64
	panicked  atomic.Int64

	startOnce sync.Once
	wg        sync.WaitGroup
}

// NewPool creates a pool of opts.Workers workers. The worker count is
// validated here so that a bad configuration fails before anything runs.
func NewPool(opts *Options, queue *Queue, runner JobRunner) (*Pool, error) {
	if err := workers.Validate(opts.Workers); err != nil {
		return nil, fmt.Errorf("transcode workers: %w", err)
	}
	return &Pool{
		workers: opts.Workers,
		queue:   queue,
		runner:  runner,
	}, nil
}

// Start launches the workers. Jobs pushed before Start wait in the queue.
// Workers exit when ctx is cancelled or the queue is closed and drained.
func (p *Pool) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		logging.Info("Starting %d transcode workers", p.workers)
		for id := 0; id < p.workers; id++ {
			p.wg.Add(1)
			go p.worker(ctx, id)
		}
	})
}

// Wait blocks until every worker has exited.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Status reports worker utilisation, queue depth and job outcomes.
func (p *Pool) Status() Status {
	return Status{
		Workers:   p.workers,
		Busy:      int(p.busy.Load()),
		Queued:    p.queue.Len(),
		Succeeded: p.succeeded.Load(),
		Failed:    p.failed.Load(),
		Panicked:  p.panicked.Load(),
	}
}

// GetStats implements metrics.StatsProvider.
func (p *Pool) GetStats() metrics.Stats {
	return metrics.Stats{
		Workers:     p.workers,
		BusyWorkers: int(p.busy.Load()),
		QueueDepth:  p.queue.Len(),
	}
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	log := logging.For(fmt.Sprintf("worker %d", id))

	for {
		job, err := p.queue.Pop(ctx)
		if err != nil {
			if !errors.Is(err, ErrQueueClosed) && !errors.Is(err, context.Canceled) {
				log.Warn("Stopping: %v", err)
			}
			log.Debug("Exiting")
			return
		}
		p.process(log, job)
	}
}

// process runs one job. A panic is confined to the job that raised it.
func (p *Pool) process(log logging.Component, job *Job) {
	p.busy.Add(1)
	metrics.TranscoderJobsInProgress.Inc()

	start := time.Now()
	status := "failed"
	mode := ModeSDR

	defer func() {
		if r := recover(); r != nil {
			status = "panic"
			log.Error("Job %s panicked on %s: %v\n%s", job.ID, job.SourcePath, r, debug.Stack())
		}

		switch status {
		case "success":
			p.succeeded.Add(1)
		case "panic":
			p.panicked.Add(1)
		default:
			p.failed.Add(1)
		}

		p.busy.Add(-1)
		metrics.TranscoderJobsInProgress.Dec()
		metrics.TranscoderJobsTotal.WithLabelValues(status, mode.String()).Inc()
		metrics.TranscoderJobDuration.WithLabelValues(mode.String()).Observe(time.Since(start).Seconds())
	}()

	log.Debug("Received job %s: %s (queued %v)", job.ID, job.SourcePath, start.Sub(job.EnqueuedAt).Round(time.Millisecond))

	res, err := p.runner.Transcode(job)
	mode = res.Mode
	if err != nil {
		log.Error("Job %s failed for %s: %v", job.ID, job.SourcePath, err)
		return
	}

	status = "success"
	log.Info("Published %s (%s, %s) in %v",
		res.Output, res.Mode, humanize.Bytes(uint64(res.Bytes)), res.Duration.Round(time.Millisecond))
}
