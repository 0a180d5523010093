package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"xpoz/internal/handlers"
	"xpoz/internal/logging"
	"xpoz/internal/metrics"
	"xpoz/internal/startup"
	"xpoz/internal/watcher"
)

const (
	shutdownTimeout   = 30 * time.Second
	collectorInterval = 15 * time.Second
	opsReadTimeout    = 10 * time.Second
	opsHeaderTimeout  = 5 * time.Second
	opsWriteTimeout   = 30 * time.Second
	opsIdleTimeout    = 60 * time.Second
)

// daemon holds everything runDaemon starts so shutdown can stop it in order.
type daemon struct {
	cfg     *startup.Config
	pipe    *pipeline
	watch   *watcher.Watcher
	ops     *http.Server
	h       *handlers.Handlers
	cancel  context.CancelFunc
	collect *metrics.Collector
}

func runDaemon(parent context.Context, cctx *commandContext) error {
	startTime := time.Now()

	cfg, err := cctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	startup.LogStartup()
	startup.LogConfig(cfg)
	setupMetrics()

	if parent == nil {
		parent = context.Background()
	}
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	d := &daemon{cfg: cfg}

	if cfg.TranscodeVideos {
		if d.pipe, err = newPipeline(cfg); err != nil {
			return err
		}
		defer d.pipe.release()

		startup.LogTranscoderInit(cfg)

		var poolCtx context.Context
		poolCtx, d.cancel = context.WithCancel(context.Background())
		defer d.cancel()

		d.collect = metrics.NewCollector(d.pipe.pool, collectorInterval)
		d.collect.Start()

		d.h = handlers.New(d.pipe.pool, d.pipe.dispatcher)
		d.pipe.pool.Start(poolCtx)
	} else {
		startup.LogTranscoderInit(cfg)
		d.h = handlers.New(nil, nil)
	}

	g, gctx := errgroup.WithContext(parent)

	if cfg.MetricsEnabled {
		router := handlers.NewRouter(d.h)
		startup.LogHTTPRoutes(router)
		d.ops = &http.Server{
			Addr:              ":" + cfg.MetricsPort,
			Handler:           handlers.Handler(router),
			ReadTimeout:       opsReadTimeout,
			ReadHeaderTimeout: opsHeaderTimeout,
			WriteTimeout:      opsWriteTimeout,
			IdleTimeout:       opsIdleTimeout,
		}
		g.Go(func() error {
			if err := d.ops.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("ops server: %w", err)
			}
			return nil
		})
	}

	if d.pipe != nil {
		// Subscribe before scanning so files created during the scan are
		// not missed. Such a file may be enqueued twice; both jobs write
		// the same output.
		if d.watch, err = watcher.New(cfg.SourceDir, cfg.DebounceInterval); err != nil {
			d.shutdown()
			_ = g.Wait()
			return fmt.Errorf("failed to watch %s: %w", cfg.SourceDir, err)
		}

		res := d.pipe.dispatcher.Scan()
		startup.LogScanComplete(res.Published, res.Candidates, res.Enqueued, res.Duration)

		g.Go(func() error {
			d.pipe.dispatcher.Watch(d.watch)
			return nil
		})
	}

	d.h.MarkReady()
	startup.LogServerStarted(startup.ServerConfig{
		MetricsPort:     cfg.MetricsPort,
		MetricsEnabled:  cfg.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})

	g.Go(func() error {
		select {
		case sig := <-sigChan:
			startup.LogShutdownInitiated(sig.String())
		case <-gctx.Done():
			startup.LogShutdownInitiated(context.Cause(gctx).Error())
		}
		d.shutdown()
		return nil
	})

	return g.Wait()
}

// shutdown stops intake first, then the ops server, then the workers. Jobs
// still running after shutdownTimeout are abandoned; their encoder
// processes are not killed.
func (d *daemon) shutdown() {
	if d.watch != nil {
		startup.LogShutdownStep("Stopping watcher")
		if err := d.watch.Close(); err != nil {
			logging.Warn("Watcher close error: %v", err)
		}
		startup.LogShutdownStepComplete("Watcher stopped")
	}

	if d.ops != nil {
		startup.LogShutdownStep("Shutting down ops server")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := d.ops.Shutdown(ctx); err != nil {
			logging.Warn("Server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Ops server stopped")
		}
		cancel()
	}

	if d.pipe != nil {
		startup.LogShutdownStep("Stopping workers")
		d.pipe.queue.Close()
		d.cancel()

		done := make(chan struct{})
		go func() {
			d.pipe.pool.Wait()
			close(done)
		}()
		select {
		case <-done:
			startup.LogShutdownStepComplete("Workers stopped")
		case <-time.After(shutdownTimeout):
			logging.Warn("  %d jobs still running after %v; exiting without them", d.pipe.pool.Status().Busy, shutdownTimeout)
		}

		if queued := d.pipe.queue.Len(); queued > 0 {
			logging.Info("  %d queued jobs dropped; the next scan will pick them up", queued)
		}
	}

	if d.collect != nil {
		d.collect.Stop()
	}

	startup.LogShutdownComplete()
}
