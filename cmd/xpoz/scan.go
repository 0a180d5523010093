package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"xpoz/internal/mediatypes"
	"xpoz/internal/startup"
	"xpoz/internal/transcoder"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Transcode every source video that has not been published, then exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}
			if !cfg.TranscodeVideos {
				return errors.New("transcode_videos is disabled")
			}
			if dryRun {
				printPlan(cmd.OutOrStdout(), cfg.Options())
				return nil
			}
			return scanOnce(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "List what would be transcoded without running the encoder")
	return cmd
}

// printPlan writes the videos a scan would enqueue. Nothing is created or
// locked.
func printPlan(w io.Writer, opts *transcoder.Options) {
	res := transcoder.NewDispatcher(opts, transcoder.NewQueue()).Plan()

	if len(res.Pending) == 0 {
		fmt.Fprintln(w, "Nothing to transcode.")
	} else {
		fmt.Fprintln(w, renderTable(
			[]string{"Source", "Output", "Size", "Modified"},
			planRows(opts, res.Pending),
			[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
		))
	}
	fmt.Fprintln(w, summarizeScan(res))
}

func planRows(opts *transcoder.Options, pending []string) [][]string {
	rows := make([][]string, 0, len(pending))
	for _, path := range pending {
		size, modified := "?", "?"
		if info, err := os.Stat(path); err == nil {
			size = humanize.Bytes(uint64(info.Size()))
			modified = humanize.Time(info.ModTime())
		}
		rel, err := filepath.Rel(opts.SourceDir, path)
		if err != nil {
			rel = path
		}
		rows = append(rows, []string{rel, mediatypes.OutputName(path), size, modified})
	}
	return rows
}

func summarizeScan(res transcoder.ScanResult) string {
	return fmt.Sprintf("%s published, %s source videos, %s to transcode, %s already published, %s errors (%v)",
		humanize.Comma(int64(res.Published)),
		humanize.Comma(int64(res.Candidates)),
		humanize.Comma(int64(res.Enqueued)),
		humanize.Comma(int64(res.Skipped)),
		humanize.Comma(int64(res.Errors)),
		res.Duration.Round(time.Millisecond))
}

// scanOnce runs a single scan and waits for the queue to drain. Interrupting
// it abandons the queued jobs; running encodes finish first.
func scanOnce(parent context.Context, w io.Writer, cfg *startup.Config) error {
	setupMetrics()

	pipe, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	defer pipe.release()
	startup.LogTranscoderInit(cfg)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipe.pool.Start(ctx)
	res := pipe.dispatcher.Scan()
	pipe.queue.Close()
	pipe.pool.Wait()

	st := pipe.pool.Status()
	fmt.Fprintln(w, summarizeScan(res))
	fmt.Fprintln(w, renderTable(
		[]string{"Enqueued", "Published", "Failed", "Panicked", "Not run"},
		[][]string{{
			strconv.Itoa(res.Enqueued),
			strconv.FormatInt(st.Succeeded, 10),
			strconv.FormatInt(st.Failed, 10),
			strconv.FormatInt(st.Panicked, 10),
			strconv.Itoa(st.Queued),
		}},
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight},
	))

	if err := ctx.Err(); err != nil {
		return err
	}
	if failed := st.Failed + st.Panicked; failed > 0 {
		return fmt.Errorf("%d of %d jobs failed", failed, res.Enqueued)
	}
	return nil
}
