package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"xpoz/internal/mediatypes"
	"xpoz/internal/transcoder"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "probe <file>...",
		Short: "Show which encoder argument set each file would use",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}

			classifier := transcoder.NewClassifier(cfg.FFmpeg.Probe)
			rows := make([][]string, 0, len(args))
			for _, path := range args {
				rows = append(rows, probeRow(classifier, path))
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"File", "Key", "Type", "Mode", "Output"}, rows, nil))
			return nil
		},
	}
}

func probeRow(classifier *transcoder.Classifier, path string) []string {
	key := mediatypes.IdentityKey(path)
	mime := mediatypes.GetMimeType(path)
	if !mediatypes.IsVideo(path) || key == "" {
		return []string{path, key, mime, "-", "not transcoded"}
	}
	return []string{path, key, mime, classifier.Classify(path).String(), mediatypes.OutputName(path)}
}
