package transcoder

import (
	"bufio"
	"bytes"
	"os/exec"
	"strings"

	"xpoz/internal/logging"
	"xpoz/internal/metrics"
)

// hdrMarker appears in ffprobe's color_space output for BT.2020 sources.
const hdrMarker = "bt2020"

// Classifier picks the encoder parameter set for a source by probing its
// video stream's color space.
type Classifier struct {
	probeBin string
}

// NewClassifier creates a classifier that runs probeBin (ffprobe).
func NewClassifier(probeBin string) *Classifier {
	return &Classifier{probeBin: probeBin}
}

// Classify returns ModeHDR if any line of the probe output mentions
// bt2020 and ModeSDR otherwise. A probe that cannot be started or exits
// non-zero yields ModeSDR.
func (c *Classifier) Classify(path string) Mode {
	cmd := exec.Command(c.probeBin,
		"-show_entries", "stream=color_space",
		"-select_streams", "v",
		"-loglevel", "panic",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		logging.Debug("ffprobe failed for %s, assuming SDR: %v %s", path, err, strings.TrimSpace(stderr.String()))
		metrics.TranscoderClassificationsTotal.WithLabelValues(ModeSDR.String(), "error").Inc()
		return ModeSDR
	}

	mode := parseColorSpace(&stdout)
	metrics.TranscoderClassificationsTotal.WithLabelValues(mode.String(), "ok").Inc()
	return mode
}

func parseColorSpace(out *bytes.Buffer) Mode {
	scanner := bufio.NewScanner(out)
	for scanner.Scan() {
		if strings.Contains(scanner.Text(), hdrMarker) {
			return ModeHDR
		}
	}
	return ModeSDR
}
