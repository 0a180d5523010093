package transcoder

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

// fakeFFmpeg copies its full argument list into the output file, which is
// always the last argument.
const fakeFFmpeg = `#!/bin/sh
for last; do :; done
echo "$@" > "$last"
`

// fakeProbe reports BT.2020 for any file whose name contains "hdr".
const fakeProbe = `#!/bin/sh
for last; do :; done
echo "[STREAM]"
case "$(basename "$last")" in
  *hdr*) echo "color_space=bt2020nc" ;;
  *) echo "color_space=bt709" ;;
esac
echo "[/STREAM]"
`

// writeScript writes an executable shell script into dir.
func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// writeFile creates path (and its parents) with content.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// testOptions returns options with fresh source, publish and scratch
// directories and the fake encoder and probe installed.
func testOptions(t *testing.T) *Options {
	t.Helper()
	root := t.TempDir()
	bin := filepath.Join(root, "bin")

	opts := &Options{
		SourceDir:  filepath.Join(root, "originals"),
		PublishDir: filepath.Join(root, "videos"),
		ScratchDir: filepath.Join(root, "scratch"),
		SDRArgs:    []string{"-sdr-flag"},
		HDRArgs:    []string{"-hdr-flag", "-pix_fmt", "yuv420p10le"},
		Workers:    2,
	}
	for _, dir := range []string{bin, opts.SourceDir, opts.PublishDir, opts.ScratchDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	opts.FFmpegBin = writeScript(t, bin, "ffmpeg", fakeFFmpeg)
	opts.ProbeBin = writeScript(t, bin, "ffprobe", fakeProbe)
	return opts
}

// dirNames lists the entries of dir, sorted.
func dirNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir(%s): %v", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

// drain pops every job currently queued.
func drain(q *Queue) []*Job {
	var jobs []*Job
	for q.Len() > 0 {
		job, err := q.Pop(context.Background())
		if err != nil {
			break
		}
		jobs = append(jobs, job)
	}
	return jobs
}

func baseNames(jobs []*Job) []string {
	names := make([]string, 0, len(jobs))
	for _, j := range jobs {
		names = append(names, filepath.Base(j.SourcePath))
	}
	sort.Strings(names)
	return names
}
