// Package snapshot plans thumbnail offsets for a converted video and
// captures them one subprocess at a time.
package snapshot

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mediakit/convert/internal/runner"
	"github.com/mediakit/convert/internal/shell"
)

// DefaultCount is the planned number of evenly spaced snapshots per video.
const DefaultCount = 10

// Plan computes the capture offsets for a video of the given duration:
// an ascending run from second 1 to duration-1 in steps of
// floor(duration/count), plus the final second and the midpoint as
// guaranteed extras.
func Plan(duration, count int) []int {
	if duration <= 0 || count <= 0 {
		return nil
	}

	step := duration / count
	if step < 1 {
		step = 1
	}

	var offsets []int
	for sec := 1; sec < duration-1; sec += step {
		offsets = append(offsets, sec)
	}
	offsets = append(offsets, duration, duration/2)
	return offsets
}

// Generator captures single-frame snapshots via ffmpeg.
type Generator struct {
	runner *runner.Runner
	binary string
}

// NewGenerator creates a Generator using the given ffmpeg binary.
func NewGenerator(r *runner.Runner, binary string) *Generator {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Generator{runner: r, binary: binary}
}

// Capture grabs one frame of video at the given offset into output:
//
//	ffmpeg -ss <offset> -i <video> -an -vframes 1 -y -f mjpeg <output>
//
// A zero-size or missing output file counts as a failed capture; the partial
// file is removed and ok is false. Tool failures for a single offset are not
// errors, only unexpected conditions (context cancellation, handler faults)
// are.
func (g *Generator) Capture(ctx context.Context, video, output string, offset int) (bool, error) {
	command := strings.Join([]string{
		g.binary,
		fmt.Sprintf("-ss %d", offset),
		"-i " + shell.Escape(video),
		"-an -vframes 1 -y -f mjpeg",
		shell.Escape(output),
	}, " ")

	if err := g.runner.Run(ctx, command, nil); err != nil {
		os.Remove(output)
		return false, err
	}

	info, err := os.Stat(output)
	if err != nil || info.Size() == 0 {
		os.Remove(output)
		return false, nil
	}
	return true, nil
}

// Filename names the snapshot for a video at a second offset. The run ID
// keeps concurrent conversions sharing an output directory from colliding.
func Filename(video string, offset int, runID string) string {
	if len(runID) > 8 {
		runID = runID[:8]
	}
	return fmt.Sprintf("%s_%d_%s.jpeg", video, offset, runID)
}

// Set runs the full plan for a converted video and returns the offsets that
// produced a usable snapshot, mapped to their file paths. A failed offset is
// skipped, never fatal.
func (g *Generator) Set(ctx context.Context, video string, duration, count int, runID string) (map[int]string, error) {
	set := make(map[int]string)
	for _, offset := range Plan(duration, count) {
		if _, exists := set[offset]; exists {
			continue
		}

		output := Filename(video, offset, runID)
		ok, err := g.Capture(ctx, video, output, offset)
		if err != nil {
			// context gone; what was captured so far stays valid
			return set, err
		}
		if ok {
			set[offset] = output
		}
	}
	return set, nil
}
