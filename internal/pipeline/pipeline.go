// Package pipeline sequences one full conversion: probe the source, encode
// it with live progress, capture the snapshot set, and inject container
// metadata into the result.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mediakit/convert/internal/command"
	"github.com/mediakit/convert/internal/logging"
	"github.com/mediakit/convert/internal/metrics"
	"github.com/mediakit/convert/internal/probe"
	"github.com/mediakit/convert/internal/progress"
	"github.com/mediakit/convert/internal/runner"
	"github.com/mediakit/convert/internal/shell"
	"github.com/mediakit/convert/internal/snapshot"
	"github.com/mediakit/convert/internal/tools"
	"github.com/mediakit/convert/internal/tracing"
)

// State names the pipeline stages in order. Failed absorbs an encode that
// did not produce a usable output.
type State string

const (
	StateInit             State = "init"
	StateProbed           State = "probed"
	StateEncoded          State = "encoded"
	StateSnapshotted      State = "snapshotted"
	StateMetadataInjected State = "metadata_injected"
	StateDone             State = "done"
	StateFailed           State = "failed"
)

// Result records the outcome of one conversion. Fields are populated to
// whatever degree each stage succeeded.
type Result struct {
	RunID     string
	Original  string
	Converted string
	Success   bool
	FailedErr error
	Metadata  *probe.Metadata
	Snapshots map[int]string
	State     State
}

// TrackerKind selects the progress variant for the configured encoder
// family.
type TrackerKind int

const (
	// TrackPercent parses mencoder's positional percent marker.
	TrackPercent TrackerKind = iota
	// TrackDuration parses ffmpeg's Duration/time markers.
	TrackDuration
)

// Converter runs the conversion pipeline with one fixed encode
// configuration.
type Converter struct {
	cfg     command.Config
	builder command.Builder
	tracker TrackerKind

	runner    *runner.Runner
	extractor *probe.Extractor
	snapshots *snapshot.Generator

	probeBin    string
	encoderBin  string
	snapshotBin string
	injectorBin string

	snapshotCount int
	onProgress    func(progress.Event)
	log           *logging.Logger
}

// Option configures a Converter.
type Option func(*Converter)

// WithRunner replaces the default process runner.
func WithRunner(r *runner.Runner) Option {
	return func(c *Converter) { c.runner = r }
}

// WithBinaries overrides the external tool names (probe, encoder, snapshot,
// injector). Empty strings keep the defaults.
func WithBinaries(probeBin, encoderBin, snapshotBin, injectorBin string) Option {
	return func(c *Converter) {
		if probeBin != "" {
			c.probeBin = probeBin
		}
		if encoderBin != "" {
			c.encoderBin = encoderBin
		}
		if snapshotBin != "" {
			c.snapshotBin = snapshotBin
		}
		if injectorBin != "" {
			c.injectorBin = injectorBin
		}
	}
}

// WithSnapshotCount overrides the planned snapshot count.
func WithSnapshotCount(count int) Option {
	return func(c *Converter) { c.snapshotCount = count }
}

// WithProgressFunc registers a callback for every encode progress event.
func WithProgressFunc(fn func(progress.Event)) Option {
	return func(c *Converter) { c.onProgress = fn }
}

// WithLogger replaces the default logger.
func WithLogger(log *logging.Logger) Option {
	return func(c *Converter) { c.log = log }
}

// WithTracker selects the progress tracking variant.
func WithTracker(kind TrackerKind) Option {
	return func(c *Converter) { c.tracker = kind }
}

// NewConverter creates a Converter encoding with cfg through the given
// builder. The default tool set is the mencoder family: mplayer probes,
// mencoder encodes, ffmpeg snapshots, yamdi injects metadata.
func NewConverter(cfg command.Config, builder command.Builder, opts ...Option) *Converter {
	c := &Converter{
		cfg:           cfg,
		builder:       builder,
		tracker:       TrackPercent,
		runner:        runner.New(),
		probeBin:      "mplayer",
		encoderBin:    "mencoder",
		snapshotBin:   "ffmpeg",
		injectorBin:   "yamdi",
		snapshotCount: snapshot.DefaultCount,
		log:           logging.NewDefaultLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.extractor = probe.NewExtractor(c.runner, c.probeBin)
	c.snapshots = snapshot.NewGenerator(c.runner, c.snapshotBin)
	return c
}

// Convert runs the full pipeline for one source file. The returned error is
// non-nil only for conditions that prevent the pipeline from producing any
// meaningful result: missing utilities, an unparseable source, or a dead
// context. An encode failure is reported through Result.Success and
// Result.FailedErr instead, with the later stages skipped.
func (c *Converter) Convert(ctx context.Context, input, output string) (*Result, error) {
	result := &Result{
		RunID:     uuid.New().String(),
		Original:  input,
		Snapshots: make(map[int]string),
		State:     StateInit,
	}
	log := c.log.WithRunID(result.RunID)

	if err := tools.Require(ctx, c.probeBin, c.encoderBin, c.snapshotBin, c.injectorBin); err != nil {
		return nil, err
	}

	// Probe first; snapshot planning needs the duration.
	meta, err := c.stageProbe(ctx, input)
	if err != nil {
		return nil, err
	}
	result.Metadata = meta
	result.State = StateProbed
	log.LogStageEvent(result.RunID, string(StateProbed), map[string]interface{}{
		"duration": meta.Duration,
		"width":    meta.Width,
		"height":   meta.Height,
	})

	if err := c.stageEncode(ctx, input, output, log, result.RunID); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		result.State = StateFailed
		result.FailedErr = err
		log.ErrorWithErr("encode failed", err)
		return result, nil
	}
	result.Converted = output
	result.Success = true
	result.State = StateEncoded
	log.LogStageEvent(result.RunID, string(StateEncoded), nil)

	set, err := c.stageSnapshots(ctx, output, meta.Duration, result.RunID)
	if err != nil {
		return result, err
	}
	result.Snapshots = set
	result.State = StateSnapshotted
	log.LogStageEvent(result.RunID, string(StateSnapshotted), map[string]interface{}{
		"captured": len(set),
	})

	if err := c.stageInject(ctx, output); err != nil {
		// the converted file is still intact, carry on without the
		// injected metadata
		log.ErrorWithErr("metadata injection failed", err)
	} else {
		result.State = StateMetadataInjected
		log.LogStageEvent(result.RunID, string(StateMetadataInjected), nil)
	}

	result.State = StateDone
	return result, nil
}

func (c *Converter) stageProbe(ctx context.Context, input string) (*probe.Metadata, error) {
	span, ctx := tracing.StartSpan(ctx, "pipeline.probe")
	defer tracing.FinishSpan(span)
	defer observeStage(StateProbed)()

	meta, err := c.extractor.Probe(ctx, input)
	tracing.LogError(span, err)
	return meta, err
}

func (c *Converter) stageEncode(ctx context.Context, input, output string, log *logging.Logger, runID string) error {
	span, ctx := tracing.StartSpan(ctx, "pipeline.encode")
	defer tracing.FinishSpan(span)
	defer observeStage(StateEncoded)()

	emit := func(e progress.Event) {
		metrics.ProgressEventsTotal.Inc()
		log.LogProgress(runID, e.Old, e.New)
		if c.onProgress != nil {
			c.onProgress(e)
		}
	}

	var handler runner.LineHandler
	switch c.tracker {
	case TrackDuration:
		handler = progress.DurationSink(emit)
	default:
		handler = progress.PercentSink(emit)
	}

	cmd := c.builder.Command(input, output)
	log.Debugf("encode command: %s", cmd)

	if err := c.runner.Run(ctx, cmd, handler); err != nil {
		return err
	}

	// the runner ignores exit codes; judge the encode by its output file
	info, err := os.Stat(output)
	if err != nil {
		return fmt.Errorf("encoder produced no output: %w", err)
	}
	if info.Size() == 0 {
		os.Remove(output)
		return fmt.Errorf("encoder produced an empty output file")
	}
	return nil
}

func (c *Converter) stageSnapshots(ctx context.Context, output string, duration int, runID string) (map[int]string, error) {
	span, ctx := tracing.StartSpan(ctx, "pipeline.snapshots")
	defer tracing.FinishSpan(span)
	defer observeStage(StateSnapshotted)()

	// The plan can name the same offset twice (duration/2 often collides
	// with a step offset); the set holds each offset once, so failures are
	// counted against the distinct offsets.
	planned := make(map[int]struct{})
	for _, sec := range snapshot.Plan(duration, c.snapshotCount) {
		planned[sec] = struct{}{}
	}

	set, err := c.snapshots.Set(ctx, output, duration, c.snapshotCount, runID)
	metrics.SnapshotsCapturedTotal.Add(float64(len(set)))
	if failed := len(planned) - len(set); failed > 0 {
		metrics.SnapshotFailuresTotal.Add(float64(failed))
	}
	return set, err
}

// stageInject runs the metadata injector into a side file and swaps it over
// the converted file only when the side file came out non-empty, so a
// crashed injector cannot destroy the encode result.
func (c *Converter) stageInject(ctx context.Context, converted string) error {
	span, ctx := tracing.StartSpan(ctx, "pipeline.inject")
	defer tracing.FinishSpan(span)
	defer observeStage(StateMetadataInjected)()

	side := converted + ".meta"
	cmd := strings.Join([]string{
		c.injectorBin,
		"-i " + shell.Escape(converted),
		"-o " + shell.Escape(side),
	}, " ")

	if err := c.runner.Run(ctx, cmd, nil); err != nil {
		os.Remove(side)
		return err
	}

	info, err := os.Stat(side)
	if err != nil {
		return fmt.Errorf("injector produced no output: %w", err)
	}
	if info.Size() == 0 {
		os.Remove(side)
		return fmt.Errorf("injector produced an empty file")
	}

	if err := os.Rename(side, converted); err != nil {
		os.Remove(side)
		return fmt.Errorf("failed to swap injected file into place: %w", err)
	}
	return nil
}

func observeStage(stage State) func() {
	start := time.Now()
	return func() {
		metrics.StageDuration.WithLabelValues(string(stage)).Observe(time.Since(start).Seconds())
	}
}
