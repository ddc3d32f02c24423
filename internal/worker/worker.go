package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/mediakit/convert/internal/cache"
	"github.com/mediakit/convert/internal/command"
	"github.com/mediakit/convert/internal/config"
	"github.com/mediakit/convert/internal/database"
	"github.com/mediakit/convert/internal/logging"
	"github.com/mediakit/convert/internal/metrics"
	"github.com/mediakit/convert/internal/pipeline"
	"github.com/mediakit/convert/internal/progress"
	"github.com/mediakit/convert/internal/runner"
	"github.com/mediakit/convert/internal/storage"
	"github.com/mediakit/convert/internal/tracing"
	"github.com/mediakit/convert/internal/webhook"
	"github.com/mediakit/convert/pkg/models"
)

const cacheTTL = time.Hour

// Service claims conversion jobs from the queue and drives each one
// through download, conversion and upload.
type Service struct {
	cfg      config.ConverterConfig
	storage  *storage.Storage
	repo     *database.Repository
	cache    *cache.Cache
	webhooks *webhook.Service
	log      *logging.Logger
	workerID string
}

// NewService creates a worker service. The cache and webhook service
// are optional.
func NewService(
	cfg config.ConverterConfig,
	stor *storage.Storage,
	repo *database.Repository,
	jobCache *cache.Cache,
	webhooks *webhook.Service,
	log *logging.Logger,
) *Service {
	workerID := uuid.New().String()
	return &Service{
		cfg:      cfg,
		storage:  stor,
		repo:     repo,
		cache:    jobCache,
		webhooks: webhooks,
		log:      log.WithWorkerID(workerID),
		workerID: workerID,
	}
}

// WorkerID returns this worker's identity as recorded on claimed jobs.
func (s *Service) WorkerID() string {
	return s.workerID
}

// ProcessJob runs one conversion job end to end.
func (s *Service) ProcessJob(ctx context.Context, job *models.ConversionJob) error {
	span, ctx := tracing.StartSpan(ctx, "worker.process_job")
	defer tracing.FinishSpan(span)
	tracing.SetTag(span, "job.id", job.ID)

	log := s.log.WithJobID(job.ID)

	// Claim the job
	job.Status = models.JobStatusProcessing
	job.WorkerID = s.workerID
	now := time.Now()
	job.StartedAt = &now
	job.Progress = 0

	if err := s.repo.UpdateJob(ctx, job); err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	s.cacheJob(ctx, job)

	metrics.RecordJobStarted()
	if s.webhooks != nil {
		s.webhooks.NotifyJobStarted(ctx, job)
	}

	tempDir := filepath.Join(s.cfg.TempDir, job.ID)
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return s.failJob(ctx, job, fmt.Errorf("failed to create temp directory: %w", err))
	}
	defer os.RemoveAll(tempDir)

	// Download the source
	inputPath := filepath.Join(tempDir, "input"+filepath.Ext(job.SourceKey))
	if err := s.storage.DownloadFile(ctx, job.SourceKey, inputPath); err != nil {
		return s.failJob(ctx, job, fmt.Errorf("failed to download source: %w", err))
	}

	outputName := job.OutputName
	if outputName == "" {
		outputName = "output.flv"
	}
	outputPath := filepath.Join(tempDir, outputName)

	encodeCfg, err := buildConfig(job.Config, s.cfg.DefaultPreset)
	if err != nil {
		return s.failJob(ctx, job, err)
	}

	conv := s.newConverter(encodeCfg, job)

	runCtx := ctx
	if s.cfg.EncodeTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.cfg.EncodeTimeout)
		defer cancel()
	}

	result, err := conv.Convert(runCtx, inputPath, outputPath)
	if err != nil {
		return s.failJob(ctx, job, fmt.Errorf("conversion failed: %w", err))
	}
	if !result.Success {
		tracing.LogError(span, result.FailedErr)
		return s.failJob(ctx, job, fmt.Errorf("conversion failed: %w", result.FailedErr))
	}

	outputInfo, err := os.Stat(outputPath)
	if err != nil {
		return s.failJob(ctx, job, fmt.Errorf("failed to stat output file: %w", err))
	}

	// Upload converted output and snapshots
	convertedKey := fmt.Sprintf("converted/%s/%s", job.ID, outputName)
	if err := s.storage.UploadFile(ctx, convertedKey, outputPath); err != nil {
		return s.failJob(ctx, job, fmt.Errorf("failed to upload output: %w", err))
	}

	snapshots := models.SnapshotSet{}
	for sec, path := range result.Snapshots {
		key := fmt.Sprintf("snapshots/%s/%s", job.ID, filepath.Base(path))
		if err := s.storage.UploadFile(ctx, key, path); err != nil {
			log.WithField("snapshot", path).ErrorWithErr("failed to upload snapshot", err)
			continue
		}
		snapshots[sec] = key
	}

	conversion := &models.Conversion{
		JobID:        job.ID,
		SourceKey:    job.SourceKey,
		ConvertedKey: convertedKey,
		Converted:    true,
		Size:         outputInfo.Size(),
		Metadata:     result.Metadata.Map(),
		Snapshots:    snapshots,
	}

	if err := s.repo.CreateConversion(ctx, conversion); err != nil {
		return s.failJob(ctx, job, fmt.Errorf("failed to create conversion record: %w", err))
	}
	if s.cache != nil {
		s.cache.SetConversion(ctx, conversion, cacheTTL)
	}

	// Complete the job
	job.Status = models.JobStatusCompleted
	job.Progress = 100
	completed := time.Now()
	job.CompletedAt = &completed

	if err := s.repo.UpdateJob(ctx, job); err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	s.cacheJob(ctx, job)

	metrics.RecordJobCompleted(models.JobStatusCompleted)
	if s.webhooks != nil {
		s.webhooks.NotifyJobCompleted(ctx, job)
	}

	log.WithField("converted_key", convertedKey).Info("job completed")
	return nil
}

// newConverter assembles the pipeline for one job.
func (s *Service) newConverter(encodeCfg command.Config, job *models.ConversionJob) *pipeline.Converter {
	builder := &command.MencoderBuilder{Binary: s.cfg.MencoderPath, Config: encodeCfg}

	snapshotCount := job.Config.SnapshotCount
	if snapshotCount <= 0 {
		snapshotCount = s.cfg.SnapshotCount
	}

	opts := []pipeline.Option{
		pipeline.WithBinaries(s.cfg.MplayerPath, s.cfg.MencoderPath, s.cfg.FFmpegPath, s.cfg.YamdiPath),
		pipeline.WithSnapshotCount(snapshotCount),
		pipeline.WithLogger(s.log.WithJobID(job.ID)),
		pipeline.WithProgressFunc(func(ev progress.Event) {
			s.recordProgress(job, ev.New)
		}),
	}
	if s.cfg.MissLimit > 0 {
		opts = append(opts, pipeline.WithRunner(runner.New(runner.WithMissLimit(s.cfg.MissLimit))))
	}

	return pipeline.NewConverter(encodeCfg, builder, opts...)
}

// recordProgress persists encode progress so the API can report it.
func (s *Service) recordProgress(job *models.ConversionJob, pct int) {
	ctx := context.Background()
	job.Progress = pct
	if err := s.repo.UpdateJob(ctx, job); err != nil {
		s.log.WithJobID(job.ID).ErrorWithErr("failed to persist progress", err)
	}
	if s.cache != nil {
		s.cache.SetJobProgress(ctx, job.ID, pct, cacheTTL)
	}
	if s.webhooks != nil {
		s.webhooks.NotifyJobProgress(ctx, job)
	}
}

// failJob marks a job as failed and reports why.
func (s *Service) failJob(ctx context.Context, job *models.ConversionJob, jobErr error) error {
	job.Status = models.JobStatusFailed
	job.ErrorMsg = jobErr.Error()
	now := time.Now()
	job.CompletedAt = &now

	if err := s.repo.UpdateJob(ctx, job); err != nil {
		s.log.WithJobID(job.ID).ErrorWithErr("failed to mark job failed", err)
	}
	s.cacheJob(ctx, job)

	metrics.RecordJobCompleted(models.JobStatusFailed)
	if s.webhooks != nil {
		s.webhooks.NotifyJobFailed(ctx, job)
	}

	return jobErr
}

func (s *Service) cacheJob(ctx context.Context, job *models.ConversionJob) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJob(ctx, job, cacheTTL); err != nil {
		s.log.WithJobID(job.ID).ErrorWithErr("failed to cache job", err)
	}
}

// buildConfig resolves a job's conversion settings against a preset.
func buildConfig(jc models.ConvertConfig, defaultPreset string) (command.Config, error) {
	name := jc.Preset
	if name == "" {
		name = defaultPreset
	}

	presetFn, ok := command.Presets[name]
	if !ok {
		return command.Config{}, fmt.Errorf("unknown preset %q", name)
	}

	cfg := presetFn()
	// Dimensions override as a pair: naming only one side requests
	// auto-scaling for the other.
	if jc.Width > 0 || jc.Height > 0 {
		cfg.Width = jc.Width
		cfg.Height = jc.Height
	}
	if jc.SampleRate > 0 {
		cfg.SampleRate = jc.SampleRate
	}
	if jc.OutputFormat != "" {
		cfg.OutputFormat = jc.OutputFormat
	}

	return cfg, nil
}
