package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mediakit/convert/pkg/models"
)

// Repository provides database operations
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// Jobs

// CreateJob creates a new conversion job record
func (r *Repository) CreateJob(ctx context.Context, job *models.ConversionJob) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}

	query := `
		INSERT INTO jobs (id, source_key, output_name, status, priority, progress, retry_count, config)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		job.ID, job.SourceKey, job.OutputName, job.Status, job.Priority,
		job.Progress, job.RetryCount, job.Config,
	).Scan(&job.CreatedAt, &job.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	return nil
}

// GetJob retrieves a job by ID
func (r *Repository) GetJob(ctx context.Context, id string) (*models.ConversionJob, error) {
	var job models.ConversionJob

	query := `
		SELECT id, source_key, output_name, status, priority, progress, error_msg,
		       retry_count, worker_id, started_at, completed_at, created_at, updated_at, config
		FROM jobs
		WHERE id = $1
	`

	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&job.ID, &job.SourceKey, &job.OutputName, &job.Status, &job.Priority,
		&job.Progress, &job.ErrorMsg, &job.RetryCount, &job.WorkerID,
		&job.StartedAt, &job.CompletedAt, &job.CreatedAt, &job.UpdatedAt, &job.Config,
	)

	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("job not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return &job, nil
}

// UpdateJob updates a job record
func (r *Repository) UpdateJob(ctx context.Context, job *models.ConversionJob) error {
	query := `
		UPDATE jobs
		SET status = $2, priority = $3, progress = $4, error_msg = $5,
		    retry_count = $6, worker_id = $7, started_at = $8, completed_at = $9,
		    config = $10, updated_at = now()
		WHERE id = $1
	`

	_, err := r.db.Pool.Exec(ctx, query,
		job.ID, job.Status, job.Priority, job.Progress, job.ErrorMsg,
		job.RetryCount, job.WorkerID, job.StartedAt, job.CompletedAt, job.Config,
	)

	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}

	return nil
}

// ListJobs retrieves jobs with pagination, newest first
func (r *Repository) ListJobs(ctx context.Context, limit, offset int) ([]*models.ConversionJob, error) {
	query := `
		SELECT id, source_key, output_name, status, priority, progress, error_msg,
		       retry_count, worker_id, started_at, completed_at, created_at, updated_at, config
		FROM jobs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.ConversionJob
	for rows.Next() {
		var job models.ConversionJob
		err := rows.Scan(
			&job.ID, &job.SourceKey, &job.OutputName, &job.Status, &job.Priority,
			&job.Progress, &job.ErrorMsg, &job.RetryCount, &job.WorkerID,
			&job.StartedAt, &job.CompletedAt, &job.CreatedAt, &job.UpdatedAt, &job.Config,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, &job)
	}

	return jobs, nil
}

// Conversions

// CreateConversion stores the result of a finished conversion
func (r *Repository) CreateConversion(ctx context.Context, conv *models.Conversion) error {
	if conv.ID == "" {
		conv.ID = uuid.New().String()
	}

	query := `
		INSERT INTO conversions (id, job_id, source_key, converted_key, converted, size, metadata, snapshots)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		conv.ID, conv.JobID, conv.SourceKey, conv.ConvertedKey, conv.Converted,
		conv.Size, conv.Metadata, conv.Snapshots,
	).Scan(&conv.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create conversion: %w", err)
	}

	return nil
}

// GetConversionByJob retrieves the conversion produced by a job
func (r *Repository) GetConversionByJob(ctx context.Context, jobID string) (*models.Conversion, error) {
	var conv models.Conversion

	query := `
		SELECT id, job_id, source_key, converted_key, converted, size, metadata, snapshots, created_at
		FROM conversions
		WHERE job_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	err := r.db.Pool.QueryRow(ctx, query, jobID).Scan(
		&conv.ID, &conv.JobID, &conv.SourceKey, &conv.ConvertedKey, &conv.Converted,
		&conv.Size, &conv.Metadata, &conv.Snapshots, &conv.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("conversion not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversion: %w", err)
	}

	return &conv, nil
}

// Webhooks

// CreateWebhook registers a new webhook
func (r *Repository) CreateWebhook(ctx context.Context, hook *models.Webhook) error {
	if hook.ID == "" {
		hook.ID = uuid.New().String()
	}

	query := `
		INSERT INTO webhooks (id, url, events, secret, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		hook.ID, hook.URL, hook.Events, hook.Secret, hook.IsActive,
	).Scan(&hook.CreatedAt, &hook.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create webhook: %w", err)
	}

	return nil
}

// GetWebhooksByEvent retrieves active webhooks subscribed to an event
func (r *Repository) GetWebhooksByEvent(ctx context.Context, event string) ([]*models.Webhook, error) {
	query := `
		SELECT id, url, events, secret, is_active, created_at, updated_at
		FROM webhooks
		WHERE is_active = true
	`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get webhooks: %w", err)
	}
	defer rows.Close()

	var hooks []*models.Webhook
	for rows.Next() {
		var hook models.Webhook
		err := rows.Scan(
			&hook.ID, &hook.URL, &hook.Events, &hook.Secret,
			&hook.IsActive, &hook.CreatedAt, &hook.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan webhook: %w", err)
		}
		if subscribed(hook.Events, event) {
			hooks = append(hooks, &hook)
		}
	}

	return hooks, nil
}

func subscribed(events models.WebhookEvents, event string) bool {
	switch event {
	case models.WebhookEventJobStarted:
		return events.JobStarted
	case models.WebhookEventJobCompleted:
		return events.JobCompleted
	case models.WebhookEventJobFailed:
		return events.JobFailed
	case models.WebhookEventJobProgress:
		return events.JobProgress
	}
	return false
}

// CreateDelivery records a webhook delivery attempt
func (r *Repository) CreateDelivery(ctx context.Context, delivery *models.WebhookDelivery) error {
	if delivery.ID == "" {
		delivery.ID = uuid.New().String()
	}

	query := `
		INSERT INTO webhook_deliveries (id, webhook_id, event, payload, status, status_code, retry_count, next_retry_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		delivery.ID, delivery.WebhookID, delivery.Event, delivery.Payload,
		delivery.Status, delivery.StatusCode, delivery.RetryCount, delivery.NextRetryAt,
	).Scan(&delivery.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create delivery: %w", err)
	}

	return nil
}

// GetPendingDeliveries retrieves deliveries awaiting retry
func (r *Repository) GetPendingDeliveries(ctx context.Context, limit int) ([]*models.WebhookDelivery, error) {
	query := `
		SELECT id, webhook_id, event, payload, status, status_code, response_body,
		       retry_count, next_retry_at, created_at, completed_at
		FROM webhook_deliveries
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
	`

	rows, err := r.db.Pool.Query(ctx, query, models.WebhookDeliveryStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending deliveries: %w", err)
	}
	defer rows.Close()

	var deliveries []*models.WebhookDelivery
	for rows.Next() {
		var d models.WebhookDelivery
		err := rows.Scan(
			&d.ID, &d.WebhookID, &d.Event, &d.Payload, &d.Status, &d.StatusCode,
			&d.ResponseBody, &d.RetryCount, &d.NextRetryAt, &d.CreatedAt, &d.CompletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan delivery: %w", err)
		}
		deliveries = append(deliveries, &d)
	}

	return deliveries, nil
}

// UpdateDelivery updates a webhook delivery record
func (r *Repository) UpdateDelivery(ctx context.Context, delivery *models.WebhookDelivery) error {
	query := `
		UPDATE webhook_deliveries
		SET status = $2, status_code = $3, response_body = $4, retry_count = $5,
		    next_retry_at = $6, completed_at = $7
		WHERE id = $1
	`

	_, err := r.db.Pool.Exec(ctx, query,
		delivery.ID, delivery.Status, delivery.StatusCode, delivery.ResponseBody,
		delivery.RetryCount, delivery.NextRetryAt, delivery.CompletedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to update delivery: %w", err)
	}

	return nil
}
