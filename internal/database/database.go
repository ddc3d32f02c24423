package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mediakit/convert/internal/config"
)

// DB wraps the database connection pool
type DB struct {
	Pool *pgxpool.Pool
}

// New creates a new database connection
func New(cfg config.DatabaseConfig) (*DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=%d pool_min_conns=%d",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
		cfg.MaxConns, cfg.MinConns,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close closes the database connection pool
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// Health checks if the database is healthy
func (db *DB) Health(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// Migrate creates the schema when it does not exist yet.
func (db *DB) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS jobs (
		id           UUID PRIMARY KEY,
		source_key   TEXT NOT NULL,
		output_name  TEXT NOT NULL,
		status       TEXT NOT NULL,
		priority     INT NOT NULL DEFAULT 5,
		progress     INT NOT NULL DEFAULT 0,
		error_msg    TEXT NOT NULL DEFAULT '',
		retry_count  INT NOT NULL DEFAULT 0,
		worker_id    TEXT NOT NULL DEFAULT '',
		started_at   TIMESTAMPTZ,
		completed_at TIMESTAMPTZ,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		config       JSONB NOT NULL DEFAULT '{}'
	);

	CREATE TABLE IF NOT EXISTS conversions (
		id            UUID PRIMARY KEY,
		job_id        UUID NOT NULL REFERENCES jobs(id),
		source_key    TEXT NOT NULL,
		converted_key TEXT NOT NULL,
		converted     BOOLEAN NOT NULL,
		size          BIGINT NOT NULL DEFAULT 0,
		metadata      JSONB NOT NULL DEFAULT '{}',
		snapshots     JSONB NOT NULL DEFAULT '{}',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS webhooks (
		id         UUID PRIMARY KEY,
		url        TEXT NOT NULL,
		events     JSONB NOT NULL DEFAULT '{}',
		secret     TEXT NOT NULL DEFAULT '',
		is_active  BOOLEAN NOT NULL DEFAULT true,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS webhook_deliveries (
		id            UUID PRIMARY KEY,
		webhook_id    UUID NOT NULL REFERENCES webhooks(id),
		event         TEXT NOT NULL,
		payload       TEXT NOT NULL,
		status        TEXT NOT NULL,
		status_code   INT NOT NULL DEFAULT 0,
		response_body TEXT NOT NULL DEFAULT '',
		retry_count   INT NOT NULL DEFAULT 0,
		next_retry_at TIMESTAMPTZ,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		completed_at  TIMESTAMPTZ
	);

	CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
	CREATE INDEX IF NOT EXISTS idx_conversions_job ON conversions(job_id);
	`

	if _, err := db.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
