package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mediakit/convert/internal/cache"
	"github.com/mediakit/convert/internal/config"
	"github.com/mediakit/convert/internal/database"
	"github.com/mediakit/convert/internal/logging"
	"github.com/mediakit/convert/internal/queue"
	"github.com/mediakit/convert/internal/storage"
	"github.com/mediakit/convert/internal/tracing"
	"github.com/mediakit/convert/internal/webhook"
	"github.com/mediakit/convert/internal/worker"
	"github.com/mediakit/convert/pkg/models"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logging.NewDefaultLogger().Fatalf("Failed to load config: %v", err)
	}

	log := logging.NewDefaultLogger()

	if cfg.Tracing.Enabled {
		_, closer, err := tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.JaegerEndpoint)
		if err != nil {
			log.Fatalf("Failed to initialize tracer: %v", err)
		}
		defer closer.Close()
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	repo := database.NewRepository(db)

	stor, err := storage.New(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	q, err := queue.New(cfg.Queue)
	if err != nil {
		log.Fatalf("Failed to connect to queue: %v", err)
	}
	defer q.Close()

	jobCache, err := cache.NewCache(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.ErrorWithErr("cache unavailable, progress will only hit the database", err)
		jobCache = nil
	} else {
		defer jobCache.Close()
	}

	hooks := webhook.NewService(repo, cfg.Webhook, log)

	svc := worker.NewService(cfg.Converter, stor, repo, jobCache, hooks, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go hooks.RetryWorker(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("Shutting down worker gracefully...")
		cancel()
	}()

	jobHandler := func(job *models.ConversionJob) error {
		jobLog := log.WithJobID(job.ID)
		jobLog.Info("processing job")

		if err := svc.ProcessJob(ctx, job); err != nil {
			jobLog.ErrorWithErr("job failed", err)
			return err
		}

		jobLog.Info("job done")
		return nil
	}

	log.WithWorkerID(svc.WorkerID()).Info("Worker started, waiting for jobs...")
	if err := q.ConsumeJobs(ctx, jobHandler); err != nil {
		log.Fatalf("Failed to consume jobs: %v", err)
	}

	<-ctx.Done()
	log.Info("Worker stopped")
}
