package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mediakit/convert/internal/cache"
	"github.com/mediakit/convert/internal/config"
	"github.com/mediakit/convert/internal/database"
	"github.com/mediakit/convert/internal/logging"
	"github.com/mediakit/convert/internal/metrics"
	"github.com/mediakit/convert/internal/middleware"
	"github.com/mediakit/convert/internal/queue"
	"github.com/mediakit/convert/internal/storage"
	"github.com/mediakit/convert/internal/tracing"
	"github.com/mediakit/convert/internal/webhook"
)

// API bundles the dependencies shared by all handlers.
type API struct {
	cfg     *config.Config
	db      *database.DB
	repo    *database.Repository
	storage *storage.Storage
	queue   *queue.Queue
	cache   *cache.Cache
	log     *logging.Logger
}

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
		log.ErrorWithErr("cache unavailable, serving from database only", err)
		jobCache = nil
	} else {
		defer jobCache.Close()
	}

	// Webhook retry loop runs alongside the API so stalled deliveries
	// drain even when no worker is up.
	hooks := webhook.NewService(repo, cfg.Webhook, log)
	retryCtx, stopRetries := context.WithCancel(context.Background())
	defer stopRetries()
	go hooks.RetryWorker(retryCtx)

	metricsServer := metrics.NewServer(cfg.Server.MetricsPort)
	go func() {
		if err := metricsServer.Start(); err != nil && err != http.ErrServerClosed {
			log.ErrorWithErr("metrics server stopped", err)
		}
	}()

	api := &API{
		cfg:     cfg,
		db:      db,
		repo:    repo,
		storage: stor,
		queue:   q,
		cache:   jobCache,
		log:     log,
	}

	router := setupRouter(api)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Infof("Starting API server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	metricsServer.Shutdown(ctx)
	log.Info("Server stopped")
}

func setupRouter(api *API) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(api.log))
	router.Use(middleware.Metrics())

	rl := middleware.NewRateLimiter(api.cfg.Server.RateLimitRPS, api.cfg.Server.RateLimitBurst)
	router.Use(middleware.RateLimit(rl))

	router.GET("/healthz", api.healthCheck)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/conversions", api.createConversion)
		v1.GET("/conversions", api.listConversions)
		v1.GET("/conversions/:id", api.getConversion)
		v1.GET("/conversions/:id/result", api.getConversionResult)

		v1.POST("/webhooks", api.createWebhook)
	}

	return router
}

// healthCheck reports database, cache and queue health.
func (api *API) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := api.db.Health(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}
