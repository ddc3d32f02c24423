package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "convert_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "convert_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Job Metrics
	JobsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "convert_jobs_created_total",
			Help: "Total number of conversion jobs created",
		},
		[]string{"preset"},
	)

	JobsCompletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "convert_jobs_completed_total",
			Help: "Total number of completed conversion jobs",
		},
		[]string{"status"},
	)

	JobsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "convert_jobs_in_progress",
			Help: "Number of jobs currently being processed",
		},
	)

	JobsQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "convert_jobs_queue_depth",
			Help: "Number of jobs waiting in queue",
		},
	)

	// Pipeline Metrics
	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "convert_pipeline_stage_duration_seconds",
			Help:    "Duration of each pipeline stage in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 14), // 100ms to ~27min
		},
		[]string{"stage"},
	)

	ProgressEventsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "convert_progress_events_total",
			Help: "Total number of encode progress events observed",
		},
	)

	SnapshotsCapturedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "convert_snapshots_captured_total",
			Help: "Total number of snapshots captured successfully",
		},
	)

	SnapshotFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "convert_snapshot_failures_total",
			Help: "Total number of snapshot offsets that produced no usable file",
		},
	)

	// Storage Metrics
	StorageOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "convert_storage_operations_total",
			Help: "Total number of storage operations",
		},
		[]string{"operation", "status"},
	)

	StorageBytesTransferred = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "convert_storage_bytes_transferred_total",
			Help: "Total bytes transferred to/from storage",
		},
		[]string{"operation"},
	)

	// Webhook Metrics
	WebhookDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "convert_webhook_deliveries_total",
			Help: "Total number of webhook delivery attempts",
		},
		[]string{"event", "status"},
	)
)

// RecordJobCompleted updates the completion counters for one finished job.
func RecordJobCompleted(status string) {
	JobsCompletedTotal.WithLabelValues(status).Inc()
	JobsInProgress.Dec()
}

// RecordJobStarted marks one job as in flight.
func RecordJobStarted() {
	JobsInProgress.Inc()
}
