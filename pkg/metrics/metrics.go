package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Generation metrics
	GenerationJobsTotal      *prometheus.CounterVec
	GenerationJobDuration    *prometheus.HistogramVec
	GenerationJobsInProgress prometheus.Gauge
	RecordsGenerated         prometheus.Counter
	ArtifactBytes            *prometheus.HistogramVec
	SubmissionsRejected      *prometheus.CounterVec

	// Location directory cache
	DirectoryCacheLookups *prometheus.CounterVec

	// Webhook metrics
	WebhookCalls    *prometheus.CounterVec
	WebhookDuration prometheus.Histogram
}

// New registers on the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		HTTPRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),

		GenerationJobsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "generation_jobs_total",
				Help: "Total number of export generation jobs by terminal status",
			},
			[]string{"status"},
		),

		GenerationJobDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "generation_job_duration_seconds",
				Help:    "Export generation job duration in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
			},
			[]string{"status"},
		),

		GenerationJobsInProgress: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "generation_jobs_in_progress",
				Help: "Number of export generation jobs currently processing",
			},
		),

		RecordsGenerated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "generation_records_total",
				Help: "Total number of records expanded and serialized",
			},
		),

		ArtifactBytes: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "generation_artifact_bytes",
				Help:    "Size of produced artifacts in bytes",
				Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
			},
			[]string{"format"},
		),

		SubmissionsRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "generation_submissions_rejected_total",
				Help: "Total number of rejected generation submissions",
			},
			[]string{"reason"},
		),

		DirectoryCacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "directory_cache_lookups_total",
				Help: "Location directory cache lookups by result",
			},
			[]string{"result"},
		),

		WebhookCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webhook_calls_total",
				Help: "Total number of completion webhook calls",
			},
			[]string{"status"},
		),

		WebhookDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "webhook_duration_seconds",
				Help:    "Completion webhook call duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

// HTTP request metrics
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// Terminal job metrics
func (m *Metrics) RecordGenerationJob(status string, duration time.Duration) {
	m.GenerationJobsTotal.WithLabelValues(status).Inc()
	m.GenerationJobDuration.WithLabelValues(status).Observe(duration.Seconds())
}

func (m *Metrics) RecordRecordsGenerated(count int) {
	m.RecordsGenerated.Add(float64(count))
}

func (m *Metrics) RecordArtifact(format string, size int) {
	m.ArtifactBytes.WithLabelValues(format).Observe(float64(size))
}

func (m *Metrics) RecordSubmissionRejected(reason string) {
	m.SubmissionsRejected.WithLabelValues(reason).Inc()
}

// result is "hit" or "miss"
func (m *Metrics) RecordDirectoryCache(result string) {
	m.DirectoryCacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordWebhookCall(status string, duration time.Duration) {
	m.WebhookCalls.WithLabelValues(status).Inc()
	m.WebhookDuration.Observe(duration.Seconds())
}

// Generation jobs in progress
func (m *Metrics) IncGenerationJobsInProgress() {
	m.GenerationJobsInProgress.Inc()
}

// Generation jobs in progress
func (m *Metrics) DecGenerationJobsInProgress() {
	m.GenerationJobsInProgress.Dec()
}

// HTTP requests in flight counter
func (m *Metrics) IncHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Inc()
}

// HTTP requests in flight counter
func (m *Metrics) DecHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Dec()
}
