// Package metrics provides Prometheus metrics for the intake service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the intake service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Core Business Metrics - session intake throughput and quality
	sessionsCreated  prometheus.Counter
	sessionsUnscored prometheus.Counter
	scoringLatency   prometheus.Histogram
	scoringFailures  *prometheus.CounterVec

	// Enrichment Metrics - best-effort phase outcomes
	scoreUpdateFailures prometheus.Counter
	cacheAppends        prometheus.Counter
	cacheAppendFailures prometheus.Counter
	cacheEvictions      prometheus.Counter
	cacheExpiries       prometheus.Counter
	cacheUsers          prometheus.Gauge

	// Durable Store Metrics
	storeInsertLatency prometheus.Histogram
	storeQueryLatency  prometheus.Histogram
	storeErrors        *prometheus.CounterVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "intake",
		subsystem:        "sessions",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics. A disabled
// manager still builds its collectors so record calls stay safe; they
// just land on a private registry nothing ever scrapes.
func (m *Manager) initializeMetrics() {
	registry := m.registry
	if !m.enabled {
		registry = prometheus.NewRegistry()
	}
	if m.metricPrefix != "" {
		registry = prometheus.WrapRegistererWithPrefix(m.metricPrefix+"_", registry)
	}
	if len(m.customLabels) > 0 {
		registry = prometheus.WrapRegistererWith(prometheus.Labels(m.customLabels), registry)
	}
	auto := promauto.With(registry)

	m.sessionsCreated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "created_total",
		Help:      "Total number of onboarding sessions durably created",
	})

	m.sessionsUnscored = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "created_unscored_total",
		Help:      "Total number of sessions created without a score (engine failure absorbed)",
	})

	m.scoringLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scoring_latency_milliseconds",
		Help:      "Histogram of scoring engine round-trip latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.scoringFailures = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "scoring_failures_total",
			Help:      "Total number of scoring failures by kind (unreachable, unauthorized, engine_error)",
		},
		[]string{"kind"},
	)

	m.scoreUpdateFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "score_update_failures_total",
		Help:      "Total number of best-effort score persistence failures",
	})

	m.cacheAppends = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recency_appends_total",
		Help:      "Total number of summaries appended to the recency cache",
	})

	m.cacheAppendFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recency_append_failures_total",
		Help:      "Total number of best-effort recency cache append failures",
	})

	m.cacheEvictions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recency_evictions_total",
		Help:      "Total number of summaries evicted by the per-user bound",
	})

	m.cacheExpiries = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recency_expiries_total",
		Help:      "Total number of per-user lists removed after TTL expiry",
	})

	m.cacheUsers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "recency_users",
		Help:      "Current number of users with a live recency list",
	})

	m.storeInsertLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_insert_latency_milliseconds",
		Help:      "Durable store insert latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.storeQueryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_query_latency_milliseconds",
		Help:      "Durable store read latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.storeErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "store_errors_total",
			Help:      "Total number of durable store errors by operation",
		},
		[]string{"operation"},
	)

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "System memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})
}

// RecordSessionCreated increments the created sessions counter.
func RecordSessionCreated() {
	globalManager.sessionsCreated.Inc()
}

// RecordSessionUnscored increments the counter for sessions accepted without a score.
func RecordSessionUnscored() {
	globalManager.sessionsUnscored.Inc()
}

// RecordScoringLatency records scoring round-trip latency in milliseconds.
func RecordScoringLatency(latencyMs float64) {
	globalManager.scoringLatency.Observe(latencyMs)
}

// RecordScoringFailure increments the scoring failures counter for a kind.
func RecordScoringFailure(kind string) {
	globalManager.scoringFailures.WithLabelValues(kind).Inc()
}

// RecordScoreUpdateFailure increments the score persistence failure counter.
func RecordScoreUpdateFailure() {
	globalManager.scoreUpdateFailures.Inc()
}

// RecordCacheAppend increments the recency cache append counter.
func RecordCacheAppend() {
	globalManager.cacheAppends.Inc()
}

// RecordCacheAppendFailure increments the recency cache append failure counter.
func RecordCacheAppendFailure() {
	globalManager.cacheAppendFailures.Inc()
}

// RecordCacheEviction increments the recency cache eviction counter.
func RecordCacheEviction() {
	globalManager.cacheEvictions.Inc()
}

// RecordCacheExpiry increments the recency cache expiry counter.
func RecordCacheExpiry() {
	globalManager.cacheExpiries.Inc()
}

// UpdateCacheUsers sets the number of users with a live recency list.
func UpdateCacheUsers(count int) {
	globalManager.cacheUsers.Set(float64(count))
}

// RecordStoreInsertLatency records durable insert latency in milliseconds.
func RecordStoreInsertLatency(latencyMs float64) {
	globalManager.storeInsertLatency.Observe(latencyMs)
}

// RecordStoreQueryLatency records durable read latency in milliseconds.
func RecordStoreQueryLatency(latencyMs float64) {
	globalManager.storeQueryLatency.Observe(latencyMs)
}

// RecordStoreError increments the store errors counter for an operation.
func RecordStoreError(operation string) {
	globalManager.storeErrors.WithLabelValues(operation).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// UpdateSystemMemoryUsage sets the current memory usage.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the current goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
