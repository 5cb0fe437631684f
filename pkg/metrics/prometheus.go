// Package metrics provides Prometheus metrics for the timecard attendance service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus instruments for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Ingest metrics - punches arriving from terminals and imports
	punchesIngested  prometheus.Counter
	punchesDuplicate prometheus.Counter
	punchesMalformed prometheus.Counter

	// Engine metrics - scoring and merge outcomes
	scoringLatency prometheus.Histogram
	pointsAwarded  prometheus.Counter
	recordsCreated prometheus.Counter
	recordsUpdated prometheus.Counter
	recordsSkipped prometheus.Counter
	syncBatches    *prometheus.CounterVec

	// Store metrics
	storeRecordsTotal prometheus.Gauge
	storeUpsertLatency prometheus.Histogram
	storeQueryLatency  prometheus.Histogram
	storeErrors        prometheus.Counter

	// Queue metrics
	queueCapacity      prometheus.Gauge
	queueSize          prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueues      prometheus.Counter
	queueDequeues      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Worker metrics
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// Dedupe metrics
	dedupeTracked prometheus.Gauge

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics by component
	errorsByComponent *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid the default Go collectors.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // singleton registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "timecard",
		subsystem:        "attendance",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

// initializeMetrics creates all Prometheus instruments.
func (m *Manager) initializeMetrics() { //nolint:funlen // flat instrument list
	factory := promauto.With(m.registry)

	m.punchesIngested = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "punches_ingested_total",
		Help: "Total punch events accepted for processing.",
	})
	m.punchesDuplicate = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "punches_duplicate_total",
		Help: "Punch events rejected as terminal re-deliveries.",
	})
	m.punchesMalformed = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "punches_malformed_total",
		Help: "Punch events skipped because of unparseable input.",
	})

	m.scoringLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "scoring_latency_ms",
		Help:    "Latency of scoring one employee-day, in milliseconds.",
		Buckets: m.histogramBuckets,
	})
	m.pointsAwarded = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "points_awarded_total",
		Help: "Sum of points awarded across persisted records.",
	})
	m.recordsCreated = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "records_created_total",
		Help: "Daily records created in storage.",
	})
	m.recordsUpdated = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "records_updated_total",
		Help: "Daily records updated in storage.",
	})
	m.recordsSkipped = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "records_skipped_total",
		Help: "Daily records left untouched by the skip strategy.",
	})
	m.syncBatches = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "sync_batches_total",
		Help: "Sync batches processed, labeled by source and strategy.",
	}, []string{"source", "strategy"})

	m.storeRecordsTotal = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "store_records_total",
		Help: "Daily records currently held by the store.",
	})
	m.storeUpsertLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "store_upsert_latency_ms",
		Help:    "Latency of store upserts, in milliseconds.",
		Buckets: m.histogramBuckets,
	})
	m.storeQueryLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "store_query_latency_ms",
		Help:    "Latency of store reads, in milliseconds.",
		Buckets: m.histogramBuckets,
	})
	m.storeErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "store_errors_total",
		Help: "Storage operations that failed.",
	})

	m.queueCapacity = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_capacity",
		Help: "Configured capacity of the ingest queue.",
	})
	m.queueSize = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_size",
		Help: "Punch events currently queued.",
	})
	m.queueUtilization = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_utilization",
		Help: "Queue fill ratio between 0 and 1.",
	})
	m.queueEnqueues = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_enqueues_total",
		Help: "Punch events enqueued.",
	})
	m.queueDequeues = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_dequeues_total",
		Help: "Punch events dequeued by workers.",
	})
	m.queueEnqueueErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "queue_enqueue_errors_total",
		Help: "Enqueue attempts rejected (closed, full, or cancelled).",
	})

	m.workerCount = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "worker_count",
		Help: "Configured number of sync workers.",
	})
	m.workerActiveCount = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "worker_active_count",
		Help: "Workers currently processing a punch.",
	})
	m.workerProcessingLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "worker_processing_latency_ms",
		Help:    "End-to-end latency of one worker-processed punch, in milliseconds.",
		Buckets: m.histogramBuckets,
	})
	m.workerErrors = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "worker_errors_total",
		Help: "Punches a worker failed to process.",
	})

	m.dedupeTracked = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "dedupe_tracked",
		Help: "Punch identities currently tracked by the deduper.",
	})

	m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "http_requests_total",
		Help: "HTTP requests by endpoint, method, and status code.",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "http_request_duration_ms",
		Help:    "HTTP request duration in milliseconds.",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "errors_by_component_total",
		Help: "Errors by component and type.",
	}, []string{"component", "error_type"})

	m.systemMemoryUsage = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "system_memory_bytes",
		Help: "Heap memory currently allocated.",
	})
	m.systemGoroutineCount = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "system_goroutines",
		Help: "Number of live goroutines.",
	})
	m.systemGCPauseTime = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "system_gc_pause_ms",
		Help:    "Garbage collector pause time in milliseconds.",
		Buckets: m.histogramBuckets,
	})
}

// Ingest metrics.

func RecordPunchIngested() {
	globalManager.punchesIngested.Inc()
}

func RecordPunchDuplicate() {
	globalManager.punchesDuplicate.Inc()
}

func RecordPunchMalformed() {
	globalManager.punchesMalformed.Inc()
}

// Engine metrics.

func RecordScoringLatency(latencyMs float64) {
	globalManager.scoringLatency.Observe(latencyMs)
}

func RecordPointsAwarded(points float64) {
	if points > 0 {
		globalManager.pointsAwarded.Add(points)
	}
}

func RecordRecordCreated() {
	globalManager.recordsCreated.Inc()
}

func RecordRecordUpdated() {
	globalManager.recordsUpdated.Inc()
}

func RecordRecordSkipped() {
	globalManager.recordsSkipped.Inc()
}

func RecordSyncBatch(source, strategy string) {
	globalManager.syncBatches.WithLabelValues(source, strategy).Inc()
}

// Store metrics.

func UpdateStoreRecordsTotal(count int) {
	globalManager.storeRecordsTotal.Set(float64(count))
}

func RecordStoreUpsertLatency(latencyMs float64) {
	globalManager.storeUpsertLatency.Observe(latencyMs)
}

func RecordStoreQueryLatency(latencyMs float64) {
	globalManager.storeQueryLatency.Observe(latencyMs)
}

func RecordStoreError() {
	globalManager.storeErrors.Inc()
}

// Queue metrics.

func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

func RecordQueueEnqueue() {
	globalManager.queueEnqueues.Inc()
}

func RecordQueueDequeue() {
	globalManager.queueDequeues.Inc()
}

func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// Worker metrics.

func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// Dedupe metrics.

func UpdateDedupeTracked(count int64) {
	globalManager.dedupeTracked.Set(float64(count))
}

// HTTP metrics.

func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// Error metrics.

func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// System metrics.

func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the registry backing the global manager, for serving
// /healthz.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
