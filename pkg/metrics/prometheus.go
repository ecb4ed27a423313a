package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Latency buckets in milliseconds. Oracle calls dominate event latency and
// can run for seconds on busy jets.
var defaultLatencyBuckets = []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000} //nolint:gochecknoglobals // bucket layout

// Microjet multiplicity buckets.
var microjetBuckets = []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 10, 15} //nolint:gochecknoglobals // bucket layout

// Constituent multiplicity buckets.
var constituentBuckets = prometheus.ExponentialBuckets(4, 2, 8) //nolint:gochecknoglobals // bucket layout

// Manager manages all Prometheus metrics for the jet tagging service.
type Manager struct {
	namespace          string
	subsystem          string
	latencyBuckets     []float64
	microjetBuckets    []float64
	constituentBuckets []float64
	constLabels        map[string]string
	registry           prometheus.Registerer

	// Tagging metrics
	eventsProcessed   prometheus.Counter
	eventsFailed      *prometheus.CounterVec
	eventsDuplicate   prometheus.Counter
	eventLatency      prometheus.Histogram
	jetsScored        *prometheus.CounterVec
	oracleLatency     prometheus.Histogram
	microjetCount     prometheus.Histogram
	microjetTruncated prometheus.Counter
	constituentCount  prometheus.Histogram
	resultsStored     prometheus.Gauge
	resultsEvicted    prometheus.Counter
	resultLookups     *prometheus.CounterVec

	// Queue metrics
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter
	queueWaitLatency   prometheus.Histogram

	// Worker metrics
	workerCount             prometheus.Gauge
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorsByComponent *prometheus.CounterVec
	errorsByType      *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager. Without WithPrometheusRegistry the
// metrics are registered on prometheus.DefaultRegisterer.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:          "jettag",
		subsystem:          "tagger",
		latencyBuckets:     defaultLatencyBuckets,
		microjetBuckets:    microjetBuckets,
		constituentBuckets: constituentBuckets,
		constLabels:        map[string]string{},
		registry:           prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	auto := promauto.With(m.registry)

	m.eventsProcessed = auto.NewCounter(m.counterOpts(
		"events_processed_total", "Total number of events whose per-jet outputs were published"))
	m.eventsFailed = auto.NewCounterVec(m.counterOpts(
		"events_failed_total", "Total number of events that produced no output, by reason"),
		[]string{"reason"})
	m.eventsDuplicate = auto.NewCounter(m.counterOpts(
		"events_duplicate_total", "Total number of submitted events whose id was already seen"))
	m.eventLatency = auto.NewHistogram(m.histogramOpts(
		"event_latency_milliseconds", "Time to score every jet of one event", m.latencyBuckets))
	m.jetsScored = auto.NewCounterVec(m.counterOpts(
		"jets_scored_total", "Total number of jets scored, by outcome status"),
		[]string{"status"})
	m.oracleLatency = auto.NewHistogram(m.histogramOpts(
		"oracle_latency_milliseconds", "Latency of single shower deconstruction oracle calls", m.latencyBuckets))
	m.microjetCount = auto.NewHistogram(m.histogramOpts(
		"microjets_per_jet", "Number of microjets handed to the oracle per jet", m.microjetBuckets))
	m.microjetTruncated = auto.NewCounter(m.counterOpts(
		"microjets_truncated_total", "Total number of jets whose microjet list was capped"))
	m.constituentCount = auto.NewHistogram(m.histogramOpts(
		"constituents_per_jet", "Number of particle-flow constituents per jet", m.constituentBuckets))
	m.resultsStored = auto.NewGauge(m.gaugeOpts(
		"results_stored", "Number of event results held in the result store"))
	m.resultsEvicted = auto.NewCounter(m.counterOpts(
		"results_evicted_total", "Total number of event results evicted from the result store"))
	m.resultLookups = auto.NewCounterVec(m.counterOpts(
		"result_lookups_total", "Total number of result store lookups, by outcome"),
		[]string{"outcome"})

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Current number of events waiting in the queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum number of events the queue can hold"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("queue_utilization_ratio", "Queue size divided by capacity"))
	m.queueEnqueued = auto.NewCounter(m.counterOpts("queue_enqueued_total", "Total number of events enqueued"))
	m.queueDequeued = auto.NewCounter(m.counterOpts("queue_dequeued_total", "Total number of events dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts(
		"queue_enqueue_errors_total", "Total number of events rejected by a full or closed queue"))
	m.queueWaitLatency = auto.NewHistogram(m.histogramOpts(
		"queue_wait_milliseconds", "Time events spend in the queue before a worker picks them up", m.latencyBuckets))

	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Number of configured workers"))
	m.workerActiveCount = auto.NewGauge(m.gaugeOpts("worker_active_count", "Number of workers currently processing an event"))
	m.workerProcessingLatency = auto.NewHistogram(m.histogramOpts(
		"worker_processing_latency_milliseconds", "Time a worker spends on one event including publishing", m.latencyBuckets))
	m.workerErrors = auto.NewCounter(m.counterOpts("worker_errors_total", "Total number of events a worker failed to process"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts(
		"http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts(
		"http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.latencyBuckets),
		[]string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(m.counterOpts(
		"errors_by_component_total", "Errors by component and error type"),
		[]string{"component", "error_type"})
	m.errorsByType = auto.NewCounterVec(m.counterOpts(
		"errors_by_type_total", "Errors by error type and severity"),
		[]string{"error_type", "severity"})
	m.errorsByEndpoint = auto.NewCounterVec(m.counterOpts(
		"errors_by_endpoint_total", "Errors by HTTP endpoint"),
		[]string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_bytes", "Heap memory in use"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutines", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts(
		"system_gc_pause_milliseconds", "Most recent garbage collector pause", m.latencyBuckets))
}

// Tagging metrics

// RecordEventProcessed counts an event whose outputs were published.
func RecordEventProcessed() {
	globalManager.eventsProcessed.Inc()
}

// RecordEventFailed counts an event that produced no output.
func RecordEventFailed(reason string) {
	globalManager.eventsFailed.WithLabelValues(reason).Inc()
}

// RecordEventDuplicate counts a resubmitted event id.
func RecordEventDuplicate() {
	globalManager.eventsDuplicate.Inc()
}

// RecordEventLatency records the time spent scoring one event.
func RecordEventLatency(latencyMs float64) {
	globalManager.eventLatency.Observe(latencyMs)
}

// RecordJetScored counts a jet by its outcome status.
func RecordJetScored(status string) {
	globalManager.jetsScored.WithLabelValues(status).Inc()
}

// RecordOracleLatency records one oracle call.
func RecordOracleLatency(latencyMs float64) {
	globalManager.oracleLatency.Observe(latencyMs)
}

// RecordMicrojetCount records the microjet multiplicity of one jet.
func RecordMicrojetCount(count int) {
	globalManager.microjetCount.Observe(float64(count))
}

// RecordMicrojetTruncation counts a jet whose microjet list was capped.
func RecordMicrojetTruncation() {
	globalManager.microjetTruncated.Inc()
}

// RecordConstituentCount records the constituent multiplicity of one jet.
func RecordConstituentCount(count int) {
	globalManager.constituentCount.Observe(float64(count))
}

// UpdateResultsStored sets the number of results held in the store.
func UpdateResultsStored(count int) {
	globalManager.resultsStored.Set(float64(count))
}

// RecordResultEvicted counts a result dropped from the store.
func RecordResultEvicted() {
	globalManager.resultsEvicted.Inc()
}

// RecordResultLookup counts a result lookup, outcome is "hit" or "miss".
func RecordResultLookup(outcome string) {
	globalManager.resultLookups.WithLabelValues(outcome).Inc()
}

// Queue metrics

func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

func RecordQueueWaitLatency(latencyMs float64) {
	globalManager.queueWaitLatency.Observe(latencyMs)
}

// Worker metrics

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

// HTTP metrics

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error metrics

func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

func RecordErrorByType(errorType, severity string) {
	globalManager.errorsByType.WithLabelValues(errorType, severity).Inc()
}

func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System metrics

func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the registry backing the package-level metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
