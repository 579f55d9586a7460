// Package metrics provides Prometheus metrics for the skillmatch service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace      string
	subsystem      string
	latencyBuckets []float64
	constLabels    map[string]string
	registry       prometheus.Registerer

	// Matching
	matchRequests    *prometheus.CounterVec
	matchLatency     prometheus.Histogram
	searchPoolSize   prometheus.Histogram
	rerankLatency    prometheus.Histogram
	degradedFetches  *prometheus.CounterVec
	finalScore       prometheus.Histogram
	swipesRecorded   *prometheus.CounterVec
	detailRequests   *prometheus.CounterVec
	usersCreated     prometheus.Counter
	enrichPublished  *prometheus.CounterVec
	errorsByCategory *prometheus.CounterVec

	// Enrichment queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Enrichment workers
	workerCount      prometheus.Gauge
	workerLatency    prometheus.Histogram
	workerProcessed  prometheus.Counter
	workerErrorCount prometheus.Counter
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // process-wide registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "skillmatch",
		subsystem:      "matching",
		latencyBuckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		constLabels:    map[string]string{},
		registry:       prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.constLabels}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.matchRequests = auto.NewCounterVec(m.counterOpts("match_requests_total", "Match requests by outcome (ok, empty, error)"), []string{"outcome"})
	m.matchLatency = auto.NewHistogram(m.histogramOpts("match_latency_milliseconds", "End-to-end match latency in milliseconds", m.latencyBuckets))
	m.searchPoolSize = auto.NewHistogram(m.histogramOpts("search_pool_size", "Candidates returned by the mutual-skill search", prometheus.ExponentialBuckets(1, 2, 12)))
	m.rerankLatency = auto.NewHistogram(m.histogramOpts("rerank_latency_milliseconds", "Rerank stage latency in milliseconds", m.latencyBuckets))
	m.degradedFetches = auto.NewCounterVec(m.counterOpts("degraded_fetches_total", "Non-essential fetches that fell back to neutral defaults"), []string{"source"})
	m.finalScore = auto.NewHistogram(m.histogramOpts("final_score", "Distribution of reranked final scores", prometheus.LinearBuckets(0.1, 0.1, 10)))
	m.swipesRecorded = auto.NewCounterVec(m.counterOpts("swipes_recorded_total", "Swipes appended to history by status"), []string{"status"})
	m.detailRequests = auto.NewCounterVec(m.counterOpts("candidate_detail_requests_total", "Candidate detail requests by outcome"), []string{"outcome"})
	m.usersCreated = auto.NewCounter(m.counterOpts("users_created_total", "Users onboarded"))
	m.enrichPublished = auto.NewCounterVec(m.counterOpts("enrichment_published_total", "Enrichment requests by publish result (queued, duplicate, rejected)"), []string{"result"})
	m.errorsByCategory = auto.NewCounterVec(m.counterOpts("errors_total", "Errors by component and type"), []string{"component", "type"})

	m.queueSize = auto.NewGauge(m.gaugeOpts("enrichment_queue_size", "Current enrichment queue backlog"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("enrichment_queue_capacity", "Enrichment queue capacity"))
	m.queueUtilization = auto.NewGauge(m.gaugeOpts("enrichment_queue_utilization_ratio", "Enrichment queue backlog / capacity"))
	m.queueEnqueued = auto.NewCounter(m.counterOpts("enrichment_queue_enqueued_total", "Enrichment requests enqueued"))
	m.queueDequeued = auto.NewCounter(m.counterOpts("enrichment_queue_dequeued_total", "Enrichment requests dequeued"))
	m.queueEnqueueErrors = auto.NewCounter(m.counterOpts("enrichment_queue_enqueue_errors_total", "Enrichment enqueue failures"))

	m.workerCount = auto.NewGauge(m.gaugeOpts("enrichment_workers", "Running enrichment workers"))
	m.workerLatency = auto.NewHistogram(m.histogramOpts("enrichment_worker_latency_milliseconds", "Enricher latency in milliseconds", m.latencyBuckets))
	m.workerProcessed = auto.NewCounter(m.counterOpts("enrichment_processed_total", "Enrichment requests handed off successfully"))
	m.workerErrorCount = auto.NewCounter(m.counterOpts("enrichment_errors_total", "Enrichment requests that failed"))
}

// Matching.

// RecordMatchRequest counts a match request by outcome.
func RecordMatchRequest(outcome string) {
	globalManager.matchRequests.WithLabelValues(outcome).Inc()
}

// RecordMatchLatency records end-to-end match latency.
func RecordMatchLatency(latencyMs float64) {
	globalManager.matchLatency.Observe(latencyMs)
}

// RecordSearchPoolSize records the size of a search pool.
func RecordSearchPoolSize(size int) {
	globalManager.searchPoolSize.Observe(float64(size))
}

// RecordRerankLatency records rerank stage latency.
func RecordRerankLatency(latencyMs float64) {
	globalManager.rerankLatency.Observe(latencyMs)
}

// RecordDegradedFetch counts a fetch that fell back to defaults.
func RecordDegradedFetch(source string) {
	globalManager.degradedFetches.WithLabelValues(source).Inc()
}

// RecordFinalScore observes a computed final score.
func RecordFinalScore(score float64) {
	globalManager.finalScore.Observe(score)
}

// RecordSwipe counts a recorded swipe.
func RecordSwipe(status string) {
	globalManager.swipesRecorded.WithLabelValues(status).Inc()
}

// RecordCandidateDetailRequest counts a candidate detail request by outcome.
func RecordCandidateDetailRequest(outcome string) {
	globalManager.detailRequests.WithLabelValues(outcome).Inc()
}

// RecordUserCreated counts an onboarded user.
func RecordUserCreated() {
	globalManager.usersCreated.Inc()
}

// RecordEnrichmentPublished counts an enrichment publish attempt by result.
func RecordEnrichmentPublished(result string) {
	globalManager.enrichPublished.WithLabelValues(result).Inc()
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByCategory.WithLabelValues(component, errorType).Inc()
}

// Enrichment queue.

// UpdateQueueSize sets the current queue backlog.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets backlog / capacity.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// Enrichment workers.

// UpdateWorkerCount sets the number of running workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerLatency records enricher latency.
func RecordWorkerLatency(latencyMs float64) {
	globalManager.workerLatency.Observe(latencyMs)
}

// RecordWorkerProcessed counts a successful hand-off.
func RecordWorkerProcessed() {
	globalManager.workerProcessed.Inc()
}

// RecordWorkerError counts a failed hand-off.
func RecordWorkerError() {
	globalManager.workerErrorCount.Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
