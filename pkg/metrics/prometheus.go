// Package metrics provides Prometheus metrics for the panotour service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the tour service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Tour model
	panoramas         prometheus.Gauge
	hotspots          prometheus.Gauge
	registryMutations *prometheus.CounterVec

	// Upload pipeline
	uploadsAccepted  prometheus.Counter
	uploadsDuplicate prometheus.Counter
	uploadsFailed    *prometheus.CounterVec
	uploadsReady     prometheus.Counter
	decodeLatency    prometheus.Histogram

	// Placement session
	placementTransitions *prometheus.CounterVec

	// Viewer lifecycle
	viewerCreates  prometheus.Counter
	viewerReleases prometheus.Counter
	viewerDeferred prometheus.Counter
	viewerSkipped  prometheus.Counter
	viewerLive     prometheus.Gauge
	viewerClicks   *prometheus.CounterVec
	compileLatency prometheus.Histogram

	// Decode queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Decode workers
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System
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

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "panotour",
		subsystem:        "tour",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	m.panoramas = m.gauge("panoramas", "Number of panoramas in the registry")
	m.hotspots = m.gauge("hotspots", "Number of hotspot edges across all panoramas")
	m.registryMutations = m.counterVec("registry_mutations_total", "Registry mutations by operation", "op")

	m.uploadsAccepted = m.counter("uploads_accepted_total", "Uploads accepted for decoding")
	m.uploadsDuplicate = m.counter("uploads_duplicate_total", "Uploads rejected as duplicates of an earlier upload")
	m.uploadsFailed = m.counterVec("uploads_failed_total", "Uploads that did not produce a panorama", "reason")
	m.uploadsReady = m.counter("uploads_ready_total", "Uploads decoded and added as panoramas")
	m.decodeLatency = m.histogram("decode_latency_milliseconds", "Time from upload acceptance to panorama availability", m.histogramBuckets)

	m.placementTransitions = m.counterVec("placement_transitions_total", "Hotspot placement session transitions", "transition")

	m.viewerCreates = m.counter("viewer_creates_total", "Renderer instances created")
	m.viewerReleases = m.counter("viewer_releases_total", "Renderer instances released")
	m.viewerDeferred = m.counter("viewer_deferred_total", "Viewer syncs deferred because the renderer was unavailable")
	m.viewerSkipped = m.counter("viewer_skipped_total", "Viewer syncs skipped because nothing changed")
	m.viewerLive = m.gauge("viewer_live", "1 when a renderer instance is live")
	m.viewerClicks = m.counterVec("viewer_clicks_total", "Renderer click events by outcome", "outcome")
	m.compileLatency = m.histogram("compile_latency_milliseconds", "Scene graph compile latency in milliseconds",
		[]float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 50})

	m.queueSize = m.gauge("queue_size", "Current number of queued decode jobs")
	m.queueCapacity = m.gauge("queue_capacity", "Capacity of the decode queue")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Decode jobs enqueued")
	m.queueDequeued = m.counter("queue_dequeued_total", "Decode jobs dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Decode jobs rejected by the queue")

	m.workerCount = m.gauge("worker_count", "Number of decode workers")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Decode job processing latency in milliseconds", m.histogramBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Decode jobs that failed")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by HTTP endpoint", "endpoint", "method", "error_type")
	m.errorLatency = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "error_latency_milliseconds",
		Help:      "Latency of failed operations in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"component", "error_type"})

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// UpdatePanoramaCount sets the panorama gauge.
func UpdatePanoramaCount(n int) { globalManager.panoramas.Set(float64(n)) }

// UpdateHotspotCount sets the hotspot gauge.
func UpdateHotspotCount(n int) { globalManager.hotspots.Set(float64(n)) }

// RecordRegistryMutation counts a successful registry mutation.
func RecordRegistryMutation(op string) { globalManager.registryMutations.WithLabelValues(op).Inc() }

// RecordUploadAccepted counts an upload handed to the decoders.
func RecordUploadAccepted() { globalManager.uploadsAccepted.Inc() }

// RecordUploadDuplicate counts an upload rejected as duplicate.
func RecordUploadDuplicate() { globalManager.uploadsDuplicate.Inc() }

// RecordUploadFailed counts an upload that failed for reason.
func RecordUploadFailed(reason string) { globalManager.uploadsFailed.WithLabelValues(reason).Inc() }

// RecordUploadReady counts a decoded upload and its end-to-end latency.
func RecordUploadReady(latencyMs float64) {
	globalManager.uploadsReady.Inc()
	globalManager.decodeLatency.Observe(latencyMs)
}

// RecordPlacementTransition counts a placement session transition.
func RecordPlacementTransition(transition string) {
	globalManager.placementTransitions.WithLabelValues(transition).Inc()
}

// RecordViewerCreate counts a renderer instance creation.
func RecordViewerCreate() {
	globalManager.viewerCreates.Inc()
	globalManager.viewerLive.Set(1)
}

// RecordViewerRelease counts a renderer instance release.
func RecordViewerRelease() {
	globalManager.viewerReleases.Inc()
	globalManager.viewerLive.Set(0)
}

// RecordViewerDeferred counts a sync skipped because the renderer was unavailable.
func RecordViewerDeferred() { globalManager.viewerDeferred.Inc() }

// RecordViewerSkipped counts a sync skipped because nothing changed.
func RecordViewerSkipped() { globalManager.viewerSkipped.Inc() }

// RecordViewerClick counts a renderer click by outcome.
func RecordViewerClick(outcome string) { globalManager.viewerClicks.WithLabelValues(outcome).Inc() }

// RecordCompileLatency records a scene graph compilation.
func RecordCompileLatency(latencyMs float64) { globalManager.compileLatency.Observe(latencyMs) }

// UpdateQueueSize updates the decode queue size gauge.
func UpdateQueueSize(size int) { globalManager.queueSize.Set(float64(size)) }

// UpdateQueueCapacity updates the decode queue capacity gauge.
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }

// RecordQueueEnqueue counts an enqueued job.
func RecordQueueEnqueue() { globalManager.queueEnqueued.Inc() }

// RecordQueueDequeue counts a dequeued job.
func RecordQueueDequeue() { globalManager.queueDequeued.Inc() }

// RecordQueueEnqueueError counts a job the queue refused.
func RecordQueueEnqueueError() { globalManager.queueEnqueueErrors.Inc() }

// UpdateWorkerCount sets the decode worker gauge.
func UpdateWorkerCount(count int) { globalManager.workerCount.Set(float64(count)) }

// RecordWorkerProcessingLatency records how long a decode job took.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError counts a failed decode job.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent counts an error raised inside component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType counts an error by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint counts an error returned by an HTTP endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of a failed operation.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// UpdateSystemMemoryUsage sets the memory gauge.
func UpdateSystemMemoryUsage(bytes uint64) { globalManager.systemMemoryUsage.Set(float64(bytes)) }

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) { globalManager.systemGoroutineCount.Set(float64(count)) }

// RecordSystemGCPauseTime records an average GC pause.
func RecordSystemGCPauseTime(pauseMs float64) { globalManager.systemGCPauseTime.Observe(pauseMs) }

// GetRegistry returns the custom registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
