// Package metrics provides Prometheus metrics for the champion scoring service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	metricPrefix     string
	registry         *prometheus.Registry

	// Analysis
	analyses        *prometheus.CounterVec
	analysisLatency prometheus.Histogram
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	champions       prometheus.Gauge
	configErrors    prometheus.Counter

	// Ingest
	recordsLoaded       prometheus.Gauge
	rowsSkipped         prometheus.Counter
	dataQualityWarnings *prometheus.CounterVec
	sourceLoadLatency   prometheus.Histogram
	reloads             *prometheus.CounterVec

	// Snapshot
	snapshotPublished prometheus.Counter
	snapshotLastUnix  prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// System
	memoryUsage    prometheus.Gauge
	goroutineCount prometheus.Gauge
	gcPause        prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton recorder

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "champion",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = prometheus.NewRegistry()
	}
	m.initializeMetrics()
	return m
}

// Use replaces the manager behind the package-level recorders.
func Use(m *Manager) error {
	if m == nil {
		return ErrNotInitialized
	}
	globalManager = m
	return nil
}

// Registry returns the registry holding the manager's collectors.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

// Enabled reports whether recorders have an effect.
func (m *Manager) Enabled() bool { return m.enabled }

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: m.name(name), Help: help,
		ConstLabels: m.customLabels, Buckets: m.histogramBuckets,
	}
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.analyses = auto.NewCounterVec(
		m.counterOpts("analyses_total", "Score and aggregate runs by cache outcome"),
		[]string{"cache"},
	)
	m.analysisLatency = auto.NewHistogram(
		m.histogramOpts("analysis_latency_milliseconds", "Latency of score + aggregate in milliseconds"),
	)
	m.cacheHits = auto.NewCounter(m.counterOpts("cache_hits_total", "Analyses served from the memo cache"))
	m.cacheMisses = auto.NewCounter(m.counterOpts("cache_misses_total", "Analyses computed from scratch"))
	m.champions = auto.NewGauge(m.gaugeOpts("champions", "Users ranked on the published leaderboard"))
	m.configErrors = auto.NewCounter(m.counterOpts("configuration_errors_total", "Rejected weight configurations"))

	m.recordsLoaded = auto.NewGauge(m.gaugeOpts("records_loaded", "Activity records in the current dataset"))
	m.rowsSkipped = auto.NewCounter(m.counterOpts("rows_skipped_total", "Source rows dropped for lacking a period"))
	m.dataQualityWarnings = auto.NewCounterVec(
		m.counterOpts("data_quality_warnings_total", "Values replaced by defaults during ingest"),
		[]string{"kind"},
	)
	m.sourceLoadLatency = auto.NewHistogram(
		m.histogramOpts("source_load_latency_milliseconds", "Latency of loading the record source in milliseconds"),
	)
	m.reloads = auto.NewCounterVec(
		m.counterOpts("reloads_total", "Dataset reloads by result"),
		[]string{"result"},
	)

	m.snapshotPublished = auto.NewCounter(m.counterOpts("snapshots_published_total", "Leaderboard snapshots published"))
	m.snapshotLastUnix = auto.NewGauge(m.gaugeOpts("snapshot_last_unix", "Unix time of the last published snapshot"))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "HTTP requests by endpoint, method and status"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Errors by component and type"),
		[]string{"component", "error_type"},
	)
	m.errorsByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Errors by endpoint, method and type"),
		[]string{"endpoint", "method", "error_type"},
	)

	m.memoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_bytes", "Heap bytes allocated"))
	m.goroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutines", "Number of goroutines"))
	m.gcPause = auto.NewHistogram(m.histogramOpts("system_gc_pause_milliseconds", "Average GC pause in milliseconds"))
}

func on() bool { return globalManager != nil && globalManager.enabled }

// RecordAnalysis counts one analysis and its latency; cached reports a memo hit.
func RecordAnalysis(cached bool, latencyMs float64) {
	if !on() {
		return
	}
	outcome := "miss"
	if cached {
		outcome = "hit"
		globalManager.cacheHits.Inc()
	} else {
		globalManager.cacheMisses.Inc()
	}
	globalManager.analyses.WithLabelValues(outcome).Inc()
	globalManager.analysisLatency.Observe(latencyMs)
}

// UpdateChampions sets the number of ranked users.
func UpdateChampions(count int) {
	if on() {
		globalManager.champions.Set(float64(count))
	}
}

// RecordConfigurationError counts a rejected weight configuration.
func RecordConfigurationError() {
	if on() {
		globalManager.configErrors.Inc()
	}
}

// UpdateRecordsLoaded sets the size of the current dataset.
func UpdateRecordsLoaded(count int) {
	if on() {
		globalManager.recordsLoaded.Set(float64(count))
	}
}

// RecordRowSkipped counts a source row that could not be ingested.
func RecordRowSkipped() {
	if on() {
		globalManager.rowsSkipped.Inc()
	}
}

// RecordDataQualityWarning counts one defaulted value of the given kind.
func RecordDataQualityWarning(kind string) {
	if on() {
		globalManager.dataQualityWarnings.WithLabelValues(kind).Inc()
	}
}

// RecordSourceLoadLatency records how long a source load took.
func RecordSourceLoadLatency(latencyMs float64) {
	if on() {
		globalManager.sourceLoadLatency.Observe(latencyMs)
	}
}

// RecordReload counts a dataset reload; ok=false marks a failed one.
func RecordReload(ok bool) {
	if !on() {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	globalManager.reloads.WithLabelValues(result).Inc()
}

// RecordSnapshotPublished counts a published leaderboard snapshot.
func RecordSnapshotPublished(unixSeconds int64) {
	if !on() {
		return
	}
	globalManager.snapshotPublished.Inc()
	globalManager.snapshotLastUnix.Set(float64(unixSeconds))
}

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if on() {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records an HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if on() {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	if on() {
		globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if on() {
		globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
	}
}

// UpdateSystemMemoryUsage sets the allocated heap size.
func UpdateSystemMemoryUsage(bytes uint64) {
	if on() {
		globalManager.memoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(n int) {
	if on() {
		globalManager.goroutineCount.Set(float64(n))
	}
}

// RecordSystemGCPauseTime observes an average GC pause.
func RecordSystemGCPauseTime(ms float64) {
	if on() {
		globalManager.gcPause.Observe(ms)
	}
}

// GetRegistry returns the registry of the installed manager.
func GetRegistry() *prometheus.Registry {
	if globalManager == nil {
		return customRegistry
	}
	return globalManager.registry
}
