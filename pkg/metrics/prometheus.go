// Package metrics provides Prometheus metrics for the padron reconciliation pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus collector used by padron.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Loading
	rowsLoaded   *prometheus.CounterVec
	coercedCells *prometheus.CounterVec
	loadErrors   *prometheus.CounterVec

	// Reconciliation
	duplicateGroups    prometheus.Counter
	duplicateRows      prometheus.Counter
	unmappedDistricts  prometheus.Counter
	foreignSynthesized prometheus.Counter
	foreignAttached    prometheus.Counter
	outlierRows        prometheus.Gauge
	stageLatency       *prometheus.HistogramVec

	// Cache
	cacheHits          *prometheus.CounterVec
	cacheMisses        *prometheus.CounterVec
	cacheEntries       prometheus.Gauge
	cacheInvalidations prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	errorsByComponent *prometheus.CounterVec
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // keeps Go runtime collectors out

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "padron",
		subsystem:        "pipeline",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
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

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.rowsLoaded = auto.NewCounterVec(m.counterOpts("rows_loaded_total",
		"Rows read from source extracts by role"), []string{"role"})
	m.coercedCells = auto.NewCounterVec(m.counterOpts("coerced_cells_total",
		"Numeric cells that could not be parsed and were read as zero"), []string{"role"})
	m.loadErrors = auto.NewCounterVec(m.counterOpts("load_errors_total",
		"Failed loads by role and error kind"), []string{"role", "kind"})

	m.duplicateGroups = auto.NewCounter(m.counterOpts("duplicate_groups_total",
		"Polling-table key groups that held more than one row"))
	m.duplicateRows = auto.NewCounter(m.counterOpts("duplicate_rows_total",
		"Rows removed by merging duplicate polling tables"))
	m.unmappedDistricts = auto.NewCounter(m.counterOpts("unmapped_districts_total",
		"Distinct districts that resolved to the unmapped section"))
	m.foreignSynthesized = auto.NewCounter(m.counterOpts("foreign_rows_synthesized_total",
		"Foreign-only polling tables added to the consolidated table"))
	m.foreignAttached = auto.NewCounter(m.counterOpts("foreign_rows_attached_total",
		"Foreign counts attached to an existing native polling table"))
	m.outlierRows = auto.NewGauge(m.gaugeOpts("outlier_rows",
		"Rows returned by the last outlier detection"))
	m.stageLatency = auto.NewHistogramVec(m.histogramOpts("stage_latency_milliseconds",
		"Pipeline stage latency in milliseconds"), []string{"stage"})

	m.cacheHits = auto.NewCounterVec(m.counterOpts("cache_hits_total",
		"Table cache hits by source"), []string{"source"})
	m.cacheMisses = auto.NewCounterVec(m.counterOpts("cache_misses_total",
		"Table cache misses by source"), []string{"source"})
	m.cacheEntries = auto.NewGauge(m.gaugeOpts("cache_entries",
		"Tables currently held by the cache"))
	m.cacheInvalidations = auto.NewCounter(m.counterOpts("cache_invalidations_total",
		"Explicit cache invalidations"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total",
		"HTTP requests by endpoint, method and status"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds",
		"HTTP request duration in milliseconds"), []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(m.counterOpts("errors_by_component_total",
		"Errors by component and type"), []string{"component", "error_type"})
}

// RecordRowsLoaded adds n rows read for role.
func (m *Manager) RecordRowsLoaded(role string, n int) {
	if m.enabled && n > 0 {
		m.rowsLoaded.WithLabelValues(role).Add(float64(n))
	}
}

// RecordCoercedCells adds n coerced cells for role.
func (m *Manager) RecordCoercedCells(role string, n int) {
	if m.enabled && n > 0 {
		m.coercedCells.WithLabelValues(role).Add(float64(n))
	}
}

// RecordLoadError counts a failed load.
func (m *Manager) RecordLoadError(role, kind string) {
	if m.enabled {
		m.loadErrors.WithLabelValues(role, kind).Inc()
	}
}

// RecordDuplicates counts collapsed groups and the rows they absorbed.
func (m *Manager) RecordDuplicates(groups, rows int) {
	if !m.enabled {
		return
	}
	m.duplicateGroups.Add(float64(groups))
	m.duplicateRows.Add(float64(rows))
}

// RecordUnmapped counts districts resolved to the sentinel section.
func (m *Manager) RecordUnmapped(n int) {
	if m.enabled && n > 0 {
		m.unmappedDistricts.Add(float64(n))
	}
}

// RecordForeignMerge counts synthesized and attached foreign rows.
func (m *Manager) RecordForeignMerge(synthesized, attached int) {
	if !m.enabled {
		return
	}
	m.foreignSynthesized.Add(float64(synthesized))
	m.foreignAttached.Add(float64(attached))
}

// UpdateOutlierRows sets the size of the last outlier result.
func (m *Manager) UpdateOutlierRows(n int) {
	if m.enabled {
		m.outlierRows.Set(float64(n))
	}
}

// RecordStageLatency observes a pipeline stage duration.
func (m *Manager) RecordStageLatency(stage string, ms float64) {
	if m.enabled {
		m.stageLatency.WithLabelValues(stage).Observe(ms)
	}
}

// RecordCacheHit counts a cache hit for source.
func (m *Manager) RecordCacheHit(source string) {
	if m.enabled {
		m.cacheHits.WithLabelValues(source).Inc()
	}
}

// RecordCacheMiss counts a cache miss for source.
func (m *Manager) RecordCacheMiss(source string) {
	if m.enabled {
		m.cacheMisses.WithLabelValues(source).Inc()
	}
}

// UpdateCacheEntries sets the number of cached tables.
func (m *Manager) UpdateCacheEntries(n int) {
	if m.enabled {
		m.cacheEntries.Set(float64(n))
	}
}

// RecordCacheInvalidation counts an explicit invalidation.
func (m *Manager) RecordCacheInvalidation() {
	if m.enabled {
		m.cacheInvalidations.Inc()
	}
}

// RecordHTTPRequest records one served request.
func (m *Manager) RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	if !m.enabled {
		return
	}
	m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordError counts an error attributed to a component.
func (m *Manager) RecordError(component, errorType string) {
	if m.enabled {
		m.errorsByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// Package-level helpers write to the global manager.

func RecordRowsLoaded(role string, n int) { globalManager.RecordRowsLoaded(role, n) }
func RecordCoercedCells(role string, n int) { globalManager.RecordCoercedCells(role, n) }
func RecordLoadError(role, kind string) { globalManager.RecordLoadError(role, kind) }
func RecordDuplicates(groups, rows int) { globalManager.RecordDuplicates(groups, rows) }
func RecordUnmapped(n int) { globalManager.RecordUnmapped(n) }
func RecordForeignMerge(synthesized, attached int) { globalManager.RecordForeignMerge(synthesized, attached) }
func UpdateOutlierRows(n int) { globalManager.UpdateOutlierRows(n) }
func RecordStageLatency(stage string, ms float64) { globalManager.RecordStageLatency(stage, ms) }
func RecordCacheHit(source string) { globalManager.RecordCacheHit(source) }
func RecordCacheMiss(source string) { globalManager.RecordCacheMiss(source) }
func UpdateCacheEntries(n int) { globalManager.UpdateCacheEntries(n) }
func RecordCacheInvalidation() { globalManager.RecordCacheInvalidation() }
func RecordError(component, errorType string) { globalManager.RecordError(component, errorType) }
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.RecordHTTPRequest(endpoint, method, statusCode, durationMs)
}

// GetRegistry returns the registry backing the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
