package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestSize     *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Decision support metrics
	RecommendationsGenerated prometheus.Counter
	GenerationFailures       *prometheus.CounterVec
	BulkClaims               *prometheus.CounterVec
	EngineDuration           prometheus.Histogram
	RecommendationsPerClaim  prometheus.Histogram
	ReportsExported          prometheus.Counter

	// Database metrics
	DBConnections prometheus.Gauge

	// Cache metrics
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec
}

// New creates a new Metrics instance registered on the default registry
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a new Metrics instance registered on reg
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		// HTTP metrics
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 5000, 10000, 50000, 100000, 500000, 1000000},
			},
			[]string{"method", "path"},
		),
		HTTPResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 5000, 10000, 50000, 100000, 500000, 1000000},
			},
			[]string{"method", "path"},
		),

		// Decision support metrics
		RecommendationsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Name: "dss_recommendations_generated_total",
			Help: "Total number of recommendation sets generated and saved",
		}),
		GenerationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dss_generation_failures_total",
				Help: "Total number of failed recommendation generations",
			},
			[]string{"stage"}, // claim, assets, persist
		),
		BulkClaims: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dss_bulk_claims_total",
				Help: "Claims handled by bulk regeneration runs",
			},
			[]string{"outcome"}, // processed, failed
		),
		EngineDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "dss_engine_duration_seconds",
			Help:    "Time spent scoring a single claim",
			Buckets: []float64{0.00001, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}),
		RecommendationsPerClaim: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "dss_recommendations_per_claim",
			Help:    "Number of schemes recommended per claim",
			Buckets: []float64{0, 1, 2, 3, 4, 5, 6, 7, 8},
		}),
		ReportsExported: factory.NewCounter(prometheus.CounterOpts{
			Name: "dss_reports_exported_total",
			Help: "Total number of recommendation reports exported",
		}),

		// Database metrics
		DBConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		}),

		// Cache metrics
		CacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache_type"},
		),
		CacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache_type"},
		),
	}

	return m
}

// Middleware creates an Echo middleware for Prometheus metrics
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			path := c.Path() // Use route pattern, not actual path (e.g., /api/v1/claims/:id/recommendations)

			if req.ContentLength > 0 {
				m.HTTPRequestSize.WithLabelValues(req.Method, path).Observe(float64(req.ContentLength))
			}

			err := next(c)

			status := c.Response().Status
			duration := time.Since(start).Seconds()

			m.HTTPRequestsTotal.WithLabelValues(req.Method, path, strconv.Itoa(status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(req.Method, path, strconv.Itoa(status)).Observe(duration)
			m.HTTPResponseSize.WithLabelValues(req.Method, path).Observe(float64(c.Response().Size))

			return err
		}
	}
}

// RecordGenerated records a saved recommendation set
func (m *Metrics) RecordGenerated(count int, engineTime time.Duration) {
	if m == nil {
		return
	}
	m.RecommendationsGenerated.Inc()
	m.RecommendationsPerClaim.Observe(float64(count))
	m.EngineDuration.Observe(engineTime.Seconds())
}

// RecordGenerationFailure increments the failure counter for a stage
func (m *Metrics) RecordGenerationFailure(stage string) {
	if m == nil {
		return
	}
	m.GenerationFailures.WithLabelValues(stage).Inc()
}

// RecordBulkRun adds the outcome of a bulk run
func (m *Metrics) RecordBulkRun(processed, failed int) {
	if m == nil {
		return
	}
	m.BulkClaims.WithLabelValues("processed").Add(float64(processed))
	m.BulkClaims.WithLabelValues("failed").Add(float64(failed))
}

// RecordReportExported increments exported reports counter
func (m *Metrics) RecordReportExported() {
	if m == nil {
		return
	}
	m.ReportsExported.Inc()
}

// UpdateDBConnections updates active database connections gauge
func (m *Metrics) UpdateDBConnections(count float64) {
	if m == nil {
		return
	}
	m.DBConnections.Set(count)
}

// RecordCacheHit increments cache hits counter
func (m *Metrics) RecordCacheHit(cacheType string) {
	if m == nil {
		return
	}
	m.CacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss increments cache misses counter
func (m *Metrics) RecordCacheMiss(cacheType string) {
	if m == nil {
		return
	}
	m.CacheMisses.WithLabelValues(cacheType).Inc()
}
