package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Recorders(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.RecordGenerated(4, time.Millisecond)
	m.RecordGenerated(2, time.Millisecond)
	m.RecordGenerationFailure("persist")
	m.RecordBulkRun(3, 1)
	m.RecordCacheHit("recommendations")
	m.RecordCacheMiss("recommendations")
	m.RecordReportExported()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RecommendationsGenerated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GenerationFailures.WithLabelValues("persist")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.BulkClaims.WithLabelValues("processed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BulkClaims.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHits.WithLabelValues("recommendations")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReportsExported))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordGenerated(1, time.Millisecond)
		m.RecordGenerationFailure("claim")
		m.RecordBulkRun(1, 0)
		m.RecordCacheHit("x")
		m.RecordCacheMiss("x")
		m.UpdateDBConnections(3)
		m.RecordReportExported()
	})
}

func TestMetrics_Middleware(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/api/v1/schemes/:id", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/schemes/mgnrega", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(
		m.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/v1/schemes/:id", "200")))
}
