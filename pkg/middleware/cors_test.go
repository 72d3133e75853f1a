package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/stretchr/testify/assert"
)

var portalOrigins = []string{"http://localhost:3000", "https://fra-atlas.gov.in"}

func newPortalEcho() *echo.Echo {
	e := echo.New()
	e.Use(middleware.CORSWithConfig(CORSConfig(portalOrigins)))
	e.GET("/api/v1/admin/recommendations/export", func(c echo.Context) error {
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="ranchi.xlsx"`)
		return c.NoContent(http.StatusOK)
	})
	return e
}

func corsRequest(e *echo.Echo, method, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/api/v1/admin/recommendations/export", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	if method == http.MethodOptions {
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		req.Header.Set("Access-Control-Request-Headers", "Authorization")
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCORS_Origins(t *testing.T) {
	tests := []struct {
		name    string
		origin  string
		allowed bool
	}{
		{"local portal", "http://localhost:3000", true},
		{"production portal", "https://fra-atlas.gov.in", true},
		{"plain http production", "http://fra-atlas.gov.in", false},
		{"subdomain", "https://api.fra-atlas.gov.in", false},
		{"unknown", "https://evil.example.com", false},
		{"no origin header", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := corsRequest(newPortalEcho(), http.MethodGet, tt.origin)

			assert.Equal(t, http.StatusOK, rec.Code)
			if tt.allowed {
				assert.Equal(t, tt.origin, rec.Header().Get("Access-Control-Allow-Origin"))
				assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
			} else {
				assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}

func TestCORS_ExportDownloadExposesFilename(t *testing.T) {
	rec := corsRequest(newPortalEcho(), http.MethodGet, "https://fra-atlas.gov.in")

	exposed := strings.ToLower(rec.Header().Get("Access-Control-Expose-Headers"))
	assert.Contains(t, exposed, "content-disposition")
	assert.Contains(t, exposed, "x-engine-version")
}

func TestCORS_Preflight(t *testing.T) {
	rec := corsRequest(newPortalEcho(), http.MethodOptions, "https://fra-atlas.gov.in")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))

	methods := rec.Header().Get("Access-Control-Allow-Methods")
	assert.Contains(t, methods, http.MethodPost)
	assert.NotContains(t, methods, http.MethodDelete)
	assert.Contains(t, strings.ToLower(rec.Header().Get("Access-Control-Allow-Headers")), "authorization")
}

func TestCORSConfig_NoWildcard(t *testing.T) {
	cfg := CORSConfig(portalOrigins)
	assert.Equal(t, portalOrigins, cfg.AllowOrigins)
	assert.NotContains(t, cfg.AllowOrigins, "*")
	assert.True(t, cfg.AllowCredentials)
}
