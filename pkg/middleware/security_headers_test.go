package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func serveWithHeaders(cfg SecurityHeadersConfig, path string, next echo.HandlerFunc) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	return rec, SecurityHeaders(cfg)(next)(e.NewContext(req, rec))
}

func ok(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func TestSecurityHeaders_Defaults(t *testing.T) {
	rec, err := serveWithHeaders(DefaultSecurityHeadersConfig(), "/api/v1/schemes", ok)
	assert.NoError(t, err)

	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "frame-ancestors 'none'")
	assert.Equal(t, "no-referrer", rec.Header().Get("Referrer-Policy"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Empty(t, rec.Header().Get("Cache-Control"), "public catalog stays cacheable")
}

func TestSecurityHeaders_NoStore(t *testing.T) {
	tests := []struct {
		path    string
		noStore bool
	}{
		{"/api/v1/claims/abc/recommendations", true},
		{"/api/v1/dss/recommendations", true},
		{"/api/v1/admin/recommendations/export", true},
		{"/api/v1/schemes/pm-kisan", false},
		{"/health", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec, err := serveWithHeaders(DefaultSecurityHeadersConfig(), tt.path, ok)
			assert.NoError(t, err)
			if tt.noStore {
				assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
			} else {
				assert.Empty(t, rec.Header().Get("Cache-Control"))
			}
		})
	}
}

func TestSecurityHeaders_EmptyConfigUsesDefaultPolicies(t *testing.T) {
	rec, err := serveWithHeaders(SecurityHeadersConfig{ReferrerPolicy: "same-origin"}, "/api/v1/claims/x", ok)
	assert.NoError(t, err)

	assert.Equal(t, "same-origin", rec.Header().Get("Referrer-Policy"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'none'")
	assert.Empty(t, rec.Header().Get("Cache-Control"), "no prefixes configured")
}

func TestSecurityHeaders_HandlerError(t *testing.T) {
	rec, err := serveWithHeaders(DefaultSecurityHeadersConfig(), "/api/v1/admin/localities", func(c echo.Context) error {
		return echo.ErrInternalServerError
	})

	assert.Error(t, err)
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}
