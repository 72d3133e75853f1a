package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fraatlas/backend/pkg/dss"
)

// Pinger is a dependency with a liveness check
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports dependency health
type HealthHandler struct {
	db    Pinger
	cache Pinger // nil when caching is disabled
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db, cache Pinger) *HealthHandler {
	return &HealthHandler{db: db, cache: cache}
}

// Health checks the database and, when configured, the cache
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	dbStatus := "up"
	if err := h.db.Ping(ctx); err != nil {
		dbStatus = "down"
	}

	cacheStatus := "disabled"
	if h.cache != nil {
		cacheStatus = "up"
		if err := h.cache.Ping(ctx); err != nil {
			cacheStatus = "down"
		}
	}

	status := http.StatusOK
	overall := "healthy"
	if dbStatus == "down" || cacheStatus == "down" {
		status = http.StatusServiceUnavailable
		overall = "unhealthy"
	}

	return c.JSON(status, map[string]interface{}{
		"status":         overall,
		"database":       dbStatus,
		"cache":          cacheStatus,
		"engine_version": dss.EngineVersion,
	})
}
