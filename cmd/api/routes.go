package main

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fraatlas/backend/pkg/api/handlers"
	custommw "github.com/fraatlas/backend/pkg/api/middleware"
	"github.com/fraatlas/backend/pkg/auth"
	custommiddleware "github.com/fraatlas/backend/pkg/middleware"
)

// server holds the handlers mounted by registerRoutes
type server struct {
	jwtSecret  string
	blacklist  *auth.TokenBlacklist
	gatherer   prometheus.Gatherer
	health     *handlers.HealthHandler
	auth       *handlers.AuthHandler
	schemes    *handlers.SchemeHandler
	recs       *handlers.RecommendationHandler
	export     *handlers.ExportHandler
	localities *handlers.LocalityHandler
	jobs       *handlers.JobsHandler // nil when scheduling is disabled
}

func registerRoutes(e *echo.Echo, s *server) {
	// Health check and metrics (public)
	e.GET("/health", s.health.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))

	// API v1 routes group with versioning middleware
	v1 := e.Group("/api/v1")
	v1.Use(custommiddleware.APIVersionMiddleware(custommiddleware.CurrentAPIVersion))

	v1.GET("/version", func(c echo.Context) error {
		return c.JSON(http.StatusOK, custommiddleware.VersionInfo(custommiddleware.CurrentAPIVersion))
	})

	// Public scheme catalog
	schemesGroup := v1.Group("/schemes")
	{
		schemesGroup.GET("", s.schemes.List)
		schemesGroup.GET("/:id", s.schemes.Get)
	}

	jwt := custommw.JWTMiddlewareWithBlacklist(s.jwtSecret, s.blacklist)

	// Logout endpoint (revoke token)
	v1.POST("/auth/logout", s.auth.Logout, jwt)

	// Claim recommendations (owner or district admin)
	claimsGroup := v1.Group("/claims", jwt)
	{
		claimsGroup.POST("/:id/recommendations", s.recs.Generate)
		claimsGroup.GET("/:id/recommendations", s.recs.GetLatest)
	}
	v1.POST("/dss/recommendations", s.recs.Generate, jwt)

	// Admin routes
	adminGroup := v1.Group("/admin", jwt, custommiddleware.RequireAdmin())
	{
		adminGroup.POST("/recommendations/bulk", s.recs.Bulk)
		adminGroup.GET("/recommendations/export", s.export.Export)
		adminGroup.GET("/localities", s.localities.List)

		if s.jobs != nil {
			jobsGroup := adminGroup.Group("/jobs")
			{
				jobsGroup.GET("/backlog", s.jobs.Backlog)
				jobsGroup.GET("/stats", s.jobs.Stats, custommiddleware.RequireRole(auth.RoleStateAdmin, auth.RoleSuperAdmin))
				jobsGroup.POST("/trigger-bulk", s.jobs.TriggerBulk, custommiddleware.RequireSuperAdmin())
			}
		}
	}
}
