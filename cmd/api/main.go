package main

// @title FRA Atlas Decision Support API
// @version 1.0
// @description Welfare scheme recommendations for Forest Rights Act claims.

// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/fraatlas/backend/config"
	"github.com/fraatlas/backend/pkg/api/handlers"
	"github.com/fraatlas/backend/pkg/audit"
	"github.com/fraatlas/backend/pkg/auth"
	"github.com/fraatlas/backend/pkg/cache"
	"github.com/fraatlas/backend/pkg/database"
	"github.com/fraatlas/backend/pkg/domain"
	"github.com/fraatlas/backend/pkg/dss"
	"github.com/fraatlas/backend/pkg/export"
	"github.com/fraatlas/backend/pkg/jobs"
	"github.com/fraatlas/backend/pkg/logger"
	"github.com/fraatlas/backend/pkg/metrics"
	custommiddleware "github.com/fraatlas/backend/pkg/middleware"
	"github.com/fraatlas/backend/pkg/recommendations"
	"github.com/fraatlas/backend/pkg/secrets"
	"github.com/fraatlas/backend/pkg/store"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log.Printf("🔧 Configuration loaded (environment: %s)", cfg.APIEnvironment)

	secretsManager, err := secrets.NewManager(secrets.ConfigFor(cfg))
	if err != nil {
		log.Fatalf("❌ Failed to initialize secrets manager: %v", err)
	}
	secretsCtx, cancelSecrets := context.WithTimeout(context.Background(), 15*time.Second)
	err = secrets.Apply(secretsCtx, secretsManager, cfg)
	cancelSecrets()
	secretsManager.Close()
	if err != nil {
		log.Fatalf("❌ Failed to load secrets: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}

	appLogger := logger.NewWithFormat(cfg.LogLevel, cfg.LogFormat)

	// Initialize Sentry for error tracking
	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.SentryEnvironment,
			Release:          "fraatlas-dss@" + dss.EngineVersion,
			TracesSampleRate: 0.2,
			AttachStacktrace: true,
		})
		if err != nil {
			log.Printf("⚠️  Failed to initialize Sentry: %v", err)
		} else {
			log.Printf("✅ Sentry initialized (environment: %s)", cfg.SentryEnvironment)
			defer sentry.Flush(2 * time.Second)
		}
	} else {
		log.Printf("ℹ️  Sentry disabled (no DSN configured)")
	}

	// Initialize database
	var sslCfg *database.SSLConfig
	if cfg.DBDriver == database.DriverPostgres {
		sslCfg = &database.SSLConfig{
			Mode:         cfg.DBSSLMode,
			CertPath:     cfg.DBSSLCertPath,
			KeyPath:      cfg.DBSSLKeyPath,
			RootCertPath: cfg.DBSSLRootCertPath,
		}
	}
	poolCfg := database.DefaultPoolConfig()
	poolCfg.MaxOpenConns = cfg.DBMaxOpenConns
	poolCfg.MaxIdleConns = cfg.DBMaxIdleConns
	poolCfg.ConnMaxLifetime = cfg.DBConnMaxLifetime

	db, err := database.Open(cfg.DBDriver, cfg.DatabaseURL, poolCfg, sslCfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	err = db.Migrate(migrateCtx)
	cancelMigrate()
	if err != nil {
		log.Fatalf("❌ Failed to migrate database: %v", err)
	}

	// Initialize cache: in-process layer, plus Redis when reachable. Bulk run
	// locks live outside the recommendation cache so their TTL is exact.
	var (
		remote      domain.CacheRepository
		cachePinger handlers.Pinger
		runLocks    jobs.RunLocker = cache.NewMemoryCache(0, time.Minute)
		memoryTTL                  = cfg.RecommendationCacheTTL
	)
	if cfg.CacheEnabled {
		redisClient, err := cache.NewClient(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️  Redis unavailable, using in-process cache only: %v", err)
		} else {
			remote = redisClient
			cachePinger = redisClient
			runLocks = redisClient
			if cfg.CacheMemoryTTL < memoryTTL {
				memoryTTL = cfg.CacheMemoryTTL
			}
			syncCtx, cancelSync := context.WithTimeout(context.Background(), 10*time.Second)
			purged, err := redisClient.SyncEngineVersion(syncCtx, dss.EngineVersion, recommendations.CachePrefix)
			cancelSync()
			if err != nil {
				log.Printf("⚠️  Failed to sync cached recommendations with engine %s: %v", dss.EngineVersion, err)
			} else if purged > 0 {
				log.Printf("🧹 Purged %d cached recommendation sets from an older engine", purged)
			}
		}
	}
	layeredCache := cache.NewLayered(memoryTTL, remote)
	defer layeredCache.Close()

	// Initialize Prometheus metrics
	prometheusMetrics := metrics.New()
	log.Printf("✅ Prometheus metrics initialized")

	stopDBStats := make(chan struct{})
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				prometheusMetrics.UpdateDBConnections(float64(db.Stats().OpenConnections))
			case <-stopDBStats:
				return
			}
		}
	}()

	// Services
	claimStore := store.New(db)
	auditService := audit.NewService(db)

	recService := recommendations.NewService(claimStore, dss.NewEngine(), appLogger).
		WithCache(layeredCache, cfg.RecommendationCacheTTL).
		WithAudit(auditService).
		WithMetrics(prometheusMetrics).
		WithBulkLimit(cfg.BulkDefaultLimit)

	exportService := export.NewService(claimStore, cfg.ExportDir, appLogger).
		WithMetrics(prometheusMetrics)

	// Cron manager for scheduled regeneration
	monitor := jobs.NewCoverageMonitor(claimStore, runLocks, appLogger)
	cronManager := jobs.NewCronManager(recService, monitor, jobs.Schedule{
		Spec:    cfg.BulkSchedule,
		Timeout: cfg.BulkTimeout,
		Limit:   cfg.BulkDefaultLimit,
	}, appLogger)

	var jobsHandler *handlers.JobsHandler
	if cfg.BulkScheduleEnabled {
		if err := cronManager.SetupJobs(); err != nil {
			log.Fatalf("❌ Failed to setup cron jobs: %v", err)
		}
		cronManager.Start()
		log.Printf("✅ Cron jobs started successfully")
		jobsHandler = handlers.NewJobsHandler(cronManager)
	}

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	globalRateLimiter := custommiddleware.NewRateLimiter(cfg.RateLimitRequestsPerMinute, cfg.RateLimitBurst)
	defer globalRateLimiter.Close()

	// Global middleware
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Printf("[%s] %s - Status: %d", c.Request().Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	// Sentry error tracking middleware (if configured)
	if cfg.SentryDSN != "" {
		e.Use(sentryecho.New(sentryecho.Options{
			Repanic: true, // Repanic after capturing to let the Recover middleware handle it
		}))
	}

	e.Use(prometheusMetrics.Middleware())
	e.Use(middleware.CORSWithConfig(custommiddleware.CORSConfig(cfg.CORSAllowedOrigins)))
	e.Use(middleware.Gzip())
	e.Use(custommiddleware.SecurityHeaders(custommiddleware.DefaultSecurityHeadersConfig()))
	e.Use(globalRateLimiter.RateLimitMiddleware())

	tokenBlacklist := auth.NewTokenBlacklist(layeredCache)
	registerRoutes(e, &server{
		jwtSecret:  cfg.JWTSecret,
		blacklist:  tokenBlacklist,
		gatherer:   prometheus.DefaultGatherer,
		health:     handlers.NewHealthHandler(db, cachePinger),
		auth:       handlers.NewAuthHandler(tokenBlacklist),
		schemes:    handlers.NewSchemeHandler(),
		recs:       handlers.NewRecommendationHandler(recService).WithBulkTimeout(cfg.BulkTimeout),
		export:     handlers.NewExportHandler(exportService, auditService),
		localities: handlers.NewLocalityHandler(claimStore),
		jobs:       jobsHandler,
	})

	// Start server
	address := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	log.Printf("🚀 FRA Atlas DSS API starting on %s (engine %s)", address, dss.EngineVersion)
	log.Printf("📝 Log level: %s, Log format: %s", cfg.LogLevel, cfg.LogFormat)
	log.Printf("🌍 CORS: %v", cfg.CORSAllowedOrigins)
	log.Printf("🛡️  Rate limiting: %d req/min (burst: %d)", cfg.RateLimitRequestsPerMinute, cfg.RateLimitBurst)
	if cfg.BulkScheduleEnabled {
		log.Printf("⏰ Cron jobs: bulk regeneration (%s), daily 4AM (coverage stats)", cfg.BulkSchedule)
		log.Printf("📊 Admin endpoints: /api/v1/admin/jobs/* (backlog, stats, trigger-bulk)")
	}

	// Graceful shutdown
	go func() {
		if err := e.Start(address); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	if cfg.BulkScheduleEnabled {
		cronManager.Stop()
		log.Println("✅ Cron jobs stopped")
	}
	close(stopDBStats)

	// Gracefully shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server gracefully stopped")
}
