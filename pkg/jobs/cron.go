// Package jobs runs scheduled recommendation maintenance.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/fraatlas/backend/pkg/logger"
	"github.com/fraatlas/backend/pkg/models"
)

// lockMargin extends the run lock past the run timeout
const lockMargin = time.Minute

// ErrRunInProgress is returned when another bulk run holds the lock
var ErrRunInProgress = errors.New("bulk generation already in progress")

// BulkRunner regenerates recommendations for pending claims
type BulkRunner interface {
	GenerateBulk(ctx context.Context, req models.BulkRecommendationRequest, actor string) (models.BulkRecommendationResponse, error)
}

// Schedule configures the nightly bulk run
type Schedule struct {
	Spec    string
	Timeout time.Duration
	Limit   int
}

// CronManager manages scheduled jobs
type CronManager struct {
	cron     *cron.Cron
	runner   BulkRunner
	monitor  *CoverageMonitor
	schedule Schedule
	logger   logger.Logger
}

// NewCronManager creates a new cron manager
func NewCronManager(runner BulkRunner, monitor *CoverageMonitor, schedule Schedule, log logger.Logger) *CronManager {
	if log == nil {
		log = logger.Nop()
	}
	if schedule.Timeout <= 0 {
		schedule.Timeout = 30 * time.Minute
	}

	cl := cronLogger{log}
	return &CronManager{
		cron:     cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		runner:   runner,
		monitor:  monitor,
		schedule: schedule,
		logger:   log.With("component", "cron"),
	}
}

// SetupJobs configures all scheduled jobs
func (cm *CronManager) SetupJobs() error {
	cm.logger.Info("Setting up cron jobs...")

	if _, err := cm.cron.AddFunc(cm.schedule.Spec, cm.bulkJob); err != nil {
		return err
	}

	// Daily at 4 AM: log coverage statistics
	_, err := cm.cron.AddFunc("0 4 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		stats, err := cm.monitor.Stats(ctx)
		if err != nil {
			cm.logger.Error("❌ Failed to get coverage stats", "error", err)
			return
		}
		cm.logger.Info("📊 Recommendation coverage",
			"localities", stats["localities"],
			"pending_claims", stats["pending_claims"],
			"covered_claims", stats["covered_claims"],
			"missing_claims", stats["missing_claims"],
		)
	})
	if err != nil {
		return err
	}

	cm.logger.Info("✅ Cron jobs configured successfully",
		"bulk_schedule", cm.schedule.Spec,
		"coverage_schedule", "0 4 * * *",
	)
	return nil
}

func (cm *CronManager) bulkJob() {
	cm.logger.Info("🕐 Running scheduled recommendation regeneration...")

	resp, err := cm.RunBulk(context.Background())
	if errors.Is(err, ErrRunInProgress) {
		cm.logger.Warn("⚠️ Skipping scheduled run, another run is in progress")
		return
	}
	if err != nil {
		cm.logger.Error("❌ Scheduled regeneration failed", "error", err)
		return
	}
	if resp.Interrupted {
		cm.logger.Warn("⚠️ Scheduled regeneration hit its timeout", "processed", resp.Processed, "failed", resp.Failed)
		return
	}
	cm.logger.Info("✅ Scheduled regeneration completed", "processed", resp.Processed, "failed", resp.Failed)
}

// RunBulk performs one bulk run under the shared run lock and the
// configured timeout. The lock outlives the timeout by lockMargin so it
// cannot lapse while the run is still winding down.
func (cm *CronManager) RunBulk(ctx context.Context) (models.BulkRecommendationResponse, error) {
	locked, err := cm.monitor.TryLockRun(ctx, "", "", cm.schedule.Timeout+lockMargin)
	if err != nil {
		return models.BulkRecommendationResponse{}, fmt.Errorf("failed to take run lock: %w", err)
	}
	if !locked {
		return models.BulkRecommendationResponse{}, ErrRunInProgress
	}
	defer func() {
		if err := cm.monitor.ReleaseRun(context.WithoutCancel(ctx), "", ""); err != nil {
			cm.logger.Warn("failed to release run lock", "error", err)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, cm.schedule.Timeout)
	defer cancel()

	if backlog, err := cm.monitor.DetectBacklog(ctx); err != nil {
		cm.logger.Warn("failed to detect coverage backlog", "error", err)
	} else if len(backlog) > 0 {
		cm.logger.Info("Pending claims without recommendations",
			"localities", len(backlog),
			"largest_district", backlog[0].District,
			"largest_missing", backlog[0].Missing(),
		)
	}

	return cm.runner.GenerateBulk(ctx, models.BulkRecommendationRequest{Limit: cm.schedule.Limit}, "")
}

// Start starts the cron scheduler
func (cm *CronManager) Start() {
	cm.logger.Info("🚀 Starting cron scheduler...")
	cm.cron.Start()
}

// Stop stops the scheduler and waits for running jobs to finish
func (cm *CronManager) Stop() {
	cm.logger.Info("🛑 Stopping cron scheduler...")
	<-cm.cron.Stop().Done()
}

// Monitor returns the coverage monitor (for manual triggers)
func (cm *CronManager) Monitor() *CoverageMonitor {
	return cm.monitor
}

// cronLogger adapts logger.Logger to cron.Logger
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}
