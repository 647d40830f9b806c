// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/cohorthub/internal/app/system/tasks"
	"github.com/dalemusser/cohorthub/internal/app/system/timeouts"
	"github.com/dalemusser/cohorthub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs after DB connection and schema setup, before the HTTP handler
// is built. It applies timeout overrides, builds the scheduler and starts
// the cohort closer.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Long:   appCfg.TimeoutLong,
	})
	logger.Info("handler timeouts", timeouts.Fields()...)

	s, err := buildServices(appCfg, deps, logger)
	if err != nil {
		logger.Error("scheduler init failed", zap.Error(err))
		return err
	}

	cal := appCfg.Scheduler.Calendar
	logger.Info("cohort scheduler ready",
		zap.Int("max_cohort_size", appCfg.Scheduler.MaxCohortSize),
		zap.Ints("intake_months", monthInts(cal.Months)),
		zap.String("name_prefix", cal.NamePrefix),
		zap.String("timezone", cal.Location.String()),
		zap.Bool("metrics", appCfg.MetricsEnabled),
		zap.Int("write_rate_limit", appCfg.WriteRateLimit),
		zap.String("audit_enrollment", appCfg.Audit.Enrollment),
		zap.String("audit_lifecycle", appCfg.Audit.Lifecycle))

	if appCfg.CloseEnabled {
		job := tasks.CloseEndedCohortsJob(s.sched, s.audit, logger, appCfg.CloseInterval, timeouts.Long())
		s.closer = workers.NewRunner(job, logger.Named("worker"), true)
		s.closer.Start()
	}
	return nil
}
