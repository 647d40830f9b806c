// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"github.com/dalemusser/cohorthub/internal/app/system/auditlog"
	"go.uber.org/zap"
)

// Job is a unit of periodic background work.
type Job struct {
	Name     string
	Interval time.Duration
	// Timeout bounds a single Run; zero means no deadline beyond the worker's.
	Timeout time.Duration
	Run     func(ctx context.Context) error
}

// CohortCloser is implemented by *scheduling.Scheduler.
type CohortCloser interface {
	CloseEndedCohorts(ctx context.Context) (int64, error)
}

// CloseEndedCohortsJob marks active cohorts whose end date has passed as
// closed, so find-or-create stops offering them. audit may be nil.
func CloseEndedCohortsJob(closer CohortCloser, audit *auditlog.Logger, logger *zap.Logger, interval, timeout time.Duration) Job {
	return Job{
		Name:     "close-ended-cohorts",
		Interval: interval,
		Timeout:  timeout,
		Run: func(ctx context.Context) error {
			count, err := closer.CloseEndedCohorts(ctx)
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Info("closed ended cohorts", zap.Int64("count", count))
				audit.CohortsClosed(ctx, count)
			}
			return nil
		},
	}
}
