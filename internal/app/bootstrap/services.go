// internal/app/bootstrap/services.go
package bootstrap

import (
	"sync"
	"time"

	"github.com/dalemusser/cohorthub/internal/app/scheduling"
	"github.com/dalemusser/cohorthub/internal/app/store/audit"
	cohortstore "github.com/dalemusser/cohorthub/internal/app/store/cohorts"
	metricsstore "github.com/dalemusser/cohorthub/internal/app/store/metrics"
	"github.com/dalemusser/cohorthub/internal/app/system/auditlog"
	"github.com/dalemusser/cohorthub/internal/app/system/metrics"
	"github.com/dalemusser/cohorthub/internal/app/system/ratelimit"
	"github.com/dalemusser/cohorthub/internal/app/system/workers"
	"go.uber.org/zap"
)

// services are built once in Startup and shared by BuildHandler and
// Shutdown, which WAFFLE calls with the same config and deps.
type services struct {
	sched   *scheduling.Scheduler
	events  *audit.Store
	totals  *metricsstore.Store
	audit   *auditlog.Logger
	metrics *metrics.Metrics
	limiter *ratelimit.Limiter
	closer  *workers.Runner
}

var (
	svcMu sync.Mutex
	svc   *services
)

func buildServices(appCfg AppConfig, deps DBDeps, logger *zap.Logger) (*services, error) {
	svcMu.Lock()
	defer svcMu.Unlock()
	if svc != nil {
		return svc, nil
	}

	store := cohortstore.New(deps.CohortHubMongoDatabase, appCfg.Scheduler.Calendar.Location)
	sched, err := scheduling.New(store, appCfg.Scheduler, logger.Named("scheduler"))
	if err != nil {
		return nil, err
	}

	events := audit.New(deps.CohortHubMongoDatabase)
	s := &services{
		sched:  sched,
		events: events,
		totals: metricsstore.New(deps.CohortHubMongoDatabase, appCfg.Scheduler.MaxCohortSize),
		audit:  auditlog.New(events, logger.Named("audit"), appCfg.Audit),
	}
	if appCfg.WriteRateLimit > 0 {
		s.limiter = ratelimit.New(appCfg.WriteRateLimit, time.Minute)
	}
	if appCfg.MetricsEnabled {
		s.metrics = metrics.New()
		sched.SetRecorder(s.metrics)
	}
	svc = s
	return s, nil
}

// takeServices returns the shared services and clears them.
func takeServices() *services {
	svcMu.Lock()
	defer svcMu.Unlock()
	s := svc
	svc = nil
	return s
}
