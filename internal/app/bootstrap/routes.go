// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	cohortsfeature "github.com/dalemusser/cohorthub/internal/app/features/cohorts"
	healthfeature "github.com/dalemusser/cohorthub/internal/app/features/health"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup and
// Startup have completed. CohortHub mounts the health check, the cohort
// JSON API with its audit trail and, when enabled, Prometheus metrics.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	s, err := buildServices(appCfg, deps, logger)
	if err != nil {
		logger.Error("scheduler init failed", zap.Error(err))
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.CohortHubMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	cohortsHandler := cohortsfeature.NewHandler(s.sched, appCfg.Scheduler.Calendar.Location, logger.Named("cohorts"))
	cohortsHandler.Audit = s.audit
	cohortsHandler.Events = s.events
	cohortsHandler.Totals = s.totals
	cohortsHandler.WriteLimit = s.limiter
	r.Mount("/cohorts", cohortsfeature.Routes(cohortsHandler))

	return r, nil
}
