// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown stops background workers, then disconnects MongoDB.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if s := takeServices(); s != nil {
		if s.closer != nil {
			s.closer.Stop()
		}
		if s.limiter != nil {
			s.limiter.Close()
		}
	}
	if deps.CohortHubMongoClient != nil {
		logger.Info("disconnecting CohortHub MongoDB client")
		if err := deps.CohortHubMongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
