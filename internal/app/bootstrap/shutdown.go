// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown cleanly tears down the background worker and DB connections.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if reminderSweep != nil {
		logger.Info("stopping reminder sweep worker")
		reminderSweep.Stop()
	}
	if stateCleanup != nil {
		logger.Info("stopping oauth state cleanup worker")
		stateCleanup.Stop()
	}
	if deps.FleetHubMongoClient != nil {
		logger.Info("disconnecting FleetHub MongoDB client")
		if err := deps.FleetHubMongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
