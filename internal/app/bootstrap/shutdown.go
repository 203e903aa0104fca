// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown stops background work and tears down DB connections.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.Background != nil && deps.Background.Sweeper != nil {
		deps.Background.Sweeper.Stop()
	}
	if deps.VillaHubMongoClient != nil {
		logger.Info("disconnecting VillaHub MongoDB client")
		if err := deps.VillaHubMongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
