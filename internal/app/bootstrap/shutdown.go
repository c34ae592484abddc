// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown stops the background workers and closes the Mongo client.
// It runs after the HTTP server has drained.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	for _, r := range runners {
		r.Stop()
	}
	runners = nil

	if deps.MongoClient != nil {
		if err := deps.MongoClient.Disconnect(ctx); err != nil {
			logger.Warn("mongo disconnect failed", zap.Error(err))
			return err
		}
	}
	logger.Info("shutdown complete")
	return nil
}
