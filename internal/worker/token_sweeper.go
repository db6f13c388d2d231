package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/taskforge/task-service/internal/observability"
	"github.com/taskforge/task-service/internal/service"
)

// StartTokenSweeper runs the periodic cleanup of expired token records until
// the context is cancelled. Failures are logged and never stop the loop.
func StartTokenSweeper(ctx context.Context, tokens *service.TokenService, metrics *observability.Metrics, logger *zap.Logger, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("token sweeper started", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			logger.Info("token sweeper stopped")
			return
		case <-ticker.C:
			deleted, err := tokens.SweepExpired(ctx)
			if err != nil {
				logger.Warn("token sweep failed", zap.Error(err))
				continue
			}
			metrics.RecordSweep(deleted)
			if deleted > 0 {
				logger.Info("token sweep completed", zap.Int("deleted", deleted))
			}
		}
	}
}
