package passwordreset

import (
	"context"
	"time"

	"account-service/internal/logger"

	"go.uber.org/zap"
)

// StartCleanupJob runs Cleanup every interval until ctx is cancelled.
func (s *Service) StartCleanupJob(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("Token cleanup job started",
		zap.Duration("interval", interval),
	)

	s.Cleanup(ctx)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Token cleanup job stopped")
			return
		case <-ticker.C:
			s.Cleanup(ctx)
		}
	}
}

// Cleanup deletes reset tokens that can no longer be consumed and refresh
// tokens past their expiry.
func (s *Service) Cleanup(ctx context.Context) {
	now := s.opts.Now()

	resets, err := s.resetRepo.DeleteStale(ctx, now.Add(-s.opts.TokenTTL))
	if err != nil {
		logger.Error("Failed to delete stale reset tokens", zap.Error(err))
	}

	sessions, err := s.sessionRepo.DeleteExpired(ctx, now)
	if err != nil {
		logger.Error("Failed to delete expired refresh tokens", zap.Error(err))
	}

	logger.Debug("Expired tokens cleaned up",
		zap.Int64("reset_tokens", resets),
		zap.Int64("refresh_tokens", sessions),
	)
}
