package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-triage/internal/service"
)

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}

// KnowledgeReloader is the slice of the triage service the reload worker drives.
type KnowledgeReloader interface {
	ReloadKnowledge(ctx context.Context) (*service.KnowledgeSummary, error)
}

// StartKnowledgeReloader rebuilds the knowledge index every interval until ctx
// is done. A non-positive interval disables it. The returned channel closes
// when the worker exits.
func StartKnowledgeReloader(ctx context.Context, reloader KnowledgeReloader, interval time.Duration, logger *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	if reloader == nil || interval <= 0 {
		close(done)
		return done
	}
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := reloader.ReloadKnowledge(ctx); err != nil && ctx.Err() == nil {
					logger.Warn("scheduled knowledge reload failed", zap.Error(err))
				}
			}
		}
	}()
	return done
}
