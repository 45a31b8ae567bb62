package worker

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spec-kit/eventbright/internal/queue"
	"github.com/spec-kit/eventbright/internal/service"
)

// StartNotificationWorker registers notification handlers and, when a
// broker URL is configured, consumes the notification queues until ctx ends.
func StartNotificationWorker(ctx context.Context, notificationService *service.NotificationService, brokerURL string, logger *zap.Logger) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
	if brokerURL == "" {
		return
	}

	consumer := queue.NewConsumer(brokerURL, notificationService.Queues(), notificationService.HandleMessage, logger)
	go func() {
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("notification consumer stopped", zap.Error(err))
		}
	}()
}
