package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-sla/internal/config"
	"github.com/spec-kit/helpdesk-sla/internal/events"
	"github.com/spec-kit/helpdesk-sla/internal/service"
)

// StartNotificationWorker subscribes ticket notifications to the
// dispatcher. Events are forwarded to publisher when it is non-nil and a
// channel is configured.
func StartNotificationWorker(dispatcher events.Dispatcher, publisher service.EventPublisher, logger *zap.Logger, cfg config.NotificationConfig) *service.NotificationService {
	notifications := service.NewNotificationService(dispatcher, publisher, logger, cfg)
	notifications.RegisterHandlers()
	if publisher != nil && cfg.RedisChannel != "" {
		logger.Info("ticket events fan-out enabled", zap.String("channel", cfg.RedisChannel))
	}
	return notifications
}
