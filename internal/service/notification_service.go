package service

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-sla/internal/config"
	"github.com/spec-kit/helpdesk-sla/internal/events"
)

// EventPublisher forwards serialized events to an external channel.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	publisher  EventPublisher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service. publisher may be nil.
func NewNotificationService(dispatcher events.Dispatcher, publisher EventPublisher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		publisher:  publisher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.SubscribeAll(n.handle)
}

func (n *NotificationService) handle(ctx context.Context, event events.Event) error {
	n.logger.Info("ticket event",
		zap.String("type", string(event.Type)),
		zap.String("ticket_id", event.TicketID),
		zap.String("actor_id", event.ActorID))

	switch event.Type {
	case events.EventTicketCreated, events.EventTicketCommented:
		n.sendEmailNotificationStub(ctx, event)
		n.sendWebhookNotificationStub(ctx, event)
	case events.EventTicketStatusChanged, events.EventTicketAssigned, events.EventTicketSLAChanged:
		n.sendWebhookNotificationStub(ctx, event)
	}
	return n.fanOut(ctx, event)
}

func (n *NotificationService) fanOut(ctx context.Context, event events.Event) error {
	if n.publisher == nil || strings.TrimSpace(n.cfg.RedisChannel) == "" {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return n.publisher.Publish(ctx, n.cfg.RedisChannel, payload)
}

func (n *NotificationService) sendEmailNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}
