package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-sla/internal/config"
	"github.com/spec-kit/helpdesk-sla/internal/events"
)

type recordingPublisher struct {
	channels []string
}

func (p *recordingPublisher) Publish(_ context.Context, channel string, _ []byte) error {
	p.channels = append(p.channels, channel)
	return nil
}

func TestStartNotificationWorkerForwardsEvents(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	publisher := &recordingPublisher{}
	StartNotificationWorker(dispatcher, publisher, zap.NewNop(), config.NotificationConfig{RedisChannel: "tickets"})

	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, dispatcher.Publish(context.Background(), events.New(events.EventTicketAssigned, "t-1", "mgr-1", at, nil)))
	require.NoError(t, dispatcher.Publish(context.Background(), events.New(events.EventTicketUpdated, "t-1", "mgr-1", at, nil)))

	assert.Equal(t, []string{"tickets", "tickets"}, publisher.channels)
}
