package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

type captureWriter struct {
	entries []*domain.AuditLogEntry
	err     error
}

func (w *captureWriter) Create(_ context.Context, entry *domain.AuditLogEntry) error {
	if w.err != nil {
		return w.err
	}
	w.entries = append(w.entries, entry)
	return nil
}

var at = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func TestFieldChangesOneEntryPerField(t *testing.T) {
	w := &captureWriter{}
	changes := []domain.FieldChange{
		{Field: domain.FieldStatus, Old: domain.TicketStatusOpen, New: domain.TicketStatusInProgress},
		{Field: domain.FieldAgentID, Old: nil, New: "agent-7"},
		{Field: domain.FieldPriority, Old: domain.TicketPriorityLow, New: domain.TicketPriorityUrgent},
	}

	require.NoError(t, NewRecorder().FieldChanges(context.Background(), w, "t-1", "mgr-1", changes, at))

	require.Len(t, w.entries, 3)
	status, assign, priority := w.entries[0], w.entries[1], w.entries[2]

	assert.Equal(t, domain.AuditActionStatusChanged, status.Action)
	assert.Equal(t, "status changed from OPEN to IN_PROGRESS", status.Description)
	assert.Equal(t, `"OPEN"`, *status.OldValue)
	assert.Equal(t, `"IN_PROGRESS"`, *status.NewValue)

	assert.Equal(t, domain.AuditActionAssigned, assign.Action)
	assert.Equal(t, "agentId changed from none to agent-7", assign.Description)
	assert.Nil(t, assign.OldValue)
	assert.Equal(t, `"agent-7"`, *assign.NewValue)

	assert.Equal(t, domain.AuditActionUpdated, priority.Action)
	for _, e := range w.entries {
		assert.Equal(t, "t-1", e.TicketID)
		assert.Equal(t, "mgr-1", e.ActorID)
		assert.Equal(t, at, e.CreatedAt)
		assert.NotEmpty(t, e.ID)
	}
	assert.NotEqual(t, status.ID, assign.ID)
}

func TestFieldChangesSerializesCustomFields(t *testing.T) {
	w := &captureWriter{}
	change := domain.FieldChange{
		Field: domain.FieldCustomFieldValues,
		Old:   map[string]any{"floor": "2"},
		New:   map[string]any{"floor": "3"},
	}

	require.NoError(t, NewRecorder().FieldChanges(context.Background(), w, "t-1", "req-1", []domain.FieldChange{change}, at))

	require.Len(t, w.entries, 1)
	assert.Equal(t, `{"floor":"2"}`, *w.entries[0].OldValue)
	assert.Equal(t, `{"floor":"3"}`, *w.entries[0].NewValue)
	assert.Equal(t, `customFieldValues changed from {"floor":"2"} to {"floor":"3"}`, w.entries[0].Description)
}

func TestCreatedAndCommented(t *testing.T) {
	w := &captureWriter{}
	r := NewRecorder()
	ctx := context.Background()

	require.NoError(t, r.TicketCreated(ctx, w, &domain.Ticket{ID: "t-1", CreatedAt: at}, "req-1"))
	require.NoError(t, r.Commented(ctx, w, &domain.Comment{TicketID: "t-1", AuthorID: "agent-1", IsInternal: true, CreatedAt: at}))
	require.NoError(t, r.Commented(ctx, w, &domain.Comment{TicketID: "t-1", AuthorID: "req-1", CreatedAt: at}))

	require.Len(t, w.entries, 3)
	assert.Equal(t, domain.AuditActionCreated, w.entries[0].Action)
	assert.Equal(t, "Ticket created", w.entries[0].Description)
	assert.Equal(t, "Added internal comment", w.entries[1].Description)
	assert.Equal(t, domain.AuditActionCommented, w.entries[1].Action)
	assert.Equal(t, "agent-1", w.entries[1].ActorID)
	assert.Equal(t, "Added public comment", w.entries[2].Description)
}

func TestWriteFailureIsReturned(t *testing.T) {
	w := &captureWriter{err: errors.New("disk full")}

	err := NewRecorder().FieldChanges(context.Background(), w, "t-1", "a", []domain.FieldChange{
		{Field: domain.FieldTitle, Old: "a", New: "b"},
	}, at)

	require.Error(t, err)
	assert.ErrorIs(t, err, w.err)
}
