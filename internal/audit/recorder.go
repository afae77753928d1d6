// Package audit turns ticket mutations into append-only audit log entries.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

// Writer persists audit entries. It is satisfied by the audit log
// repository bound to the caller's transaction.
type Writer interface {
	Create(ctx context.Context, entry *domain.AuditLogEntry) error
}

// Recorder builds and writes audit entries.
type Recorder struct {
	newID func() string
}

func NewRecorder() *Recorder {
	return &Recorder{newID: uuid.NewString}
}

// TicketCreated records the creation of a ticket.
func (r *Recorder) TicketCreated(ctx context.Context, w Writer, ticket *domain.Ticket, actorID string) error {
	return r.write(ctx, w, r.entry(ticket.ID, actorID, domain.AuditActionCreated, "Ticket created", ticket.CreatedAt))
}

// Commented records a new comment.
func (r *Recorder) Commented(ctx context.Context, w Writer, comment *domain.Comment) error {
	visibility := "public"
	if comment.IsInternal {
		visibility = "internal"
	}
	entry := r.entry(comment.TicketID, comment.AuthorID, domain.AuditActionCommented,
		fmt.Sprintf("Added %s comment", visibility), comment.CreatedAt)
	return r.write(ctx, w, entry)
}

// FieldChanges records one entry per accepted field change, in order.
func (r *Recorder) FieldChanges(ctx context.Context, w Writer, ticketID, actorID string, changes []domain.FieldChange, at time.Time) error {
	for _, change := range changes {
		entry, err := r.changeEntry(ticketID, actorID, change, at)
		if err != nil {
			return err
		}
		if err := r.write(ctx, w, entry); err != nil {
			return err
		}
	}
	return nil
}

func (r *Recorder) changeEntry(ticketID, actorID string, change domain.FieldChange, at time.Time) (*domain.AuditLogEntry, error) {
	oldValue, err := serialize(change.Old)
	if err != nil {
		return nil, fmt.Errorf("serialize old %s: %w", change.Field, err)
	}
	newValue, err := serialize(change.New)
	if err != nil {
		return nil, fmt.Errorf("serialize new %s: %w", change.Field, err)
	}
	entry := r.entry(ticketID, actorID, ActionFor(change.Field), Describe(change), at)
	entry.OldValue = oldValue
	entry.NewValue = newValue
	return entry, nil
}

func (r *Recorder) entry(ticketID, actorID string, action domain.AuditAction, description string, at time.Time) *domain.AuditLogEntry {
	return &domain.AuditLogEntry{
		ID:          r.newID(),
		TicketID:    ticketID,
		ActorID:     actorID,
		Action:      action,
		Description: description,
		CreatedAt:   at,
	}
}

func (r *Recorder) write(ctx context.Context, w Writer, entry *domain.AuditLogEntry) error {
	if err := w.Create(ctx, entry); err != nil {
		return fmt.Errorf("write audit entry %s: %w", entry.Action, err)
	}
	return nil
}

// ActionFor maps a changed field to its audit action.
func ActionFor(field string) domain.AuditAction {
	switch field {
	case domain.FieldStatus:
		return domain.AuditActionStatusChanged
	case domain.FieldAgentID:
		return domain.AuditActionAssigned
	default:
		return domain.AuditActionUpdated
	}
}

// Describe renders the human readable line for a field change.
func Describe(change domain.FieldChange) string {
	return fmt.Sprintf("%s changed from %s to %s", change.Field, display(change.Old), display(change.New))
}

func display(v any) string {
	if v == nil {
		return "none"
	}
	switch value := v.(type) {
	case string:
		return value
	case fmt.Stringer:
		return value.String()
	case map[string]any:
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprint(value)
		}
		return string(raw)
	default:
		return fmt.Sprint(value)
	}
}

func serialize(v any) (*string, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := string(raw)
	return &s, nil
}
