package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketUpdated       EventType = "ticket_updated"
	EventTicketCommented     EventType = "ticket_commented"
	EventTicketSLAChanged    EventType = "ticket_sla_changed"
)

// AllEventTypes lists every event the services emit.
var AllEventTypes = []EventType{
	EventTicketCreated,
	EventTicketStatusChanged,
	EventTicketAssigned,
	EventTicketUpdated,
	EventTicketCommented,
	EventTicketSLAChanged,
}

// SystemActor is the actor id of events raised by the reconciler.
const SystemActor = "system"

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  string    `json:"ticket_id"`
	ActorID   string    `json:"actor_id"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// New builds an event with a fresh id.
func New(eventType EventType, ticketID, actorID string, at time.Time, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		ActorID:   actorID,
		Timestamp: at,
		Payload:   payload,
	}
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	CategoryID       string                `json:"category_id"`
	Priority         domain.TicketPriority `json:"priority"`
	Title            string                `json:"title"`
	SLAStatus        domain.SLAStatus      `json:"sla_status"`
	FirstResponseDue *time.Time            `json:"first_response_due,omitempty"`
	ResolutionDue    *time.Time            `json:"resolution_due,omitempty"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	OldAgentID *string `json:"old_agent_id,omitempty"`
	NewAgentID *string `json:"new_agent_id,omitempty"`
}

// TicketUpdatedPayload lists the changed fields other than status and agent.
type TicketUpdatedPayload struct {
	Fields []string `json:"fields"`
}

// TicketCommentedPayload payload.
type TicketCommentedPayload struct {
	CommentID     string `json:"comment_id"`
	IsInternal    bool   `json:"is_internal"`
	FirstResponse bool   `json:"first_response"`
	BodyPreview   string `json:"body_preview"`
}

// TicketSLAChangedPayload payload.
type TicketSLAChangedPayload struct {
	OldSLAStatus domain.SLAStatus `json:"old_sla_status"`
	NewSLAStatus domain.SLAStatus `json:"new_sla_status"`
}
