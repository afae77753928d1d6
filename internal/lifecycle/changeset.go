package lifecycle

import "github.com/spec-kit/helpdesk-sla/internal/domain"

// ChangeSet is a requested partial update. A nil field is not part of the
// request. AgentID pointing at an empty string unassigns the ticket.
type ChangeSet struct {
	Title             *string
	Description       *string
	Status            *domain.TicketStatus
	Priority          *domain.TicketPriority
	AgentID           *string
	CustomFieldValues map[string]any
}

// Fields lists the attempted fields in a stable order.
func (c ChangeSet) Fields() []string {
	var fields []string
	if c.Title != nil {
		fields = append(fields, domain.FieldTitle)
	}
	if c.Description != nil {
		fields = append(fields, domain.FieldDescription)
	}
	if c.Status != nil {
		fields = append(fields, domain.FieldStatus)
	}
	if c.Priority != nil {
		fields = append(fields, domain.FieldPriority)
	}
	if c.AgentID != nil {
		fields = append(fields, domain.FieldAgentID)
	}
	if c.CustomFieldValues != nil {
		fields = append(fields, domain.FieldCustomFieldValues)
	}
	return fields
}

// Empty reports whether the change set requests nothing.
func (c ChangeSet) Empty() bool {
	return len(c.Fields()) == 0
}
