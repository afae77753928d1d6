package lifecycle

import (
	"reflect"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
	"github.com/spec-kit/helpdesk-sla/internal/sla"
	apperrors "github.com/spec-kit/helpdesk-sla/pkg/util/errorutil"
)

// StateMachine validates change sets against the caller and the transition
// policy and derives the side effects of a status change.
type StateMachine struct {
	policy TransitionPolicy
}

// NewStateMachine builds a state machine; a nil policy is permissive.
func NewStateMachine(policy TransitionPolicy) *StateMachine {
	if policy == nil {
		policy = PermissiveTransitions{}
	}
	return &StateMachine{policy: policy}
}

// Apply returns a copy of current with the change set applied, plus one
// FieldChange per field whose value actually changed. current is never
// modified. The copy's SLA status is re-derived at now.
func (m *StateMachine) Apply(current *domain.Ticket, changes ChangeSet, caller domain.Caller, now time.Time) (*domain.Ticket, []domain.FieldChange, error) {
	if err := CheckRolePolicy(caller, current, changes); err != nil {
		return nil, nil, err
	}
	if err := validate(changes); err != nil {
		return nil, nil, err
	}

	next := current.Clone()
	var applied []domain.FieldChange

	if changes.Title != nil && *changes.Title != next.Title {
		applied = append(applied, domain.FieldChange{Field: domain.FieldTitle, Old: next.Title, New: *changes.Title})
		next.Title = *changes.Title
	}
	if changes.Description != nil && *changes.Description != next.Description {
		applied = append(applied, domain.FieldChange{Field: domain.FieldDescription, Old: next.Description, New: *changes.Description})
		next.Description = *changes.Description
	}
	if changes.Priority != nil && *changes.Priority != next.Priority {
		applied = append(applied, domain.FieldChange{Field: domain.FieldPriority, Old: next.Priority, New: *changes.Priority})
		next.Priority = *changes.Priority
	}
	if changes.AgentID != nil {
		var agent *string
		if id := strings.TrimSpace(*changes.AgentID); id != "" {
			agent = &id
		}
		if !sameString(next.AgentID, agent) {
			applied = append(applied, domain.FieldChange{Field: domain.FieldAgentID, Old: stringValue(next.AgentID), New: stringValue(agent)})
			next.AgentID = agent
		}
	}
	if changes.CustomFieldValues != nil && !reflect.DeepEqual(next.CustomFieldValues, changes.CustomFieldValues) {
		applied = append(applied, domain.FieldChange{Field: domain.FieldCustomFieldValues, Old: next.CustomFieldValues, New: changes.CustomFieldValues})
		next.CustomFieldValues = changes.CustomFieldValues
	}
	if changes.Status != nil && *changes.Status != next.Status {
		if err := m.policy.Allow(next, *changes.Status); err != nil {
			return nil, nil, err
		}
		from := next.Status
		applied = append(applied, domain.FieldChange{Field: domain.FieldStatus, Old: from, New: *changes.Status})
		next.Status = *changes.Status
		applyResolutionSideEffects(next, from, now)
	}

	next.SLAStatus = sla.EvaluateTicket(next, now)
	return next, applied, nil
}

// applyResolutionSideEffects keeps ResolvedAt set exactly while the ticket
// is RESOLVED.
func applyResolutionSideEffects(t *domain.Ticket, from domain.TicketStatus, now time.Time) {
	switch {
	case t.Status == domain.TicketStatusResolved && t.ResolvedAt == nil:
		resolvedAt := now
		t.ResolvedAt = &resolvedAt
	case from == domain.TicketStatusResolved && t.Status != domain.TicketStatusResolved:
		t.ResolvedAt = nil
	}
}

func validate(changes ChangeSet) error {
	if changes.Status != nil && !changes.Status.Valid() {
		return apperrors.NewValidationError("invalid status", map[string]any{"status": *changes.Status})
	}
	if changes.Priority != nil && !changes.Priority.Valid() {
		return apperrors.NewValidationError("invalid priority", map[string]any{"priority": *changes.Priority})
	}
	if changes.Title != nil && strings.TrimSpace(*changes.Title) == "" {
		return apperrors.NewValidationError("title cannot be empty", nil)
	}
	return nil
}

func sameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func stringValue(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
