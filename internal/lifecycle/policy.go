package lifecycle

import (
	"fmt"
	"strings"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-sla/pkg/util/errorutil"
)

var requesterEditableFields = map[string]struct{}{
	domain.FieldCustomFieldValues: {},
	domain.FieldPriority:          {},
}

// CheckRolePolicy enforces who may touch which fields. Requesters may only
// edit custom field values and priority on their own tickets; staff may
// edit anything.
func CheckRolePolicy(caller domain.Caller, ticket *domain.Ticket, changes ChangeSet) error {
	switch caller.Role {
	case domain.UserRoleAgent, domain.UserRoleManager:
		return nil
	case domain.UserRoleRequester:
		if ticket.RequesterID != caller.UserID {
			return apperrors.NewForbidden("you can only update your own tickets")
		}
		var rejected []string
		for _, field := range changes.Fields() {
			if _, ok := requesterEditableFields[field]; !ok {
				rejected = append(rejected, field)
			}
		}
		if len(rejected) > 0 {
			return apperrors.NewForbiddenChange("requesters can only update custom fields and priority", rejected)
		}
		return nil
	default:
		return apperrors.NewForbidden("unknown role")
	}
}

// TransitionPolicy decides whether a ticket may move to a new status. The
// ticket passed in already carries the other accepted changes of the same
// request (e.g. a new agent).
type TransitionPolicy interface {
	Allow(ticket *domain.Ticket, to domain.TicketStatus) error
}

// PermissiveTransitions lets any status move to any other status.
type PermissiveTransitions struct{}

func (PermissiveTransitions) Allow(*domain.Ticket, domain.TicketStatus) error { return nil }

// StrictTransitions enforces an explicit graph: CLOSED is terminal and the
// WAITING_* states need an assigned agent.
type StrictTransitions struct{}

var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusOpen: {
		domain.TicketStatusInProgress, domain.TicketStatusWaitingForCustomer, domain.TicketStatusWaitingForAgent,
		domain.TicketStatusResolved, domain.TicketStatusClosed,
	},
	domain.TicketStatusInProgress: {
		domain.TicketStatusWaitingForCustomer, domain.TicketStatusWaitingForAgent,
		domain.TicketStatusResolved, domain.TicketStatusClosed,
	},
	domain.TicketStatusWaitingForCustomer: {
		domain.TicketStatusInProgress, domain.TicketStatusWaitingForAgent,
		domain.TicketStatusResolved, domain.TicketStatusClosed,
	},
	domain.TicketStatusWaitingForAgent: {
		domain.TicketStatusInProgress, domain.TicketStatusWaitingForCustomer,
		domain.TicketStatusResolved, domain.TicketStatusClosed,
	},
	domain.TicketStatusResolved: {domain.TicketStatusOpen, domain.TicketStatusInProgress, domain.TicketStatusClosed},
	domain.TicketStatusClosed:   {},
}

func (StrictTransitions) Allow(ticket *domain.Ticket, to domain.TicketStatus) error {
	if ticket.Status == to {
		return nil
	}
	if !isValidTransition(ticket.Status, to) {
		return apperrors.NewInvalidTransition(string(ticket.Status), string(to))
	}
	if (to == domain.TicketStatusWaitingForCustomer || to == domain.TicketStatusWaitingForAgent) && ticket.AgentID == nil {
		return apperrors.NewInvalidTransition(string(ticket.Status), string(to))
	}
	return nil
}

func isValidTransition(current, next domain.TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// PolicyByName resolves a configured policy name.
func PolicyByName(name string) (TransitionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "permissive":
		return PermissiveTransitions{}, nil
	case "strict":
		return StrictTransitions{}, nil
	default:
		return nil, fmt.Errorf("unknown transition policy %q", name)
	}
}
