package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen               TicketStatus = "OPEN"
	TicketStatusInProgress         TicketStatus = "IN_PROGRESS"
	TicketStatusWaitingForCustomer TicketStatus = "WAITING_FOR_CUSTOMER"
	TicketStatusWaitingForAgent    TicketStatus = "WAITING_FOR_AGENT"
	TicketStatusResolved           TicketStatus = "RESOLVED"
	TicketStatusClosed             TicketStatus = "CLOSED"
)

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusWaitingForCustomer,
		TicketStatusWaitingForAgent, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// SLAStatus is the derived compliance state of a ticket.
type SLAStatus string

const (
	SLAStatusOnTime   SLAStatus = "ON_TIME"
	SLAStatusAtRisk   SLAStatus = "AT_RISK"
	SLAStatusBreached SLAStatus = "BREACHED"
)

// Valid reports whether s is a known SLA status.
func (s SLAStatus) Valid() bool {
	return s == SLAStatusOnTime || s == SLAStatusAtRisk || s == SLAStatusBreached
}

// Ticket is the aggregate for support requests.
//
// SLAStatus is a cache of sla.Evaluate over the timestamp fields. UpdatedAt
// doubles as the optimistic concurrency token.
type Ticket struct {
	ID                string
	Title             string
	Description       string
	Status            TicketStatus
	Priority          TicketPriority
	SLAStatus         SLAStatus
	RequesterID       string
	AgentID           *string
	CategoryID        string
	CustomFieldValues map[string]any
	CreatedAt         time.Time
	FirstResponseDue  *time.Time
	ResolutionDue     *time.Time
	FirstResponseAt   *time.Time
	ResolvedAt        *time.Time
	UpdatedAt         time.Time
}

// Clone returns a deep copy so callers can mutate without aliasing.
func (t *Ticket) Clone() *Ticket {
	if t == nil {
		return nil
	}
	cp := *t
	cp.AgentID = cloneString(t.AgentID)
	cp.FirstResponseDue = cloneTime(t.FirstResponseDue)
	cp.ResolutionDue = cloneTime(t.ResolutionDue)
	cp.FirstResponseAt = cloneTime(t.FirstResponseAt)
	cp.ResolvedAt = cloneTime(t.ResolvedAt)
	if t.CustomFieldValues != nil {
		cp.CustomFieldValues = make(map[string]any, len(t.CustomFieldValues))
		for k, v := range t.CustomFieldValues {
			cp.CustomFieldValues[k] = v
		}
	}
	return &cp
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
