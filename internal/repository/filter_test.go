package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

func TestTicketFilterMatches(t *testing.T) {
	created := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	agent := "agent-1"
	ticket := &domain.Ticket{
		Status:      domain.TicketStatusInProgress,
		SLAStatus:   domain.SLAStatusAtRisk,
		RequesterID: "req-1",
		AgentID:     &agent,
		CategoryID:  "cat-1",
		CreatedAt:   created,
	}
	other := "someone-else"
	from := created.Add(-time.Hour)
	after := created.Add(time.Hour)

	assert.True(t, TicketFilter{}.Matches(ticket))
	assert.True(t, TicketFilter{AgentID: &agent, CreatedFrom: &from}.Matches(ticket))
	assert.False(t, TicketFilter{RequesterID: &other}.Matches(ticket))
	assert.False(t, TicketFilter{AgentID: &other}.Matches(ticket))
	assert.False(t, TicketFilter{CreatedFrom: &after}.Matches(ticket))
	assert.False(t, TicketFilter{ExcludeStatuses: []domain.TicketStatus{domain.TicketStatusInProgress}}.Matches(ticket))
	assert.True(t, TicketFilter{SLAStatuses: []domain.SLAStatus{domain.SLAStatusBreached, domain.SLAStatusAtRisk}}.Matches(ticket))
	assert.False(t, TicketFilter{Statuses: []domain.TicketStatus{domain.TicketStatusOpen}}.Matches(ticket))
}

func TestOrderClause(t *testing.T) {
	assert.Equal(t, "created_at DESC, id", orderClause(OrderCreatedDesc))
	assert.Equal(t, "first_response_due ASC NULLS LAST, id", orderClause(OrderFirstResponseDueAsc))
}

func TestTicketWhereNumbersPlaceholders(t *testing.T) {
	requester := "req-1"
	where, args := ticketWhere(TicketFilter{
		RequesterID:     &requester,
		ExcludeStatuses: []domain.TicketStatus{domain.TicketStatusClosed},
	})

	assert.Equal(t, "1=1 AND requester_id=$1 AND NOT (status = ANY($2))", where)
	assert.Equal(t, []any{"req-1", []string{"CLOSED"}}, args)
}
