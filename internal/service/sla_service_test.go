package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
	"github.com/spec-kit/helpdesk-sla/internal/events"
	"github.com/spec-kit/helpdesk-sla/internal/lifecycle"
	"github.com/spec-kit/helpdesk-sla/internal/repository"
	"github.com/spec-kit/helpdesk-sla/internal/repository/memory"
	apperrors "github.com/spec-kit/helpdesk-sla/pkg/util/errorutil"
)

func TestReconcileUpdatesOnlyChangedTickets(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	stale := f.createTicket(t, requester)
	f.clock.Set(t0.Add(time.Hour))
	fresh := f.createTicket(t, requester)
	f.events.reset()

	// 01:45: the first ticket has 15 of 120 first-response minutes left.
	now := t0.Add(105 * time.Minute)
	result, err := f.sla.Reconcile(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Scanned)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, []SLAChange{{TicketID: stale.ID, From: domain.SLAStatusOnTime, To: domain.SLAStatusAtRisk}}, result.Changes)

	stored := f.stored(t, stale.ID)
	assert.Equal(t, domain.SLAStatusAtRisk, stored.SLAStatus)
	assert.Equal(t, stale.UpdatedAt, stored.UpdatedAt, "reconciliation does not move the concurrency token")
	assert.Equal(t, domain.SLAStatusOnTime, f.stored(t, fresh.ID).SLAStatus)
	assert.Len(t, f.audit(t, stale.ID), 1)
	assert.Equal(t, []events.EventType{events.EventTicketSLAChanged}, f.events.types())

	again, err := f.sla.Reconcile(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Updated)
	assert.Empty(t, again.Changes)
}

func TestReconcileSkipsClosedTickets(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	open := f.createTicket(t, requester)
	closed := f.createTicket(t, requester)
	_, err := f.tickets.UpdateTicket(ctx, agent, closed.ID, lifecycle.ChangeSet{Status: ptrTo(domain.TicketStatusClosed)}, nil)
	require.NoError(t, err)

	result, err := f.sla.Reconcile(ctx, t0.Add(3*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Scanned)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, domain.SLAStatusBreached, f.stored(t, open.ID).SLAStatus)
	assert.Equal(t, domain.SLAStatusOnTime, f.stored(t, closed.ID).SLAStatus)
}

func TestReconcileNowUsesClock(t *testing.T) {
	f := newFixture(t, nil)
	f.createTicket(t, requester)
	f.clock.Set(t0.Add(9 * time.Hour))

	result, err := f.sla.ReconcileNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, t0.Add(9*time.Hour), result.Now)
	assert.Equal(t, 1, result.Updated)
}

func TestBreachAndAtRiskReports(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	older := f.createTicket(t, requester)
	f.clock.Set(t0.Add(10 * time.Minute))
	newer := f.createTicket(t, requester)
	f.clock.Set(t0.Add(30 * time.Minute))
	healthy := f.createTicket(t, requester)

	_, err := f.sla.Reconcile(ctx, t0.Add(3*time.Hour))
	require.NoError(t, err)

	breaches, err := f.sla.ListBreaches(ctx, agent, 0)
	require.NoError(t, err)
	require.Len(t, breaches, 3)
	assert.Equal(t, healthy.ID, breaches[0].ID)
	assert.Equal(t, older.ID, breaches[2].ID)

	limited, err := f.sla.ListBreaches(ctx, manager, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	_, err = f.sla.Reconcile(ctx, t0.Add(110*time.Minute))
	require.NoError(t, err)
	atRisk, err := f.sla.ListAtRisk(ctx, agent, 10)
	require.NoError(t, err)
	// 01:50: the first two tickets are inside their last 30 minutes, the third is not.
	require.Len(t, atRisk, 2)
	assert.Equal(t, older.ID, atRisk[0].ID)
	assert.Equal(t, newer.ID, atRisk[1].ID)

	_, err = f.sla.ListBreaches(ctx, requester, 10)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	_, err = f.sla.ListAtRisk(ctx, requester, 10)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestComplianceReportPeriods(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	ticket := f.createTicket(t, requester)

	f.clock.Set(t0.Add(time.Hour))
	_, err := f.tickets.AddComment(ctx, agent, ticket.ID, CommentInput{Content: "on it"})
	require.NoError(t, err)

	f.clock.Set(t0.Add(10 * 24 * time.Hour))
	weekly, err := f.sla.ComplianceReport(ctx, agent, "")
	require.NoError(t, err)
	assert.Equal(t, 0, weekly.TotalTickets)

	monthly, err := f.sla.ComplianceReport(ctx, manager, Period30Days)
	require.NoError(t, err)
	assert.Equal(t, 1, monthly.TotalTickets)
	assert.Equal(t, 1, monthly.RespondedTickets)
	assert.Equal(t, 100, monthly.FirstResponseCompliance)
	assert.Equal(t, 60.0, monthly.AvgFirstResponseMinutes)
	assert.Equal(t, 1, monthly.Breached)

	_, err = f.sla.ComplianceReport(ctx, agent, "90d")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	_, err = f.sla.ComplianceReport(ctx, requester, Period7Days)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

// closingTickets closes one ticket just before the batch status write, the
// way a concurrent request would between the sweep's read and its update.
type closingTickets struct {
	repository.TicketRepository
	closeID string
}

func (r closingTickets) UpdateSLAStatuses(ctx context.Context, updates []repository.SLAUpdate) ([]string, error) {
	t, err := r.GetByID(ctx, r.closeID)
	if err != nil {
		return nil, err
	}
	t.Status = domain.TicketStatusClosed
	if err := r.Update(ctx, t, t.UpdatedAt); err != nil {
		return nil, err
	}
	return r.TicketRepository.UpdateSLAStatuses(ctx, updates)
}

type closingStore struct {
	*memory.Store
	closeID string
}

func (s closingStore) InTx(ctx context.Context, fn func(repository.Repositories) error) error {
	return s.Store.InTx(ctx, func(repos repository.Repositories) error {
		repos.Tickets = closingTickets{TicketRepository: repos.Tickets, closeID: s.closeID}
		return fn(repos)
	})
}

func TestReconcileOmitsTicketsClosedDuringSweep(t *testing.T) {
	f := newFixture(t, nil)
	kept := f.createTicket(t, requester)
	raced := f.createTicket(t, requester)

	log := &eventLog{}
	dispatcher := events.NewInMemoryDispatcher()
	dispatcher.SubscribeAll(log.record)
	svc := NewSLAService(SLADependencies{
		Store:      closingStore{Store: f.store, closeID: raced.ID},
		Dispatcher: dispatcher,
	})

	result, err := svc.Reconcile(context.Background(), t0.Add(3*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Scanned)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, []SLAChange{{TicketID: kept.ID, From: domain.SLAStatusOnTime, To: domain.SLAStatusBreached}}, result.Changes)
	require.Len(t, log.events, 1)
	assert.Equal(t, kept.ID, log.events[0].TicketID)

	closed := f.stored(t, raced.ID)
	assert.Equal(t, domain.TicketStatusClosed, closed.Status)
	assert.Equal(t, domain.SLAStatusOnTime, closed.SLAStatus)
}
