package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
	"github.com/spec-kit/helpdesk-sla/internal/events"
	"github.com/spec-kit/helpdesk-sla/internal/lifecycle"
	"github.com/spec-kit/helpdesk-sla/internal/repository"
	"github.com/spec-kit/helpdesk-sla/internal/repository/memory"
)

var (
	t0        = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	requester = domain.Caller{UserID: "req-1", Role: domain.UserRoleRequester}
	stranger  = domain.Caller{UserID: "req-2", Role: domain.UserRoleRequester}
	agent     = domain.Caller{UserID: "agent-1", Role: domain.UserRoleAgent}
	manager   = domain.Caller{UserID: "mgr-1", Role: domain.UserRoleManager}
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type eventLog struct {
	mu     sync.Mutex
	events []events.Event
}

func (l *eventLog) record(_ context.Context, e events.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
	return nil
}

func (l *eventLog) types() []events.EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]events.EventType, len(l.events))
	for i, e := range l.events {
		out[i] = e.Type
	}
	return out
}

func (l *eventLog) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = nil
}

type fixture struct {
	store      *memory.Store
	clock      *fakeClock
	events     *eventLog
	tickets    *TicketService
	sla        *SLAService
	categories *CategoryService
	category   *domain.Category
}

func newFixture(t *testing.T, policy lifecycle.TransitionPolicy) *fixture {
	t.Helper()
	store := memory.NewStore()
	return newFixtureWithStore(t, store, store, policy)
}

// newFixtureWithStore lets tests swap the store seen by the services while
// still inspecting the underlying memory store.
func newFixtureWithStore(t *testing.T, mem *memory.Store, store repository.Store, policy lifecycle.TransitionPolicy) *fixture {
	t.Helper()
	clock := &fakeClock{now: t0}
	log := &eventLog{}
	dispatcher := events.NewInMemoryDispatcher()
	dispatcher.SubscribeAll(log.record)

	f := &fixture{
		store:  mem,
		clock:  clock,
		events: log,
		tickets: NewTicketService(TicketDependencies{
			Store:      store,
			Policy:     policy,
			Dispatcher: dispatcher,
			Clock:      clock.Now,
		}),
		sla: NewSLAService(SLADependencies{
			Store:      store,
			Dispatcher: dispatcher,
			Clock:      clock.Now,
		}),
		categories: NewCategoryService(store, nil, clock.Now),
	}

	category, err := f.categories.CreateCategory(context.Background(), manager, CategoryInput{
		Name:             "Hardware",
		FirstResponseSLA: 120,
		ResolutionSLA:    480,
	})
	require.NoError(t, err)
	f.category = category
	return f
}

func (f *fixture) createTicket(t *testing.T, caller domain.Caller) *domain.Ticket {
	t.Helper()
	ticket, err := f.tickets.CreateTicket(context.Background(), caller, TicketCreateInput{
		Title:       "Laptop will not boot",
		Description: "Black screen after update",
		CategoryID:  f.category.ID,
	})
	require.NoError(t, err)
	return ticket
}

func (f *fixture) stored(t *testing.T, id string) *domain.Ticket {
	t.Helper()
	ticket, err := f.store.Repos().Tickets.GetByID(context.Background(), id)
	require.NoError(t, err)
	return ticket
}

func (f *fixture) audit(t *testing.T, id string) []domain.AuditLogEntry {
	t.Helper()
	entries, err := f.store.Repos().AuditLogs.ListByTicket(context.Background(), id)
	require.NoError(t, err)
	return entries
}

func ptrTo[T any](v T) *T { return &v }
