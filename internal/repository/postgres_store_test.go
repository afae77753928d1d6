package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
	"github.com/spec-kit/helpdesk-sla/internal/persistence"
)

// pgStore connects to POSTGRES_DSN, applies the migrations and seeds one
// category. Tests using it are skipped when no database is configured.
func pgStore(t *testing.T) (Store, string) {
	t.Helper()
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_DSN not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, persistence.RunMigrations(ctx, pool, "../../migrations", zap.NewNop()))

	store := NewPostgresStore(pool)
	categoryID := uuid.NewString()
	require.NoError(t, store.Repos().Categories.Create(ctx, &domain.Category{
		ID:               categoryID,
		Name:             "pg-" + categoryID,
		FirstResponseSLA: 60,
		ResolutionSLA:    240,
		IsActive:         true,
		CreatedAt:        time.Now().UTC(),
		UpdatedAt:        time.Now().UTC(),
	}))
	t.Cleanup(func() {
		ctx := context.Background()
		_, _ = pool.Exec(ctx, `DELETE FROM audit_logs WHERE ticket_id IN (SELECT id FROM tickets WHERE category_id=$1)`, categoryID)
		_, _ = pool.Exec(ctx, `DELETE FROM comments WHERE ticket_id IN (SELECT id FROM tickets WHERE category_id=$1)`, categoryID)
		_, _ = pool.Exec(ctx, `DELETE FROM tickets WHERE category_id=$1`, categoryID)
		_, _ = pool.Exec(ctx, `DELETE FROM categories WHERE id=$1`, categoryID)
	})
	return store, categoryID
}

func pgTicket(t *testing.T, store Store, categoryID string, status domain.TicketStatus) *domain.Ticket {
	t.Helper()
	created := time.Now().UTC().Truncate(time.Microsecond)
	due := created.Add(time.Hour)
	ticket := &domain.Ticket{
		ID:               uuid.NewString(),
		Title:            "Printer jam",
		Status:           status,
		Priority:         domain.TicketPriorityMedium,
		SLAStatus:        domain.SLAStatusOnTime,
		RequesterID:      "req-1",
		CategoryID:       categoryID,
		CreatedAt:        created,
		UpdatedAt:        created,
		FirstResponseDue: &due,
	}
	require.NoError(t, store.Repos().Tickets.Create(context.Background(), ticket))
	return ticket
}

func TestPostgresUpdateRejectsStaleToken(t *testing.T) {
	store, categoryID := pgStore(t)
	ctx := context.Background()
	ticket := pgTicket(t, store, categoryID, domain.TicketStatusOpen)
	tickets := store.Repos().Tickets

	prev := ticket.UpdatedAt
	ticket.Status = domain.TicketStatusInProgress
	ticket.UpdatedAt = prev.Add(time.Second)
	require.NoError(t, tickets.Update(ctx, ticket, prev))

	ticket.Title = "Printer jam again"
	ticket.UpdatedAt = prev.Add(2 * time.Second)
	err := tickets.Update(ctx, ticket, prev)
	assert.ErrorIs(t, err, ErrStaleToken)

	got, err := tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "Printer jam", got.Title)
	assert.Equal(t, domain.TicketStatusInProgress, got.Status)
	assert.True(t, got.UpdatedAt.Equal(prev.Add(time.Second)))
}

func TestPostgresUpdateSLAStatusesSkipsClosed(t *testing.T) {
	store, categoryID := pgStore(t)
	ctx := context.Background()
	open := pgTicket(t, store, categoryID, domain.TicketStatusOpen)
	closed := pgTicket(t, store, categoryID, domain.TicketStatusClosed)

	written, err := store.Repos().Tickets.UpdateSLAStatuses(ctx, []SLAUpdate{
		{TicketID: open.ID, SLAStatus: domain.SLAStatusBreached},
		{TicketID: closed.ID, SLAStatus: domain.SLAStatusBreached},
		{TicketID: uuid.NewString(), SLAStatus: domain.SLAStatusBreached},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{open.ID}, written)

	got, err := store.Repos().Tickets.GetByID(ctx, open.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SLAStatusBreached, got.SLAStatus)
	assert.True(t, got.UpdatedAt.Equal(open.UpdatedAt), "updated_at must not move")

	got, err = store.Repos().Tickets.GetByID(ctx, closed.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SLAStatusOnTime, got.SLAStatus)

	written, err = store.Repos().Tickets.UpdateSLAStatuses(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, written)
}

func TestPostgresInTxRollsBack(t *testing.T) {
	store, categoryID := pgStore(t)
	ctx := context.Background()
	ticket := pgTicket(t, store, categoryID, domain.TicketStatusOpen)
	boom := errors.New("boom")

	err := store.InTx(ctx, func(repos Repositories) error {
		if _, err := repos.Tickets.UpdateSLAStatuses(ctx, []SLAUpdate{{TicketID: ticket.ID, SLAStatus: domain.SLAStatusAtRisk}}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.Repos().Tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SLAStatusOnTime, got.SLAStatus)
}
