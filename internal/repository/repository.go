package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrStaleToken is returned when a conditional ticket update finds a
	// different updated_at than the one the caller read.
	ErrStaleToken = errors.New("stale ticket version")
	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("duplicate record")
)

const uniqueViolation = "23505"

// TicketOrder selects the sort order of ticket listings.
type TicketOrder int

const (
	OrderCreatedDesc TicketOrder = iota
	OrderUpdatedDesc
	OrderFirstResponseDueAsc
)

// TicketFilter captures ticket search parameters. A Limit of zero or less
// returns every match.
type TicketFilter struct {
	RequesterID     *string
	AgentID         *string
	CategoryID      *string
	Statuses        []domain.TicketStatus
	ExcludeStatuses []domain.TicketStatus
	SLAStatuses     []domain.SLAStatus
	CreatedFrom     *time.Time
	CreatedTo       *time.Time
	Order           TicketOrder
	Limit           int
	Offset          int
}

// Matches reports whether t satisfies the filter's predicates.
func (f TicketFilter) Matches(t *domain.Ticket) bool {
	if f.RequesterID != nil && t.RequesterID != *f.RequesterID {
		return false
	}
	if f.AgentID != nil && (t.AgentID == nil || *t.AgentID != *f.AgentID) {
		return false
	}
	if f.CategoryID != nil && t.CategoryID != *f.CategoryID {
		return false
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, t.Status) {
		return false
	}
	if len(f.ExcludeStatuses) > 0 && containsStatus(f.ExcludeStatuses, t.Status) {
		return false
	}
	if len(f.SLAStatuses) > 0 {
		found := false
		for _, s := range f.SLAStatuses {
			if s == t.SLAStatus {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.CreatedFrom != nil && t.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && t.CreatedAt.After(*f.CreatedTo) {
		return false
	}
	return true
}

func containsStatus(list []domain.TicketStatus, status domain.TicketStatus) bool {
	for _, s := range list {
		if s == status {
			return true
		}
	}
	return false
}

// SLAUpdate is one row of a reconciler batch.
type SLAUpdate struct {
	TicketID  string
	SLAStatus domain.SLAStatus
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// GetForUpdate reads the ticket and locks it for the rest of the
	// transaction.
	GetForUpdate(ctx context.Context, id string) (*domain.Ticket, error)
	// Update writes every mutable column, conditional on the row still
	// carrying prevUpdatedAt. It returns ErrStaleToken otherwise.
	Update(ctx context.Context, ticket *domain.Ticket, prevUpdatedAt time.Time) error
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	Count(ctx context.Context, filter TicketFilter) (int, error)
	// UpdateSLAStatuses writes a batch of cached SLA statuses without
	// touching updated_at, skipping tickets that were closed meanwhile. It
	// returns the ids it actually wrote.
	UpdateSLAStatuses(ctx context.Context, updates []SLAUpdate) ([]string, error)
}

// CategoryRepository manages ticket categories.
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	Update(ctx context.Context, category *domain.Category) error
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Category, error)
}

// CommentRepository manages ticket comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	ListByTicket(ctx context.Context, ticketID string, includeInternal bool) ([]domain.Comment, error)
}

// AuditLogRepository appends and reads audit entries. There is no update
// or delete path.
type AuditLogRepository interface {
	Create(ctx context.Context, entry *domain.AuditLogEntry) error
	// ListByTicket returns entries newest first.
	ListByTicket(ctx context.Context, ticketID string) ([]domain.AuditLogEntry, error)
}

// Repositories groups the repositories bound to one connection or
// transaction.
type Repositories struct {
	Tickets    TicketRepository
	Categories CategoryRepository
	Comments   CommentRepository
	AuditLogs  AuditLogRepository
}

// Store hands out repositories and runs units of work.
type Store interface {
	// Repos returns repositories outside any transaction.
	Repos() Repositories
	// InTx runs fn in one transaction; it commits when fn returns nil and
	// rolls back otherwise.
	InTx(ctx context.Context, fn func(Repositories) error) error
}

// DBTX is the query surface shared by pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func mapNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return err
}
