// Package memory provides an in-process Store used for development runs
// without PostgreSQL and for tests.
package memory

import (
	"context"
	"sync"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
	"github.com/spec-kit/helpdesk-sla/internal/repository"
)

// Store keeps every record in memory. Transactions work on a copy of the
// data set that replaces the live one on commit. Repositories returned by
// Repos must not be used from inside an InTx callback.
type Store struct {
	mu   sync.Mutex
	data *dataset
}

type dataset struct {
	tickets    map[string]*domain.Ticket
	categories map[string]domain.Category
	comments   []domain.Comment
	auditLogs  []domain.AuditLogEntry
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{data: &dataset{
		tickets:    make(map[string]*domain.Ticket),
		categories: make(map[string]domain.Category),
	}}
}

var _ repository.Store = (*Store)(nil)

// Repos returns repositories that lock the store per call.
func (s *Store) Repos() repository.Repositories {
	return s.bind(func() (*dataset, func()) {
		s.mu.Lock()
		return s.data, s.mu.Unlock
	})
}

// InTx runs fn against a private copy that is published only when fn
// succeeds.
func (s *Store) InTx(ctx context.Context, fn func(repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.data.clone()
	repos := s.bind(func() (*dataset, func()) { return working, func() {} })
	if err := fn(repos); err != nil {
		return err
	}
	s.data = working
	return nil
}

func (s *Store) bind(acquire func() (*dataset, func())) repository.Repositories {
	return repository.Repositories{
		Tickets:    &ticketRepository{acquire: acquire},
		Categories: &categoryRepository{acquire: acquire},
		Comments:   &commentRepository{acquire: acquire},
		AuditLogs:  &auditLogRepository{acquire: acquire},
	}
}

func (d *dataset) clone() *dataset {
	out := &dataset{
		tickets:    make(map[string]*domain.Ticket, len(d.tickets)),
		categories: make(map[string]domain.Category, len(d.categories)),
		comments:   append([]domain.Comment(nil), d.comments...),
		auditLogs:  append([]domain.AuditLogEntry(nil), d.auditLogs...),
	}
	for id, t := range d.tickets {
		out.tickets[id] = t.Clone()
	}
	for id, c := range d.categories {
		out.categories[id] = c
	}
	return out
}
