package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
	"github.com/spec-kit/helpdesk-sla/internal/repository"
)

type acquireFunc func() (*dataset, func())

type ticketRepository struct {
	acquire acquireFunc
}

func (r *ticketRepository) Create(_ context.Context, ticket *domain.Ticket) error {
	data, release := r.acquire()
	defer release()
	if _, exists := data.tickets[ticket.ID]; exists {
		return fmt.Errorf("ticket %s already exists", ticket.ID)
	}
	if _, ok := data.categories[ticket.CategoryID]; !ok {
		return fmt.Errorf("ticket %s references unknown category %s", ticket.ID, ticket.CategoryID)
	}
	data.tickets[ticket.ID] = ticket.Clone()
	return nil
}

func (r *ticketRepository) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	data, release := r.acquire()
	defer release()
	t, ok := data.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return t.Clone(), nil
}

func (r *ticketRepository) GetForUpdate(ctx context.Context, id string) (*domain.Ticket, error) {
	return r.GetByID(ctx, id)
}

func (r *ticketRepository) Update(_ context.Context, ticket *domain.Ticket, prevUpdatedAt time.Time) error {
	data, release := r.acquire()
	defer release()
	stored, ok := data.tickets[ticket.ID]
	if !ok || !stored.UpdatedAt.Equal(prevUpdatedAt) {
		return repository.ErrStaleToken
	}
	next := ticket.Clone()
	// Creation-time fields are immutable.
	next.CreatedAt = stored.CreatedAt
	next.FirstResponseDue = stored.FirstResponseDue
	next.ResolutionDue = stored.ResolutionDue
	next.RequesterID = stored.RequesterID
	next.CategoryID = stored.CategoryID
	data.tickets[ticket.ID] = next
	return nil
}

func (r *ticketRepository) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	data, release := r.acquire()
	defer release()

	matches := make([]domain.Ticket, 0)
	for _, t := range data.tickets {
		if filter.Matches(t) {
			matches = append(matches, *t.Clone())
		}
	}
	sortTickets(matches, filter.Order)

	if filter.Limit <= 0 {
		return matches, nil
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matches) {
		return []domain.Ticket{}, nil
	}
	end := offset + filter.Limit
	if end > len(matches) {
		end = len(matches)
	}
	return matches[offset:end], nil
}

func (r *ticketRepository) Count(_ context.Context, filter repository.TicketFilter) (int, error) {
	data, release := r.acquire()
	defer release()
	total := 0
	for _, t := range data.tickets {
		if filter.Matches(t) {
			total++
		}
	}
	return total, nil
}

func (r *ticketRepository) UpdateSLAStatuses(_ context.Context, updates []repository.SLAUpdate) ([]string, error) {
	data, release := r.acquire()
	defer release()
	var updated []string
	for _, u := range updates {
		t, ok := data.tickets[u.TicketID]
		if !ok || t.Status == domain.TicketStatusClosed {
			continue
		}
		t.SLAStatus = u.SLAStatus
		updated = append(updated, t.ID)
	}
	return updated, nil
}

func sortTickets(tickets []domain.Ticket, order repository.TicketOrder) {
	sort.SliceStable(tickets, func(i, j int) bool {
		a, b := tickets[i], tickets[j]
		switch order {
		case repository.OrderUpdatedDesc:
			if !a.UpdatedAt.Equal(b.UpdatedAt) {
				return a.UpdatedAt.After(b.UpdatedAt)
			}
		case repository.OrderFirstResponseDueAsc:
			switch {
			case a.FirstResponseDue == nil && b.FirstResponseDue != nil:
				return false
			case a.FirstResponseDue != nil && b.FirstResponseDue == nil:
				return true
			case a.FirstResponseDue != nil && !a.FirstResponseDue.Equal(*b.FirstResponseDue):
				return a.FirstResponseDue.Before(*b.FirstResponseDue)
			}
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
		}
		return a.ID < b.ID
	})
}

type categoryRepository struct {
	acquire acquireFunc
}

func (r *categoryRepository) Create(_ context.Context, category *domain.Category) error {
	data, release := r.acquire()
	defer release()
	for _, existing := range data.categories {
		if existing.Name == category.Name {
			return fmt.Errorf("category %q: %w", category.Name, repository.ErrDuplicate)
		}
	}
	data.categories[category.ID] = *category
	return nil
}

func (r *categoryRepository) Update(_ context.Context, category *domain.Category) error {
	data, release := r.acquire()
	defer release()
	if _, ok := data.categories[category.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, existing := range data.categories {
		if id != category.ID && existing.Name == category.Name {
			return fmt.Errorf("category %q: %w", category.Name, repository.ErrDuplicate)
		}
	}
	data.categories[category.ID] = *category
	return nil
}

func (r *categoryRepository) GetByID(_ context.Context, id string) (*domain.Category, error) {
	data, release := r.acquire()
	defer release()
	c, ok := data.categories[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (r *categoryRepository) List(_ context.Context, activeOnly bool) ([]domain.Category, error) {
	data, release := r.acquire()
	defer release()
	result := make([]domain.Category, 0, len(data.categories))
	for _, c := range data.categories {
		if activeOnly && !c.IsActive {
			continue
		}
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

type commentRepository struct {
	acquire acquireFunc
}

func (r *commentRepository) Create(_ context.Context, comment *domain.Comment) error {
	data, release := r.acquire()
	defer release()
	if _, ok := data.tickets[comment.TicketID]; !ok {
		return fmt.Errorf("comment references unknown ticket %s", comment.TicketID)
	}
	data.comments = append(data.comments, *comment)
	return nil
}

func (r *commentRepository) ListByTicket(_ context.Context, ticketID string, includeInternal bool) ([]domain.Comment, error) {
	data, release := r.acquire()
	defer release()
	result := make([]domain.Comment, 0)
	for _, c := range data.comments {
		if c.TicketID != ticketID || (c.IsInternal && !includeInternal) {
			continue
		}
		result = append(result, c)
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

type auditLogRepository struct {
	acquire acquireFunc
}

func (r *auditLogRepository) Create(_ context.Context, entry *domain.AuditLogEntry) error {
	data, release := r.acquire()
	defer release()
	if _, ok := data.tickets[entry.TicketID]; !ok {
		return fmt.Errorf("audit entry references unknown ticket %s", entry.TicketID)
	}
	data.auditLogs = append(data.auditLogs, *entry)
	return nil
}

func (r *auditLogRepository) ListByTicket(_ context.Context, ticketID string) ([]domain.AuditLogEntry, error) {
	data, release := r.acquire()
	defer release()
	result := make([]domain.AuditLogEntry, 0)
	for i := len(data.auditLogs) - 1; i >= 0; i-- {
		if data.auditLogs[i].TicketID == ticketID {
			result = append(result, data.auditLogs[i])
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}
