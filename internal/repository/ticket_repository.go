package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

const ticketColumns = `id, title, description, status, priority, sla_status, requester_id, agent_id,
               category_id, custom_field_values, created_at, first_response_due, resolution_due,
               first_response_at, resolved_at, updated_at`

type ticketRepository struct {
	db DBTX
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db DBTX) TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (` + ticketColumns + `)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`
	_, err := r.db.Exec(ctx, query,
		ticket.ID,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.SLAStatus,
		ticket.RequesterID,
		ticket.AgentID,
		ticket.CategoryID,
		customFields(ticket.CustomFieldValues),
		ticket.CreatedAt,
		ticket.FirstResponseDue,
		ticket.ResolutionDue,
		ticket.FirstResponseAt,
		ticket.ResolvedAt,
		ticket.UpdatedAt,
	)
	return err
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	return r.fetchSingle(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id=$1`, id)
}

func (r *ticketRepository) GetForUpdate(ctx context.Context, id string) (*domain.Ticket, error) {
	return r.fetchSingle(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id=$1 FOR UPDATE`, id)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket, prevUpdatedAt time.Time) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, status=$3, priority=$4, sla_status=$5,
            agent_id=$6, custom_field_values=$7, first_response_at=$8, resolved_at=$9, updated_at=$10
        WHERE id=$11 AND updated_at=$12`
	cmd, err := r.db.Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.SLAStatus,
		ticket.AgentID,
		customFields(ticket.CustomFieldValues),
		ticket.FirstResponseAt,
		ticket.ResolvedAt,
		ticket.UpdatedAt,
		ticket.ID,
		prevUpdatedAt,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrStaleToken
	}
	return nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	where, args := ticketWhere(filter)
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY %s`, ticketColumns, where, orderClause(filter.Order))
	if filter.Limit > 0 {
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Limit, offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) Count(ctx context.Context, filter TicketFilter) (int, error) {
	where, args := ticketWhere(filter)
	var total int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM tickets WHERE `+where, args...).Scan(&total)
	return total, err
}

func (r *ticketRepository) UpdateSLAStatuses(ctx context.Context, updates []SLAUpdate) ([]string, error) {
	if len(updates) == 0 {
		return nil, nil
	}
	ids := make([]string, len(updates))
	statuses := make([]string, len(updates))
	for i, u := range updates {
		ids[i] = u.TicketID
		statuses[i] = string(u.SLAStatus)
	}
	const query = `
        UPDATE tickets AS t SET sla_status = u.sla_status
        FROM unnest($1::text[], $2::text[]) AS u(id, sla_status)
        WHERE t.id = u.id AND t.status <> 'CLOSED'
        RETURNING t.id`
	rows, err := r.db.Query(ctx, query, ids, statuses)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	ticket, err := scanTicket(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, mapNoRows(err)
	}
	return ticket, nil
}

func ticketWhere(filter TicketFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.RequesterID != nil {
		args = append(args, *filter.RequesterID)
		clauses = append(clauses, fmt.Sprintf("requester_id=$%d", len(args)))
	}
	if filter.AgentID != nil {
		args = append(args, *filter.AgentID)
		clauses = append(clauses, fmt.Sprintf("agent_id=$%d", len(args)))
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		clauses = append(clauses, fmt.Sprintf("category_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		args = append(args, statusStrings(filter.Statuses))
		clauses = append(clauses, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if len(filter.ExcludeStatuses) > 0 {
		args = append(args, statusStrings(filter.ExcludeStatuses))
		clauses = append(clauses, fmt.Sprintf("NOT (status = ANY($%d))", len(args)))
	}
	if len(filter.SLAStatuses) > 0 {
		values := make([]string, len(filter.SLAStatuses))
		for i, s := range filter.SLAStatuses {
			values[i] = string(s)
		}
		args = append(args, values)
		clauses = append(clauses, fmt.Sprintf("sla_status = ANY($%d)", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	return strings.Join(clauses, " AND "), args
}

func orderClause(order TicketOrder) string {
	switch order {
	case OrderUpdatedDesc:
		return "updated_at DESC, id"
	case OrderFirstResponseDueAsc:
		return "first_response_due ASC NULLS LAST, id"
	default:
		return "created_at DESC, id"
	}
}

func statusStrings(statuses []domain.TicketStatus) []string {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}
	return values
}

func customFields(values map[string]any) map[string]any {
	if values == nil {
		return map[string]any{}
	}
	return values
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.SLAStatus,
		&ticket.RequesterID,
		&ticket.AgentID,
		&ticket.CategoryID,
		&ticket.CustomFieldValues,
		&ticket.CreatedAt,
		&ticket.FirstResponseDue,
		&ticket.ResolutionDue,
		&ticket.FirstResponseAt,
		&ticket.ResolvedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}
