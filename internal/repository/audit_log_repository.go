package repository

import (
	"context"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

type auditLogRepository struct {
	db DBTX
}

// NewAuditLogRepository builds repository.
func NewAuditLogRepository(db DBTX) AuditLogRepository {
	return &auditLogRepository{db: db}
}

func (r *auditLogRepository) Create(ctx context.Context, entry *domain.AuditLogEntry) error {
	const query = `
        INSERT INTO audit_logs (id, ticket_id, actor_id, action, description, old_value, new_value, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := r.db.Exec(ctx, query,
		entry.ID,
		entry.TicketID,
		entry.ActorID,
		entry.Action,
		entry.Description,
		entry.OldValue,
		entry.NewValue,
		entry.CreatedAt,
	)
	return err
}

func (r *auditLogRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.AuditLogEntry, error) {
	const query = `
        SELECT id, ticket_id, actor_id, action, description, old_value, new_value, created_at
        FROM audit_logs WHERE ticket_id=$1 ORDER BY created_at DESC, seq DESC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AuditLogEntry
	for rows.Next() {
		var entry domain.AuditLogEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.ActorID,
			&entry.Action,
			&entry.Description,
			&entry.OldValue,
			&entry.NewValue,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
