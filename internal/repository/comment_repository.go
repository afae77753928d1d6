package repository

import (
	"context"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

type commentRepository struct {
	db DBTX
}

// NewCommentRepository builds repository.
func NewCommentRepository(db DBTX) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	const query = `
        INSERT INTO comments (id, ticket_id, author_id, is_internal, content, created_at)
        VALUES ($1,$2,$3,$4,$5,$6)`
	_, err := r.db.Exec(ctx, query,
		comment.ID,
		comment.TicketID,
		comment.AuthorID,
		comment.IsInternal,
		comment.Content,
		comment.CreatedAt,
	)
	return err
}

func (r *commentRepository) ListByTicket(ctx context.Context, ticketID string, includeInternal bool) ([]domain.Comment, error) {
	const query = `
        SELECT id, ticket_id, author_id, is_internal, content, created_at
        FROM comments WHERE ticket_id=$1 AND ($2 OR NOT is_internal)
        ORDER BY created_at ASC, seq ASC`
	rows, err := r.db.Query(ctx, query, ticketID, includeInternal)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Comment
	for rows.Next() {
		var comment domain.Comment
		if err := rows.Scan(
			&comment.ID,
			&comment.TicketID,
			&comment.AuthorID,
			&comment.IsInternal,
			&comment.Content,
			&comment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, comment)
	}
	return result, rows.Err()
}
