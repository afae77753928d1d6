package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore builds a Store backed by a pgx pool.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	return &postgresStore{pool: pool}
}

func (s *postgresStore) Repos() Repositories {
	return reposOn(s.pool)
}

func (s *postgresStore) InTx(ctx context.Context, fn func(Repositories) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(reposOn(tx))
	})
}

func reposOn(db DBTX) Repositories {
	return Repositories{
		Tickets:    NewTicketRepository(db),
		Categories: NewCategoryRepository(db),
		Comments:   NewCommentRepository(db),
		AuditLogs:  NewAuditLogRepository(db),
	}
}
