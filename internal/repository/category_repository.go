package repository

import (
	"context"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

type categoryRepository struct {
	db DBTX
}

// NewCategoryRepository builds the repository.
func NewCategoryRepository(db DBTX) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	const query = `
        INSERT INTO categories (id, name, description, first_response_sla, resolution_sla, is_active, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := r.db.Exec(ctx, query,
		category.ID,
		category.Name,
		category.Description,
		category.FirstResponseSLA,
		category.ResolutionSLA,
		category.IsActive,
		category.CreatedAt,
		category.UpdatedAt,
	)
	return mapUniqueViolation(err)
}

func (r *categoryRepository) Update(ctx context.Context, category *domain.Category) error {
	const query = `
        UPDATE categories SET name=$1, description=$2, first_response_sla=$3, resolution_sla=$4,
            is_active=$5, updated_at=$6
        WHERE id=$7`
	cmd, err := r.db.Exec(ctx, query,
		category.Name,
		category.Description,
		category.FirstResponseSLA,
		category.ResolutionSLA,
		category.IsActive,
		category.UpdatedAt,
		category.ID,
	)
	if err != nil {
		return mapUniqueViolation(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	const query = `
        SELECT id, name, description, first_response_sla, resolution_sla, is_active, created_at, updated_at
        FROM categories WHERE id=$1`
	var category domain.Category
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&category.ID,
		&category.Name,
		&category.Description,
		&category.FirstResponseSLA,
		&category.ResolutionSLA,
		&category.IsActive,
		&category.CreatedAt,
		&category.UpdatedAt,
	); err != nil {
		return nil, mapNoRows(err)
	}
	return &category, nil
}

func (r *categoryRepository) List(ctx context.Context, activeOnly bool) ([]domain.Category, error) {
	const query = `
        SELECT id, name, description, first_response_sla, resolution_sla, is_active, created_at, updated_at
        FROM categories WHERE ($1 = false OR is_active) ORDER BY name ASC`
	rows, err := r.db.Query(ctx, query, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Category
	for rows.Next() {
		var category domain.Category
		if err := rows.Scan(
			&category.ID,
			&category.Name,
			&category.Description,
			&category.FirstResponseSLA,
			&category.ResolutionSLA,
			&category.IsActive,
			&category.CreatedAt,
			&category.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, category)
	}
	return result, rows.Err()
}
