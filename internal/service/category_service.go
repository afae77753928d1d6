package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
	"github.com/spec-kit/helpdesk-sla/internal/repository"
	"github.com/spec-kit/helpdesk-sla/internal/sla"
	apperrors "github.com/spec-kit/helpdesk-sla/pkg/util/errorutil"
)

// CategoryService manages ticket categories and their SLA budgets.
type CategoryService struct {
	store  repository.Store
	logger *zap.Logger
	clock  Clock
}

// CategoryInput describes a new category.
type CategoryInput struct {
	Name             string
	Description      string
	FirstResponseSLA int
	ResolutionSLA    int
}

// CategoryPatch is a partial category update.
type CategoryPatch struct {
	Name             *string
	Description      *string
	FirstResponseSLA *int
	ResolutionSLA    *int
	IsActive         *bool
}

// NewCategoryService constructs the service.
func NewCategoryService(store repository.Store, logger *zap.Logger, clock Clock) *CategoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CategoryService{store: store, logger: logger, clock: clock}
}

// CreateCategory adds a category. Managers only.
func (s *CategoryService) CreateCategory(ctx context.Context, caller domain.Caller, input CategoryInput) (*domain.Category, error) {
	if caller.Role != domain.UserRoleManager {
		return nil, apperrors.NewForbidden("only managers can manage categories")
	}
	now := s.clock.now()
	category := &domain.Category{
		ID:               uuid.NewString(),
		Name:             strings.TrimSpace(input.Name),
		Description:      strings.TrimSpace(input.Description),
		FirstResponseSLA: input.FirstResponseSLA,
		ResolutionSLA:    input.ResolutionSLA,
		IsActive:         true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := validateCategory(category); err != nil {
		return nil, err
	}
	if err := s.store.Repos().Categories.Create(ctx, category); err != nil {
		return nil, mapRepoError(err, "category", category.ID)
	}
	s.logger.Info("category created", zap.String("category_id", category.ID), zap.String("name", category.Name))
	return category, nil
}

// GetCategory returns one category.
func (s *CategoryService) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	category, err := s.store.Repos().Categories.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "category", id)
	}
	return category, nil
}

// ListCategories returns categories ordered by name.
func (s *CategoryService) ListCategories(ctx context.Context, includeInactive bool) ([]domain.Category, error) {
	categories, err := s.store.Repos().Categories.List(ctx, !includeInactive)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	return categories, nil
}

// UpdateCategory applies a partial update. Due dates of existing tickets
// are not affected. Managers only.
func (s *CategoryService) UpdateCategory(ctx context.Context, caller domain.Caller, id string, patch CategoryPatch) (*domain.Category, error) {
	if caller.Role != domain.UserRoleManager {
		return nil, apperrors.NewForbidden("only managers can manage categories")
	}
	var updated *domain.Category
	err := s.store.InTx(ctx, func(repos repository.Repositories) error {
		category, err := repos.Categories.GetByID(ctx, id)
		if err != nil {
			return mapRepoError(err, "category", id)
		}
		if patch.Name != nil {
			category.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Description != nil {
			category.Description = strings.TrimSpace(*patch.Description)
		}
		if patch.FirstResponseSLA != nil {
			category.FirstResponseSLA = *patch.FirstResponseSLA
		}
		if patch.ResolutionSLA != nil {
			category.ResolutionSLA = *patch.ResolutionSLA
		}
		if patch.IsActive != nil {
			category.IsActive = *patch.IsActive
		}
		if err := validateCategory(category); err != nil {
			return err
		}
		category.UpdatedAt = s.clock.now()
		if err := repos.Categories.Update(ctx, category); err != nil {
			return mapRepoError(err, "category", id)
		}
		updated = category
		return nil
	})
	if err != nil {
		return nil, mapRepoError(err, "category", id)
	}
	return updated, nil
}

// DeactivateCategory hides a category from new tickets. Managers only.
func (s *CategoryService) DeactivateCategory(ctx context.Context, caller domain.Caller, id string) (*domain.Category, error) {
	inactive := false
	return s.UpdateCategory(ctx, caller, id, CategoryPatch{IsActive: &inactive})
}

func validateCategory(c *domain.Category) error {
	if c.Name == "" {
		return apperrors.NewValidationError("name is required", nil)
	}
	if c.FirstResponseSLA < 1 || c.ResolutionSLA < 1 ||
		c.FirstResponseSLA > sla.MaxSLAMinutes || c.ResolutionSLA > sla.MaxSLAMinutes {
		return apperrors.NewValidationError(fmt.Sprintf("SLA minutes must be between 1 and %d", sla.MaxSLAMinutes), map[string]any{
			"firstResponseSLA": c.FirstResponseSLA,
			"resolutionSLA":    c.ResolutionSLA,
		})
	}
	return nil
}
