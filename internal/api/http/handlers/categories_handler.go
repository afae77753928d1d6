package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-sla/internal/api/dto"
	"github.com/spec-kit/helpdesk-sla/internal/domain"
	"github.com/spec-kit/helpdesk-sla/internal/service"
	apperrors "github.com/spec-kit/helpdesk-sla/pkg/util/errorutil"
)

// CategoriesHandler serves category management endpoints.
type CategoriesHandler struct {
	service *service.CategoryService
}

// NewCategoriesHandler constructs handler.
func NewCategoriesHandler(categoryService *service.CategoryService) *CategoriesHandler {
	return &CategoriesHandler{service: categoryService}
}

// Create POST /categories.
func (h *CategoriesHandler) Create(c *fiber.Ctx) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	var req dto.CreateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	category, err := h.service.CreateCategory(c.UserContext(), caller, service.CategoryInput{
		Name:             req.Name,
		Description:      req.Description,
		FirstResponseSLA: req.FirstResponseSLA,
		ResolutionSLA:    req.ResolutionSLA,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": categoryResponse(category)})
}

// List GET /categories?include_inactive=true.
func (h *CategoriesHandler) List(c *fiber.Ctx) error {
	categories, err := h.service.ListCategories(c.UserContext(), c.QueryBool("include_inactive", false))
	if err != nil {
		return err
	}
	items := make([]dto.CategoryResponse, 0, len(categories))
	for i := range categories {
		items = append(items, categoryResponse(&categories[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /categories/:id.
func (h *CategoriesHandler) Get(c *fiber.Ctx) error {
	category, err := h.service.GetCategory(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": categoryResponse(category)})
}

// Update PATCH /categories/:id.
func (h *CategoriesHandler) Update(c *fiber.Ctx) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	var req dto.UpdateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	category, err := h.service.UpdateCategory(c.UserContext(), caller, c.Params("id"), service.CategoryPatch{
		Name:             req.Name,
		Description:      req.Description,
		FirstResponseSLA: req.FirstResponseSLA,
		ResolutionSLA:    req.ResolutionSLA,
		IsActive:         req.IsActive,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": categoryResponse(category)})
}

// Deactivate DELETE /categories/:id.
func (h *CategoriesHandler) Deactivate(c *fiber.Ctx) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	category, err := h.service.DeactivateCategory(c.UserContext(), caller, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": categoryResponse(category)})
}

func categoryResponse(cat *domain.Category) dto.CategoryResponse {
	return dto.CategoryResponse{
		ID:               cat.ID,
		Name:             cat.Name,
		Description:      cat.Description,
		FirstResponseSLA: cat.FirstResponseSLA,
		ResolutionSLA:    cat.ResolutionSLA,
		IsActive:         cat.IsActive,
		CreatedAt:        cat.CreatedAt,
		UpdatedAt:        cat.UpdatedAt,
	}
}
