package dto

import "time"

// CreateCategoryRequest payload. SLA budgets are in minutes.
type CreateCategoryRequest struct {
	Name             string `json:"name"`
	Description      string `json:"description"`
	FirstResponseSLA int    `json:"first_response_sla"`
	ResolutionSLA    int    `json:"resolution_sla"`
}

// UpdateCategoryRequest is a partial update.
type UpdateCategoryRequest struct {
	Name             *string `json:"name"`
	Description      *string `json:"description"`
	FirstResponseSLA *int    `json:"first_response_sla"`
	ResolutionSLA    *int    `json:"resolution_sla"`
	IsActive         *bool   `json:"is_active"`
}

// CategoryResponse is the wire form of a category.
type CategoryResponse struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	FirstResponseSLA int       `json:"first_response_sla"`
	ResolutionSLA    int       `json:"resolution_sla"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
