package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title             string                `json:"title"`
	Description       string                `json:"description"`
	CategoryID        string                `json:"category_id"`
	Priority          domain.TicketPriority `json:"priority"`
	CustomFieldValues map[string]any        `json:"custom_field_values"`
}

// UpdateTicketRequest is a partial update. Absent fields are left alone;
// an empty agent_id unassigns the ticket.
type UpdateTicketRequest struct {
	Title             *string                `json:"title"`
	Description       *string                `json:"description"`
	Status            *domain.TicketStatus   `json:"status"`
	Priority          *domain.TicketPriority `json:"priority"`
	AgentID           *string                `json:"agent_id"`
	CustomFieldValues map[string]any         `json:"custom_field_values"`
	ExpectedUpdatedAt *time.Time             `json:"expected_updated_at"`
}

// TicketResponse is the wire form of a ticket.
type TicketResponse struct {
	ID                string                `json:"id"`
	Title             string                `json:"title"`
	Description       string                `json:"description"`
	Status            domain.TicketStatus   `json:"status"`
	Priority          domain.TicketPriority `json:"priority"`
	SLAStatus         domain.SLAStatus      `json:"sla_status"`
	RequesterID       string                `json:"requester_id"`
	AgentID           *string               `json:"agent_id"`
	CategoryID        string                `json:"category_id"`
	CustomFieldValues map[string]any        `json:"custom_field_values"`
	CreatedAt         time.Time             `json:"created_at"`
	FirstResponseDue  *time.Time            `json:"first_response_due"`
	ResolutionDue     *time.Time            `json:"resolution_due"`
	FirstResponseAt   *time.Time            `json:"first_response_at"`
	ResolvedAt        *time.Time            `json:"resolved_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
}

// TicketDetailResponse is a ticket with its visible comments.
type TicketDetailResponse struct {
	TicketResponse
	Comments []CommentResponse `json:"comments"`
}

// TicketListResponse is one page of tickets.
type TicketListResponse struct {
	Data       []TicketResponse   `json:"data"`
	Pagination PaginationResponse `json:"pagination"`
}

// PaginationResponse describes the page returned.
type PaginationResponse struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"total_pages"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Content    string `json:"content"`
	IsInternal bool   `json:"is_internal"`
}

// CommentResponse represents a thread comment.
type CommentResponse struct {
	ID         string    `json:"id"`
	TicketID   string    `json:"ticket_id"`
	AuthorID   string    `json:"author_id"`
	IsInternal bool      `json:"is_internal"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// AuditLogResponse is one audit trail entry.
type AuditLogResponse struct {
	ID          string             `json:"id"`
	TicketID    string             `json:"ticket_id"`
	ActorID     string             `json:"actor_id"`
	Action      domain.AuditAction `json:"action"`
	OldValue    *string            `json:"old_value"`
	NewValue    *string            `json:"new_value"`
	Description string             `json:"description"`
	CreatedAt   time.Time          `json:"created_at"`
}
