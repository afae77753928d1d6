package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-sla/internal/api/dto"
	"github.com/spec-kit/helpdesk-sla/internal/auth"
	"github.com/spec-kit/helpdesk-sla/internal/domain"
	"github.com/spec-kit/helpdesk-sla/internal/lifecycle"
	"github.com/spec-kit/helpdesk-sla/internal/service"
	apperrors "github.com/spec-kit/helpdesk-sla/pkg/util/errorutil"
)

// TicketsHandler serves ticket endpoints for every role.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.CreateTicket(c.UserContext(), caller, service.TicketCreateInput{
		Title:             req.Title,
		Description:       req.Description,
		CategoryID:        req.CategoryID,
		Priority:          req.Priority,
		CustomFieldValues: req.CustomFieldValues,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	page, err := h.service.ListTickets(c.UserContext(), caller, parseTicketQuery(c))
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, ticketResponse(&page.Items[i]))
	}
	return c.JSON(dto.TicketListResponse{
		Data: items,
		Pagination: dto.PaginationResponse{
			Total:      page.Pagination.Total,
			Page:       page.Pagination.Page,
			Limit:      page.Pagination.Limit,
			TotalPages: page.Pagination.TotalPages,
		},
	})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	detail, err := h.service.GetTicket(c.UserContext(), caller, c.Params("id"))
	if err != nil {
		return err
	}
	comments := make([]dto.CommentResponse, 0, len(detail.Comments))
	for i := range detail.Comments {
		comments = append(comments, commentResponse(&detail.Comments[i]))
	}
	return c.JSON(fiber.Map{"data": dto.TicketDetailResponse{
		TicketResponse: ticketResponse(&detail.Ticket),
		Comments:       comments,
	}})
}

// UpdateTicket PATCH /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	changes := lifecycle.ChangeSet{
		Title:             req.Title,
		Description:       req.Description,
		Status:            req.Status,
		Priority:          req.Priority,
		AgentID:           req.AgentID,
		CustomFieldValues: req.CustomFieldValues,
	}
	ticket, err := h.service.UpdateTicket(c.UserContext(), caller, c.Params("id"), changes, req.ExpectedUpdatedAt)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// AddComment POST /tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	comment, err := h.service.AddComment(c.UserContext(), caller, c.Params("id"), service.CommentInput{
		Content:    req.Content,
		IsInternal: req.IsInternal,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": commentResponse(comment)})
}

// ListAuditLogs GET /tickets/:id/audit-logs.
func (h *TicketsHandler) ListAuditLogs(c *fiber.Ctx) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	entries, err := h.service.ListAuditLog(c.UserContext(), caller, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.AuditLogResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, dto.AuditLogResponse{
			ID:          e.ID,
			TicketID:    e.TicketID,
			ActorID:     e.ActorID,
			Action:      e.Action,
			OldValue:    e.OldValue,
			NewValue:    e.NewValue,
			Description: e.Description,
			CreatedAt:   e.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

func callerOf(c *fiber.Ctx) (domain.Caller, error) {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return domain.Caller{}, apperrors.NewUnauthorized("authentication required")
	}
	return caller, nil
}

func parseTicketQuery(c *fiber.Ctx) service.TicketListFilter {
	filter := service.TicketListFilter{
		Page:  parseInt(c.Query("page"), 1),
		Limit: parseInt(c.Query("limit"), 0),
	}
	for _, part := range splitList(c.Query("status")) {
		filter.Statuses = append(filter.Statuses, domain.TicketStatus(part))
	}
	for _, part := range splitList(c.Query("sla_status")) {
		filter.SLAStatuses = append(filter.SLAStatuses, domain.SLAStatus(part))
	}
	filter.AgentID = optionalQuery(c, "agent_id")
	filter.RequesterID = optionalQuery(c, "requester_id")
	filter.CategoryID = optionalQuery(c, "category_id")
	return filter
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToUpper(part))
		}
	}
	return out
}

func optionalQuery(c *fiber.Ctx, key string) *string {
	val := strings.TrimSpace(c.Query(key))
	if val == "" {
		return nil
	}
	return &val
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func ticketResponse(t *domain.Ticket) dto.TicketResponse {
	custom := t.CustomFieldValues
	if custom == nil {
		custom = map[string]any{}
	}
	return dto.TicketResponse{
		ID:                t.ID,
		Title:             t.Title,
		Description:       t.Description,
		Status:            t.Status,
		Priority:          t.Priority,
		SLAStatus:         t.SLAStatus,
		RequesterID:       t.RequesterID,
		AgentID:           t.AgentID,
		CategoryID:        t.CategoryID,
		CustomFieldValues: custom,
		CreatedAt:         t.CreatedAt,
		FirstResponseDue:  t.FirstResponseDue,
		ResolutionDue:     t.ResolutionDue,
		FirstResponseAt:   t.FirstResponseAt,
		ResolvedAt:        t.ResolvedAt,
		UpdatedAt:         t.UpdatedAt,
	}
}

func commentResponse(cm *domain.Comment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:         cm.ID,
		TicketID:   cm.TicketID,
		AuthorID:   cm.AuthorID,
		IsInternal: cm.IsInternal,
		Content:    cm.Content,
		CreatedAt:  cm.CreatedAt,
	}
}
