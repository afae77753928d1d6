package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-sla/internal/audit"
	"github.com/spec-kit/helpdesk-sla/internal/domain"
	"github.com/spec-kit/helpdesk-sla/internal/events"
	"github.com/spec-kit/helpdesk-sla/internal/lifecycle"
	"github.com/spec-kit/helpdesk-sla/internal/repository"
	"github.com/spec-kit/helpdesk-sla/internal/sla"
	apperrors "github.com/spec-kit/helpdesk-sla/pkg/util/errorutil"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
	bodyPreviewLen   = 140
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	store      repository.Store
	machine    *lifecycle.StateMachine
	recorder   *audit.Recorder
	dispatcher events.Dispatcher
	logger     *zap.Logger
	clock      Clock
	tracer     trace.Tracer
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Store      repository.Store
	Policy     lifecycle.TransitionPolicy
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      Clock
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title             string
	Description       string
	CategoryID        string
	Priority          domain.TicketPriority
	CustomFieldValues map[string]any
}

// TicketListFilter describes listing filters.
type TicketListFilter struct {
	Statuses    []domain.TicketStatus
	SLAStatuses []domain.SLAStatus
	AgentID     *string
	RequesterID *string
	CategoryID  *string
	Page        int
	Limit       int
}

// Pagination describes a page of results.
type Pagination struct {
	Total      int
	Page       int
	Limit      int
	TotalPages int
}

// TicketPage is one page of tickets.
type TicketPage struct {
	Items      []domain.Ticket
	Pagination Pagination
}

// TicketDetail is a ticket with the comments visible to the caller.
type TicketDetail struct {
	Ticket   domain.Ticket
	Comments []domain.Comment
}

// CommentInput describes a new comment.
type CommentInput struct {
	Content    string
	IsInternal bool
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		store:      deps.Store,
		machine:    lifecycle.NewStateMachine(deps.Policy),
		recorder:   audit.NewRecorder(),
		dispatcher: deps.Dispatcher,
		logger:     logger,
		clock:      deps.Clock,
		tracer:     newTracer(),
	}
}

// CreateTicket opens a ticket for the caller, stamping its SLA deadlines
// from the category.
func (s *TicketService) CreateTicket(ctx context.Context, caller domain.Caller, input TicketCreateInput) (*domain.Ticket, error) {
	ctx, span := s.tracer.Start(ctx, "ticket.create")
	defer span.End()

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required", nil)
	}
	if strings.TrimSpace(input.CategoryID) == "" {
		return nil, apperrors.NewValidationError("categoryId is required", nil)
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": priority})
	}

	now := s.clock.now()
	ticket := &domain.Ticket{
		ID:                uuid.NewString(),
		Title:             title,
		Description:       strings.TrimSpace(input.Description),
		Status:            domain.TicketStatusOpen,
		Priority:          priority,
		RequesterID:       caller.UserID,
		CategoryID:        input.CategoryID,
		CustomFieldValues: input.CustomFieldValues,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if ticket.CustomFieldValues == nil {
		ticket.CustomFieldValues = map[string]any{}
	}

	err := s.store.InTx(ctx, func(repos repository.Repositories) error {
		category, err := repos.Categories.GetByID(ctx, input.CategoryID)
		if err != nil {
			return mapRepoError(err, "category", input.CategoryID)
		}
		if !category.IsActive {
			return apperrors.NewNotFound("category", map[string]any{"id": input.CategoryID})
		}

		due := sla.CalculateDueDates(now, category.FirstResponseSLA, category.ResolutionSLA)
		ticket.FirstResponseDue = &due.FirstResponseDue
		ticket.ResolutionDue = &due.ResolutionDue
		ticket.SLAStatus = sla.EvaluateTicket(ticket, now)

		if err := repos.Tickets.Create(ctx, ticket); err != nil {
			return apperrors.NewInternalError(err)
		}
		return s.recorder.TicketCreated(ctx, repos.AuditLogs, ticket, caller.UserID)
	})
	if err != nil {
		span.RecordError(err)
		return nil, mapRepoError(err, "ticket", ticket.ID)
	}
	span.SetAttributes(attribute.String("ticket.id", ticket.ID))

	s.publishEvents(ctx, events.New(events.EventTicketCreated, ticket.ID, caller.UserID, now, events.TicketCreatedPayload{
		CategoryID:       ticket.CategoryID,
		Priority:         ticket.Priority,
		Title:            ticket.Title,
		SLAStatus:        ticket.SLAStatus,
		FirstResponseDue: ticket.FirstResponseDue,
		ResolutionDue:    ticket.ResolutionDue,
	}))
	return ticket, nil
}

// GetTicket returns a ticket and the comments visible to the caller. The
// returned SLA status is evaluated at the current time; nothing is written.
func (s *TicketService) GetTicket(ctx context.Context, caller domain.Caller, ticketID string) (*TicketDetail, error) {
	repos := s.store.Repos()
	ticket, err := repos.Tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapRepoError(err, "ticket", ticketID)
	}
	if err := ensureCanView(caller, ticket); err != nil {
		return nil, err
	}
	comments, err := repos.Comments.ListByTicket(ctx, ticketID, caller.Role.IsStaff())
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	ticket.SLAStatus = sla.EvaluateTicket(ticket, s.clock.now())
	return &TicketDetail{Ticket: *ticket, Comments: comments}, nil
}

// ListTickets returns a page of tickets. Requesters only see their own.
func (s *TicketService) ListTickets(ctx context.Context, caller domain.Caller, filter TicketListFilter) (*TicketPage, error) {
	page, limit := normalizePage(filter.Page, filter.Limit)
	repoFilter := repository.TicketFilter{
		Statuses:    filter.Statuses,
		SLAStatuses: filter.SLAStatuses,
		AgentID:     filter.AgentID,
		RequesterID: filter.RequesterID,
		CategoryID:  filter.CategoryID,
		Order:       repository.OrderCreatedDesc,
		Limit:       limit,
		Offset:      (page - 1) * limit,
	}
	if !caller.Role.IsStaff() {
		repoFilter.RequesterID = &caller.UserID
	}

	repos := s.store.Repos()
	total, err := repos.Tickets.Count(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	items, err := repos.Tickets.List(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	now := s.clock.now()
	for i := range items {
		items[i].SLAStatus = sla.EvaluateTicket(&items[i], now)
	}
	if items == nil {
		items = []domain.Ticket{}
	}

	return &TicketPage{
		Items: items,
		Pagination: Pagination{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: (total + limit - 1) / limit,
		},
	}, nil
}

// UpdateTicket applies a change set. The mutation and its audit entries
// commit together. A non-nil expectedUpdatedAt must match the stored
// version or the call fails with a conflict and changes nothing.
func (s *TicketService) UpdateTicket(ctx context.Context, caller domain.Caller, ticketID string, changes lifecycle.ChangeSet, expectedUpdatedAt *time.Time) (*domain.Ticket, error) {
	ctx, span := s.tracer.Start(ctx, "ticket.update", trace.WithAttributes(
		attribute.String("ticket.id", ticketID),
		attribute.StringSlice("ticket.fields", changes.Fields()),
	))
	defer span.End()

	now := s.clock.now()
	var (
		current *domain.Ticket
		result  *domain.Ticket
		applied []domain.FieldChange
	)
	err := s.store.InTx(ctx, func(repos repository.Repositories) error {
		var err error
		current, err = repos.Tickets.GetForUpdate(ctx, ticketID)
		if err != nil {
			return mapRepoError(err, "ticket", ticketID)
		}
		if err := lifecycle.CheckRolePolicy(caller, current, changes); err != nil {
			return err
		}
		if err := lifecycle.CheckToken(expectedUpdatedAt, current.UpdatedAt); err != nil {
			return err
		}

		next, fieldChanges, err := s.machine.Apply(current, changes, caller, now)
		if err != nil {
			return err
		}
		if len(fieldChanges) == 0 {
			result = next
			return nil
		}

		next.UpdatedAt = lifecycle.NextToken(current.UpdatedAt, now)
		if err := repos.Tickets.Update(ctx, next, current.UpdatedAt); err != nil {
			return mapRepoError(err, "ticket", ticketID)
		}
		if err := s.recorder.FieldChanges(ctx, repos.AuditLogs, ticketID, caller.UserID, fieldChanges, now); err != nil {
			return err
		}
		result, applied = next, fieldChanges
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, mapRepoError(err, "ticket", ticketID)
	}

	if len(applied) > 0 {
		s.logger.Info("ticket updated",
			zap.String("ticket_id", ticketID),
			zap.String("actor_id", caller.UserID),
			zap.Int("changes", len(applied)))
		s.publishEvents(ctx, changeEvents(current, result, caller.UserID, applied, now)...)
	}
	return result, nil
}

// AddComment records a comment. A first non-requester comment stamps the
// ticket's first response in the same transaction.
func (s *TicketService) AddComment(ctx context.Context, caller domain.Caller, ticketID string, input CommentInput) (*domain.Comment, error) {
	ctx, span := s.tracer.Start(ctx, "ticket.comment", trace.WithAttributes(attribute.String("ticket.id", ticketID)))
	defer span.End()

	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, apperrors.NewValidationError("content is required", nil)
	}

	now := s.clock.now()
	comment := &domain.Comment{
		ID:         uuid.NewString(),
		TicketID:   ticketID,
		AuthorID:   caller.UserID,
		IsInternal: input.IsInternal,
		Content:    content,
		CreatedAt:  now,
	}
	var firstResponse bool
	err := s.store.InTx(ctx, func(repos repository.Repositories) error {
		ticket, err := repos.Tickets.GetForUpdate(ctx, ticketID)
		if err != nil {
			return mapRepoError(err, "ticket", ticketID)
		}
		if err := ensureCanView(caller, ticket); err != nil {
			return err
		}
		if comment.IsInternal && !caller.Role.IsStaff() {
			return apperrors.NewForbidden("requesters cannot add internal comments")
		}

		if err := repos.Comments.Create(ctx, comment); err != nil {
			return apperrors.NewInternalError(err)
		}
		if err := s.recorder.Commented(ctx, repos.AuditLogs, comment); err != nil {
			return err
		}

		next := ticket.Clone()
		if !lifecycle.RecordFirstResponse(next, comment, caller.Role) {
			return nil
		}
		firstResponse = true
		next.SLAStatus = sla.EvaluateTicket(next, now)
		next.UpdatedAt = lifecycle.NextToken(ticket.UpdatedAt, now)
		return mapRepoError(repos.Tickets.Update(ctx, next, ticket.UpdatedAt), "ticket", ticketID)
	})
	if err != nil {
		span.RecordError(err)
		return nil, mapRepoError(err, "ticket", ticketID)
	}

	s.publishEvents(ctx, events.New(events.EventTicketCommented, ticketID, caller.UserID, now, events.TicketCommentedPayload{
		CommentID:     comment.ID,
		IsInternal:    comment.IsInternal,
		FirstResponse: firstResponse,
		BodyPreview:   preview(comment.Content),
	}))
	return comment, nil
}

// ListAuditLog returns a ticket's audit trail, newest first. Staff only.
func (s *TicketService) ListAuditLog(ctx context.Context, caller domain.Caller, ticketID string) ([]domain.AuditLogEntry, error) {
	if !caller.Role.IsStaff() {
		return nil, apperrors.NewForbidden("only agents and managers can view audit logs")
	}
	repos := s.store.Repos()
	if _, err := repos.Tickets.GetByID(ctx, ticketID); err != nil {
		return nil, mapRepoError(err, "ticket", ticketID)
	}
	entries, err := repos.AuditLogs.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if entries == nil {
		entries = []domain.AuditLogEntry{}
	}
	return entries, nil
}

func (s *TicketService) publishEvents(ctx context.Context, evts ...events.Event) {
	if err := publish(ctx, s.dispatcher, evts...); err != nil {
		s.logger.Warn("event handlers failed", zap.Error(err))
	}
}

func ensureCanView(caller domain.Caller, ticket *domain.Ticket) error {
	if caller.Role.IsStaff() {
		return nil
	}
	if caller.Role != domain.UserRoleRequester || ticket.RequesterID != caller.UserID {
		return apperrors.NewForbidden("you can only access your own tickets")
	}
	return nil
}

func changeEvents(before, after *domain.Ticket, actorID string, applied []domain.FieldChange, at time.Time) []events.Event {
	var (
		evts    []events.Event
		updated []string
	)
	for _, change := range applied {
		switch change.Field {
		case domain.FieldStatus:
			evts = append(evts, events.New(events.EventTicketStatusChanged, after.ID, actorID, at, events.TicketStatusChangedPayload{
				OldStatus: before.Status,
				NewStatus: after.Status,
			}))
		case domain.FieldAgentID:
			evts = append(evts, events.New(events.EventTicketAssigned, after.ID, actorID, at, events.TicketAssignedPayload{
				OldAgentID: before.AgentID,
				NewAgentID: after.AgentID,
			}))
		default:
			updated = append(updated, change.Field)
		}
	}
	if len(updated) > 0 {
		evts = append(evts, events.New(events.EventTicketUpdated, after.ID, actorID, at, events.TicketUpdatedPayload{Fields: updated}))
	}
	return evts
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case limit <= 0:
		limit = defaultPageLimit
	case limit > maxPageLimit:
		limit = maxPageLimit
	}
	return page, limit
}

func preview(content string) string {
	runes := []rune(content)
	if len(runes) <= bodyPreviewLen {
		return content
	}
	return string(runes[:bodyPreviewLen]) + "..."
}
