package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
	"github.com/spec-kit/helpdesk-sla/internal/events"
	"github.com/spec-kit/helpdesk-sla/internal/repository"
	"github.com/spec-kit/helpdesk-sla/internal/sla"
	apperrors "github.com/spec-kit/helpdesk-sla/pkg/util/errorutil"
)

const defaultReportLimit = 50

// Compliance periods accepted by ComplianceReport.
const (
	Period7Days  = "7d"
	Period30Days = "30d"
)

// SLAService reconciles cached SLA statuses and reports on them.
type SLAService struct {
	store       repository.Store
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	clock       Clock
	tracer      trace.Tracer
	reportLimit int
}

// SLADependencies bundles collaborators for the SLA service.
type SLADependencies struct {
	Store       repository.Store
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
	Clock       Clock
	ReportLimit int
}

// SLAChange is one ticket whose cached status moved during a sweep.
type SLAChange struct {
	TicketID string
	From     domain.SLAStatus
	To       domain.SLAStatus
}

// ReconcileResult summarizes one sweep.
type ReconcileResult struct {
	Scanned int
	Updated int
	Changes []SLAChange
	Now     time.Time
}

// NewSLAService constructs the service.
func NewSLAService(deps SLADependencies) *SLAService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := deps.ReportLimit
	if limit <= 0 {
		limit = defaultReportLimit
	}
	return &SLAService{
		store:       deps.Store,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
		clock:       deps.Clock,
		tracer:      newTracer(),
		reportLimit: limit,
	}
}

// ReconcileNow runs a sweep at the current clock reading.
func (s *SLAService) ReconcileNow(ctx context.Context) (*ReconcileResult, error) {
	return s.Reconcile(ctx, s.clock.now())
}

// Reconcile re-evaluates every non-closed ticket at the fixed instant now
// and persists the statuses that changed as one batch. Either the whole
// batch commits or nothing does. updated_at is left untouched.
func (s *SLAService) Reconcile(ctx context.Context, now time.Time) (*ReconcileResult, error) {
	ctx, span := s.tracer.Start(ctx, "sla.reconcile")
	defer span.End()

	result := &ReconcileResult{Now: now}
	err := s.store.InTx(ctx, func(repos repository.Repositories) error {
		tickets, err := repos.Tickets.List(ctx, repository.TicketFilter{
			ExcludeStatuses: []domain.TicketStatus{domain.TicketStatusClosed},
		})
		if err != nil {
			return err
		}
		result.Scanned = len(tickets)

		var updates []repository.SLAUpdate
		var changes []SLAChange
		for i := range tickets {
			t := &tickets[i]
			next := sla.EvaluateTicket(t, now)
			if next == t.SLAStatus {
				continue
			}
			updates = append(updates, repository.SLAUpdate{TicketID: t.ID, SLAStatus: next})
			changes = append(changes, SLAChange{TicketID: t.ID, From: t.SLAStatus, To: next})
		}

		written, err := repos.Tickets.UpdateSLAStatuses(ctx, updates)
		if err != nil {
			return err
		}
		result.Updated = len(written)
		result.Changes = keepWritten(changes, written)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, apperrors.NewInternalError(err)
	}
	span.SetAttributes(
		attribute.Int("sla.scanned", result.Scanned),
		attribute.Int("sla.updated", result.Updated),
	)

	if result.Updated > 0 {
		s.logger.Info("sla statuses reconciled",
			zap.Int("count", result.Updated),
			zap.Int("scanned", result.Scanned))
	}
	evts := make([]events.Event, 0, len(result.Changes))
	for _, c := range result.Changes {
		evts = append(evts, events.New(events.EventTicketSLAChanged, c.TicketID, events.SystemActor, now,
			events.TicketSLAChangedPayload{OldSLAStatus: c.From, NewSLAStatus: c.To}))
	}
	if err := publish(ctx, s.dispatcher, evts...); err != nil {
		s.logger.Warn("event handlers failed", zap.Error(err))
	}
	return result, nil
}

// ListBreaches returns breached, non-closed tickets, newest first.
func (s *SLAService) ListBreaches(ctx context.Context, caller domain.Caller, limit int) ([]domain.Ticket, error) {
	return s.listBySLAStatus(ctx, caller, domain.SLAStatusBreached, repository.OrderCreatedDesc, limit)
}

// ListAtRisk returns at-risk, non-closed tickets, most urgent first.
func (s *SLAService) ListAtRisk(ctx context.Context, caller domain.Caller, limit int) ([]domain.Ticket, error) {
	return s.listBySLAStatus(ctx, caller, domain.SLAStatusAtRisk, repository.OrderFirstResponseDueAsc, limit)
}

func (s *SLAService) listBySLAStatus(ctx context.Context, caller domain.Caller, status domain.SLAStatus, order repository.TicketOrder, limit int) ([]domain.Ticket, error) {
	if !caller.Role.IsStaff() {
		return nil, apperrors.NewForbidden("only agents and managers can view SLA reports")
	}
	if limit <= 0 || limit > s.reportLimit {
		limit = s.reportLimit
	}
	tickets, err := s.store.Repos().Tickets.List(ctx, repository.TicketFilter{
		SLAStatuses:     []domain.SLAStatus{status},
		ExcludeStatuses: []domain.TicketStatus{domain.TicketStatusClosed},
		Order:           order,
		Limit:           limit,
	})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if tickets == nil {
		tickets = []domain.Ticket{}
	}
	return tickets, nil
}

// ComplianceReport summarizes SLA performance over the last 7 or 30 days.
func (s *SLAService) ComplianceReport(ctx context.Context, caller domain.Caller, period string) (*sla.ComplianceReport, error) {
	if !caller.Role.IsStaff() {
		return nil, apperrors.NewForbidden("only agents and managers can view SLA reports")
	}
	var window time.Duration
	switch period {
	case "", Period7Days:
		window = 7 * 24 * time.Hour
	case Period30Days:
		window = 30 * 24 * time.Hour
	default:
		return nil, apperrors.NewValidationError("period must be 7d or 30d", map[string]any{"period": period})
	}

	until := s.clock.now()
	since := until.Add(-window)
	tickets, err := s.store.Repos().Tickets.List(ctx, repository.TicketFilter{
		CreatedFrom: &since,
		CreatedTo:   &until,
	})
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	report := sla.Compliance(tickets, since, until)
	return &report, nil
}

// keepWritten drops changes for tickets the batch update skipped, such as
// ones closed after they were read.
func keepWritten(changes []SLAChange, written []string) []SLAChange {
	if len(written) == len(changes) {
		return changes
	}
	ok := make(map[string]struct{}, len(written))
	for _, id := range written {
		ok[id] = struct{}{}
	}
	kept := changes[:0]
	for _, c := range changes {
		if _, found := ok[c.TicketID]; found {
			kept = append(kept, c)
		}
	}
	return kept
}
