package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-sla/internal/api/dto"
	"github.com/spec-kit/helpdesk-sla/internal/domain"
	"github.com/spec-kit/helpdesk-sla/internal/service"
)

// SLAHandler serves SLA reports and manual reconciliation.
type SLAHandler struct {
	service *service.SLAService
}

// NewSLAHandler constructs handler.
func NewSLAHandler(slaService *service.SLAService) *SLAHandler {
	return &SLAHandler{service: slaService}
}

// Breaches GET /sla/breaches.
func (h *SLAHandler) Breaches(c *fiber.Ctx) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.ListBreaches(c.UserContext(), caller, parseInt(c.Query("limit"), 0))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketList(tickets)})
}

// AtRisk GET /sla/at-risk.
func (h *SLAHandler) AtRisk(c *fiber.Ctx) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.ListAtRisk(c.UserContext(), caller, parseInt(c.Query("limit"), 0))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketList(tickets)})
}

// Compliance GET /sla/compliance?period=7d|30d.
func (h *SLAHandler) Compliance(c *fiber.Ctx) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	period := c.Query("period", service.Period7Days)
	report, err := h.service.ComplianceReport(c.UserContext(), caller, period)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ComplianceResponse{
		Period:                  period,
		Since:                   report.Since,
		Until:                   report.Until,
		TotalTickets:            report.TotalTickets,
		RespondedTickets:        report.RespondedTickets,
		ResolvedTickets:         report.ResolvedTickets,
		FirstResponseCompliance: report.FirstResponseCompliance,
		ResolutionCompliance:    report.ResolutionCompliance,
		AvgFirstResponseMinutes: report.AvgFirstResponseMinutes,
		AvgResolutionMinutes:    report.AvgResolutionMinutes,
		Breached:                report.Breached,
		AtRisk:                  report.AtRisk,
	}})
}

// Reconcile POST /sla/reconcile.
func (h *SLAHandler) Reconcile(c *fiber.Ctx) error {
	result, err := h.service.ReconcileNow(c.UserContext())
	if err != nil {
		return err
	}
	changes := make([]dto.SLAChangeResponse, 0, len(result.Changes))
	for _, ch := range result.Changes {
		changes = append(changes, dto.SLAChangeResponse{TicketID: ch.TicketID, From: ch.From, To: ch.To})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"data": dto.ReconcileResponse{
		Scanned: result.Scanned,
		Updated: result.Updated,
		Changes: changes,
		Now:     result.Now,
	}})
}

func ticketList(tickets []domain.Ticket) []dto.TicketResponse {
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return items
}
