package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

// ReconcileResponse summarizes a manual sweep.
type ReconcileResponse struct {
	Scanned int                 `json:"scanned"`
	Updated int                 `json:"updated"`
	Changes []SLAChangeResponse `json:"changes"`
	Now     time.Time           `json:"now"`
}

// SLAChangeResponse is one ticket moved by a sweep.
type SLAChangeResponse struct {
	TicketID string           `json:"ticket_id"`
	From     domain.SLAStatus `json:"from"`
	To       domain.SLAStatus `json:"to"`
}

// ComplianceResponse is the SLA compliance report.
type ComplianceResponse struct {
	Period                  string    `json:"period"`
	Since                   time.Time `json:"since"`
	Until                   time.Time `json:"until"`
	TotalTickets            int       `json:"total_tickets"`
	RespondedTickets        int       `json:"responded_tickets"`
	ResolvedTickets         int       `json:"resolved_tickets"`
	FirstResponseCompliance int       `json:"first_response_compliance"`
	ResolutionCompliance    int       `json:"resolution_compliance"`
	AvgFirstResponseMinutes float64   `json:"avg_first_response_minutes"`
	AvgResolutionMinutes    float64   `json:"avg_resolution_minutes"`
	Breached                int       `json:"breached"`
	AtRisk                  int       `json:"at_risk"`
}
