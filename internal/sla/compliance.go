package sla

import (
	"math"
	"time"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

// ComplianceReport summarizes SLA performance for tickets created in a period.
type ComplianceReport struct {
	Since                   time.Time
	Until                   time.Time
	TotalTickets            int
	RespondedTickets        int
	ResolvedTickets         int
	FirstResponseCompliance int
	ResolutionCompliance    int
	AvgFirstResponseMinutes float64
	AvgResolutionMinutes    float64
	Breached                int
	AtRisk                  int
}

// Compliance computes a report over tickets created in [since, until].
// Percentages are rounded to whole numbers, averages to two decimals.
// First-response compliance is measured against all tickets in the period,
// resolution compliance against resolved tickets only.
func Compliance(tickets []domain.Ticket, since, until time.Time) ComplianceReport {
	report := ComplianceReport{Since: since, Until: until}

	var (
		respondedInTime int
		resolvedInTime  int
		responseTotal   time.Duration
		resolutionTotal time.Duration
	)
	for i := range tickets {
		t := &tickets[i]
		if t.CreatedAt.Before(since) || t.CreatedAt.After(until) {
			continue
		}
		report.TotalTickets++

		if t.FirstResponseAt != nil {
			report.RespondedTickets++
			responseTotal += t.FirstResponseAt.Sub(t.CreatedAt)
			if t.FirstResponseDue != nil && !t.FirstResponseAt.After(*t.FirstResponseDue) {
				respondedInTime++
			}
		}
		if t.ResolvedAt != nil {
			report.ResolvedTickets++
			resolutionTotal += t.ResolvedAt.Sub(t.CreatedAt)
			if t.ResolutionDue != nil && !t.ResolvedAt.After(*t.ResolutionDue) {
				resolvedInTime++
			}
		}

		switch EvaluateTicket(t, until) {
		case domain.SLAStatusBreached:
			report.Breached++
		case domain.SLAStatusAtRisk:
			report.AtRisk++
		}
	}

	report.FirstResponseCompliance = percent(respondedInTime, report.TotalTickets)
	report.ResolutionCompliance = percent(resolvedInTime, report.ResolvedTickets)
	report.AvgFirstResponseMinutes = averageMinutes(responseTotal, report.RespondedTickets)
	report.AvgResolutionMinutes = averageMinutes(resolutionTotal, report.ResolvedTickets)
	return report
}

func percent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}

func averageMinutes(total time.Duration, n int) float64 {
	if n == 0 {
		return 0
	}
	avg := total.Minutes() / float64(n)
	return math.Round(avg*100) / 100
}
