package sla

import (
	"time"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

// atRiskDivisor expresses the at-risk threshold: a ticket is at risk when
// less than 1/atRiskDivisor (25%) of its SLA window remains.
const atRiskDivisor = 4

// Timestamps are the only inputs the evaluator depends on.
type Timestamps struct {
	CreatedAt        time.Time
	FirstResponseDue *time.Time
	ResolutionDue    *time.Time
	FirstResponseAt  *time.Time
	ResolvedAt       *time.Time
}

// TimestampsOf extracts evaluator inputs from a ticket.
func TimestampsOf(t *domain.Ticket) Timestamps {
	return Timestamps{
		CreatedAt:        t.CreatedAt,
		FirstResponseDue: t.FirstResponseDue,
		ResolutionDue:    t.ResolutionDue,
		FirstResponseAt:  t.FirstResponseAt,
		ResolvedAt:       t.ResolvedAt,
	}
}

// Evaluate derives the SLA status at now. Rules apply in order and the first
// match wins:
//
//  1. resolved: BREACHED if resolved after the resolution deadline, else ON_TIME.
//  2. unresponded with a first-response deadline: BREACHED past it, AT_RISK
//     inside the last quarter of the window, otherwise fall through.
//  3. resolution deadline: BREACHED past it, AT_RISK inside the last quarter.
//  4. ON_TIME.
func Evaluate(ts Timestamps, now time.Time) domain.SLAStatus {
	if ts.ResolvedAt != nil {
		if ts.ResolutionDue != nil && ts.ResolvedAt.After(*ts.ResolutionDue) {
			return domain.SLAStatusBreached
		}
		return domain.SLAStatusOnTime
	}

	if ts.FirstResponseAt == nil && ts.FirstResponseDue != nil {
		if status, decided := evaluateWindow(ts.CreatedAt, *ts.FirstResponseDue, now); decided {
			return status
		}
	}

	if ts.ResolutionDue != nil {
		if status, decided := evaluateWindow(ts.CreatedAt, *ts.ResolutionDue, now); decided {
			return status
		}
	}

	return domain.SLAStatusOnTime
}

// EvaluateTicket is Evaluate over a ticket's own timestamps.
func EvaluateTicket(t *domain.Ticket, now time.Time) domain.SLAStatus {
	return Evaluate(TimestampsOf(t), now)
}

// evaluateWindow reports BREACHED or AT_RISK for one deadline axis, or
// decided=false when the axis is comfortably on time. A window of zero or
// negative length is at risk until its deadline passes.
func evaluateWindow(createdAt, due, now time.Time) (domain.SLAStatus, bool) {
	if now.After(due) {
		return domain.SLAStatusBreached, true
	}
	total := due.Sub(createdAt)
	if total <= 0 {
		return domain.SLAStatusAtRisk, true
	}
	remaining := due.Sub(now)
	// remaining/total < 1/4 without multiplying, so long windows cannot overflow.
	quarter := total / atRiskDivisor
	if remaining < quarter || (remaining == quarter && total%atRiskDivisor != 0) {
		return domain.SLAStatusAtRisk, true
	}
	return "", false
}
