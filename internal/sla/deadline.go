package sla

import "time"

// MaxSLAMinutes caps an SLA budget at ten years.
const MaxSLAMinutes = 10 * 365 * 24 * 60

// DueDates are the two deadlines stamped on a ticket at creation.
type DueDates struct {
	FirstResponseDue time.Time
	ResolutionDue    time.Time
}

// CalculateDueDates offsets createdAt by the category SLA budgets, given in
// minutes. Budgets above MaxSLAMinutes are clamped to it.
func CalculateDueDates(createdAt time.Time, firstResponseMinutes, resolutionMinutes int) DueDates {
	return DueDates{
		FirstResponseDue: createdAt.Add(budget(firstResponseMinutes)),
		ResolutionDue:    createdAt.Add(budget(resolutionMinutes)),
	}
}

func budget(minutes int) time.Duration {
	if minutes > MaxSLAMinutes {
		minutes = MaxSLAMinutes
	}
	return time.Duration(minutes) * time.Minute
}
