package domain

import "time"

// Category groups tickets and carries their SLA budgets in minutes.
type Category struct {
	ID               string
	Name             string
	Description      string
	FirstResponseSLA int
	ResolutionSLA    int
	IsActive         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
