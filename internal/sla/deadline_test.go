package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/helpdesk-sla/internal/domain"
)

func TestCalculateDueDates(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	due := CalculateDueDates(created, 120, 480)

	assert.Equal(t, time.Date(2024, 1, 1, 2, 0, 0, 0, time.UTC), due.FirstResponseDue)
	assert.Equal(t, time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), due.ResolutionDue)

	initial := Evaluate(Timestamps{
		CreatedAt:        created,
		FirstResponseDue: &due.FirstResponseDue,
		ResolutionDue:    &due.ResolutionDue,
	}, created)
	assert.Equal(t, domain.SLAStatusOnTime, initial)
}

func TestCalculateDueDatesKeepsLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	created := time.Date(2024, 3, 10, 23, 30, 0, 0, loc)

	due := CalculateDueDates(created, 45, 24*60)

	assert.Equal(t, time.Date(2024, 3, 11, 0, 15, 0, 0, loc), due.FirstResponseDue)
	assert.Equal(t, time.Date(2024, 3, 11, 23, 30, 0, 0, loc), due.ResolutionDue)
}

func TestCalculateDueDatesClampsHugeBudgets(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	capped := created.Add(MaxSLAMinutes * time.Minute)

	due := CalculateDueDates(created, 200_000_000, MaxSLAMinutes+1)

	assert.Equal(t, capped, due.FirstResponseDue)
	assert.Equal(t, capped, due.ResolutionDue)
	assert.Equal(t, domain.SLAStatusOnTime, Evaluate(Timestamps{
		CreatedAt:        created,
		FirstResponseDue: &due.FirstResponseDue,
		ResolutionDue:    &due.ResolutionDue,
	}, created))
}
