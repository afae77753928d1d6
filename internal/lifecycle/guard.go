package lifecycle

import (
	"time"

	apperrors "github.com/spec-kit/helpdesk-sla/pkg/util/errorutil"
)

// tokenResolution matches the timestamp precision of the relational store.
const tokenResolution = time.Microsecond

// CheckToken implements the optimistic concurrency guard. A nil expected
// token means last-write-wins.
func CheckToken(expected *time.Time, stored time.Time) error {
	if expected == nil {
		return nil
	}
	if !expected.Equal(stored) {
		return apperrors.NewConflict("ticket was modified by another user", map[string]any{
			"current_updated_at": stored.UTC().Format(time.RFC3339Nano),
		})
	}
	return nil
}

// NextToken returns the commit timestamp for a mutation. It is strictly
// after prev even when the clock has not advanced past it.
func NextToken(prev, now time.Time) time.Time {
	next := now.UTC().Truncate(tokenResolution)
	floor := prev.UTC().Truncate(tokenResolution).Add(tokenResolution)
	if next.Before(floor) {
		return floor
	}
	return next
}
