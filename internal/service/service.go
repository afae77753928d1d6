package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/spec-kit/helpdesk-sla/internal/events"
	"github.com/spec-kit/helpdesk-sla/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-sla/pkg/util/errorutil"
)

const tracerName = "helpdesk-sla/service"

// Clock returns the current time. Services read it once per operation.
type Clock func() time.Time

// now returns the clock reading at the storage timestamp resolution.
func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC().Truncate(time.Microsecond)
	}
	return c().UTC().Truncate(time.Microsecond)
}

func newTracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// mapRepoError converts repository sentinels into domain errors.
func mapRepoError(err error, resource, id string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource, map[string]any{"id": id})
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.NewConflict(resource+" already exists", nil)
	case errors.Is(err, repository.ErrStaleToken):
		return apperrors.NewConflict(resource+" was modified by another user", map[string]any{"id": id})
	}
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return apperrors.NewInternalError(err)
}

func publish(ctx context.Context, dispatcher events.Dispatcher, evts ...events.Event) error {
	if dispatcher == nil {
		return nil
	}
	var errs []error
	for _, event := range evts {
		if err := dispatcher.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
