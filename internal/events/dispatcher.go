package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher fans ticket events out to in-process subscribers.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	// Subscribe registers a handler for one event type.
	Subscribe(eventType EventType, handler EventHandler)
	// SubscribeAll registers a handler that sees every event type,
	// including ones added later.
	SubscribeAll(handler EventHandler)
}

// HandlerError wraps a failure from one subscriber.
type HandlerError struct {
	Type EventType
	Err  error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("%s handler: %v", e.Type, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }

// ErrHandlerPanic marks a subscriber that panicked instead of returning.
var ErrHandlerPanic = errors.New("event handler panicked")

// syncDispatcher runs subscribers on the publishing goroutine, typed
// handlers first and then wildcard ones, each in registration order.
type syncDispatcher struct {
	mu       sync.RWMutex
	byType   map[EventType][]EventHandler
	wildcard []EventHandler
}

// NewInMemoryDispatcher creates a synchronous dispatcher.
func NewInMemoryDispatcher() Dispatcher {
	return &syncDispatcher{byType: make(map[EventType][]EventHandler)}
}

// Publish delivers the event to every matching handler. A failing or
// panicking handler does not stop the rest; all failures come back joined
// as *HandlerError values.
func (d *syncDispatcher) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, handler := range d.handlersFor(event.Type) {
		if err := invoke(ctx, handler, event); err != nil {
			errs = append(errs, &HandlerError{Type: event.Type, Err: err})
		}
	}
	return errors.Join(errs...)
}

func (d *syncDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byType[eventType] = append(d.byType[eventType], handler)
}

func (d *syncDispatcher) SubscribeAll(handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.wildcard = append(d.wildcard, handler)
}

// handlersFor snapshots the handlers so subscribers may register more
// handlers while an event is being delivered.
func (d *syncDispatcher) handlersFor(eventType EventType) []EventHandler {
	d.mu.RLock()
	defer d.mu.RUnlock()
	typed := d.byType[eventType]
	out := make([]EventHandler, 0, len(typed)+len(d.wildcard))
	out = append(out, typed...)
	return append(out, d.wildcard...)
}

func invoke(ctx context.Context, handler EventHandler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanic, r)
		}
	}()
	return handler(ctx, event)
}
