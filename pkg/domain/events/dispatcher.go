package events

import (
	"context"
	"fmt"
	"sync"
)

// Wildcard registers a handler for every event type.
const Wildcard = "*"

// HandlerFunc handles a published event.
type HandlerFunc func(ctx context.Context, event DomainEvent) error

// Registration binds a named handler to event types.
type Registration struct {
	Name       string
	EventTypes []string
	Handler    HandlerFunc
}

type namedHandler struct {
	name    string
	handler HandlerFunc
}

// Dispatcher fans events out to registered handlers. It implements Publisher.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]namedHandler
	// ContinueOnError runs every handler even when one fails.
	ContinueOnError bool
}

// NewDispatcher returns a dispatcher that keeps going past handler errors.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers:        make(map[string][]namedHandler),
		ContinueOnError: true,
	}
}

// Register adds a handler registration.
func (d *Dispatcher) Register(reg Registration) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, eventType := range reg.EventTypes {
		d.handlers[eventType] = append(d.handlers[eventType], namedHandler{name: reg.Name, handler: reg.Handler})
	}
}

// RegisterHandler registers handler for eventTypes.
func (d *Dispatcher) RegisterHandler(name string, handler HandlerFunc, eventTypes ...string) {
	d.Register(Registration{Name: name, Handler: handler, EventTypes: eventTypes})
}

// Publish delivers event to the handlers for its type, then to wildcard handlers.
func (d *Dispatcher) Publish(ctx context.Context, event DomainEvent) error {
	d.mu.RLock()
	handlers := make([]namedHandler, 0, len(d.handlers[event.EventType()])+len(d.handlers[Wildcard]))
	handlers = append(handlers, d.handlers[event.EventType()]...)
	handlers = append(handlers, d.handlers[Wildcard]...)
	d.mu.RUnlock()

	var errs []error
	for _, nh := range handlers {
		if err := nh.handler(ctx, event); err != nil {
			err = fmt.Errorf("handler %s failed for event %s: %w", nh.name, event.EventType(), err)
			if !d.ContinueOnError {
				return err
			}
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return &DispatchError{Errors: errs}
	}
	return nil
}

// HandlerCount returns how many handlers would receive eventType.
func (d *Dispatcher) HandlerCount(eventType string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	count := len(d.handlers[eventType])
	if eventType != Wildcard {
		count += len(d.handlers[Wildcard])
	}
	return count
}

// DispatchError collects the failures of one publish.
type DispatchError struct {
	Errors []error
}

func (e *DispatchError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("multiple dispatch errors (%d)", len(e.Errors))
}

// Unwrap exposes every collected error to errors.Is and errors.As.
func (e *DispatchError) Unwrap() []error {
	return e.Errors
}
