package events

import (
	"context"
	"log/slog"
	"sync"
)

// LoggingHandler logs every event at debug level.
type LoggingHandler struct {
	logger *slog.Logger
}

// NewLoggingHandler creates a new LoggingHandler.
func NewLoggingHandler(logger *slog.Logger) *LoggingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingHandler{logger: logger}
}

// Handle logs the event details.
func (h *LoggingHandler) Handle(ctx context.Context, event DomainEvent) error {
	attrs := []any{
		"event_type", event.EventType(),
		"aggregate_id", event.AggregateID(),
		"occurred_at", event.OccurredAt(),
	}
	if be, ok := event.(*BoardEvent); ok {
		attrs = append(attrs, "event_id", be.ID, "board", be.Board)
		if be.Column != "" {
			attrs = append(attrs, "column", be.Column)
		}
		if be.FromColumn != "" {
			attrs = append(attrs, "from_column", be.FromColumn)
		}
	}
	h.logger.DebugContext(ctx, "board event", attrs...)
	return nil
}

// Registration returns the wildcard registration for this handler.
func (h *LoggingHandler) Registration() Registration {
	return Registration{
		Name:       "LoggingHandler",
		Handler:    h.Handle,
		EventTypes: []string{Wildcard},
	}
}

// Recorder keeps every event it receives. The dashboard uses it to show
// recent activity.
type Recorder struct {
	mu     sync.Mutex
	events []DomainEvent
	limit  int
}

// NewRecorder keeps at most limit events; zero keeps everything.
func NewRecorder(limit int) *Recorder {
	return &Recorder{limit: limit}
}

// Handle records event.
func (r *Recorder) Handle(_ context.Context, event DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)
	if r.limit > 0 && len(r.events) > r.limit {
		r.events = r.events[len(r.events)-r.limit:]
	}
	return nil
}

// Events returns a copy of the recorded events, oldest first.
func (r *Recorder) Events() []DomainEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]DomainEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the recorded event types, oldest first.
func (r *Recorder) Types() []string {
	events := r.Events()
	types := make([]string, len(events))
	for i, e := range events {
		types[i] = e.EventType()
	}
	return types
}
