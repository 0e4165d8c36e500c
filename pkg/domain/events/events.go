// Package events defines the events a board publishes after a change is
// written to disk.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DomainEvent is the base interface for all domain events.
type DomainEvent interface {
	EventType() string
	AggregateID() string
	OccurredAt() time.Time
}

// Board event types.
const (
	TypeBoardCreated   = "board.created"
	TypeColumnAdded    = "column.added"
	TypeTaskAdded      = "task.added"
	TypeTaskMoved      = "task.moved"
	TypeTaskUpdated    = "task.updated"
	TypeTaskRenamed    = "task.renamed"
	TypeTaskDeleted    = "task.deleted"
	TypeTasksReordered = "tasks.reordered"
	TypeCommentAdded   = "comment.added"
)

// BoardEvent records one completed board operation.
type BoardEvent struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Board      string         `json:"board"`
	TaskID     string         `json:"task_id,omitempty"`
	Column     string         `json:"column,omitempty"`
	FromColumn string         `json:"from_column,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// NewBoardEvent returns an event with a fresh ID.
func NewBoardEvent(eventType, board string, at time.Time) *BoardEvent {
	return &BoardEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Board:     board,
		Timestamp: at,
	}
}

func (e *BoardEvent) EventType() string { return e.Type }

// AggregateID is the task the event concerns, or the board path.
func (e *BoardEvent) AggregateID() string {
	if e.TaskID != "" {
		return e.TaskID
	}
	return e.Board
}

func (e *BoardEvent) OccurredAt() time.Time { return e.Timestamp }

// Publisher receives events after the change they describe is saved.
type Publisher interface {
	Publish(ctx context.Context, event DomainEvent) error
}

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, DomainEvent) error { return nil }
