package board

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/statekit"
)

// Stage constants for statekit integration.
// These must remain untyped string constants for statekit.StateID compatibility.
const (
	StageOpen      = "open"
	StageStarted   = "started"
	StageCompleted = "completed"
)

// Stage events, sent when a task enters a configured column.
const (
	EventStart    = "start"
	EventComplete = "complete"
)

type stageContext struct {
	TaskID string
}

// StageMachine tracks a task's workflow stage as it enters columns.
type StageMachine struct {
	interpreter *statekit.Interpreter[stageContext]
}

// NewStageMachine builds a machine positioned at initial.
func NewStageMachine(initial, taskID string) (*StageMachine, error) {
	builder := statekit.NewMachine[stageContext]("task-stage").
		WithInitial(statekit.StateID(initial)).
		WithContext(stageContext{TaskID: taskID})

	builder.State(StageOpen).
		On(EventStart).Target(StageStarted).
		On(EventComplete).Target(StageCompleted).
		Done()

	builder.State(StageStarted).
		On(EventStart).Target(StageStarted).
		On(EventComplete).Target(StageCompleted).
		Done()

	// Re-entering a completed column re-stamps completion.
	builder.State(StageCompleted).
		On(EventComplete).Target(StageCompleted).
		Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build stage machine: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()

	return &StageMachine{interpreter: interpreter}, nil
}

// Send delivers event. Events with no transition leave the stage unchanged.
func (sm *StageMachine) Send(event string) {
	sm.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
}

// Current returns the current stage.
func (sm *StageMachine) Current() string {
	return string(sm.interpreter.State().Value)
}

// StageOf derives a task's stage from its metadata.
func StageOf(t *Task) string {
	if v, ok := t.Metadata.String(MetaCompleted); ok && v != "" {
		return StageCompleted
	}
	if v, ok := t.Metadata.String(MetaStarted); ok && v != "" {
		return StageStarted
	}
	return StageOpen
}

// EnterColumn applies column-entry behaviour to t as it enters column and
// returns the resulting stage. A started column stamps the start time only
// once; a completed column stamps completion and full progress every time.
func EnterColumn(idx *Index, t *Task, column string, now time.Time) (string, error) {
	sm, err := NewStageMachine(StageOf(t), t.ID)
	if err != nil {
		return "", err
	}
	if idx.IsStartedColumn(column) {
		t.MarkStarted(now)
		sm.Send(EventStart)
	}
	if idx.IsCompletedColumn(column) {
		t.MarkCompleted(now)
		sm.Send(EventComplete)
	}
	return sm.Current(), nil
}
