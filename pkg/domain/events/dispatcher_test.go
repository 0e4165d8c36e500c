package events

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func newTestEvent(eventType string) *BoardEvent {
	e := NewBoardEvent(eventType, "/tmp/board", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	e.TaskID = "fix-login-bug"
	return e
}

func TestDispatcher_PublishRoutesByType(t *testing.T) {
	d := NewDispatcher()

	var got []string
	d.RegisterHandler("moved", func(ctx context.Context, event DomainEvent) error {
		got = append(got, "moved:"+event.AggregateID())
		return nil
	}, TypeTaskMoved)
	d.RegisterHandler("all", func(ctx context.Context, event DomainEvent) error {
		got = append(got, "all:"+event.EventType())
		return nil
	}, Wildcard)

	if err := d.Publish(context.Background(), newTestEvent(TypeTaskMoved)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if err := d.Publish(context.Background(), newTestEvent(TypeTaskAdded)); err != nil {
		t.Fatalf("publish: %v", err)
	}

	want := "moved:fix-login-bug,all:task.moved,all:task.added"
	if strings.Join(got, ",") != want {
		t.Fatalf("calls = %v, want %s", got, want)
	}
	if d.HandlerCount(TypeTaskMoved) != 2 || d.HandlerCount(TypeTaskAdded) != 1 {
		t.Fatal("unexpected handler counts")
	}
}

func TestDispatcher_ContinueOnError(t *testing.T) {
	boom := errors.New("boom")
	d := NewDispatcher()

	ran := 0
	d.RegisterHandler("fails", func(context.Context, DomainEvent) error { return boom }, Wildcard)
	d.RegisterHandler("runs", func(context.Context, DomainEvent) error { ran++; return nil }, Wildcard)

	err := d.Publish(context.Background(), newTestEvent(TypeTaskAdded))
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	var de *DispatchError
	if !errors.As(err, &de) || len(de.Errors) != 1 {
		t.Fatalf("expected DispatchError, got %T", err)
	}
	if ran != 1 {
		t.Fatal("second handler should still run")
	}

	d.ContinueOnError = false
	ran = 0
	if err := d.Publish(context.Background(), newTestEvent(TypeTaskAdded)); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if ran != 0 {
		t.Fatal("dispatch should stop at the first error")
	}
}

func TestLoggingHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	d := NewDispatcher()
	d.Register(NewLoggingHandler(logger).Registration())

	e := newTestEvent(TypeTaskMoved)
	e.Column = "Done"
	e.FromColumn = "Backlog"
	if err := d.Publish(context.Background(), e); err != nil {
		t.Fatalf("publish: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"board event", "event_type=task.moved", "column=Done", "from_column=Backlog"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestRecorder_Limit(t *testing.T) {
	r := NewRecorder(2)
	for _, typ := range []string{TypeTaskAdded, TypeTaskMoved, TypeTaskDeleted} {
		_ = r.Handle(context.Background(), newTestEvent(typ))
	}
	if got := strings.Join(r.Types(), ","); got != "task.moved,task.deleted" {
		t.Fatalf("types = %s", got)
	}
}

func TestNewBoardEvent_UniqueIDs(t *testing.T) {
	a := NewBoardEvent(TypeBoardCreated, "b", time.Now())
	b := NewBoardEvent(TypeBoardCreated, "b", time.Now())
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("ids = %q, %q", a.ID, b.ID)
	}
	if a.AggregateID() != "b" {
		t.Fatalf("aggregate = %q", a.AggregateID())
	}
}
