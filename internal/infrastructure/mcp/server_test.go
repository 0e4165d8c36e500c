package mcp

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/felixgeelhaar/kanbn/internal/infrastructure/config"
	"github.com/felixgeelhaar/kanbn/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/kanbn/pkg/application"
	"github.com/felixgeelhaar/kanbn/pkg/domain/board"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	for _, key := range []string{config.EnvBoardPath, config.EnvDefaultColumn, config.EnvLogLevel, config.EnvLogFormat, config.EnvTraceExporter, config.EnvTraceEndpoint} {
		t.Setenv(key, "")
	}
	root := t.TempDir()
	services, err := wiring.BuildServices(context.Background(), root, wiring.Overrides{LogOutput: io.Discard})
	if err != nil {
		t.Fatalf("build services: %v", err)
	}
	server, err := NewServer(services)
	if err != nil {
		t.Fatalf("create server: %v", err)
	}
	return server, root
}

func mustSucceed(t *testing.T, out any, err error) *Response {
	t.Helper()
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	resp, ok := out.(*Response)
	if !ok {
		t.Fatalf("expected *Response, got %T", out)
	}
	if !resp.Success {
		t.Fatalf("expected success, got %s: %s", resp.Kind, resp.Error)
	}
	return resp
}

// succeed adapts mustSucceed to a handler's two results.
func succeed(t *testing.T) func(any, error) *Response {
	return func(out any, err error) *Response {
		t.Helper()
		return mustSucceed(t, out, err)
	}
}

func mustFail(t *testing.T, out any, err error, kind board.ErrorKind) *Response {
	t.Helper()
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	resp := out.(*Response)
	if resp.Success {
		t.Fatalf("expected failure %s, got success", kind)
	}
	if resp.Kind != kind {
		t.Fatalf("kind = %s, want %s (%s)", resp.Kind, kind, resp.Error)
	}
	return resp
}

func TestNewServer_NilServices(t *testing.T) {
	if _, err := NewServer(nil); err == nil {
		t.Fatal("expected error for nil services")
	}
}

func TestServer_BoardWorkflow(t *testing.T) {
	s, root := newTestServer(t)
	ctx := context.Background()

	out, err := s.handleBoardStatus(ctx, BoardArgs{})
	mustFail(t, out, err, board.KindNotFound)

	out, err = s.handleInitBoard(ctx, InitBoardArgs{Name: "Roadmap", Description: "Q3 work"})
	mustSucceed(t, out, err)
	out, err = s.handleInitBoard(ctx, InitBoardArgs{Name: "Roadmap"})
	mustFail(t, out, err, board.KindAlreadyExists)

	out, err = s.handleAddTask(ctx, AddTaskArgs{TaskFields: TaskFields{Name: "Setup FastAPI Project", Tags: []string{"Backend", "Large", "Tiny"}}})
	resp := mustSucceed(t, out, err)
	added := resp.Data.(*application.TaskAdded)
	if added.TaskID != "setup-fast-api-project" || added.Column != "Backlog" {
		t.Fatalf("added = %+v", added)
	}
	if _, err := os.Stat(filepath.Join(root, ".kanbn", "tasks", "setup-fast-api-project.md")); err != nil {
		t.Fatalf("task file missing: %v", err)
	}

	out, err = s.handleAddTask(ctx, AddTaskArgs{TaskFields: TaskFields{Name: "Setup FastAPI project"}})
	mustFail(t, out, err, board.KindIdentifierCollision)
	out, err = s.handleAddTask(ctx, AddTaskArgs{TaskFields: TaskFields{Name: "x", Column: "Nope"}})
	mustFail(t, out, err, board.KindUnknownColumn)

	out, err = s.handleMoveTask(ctx, MoveTaskArgs{TaskID: "setup-fast-api-project", Column: "In Progress"})
	moved := mustSucceed(t, out, err).Data.(*application.TaskMoved)
	if moved.FromColumn != "Backlog" || moved.ToColumn != "In Progress" {
		t.Fatalf("moved = %+v", moved)
	}

	name := "Bootstrap API"
	progress := FlexFloat(0.5)
	out, err = s.handleUpdateTask(ctx, UpdateTaskArgs{TaskID: "setup-fast-api-project", Name: &name, Progress: &progress})
	updated := mustSucceed(t, out, err).Data.(*application.TaskUpdated)
	if !updated.Renamed || updated.TaskID != "bootstrap-api" {
		t.Fatalf("updated = %+v", updated)
	}

	out, err = s.handleGetTask(ctx, TaskArgs{TaskID: "bootstrap-api"})
	view := mustSucceed(t, out, err).Data.(*application.TaskView)
	if view.Column != "In Progress" || view.Task.Progress() != 0.5 {
		t.Fatalf("view = %+v", view)
	}

	out, err = s.handleGetTask(ctx, TaskArgs{TaskID: "all"})
	list := mustSucceed(t, out, err).Data.(*application.TaskList)
	if list.Total != 1 {
		t.Fatalf("list total = %d", list.Total)
	}

	out, err = s.handleAddComment(ctx, AddCommentArgs{TaskID: "bootstrap-api", Text: "looks good"})
	comment := mustSucceed(t, out, err).Data.(*application.CommentAdded)
	if comment.Author != application.DefaultCommentAuthor {
		t.Fatalf("comment = %+v", comment)
	}

	out, err = s.handleDeleteTask(ctx, TaskArgs{TaskID: "bootstrap-api"})
	deleted := mustSucceed(t, out, err).Data.(*application.TaskDeleted)
	if !deleted.FileExisted || deleted.RemovedFrom != "In Progress" {
		t.Fatalf("deleted = %+v", deleted)
	}
}

func TestServer_UpdateClearsOptionalFields(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()
	succeed(t)(s.handleInitBoard(ctx, InitBoardArgs{Name: "B"}))
	succeed(t)(s.handleAddTask(ctx, AddTaskArgs{TaskFields: TaskFields{Name: "Task", Assigned: "ana"}}))

	empty := ""
	subtasks := []SubTaskArgs{{Text: "write tests", Completed: true}}
	succeed(t)(s.handleUpdateTask(ctx, UpdateTaskArgs{TaskID: "task", Assigned: &empty, SubTasks: &subtasks}))

	out, err := s.handleGetTask(ctx, TaskArgs{TaskID: "task"})
	task := mustSucceed(t, out, err).Data.(*application.TaskView).Task
	if task.Metadata.Has("assigned") {
		t.Fatal("assigned should be cleared")
	}
	if len(task.SubTasks) != 1 || !task.SubTasks[0].Completed {
		t.Fatalf("subtasks = %+v", task.SubTasks)
	}
}

func TestServer_ColumnsAndReorder(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()
	succeed(t)(s.handleInitBoard(ctx, InitBoardArgs{Name: "B", Columns: []string{"Todo", "Done"}}))
	for _, name := range []string{"A", "B", "C"} {
		succeed(t)(s.handleAddTask(ctx, AddTaskArgs{TaskFields: TaskFields{Name: name, Column: "Todo"}}))
	}

	pos := FlexInt(1)
	out, err := s.handleAddColumn(ctx, AddColumnArgs{Name: "Review", Position: &pos})
	added := mustSucceed(t, out, err).Data.(*application.ColumnAdded)
	if strings.Join(added.Columns, ",") != "Todo,Review,Done" {
		t.Fatalf("columns = %v", added.Columns)
	}
	out, err = s.handleAddColumn(ctx, AddColumnArgs{Name: "Review"})
	mustFail(t, out, err, board.KindAlreadyExists)

	out, err = s.handleReorderTasks(ctx, ReorderTasksArgs{Column: "Todo", TaskIDs: []string{"c", "a", "b"}})
	reordered := mustSucceed(t, out, err).Data.(*application.TasksReordered)
	if strings.Join(reordered.NewOrder, ",") != "c,a,b" {
		t.Fatalf("order = %v", reordered.NewOrder)
	}
	out, err = s.handleReorderTasks(ctx, ReorderTasksArgs{Column: "Todo", TaskIDs: []string{"c", "a"}})
	mustFail(t, out, err, board.KindSetMismatch)
	out, err = s.handleReorderTasks(ctx, ReorderTasksArgs{Column: "Nope", TaskIDs: nil})
	mustFail(t, out, err, board.KindUnknownColumn)
}

func TestServer_BatchAddTasks(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()
	succeed(t)(s.handleInitBoard(ctx, InitBoardArgs{Name: "B"}))

	out, err := s.handleBatchAddTasks(ctx, BatchAddTasksArgs{
		Column: "In Progress",
		Tasks: []TaskFields{
			{Name: "One"},
			{Name: "Two", Column: "Done"},
			{Name: "one"},
		},
	})
	result := mustSucceed(t, out, err).Data.(*application.BatchResult)
	if result.CreatedCount != 2 || result.FailedCount != 1 || result.Success {
		t.Fatalf("result = %+v", result)
	}
	if result.Created[0].Column != "In Progress" || result.Created[1].Column != "Done" {
		t.Fatalf("created = %+v %+v", result.Created[0], result.Created[1])
	}

	out, err = s.handleBatchAddTasks(ctx, BatchAddTasksArgs{Tasks: []TaskFields{{Name: ""}, {Name: "Three"}}})
	result = mustSucceed(t, out, err).Data.(*application.BatchResult)
	if result.Success || result.CreatedCount != 1 || result.Created[0].TaskID != "three" {
		t.Fatalf("result = %+v", result)
	}
	if len(result.Failed) != 1 || result.Failed[0].Index != 0 || result.Failed[0].Kind != board.KindInvalidInput {
		t.Fatalf("failed = %+v", result.Failed)
	}
}

func TestServer_PerCallBoardPath(t *testing.T) {
	s, root := newTestServer(t)
	ctx := context.Background()
	other := filepath.Join(root, "other-board")

	succeed(t)(s.handleInitBoard(ctx, InitBoardArgs{BoardArgs: BoardArgs{KanbnPath: other}, Name: "Other"}))
	succeed(t)(s.handleAddTask(ctx, AddTaskArgs{BoardArgs: BoardArgs{KanbnPath: other}, TaskFields: TaskFields{Name: "Elsewhere"}}))

	if _, err := os.Stat(filepath.Join(other, "tasks", "elsewhere.md")); err != nil {
		t.Fatalf("task not written to other board: %v", err)
	}
	out, err := s.handleBoardStatus(ctx, BoardArgs{})
	mustFail(t, out, err, board.KindNotFound)
}

func TestServer_ListValidTags(t *testing.T) {
	s, _ := newTestServer(t)
	out, err := s.handleListValidTags(context.Background(), struct{}{})
	catalog := mustSucceed(t, out, err).Data.(board.TagCatalog)
	if len(catalog.Workload) == 0 {
		t.Fatal("expected workload tags")
	}
}

func TestInvoke_RecoversPanic(t *testing.T) {
	s, _ := newTestServer(t)
	resp := invoke(context.Background(), s, "boom", func() (any, error) {
		panic("kaboom")
	})
	if resp.Success || resp.Kind != board.KindInternal || !strings.Contains(resp.Error, "kaboom") {
		t.Fatalf("resp = %+v", resp)
	}
}

func TestResponseEnvelopeJSON(t *testing.T) {
	data, err := json.Marshal(&Response{Error: "task not found", Kind: board.KindNotFound})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"success":false,"error":"task not found","kind":"NotFound"}` {
		t.Fatalf("envelope = %s", data)
	}
}

func TestServe_UnknownTransport(t *testing.T) {
	s, _ := newTestServer(t)
	if err := s.Serve(context.Background(), "carrier-pigeon", ""); err == nil {
		t.Fatal("expected error for unknown transport")
	}
}
