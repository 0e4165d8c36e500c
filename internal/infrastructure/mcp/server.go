package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/kanbn/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/kanbn/pkg/application"
	"github.com/felixgeelhaar/kanbn/pkg/domain/board"
)

// Server exposes board operations as MCP tools.
type Server struct {
	mcpServer *mcp.Server
	services  *wiring.Services
	logger    *slog.Logger
}

var (
	Version     = "dev"
	BuildCommit = "unknown"
	BuildDate   = "unknown"
)

// NewServer registers the board tools and resources.
func NewServer(services *wiring.Services) (*Server, error) {
	if services == nil {
		return nil, fmt.Errorf("services initialization returned nil")
	}

	info := mcp.ServerInfo{
		Name:    "kanbn",
		Version: Version,
	}

	s := &Server{
		mcpServer: mcp.NewServer(info,
			mcp.WithTitle("Kanbn MCP Server"),
			mcp.WithDescription("Kanbn exposes a markdown kanban board: columns in index.md, one file per task."),
			mcp.WithWebsiteURL("https://github.com/felixgeelhaar/kanbn"),
			mcp.WithBuildInfo(BuildCommit, BuildDate),
			mcp.WithInstructions("Call init_board once, then add, move and update tasks. Every tool accepts kanbn_path to target another board directory."),
		),
		services: services,
		logger:   services.Logger,
	}

	s.registerTools()
	s.registerSchemaResource()
	s.registerBoardResource()
	return s, nil
}

// Response is the envelope every tool returns. Failures carry the error
// kind so clients can branch without parsing messages.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Kind    board.ErrorKind `json:"kind,omitempty"`
	Data    any             `json:"data,omitempty"`
}

// invoke runs fn and wraps its outcome. A panic becomes an Internal failure.
func invoke[T any](ctx context.Context, s *Server, tool string, fn func() (T, error)) (resp *Response) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "tool panicked", "tool", tool, "panic", r, "stack", string(debug.Stack()))
			resp = &Response{Error: fmt.Sprintf("internal error in %s: %v", tool, r), Kind: board.KindInternal}
		}
	}()

	data, err := fn()
	if err != nil {
		kind := board.KindOf(err)
		if kind == board.KindInternal {
			s.logger.ErrorContext(ctx, "tool failed", "tool", tool, "error", err)
		}
		return &Response{Error: err.Error(), Kind: kind}
	}
	return &Response{Success: true, Data: data}
}

func (s *Server) board(path string) *application.BoardService {
	return s.services.ForBoard(path)
}

func (s *Server) registerTools() {
	s.mcpServer.Tool("init_board").
		Description("Create a board: index.md with a title, description and columns").
		Handler(s.handleInitBoard)

	s.mcpServer.Tool("get_board_status").
		Description("Columns with their task identifiers, board options, and any missing or untracked task files").
		Handler(s.handleBoardStatus)

	s.mcpServer.Tool("add_task").
		Description("Create a task file and list it in a column (default Backlog)").
		Handler(s.handleAddTask)

	s.mcpServer.Tool("move_task").
		Description("Move a task to a column; started and completed columns stamp the task").
		Handler(s.handleMoveTask)

	s.mcpServer.Tool("update_task").
		Description("Change task fields. Omitted fields stay; an empty string clears assigned, due, started or completed. A new name renames the task").
		Handler(s.handleUpdateTask)

	s.mcpServer.Tool("get_task").
		Description("Read one task, or every task grouped by column when task_id is empty or \"all\"").
		Handler(s.handleGetTask)

	s.mcpServer.Tool("delete_task").
		Description("Remove a task from its column and delete its file").
		Handler(s.handleDeleteTask)

	s.mcpServer.Tool("add_column").
		Description("Add a column, optionally at a 0-based position (negative counts from the end)").
		Handler(s.handleAddColumn)

	s.mcpServer.Tool("reorder_tasks").
		Description("Set the order of a column; task_ids must be exactly the column's current tasks").
		Handler(s.handleReorderTasks)

	s.mcpServer.Tool("batch_add_tasks").
		Description("Add several tasks in order; failures are reported per task").
		Handler(s.handleBatchAddTasks)

	s.mcpServer.Tool("list_valid_tags").
		Description("The tag vocabulary by category, with workload weights").
		Handler(s.handleListValidTags)

	s.mcpServer.Tool("add_comment").
		Description("Append a dated comment to a task").
		Handler(s.handleAddComment)
}

func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}

func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	return mcp.ServeHTTP(ctx, s.mcpServer, addr, mcp.WithDefaultCORS())
}

func (s *Server) ServeWebSocket(ctx context.Context, addr string) error {
	return mcp.ServeWebSocket(ctx, s.mcpServer, addr)
}

// Serve runs the named transport: stdio, http or ws.
func (s *Server) Serve(ctx context.Context, transport, addr string) error {
	switch transport {
	case "stdio", "":
		return s.ServeStdio(ctx)
	case "http":
		return s.ServeHTTP(ctx, addr)
	case "ws", "websocket":
		return s.ServeWebSocket(ctx, addr)
	default:
		return fmt.Errorf("unknown transport %q (supported: stdio, http, ws)", transport)
	}
}
