package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/kanbn/pkg/domain/board"
)

// SchemaVersion is the current MCP tool schema version (semver).
const SchemaVersion = "1.0.0"

const (
	schemaURI = "kanbn://schema"
	boardURI  = "kanbn://board"
)

type schemaResponse struct {
	SchemaVersion string            `json:"schema_version"`
	ServerVersion string            `json:"server_version"`
	Tools         []string          `json:"tools"`
	ErrorKinds    []board.ErrorKind `json:"error_kinds"`
}

// ToolNames lists the registered tools in registration order.
var ToolNames = []string{
	"init_board", "get_board_status", "add_task", "move_task", "update_task", "get_task",
	"delete_task", "add_column", "reorder_tasks", "batch_add_tasks", "list_valid_tags", "add_comment",
}

func (s *Server) registerSchemaResource() {
	s.mcpServer.Resource(schemaURI).
		Name(schemaURI).
		Description("MCP tool schema version, tool list and failure kinds").
		MimeType("application/json").
		Handler(func(_ context.Context, _ string, _ map[string]string) (*mcplib.ResourceContent, error) {
			resp := schemaResponse{
				SchemaVersion: SchemaVersion,
				ServerVersion: Version,
				Tools:         ToolNames,
				ErrorKinds: []board.ErrorKind{
					board.KindNotFound, board.KindAlreadyExists, board.KindUnknownColumn,
					board.KindIdentifierCollision, board.KindSetMismatch, board.KindInvalidInput,
					board.KindInternal,
				},
			}
			return jsonResource(schemaURI, resp)
		})
}

func (s *Server) registerBoardResource() {
	s.mcpServer.Resource(boardURI).
		Name(boardURI).
		Description("Status of the configured board").
		MimeType("application/json").
		Handler(func(ctx context.Context, _ string, _ map[string]string) (*mcplib.ResourceContent, error) {
			status, err := s.services.Board.Status(ctx)
			if err != nil {
				return nil, err
			}
			return jsonResource(boardURI, status)
		})
}

func jsonResource(uri string, v any) (*mcplib.ResourceContent, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &mcplib.ResourceContent{
		URI:      uri,
		MimeType: "application/json",
		Text:     string(data),
	}, nil
}
