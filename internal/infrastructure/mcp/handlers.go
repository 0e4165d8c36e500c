package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/kanbn/pkg/application"
	"github.com/felixgeelhaar/kanbn/pkg/domain/board"
)

// BoardArgs selects the board. Every tool embeds it.
type BoardArgs struct {
	KanbnPath string `json:"kanbn_path,omitempty" jsonschema:"description=Board directory (default: the configured .kanbn)"`
}

type InitBoardArgs struct {
	BoardArgs
	Name        string         `json:"name" jsonschema:"description=Board name"`
	Description string         `json:"description,omitempty" jsonschema:"description=Board description"`
	Columns     []string       `json:"columns,omitempty" jsonschema:"description=Column names in display order (default: Backlog then In Progress then Done then Archive)"`
	Options     map[string]any `json:"options,omitempty" jsonschema:"description=Board options such as startedColumns and completedColumns"`
}

func (s *Server) handleInitBoard(ctx context.Context, args InitBoardArgs) (any, error) {
	return invoke(ctx, s, "init_board", func() (*application.BoardCreated, error) {
		return s.board(args.KanbnPath).CreateBoard(ctx, application.CreateBoardInput{
			Name:        args.Name,
			Description: args.Description,
			Columns:     args.Columns,
			Options:     args.Options,
		})
	}), nil
}

func (s *Server) handleBoardStatus(ctx context.Context, args BoardArgs) (any, error) {
	return invoke(ctx, s, "get_board_status", func() (*application.BoardStatus, error) {
		return s.board(args.KanbnPath).Status(ctx)
	}), nil
}

// TaskFields describes a new task.
type TaskFields struct {
	Name        string   `json:"name" jsonschema:"description=Task name; the identifier is derived from it"`
	Description string   `json:"description,omitempty" jsonschema:"description=Task description"`
	Column      string   `json:"column,omitempty" jsonschema:"description=Column to add the task to (default: Backlog)"`
	Tags        []string `json:"tags,omitempty" jsonschema:"description=Tags from list_valid_tags; exactly one workload tag is kept"`
	Assigned    string   `json:"assigned,omitempty" jsonschema:"description=Assignee"`
	Due         string   `json:"due,omitempty" jsonschema:"description=Due date"`
	Started     string   `json:"started,omitempty" jsonschema:"description=Start date"`
	Completed   string   `json:"completed,omitempty" jsonschema:"description=Completion date; forces progress to 1"`
	SubTasks    []string `json:"subtasks,omitempty" jsonschema:"description=Sub-task descriptions"`
}

type AddTaskArgs struct {
	BoardArgs
	TaskFields
}

func (a TaskFields) input() application.AddTaskInput {
	return application.AddTaskInput{
		Name:        a.Name,
		Description: a.Description,
		Column:      a.Column,
		Tags:        a.Tags,
		Assigned:    a.Assigned,
		Due:         a.Due,
		Started:     a.Started,
		Completed:   a.Completed,
		SubTasks:    a.SubTasks,
	}
}

func (s *Server) handleAddTask(ctx context.Context, args AddTaskArgs) (any, error) {
	return invoke(ctx, s, "add_task", func() (*application.TaskAdded, error) {
		in := args.input()
		if in.Column == "" {
			in.Column = s.services.Config.DefaultColumn
		}
		return s.board(args.KanbnPath).AddTask(ctx, in)
	}), nil
}

type MoveTaskArgs struct {
	BoardArgs
	TaskID string `json:"task_id" jsonschema:"description=Task identifier"`
	Column string `json:"column" jsonschema:"description=Target column"`
}

func (s *Server) handleMoveTask(ctx context.Context, args MoveTaskArgs) (any, error) {
	return invoke(ctx, s, "move_task", func() (*application.TaskMoved, error) {
		return s.board(args.KanbnPath).MoveTask(ctx, args.TaskID, args.Column)
	}), nil
}

type SubTaskArgs struct {
	Text      string   `json:"text" jsonschema:"description=Sub-task text"`
	Completed FlexBool `json:"completed,omitempty" jsonschema:"description=Whether the sub-task is done"`
}

// UpdateTaskArgs uses pointers so that an omitted field and an empty
// value stay distinct.
type UpdateTaskArgs struct {
	BoardArgs
	TaskID      string         `json:"task_id" jsonschema:"description=Task identifier"`
	Name        *string        `json:"name,omitempty" jsonschema:"description=New name; renames the task file when the identifier changes"`
	Description *string        `json:"description,omitempty" jsonschema:"description=New description"`
	Tags        *[]string      `json:"tags,omitempty" jsonschema:"description=Replacement tag list"`
	Assigned    *string        `json:"assigned,omitempty" jsonschema:"description=Assignee; empty clears"`
	Due         *string        `json:"due,omitempty" jsonschema:"description=Due date; empty clears"`
	Started     *string        `json:"started,omitempty" jsonschema:"description=Start date; empty clears"`
	Completed   *string        `json:"completed,omitempty" jsonschema:"description=Completion date; empty clears"`
	Progress    *FlexFloat     `json:"progress,omitempty" jsonschema:"description=Progress between 0 and 1"`
	SubTasks    *[]SubTaskArgs `json:"subtasks,omitempty" jsonschema:"description=Replacement sub-task list"`
}

func (a UpdateTaskArgs) update() board.TaskUpdate {
	u := board.TaskUpdate{
		Name:        board.FromPtr(a.Name),
		Description: board.FromPtr(a.Description),
		Tags:        board.FromPtr(a.Tags),
		Assigned:    board.FromPtr(a.Assigned),
		Due:         board.FromPtr(a.Due),
		Started:     board.FromPtr(a.Started),
		Completed:   board.FromPtr(a.Completed),
	}
	if a.Progress != nil {
		u.Progress = board.Some(float64(*a.Progress))
	}
	if a.SubTasks != nil {
		subtasks := make([]board.SubTask, 0, len(*a.SubTasks))
		for _, st := range *a.SubTasks {
			subtasks = append(subtasks, board.SubTask{Text: st.Text, Completed: bool(st.Completed)})
		}
		u.SubTasks = board.Some(subtasks)
	}
	return u
}

func (s *Server) handleUpdateTask(ctx context.Context, args UpdateTaskArgs) (any, error) {
	return invoke(ctx, s, "update_task", func() (*application.TaskUpdated, error) {
		return s.board(args.KanbnPath).UpdateTask(ctx, args.TaskID, args.update())
	}), nil
}

type TaskArgs struct {
	BoardArgs
	TaskID string `json:"task_id,omitempty" jsonschema:"description=Task identifier"`
}

func (s *Server) handleGetTask(ctx context.Context, args TaskArgs) (any, error) {
	id := strings.TrimSpace(args.TaskID)
	if id == "" || strings.EqualFold(id, "all") {
		return invoke(ctx, s, "get_task", func() (*application.TaskList, error) {
			return s.board(args.KanbnPath).ListTasks(ctx)
		}), nil
	}
	return invoke(ctx, s, "get_task", func() (*application.TaskView, error) {
		return s.board(args.KanbnPath).GetTask(ctx, id)
	}), nil
}

func (s *Server) handleDeleteTask(ctx context.Context, args TaskArgs) (any, error) {
	return invoke(ctx, s, "delete_task", func() (*application.TaskDeleted, error) {
		return s.board(args.KanbnPath).DeleteTask(ctx, args.TaskID)
	}), nil
}

type AddColumnArgs struct {
	BoardArgs
	Name     string   `json:"name" jsonschema:"description=Column name"`
	Position *FlexInt `json:"position,omitempty" jsonschema:"description=0-based position (default: end)"`
}

func (s *Server) handleAddColumn(ctx context.Context, args AddColumnArgs) (any, error) {
	return invoke(ctx, s, "add_column", func() (*application.ColumnAdded, error) {
		var pos *int
		if args.Position != nil {
			p := int(*args.Position)
			pos = &p
		}
		return s.board(args.KanbnPath).AddColumn(ctx, args.Name, pos)
	}), nil
}

type ReorderTasksArgs struct {
	BoardArgs
	Column  string   `json:"column" jsonschema:"description=Column to reorder"`
	TaskIDs []string `json:"task_ids" jsonschema:"description=Every task of the column in the new order"`
}

func (s *Server) handleReorderTasks(ctx context.Context, args ReorderTasksArgs) (any, error) {
	return invoke(ctx, s, "reorder_tasks", func() (*application.TasksReordered, error) {
		return s.board(args.KanbnPath).ReorderTasks(ctx, args.Column, args.TaskIDs)
	}), nil
}

type BatchAddTasksArgs struct {
	BoardArgs
	Column string       `json:"column,omitempty" jsonschema:"description=Default column for tasks without one"`
	Tasks  []TaskFields `json:"tasks" jsonschema:"description=Tasks to add in order"`
}

func (s *Server) handleBatchAddTasks(ctx context.Context, args BatchAddTasksArgs) (any, error) {
	return invoke(ctx, s, "batch_add_tasks", func() (*application.BatchResult, error) {
		file := application.BatchFile{Column: args.Column, Tasks: make([]application.AddTaskInput, 0, len(args.Tasks))}
		for _, t := range args.Tasks {
			file.Tasks = append(file.Tasks, t.input())
		}
		// Re-validate against the batch file schema so both entry points
		// accept the same documents.
		data, err := json.Marshal(file)
		if err != nil {
			return nil, fmt.Errorf("encode batch: %w", err)
		}
		parsed, err := application.ParseBatch(data)
		if err != nil {
			return nil, err
		}
		column := parsed.Column
		if column == "" {
			column = s.services.Config.DefaultColumn
		}
		return s.board(args.KanbnPath).BatchAddTasks(ctx, parsed.Tasks, column)
	}), nil
}

func (s *Server) handleListValidTags(ctx context.Context, _ struct{}) (any, error) {
	return invoke(ctx, s, "list_valid_tags", func() (board.TagCatalog, error) {
		return s.services.Board.ValidTags(), nil
	}), nil
}

type AddCommentArgs struct {
	BoardArgs
	TaskID string `json:"task_id" jsonschema:"description=Task identifier"`
	Author string `json:"author,omitempty" jsonschema:"description=Comment author (default: Unknown)"`
	Text   string `json:"text" jsonschema:"description=Comment text"`
}

func (s *Server) handleAddComment(ctx context.Context, args AddCommentArgs) (any, error) {
	return invoke(ctx, s, "add_comment", func() (*application.CommentAdded, error) {
		return s.board(args.KanbnPath).AddComment(ctx, args.TaskID, args.Author, args.Text)
	}), nil
}
