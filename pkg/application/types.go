package application

import (
	"github.com/felixgeelhaar/kanbn/pkg/document"
	"github.com/felixgeelhaar/kanbn/pkg/domain/board"
)

// DefaultCommentAuthor signs comments added without an author.
const DefaultCommentAuthor = "Unknown"

// CreateBoardInput describes a new board.
type CreateBoardInput struct {
	Name        string
	Description string
	Columns     []string
	Options     map[string]any
}

// BoardCreated is the result of CreateBoard.
type BoardCreated struct {
	Path    string   `json:"path"`
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

// ColumnStatus summarises one column.
type ColumnStatus struct {
	Name      string   `json:"name"`
	Count     int      `json:"count"`
	Tasks     []string `json:"tasks"`
	Hidden    bool     `json:"hidden"`
	Started   bool     `json:"started"`
	Completed bool     `json:"completed"`
}

// BoardStatus is the result of Status.
type BoardStatus struct {
	Path        string           `json:"path"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Options     *document.Header `json:"options"`
	Columns     []ColumnStatus   `json:"columns"`
	TotalTasks  int              `json:"total_tasks"`
	// Missing lists indexed identifiers with no task file.
	Missing []string `json:"missing"`
	// Untracked lists task files the index does not reference.
	Untracked []string `json:"untracked"`
}

// AddTaskInput describes a task to create.
type AddTaskInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Column      string   `json:"column,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Assigned    string   `json:"assigned,omitempty"`
	Due         string   `json:"due,omitempty"`
	Started     string   `json:"started,omitempty"`
	Completed   string   `json:"completed,omitempty"`
	SubTasks    []string `json:"subtasks,omitempty"`
}

func (in AddTaskInput) draft() board.TaskDraft {
	return board.TaskDraft{
		Name:        in.Name,
		Description: in.Description,
		Tags:        in.Tags,
		Assigned:    in.Assigned,
		Due:         in.Due,
		Started:     in.Started,
		Completed:   in.Completed,
		SubTasks:    in.SubTasks,
	}
}

// TaskAdded is the result of AddTask.
type TaskAdded struct {
	TaskID      string   `json:"task_id"`
	Column      string   `json:"column"`
	FilePath    string   `json:"file_path"`
	Stage       string   `json:"stage"`
	InvalidTags []string `json:"invalid_tags,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
}

// TaskMoved is the result of MoveTask. FromColumn is empty when the task
// was not indexed; Stage is empty when it has no file.
type TaskMoved struct {
	TaskID     string `json:"task_id"`
	FromColumn string `json:"from_column"`
	ToColumn   string `json:"to_column"`
	Stage      string `json:"stage,omitempty"`
}

// TaskUpdated is the result of UpdateTask.
type TaskUpdated struct {
	TaskID         string   `json:"task_id"`
	PreviousTaskID string   `json:"previous_task_id,omitempty"`
	FilePath       string   `json:"file_path"`
	Renamed        bool     `json:"renamed"`
	InvalidTags    []string `json:"invalid_tags,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
}

// TaskView is a task and the column listing it, empty when unindexed.
type TaskView struct {
	Column string      `json:"column"`
	Task   *board.Task `json:"task"`
}

// TaskList is the result of ListTasks.
type TaskList struct {
	Total    int                 `json:"total"`
	Tasks    []*TaskView         `json:"tasks"`
	ByColumn map[string][]string `json:"by_column"`
}

// TaskDeleted is the result of DeleteTask.
type TaskDeleted struct {
	TaskID      string `json:"task_id"`
	RemovedFrom string `json:"removed_from,omitempty"`
	FileExisted bool   `json:"file_existed"`
}

// ColumnAdded is the result of AddColumn.
type ColumnAdded struct {
	Column  string   `json:"column"`
	Columns []string `json:"columns"`
}

// TasksReordered is the result of ReorderTasks.
type TasksReordered struct {
	Column        string   `json:"column"`
	PreviousOrder []string `json:"previous_order"`
	NewOrder      []string `json:"new_order"`
}

// BatchFailure reports one task a batch could not add.
type BatchFailure struct {
	Index int             `json:"index"`
	Name  string          `json:"name,omitempty"`
	Error string          `json:"error"`
	Kind  board.ErrorKind `json:"kind"`
}

// BatchResult is the result of BatchAddTasks.
type BatchResult struct {
	BatchID      string         `json:"batch_id"`
	Created      []*TaskAdded   `json:"created"`
	Failed       []BatchFailure `json:"failed"`
	CreatedCount int            `json:"created_count"`
	FailedCount  int            `json:"failed_count"`
	Success      bool           `json:"success"`
}

// CommentAdded is the result of AddComment.
type CommentAdded struct {
	TaskID   string `json:"task_id"`
	Author   string `json:"author"`
	Date     string `json:"date"`
	Comments int    `json:"comments"`
}
