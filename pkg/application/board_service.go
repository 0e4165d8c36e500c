// Package application coordinates board operations so that the index and
// the task files stay consistent for a single writer.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/kanbn/pkg/document"
	"github.com/felixgeelhaar/kanbn/pkg/domain/board"
	"github.com/felixgeelhaar/kanbn/pkg/domain/events"
)

// TracerName is the instrumentation scope of board spans.
const TracerName = "github.com/felixgeelhaar/kanbn"

var (
	attrBoard  = attribute.Key("kanbn.board")
	attrTaskID = attribute.Key("kanbn.task.id")
	attrColumn = attribute.Key("kanbn.column")
)

// BoardService runs every board operation as load, mutate, save. Nothing is
// cached between calls.
type BoardService struct {
	repo      board.Repository
	vocab     board.TagVocabulary
	publisher events.Publisher
	logger    *slog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// Option configures a BoardService.
type Option func(*BoardService)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *BoardService) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *BoardService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithVocabulary sets the tag vocabulary.
func WithVocabulary(v board.TagVocabulary) Option {
	return func(s *BoardService) {
		if v != nil {
			s.vocab = v
		}
	}
}

// WithPublisher sets the event publisher.
func WithPublisher(p events.Publisher) Option {
	return func(s *BoardService) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithTracer sets the tracer.
func WithTracer(t trace.Tracer) Option {
	return func(s *BoardService) {
		if t != nil {
			s.tracer = t
		}
	}
}

func NewBoardService(repo board.Repository, opts ...Option) *BoardService {
	s := &BoardService{
		repo:      repo,
		vocab:     board.DefaultVocabulary(),
		publisher: events.NopPublisher{},
		logger:    slog.Default(),
		tracer:    otel.Tracer(TracerName),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the board directory.
func (s *BoardService) Path() string {
	return s.repo.Path()
}

func (s *BoardService) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attrBoard.String(s.repo.Path()))
	return s.tracer.Start(ctx, "kanbn."+op,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (s *BoardService) finish(ctx context.Context, span trace.Span, op string, err error) {
	defer span.End()
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.logger.DebugContext(ctx, "board operation failed",
		"operation", op,
		"board", s.repo.Path(),
		"kind", board.KindOf(err),
		"error", err)
}

func (s *BoardService) publish(ctx context.Context, e *events.BoardEvent) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.WarnContext(ctx, "event handler failed", "event_type", e.Type, "error", err)
	}
}

func (s *BoardService) event(eventType string, at time.Time) *events.BoardEvent {
	return events.NewBoardEvent(eventType, s.repo.Path(), at)
}

func (s *BoardService) warnDropped(ctx context.Context, id string, dropped []string) []string {
	if len(dropped) == 0 {
		return nil
	}
	s.logger.WarnContext(ctx, "ignoring invalid tags", "task_id", id, "tags", dropped)
	return []string{"ignored invalid tags: " + strings.Join(dropped, ", ")}
}

// CreateBoard writes a new board index. It fails if one exists.
func (s *BoardService) CreateBoard(ctx context.Context, in CreateBoardInput) (_ *BoardCreated, err error) {
	ctx, span := s.start(ctx, "CreateBoard")
	defer func() { s.finish(ctx, span, "create board", err) }()

	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: board name is empty", board.ErrInvalidInput)
	}
	if s.repo.IndexExists() {
		return nil, fmt.Errorf("%w: board at %s", board.ErrAlreadyExists, s.repo.Path())
	}

	options, err := optionsHeader(in.Options)
	if err != nil {
		return nil, err
	}
	idx := board.NewIndex(strings.TrimSpace(in.Name), in.Description, in.Columns, options)
	if err := s.repo.SaveIndex(idx); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "board created", "path", s.repo.Path(), "columns", idx.Columns())
	s.publish(ctx, s.event(events.TypeBoardCreated, s.now()))
	return &BoardCreated{
		Path:    s.repo.Path(),
		Name:    idx.Name,
		Columns: idx.Columns(),
	}, nil
}

func optionsHeader(options map[string]any) (*document.Header, error) {
	if len(options) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(options))
	for k := range options {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := document.NewHeader()
	for _, k := range keys {
		if err := h.Set(k, options[k]); err != nil {
			return nil, fmt.Errorf("%w: option %q: %v", board.ErrInvalidInput, k, err)
		}
	}
	return h, nil
}

// Status summarises the board and reports index entries without a file
// and task files the index does not list.
func (s *BoardService) Status(ctx context.Context) (_ *BoardStatus, err error) {
	ctx, span := s.start(ctx, "Status")
	defer func() { s.finish(ctx, span, "status", err) }()

	idx, err := s.repo.LoadIndex()
	if err != nil {
		return nil, err
	}
	files, err := s.repo.ListTaskIDs()
	if err != nil {
		return nil, err
	}

	st := &BoardStatus{
		Path:        s.repo.Path(),
		Name:        idx.Name,
		Description: idx.Description,
		Options:     idx.Options.Clone(),
		Missing:     []string{},
		Untracked:   []string{},
	}
	for _, c := range idx.ColumnTasks() {
		if c.Tasks == nil {
			c.Tasks = []string{}
		}
		st.Columns = append(st.Columns, ColumnStatus{
			Name:      c.Name,
			Count:     len(c.Tasks),
			Tasks:     c.Tasks,
			Hidden:    idx.IsHiddenColumn(c.Name),
			Started:   idx.IsStartedColumn(c.Name),
			Completed: idx.IsCompletedColumn(c.Name),
		})
		st.TotalTasks += len(c.Tasks)
	}

	indexed := idx.AllTasks()
	for _, id := range indexed {
		if !slices.Contains(files, id) {
			st.Missing = append(st.Missing, id)
		}
	}
	for _, id := range files {
		if !slices.Contains(indexed, id) {
			st.Untracked = append(st.Untracked, id)
		}
	}
	return st, nil
}

// AddTask creates a task file and lists it in a column.
func (s *BoardService) AddTask(ctx context.Context, in AddTaskInput) (_ *TaskAdded, err error) {
	column := in.Column
	if column == "" {
		column = board.DefaultColumn
	}
	ctx, span := s.start(ctx, "AddTask", attrColumn.String(column))
	defer func() { s.finish(ctx, span, "add task", err) }()

	idx, err := s.repo.LoadIndex()
	if err != nil {
		return nil, err
	}
	if !idx.HasColumn(column) {
		return nil, &board.UnknownColumnError{Column: column}
	}
	id := board.Slugify(in.Name)
	if id == "" {
		return nil, fmt.Errorf("%w: %q", board.ErrEmptyIdentifier, in.Name)
	}
	span.SetAttributes(attrTaskID.String(id))
	if s.repo.TaskExists(id) {
		return nil, &board.CollisionError{ID: id, Name: in.Name}
	}

	now := s.now()
	task, dropped := board.NewTask(id, in.draft(), s.vocabulary(idx), now)
	idx.AddTaskToColumn(id, column)
	stage, err := board.EnterColumn(idx, task, column, now)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateTask(task); err != nil {
		return nil, err
	}
	if err := s.repo.SaveIndex(idx); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "task added", "task_id", id, "column", column)
	e := s.event(events.TypeTaskAdded, now)
	e.TaskID, e.Column = id, column
	s.publish(ctx, e)

	return &TaskAdded{
		TaskID:      id,
		Column:      column,
		FilePath:    s.repo.TaskPath(id),
		Stage:       stage,
		InvalidTags: dropped,
		Warnings:    s.warnDropped(ctx, id, dropped),
	}, nil
}

// MoveTask moves a task to column and applies that column's entry behaviour
// when the task file exists.
func (s *BoardService) MoveTask(ctx context.Context, id, column string) (_ *TaskMoved, err error) {
	ctx, span := s.start(ctx, "MoveTask", attrTaskID.String(id), attrColumn.String(column))
	defer func() { s.finish(ctx, span, "move task", err) }()

	if err := board.ValidateID(id); err != nil {
		return nil, fmt.Errorf("%w: %q", err, id)
	}
	idx, err := s.repo.LoadIndex()
	if err != nil {
		return nil, err
	}
	previous, err := idx.MoveTask(id, column)
	if err != nil {
		return nil, err
	}

	now := s.now()
	result := &TaskMoved{TaskID: id, FromColumn: previous, ToColumn: column}
	if s.repo.TaskExists(id) {
		task, err := s.repo.LoadTask(id)
		if err != nil {
			return nil, err
		}
		task.Touch(now)
		if result.Stage, err = board.EnterColumn(idx, task, column, now); err != nil {
			return nil, err
		}
		if err := s.repo.SaveTask(task); err != nil {
			return nil, err
		}
	} else {
		s.logger.WarnContext(ctx, "moved task has no file", "task_id", id)
	}
	if err := s.repo.SaveIndex(idx); err != nil {
		return nil, err
	}

	e := s.event(events.TypeTaskMoved, now)
	e.TaskID, e.Column, e.FromColumn = id, column, previous
	s.publish(ctx, e)
	return result, nil
}

// UpdateTask applies a partial update. A changed name renames the task: the
// file moves to the new identifier and the index entry is replaced in place.
// The file rename and the index save are separate writes.
func (s *BoardService) UpdateTask(ctx context.Context, id string, u board.TaskUpdate) (_ *TaskUpdated, err error) {
	ctx, span := s.start(ctx, "UpdateTask", attrTaskID.String(id))
	defer func() { s.finish(ctx, span, "update task", err) }()

	if err := board.ValidateID(id); err != nil {
		return nil, fmt.Errorf("%w: %q", err, id)
	}
	idx, err := s.repo.LoadIndex()
	if err != nil {
		return nil, err
	}
	if !s.repo.TaskExists(id) {
		return nil, fmt.Errorf("%w: task %q", board.ErrNotFound, id)
	}

	newID := id
	if name, ok := u.Name.Get(); ok {
		newID = board.Slugify(name)
		if newID == "" {
			return nil, fmt.Errorf("%w: %q", board.ErrEmptyIdentifier, name)
		}
		if newID != id && s.repo.TaskExists(newID) {
			return nil, &board.CollisionError{ID: newID, Name: name}
		}
	}

	task, err := s.repo.LoadTask(id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	dropped := task.Apply(u, s.vocabulary(idx), now)
	if err := s.repo.SaveTask(task); err != nil {
		return nil, err
	}

	result := &TaskUpdated{
		TaskID:      id,
		FilePath:    s.repo.TaskPath(id),
		InvalidTags: dropped,
		Warnings:    s.warnDropped(ctx, id, dropped),
	}
	if newID != id {
		if err := s.rename(ctx, idx, id, newID); err != nil {
			return nil, err
		}
		result.PreviousTaskID = id
		result.TaskID = newID
		result.FilePath = s.repo.TaskPath(newID)
		result.Renamed = true

		e := s.event(events.TypeTaskRenamed, now)
		e.TaskID = newID
		e.Metadata = map[string]any{"previous_task_id": id}
		s.publish(ctx, e)
	}

	e := s.event(events.TypeTaskUpdated, now)
	e.TaskID = result.TaskID
	s.publish(ctx, e)
	return result, nil
}

func (s *BoardService) rename(ctx context.Context, idx *board.Index, oldID, newID string) error {
	if err := s.repo.RenameTask(oldID, newID); err != nil {
		return err
	}

	column, ok := idx.ReplaceTask(oldID, newID)
	if !ok {
		s.logger.InfoContext(ctx, "renamed task was not indexed", "task_id", newID)
		return nil
	}
	if err := s.repo.SaveIndex(idx); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "task renamed", "from", oldID, "to", newID, "column", column)
	return nil
}

// GetTask loads one task together with the column listing it.
func (s *BoardService) GetTask(ctx context.Context, id string) (_ *TaskView, err error) {
	ctx, span := s.start(ctx, "GetTask", attrTaskID.String(id))
	defer func() { s.finish(ctx, span, "get task", err) }()

	if err := board.ValidateID(id); err != nil {
		return nil, fmt.Errorf("%w: %q", err, id)
	}
	idx, err := s.repo.LoadIndex()
	if err != nil {
		return nil, err
	}
	task, err := s.repo.LoadTask(id)
	if err != nil {
		return nil, err
	}
	column, _ := idx.FindTaskColumn(id)
	return &TaskView{Column: column, Task: task}, nil
}

// ListTasks loads every indexed task that has a file, in board order.
func (s *BoardService) ListTasks(ctx context.Context) (_ *TaskList, err error) {
	ctx, span := s.start(ctx, "ListTasks")
	defer func() { s.finish(ctx, span, "list tasks", err) }()

	idx, err := s.repo.LoadIndex()
	if err != nil {
		return nil, err
	}
	list := &TaskList{Tasks: []*TaskView{}, ByColumn: map[string][]string{}}
	seen := map[string]bool{}
	for _, c := range idx.ColumnTasks() {
		list.ByColumn[c.Name] = []string{}
		for _, id := range c.Tasks {
			if seen[id] || !s.repo.TaskExists(id) {
				continue
			}
			seen[id] = true
			task, err := s.repo.LoadTask(id)
			if err != nil {
				s.logger.WarnContext(ctx, "skipping unreadable task", "task_id", id, "error", err)
				continue
			}
			list.Tasks = append(list.Tasks, &TaskView{Column: c.Name, Task: task})
			list.ByColumn[c.Name] = append(list.ByColumn[c.Name], id)
		}
	}
	list.Total = len(list.Tasks)
	return list, nil
}

// DeleteTask removes a task from the index, then deletes its file.
func (s *BoardService) DeleteTask(ctx context.Context, id string) (_ *TaskDeleted, err error) {
	ctx, span := s.start(ctx, "DeleteTask", attrTaskID.String(id))
	defer func() { s.finish(ctx, span, "delete task", err) }()

	if err := board.ValidateID(id); err != nil {
		return nil, fmt.Errorf("%w: %q", err, id)
	}
	idx, err := s.repo.LoadIndex()
	if err != nil {
		return nil, err
	}
	result := &TaskDeleted{TaskID: id}
	if column, ok := idx.FindTaskColumn(id); ok {
		idx.RemoveTaskFromColumn(id, column)
		if err := s.repo.SaveIndex(idx); err != nil {
			return nil, err
		}
		result.RemovedFrom = column
	}
	if result.FileExisted, err = s.repo.DeleteTask(id); err != nil {
		return nil, err
	}

	e := s.event(events.TypeTaskDeleted, s.now())
	e.TaskID, e.Column = id, result.RemovedFrom
	s.publish(ctx, e)
	return result, nil
}

// AddColumn inserts a column. A nil position appends.
func (s *BoardService) AddColumn(ctx context.Context, name string, position *int) (_ *ColumnAdded, err error) {
	ctx, span := s.start(ctx, "AddColumn", attrColumn.String(name))
	defer func() { s.finish(ctx, span, "add column", err) }()

	idx, err := s.repo.LoadIndex()
	if err != nil {
		return nil, err
	}
	if err := idx.AddColumn(name, position); err != nil {
		return nil, err
	}
	if err := s.repo.SaveIndex(idx); err != nil {
		return nil, err
	}

	e := s.event(events.TypeColumnAdded, s.now())
	e.Column = name
	s.publish(ctx, e)
	return &ColumnAdded{Column: name, Columns: idx.Columns()}, nil
}

// ReorderTasks replaces the order of a column.
func (s *BoardService) ReorderTasks(ctx context.Context, column string, order []string) (_ *TasksReordered, err error) {
	ctx, span := s.start(ctx, "ReorderTasks", attrColumn.String(column))
	defer func() { s.finish(ctx, span, "reorder tasks", err) }()

	idx, err := s.repo.LoadIndex()
	if err != nil {
		return nil, err
	}
	previous, err := idx.ReorderTasks(column, order)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SaveIndex(idx); err != nil {
		return nil, err
	}

	e := s.event(events.TypeTasksReordered, s.now())
	e.Column = column
	s.publish(ctx, e)
	if previous == nil {
		previous = []string{}
	}
	return &TasksReordered{Column: column, PreviousOrder: previous, NewOrder: idx.Tasks(column)}, nil
}

// BatchAddTasks adds each task independently. Tasks without a column go to
// defaultColumn. A failure does not stop the batch.
func (s *BoardService) BatchAddTasks(ctx context.Context, tasks []AddTaskInput, defaultColumn string) (_ *BatchResult, err error) {
	ctx, span := s.start(ctx, "BatchAddTasks", attribute.Int("kanbn.batch.size", len(tasks)))
	defer func() { s.finish(ctx, span, "batch add tasks", err) }()

	if defaultColumn == "" {
		defaultColumn = board.DefaultColumn
	}
	result := &BatchResult{
		BatchID: uuid.New().String(),
		Created: []*TaskAdded{},
		Failed:  []BatchFailure{},
	}
	for i, in := range tasks {
		if strings.TrimSpace(in.Name) == "" {
			result.Failed = append(result.Failed, BatchFailure{
				Index: i,
				Error: "task name is required",
				Kind:  board.KindInvalidInput,
			})
			continue
		}
		if in.Column == "" {
			in.Column = defaultColumn
		}
		added, err := s.AddTask(ctx, in)
		if err != nil {
			result.Failed = append(result.Failed, BatchFailure{
				Index: i,
				Name:  in.Name,
				Error: err.Error(),
				Kind:  board.KindOf(err),
			})
			continue
		}
		result.Created = append(result.Created, added)
	}
	result.CreatedCount = len(result.Created)
	result.FailedCount = len(result.Failed)
	result.Success = result.FailedCount == 0

	s.logger.InfoContext(ctx, "batch finished",
		"batch_id", result.BatchID,
		"created", result.CreatedCount,
		"failed", result.FailedCount)
	return result, nil
}

// AddComment appends a comment to a task.
func (s *BoardService) AddComment(ctx context.Context, id, author, text string) (_ *CommentAdded, err error) {
	ctx, span := s.start(ctx, "AddComment", attrTaskID.String(id))
	defer func() { s.finish(ctx, span, "add comment", err) }()

	if err := board.ValidateID(id); err != nil {
		return nil, fmt.Errorf("%w: %q", err, id)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: comment text is empty", board.ErrInvalidInput)
	}
	if strings.TrimSpace(author) == "" {
		author = DefaultCommentAuthor
	}
	if _, err := s.repo.LoadIndex(); err != nil {
		return nil, err
	}
	task, err := s.repo.LoadTask(id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	entry := task.AddComment(author, text, now)
	task.Touch(now)
	if err := s.repo.SaveTask(task); err != nil {
		return nil, err
	}

	e := s.event(events.TypeCommentAdded, now)
	e.TaskID = id
	s.publish(ctx, e)
	return &CommentAdded{
		TaskID:   id,
		Author:   entry.Author(),
		Date:     entry.Date(),
		Comments: len(task.Comments),
	}, nil
}

// ValidTags returns the tag vocabulary. Workload tags come from the board
// options when the index loads.
func (s *BoardService) ValidTags() board.TagCatalog {
	idx, err := s.repo.LoadIndex()
	if err != nil {
		return s.vocab.Catalog()
	}
	return s.vocabulary(idx).Catalog()
}

func (s *BoardService) vocabulary(idx *board.Index) board.TagVocabulary {
	return idx.Vocabulary(s.vocab)
}
