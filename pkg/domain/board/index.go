package board

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/felixgeelhaar/kanbn/pkg/document"
)

var taskLinkPattern = regexp.MustCompile(`^- \[([^\]]+)\]\(tasks/([^)]+)\.md\)`)

// Column is a named, ordered list of task identifiers.
type Column struct {
	Name  string   `json:"name"`
	Tasks []string `json:"tasks"`
}

// Index is the board's identity and column membership.
type Index struct {
	Name        string
	Description string
	Options     *document.Header

	columns []Column
}

// NewIndex builds an index for a new board. options are merged over the
// defaults; with no columns the default set is used.
func NewIndex(name, description string, columns []string, options *document.Header) *Index {
	opts := DefaultOptions()
	if options != nil {
		opts.Merge(options)
	}
	if len(columns) == 0 {
		columns = DefaultColumns
	}
	idx := &Index{Name: name, Description: strings.TrimSpace(description), Options: opts}
	for _, c := range columns {
		if !idx.HasColumn(c) {
			idx.columns = append(idx.columns, Column{Name: c})
		}
	}
	return idx
}

// IndexFromDocument reads an index from its decoded file. Options are taken
// verbatim from the header.
func IndexFromDocument(doc *document.Document) *Index {
	idx := &Index{
		Name:        doc.Title,
		Description: doc.BodyText(),
		Options:     doc.Header,
	}
	if idx.Options == nil {
		idx.Options = document.NewHeader()
	}
	for _, s := range doc.Sections {
		col := idx.column(s.Name)
		if col == nil {
			idx.columns = append(idx.columns, Column{Name: s.Name})
			col = &idx.columns[len(idx.columns)-1]
		} else {
			// A repeated heading replaces the earlier one's tasks.
			col.Tasks = nil
		}
		for _, line := range s.Lines {
			m := taskLinkPattern.FindStringSubmatch(strings.TrimSpace(line))
			if m == nil {
				continue
			}
			col.Tasks = append(col.Tasks, m[2])
		}
	}
	return idx
}

// ToDocument renders the index into its file shape.
func (idx *Index) ToDocument() *document.Document {
	doc := &document.Document{
		Header: idx.Options,
		Title:  idx.Name,
		Body:   document.SplitLines(idx.Description),
	}
	if doc.Header == nil {
		doc.Header = document.NewHeader()
	}
	for _, c := range idx.columns {
		s := document.Section{Name: c.Name}
		for _, id := range c.Tasks {
			s.Lines = append(s.Lines, TaskLink(id))
		}
		doc.Sections = append(doc.Sections, s)
	}
	return doc
}

// TaskLink renders the index line for a task.
func TaskLink(id string) string {
	return fmt.Sprintf("- [%s](tasks/%s.md)", id, id)
}

func (idx *Index) column(name string) *Column {
	for i := range idx.columns {
		if idx.columns[i].Name == name {
			return &idx.columns[i]
		}
	}
	return nil
}

// Columns returns the column names in board order.
func (idx *Index) Columns() []string {
	names := make([]string, len(idx.columns))
	for i, c := range idx.columns {
		names[i] = c.Name
	}
	return names
}

// ColumnTasks returns every column with a copy of its tasks.
func (idx *Index) ColumnTasks() []Column {
	out := make([]Column, len(idx.columns))
	for i, c := range idx.columns {
		out[i] = Column{Name: c.Name, Tasks: slices.Clone(c.Tasks)}
	}
	return out
}

// HasColumn reports whether the board has a column named name.
func (idx *Index) HasColumn(name string) bool {
	return idx.column(name) != nil
}

// Tasks returns a copy of the identifiers in column.
func (idx *Index) Tasks(column string) []string {
	c := idx.column(column)
	if c == nil {
		return nil
	}
	return slices.Clone(c.Tasks)
}

// AddTaskToColumn appends id to column unless it is already there. A missing
// column is created at the end.
func (idx *Index) AddTaskToColumn(id, column string) {
	c := idx.column(column)
	if c == nil {
		idx.columns = append(idx.columns, Column{Name: column})
		c = &idx.columns[len(idx.columns)-1]
	}
	if !slices.Contains(c.Tasks, id) {
		c.Tasks = append(c.Tasks, id)
	}
}

// RemoveTaskFromColumn removes the first occurrence of id from column.
func (idx *Index) RemoveTaskFromColumn(id, column string) bool {
	c := idx.column(column)
	if c == nil {
		return false
	}
	i := slices.Index(c.Tasks, id)
	if i < 0 {
		return false
	}
	c.Tasks = slices.Delete(c.Tasks, i, i+1)
	return true
}

// FindTaskColumn returns the first column, in board order, listing id.
func (idx *Index) FindTaskColumn(id string) (string, bool) {
	for _, c := range idx.columns {
		if slices.Contains(c.Tasks, id) {
			return c.Name, true
		}
	}
	return "", false
}

// MoveTask moves id to the end of target and returns the column it was
// taken from, or "" when it was not indexed.
func (idx *Index) MoveTask(id, target string) (string, error) {
	if !idx.HasColumn(target) {
		return "", &UnknownColumnError{Column: target}
	}
	previous, found := idx.FindTaskColumn(id)
	if found {
		idx.RemoveTaskFromColumn(id, previous)
	}
	idx.AddTaskToColumn(id, target)
	return previous, nil
}

// ReplaceTask swaps oldID for newID in place, in the first column holding
// oldID. It returns that column, or false when oldID is not indexed.
func (idx *Index) ReplaceTask(oldID, newID string) (string, bool) {
	for i := range idx.columns {
		c := &idx.columns[i]
		pos := slices.Index(c.Tasks, oldID)
		if pos < 0 {
			continue
		}
		if slices.Contains(c.Tasks, newID) {
			c.Tasks = slices.Delete(c.Tasks, pos, pos+1)
		} else {
			c.Tasks[pos] = newID
		}
		return c.Name, true
	}
	return "", false
}

// ReorderTasks replaces the order of column with order, which must list
// exactly the column's current tasks. It returns the previous order.
func (idx *Index) ReorderTasks(column string, order []string) ([]string, error) {
	c := idx.column(column)
	if c == nil {
		return nil, &UnknownColumnError{Column: column}
	}
	current := make(map[string]bool, len(c.Tasks))
	for _, id := range c.Tasks {
		current[id] = true
	}
	seen := make(map[string]bool, len(order))
	mismatch := &SetMismatchError{Column: column}
	for _, id := range order {
		switch {
		case seen[id]:
			mismatch.Duplicates = append(mismatch.Duplicates, id)
		case !current[id]:
			mismatch.Unexpected = append(mismatch.Unexpected, id)
		}
		seen[id] = true
	}
	for _, id := range c.Tasks {
		if !seen[id] && !slices.Contains(mismatch.Missing, id) {
			mismatch.Missing = append(mismatch.Missing, id)
		}
	}
	if len(mismatch.Missing)+len(mismatch.Unexpected)+len(mismatch.Duplicates) > 0 {
		return nil, mismatch
	}
	previous := c.Tasks
	c.Tasks = slices.Clone(order)
	return previous, nil
}

// AddColumn inserts an empty column. A nil position appends; otherwise the
// position is clamped to the column range and negative values count from
// the end.
func (idx *Index) AddColumn(name string, position *int) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: column name is empty", ErrInvalidInput)
	}
	if idx.HasColumn(name) {
		return fmt.Errorf("%w: column %q", ErrAlreadyExists, name)
	}
	at := len(idx.columns)
	if position != nil {
		at = insertPosition(*position, len(idx.columns))
	}
	idx.columns = slices.Insert(idx.columns, at, Column{Name: name})
	return nil
}

func insertPosition(pos, n int) int {
	if pos < 0 {
		pos += n
		if pos < 0 {
			pos = 0
		}
	}
	if pos > n {
		pos = n
	}
	return pos
}

// AllTasks returns every indexed identifier once, in board order.
func (idx *Index) AllTasks() []string {
	var ids []string
	for _, c := range idx.columns {
		for _, id := range c.Tasks {
			if !slices.Contains(ids, id) {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// StartedColumns lists the columns that stamp a start time on entry.
func (idx *Index) StartedColumns() []string {
	return idx.Options.Strings(OptionStartedColumns)
}

// CompletedColumns lists the columns that complete a task on entry.
func (idx *Index) CompletedColumns() []string {
	return idx.Options.Strings(OptionCompletedColumns)
}

// HiddenColumns lists the columns hidden from board views.
func (idx *Index) HiddenColumns() []string {
	return idx.Options.Strings(OptionHiddenColumns)
}

// IsStartedColumn reports whether column is a started column.
func (idx *Index) IsStartedColumn(column string) bool {
	return slices.Contains(idx.StartedColumns(), column)
}

// IsCompletedColumn reports whether column is a completed column.
func (idx *Index) IsCompletedColumn(column string) bool {
	return slices.Contains(idx.CompletedColumns(), column)
}

// IsHiddenColumn reports whether column is hidden.
func (idx *Index) IsHiddenColumn(column string) bool {
	return slices.Contains(idx.HiddenColumns(), column)
}
