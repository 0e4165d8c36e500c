package board

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/felixgeelhaar/kanbn/pkg/document"
)

const indexFile = `---
hiddenColumns:
  - Archive
startedColumns:
  - In Progress
completedColumns:
  - Done
customKey: keep me
---

# Demo Board

A board for tests.

## Backlog

- [fix-login-bug](tasks/fix-login-bug.md)
- [Pretty Label](tasks/write-docs.md)
not a link

## In Progress

## Done

- [ship-it](tasks/ship-it.md)
`

func loadTestIndex(t *testing.T) *Index {
	t.Helper()
	return IndexFromDocument(document.Decode(indexFile))
}

func TestIndexFromDocument(t *testing.T) {
	idx := loadTestIndex(t)

	if idx.Name != "Demo Board" || idx.Description != "A board for tests." {
		t.Fatalf("identity = %q / %q", idx.Name, idx.Description)
	}
	want := []Column{
		{Name: "Backlog", Tasks: []string{"fix-login-bug", "write-docs"}},
		{Name: "In Progress"},
		{Name: "Done", Tasks: []string{"ship-it"}},
	}
	if diff := cmp.Diff(want, idx.ColumnTasks()); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}
	if v, _ := idx.Options.String("customKey"); v != "keep me" {
		t.Fatalf("unknown option lost: %q", v)
	}
	if !idx.IsStartedColumn("In Progress") || !idx.IsCompletedColumn("Done") || !idx.IsHiddenColumn("Archive") {
		t.Fatal("column roles not read from options")
	}
}

func TestIndex_RoundTrip(t *testing.T) {
	idx := loadTestIndex(t)
	data, err := idx.ToDocument().Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	again := IndexFromDocument(document.Decode(string(data)))

	if diff := cmp.Diff(idx.ColumnTasks(), again.ColumnTasks()); diff != "" {
		t.Fatalf("columns changed (-before +after):\n%s", diff)
	}
	if !idx.Options.Equal(again.Options) || idx.Name != again.Name || idx.Description != again.Description {
		t.Fatal("identity or options changed across round trip")
	}
}

func TestNewIndex_Defaults(t *testing.T) {
	idx := NewIndex("B", "", nil, nil)
	if diff := cmp.Diff(DefaultColumns, idx.Columns()); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}
	wantKeys := []string{
		OptionHiddenColumns, OptionStartedColumns, OptionCompletedColumns,
		OptionDefaultTaskWorkload, OptionTaskWorkloadTags,
	}
	if diff := cmp.Diff(wantKeys, idx.Options.Keys()); diff != "" {
		t.Fatalf("option keys mismatch (-want +got):\n%s", diff)
	}
}

func TestNewIndex_MergesOptions(t *testing.T) {
	opts := document.NewHeader()
	opts.SetStrings(OptionCompletedColumns, []string{"Shipped"})
	idx := NewIndex("B", "d", []string{"Todo", "Shipped", "Todo"}, opts)

	if diff := cmp.Diff([]string{"Todo", "Shipped"}, idx.Columns()); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}
	if !idx.IsCompletedColumn("Shipped") || idx.IsCompletedColumn("Done") {
		t.Fatal("supplied options must override defaults")
	}
	if !idx.IsStartedColumn("In Progress") {
		t.Fatal("defaults must survive for keys not supplied")
	}
}

func TestIndex_AddTaskToColumnIsIdempotent(t *testing.T) {
	idx := NewIndex("B", "", []string{"Backlog"}, nil)
	idx.AddTaskToColumn("a", "Backlog")
	idx.AddTaskToColumn("a", "Backlog")
	idx.AddTaskToColumn("b", "Later")

	if diff := cmp.Diff([]string{"a"}, idx.Tasks("Backlog")); diff != "" {
		t.Fatalf("backlog mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Backlog", "Later"}, idx.Columns()); diff != "" {
		t.Fatalf("missing column should be created (-want +got):\n%s", diff)
	}
}

func TestIndex_FindTaskColumnFirstMatch(t *testing.T) {
	idx := NewIndex("B", "", []string{"A", "B"}, nil)
	idx.AddTaskToColumn("x", "B")
	idx.AddTaskToColumn("x", "A")

	col, ok := idx.FindTaskColumn("x")
	if !ok || col != "A" {
		t.Fatalf("FindTaskColumn = %q, %v", col, ok)
	}
	if _, ok := idx.FindTaskColumn("nope"); ok {
		t.Fatal("unexpected match")
	}
}

func TestIndex_MoveTask(t *testing.T) {
	idx := loadTestIndex(t)

	prev, err := idx.MoveTask("fix-login-bug", "Done")
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if prev != "Backlog" {
		t.Fatalf("previous = %q", prev)
	}
	if diff := cmp.Diff([]string{"ship-it", "fix-login-bug"}, idx.Tasks("Done")); diff != "" {
		t.Fatalf("done mismatch (-want +got):\n%s", diff)
	}

	prev, err = idx.MoveTask("unindexed", "Backlog")
	if err != nil || prev != "" {
		t.Fatalf("move unindexed = %q, %v", prev, err)
	}

	_, err = idx.MoveTask("ship-it", "Nowhere")
	var unknown *UnknownColumnError
	if !errors.As(err, &unknown) || unknown.Column != "Nowhere" || !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("expected UnknownColumnError, got %v", err)
	}
}

func TestIndex_ReorderTasks(t *testing.T) {
	idx := NewIndex("B", "", []string{"Backlog"}, nil)
	for _, id := range []string{"a", "b", "c"} {
		idx.AddTaskToColumn(id, "Backlog")
	}

	prev, err := idx.ReorderTasks("Backlog", []string{"c", "a", "b"})
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, prev); diff != "" {
		t.Fatalf("previous mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"c", "a", "b"}, idx.Tasks("Backlog")); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestIndex_ReorderTasksMismatchLeavesOrder(t *testing.T) {
	idx := NewIndex("B", "", []string{"Backlog"}, nil)
	for _, id := range []string{"a", "b", "c"} {
		idx.AddTaskToColumn(id, "Backlog")
	}

	tests := []struct {
		name  string
		order []string
		want  SetMismatchError
	}{
		{"omits one", []string{"a", "b"}, SetMismatchError{Column: "Backlog", Missing: []string{"c"}}},
		{"unexpected", []string{"a", "b", "c", "z"}, SetMismatchError{Column: "Backlog", Unexpected: []string{"z"}}},
		{"duplicate", []string{"a", "a", "b", "c"}, SetMismatchError{Column: "Backlog", Duplicates: []string{"a"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := idx.ReorderTasks("Backlog", tt.order)
			var mismatch *SetMismatchError
			if !errors.As(err, &mismatch) {
				t.Fatalf("expected SetMismatchError, got %v", err)
			}
			if diff := cmp.Diff(tt.want, *mismatch); diff != "" {
				t.Fatalf("mismatch detail (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff([]string{"a", "b", "c"}, idx.Tasks("Backlog")); diff != "" {
				t.Fatalf("order changed (-want +got):\n%s", diff)
			}
		})
	}

	if _, err := idx.ReorderTasks("Nope", nil); !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("expected unknown column, got %v", err)
	}
}

func TestIndex_AddColumn(t *testing.T) {
	pos := func(i int) *int { return &i }
	tests := []struct {
		name     string
		position *int
		want     []string
	}{
		{"append", nil, []string{"A", "B", "C", "New"}},
		{"front", pos(0), []string{"New", "A", "B", "C"}},
		{"middle", pos(1), []string{"A", "New", "B", "C"}},
		{"past end", pos(10), []string{"A", "B", "C", "New"}},
		{"negative", pos(-1), []string{"A", "B", "New", "C"}},
		{"very negative", pos(-10), []string{"New", "A", "B", "C"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := NewIndex("B", "", []string{"A", "B", "C"}, nil)
			if err := idx.AddColumn("New", tt.position); err != nil {
				t.Fatalf("add column: %v", err)
			}
			if diff := cmp.Diff(tt.want, idx.Columns()); diff != "" {
				t.Fatalf("columns mismatch (-want +got):\n%s", diff)
			}
		})
	}

	idx := NewIndex("B", "", []string{"A"}, nil)
	if err := idx.AddColumn("A", nil); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected already exists, got %v", err)
	}
	if err := idx.AddColumn(" ", nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestIndex_ReplaceTask(t *testing.T) {
	idx := NewIndex("B", "", []string{"Backlog", "Done"}, nil)
	for _, id := range []string{"a", "old", "c"} {
		idx.AddTaskToColumn(id, "Done")
	}

	col, ok := idx.ReplaceTask("old", "new")
	if !ok || col != "Done" {
		t.Fatalf("ReplaceTask = %q, %v", col, ok)
	}
	if diff := cmp.Diff([]string{"a", "new", "c"}, idx.Tasks("Done")); diff != "" {
		t.Fatalf("position must be kept (-want +got):\n%s", diff)
	}
	if _, ok := idx.ReplaceTask("ghost", "x"); ok {
		t.Fatal("unindexed task should not be replaced")
	}
}

func TestIndex_RemoveTaskFromColumn(t *testing.T) {
	idx := NewIndex("B", "", []string{"Backlog"}, nil)
	idx.AddTaskToColumn("a", "Backlog")
	if !idx.RemoveTaskFromColumn("a", "Backlog") {
		t.Fatal("expected removal")
	}
	if idx.RemoveTaskFromColumn("a", "Backlog") || idx.RemoveTaskFromColumn("a", "Nope") {
		t.Fatal("second removal should report false")
	}
}

func TestIndex_Vocabulary(t *testing.T) {
	base := DefaultVocabulary()

	stock := NewIndex("B", "", nil, nil).Vocabulary(base)
	if diff := cmp.Diff(DefaultTagCatalog, stock.Catalog()); diff != "" {
		t.Fatalf("stock board catalog mismatch (-want +got):\n%s", diff)
	}
	if got := stock.DefaultWorkload(); got != "Small" {
		t.Fatalf("stock default = %q", got)
	}

	narrow := NewVocabulary(TagCatalog{Workload: []WorkloadTag{{Name: "One", Weight: 1}}}, "")
	if got := loadTestIndex(t).Vocabulary(narrow).Catalog(); len(got.Workload) != 1 || got.Workload[0].Name != "One" {
		t.Fatalf("a board without workload tags should keep the base vocabulary, got %+v", got)
	}

	opts := document.ParseHeader([]byte("taskWorkloadTags:\n  Big: 5\n  Wee: 1\n  Mid: 3\ndefaultTaskWorkload: 5\n"))
	custom := NewIndex("B", "", nil, opts).Vocabulary(base)
	want := []WorkloadTag{{Name: "Wee", Weight: 1}, {Name: "Mid", Weight: 3}, {Name: "Big", Weight: 5}}
	if diff := cmp.Diff(want, custom.Catalog().Workload); diff != "" {
		t.Fatalf("workload mismatch (-want +got):\n%s", diff)
	}
	if got := custom.DefaultWorkload(); got != "Big" {
		t.Fatalf("custom default = %q", got)
	}
	if custom.IsWorkload("Small") {
		t.Fatal("stock workload tags must not leak into a custom board")
	}
}
