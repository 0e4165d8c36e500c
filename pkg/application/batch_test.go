package application_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/felixgeelhaar/kanbn/pkg/application"
	"github.com/felixgeelhaar/kanbn/pkg/domain/board"
)

func TestParseBatch(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantTasks  int
		wantColumn string
	}{
		{"array", `[{"name": "A"}, {"name": "B", "tags": ["bug"], "subtasks": ["x"]}]`, 2, ""},
		{"object", `{"column": "Done", "tasks": [{"name": "A", "column": "Backlog"}]}`, 1, "Done"},
		{"empty array", `[]`, 0, ""},
		{"missing name", `[{"description": "x"}, {"name": "B"}]`, 2, ""},
		{"empty name", `{"tasks": [{"name": ""}]}`, 1, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, err := application.ParseBatch([]byte(tt.input))
			if err != nil {
				t.Fatalf("ParseBatch: %v", err)
			}
			if len(file.Tasks) != tt.wantTasks || file.Column != tt.wantColumn {
				t.Fatalf("file = %+v", file)
			}
		})
	}
}

func TestParseBatch_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
		hint  string
	}{
		{"not json", `{`, "not valid JSON"},
		{"unknown field", `[{"name": "A", "priority": 1}]`, "schema"},
		{"wrong type", `[{"name": "A", "tags": "bug"}]`, "schema"},
		{"scalar", `"tasks"`, "schema"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := application.ParseBatch([]byte(tt.input))
			if !errors.Is(err, board.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.hint) {
				t.Fatalf("error %q should mention %q", err, tt.hint)
			}
		})
	}
}
