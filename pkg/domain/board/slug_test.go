package board

import (
	"errors"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Setup FastAPI Project", "setup-fast-api-project"},
		{"SQLAlchemy", "sqlalchemy"},
		{"Fix login bug", "fix-login-bug"},
		{"Fix login issue", "fix-login-issue"},
		{"Add workspace_core tests", "add-workspace-core-tests"},
		{"Hello, World!", "hello-world"},
		{"myHTTPServer", "my-httpserver"},
		{"iPhone 15 Pro", "i-phone-15-pro"},
		{"Version 2.0", "version-2-0"},
		{"__init__", "init"},
		{"  spaced   out  ", "spaced-out"},
		{"Café Déjà", "café-déjà"},
		{"ABC", "abc"},
		{"A B", "a-b"},
		{"", ""},
		{"!!! ??? ---", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.name); got != tt.want {
				t.Fatalf("Slugify(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestSlugify_Deterministic(t *testing.T) {
	const name = "Refactor MCP Server Tools"
	first := Slugify(name)
	for i := 0; i < 10; i++ {
		if got := Slugify(name); got != first {
			t.Fatalf("run %d: %q != %q", i, got, first)
		}
	}
}

func TestValidateID(t *testing.T) {
	for _, id := range []string{"", " ", ".", "..", "a/b", `a\b`} {
		if err := ValidateID(id); !errors.Is(err, ErrInvalidIdentifier) {
			t.Errorf("ValidateID(%q) = %v, want ErrInvalidIdentifier", id, err)
		}
	}
	for _, id := range []string{"fix-login-bug", "Task_1", "café"} {
		if err := ValidateID(id); err != nil {
			t.Errorf("ValidateID(%q) = %v", id, err)
		}
	}
}
