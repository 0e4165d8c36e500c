package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer guards writes from the watch goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatch_RendersOnChange(t *testing.T) {
	ws := initWorkspace(t)

	root := NewRootCmd()
	var out syncBuffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--workspace", ws, "watch", "--debounce", "20ms"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- root.ExecuteContext(ctx) }()

	task := filepath.Join(ws, ".kanbn", "tasks", "note.md")
	deadline := time.Now().Add(3 * time.Second)
	for !strings.Contains(out.String(), "tasks/note.md") && time.Now().Before(deadline) {
		if err := os.WriteFile(task, []byte("# Note\n"), 0600); err != nil {
			t.Fatal(err)
		}
		time.Sleep(50 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("watch: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("watch did not stop")
	}

	got := out.String()
	if strings.Count(got, "Roadmap") < 2 {
		t.Fatalf("expected an initial and a refreshed render:\n%s", got)
	}
	if !strings.Contains(got, "Files not in any column: note") {
		t.Fatalf("refreshed render should list the new file:\n%s", got)
	}
}

func TestWatch_NoBoard(t *testing.T) {
	ws := newWorkspace(t)
	_, _, err := runCLI(t, ws, "watch")
	var cliErr *CLIError
	if !errors.As(err, &cliErr) || !strings.Contains(cliErr.Hint, "kanbn init") {
		t.Fatalf("expected init hint, got %v", err)
	}
}

func TestMCP_UnknownTransport(t *testing.T) {
	ws := newWorkspace(t)
	_, _, err := runCLI(t, ws, "mcp", "--transport", "carrier-pigeon")
	if err == nil || !strings.Contains(err.Error(), "unknown transport") {
		t.Fatalf("expected unknown transport error, got %v", err)
	}
}

func TestLogLevelFlag(t *testing.T) {
	ws := initWorkspace(t)
	_, errOut, err := runCLI(t, ws, "--log-level", "debug", "task", "add", "Alpha")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(errOut, "task.added") {
		t.Fatalf("debug logs should include published events:\n%s", errOut)
	}

	if _, _, err := runCLI(t, ws, "--log-level", "loud", "status"); err == nil {
		t.Fatal("expected invalid log level error")
	}
}
