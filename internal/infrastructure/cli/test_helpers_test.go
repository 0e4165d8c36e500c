package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/felixgeelhaar/kanbn/internal/infrastructure/config"
)

// runCLI executes a fresh command tree against workspace and returns
// stdout and stderr.
func runCLI(t *testing.T, workspace string, args ...string) (string, string, error) {
	t.Helper()
	return runCLIWithInput(t, workspace, nil, args...)
}

func runCLIWithInput(t *testing.T, workspace string, stdin *bytes.Buffer, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	if stdin != nil {
		root.SetIn(stdin)
	}
	root.SetArgs(append([]string{"--workspace", workspace}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func mustRun(t *testing.T, workspace string, args ...string) string {
	t.Helper()
	out, errOut, err := runCLI(t, workspace, args...)
	if err != nil {
		t.Fatalf("kanbn %v: %v\nstderr: %s", args, err, errOut)
	}
	return out
}

// newWorkspace returns an empty workspace with the environment cleared.
func newWorkspace(t *testing.T) string {
	t.Helper()
	for _, key := range []string{config.EnvBoardPath, config.EnvDefaultColumn, config.EnvLogLevel, config.EnvLogFormat, config.EnvTraceExporter, config.EnvTraceEndpoint} {
		t.Setenv(key, "")
	}
	return t.TempDir()
}

// initWorkspace returns a workspace holding a default board.
func initWorkspace(t *testing.T) string {
	t.Helper()
	ws := newWorkspace(t)
	mustRun(t, ws, "init", "Roadmap", "--description", "Things to do")
	return ws
}
