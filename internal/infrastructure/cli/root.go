// Package cli implements the kanbn command line.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/kanbn/internal/infrastructure/wiring"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// app carries the persistent flags and the services built from them.
type app struct {
	workspace string
	boardPath string
	logLevel  string
	jsonOut   bool

	services *wiring.Services
}

// NewRootCmd builds the command tree. Each call returns an independent
// tree with its own flag state.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:     "kanbn",
		Version: fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, Date),
		Short:   "A kanban board kept as markdown files",
		Long: `Kanbn keeps a kanban board in plain markdown: the columns live in
.kanbn/index.md and every task has its own file under .kanbn/tasks.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.close(cmd.Context())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.workspace, "workspace", "w", "", "Workspace directory holding kanbn.yaml (default: current directory)")
	flags.StringVarP(&a.boardPath, "path", "p", "", "Board directory, relative to the workspace (default: .kanbn)")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.BoolVar(&a.jsonOut, "json", false, "Print results as JSON")

	root.AddCommand(
		a.newInitCmd(),
		a.newStatusCmd(),
		a.newTaskCmd(),
		a.newColumnCmd(),
		a.newTagsCmd(),
		a.newMCPCmd(),
		a.newWatchCmd(),
		a.newDashboardCmd(),
	)
	return root
}

// Execute runs the CLI and reports errors with their hints on stderr.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	err := root.ExecuteContext(ctx)
	if err != nil {
		printError(root.ErrOrStderr(), err)
	}
	return err
}

func printError(w io.Writer, err error) {
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		fmt.Fprintf(w, "Error: %s\n", cliErr.Message)
		if cliErr.Hint != "" {
			fmt.Fprintf(w, "Hint: %s\n", cliErr.Hint)
		}
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}

// emit prints v as indented JSON under --json, otherwise calls text.
func (a *app) emit(cmd *cobra.Command, v any, text func(w io.Writer)) error {
	out := cmd.OutOrStdout()
	if a.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(out)
	return nil
}
