package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/kanbn/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/kanbn/pkg/application"
)

func (a *app) workspaceRoot() (string, error) {
	if a.workspace != "" {
		abs, err := filepath.Abs(a.workspace)
		if err != nil {
			return "", fmt.Errorf("invalid workspace path %q: %w", a.workspace, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return "", fmt.Errorf("workspace path %q: %w", abs, err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("workspace path %q is not a directory", abs)
		}
		return abs, nil
	}
	return os.Getwd()
}

// load builds the services once per invocation.
func (a *app) load(cmd *cobra.Command) (*wiring.Services, error) {
	if a.services != nil {
		return a.services, nil
	}
	root, err := a.workspaceRoot()
	if err != nil {
		return nil, err
	}
	services, err := wiring.BuildServices(cmd.Context(), root, wiring.Overrides{
		BoardPath: a.boardPath,
		LogLevel:  a.logLevel,
		LogOutput: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build services: %w", err)
	}
	a.services = services
	return services, nil
}

func (a *app) board(cmd *cobra.Command) (*application.BoardService, error) {
	services, err := a.load(cmd)
	if err != nil {
		return nil, err
	}
	return services.Board, nil
}

func (a *app) close(ctx context.Context) error {
	if a.services == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := a.services.Close(ctx)
	a.services = nil
	return err
}
