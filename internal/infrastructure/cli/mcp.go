package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	inframcp "github.com/felixgeelhaar/kanbn/internal/infrastructure/mcp"
)

func (a *app) newMCPCmd() *cobra.Command {
	var (
		transport string
		addr      string
	)
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the kanbn MCP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			services, err := a.load(cmd)
			if err != nil {
				return err
			}
			server, err := inframcp.NewServer(services)
			if err != nil {
				return err
			}
			services.Logger.InfoContext(cmd.Context(), "starting MCP server",
				"transport", transport, "addr", addr, "board", services.Board.Path())
			err = server.Serve(cmd.Context(), strings.ToLower(transport), addr)
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("mcp server: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport to use (stdio, http, ws)")
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Address for http/ws transports")
	return cmd
}
