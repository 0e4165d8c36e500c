package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func (a *app) newColumnCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "column",
		Short: "Manage board columns",
	}
	cmd.AddCommand(a.newColumnAddCmd())
	return cmd
}

func (a *app) newColumnAddCmd() *cobra.Command {
	var position int
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a column",
		Long: `Add a column at the end, or at --position (0-based; negative counts
from the end, out-of-range positions clamp).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.board(cmd)
			if err != nil {
				return err
			}
			var pos *int
			if cmd.Flags().Changed("position") {
				pos = &position
			}
			added, err := svc.AddColumn(cmd.Context(), args[0], pos)
			if err != nil {
				return MapError(err)
			}
			return a.emit(cmd, added, func(w io.Writer) {
				fmt.Fprintf(w, "Added column %s\n", added.Column)
				fmt.Fprintf(w, "Columns: %s\n", strings.Join(added.Columns, ", "))
			})
		},
	}
	cmd.Flags().IntVar(&position, "position", 0, "0-based position")
	return cmd
}
