package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/kanbn/pkg/application"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			PaddingLeft(1).
			PaddingRight(1)

	columnStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1).
			Width(28)

	columnTitle    = lipgloss.NewStyle().Bold(true)
	startedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	completedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	warnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func (a *app) newStatusCmd() *cobra.Command {
	var showHidden bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the board's columns and tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.board(cmd)
			if err != nil {
				return err
			}
			status, err := svc.Status(cmd.Context())
			if err != nil {
				return MapError(err)
			}
			return a.emit(cmd, status, func(w io.Writer) {
				fmt.Fprintln(w, renderStatus(status, showHidden))
			})
		},
	}
	cmd.Flags().BoolVar(&showHidden, "all", false, "Include hidden columns")
	return cmd
}

// renderStatus lays the columns out side by side.
func renderStatus(status *application.BoardStatus, showHidden bool) string {
	var boxes []string
	for _, col := range status.Columns {
		if col.Hidden && !showHidden {
			continue
		}
		boxes = append(boxes, columnStyle.Render(renderColumn(col)))
	}

	parts := []string{titleStyle.Render(status.Name)}
	if status.Description != "" {
		parts = append(parts, status.Description)
	}
	parts = append(parts, lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
	parts = append(parts, mutedStyle.Render(fmt.Sprintf("%d tasks in %d columns", status.TotalTasks, len(status.Columns))))
	if len(status.Missing) > 0 {
		parts = append(parts, warnStyle.Render("Indexed without a file: "+strings.Join(status.Missing, ", ")))
	}
	if len(status.Untracked) > 0 {
		parts = append(parts, warnStyle.Render("Files not in any column: "+strings.Join(status.Untracked, ", ")))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderColumn(col application.ColumnStatus) string {
	heading := fmt.Sprintf("%s (%d)", col.Name, col.Count)
	switch {
	case col.Completed:
		heading = completedStyle.Render(heading)
	case col.Started:
		heading = startedStyle.Render(heading)
	default:
		heading = columnTitle.Render(heading)
	}
	lines := []string{heading}
	if len(col.Tasks) == 0 {
		lines = append(lines, mutedStyle.Render("(empty)"))
	}
	for _, id := range col.Tasks {
		lines = append(lines, "• "+id)
	}
	return strings.Join(lines, "\n")
}
