package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/kanbn/pkg/application"
	"github.com/felixgeelhaar/kanbn/pkg/domain/board"
	"github.com/felixgeelhaar/kanbn/pkg/domain/events"
)

func (a *app) newDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Interactive board view",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if os.Getenv("KANBN_SKIP_DASHBOARD_RUN") == "true" {
				return nil
			}
			services, err := a.load(cmd)
			if err != nil {
				return err
			}
			recorder := events.NewRecorder(5)
			services.Events.RegisterHandler("dashboard", recorder.Handle, events.Wildcard)

			p := tea.NewProgram(newDashboardModel(cmd.Context(), services.Board, recorder), tea.WithContext(cmd.Context()))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("dashboard run failed: %w", err)
			}
			return nil
		},
	}
}

var (
	dashboardFrame = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240"))
	activeTab   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("#7D56F4")).Padding(0, 1)
	inactiveTab = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Padding(0, 1)
)

type dashboardModel struct {
	ctx      context.Context
	svc      *application.BoardService
	recorder *events.Recorder

	status  *application.BoardStatus
	tasks   map[string]*board.Task
	column  int
	table   table.Model
	message string
	err     error
}

func newDashboardModel(ctx context.Context, svc *application.BoardService, recorder *events.Recorder) dashboardModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "ID", Width: 28},
			{Title: "Name", Width: 36},
			{Title: "Progress", Width: 8},
			{Title: "Tags", Width: 24},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true)
	s.Selected = s.Selected.Foreground(lipgloss.Color("229"))
	t.SetStyles(s)

	m := dashboardModel{ctx: ctx, svc: svc, recorder: recorder, table: t}
	m.reload()
	return m
}

// reload reads the board from disk, keeping the selected column by name.
func (m *dashboardModel) reload() {
	current := m.columnName()
	status, err := m.svc.Status(m.ctx)
	if err != nil {
		m.err = err
		return
	}
	list, err := m.svc.ListTasks(m.ctx)
	if err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.status = status
	m.tasks = make(map[string]*board.Task, len(list.Tasks))
	for _, view := range list.Tasks {
		m.tasks[view.Task.ID] = view.Task
	}
	m.column = 0
	for i, col := range status.Columns {
		if col.Name == current {
			m.column = i
		}
	}
	m.refreshRows()
}

func (m *dashboardModel) columnName() string {
	if m.status == nil || len(m.status.Columns) == 0 {
		return ""
	}
	return m.status.Columns[m.column].Name
}

func (m *dashboardModel) refreshRows() {
	var rows []table.Row
	if m.status != nil && len(m.status.Columns) > 0 {
		for _, id := range m.status.Columns[m.column].Tasks {
			task, ok := m.tasks[id]
			if !ok {
				rows = append(rows, table.Row{id, "(missing file)", "-", ""})
				continue
			}
			rows = append(rows, table.Row{
				id,
				task.Name,
				fmt.Sprintf("%.0f%%", task.Progress()*100),
				strings.Join(task.Tags(), ", "),
			})
		}
	}
	m.table.SetRows(rows)
	if c := m.table.Cursor(); c < 0 || c >= len(rows) {
		m.table.SetCursor(max(len(rows)-1, 0))
	}
}

func (m *dashboardModel) selectedTask() string {
	row := m.table.SelectedRow()
	if len(row) == 0 {
		return ""
	}
	return row[0]
}

// shift moves the selected task one column left or right.
func (m *dashboardModel) shift(delta int) {
	id := m.selectedTask()
	if id == "" || m.status == nil {
		return
	}
	target := m.column + delta
	if target < 0 || target >= len(m.status.Columns) {
		return
	}
	moved, err := m.svc.MoveTask(m.ctx, id, m.status.Columns[target].Name)
	if err != nil {
		m.message = MapError(err).Error()
		return
	}
	m.message = fmt.Sprintf("Moved %s to %s", moved.TaskID, moved.ToColumn)
	m.reload()
}

func (m dashboardModel) Init() tea.Cmd { return nil }

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			m.message = ""
			m.reload()
			return m, nil
		case "left", "h":
			if m.column > 0 {
				m.column--
				m.refreshRows()
				m.table.SetCursor(0)
			}
			return m, nil
		case "right", "l":
			if m.status != nil && m.column < len(m.status.Columns)-1 {
				m.column++
				m.refreshRows()
				m.table.SetCursor(0)
			}
			return m, nil
		case "<", "shift+left":
			m.shift(-1)
			return m, nil
		case ">", "shift+right":
			m.shift(1)
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m dashboardModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error loading board: %v\nPress r to retry, q to quit.\n", MapError(m.err))
	}

	tabs := make([]string, 0, len(m.status.Columns))
	for i, col := range m.status.Columns {
		label := fmt.Sprintf("%s (%d)", col.Name, col.Count)
		if i == m.column {
			tabs = append(tabs, activeTab.Render(label))
		} else {
			tabs = append(tabs, inactiveTab.Render(label))
		}
	}

	parts := []string{
		titleStyle.Render(m.status.Name),
		lipgloss.JoinHorizontal(lipgloss.Top, tabs...),
		m.table.View(),
	}
	if m.message != "" {
		parts = append(parts, m.message)
	}
	if m.recorder != nil {
		for _, e := range m.recorder.Events() {
			parts = append(parts, mutedStyle.Render(fmt.Sprintf("%s %s %s", e.OccurredAt().Format("15:04:05"), e.EventType(), e.AggregateID())))
		}
	}
	parts = append(parts, "\n[←/→] Column  [↑/↓] Task  [</>] Move task  [r] Reload  [q] Quit")
	return dashboardFrame.Render(lipgloss.JoinVertical(lipgloss.Left, parts...)) + "\n"
}
