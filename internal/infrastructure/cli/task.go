package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/kanbn/pkg/application"
	"github.com/felixgeelhaar/kanbn/pkg/domain/board"
)

func (a *app) newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Add, move, update and inspect tasks",
	}
	cmd.AddCommand(
		a.newTaskAddCmd(),
		a.newTaskMoveCmd(),
		a.newTaskUpdateCmd(),
		a.newTaskShowCmd(),
		a.newTaskListCmd(),
		a.newTaskDeleteCmd(),
		a.newTaskReorderCmd(),
		a.newTaskCommentCmd(),
		a.newTaskBatchCmd(),
	)
	return cmd
}

func printWarnings(w io.Writer, warnings []string) {
	for _, warning := range warnings {
		fmt.Fprintf(w, "Warning: %s\n", warning)
	}
}

func (a *app) newTaskAddCmd() *cobra.Command {
	var in application.AddTaskInput
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a task and list it in a column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			services, err := a.load(cmd)
			if err != nil {
				return err
			}
			in.Name = args[0]
			if in.Column == "" {
				in.Column = services.Config.DefaultColumn
			}
			added, err := services.Board.AddTask(cmd.Context(), in)
			if err != nil {
				return MapError(err)
			}
			return a.emit(cmd, added, func(w io.Writer) {
				fmt.Fprintf(w, "Added %s to %s\n", added.TaskID, added.Column)
				printWarnings(w, added.Warnings)
			})
		},
	}
	f := cmd.Flags()
	f.StringVarP(&in.Description, "description", "d", "", "Task description")
	f.StringVarP(&in.Column, "column", "c", "", "Column (default: the configured default column)")
	f.StringArrayVarP(&in.Tags, "tag", "t", nil, "Tag (repeatable); see 'kanbn tags'")
	f.StringVar(&in.Assigned, "assigned", "", "Assignee")
	f.StringVar(&in.Due, "due", "", "Due date")
	f.StringVar(&in.Started, "started", "", "Start date")
	f.StringVar(&in.Completed, "completed", "", "Completion date")
	f.StringArrayVarP(&in.SubTasks, "subtask", "s", nil, "Sub-task (repeatable)")
	return cmd
}

func (a *app) newTaskMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <column>",
		Short: "Move a task to a column",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.board(cmd)
			if err != nil {
				return err
			}
			moved, err := svc.MoveTask(cmd.Context(), args[0], args[1])
			if err != nil {
				return MapError(err)
			}
			return a.emit(cmd, moved, func(w io.Writer) {
				from := moved.FromColumn
				if from == "" {
					from = "(unindexed)"
				}
				fmt.Fprintf(w, "Moved %s: %s -> %s\n", moved.TaskID, from, moved.ToColumn)
			})
		},
	}
}

func (a *app) newTaskUpdateCmd() *cobra.Command {
	var (
		name, description            string
		assigned, due, started, done string
		tags, subtasks               []string
		progress                     float64
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change task fields",
		Long: `Change task fields. Only flags that are given change the task; pass an
empty value (--assigned "") to clear assigned, due, started or completed.
Changing the name renames the task when its id changes.

Sub-tasks replace the whole list; prefix with [x] for completed ones:
  kanbn task update fix-login --subtask "[x] reproduce" --subtask "write fix"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.board(cmd)
			if err != nil {
				return err
			}
			f := cmd.Flags()
			var u board.TaskUpdate
			if f.Changed("name") {
				u.Name = board.Some(name)
			}
			if f.Changed("description") {
				u.Description = board.Some(description)
			}
			if f.Changed("tag") {
				u.Tags = board.Some(tags)
			}
			if f.Changed("assigned") {
				u.Assigned = board.Some(assigned)
			}
			if f.Changed("due") {
				u.Due = board.Some(due)
			}
			if f.Changed("started") {
				u.Started = board.Some(started)
			}
			if f.Changed("completed") {
				u.Completed = board.Some(done)
			}
			if f.Changed("progress") {
				u.Progress = board.Some(progress)
			}
			if f.Changed("subtask") {
				list := make([]board.SubTask, 0, len(subtasks))
				for _, s := range subtasks {
					list = append(list, board.ParseSubTask(s))
				}
				u.SubTasks = board.Some(list)
			}

			updated, err := svc.UpdateTask(cmd.Context(), args[0], u)
			if err != nil {
				return MapError(err)
			}
			return a.emit(cmd, updated, func(w io.Writer) {
				if updated.Renamed {
					fmt.Fprintf(w, "Renamed %s to %s\n", updated.PreviousTaskID, updated.TaskID)
				}
				fmt.Fprintf(w, "Updated %s\n", updated.TaskID)
				printWarnings(w, updated.Warnings)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&name, "name", "", "New name")
	f.StringVarP(&description, "description", "d", "", "New description")
	f.StringArrayVarP(&tags, "tag", "t", nil, "Replacement tags (repeatable)")
	f.StringVar(&assigned, "assigned", "", "Assignee; empty clears")
	f.StringVar(&due, "due", "", "Due date; empty clears")
	f.StringVar(&started, "started", "", "Start date; empty clears")
	f.StringVar(&done, "completed", "", "Completion date; empty clears")
	f.Float64Var(&progress, "progress", 0, "Progress between 0 and 1")
	f.StringArrayVarP(&subtasks, "subtask", "s", nil, "Replacement sub-task (repeatable)")
	return cmd
}

func (a *app) newTaskShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.board(cmd)
			if err != nil {
				return err
			}
			view, err := svc.GetTask(cmd.Context(), args[0])
			if err != nil {
				return MapError(err)
			}
			text, err := view.Task.ToDocument().Encode()
			if err != nil {
				return err
			}
			return a.emit(cmd, view, func(w io.Writer) {
				column := view.Column
				if column == "" {
					column = "(unindexed)"
				}
				fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("%s in %s", view.Task.ID, column)))
				_, _ = w.Write(text)
			})
		},
	}
}

func (a *app) newTaskListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every task by column",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.board(cmd)
			if err != nil {
				return err
			}
			list, err := svc.ListTasks(cmd.Context())
			if err != nil {
				return MapError(err)
			}
			return a.emit(cmd, list, func(w io.Writer) {
				for _, view := range list.Tasks {
					fmt.Fprintf(w, "%-14s %-32s %3.0f%%  %s\n",
						view.Column, view.Task.ID, view.Task.Progress()*100, view.Task.Name)
				}
				fmt.Fprintf(w, "%d tasks\n", list.Total)
			})
		},
	}
}

func (a *app) newTaskDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a task from the board and delete its file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.board(cmd)
			if err != nil {
				return err
			}
			deleted, err := svc.DeleteTask(cmd.Context(), args[0])
			if err != nil {
				return MapError(err)
			}
			return a.emit(cmd, deleted, func(w io.Writer) {
				fmt.Fprintf(w, "Deleted %s\n", deleted.TaskID)
				if !deleted.FileExisted {
					fmt.Fprintln(w, "Warning: the task had no file")
				}
			})
		},
	}
}

func (a *app) newTaskReorderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <column> <id>...",
		Short: "Set the order of a column's tasks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.board(cmd)
			if err != nil {
				return err
			}
			reordered, err := svc.ReorderTasks(cmd.Context(), args[0], args[1:])
			if err != nil {
				return MapError(err)
			}
			return a.emit(cmd, reordered, func(w io.Writer) {
				fmt.Fprintf(w, "%s: %s\n", reordered.Column, strings.Join(reordered.NewOrder, ", "))
			})
		},
	}
}

func (a *app) newTaskCommentCmd() *cobra.Command {
	var author string
	cmd := &cobra.Command{
		Use:   "comment <id> <text>",
		Short: "Append a comment to a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.board(cmd)
			if err != nil {
				return err
			}
			added, err := svc.AddComment(cmd.Context(), args[0], author, args[1])
			if err != nil {
				return MapError(err)
			}
			return a.emit(cmd, added, func(w io.Writer) {
				fmt.Fprintf(w, "Comment by %s added to %s (%d comments)\n", added.Author, added.TaskID, added.Comments)
			})
		},
	}
	cmd.Flags().StringVarP(&author, "author", "a", "", "Comment author (default: "+application.DefaultCommentAuthor+")")
	return cmd
}

func (a *app) newTaskBatchCmd() *cobra.Command {
	var (
		file   string
		column string
	)
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Add tasks from a JSON file",
		Long: `Add tasks from a JSON file: either an array of tasks or an object
{"column": "...", "tasks": [...]}. Each task takes name, description,
column, tags, assigned, due, started, completed and subtasks.
Use --file - to read standard input.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			services, err := a.load(cmd)
			if err != nil {
				return err
			}
			var data []byte
			if file == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(file)
			}
			if err != nil {
				return fmt.Errorf("read batch file: %w", err)
			}
			batch, err := application.ParseBatch(data)
			if err != nil {
				return MapError(err)
			}
			defaultColumn := column
			if defaultColumn == "" {
				defaultColumn = batch.Column
			}
			if defaultColumn == "" {
				defaultColumn = services.Config.DefaultColumn
			}
			result, err := services.Board.BatchAddTasks(cmd.Context(), batch.Tasks, defaultColumn)
			if err != nil {
				return MapError(err)
			}
			if err := a.emit(cmd, result, func(w io.Writer) {
				for _, added := range result.Created {
					fmt.Fprintf(w, "Added %s to %s\n", added.TaskID, added.Column)
				}
				for _, failed := range result.Failed {
					fmt.Fprintf(w, "Failed #%d %q: %s\n", failed.Index, failed.Name, failed.Error)
				}
				fmt.Fprintf(w, "%d created, %d failed\n", result.CreatedCount, result.FailedCount)
			}); err != nil {
				return err
			}
			if !result.Success {
				return NewCLIError(fmt.Sprintf("%d of %d tasks failed", result.FailedCount, result.CreatedCount+result.FailedCount), "", nil)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Batch file, or - for stdin")
	cmd.Flags().StringVarP(&column, "column", "c", "", "Default column for tasks without one")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
