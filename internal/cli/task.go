package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/existflow/ironvault/internal/model"
	"github.com/existflow/ironvault/internal/store"
	"github.com/spf13/cobra"
)

var taskCmd = &cobra.Command{
	Use:     "task",
	Aliases: []string{"tasks"},
	Short:   "Manage the tasks of a project board",
}

var taskAddCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Add a task to the current project",
	Long: `Add a task to a project board.

Examples:
  vault task add "Write the brief"
  vault task add "Ship v1" --due 2025-09-01 --status in-progress
  vault task add "Fix login" -p "Launch Plan"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTaskAdd,
}

var taskListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks grouped by column",
	RunE:    runTaskList,
}

var taskMoveCmd = &cobra.Command{
	Use:   "move [task-id] [status]",
	Short: "Move a task to another column",
	Long: `Move a task to another board column: backlog, in-progress, blocked or done.

Examples:
  vault task move t-2f9c done`,
	Args: cobra.ExactArgs(2),
	RunE: runTaskMove,
}

var taskDoneCmd = &cobra.Command{
	Use:   "done [task-id]",
	Short: "Move a task to Done",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTaskMove(cmd, []string{args[0], string(model.TaskDone)})
	},
}

var taskEditCmd = &cobra.Command{
	Use:   "edit [task-id]",
	Short: "Change fields of a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskEdit,
}

var taskDeleteCmd = &cobra.Command{
	Use:     "delete [task-id]",
	Aliases: []string{"rm"},
	Short:   "Delete a task and its notes",
	Args:    cobra.ExactArgs(1),
	RunE:    runTaskDelete,
}

var (
	taskTitle       string
	taskDescription string
	taskStatus      string
	taskDue         string
	taskClearDue    bool
	taskAll         bool
)

func init() {
	for _, c := range []*cobra.Command{taskAddCmd, taskEditCmd} {
		c.Flags().StringVarP(&taskDescription, "description", "d", "", "Task description")
		c.Flags().StringVarP(&taskStatus, "status", "s", "", "Column (backlog, in-progress, blocked, done)")
		c.Flags().StringVar(&taskDue, "due", "", "Due date (YYYY-MM-DD)")
	}
	taskEditCmd.Flags().StringVar(&taskTitle, "title", "", "New title")
	taskEditCmd.Flags().BoolVar(&taskClearDue, "clear-due", false, "Remove the due date")
	taskListCmd.Flags().StringVarP(&taskStatus, "status", "s", "", "Only tasks in this column")
	taskListCmd.Flags().BoolVarP(&taskAll, "all", "a", false, "List tasks of every project")

	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskMoveCmd)
	taskCmd.AddCommand(taskDoneCmd)
	taskCmd.AddCommand(taskEditCmd)
	taskCmd.AddCommand(taskDeleteCmd)
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	v, err := openVault(cmd.Context())
	if err != nil {
		return err
	}
	defer v.Close()

	p, err := v.project(cmd.Context(), "")
	if err != nil {
		return err
	}
	t := model.Task{ProjectID: p.ID, Title: argOrEmpty(args), Description: taskDescription}
	if taskStatus != "" {
		if t.Status, err = model.ParseTaskStatus(taskStatus); err != nil {
			return err
		}
	}
	if t.DueDate, err = parseDateFlag(taskDue); err != nil {
		return err
	}

	created, err := v.store.CreateTask(cmd.Context(), t)
	if err != nil {
		return fmt.Errorf("failed to add task: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ Added to %s: %s (%s)\n", p.Title, created.Title, shortID(created.ID))
	return nil
}

func runTaskList(cmd *cobra.Command, args []string) error {
	v, err := openVault(cmd.Context())
	if err != nil {
		return err
	}
	defer v.Close()

	var f store.TaskFilter
	if !taskAll {
		p, err := v.project(cmd.Context(), "")
		if err != nil {
			return err
		}
		f.ProjectID = p.ID
	}
	if taskStatus != "" {
		if f.Status, err = model.ParseTaskStatus(taskStatus); err != nil {
			return err
		}
	}
	tasks, err := v.store.ListTasks(cmd.Context(), f)
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(tasks) == 0 {
		fmt.Fprintln(out, "📭 No tasks")
		return nil
	}
	today := model.DateOf(time.Now())
	for _, status := range model.TaskStatuses {
		var column []model.Task
		for _, t := range tasks {
			if t.Status == status {
				column = append(column, t)
			}
		}
		if len(column) == 0 {
			continue
		}
		fmt.Fprintf(out, "\n%s (%d)\n", strings.ToUpper(string(status)), len(column))
		for _, t := range column {
			check := "○"
			if t.IsDone() {
				check = "✓"
			}
			due := ""
			if t.DueDate != nil {
				due = "  due " + t.DueDate.String()
				if t.IsOverdue(today) {
					due += " ⚠️ overdue"
				}
			}
			fmt.Fprintf(out, "  %s %-10s %s%s\n", check, shortID(t.ID), t.Title, due)
		}
	}
	fmt.Fprintln(out)
	return nil
}

func runTaskMove(cmd *cobra.Command, args []string) error {
	status, err := model.ParseTaskStatus(args[1])
	if err != nil {
		return err
	}
	v, err := openVault(cmd.Context())
	if err != nil {
		return err
	}
	defer v.Close()

	t, err := v.task(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	moved, err := v.store.MoveTask(cmd.Context(), t.ID, status)
	if err != nil {
		return fmt.Errorf("failed to move task: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "➡️  %s → %s\n", moved.Title, moved.Status)
	return nil
}

func runTaskEdit(cmd *cobra.Command, args []string) error {
	v, err := openVault(cmd.Context())
	if err != nil {
		return err
	}
	defer v.Close()

	t, err := v.task(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	patch := model.TaskPatch{ClearDue: taskClearDue}
	flags := cmd.Flags()
	if flags.Changed("title") {
		patch.Title = &taskTitle
	}
	if flags.Changed("description") {
		patch.Description = &taskDescription
	}
	if flags.Changed("status") {
		s, err := model.ParseTaskStatus(taskStatus)
		if err != nil {
			return err
		}
		patch.Status = &s
	}
	if patch.DueDate, err = parseDateFlag(taskDue); err != nil {
		return err
	}

	updated, err := v.store.UpdateTask(cmd.Context(), t.ID, patch)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✏️  Updated task: %s\n", updated.Title)
	return nil
}

func runTaskDelete(cmd *cobra.Command, args []string) error {
	v, err := openVault(cmd.Context())
	if err != nil {
		return err
	}
	defer v.Close()

	t, err := v.task(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if err := v.store.DeleteTask(cmd.Context(), t.ID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Deleted task: %s\n", t.Title)
	return nil
}
