package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sadopc/levelup/internal/focus"
)

func newTasksCmd(cfgFile *string) *cobra.Command {
	tasks := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task", "t"},
		Short:   "List and manage tasks",
	}
	tasks.AddCommand(
		newTasksListCmd(cfgFile),
		newTasksAddCmd(cfgFile),
		newTasksDoneCmd(cfgFile),
		newTasksRmCmd(cfgFile),
	)
	return tasks
}

func newTasksListCmd(cfgFile *string) *cobra.Command {
	var all bool
	c := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List open tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*cfgFile)
			if err != nil {
				return err
			}
			defer a.Close()

			tasks, err := a.tasks.ListTasks(cmd.Context())
			if err != nil {
				return err
			}
			if !all {
				tasks = focus.Available(tasks)
			}
			printTasks(cmd.OutOrStdout(), tasks)
			return nil
		},
	}
	c.Flags().BoolVarP(&all, "all", "a", false, "include done tasks")
	return c
}

func printTasks(w io.Writer, tasks []focus.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks.")
		return
	}
	fmt.Fprintf(w, "%-6s %-10s %-8s %-5s %s\n", "ID", "STATUS", "ESTIMATE", "DIFF", "TITLE")
	for _, t := range tasks {
		estimate := "-"
		if t.EstimatedMinutes > 0 {
			estimate = fmt.Sprintf("%dm", t.EstimatedMinutes)
		}
		fmt.Fprintf(w, "%-6d %-10s %-8s %-5d %s\n", t.ID, t.Status, estimate, t.Difficulty, t.Title)
	}
}

func newTasksAddCmd(cfgFile *string) *cobra.Command {
	var (
		estimate    int
		difficulty  int
		description string
	)
	c := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Example: `  levelup tasks add "Write weekly report" --estimate 50 --difficulty 3
  levelup tasks add "Reply to Sam" -e 2`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*cfgFile)
			if err != nil {
				return err
			}
			defer a.Close()

			title := strings.Join(args, " ")
			var t focus.Task
			if description != "" {
				if a.client != nil {
					return fmt.Errorf("--description: %w", errUnsupportedOnline)
				}
				row, err := a.store.CreateTask(title, description, estimate, difficulty)
				if err != nil {
					return err
				}
				t = row.Focus()
			} else {
				t, err = a.tasks.AddTask(cmd.Context(), title, estimate, difficulty)
				if err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added task %d: %s (%s)\n", t.ID, t.Title, t.Status)
			return nil
		},
	}
	c.Flags().IntVarP(&estimate, "estimate", "e", 0, "estimated minutes")
	c.Flags().IntVarP(&difficulty, "difficulty", "d", 1, "difficulty from 1 to 5")
	c.Flags().StringVar(&description, "description", "", "longer description (offline only)")
	return c
}

func newTasksDoneCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:     "done <id>",
		Aliases: []string{"complete"},
		Short:   "Mark a task done",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(*cfgFile)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.tasks.CompleteTask(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %d done.\n", id)
			return nil
		},
	}
}

func newTasksRmCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task from the local task list",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(*cfgFile)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.client != nil {
				return fmt.Errorf("delete task: %w", errUnsupportedOnline)
			}
			if err := a.store.DeleteTask(id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %d deleted.\n", id)
			return nil
		},
	}
}

func parseTaskID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}

// findTask looks a task up by id in src.
func findTask(ctx context.Context, src focus.TaskSource, id int64) (focus.Task, error) {
	tasks, err := src.ListTasks(ctx)
	if err != nil {
		return focus.Task{}, err
	}
	for _, t := range tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return focus.Task{}, fmt.Errorf("task %d not found", id)
}
