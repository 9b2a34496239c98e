package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"bibleref/internal/api"
	"bibleref/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect the migration queue",
	}
	queueCmd.AddCommand(newQueueListCommand(ctx))
	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var statuses []string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued migrations in processing order",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, raw := range statuses {
				if _, ok := queue.ParseStatus(raw); !ok {
					return fmt.Errorf("unknown status %q", raw)
				}
			}

			var tasks []api.Task
			if client := ctx.tryClient(); client != nil {
				defer client.Close()
				resp, err := client.QueueList(statuses)
				if err != nil {
					return err
				}
				tasks = resp.Tasks
			} else {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				all, err := offlineQueue(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				tasks = filterTasks(all, statuses)
			}

			if jsonOutput {
				return writeJSON(cmd, api.QueueListResponse{Tasks: tasks})
			}
			printTasks(cmd.OutOrStdout(), tasks)
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&statuses, "status", "s", nil, "Filter by status (pending, running, completed)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func filterTasks(tasks []api.Task, statuses []string) []api.Task {
	if len(statuses) == 0 {
		return tasks
	}
	want := make(map[queue.Status]bool, len(statuses))
	for _, raw := range statuses {
		if status, ok := queue.ParseStatus(raw); ok {
			want[status] = true
		}
	}
	filtered := make([]api.Task, 0, len(tasks))
	for _, task := range tasks {
		if want[queue.Status(task.Status)] {
			filtered = append(filtered, task)
		}
	}
	return filtered
}

func printTasks(out io.Writer, tasks []api.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(out, "Queue is empty")
		return
	}
	rows := make([][]string, 0, len(tasks))
	for _, task := range tasks {
		rows = append(rows, []string{
			shortTaskID(task.ID),
			task.EntityID,
			task.OldID + " → " + task.NewID,
			task.Status,
			formatProgress(task.Progress),
			strconv.Itoa(task.Progress.FilesChanged),
		})
	}
	headers := []string{"Task", "Entity", "Rename", "Status", "Progress", "Changed"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight}
	fmt.Fprintln(out, renderTable(headers, rows, aligns))
}

func formatProgress(p api.TaskProgress) string {
	if p.FilesTotal <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d/%d (%.0f%%)", p.FilesProcessed, p.FilesTotal, p.Percent)
}

func shortTaskID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
