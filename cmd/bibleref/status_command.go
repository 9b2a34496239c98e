package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"bibleref/internal/api"
	"bibleref/internal/queue"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			var status api.DaemonStatus
			if client := ctx.tryClient(); client != nil {
				defer client.Close()
				resp, err := client.Status()
				if err != nil {
					return err
				}
				status = *resp
			} else {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				status, err = offlineStatus(cmd.Context(), cfg)
				if err != nil {
					return err
				}
			}

			if jsonOutput {
				return writeJSON(cmd, status)
			}
			stdout := cmd.OutOrStdout()
			renderStatus(stdout, status, shouldColorize(stdout))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func renderStatus(out io.Writer, status api.DaemonStatus, colorize bool) {
	for _, line := range renderSectionHeader("Daemon", colorize) {
		fmt.Fprintln(out, line)
	}
	if status.Running {
		fmt.Fprintln(out, renderStatusLine("bibleref", statusOK, fmt.Sprintf("Running (pid %d)", status.PID), colorize))
	} else {
		fmt.Fprintln(out, renderStatusLine("bibleref", statusWarn, "Not running", colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Vault", statusInfo, status.VaultDir, colorize))
	fmt.Fprintln(out, renderStatusLine("Queue database", statusInfo, status.QueueDBPath, colorize))
	fmt.Fprintln(out)

	for _, line := range renderSectionHeader("Migration", colorize) {
		fmt.Fprintln(out, line)
	}
	for _, line := range migrationLines(status.Migration, colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out)

	for _, line := range renderSectionHeader("Queue", colorize) {
		fmt.Fprintln(out, line)
	}
	rows := queueStatusRows(status.Migration.QueueStats)
	if len(rows) == 0 {
		fmt.Fprintln(out, "Queue is empty")
		return
	}
	fmt.Fprintln(out, renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
}

func migrationLines(status api.MigrationStatus, colorize bool) []string {
	lines := make([]string, 0, 3)
	switch {
	case status.Current != nil:
		task := status.Current
		detail := fmt.Sprintf("%s → %s for %s, %s", task.OldID, task.NewID, task.EntityID, formatProgress(task.Progress))
		if status.ElapsedMs > 0 {
			detail += fmt.Sprintf(" in %s", (time.Duration(status.ElapsedMs) * time.Millisecond).Round(time.Second))
		}
		lines = append(lines, renderStatusLine("Current", statusOK, detail, colorize))
	case status.Running:
		lines = append(lines, renderStatusLine("Current", statusInfo, "Starting", colorize))
	default:
		lines = append(lines, renderStatusLine("Current", statusInfo, "Idle", colorize))
	}
	if status.LastError != "" {
		lines = append(lines, renderStatusLine("Last error", statusError, status.LastError, colorize))
	}
	return lines
}

func queueStatusRows(stats map[string]int) [][]string {
	rows := make([][]string, 0, len(stats))
	for _, s := range queue.AllStatuses() {
		count := stats[string(s)]
		if count == 0 {
			continue
		}
		rows = append(rows, []string{string(s), strconv.Itoa(count)})
	}
	return rows
}
