package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"bibleref/internal/config"
	"bibleref/internal/ipc"
	"bibleref/internal/preflight"
	"bibleref/internal/queue"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, notifications and the queue database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("Preflight", colorize) {
				fmt.Fprintln(stdout, line)
			}
			results := preflight.RunAll(cmd.Context(), cfg)
			for _, result := range results {
				kind := statusOK
				if !result.Passed {
					kind = statusError
				}
				fmt.Fprintln(stdout, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Queue Database", colorize) {
				fmt.Fprintln(stdout, line)
			}
			health, err := databaseHealth(cmd.Context(), ctx, cfg)
			healthy := renderDatabaseHealth(stdout, health, err, colorize)

			if len(preflight.Failed(results)) > 0 || !healthy {
				return errors.New("doctor found problems")
			}
			fmt.Fprintln(stdout)
			fmt.Fprintln(stdout, "All checks passed")
			return nil
		},
	}
}

// databaseHealth prefers the daemon's view so a locked database is reported
// from the process that holds it.
func databaseHealth(cmdCtx context.Context, ctx *commandContext, cfg *config.Config) (ipc.DatabaseHealthResponse, error) {
	if client := ctx.tryClient(); client != nil {
		defer client.Close()
		resp, err := client.DatabaseHealth()
		if err != nil {
			return ipc.DatabaseHealthResponse{Error: err.Error()}, err
		}
		return *resp, nil
	}

	store, err := queue.Open(cfg)
	if err != nil {
		return ipc.DatabaseHealthResponse{DBPath: cfg.QueueDBPath(), Error: err.Error()}, err
	}
	defer store.Close()
	health, err := store.CheckHealth(cmdCtx)
	return ipc.DatabaseHealthResponse{
		DBPath:           health.DBPath,
		DatabaseExists:   health.DatabaseExists,
		DatabaseReadable: health.DatabaseReadable,
		SchemaVersion:    health.SchemaVersion,
		TableExists:      health.TableExists,
		IntegrityCheck:   health.IntegrityCheck,
		TotalTasks:       health.TotalTasks,
		Error:            health.Error,
	}, err
}

func renderDatabaseHealth(out io.Writer, health ipc.DatabaseHealthResponse, err error, colorize bool) bool {
	fmt.Fprintln(out, renderStatusLine("Path", statusInfo, health.DBPath, colorize))
	ok := err == nil && health.Error == ""
	checks := []struct {
		label  string
		passed bool
	}{
		{"Exists", health.DatabaseExists},
		{"Readable", health.DatabaseReadable},
		{"Tables", health.TableExists},
		{"Integrity", health.IntegrityCheck},
	}
	for _, check := range checks {
		kind := statusOK
		if !check.passed {
			kind = statusError
			ok = false
		}
		fmt.Fprintln(out, renderStatusLine(check.label, kind, yesNo(check.passed), colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Schema version", statusInfo, fmt.Sprintf("%d", health.SchemaVersion), colorize))
	fmt.Fprintln(out, renderStatusLine("Queued tasks", statusInfo, fmt.Sprintf("%d", health.TotalTasks), colorize))
	if !ok {
		detail := health.Error
		if detail == "" && err != nil {
			detail = err.Error()
		}
		if detail != "" {
			fmt.Fprintln(out, renderStatusLine("Error", statusError, detail, colorize))
		}
	}
	return ok
}
