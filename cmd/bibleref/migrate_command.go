package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"bibleref/internal/api"
	"bibleref/internal/config"
	"bibleref/internal/migration"
	"bibleref/internal/vault"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	var wait bool
	var dryRun bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "migrate <entity> <old-id> <new-id>",
		Short: "Queue a rename of an entity's reference id across the vault",
		Long: "Queue a rename of an entity's reference id across the vault.\n\n" +
			"The rename is handed to the running daemon. Without a daemon, --wait\n" +
			"processes the queue in this process and returns once it is empty.",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			entityID, oldID, newID := args[0], args[1], args[2]
			out := cmd.OutOrStdout()

			if dryRun {
				return runPreview(cmd, cfg, oldID, newID, jsonOutput)
			}

			if client := ctx.tryClient(); client != nil {
				defer client.Close()
				resp, err := client.Migrate(entityID, oldID, newID)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, resp)
				}
				printQueued(out, resp.Task, resp.Created)
				return nil
			}

			if !wait {
				return errors.New("daemon is not running; start it with `bibleref daemon` or pass --wait to migrate in this process")
			}
			return runLocalMigration(cmd.Context(), cfg, out, entityID, oldID, newID)
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "Run the migration in this process when no daemon is running")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report which notes would change without queuing anything")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func runLocalMigration(ctx context.Context, cfg *config.Config, out io.Writer, entityID, oldID, newID string) error {
	rt, err := openLocalRuntime(cfg, out)
	if err != nil {
		return err
	}
	defer rt.Close()

	return rt.run(ctx, func(ctx context.Context, manager *migration.Manager) error {
		task, created, err := manager.QueueMigration(ctx, entityID, oldID, newID)
		if err != nil {
			return err
		}
		printQueued(rt.out, api.FromTask(&task), created)
		return nil
	})
}

func printQueued(out io.Writer, task api.Task, created bool) {
	if !created {
		fmt.Fprintf(out, "Rename %s → %s for %s is already queued (task %s)\n", task.OldID, task.NewID, task.EntityID, shortTaskID(task.ID))
		return
	}
	fmt.Fprintf(out, "Queued rename %s → %s for %s (task %s)\n", task.OldID, task.NewID, task.EntityID, shortTaskID(task.ID))
}

func runPreview(cmd *cobra.Command, cfg *config.Config, oldID, newID string, jsonOutput bool) error {
	docs := vault.NewFromConfig(cfg, nil)
	result, err := migration.Preview(cmd.Context(), docs, oldID, newID, migration.OptionsFromConfig(cfg)...)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(cmd, result)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s → %s: %d of %d notes would change\n", result.OldPattern, result.NewPattern, len(result.Matches), result.Total)
	if len(result.Matches) > 0 {
		rows := make([][]string, 0, len(result.Matches))
		for _, match := range result.Matches {
			rows = append(rows, []string{match.Document, strconv.Itoa(match.References)})
		}
		fmt.Fprintln(out, renderTable([]string{"Note", "References"}, rows, []columnAlignment{alignLeft, alignRight}))
	}
	for _, path := range result.Unreadable {
		fmt.Fprintf(out, "Skipped unreadable note: %s\n", path)
	}
	return nil
}
