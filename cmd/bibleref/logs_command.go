package main

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"bibleref/internal/logging"
	"bibleref/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines  int
		follow bool
		raw    bool
		filter logs.Filter
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the daemon log",
		Long: "Show the daemon log from the state directory.\n\n" +
			"Records are filtered by level, component, event type or task id prefix.\n" +
			"Use --follow to keep printing new records until interrupted.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := filepath.Join(cfg.Paths.StateDir, logging.LogFileName)
			out := cmd.OutOrStdout()

			limit := lines
			if !filter.Empty() {
				// Filtering happens after the tail, so read further back.
				limit = lines * 10
			}
			result, err := logs.Tail(cmd.Context(), path, logs.TailOptions{Offset: -1, Limit: limit})
			if err != nil {
				return err
			}
			printLogLines(out, lastMatching(result.Lines, filter, lines, raw))

			offset := result.Offset
			for follow {
				next, err := logs.Tail(cmd.Context(), path, logs.TailOptions{Offset: offset, Follow: true, Wait: 5 * time.Second})
				if err != nil {
					if cmd.Context().Err() != nil {
						return nil
					}
					return err
				}
				offset = next.Offset
				printLogLines(out, lastMatching(next.Lines, filter, 0, raw))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of records to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new records")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print JSON lines unchanged")
	cmd.Flags().StringVar(&filter.MinLevel, "level", "", "Minimum level (debug, info, warn, error)")
	cmd.Flags().StringVar(&filter.Component, "component", "", "Only records from this component")
	cmd.Flags().StringVar(&filter.EventType, "event", "", "Only records with this event type")
	cmd.Flags().StringVar(&filter.TaskID, "task", "", "Only records for this task id prefix")
	return cmd
}

// lastMatching keeps the last limit lines that pass filter; limit <= 0 keeps all.
func lastMatching(lines []string, filter logs.Filter, limit int, raw bool) []string {
	var kept []string
	for _, line := range lines {
		rec, ok := logs.ParseRecord(line)
		if !ok {
			if filter.Empty() {
				kept = append(kept, line)
			}
			continue
		}
		if !filter.Match(rec) {
			continue
		}
		if raw {
			kept = append(kept, line)
		} else {
			kept = append(kept, logs.Format(rec))
		}
	}
	if limit > 0 && len(kept) > limit {
		kept = kept[len(kept)-limit:]
	}
	return kept
}

func printLogLines(w io.Writer, lines []string) {
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
}
