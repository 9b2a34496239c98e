package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResumeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Restart interrupted migrations",
		Long: "Restart interrupted migrations.\n\n" +
			"With a daemon running the request is forwarded to it. Otherwise the\n" +
			"queue is processed in this process until it is empty.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if client := ctx.tryClient(); client != nil {
				defer client.Close()
				resp, err := client.Resume()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Resumed; %d migrations queued\n", resp.Queued)
				return nil
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			rt, err := openLocalRuntime(cfg, out)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.run(cmd.Context(), nil); err != nil {
				return err
			}
			fmt.Fprintln(out, "Queue is empty")
			return nil
		},
	}
}
