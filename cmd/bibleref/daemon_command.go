package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"bibleref/internal/daemonctl"
	"bibleref/internal/daemonrun"
)

const (
	daemonStartTimeout = 10 * time.Second
	daemonStopGrace    = 15 * time.Second
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	var logLevel string
	var development bool

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the bibleref daemon in the foreground",
		Long: "Run the bibleref daemon in the foreground.\n\n" +
			"The daemon resumes interrupted migrations on start, accepts CLI requests\n" +
			"on its socket and serves the HTTP API when paths.api_bind is set.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				LogLevel:    strings.TrimSpace(logLevel),
				Development: development,
				SocketPath:  ctx.socketPath(),
			})
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&development, "dev", false, "Tag log records as coming from a development run")
	return cmd
}

func newStartCommand(ctx *commandContext) *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the bibleref daemon in the background",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("resolve executable: %w", err)
			}
			result, err := daemonctl.EnsureStarted(ctx.socketPath(), exe, launchOptions(ctx, logLevel), daemonStartTimeout)
			if err != nil {
				return err
			}
			if result.Launched {
				fmt.Fprintf(cmd.OutOrStdout(), "Daemon started (pid %d)\n", result.PID)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Daemon already running (pid %d)\n", result.PID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override logging.level for the launched daemon")
	return cmd
}

func newStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running daemon",
		Long: "Stop the running daemon.\n\n" +
			"The daemon finishes its current checkpoint and exits. If it does not exit\n" +
			"within the grace period it is killed; the interrupted migration resumes on\n" +
			"the next start.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := daemonctl.StopAndTerminate(ctx.socketPath(), daemonStopGrace)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(cmd.OutOrStdout(), "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			switch {
			case result.ForcedKill:
				fmt.Fprintf(cmd.OutOrStdout(), "Daemon killed (pid %d)\n", result.PID)
			case result.StopAcknowledged:
				fmt.Fprintln(cmd.OutOrStdout(), "Daemon stopped")
			default:
				fmt.Fprintln(cmd.OutOrStdout(), "Stop request sent")
			}
			return nil
		},
	}
}

func newRestartCommand(ctx *commandContext) *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the background daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("resolve executable: %w", err)
			}
			result, err := daemonctl.Restart(ctx.socketPath(), exe, launchOptions(ctx, logLevel), daemonStopGrace, daemonStartTimeout)
			if err != nil {
				return err
			}
			if !result.WasRunning {
				fmt.Fprintln(cmd.OutOrStdout(), "Daemon was not running")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Daemon started (pid %d)\n", result.Start.PID)
			return nil
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override logging.level for the launched daemon")
	return cmd
}

func launchOptions(ctx *commandContext, logLevel string) daemonctl.LaunchOptions {
	return daemonctl.LaunchOptions{
		SocketPath: ctx.socketPath(),
		ConfigPath: ctx.configPath(),
		LogLevel:   strings.TrimSpace(logLevel),
	}
}
