package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leonletto/edge-copilot-helper/internal/daemon"
)

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Watch for Edge exits in the foreground",
		Long: `Run the watcher in the foreground, logging to the console.

A fix cycle runs every time Edge exits. Use the fix command to apply it
immediately. Stop with Ctrl-C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatcher(cmd.Context(), logConsole)
		},
	}
}

func daemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "daemon",
		Short:  "Run the watcher in the background (used by the installed service)",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatcher(cmd.Context(), logFile)
		},
	}
}

func runWatcher(ctx context.Context, mode logMode) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := newApp(ctx, mode)
	if err != nil {
		return err
	}
	defer a.Close()

	w, err := a.newWatcher()
	if err != nil {
		return err
	}

	lc := daemon.NewLifecycle(w, layout.PIDFile, layout.LockFile, a.logger)
	lc.SetVersion(Version)
	if err := lc.Run(ctx); err != nil {
		if errors.Is(err, daemon.ErrAlreadyRunning) {
			return fmt.Errorf("another instance is already running: %w", err)
		}
		return err
	}
	return nil
}
