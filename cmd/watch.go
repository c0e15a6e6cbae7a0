/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/app"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/watch"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run the cycle whenever the snapshot file changes",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	if appConfig.Snapshot.Path == "" {
		return app.ErrNoSnapshot
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	cycle := func(ctx context.Context) error {
		e.InvalidateSnapshot()
		res, err := e.RunSnapshot(ctx)
		if errors.Is(err, app.ErrCycleInProgress) {
			slog.Info("cycle already running, change skipped")
			return nil
		}
		if err != nil {
			return err
		}
		if isJSON() {
			return printJSON(res)
		}
		printCycle(res)
		return nil
	}
	if err := cycle(ctx); err != nil {
		return err
	}

	w, err := watch.New(watch.Config{Path: appConfig.Snapshot.Path, OnChange: cycle})
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	progress("Watching %s (Ctrl+C to stop)", appConfig.Snapshot.Path)
	<-ctx.Done()
	return nil
}
