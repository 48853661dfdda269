package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/1broseidon/swaygravity/internal/compositor"
	"github.com/1broseidon/swaygravity/internal/daemon"
	"github.com/1broseidon/swaygravity/internal/ipc"
	"github.com/1broseidon/swaygravity/internal/placement"
	"github.com/1broseidon/swaygravity/internal/sway"
)

// runClient hands u to a running daemon, or places the window directly
// when none is listening.
func runClient(ctx context.Context, socketPath string, u placement.Update, logger *slog.Logger) error {
	client := ipc.NewClient(socketPath, ipc.DefaultTimeout)

	err := client.Update(ctx, u)
	switch {
	case err == nil:
		logUpdate(logger, "Sent update to daemon", u, "socket", socketPath)
		return nil
	case !errors.Is(err, ipc.ErrDaemonNotRunning):
		return err
	}

	logger.Debug("No daemon listening, placing window directly", "socket", socketPath)
	return runOnce(ctx, u, logger)
}

// runOnce performs a single pass without a daemon.
func runOnce(ctx context.Context, u placement.Update, logger *slog.Logger) error {
	conn, err := sway.Connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	res, err := placeOnce(ctx, conn, u, logger)
	if err != nil {
		return err
	}
	logUpdate(logger, "Window placed", u,
		"window_id", res.Target.ID,
		"x", res.Rect.X, "y", res.Rect.Y,
		"width", res.Rect.Width, "height", res.Rect.Height)
	return nil
}

// placeOnce applies u on top of the default state. Without a daemon there
// is no earlier state to build on.
func placeOnce(ctx context.Context, backend compositor.Backend, u placement.Update, logger *slog.Logger) (daemon.Result, error) {
	return daemon.NewReconciler(backend, placement.Default(), logger).Reconcile(ctx, u)
}

func runShutdown(ctx context.Context, socketPath string, logger *slog.Logger) error {
	if err := ipc.NewClient(socketPath, ipc.DefaultTimeout).Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Debug("Sent shutdown to daemon", "socket", socketPath)
	return nil
}

func placementJSON(u placement.Update) (string, error) {
	data, err := json.Marshal(u)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
