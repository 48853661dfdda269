package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/1broseidon/swaygravity/internal/config"
	"github.com/1broseidon/swaygravity/internal/daemon"
	"github.com/1broseidon/swaygravity/internal/ipc"
	"github.com/1broseidon/swaygravity/internal/placement"
	"github.com/1broseidon/swaygravity/internal/sway"
)

// runDaemon takes over the socket and runs until shut down.
func runDaemon(ctx context.Context, cfg *config.Config, socketPath string, u placement.Update, logger *slog.Logger) error {
	initial, err := cfg.InitialState(u)
	if err != nil {
		return err
	}

	conn, err := sway.Connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	d := daemon.New(daemon.NewReconciler(conn, initial, logger), logger)

	srv, err := ipc.Listen(ctx, socketPath, cfg.HandoverWait(), d.Events(), logger)
	if err != nil {
		return fmt.Errorf("failed to start IPC server: %w", err)
	}
	defer srv.Shutdown()

	d.AddSource(srv)
	d.AddSource(sway.NewSubscriber(d.Events(), cfg.EventDelay(), logger))
	d.AddSource(daemon.SignalSource(d.Events(), logger))

	logger.Info("swaygravity daemon started",
		"socket", socketPath,
		"sway_event_delay", cfg.EventDelay(),
		"state", initial.String())

	return d.Run(ctx)
}
