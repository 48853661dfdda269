package daemon

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/swaygravity/internal/supervise"
)

var forwardedSignals = []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGHUP}

// SignalSource returns the event source for process signals: SIGINT and
// SIGTERM shut the daemon down, SIGHUP re-applies the current state.
func SignalSource(events chan<- Event, logger *slog.Logger) supervise.ServiceFunc {
	return supervise.NewServiceFunc("signals", func(ctx context.Context) error {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, forwardedSignals...)
		defer signal.Stop(sigCh)

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case sig := <-sigCh:
				if err := Send(ctx, events, translateSignal(sig, logger)); err != nil {
					return err
				}
			}
		}
	})
}

func translateSignal(sig os.Signal, logger *slog.Logger) Event {
	if sig == syscall.SIGHUP {
		logger.Info("Received SIGHUP, re-applying placement")
		return UpdateEvent{Source: "signals"}
	}
	logger.Info("Received signal, shutting down", "signal", sig.String())
	return ShutdownEvent{Source: "signals", Reason: sig.String()}
}
