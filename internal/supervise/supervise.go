// Package supervise runs the daemon's event sources under a suture
// supervisor. A source that fails is restarted; every supervisor event is
// logged through slog.
package supervise

import (
	"context"
	"errors"
	"log/slog"

	"github.com/thejerf/suture/v4"
)

// Service is a named suture service.
type Service interface {
	String() string
	suture.Service
}

// Supervisor restarts failed event sources until its context ends.
type Supervisor struct {
	super  *suture.Supervisor
	logger *slog.Logger
}

// New creates a supervisor whose events are logged to logger.
func New(name string, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("supervisor", name)
	return &Supervisor{
		super:  suture.New(name, suture.Spec{EventHook: eventHook(logger)}),
		logger: logger,
	}
}

// Add registers svc. Context errors from a live svc are reported as plain
// failures so that suture restarts it.
func (s *Supervisor) Add(svc Service) {
	s.super.Add(sanitized{Service: svc})
	s.logger.Debug("event source added", "source", svc.String())
}

// Serve runs every added service until ctx is done. It returns nil when
// ctx was cancelled.
func (s *Supervisor) Serve(ctx context.Context) error {
	err := s.super.Serve(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func eventHook(logger *slog.Logger) suture.EventHook {
	return func(ev suture.Event) {
		switch e := ev.(type) {
		case suture.EventServiceTerminate:
			if e.Restarting {
				logger.Warn("event source failed, restarting", "source", e.ServiceName, "error", e.Err)
				return
			}
			logger.Error("event source stopped", "source", e.ServiceName, "error", e.Err)
		case suture.EventServicePanic:
			logger.Error("event source panicked", "source", e.ServiceName, "panic", e.PanicMsg)
			logger.Debug(e.Stacktrace)
		case suture.EventStopTimeout:
			logger.Warn("event source did not stop in time", "source", e.ServiceName)
		case suture.EventBackoff:
			logger.Warn("event sources failing repeatedly, backing off")
		case suture.EventResume:
			logger.Info("resuming event sources after backoff")
		default:
			logger.Debug("supervisor event", "type", int(e.Type()))
		}
	}
}

type sanitized struct {
	Service
}

func (s sanitized) Serve(ctx context.Context) error {
	return SanitizeError(ctx, s.Service.Serve(ctx))
}

// SanitizeError hides context errors returned while ctx is still live:
// suture reads them as a stop request and would not restart the service.
// ErrDoNotRestart and ErrTerminateSupervisorTree survive the rewrite.
func SanitizeError(ctx context.Context, err error) error {
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	case !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded):
		return err
	}

	errs := []error{errors.New(err.Error())}
	for _, control := range []error{suture.ErrDoNotRestart, suture.ErrTerminateSupervisorTree} {
		if errors.Is(err, control) {
			errs = append(errs, control)
		}
	}
	return errors.Join(errs...)
}

// ServiceFunc is a Service backed by a plain function.
type ServiceFunc struct {
	name string
	fn   func(ctx context.Context) error
}

func NewServiceFunc(name string, fn func(ctx context.Context) error) ServiceFunc {
	return ServiceFunc{name: name, fn: fn}
}

func (s ServiceFunc) String() string { return s.name }

func (s ServiceFunc) Serve(ctx context.Context) error { return s.fn(ctx) }
