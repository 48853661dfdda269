package sway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/1broseidon/swaygravity/internal/daemon"
	gosway "github.com/joshuarubin/go-sway"
)

// WakePayload is the tick payload the subscriber sends itself to unblock a
// subscription parked on the event stream.
const WakePayload = "swaygravity:wake"

// DefaultEventDelay is how long the subscriber lets sway settle after a
// reload before forwarding it.
const DefaultEventDelay = 200 * time.Millisecond

const wakeTimeout = time.Second

// event is the closed set of compositor events the subscriber receives.
type event interface {
	swayEvent()
}

type workspaceEvent struct{ change string }

type tickEvent struct {
	first   bool
	payload string
}

type shutdownEvent struct{ change string }

func (workspaceEvent) swayEvent() {}
func (tickEvent) swayEvent()      {}
func (shutdownEvent) swayEvent()  {}

// normalize maps a compositor event onto the loop's vocabulary. Only
// workspace reloads are relevant; everything else is dropped here.
func normalize(ev event) (daemon.Event, bool) {
	switch ev := ev.(type) {
	case workspaceEvent:
		if ev.change == "reload" {
			return daemon.UpdateEvent{Source: "sway"}, true
		}
	case tickEvent, shutdownEvent:
	}
	return nil, false
}

type subscribeFunc func(ctx context.Context, h gosway.EventHandler, events ...gosway.EventType) error

// Subscriber forwards relevant sway events into the reconciliation loop.
type Subscriber struct {
	events    chan<- daemon.Event
	delay     time.Duration
	logger    *slog.Logger
	subscribe subscribeFunc
	wake      func(ctx context.Context) error
}

// NewSubscriber creates a subscriber that waits delay after each relevant
// event before forwarding it.
func NewSubscriber(events chan<- daemon.Event, delay time.Duration, logger *slog.Logger) *Subscriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &Subscriber{
		events:    events,
		delay:     delay,
		logger:    logger,
		subscribe: gosway.Subscribe,
		wake:      sendWakeTick,
	}
}

func (s *Subscriber) String() string { return "sway-subscriber" }

// Serve subscribes to sway events until ctx is done or the subscription
// ends. On cancellation it wakes the subscription with a tick so it can
// observe the stop.
func (s *Subscriber) Serve(ctx context.Context) error {
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	h := &handler{EventHandler: gosway.NoOpEventHandler(), sub: s}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.subscribe(subCtx, h, gosway.EventTypeWorkspace, gosway.EventTypeTick, gosway.EventTypeShutdown)
	}()
	s.logger.Debug("Subscribed to sway events")

	select {
	case err := <-errCh:
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err == nil {
			err = errors.New("event stream ended")
		}
		return fmt.Errorf("sway subscription: %w", err)
	case <-ctx.Done():
	}

	cancel()
	wakeCtx, wakeCancel := context.WithTimeout(context.Background(), wakeTimeout)
	defer wakeCancel()
	if err := s.wake(wakeCtx); err != nil {
		s.logger.Debug("Wake-up tick failed", "error", err)
	}

	select {
	case <-errCh:
	case <-wakeCtx.Done():
		s.logger.Warn("Sway subscription did not stop in time")
	}
	return ctx.Err()
}

func (s *Subscriber) dispatch(ctx context.Context, ev event) {
	if ctx.Err() != nil {
		return
	}
	out, ok := normalize(ev)
	if !ok {
		return
	}

	s.logger.Debug("Sway layout reloaded, waiting to settle", "delay", s.delay)
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return
		}
	}

	if err := daemon.Send(ctx, s.events, out); err != nil {
		s.logger.Debug("Dropped sway event", "error", err)
	}
}

type handler struct {
	gosway.EventHandler
	sub *Subscriber
}

func (h *handler) Workspace(ctx context.Context, e gosway.WorkspaceEvent) {
	h.sub.dispatch(ctx, workspaceEvent{change: string(e.Change)})
}

func (h *handler) Tick(ctx context.Context, e gosway.TickEvent) {
	h.sub.dispatch(ctx, tickEvent{first: e.First, payload: e.Payload})
}

func (h *handler) Shutdown(ctx context.Context, e gosway.ShutdownEvent) {
	h.sub.dispatch(ctx, shutdownEvent{change: string(e.Change)})
}

func sendWakeTick(ctx context.Context) error {
	conn, err := Connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	return conn.SendTick(ctx, WakePayload)
}
