package sway

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/1broseidon/swaygravity/internal/compositor"
	"github.com/1broseidon/swaygravity/internal/daemon"
	"github.com/1broseidon/swaygravity/internal/geometry"
	gosway "github.com/joshuarubin/go-sway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertNode(t *testing.T) {
	root := &gosway.Node{
		ID:   1,
		Type: gosway.NodeRoot,
		Nodes: []*gosway.Node{{
			ID:   3,
			Name: "1",
			Type: gosway.NodeWorkspace,
			Rect: gosway.Rect{X: 1920, Y: 30, Width: 1920, Height: 1050},
			FloatingNodes: []*gosway.Node{{
				ID:       7,
				Name:     "mpv",
				Type:     gosway.NodeFloatingCon,
				Focused:  true,
				Rect:     gosway.Rect{X: 2000, Y: 100, Width: 640, Height: 360},
				DecoRect: gosway.Rect{Width: 640, Height: 24},
				Geometry: gosway.Rect{Width: 1280, Height: 720},
			}},
		}},
	}

	got := convertNode(root)
	require.NotNil(t, got)
	win := got.Find(7)
	require.NotNil(t, win)

	assert.True(t, win.Floating())
	assert.True(t, win.Focused)
	assert.Equal(t, geometry.Rect{X: 2000, Y: 100, Width: 640, Height: 360}, win.Rect)
	assert.Equal(t, 24, win.DecoRect.Height)
	assert.Equal(t, geometry.Rect{Width: 1280, Height: 720}, win.Geometry)

	ws, err := got.WorkspaceOf(7)
	require.NoError(t, err)
	assert.Equal(t, compositor.NodeWorkspace, ws.Type)
	assert.Equal(t, geometry.Rect{X: 1920, Y: 30, Width: 1920, Height: 1050}, ws.Rect)

	assert.Nil(t, convertNode(nil))
}

func TestCheckReplies(t *testing.T) {
	cmd := compositor.MoveCommand{WindowID: 7, X: 1, Y: 2}

	assert.NoError(t, checkReplies(cmd, []gosway.RunCommandReply{{Success: true}}))

	err := checkReplies(cmd, []gosway.RunCommandReply{
		{Success: true},
		{Success: false, Error: "No matching node"},
	})
	assert.ErrorIs(t, err, compositor.ErrCommandFailed)
	assert.Contains(t, err.Error(), "No matching node")
	assert.Contains(t, err.Error(), `[con_id="7"] move position 1 2`)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   event
		want bool
	}{
		{"workspace reload", workspaceEvent{change: "reload"}, true},
		{"workspace focus", workspaceEvent{change: "focus"}, false},
		{"wake tick", tickEvent{payload: WakePayload}, false},
		{"first tick", tickEvent{first: true}, false},
		{"compositor exit", shutdownEvent{change: "exit"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := normalize(tt.in)
			assert.Equal(t, tt.want, ok)
			if tt.want {
				assert.Equal(t, daemon.UpdateEvent{Source: "sway"}, got)
			}
		})
	}
}

func newTestSubscriber(events chan daemon.Event) *Subscriber {
	s := NewSubscriber(events, 10*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.wake = func(context.Context) error { return nil }
	return s
}

func TestSubscriber_ForwardsReloadOnly(t *testing.T) {
	events := make(chan daemon.Event, 4)
	s := newTestSubscriber(events)
	s.subscribe = func(ctx context.Context, h gosway.EventHandler, _ ...gosway.EventType) error {
		h.Workspace(ctx, gosway.WorkspaceEvent{Change: "focus"})
		h.Tick(ctx, gosway.TickEvent{Payload: WakePayload})
		h.Workspace(ctx, gosway.WorkspaceEvent{Change: "reload"})
		<-ctx.Done()
		return ctx.Err()
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	select {
	case ev := <-events:
		assert.Equal(t, daemon.UpdateEvent{Source: "sway"}, ev)
	case <-time.After(2 * time.Second):
		t.Fatal("reload was not forwarded")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Empty(t, events)
}

func TestSubscriber_WakesOnStop(t *testing.T) {
	s := newTestSubscriber(make(chan daemon.Event))
	woken := make(chan struct{})
	unblock := make(chan struct{})
	s.wake = func(context.Context) error {
		close(woken)
		close(unblock)
		return nil
	}
	s.subscribe = func(ctx context.Context, h gosway.EventHandler, _ ...gosway.EventType) error {
		// Parked on the stream; only an incoming event gets it moving.
		<-unblock
		h.Tick(ctx, gosway.TickEvent{Payload: WakePayload})
		return errors.New("closed")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Serve(ctx), context.Canceled)

	select {
	case <-woken:
	default:
		t.Fatal("wake-up tick was not sent")
	}
}

func TestSubscriber_StreamEndIsAnError(t *testing.T) {
	s := newTestSubscriber(make(chan daemon.Event))
	s.subscribe = func(context.Context, gosway.EventHandler, ...gosway.EventType) error {
		return nil
	}

	err := s.Serve(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "event stream ended")
}
