package daemon

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/1broseidon/swaygravity/internal/compositor"
	"github.com/1broseidon/swaygravity/internal/geometry"
	"github.com/1broseidon/swaygravity/internal/placement"
	"github.com/1broseidon/swaygravity/internal/target"
	"github.com/google/uuid"
)

// Phase is the reconciler's position in its state machine.
type Phase int

const (
	Idle Phase = iota
	Resolving
	ShuttingDown
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Resolving:
		return "resolving"
	case ShuttingDown:
		return "shutting-down"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Snapshot is what a pass reads from the compositor about its target.
type Snapshot struct {
	Target    target.Ref
	Window    geometry.Rect // effective rect, title bar included
	Content   geometry.Rect // rect without the title bar, as resize sets it
	Natural   geometry.Rect
	Workspace geometry.Rect
}

// Result describes what a successful pass applied.
type Result struct {
	Target  target.Ref
	Rect    geometry.Rect
	Resized bool
}

// Reconciler owns the placement state and applies it to the compositor,
// one event at a time.
type Reconciler struct {
	backend compositor.Backend
	state   placement.State
	phase   Phase
	logger  *slog.Logger
}

// NewReconciler creates a reconciler seeded with initial.
func NewReconciler(backend compositor.Backend, initial placement.State, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		backend: backend,
		state:   initial,
		phase:   Idle,
		logger:  logger,
	}
}

// State returns the current placement state.
func (r *Reconciler) State() placement.State { return r.state }

// Phase returns where the state machine is.
func (r *Reconciler) Phase() Phase { return r.phase }

// Run processes events until a ShutdownEvent arrives, the channel closes
// or ctx is cancelled. Pass failures are logged and never end the loop.
func (r *Reconciler) Run(ctx context.Context, events <-chan Event) error {
	r.logger.Info("reconciler started", "state", r.state.String())

	for {
		select {
		case <-ctx.Done():
			r.stop("context done")
			return nil
		case ev, ok := <-events:
			if !ok {
				r.stop("event queue closed")
				return nil
			}

			switch ev := ev.(type) {
			case ShutdownEvent:
				r.stop(fmt.Sprintf("%s: %s", ev.Source, ev.Reason))
				r.drain(events)
				return nil
			case UpdateEvent:
				r.handle(ctx, ev)
			default:
				r.logger.Warn("reconciler: unknown event ignored", "type", fmt.Sprintf("%T", ev))
			}
		}
	}
}

func (r *Reconciler) handle(ctx context.Context, ev UpdateEvent) {
	logger := r.logger.With("pass", uuid.NewString(), "source", ev.Source)

	// Recover from panics to keep the daemon alive
	defer func() {
		if err := recover(); err != nil {
			logger.Error("reconciler panic recovered", "error", err)
			r.phase = Idle
		}
	}()

	res, err := r.Reconcile(ctx, ev.Update)
	if err != nil {
		logger.Warn("reconciliation pass failed", "error", err, "state", r.state.String())
		return
	}
	logger.Info("window placed",
		"window_id", res.Target.ID,
		"x", res.Rect.X, "y", res.Rect.Y,
		"width", res.Rect.Width, "height", res.Rect.Height,
		"state", r.state.String())
}

func (r *Reconciler) stop(reason string) {
	r.phase = ShuttingDown
	r.logger.Info("reconciler stopped", "reason", reason)
}

// drain discards events queued behind a shutdown so their senders return.
func (r *Reconciler) drain(events <-chan Event) {
	dropped := 0
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
			dropped++
		default:
			if dropped > 0 {
				r.logger.Debug("reconciler: dropped events after shutdown", "count", dropped)
			}
			return
		}
	}
}

// Reconcile runs one pass: merge u into the state, select the target,
// snapshot it, resolve the geometry and apply it.
//
// The merged state is kept when a later step fails. A relative width or
// height needs the target as its baseline, so that part of u is only
// merged once the snapshot succeeds.
func (r *Reconciler) Reconcile(ctx context.Context, u placement.Update) (Result, error) {
	r.phase = Resolving
	defer func() { r.phase = Idle }()

	pending := r.state.Merge(u)

	snap, err := r.snapshot(ctx)
	if err != nil {
		if pending {
			r.logger.Debug("relative size not applied without a target")
		}
		return Result{}, err
	}

	if pending {
		r.state.Resize(u, placement.Baseline{Window: snap.Content, Workspace: snap.Workspace})
	}

	rect, resize := Resolve(r.state, snap)
	res := Result{Target: snap.Target, Rect: rect, Resized: resize}

	if resize {
		cmd := compositor.ResizeCommand{WindowID: snap.Target.ID, Width: rect.Width, Height: rect.Height}
		if err := r.backend.Run(ctx, cmd); err != nil {
			return res, fmt.Errorf("resize window %d: %w", snap.Target.ID, err)
		}
	}

	cmd := compositor.MoveCommand{WindowID: snap.Target.ID, X: rect.X, Y: rect.Y}
	if err := r.backend.Run(ctx, cmd); err != nil {
		return res, fmt.Errorf("move window %d: %w", snap.Target.ID, err)
	}
	return res, nil
}

func (r *Reconciler) snapshot(ctx context.Context) (Snapshot, error) {
	tree, err := r.backend.Tree(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("get window tree: %w", err)
	}

	node, err := target.Select(tree)
	if err != nil {
		return Snapshot{}, err
	}

	ws, err := r.backend.WorkspaceRect(ctx, node.ID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("get workspace of window %d: %w", node.ID, err)
	}

	window := node.Rect
	window.Height += node.DecoRect.Height

	return Snapshot{
		Target:    target.RefOf(node),
		Window:    window,
		Content:   node.Rect,
		Natural:   node.Geometry,
		Workspace: ws,
	}, nil
}

// Resolve computes where the target of snap goes under state. The returned
// position is workspace-relative. resize is false when state leaves the
// size alone.
func Resolve(state placement.State, snap Snapshot) (rect geometry.Rect, resize bool) {
	container := snap.Workspace.WithPadding(state.Padding)

	var aspect *float64
	if state.Natural {
		ratio := snap.Natural.AspectRatio()
		aspect = &ratio
	}

	size := geometry.Scale(state.Width, state.Height, snap.Window, container, aspect)
	pos := geometry.PositionFor(container, size, state.Vertical, state.Horizontal).
		Translate(state.Padding, state.Padding)

	return pos, state.Width != nil || state.Height != nil
}
