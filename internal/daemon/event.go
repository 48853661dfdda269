package daemon

import (
	"context"

	"github.com/1broseidon/swaygravity/internal/placement"
)

// Event is a normalized input to the reconciliation loop. The set of
// implementations is closed: UpdateEvent and ShutdownEvent.
type Event interface {
	event()
}

// UpdateEvent asks for a reconciliation pass after merging Update. An
// empty Update re-applies the current state.
type UpdateEvent struct {
	Source string
	Update placement.Update
}

// ShutdownEvent stops the loop.
type ShutdownEvent struct {
	Source string
	Reason string
}

func (UpdateEvent) event()   {}
func (ShutdownEvent) event() {}

// Send delivers ev to the loop's inbound queue unless ctx ends first.
func Send(ctx context.Context, events chan<- Event, ev Event) error {
	select {
	case events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
