// Package target picks the window a placement pass applies to.
package target

import (
	"errors"
	"fmt"

	"github.com/1broseidon/swaygravity/internal/compositor"
)

var (
	ErrNoApplicableTarget = errors.New("no floating window found")
	ErrAmbiguousTarget    = errors.New("multiple floating windows and none is uniquely focused")
)

// Ref identifies the selected window for layout commands.
type Ref struct {
	ID       int64
	Floating bool
}

// Select returns the floating window to place.
//
// A lone floating window is chosen whether or not it has focus. With
// several, exactly one of them must be focused.
func Select(tree *compositor.Node) (*compositor.Node, error) {
	var floating, focused []*compositor.Node
	tree.Walk(func(n *compositor.Node) bool {
		if n.Floating() {
			floating = append(floating, n)
			if n.Focused {
				focused = append(focused, n)
			}
		}
		return true
	})

	switch {
	case len(floating) == 0:
		return nil, ErrNoApplicableTarget
	case len(floating) == 1:
		return floating[0], nil
	case len(focused) == 1:
		return focused[0], nil
	default:
		return nil, fmt.Errorf("%w: %d floating, %d focused", ErrAmbiguousTarget, len(floating), len(focused))
	}
}

// RefOf returns the reference used to address n.
func RefOf(n *compositor.Node) Ref {
	return Ref{ID: n.ID, Floating: n.Floating()}
}
