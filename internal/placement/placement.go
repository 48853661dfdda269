// Package placement holds the desired placement of the target window and
// the rules for merging partial updates into it.
package placement

import (
	"errors"
	"fmt"

	"github.com/1broseidon/swaygravity/internal/geometry"
	"github.com/1broseidon/swaygravity/internal/unit"
)

var (
	ErrInvalidInitialState = errors.New("invalid initial state")
	ErrNegativePadding     = errors.New("padding must not be negative")
)

// State is the fully resolved desired placement. Width and Height are
// always absolute when set.
type State struct {
	Vertical   geometry.Vertical
	Horizontal geometry.Horizontal
	Padding    int
	Width      *unit.Dimension
	Height     *unit.Dimension
	Natural    bool
}

// Default returns the bottom-right, unpadded, unsized state.
func Default() State {
	return State{
		Vertical:   geometry.Bottom,
		Horizontal: geometry.Right,
	}
}

// Update is a partial placement. Nil fields leave the state unchanged.
type Update struct {
	Vertical   *geometry.Vertical   `json:"vertical,omitempty" yaml:"vertical,omitempty"`
	Horizontal *geometry.Horizontal `json:"horizontal,omitempty" yaml:"horizontal,omitempty"`
	Padding    *int                 `json:"padding,omitempty" yaml:"padding,omitempty"`
	Width      *unit.Dimension      `json:"width,omitempty" yaml:"width,omitempty"`
	Height     *unit.Dimension      `json:"height,omitempty" yaml:"height,omitempty"`
	Natural    *bool                `json:"natural,omitempty" yaml:"natural,omitempty"`
}

// IsEmpty reports whether u changes nothing.
func (u Update) IsEmpty() bool {
	return u.Vertical == nil && u.Horizontal == nil && u.Padding == nil &&
		u.Width == nil && u.Height == nil && u.Natural == nil
}

// HasRelative reports whether u carries a relative width or height.
func (u Update) HasRelative() bool {
	return u.Width != nil && u.Width.IsRelative() || u.Height != nil && u.Height.IsRelative()
}

// Validate checks field ranges that the decoder cannot enforce.
func (u Update) Validate() error {
	if u.Padding != nil && *u.Padding < 0 {
		return fmt.Errorf("%w: %d", ErrNegativePadding, *u.Padding)
	}
	return nil
}

// Overlay returns u with every field set in other replacing its own.
// Width and height are carried over as given, without coupling.
func (u Update) Overlay(other Update) Update {
	if other.Vertical != nil {
		u.Vertical = other.Vertical
	}
	if other.Horizontal != nil {
		u.Horizontal = other.Horizontal
	}
	if other.Padding != nil {
		u.Padding = other.Padding
	}
	if other.Width != nil {
		u.Width = other.Width
	}
	if other.Height != nil {
		u.Height = other.Height
	}
	if other.Natural != nil {
		u.Natural = other.Natural
	}
	return u
}

// Baseline is what relative dimensions are resolved against: the window's
// current content rect, title bar excluded, and the unpadded workspace.
type Baseline struct {
	Window    geometry.Rect
	Workspace geometry.Rect
}

// Merge applies u to s as far as it can without a window to measure.
//
// Zones, padding and natural overwrite when present. Width and height are
// coupled: when only one is given the other is cleared so that a size
// from an earlier aspect ratio is not reapplied. Absolute sizes are taken
// as given. When u carries a relative width or height both stay untouched
// and Merge reports true; Resize finishes the merge once a baseline is
// known.
func (s *State) Merge(u Update) (pending bool) {
	if u.Vertical != nil {
		s.Vertical = *u.Vertical
	}
	if u.Horizontal != nil {
		s.Horizontal = *u.Horizontal
	}
	if u.Padding != nil {
		s.Padding = *u.Padding
	}
	if u.Natural != nil {
		s.Natural = *u.Natural
	}

	if u.Width == nil && u.Height == nil {
		return false
	}
	if u.HasRelative() {
		return true
	}
	s.Resize(u, Baseline{})
	return false
}

// Resize applies the width and height of u. Relative dimensions are
// resolved to absolute pixels against the current value (or the window's
// extent when unset) within the padded workspace.
func (s *State) Resize(u Update, b Baseline) {
	if u.Width == nil && u.Height == nil {
		return
	}

	container := b.Workspace.WithPadding(s.Padding)
	width := resolve(u.Width, s.Width, b.Window.Width, container.Width)
	height := resolve(u.Height, s.Height, b.Window.Height, container.Height)
	s.Width, s.Height = width, height
}

func resolve(d, current *unit.Dimension, extent, container int) *unit.Dimension {
	if d == nil {
		return nil
	}
	if !d.IsRelative() {
		v := *d
		return &v
	}

	baseline := unit.Px(extent)
	if current != nil {
		baseline = *current
	}
	v := unit.Px(d.Resolve(baseline, container))
	return &v
}

// FromUpdate builds an initial state from defaults plus u. Relative sizes
// have nothing to apply to yet and are rejected.
func FromUpdate(u Update) (State, error) {
	if err := u.Validate(); err != nil {
		return State{}, fmt.Errorf("%w: %w", ErrInvalidInitialState, err)
	}
	if u.Width != nil && u.Width.IsRelative() {
		return State{}, fmt.Errorf("%w: the initial width must not be a relative value", ErrInvalidInitialState)
	}
	if u.Height != nil && u.Height.IsRelative() {
		return State{}, fmt.Errorf("%w: the initial height must not be a relative value", ErrInvalidInitialState)
	}

	s := Default()
	if u.Vertical != nil {
		s.Vertical = *u.Vertical
	}
	if u.Horizontal != nil {
		s.Horizontal = *u.Horizontal
	}
	if u.Padding != nil {
		s.Padding = *u.Padding
	}
	if u.Natural != nil {
		s.Natural = *u.Natural
	}
	if u.Width != nil {
		w := *u.Width
		s.Width = &w
	}
	if u.Height != nil {
		h := *u.Height
		s.Height = &h
	}
	return s, nil
}

// String summarizes s for logs.
func (s State) String() string {
	return fmt.Sprintf("%s-%s padding=%d width=%s height=%s natural=%t",
		s.Vertical, s.Horizontal, s.Padding, dimString(s.Width), dimString(s.Height), s.Natural)
}

func dimString(d *unit.Dimension) string {
	if d == nil {
		return "unset"
	}
	return d.String()
}
