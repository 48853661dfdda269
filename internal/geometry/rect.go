package geometry

import (
	"math"

	"github.com/1broseidon/swaygravity/internal/unit"
)

// Rect represents a window or workspace position and size in compositor
// coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// WithPadding shrinks r by padding on every side. Padding larger than half
// a side produces a negative size; the compositor rejects those.
func (r Rect) WithPadding(padding int) Rect {
	return Rect{
		X:      r.X + padding,
		Y:      r.Y + padding,
		Width:  r.Width - 2*padding,
		Height: r.Height - 2*padding,
	}
}

// Translate offsets r by dx, dy.
func (r Rect) Translate(dx, dy int) Rect {
	r.X += dx
	r.Y += dy
	return r
}

// AspectRatio returns width/height, or 0 for a zero height.
func (r Rect) AspectRatio() float64 {
	if r.Height == 0 {
		return 0
	}
	return float64(r.Width) / float64(r.Height)
}

// Scale resolves the new size of target.
//
// With both dimensions given the window is stretched to exactly that size.
// With one given, the other follows the aspect ratio: aspectOverride when
// non-nil, otherwise target's own ratio. A zero ratio resolves the missing
// dimension to 0. With neither, target's size is kept. The returned rect
// keeps target's position.
func Scale(width, height *unit.Dimension, target, container Rect, aspectOverride *float64) Rect {
	aspect := target.AspectRatio()
	if aspectOverride != nil {
		aspect = *aspectOverride
	}

	out := target
	switch {
	case width != nil && height != nil:
		out.Width = width.Resolve(unit.Px(target.Width), container.Width)
		out.Height = height.Resolve(unit.Px(target.Height), container.Height)
	case width != nil:
		out.Width = width.Resolve(unit.Px(target.Width), container.Width)
		out.Height = 0
		if aspect != 0 {
			out.Height = int(math.Round(float64(out.Width) / aspect))
		}
	case height != nil:
		out.Height = height.Resolve(unit.Px(target.Height), container.Height)
		out.Width = int(math.Round(float64(out.Height) * aspect))
	}
	return out
}

// PositionFor places a rect of size's extent inside container at the given
// zones. The returned X and Y are offsets from container's origin.
func PositionFor(container, size Rect, v Vertical, h Horizontal) Rect {
	return Rect{
		X:      int(h.Fraction() * float64(container.Width-size.Width)),
		Y:      int(v.Fraction() * float64(container.Height-size.Height)),
		Width:  size.Width,
		Height: size.Height,
	}
}
