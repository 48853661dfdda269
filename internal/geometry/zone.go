package geometry

import (
	"fmt"
	"strings"
)

// Vertical is the vertical alignment zone of a window.
type Vertical string

const (
	Top     Vertical = "top"
	VMiddle Vertical = "middle"
	Bottom  Vertical = "bottom"
)

// Horizontal is the horizontal alignment zone of a window.
type Horizontal string

const (
	Left    Horizontal = "left"
	HMiddle Horizontal = "middle"
	Right   Horizontal = "right"
)

// Fraction maps the zone to how far along the free space the window sits.
func (v Vertical) Fraction() float64 {
	switch v {
	case Top:
		return 0
	case VMiddle:
		return 0.5
	default:
		return 1
	}
}

// Fraction maps the zone to how far along the free space the window sits.
func (h Horizontal) Fraction() float64 {
	switch h {
	case Left:
		return 0
	case HMiddle:
		return 0.5
	default:
		return 1
	}
}

// ParseVertical accepts top, middle or bottom (case-insensitive).
func ParseVertical(s string) (Vertical, error) {
	switch v := Vertical(strings.ToLower(strings.TrimSpace(s))); v {
	case Top, VMiddle, Bottom:
		return v, nil
	}
	return "", fmt.Errorf("invalid vertical zone %q (want top, middle or bottom)", s)
}

// ParseHorizontal accepts left, middle or right (case-insensitive).
func ParseHorizontal(s string) (Horizontal, error) {
	switch h := Horizontal(strings.ToLower(strings.TrimSpace(s))); h {
	case Left, HMiddle, Right:
		return h, nil
	}
	return "", fmt.Errorf("invalid horizontal zone %q (want left, middle or right)", s)
}

func (v *Vertical) UnmarshalText(text []byte) error {
	parsed, err := ParseVertical(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func (h *Horizontal) UnmarshalText(text []byte) error {
	parsed, err := ParseHorizontal(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
