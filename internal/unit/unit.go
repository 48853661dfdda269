// Package unit implements the dimension values accepted for window sizes:
// absolute or relative, in pixels or as a percentage of a container.
package unit

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidUnit is returned when the numeric part of a dimension cannot be parsed.
var ErrInvalidUnit = errors.New("invalid unit")

// Mode says whether a dimension stands on its own or is a delta.
type Mode int

const (
	Absolute Mode = iota
	Relative
)

// Kind is the unit a dimension is measured in.
type Kind int

const (
	Pixels Kind = iota
	Percent
)

// Dimension is a width or height specification.
//
// Absolute pixels are non-negative counts. Absolute percentages are a
// fraction (0-100 nominal, not clamped) of the container extent. Relative
// values are signed deltas applied to a baseline.
type Dimension struct {
	mode    Mode
	kind    Kind
	pixels  int
	percent float64
}

// Px returns an absolute pixel dimension. Negative values are clamped to zero.
func Px(n int) Dimension {
	return Dimension{mode: Absolute, kind: Pixels, pixels: max(n, 0)}
}

// Pct returns an absolute percentage dimension.
func Pct(p float64) Dimension {
	return Dimension{mode: Absolute, kind: Percent, percent: p}
}

// DeltaPx returns a relative pixel dimension.
func DeltaPx(d int) Dimension {
	return Dimension{mode: Relative, kind: Pixels, pixels: d}
}

// DeltaPct returns a relative percentage dimension.
func DeltaPct(d float64) Dimension {
	return Dimension{mode: Relative, kind: Percent, percent: d}
}

func (d Dimension) Mode() Mode { return d.mode }
func (d Dimension) Kind() Kind { return d.kind }

func (d Dimension) IsRelative() bool { return d.mode == Relative }

// Pixels returns the pixel value for pixel dimensions and 0 otherwise.
func (d Dimension) Pixels() int {
	if d.kind != Pixels {
		return 0
	}
	return d.pixels
}

// Percent returns the percentage for percent dimensions and 0 otherwise.
func (d Dimension) Percent() float64 {
	if d.kind != Percent {
		return 0
	}
	return d.percent
}

// PercentOf converts a pixel count to a percentage of container, rounded
// to two decimals. A non-positive container yields 0.
func PercentOf(px, container int) float64 {
	if container <= 0 {
		return 0
	}
	return math.Round(float64(px)/float64(container)*100*100) / 100
}

// PixelsOf converts a percentage of container to the nearest pixel count.
func PixelsOf(pct float64, container int) int {
	return int(math.Round(float64(container) * pct / 100))
}

// Resolve turns d into an absolute pixel count.
//
// baseline is the current absolute value the delta applies to and is only
// consulted for relative dimensions; container is the pixel extent that
// percentages refer to. Relative results never go below zero.
func (d Dimension) Resolve(baseline Dimension, container int) int {
	if d.mode == Absolute {
		return d.absolutePixels(container)
	}

	base := baseline.absolutePixels(container)
	switch d.kind {
	case Pixels:
		return max(base+d.pixels, 0)
	default:
		basePct := baseline.percent
		if baseline.kind == Pixels || baseline.mode == Relative {
			basePct = PercentOf(base, container)
		}
		return max(PixelsOf(basePct+d.percent, container), 0)
	}
}

func (d Dimension) absolutePixels(container int) int {
	if d.mode == Relative {
		return 0
	}
	if d.kind == Pixels {
		return d.pixels
	}
	return PixelsOf(d.percent, container)
}

// Parse reads a dimension from its text form.
//
//	100, 100px   absolute pixels
//	33.3%        absolute percentage
//	+50px, -20   relative pixels
//	+10%, -5%    relative percentage
func Parse(s string) (Dimension, error) {
	text := strings.TrimSpace(s)
	if text == "" {
		return Dimension{}, &ParseError{Input: s, Err: errors.New("empty value")}
	}

	mode := Absolute
	if text[0] == '+' || text[0] == '-' {
		mode = Relative
	}

	if num, ok := strings.CutSuffix(text, "%"); ok {
		v, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return Dimension{}, &ParseError{Input: s, Err: err}
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Dimension{}, &ParseError{Input: s, Err: errors.New("percentage must be finite")}
		}
		return Dimension{mode: mode, kind: Percent, percent: v}, nil
	}

	num := strings.TrimSuffix(text, "px")
	v, err := strconv.Atoi(num)
	if err != nil {
		return Dimension{}, &ParseError{Input: s, Err: err}
	}
	return Dimension{mode: mode, kind: Pixels, pixels: v}, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Dimension {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// String returns the canonical text form accepted by Parse.
func (d Dimension) String() string {
	var b strings.Builder
	if d.mode == Relative {
		if d.kind == Pixels && d.pixels >= 0 || d.kind == Percent && d.percent >= 0 {
			b.WriteByte('+')
		}
	}
	if d.kind == Pixels {
		b.WriteString(strconv.Itoa(d.pixels))
		b.WriteString("px")
	} else {
		b.WriteString(strconv.FormatFloat(d.percent, 'f', -1, 64))
		b.WriteByte('%')
	}
	return b.String()
}

func (d Dimension) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Dimension) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseError reports the input a dimension could not be read from.
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid unit %q: %v", e.Input, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrInvalidUnit }
