// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package error2d

import (
	"fmt"
	"math"
	"slices"
)

// Config is a partial update. Every field is optional: nil fields leave
// the corresponding state untouched.
//
// Positions, Data and Points are aliases; when several are set, Points
// wins over Data, and Data over Positions. Color and Colors are aliases;
// Colors wins.
type Config struct {
	Positions Coords
	Data      Coords
	Points    Coords

	// Errors holds per-point (ex0, ex1, ey0, ey1) magnitudes extending
	// left, right, down and up from the position.
	Errors Coords

	// Color holds one colour (used for every point) or one colour per
	// point.
	Color  ColorList
	Colors ColorList

	// LineWidth and CapSize are full sizes in logical pixels.
	LineWidth *float64
	CapSize   *float64

	// Range is the visible data window [minX, minY, maxX, maxY].
	Range *[4]float64

	// Viewport and Scissor are framebuffer rectangles in device pixels,
	// origin top-left. Use ClearRect to reset them.
	Viewport RectSpec
	Scissor  RectSpec

	// Draw set to false makes Renderer.Draw update state without drawing.
	Draw *bool
}

// Float64 returns a pointer to v, for Config's optional numeric fields.
func Float64(v float64) *float64 { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// Range4 returns a pointer to a view range.
func Range4(minX, minY, maxX, maxY float64) *[4]float64 {
	return &[4]float64{minX, minY, maxX, maxY}
}

// Coords is a coordinate sequence, either Flat or Nested.
type Coords interface {
	// unroll returns the flat sequence for tuples of the given size.
	unroll(stride int) ([]float64, error)
}

// Flat is an interleaved coordinate sequence: x0, y0, x1, y1, ... for
// positions and ex0, ex1, ey0, ey1, ... for errors.
type Flat []float64

func (f Flat) unroll(int) ([]float64, error) {
	return slices.Clone([]float64(f)), nil
}

// Nested is a per-point coordinate sequence: [[x, y], ...] for positions
// and [[ex0, ex1, ey0, ey1], ...] for errors. Extra components are
// ignored.
type Nested [][]float64

func (n Nested) unroll(stride int) ([]float64, error) {
	out := make([]float64, len(n)*stride)
	for i, tuple := range n {
		if len(tuple) < stride {
			return nil, fmt.Errorf("%w: item %d has %d components, want %d",
				ErrInvalidCoords, i, len(tuple), stride)
		}
		copy(out[i*stride:], tuple[:stride])
	}
	return out, nil
}

// Rect is a canonical viewport or scissor rectangle in device pixels.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// RectSpec is a rectangle in one of the accepted input shapes:
// RectArray, RectObject or ClearRect.
type RectSpec interface {
	// rect returns the canonical rectangle, or nil to clear.
	rect() (*Rect, error)
}

// RectArray is [x, y, width, height].
type RectArray [4]float64

func (a RectArray) rect() (*Rect, error) {
	return checkRect(Rect{X: a[0], Y: a[1], Width: a[2], Height: a[3]})
}

// RectObject is a rectangle with alias keys. For each component the first
// non-zero of the aliases is used: X or Left, Y or Top, W or Width,
// H or Height.
type RectObject struct {
	X, Y, Left, Top     float64
	W, Width, H, Height float64
}

func (o RectObject) rect() (*Rect, error) {
	return checkRect(Rect{
		X:      firstNonZero(o.X, o.Left),
		Y:      firstNonZero(o.Y, o.Top),
		Width:  firstNonZero(o.W, o.Width),
		Height: firstNonZero(o.H, o.Height),
	})
}

// ClearRect resets a viewport to the full drawing buffer, or disables the
// scissor test.
type ClearRect struct{}

func (ClearRect) rect() (*Rect, error) { return nil, nil } //nolint:nilnil // nil rect means unset

func firstNonZero(vals ...float64) float64 {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}

func checkRect(r Rect) (*Rect, error) {
	for _, v := range [...]float64{r.X, r.Y, r.Width, r.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: non-finite component in %+v", ErrInvalidRect, r)
		}
	}
	if r.Width < 0 || r.Height < 0 {
		return nil, fmt.Errorf("%w: negative size %gx%g", ErrInvalidRect, r.Width, r.Height)
	}
	return &r, nil
}

// update is a Config with aliases resolved.
type update struct {
	positions Coords
	errors    Coords
	colors    ColorList
	lineWidth *float64
	capSize   *float64
	viewRange *[4]float64
	viewport  RectSpec
	scissor   RectSpec
}

func (c *Config) normalize() update {
	u := update{
		positions: c.Positions,
		errors:    c.Errors,
		colors:    c.Color,
		lineWidth: c.LineWidth,
		capSize:   c.CapSize,
		viewRange: c.Range,
		viewport:  c.Viewport,
		scissor:   c.Scissor,
	}
	if c.Data != nil {
		u.positions = c.Data
	}
	if c.Points != nil {
		u.positions = c.Points
	}
	if c.Colors != nil {
		u.colors = c.Colors
	}
	return u
}

// drawRequested reports whether Draw should submit after updating.
func (c *Config) drawRequested() bool {
	return c.Draw == nil || *c.Draw
}
