// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package error2d

// Default style, in full (not halved) pixels.
const (
	DefaultLineWidth = 1
	DefaultCapSize   = 5
)

// state is the persistent renderer state mutated by Update.
type state struct {
	// positions is the flat x, y sequence; its length is 2*count.
	positions []float64

	// errors is the flat ex0, ex1, ey0, ey1 sequence as supplied. It may be
	// shorter than 4*count; missing values are zero.
	errors []float64

	count int

	bounds    [4]float64
	hasBounds bool

	viewRange [4]float64
	hasRange  bool

	// color holds 4 bytes for a single colour or 4*count bytes.
	color []uint8

	// lineWidth and capSize are half sizes.
	lineWidth float64
	capSize   float64

	viewport *Rect
	scissor  *Rect

	// errorPoints and colorPoints are the number of points covered by the
	// uploaded error and colour buffers.
	errorPoints int
	colorPoints int
}

func newState() *state {
	return &state{
		color:     []uint8{0, 0, 0, 255},
		lineWidth: DefaultLineWidth * 0.5,
		capSize:   DefaultCapSize * 0.5,
	}
}

// perPointColor reports whether colours come from the colour buffer.
func (s *state) perPointColor() bool {
	return len(s.color) > 4
}
