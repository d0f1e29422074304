// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package error2d

import (
	"fmt"
	"math"

	"github.com/gogpu/error2d/internal/color"
)

// ColorValue is one colour: a CSS-like string or numeric components.
// Numeric red, green and blue are in 0..255 and alpha is in 0..1.
type ColorValue struct {
	css   string
	rgba  [4]float64
	isCSS bool
}

// CSS returns a colour parsed from a string such as "#ff8800",
// "rgba(0, 0, 127, 0.5)", "hsl(120, 50%, 50%)" or "steelblue".
func CSS(s string) ColorValue {
	return ColorValue{css: s, isCSS: true}
}

// RGBA returns a colour from red, green and blue in 0..255 and alpha in
// 0..1.
func RGBA(r, g, b, a float64) ColorValue {
	return ColorValue{rgba: [4]float64{r, g, b, a}}
}

// String returns the colour as given.
func (c ColorValue) String() string {
	if c.isCSS {
		return c.css
	}
	return fmt.Sprintf("rgba(%g, %g, %g, %g)", c.rgba[0], c.rgba[1], c.rgba[2], c.rgba[3])
}

// resolve returns red, green, blue in 0..255 and alpha in 0..1.
func (c ColorValue) resolve() ([4]float64, error) {
	if !c.isCSS {
		return c.rgba, nil
	}
	v, err := color.Parse(c.css)
	if err != nil {
		return v, fmt.Errorf("%w: %w", ErrInvalidColor, err)
	}
	return v, nil
}

// bytes returns the colour with every channel, alpha included, scaled to
// 0..255.
func (c ColorValue) bytes() ([4]uint8, error) {
	v, err := c.resolve()
	if err != nil {
		return [4]uint8{}, err
	}
	return [4]uint8{
		channelByte(v[0]),
		channelByte(v[1]),
		channelByte(v[2]),
		channelByte(v[3] * 255),
	}, nil
}

func channelByte(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.Round(v))
}

// ColorList is one colour for every point, or one colour per point.
type ColorList []ColorValue

// Colors returns a list of CSS colours.
func Colors(css ...string) ColorList {
	out := make(ColorList, len(css))
	for i, s := range css {
		out[i] = CSS(s)
	}
	return out
}

// FlatColors groups a flat r, g, b, a, r, g, b, a, ... sequence into
// colours. A trailing incomplete group is dropped.
func FlatColors(v []float64) ColorList {
	out := make(ColorList, len(v)/4)
	for i := range out {
		out[i] = RGBA(v[i*4], v[i*4+1], v[i*4+2], v[i*4+3])
	}
	return out
}
