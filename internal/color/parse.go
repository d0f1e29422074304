// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package color parses CSS-like colour strings for error2d.
//
// Parse returns [r, g, b, a] with red, green and blue in 0..255 and alpha
// in 0..1. Callers that upload bytes rescale alpha themselves.
package color

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

// ErrSyntax is returned for strings that are not a recognised colour.
var ErrSyntax = errors.New("color: unrecognized color")

// Parse parses a colour string. Accepted forms:
//
//	#rgb #rgba #rrggbb #rrggbbaa (the leading # is optional)
//	rgb(r, g, b) rgba(r, g, b, a) rgb(r g b / a)
//	hsl(h, s%, l%) hsla(h, s%, l%, a)
//	CSS named colours and "transparent"
//
// Channel values may be percentages. Alpha may be a number or percentage.
func Parse(s string) ([4]float64, error) {
	str := strings.ToLower(strings.TrimSpace(s))
	if str == "" {
		return [4]float64{}, fmt.Errorf("%w: empty string", ErrSyntax)
	}
	if str == "transparent" {
		return [4]float64{0, 0, 0, 0}, nil
	}
	if c, ok := colornames.Map[str]; ok {
		return [4]float64{float64(c.R), float64(c.G), float64(c.B), float64(c.A) / 255}, nil
	}
	if name, args, ok := splitFunc(str); ok {
		switch name {
		case "rgb", "rgba":
			return parseRGB(args, s)
		case "hsl", "hsla":
			return parseHSL(args, s)
		}
		return [4]float64{}, fmt.Errorf("%w: unknown function %q", ErrSyntax, name)
	}
	if c, ok := parseHex(strings.TrimPrefix(str, "#")); ok {
		return c, nil
	}
	return [4]float64{}, fmt.Errorf("%w: %q", ErrSyntax, s)
}

// parseHex parses "RGB", "RGBA", "RRGGBB" or "RRGGBBAA".
func parseHex(hex string) ([4]float64, bool) {
	var r, g, b uint32
	a := uint32(255)
	ok := true

	switch len(hex) {
	case 3:
		ok = hexDigits(hex[0:1], &r) && hexDigits(hex[1:2], &g) && hexDigits(hex[2:3], &b)
		r, g, b = r*17, g*17, b*17
	case 4:
		ok = hexDigits(hex[0:1], &r) && hexDigits(hex[1:2], &g) && hexDigits(hex[2:3], &b) &&
			hexDigits(hex[3:4], &a)
		r, g, b, a = r*17, g*17, b*17, a*17
	case 6:
		ok = hexDigits(hex[0:2], &r) && hexDigits(hex[2:4], &g) && hexDigits(hex[4:6], &b)
	case 8:
		ok = hexDigits(hex[0:2], &r) && hexDigits(hex[2:4], &g) && hexDigits(hex[4:6], &b) &&
			hexDigits(hex[6:8], &a)
	default:
		return [4]float64{}, false
	}
	if !ok {
		return [4]float64{}, false
	}
	return [4]float64{float64(r), float64(g), float64(b), float64(a) / 255}, true
}

func hexDigits(s string, val *uint32) bool {
	*val = 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		*val *= 16
		switch {
		case '0' <= c && c <= '9':
			*val += uint32(c - '0')
		case 'a' <= c && c <= 'f':
			*val += uint32(c - 'a' + 10)
		default:
			return false
		}
	}
	return true
}

// splitFunc splits "name(a, b, c)" into name and its arguments. Arguments
// may be separated by commas, spaces, or a slash before alpha.
func splitFunc(s string) (string, []string, bool) {
	open := strings.IndexByte(s, '(')
	if open <= 0 || !strings.HasSuffix(s, ")") {
		return "", nil, false
	}
	name := strings.TrimSpace(s[:open])
	body := s[open+1 : len(s)-1]
	args := strings.FieldsFunc(body, func(r rune) bool {
		return r == ',' || r == '/' || r == ' ' || r == '\t'
	})
	return name, args, true
}

func parseRGB(args []string, orig string) ([4]float64, error) {
	if len(args) != 3 && len(args) != 4 {
		return [4]float64{}, fmt.Errorf("%w: %q needs 3 or 4 arguments", ErrSyntax, orig)
	}
	var out [4]float64
	out[3] = 1
	for i, arg := range args {
		scale := 255.0
		if i == 3 {
			scale = 1
		}
		v, err := number(arg, scale)
		if err != nil {
			return [4]float64{}, fmt.Errorf("%w: %q: %w", ErrSyntax, orig, err)
		}
		out[i] = v
	}
	return out, nil
}

func parseHSL(args []string, orig string) ([4]float64, error) {
	if len(args) != 3 && len(args) != 4 {
		return [4]float64{}, fmt.Errorf("%w: %q needs 3 or 4 arguments", ErrSyntax, orig)
	}
	h, err := strconv.ParseFloat(strings.TrimSuffix(args[0], "deg"), 64)
	if err != nil {
		return [4]float64{}, fmt.Errorf("%w: %q: %w", ErrSyntax, orig, err)
	}
	s, err := number(args[1], 1)
	if err != nil {
		return [4]float64{}, fmt.Errorf("%w: %q: %w", ErrSyntax, orig, err)
	}
	l, err := number(args[2], 1)
	if err != nil {
		return [4]float64{}, fmt.Errorf("%w: %q: %w", ErrSyntax, orig, err)
	}
	a := 1.0
	if len(args) == 4 {
		if a, err = number(args[3], 1); err != nil {
			return [4]float64{}, fmt.Errorf("%w: %q: %w", ErrSyntax, orig, err)
		}
	}
	c := colorful.Hsl(h, clamp01(s), clamp01(l)).Clamped()
	return [4]float64{c.R * 255, c.G * 255, c.B * 255, a}, nil
}

// number parses a plain number, or a percentage scaled to [0, scale].
func number(s string, scale float64) (float64, error) {
	if p, ok := strings.CutSuffix(s, "%"); ok {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return 0, err
		}
		return v / 100 * scale, nil
	}
	return strconv.ParseFloat(s, 64)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
