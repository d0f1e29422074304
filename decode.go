// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package error2d

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

// ParseConfig decodes a TOML document into a Config. See DecodeConfig for
// the accepted keys.
//
//	positions = [[0, 0], [1, 2]]
//	errors    = [0.1, 0.1, 0.2, 0.2, 0.1, 0.1, 0.2, 0.2]
//	color     = "steelblue"
//	lineWidth = 2
//	capSize   = 6
//	range     = [-1, -1, 2, 3]
//	viewport  = { x = 0, y = 0, width = 400, height = 300 }
func ParseConfig(data []byte) (*Config, error) {
	var m map[string]any
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return DecodeConfig(m)
}

// DecodeConfig converts a loosely typed option map, as produced by TOML
// or JSON decoders, into a Config.
//
// Recognised keys: positions, data, points, errors (flat or nested number
// arrays); color, colors (a string, a list of strings, a flat r, g, b, a
// list or a list of [r, g, b, a] tuples, alpha in 0..1); lineWidth,
// capSize (numbers); range (4 numbers); viewport, scissor ([x, y, w, h],
// a table with x/left, y/top, w/width, h/height keys, or nil to clear);
// draw (bool). Other keys are ignored.
func DecodeConfig(m map[string]any) (*Config, error) {
	cfg := &Config{}
	var err error

	for _, key := range []string{"positions", "data", "points", "errors"} {
		v, ok := m[key]
		if !ok {
			continue
		}
		c, cerr := decodeCoords(v)
		if cerr != nil {
			return nil, fmt.Errorf("%s: %w", key, cerr)
		}
		switch key {
		case "positions":
			cfg.Positions = c
		case "data":
			cfg.Data = c
		case "points":
			cfg.Points = c
		case "errors":
			cfg.Errors = c
		}
	}

	if v, ok := m["color"]; ok {
		if cfg.Color, err = decodeColors(v); err != nil {
			return nil, fmt.Errorf("color: %w", err)
		}
	}
	if v, ok := m["colors"]; ok {
		if cfg.Colors, err = decodeColors(v); err != nil {
			return nil, fmt.Errorf("colors: %w", err)
		}
	}

	if v, ok := m["lineWidth"]; ok {
		f, ok := toFloat(v)
		if !ok {
			return nil, fmt.Errorf("%w: lineWidth: want number, got %T", ErrInvalidConfig, v)
		}
		cfg.LineWidth = Float64(f)
	}
	if v, ok := m["capSize"]; ok {
		f, ok := toFloat(v)
		if !ok {
			return nil, fmt.Errorf("%w: capSize: want number, got %T", ErrInvalidConfig, v)
		}
		cfg.CapSize = Float64(f)
	}

	if v, ok := m["range"]; ok {
		vals, rerr := decodeNumbers(v)
		if rerr != nil || len(vals) != 4 {
			return nil, fmt.Errorf("%w: range: want 4 numbers, got %v", ErrInvalidConfig, v)
		}
		cfg.Range = Range4(vals[0], vals[1], vals[2], vals[3])
	}

	if v, ok := m["viewport"]; ok {
		if cfg.Viewport, err = decodeRect(v); err != nil {
			return nil, fmt.Errorf("viewport: %w", err)
		}
	}
	if v, ok := m["scissor"]; ok {
		if cfg.Scissor, err = decodeRect(v); err != nil {
			return nil, fmt.Errorf("scissor: %w", err)
		}
	}

	if v, ok := m["draw"]; ok {
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("%w: draw: want bool, got %T", ErrInvalidConfig, v)
		}
		cfg.Draw = Bool(b)
	}
	return cfg, nil
}

func decodeCoords(v any) (Coords, error) {
	switch vv := v.(type) {
	case []float64:
		return Flat(vv), nil
	case [][]float64:
		return Nested(vv), nil
	case []any:
		if len(vv) > 0 {
			if _, nested := vv[0].([]any); nested {
				out := make(Nested, len(vv))
				for i, item := range vv {
					nums, err := decodeNumbers(item)
					if err != nil {
						return nil, fmt.Errorf("item %d: %w", i, err)
					}
					out[i] = nums
				}
				return out, nil
			}
		}
		nums, err := decodeNumbers(vv)
		if err != nil {
			return nil, err
		}
		return Flat(nums), nil
	}
	return nil, fmt.Errorf("%w: want number array, got %T", ErrInvalidConfig, v)
}

func decodeNumbers(v any) ([]float64, error) {
	switch vv := v.(type) {
	case []float64:
		return vv, nil
	case []any:
		out := make([]float64, len(vv))
		for i, item := range vv {
			f, ok := toFloat(item)
			if !ok {
				return nil, fmt.Errorf("%w: item %d: want number, got %T", ErrInvalidConfig, i, item)
			}
			out[i] = f
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: want number array, got %T", ErrInvalidConfig, v)
}

func decodeColors(v any) (ColorList, error) {
	switch vv := v.(type) {
	case string:
		return ColorList{CSS(vv)}, nil
	case []string:
		return Colors(vv...), nil
	case []any:
		if len(vv) == 0 {
			return ColorList{}, nil
		}
		if _, ok := toFloat(vv[0]); ok {
			nums, err := decodeNumbers(vv)
			if err != nil {
				return nil, err
			}
			if len(nums)%4 != 0 {
				return nil, fmt.Errorf("%w: flat colors need 4 components each, got %d values",
					ErrInvalidConfig, len(nums))
			}
			return FlatColors(nums), nil
		}
		out := make(ColorList, len(vv))
		for i, item := range vv {
			c, err := decodeColor(item)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			out[i] = c
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: want color, got %T", ErrInvalidConfig, v)
}

func decodeColor(v any) (ColorValue, error) {
	if s, ok := v.(string); ok {
		return CSS(s), nil
	}
	nums, err := decodeNumbers(v)
	if err != nil {
		return ColorValue{}, err
	}
	switch len(nums) {
	case 3:
		return RGBA(nums[0], nums[1], nums[2], 1), nil
	case 4:
		return RGBA(nums[0], nums[1], nums[2], nums[3]), nil
	}
	return ColorValue{}, fmt.Errorf("%w: color tuple needs 3 or 4 components, got %d", ErrInvalidConfig, len(nums))
}

func decodeRect(v any) (RectSpec, error) {
	switch vv := v.(type) {
	case nil:
		return ClearRect{}, nil
	case []any, []float64:
		nums, err := decodeNumbers(vv)
		if err != nil {
			return nil, err
		}
		if len(nums) != 4 {
			return nil, fmt.Errorf("%w: want [x, y, width, height], got %d values", ErrInvalidConfig, len(nums))
		}
		return RectArray{nums[0], nums[1], nums[2], nums[3]}, nil
	case map[string]any:
		var o RectObject
		fields := map[string]*float64{
			"x": &o.X, "y": &o.Y, "left": &o.Left, "top": &o.Top,
			"w": &o.W, "width": &o.Width, "h": &o.H, "height": &o.Height,
		}
		for key, val := range vv {
			dst, known := fields[key]
			if !known {
				continue
			}
			f, ok := toFloat(val)
			if !ok {
				return nil, fmt.Errorf("%w: %s: want number, got %T", ErrInvalidConfig, key, val)
			}
			*dst = f
		}
		return o, nil
	}
	return nil, fmt.Errorf("%w: want rectangle, got %T", ErrInvalidConfig, v)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
