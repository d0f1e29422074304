// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package error2d

import (
	"encoding/binary"
	"math"
)

// UniformsSize is the encoded size of Uniforms in bytes.
const UniformsSize = 80

// Uniforms are the per-draw parameters of the error-bar program.
//
// Layout (byte offsets) matches the WGSL struct:
//
//	 0 bounds        vec4<f32>
//	16 view_range    vec4<f32>
//	32 color         vec4<f32>
//	48 pixel_scale   vec2<f32>
//	56 line_width    f32
//	60 cap_size      f32
//	64 uniform_color f32
//	68 padding to 80
type Uniforms struct {
	// Bounds is the data extent [minX, minY, maxX, maxY]. It is passed
	// through but not used by the transform.
	Bounds [4]float32

	// Range is the visible data window [minX, minY, maxX, maxY].
	Range [4]float32

	// Color is the single colour in 0..255, read when UniformColor is 1.
	Color [4]float32

	// PixelScale converts device-independent pixels to normalised view
	// units: pixelRatio / viewport size.
	PixelScale [2]float32

	// LineWidth and CapSize are half sizes in pixels.
	LineWidth float32
	CapSize   float32

	// UniformColor is 1 when Color applies to every point, 0 otherwise.
	UniformColor float32
}

// Bytes encodes u in the uniform buffer layout.
func (u *Uniforms) Bytes() []byte {
	buf := make([]byte, UniformsSize)
	put := func(off int, vals ...float32) {
		for i, v := range vals {
			binary.LittleEndian.PutUint32(buf[off+i*4:], math.Float32bits(v))
		}
	}
	put(0, u.Bounds[:]...)
	put(16, u.Range[:]...)
	put(32, u.Color[:]...)
	put(48, u.PixelScale[:]...)
	put(56, u.LineWidth, u.CapSize, u.UniformColor)
	return buf
}

// ProjectVertex is the vertex stage of the error-bar program evaluated on
// the host. It returns the clip-space position of template vertex v for a
// point at pos with errors err = (ex0, ex1, ey0, ey1).
func ProjectVertex(v MeshVertex, pos [2]float32, err [4]float32, u *Uniforms) [2]float32 {
	dx := v.AxisX * pick(v.AxisX, err[0], err[1])
	dy := v.AxisY * pick(v.AxisY, err[2], err[3])

	nx := (pos[0] + dx - u.Range[0]) / (u.Range[2] - u.Range[0])
	ny := (pos[1] + dy - u.Range[1]) / (u.Range[3] - u.Range[1])

	capLine := u.CapSize + u.LineWidth
	nx += u.PixelScale[0] * (u.LineWidth*v.LineX + capLine*v.CapX)
	ny += u.PixelScale[1] * (u.LineWidth*v.LineY + capLine*v.CapY)

	return [2]float32{nx*2 - 1, ny*2 - 1}
}

// pick returns lo for a negative direction, hi for a positive one and
// zero otherwise.
func pick(dir, lo, hi float32) float32 {
	switch {
	case dir < 0:
		return lo
	case dir > 0:
		return hi
	}
	return 0
}

// pixelScale returns normalised units per logical pixel for a viewport.
func pixelScale(ratio float64, vp Rect) [2]float32 {
	if ratio <= 0 {
		ratio = 1
	}
	var s [2]float32
	if vp.Width > 0 {
		s[0] = float32(ratio / vp.Width)
	}
	if vp.Height > 0 {
		s[1] = float32(ratio / vp.Height)
	}
	return s
}

func vec4(v [4]float64) [4]float32 {
	return [4]float32{float32(v[0]), float32(v[1]), float32(v[2]), float32(v[3])}
}
