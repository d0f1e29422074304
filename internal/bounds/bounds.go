// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package bounds computes axis-aligned bounds of interleaved coordinates.
package bounds

import "math"

// Of returns the per-component minimum and maximum of data read as tuples
// of the given stride: [min0, min1, ..., max0, max1, ...].
//
// NaN components are skipped. Components with no finite data report
// zero for both min and max. A trailing partial tuple is ignored.
func Of(data []float64, stride int) []float64 {
	if stride <= 0 {
		return nil
	}
	out := make([]float64, 2*stride)
	for c := 0; c < stride; c++ {
		out[c] = math.Inf(1)
		out[stride+c] = math.Inf(-1)
	}

	n := len(data) / stride
	for i := 0; i < n; i++ {
		for c := 0; c < stride; c++ {
			v := data[i*stride+c]
			if math.IsNaN(v) {
				continue
			}
			out[c] = math.Min(out[c], v)
			out[stride+c] = math.Max(out[stride+c], v)
		}
	}

	for c := 0; c < stride; c++ {
		if out[c] > out[stride+c] {
			out[c], out[stride+c] = 0, 0
		}
	}
	return out
}

// Nudge widens degenerate axes of a [min..., max...] box so that
// max > min, adding one to max.
func Nudge(box []float64) {
	stride := len(box) / 2
	for c := 0; c < stride; c++ {
		if box[stride+c] == box[c] {
			box[stride+c]++
		}
	}
}
