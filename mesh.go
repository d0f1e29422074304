// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package error2d

import (
	"encoding/binary"
	"math"
)

// MeshVertex is one entry of the geometry template. Every component is
// -1, 0 or 1.
//
// AxisX/AxisY select which error magnitude displaces the vertex: a
// negative component uses the left (ex0) or bottom (ey0) error, a positive
// one the right (ex1) or top (ey1) error. LineX/LineY weight the half line
// width and CapX/CapY weight the half cap size plus half line width, both
// applied in pixels.
type MeshVertex struct {
	AxisX, AxisY float32
	LineX, LineY float32
	CapX, CapY   float32
}

// Shape indices into the template; each shape is two triangles.
const (
	ShapeXBar = iota
	ShapeXRightCap
	ShapeXLeftCap
	ShapeYBar
	ShapeYTopCap
	ShapeYBottomCap

	shapeCount
)

// VerticesPerShape is the number of template vertices per shape.
const VerticesPerShape = 6

// MeshVertexCount is the number of vertices drawn per point.
const MeshVertexCount = shapeCount * VerticesPerShape

var mesh = [MeshVertexCount]MeshVertex{
	// x bar
	{1, 0, 0, 1, 0, 0},
	{1, 0, 0, -1, 0, 0},
	{-1, 0, 0, -1, 0, 0},

	{-1, 0, 0, -1, 0, 0},
	{-1, 0, 0, 1, 0, 0},
	{1, 0, 0, 1, 0, 0},

	// x right cap
	{1, 0, -1, 0, 0, 1},
	{1, 0, -1, 0, 0, -1},
	{1, 0, 1, 0, 0, -1},

	{1, 0, 1, 0, 0, -1},
	{1, 0, 1, 0, 0, 1},
	{1, 0, -1, 0, 0, 1},

	// x left cap
	{-1, 0, -1, 0, 0, 1},
	{-1, 0, -1, 0, 0, -1},
	{-1, 0, 1, 0, 0, -1},

	{-1, 0, 1, 0, 0, -1},
	{-1, 0, 1, 0, 0, 1},
	{-1, 0, -1, 0, 0, 1},

	// y bar
	{0, 1, 1, 0, 0, 0},
	{0, 1, -1, 0, 0, 0},
	{0, -1, -1, 0, 0, 0},

	{0, -1, -1, 0, 0, 0},
	{0, 1, 1, 0, 0, 0},
	{0, -1, 1, 0, 0, 0},

	// y top cap
	{0, 1, 0, -1, 1, 0},
	{0, 1, 0, -1, -1, 0},
	{0, 1, 0, 1, -1, 0},

	{0, 1, 0, 1, 1, 0},
	{0, 1, 0, -1, 1, 0},
	{0, 1, 0, 1, -1, 0},

	// y bottom cap
	{0, -1, 0, -1, 1, 0},
	{0, -1, 0, -1, -1, 0},
	{0, -1, 0, 1, -1, 0},

	{0, -1, 0, 1, 1, 0},
	{0, -1, 0, -1, 1, 0},
	{0, -1, 0, 1, -1, 0},
}

// Template returns a copy of the geometry template.
func Template() [MeshVertexCount]MeshVertex {
	return mesh
}

// Shape returns the six template vertices of one shape.
func Shape(shape int) [VerticesPerShape]MeshVertex {
	var out [VerticesPerShape]MeshVertex
	copy(out[:], mesh[shape*VerticesPerShape:])
	return out
}

// encodeMesh returns the template as a per-vertex buffer,
// MeshVertexStride bytes per vertex.
func encodeMesh() []byte {
	buf := make([]byte, MeshVertexCount*MeshVertexStride)
	for i, v := range mesh {
		putMeshVertex(buf[i*MeshVertexStride:], v)
	}
	return buf
}

func putMeshVertex(buf []byte, v MeshVertex) {
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(v.AxisX))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(v.AxisY))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(v.LineX))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(v.LineY))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(v.CapX))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(v.CapY))
}

// DecodeMesh parses a per-vertex template buffer. Backends that execute
// the vertex stage on the host use it to read back the uploaded mesh.
func DecodeMesh(buf []byte) []MeshVertex {
	n := len(buf) / MeshVertexStride
	out := make([]MeshVertex, n)
	for i := range out {
		b := buf[i*MeshVertexStride:]
		out[i] = MeshVertex{
			AxisX: float32At(b, 0),
			AxisY: float32At(b, 1),
			LineX: float32At(b, 2),
			LineY: float32At(b, 3),
			CapX:  float32At(b, 4),
			CapY:  float32At(b, 5),
		}
	}
	return out
}

// float32At reads the i-th little-endian f32 of buf.
func float32At(buf []byte, i int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
}

// Float32s decodes a little-endian f32 buffer.
func Float32s(buf []byte) []float32 {
	out := make([]float32, len(buf)/4)
	for i := range out {
		out[i] = float32At(buf, i)
	}
	return out
}
