// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package error2d

// BufferID is an opaque handle to a device buffer.
type BufferID uint64

// ProgramID is an opaque handle to a compiled error-bar program.
type ProgramID uint64

// InvalidID is the zero value, representing no resource.
const InvalidID = 0

// Vertex buffer strides in bytes.
const (
	// MeshVertexStride is the per-vertex stride of the geometry template:
	// axis (vec2<f32>), line offset (vec2<f32>), cap offset (vec2<f32>).
	MeshVertexStride = 24

	// PositionStride is the per-instance stride of the position buffer.
	PositionStride = 8

	// ErrorStride is the per-instance stride of the error buffer
	// (ex0, ex1, ey0, ey1).
	ErrorStride = 16

	// ColorStride is the per-instance stride of the colour buffer.
	// Channels are f32 in the 0..255 range.
	ColorStride = 16
)

// Device is the rendering-context collaborator. It owns GPU memory and
// executes draws; Renderer only holds IDs.
//
// Implementations live in backend/wgpu (gogpu/wgpu HAL) and
// backend/software (CPU rasteriser). A Device is not required to be safe
// for concurrent use.
type Device interface {
	// CreateBuffer allocates a vertex buffer of size bytes.
	CreateBuffer(label string, size int) (BufferID, error)

	// WriteBuffer copies data to the start of the buffer. The device must
	// not retain data after returning.
	WriteBuffer(id BufferID, data []byte) error

	// DestroyBuffer releases a buffer. Unknown IDs are ignored.
	DestroyBuffer(id BufferID)

	// CreateProgram compiles the error-bar program.
	CreateProgram(desc *ProgramDesc) (ProgramID, error)

	// DestroyProgram releases a program. Unknown IDs are ignored.
	DestroyProgram(id ProgramID)

	// Draw issues one instanced draw.
	Draw(cmd *DrawCommand) error

	// TargetSize returns the drawing buffer size in device pixels.
	TargetSize() (width, height int)

	// PixelRatio returns device pixels per logical pixel.
	PixelRatio() float64
}

// ProgramDesc describes the error-bar program: one WGSL module with a
// per-instance-colour vertex entry, a uniform-colour vertex entry and a
// fragment entry.
type ProgramDesc struct {
	Label string

	// WGSL is the shader module source.
	WGSL string

	// VertexEntry reads colour from vertex buffer slot 3.
	VertexEntry string

	// UniformColorVertexEntry reads colour from Uniforms.Color and binds
	// no colour buffer.
	UniformColorVertexEntry string

	FragmentEntry string
}

// DrawCommand is one instanced draw of the geometry template.
//
// Vertex buffer slots:
//
//	0: Mesh      per vertex,   MeshVertexStride
//	1: Positions per instance, PositionStride
//	2: Errors    per instance, ErrorStride
//	3: Colors    per instance, ColorStride (only when Colors != InvalidID)
type DrawCommand struct {
	Program   ProgramID
	Mesh      BufferID
	Positions BufferID
	Errors    BufferID

	// Colors is InvalidID when a single colour is used; the colour is then
	// taken from Uniforms.Color.
	Colors BufferID

	Uniforms Uniforms

	VertexCount   uint32
	InstanceCount uint32

	// Viewport is always set; it defaults to the full drawing buffer.
	Viewport Rect

	// Scissor is nil when scissoring is disabled.
	Scissor *Rect
}

// UsesUniformColor reports whether the draw reads colour from uniforms.
func (c *DrawCommand) UsesUniformColor() bool {
	return c.Colors == InvalidID
}
