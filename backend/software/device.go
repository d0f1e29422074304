// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package software implements error2d.Device on the CPU.
//
// The device stores buffers in memory, evaluates the error-bar vertex
// stage with error2d.ProjectVertex and rasterises the resulting triangles
// into an *image.RGBA with golang.org/x/image/vector. It is used for
// tests, headless rendering without a GPU, and as the fallback backend.
package software

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/gogpu/error2d"
)

// Errors returned by Device.
var (
	// ErrUnknownBuffer is returned for buffer IDs the device did not create.
	ErrUnknownBuffer = errors.New("software: unknown buffer")

	// ErrUnknownProgram is returned for program IDs the device did not create.
	ErrUnknownProgram = errors.New("software: unknown program")

	// ErrBufferOverflow is returned when a write or draw exceeds a buffer.
	ErrBufferOverflow = errors.New("software: buffer overflow")

	// ErrInvalidSize is returned for non-positive buffer or target sizes.
	ErrInvalidSize = errors.New("software: invalid size")
)

// Device renders error bars into an in-memory RGBA image.
type Device struct {
	img   *image.RGBA
	ratio float64

	nextID   uint64
	buffers  map[error2d.BufferID][]byte
	programs map[error2d.ProgramID]*error2d.ProgramDesc

	draws int
}

// New creates a device with a transparent width x height target.
// A pixelRatio of zero or less means 1.
func New(width, height int, pixelRatio float64) (*Device, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if pixelRatio <= 0 {
		pixelRatio = 1
	}
	return &Device{
		img:      image.NewRGBA(image.Rect(0, 0, width, height)),
		ratio:    pixelRatio,
		buffers:  make(map[error2d.BufferID][]byte),
		programs: make(map[error2d.ProgramID]*error2d.ProgramDesc),
	}, nil
}

// CreateBuffer allocates a zeroed buffer.
func (d *Device) CreateBuffer(label string, size int) (error2d.BufferID, error) {
	if size <= 0 {
		return error2d.InvalidID, fmt.Errorf("%w: buffer %q of %d bytes", ErrInvalidSize, label, size)
	}
	d.nextID++
	id := error2d.BufferID(d.nextID)
	d.buffers[id] = make([]byte, size)
	return id, nil
}

// WriteBuffer copies data to the start of the buffer.
func (d *Device) WriteBuffer(id error2d.BufferID, data []byte) error {
	buf, ok := d.buffers[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownBuffer, id)
	}
	if len(data) > len(buf) {
		return fmt.Errorf("%w: writing %d bytes into %d", ErrBufferOverflow, len(data), len(buf))
	}
	copy(buf, data)
	return nil
}

// DestroyBuffer releases a buffer.
func (d *Device) DestroyBuffer(id error2d.BufferID) {
	delete(d.buffers, id)
}

// CreateProgram records the program. The vertex stage is executed by
// error2d.ProjectVertex, so the WGSL source is not compiled.
func (d *Device) CreateProgram(desc *error2d.ProgramDesc) (error2d.ProgramID, error) {
	if desc == nil || desc.VertexEntry == "" || desc.FragmentEntry == "" {
		return error2d.InvalidID, errors.New("software: incomplete program description")
	}
	d.nextID++
	id := error2d.ProgramID(d.nextID)
	d.programs[id] = desc
	return id, nil
}

// DestroyProgram releases a program.
func (d *Device) DestroyProgram(id error2d.ProgramID) {
	delete(d.programs, id)
}

// TargetSize returns the image size.
func (d *Device) TargetSize() (width, height int) {
	b := d.img.Bounds()
	return b.Dx(), b.Dy()
}

// PixelRatio returns device pixels per logical pixel.
func (d *Device) PixelRatio() float64 {
	return d.ratio
}

// Draws returns the number of draws executed.
func (d *Device) Draws() int {
	return d.draws
}

// Clear fills the target with c.
func (d *Device) Clear(c color.Color) {
	draw.Draw(d.img, d.img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

// Image returns a copy of the target.
func (d *Device) Image() (*image.RGBA, error) {
	out := image.NewRGBA(d.img.Bounds())
	copy(out.Pix, d.img.Pix)
	return out, nil
}

// Destroy releases all buffers and programs.
func (d *Device) Destroy() {
	clear(d.buffers)
	clear(d.programs)
}

func (d *Device) buffer(id error2d.BufferID) ([]byte, error) {
	buf, ok := d.buffers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBuffer, id)
	}
	return buf, nil
}
