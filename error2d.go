// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package error2d

import (
	"fmt"
	"math"
	"slices"

	"github.com/gogpu/error2d/internal/bounds"
)

// Renderer draws error bars for a set of points with one instanced draw.
//
// A Renderer keeps the last supplied positions, errors, colours, style,
// range, viewport and scissor. Update merges a partial Config into that
// state and re-uploads only the buffers whose data changed. Draw renders
// the current state.
//
// Renderer is not safe for concurrent use.
type Renderer struct {
	dev     Device
	program ProgramID

	mesh      dynamicBuffer
	positions dynamicBuffer
	errors    dynamicBuffer
	colors    dynamicBuffer

	st        *state
	destroyed bool
}

// New creates a renderer on dev and applies cfg, which may be nil.
func New(dev Device, cfg *Config) (*Renderer, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}

	r := &Renderer{
		dev:       dev,
		mesh:      dynamicBuffer{label: "error2d_mesh"},
		positions: dynamicBuffer{label: "error2d_positions"},
		errors:    dynamicBuffer{label: "error2d_errors"},
		colors:    dynamicBuffer{label: "error2d_colors"},
		st:        newState(),
	}

	prog, err := dev.CreateProgram(programDesc())
	if err != nil {
		return nil, fmt.Errorf("error2d: create program: %w", err)
	}
	r.program = prog

	if err := r.mesh.upload(dev, encodeMesh()); err != nil {
		r.Destroy()
		return nil, fmt.Errorf("error2d: %w", err)
	}

	if cfg != nil {
		if err := r.Update(cfg); err != nil {
			r.Destroy()
			return nil, err
		}
	}
	return r, nil
}

// Update merges cfg into the renderer state without drawing.
//
// Fields are applied in order: style, errors, positions, colours, range,
// viewport and scissor. An error stops the update; fields applied before
// it stay applied.
func (r *Renderer) Update(cfg *Config) error {
	if r.destroyed {
		return ErrDestroyed
	}
	if cfg == nil {
		return nil
	}
	u := cfg.normalize()
	st := r.st

	if u.lineWidth != nil {
		st.lineWidth = *u.lineWidth * 0.5
	}
	if u.capSize != nil {
		st.capSize = *u.capSize * 0.5
	}

	if u.errors != nil {
		errs, err := u.errors.unroll(4)
		if err != nil {
			return fmt.Errorf("error2d: errors: %w", err)
		}
		st.errors = errs
		if err := r.uploadErrors(); err != nil {
			return err
		}
	}

	if u.positions != nil {
		if err := r.setPositions(u.positions); err != nil {
			return err
		}
	}

	if u.colors != nil {
		if err := r.setColors(u.colors); err != nil {
			return err
		}
	}

	if err := r.setRange(u.viewRange); err != nil {
		return err
	}

	if u.viewport != nil {
		rc, err := u.viewport.rect()
		if err != nil {
			return fmt.Errorf("error2d: viewport: %w", err)
		}
		st.viewport = rc
	}
	if u.scissor != nil {
		rc, err := u.scissor.rect()
		if err != nil {
			return fmt.Errorf("error2d: scissor: %w", err)
		}
		st.scissor = rc
	}
	return nil
}

func (r *Renderer) setPositions(c Coords) error {
	st := r.st
	pos, err := c.unroll(2)
	if err != nil {
		return fmt.Errorf("error2d: positions: %w", err)
	}
	if len(pos)%2 != 0 {
		Logger().Warn("error2d: odd coordinate count, trailing value ignored", "len", len(pos))
		pos = pos[:len(pos)-1]
	}
	if len(pos) == 0 {
		return nil
	}

	st.positions = pos
	st.count = len(pos) / 2

	b := bounds.Of(pos, 2)
	bounds.Nudge(b)
	st.bounds = [4]float64{b[0], b[1], b[2], b[3]}
	st.hasBounds = true

	if err := r.positions.upload(r.dev, encodeFloats(pos, 0)); err != nil {
		return fmt.Errorf("error2d: %w", err)
	}

	if st.errorPoints < st.count {
		if err := r.uploadErrors(); err != nil {
			return err
		}
	}
	if st.perPointColor() && st.colorPoints < st.count {
		Logger().Warn("error2d: fewer colors than points, padding with transparent",
			"colors", st.colorPoints, "points", st.count)
		if err := r.uploadColors(); err != nil {
			return err
		}
	}
	return nil
}

// uploadErrors writes the error buffer zero-padded to cover every point.
func (r *Renderer) uploadErrors() error {
	st := r.st
	n := max(st.count, (len(st.errors)+3)/4)
	if n == 0 {
		return nil
	}
	if err := r.errors.upload(r.dev, encodeFloats(st.errors, n*4)); err != nil {
		return fmt.Errorf("error2d: %w", err)
	}
	st.errorPoints = n
	return nil
}

func (r *Renderer) setColors(list ColorList) error {
	st := r.st
	if len(list) == 0 {
		return nil
	}
	if len(list) > 1 && len(list) != st.count {
		return fmt.Errorf("%w: %d colors for %d points", ErrInsufficientColors, len(list), st.count)
	}

	rgba := make([]uint8, 0, len(list)*4)
	for i, c := range list {
		b, err := c.bytes()
		if err != nil {
			return fmt.Errorf("error2d: color %d: %w", i, err)
		}
		rgba = append(rgba, b[:]...)
	}
	st.color = rgba

	if len(list) == 1 {
		return nil
	}
	return r.uploadColors()
}

func (r *Renderer) uploadColors() error {
	st := r.st
	n := max(st.count, len(st.color)/4)
	if err := r.colors.upload(r.dev, encodeColors(st.color, n)); err != nil {
		return fmt.Errorf("error2d: %w", err)
	}
	st.colorPoints = n
	return nil
}

// setRange seeds the range from the bounds when none was ever set, then
// applies an explicit range. A rejected range leaves the seeded one.
func (r *Renderer) setRange(rng *[4]float64) error {
	st := r.st
	if !st.hasRange && st.hasBounds {
		st.viewRange = st.bounds
		st.hasRange = true
	}
	if rng == nil {
		return nil
	}
	if err := checkRange(*rng); err != nil {
		return err
	}
	st.viewRange = *rng
	st.hasRange = true
	return nil
}

func checkRange(rng [4]float64) error {
	for _, v := range rng {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value in %v", ErrInvalidRange, rng)
		}
	}
	if rng[2] == rng[0] || rng[3] == rng[1] {
		return fmt.Errorf("%w: zero extent in %v", ErrInvalidRange, rng)
	}
	return nil
}

// Draw applies cfg, if any, and renders the current state. When cfg.Draw
// is false, Draw only updates. Draw does nothing while there are no
// points.
func (r *Renderer) Draw(cfg *Config) error {
	if r.destroyed {
		return ErrDestroyed
	}
	if cfg != nil {
		if err := r.Update(cfg); err != nil {
			return err
		}
		if !cfg.drawRequested() {
			return nil
		}
	}
	if r.st.count == 0 {
		return nil
	}

	cmd := r.drawCommand()
	if err := r.dev.Draw(cmd); err != nil {
		return fmt.Errorf("error2d: draw: %w", err)
	}
	Logger().Debug("error2d: draw submitted",
		"instances", cmd.InstanceCount, "vertices", cmd.VertexCount, "uniform_color", cmd.UsesUniformColor())
	return nil
}

// Func returns Draw as a function value, for callers that keep a draw
// callback.
func (r *Renderer) Func() func(*Config) error {
	return r.Draw
}

func (r *Renderer) drawCommand() *DrawCommand {
	st := r.st

	vp := r.fullViewport()
	if st.viewport != nil {
		vp = *st.viewport
	}

	u := Uniforms{
		Bounds:     vec4(st.bounds),
		Range:      vec4(st.viewRange),
		PixelScale: pixelScale(r.dev.PixelRatio(), vp),
		LineWidth:  float32(st.lineWidth),
		CapSize:    float32(st.capSize),
	}

	cmd := &DrawCommand{
		Program:       r.program,
		Mesh:          r.mesh.id,
		Positions:     r.positions.id,
		Errors:        r.errors.id,
		VertexCount:   MeshVertexCount,
		InstanceCount: uint32(st.count), //nolint:gosec // point count fits uint32
		Viewport:      vp,
	}
	if st.perPointColor() {
		cmd.Colors = r.colors.id
	} else {
		u.UniformColor = 1
		for i := range u.Color {
			u.Color[i] = float32(st.color[i])
		}
	}
	cmd.Uniforms = u

	if st.scissor != nil {
		sc := *st.scissor
		cmd.Scissor = &sc
	}
	return cmd
}

func (r *Renderer) fullViewport() Rect {
	w, h := r.dev.TargetSize()
	return Rect{Width: float64(w), Height: float64(h)}
}

// Destroy releases the renderer's device resources. It is safe to call
// more than once.
func (r *Renderer) Destroy() {
	if r.destroyed {
		return
	}
	r.mesh.release(r.dev)
	r.positions.release(r.dev)
	r.errors.release(r.dev)
	r.colors.release(r.dev)
	if r.program != InvalidID {
		r.dev.DestroyProgram(r.program)
		r.program = InvalidID
	}
	r.destroyed = true
}

// Count returns the number of points.
func (r *Renderer) Count() int { return r.st.count }

// Bounds returns the data extent [minX, minY, maxX, maxY] with degenerate
// axes widened by one. It is zero before any positions are set.
func (r *Renderer) Bounds() [4]float64 { return r.st.bounds }

// Range returns the visible data window and whether one is set.
func (r *Renderer) Range() ([4]float64, bool) { return r.st.viewRange, r.st.hasRange }

// LineWidth returns the full line width in pixels.
func (r *Renderer) LineWidth() float64 { return r.st.lineWidth * 2 }

// CapSize returns the full cap size in pixels.
func (r *Renderer) CapSize() float64 { return r.st.capSize * 2 }

// Viewport returns the viewport, or nil when it covers the drawing
// buffer.
func (r *Renderer) Viewport() *Rect { return cloneRect(r.st.viewport) }

// Scissor returns the scissor rectangle, or nil when scissoring is off.
func (r *Renderer) Scissor() *Rect { return cloneRect(r.st.scissor) }

// Positions returns a copy of the flat positions.
func (r *Renderer) Positions() []float64 { return slices.Clone(r.st.positions) }

// Errors returns a copy of the flat errors as supplied.
func (r *Renderer) Errors() []float64 { return slices.Clone(r.st.errors) }

// Colors returns a copy of the RGBA colour bytes: 4 bytes for a single
// colour, or 4 per point.
func (r *Renderer) Colors() []uint8 { return slices.Clone(r.st.color) }

func cloneRect(rc *Rect) *Rect {
	if rc == nil {
		return nil
	}
	c := *rc
	return &c
}
