//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"
	"math"

	"github.com/gogpu/error2d"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// drawResources are the per-draw uniform buffer and bind group.
type drawResources struct {
	uniformBuf hal.Buffer
	bindGroup  hal.BindGroup
}

func (r *drawResources) destroy(device hal.Device) {
	if r.bindGroup != nil {
		device.DestroyBindGroup(r.bindGroup)
	}
	if r.uniformBuf != nil {
		device.DestroyBuffer(r.uniformBuf)
	}
}

// Draw records one instanced draw into a render pass on the offscreen
// target, submits it and waits for completion.
func (d *Device) Draw(cmd *error2d.DrawCommand) error {
	if d.destroyed {
		return ErrDestroyed
	}
	p, ok := d.programs[cmd.Program]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownProgram, cmd.Program)
	}
	slots := []error2d.BufferID{cmd.Mesh, cmd.Positions, cmd.Errors}
	pipeline := p.uniformColor
	if !cmd.UsesUniformColor() {
		slots = append(slots, cmd.Colors)
		pipeline = p.perPoint
	}
	vbufs := make([]hal.Buffer, len(slots))
	for i, id := range slots {
		b, ok := d.buffers[id]
		if !ok {
			return fmt.Errorf("%w: slot %d id %d", ErrUnknownBuffer, i, id)
		}
		vbufs[i] = b.buf
	}
	if cmd.VertexCount == 0 || cmd.InstanceCount == 0 {
		return nil
	}
	scissor, visible := d.scissorRect(cmd.Scissor)
	if !visible {
		return nil
	}
	vp, u, visible := d.fitViewport(cmd.Viewport, cmd.Uniforms)
	if !visible {
		return nil
	}

	res, err := d.createDrawResources(p, &u)
	if err != nil {
		res.destroy(d.device)
		return err
	}
	defer res.destroy(d.device)

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "error2d_encoder"})
	if err != nil {
		return fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("error2d_draw"); err != nil {
		return fmt.Errorf("wgpu: begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "error2d_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       d.target.view,
			LoadOp:     d.target.loadOp(),
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: d.target.clearValue(),
		}},
	})
	rp.SetPipeline(pipeline)
	rp.SetBindGroup(0, res.bindGroup, nil)
	for slot, buf := range vbufs {
		rp.SetVertexBuffer(uint32(slot), buf, 0) //nolint:gosec // at most 4 slots
	}
	rp.SetViewport(float32(vp.X), float32(vp.Y), float32(vp.Width), float32(vp.Height), 0, 1)
	rp.SetScissorRect(scissor[0], scissor[1], scissor[2], scissor[3])
	rp.Draw(cmd.VertexCount, cmd.InstanceCount, 0, 0)
	rp.End()

	if err := d.submit(encoder); err != nil {
		return err
	}
	d.target.cleared = true
	d.draws++
	error2d.Logger().Debug("wgpu: draw submitted",
		"vertices", cmd.VertexCount, "instances", cmd.InstanceCount,
		"uniform_color", cmd.UsesUniformColor())
	return nil
}

func (d *Device) createDrawResources(p *program, u *error2d.Uniforms) (*drawResources, error) {
	res := &drawResources{}
	data := u.Bytes()
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "error2d_uniforms",
		Size:  uint64(len(data)),
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return res, fmt.Errorf("wgpu: create uniform buffer: %w", err)
	}
	res.uniformBuf = buf
	if err := d.queue.WriteBuffer(buf, 0, data); err != nil {
		return res, fmt.Errorf("wgpu: write uniforms: %w", err)
	}

	bg, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "error2d_bind",
		Layout: p.uniformLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: buf.NativeHandle(), Offset: 0, Size: uint64(len(data))}},
		},
	})
	if err != nil {
		return res, fmt.Errorf("wgpu: create bind group: %w", err)
	}
	res.bindGroup = bg
	return res, nil
}

// scissorRect converts an optional scissor to integer pixels clamped to
// the target. A nil scissor covers the whole target. visible is false when
// nothing of the target remains.
func (d *Device) scissorRect(r *error2d.Rect) (rect [4]uint32, visible bool) {
	w, h := float64(d.target.width), float64(d.target.height)
	x0, y0, x1, y1 := 0.0, 0.0, w, h
	if r != nil {
		x0 = math.Max(math.Floor(r.X), 0)
		y0 = math.Max(math.Floor(r.Y), 0)
		x1 = math.Min(math.Ceil(r.X+r.Width), w)
		y1 = math.Min(math.Ceil(r.Y+r.Height), h)
	}
	if x1 <= x0 || y1 <= y0 {
		return rect, false
	}
	return [4]uint32{uint32(x0), uint32(y0), uint32(x1 - x0), uint32(y1 - y0)}, true
}

// fitViewport clamps vp to the target, which render passes require, and
// rewrites the range and pixel scale of u so that every vertex still lands
// on the pixel the unclamped viewport would put it on. visible is false
// when the viewport misses the target.
func (d *Device) fitViewport(vp error2d.Rect, u error2d.Uniforms) (error2d.Rect, error2d.Uniforms, bool) {
	w, h := float64(d.target.width), float64(d.target.height)
	x0, y0 := math.Max(vp.X, 0), math.Max(vp.Y, 0)
	x1, y1 := math.Min(vp.X+vp.Width, w), math.Min(vp.Y+vp.Height, h)
	if x1 <= x0 || y1 <= y0 {
		return vp, u, false
	}
	fit := error2d.Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
	if fit == vp {
		return vp, u, true
	}

	// Normalised x grows rightwards from the left edge, y upwards from the
	// bottom edge.
	spanX := float64(u.Range[2]) - float64(u.Range[0])
	spanY := float64(u.Range[3]) - float64(u.Range[1])
	minX := float64(u.Range[0]) + (x0-vp.X)/vp.Width*spanX
	minY := float64(u.Range[1]) + (vp.Y+vp.Height-y1)/vp.Height*spanY
	u.Range = [4]float32{
		float32(minX),
		float32(minY),
		float32(minX + spanX*fit.Width/vp.Width),
		float32(minY + spanY*fit.Height/vp.Height),
	}
	u.PixelScale[0] = float32(float64(u.PixelScale[0]) * vp.Width / fit.Width)
	u.PixelScale[1] = float32(float64(u.PixelScale[1]) * vp.Height / fit.Height)
	return fit, u, true
}
