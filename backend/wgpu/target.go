//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// copyPitchAlignment is the required BytesPerRow alignment of
// texture-to-buffer copies.
const copyPitchAlignment = 256

// offscreenTarget is the single-sample colour texture draws render into.
type offscreenTarget struct {
	tex  hal.Texture
	view hal.TextureView

	width  uint32
	height uint32

	// cleared is false until a render pass cleared the texture to
	// clearColor.
	cleared    bool
	clearColor color.RGBA
}

// ensure creates or recreates the texture if the requested dimensions
// differ from the current size.
func (t *offscreenTarget) ensure(device hal.Device, w, h uint32) error {
	if t.width == w && t.height == h && t.tex != nil {
		return nil
	}
	t.destroy(device)

	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "error2d_target",
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        targetFormat,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create target texture: %w", err)
	}
	t.tex = tex

	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: "error2d_target_view",
	})
	if err != nil {
		t.destroy(device)
		return fmt.Errorf("wgpu: create target view: %w", err)
	}
	t.view = view
	t.width = w
	t.height = h
	t.cleared = false
	return nil
}

func (t *offscreenTarget) destroy(device hal.Device) {
	if device == nil {
		return
	}
	if t.view != nil {
		device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.tex != nil {
		device.DestroyTexture(t.tex)
		t.tex = nil
	}
	t.width = 0
	t.height = 0
	t.cleared = false
}

// loadOp clears the target on its first pass and keeps it afterwards.
func (t *offscreenTarget) loadOp() gputypes.LoadOp {
	if t.cleared {
		return gputypes.LoadOpLoad
	}
	return gputypes.LoadOpClear
}

// clearValue is clearColor as a render pass clear value.
func (t *offscreenTarget) clearValue() gputypes.Color {
	c := t.clearColor
	return gputypes.Color{
		R: float64(c.R) / 255,
		G: float64(c.G) / 255,
		B: float64(c.B) / 255,
		A: float64(c.A) / 255,
	}
}

// Clear makes the next draw start from a target filled with c.
func (d *Device) Clear(c color.Color) {
	d.target.clearColor = color.RGBAModel.Convert(c).(color.RGBA)
	d.target.cleared = false
}

// Image reads the target back into a new RGBA image. A target that was
// not drawn since the last Clear reads back as the clear colour.
func (d *Device) Image() (*image.RGBA, error) {
	if d.destroyed {
		return nil, ErrDestroyed
	}
	w, h := d.target.width, d.target.height
	img := image.NewRGBA(image.Rect(0, 0, int(w), int(h)))
	if !d.target.cleared {
		draw.Draw(img, img.Bounds(), image.NewUniform(d.target.clearColor), image.Point{}, draw.Src)
		return img, nil
	}

	// WebGPU (and DX12) requires BytesPerRow aligned to 256 bytes.
	bytesPerRow := w * 4
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	stagingSize := uint64(alignedBytesPerRow) * uint64(h)

	staging, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "error2d_staging",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create staging buffer: %w", err)
	}
	defer d.device.DestroyBuffer(staging)

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "error2d_readback"})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("error2d_readback"); err != nil {
		return nil, fmt.Errorf("wgpu: begin encoding: %w", err)
	}
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: d.target.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	encoder.CopyTextureToBuffer(d.target.tex, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: d.target.tex, MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})
	// Back to RenderAttachment for the next draw.
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: d.target.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})
	if err := d.submit(encoder); err != nil {
		return nil, err
	}

	mapping, err := d.device.MapBuffer(staging, 0, stagingSize)
	if err != nil {
		return nil, fmt.Errorf("wgpu: map staging buffer: %w", err)
	}
	readback := unsafe.Slice((*byte)(mapping.Ptr), stagingSize) //nolint:gosec // mapped for stagingSize bytes
	unpackBGRA(img, readback, int(alignedBytesPerRow))
	if err := d.device.UnmapBuffer(staging); err != nil {
		return nil, fmt.Errorf("wgpu: unmap staging buffer: %w", err)
	}
	return img, nil
}

// submit ends encoding, submits the command buffer and blocks until the
// GPU has finished it.
func (d *Device) submit(encoder hal.CommandEncoder) error {
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	index, err := d.queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		return fmt.Errorf("wgpu: submit: %w", err)
	}
	if d.queue.PollCompleted() >= index {
		return nil
	}
	if err := d.device.WaitIdle(); err != nil {
		return fmt.Errorf("wgpu: wait for GPU: %w", err)
	}
	return nil
}

// unpackBGRA strips row padding from a BGRA readback and swizzles it into
// img.
func unpackBGRA(img *image.RGBA, src []byte, srcStride int) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	for y := range h {
		row := src[y*srcStride : y*srcStride+w*4]
		dst := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < len(row); x += 4 {
			dst[x+0] = row[x+2]
			dst[x+1] = row[x+1]
			dst[x+2] = row[x+0]
			dst[x+3] = row[x+3]
		}
	}
}
