// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package software

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/chewxy/math32"
	"golang.org/x/image/vector"

	"github.com/gogpu/error2d"
)

// Draw executes one instanced draw. Each instance is rasterised as the
// union of its triangles and composited source-over onto the target.
func (d *Device) Draw(cmd *error2d.DrawCommand) error {
	if _, ok := d.programs[cmd.Program]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownProgram, cmd.Program)
	}
	meshBuf, err := d.buffer(cmd.Mesh)
	if err != nil {
		return fmt.Errorf("mesh: %w", err)
	}
	posBuf, err := d.buffer(cmd.Positions)
	if err != nil {
		return fmt.Errorf("positions: %w", err)
	}
	errBuf, err := d.buffer(cmd.Errors)
	if err != nil {
		return fmt.Errorf("errors: %w", err)
	}

	n := int(cmd.InstanceCount)
	mesh := error2d.DecodeMesh(meshBuf)
	positions := error2d.Float32s(posBuf)
	errs := error2d.Float32s(errBuf)
	if int(cmd.VertexCount) > len(mesh) {
		return fmt.Errorf("%w: %d vertices from a %d vertex mesh", ErrBufferOverflow, cmd.VertexCount, len(mesh))
	}
	if len(positions) < 2*n || len(errs) < 4*n {
		return fmt.Errorf("%w: %d instances", ErrBufferOverflow, n)
	}

	var colors []float32
	if !cmd.UsesUniformColor() {
		colBuf, err := d.buffer(cmd.Colors)
		if err != nil {
			return fmt.Errorf("colors: %w", err)
		}
		colors = error2d.Float32s(colBuf)
		if len(colors) < 4*n {
			return fmt.Errorf("%w: colors for %d instances", ErrBufferOverflow, n)
		}
	}

	clip := clipRect(d.img.Bounds(), cmd.Viewport, cmd.Scissor)
	if clip.Empty() {
		d.draws++
		return nil
	}

	vp := cmd.Viewport
	z := vector.NewRasterizer(0, 0)
	z.DrawOp = draw.Over
	u := cmd.Uniforms
	verts := mesh[:cmd.VertexCount]
	pts := make([][2]float32, len(verts))

	for i := 0; i < n; i++ {
		pos := [2]float32{positions[2*i], positions[2*i+1]}
		e := [4]float32{errs[4*i], errs[4*i+1], errs[4*i+2], errs[4*i+3]}

		col := u.Color
		if colors != nil {
			col = [4]float32{colors[4*i], colors[4*i+1], colors[4*i+2], colors[4*i+3]}
		}
		if col[3] <= 0 {
			continue
		}

		finite := true
		for j, v := range verts {
			c := error2d.ProjectVertex(v, pos, e, &u)
			pts[j] = toPixel(c, vp)
			if !isFinite(pts[j][0]) || !isFinite(pts[j][1]) {
				finite = false
				break
			}
		}
		if !finite {
			continue
		}

		box := boundingBox(pts).Intersect(clip)
		if box.Empty() {
			continue
		}

		z.Reset(box.Dx(), box.Dy())
		ox, oy := float32(box.Min.X), float32(box.Min.Y)
		for t := 0; t+2 < len(pts); t += 3 {
			addTriangle(z, pts[t], pts[t+1], pts[t+2], ox, oy)
		}
		z.Draw(d.img, box, image.NewUniform(toNRGBA(col)), image.Point{})
	}

	d.draws++
	return nil
}

// toPixel maps clip coordinates to framebuffer pixels, origin top-left.
func toPixel(c [2]float32, vp error2d.Rect) [2]float32 {
	return [2]float32{
		float32(vp.X) + (c[0]+1)/2*float32(vp.Width),
		float32(vp.Y) + (1-c[1])/2*float32(vp.Height),
	}
}

// addTriangle adds a counter-clockwise copy of the triangle so that
// coverage of adjacent triangles accumulates instead of cancelling.
func addTriangle(z *vector.Rasterizer, a, b, c [2]float32, ox, oy float32) {
	area := (b[0]-a[0])*(c[1]-a[1]) - (c[0]-a[0])*(b[1]-a[1])
	if area == 0 {
		return
	}
	if area < 0 {
		b, c = c, b
	}
	z.MoveTo(a[0]-ox, a[1]-oy)
	z.LineTo(b[0]-ox, b[1]-oy)
	z.LineTo(c[0]-ox, c[1]-oy)
	z.ClosePath()
}

func boundingBox(pts [][2]float32) image.Rectangle {
	minX, minY := pts[0][0], pts[0][1]
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX = math32.Min(minX, p[0])
		minY = math32.Min(minY, p[1])
		maxX = math32.Max(maxX, p[0])
		maxY = math32.Max(maxY, p[1])
	}
	return image.Rect(
		int(math32.Floor(minX)), int(math32.Floor(minY)),
		int(math32.Ceil(maxX)), int(math32.Ceil(maxY)),
	)
}

// clipRect intersects the target with the viewport and optional scissor.
func clipRect(bounds image.Rectangle, vp error2d.Rect, scissor *error2d.Rect) image.Rectangle {
	r := bounds.Intersect(pixelRect(vp))
	if scissor != nil {
		r = r.Intersect(pixelRect(*scissor))
	}
	return r
}

func pixelRect(r error2d.Rect) image.Rectangle {
	x0 := int(math32.Round(float32(r.X)))
	y0 := int(math32.Round(float32(r.Y)))
	x1 := int(math32.Round(float32(r.X + r.Width)))
	y1 := int(math32.Round(float32(r.Y + r.Height)))
	return image.Rect(x0, y0, x1, y1)
}

// toNRGBA converts a 0..255 float colour to straight-alpha bytes.
func toNRGBA(c [4]float32) color.NRGBA {
	return color.NRGBA{R: channel(c[0]), G: channel(c[1]), B: channel(c[2]), A: channel(c[3])}
}

func channel(v float32) uint8 {
	if math32.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math32.Round(v))
}

func isFinite(v float32) bool {
	return !math32.IsNaN(v) && !math32.IsInf(v, 0)
}
