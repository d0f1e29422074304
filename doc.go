// Package error2d draws 2D error bars on the GPU.
//
// # Overview
//
// Each point carries a position, four error magnitudes (left, right,
// down, up) and a colour. error2d draws a bar from the position to each
// error end along X and Y, plus a perpendicular cap at each end. All
// points are rendered with a single instanced draw: a fixed template of
// 36 vertices (six shapes of two triangles) is repeated once per point
// and displaced in the vertex stage.
//
// # Quick Start
//
//	dev, err := wgpu.Open(wgpu.Options{Width: 800, Height: 600})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer dev.Destroy()
//
//	r, err := error2d.New(dev, &error2d.Config{
//		Positions: error2d.Nested{{0, 0}, {1, 2}, {2, 1}},
//		Errors:    error2d.Nested{{.1, .1, .3, .3}, {.2, .2, .1, .4}, {0, 0, .2, .2}},
//		Color:     error2d.Colors("steelblue"),
//		LineWidth: error2d.Float64(2),
//		CapSize:   error2d.Float64(8),
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer r.Destroy()
//
//	// Pan or zoom: only the range changes, no buffers are re-uploaded.
//	err = r.Draw(&error2d.Config{Range: error2d.Range4(-1, -1, 3, 3)})
//
// # Coordinates
//
// Positions and errors are in data units. Range maps the visible data
// window [minX, minY, maxX, maxY] onto the viewport; when no range is
// given, the bounds of the first positions are used. Line width and cap
// size are in logical pixels and scaled by the device pixel ratio, so
// bars keep their thickness when zooming.
//
// Viewport and scissor rectangles are in device pixels with the origin
// at the top-left corner.
//
// # Backends
//
// A Device executes draws. backend/wgpu renders with gogpu/wgpu, either
// headless or on a device shared through gpucontext. backend/software
// runs the same vertex math on the CPU and rasterises into an image.RGBA.
package error2d

// Version is the library version.
const Version = "0.1.0"
