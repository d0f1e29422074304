// Package backend provides a pluggable render target abstraction for
// error2d.
//
// # Backend Registration
//
// Backends are registered via init() functions and selected at runtime.
// The software backend is automatically registered on import:
//
//	import _ "github.com/gogpu/error2d/backend"
//
// The GPU backend registers itself when its package is imported:
//
//	import _ "github.com/gogpu/error2d/backend/wgpu"
//
// # Backend Selection
//
// Use Default() to get the best available backend, or Get() to request
// a specific backend by name:
//
//	b := backend.Default()
//	if err := b.Init(); err != nil {
//		log.Fatal(err)
//	}
//	defer b.Close()
//
//	target, err := b.NewTarget(800, 600, 1)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer target.Destroy()
//
//	r, err := error2d.New(target, cfg)
//
// # Available Backends
//
// - "software": CPU rasteriser (always available)
// - "wgpu": GPU rendering via gogpu/wgpu
package backend
