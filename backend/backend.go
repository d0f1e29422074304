package backend

import (
	"errors"
	"image"
	"image/color"

	"github.com/gogpu/error2d"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNotInitialized is returned when operations are called before Init.
	ErrNotInitialized = errors.New("backend: not initialized")
)

// Backend name constants.
const (
	// BackendWGPU is the name of the GPU backend (gogpu/wgpu HAL).
	BackendWGPU = "wgpu"
	// BackendSoftware is the name of the CPU backend.
	BackendSoftware = "software"
)

// Target is an offscreen render target that error2d can draw into.
type Target interface {
	error2d.Device

	// Clear fills the target with c before the next draw.
	Clear(c color.Color)

	// Image reads the rendered pixels back.
	Image() (*image.RGBA, error)

	// Destroy releases the target's resources.
	Destroy()
}

// RenderBackend is the interface for rendering backends.
// It abstracts the device implementation so callers such as the demo can
// pick a GPU or CPU target by name.
//
// Backends must be registered via Register() and are selected via
// Get() or Default().
type RenderBackend interface {
	// Name returns the backend identifier (e.g., "software", "wgpu").
	Name() string

	// Init initializes the backend.
	// This should be called before NewTarget.
	Init() error

	// Close releases all backend resources.
	// The backend should not be used after Close is called.
	Close()

	// NewTarget creates a width x height render target with the given
	// device pixel ratio.
	NewTarget(width, height int, pixelRatio float64) (Target, error)
}
