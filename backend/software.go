package backend

import (
	"fmt"

	"github.com/gogpu/error2d/backend/software"
)

// SoftwareBackend is a CPU-based rendering backend.
// Its targets evaluate the vertex stage on the host and rasterise into an
// image.RGBA.
type SoftwareBackend struct {
	initialized bool
}

// init registers the software backend on package import.
func init() {
	Register(BackendSoftware, func() RenderBackend {
		return &SoftwareBackend{}
	})
}

// NewSoftwareBackend creates a new software rendering backend.
func NewSoftwareBackend() *SoftwareBackend {
	return &SoftwareBackend{}
}

// Name returns the backend identifier.
func (b *SoftwareBackend) Name() string {
	return BackendSoftware
}

// Init initializes the backend.
func (b *SoftwareBackend) Init() error {
	b.initialized = true
	return nil
}

// Close releases all backend resources.
func (b *SoftwareBackend) Close() {
	b.initialized = false
}

// NewTarget creates a CPU render target.
func (b *SoftwareBackend) NewTarget(width, height int, pixelRatio float64) (Target, error) {
	if !b.initialized {
		return nil, ErrNotInitialized
	}
	d, err := software.New(width, height, pixelRatio)
	if err != nil {
		return nil, fmt.Errorf("software target: %w", err)
	}
	return d, nil
}
