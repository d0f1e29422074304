//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"
	"sync"

	"github.com/gogpu/error2d/backend"
)

// init registers the wgpu backend on package import.
func init() {
	backend.Register(backend.BackendWGPU, func() backend.RenderBackend {
		return &WGPUBackend{}
	})
}

// WGPUBackend is a GPU rendering backend on gogpu/wgpu.
// It implements the backend.RenderBackend interface.
//
// Init opens one headless GPU; every target shares it and owns only its
// own texture, buffers and pipelines.
type WGPUBackend struct {
	mu   sync.Mutex
	root *Device
}

var _ backend.RenderBackend = (*WGPUBackend)(nil)

// NewWGPUBackend creates a new wgpu rendering backend.
func NewWGPUBackend() *WGPUBackend {
	return &WGPUBackend{}
}

// Name returns the backend identifier.
func (b *WGPUBackend) Name() string {
	return backend.BackendWGPU
}

// Init opens the GPU. It fails when no Vulkan adapter is available, which
// lets backend.InitDefault fall back to the software backend.
func (b *WGPUBackend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.root != nil {
		return nil
	}
	root, err := Open(Options{Width: 1, Height: 1})
	if err != nil {
		return fmt.Errorf("%w: %w", backend.ErrBackendNotAvailable, err)
	}
	b.root = root
	return nil
}

// Close releases the GPU. Targets created by the backend must be
// destroyed first.
func (b *WGPUBackend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.root != nil {
		b.root.Destroy()
		b.root = nil
	}
}

// NewTarget creates an offscreen target on the shared GPU.
func (b *WGPUBackend) NewTarget(width, height int, pixelRatio float64) (backend.Target, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.root == nil {
		return nil, backend.ErrNotInitialized
	}
	d, err := NewDevice(b.root.device, b.root.queue, Options{
		Width:      width,
		Height:     height,
		PixelRatio: pixelRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu target: %w", err)
	}
	return d, nil
}
