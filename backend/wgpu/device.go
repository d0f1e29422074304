//go:build !nogpu

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/error2d"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// Errors returned by Device.
var (
	// ErrNoAdapter is returned when no GPU adapter is available.
	ErrNoAdapter = errors.New("wgpu: no GPU adapters found")

	// ErrNoHAL is returned when a provider does not expose HAL handles.
	ErrNoHAL = errors.New("wgpu: provider does not expose HAL types")

	// ErrUnknownBuffer is returned for buffer IDs the device did not create.
	ErrUnknownBuffer = errors.New("wgpu: unknown buffer")

	// ErrUnknownProgram is returned for program IDs the device did not create.
	ErrUnknownProgram = errors.New("wgpu: unknown program")

	// ErrBufferOverflow is returned when a write exceeds a buffer.
	ErrBufferOverflow = errors.New("wgpu: buffer overflow")

	// ErrInvalidSize is returned for non-positive buffer or target sizes.
	ErrInvalidSize = errors.New("wgpu: invalid size")

	// ErrDestroyed is returned when using a destroyed device.
	ErrDestroyed = errors.New("wgpu: device destroyed")
)

// Options configures a Device.
type Options struct {
	// Width and Height are the offscreen target size in device pixels.
	Width  int
	Height int

	// PixelRatio is device pixels per logical pixel (default: 1).
	PixelRatio float64
}

func (o Options) validate() (Options, error) {
	if o.Width <= 0 || o.Height <= 0 {
		return o, fmt.Errorf("%w: %dx%d", ErrInvalidSize, o.Width, o.Height)
	}
	if o.PixelRatio <= 0 {
		o.PixelRatio = 1
	}
	return o, nil
}

// gpuBuffer is a vertex buffer and its allocated size.
type gpuBuffer struct {
	label string
	buf   hal.Buffer
	size  uint64
}

// Device draws error bars with the gogpu/wgpu HAL.
//
// Device is not safe for concurrent use.
type Device struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	// externalDevice is true when the device is shared (don't destroy on Destroy).
	externalDevice bool

	ratio  float64
	target offscreenTarget

	nextID   uint64
	buffers  map[error2d.BufferID]*gpuBuffer
	programs map[error2d.ProgramID]*program

	draws     int
	destroyed bool
}

var _ error2d.Device = (*Device)(nil)

// Open creates a Device on a headless Vulkan GPU, preferring discrete and
// integrated adapters.
func Open(opts Options) (*Device, error) {
	opts, err := opts.validate()
	if err != nil {
		return nil, err
	}
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("wgpu: vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("wgpu: open device: %w", err)
	}

	d := newDevice(openDev.Device, openDev.Queue, opts)
	d.instance = instance
	if err := d.target.ensure(d.device, uint32(opts.Width), uint32(opts.Height)); err != nil { //nolint:gosec // validated positive
		d.Destroy()
		return nil, err
	}
	error2d.Logger().Info("wgpu: device opened", "adapter", selected.Info.Name,
		"width", opts.Width, "height", opts.Height)
	return d, nil
}

// NewDevice wraps a HAL device and queue owned by the caller.
// Destroy releases only the resources the Device created.
func NewDevice(device hal.Device, queue hal.Queue, opts Options) (*Device, error) {
	if device == nil || queue == nil {
		return nil, fmt.Errorf("wgpu: nil device or queue")
	}
	opts, err := opts.validate()
	if err != nil {
		return nil, err
	}
	d := newDevice(device, queue, opts)
	d.externalDevice = true
	if err := d.target.ensure(device, uint32(opts.Width), uint32(opts.Height)); err != nil { //nolint:gosec // validated positive
		return nil, err
	}
	return d, nil
}

// FromProvider shares the GPU of a host application. The provider must
// implement HalDevice() any and HalQueue() any returning hal.Device and
// hal.Queue, as gogpu's App does.
func FromProvider(provider gpucontext.DeviceProvider, opts Options) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHAL)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHAL)
	}
	d, err := NewDevice(device, queue, opts)
	if err != nil {
		return nil, err
	}
	error2d.Logger().Debug("wgpu: using shared GPU device")
	return d, nil
}

func newDevice(device hal.Device, queue hal.Queue, opts Options) *Device {
	return &Device{
		device:   device,
		queue:    queue,
		ratio:    opts.PixelRatio,
		buffers:  make(map[error2d.BufferID]*gpuBuffer),
		programs: make(map[error2d.ProgramID]*program),
	}
}

// CreateBuffer allocates a vertex buffer.
func (d *Device) CreateBuffer(label string, size int) (error2d.BufferID, error) {
	if d.destroyed {
		return error2d.InvalidID, ErrDestroyed
	}
	if size <= 0 {
		return error2d.InvalidID, fmt.Errorf("%w: buffer %q of %d bytes", ErrInvalidSize, label, size)
	}
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(size),
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return error2d.InvalidID, fmt.Errorf("wgpu: create buffer %q: %w", label, err)
	}
	d.nextID++
	id := error2d.BufferID(d.nextID)
	d.buffers[id] = &gpuBuffer{label: label, buf: buf, size: uint64(size)}
	return id, nil
}

// WriteBuffer copies data to the start of the buffer.
func (d *Device) WriteBuffer(id error2d.BufferID, data []byte) error {
	b, ok := d.buffers[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownBuffer, id)
	}
	if uint64(len(data)) > b.size {
		return fmt.Errorf("%w: %d bytes into %q of %d", ErrBufferOverflow, len(data), b.label, b.size)
	}
	if len(data) == 0 {
		return nil
	}
	if err := d.queue.WriteBuffer(b.buf, 0, data); err != nil {
		return fmt.Errorf("wgpu: write buffer %q: %w", b.label, err)
	}
	return nil
}

// DestroyBuffer releases a buffer. Unknown IDs are ignored.
func (d *Device) DestroyBuffer(id error2d.BufferID) {
	b, ok := d.buffers[id]
	if !ok {
		return
	}
	d.device.DestroyBuffer(b.buf)
	delete(d.buffers, id)
}

// TargetSize returns the offscreen target size in device pixels.
func (d *Device) TargetSize() (width, height int) {
	return int(d.target.width), int(d.target.height)
}

// PixelRatio returns device pixels per logical pixel.
func (d *Device) PixelRatio() float64 {
	return d.ratio
}

// Resize recreates the offscreen target. Its previous content is lost.
func (d *Device) Resize(width, height int) error {
	if d.destroyed {
		return ErrDestroyed
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	return d.target.ensure(d.device, uint32(width), uint32(height)) //nolint:gosec // validated positive
}

// Draws returns the number of draws submitted.
func (d *Device) Draws() int {
	return d.draws
}

// Destroy releases every resource the device created, and the GPU itself
// when Open created it. Calling Destroy twice is a no-op.
func (d *Device) Destroy() {
	if d.destroyed {
		return
	}
	d.destroyed = true
	for id := range d.programs {
		d.DestroyProgram(id)
	}
	for id := range d.buffers {
		d.DestroyBuffer(id)
	}
	d.target.destroy(d.device)
	if !d.externalDevice {
		if d.device != nil {
			d.device.Destroy()
		}
		if d.instance != nil {
			d.instance.Destroy()
		}
	}
	d.device = nil
	d.queue = nil
	d.instance = nil
}
