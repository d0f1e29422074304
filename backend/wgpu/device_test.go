//go:build !nogpu

package wgpu

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"
	"unsafe"

	"github.com/gogpu/error2d"
	"github.com/gogpu/error2d/backend"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// createNoopDevice creates a noop HAL device for testing.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup
}

func newTestDevice(t *testing.T, w, h int) *Device {
	t.Helper()
	device, queue, cleanup := createNoopDevice(t)
	t.Cleanup(cleanup)
	d, err := NewDevice(device, queue, Options{Width: w, Height: h})
	if err != nil {
		t.Fatalf("NewDevice failed: %v", err)
	}
	t.Cleanup(d.Destroy)
	return d
}

func TestNewDeviceValidation(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	if _, err := NewDevice(nil, queue, Options{Width: 1, Height: 1}); err == nil {
		t.Error("expected error for nil device")
	}
	if _, err := NewDevice(device, queue, Options{Width: 0, Height: 10}); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("zero width: err = %v, want ErrInvalidSize", err)
	}

	d, err := NewDevice(device, queue, Options{Width: 32, Height: 16})
	if err != nil {
		t.Fatalf("NewDevice failed: %v", err)
	}
	defer d.Destroy()
	if w, h := d.TargetSize(); w != 32 || h != 16 {
		t.Errorf("TargetSize() = %dx%d, want 32x16", w, h)
	}
	if d.PixelRatio() != 1 {
		t.Errorf("PixelRatio() = %v, want default 1", d.PixelRatio())
	}
	if d.target.tex == nil || d.target.view == nil {
		t.Error("expected offscreen target texture and view")
	}
}

func TestDeviceBuffers(t *testing.T) {
	d := newTestDevice(t, 8, 8)

	if _, err := d.CreateBuffer("empty", 0); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("CreateBuffer(0) err = %v, want ErrInvalidSize", err)
	}
	id, err := d.CreateBuffer("positions", 16)
	if err != nil {
		t.Fatalf("CreateBuffer failed: %v", err)
	}
	if id == error2d.InvalidID {
		t.Fatal("CreateBuffer returned InvalidID")
	}
	if err := d.WriteBuffer(id, make([]byte, 16)); err != nil {
		t.Errorf("WriteBuffer failed: %v", err)
	}
	if err := d.WriteBuffer(id, make([]byte, 17)); !errors.Is(err, ErrBufferOverflow) {
		t.Errorf("oversized write err = %v, want ErrBufferOverflow", err)
	}
	if err := d.WriteBuffer(id+100, []byte{0}); !errors.Is(err, ErrUnknownBuffer) {
		t.Errorf("unknown buffer err = %v, want ErrUnknownBuffer", err)
	}

	d.DestroyBuffer(id)
	d.DestroyBuffer(id) // unknown IDs are ignored
	if len(d.buffers) != 0 {
		t.Errorf("buffers = %d after destroy, want 0", len(d.buffers))
	}
}

func TestCreateProgram(t *testing.T) {
	d := newTestDevice(t, 8, 8)

	desc := &error2d.ProgramDesc{
		Label:                   "error2d",
		WGSL:                    error2d.ShaderSource(),
		VertexEntry:             error2d.VertexEntry,
		UniformColorVertexEntry: error2d.UniformColorVertexEntry,
		FragmentEntry:           error2d.FragmentEntry,
	}
	id, err := d.CreateProgram(desc)
	if err != nil {
		t.Fatalf("CreateProgram failed: %v", err)
	}
	p := d.programs[id]
	if p == nil || p.shader == nil || p.perPoint == nil || p.uniformColor == nil {
		t.Fatalf("program not fully built: %+v", p)
	}

	d.DestroyProgram(id)
	if p.shader != nil || p.perPoint != nil || p.uniformColor != nil {
		t.Error("DestroyProgram left resources behind")
	}
	if _, ok := d.programs[id]; ok {
		t.Error("program still registered after DestroyProgram")
	}
}

func TestCreateProgramIncomplete(t *testing.T) {
	d := newTestDevice(t, 8, 8)
	if _, err := d.CreateProgram(&error2d.ProgramDesc{WGSL: error2d.ShaderSource()}); err == nil {
		t.Error("expected error for descriptor without entry points")
	}
	if _, err := d.CreateProgram(nil); err == nil {
		t.Error("expected error for nil descriptor")
	}
}

func TestCompileWGSL(t *testing.T) {
	words, err := compileWGSL(error2d.ShaderSource())
	if err != nil {
		t.Fatalf("compileWGSL failed: %v", err)
	}
	if len(words) == 0 {
		t.Fatal("empty SPIR-V")
	}
	const spirvMagic = 0x07230203
	if words[0] != spirvMagic {
		t.Errorf("SPIR-V magic = %#x, want %#x", words[0], spirvMagic)
	}
}

func TestVertexLayout(t *testing.T) {
	tests := []struct {
		name     string
		perPoint bool
		slots    int
	}{
		{"per-point colour", true, 4},
		{"uniform colour", false, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layouts := vertexLayout(tt.perPoint)
			if len(layouts) != tt.slots {
				t.Fatalf("slots = %d, want %d", len(layouts), tt.slots)
			}
			if layouts[0].StepMode != gputypes.VertexStepModeVertex {
				t.Error("mesh slot must step per vertex")
			}
			for i := 1; i < len(layouts); i++ {
				if layouts[i].StepMode != gputypes.VertexStepModeInstance {
					t.Errorf("slot %d must step per instance", i)
				}
			}
			strides := []uint64{error2d.MeshVertexStride, error2d.PositionStride, error2d.ErrorStride, error2d.ColorStride}
			for i, l := range layouts {
				if uint64(l.ArrayStride) != strides[i] {
					t.Errorf("slot %d stride = %d, want %d", i, l.ArrayStride, strides[i])
				}
			}
		})
	}
}

func TestBlendState(t *testing.T) {
	b := blendState()
	if b.Color.SrcFactor != gputypes.BlendFactorSrcAlpha || b.Color.DstFactor != gputypes.BlendFactorOneMinusSrcAlpha {
		t.Errorf("colour blend = %+v", b.Color)
	}
	if b.Alpha.SrcFactor != gputypes.BlendFactorOne || b.Alpha.DstFactor != gputypes.BlendFactorOneMinusSrcAlpha {
		t.Errorf("alpha blend = %+v", b.Alpha)
	}
}

func TestRendererDraw(t *testing.T) {
	d := newTestDevice(t, 64, 48)

	tests := []struct {
		name string
		cfg  *error2d.Config
	}{
		{
			name: "uniform colour",
			cfg: &error2d.Config{
				Positions: error2d.Flat{0, 0, 1, 1},
				Errors:    error2d.Flat{0.1, 0.1, 0.1, 0.1, 0.2, 0.2, 0.2, 0.2},
				Color:     error2d.Colors("steelblue"),
			},
		},
		{
			name: "per-point colour with scissor",
			cfg: &error2d.Config{
				Positions: error2d.Flat{0, 0, 1, 1},
				Errors:    error2d.Flat{0.1, 0.1, 0.1, 0.1},
				Colors:    error2d.Colors("red", "blue"),
				Scissor:   error2d.RectArray{4, 4, 20, 20},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := d.Draws()
			r, err := error2d.New(d, tt.cfg)
			if err != nil {
				t.Fatalf("error2d.New failed: %v", err)
			}
			defer r.Destroy()
			if err := r.Draw(nil); err != nil {
				t.Fatalf("Draw failed: %v", err)
			}
			if d.Draws() != before+1 {
				t.Errorf("Draws() = %d, want %d", d.Draws(), before+1)
			}
			if !d.target.cleared {
				t.Error("target not marked cleared after draw")
			}
		})
	}
}

func TestDrawUnknownResources(t *testing.T) {
	d := newTestDevice(t, 8, 8)
	cmd := &error2d.DrawCommand{Program: 42, VertexCount: error2d.MeshVertexCount, InstanceCount: 1}
	if err := d.Draw(cmd); !errors.Is(err, ErrUnknownProgram) {
		t.Errorf("unknown program err = %v, want ErrUnknownProgram", err)
	}
}

func TestImage(t *testing.T) {
	d := newTestDevice(t, 20, 10)

	img, err := d.Image()
	if err != nil {
		t.Fatalf("Image failed: %v", err)
	}
	if img.Rect.Dx() != 20 || img.Rect.Dy() != 10 {
		t.Errorf("Image size = %v, want 20x10", img.Rect)
	}

	r, err := error2d.New(d, &error2d.Config{Positions: error2d.Flat{0.5, 0.5}})
	if err != nil {
		t.Fatalf("error2d.New failed: %v", err)
	}
	defer r.Destroy()
	if err := r.Draw(nil); err != nil {
		t.Fatalf("Draw failed: %v", err)
	}
	img, err = d.Image()
	if err != nil {
		t.Fatalf("Image after draw failed: %v", err)
	}
	if img.Rect.Dx() != 20 || img.Rect.Dy() != 10 {
		t.Errorf("Image size = %v, want 20x10", img.Rect)
	}
}

func TestUnpackBGRA(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	stride := 256
	src := make([]byte, stride*2)
	copy(src[0:], []byte{1, 2, 3, 4, 5, 6, 7, 8})
	copy(src[stride:], []byte{9, 10, 11, 12, 13, 14, 15, 16})

	unpackBGRA(img, src, stride)

	want := []byte{3, 2, 1, 4, 7, 6, 5, 8, 11, 10, 9, 12, 15, 14, 13, 16}
	for i, v := range want {
		if img.Pix[i] != v {
			t.Fatalf("Pix = %v, want %v", img.Pix, want)
		}
	}
}

func TestScissorRect(t *testing.T) {
	d := newTestDevice(t, 100, 50)
	tests := []struct {
		name    string
		r       *error2d.Rect
		want    [4]uint32
		visible bool
	}{
		{"none", nil, [4]uint32{0, 0, 100, 50}, true},
		{"inside", &error2d.Rect{X: 10, Y: 5, Width: 20, Height: 10}, [4]uint32{10, 5, 20, 10}, true},
		{"fractional", &error2d.Rect{X: 10.5, Y: 5.5, Width: 2, Height: 2}, [4]uint32{10, 5, 3, 3}, true},
		{"clamped", &error2d.Rect{X: -10, Y: 40, Width: 50, Height: 50}, [4]uint32{0, 40, 40, 10}, true},
		{"outside", &error2d.Rect{X: 200, Y: 0, Width: 10, Height: 10}, [4]uint32{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, visible := d.scissorRect(tt.r)
			if got != tt.want || visible != tt.visible {
				t.Errorf("scissorRect() = %v, %v; want %v, %v", got, visible, tt.want, tt.visible)
			}
		})
	}
}

func TestResize(t *testing.T) {
	d := newTestDevice(t, 8, 8)
	if err := d.Resize(0, 4); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("Resize(0, 4) err = %v, want ErrInvalidSize", err)
	}
	if err := d.Resize(30, 40); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	if w, h := d.TargetSize(); w != 30 || h != 40 {
		t.Errorf("TargetSize() = %dx%d, want 30x40", w, h)
	}
}

func TestDestroy(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	d, err := NewDevice(device, queue, Options{Width: 8, Height: 8})
	if err != nil {
		t.Fatalf("NewDevice failed: %v", err)
	}
	if _, err := d.CreateBuffer("mesh", 24); err != nil {
		t.Fatalf("CreateBuffer failed: %v", err)
	}
	d.Destroy()
	d.Destroy() // double destroy must not panic

	if len(d.buffers) != 0 {
		t.Errorf("buffers = %d after Destroy", len(d.buffers))
	}
	if _, err := d.CreateBuffer("late", 8); !errors.Is(err, ErrDestroyed) {
		t.Errorf("CreateBuffer after Destroy err = %v, want ErrDestroyed", err)
	}
	if _, err := d.Image(); !errors.Is(err, ErrDestroyed) {
		t.Errorf("Image after Destroy err = %v, want ErrDestroyed", err)
	}
}

// sharedProvider is a gpucontext.DeviceProvider that exposes HAL handles.
type sharedProvider struct {
	plainProvider
	device hal.Device
	queue  hal.Queue
}

func (p *sharedProvider) HalDevice() any { return p.device }
func (p *sharedProvider) HalQueue() any  { return p.queue }

// plainProvider implements gpucontext.DeviceProvider without HAL access.
type plainProvider struct{}

func (plainProvider) Device() gpucontext.Device             { return nil }
func (plainProvider) Queue() gpucontext.Queue               { return nil }
func (plainProvider) Adapter() gpucontext.Adapter           { return nil }
func (plainProvider) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatBGRA8Unorm }
func (plainProvider) AdapterInfo() gpucontext.AdapterInfo   { return gpucontext.AdapterInfo{} }

func TestFromProvider(t *testing.T) {
	if _, err := FromProvider(plainProvider{}, Options{Width: 4, Height: 4}); !errors.Is(err, ErrNoHAL) {
		t.Errorf("plain provider err = %v, want ErrNoHAL", err)
	}

	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	d, err := FromProvider(&sharedProvider{device: device, queue: queue}, Options{Width: 4, Height: 4, PixelRatio: 2})
	if err != nil {
		t.Fatalf("FromProvider failed: %v", err)
	}
	defer d.Destroy()
	if !d.externalDevice {
		t.Error("shared device must be marked external")
	}
	if d.PixelRatio() != 2 {
		t.Errorf("PixelRatio() = %v, want 2", d.PixelRatio())
	}
}

func TestBackendNewTargetBeforeInit(t *testing.T) {
	b := NewWGPUBackend()
	if b.Name() != backend.BackendWGPU {
		t.Errorf("Name() = %q, want %q", b.Name(), backend.BackendWGPU)
	}
	if _, err := b.NewTarget(8, 8, 1); !errors.Is(err, backend.ErrNotInitialized) {
		t.Errorf("NewTarget before Init err = %v, want ErrNotInitialized", err)
	}
	b.Close() // closing an uninitialised backend is a no-op
}

func TestBackendRegistered(t *testing.T) {
	if !backend.IsRegistered(backend.BackendWGPU) {
		t.Error("wgpu backend not registered")
	}
}

func TestClearBeforeDraw(t *testing.T) {
	d := newTestDevice(t, 4, 4)
	d.Clear(color.RGBA{R: 255, A: 255})
	if d.target.loadOp() != gputypes.LoadOpClear {
		t.Error("first pass after Clear must clear")
	}
	img, err := d.Image()
	if err != nil {
		t.Fatalf("Image failed: %v", err)
	}
	if got := img.RGBAAt(2, 2); got != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("pixel = %v, want clear colour", got)
	}
	if v := d.target.clearValue(); v.R != 1 || v.G != 0 || v.A != 1 {
		t.Errorf("clearValue() = %+v", v)
	}
}

// failingQueue rejects every buffer write.
type failingQueue struct {
	hal.Queue
	err error
}

func (q *failingQueue) WriteBuffer(hal.Buffer, uint64, []byte) error { return q.err }

// laggingQueue never reports a submission as completed.
type laggingQueue struct {
	hal.Queue
}

func (q *laggingQueue) PollCompleted() uint64 { return 0 }

// stagingDevice fills mapped buffers with one BGRA pixel and counts waits
// and mappings.
type stagingDevice struct {
	hal.Device
	bgra   [4]byte
	maps   int
	unmaps int
	waits  int
}

func (d *stagingDevice) MapBuffer(buf hal.Buffer, offset, size uint64) (hal.BufferMapping, error) {
	mapping, err := d.Device.MapBuffer(buf, offset, size)
	if err != nil {
		return mapping, err
	}
	px := unsafe.Slice((*byte)(mapping.Ptr), size)
	for i := 0; i+3 < len(px); i += 4 {
		copy(px[i:i+4], d.bgra[:])
	}
	d.maps++
	return mapping, nil
}

func (d *stagingDevice) UnmapBuffer(buf hal.Buffer) error {
	d.unmaps++
	return d.Device.UnmapBuffer(buf)
}

func (d *stagingDevice) WaitIdle() error {
	d.waits++
	return d.Device.WaitIdle()
}

func drawPoint(t *testing.T, d *Device, cfg *error2d.Config) {
	t.Helper()
	r, err := error2d.New(d, cfg)
	if err != nil {
		t.Fatalf("error2d.New failed: %v", err)
	}
	t.Cleanup(r.Destroy)
	if err := r.Draw(nil); err != nil {
		t.Fatalf("Draw failed: %v", err)
	}
}

func TestWriteBufferError(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()
	errWrite := errors.New("write rejected")
	d, err := NewDevice(device, &failingQueue{Queue: queue, err: errWrite}, Options{Width: 8, Height: 8})
	if err != nil {
		t.Fatalf("NewDevice failed: %v", err)
	}
	defer d.Destroy()

	id, err := d.CreateBuffer("positions", 8)
	if err != nil {
		t.Fatalf("CreateBuffer failed: %v", err)
	}
	if err := d.WriteBuffer(id, make([]byte, 8)); !errors.Is(err, errWrite) {
		t.Errorf("WriteBuffer err = %v, want %v", err, errWrite)
	}
	if _, err := error2d.New(d, &error2d.Config{Positions: error2d.Flat{0, 0}}); !errors.Is(err, errWrite) {
		t.Errorf("error2d.New err = %v, want %v", err, errWrite)
	}
}

func TestSubmitWaitsForGPU(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	tests := []struct {
		name  string
		queue hal.Queue
		waits int
	}{
		{"completed", queue, 0},
		{"pending", &laggingQueue{Queue: queue}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := &stagingDevice{Device: device}
			d, err := NewDevice(dev, tt.queue, Options{Width: 8, Height: 8})
			if err != nil {
				t.Fatalf("NewDevice failed: %v", err)
			}
			defer d.Destroy()
			drawPoint(t, d, &error2d.Config{Positions: error2d.Flat{0, 0}})
			if dev.waits != tt.waits {
				t.Errorf("WaitIdle calls = %d, want %d", dev.waits, tt.waits)
			}
		})
	}
}

func TestImageReadsMappedStaging(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()
	dev := &stagingDevice{Device: device, bgra: [4]byte{30, 20, 10, 255}}
	d, err := NewDevice(dev, queue, Options{Width: 5, Height: 3})
	if err != nil {
		t.Fatalf("NewDevice failed: %v", err)
	}
	defer d.Destroy()

	drawPoint(t, d, &error2d.Config{Positions: error2d.Flat{0, 0}})
	img, err := d.Image()
	if err != nil {
		t.Fatalf("Image failed: %v", err)
	}
	want := color.RGBA{R: 10, G: 20, B: 30, A: 255}
	for _, p := range []image.Point{{0, 0}, {4, 0}, {2, 1}, {4, 2}} {
		if got := img.RGBAAt(p.X, p.Y); got != want {
			t.Errorf("pixel %v = %v, want %v", p, got, want)
		}
	}
	if dev.maps != 1 || dev.unmaps != 1 {
		t.Errorf("MapBuffer/UnmapBuffer calls = %d/%d, want 1/1", dev.maps, dev.unmaps)
	}
}

// toPixel maps a clip-space point through a top-left origin viewport.
func toPixel(p [2]float32, vp error2d.Rect) [2]float64 {
	return [2]float64{
		vp.X + (float64(p[0])+1)/2*vp.Width,
		vp.Y + (1-float64(p[1]))/2*vp.Height,
	}
}

func TestFitViewport(t *testing.T) {
	d := newTestDevice(t, 100, 50)
	u := error2d.Uniforms{
		Range:      [4]float32{-2, -1, 6, 3},
		PixelScale: [2]float32{1.0 / 160, 1.0 / 80},
		LineWidth:  1,
		CapSize:    3,
	}

	tests := []struct {
		name    string
		vp      error2d.Rect
		want    error2d.Rect
		visible bool
	}{
		{"inside", error2d.Rect{X: 10, Y: 5, Width: 50, Height: 40}, error2d.Rect{X: 10, Y: 5, Width: 50, Height: 40}, true},
		{"negative origin", error2d.Rect{X: -30, Y: -10, Width: 160, Height: 80}, error2d.Rect{X: 0, Y: 0, Width: 100, Height: 50}, true},
		{"past far edge", error2d.Rect{X: 60, Y: 20, Width: 80, Height: 60}, error2d.Rect{X: 60, Y: 20, Width: 40, Height: 30}, true},
		{"outside", error2d.Rect{X: 120, Y: 0, Width: 20, Height: 20}, error2d.Rect{X: 120, Y: 0, Width: 20, Height: 20}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fit, fu, visible := d.fitViewport(tt.vp, u)
			if visible != tt.visible || fit != tt.want {
				t.Fatalf("fitViewport() = %+v, %v; want %+v, %v", fit, visible, tt.want, tt.visible)
			}
			if !visible {
				return
			}
			for i, v := range error2d.Template() {
				pos := [2]float32{1, 0.5}
				errs := [4]float32{0.5, 1, 0.25, 0.75}
				want := toPixel(error2d.ProjectVertex(v, pos, errs, &u), tt.vp)
				got := toPixel(error2d.ProjectVertex(v, pos, errs, &fu), fit)
				if math.Abs(got[0]-want[0]) > 1e-2 || math.Abs(got[1]-want[1]) > 1e-2 {
					t.Fatalf("vertex %d at %v, want %v", i, got, want)
				}
			}
		})
	}
}

func TestDrawViewportOutsideTarget(t *testing.T) {
	d := newTestDevice(t, 32, 32)
	before := d.Draws()
	drawPoint(t, d, &error2d.Config{
		Positions: error2d.Flat{0, 0, 1, 1},
		Viewport:  error2d.RectArray{-16, -16, 64, 64},
	})
	if d.Draws() != before+1 {
		t.Errorf("Draws() = %d, want %d", d.Draws(), before+1)
	}
}
