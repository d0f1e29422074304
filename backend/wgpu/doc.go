// Package wgpu implements error2d.Device on the gogpu/wgpu HAL.
//
// The device compiles the error-bar WGSL program to SPIR-V with naga,
// builds two instanced render pipelines (per-point colour and uniform
// colour), and draws into a single-sample BGRA8Unorm offscreen texture
// that can be read back with Image.
//
// A Device either owns its GPU (Open creates a headless Vulkan device) or
// shares one supplied by the host application:
//
//	dev, err := wgpu.Open(wgpu.Options{Width: 800, Height: 600})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer dev.Destroy()
//
//	r, err := error2d.New(dev, cfg)
//	...
//	img, err := dev.Image()
//
// Shared devices come from NewDevice (raw HAL handles) or FromProvider
// (a gpucontext.DeviceProvider that also exposes HalDevice/HalQueue).
// Destroy never releases a shared device.
//
// Every Draw is submitted and waited on before returning, so the device
// is synchronous like the software backend.
//
// Importing this package registers the "wgpu" backend with
// github.com/gogpu/error2d/backend. Build with the nogpu tag to leave it
// out.
package wgpu
