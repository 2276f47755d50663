//go:build !nogpu

package native

import (
	"errors"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/computegrid/backend"
	"github.com/gogpu/computegrid/gpucore"
)

func openNoop(t *testing.T) *HALAdapter {
	t.Helper()
	a, err := OpenNoop()
	if err != nil {
		t.Fatalf("OpenNoop() error = %v", err)
	}
	t.Cleanup(a.Close)
	return a
}

func TestNewHALAdapterNil(t *testing.T) {
	if _, err := NewHALAdapter(nil, nil, nil); !errors.Is(err, ErrNilDevice) {
		t.Errorf("NewHALAdapter(nil) error = %v, want ErrNilDevice", err)
	}
}

func TestCapabilities(t *testing.T) {
	a := openNoop(t)
	lim := gputypes.DefaultLimits()

	if !a.SupportsCompute() {
		t.Error("SupportsCompute() = false")
	}
	if got := a.MaxWorkgroupSize(); got[0] != lim.MaxComputeWorkgroupSizeX {
		t.Errorf("MaxWorkgroupSize() = %v", got)
	}
	if got := a.MaxComputeWorkgroupsPerDimension(); got != lim.MaxComputeWorkgroupsPerDimension {
		t.Errorf("MaxComputeWorkgroupsPerDimension() = %d, want %d", got, lim.MaxComputeWorkgroupsPerDimension)
	}
}

func TestBufferLifecycle(t *testing.T) {
	a := openNoop(t)

	if _, err := a.CreateBuffer(0, gpucore.BufferUsageUniform); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("CreateBuffer(0) error = %v, want ErrInvalidSize", err)
	}

	id, err := a.CreateBuffer(gpucore.SurfaceParamsSize, gpucore.BufferUsageUniform|gpucore.BufferUsageCopyDst)
	if err != nil {
		t.Fatalf("CreateBuffer() error = %v", err)
	}
	a.WriteBuffer(id, 0, gpucore.DefaultSurfaceParams().Bytes())
	a.WriteBuffer(gpucore.BufferID(9999), 0, []byte{1})

	if a.Live() != 1 {
		t.Errorf("Live() = %d, want 1", a.Live())
	}
	a.DestroyBuffer(id)
	a.DestroyBuffer(id)
	if a.Live() != 0 {
		t.Errorf("Live() after destroy = %d, want 0", a.Live())
	}
}

func TestSurfaceTexture(t *testing.T) {
	a := openNoop(t)
	surface := gpucore.SurfaceID(7)

	if _, ok := a.ResolveView(surface); ok {
		t.Fatal("unknown surface resolved")
	}
	if _, err := a.CreateSurfaceTexture(surface, 0, 10); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("CreateSurfaceTexture(0x10) error = %v", err)
	}

	view, err := a.CreateSurfaceTexture(surface, 1920, 1080)
	if err != nil {
		t.Fatalf("CreateSurfaceTexture() error = %v", err)
	}
	got, ok := a.ResolveView(surface)
	if !ok || got != view {
		t.Errorf("ResolveView() = %d, %v; want %d, true", got, ok, view)
	}
	if w, h, ok := a.SurfaceSize(surface); !ok || w != 1920 || h != 1080 {
		t.Errorf("SurfaceSize() = %d, %d, %v", w, h, ok)
	}

	// Re-creating replaces the texture and its view.
	again, err := a.CreateSurfaceTexture(surface, 64, 64)
	if err != nil {
		t.Fatal(err)
	}
	if again == view {
		t.Error("re-created surface kept the old view")
	}
	if a.Live() != 2 {
		t.Errorf("Live() = %d, want texture+view", a.Live())
	}

	a.DestroySurfaceTexture(surface)
	if _, ok := a.ResolveView(surface); ok {
		t.Error("destroyed surface still resolves")
	}
	if a.Live() != 0 {
		t.Errorf("Live() = %d, want 0", a.Live())
	}
}

// TestComputeFrame drives the full resource path the orchestrator uses:
// layout, surface view, uniform buffer, bind group, pipeline, pass.
func TestComputeFrame(t *testing.T) {
	a := openNoop(t)

	layout, err := a.CreateBindGroupLayout(gpucore.SurfaceBindGroupLayout())
	if err != nil {
		t.Fatalf("CreateBindGroupLayout() error = %v", err)
	}
	pipeLayout, err := a.CreatePipelineLayout([]gpucore.BindGroupLayoutID{layout})
	if err != nil {
		t.Fatalf("CreatePipelineLayout() error = %v", err)
	}
	if _, err := a.CreatePipelineLayout([]gpucore.BindGroupLayoutID{12345}); !errors.Is(err, ErrNotFound) {
		t.Errorf("CreatePipelineLayout(unknown) error = %v, want ErrNotFound", err)
	}

	if _, err := a.CreateShaderModule(nil, "empty"); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("CreateShaderModule(nil) error = %v", err)
	}
	module, err := a.CreateShaderModule([]uint32{0x07230203, 0x00010000, 0, 1, 0}, "test")
	if err != nil {
		t.Fatalf("CreateShaderModule() error = %v", err)
	}
	pipeline, err := a.CreateComputePipeline(&gpucore.ComputePipelineDesc{
		Label:        "test/update",
		Layout:       pipeLayout,
		ShaderModule: module,
		EntryPoint:   "update",
	})
	if err != nil {
		t.Fatalf("CreateComputePipeline() error = %v", err)
	}
	if _, err := a.CreateComputePipeline(&gpucore.ComputePipelineDesc{Layout: pipeLayout, ShaderModule: 999}); !errors.Is(err, ErrNotFound) {
		t.Errorf("CreateComputePipeline(unknown module) error = %v", err)
	}

	view, err := a.CreateSurfaceTexture(1, 64, 64)
	if err != nil {
		t.Fatal(err)
	}
	uniform, err := a.CreateBuffer(gpucore.SurfaceParamsSize, gpucore.BufferUsageUniform|gpucore.BufferUsageCopyDst)
	if err != nil {
		t.Fatal(err)
	}
	group, err := a.CreateBindGroup(layout, []gpucore.BindGroupEntry{
		{Binding: gpucore.SurfaceImageBinding, TextureView: view},
		{Binding: gpucore.SurfaceParamsBinding, Buffer: uniform, Size: gpucore.SurfaceParamsSize},
	})
	if err != nil {
		t.Fatalf("CreateBindGroup() error = %v", err)
	}
	if _, err := a.CreateBindGroup(layout, []gpucore.BindGroupEntry{{Binding: 0}}); err == nil {
		t.Error("CreateBindGroup() with an empty entry succeeded")
	}
	if _, err := a.CreateBindGroup(layout, []gpucore.BindGroupEntry{{Binding: 0, TextureView: 4242}}); !errors.Is(err, ErrNotFound) {
		t.Errorf("CreateBindGroup(unknown view) error = %v", err)
	}

	pass := a.BeginComputePass()
	pass.SetPipeline(pipeline)
	pass.SetBindGroup(0, group)
	pass.Dispatch(8, 8, 1)
	pass.End()
	pass.End()
	pass.Dispatch(1, 1, 1)

	a.Submit()
	if a.InFlight() != 1 {
		t.Errorf("InFlight() after Submit = %d, want 1", a.InFlight())
	}
	a.Submit()
	for range maxInFlight + 2 {
		a.BeginComputePass().End()
		a.Submit()
	}
	if a.InFlight() > maxInFlight {
		t.Errorf("InFlight() = %d, want at most %d", a.InFlight(), maxInFlight)
	}
	a.WaitIdle()
	if a.InFlight() != 0 {
		t.Errorf("InFlight() after WaitIdle = %d, want 0", a.InFlight())
	}

	a.Close()
	if a.Live() != 0 {
		t.Errorf("Live() after Close = %d, want 0", a.Live())
	}
	a.Close()
}

type mockDevice struct{}

func (mockDevice) Poll(bool) {}
func (mockDevice) Destroy()  {}

type halProviderMock struct {
	device hal.Device
	queue  hal.Queue
}

func (p *halProviderMock) Device() gpucontext.Device             { return mockDevice{} }
func (p *halProviderMock) Queue() gpucontext.Queue               { return nil }
func (p *halProviderMock) Adapter() gpucontext.Adapter           { return nil }
func (p *halProviderMock) SurfaceFormat() gputypes.TextureFormat { return gputypes.TextureFormatBGRA8Unorm }
func (p *halProviderMock) HalDevice() any                        { return p.device }
func (p *halProviderMock) HalQueue() any                         { return p.queue }

type plainProvider struct{ halProviderMock }

// plainProvider hides the HAL accessors.
func (p *plainProvider) HalDevice() {}

func TestNewFromProvider(t *testing.T) {
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	defer func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}()

	a, err := NewFromProvider(&halProviderMock{device: openDev.Device, queue: openDev.Queue})
	if err != nil {
		t.Fatalf("NewFromProvider() error = %v", err)
	}
	if _, err := a.CreateBuffer(16, gpucore.BufferUsageStorage); err != nil {
		t.Errorf("CreateBuffer on shared device: %v", err)
	}
	a.Close()

	if _, err := NewFromProvider(&halProviderMock{}); !errors.Is(err, ErrNoHAL) {
		t.Errorf("NewFromProvider(nil HAL) error = %v, want ErrNoHAL", err)
	}
	if _, err := NewFromProvider(&plainProvider{}); !errors.Is(err, ErrNoHAL) {
		t.Errorf("NewFromProvider(no HAL) error = %v, want ErrNoHAL", err)
	}
	if _, err := NewFromProvider(nil); !errors.Is(err, ErrNilDevice) {
		t.Errorf("NewFromProvider(nil) error = %v, want ErrNilDevice", err)
	}
}

func TestConvertBindGroupLayoutEntry(t *testing.T) {
	desc := gpucore.SurfaceBindGroupLayout()

	img := convertBindGroupLayoutEntry(desc.Entries[0])
	if img.Storage == nil || img.Buffer != nil {
		t.Fatalf("image entry = %+v, want storage texture", img)
	}
	if img.Storage.Access != gputypes.StorageTextureAccessReadWrite ||
		img.Storage.Format != gputypes.TextureFormatRGBA8Unorm ||
		img.Storage.ViewDimension != gputypes.TextureViewDimension2D {
		t.Errorf("storage layout = %+v", *img.Storage)
	}

	params := convertBindGroupLayoutEntry(desc.Entries[1])
	if params.Buffer == nil || params.Buffer.Type != gputypes.BufferBindingTypeUniform ||
		params.Buffer.MinBindingSize != gpucore.SurfaceParamsSize || params.Buffer.HasDynamicOffset {
		t.Errorf("params entry = %+v", params)
	}
	if params.Visibility != gputypes.ShaderStageCompute {
		t.Errorf("visibility = %v, want compute", params.Visibility)
	}
}

func TestConvertUsage(t *testing.T) {
	got := convertTextureUsage(gpucore.SurfaceTextureUsage)
	want := gputypes.TextureUsageCopyDst | gputypes.TextureUsageStorageBinding | gputypes.TextureUsageTextureBinding
	if got != want {
		t.Errorf("convertTextureUsage(SurfaceTextureUsage) = %v, want %v", got, want)
	}
	if convertBufferUsage(gpucore.BufferUsageUniform|gpucore.BufferUsageCopyDst) != gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst {
		t.Error("convertBufferUsage(uniform|copy-dst) mismatch")
	}
}

func TestRegisteredBackends(t *testing.T) {
	for _, name := range []string{backend.BackendNoop, backend.BackendVulkan} {
		if !backend.IsRegistered(name) {
			t.Errorf("%s not registered", name)
		}
	}
	dev, err := backend.Open(backend.BackendNoop)
	if err != nil {
		t.Fatalf("Open(noop) error = %v", err)
	}
	defer dev.Close()
	if _, ok := dev.(*HALAdapter); !ok {
		t.Errorf("Open(noop) = %T, want *HALAdapter", dev)
	}
	if !dev.SupportsCompute() {
		t.Error("noop device does not support compute")
	}
}
