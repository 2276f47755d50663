package backend

import (
	"errors"
	"slices"
	"testing"

	"github.com/gogpu/computegrid/gpucore"
	"github.com/gogpu/computegrid/internal/gputest"
)

type fakeDevice struct {
	*gputest.Adapter
	*gputest.Surfaces
	name   string
	closed bool
}

func (d *fakeDevice) CreateSurfaceTexture(id gpucore.SurfaceID, _, _ uint32) (gpucore.TextureViewID, error) {
	d.SetView(id, gpucore.TextureViewID(id))
	return gpucore.TextureViewID(id), nil
}

func (d *fakeDevice) DestroySurfaceTexture(id gpucore.SurfaceID) { d.SetView(id, gpucore.InvalidID) }

func (d *fakeDevice) Close() { d.closed = true }

func fakeFactory(name string, err error) Factory {
	return func() (Device, error) {
		if err != nil {
			return nil, err
		}
		return &fakeDevice{Adapter: gputest.NewAdapter(), Surfaces: gputest.NewSurfaces(), name: name}, nil
	}
}

// isolate swaps the registry for the duration of a test.
func isolate(t *testing.T) {
	t.Helper()
	registryMu.Lock()
	saved := backends
	backends = make(map[string]Factory)
	registryMu.Unlock()
	t.Cleanup(func() {
		registryMu.Lock()
		backends = saved
		registryMu.Unlock()
	})
}

func TestRegistryRegisterAndOpen(t *testing.T) {
	isolate(t)
	Register("b", fakeFactory("b", nil))
	Register("a", fakeFactory("a", nil))

	if !IsRegistered("a") || IsRegistered("c") {
		t.Error("IsRegistered() wrong")
	}
	if got := Available(); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("Available() = %v", got)
	}

	dev, err := Open("a")
	if err != nil {
		t.Fatalf("Open(a) error = %v", err)
	}
	if dev.(*fakeDevice).name != "a" || !dev.SupportsCompute() {
		t.Errorf("Open(a) = %+v", dev)
	}
	view, _ := dev.CreateSurfaceTexture(3, 8, 8)
	if got, ok := dev.ResolveView(3); !ok || got != view {
		t.Errorf("ResolveView() = %v, %v", got, ok)
	}
	dev.Close()

	if _, err := Open("c"); !errors.Is(err, ErrBackendNotAvailable) {
		t.Errorf("Open(c) error = %v, want ErrBackendNotAvailable", err)
	}

	Unregister("a")
	if IsRegistered("a") {
		t.Error("Unregister(a) kept the backend")
	}
}

func TestOpenFactoryError(t *testing.T) {
	isolate(t)
	boom := errors.New("no driver")
	Register(BackendVulkan, fakeFactory(BackendVulkan, boom))
	if _, err := Open(BackendVulkan); !errors.Is(err, boom) {
		t.Errorf("Open() error = %v, want the factory error", err)
	}
}

func TestDefaultPriority(t *testing.T) {
	isolate(t)
	if _, _, err := Default(); !errors.Is(err, ErrBackendNotAvailable) {
		t.Errorf("Default() with empty registry error = %v", err)
	}

	Register("custom", fakeFactory("custom", nil))
	Register(BackendNoop, fakeFactory(BackendNoop, nil))
	Register(BackendVulkan, fakeFactory(BackendVulkan, errors.New("no vulkan loader")))

	dev, name, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}
	if name != BackendNoop || dev.(*fakeDevice).name != BackendNoop {
		t.Errorf("Default() = %q, want noop after vulkan failed", name)
	}

	Unregister(BackendNoop)
	if _, name, _ = Default(); name != "custom" {
		t.Errorf("Default() = %q, want the unprioritized fallback", name)
	}

	Unregister("custom")
	if _, _, err := Default(); !errors.Is(err, ErrBackendNotAvailable) {
		t.Errorf("Default() error = %v, want ErrBackendNotAvailable", err)
	}
}
