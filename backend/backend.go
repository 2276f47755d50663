package backend

import (
	"errors"

	"github.com/gogpu/computegrid/gpucore"
)

// ErrBackendNotAvailable is returned when a requested backend is not
// registered or no registered backend could be opened.
var ErrBackendNotAvailable = errors.New("backend: not available")

// Backend names.
const (
	BackendVulkan = "vulkan"
	BackendNoop   = "noop"
)

// Device is an opened GPU device. It dispatches compute work and owns the
// storage textures that back surfaces.
type Device interface {
	gpucore.GPUAdapter
	gpucore.SurfaceProvider

	// CreateSurfaceTexture creates or replaces the storage texture of a
	// surface and returns its view.
	CreateSurfaceTexture(surface gpucore.SurfaceID, width, height uint32) (gpucore.TextureViewID, error)

	// DestroySurfaceTexture destroys the texture of a surface. The GPU
	// must no longer use it.
	DestroySurfaceTexture(surface gpucore.SurfaceID)

	// Close waits for the GPU and releases every resource of the device.
	Close()
}
