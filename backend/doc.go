// Package backend selects the GPU device the orchestrator dispatches on.
//
// Device packages register a factory per backend name from init(). The
// HAL devices are registered by importing backend/native:
//
//	import _ "github.com/gogpu/computegrid/backend/native"
//
// # Backend Selection
//
// Use Default to open the best available device, or Open to request a
// specific backend by name:
//
//	dev, name, err := backend.Default()
//
//	// Or request a specific backend
//	dev, err := backend.Open(backend.BackendNoop)
//
// The device serves as both the adapter and the surface provider of an
// orchestrator:
//
//	orch, err := computegrid.New(dev, cache, dev)
//
// # Available Backends
//
//   - "vulkan": gogpu/wgpu HAL on Vulkan
//   - "noop": gogpu/wgpu no-op HAL, every call succeeds and no GPU work runs
package backend
