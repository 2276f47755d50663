package gpucore

// GPUAdapter abstracts over the GPU device the grid records work on.
//
// Implementations must be safe for concurrent use: the pipeline cache
// creates pipelines from worker goroutines while the frame loop builds
// bind groups and records passes.
//
// Resource lifecycle:
//   - Resources are created via Create* methods
//   - Resources must be explicitly destroyed via Destroy* methods
//   - Destroying a resource while in use is undefined behavior
//   - IDs become invalid after destruction and must not be reused
type GPUAdapter interface {
	// === Capabilities ===

	// SupportsCompute returns whether compute shaders are supported.
	SupportsCompute() bool

	// MaxWorkgroupSize returns the maximum workgroup size in each dimension.
	MaxWorkgroupSize() [3]uint32

	// MaxComputeWorkgroupsPerDimension returns the largest group count a
	// single dispatch may request in any dimension.
	MaxComputeWorkgroupsPerDimension() uint32

	// === Shader Modules ===

	// CreateShaderModule creates a shader module from SPIR-V words.
	// The SPIR-V is produced by naga before being passed here.
	CreateShaderModule(spirv []uint32, label string) (ShaderModuleID, error)

	// DestroyShaderModule releases a shader module.
	DestroyShaderModule(id ShaderModuleID)

	// === Buffer Management ===

	// CreateBuffer creates a GPU buffer of size bytes.
	CreateBuffer(size int, usage BufferUsage) (BufferID, error)

	// DestroyBuffer releases a GPU buffer.
	DestroyBuffer(id BufferID)

	// WriteBuffer stages data for upload into the buffer at offset.
	WriteBuffer(id BufferID, offset uint64, data []byte)

	// === Pipeline Management ===

	// CreateBindGroupLayout creates a bind group layout.
	CreateBindGroupLayout(desc *BindGroupLayoutDesc) (BindGroupLayoutID, error)

	// DestroyBindGroupLayout releases a bind group layout.
	DestroyBindGroupLayout(id BindGroupLayoutID)

	// CreatePipelineLayout combines bind group layouts into a pipeline layout.
	CreatePipelineLayout(layouts []BindGroupLayoutID) (PipelineLayoutID, error)

	// DestroyPipelineLayout releases a pipeline layout.
	DestroyPipelineLayout(id PipelineLayoutID)

	// CreateComputePipeline creates a compute pipeline.
	CreateComputePipeline(desc *ComputePipelineDesc) (ComputePipelineID, error)

	// DestroyComputePipeline releases a compute pipeline.
	DestroyComputePipeline(id ComputePipelineID)

	// CreateBindGroup binds actual resources to a bind group layout.
	CreateBindGroup(layout BindGroupLayoutID, entries []BindGroupEntry) (BindGroupID, error)

	// DestroyBindGroup releases a bind group.
	DestroyBindGroup(id BindGroupID)

	// === Command Recording and Execution ===

	// BeginComputePass begins a compute pass.
	// The encoder must be ended with ComputePassEncoder.End().
	BeginComputePass() ComputePassEncoder

	// Submit submits recorded commands to the GPU.
	Submit()

	// WaitIdle waits for all GPU operations to complete.
	WaitIdle()
}

// ComputePassEncoder records compute commands.
//
// Usage:
//  1. Obtain encoder from GPUAdapter.BeginComputePass()
//  2. Set pipeline and bind groups
//  3. Dispatch compute workgroups
//  4. Call End() to finish recording
//  5. Call GPUAdapter.Submit() to execute
//
// The encoder is single-use and cannot be reused after End().
type ComputePassEncoder interface {
	// SetPipeline sets the active compute pipeline.
	SetPipeline(pipeline ComputePipelineID)

	// SetBindGroup sets a bind group at the specified index.
	SetBindGroup(index uint32, group BindGroupID)

	// Dispatch dispatches x*y*z compute workgroups.
	Dispatch(x, y, z uint32)

	// End finishes the compute pass.
	End()
}

// SurfaceProvider owns the output images and resolves them to views.
type SurfaceProvider interface {
	// ResolveView returns the storage-bindable view of the surface's
	// image, or false while the image is not yet resolved. The image must
	// have been created with SurfaceTextureUsage.
	ResolveView(id SurfaceID) (TextureViewID, bool)
}

// SurfaceProviderFunc adapts a function to SurfaceProvider.
type SurfaceProviderFunc func(id SurfaceID) (TextureViewID, bool)

// ResolveView calls f(id).
func (f SurfaceProviderFunc) ResolveView(id SurfaceID) (TextureViewID, bool) {
	return f(id)
}
