// Package gpucore defines the collaborator contracts of the compute grid.
//
// The orchestrator in the root package talks to the outside world only
// through the interfaces and value types declared here:
//
//   - [GPUAdapter] creates buffers, bind groups and pipelines and records
//     compute passes. backend/native implements it on gogpu/wgpu HAL.
//   - [PipelineCache] accepts asynchronous compute pipeline requests and
//     answers status polls. pipelinecache.Async implements it.
//   - [SurfaceProvider] resolves a surface to a storage-bindable view.
//
// # Architecture
//
//	          +------------------+
//	          |   computegrid    |
//	          |  (Orchestrator)  |
//	          +---------+--------+
//	                    |
//	     +--------------+---------------+
//	     |              |               |
//	+----v-----+  +-----v-------+  +----v------------+
//	|GPUAdapter|  |PipelineCache|  | SurfaceProvider |
//	+----+-----+  +-----+-------+  +----+------------+
//	     |              |               |
//	+----v--------------v---------------v----+
//	|        backend/native (wgpu HAL)       |
//	+----------------------------------------+
//
// # Resource Management
//
// GPU resources are managed via opaque IDs ([BufferID], [BindGroupID], etc.).
// Adapters are responsible for tracking the mapping between IDs and actual
// GPU resources. The zero ID is never issued.
//
// # Binding Layout
//
// Every compute program run by the grid uses the same group-0 layout, see
// [SurfaceBindGroupLayout]: a read-write rgba8unorm storage texture at slot 0
// and a 32-byte [SurfaceParams] uniform block at slot 1.
package gpucore
