// Package computegrid orchestrates compute shader dispatch across many
// output surfaces.
//
// # Overview
//
// Every surface runs the same WGSL program through two compute pipelines:
// init, dispatched until the update pipeline is available, and update,
// dispatched every frame afterwards. Pipelines compile asynchronously, so a
// surface walks a small lifecycle:
//
//	loading -> init -> update
//	   \________\______-> failed
//
// The orchestrator polls the pipeline cache, advances each surface by at
// most one step per frame and records one dispatch per ready surface with
// the surface's bind group.
//
// # Quick Start
//
//	adapter, _ := native.OpenVulkan()
//	cache, _ := pipelinecache.New(adapter)
//	orch, _ := computegrid.New(adapter, cache, adapter)
//
//	view, _ := adapter.CreateSurfaceTexture(1, 1920, 1080)
//	_ = view
//	_ = orch.SetSurface(computegrid.SurfaceDesc{ID: 1, Width: 1920, Height: 1080},
//	    gpucore.SurfaceParams{Scale: 10})
//
//	for {
//	    stats, _ := orch.Frame()
//	    _ = stats
//	    adapter.Submit()
//	}
//
// # Binding layout
//
// Programs must declare exactly this group 0:
//
//	@group(0) @binding(0) var output: texture_storage_2d<rgba8unorm, read_write>;
//	@group(0) @binding(1) var<uniform> params: Params; // 32 bytes
//
// and export @compute entry points named init and update whose workgroup
// size matches the orchestrator's (8x8x1 by default). Surfaces whose
// program does not satisfy this are marked failed when first observed.
//
// # Errors
//
// A failing surface never stops the frame. Compile failures, layout
// mismatches and bind resource errors are logged and passed to the
// Reporter configured with [WithReporter] as a [*Failure].
package computegrid
