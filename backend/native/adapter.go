//go:build !nogpu

// Package native implements gpucore.GPUAdapter on the gogpu/wgpu HAL.
package native

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/computegrid/gpucore"
)

// fenceTimeout bounds WaitIdle.
const fenceTimeout = 5 * time.Second

// maxInFlight is the number of submissions kept before Submit waits for
// the oldest one to free its command buffer.
const maxInFlight = 3

// Adapter errors.
var (
	// ErrNilDevice is returned when an adapter is built without a device or queue.
	ErrNilDevice = errors.New("native: device or queue is nil")

	// ErrNotFound is wrapped when a descriptor references an unknown ID.
	ErrNotFound = errors.New("native: resource not found")

	// ErrInvalidSize is returned for empty buffers, textures and shaders.
	ErrInvalidSize = errors.New("native: invalid size")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("native: adapter closed")
)

// HALAdapter implements gpucore.GPUAdapter using gogpu/wgpu/hal directly.
//
// Thread Safety: HALAdapter is safe for concurrent use from multiple goroutines.
// Resource maps are protected by a mutex; HAL calls run outside it.
type HALAdapter struct {
	mu     sync.RWMutex
	device hal.Device
	queue  hal.Queue

	// release destroys what the adapter opened itself (instance, device).
	release func()
	closed  bool

	limits gputypes.Limits

	// ID generation
	nextID atomic.Uint64

	buffers          map[gpucore.BufferID]hal.Buffer
	textures         map[gpucore.TextureID]hal.Texture
	views            map[gpucore.TextureViewID]hal.TextureView
	shaderModules    map[gpucore.ShaderModuleID]hal.ShaderModule
	computePipelines map[gpucore.ComputePipelineID]hal.ComputePipeline
	bindGroupLayouts map[gpucore.BindGroupLayoutID]hal.BindGroupLayout
	pipelineLayouts  map[gpucore.PipelineLayoutID]hal.PipelineLayout
	bindGroups       map[gpucore.BindGroupID]hal.BindGroup
	surfaces         map[gpucore.SurfaceID]surfaceTexture

	// Frame recording state, guarded by mu.
	encoder    hal.CommandEncoder
	fence      hal.Fence
	fenceValue uint64
	inflight   []submission
}

// submission is a command buffer the GPU may still execute.
type submission struct {
	cmd   hal.CommandBuffer
	value uint64
}

var (
	_ gpucore.GPUAdapter      = (*HALAdapter)(nil)
	_ gpucore.SurfaceProvider = (*HALAdapter)(nil)
)

// NewHALAdapter wraps an existing device and queue. The adapter does not
// destroy them on Close. If limits is nil, gputypes.DefaultLimits is used.
func NewHALAdapter(device hal.Device, queue hal.Queue, limits *gputypes.Limits) (*HALAdapter, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	lim := gputypes.DefaultLimits()
	if limits != nil {
		lim = *limits
	}

	a := &HALAdapter{
		device:           device,
		queue:            queue,
		limits:           lim,
		buffers:          make(map[gpucore.BufferID]hal.Buffer),
		textures:         make(map[gpucore.TextureID]hal.Texture),
		views:            make(map[gpucore.TextureViewID]hal.TextureView),
		shaderModules:    make(map[gpucore.ShaderModuleID]hal.ShaderModule),
		computePipelines: make(map[gpucore.ComputePipelineID]hal.ComputePipeline),
		bindGroupLayouts: make(map[gpucore.BindGroupLayoutID]hal.BindGroupLayout),
		pipelineLayouts:  make(map[gpucore.PipelineLayoutID]hal.PipelineLayout),
		bindGroups:       make(map[gpucore.BindGroupID]hal.BindGroup),
		surfaces:         make(map[gpucore.SurfaceID]surfaceTexture),
	}

	// Start ID generation at 1 (0 is invalid)
	a.nextID.Store(1)

	return a, nil
}

// newID generates a unique resource ID.
func (a *HALAdapter) newID() uint64 {
	return a.nextID.Add(1) - 1
}

// === Capabilities ===

// SupportsCompute returns whether compute shaders are supported.
func (a *HALAdapter) SupportsCompute() bool {
	return a.limits.MaxComputeWorkgroupSizeX > 0
}

// MaxWorkgroupSize returns the maximum workgroup size in each dimension.
func (a *HALAdapter) MaxWorkgroupSize() [3]uint32 {
	return [3]uint32{
		a.limits.MaxComputeWorkgroupSizeX,
		a.limits.MaxComputeWorkgroupSizeY,
		a.limits.MaxComputeWorkgroupSizeZ,
	}
}

// MaxComputeWorkgroupsPerDimension returns the dispatch grid limit.
func (a *HALAdapter) MaxComputeWorkgroupsPerDimension() uint32 {
	return a.limits.MaxComputeWorkgroupsPerDimension
}

// === Shader Compilation ===

// CreateShaderModule creates a shader module from SPIR-V words.
func (a *HALAdapter) CreateShaderModule(spirv []uint32, label string) (gpucore.ShaderModuleID, error) {
	if len(spirv) == 0 {
		return gpucore.InvalidID, fmt.Errorf("%w: empty SPIR-V", ErrInvalidSize)
	}

	module, err := a.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create shader module %q: %w", label, err)
	}

	id := gpucore.ShaderModuleID(a.newID())
	a.mu.Lock()
	a.shaderModules[id] = module
	a.mu.Unlock()
	return id, nil
}

// DestroyShaderModule releases a shader module.
func (a *HALAdapter) DestroyShaderModule(id gpucore.ShaderModuleID) {
	a.mu.Lock()
	module, ok := a.shaderModules[id]
	delete(a.shaderModules, id)
	a.mu.Unlock()

	if ok {
		a.device.DestroyShaderModule(module)
	}
}

// === Buffer Management ===

// CreateBuffer creates a GPU buffer.
func (a *HALAdapter) CreateBuffer(size int, usage gpucore.BufferUsage) (gpucore.BufferID, error) {
	if size <= 0 {
		return gpucore.InvalidID, fmt.Errorf("%w: buffer size %d", ErrInvalidSize, size)
	}

	buffer, err := a.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "computegrid_buffer",
		Size:  uint64(size),
		Usage: convertBufferUsage(usage),
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create buffer: %w", err)
	}

	id := gpucore.BufferID(a.newID())
	a.mu.Lock()
	a.buffers[id] = buffer
	a.mu.Unlock()
	return id, nil
}

// DestroyBuffer releases a GPU buffer.
func (a *HALAdapter) DestroyBuffer(id gpucore.BufferID) {
	a.mu.Lock()
	buffer, ok := a.buffers[id]
	delete(a.buffers, id)
	a.mu.Unlock()

	if ok {
		a.device.DestroyBuffer(buffer)
	}
}

// WriteBuffer writes data to a buffer through the queue.
func (a *HALAdapter) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) {
	a.mu.RLock()
	buffer, ok := a.buffers[id]
	a.mu.RUnlock()

	if ok && len(data) > 0 {
		a.queue.WriteBuffer(buffer, offset, data)
	}
}

// === Pipeline Management ===

// CreateBindGroupLayout creates a compute-visible bind group layout.
func (a *HALAdapter) CreateBindGroupLayout(desc *gpucore.BindGroupLayoutDesc) (gpucore.BindGroupLayoutID, error) {
	if desc == nil {
		return gpucore.InvalidID, errors.New("native: nil bind group layout descriptor")
	}

	entries := make([]gputypes.BindGroupLayoutEntry, len(desc.Entries))
	for i, entry := range desc.Entries {
		entries[i] = convertBindGroupLayoutEntry(entry)
	}

	layout, err := a.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   desc.Label,
		Entries: entries,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create bind group layout %q: %w", desc.Label, err)
	}

	id := gpucore.BindGroupLayoutID(a.newID())
	a.mu.Lock()
	a.bindGroupLayouts[id] = layout
	a.mu.Unlock()
	return id, nil
}

// DestroyBindGroupLayout releases a bind group layout.
func (a *HALAdapter) DestroyBindGroupLayout(id gpucore.BindGroupLayoutID) {
	a.mu.Lock()
	layout, ok := a.bindGroupLayouts[id]
	delete(a.bindGroupLayouts, id)
	a.mu.Unlock()

	if ok {
		a.device.DestroyBindGroupLayout(layout)
	}
}

// CreatePipelineLayout creates a pipeline layout from bind group layouts.
func (a *HALAdapter) CreatePipelineLayout(layouts []gpucore.BindGroupLayoutID) (gpucore.PipelineLayoutID, error) {
	halLayouts := make([]hal.BindGroupLayout, len(layouts))
	a.mu.RLock()
	for i, id := range layouts {
		layout, ok := a.bindGroupLayouts[id]
		if !ok {
			a.mu.RUnlock()
			return gpucore.InvalidID, fmt.Errorf("%w: bind group layout %d", ErrNotFound, id)
		}
		halLayouts[i] = layout
	}
	a.mu.RUnlock()

	pipelineLayout, err := a.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "computegrid_pipeline_layout",
		BindGroupLayouts: halLayouts,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create pipeline layout: %w", err)
	}

	id := gpucore.PipelineLayoutID(a.newID())
	a.mu.Lock()
	a.pipelineLayouts[id] = pipelineLayout
	a.mu.Unlock()
	return id, nil
}

// DestroyPipelineLayout releases a pipeline layout.
func (a *HALAdapter) DestroyPipelineLayout(id gpucore.PipelineLayoutID) {
	a.mu.Lock()
	layout, ok := a.pipelineLayouts[id]
	delete(a.pipelineLayouts, id)
	a.mu.Unlock()

	if ok {
		a.device.DestroyPipelineLayout(layout)
	}
}

// CreateComputePipeline creates a compute pipeline.
func (a *HALAdapter) CreateComputePipeline(desc *gpucore.ComputePipelineDesc) (gpucore.ComputePipelineID, error) {
	if desc == nil {
		return gpucore.InvalidID, errors.New("native: nil compute pipeline descriptor")
	}

	a.mu.RLock()
	pipelineLayout, layoutOK := a.pipelineLayouts[desc.Layout]
	shaderModule, moduleOK := a.shaderModules[desc.ShaderModule]
	a.mu.RUnlock()

	if !layoutOK {
		return gpucore.InvalidID, fmt.Errorf("%w: pipeline layout %d", ErrNotFound, desc.Layout)
	}
	if !moduleOK {
		return gpucore.InvalidID, fmt.Errorf("%w: shader module %d", ErrNotFound, desc.ShaderModule)
	}

	pipeline, err := a.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  desc.Label,
		Layout: pipelineLayout,
		Compute: hal.ComputeState{
			Module:     shaderModule,
			EntryPoint: desc.EntryPoint,
		},
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create compute pipeline %q: %w", desc.Label, err)
	}

	id := gpucore.ComputePipelineID(a.newID())
	a.mu.Lock()
	a.computePipelines[id] = pipeline
	a.mu.Unlock()
	return id, nil
}

// DestroyComputePipeline releases a compute pipeline.
func (a *HALAdapter) DestroyComputePipeline(id gpucore.ComputePipelineID) {
	a.mu.Lock()
	pipeline, ok := a.computePipelines[id]
	delete(a.computePipelines, id)
	a.mu.Unlock()

	if ok {
		a.device.DestroyComputePipeline(pipeline)
	}
}

// CreateBindGroup creates a bind group. Each entry binds either a buffer
// range or a texture view.
func (a *HALAdapter) CreateBindGroup(layout gpucore.BindGroupLayoutID, entries []gpucore.BindGroupEntry) (gpucore.BindGroupID, error) {
	a.mu.RLock()
	halLayout, ok := a.bindGroupLayouts[layout]
	if !ok {
		a.mu.RUnlock()
		return gpucore.InvalidID, fmt.Errorf("%w: bind group layout %d", ErrNotFound, layout)
	}
	halEntries := make([]gputypes.BindGroupEntry, len(entries))
	for i, entry := range entries {
		halEntry, err := a.convertBindGroupEntry(entry)
		if err != nil {
			a.mu.RUnlock()
			return gpucore.InvalidID, fmt.Errorf("native: bind group entry %d: %w", entry.Binding, err)
		}
		halEntries[i] = halEntry
	}
	a.mu.RUnlock()

	group, err := a.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   "computegrid_bind_group",
		Layout:  halLayout,
		Entries: halEntries,
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create bind group: %w", err)
	}

	id := gpucore.BindGroupID(a.newID())
	a.mu.Lock()
	a.bindGroups[id] = group
	a.mu.Unlock()
	return id, nil
}

// DestroyBindGroup releases a bind group.
func (a *HALAdapter) DestroyBindGroup(id gpucore.BindGroupID) {
	a.mu.Lock()
	group, ok := a.bindGroups[id]
	delete(a.bindGroups, id)
	a.mu.Unlock()

	if ok {
		a.device.DestroyBindGroup(group)
	}
}

// === Command Recording and Execution ===

// BeginComputePass begins a compute pass on the frame's command encoder,
// creating the encoder on first use. If the encoder cannot be created the
// returned pass records nothing.
func (a *HALAdapter) BeginComputePass() gpucore.ComputePassEncoder {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.encoder == nil {
		encoder, err := a.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
			Label: "computegrid_frame",
		})
		if err != nil {
			slogger().Warn("native: create command encoder", "error", err)
			return &computePass{adapter: a}
		}
		if err := encoder.BeginEncoding("computegrid_frame"); err != nil {
			slogger().Warn("native: begin encoding", "error", err)
			return &computePass{adapter: a}
		}
		a.encoder = encoder
	}

	return &computePass{
		adapter: a,
		pass:    a.encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "computegrid_dispatch"}),
	}
}

// Submit ends the frame's command encoder and submits it. The submission
// signals the adapter fence so WaitIdle can wait for it. Command buffers
// are freed once their submission has completed.
func (a *HALAdapter) Submit() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.encoder == nil {
		return
	}
	encoder := a.encoder
	a.encoder = nil

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		slogger().Warn("native: end encoding", "error", err)
		return
	}

	if a.fence == nil {
		fence, err := a.device.CreateFence()
		if err != nil {
			a.device.FreeCommandBuffer(cmdBuf)
			slogger().Warn("native: create fence", "error", err)
			return
		}
		a.fence = fence
	}
	a.fenceValue++
	if err := a.queue.Submit([]hal.CommandBuffer{cmdBuf}, a.fence, a.fenceValue); err != nil {
		a.device.FreeCommandBuffer(cmdBuf)
		slogger().Warn("native: submit", "error", err)
		return
	}
	a.inflight = append(a.inflight, submission{cmd: cmdBuf, value: a.fenceValue})

	for len(a.inflight) > maxInFlight {
		oldest := a.inflight[0]
		if ok, err := a.device.Wait(a.fence, oldest.value, fenceTimeout); err != nil || !ok {
			slogger().Warn("native: wait for submission", "value", oldest.value, "error", err)
			return
		}
		a.device.FreeCommandBuffer(oldest.cmd)
		a.inflight = a.inflight[1:]
	}
}

// WaitIdle submits pending work and waits for the last submission.
func (a *HALAdapter) WaitIdle() {
	a.Submit()

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.fence == nil || a.fenceValue == 0 {
		return
	}

	ok, err := a.device.Wait(a.fence, a.fenceValue, fenceTimeout)
	if err != nil {
		slogger().Warn("native: wait for GPU", "error", err)
		return
	}
	if !ok {
		slogger().Warn("native: GPU timeout", "timeout", fenceTimeout)
		return
	}
	for _, s := range a.inflight {
		a.device.FreeCommandBuffer(s.cmd)
	}
	a.inflight = nil
}

// InFlight returns the number of submissions whose command buffers have
// not been freed yet.
func (a *HALAdapter) InFlight() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.inflight)
}

// Close waits for the GPU, destroys every resource the adapter still
// tracks and releases a device opened by Open or OpenNoop.
func (a *HALAdapter) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	a.mu.Unlock()

	a.WaitIdle()

	a.mu.Lock()
	defer a.mu.Unlock()
	for id, g := range a.bindGroups {
		a.device.DestroyBindGroup(g)
		delete(a.bindGroups, id)
	}
	for id, p := range a.computePipelines {
		a.device.DestroyComputePipeline(p)
		delete(a.computePipelines, id)
	}
	for id, l := range a.pipelineLayouts {
		a.device.DestroyPipelineLayout(l)
		delete(a.pipelineLayouts, id)
	}
	for id, l := range a.bindGroupLayouts {
		a.device.DestroyBindGroupLayout(l)
		delete(a.bindGroupLayouts, id)
	}
	for id, m := range a.shaderModules {
		a.device.DestroyShaderModule(m)
		delete(a.shaderModules, id)
	}
	for id, b := range a.buffers {
		a.device.DestroyBuffer(b)
		delete(a.buffers, id)
	}
	for id, v := range a.views {
		a.device.DestroyTextureView(v)
		delete(a.views, id)
	}
	for id, t := range a.textures {
		a.device.DestroyTexture(t)
		delete(a.textures, id)
	}
	clear(a.surfaces)
	if a.fence != nil {
		a.device.DestroyFence(a.fence)
		a.fence = nil
	}
	if a.release != nil {
		a.release()
		a.release = nil
	}
}

// Live returns the number of HAL resources the adapter currently tracks.
func (a *HALAdapter) Live() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.buffers) + len(a.textures) + len(a.views) + len(a.shaderModules) +
		len(a.computePipelines) + len(a.bindGroupLayouts) + len(a.pipelineLayouts) + len(a.bindGroups)
}

// === Type Conversion Helpers ===

// convertBufferUsage converts gpucore.BufferUsage to gputypes.BufferUsage.
func convertBufferUsage(usage gpucore.BufferUsage) gputypes.BufferUsage {
	var result gputypes.BufferUsage

	if usage&gpucore.BufferUsageMapRead != 0 {
		result |= gputypes.BufferUsageMapRead
	}
	if usage&gpucore.BufferUsageMapWrite != 0 {
		result |= gputypes.BufferUsageMapWrite
	}
	if usage&gpucore.BufferUsageCopySrc != 0 {
		result |= gputypes.BufferUsageCopySrc
	}
	if usage&gpucore.BufferUsageCopyDst != 0 {
		result |= gputypes.BufferUsageCopyDst
	}
	if usage&gpucore.BufferUsageUniform != 0 {
		result |= gputypes.BufferUsageUniform
	}
	if usage&gpucore.BufferUsageStorage != 0 {
		result |= gputypes.BufferUsageStorage
	}

	return result
}

// convertTextureUsage converts gpucore.TextureUsage to gputypes.TextureUsage.
func convertTextureUsage(usage gpucore.TextureUsage) gputypes.TextureUsage {
	var result gputypes.TextureUsage

	if usage&gpucore.TextureUsageCopySrc != 0 {
		result |= gputypes.TextureUsageCopySrc
	}
	if usage&gpucore.TextureUsageCopyDst != 0 {
		result |= gputypes.TextureUsageCopyDst
	}
	if usage&gpucore.TextureUsageTextureBinding != 0 {
		result |= gputypes.TextureUsageTextureBinding
	}
	if usage&gpucore.TextureUsageStorageBinding != 0 {
		result |= gputypes.TextureUsageStorageBinding
	}
	if usage&gpucore.TextureUsageRenderAttachment != 0 {
		result |= gputypes.TextureUsageRenderAttachment
	}

	return result
}

// convertTextureFormat converts gpucore.TextureFormat to gputypes.TextureFormat.
func convertTextureFormat(format gpucore.TextureFormat) gputypes.TextureFormat {
	switch format {
	case gpucore.TextureFormatBGRA8Unorm:
		return gputypes.TextureFormatBGRA8Unorm
	case gpucore.TextureFormatR32Float:
		return gputypes.TextureFormatR32Float
	case gpucore.TextureFormatRGBA32Float:
		return gputypes.TextureFormatRGBA32Float
	default:
		return gputypes.TextureFormatRGBA8Unorm
	}
}

func convertStorageAccess(access gpucore.StorageAccess) gputypes.StorageTextureAccess {
	switch access {
	case gpucore.StorageAccessReadOnly:
		return gputypes.StorageTextureAccessReadOnly
	case gpucore.StorageAccessWriteOnly:
		return gputypes.StorageTextureAccessWriteOnly
	default:
		return gputypes.StorageTextureAccessReadWrite
	}
}

// convertBindGroupLayoutEntry converts gpucore.BindGroupLayoutEntry to gputypes.BindGroupLayoutEntry.
func convertBindGroupLayoutEntry(entry gpucore.BindGroupLayoutEntry) gputypes.BindGroupLayoutEntry {
	result := gputypes.BindGroupLayoutEntry{
		Binding:    entry.Binding,
		Visibility: gputypes.ShaderStageCompute,
	}

	switch entry.Type {
	case gpucore.BindingTypeUniformBuffer:
		result.Buffer = &gputypes.BufferBindingLayout{
			Type:             gputypes.BufferBindingTypeUniform,
			HasDynamicOffset: entry.HasDynamicOffset,
			MinBindingSize:   entry.MinBindingSize,
		}
	case gpucore.BindingTypeStorageBuffer:
		result.Buffer = &gputypes.BufferBindingLayout{
			Type:             gputypes.BufferBindingTypeStorage,
			HasDynamicOffset: entry.HasDynamicOffset,
			MinBindingSize:   entry.MinBindingSize,
		}
	case gpucore.BindingTypeReadOnlyStorageBuffer:
		result.Buffer = &gputypes.BufferBindingLayout{
			Type:             gputypes.BufferBindingTypeReadOnlyStorage,
			HasDynamicOffset: entry.HasDynamicOffset,
			MinBindingSize:   entry.MinBindingSize,
		}
	case gpucore.BindingTypeStorageTexture:
		result.Storage = &gputypes.StorageTextureBindingLayout{
			Access:        convertStorageAccess(entry.Access),
			Format:        convertTextureFormat(entry.Format),
			ViewDimension: gputypes.TextureViewDimension2D,
		}
	}

	return result
}

// convertBindGroupEntry converts gpucore.BindGroupEntry to gputypes.BindGroupEntry.
// Must be called with mu.RLock held.
func (a *HALAdapter) convertBindGroupEntry(entry gpucore.BindGroupEntry) (gputypes.BindGroupEntry, error) {
	result := gputypes.BindGroupEntry{Binding: entry.Binding}

	switch {
	case entry.Buffer != gpucore.InvalidID:
		buffer, ok := a.buffers[entry.Buffer]
		if !ok {
			return result, fmt.Errorf("%w: buffer %d", ErrNotFound, entry.Buffer)
		}
		result.Resource = gputypes.BufferBinding{
			Buffer: buffer.NativeHandle(),
			Offset: entry.Offset,
			Size:   entry.Size,
		}
	case entry.TextureView != gpucore.InvalidID:
		view, ok := a.views[entry.TextureView]
		if !ok {
			return result, fmt.Errorf("%w: texture view %d", ErrNotFound, entry.TextureView)
		}
		result.Resource = gputypes.TextureViewBinding{
			TextureView: view.NativeHandle(),
		}
	default:
		return result, errors.New("entry binds no resource")
	}

	return result, nil
}

// === Compute Pass Encoder ===

// computePass implements gpucore.ComputePassEncoder. A pass without a HAL
// pass (encoder creation failed) ignores every call.
type computePass struct {
	adapter *HALAdapter
	pass    hal.ComputePassEncoder
	ended   bool
}

// SetPipeline sets the active compute pipeline.
func (e *computePass) SetPipeline(pipeline gpucore.ComputePipelineID) {
	if e.pass == nil || e.ended {
		return
	}

	e.adapter.mu.RLock()
	halPipeline, ok := e.adapter.computePipelines[pipeline]
	e.adapter.mu.RUnlock()

	if ok {
		e.pass.SetPipeline(halPipeline)
	}
}

// SetBindGroup sets a bind group at the specified index.
func (e *computePass) SetBindGroup(index uint32, group gpucore.BindGroupID) {
	if e.pass == nil || e.ended {
		return
	}

	e.adapter.mu.RLock()
	halGroup, ok := e.adapter.bindGroups[group]
	e.adapter.mu.RUnlock()

	if ok {
		e.pass.SetBindGroup(index, halGroup, nil)
	}
}

// Dispatch dispatches compute workgroups.
func (e *computePass) Dispatch(x, y, z uint32) {
	if e.pass == nil || e.ended {
		return
	}
	e.pass.Dispatch(x, y, z)
}

// End finishes the compute pass. Calling End twice is a no-op.
func (e *computePass) End() {
	if e.pass == nil || e.ended {
		return
	}
	e.ended = true
	e.pass.End()
}
