// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gputest provides in-memory GPU collaborators for tests: a
// recording GPUAdapter and a scripted PipelineCache.
package gputest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/computegrid/gpucore"
)

// ErrInjected is returned by operations made to fail with Adapter.FailNext.
var ErrInjected = errors.New("gputest: injected failure")

// Op names an adapter operation that can be made to fail.
type Op string

// Failable operations.
const (
	OpCreateBuffer          Op = "CreateBuffer"
	OpCreateBindGroup       Op = "CreateBindGroup"
	OpCreateBindGroupLayout Op = "CreateBindGroupLayout"
	OpCreatePipelineLayout  Op = "CreatePipelineLayout"
	OpCreateShaderModule    Op = "CreateShaderModule"
	OpCreateComputePipeline Op = "CreateComputePipeline"
)

// DispatchCall records one Dispatch with the state bound at that moment.
type DispatchCall struct {
	Pass      int
	Pipeline  gpucore.ComputePipelineID
	BindGroup gpucore.BindGroupID
	X, Y, Z   uint32
}

// BindGroup records a created bind group.
type BindGroup struct {
	Layout  gpucore.BindGroupLayoutID
	Entries []gpucore.BindGroupEntry
}

// Adapter is a gpucore.GPUAdapter that records every call in memory.
type Adapter struct {
	mu sync.Mutex

	NoCompute     bool
	MaxWorkgroups uint32

	nextID uint64
	fail   map[Op]int

	buffers       map[gpucore.BufferID][]byte
	bindGroups    map[gpucore.BindGroupID]BindGroup
	layouts       map[gpucore.BindGroupLayoutID]*gpucore.BindGroupLayoutDesc
	pipeLayouts   map[gpucore.PipelineLayoutID][]gpucore.BindGroupLayoutID
	modules       map[gpucore.ShaderModuleID]int
	pipelines     map[gpucore.ComputePipelineID]gpucore.ComputePipelineDesc
	destroyed     []string
	dispatches    []DispatchCall
	passes        int
	openPasses    int
	submits       int
	pipelineCalls int
}

// NewAdapter returns an empty recording adapter with compute support.
func NewAdapter() *Adapter {
	return &Adapter{
		MaxWorkgroups: 65535,
		fail:          make(map[Op]int),
		buffers:       make(map[gpucore.BufferID][]byte),
		bindGroups:    make(map[gpucore.BindGroupID]BindGroup),
		layouts:       make(map[gpucore.BindGroupLayoutID]*gpucore.BindGroupLayoutDesc),
		pipeLayouts:   make(map[gpucore.PipelineLayoutID][]gpucore.BindGroupLayoutID),
		modules:       make(map[gpucore.ShaderModuleID]int),
		pipelines:     make(map[gpucore.ComputePipelineID]gpucore.ComputePipelineDesc),
	}
}

var _ gpucore.GPUAdapter = (*Adapter)(nil)

func (a *Adapter) id() uint64 {
	a.nextID++
	return a.nextID
}

// FailNext makes the next n calls of op return ErrInjected.
func (a *Adapter) FailNext(op Op, n int) {
	a.mu.Lock()
	a.fail[op] += n
	a.mu.Unlock()
}

func (a *Adapter) injected(op Op) error {
	if a.fail[op] > 0 {
		a.fail[op]--
		return fmt.Errorf("%s: %w", op, ErrInjected)
	}
	return nil
}

// SupportsCompute implements gpucore.GPUAdapter.
func (a *Adapter) SupportsCompute() bool { return !a.NoCompute }

// MaxWorkgroupSize implements gpucore.GPUAdapter.
func (a *Adapter) MaxWorkgroupSize() [3]uint32 { return [3]uint32{256, 256, 64} }

// MaxComputeWorkgroupsPerDimension implements gpucore.GPUAdapter.
func (a *Adapter) MaxComputeWorkgroupsPerDimension() uint32 { return a.MaxWorkgroups }

// CreateShaderModule implements gpucore.GPUAdapter.
func (a *Adapter) CreateShaderModule(spirv []uint32, _ string) (gpucore.ShaderModuleID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.injected(OpCreateShaderModule); err != nil {
		return gpucore.InvalidID, err
	}
	id := gpucore.ShaderModuleID(a.id())
	a.modules[id] = len(spirv)
	return id, nil
}

// DestroyShaderModule implements gpucore.GPUAdapter.
func (a *Adapter) DestroyShaderModule(id gpucore.ShaderModuleID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.modules, id)
	a.destroyed = append(a.destroyed, fmt.Sprintf("module:%d", id))
}

// CreateBuffer implements gpucore.GPUAdapter.
func (a *Adapter) CreateBuffer(size int, _ gpucore.BufferUsage) (gpucore.BufferID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.injected(OpCreateBuffer); err != nil {
		return gpucore.InvalidID, err
	}
	id := gpucore.BufferID(a.id())
	a.buffers[id] = make([]byte, size)
	return id, nil
}

// DestroyBuffer implements gpucore.GPUAdapter.
func (a *Adapter) DestroyBuffer(id gpucore.BufferID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.buffers, id)
	a.destroyed = append(a.destroyed, fmt.Sprintf("buffer:%d", id))
}

// WriteBuffer implements gpucore.GPUAdapter.
func (a *Adapter) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if buf, ok := a.buffers[id]; ok && int(offset)+len(data) <= len(buf) {
		copy(buf[offset:], data)
	}
}

// CreateBindGroupLayout implements gpucore.GPUAdapter.
func (a *Adapter) CreateBindGroupLayout(desc *gpucore.BindGroupLayoutDesc) (gpucore.BindGroupLayoutID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.injected(OpCreateBindGroupLayout); err != nil {
		return gpucore.InvalidID, err
	}
	id := gpucore.BindGroupLayoutID(a.id())
	a.layouts[id] = desc
	return id, nil
}

// DestroyBindGroupLayout implements gpucore.GPUAdapter.
func (a *Adapter) DestroyBindGroupLayout(id gpucore.BindGroupLayoutID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.layouts, id)
	a.destroyed = append(a.destroyed, fmt.Sprintf("layout:%d", id))
}

// CreatePipelineLayout implements gpucore.GPUAdapter.
func (a *Adapter) CreatePipelineLayout(layouts []gpucore.BindGroupLayoutID) (gpucore.PipelineLayoutID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.injected(OpCreatePipelineLayout); err != nil {
		return gpucore.InvalidID, err
	}
	id := gpucore.PipelineLayoutID(a.id())
	a.pipeLayouts[id] = append([]gpucore.BindGroupLayoutID(nil), layouts...)
	return id, nil
}

// DestroyPipelineLayout implements gpucore.GPUAdapter.
func (a *Adapter) DestroyPipelineLayout(id gpucore.PipelineLayoutID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.pipeLayouts, id)
	a.destroyed = append(a.destroyed, fmt.Sprintf("pipeline-layout:%d", id))
}

// CreateComputePipeline implements gpucore.GPUAdapter.
func (a *Adapter) CreateComputePipeline(desc *gpucore.ComputePipelineDesc) (gpucore.ComputePipelineID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pipelineCalls++
	if err := a.injected(OpCreateComputePipeline); err != nil {
		return gpucore.InvalidID, err
	}
	id := gpucore.ComputePipelineID(a.id())
	a.pipelines[id] = *desc
	return id, nil
}

// DestroyComputePipeline implements gpucore.GPUAdapter.
func (a *Adapter) DestroyComputePipeline(id gpucore.ComputePipelineID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.pipelines, id)
	a.destroyed = append(a.destroyed, fmt.Sprintf("pipeline:%d", id))
}

// CreateBindGroup implements gpucore.GPUAdapter.
func (a *Adapter) CreateBindGroup(layout gpucore.BindGroupLayoutID, entries []gpucore.BindGroupEntry) (gpucore.BindGroupID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.injected(OpCreateBindGroup); err != nil {
		return gpucore.InvalidID, err
	}
	if _, ok := a.layouts[layout]; !ok {
		return gpucore.InvalidID, fmt.Errorf("gputest: bind group layout %d not found", layout)
	}
	id := gpucore.BindGroupID(a.id())
	a.bindGroups[id] = BindGroup{Layout: layout, Entries: append([]gpucore.BindGroupEntry(nil), entries...)}
	return id, nil
}

// DestroyBindGroup implements gpucore.GPUAdapter.
func (a *Adapter) DestroyBindGroup(id gpucore.BindGroupID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.bindGroups, id)
	a.destroyed = append(a.destroyed, fmt.Sprintf("bindgroup:%d", id))
}

// BeginComputePass implements gpucore.GPUAdapter.
func (a *Adapter) BeginComputePass() gpucore.ComputePassEncoder {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.passes++
	a.openPasses++
	return &pass{adapter: a, index: a.passes}
}

// Submit implements gpucore.GPUAdapter.
func (a *Adapter) Submit() {
	a.mu.Lock()
	a.submits++
	a.mu.Unlock()
}

// WaitIdle implements gpucore.GPUAdapter.
func (a *Adapter) WaitIdle() {}

// Dispatches returns a copy of every recorded dispatch.
func (a *Adapter) Dispatches() []DispatchCall {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]DispatchCall(nil), a.dispatches...)
}

// ResetDispatches forgets recorded dispatches and pass counts.
func (a *Adapter) ResetDispatches() {
	a.mu.Lock()
	a.dispatches = nil
	a.passes = 0
	a.mu.Unlock()
}

// Passes returns the number of compute passes begun.
func (a *Adapter) Passes() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.passes
}

// OpenPasses returns the number of passes begun but not ended.
func (a *Adapter) OpenPasses() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.openPasses
}

// Submits returns the number of Submit calls.
func (a *Adapter) Submits() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.submits
}

// PipelineCalls returns the number of CreateComputePipeline calls,
// including failed ones.
func (a *Adapter) PipelineCalls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pipelineCalls
}

// Pipeline returns the descriptor a live pipeline was created from.
func (a *Adapter) Pipeline(id gpucore.ComputePipelineID) (gpucore.ComputePipelineDesc, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	d, ok := a.pipelines[id]
	return d, ok
}

// BindGroup returns a live bind group.
func (a *Adapter) BindGroup(id gpucore.BindGroupID) (BindGroup, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	bg, ok := a.bindGroups[id]
	return bg, ok
}

// Buffer returns a copy of a live buffer's contents.
func (a *Adapter) Buffer(id gpucore.BufferID) ([]byte, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	b, ok := a.buffers[id]
	return append([]byte(nil), b...), ok
}

// LiveBindGroups returns the number of bind groups not yet destroyed.
func (a *Adapter) LiveBindGroups() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.bindGroups)
}

// LiveBuffers returns the number of buffers not yet destroyed.
func (a *Adapter) LiveBuffers() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.buffers)
}

// LiveLayouts returns the number of bind group layouts not yet destroyed.
func (a *Adapter) LiveLayouts() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.layouts)
}

// Destroyed returns the destroy calls in order, as "kind:id" strings.
func (a *Adapter) Destroyed() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.destroyed...)
}

type pass struct {
	adapter   *Adapter
	index     int
	pipeline  gpucore.ComputePipelineID
	bindGroup gpucore.BindGroupID
	ended     bool
}

func (p *pass) SetPipeline(pipeline gpucore.ComputePipelineID) { p.pipeline = pipeline }

func (p *pass) SetBindGroup(index uint32, group gpucore.BindGroupID) {
	if index == 0 {
		p.bindGroup = group
	}
}

func (p *pass) Dispatch(x, y, z uint32) {
	if p.ended {
		panic("gputest: Dispatch after End")
	}
	a := p.adapter
	a.mu.Lock()
	a.dispatches = append(a.dispatches, DispatchCall{
		Pass:      p.index,
		Pipeline:  p.pipeline,
		BindGroup: p.bindGroup,
		X:         x,
		Y:         y,
		Z:         z,
	})
	a.mu.Unlock()
}

func (p *pass) End() {
	if p.ended {
		return
	}
	p.ended = true
	a := p.adapter
	a.mu.Lock()
	a.openPasses--
	a.mu.Unlock()
}
