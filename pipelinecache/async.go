// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package pipelinecache compiles compute pipelines in the background.
//
// [Async] implements gpucore.PipelineCache: RequestCompute returns a handle
// at once and queues the work on a worker pool; callers poll
// PipelineStatus until the handle is ready or failed. Identical requests
// share one handle, each WGSL source is compiled once and each layout is
// created once. A failed request is never retried.
package pipelinecache

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/computegrid/gpucore"
	"github.com/gogpu/computegrid/internal/parallel"
	"github.com/gogpu/computegrid/shader"
)

// Pipeline cache errors.
var (
	// ErrNilAdapter is returned by New without an adapter.
	ErrNilAdapter = errors.New("pipelinecache: adapter is nil")

	// ErrNilRequest is the failure of a nil request.
	ErrNilRequest = errors.New("pipelinecache: request is nil")

	// ErrClosed is the failure of requests made after Close.
	ErrClosed = errors.New("pipelinecache: cache closed")
)

// CompileFunc lowers WGSL to SPIR-V words.
type CompileFunc func(wgsl string) ([]uint32, error)

// Option configures an Async cache.
type Option func(*options)

type options struct {
	workers int
	compile CompileFunc
}

// WithWorkers sets the number of compile workers. Values <= 0 select
// GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithCompiler replaces the naga compiler, mainly for tests.
func WithCompiler(fn CompileFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.compile = fn
		}
	}
}

type entry struct {
	req      gpucore.ComputePipelineRequest
	status   gpucore.PipelineStatus
	pipeline gpucore.ComputePipelineID
	err      error
}

type module struct {
	once sync.Once
	id   gpucore.ShaderModuleID
	err  error
}

type layout struct {
	once  sync.Once
	group gpucore.BindGroupLayoutID
	pipe  gpucore.PipelineLayoutID
	err   error
}

// Async is an asynchronous compute pipeline cache.
//
// Thread Safety: Async is safe for concurrent use. Lookups use RWMutex
// double-check locking; compilation runs on the worker pool.
type Async struct {
	adapter gpucore.GPUAdapter
	compile CompileFunc
	pool    *parallel.WorkerPool

	mu      sync.RWMutex
	next    gpucore.PipelineHandle
	byKey   map[uint64]gpucore.PipelineHandle
	entries map[gpucore.PipelineHandle]*entry
	modules map[uint64]*module
	layouts map[uint64]*layout
	closed  bool

	hits     atomic.Uint64
	misses   atomic.Uint64
	compiles atomic.Uint64
	failures atomic.Uint64
}

var _ gpucore.PipelineCache = (*Async)(nil)

// New returns a cache creating pipelines on adapter.
func New(adapter gpucore.GPUAdapter, opts ...Option) (*Async, error) {
	if adapter == nil {
		return nil, ErrNilAdapter
	}
	o := options{compile: shader.CompileSPIRV}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Async{
		adapter: adapter,
		compile: o.compile,
		pool:    parallel.NewWorkerPool(o.workers),
		byKey:   make(map[uint64]gpucore.PipelineHandle),
		entries: make(map[gpucore.PipelineHandle]*entry),
		modules: make(map[uint64]*module),
		layouts: make(map[uint64]*layout),
	}
	c.pool.SetPanicHandler(func(v any) {
		slogger().Error("pipelinecache: compile worker panicked", "panic", v)
	})
	return c, nil
}

// RequestCompute implements gpucore.PipelineCache.
func (c *Async) RequestCompute(req *gpucore.ComputePipelineRequest) gpucore.PipelineHandle {
	if req == nil {
		return c.failedEntry(gpucore.ComputePipelineRequest{}, ErrNilRequest)
	}

	key := HashRequest(req)

	// Fast path: read lock
	c.mu.RLock()
	if h, ok := c.byKey[key]; ok {
		c.mu.RUnlock()
		c.hits.Add(1)
		return h
	}
	c.mu.RUnlock()

	// Slow path: write lock with double-check
	c.mu.Lock()
	if h, ok := c.byKey[key]; ok {
		c.mu.Unlock()
		c.hits.Add(1)
		return h
	}
	if c.closed {
		c.mu.Unlock()
		return c.failedEntry(*req, ErrClosed)
	}
	c.next++
	h := c.next
	c.entries[h] = &entry{req: *req}
	c.byKey[key] = h
	c.mu.Unlock()
	c.misses.Add(1)

	slogger().Debug("pipelinecache: compile queued", "handle", h, "shader", req.ShaderName, "entry_point", req.EntryPoint)
	if !c.pool.Submit(func() { c.build(h) }) {
		c.finish(h, gpucore.InvalidID, ErrClosed)
	}
	return h
}

func (c *Async) failedEntry(req gpucore.ComputePipelineRequest, err error) gpucore.PipelineHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next++
	c.entries[c.next] = &entry{req: req, status: gpucore.PipelineStatusFailed, err: err}
	c.failures.Add(1)
	return c.next
}

func (c *Async) build(h gpucore.PipelineHandle) {
	c.mu.RLock()
	req := c.entries[h].req
	c.mu.RUnlock()

	mod, err := c.module(&req)
	if err != nil {
		c.finish(h, gpucore.InvalidID, err)
		return
	}
	lay, err := c.layout(req.Layout)
	if err != nil {
		c.finish(h, gpucore.InvalidID, err)
		return
	}

	label := req.Label
	if label == "" {
		label = req.ShaderName + "/" + req.EntryPoint
	}
	pipeline, err := c.adapter.CreateComputePipeline(&gpucore.ComputePipelineDesc{
		Label:        label,
		Layout:       lay.pipe,
		ShaderModule: mod.id,
		EntryPoint:   req.EntryPoint,
	})
	if err != nil {
		err = fmt.Errorf("pipelinecache: %s entry point %q: %w", req.ShaderName, req.EntryPoint, err)
	}
	c.finish(h, pipeline, err)
}

func (c *Async) finish(h gpucore.PipelineHandle, pipeline gpucore.ComputePipelineID, err error) {
	c.mu.Lock()
	e := c.entries[h]
	if err != nil {
		e.status = gpucore.PipelineStatusFailed
		e.err = err
	} else {
		e.status = gpucore.PipelineStatusReady
		e.pipeline = pipeline
	}
	req := e.req
	c.mu.Unlock()

	if err != nil {
		c.failures.Add(1)
		slogger().Warn("pipelinecache: compile failed", "handle", h, "shader", req.ShaderName, "entry_point", req.EntryPoint, "error", err)
		return
	}
	slogger().Debug("pipelinecache: pipeline ready", "handle", h, "shader", req.ShaderName, "entry_point", req.EntryPoint)
}

// module returns the shader module for req's source, compiling it on
// first use.
func (c *Async) module(req *gpucore.ComputePipelineRequest) (*module, error) {
	key := HashSource(req.WGSL)

	c.mu.Lock()
	m, ok := c.modules[key]
	if !ok {
		m = &module{}
		c.modules[key] = m
	}
	c.mu.Unlock()

	m.once.Do(func() {
		c.compiles.Add(1)
		words, err := c.compile(req.WGSL)
		if err != nil {
			m.err = fmt.Errorf("pipelinecache: compile %s: %w", req.ShaderName, err)
			return
		}
		m.id, m.err = c.adapter.CreateShaderModule(words, req.ShaderName)
		if m.err != nil {
			m.err = fmt.Errorf("pipelinecache: shader module %s: %w", req.ShaderName, m.err)
		}
	})
	return m, m.err
}

// layout returns the bind group and pipeline layouts for desc, creating
// them on first use.
func (c *Async) layout(desc *gpucore.BindGroupLayoutDesc) (*layout, error) {
	if desc == nil {
		desc = gpucore.SurfaceBindGroupLayout()
	}
	key := HashLayout(desc)

	c.mu.Lock()
	l, ok := c.layouts[key]
	if !ok {
		l = &layout{}
		c.layouts[key] = l
	}
	c.mu.Unlock()

	l.once.Do(func() {
		l.group, l.err = c.adapter.CreateBindGroupLayout(desc)
		if l.err != nil {
			l.err = fmt.Errorf("pipelinecache: bind group layout: %w", l.err)
			return
		}
		l.pipe, l.err = c.adapter.CreatePipelineLayout([]gpucore.BindGroupLayoutID{l.group})
		if l.err != nil {
			l.err = fmt.Errorf("pipelinecache: pipeline layout: %w", l.err)
		}
	})
	return l, l.err
}

// PipelineStatus implements gpucore.PipelineCache.
func (c *Async) PipelineStatus(h gpucore.PipelineHandle) gpucore.PipelineStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.entries[h]; ok {
		return e.status
	}
	return gpucore.PipelineStatusPending
}

// ComputePipeline implements gpucore.PipelineCache.
func (c *Async) ComputePipeline(h gpucore.PipelineHandle) (gpucore.ComputePipelineID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.entries[h]; ok && e.status == gpucore.PipelineStatusReady {
		return e.pipeline, true
	}
	return gpucore.InvalidID, false
}

// PipelineError implements gpucore.PipelineCache.
func (c *Async) PipelineError(h gpucore.PipelineHandle) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.entries[h]; ok {
		return e.err
	}
	return nil
}

// Wait blocks until every queued compilation has finished.
func (c *Async) Wait() {
	c.pool.Wait()
}

// Stats holds cache counters.
type Stats struct {
	// Hits and Misses count RequestCompute calls that did and did not
	// find an identical earlier request.
	Hits   uint64
	Misses uint64

	// Compiles counts WGSL sources handed to the compiler.
	Compiles uint64

	// Failures counts requests that ended failed.
	Failures uint64
}

// Stats returns cache statistics.
func (c *Async) Stats() Stats {
	return Stats{
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Compiles: c.compiles.Load(),
		Failures: c.failures.Load(),
	}
}

// Close waits for queued compilations, then destroys every pipeline,
// layout and shader module the cache created. Requests made after Close
// fail with ErrClosed.
func (c *Async) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.pool.Close()

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		if e.status == gpucore.PipelineStatusReady {
			c.adapter.DestroyComputePipeline(e.pipeline)
		}
	}
	for _, l := range c.layouts {
		if l.pipe != gpucore.InvalidID {
			c.adapter.DestroyPipelineLayout(l.pipe)
		}
		if l.group != gpucore.InvalidID {
			c.adapter.DestroyBindGroupLayout(l.group)
		}
	}
	for _, m := range c.modules {
		if m.id != gpucore.InvalidID {
			c.adapter.DestroyShaderModule(m.id)
		}
	}
}
