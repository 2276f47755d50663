// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package computegrid

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/gogpu/computegrid/gpucore"
	"github.com/gogpu/computegrid/internal/bind"
	"github.com/gogpu/computegrid/internal/lifecycle"
	"github.com/gogpu/computegrid/internal/metrics"
	"github.com/gogpu/computegrid/internal/registry"
	"github.com/gogpu/computegrid/internal/schedule"
	"github.com/gogpu/computegrid/shader"
)

// State is the lifecycle stage of a surface.
type State = lifecycle.State

// Lifecycle states.
const (
	StateLoading = lifecycle.Loading
	StateInit    = lifecycle.Init
	StateUpdate  = lifecycle.Update
	StateFailed  = lifecycle.Failed
)

// SurfaceDesc describes an output surface.
type SurfaceDesc struct {
	ID gpucore.SurfaceID

	// Width and Height are fixed once the surface is set.
	Width  uint32
	Height uint32

	Label string

	// Program overrides the orchestrator's program for this surface.
	Program shader.Source
}

// Target is the public view of a surface's record.
type Target struct {
	Surface gpucore.SurfaceID
	Label   string
	Width   uint32
	Height  uint32
	State   State

	// Failure is the error that moved the surface to StateFailed.
	Failure error
}

// FrameStats summarizes one Frame.
type FrameStats struct {
	// Frame is the 1-based frame number.
	Frame uint64

	// Targets is the number of surfaces with a record after the frame.
	Targets int

	// Created counts records created this frame.
	Created int

	// Rebuilt counts bind bundles built this frame.
	Rebuilt int

	// Skipped counts surfaces left out of dispatch because their view was
	// unresolved or their bind resources failed.
	Skipped int

	// Transitions counts lifecycle steps taken this frame.
	Transitions int

	// Failures counts failures reported this frame.
	Failures int

	// Released counts retired bundles destroyed this frame.
	Released int

	// Init and Update count recorded dispatches per stage.
	Init   int
	Update int

	// Passes is the number of compute passes begun.
	Passes int

	// Violations counts refused dispatches of pipelines that were not ready.
	Violations int
}

// Dispatched returns the total number of dispatches recorded.
func (s FrameStats) Dispatched() int {
	return s.Init + s.Update
}

type source struct {
	desc   SurfaceDesc
	params gpucore.SurfaceParams
}

// Orchestrator drives the per-frame compute work of every surface.
//
// Thread Safety: SetSurface, SetParams, RemoveSurface, Target, Targets and
// State may be called from any goroutine. Frame and Close serialize on an
// internal mutex; parameter changes made during a frame apply to the next.
type Orchestrator struct {
	adapter  gpucore.GPUAdapter
	cache    gpucore.PipelineCache
	surfaces gpucore.SurfaceProvider
	opts     options

	builder   *bind.Builder
	bundles   *bind.Cache
	registry  *registry.Registry
	scheduler *schedule.Scheduler
	metrics   *metrics.Metrics

	// paramsMu guards the parameter source.
	paramsMu sync.Mutex
	sources  map[gpucore.SurfaceID]source
	removed  map[gpucore.SurfaceID]struct{}

	frameMu sync.Mutex
	frame   uint64
	closed  atomic.Bool
}

// New creates an orchestrator dispatching on adapter with pipelines from
// cache and surface views from surfaces.
func New(adapter gpucore.GPUAdapter, cache gpucore.PipelineCache, surfaces gpucore.SurfaceProvider, opts ...Option) (*Orchestrator, error) {
	switch {
	case adapter == nil:
		return nil, ErrNilAdapter
	case cache == nil:
		return nil, ErrNilCache
	case surfaces == nil:
		return nil, ErrNilSurfaces
	}
	if !adapter.SupportsCompute() {
		return nil, ErrNoCompute
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	limit := adapter.MaxWorkgroupSize()
	if o.workgroupSize > limit[0] || o.workgroupSize > limit[1] {
		return nil, fmt.Errorf("%w: %dx%d exceeds device limit %dx%d",
			ErrWorkgroupSize, o.workgroupSize, o.workgroupSize, limit[0], limit[1])
	}

	builder, err := bind.NewBuilder(adapter)
	if err != nil {
		return nil, fmt.Errorf("computegrid: %w", err)
	}
	bundles, err := bind.NewCache(builder, o.cacheSize, o.framesInFlight)
	if err != nil {
		builder.Close()
		return nil, fmt.Errorf("computegrid: %w", err)
	}

	var m *metrics.Metrics
	if o.metrics {
		m = metrics.New(o.registerer)
	}

	return &Orchestrator{
		adapter:  adapter,
		cache:    cache,
		surfaces: surfaces,
		opts:     o,
		builder:  builder,
		bundles:  bundles,
		registry: registry.New(),
		scheduler: schedule.New(adapter, cache, schedule.Config{
			WorkgroupSize: o.workgroupSize,
			Batched:       o.batched,
			Logger:        slogger,
		}),
		metrics: m,
		sources: make(map[gpucore.SurfaceID]source),
		removed: make(map[gpucore.SurfaceID]struct{}),
	}, nil
}

// WorkgroupSize returns the workgroup edge length programs must declare.
func (o *Orchestrator) WorkgroupSize() uint32 {
	return o.opts.workgroupSize
}

// Program returns the default program.
func (o *Orchestrator) Program() shader.Source {
	return o.opts.program
}

// SetSurface adds a surface or replaces the params of a known one. The
// record is created on the next frame. A surface whose dispatch grid
// exceeds the adapter's limits is rejected.
func (o *Orchestrator) SetSurface(desc SurfaceDesc, params gpucore.SurfaceParams) error {
	if o.closed.Load() {
		return ErrClosed
	}
	if desc.ID == gpucore.InvalidID {
		return fmt.Errorf("%w: zero surface ID", ErrInvalidSurface)
	}
	if desc.Width == 0 || desc.Height == 0 {
		return fmt.Errorf("%w: %v is %dx%d", ErrInvalidSurface, desc.ID, desc.Width, desc.Height)
	}
	limit := o.adapter.MaxComputeWorkgroupsPerDimension()
	if err := schedule.CheckDispatch(desc.Width, desc.Height, o.opts.workgroupSize, limit); err != nil {
		return fmt.Errorf("%w: %v: %w", ErrInvalidSurface, desc.ID, err)
	}
	if desc.Program.IsZero() {
		desc.Program = o.opts.program
	}

	o.paramsMu.Lock()
	defer o.paramsMu.Unlock()
	if cur, ok := o.sources[desc.ID]; ok {
		if cur.desc.Width != desc.Width || cur.desc.Height != desc.Height || cur.desc.Program.WGSL != desc.Program.WGSL {
			return fmt.Errorf("%w: %v", ErrSurfaceImmutable, desc.ID)
		}
	}
	o.sources[desc.ID] = source{desc: desc, params: params}
	return nil
}

// SetParams replaces the params of a known surface. The bind group is
// rebuilt on the next frame; lifecycle state and pipelines are kept.
func (o *Orchestrator) SetParams(id gpucore.SurfaceID, params gpucore.SurfaceParams) error {
	o.paramsMu.Lock()
	defer o.paramsMu.Unlock()
	cur, ok := o.sources[id]
	if !ok {
		return fmt.Errorf("%w: %v", ErrUnknownSurface, id)
	}
	cur.params = params
	o.sources[id] = cur
	return nil
}

// Params returns the params currently set for a surface.
func (o *Orchestrator) Params(id gpucore.SurfaceID) (gpucore.SurfaceParams, bool) {
	o.paramsMu.Lock()
	defer o.paramsMu.Unlock()
	cur, ok := o.sources[id]
	return cur.params, ok
}

// RemoveSurface forgets a surface. Its record and bind resources are
// dropped on the next frame. Setting the same ID again afterwards starts
// a fresh lifecycle.
func (o *Orchestrator) RemoveSurface(id gpucore.SurfaceID) bool {
	o.paramsMu.Lock()
	defer o.paramsMu.Unlock()
	if _, ok := o.sources[id]; !ok {
		return false
	}
	delete(o.sources, id)
	o.removed[id] = struct{}{}
	return true
}

// snapshotSources returns the current sources sorted by surface and the
// surfaces removed since the last frame.
func (o *Orchestrator) snapshotSources() ([]source, []gpucore.SurfaceID) {
	o.paramsMu.Lock()
	defer o.paramsMu.Unlock()

	srcs := make([]source, 0, len(o.sources))
	for _, s := range o.sources {
		srcs = append(srcs, s)
	}
	removed := make([]gpucore.SurfaceID, 0, len(o.removed))
	for id := range o.removed {
		removed = append(removed, id)
	}
	clear(o.removed)

	sort.Slice(srcs, func(i, j int) bool { return srcs[i].desc.ID < srcs[j].desc.ID })
	sort.Slice(removed, func(i, j int) bool { return removed[i] < removed[j] })
	return srcs, removed
}

// frameState collects the per-frame bookkeeping of Frame.
type frameState struct {
	stats    FrameStats
	skip     map[gpucore.SurfaceID]bool
	failures []*Failure
}

func (f *frameState) fail(failure *Failure) {
	f.failures = append(f.failures, failure)
}

// Frame runs one frame: it builds or reuses bind resources for every
// surface, advances each lifecycle by at most one step and records the
// dispatches of ready surfaces. Frame does not submit; the caller submits
// the recorded work on its adapter.
func (o *Orchestrator) Frame() (FrameStats, error) {
	o.frameMu.Lock()
	defer o.frameMu.Unlock()
	if o.closed.Load() {
		return FrameStats{}, ErrClosed
	}

	o.frame++
	fs := &frameState{
		stats: FrameStats{Frame: o.frame},
		skip:  make(map[gpucore.SurfaceID]bool),
	}
	fs.stats.Released = o.bundles.Advance()

	srcs, removed := o.snapshotSources()
	for _, id := range removed {
		if rec, ok := o.registry.Remove(id); ok {
			o.bundles.Drop(id)
			slogger().Info("computegrid: surface removed", "surface", id, "state", rec.State)
		}
	}
	o.bundles.EnsureCapacity(len(srcs))

	for i := range srcs {
		o.prepare(&srcs[i], fs)
	}
	o.advance(fs)

	snapshot := o.registry.Snapshot()
	fs.stats.Targets = len(snapshot)
	ready := snapshot[:0]
	for _, rec := range snapshot {
		if !fs.skip[rec.Surface] {
			ready = append(ready, rec)
		}
	}

	res := o.scheduler.Dispatch(ready)
	fs.stats.Init = res.Init
	fs.stats.Update = res.Update
	fs.stats.Passes = res.Passes
	fs.stats.Violations = res.Violations

	o.metrics.Dispatched(lifecycle.Init, res.Init)
	o.metrics.Dispatched(lifecycle.Update, res.Update)
	o.metrics.Violated(res.Violations)
	o.report(fs)
	o.metrics.Frame(o.registry.CountByState())

	return fs.stats, nil
}

// prepare materializes the record and bind bundle of one surface.
func (o *Orchestrator) prepare(src *source, fs *frameState) {
	id := src.desc.ID
	rec, exists := o.registry.Get(id)
	if exists && rec.State == lifecycle.Failed {
		return
	}

	if !exists {
		if err := bind.CheckProgram(id, src.desc.Program, o.opts.workgroupSize); err != nil {
			o.registry.Upsert(registry.Record{
				Surface: id,
				Label:   src.desc.Label,
				Width:   src.desc.Width,
				Height:  src.desc.Height,
				State:   lifecycle.Failed,
				Failure: err,
			})
			fs.stats.Created++
			fs.fail(&Failure{Surface: id, Kind: FailureLayout, Err: err})
			return
		}
	}

	view, ok := o.surfaces.ResolveView(id)
	if !ok {
		fs.stats.Skipped++
		fs.skip[id] = true
		slogger().Debug("computegrid: surface view not resolved, skipping", "surface", id)
		return
	}

	bundle, rebuilt, err := o.bundles.Acquire(id, view, src.params)
	if err != nil {
		fs.stats.Skipped++
		fs.skip[id] = true
		fs.fail(&Failure{Surface: id, Kind: FailureBind, Err: err})
		return
	}
	if rebuilt {
		fs.stats.Rebuilt++
		o.metrics.Rebuilt()
	}

	if exists {
		o.registry.Upsert(registry.Record{Surface: id, Bundle: bundle})
		return
	}

	o.registry.Upsert(registry.Record{
		Surface:        id,
		Label:          src.desc.Label,
		Width:          src.desc.Width,
		Height:         src.desc.Height,
		Bundle:         bundle,
		InitPipeline:   o.cache.RequestCompute(pipelineRequest(src.desc.Program, shader.InitEntryPoint)),
		UpdatePipeline: o.cache.RequestCompute(pipelineRequest(src.desc.Program, shader.UpdateEntryPoint)),
		State:          lifecycle.Loading,
	})
	fs.stats.Created++
	slogger().Info("computegrid: surface created", "surface", id, "label", src.desc.Label,
		"width", src.desc.Width, "height", src.desc.Height, "program", src.desc.Program.Name)
}

func pipelineRequest(src shader.Source, entryPoint string) *gpucore.ComputePipelineRequest {
	return &gpucore.ComputePipelineRequest{
		Label:      src.Name + "/" + entryPoint,
		ShaderName: src.Name,
		WGSL:       src.WGSL,
		EntryPoint: entryPoint,
		Layout:     gpucore.SurfaceBindGroupLayout(),
	}
}

// advance takes one lifecycle step for every record.
func (o *Orchestrator) advance(fs *frameState) {
	for _, id := range o.registry.IDs() {
		var step lifecycle.Step
		o.registry.Update(id, func(rec *registry.Record) {
			step = lifecycle.Advance(rec.State, rec.InitPipeline, rec.UpdatePipeline, o.cache)
			if !step.Changed() {
				return
			}
			rec.State = step.To
			if step.To == lifecycle.Failed {
				rec.Failure = step.Err
				rec.Bundle = bind.Bundle{}
			}
		})
		if !step.Changed() {
			continue
		}

		fs.stats.Transitions++
		o.metrics.Transitioned(step.To)
		slogger().Debug("computegrid: lifecycle step", "surface", id, "from", step.From, "to", step.To)

		if step.To == lifecycle.Failed {
			o.bundles.Drop(id)
			fs.fail(&Failure{Surface: id, Kind: FailureCompile, EntryPoint: step.EntryPoint, Err: step.Err})
		}
	}
}

// report logs and forwards the failures of a frame.
func (o *Orchestrator) report(fs *frameState) {
	for _, f := range fs.failures {
		fs.stats.Failures++
		o.metrics.Failed(f.Kind.String())
		slogger().Warn("computegrid: surface failed",
			"surface", f.Surface, "kind", f.Kind, "entry_point", f.EntryPoint,
			"permanent", f.Kind.Permanent(), "error", f.Err)
		if o.opts.reporter != nil {
			o.opts.reporter(f)
		}
	}
}

// Target returns the record of a surface. Surfaces set but not yet
// observed by a frame have no record.
func (o *Orchestrator) Target(id gpucore.SurfaceID) (Target, bool) {
	rec, ok := o.registry.Get(id)
	if !ok {
		return Target{}, false
	}
	return targetOf(&rec), true
}

// Targets returns every record sorted by surface.
func (o *Orchestrator) Targets() []Target {
	snapshot := o.registry.Snapshot()
	out := make([]Target, len(snapshot))
	for i := range snapshot {
		out[i] = targetOf(&snapshot[i])
	}
	return out
}

// State returns the lifecycle state of a surface.
func (o *Orchestrator) State(id gpucore.SurfaceID) (State, bool) {
	rec, ok := o.registry.Get(id)
	return rec.State, ok
}

func targetOf(rec *registry.Record) Target {
	return Target{
		Surface: rec.Surface,
		Label:   rec.Label,
		Width:   rec.Width,
		Height:  rec.Height,
		State:   rec.State,
		Failure: rec.Failure,
	}
}

// Close waits for the adapter to go idle and destroys every bind resource
// the orchestrator created. The pipeline cache and adapter stay open.
func (o *Orchestrator) Close() {
	o.frameMu.Lock()
	defer o.frameMu.Unlock()
	if o.closed.Swap(true) {
		return
	}
	o.adapter.WaitIdle()
	o.bundles.Close()
	o.builder.Close()
}
