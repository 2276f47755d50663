// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package schedule records the per-frame compute dispatches of every
// dispatchable target.
package schedule

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/computegrid/gpucore"
	"github.com/gogpu/computegrid/internal/lifecycle"
	"github.com/gogpu/computegrid/internal/registry"
)

// DefaultWorkgroupSize is the workgroup edge length of the bundled programs.
const DefaultWorkgroupSize = 8

// ErrDispatchTooLarge is returned when a surface needs more workgroups in
// one dimension than the device allows.
var ErrDispatchTooLarge = errors.New("schedule: dispatch exceeds device workgroup limit")

// WorkgroupCount returns the 2D grid covering a width x height surface
// with size x size workgroups, rounding up so edge pixels are covered.
func WorkgroupCount(width, height, size uint32) (x, y, z uint32) {
	return ceilDiv(width, size), ceilDiv(height, size), 1
}

// ceilDiv returns n / d rounded up, for any n up to MaxUint32.
func ceilDiv(n, d uint32) uint32 {
	q := n / d
	if n%d != 0 {
		q++
	}
	return q
}

// CheckDispatch reports ErrDispatchTooLarge when the grid for a
// width x height surface exceeds limit groups per dimension.
func CheckDispatch(width, height, size, limit uint32) error {
	x, y, _ := WorkgroupCount(width, height, size)
	if limit > 0 && (x > limit || y > limit) {
		return fmt.Errorf("%w: %dx%d needs %dx%d groups, limit %d", ErrDispatchTooLarge, width, height, x, y, limit)
	}
	return nil
}

// Config configures a Scheduler.
type Config struct {
	// WorkgroupSize is the workgroup edge length. 0 selects DefaultWorkgroupSize.
	WorkgroupSize uint32

	// Batched records every dispatch of a frame into a single compute pass
	// instead of one pass per target.
	Batched bool

	// Logger returns the logger to report to. nil disables logging.
	Logger func() *slog.Logger
}

// Result summarizes one Dispatch.
type Result struct {
	// Init and Update count dispatches per pipeline stage.
	Init   int
	Update int

	// Passes is the number of compute passes begun.
	Passes int

	// Violations counts dispatchable targets whose pipeline was not ready.
	Violations int
}

// Dispatched returns the total number of dispatches.
func (r Result) Dispatched() int {
	return r.Init + r.Update
}

// Scheduler records dispatches for registry snapshots.
type Scheduler struct {
	adapter gpucore.GPUAdapter
	cache   gpucore.PipelineCache
	cfg     Config

	violations atomic.Uint64
}

// New returns a scheduler dispatching on adapter with pipelines from cache.
func New(adapter gpucore.GPUAdapter, cache gpucore.PipelineCache, cfg Config) *Scheduler {
	if cfg.WorkgroupSize == 0 {
		cfg.WorkgroupSize = DefaultWorkgroupSize
	}
	return &Scheduler{adapter: adapter, cache: cache, cfg: cfg}
}

// WorkgroupSize returns the workgroup edge length in use.
func (s *Scheduler) WorkgroupSize() uint32 {
	return s.cfg.WorkgroupSize
}

// Violations returns the number of not-ready dispatches refused so far.
func (s *Scheduler) Violations() uint64 {
	return s.violations.Load()
}

func (s *Scheduler) logger() *slog.Logger {
	if s.cfg.Logger == nil {
		return nil
	}
	return s.cfg.Logger()
}

type job struct {
	rec      *registry.Record
	pipeline gpucore.ComputePipelineID
	x, y, z  uint32
}

// Dispatch records one dispatch per dispatchable record of snapshot.
// A record whose pipeline is not ready is skipped and counted as a
// violation; it never reaches the device.
func (s *Scheduler) Dispatch(snapshot []registry.Record) Result {
	var res Result
	jobs := make([]job, 0, len(snapshot))

	for i := range snapshot {
		rec := &snapshot[i]
		h, ok := rec.State.Pipeline(rec.InitPipeline, rec.UpdatePipeline)
		if !ok {
			continue
		}
		if rec.Bundle.IsZero() {
			if l := s.logger(); l != nil {
				l.Debug("schedule: no bind bundle, skipping", "surface", rec.Surface)
			}
			continue
		}

		status := s.cache.PipelineStatus(h)
		pipeline, ready := s.cache.ComputePipeline(h)
		if status != gpucore.PipelineStatusReady || !ready {
			res.Violations++
			s.violations.Add(1)
			if l := s.logger(); l != nil {
				l.Error("schedule: refusing dispatch of pipeline that is not ready",
					"surface", rec.Surface, "state", rec.State, "entry_point", rec.State.EntryPoint(), "status", status)
			}
			continue
		}

		x, y, z := WorkgroupCount(rec.Width, rec.Height, s.cfg.WorkgroupSize)
		if limit := s.adapter.MaxComputeWorkgroupsPerDimension(); limit > 0 && (x > limit || y > limit) {
			if l := s.logger(); l != nil {
				l.Error("schedule: dispatch exceeds device limit", "surface", rec.Surface, "x", x, "y", y, "limit", limit)
			}
			continue
		}
		jobs = append(jobs, job{rec: rec, pipeline: pipeline, x: x, y: y, z: z})
	}

	if len(jobs) == 0 {
		return res
	}

	var pass gpucore.ComputePassEncoder
	for _, j := range jobs {
		if pass == nil || !s.cfg.Batched {
			if pass != nil {
				pass.End()
			}
			pass = s.adapter.BeginComputePass()
			res.Passes++
		}
		pass.SetPipeline(j.pipeline)
		pass.SetBindGroup(0, j.rec.Bundle.BindGroup)
		pass.Dispatch(j.x, j.y, j.z)

		if j.rec.State == lifecycle.Init {
			res.Init++
		} else {
			res.Update++
		}
	}
	pass.End()

	return res
}
