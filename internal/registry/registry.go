// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package registry tracks one compute target record per surface.
//
// Readers never see a record while it is being mutated: Get and Snapshot
// return copies, and all mutation happens through Upsert, Update and
// Remove under the write lock.
package registry

import (
	"sort"
	"sync"

	"github.com/gogpu/computegrid/gpucore"
	"github.com/gogpu/computegrid/internal/bind"
	"github.com/gogpu/computegrid/internal/lifecycle"
)

// Record is the state of one compute target.
type Record struct {
	Surface gpucore.SurfaceID
	Label   string
	Width   uint32
	Height  uint32

	// Bundle is the bind resource set dispatched this frame. It may be
	// replaced any frame.
	Bundle bind.Bundle

	// InitPipeline and UpdatePipeline are requested once when the record
	// is created and never change afterwards.
	InitPipeline   gpucore.PipelineHandle
	UpdatePipeline gpucore.PipelineHandle

	State lifecycle.State

	// Failure is the error that moved the record to Failed.
	Failure error
}

// Registry maps surfaces to their records.
//
// Thread safety: Registry is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	records map[gpucore.SurfaceID]*Record
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{records: make(map[gpucore.SurfaceID]*Record)}
}

// Upsert inserts rec when its surface is unknown and reports true.
// Otherwise it merges rec's bundle into the existing record, keeping the
// existing lifecycle state, failure and pipeline handles, and reports false.
func (r *Registry) Upsert(rec Record) (created bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.records[rec.Surface]; ok {
		cur.Bundle = rec.Bundle
		return false
	}
	stored := rec
	r.records[rec.Surface] = &stored
	return true
}

// Get returns a copy of the record for id.
func (r *Registry) Get(id gpucore.SurfaceID) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// Snapshot returns copies of every record sorted by surface.
func (r *Registry) Snapshot() []Record {
	r.mu.RLock()
	out := make([]Record, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, *rec)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Surface < out[j].Surface })
	return out
}

// Update calls fn with the record for id under the write lock and reports
// whether the record exists. fn must not change the surface or the
// pipeline handles.
func (r *Registry) Update(id gpucore.SurfaceID, fn func(rec *Record)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return false
	}
	surface, initH, updateH := rec.Surface, rec.InitPipeline, rec.UpdatePipeline
	fn(rec)
	rec.Surface, rec.InitPipeline, rec.UpdatePipeline = surface, initH, updateH
	return true
}

// Remove deletes the record for id and returns it.
func (r *Registry) Remove(id gpucore.SurfaceID) (Record, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[id]
	if !ok {
		return Record{}, false
	}
	delete(r.records, id)
	return *rec, true
}

// Len returns the number of records.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// IDs returns the registered surfaces in ascending order.
func (r *Registry) IDs() []gpucore.SurfaceID {
	r.mu.RLock()
	ids := make([]gpucore.SurfaceID, 0, len(r.records))
	for id := range r.records {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// CountByState returns how many records are in each state.
func (r *Registry) CountByState() map[lifecycle.State]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[lifecycle.State]int, 4)
	for _, rec := range r.records {
		counts[rec.State]++
	}
	return counts
}
