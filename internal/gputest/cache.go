// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gputest

import (
	"sync"

	"github.com/gogpu/computegrid/gpucore"
)

// Cache is a gpucore.PipelineCache whose results are scripted by the test.
// Every request starts pending and stays so until Complete or Fail.
type Cache struct {
	mu       sync.Mutex
	next     gpucore.PipelineHandle
	entries  map[gpucore.PipelineHandle]*cacheEntry
	requests []gpucore.ComputePipelineRequest
}

type cacheEntry struct {
	req      gpucore.ComputePipelineRequest
	status   gpucore.PipelineStatus
	pipeline gpucore.ComputePipelineID
	err      error
	polls    int
}

// NewCache returns an empty scripted cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[gpucore.PipelineHandle]*cacheEntry)}
}

var _ gpucore.PipelineCache = (*Cache)(nil)

// RequestCompute implements gpucore.PipelineCache.
func (c *Cache) RequestCompute(req *gpucore.ComputePipelineRequest) gpucore.PipelineHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next++
	c.entries[c.next] = &cacheEntry{req: *req}
	c.requests = append(c.requests, *req)
	return c.next
}

// PipelineStatus implements gpucore.PipelineCache.
func (c *Cache) PipelineStatus(h gpucore.PipelineHandle) gpucore.PipelineStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[h]
	if !ok {
		return gpucore.PipelineStatusPending
	}
	e.polls++
	return e.status
}

// ComputePipeline implements gpucore.PipelineCache.
func (c *Cache) ComputePipeline(h gpucore.PipelineHandle) (gpucore.ComputePipelineID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[h]
	if !ok || e.status != gpucore.PipelineStatusReady || e.pipeline == gpucore.InvalidID {
		return gpucore.InvalidID, false
	}
	return e.pipeline, true
}

// PipelineError implements gpucore.PipelineCache.
func (c *Cache) PipelineError(h gpucore.PipelineHandle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[h]; ok {
		return e.err
	}
	return nil
}

// PipelineID is the pipeline ID Complete assigns to h.
func PipelineID(h gpucore.PipelineHandle) gpucore.ComputePipelineID {
	return gpucore.ComputePipelineID(1000 + uint64(h))
}

// Complete marks h ready with pipeline PipelineID(h).
func (c *Cache) Complete(h gpucore.PipelineHandle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[h]; ok {
		e.status = gpucore.PipelineStatusReady
		e.pipeline = PipelineID(h)
		e.err = nil
	}
}

// Fail marks h failed with err.
func (c *Cache) Fail(h gpucore.PipelineHandle, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[h]; ok {
		e.status = gpucore.PipelineStatusFailed
		e.pipeline = gpucore.InvalidID
		e.err = err
	}
}

// Revoke withdraws the compiled pipeline of h while leaving its reported
// status untouched, simulating a cache that answers inconsistently.
func (c *Cache) Revoke(h gpucore.PipelineHandle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[h]; ok {
		e.pipeline = gpucore.InvalidID
	}
}

// CompleteAll marks every known request ready.
func (c *Cache) CompleteAll() {
	c.mu.Lock()
	handles := make([]gpucore.PipelineHandle, 0, len(c.entries))
	for h := range c.entries {
		handles = append(handles, h)
	}
	c.mu.Unlock()
	for _, h := range handles {
		c.Complete(h)
	}
}

// Requests returns every request in arrival order.
func (c *Cache) Requests() []gpucore.ComputePipelineRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]gpucore.ComputePipelineRequest(nil), c.requests...)
}

// Polls returns how many times the status of h was queried.
func (c *Cache) Polls(h gpucore.PipelineHandle) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[h]; ok {
		return e.polls
	}
	return 0
}
