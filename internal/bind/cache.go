// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bind

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gogpu/computegrid/gpucore"
)

// Cache defaults.
const (
	DefaultCacheSize      = 64
	DefaultFramesInFlight = 2
)

type retired struct {
	bundle Bundle
	frame  uint64
}

// Cache keeps one bundle per surface and rebuilds it only when the
// surface's view or params change.
//
// Bundles that are replaced, evicted or dropped are not destroyed at once:
// the GPU may still be executing work recorded against them. They are
// released by Advance once framesInFlight frames have passed.
//
// Cache is driven from the frame loop and is not safe for concurrent use.
type Cache struct {
	builder        *Builder
	bundles        *lru.Cache[gpucore.SurfaceID, Bundle]
	size           int
	framesInFlight uint64
	frame          uint64
	retired        []retired
	rebuilds       uint64
}

// NewCache returns a cache holding up to size bundles.
// A size <= 0 selects DefaultCacheSize and framesInFlight < 0 selects
// DefaultFramesInFlight.
func NewCache(builder *Builder, size, framesInFlight int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if framesInFlight < 0 {
		framesInFlight = DefaultFramesInFlight
	}
	c := &Cache{
		builder:        builder,
		size:           size,
		framesInFlight: uint64(framesInFlight),
	}
	bundles, err := lru.NewWithEvict[gpucore.SurfaceID, Bundle](size, c.onEvict)
	if err != nil {
		return nil, fmt.Errorf("bind: bundle cache: %w", err)
	}
	c.bundles = bundles
	return c, nil
}

func (c *Cache) onEvict(_ gpucore.SurfaceID, b Bundle) {
	c.retire(b)
}

func (c *Cache) retire(b Bundle) {
	if b.IsZero() {
		return
	}
	c.retired = append(c.retired, retired{bundle: b, frame: c.frame})
}

// Acquire returns the bundle for surface, building a new one when none is
// cached or the cached one was built from another view or params.
// rebuilt reports whether a new bundle was built.
func (c *Cache) Acquire(surface gpucore.SurfaceID, view gpucore.TextureViewID, params gpucore.SurfaceParams) (b Bundle, rebuilt bool, err error) {
	cur, ok := c.bundles.Get(surface)
	if ok && cur.View == view && cur.Params == params {
		return cur, false, nil
	}

	nb, err := c.builder.Build(surface, view, params)
	if err != nil {
		return Bundle{}, false, err
	}
	if ok {
		c.retire(cur)
	}
	c.bundles.Add(surface, nb)
	c.rebuilds++
	return nb, true, nil
}

// Peek returns the cached bundle of surface without touching recency.
func (c *Cache) Peek(surface gpucore.SurfaceID) (Bundle, bool) {
	return c.bundles.Peek(surface)
}

// Drop retires the bundle of surface.
func (c *Cache) Drop(surface gpucore.SurfaceID) {
	c.bundles.Remove(surface)
}

// EnsureCapacity grows the cache so that n surfaces fit without eviction.
func (c *Cache) EnsureCapacity(n int) {
	if n > c.size {
		c.size = n
		c.bundles.Resize(n)
	}
}

// Advance starts a new frame and releases every retired bundle that is
// at least framesInFlight frames old. It returns the number released.
func (c *Cache) Advance() int {
	c.frame++
	kept := c.retired[:0]
	released := 0
	for _, r := range c.retired {
		if c.frame-r.frame >= c.framesInFlight {
			c.builder.Release(r.bundle)
			released++
			continue
		}
		kept = append(kept, r)
	}
	clear(c.retired[len(kept):])
	c.retired = kept
	return released
}

// Len returns the number of cached bundles.
func (c *Cache) Len() int {
	return c.bundles.Len()
}

// Retired returns the number of bundles awaiting release.
func (c *Cache) Retired() int {
	return len(c.retired)
}

// Rebuilds returns the number of bundles built so far.
func (c *Cache) Rebuilds() uint64 {
	return c.rebuilds
}

// Close releases every cached and retired bundle immediately. The caller
// must make sure the GPU is idle first.
func (c *Cache) Close() {
	c.bundles.Purge()
	for _, r := range c.retired {
		c.builder.Release(r.bundle)
	}
	c.retired = nil
}
