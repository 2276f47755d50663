// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gputest

import (
	"sync"

	"github.com/gogpu/computegrid/gpucore"
)

// Surfaces is a gpucore.SurfaceProvider backed by a map. Surfaces without
// a view resolve as not ready.
type Surfaces struct {
	mu    sync.Mutex
	views map[gpucore.SurfaceID]gpucore.TextureViewID
}

// NewSurfaces returns an empty provider.
func NewSurfaces() *Surfaces {
	return &Surfaces{views: make(map[gpucore.SurfaceID]gpucore.TextureViewID)}
}

var _ gpucore.SurfaceProvider = (*Surfaces)(nil)

// SetView resolves id to view. A zero view makes id unresolved again.
func (s *Surfaces) SetView(id gpucore.SurfaceID, view gpucore.TextureViewID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if view == gpucore.InvalidID {
		delete(s.views, id)
		return
	}
	s.views[id] = view
}

// ResolveView implements gpucore.SurfaceProvider.
func (s *Surfaces) ResolveView(id gpucore.SurfaceID) (gpucore.TextureViewID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.views[id]
	return v, ok
}
