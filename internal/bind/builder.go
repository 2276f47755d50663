// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package bind materializes the per-surface GPU binding resources: a
// uniform buffer holding the surface params and a bind group pairing it
// with the surface's storage view.
package bind

import (
	"errors"
	"fmt"

	"github.com/gogpu/computegrid/gpucore"
)

// Sentinel errors.
var (
	// ErrViewUnresolved is returned when a surface has no view yet.
	ErrViewUnresolved = errors.New("bind: surface view not resolved")

	// ErrBuild wraps device failures while building a bundle.
	ErrBuild = errors.New("bind: build failed")
)

// Bundle is the bind resource set of one surface.
type Bundle struct {
	BindGroup gpucore.BindGroupID
	Uniform   gpucore.BufferID
	View      gpucore.TextureViewID

	// Params is the block the uniform buffer was filled with.
	Params gpucore.SurfaceParams
}

// IsZero reports whether b holds no resources.
func (b Bundle) IsZero() bool {
	return b.BindGroup == gpucore.InvalidID
}

// Builder creates bundles against the fixed surface layout.
type Builder struct {
	adapter gpucore.GPUAdapter
	layout  gpucore.BindGroupLayoutID
}

// NewBuilder creates the surface bind group layout on adapter.
func NewBuilder(adapter gpucore.GPUAdapter) (*Builder, error) {
	layout, err := adapter.CreateBindGroupLayout(gpucore.SurfaceBindGroupLayout())
	if err != nil {
		return nil, fmt.Errorf("%w: bind group layout: %w", ErrBuild, err)
	}
	return &Builder{adapter: adapter, layout: layout}, nil
}

// Layout returns the bind group layout every bundle is created with.
func (b *Builder) Layout() gpucore.BindGroupLayoutID {
	return b.layout
}

// Build allocates a uniform buffer filled with params and a bind group
// binding view at slot 0 and the buffer at slot 1.
func (b *Builder) Build(surface gpucore.SurfaceID, view gpucore.TextureViewID, params gpucore.SurfaceParams) (Bundle, error) {
	if view == gpucore.InvalidID {
		return Bundle{}, fmt.Errorf("%w: %v", ErrViewUnresolved, surface)
	}

	buf, err := b.adapter.CreateBuffer(gpucore.SurfaceParamsSize, gpucore.BufferUsageUniform|gpucore.BufferUsageCopyDst)
	if err != nil {
		return Bundle{}, fmt.Errorf("%w: %v uniform buffer: %w", ErrBuild, surface, err)
	}
	b.adapter.WriteBuffer(buf, 0, params.Bytes())

	group, err := b.adapter.CreateBindGroup(b.layout, []gpucore.BindGroupEntry{
		{Binding: gpucore.SurfaceImageBinding, TextureView: view},
		{Binding: gpucore.SurfaceParamsBinding, Buffer: buf, Offset: 0, Size: gpucore.SurfaceParamsSize},
	})
	if err != nil {
		b.adapter.DestroyBuffer(buf)
		return Bundle{}, fmt.Errorf("%w: %v bind group: %w", ErrBuild, surface, err)
	}

	return Bundle{BindGroup: group, Uniform: buf, View: view, Params: params}, nil
}

// Release destroys the resources of bundle.
func (b *Builder) Release(bundle Bundle) {
	if bundle.BindGroup != gpucore.InvalidID {
		b.adapter.DestroyBindGroup(bundle.BindGroup)
	}
	if bundle.Uniform != gpucore.InvalidID {
		b.adapter.DestroyBuffer(bundle.Uniform)
	}
}

// Close destroys the bind group layout. Bundles must be released first.
func (b *Builder) Close() {
	if b.layout != gpucore.InvalidID {
		b.adapter.DestroyBindGroupLayout(b.layout)
		b.layout = gpucore.InvalidID
	}
}
