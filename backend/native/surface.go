// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package native

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/computegrid/gpucore"
)

// surfaceTexture is the storage image behind a surface.
type surfaceTexture struct {
	texture gpucore.TextureID
	view    gpucore.TextureViewID
	width   uint32
	height  uint32
}

// CreateSurfaceTexture creates the storage image for surface: an rgba8unorm
// 2D texture with gpucore.SurfaceTextureUsage and a full view of it. The
// surface then resolves through ResolveView. Creating a surface that
// already exists replaces its texture.
func (a *HALAdapter) CreateSurfaceTexture(surface gpucore.SurfaceID, width, height uint32) (gpucore.TextureViewID, error) {
	if width == 0 || height == 0 {
		return gpucore.InvalidID, fmt.Errorf("%w: surface %v is %dx%d", ErrInvalidSize, surface, width, height)
	}

	label := surface.String()
	format := convertTextureFormat(gpucore.SurfaceImageFormat)
	texture, err := a.device.CreateTexture(&hal.TextureDescriptor{
		Label: label,
		Size: hal.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         convertTextureUsage(gpucore.SurfaceTextureUsage),
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("native: create texture for %v: %w", surface, err)
	}

	view, err := a.device.CreateTextureView(texture, &hal.TextureViewDescriptor{
		Label:         label + "_view",
		Format:        format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		a.device.DestroyTexture(texture)
		return gpucore.InvalidID, fmt.Errorf("native: create texture view for %v: %w", surface, err)
	}

	st := surfaceTexture{
		texture: gpucore.TextureID(a.newID()),
		view:    gpucore.TextureViewID(a.newID()),
		width:   width,
		height:  height,
	}

	a.mu.Lock()
	old, replaced := a.surfaces[surface]
	a.textures[st.texture] = texture
	a.views[st.view] = view
	a.surfaces[surface] = st
	a.mu.Unlock()

	if replaced {
		a.destroySurfaceTexture(old)
	}
	slogger().Debug("native: surface texture created", "surface", surface, "width", width, "height", height)
	return st.view, nil
}

// ResolveView implements gpucore.SurfaceProvider.
func (a *HALAdapter) ResolveView(surface gpucore.SurfaceID) (gpucore.TextureViewID, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	st, ok := a.surfaces[surface]
	return st.view, ok
}

// SurfaceSize returns the dimensions a surface texture was created with.
func (a *HALAdapter) SurfaceSize(surface gpucore.SurfaceID) (width, height uint32, ok bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	st, ok := a.surfaces[surface]
	return st.width, st.height, ok
}

// DestroySurfaceTexture releases the texture of surface. The surface no
// longer resolves afterwards.
func (a *HALAdapter) DestroySurfaceTexture(surface gpucore.SurfaceID) {
	a.mu.Lock()
	st, ok := a.surfaces[surface]
	delete(a.surfaces, surface)
	a.mu.Unlock()

	if ok {
		a.destroySurfaceTexture(st)
	}
}

func (a *HALAdapter) destroySurfaceTexture(st surfaceTexture) {
	a.mu.Lock()
	view, viewOK := a.views[st.view]
	texture, texOK := a.textures[st.texture]
	delete(a.views, st.view)
	delete(a.textures, st.texture)
	a.mu.Unlock()

	if viewOK {
		a.device.DestroyTextureView(view)
	}
	if texOK {
		a.device.DestroyTexture(texture)
	}
}
