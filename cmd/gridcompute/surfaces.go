// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/computegrid"
	"github.com/gogpu/computegrid/gpucore"
	"github.com/gogpu/computegrid/shader"
)

var errTextureInFlight = errors.New("previous texture of this surface is still in flight")

// textureHost owns the storage textures the surfaces write to.
type textureHost interface {
	CreateSurfaceTexture(id gpucore.SurfaceID, width, height uint32) (gpucore.TextureViewID, error)
	DestroySurfaceTexture(id gpucore.SurfaceID)
}

type doomedTexture struct {
	id            gpucore.SurfaceID
	width, height uint32
	frame         uint64
}

// surfaceSet keeps the orchestrator's surfaces in line with the config.
type surfaceSet struct {
	orch   *computegrid.Orchestrator
	host   textureHost
	delay  uint64
	logger *slog.Logger

	active map[gpucore.SurfaceID]SurfaceConfig
	doomed []doomedTexture
}

// newSurfaceSet returns a set whose removed textures outlive their
// surface by framesInFlight frames.
func newSurfaceSet(orch *computegrid.Orchestrator, host textureHost, framesInFlight int, logger *slog.Logger) *surfaceSet {
	return &surfaceSet{
		orch:   orch,
		host:   host,
		delay:  uint64(max(framesInFlight, 0)) + 1,
		logger: logger,
		active: make(map[gpucore.SurfaceID]SurfaceConfig),
	}
}

// apply adds new surfaces, updates the params of known ones and removes
// surfaces missing from cfgs. frame is the last frame run. A surface that
// changes size or program is rejected and keeps its current setup.
func (s *surfaceSet) apply(cfgs []SurfaceConfig, frame uint64) error {
	var errs []error
	keep := make(map[gpucore.SurfaceID]bool, len(cfgs))

	for _, c := range cfgs {
		id := gpucore.SurfaceID(c.ID)
		keep[id] = true
		if err := s.set(id, c); err != nil {
			errs = append(errs, err)
		}
	}

	for id := range s.active {
		if keep[id] {
			continue
		}
		c := s.active[id]
		s.orch.RemoveSurface(id)
		delete(s.active, id)
		s.doomed = append(s.doomed, doomedTexture{id: id, width: c.Width, height: c.Height, frame: frame})
		s.logger.Info("surface removed from config", "surface", id)
	}
	return errors.Join(errs...)
}

func (s *surfaceSet) set(id gpucore.SurfaceID, c SurfaceConfig) error {
	cur, known := s.active[id]
	if known && cur.Width == c.Width && cur.Height == c.Height && cur.Program == c.Program {
		if cur.Params() == c.Params() {
			return nil
		}
		if err := s.orch.SetParams(id, c.Params()); err != nil {
			return err
		}
		s.active[id] = c
		s.logger.Info("surface params changed", "surface", id, "scale", c.Scale, "offset", c.Offset)
		return nil
	}

	var program shader.Source
	if c.Program != "" {
		var err error
		if program, err = shader.Resolve(c.Program); err != nil {
			return fmt.Errorf("surface %d: %w", c.ID, err)
		}
	}
	desc := computegrid.SurfaceDesc{ID: id, Width: c.Width, Height: c.Height, Label: c.Label, Program: program}
	if err := s.orch.SetSurface(desc, c.Params()); err != nil {
		return err
	}
	if known {
		// SetSurface accepted an unchanged size and program.
		s.active[id] = c
		return nil
	}
	if err := s.texture(id, c); err != nil {
		s.orch.RemoveSurface(id)
		return fmt.Errorf("surface %d: %w", c.ID, err)
	}
	s.active[id] = c
	return nil
}

// texture creates the texture of a new surface. A surface removed and
// added back before its old texture was released takes the old texture
// when the size matches.
func (s *surfaceSet) texture(id gpucore.SurfaceID, c SurfaceConfig) error {
	for i, d := range s.doomed {
		if d.id != id {
			continue
		}
		if d.width != c.Width || d.height != c.Height {
			return errTextureInFlight
		}
		s.doomed = append(s.doomed[:i], s.doomed[i+1:]...)
		return nil
	}
	_, err := s.host.CreateSurfaceTexture(id, c.Width, c.Height)
	return err
}

// due reports whether a removed texture can be destroyed after frame.
func (s *surfaceSet) due(frame uint64) bool {
	return len(s.doomed) > 0 && frame >= s.doomed[0].frame+s.delay
}

// release destroys the textures of surfaces removed long enough before
// frame. The caller must have waited for the GPU.
func (s *surfaceSet) release(frame uint64) int {
	n := 0
	for n < len(s.doomed) && frame >= s.doomed[n].frame+s.delay {
		s.host.DestroySurfaceTexture(s.doomed[n].id)
		n++
	}
	s.doomed = s.doomed[n:]
	return n
}

// Len returns the number of configured surfaces.
func (s *surfaceSet) Len() int {
	return len(s.active)
}
