// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/gogpu/computegrid/backend"
	"github.com/gogpu/computegrid/gpucore"
	"github.com/gogpu/computegrid/shader"
)

var errConfig = errors.New("gridcompute: invalid config")

// backendAuto selects the best registered backend.
const backendAuto = "auto"

// Config is the TOML configuration of the command.
type Config struct {
	// Backend is "auto" or a registered backend name.
	Backend string `toml:"backend"`

	// Frames is the number of frames to run. 0 runs until interrupted.
	Frames int `toml:"frames"`

	// IntervalMS is the pause between frames in milliseconds.
	IntervalMS int `toml:"interval_ms"`

	// Program is the default program: a bundled name or a .wgsl path.
	Program string `toml:"program"`

	WorkgroupSize  uint32 `toml:"workgroup_size"`
	FramesInFlight int    `toml:"frames_in_flight"`
	Workers        int    `toml:"workers"`
	Batched        bool   `toml:"batched"`

	LogLevel    string `toml:"log_level"`
	MetricsAddr string `toml:"metrics_addr"`

	Surfaces []SurfaceConfig `toml:"surface"`
}

// SurfaceConfig is one [[surface]] table.
type SurfaceConfig struct {
	ID      uint64     `toml:"id"`
	Label   string     `toml:"label"`
	Width   uint32     `toml:"width"`
	Height  uint32     `toml:"height"`
	Program string     `toml:"program"`
	Scale   float64    `toml:"scale"`
	Offset  [2]float64 `toml:"offset"`
}

// Params returns the uniform params of the surface.
func (s *SurfaceConfig) Params() gpucore.SurfaceParams {
	return gpucore.SurfaceParams{Scale: s.Scale, Offset: s.Offset}
}

// defaultConfig mirrors two views of one fractal side by side.
func defaultConfig() Config {
	return Config{
		Backend:        "noop",
		Frames:         120,
		IntervalMS:     16,
		Program:        shader.Mandelbrot,
		WorkgroupSize:  8,
		FramesInFlight: 2,
		LogLevel:       "info",
		Surfaces: []SurfaceConfig{
			{ID: 1, Label: "left", Width: 1920, Height: 1080, Scale: 10},
			{ID: 2, Label: "right", Width: 1920, Height: 1080, Scale: 10, Offset: [2]float64{1, 0}},
		},
	}
}

// Interval returns the pause between frames.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.IntervalMS) * time.Millisecond
}

// loadConfig reads path over the defaults. An empty path yields the
// defaults.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("gridcompute: read config: %w", err)
	}
	if err := parseConfig(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("gridcompute: %s: %w", path, err)
	}
	return cfg, nil
}

// parseConfig decodes TOML into cfg. A file that lists surfaces replaces
// the default surfaces.
func parseConfig(data []byte, cfg *Config) error {
	defaults := cfg.Surfaces
	cfg.Surfaces = nil
	if err := toml.Unmarshal(data, cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return fmt.Errorf("%w: line %d column %d: %w", errConfig, row, col, err)
		}
		return fmt.Errorf("%w: %w", errConfig, err)
	}
	if len(cfg.Surfaces) == 0 {
		cfg.Surfaces = defaults
	}
	for i := range cfg.Surfaces {
		if cfg.Surfaces[i].Scale == 0 {
			cfg.Surfaces[i].Scale = 1
		}
	}
	return cfg.validate()
}

func (c *Config) validate() error {
	if c.Backend != backendAuto && !backend.IsRegistered(c.Backend) {
		return fmt.Errorf("%w: backend %q, want %s or one of %v", errConfig, c.Backend, backendAuto, backend.Available())
	}
	if c.Frames < 0 || c.IntervalMS < 0 {
		return fmt.Errorf("%w: negative frames or interval", errConfig)
	}
	if c.WorkgroupSize == 0 {
		return fmt.Errorf("%w: workgroup_size must be positive", errConfig)
	}
	seen := make(map[uint64]bool, len(c.Surfaces))
	for _, s := range c.Surfaces {
		switch {
		case s.ID == 0:
			return fmt.Errorf("%w: surface %q has no id", errConfig, s.Label)
		case seen[s.ID]:
			return fmt.Errorf("%w: duplicate surface id %d", errConfig, s.ID)
		case s.Width == 0 || s.Height == 0:
			return fmt.Errorf("%w: surface %d is %dx%d", errConfig, s.ID, s.Width, s.Height)
		}
		seen[s.ID] = true
	}
	return nil
}

// flagValues holds command-line overrides.
type flagValues struct {
	config      string
	backend     string
	frames      int
	program     string
	logLevel    string
	metricsAddr string
	batched     bool
	watch       bool
}

func registerFlags(fs *flag.FlagSet) *flagValues {
	v := &flagValues{}
	fs.StringVar(&v.config, "config", "", "TOML config file")
	fs.StringVar(&v.backend, "backend", "", "HAL backend: auto, noop or vulkan")
	fs.IntVar(&v.frames, "frames", 0, "frames to run, 0 runs until interrupted")
	fs.StringVar(&v.program, "program", "", "default program: bundled name or .wgsl file")
	fs.StringVar(&v.logLevel, "log-level", "", "debug, info, warn or error")
	fs.StringVar(&v.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	fs.BoolVar(&v.batched, "batched", false, "record all dispatches of a frame in one compute pass")
	fs.BoolVar(&v.watch, "watch", true, "reload surface params when the config file changes")
	return v
}

// apply copies the flags set on fs over cfg.
func (v *flagValues) apply(fs *flag.FlagSet, cfg *Config) error {
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "backend":
			cfg.Backend = v.backend
		case "frames":
			cfg.Frames = v.frames
		case "program":
			cfg.Program = v.program
		case "log-level":
			cfg.LogLevel = v.logLevel
		case "metrics-addr":
			cfg.MetricsAddr = v.metricsAddr
		case "batched":
			cfg.Batched = v.batched
		}
	})
	return cfg.validate()
}
