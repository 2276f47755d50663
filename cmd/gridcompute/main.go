// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

// Command gridcompute runs the compute orchestrator against a HAL device.
//
// It creates one storage texture per configured surface, runs the per-frame
// orchestration for a number of frames and submits the recorded work after
// each one. Surface params are reloaded from the config file while running.
//
// Usage:
//
//	gridcompute [-config grid.toml] [-backend auto|noop|vulkan] [-frames N]
//	            [-program mandelbrot|life|file.wgsl] [-metrics-addr :9090]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gogpu/computegrid"
	"github.com/gogpu/computegrid/backend"
	"github.com/gogpu/computegrid/backend/native"
	"github.com/gogpu/computegrid/pipelinecache"
	"github.com/gogpu/computegrid/shader"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("gridcompute", flag.ContinueOnError)
	fv := registerFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := loadConfig(fv.config)
	if err != nil {
		return err
	}
	if err := fv.apply(fs, &cfg); err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	computegrid.SetLogger(logger)
	native.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	adapter, backendName, err := openBackend(cfg.Backend)
	if err != nil {
		return err
	}
	defer adapter.Close()

	program, err := shader.Resolve(cfg.Program)
	if err != nil {
		return err
	}

	var reg *prometheus.Registry
	if cfg.MetricsAddr != "" {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		srv := serveMetrics(cfg.MetricsAddr, reg, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	cache, err := pipelinecache.New(adapter, pipelinecache.WithWorkers(cfg.Workers))
	if err != nil {
		return err
	}
	defer cache.Close()

	opts := []computegrid.Option{
		computegrid.WithWorkgroupSize(cfg.WorkgroupSize),
		computegrid.WithProgram(program),
		computegrid.WithFramesInFlight(cfg.FramesInFlight),
		computegrid.WithBatchedPass(cfg.Batched),
	}
	if reg != nil {
		opts = append(opts, computegrid.WithMetrics(reg))
	}
	orch, err := computegrid.New(adapter, cache, adapter, opts...)
	if err != nil {
		return err
	}
	defer orch.Close()

	surfaces := newSurfaceSet(orch, adapter, cfg.FramesInFlight, logger)
	if err := surfaces.apply(cfg.Surfaces, 0); err != nil {
		return err
	}

	var reloads <-chan Config
	if fv.config != "" && fv.watch {
		if reloads, err = watchConfig(ctx, fv.config, logger); err != nil {
			logger.Warn("config hot reload disabled", "error", err)
		}
	}

	logger.Info("running",
		"backend", backendName, "program", program.Name, "surfaces", surfaces.Len(),
		"frames", cfg.Frames, "workgroup_size", orch.WorkgroupSize())

	return runFrames(ctx, &cfg, orch, adapter, surfaces, reloads, logger)
}

// submitter is the part of the adapter the frame loop drives directly.
type submitter interface {
	Submit()
	WaitIdle()
}

// runFrames runs frames until cfg.Frames is reached or ctx is done.
func runFrames(ctx context.Context, cfg *Config, orch *computegrid.Orchestrator, gpu submitter,
	surfaces *surfaceSet, reloads <-chan Config, logger *slog.Logger,
) error {
	var (
		ticker *time.Ticker
		tick   <-chan time.Time
		total  computegrid.FrameStats
		last   uint64
	)
	if cfg.Interval() > 0 {
		ticker = time.NewTicker(cfg.Interval())
		defer ticker.Stop()
		tick = ticker.C
	}

	for n := 0; cfg.Frames == 0 || n < cfg.Frames; n++ {
		select {
		case <-ctx.Done():
			logger.Info("interrupted", "frame", last)
			return summarize(orch, &total, logger)
		case next, ok := <-reloads:
			if !ok {
				reloads = nil
				break
			}
			if err := surfaces.apply(next.Surfaces, last); err != nil {
				logger.Warn("config reload partly applied", "error", err)
			}
		default:
		}

		stats, err := orch.Frame()
		if err != nil {
			return err
		}
		gpu.Submit()
		last = stats.Frame
		accumulate(&total, &stats)

		if surfaces.due(last) {
			gpu.WaitIdle()
			surfaces.release(last)
		}

		logger.Debug("frame",
			"frame", stats.Frame, "targets", stats.Targets, "init", stats.Init, "update", stats.Update,
			"transitions", stats.Transitions, "rebuilt", stats.Rebuilt, "skipped", stats.Skipped)

		if tick != nil {
			select {
			case <-ctx.Done():
			case <-tick:
			}
		}
	}
	return summarize(orch, &total, logger)
}

func accumulate(total, s *computegrid.FrameStats) {
	total.Frame = s.Frame
	total.Created += s.Created
	total.Rebuilt += s.Rebuilt
	total.Skipped += s.Skipped
	total.Transitions += s.Transitions
	total.Failures += s.Failures
	total.Released += s.Released
	total.Init += s.Init
	total.Update += s.Update
	total.Passes += s.Passes
	total.Violations += s.Violations
}

func summarize(orch *computegrid.Orchestrator, total *computegrid.FrameStats, logger *slog.Logger) error {
	for _, t := range orch.Targets() {
		if t.Failure != nil {
			logger.Warn("surface failed", "surface", t.Surface, "label", t.Label, "error", t.Failure)
			continue
		}
		logger.Info("surface", "surface", t.Surface, "label", t.Label, "state", t.State)
	}
	logger.Info("done",
		"frames", total.Frame, "dispatches", total.Dispatched(), "init", total.Init, "update", total.Update,
		"passes", total.Passes, "rebuilt", total.Rebuilt, "failures", total.Failures, "violations", total.Violations)
	if total.Violations > 0 {
		return fmt.Errorf("gridcompute: %d dispatches of pipelines that were not ready", total.Violations)
	}
	return nil
}

func newLogger(level string) (*slog.Logger, error) {
	lvl, err := charmlog.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("gridcompute: log level: %w", err)
	}
	h := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          "gridcompute",
		Level:           lvl,
	})
	return slog.New(h), nil
}

func openBackend(name string) (backend.Device, string, error) {
	if name == backendAuto {
		return backend.Default()
	}
	dev, err := backend.Open(name)
	return dev, name, err
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "addr", addr, "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", addr)
	return srv
}
