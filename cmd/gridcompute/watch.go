// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// watchConfig reloads path whenever it is written and sends each config
// that parses. The directory is watched so that editors replacing the file
// by rename are noticed. The returned channel closes when ctx is done.
func watchConfig(ctx context.Context, path string, logger *slog.Logger) (<-chan Config, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("gridcompute: watch config: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		w.Close()
		return nil, fmt.Errorf("gridcompute: watch config: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("gridcompute: watch config: %w", err)
	}

	out := make(chan Config, 1)
	go func() {
		defer close(out)
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(e.Name) != abs || e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := loadConfig(abs)
				if err != nil {
					logger.Warn("config reload rejected", "path", abs, "error", err)
					continue
				}
				logger.Debug("config changed", "path", abs)
				// Keep only the newest config.
				select {
				case <-out:
				default:
				}
				out <- cfg
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("config watcher", "error", err)
			}
		}
	}()
	return out, nil
}
