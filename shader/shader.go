// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package shader holds the WGSL compute programs run by the grid.
//
// Every program declares the fixed surface layout at group 0 and two
// compute entry points, [InitEntryPoint] and [UpdateEntryPoint]. The package
// also reflects WGSL sources through naga ([Reflect]) to validate a program
// before its pipelines are requested, and offers [CompileSPIRV].
package shader

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Entry point names every program must export.
const (
	InitEntryPoint   = "init"
	UpdateEntryPoint = "update"
)

// Names of the bundled programs.
const (
	Mandelbrot = "mandelbrot"
	Life       = "life"
)

// ErrUnknownProgram is returned when a program name is not bundled.
var ErrUnknownProgram = errors.New("shader: unknown program")

//go:embed shaders/*.wgsl
var bundled embed.FS

// Source is a named WGSL program.
type Source struct {
	// Name identifies the program in logs and pipeline requests.
	Name string

	// WGSL is the program text.
	WGSL string
}

// IsZero reports whether s carries no program.
func (s Source) IsZero() bool {
	return s.WGSL == ""
}

var programs = loadBundled()

func loadBundled() map[string]Source {
	entries, err := bundled.ReadDir("shaders")
	if err != nil {
		panic(fmt.Sprintf("shader: read embedded programs: %v", err))
	}
	out := make(map[string]Source, len(entries))
	for _, e := range entries {
		data, err := bundled.ReadFile(path.Join("shaders", e.Name()))
		if err != nil {
			panic(fmt.Sprintf("shader: read %s: %v", e.Name(), err))
		}
		name := strings.TrimSuffix(e.Name(), ".wgsl")
		out[name] = Source{Name: name, WGSL: string(data)}
	}
	return out
}

// Lookup returns the bundled program with the given name.
func Lookup(name string) (Source, bool) {
	src, ok := programs[name]
	return src, ok
}

// MustLookup is like Lookup but panics if the program is not bundled.
func MustLookup(name string) Source {
	src, ok := Lookup(name)
	if !ok {
		panic(fmt.Sprintf("shader: program %q is not bundled", name))
	}
	return src
}

// Names returns the bundled program names in sorted order.
func Names() []string {
	names := make([]string, 0, len(programs))
	for name := range programs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the bundled program called ref, or reads ref as a WGSL
// file when it names a path ending in .wgsl.
func Resolve(ref string) (Source, error) {
	if src, ok := Lookup(ref); ok {
		return src, nil
	}
	if filepath.Ext(ref) != ".wgsl" {
		return Source{}, fmt.Errorf("%w: %q", ErrUnknownProgram, ref)
	}
	data, err := os.ReadFile(ref)
	if err != nil {
		return Source{}, fmt.Errorf("shader: load %s: %w", ref, err)
	}
	name := strings.TrimSuffix(filepath.Base(ref), ".wgsl")
	return Source{Name: name, WGSL: string(data)}, nil
}
