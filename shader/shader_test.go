// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gogpu/computegrid/gpucore"
)

func TestBundledProgramsNonEmpty(t *testing.T) {
	names := Names()
	if len(names) < 2 {
		t.Fatalf("Names() = %v, want at least mandelbrot and life", names)
	}
	for _, name := range []string{Mandelbrot, Life} {
		src, ok := Lookup(name)
		if !ok {
			t.Errorf("Lookup(%q) not found", name)
			continue
		}
		if src.Name != name {
			t.Errorf("Lookup(%q).Name = %q", name, src.Name)
		}
		if len(src.WGSL) < 100 {
			t.Errorf("%s source suspiciously short: %d bytes", name, len(src.WGSL))
		}
	}
}

func TestMustLookupPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustLookup(unknown) did not panic")
		}
	}()
	MustLookup("does-not-exist")
}

// TestBundledProgramsMatchSurfaceLayout checks every bundled program
// against the fixed group-0 layout and the required entry points.
func TestBundledProgramsMatchSurfaceLayout(t *testing.T) {
	layout := gpucore.SurfaceBindGroupLayout()

	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			refl, err := Reflect(MustLookup(name).WGSL)
			if err != nil {
				t.Fatalf("Reflect() error = %v", err)
			}
			if len(refl.Bindings) != len(layout.Entries) {
				t.Fatalf("bindings = %d, want %d", len(refl.Bindings), len(layout.Entries))
			}
			for i, want := range layout.Entries {
				got := refl.Bindings[i]
				if got.Group != 0 || got.Binding != want.Binding || got.Type != want.Type {
					t.Errorf("binding[%d] = %d/%d %v, want 0/%d %v", i, got.Group, got.Binding, got.Type, want.Binding, want.Type)
				}
				if want.Type == gpucore.BindingTypeStorageTexture {
					if got.Format != want.Format || got.Access != want.Access {
						t.Errorf("binding[%d] storage = %v/%v, want %v/%v", i, got.Format, got.Access, want.Format, want.Access)
					}
				}
			}

			for _, entry := range []string{InitEntryPoint, UpdateEntryPoint} {
				ep, ok := refl.EntryPoint(entry)
				if !ok {
					t.Errorf("entry point %q missing", entry)
					continue
				}
				if ep.WorkgroupSize != [3]uint32{8, 8, 1} {
					t.Errorf("%s workgroup size = %v, want [8 8 1]", entry, ep.WorkgroupSize)
				}
			}
		})
	}
}

func TestReflectBindings(t *testing.T) {
	src := `
// @group(9) @binding(9) var ignored: sampler;
@group(1) @binding(2) var<storage, read> ro: array<u32>;
@group(1) @binding(3) var<storage, read_write> rw: array<u32>;
@binding(1) @group(1) var tex: texture_2d<f32>;
@group(1) @binding(0) var samp: sampler;
/* @group(7) @binding(0) var<uniform> hidden: vec4<f32>; */
@group(0) @binding(0) var img: texture_storage_2d<r32float, write>;
`
	refl, err := Reflect(src)
	if err != nil {
		t.Fatalf("Reflect() error = %v", err)
	}
	want := []Binding{
		{Group: 0, Binding: 0, Name: "img", Type: gpucore.BindingTypeStorageTexture, Format: gpucore.TextureFormatR32Float, Access: gpucore.StorageAccessWriteOnly},
		{Group: 1, Binding: 0, Name: "samp", Type: gpucore.BindingTypeSampler},
		{Group: 1, Binding: 1, Name: "tex", Type: gpucore.BindingTypeSampledTexture},
		{Group: 1, Binding: 2, Name: "ro", Type: gpucore.BindingTypeReadOnlyStorageBuffer},
		{Group: 1, Binding: 3, Name: "rw", Type: gpucore.BindingTypeStorageBuffer},
	}
	if len(refl.Bindings) != len(want) {
		t.Fatalf("Bindings = %+v, want %d entries", refl.Bindings, len(want))
	}
	for i := range want {
		if refl.Bindings[i] != want[i] {
			t.Errorf("Bindings[%d] = %+v, want %+v", i, refl.Bindings[i], want[i])
		}
	}
}

func TestReflectEntryPoints(t *testing.T) {
	src := `
const WG: u32 = 4u * 2u;
const DEPTH: u32 = 16u;

@compute @workgroup_size(WG, WG, 1)
fn first() {}

@workgroup_size(DEPTH, 4) @compute
fn second() {}

@compute @workgroup_size(64)
fn third() {}

@vertex
fn vs_main() -> @builtin(position) vec4<f32> { return vec4<f32>(0.0); }

fn helper() {}
`
	refl, err := Reflect(src)
	if err != nil {
		t.Fatalf("Reflect() error = %v", err)
	}
	want := []EntryPoint{
		{Name: "first", WorkgroupSize: [3]uint32{8, 8, 1}},
		{Name: "second", WorkgroupSize: [3]uint32{16, 4, 1}},
		{Name: "third", WorkgroupSize: [3]uint32{64, 1, 1}},
	}
	if len(refl.EntryPoints) != len(want) {
		t.Fatalf("EntryPoints = %+v, want %+v", refl.EntryPoints, want)
	}
	for i := range want {
		if refl.EntryPoints[i] != want[i] {
			t.Errorf("EntryPoints[%d] = %+v, want %+v", i, refl.EntryPoints[i], want[i])
		}
	}

	if _, ok := refl.EntryPoint("vs_main"); ok {
		t.Error("EntryPoint(vs_main) found a vertex entry point")
	}
}

func TestReflectErrors(t *testing.T) {
	tests := []struct {
		name string
		wgsl string
		want string
	}{
		{"syntax", "@compute @workgroup_size(8, 8, 1) fn init( {", ""},
		{
			// naga reads non-decimal slots as 0, so params collides with output.
			"hex binding",
			`@group(0) @binding(0) var output: texture_storage_2d<rgba8unorm, read_write>;
@group(0) @binding(0x1) var<uniform> params: vec4<f32>;
@compute @workgroup_size(8, 8, 1) fn init() {}`,
			"output and params",
		},
		{
			"duplicate slot",
			`@group(0) @binding(1) var<uniform> a: vec4<f32>;
@group(0) @binding(1) var<uniform> b: vec4<f32>;`,
			"a and b",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refl, err := Reflect(tt.wgsl)
			if !errors.Is(err, ErrReflect) {
				t.Fatalf("Reflect() = %+v, %v; want ErrReflect", refl, err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Reflect() error = %q, want it to name %q", err, tt.want)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	src, err := Resolve(Life)
	if err != nil || src.Name != Life {
		t.Fatalf("Resolve(life) = %v, %v", src.Name, err)
	}

	if _, err := Resolve("nope"); !errors.Is(err, ErrUnknownProgram) {
		t.Errorf("Resolve(nope) error = %v, want ErrUnknownProgram", err)
	}

	path := filepath.Join(t.TempDir(), "custom.wgsl")
	body := MustLookup(Mandelbrot).WGSL
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	src, err = Resolve(path)
	if err != nil {
		t.Fatalf("Resolve(file) error = %v", err)
	}
	if src.Name != "custom" || !strings.Contains(src.WGSL, "fn update") {
		t.Errorf("Resolve(file) = %q, unexpected content", src.Name)
	}
}
