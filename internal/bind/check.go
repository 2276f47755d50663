// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package bind

import (
	"errors"
	"fmt"

	"github.com/gogpu/computegrid/gpucore"
	"github.com/gogpu/computegrid/shader"
)

// Configuration errors detected by CheckProgram. A program naga cannot
// reflect fails with an error wrapping shader.ErrReflect.
var (
	ErrLayoutMismatch    = errors.New("bind: program does not match the surface binding layout")
	ErrEntryPointMissing = errors.New("bind: program is missing a required entry point")
	ErrWorkgroupMismatch = errors.New("bind: program workgroup size differs from the dispatch workgroup size")
)

// LayoutMismatchError describes a group-0 binding that disagrees with the
// fixed surface layout.
type LayoutMismatchError struct {
	Surface gpucore.SurfaceID
	Slot    uint32
	Want    gpucore.BindingType
	Got     gpucore.BindingType

	// Detail explains a format or access mismatch on a matching type.
	Detail string
}

func (e *LayoutMismatchError) Error() string {
	msg := fmt.Sprintf("bind: %v slot %d: want %v, got %v", e.Surface, e.Slot, e.Want, e.Got)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

// Unwrap returns ErrLayoutMismatch.
func (e *LayoutMismatchError) Unwrap() error {
	return ErrLayoutMismatch
}

// CheckProgram validates that src can run against surface: its group-0
// bindings must equal the fixed layout and it must export the init and
// update entry points with a [workgroupSize, workgroupSize, 1] workgroup.
func CheckProgram(surface gpucore.SurfaceID, src shader.Source, workgroupSize uint32) error {
	refl, err := shader.Reflect(src.WGSL)
	if err != nil {
		return fmt.Errorf("bind: %v program %q: %w", surface, src.Name, err)
	}

	declared := make(map[uint32]shader.Binding)
	for _, b := range refl.Bindings {
		if b.Group == 0 {
			declared[b.Binding] = b
		}
	}

	layout := gpucore.SurfaceBindGroupLayout()
	for _, want := range layout.Entries {
		got, ok := declared[want.Binding]
		if !ok {
			return &LayoutMismatchError{Surface: surface, Slot: want.Binding, Want: want.Type, Got: gpucore.BindingTypeUnknown, Detail: "not declared"}
		}
		delete(declared, want.Binding)

		if got.Type != want.Type {
			return &LayoutMismatchError{Surface: surface, Slot: want.Binding, Want: want.Type, Got: got.Type}
		}
		if want.Type == gpucore.BindingTypeStorageTexture && (got.Format != want.Format || got.Access != want.Access) {
			return &LayoutMismatchError{
				Surface: surface,
				Slot:    want.Binding,
				Want:    want.Type,
				Got:     got.Type,
				Detail:  fmt.Sprintf("want %v/%v, got %v/%v", want.Format, want.Access, got.Format, got.Access),
			}
		}
	}
	if len(declared) > 0 {
		extra := shader.Binding{Binding: ^uint32(0)}
		for slot, b := range declared {
			if slot < extra.Binding {
				extra = b
			}
		}
		return &LayoutMismatchError{Surface: surface, Slot: extra.Binding, Want: gpucore.BindingTypeUnknown, Got: extra.Type, Detail: "unexpected binding"}
	}

	want := [3]uint32{workgroupSize, workgroupSize, 1}
	for _, name := range []string{shader.InitEntryPoint, shader.UpdateEntryPoint} {
		ep, ok := refl.EntryPoint(name)
		if !ok {
			return fmt.Errorf("%w: %v program %q has no @compute fn %s", ErrEntryPointMissing, surface, src.Name, name)
		}
		if ep.WorkgroupSize != want {
			return fmt.Errorf("%w: %v program %q fn %s uses %v, want %v", ErrWorkgroupMismatch, surface, src.Name, name, ep.WorkgroupSize, want)
		}
	}
	return nil
}
