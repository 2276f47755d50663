// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"errors"
	"fmt"
	"sort"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"

	"github.com/gogpu/computegrid/gpucore"
)

// ErrReflect wraps every failure to read the interface of a program.
var ErrReflect = errors.New("shader: reflection failed")

// Binding is a resource variable declared by a WGSL program.
type Binding struct {
	Group   uint32
	Binding uint32
	Name    string
	Type    gpucore.BindingType
	Format  gpucore.TextureFormat
	Access  gpucore.StorageAccess
}

// EntryPoint is a compute entry point declared by a WGSL program.
type EntryPoint struct {
	Name          string
	WorkgroupSize [3]uint32
}

// Reflection is the resource and entry point interface of a program as
// naga lowers it, which is also what the compiled pipeline sees.
type Reflection struct {
	// Bindings are sorted by group then binding.
	Bindings []Binding

	// EntryPoints lists the compute entry points in declaration order.
	EntryPoints []EntryPoint
}

// Reflect parses and lowers wgsl with naga and reads its resource
// bindings and compute entry points from the IR.
//
// Two resources on the same group and binding are an error. naga only
// reads decimal @group and @binding literals and places any other spelling
// on slot 0, so a collision there usually means an attribute it could not
// evaluate.
func Reflect(wgsl string) (*Reflection, error) {
	ast, err := naga.Parse(wgsl)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReflect, err)
	}
	module, err := naga.LowerWithSource(ast, wgsl)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReflect, err)
	}
	return reflectModule(module)
}

func reflectModule(m *ir.Module) (*Reflection, error) {
	r := &Reflection{}

	owners := make(map[ir.ResourceBinding]string)
	for i := range m.GlobalVariables {
		gv := &m.GlobalVariables[i]
		if gv.Binding == nil {
			continue
		}
		if prev, taken := owners[*gv.Binding]; taken {
			return nil, fmt.Errorf("%w: %s and %s both use @group(%d) @binding(%d)",
				ErrReflect, prev, gv.Name, gv.Binding.Group, gv.Binding.Binding)
		}
		owners[*gv.Binding] = gv.Name

		if int(gv.Type) >= len(m.Types) {
			return nil, fmt.Errorf("%w: %s has no type", ErrReflect, gv.Name)
		}
		b := Binding{Group: gv.Binding.Group, Binding: gv.Binding.Binding, Name: gv.Name}
		classify(&b, gv, m.Types[gv.Type].Inner)
		r.Bindings = append(r.Bindings, b)
	}
	sort.Slice(r.Bindings, func(i, j int) bool {
		if r.Bindings[i].Group != r.Bindings[j].Group {
			return r.Bindings[i].Group < r.Bindings[j].Group
		}
		return r.Bindings[i].Binding < r.Bindings[j].Binding
	})

	for i := range m.EntryPoints {
		ep := &m.EntryPoints[i]
		if ep.Stage != ir.StageCompute {
			continue
		}
		for d, n := range ep.Workgroup {
			if n == 0 {
				return nil, fmt.Errorf("%w: fn %s has a zero workgroup dimension %d", ErrReflect, ep.Name, d)
			}
		}
		r.EntryPoints = append(r.EntryPoints, EntryPoint{Name: ep.Name, WorkgroupSize: ep.Workgroup})
	}
	return r, nil
}

func classify(b *Binding, gv *ir.GlobalVariable, inner ir.TypeInner) {
	switch gv.Space {
	case ir.SpaceUniform:
		b.Type = gpucore.BindingTypeUniformBuffer
		return
	case ir.SpaceStorage:
		if gv.Access == ir.StorageRead {
			b.Type = gpucore.BindingTypeReadOnlyStorageBuffer
		} else {
			b.Type = gpucore.BindingTypeStorageBuffer
		}
		return
	}

	switch t := inner.(type) {
	case ir.ImageType:
		if t.Class != ir.ImageClassStorage {
			b.Type = gpucore.BindingTypeSampledTexture
			return
		}
		b.Type = gpucore.BindingTypeStorageTexture
		b.Format = textureFormat(t.StorageFormat)
		b.Access = storageAccess(t.StorageAccess)
	case ir.SamplerType:
		b.Type = gpucore.BindingTypeSampler
	default:
		b.Type = gpucore.BindingTypeUnknown
	}
}

func textureFormat(f ir.StorageFormat) gpucore.TextureFormat {
	switch f {
	case ir.StorageFormatRgba8Unorm:
		return gpucore.TextureFormatRGBA8Unorm
	case ir.StorageFormatBgra8Unorm:
		return gpucore.TextureFormatBGRA8Unorm
	case ir.StorageFormatR32Float:
		return gpucore.TextureFormatR32Float
	case ir.StorageFormatRgba32Float:
		return gpucore.TextureFormatRGBA32Float
	default:
		return gpucore.TextureFormatUndefined
	}
}

func storageAccess(a ir.StorageAccess) gpucore.StorageAccess {
	switch a {
	case ir.StorageAccessRead:
		return gpucore.StorageAccessReadOnly
	case ir.StorageAccessWrite:
		return gpucore.StorageAccessWriteOnly
	case ir.StorageAccessReadWrite:
		return gpucore.StorageAccessReadWrite
	default:
		return gpucore.StorageAccessNone
	}
}

// EntryPoint returns the compute entry point called name.
func (r *Reflection) EntryPoint(name string) (EntryPoint, bool) {
	for _, ep := range r.EntryPoints {
		if ep.Name == name {
			return ep, true
		}
	}
	return EntryPoint{}, false
}
