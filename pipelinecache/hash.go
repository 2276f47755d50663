// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pipelinecache

import (
	"encoding/binary"
	"hash"
	"hash/fnv"

	"github.com/gogpu/computegrid/gpucore"
)

// HashSource computes an FNV-1a hash of WGSL source text.
func HashSource(wgsl string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(wgsl))
	return h.Sum64()
}

// HashLayout computes an FNV-1a hash of a bind group layout.
// The label does not participate.
func HashLayout(desc *gpucore.BindGroupLayoutDesc) uint64 {
	h := fnv.New64a()
	if desc == nil {
		return h.Sum64()
	}
	hashWriteUint32(h, uint32(len(desc.Entries)))
	for _, e := range desc.Entries {
		hashWriteUint32(h, e.Binding)
		hashWriteUint32(h, uint32(e.Type))
		hashWriteUint64(h, e.MinBindingSize)
		if e.HasDynamicOffset {
			hashWriteUint32(h, 1)
		} else {
			hashWriteUint32(h, 0)
		}
		hashWriteUint32(h, uint32(e.Format))
		hashWriteUint32(h, uint32(e.Access))
	}
	return h.Sum64()
}

// HashRequest computes the identity of a compute pipeline request:
// requests with equal source, entry point and layout share one pipeline.
func HashRequest(req *gpucore.ComputePipelineRequest) uint64 {
	h := fnv.New64a()
	hashWriteUint64(h, HashSource(req.WGSL))
	hashWriteString(h, req.EntryPoint)
	hashWriteUint64(h, HashLayout(req.Layout))
	return h.Sum64()
}

func hashWriteUint32(h hash.Hash64, v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, _ = h.Write(buf[:])
}

func hashWriteUint64(h hash.Hash64, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, _ = h.Write(buf[:])
}

//nolint:gosec // G115: entry point names are short
func hashWriteString(h hash.Hash64, s string) {
	hashWriteUint32(h, uint32(len(s)))
	_, _ = h.Write([]byte(s))
}
