package gpucore

import (
	"encoding/binary"
	"math"
)

// SurfaceParamsSize is the size in bytes of the packed SurfaceParams block.
const SurfaceParamsSize = 32

// SurfaceParams is the per-surface uniform block read by compute programs.
//
// Layout (little-endian, 8-byte aligned):
//
//	0   scale     f64
//	8   offset.x  f64
//	16  offset.y  f64
//	24  padding   f64
type SurfaceParams struct {
	Scale   float64
	Offset  [2]float64
	Padding float64
}

// DefaultSurfaceParams returns unit scale at the origin.
func DefaultSurfaceParams() SurfaceParams {
	return SurfaceParams{Scale: 1}
}

// Bytes packs p into its uniform buffer representation.
func (p SurfaceParams) Bytes() []byte {
	buf := make([]byte, SurfaceParamsSize)
	p.Put(buf)
	return buf
}

// Put writes the packed block into dst, which must hold SurfaceParamsSize bytes.
func (p SurfaceParams) Put(dst []byte) {
	_ = dst[SurfaceParamsSize-1]
	binary.LittleEndian.PutUint64(dst[0:], math.Float64bits(p.Scale))
	binary.LittleEndian.PutUint64(dst[8:], math.Float64bits(p.Offset[0]))
	binary.LittleEndian.PutUint64(dst[16:], math.Float64bits(p.Offset[1]))
	binary.LittleEndian.PutUint64(dst[24:], math.Float64bits(p.Padding))
}

// ParseSurfaceParams decodes a packed block produced by Bytes.
func ParseSurfaceParams(b []byte) (SurfaceParams, bool) {
	if len(b) < SurfaceParamsSize {
		return SurfaceParams{}, false
	}
	return SurfaceParams{
		Scale: math.Float64frombits(binary.LittleEndian.Uint64(b[0:])),
		Offset: [2]float64{
			math.Float64frombits(binary.LittleEndian.Uint64(b[8:])),
			math.Float64frombits(binary.LittleEndian.Uint64(b[16:])),
		},
		Padding: math.Float64frombits(binary.LittleEndian.Uint64(b[24:])),
	}, true
}
