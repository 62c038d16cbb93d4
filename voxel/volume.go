// Package voxel provides small fixed-rank array types for 3-D segmentation
// volumes. Data is kept in a flat backing slice in C order (the last axis
// varies fastest), matching the layout of arrays read from NPY containers.
package voxel

import "fmt"

// Volume is a 3-D array of float64 values. Axes are indexed (i, j, k) over
// Shape[0], Shape[1], Shape[2].
type Volume struct {
	Data  []float64
	Shape [3]int
}

// NewVolume allocates a zero-filled volume of the given shape.
func NewVolume(shape [3]int) *Volume {
	return &Volume{
		Data:  make([]float64, shape[0]*shape[1]*shape[2]),
		Shape: shape,
	}
}

// Index returns the flat offset of (i, j, k). No bounds checking beyond the
// backing slice's own.
func (v *Volume) Index(i, j, k int) int {
	return (i*v.Shape[1]+j)*v.Shape[2] + k
}

// At returns the value at (i, j, k).
func (v *Volume) At(i, j, k int) float64 {
	return v.Data[v.Index(i, j, k)]
}

// Set assigns the value at (i, j, k).
func (v *Volume) Set(i, j, k int, value float64) {
	v.Data[v.Index(i, j, k)] = value
}

// SwapAxes01 returns a new volume with the first two axes exchanged, so that
// out[j, i, k] == v[i, j, k]. This is the reorientation from (height, width,
// depth) mask storage to the (width, height, depth) convention of the output
// volumes. Unlike a strided view, the result owns its own backing.
func (v *Volume) SwapAxes01() *Volume {
	out := NewVolume([3]int{v.Shape[1], v.Shape[0], v.Shape[2]})

	d2 := v.Shape[2]
	for i := 0; i < v.Shape[0]; i++ {
		for j := 0; j < v.Shape[1]; j++ {
			src := v.Index(i, j, 0)
			dst := out.Index(j, i, 0)
			copy(out.Data[dst:dst+d2], v.Data[src:src+d2])
		}
	}

	return out
}

// AddScaled accumulates m scaled by weight into v, elementwise. The shapes
// must match exactly; there is no broadcasting.
func (v *Volume) AddScaled(m *Volume, weight float64) error {
	if v.Shape != m.Shape {
		return fmt.Errorf("shape mismatch: %v vs %v", v.Shape, m.Shape)
	}

	for i, val := range m.Data {
		v.Data[i] += val * weight
	}

	return nil
}

// Uint16 truncates each value to uint16, numpy ushort style. Values are
// expected to already be exact small non-negative integers; callers that
// need that guarantee must validate before converting.
func (v *Volume) Uint16() *LabelVolume {
	out := NewLabelVolume(v.Shape)
	for i, val := range v.Data {
		out.Data[i] = uint16(val)
	}

	return out
}

// LabelVolume is a 3-D array of uint16 label codes with the same layout as
// Volume.
type LabelVolume struct {
	Data  []uint16
	Shape [3]int
}

// NewLabelVolume allocates a zero-filled (all background) label volume.
func NewLabelVolume(shape [3]int) *LabelVolume {
	return &LabelVolume{
		Data:  make([]uint16, shape[0]*shape[1]*shape[2]),
		Shape: shape,
	}
}

// Index returns the flat offset of (i, j, k).
func (v *LabelVolume) Index(i, j, k int) int {
	return (i*v.Shape[1]+j)*v.Shape[2] + k
}

// At returns the label code at (i, j, k).
func (v *LabelVolume) At(i, j, k int) uint16 {
	return v.Data[v.Index(i, j, k)]
}

// Set assigns the label code at (i, j, k).
func (v *LabelVolume) Set(i, j, k int, code uint16) {
	v.Data[v.Index(i, j, k)] = code
}
