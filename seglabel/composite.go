package seglabel

import (
	"fmt"
	"math"
	"sort"

	"github.com/bodycomp/segnifti/voxel"
)

// CompositeVolume folds one float mask per label into a single integer label
// volume of the given shape. Masks are stored with the first two axes
// swapped relative to the output, so each is axis-swapped before being added
// in, scaled by its label's code. The background mask (ID 0) contributes
// nothing (its weight is zero) and is only shape-checked.
//
// After summation, every voxel must hold one of the configured codes;
// anything else means the masks disagreed somewhere (overlapping classes,
// non-binary values, NaNs) and the subject is rejected rather than silently
// encoded.
func (l LabelMap) CompositeVolume(masks map[string]*voxel.Volume, shape [3]int) (*voxel.LabelVolume, error) {
	return l.composite(masks, shape, false)
}

// CompositeVolumeStrict is CompositeVolume with the additional requirement
// that the masks be one-hot: each non-background mask may only contain 0s
// and 1s, and no voxel may be claimed by more than one non-background mask.
// This catches aliasing that the code-set check alone cannot, e.g., codes 1
// and 2 overlapping to produce a legitimate-looking 3.
func (l LabelMap) CompositeVolumeStrict(masks map[string]*voxel.Volume, shape [3]int) (*voxel.LabelVolume, error) {
	return l.composite(masks, shape, true)
}

func (l LabelMap) composite(masks map[string]*voxel.Volume, shape [3]int, strict bool) (*voxel.LabelVolume, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("Label map is not valid: it must have unique IDs and exactly one background label with ID 0")
	}

	if err := matchMaskNames(l, masks); err != nil {
		return nil, err
	}

	// The raw masks carry the composite shape with axes 0 and 1 swapped
	maskShape := [3]int{shape[1], shape[0], shape[2]}
	for _, label := range l.Sorted() {
		if got := masks[label.Label].Shape; got != maskShape {
			return nil, fmt.Errorf("Mask %s has shape %v; want %v", label.Label, got, maskShape)
		}
	}

	if strict {
		if err := l.checkOneHot(masks, maskShape); err != nil {
			return nil, err
		}
	}

	acc := voxel.NewVolume(shape)
	for _, label := range l.Sorted() {
		if label.ID == 0 {
			continue
		}

		swapped := masks[label.Label].SwapAxes01()
		if err := acc.AddScaled(swapped, float64(label.ID)); err != nil {
			return nil, fmt.Errorf("Mask %s: %w", label.Label, err)
		}
	}

	if err := l.checkCodes(acc); err != nil {
		return nil, err
	}

	return acc.Uint16(), nil
}

// matchMaskNames confirms that the masks and the label map describe exactly
// the same set of classes.
func matchMaskNames(l LabelMap, masks map[string]*voxel.Volume) error {
	var missing, extra []string

	for name := range l {
		if _, ok := masks[name]; !ok {
			missing = append(missing, name)
		}
	}

	for name := range masks {
		if _, ok := l[name]; !ok {
			extra = append(extra, name)
		}
	}

	if len(missing) > 0 || len(extra) > 0 {
		sort.Strings(missing)
		sort.Strings(extra)
		return fmt.Errorf("Masks do not match the label map (missing: %v, unexpected: %v)", missing, extra)
	}

	return nil
}

// checkCodes scans the summed volume and rejects it if any voxel holds a
// value that is not one of the configured codes. NaN and negative values
// fail here too, since neither can equal a code.
func (l LabelMap) checkCodes(acc *voxel.Volume) error {
	valid := make([]bool, l.MaxID()+1)
	for _, label := range l.Sorted() {
		valid[label.ID] = true
	}

	// Float-space bounds checks run before the int conversion, whose result
	// is unspecified for out-of-range values.
	for idx, v := range acc.Data {
		if !(v >= 0) || v != math.Trunc(v) || v >= float64(len(valid)) || !valid[int(v)] {
			i, j, k := unflatten(idx, acc.Shape)
			return fmt.Errorf("Voxel (%d, %d, %d) sums to %v, which is not one of the configured label codes", i, j, k, v)
		}
	}

	return nil
}

// checkOneHot verifies that the non-background masks are binary and
// mutually exclusive. Counting runs on the raw (unswapped) arrays; the axis
// swap applies the same index bijection to every mask, so overlap there is
// overlap in the composite, only reported in composite coordinates.
func (l LabelMap) checkOneHot(masks map[string]*voxel.Volume, maskShape [3]int) error {
	coverage := make([]uint8, maskShape[0]*maskShape[1]*maskShape[2])

	for _, label := range l.Sorted() {
		if label.ID == 0 {
			continue
		}

		for idx, v := range masks[label.Label].Data {
			if v == 0 {
				continue
			}
			if v != 1 {
				j, i, k := unflatten(idx, maskShape)
				return fmt.Errorf("Mask %s is not one-hot: voxel (%d, %d, %d) holds %v", label.Label, i, j, k, v)
			}
			coverage[idx]++
		}
	}

	overlapped := 0
	firstIdx := -1
	for idx, n := range coverage {
		if n > 1 {
			if firstIdx < 0 {
				firstIdx = idx
			}
			overlapped++
		}
	}

	if overlapped > 0 {
		j, i, k := unflatten(firstIdx, maskShape)
		return fmt.Errorf("%d voxels are claimed by more than one non-background mask (first at (%d, %d, %d))", overlapped, i, j, k)
	}

	return nil
}

func unflatten(idx int, shape [3]int) (i, j, k int) {
	i = idx / (shape[1] * shape[2])
	rem := idx % (shape[1] * shape[2])
	j = rem / shape[2]
	k = rem % shape[2]

	return i, j, k
}
