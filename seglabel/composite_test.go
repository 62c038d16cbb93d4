package seglabel

import (
	"math"
	"strings"
	"testing"

	"github.com/bodycomp/segnifti/voxel"
)

func testLabels() LabelMap {
	return LabelMap{
		"P_BG":  {ID: 0, Color: "#000000"},
		"P_AT":  {ID: 1, Color: "#ff0000"},
		"P_LT":  {ID: 2, Color: "#00ff00"},
		"P_VAT": {ID: 3, Color: "#0000ff"},
	}
}

// zeroMasks builds an all-zero mask per label, each with the given raw
// (pre-swap) shape.
func zeroMasks(l LabelMap, maskShape [3]int) map[string]*voxel.Volume {
	out := make(map[string]*voxel.Volume)
	for name := range l {
		out[name] = voxel.NewVolume(maskShape)
	}

	return out
}

func TestCompositeWorkedExample(t *testing.T) {
	labels := testLabels()

	shape := [3]int{2, 2, 1}
	masks := zeroMasks(labels, [3]int{2, 2, 1})
	masks["P_AT"].Set(0, 0, 0, 1)
	masks["P_LT"].Set(1, 0, 0, 1)

	got, err := labels.CompositeVolume(masks, shape)
	if err != nil {
		t.Fatalf("CompositeVolume: %v", err)
	}

	if got.Shape != shape {
		t.Fatalf("Composite shape is %v, expected %v", got.Shape, shape)
	}

	// P_AT's voxel sits on the swap diagonal; P_LT's raw (1, 0, 0) lands
	// at (0, 1, 0) after the axis swap.
	expected := map[[3]int]uint16{
		{0, 0, 0}: 1,
		{0, 1, 0}: 2,
		{1, 0, 0}: 0,
		{1, 1, 0}: 0,
	}
	for coord, want := range expected {
		if v := got.At(coord[0], coord[1], coord[2]); v != want {
			t.Errorf("Voxel %v: got %d, expected %d", coord, v, want)
		}
	}
}

func TestCompositeAxisSwapRectangular(t *testing.T) {
	labels := testLabels()

	// Output shape (3, 2, 1) means the raw masks must be (2, 3, 1)
	shape := [3]int{3, 2, 1}
	masks := zeroMasks(labels, [3]int{2, 3, 1})
	masks["P_VAT"].Set(1, 2, 0, 1)

	got, err := labels.CompositeVolume(masks, shape)
	if err != nil {
		t.Fatalf("CompositeVolume: %v", err)
	}

	if v := got.At(2, 1, 0); v != 3 {
		t.Errorf("Expected code 3 at (2, 1, 0) after the axis swap, got %d", v)
	}

	var nonzero int
	for _, v := range got.Data {
		if v != 0 {
			nonzero++
		}
	}
	if nonzero != 1 {
		t.Errorf("Expected exactly 1 nonzero voxel, found %d", nonzero)
	}
}

func TestCompositeBackgroundContentIgnored(t *testing.T) {
	labels := testLabels()

	shape := [3]int{2, 2, 2}
	clean := zeroMasks(labels, shape)
	clean["P_AT"].Set(1, 1, 1, 1)

	dirty := zeroMasks(labels, shape)
	dirty["P_AT"].Set(1, 1, 1, 1)
	// Garbage in the background mask must never reach the output
	dirty["P_BG"].Set(0, 0, 0, 99)
	dirty["P_BG"].Set(1, 0, 1, math.NaN())

	want, err := labels.CompositeVolume(clean, shape)
	if err != nil {
		t.Fatalf("CompositeVolume (clean): %v", err)
	}
	got, err := labels.CompositeVolume(dirty, shape)
	if err != nil {
		t.Fatalf("CompositeVolume (dirty background): %v", err)
	}

	for i, v := range got.Data {
		if v != want.Data[i] {
			t.Fatalf("Background content changed the composite at flat index %d: %d vs %d", i, v, want.Data[i])
		}
	}
}

func TestCompositeRejectsNonCodeSum(t *testing.T) {
	labels := testLabels()

	shape := [3]int{2, 2, 1}
	masks := zeroMasks(labels, shape)
	// 1 + 3 = 4, which is not a configured code
	masks["P_AT"].Set(0, 1, 0, 1)
	masks["P_VAT"].Set(0, 1, 0, 1)

	if _, err := labels.CompositeVolume(masks, shape); err == nil {
		t.Fatal("Expected an error for a voxel summing to 4, got none")
	}
}

func TestCompositeRejectsNaN(t *testing.T) {
	labels := testLabels()

	shape := [3]int{2, 2, 1}
	masks := zeroMasks(labels, shape)
	masks["P_LT"].Set(0, 0, 0, math.NaN())

	if _, err := labels.CompositeVolume(masks, shape); err == nil {
		t.Fatal("Expected an error for a NaN voxel, got none")
	}
}

func TestCompositeRejectsFractionalSum(t *testing.T) {
	labels := testLabels()

	shape := [3]int{2, 2, 1}
	masks := zeroMasks(labels, shape)
	masks["P_AT"].Set(0, 0, 0, 0.5)

	if _, err := labels.CompositeVolume(masks, shape); err == nil {
		t.Fatal("Expected an error for a fractional sum, got none")
	}
}

// An overlap of codes 1 and 2 sums to 3, which is itself a configured code.
// The loose mode cannot tell this apart from a genuine P_VAT voxel; the
// strict mode can.
func TestCompositeStrictCatchesAliasedOverlap(t *testing.T) {
	labels := testLabels()

	shape := [3]int{2, 2, 1}
	masks := zeroMasks(labels, shape)
	masks["P_AT"].Set(0, 0, 0, 1)
	masks["P_LT"].Set(0, 0, 0, 1)

	got, err := labels.CompositeVolume(masks, shape)
	if err != nil {
		t.Fatalf("Loose mode should accept the aliased overlap, got %v", err)
	}
	if v := got.At(0, 0, 0); v != 3 {
		t.Fatalf("Aliased overlap should sum to 3, got %d", v)
	}

	_, err = labels.CompositeVolumeStrict(masks, shape)
	if err == nil {
		t.Fatal("Strict mode should reject a voxel claimed by two masks")
	}
	if !strings.Contains(err.Error(), "more than one") {
		t.Fatalf("Unexpected strict error: %v", err)
	}
}

func TestCompositeStrictRejectsNonBinaryMask(t *testing.T) {
	labels := testLabels()

	shape := [3]int{2, 2, 1}
	masks := zeroMasks(labels, shape)
	masks["P_AT"].Set(0, 0, 0, 2)

	if _, err := labels.CompositeVolumeStrict(masks, shape); err == nil {
		t.Fatal("Strict mode should reject a mask value of 2")
	}
}

func TestCompositeMissingAndUnexpectedMasks(t *testing.T) {
	labels := testLabels()
	shape := [3]int{2, 2, 1}

	missing := zeroMasks(labels, shape)
	delete(missing, "P_LT")
	if _, err := labels.CompositeVolume(missing, shape); err == nil {
		t.Fatal("Expected an error for a missing mask, got none")
	} else if !strings.Contains(err.Error(), "P_LT") {
		t.Fatalf("Error should name the missing mask: %v", err)
	}

	extra := zeroMasks(labels, shape)
	extra["P_MYSTERY"] = voxel.NewVolume(shape)
	if _, err := labels.CompositeVolume(extra, shape); err == nil {
		t.Fatal("Expected an error for an unexpected mask, got none")
	} else if !strings.Contains(err.Error(), "P_MYSTERY") {
		t.Fatalf("Error should name the unexpected mask: %v", err)
	}
}

func TestCompositeShapeMismatch(t *testing.T) {
	labels := testLabels()

	// Masks must be (2, 3, 1) for an output of (3, 2, 1); hand the
	// compositor output-shaped masks instead.
	shape := [3]int{3, 2, 1}
	masks := zeroMasks(labels, [3]int{3, 2, 1})

	if _, err := labels.CompositeVolume(masks, shape); err == nil {
		t.Fatal("Expected a shape mismatch error, got none")
	}
}

func TestCompositeInvalidLabelMap(t *testing.T) {
	noBackground := LabelMap{
		"P_AT": {ID: 1},
		"P_LT": {ID: 2},
	}

	shape := [3]int{1, 1, 1}
	masks := zeroMasks(noBackground, shape)
	if _, err := noBackground.CompositeVolume(masks, shape); err == nil {
		t.Fatal("Expected an error for a label map without a background, got none")
	}
}
