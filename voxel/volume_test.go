package voxel

import (
	"math"
	"testing"
)

func TestIndexOrder(t *testing.T) {
	v := NewVolume([3]int{2, 3, 4})

	// C order: k varies fastest, then j, then i.
	if got, want := v.Index(0, 0, 1), 1; got != want {
		t.Fatalf("Index(0,0,1): got %d, want %d", got, want)
	}
	if got, want := v.Index(0, 1, 0), 4; got != want {
		t.Fatalf("Index(0,1,0): got %d, want %d", got, want)
	}
	if got, want := v.Index(1, 0, 0), 12; got != want {
		t.Fatalf("Index(1,0,0): got %d, want %d", got, want)
	}
	if got, want := v.Index(1, 2, 3), 23; got != want {
		t.Fatalf("Index(1,2,3): got %d, want %d", got, want)
	}
}

func TestSwapAxes01(t *testing.T) {
	v := NewVolume([3]int{2, 3, 2})
	n := 0.0
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 2; k++ {
				v.Set(i, j, k, n)
				n++
			}
		}
	}

	s := v.SwapAxes01()

	if s.Shape != [3]int{3, 2, 2} {
		t.Fatalf("swapped shape: got %v, want [3 2 2]", s.Shape)
	}
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 2; k++ {
				if got, want := s.At(j, i, k), v.At(i, j, k); got != want {
					t.Fatalf("swapped (%d,%d,%d): got %g, want %g", j, i, k, got, want)
				}
			}
		}
	}
}

func TestSwapAxes01Twice(t *testing.T) {
	v := NewVolume([3]int{3, 2, 2})
	for i := range v.Data {
		v.Data[i] = float64(i) * 0.5
	}

	ss := v.SwapAxes01().SwapAxes01()

	if ss.Shape != v.Shape {
		t.Fatalf("double swap changed shape: %v vs %v", ss.Shape, v.Shape)
	}
	for i := range v.Data {
		if ss.Data[i] != v.Data[i] {
			t.Fatalf("double swap changed data at %d: %g vs %g", i, ss.Data[i], v.Data[i])
		}
	}
}

func TestAddScaled(t *testing.T) {
	acc := NewVolume([3]int{2, 2, 1})
	m := NewVolume([3]int{2, 2, 1})
	m.Set(0, 0, 0, 1)
	m.Set(1, 1, 0, 1)

	if err := acc.AddScaled(m, 3); err != nil {
		t.Fatal(err)
	}
	if err := acc.AddScaled(m, 0.25); err != nil {
		t.Fatal(err)
	}

	if got := acc.At(0, 0, 0); got != 3.25 {
		t.Fatalf("accumulated (0,0,0): got %g, want 3.25", got)
	}
	if got := acc.At(0, 1, 0); got != 0 {
		t.Fatalf("accumulated (0,1,0): got %g, want 0", got)
	}
}

func TestAddScaledShapeMismatch(t *testing.T) {
	acc := NewVolume([3]int{2, 2, 1})
	m := NewVolume([3]int{2, 1, 2})

	if err := acc.AddScaled(m, 1); err == nil {
		t.Fatal("expected a shape mismatch error, got nil")
	}
}

func TestUint16Truncates(t *testing.T) {
	v := NewVolume([3]int{1, 1, 3})
	v.Data[0] = 2
	v.Data[1] = 2.9
	v.Data[2] = 0

	lv := v.Uint16()

	if lv.Data[0] != 2 || lv.Data[1] != 2 || lv.Data[2] != 0 {
		t.Fatalf("uint16 conversion: got %v, want [2 2 0]", lv.Data)
	}
	if lv.Shape != v.Shape {
		t.Fatalf("uint16 conversion changed shape: %v vs %v", lv.Shape, v.Shape)
	}
}

func TestAddScaledNaNPropagates(t *testing.T) {
	// NaN in a weighted mask must surface rather than vanish; the compositor
	// relies on validation, not on arithmetic, to keep NaN out of outputs.
	acc := NewVolume([3]int{1, 1, 1})
	m := NewVolume([3]int{1, 1, 1})
	m.Data[0] = math.NaN()

	if err := acc.AddScaled(m, 2); err != nil {
		t.Fatal(err)
	}
	if !math.IsNaN(acc.Data[0]) {
		t.Fatalf("expected NaN to propagate, got %g", acc.Data[0])
	}
}
