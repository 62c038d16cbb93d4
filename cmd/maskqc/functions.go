package main

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/bodycomp/segnifti/voxel"
	"github.com/carbocation/pfx"
	"gonum.org/v1/gonum/stat"
)

var qcHeader = []string{
	"container",
	"mask",
	"shape",
	"voxels",
	"nan",
	"min",
	"max",
	"mean",
	"sd",
	"q01",
	"q99",
	"frac_above_half",
}

type maskStats struct {
	Shape    [3]int
	Voxels   int
	NaN      int
	Min      float64
	Max      float64
	Mean     float64
	SD       float64
	Q01      float64
	Q99      float64
	FracHalf float64

	// values holds the non-NaN voxel values, sorted ascending.
	values []float64
}

func computeMaskStats(vol *voxel.Volume) maskStats {
	st := maskStats{
		Shape:    vol.Shape,
		Voxels:   len(vol.Data),
		Min:      math.NaN(),
		Max:      math.NaN(),
		Mean:     math.NaN(),
		SD:       math.NaN(),
		Q01:      math.NaN(),
		Q99:      math.NaN(),
		FracHalf: math.NaN(),
	}

	st.values = make([]float64, 0, len(vol.Data))
	claimed := 0
	for _, v := range vol.Data {
		if math.IsNaN(v) {
			st.NaN++
			continue
		}

		st.values = append(st.values, v)
		if v > 0.5 {
			claimed++
		}
	}

	if len(st.values) == 0 {
		return st
	}

	sort.Float64Slice(st.values).Sort()
	st.Min = st.values[0]
	st.Max = st.values[len(st.values)-1]
	st.Mean = stat.Mean(st.values, nil)
	st.SD = stat.StdDev(st.values, nil)
	st.Q01 = stat.Quantile(0.01, stat.LinInterp, st.values, nil)
	st.Q99 = stat.Quantile(0.99, stat.LinInterp, st.values, nil)
	st.FracHalf = float64(claimed) / float64(len(st.values))

	return st
}

func (st maskStats) Row(container, mask string) []string {
	return []string{
		container,
		mask,
		fmt.Sprintf("%dx%dx%d", st.Shape[0], st.Shape[1], st.Shape[2]),
		strconv.Itoa(st.Voxels),
		strconv.Itoa(st.NaN),
		fmt.Sprintf("%.5g", st.Min),
		fmt.Sprintf("%.5g", st.Max),
		fmt.Sprintf("%.5g", st.Mean),
		fmt.Sprintf("%.5g", st.SD),
		fmt.Sprintf("%.5g", st.Q01),
		fmt.Sprintf("%.5g", st.Q99),
		fmt.Sprintf("%.5g", st.FracHalf),
	}
}

// crossClass tallies, over all masks jointly, the voxels that no class
// claims (no value above 0.5), the voxels that more than one class claims,
// and the voxels whose class values sum to something further than tolerance
// from 1. NaN values are left out of the sum, so a voxel that is NaN in one
// mask and zero in the rest still shows up in the bad-sum count.
func crossClass(masks map[string]*voxel.Volume, tolerance float64) (unclaimed, multi, badsum, total int, err error) {
	var shape [3]int
	first := true
	for name, vol := range masks {
		if first {
			shape = vol.Shape
			first = false
			continue
		}
		if vol.Shape != shape {
			return 0, 0, 0, 0, fmt.Errorf("Mask %s has shape %v, which differs from %v", name, vol.Shape, shape)
		}
	}

	total = shape[0] * shape[1] * shape[2]
	if total == 0 {
		return 0, 0, 0, 0, nil
	}

	sums := make([]float64, total)
	claims := make([]uint8, total)
	for _, vol := range masks {
		for i, v := range vol.Data {
			if math.IsNaN(v) {
				continue
			}
			sums[i] += v
			if v > 0.5 {
				claims[i]++
			}
		}
	}

	for i := range sums {
		if claims[i] == 0 {
			unclaimed++
		} else if claims[i] > 1 {
			multi++
		}
		if math.Abs(sums[i]-1) > tolerance {
			badsum++
		}
	}

	return unclaimed, multi, badsum, total, nil
}

// printHistogram plots the distribution of a mask's non-NaN values, which
// must arrive sorted. Constant data is summarized in a single line instead
// of plotted.
func printHistogram(w io.Writer, mask string, values []float64, bins int) error {
	if len(values) == 0 {
		fmt.Fprintf(w, "%s: no values to plot\n", mask)
		return nil
	}

	if values[0] == values[len(values)-1] {
		fmt.Fprintf(w, "%s: all %d values equal %g\n", mask, len(values), values[0])
		return nil
	}

	fmt.Fprintf(w, "Value distribution for %s:\n", mask)
	hist := histogram.Hist(bins, values)

	return pfx.Err(histogram.Fprint(w, hist, histogram.Linear(5)))
}
