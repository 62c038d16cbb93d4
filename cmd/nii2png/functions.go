package main

import (
	"fmt"
	"image"
	"image/color"
	"math"
)

// paintGraySlice renders one slice in grayscale, windowed so the slice's
// brightest voxel maps to white. The first pass finds that maximum; the
// second paints.
func paintGraySlice(img *image.RGBA, xm, ym int, at func(x, y int) float64) {
	maxIntensity := 0.0

	for i := 0; i < 2; i++ {
		for x := 0; x < xm; x++ {
			for y := 0; y < ym; y++ {
				intensity := at(x, y)
				if i == 0 {
					if intensity > maxIntensity {
						maxIntensity = intensity
					}

					continue
				}

				grayCol := color.Gray16{Y: applyPythonicWindowScaling(intensity, maxIntensity)}
				img.Set(x, y, color.RGBA64Model.Convert(grayCol))
			}
		}
	}
}

// paintLabelSlice renders one slice of a label volume, mapping each voxel
// code to its configured color. A code outside the label map is an error,
// since the converter only emits codes the map names.
func paintLabelSlice(img *image.RGBA, xm, ym int, at func(x, y int) float64, colors map[uint16]color.Color) error {
	for x := 0; x < xm; x++ {
		for y := 0; y < ym; y++ {
			code := uint16(at(x, y))
			col, exists := colors[code]
			if !exists {
				return fmt.Errorf("Voxel (%d, %d) has code %d, which is not in the label map", x, y, code)
			}

			img.Set(x, y, col)
		}
	}

	return nil
}

func applyPythonicWindowScaling(intensity, maxIntensity float64) uint16 {
	if intensity < 0 {
		intensity = 0
	}

	// An empty slice has nothing to window.
	if maxIntensity <= 0 {
		return 0
	}

	return uint16(float64(math.MaxUint16) * intensity / maxIntensity)
}
