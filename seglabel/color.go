package seglabel

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// ColorsByID maps each composite code to its review color. The background
// code 0 is always fully transparent, whatever its configured color, so that
// rendered slices show anatomy only where a label asserts itself.
func (l LabelMap) ColorsByID() (map[uint16]color.Color, error) {
	out := make(map[uint16]color.Color, len(l))

	for name, label := range l {
		if label.ID == 0 {
			out[uint16(label.ID)] = color.RGBA{0, 0, 0, 0}
			continue
		}

		col, err := rgbaFromColorCode(label.Color)
		if err != nil {
			return nil, fmt.Errorf("Label %s (ID %d): cannot parse color %q: %w", name, label.ID, label.Color, err)
		}
		out[uint16(label.ID)] = col
	}

	return out, nil
}

func rgbaFromColorCode(colorCode string) (color.Color, error) {
	colorCode = strings.ReplaceAll(colorCode, "#", "")

	// Special case the background
	if len(colorCode) < 6 {
		return color.RGBA{0, 0, 0, 0}, nil
	}

	// Parse each channel
	r, err := strconv.ParseUint(colorCode[0:2], 16, 8)
	if err != nil {
		return nil, err
	}
	g, err := strconv.ParseUint(colorCode[2:4], 16, 8)
	if err != nil {
		return nil, err
	}
	b, err := strconv.ParseUint(colorCode[4:6], 16, 8)
	if err != nil {
		return nil, err
	}

	return color.RGBA{
		R: uint8(r),
		G: uint8(g),
		B: uint8(b),
		A: 255,
	}, nil
}
