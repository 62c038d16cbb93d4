// Package seglabel maps segmentation class names to the integer codes used
// in composite label volumes, and builds those volumes from per-class masks.
package seglabel

import (
	"fmt"
	"sort"
)

// A Label tracks the segmentation ID with the human-identifiable Label and
// human-interpretable color (in RGB hex, e.g., #FF0000 for red). The color is
// only consulted when rendering slices for review; the ID is what lands in
// the output volumes.
type Label struct {
	Label     string
	ID        uint   `json:"id"`
	Color     string `json:"color"`
	SortOrder int    `json:"sort_order,omitempty"`
}

// LabelMap ([string label name]Label) keeps track of the relationship
// between segmentation class names (as stored in the mask containers) and
// the integer code each class contributes to a composite label volume. ID 0
// is reserved for the background class.
type LabelMap map[string]Label

// Valid ensures that the LabelMap is usable by testing that it is bijective
// and that exactly one label carries the background ID 0. (IDs do not need
// to be contiguous; they do need to be distinguishable after composition.)
func (l LabelMap) Valid() bool {
	inverse := make(map[uint]string)
	for k, v := range l {
		inverse[v.ID] = k
	}

	// Bijective?
	if len(l) != len(inverse) {
		return false
	}

	_, hasBackground := inverse[0]

	return hasBackground
}

// Background returns the background label (ID 0).
func (l LabelMap) Background() (Label, error) {
	for k, v := range l {
		if v.ID == 0 {
			v.Label = k
			return v, nil
		}
	}

	return Label{}, fmt.Errorf("No label with the background ID 0 in the label map %+v", l)
}

// MaxID returns the largest code in the map.
func (l LabelMap) MaxID() uint {
	var max uint
	for _, v := range l {
		if v.ID > max {
			max = v.ID
		}
	}

	return max
}

// Sorted returns the labels with their names filled in, ordered by SortOrder
// and then by ID, so that iteration order is stable across runs.
func (l LabelMap) Sorted() []Label {
	out := make([]Label, 0, len(l))

	for k, v := range l {
		v.Label = k
		out = append(out, v)
	}

	sort.Slice(out, func(i, j int) bool {
		// If SortOrder is defined and different, use it:
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}

		// Otherwise fall back to the ID
		return out[i].ID < out[j].ID
	})

	return out
}
