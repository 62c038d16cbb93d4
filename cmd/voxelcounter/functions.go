package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/bodycomp/segnifti"
	"github.com/bodycomp/segnifti/nifti1"
	"github.com/bodycomp/segnifti/seglabel"
)

// countOneFile loads one label volume and produces its TSV rows: one per
// configured label (zeros included), plus one per unconfigured code that
// actually occurs, reported as UNKNOWN_<code>.
func countOneFile(file string, labels seglabel.LabelMap) ([][]string, error) {
	img, err := nifti1.SafeParseImage(file, true)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}

	header, err := nifti1.SafeParseHeader(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}

	dims := img.GetDims()
	if len(dims) < 4 || dims[0] < 1 || dims[1] < 1 || dims[2] < 1 {
		return nil, fmt.Errorf("%s: unusable dims %v", file, dims)
	}
	times := dims[3]
	if times < 1 {
		times = 1
	}
	if times > 1 {
		return nil, fmt.Errorf("%s: expected a 3-D label volume, got %d timepoints", file, times)
	}

	counts := make(map[uint16]int)
	for i := 0; i < dims[0]; i++ {
		for j := 0; j < dims[1]; j++ {
			for k := 0; k < dims[2]; k++ {
				counts[uint16(img.GetAt(i, j, k, 0))]++
			}
		}
	}

	// Physical volume per voxel, from the header's pixel dimensions
	voxelMM3 := float64(header.Pixdim[1]) * float64(header.Pixdim[2]) * float64(header.Pixdim[3])

	subject, _ := segnifti.ProcessedKeyFromFilename(filepath.Base(file))

	var rows [][]string
	seen := make(map[uint16]bool)
	for _, label := range labels.Sorted() {
		code := uint16(label.ID)
		seen[code] = true
		rows = append(rows, countRow(file, subject, label.Label, code, counts[code], voxelMM3))
	}

	// Codes in the file that the config does not know about
	var unknown []uint16
	for code := range counts {
		if !seen[code] {
			unknown = append(unknown, code)
		}
	}
	sort.Slice(unknown, func(i, j int) bool { return unknown[i] < unknown[j] })
	for _, code := range unknown {
		rows = append(rows, countRow(file, subject, fmt.Sprintf("UNKNOWN_%d", code), code, counts[code], voxelMM3))
	}

	return rows, nil
}

func countRow(file, subject, label string, code uint16, voxels int, voxelMM3 float64) []string {
	return []string{
		file,
		subject,
		label,
		strconv.Itoa(int(code)),
		strconv.Itoa(voxels),
		strconv.FormatFloat(voxelMM3, 'g', -1, 64),
		strconv.FormatFloat(float64(voxels)*voxelMM3, 'g', -1, 64),
	}
}
