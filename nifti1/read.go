package nifti1

import (
	"fmt"

	"github.com/henghuang/nifti"

	"github.com/bodycomp/segnifti/voxel"
)

// SafeParseImage consumes panics emitted by the nifti library, which are
// inappropriate and must be captured in order to turn them into recoverable
// errors.
func SafeParseImage(filename string, rdata bool) (parsedData nifti.Nifti1Image, err error) {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			err = fmt.Errorf("%v", panicErr)
		}
	}()

	parsedData.LoadImage(filename, rdata)

	return
}

// SafeParseHeader consumes panics emitted by the nifti library, which are
// inappropriate and must be captured in order to turn them into recoverable
// errors.
func SafeParseHeader(filename string) (parsedData nifti.Nifti1Header, err error) {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			err = fmt.Errorf("%v", panicErr)
		}
	}()

	parsedData.LoadHeader(filename)

	return
}

// LoadLabelVolume reads a 3-D label volume back from a .nii or .nii.gz
// file. Values are rounded through float, which is exact for the uint16
// codes these volumes hold.
func LoadLabelVolume(filename string) (*voxel.LabelVolume, error) {
	img, err := SafeParseImage(filename, true)
	if err != nil {
		return nil, fmt.Errorf("Loading %s: %w", filename, err)
	}

	dims := img.GetDims()
	if len(dims) < 4 {
		return nil, fmt.Errorf("Loading %s: expected 4 dims, got %v", filename, dims)
	}
	if dims[3] > 1 {
		return nil, fmt.Errorf("Loading %s: expected a 3-D volume, got %d timepoints", filename, dims[3])
	}
	for axis, dim := range dims[:3] {
		if dim < 1 {
			return nil, fmt.Errorf("Loading %s: dimension %d is %d", filename, axis, dim)
		}
	}

	vol := voxel.NewLabelVolume([3]int{dims[0], dims[1], dims[2]})
	for i := 0; i < dims[0]; i++ {
		for j := 0; j < dims[1]; j++ {
			for k := 0; k < dims[2]; k++ {
				vol.Set(i, j, k, uint16(img.GetAt(i, j, k, 0)))
			}
		}
	}

	return vol, nil
}
