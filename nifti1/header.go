// Package nifti1 writes NIfTI-1 volumes and safely reads them back. The
// write path is implemented directly against the on-disk format so that
// output bytes are fully under our control (and reproducible); the read
// path delegates to the nifti library behind panic-absorbing wrappers.
package nifti1

import (
	"encoding/binary"
	"fmt"
	"io"
)

// HeaderSize is the fixed size of a NIfTI-1 header on disk.
const HeaderSize = 348

// DataOffset is where voxel data begins in a single-file .nii: the header
// plus the 4-byte extension indicator.
const DataOffset = HeaderSize + 4

// NIfTI-1 datatype codes for the types this package emits or expects.
const (
	DTUint8   int16 = 2
	DTInt16   int16 = 4
	DTInt32   int16 = 8
	DTFloat32 int16 = 16
	DTFloat64 int16 = 64
	DTUint16  int16 = 512
)

// Header is the 348-byte NIfTI-1 header, field for field. Strings are
// fixed-size NUL-padded byte arrays, and all numbers are little-endian on
// disk (this package does not read the byte-swapped variant).
type Header struct {
	SizeofHdr     int32
	DataTypeName  [10]byte
	DBName        [18]byte
	Extents       int32
	SessionError  int16
	Regular       byte
	DimInfo       byte
	Dim           [8]int16
	IntentP1      float32
	IntentP2      float32
	IntentP3      float32
	IntentCode    int16
	Datatype      int16
	Bitpix        int16
	SliceStart    int16
	Pixdim        [8]float32
	VoxOffset     float32
	SclSlope      float32
	SclInter      float32
	SliceEnd      int16
	SliceCode     byte
	XyztUnits     byte
	CalMax        float32
	CalMin        float32
	SliceDuration float32
	Toffset       float32
	Glmax         int32
	Glmin         int32
	Descrip       [80]byte
	AuxFile       [24]byte
	QformCode     int16
	SformCode     int16
	QuaternB      float32
	QuaternC      float32
	QuaternD      float32
	QoffsetX      float32
	QoffsetY      float32
	QoffsetZ      float32
	SrowX         [4]float32
	SrowY         [4]float32
	SrowZ         [4]float32
	IntentName    [16]byte
	Magic         [4]byte
}

// NewLabelHeader builds the header for a 3-D uint16 label volume of the
// given shape. No orientation is asserted: qform and sform codes are both
// 0, and all pixdims are 1, matching a volume saved without an affine.
func NewLabelHeader(shape [3]int) Header {
	h := Header{
		SizeofHdr: HeaderSize,
		Regular:   'r',
		Dim:       [8]int16{3, int16(shape[0]), int16(shape[1]), int16(shape[2]), 1, 1, 1, 1},
		Datatype:  DTUint16,
		Bitpix:    16,
		Pixdim:    [8]float32{1, 1, 1, 1, 1, 1, 1, 1},
		VoxOffset: DataOffset,
		SclSlope:  1,
		SclInter:  0,
		Magic:     [4]byte{'n', '+', '1', 0},
	}

	return h
}

// SetDescrip stores a free-text note in the header's 80-byte descrip field,
// truncating if needed and always leaving a terminating NUL.
func (h *Header) SetDescrip(note string) {
	for i := range h.Descrip {
		h.Descrip[i] = 0
	}
	copy(h.Descrip[:len(h.Descrip)-1], note)
}

// Encode writes the header in its on-disk little-endian layout.
func (h Header) Encode(w io.Writer) error {
	return binary.Write(w, binary.LittleEndian, h)
}

// DecodeHeader reads a NIfTI-1 header and confirms it calls itself one: the
// declared size must be 348 and the magic must be n+1 (single file) or ni1
// (header/data pair).
func DecodeHeader(r io.Reader) (Header, error) {
	var h Header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return h, fmt.Errorf("Reading NIfTI-1 header: %w", err)
	}

	if h.SizeofHdr != HeaderSize {
		return h, fmt.Errorf("Header declares sizeof_hdr %d; a little-endian NIfTI-1 file declares %d", h.SizeofHdr, HeaderSize)
	}

	magic := h.Magic
	if !(magic[0] == 'n' && (magic[1] == '+' || magic[1] == 'i') && magic[2] == '1' && magic[3] == 0) {
		return h, fmt.Errorf("Bad NIfTI magic % x", magic)
	}

	return h, nil
}

// Dims3 returns the spatial dimensions, validating that the header
// describes a 3-D volume (a trailing time dimension of 1 is tolerated).
func (h Header) Dims3() ([3]int, error) {
	nd := int(h.Dim[0])
	switch {
	case nd == 3:
	case nd == 4 && h.Dim[4] == 1:
	default:
		return [3]int{}, fmt.Errorf("Expected a 3-D volume, got dim %v", h.Dim)
	}

	shape := [3]int{int(h.Dim[1]), int(h.Dim[2]), int(h.Dim[3])}
	for i, dim := range shape {
		if dim < 1 {
			return [3]int{}, fmt.Errorf("Dimension %d is %d; all spatial dimensions must be positive", i, dim)
		}
	}

	return shape, nil
}
