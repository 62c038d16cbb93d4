// Package npyz reads the numpy-formatted mask containers produced by the
// segmentation pipeline: .npy arrays and .npz archives of them. It supports
// random access over local files or Google Storage objects, and streaming
// inspection when no ReaderAt is available.
package npyz

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/carbocation/pfx"

	"github.com/bodycomp/segnifti/voxel"
)

// npyMagic opens every .npy file, followed by one byte each of major and
// minor format version.
var npyMagic = []byte{0x93, 'N', 'U', 'M', 'P', 'Y'}

// The header dict is python repr text, e.g.:
// {'descr': '<f8', 'fortran_order': False, 'shape': (260, 320, 316), }
var (
	descrRE   = regexp.MustCompile(`'descr'\s*:\s*'([^']+)'`)
	fortranRE = regexp.MustCompile(`'fortran_order'\s*:\s*(True|False)`)
	shapeRE   = regexp.MustCompile(`'shape'\s*:\s*\(([^)]*)\)`)
)

// Header describes one .npy array: its dtype string, its memory order, and
// its shape.
type Header struct {
	Descr        string
	FortranOrder bool
	Shape        []int
}

// Elems returns the number of array elements the header promises.
func (h Header) Elems() int {
	n := 1
	for _, dim := range h.Shape {
		n *= dim
	}

	return n
}

// ElemSize returns the per-element byte width for the dtypes this package
// understands. Big-endian arrays are rejected; numpy only writes them on
// big-endian hosts, which this pipeline does not run on.
func (h Header) ElemSize() (int, error) {
	switch h.Descr {
	case "|b1", "|u1", "|i1", "<u1", "<i1":
		return 1, nil
	case "<u2", "<i2":
		return 2, nil
	case "<u4", "<i4", "<f4":
		return 4, nil
	case "<u8", "<i8", "<f8":
		return 8, nil
	}

	return 0, fmt.Errorf("Unsupported numpy dtype %q", h.Descr)
}

// DataSize returns the number of data bytes that follow the header.
func (h Header) DataSize() (int64, error) {
	size, err := h.ElemSize()
	if err != nil {
		return 0, err
	}

	return int64(h.Elems()) * int64(size), nil
}

// ParseHeader consumes the magic, version, and header dict of a .npy stream,
// leaving the reader positioned at the first data byte.
func ParseHeader(r io.Reader) (Header, error) {
	preamble := make([]byte, 8)
	if _, err := io.ReadFull(r, preamble); err != nil {
		return Header{}, fmt.Errorf("Reading npy preamble: %w", err)
	}

	for i, b := range npyMagic {
		if preamble[i] != b {
			return Header{}, fmt.Errorf("Not an npy stream (magic bytes are % x)", preamble[:6])
		}
	}

	major := preamble[6]

	// Version 1 carries a 2-byte header length; versions 2 and 3 widen it
	// to 4 bytes.
	var headerLen int
	switch major {
	case 1:
		var l uint16
		if err := binary.Read(r, binary.LittleEndian, &l); err != nil {
			return Header{}, fmt.Errorf("Reading npy header length: %w", err)
		}
		headerLen = int(l)
	case 2, 3:
		var l uint32
		if err := binary.Read(r, binary.LittleEndian, &l); err != nil {
			return Header{}, fmt.Errorf("Reading npy header length: %w", err)
		}
		headerLen = int(l)
	default:
		return Header{}, fmt.Errorf("Unsupported npy format version %d.%d", preamble[6], preamble[7])
	}

	text := make([]byte, headerLen)
	if _, err := io.ReadFull(r, text); err != nil {
		return Header{}, fmt.Errorf("Reading npy header dict: %w", err)
	}

	return parseHeaderDict(string(text))
}

func parseHeaderDict(text string) (Header, error) {
	h := Header{}

	m := descrRE.FindStringSubmatch(text)
	if m == nil {
		return h, fmt.Errorf("npy header has no 'descr' entry: %q", text)
	}
	h.Descr = m[1]

	m = fortranRE.FindStringSubmatch(text)
	if m == nil {
		return h, fmt.Errorf("npy header has no 'fortran_order' entry: %q", text)
	}
	h.FortranOrder = m[1] == "True"

	m = shapeRE.FindStringSubmatch(text)
	if m == nil {
		return h, fmt.Errorf("npy header has no 'shape' entry: %q", text)
	}
	for _, part := range strings.Split(m[1], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		dim, err := strconv.Atoi(part)
		if err != nil {
			return h, fmt.Errorf("npy shape dimension %q is not an integer: %w", part, err)
		}
		h.Shape = append(h.Shape, dim)
	}

	return h, nil
}

// ReadVolume parses one .npy stream into a 3-D float volume. Arrays of any
// supported dtype are widened to float64; Fortran-ordered data is permuted
// into the row-major layout voxel.Volume uses.
func ReadVolume(r io.Reader) (*voxel.Volume, error) {
	h, err := ParseHeader(r)
	if err != nil {
		return nil, err
	}

	return ReadVolumeData(r, h)
}

// ReadVolumeData reads the data section of a .npy stream whose header has
// already been consumed.
func ReadVolumeData(r io.Reader, h Header) (*voxel.Volume, error) {
	if len(h.Shape) != 3 {
		return nil, fmt.Errorf("Expected a 3-dimensional array, got shape %v", h.Shape)
	}
	for i, dim := range h.Shape {
		if dim < 1 {
			return nil, fmt.Errorf("Array dimension %d is %d; all dimensions must be positive", i, dim)
		}
	}

	size, err := h.DataSize()
	if err != nil {
		return nil, err
	}

	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("Array promises %d data bytes: %w", size, err)
	}

	flat, err := decodeScalars(buf, h.Descr, h.Elems())
	if err != nil {
		return nil, pfx.Err(err)
	}

	shape := [3]int{h.Shape[0], h.Shape[1], h.Shape[2]}
	if h.FortranOrder {
		flat = fortranToC(flat, shape)
	}

	return &voxel.Volume{Data: flat, Shape: shape}, nil
}

// decodeScalars widens n raw little-endian elements into float64s, in the
// order they appear in the file.
func decodeScalars(buf []byte, descr string, n int) ([]float64, error) {
	out := make([]float64, n)

	switch descr {
	case "|b1":
		for i := 0; i < n; i++ {
			if buf[i] != 0 {
				out[i] = 1
			}
		}
	case "|u1", "<u1":
		for i := 0; i < n; i++ {
			out[i] = float64(buf[i])
		}
	case "|i1", "<i1":
		for i := 0; i < n; i++ {
			out[i] = float64(int8(buf[i]))
		}
	case "<u2":
		for i := 0; i < n; i++ {
			out[i] = float64(binary.LittleEndian.Uint16(buf[2*i:]))
		}
	case "<i2":
		for i := 0; i < n; i++ {
			out[i] = float64(int16(binary.LittleEndian.Uint16(buf[2*i:])))
		}
	case "<u4":
		for i := 0; i < n; i++ {
			out[i] = float64(binary.LittleEndian.Uint32(buf[4*i:]))
		}
	case "<i4":
		for i := 0; i < n; i++ {
			out[i] = float64(int32(binary.LittleEndian.Uint32(buf[4*i:])))
		}
	case "<u8":
		for i := 0; i < n; i++ {
			out[i] = float64(binary.LittleEndian.Uint64(buf[8*i:]))
		}
	case "<i8":
		for i := 0; i < n; i++ {
			out[i] = float64(int64(binary.LittleEndian.Uint64(buf[8*i:])))
		}
	case "<f4":
		for i := 0; i < n; i++ {
			out[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:])))
		}
	case "<f8":
		for i := 0; i < n; i++ {
			out[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[8*i:]))
		}
	default:
		return nil, fmt.Errorf("Unsupported numpy dtype %q", descr)
	}

	return out, nil
}

// fortranToC reorders a column-major flat array into row-major order.
func fortranToC(flat []float64, shape [3]int) []float64 {
	d0, d1, d2 := shape[0], shape[1], shape[2]
	out := make([]float64, len(flat))

	for i := 0; i < d0; i++ {
		for j := 0; j < d1; j++ {
			for k := 0; k < d2; k++ {
				out[(i*d1+j)*d2+k] = flat[i+d0*(j+d1*k)]
			}
		}
	}

	return out
}
