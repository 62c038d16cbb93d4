package npyz

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strings"
)

// npy headers are padded so the data section starts on a 64-byte boundary.
const headerUnits = 64

// EncodeHeader renders a version 1.0 .npy preamble and header dict,
// space-padded so the full header is a multiple of 64 bytes and terminated
// with a newline.
func EncodeHeader(h Header) ([]byte, error) {
	if _, err := h.ElemSize(); err != nil {
		return nil, err
	}

	fortran := "False"
	if h.FortranOrder {
		fortran = "True"
	}

	dict := fmt.Sprintf("{'descr': '%s', 'fortran_order': %s, 'shape': %s, }", h.Descr, fortran, shapeRepr(h.Shape))

	// 6 magic bytes, 2 version bytes, and the 2-byte header length
	const preambleSize = 10

	total := preambleSize + len(dict) + 1
	if rem := total % headerUnits; rem != 0 {
		total += headerUnits - rem
	}

	headerLen := total - preambleSize
	if headerLen > math.MaxUint16 {
		return nil, fmt.Errorf("Header of %d bytes does not fit a version 1.0 npy file", headerLen)
	}

	out := make([]byte, 0, total)
	out = append(out, npyMagic...)
	out = append(out, 1, 0)
	out = append(out, byte(headerLen%256), byte(headerLen/256))
	out = append(out, dict...)
	out = append(out, strings.Repeat(" ", total-preambleSize-len(dict)-1)...)
	out = append(out, '\n')

	return out, nil
}

// shapeRepr formats a shape the way python repr formats a tuple, including
// the trailing comma a 1-tuple requires.
func shapeRepr(shape []int) string {
	if len(shape) == 1 {
		return fmt.Sprintf("(%d,)", shape[0])
	}

	parts := make([]string, 0, len(shape))
	for _, dim := range shape {
		parts = append(parts, fmt.Sprint(dim))
	}

	return "(" + strings.Join(parts, ", ") + ")"
}

// WriteNPY writes one array as a .npy stream. The flat data must be given
// in row-major order; if the header asks for fortran_order, the elements
// are permuted on the way out (3-D arrays only).
func WriteNPY(w io.Writer, h Header, flat []float64) error {
	if h.Elems() != len(flat) {
		return fmt.Errorf("Shape %v wants %d elements, got %d", h.Shape, h.Elems(), len(flat))
	}

	if h.FortranOrder {
		if len(h.Shape) != 3 {
			return fmt.Errorf("Refusing to write a fortran-ordered array of rank %d", len(h.Shape))
		}
		flat = cToFortran(flat, [3]int{h.Shape[0], h.Shape[1], h.Shape[2]})
	}

	header, err := EncodeHeader(h)
	if err != nil {
		return err
	}

	if _, err := w.Write(header); err != nil {
		return err
	}

	data, err := encodeScalars(flat, h.Descr)
	if err != nil {
		return err
	}

	_, err = w.Write(data)
	return err
}

func encodeScalars(flat []float64, descr string) ([]byte, error) {
	switch descr {
	case "|b1", "|u1", "<u1":
		out := make([]byte, len(flat))
		for i, v := range flat {
			out[i] = byte(v)
		}
		return out, nil
	case "|i1", "<i1":
		out := make([]byte, len(flat))
		for i, v := range flat {
			out[i] = byte(int8(v))
		}
		return out, nil
	case "<u2":
		out := make([]byte, 2*len(flat))
		for i, v := range flat {
			binary.LittleEndian.PutUint16(out[2*i:], uint16(v))
		}
		return out, nil
	case "<i2":
		out := make([]byte, 2*len(flat))
		for i, v := range flat {
			binary.LittleEndian.PutUint16(out[2*i:], uint16(int16(v)))
		}
		return out, nil
	case "<u4":
		out := make([]byte, 4*len(flat))
		for i, v := range flat {
			binary.LittleEndian.PutUint32(out[4*i:], uint32(v))
		}
		return out, nil
	case "<i4":
		out := make([]byte, 4*len(flat))
		for i, v := range flat {
			binary.LittleEndian.PutUint32(out[4*i:], uint32(int32(v)))
		}
		return out, nil
	case "<u8":
		out := make([]byte, 8*len(flat))
		for i, v := range flat {
			binary.LittleEndian.PutUint64(out[8*i:], uint64(v))
		}
		return out, nil
	case "<i8":
		out := make([]byte, 8*len(flat))
		for i, v := range flat {
			binary.LittleEndian.PutUint64(out[8*i:], uint64(int64(v)))
		}
		return out, nil
	case "<f4":
		out := make([]byte, 4*len(flat))
		for i, v := range flat {
			binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(float32(v)))
		}
		return out, nil
	case "<f8":
		out := make([]byte, 8*len(flat))
		for i, v := range flat {
			binary.LittleEndian.PutUint64(out[8*i:], math.Float64bits(v))
		}
		return out, nil
	}

	return nil, fmt.Errorf("Unsupported numpy dtype %q", descr)
}

// cToFortran reorders a row-major flat array into column-major order.
func cToFortran(flat []float64, shape [3]int) []float64 {
	d0, d1, d2 := shape[0], shape[1], shape[2]
	out := make([]float64, len(flat))

	for i := 0; i < d0; i++ {
		for j := 0; j < d1; j++ {
			for k := 0; k < d2; k++ {
				out[i+d0*(j+d1*k)] = flat[(i*d1+j)*d2+k]
			}
		}
	}

	return out
}
