package nifti1

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/klauspost/compress/gzip"

	"github.com/bodycomp/segnifti/voxel"
)

// WriteLabelVolume emits one 3-D uint16 volume as a single-file NIfTI-1
// stream: header, 4-byte extension indicator, then voxel data with the
// first axis varying fastest, as NIfTI requires.
func WriteLabelVolume(w io.Writer, vol *voxel.LabelVolume, descrip string) error {
	for _, dim := range vol.Shape {
		if dim > math.MaxInt16 {
			return fmt.Errorf("Dimension %d does not fit the int16 dim field of a NIfTI-1 header", dim)
		}
	}

	h := NewLabelHeader(vol.Shape)
	if descrip != "" {
		h.SetDescrip(descrip)
	}

	if err := h.Encode(w); err != nil {
		return pfx.Err(err)
	}

	// No header extensions
	if _, err := w.Write([]byte{0, 0, 0, 0}); err != nil {
		return pfx.Err(err)
	}

	d0, d1, d2 := vol.Shape[0], vol.Shape[1], vol.Shape[2]
	out := make([]byte, 2*d0*d1*d2)

	// The in-memory layout has the last axis fastest; the file wants the
	// first axis fastest.
	n := 0
	for k := 0; k < d2; k++ {
		for j := 0; j < d1; j++ {
			for i := 0; i < d0; i++ {
				binary.LittleEndian.PutUint16(out[n:], vol.Data[(i*d1+j)*d2+k])
				n += 2
			}
		}
	}

	if _, err := w.Write(out); err != nil {
		return pfx.Err(err)
	}

	return nil
}

// SaveLabelVolume writes the volume to path, gzip-compressing when the path
// ends in .gz. Compression metadata is held fixed (no mtime, no filename),
// so saving the same volume twice produces byte-identical files.
func SaveLabelVolume(path string, vol *voxel.LabelVolume, descrip string) error {
	f, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}

	bw := bufio.NewWriter(f)

	var target io.Writer = bw
	var gz *gzip.Writer
	if strings.HasSuffix(path, ".gz") {
		gz = gzip.NewWriter(bw)
		target = gz
	}

	if err := WriteLabelVolume(target, vol, descrip); err != nil {
		f.Close()
		return err
	}

	if gz != nil {
		if err := gz.Close(); err != nil {
			f.Close()
			return pfx.Err(err)
		}
	}

	if err := bw.Flush(); err != nil {
		f.Close()
		return pfx.Err(err)
	}

	return pfx.Err(f.Close())
}
