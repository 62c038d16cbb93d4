package nifti1

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"

	"github.com/bodycomp/segnifti/voxel"
)

func TestWriteLabelVolumeLayout(t *testing.T) {
	vol := voxel.NewLabelVolume([3]int{2, 3, 2})
	vol.Set(1, 0, 0, 7)
	vol.Set(0, 2, 1, 9)

	var buf bytes.Buffer
	if err := WriteLabelVolume(&buf, vol, "test"); err != nil {
		t.Fatalf("WriteLabelVolume: %v", err)
	}

	wantLen := DataOffset + 2*2*3*2
	if buf.Len() != wantLen {
		t.Fatalf("Stream is %d bytes, expected %d", buf.Len(), wantLen)
	}

	raw := buf.Bytes()

	h, err := DecodeHeader(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if h.Dim != [8]int16{3, 2, 3, 2, 1, 1, 1, 1} {
		t.Errorf("Dim = %v", h.Dim)
	}

	// The extension indicator is four zero bytes
	if !bytes.Equal(raw[HeaderSize:DataOffset], []byte{0, 0, 0, 0}) {
		t.Error("Extension indicator should be zero")
	}

	// Data is written with the first axis varying fastest, so voxel
	// (i, j, k) sits at flat position i + ni*(j + nj*k).
	at := func(i, j, k int) uint16 {
		pos := i + 2*(j+3*k)
		return binary.LittleEndian.Uint16(raw[DataOffset+2*pos:])
	}

	if got := at(1, 0, 0); got != 7 {
		t.Errorf("Voxel (1,0,0) = %d, expected 7", got)
	}
	if got := at(0, 2, 1); got != 9 {
		t.Errorf("Voxel (0,2,1) = %d, expected 9", got)
	}
	if got := at(0, 0, 0); got != 0 {
		t.Errorf("Voxel (0,0,0) = %d, expected 0", got)
	}
}

func TestWriteLabelVolumeRejectsOversizedDims(t *testing.T) {
	vol := &voxel.LabelVolume{Shape: [3]int{40000, 1, 1}}

	if err := WriteLabelVolume(io.Discard, vol, ""); err == nil {
		t.Fatal("Expected an error for a dimension beyond int16")
	}
}

func TestSaveLabelVolumeGzip(t *testing.T) {
	vol := voxel.NewLabelVolume([3]int{2, 2, 2})
	vol.Set(1, 1, 1, 3)

	path := filepath.Join(t.TempDir(), "AT_12345_2.nii.gz")
	if err := SaveLabelVolume(path, vol, "composite labels"); err != nil {
		t.Fatalf("SaveLabelVolume: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		t.Fatalf("The output should be a valid gzip stream: %v", err)
	}

	h, err := DecodeHeader(gz)
	if err != nil {
		t.Fatalf("DecodeHeader on decompressed stream: %v", err)
	}
	if h.Datatype != DTUint16 {
		t.Errorf("Datatype = %d", h.Datatype)
	}

	rest, err := io.ReadAll(gz)
	if err != nil {
		t.Fatal(err)
	}
	// 4 extension bytes plus 8 voxels of 2 bytes
	if len(rest) != 4+16 {
		t.Fatalf("Decompressed payload is %d bytes, expected 20", len(rest))
	}

	// Voxel (1,1,1) is the last in fortran order
	if got := binary.LittleEndian.Uint16(rest[len(rest)-2:]); got != 3 {
		t.Errorf("Voxel (1,1,1) = %d, expected 3", got)
	}
}

func TestSaveLabelVolumeUncompressed(t *testing.T) {
	vol := voxel.NewLabelVolume([3]int{1, 1, 1})

	path := filepath.Join(t.TempDir(), "plain.nii")
	if err := SaveLabelVolume(path, vol, ""); err != nil {
		t.Fatalf("SaveLabelVolume: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) != DataOffset+2 {
		t.Fatalf("File is %d bytes, expected %d", len(raw), DataOffset+2)
	}
	if _, err := DecodeHeader(bytes.NewReader(raw)); err != nil {
		t.Errorf("DecodeHeader: %v", err)
	}
}

// Re-running a conversion must produce byte-identical output, or reruns
// would look like data changes to downstream sync tooling.
func TestSaveLabelVolumeDeterministic(t *testing.T) {
	vol := voxel.NewLabelVolume([3]int{3, 2, 2})
	vol.Set(2, 1, 0, 1)
	vol.Set(0, 0, 1, 2)

	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.nii.gz")
	pathB := filepath.Join(dir, "b.nii.gz")

	if err := SaveLabelVolume(pathA, vol, "note"); err != nil {
		t.Fatal(err)
	}
	if err := SaveLabelVolume(pathB, vol, "note"); err != nil {
		t.Fatal(err)
	}

	a, err := os.ReadFile(pathA)
	if err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(pathB)
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(a, b) {
		t.Fatal("Two saves of the same volume differ byte for byte")
	}
}
