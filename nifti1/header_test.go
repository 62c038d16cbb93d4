package nifti1

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// The encoded header must occupy exactly 348 bytes, or nothing downstream
// can read these files.
func TestHeaderSize(t *testing.T) {
	if size := binary.Size(Header{}); size != HeaderSize {
		t.Fatalf("binary.Size(Header{}) = %d, expected %d", size, HeaderSize)
	}

	var buf bytes.Buffer
	if err := NewLabelHeader([3]int{2, 3, 4}).Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if buf.Len() != HeaderSize {
		t.Fatalf("Encoded header is %d bytes, expected %d", buf.Len(), HeaderSize)
	}
}

func TestNewLabelHeader(t *testing.T) {
	h := NewLabelHeader([3]int{320, 260, 316})

	if h.SizeofHdr != 348 {
		t.Errorf("SizeofHdr = %d", h.SizeofHdr)
	}
	if h.Dim != [8]int16{3, 320, 260, 316, 1, 1, 1, 1} {
		t.Errorf("Dim = %v", h.Dim)
	}
	if h.Datatype != DTUint16 {
		t.Errorf("Datatype = %d, expected %d", h.Datatype, DTUint16)
	}
	if h.Bitpix != 16 {
		t.Errorf("Bitpix = %d", h.Bitpix)
	}
	if h.VoxOffset != 352 {
		t.Errorf("VoxOffset = %v", h.VoxOffset)
	}
	if h.SclSlope != 1 || h.SclInter != 0 {
		t.Errorf("Scaling = (%v, %v), expected identity", h.SclSlope, h.SclInter)
	}
	if h.QformCode != 0 || h.SformCode != 0 {
		t.Errorf("Orientation codes = (%d, %d), expected none", h.QformCode, h.SformCode)
	}
	if string(h.Magic[:]) != "n+1\x00" {
		t.Errorf("Magic = %q", h.Magic)
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	want := NewLabelHeader([3]int{5, 6, 7})
	want.SetDescrip("composite labels")

	var buf bytes.Buffer
	if err := want.Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := DecodeHeader(&buf)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}

	if got != want {
		t.Errorf("Round trip changed the header:\n got %+v\nwant %+v", got, want)
	}
}

func TestDecodeHeaderRejectsGarbage(t *testing.T) {
	garbage := make([]byte, HeaderSize)
	for i := range garbage {
		garbage[i] = byte(i)
	}

	if _, err := DecodeHeader(bytes.NewReader(garbage)); err == nil {
		t.Fatal("Expected an error for a garbage header")
	}
}

func TestSetDescripTruncates(t *testing.T) {
	var h Header

	long := make([]byte, 200)
	for i := range long {
		long[i] = 'x'
	}
	h.SetDescrip(string(long))

	if h.Descrip[len(h.Descrip)-1] != 0 {
		t.Error("Descrip must stay NUL-terminated after truncation")
	}
}

func TestDims3(t *testing.T) {
	h := NewLabelHeader([3]int{2, 3, 4})
	shape, err := h.Dims3()
	if err != nil {
		t.Fatalf("Dims3: %v", err)
	}
	if shape != [3]int{2, 3, 4} {
		t.Errorf("Dims3 = %v", shape)
	}

	// A 4-D header with a single timepoint still describes a volume
	h.Dim[0] = 4
	if _, err := h.Dims3(); err != nil {
		t.Errorf("Dims3 with nt=1: %v", err)
	}

	h.Dim[4] = 9
	if _, err := h.Dims3(); err == nil {
		t.Error("Expected an error for a 4-D timeseries")
	}
}
