package npyz

import (
	"bufio"
	"compress/bzip2"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/xi2/xz"
)

type DataType byte

const (
	DataTypeInvalid DataType = iota
	DataTypeNoCompression
	DataTypeGzip
	DataTypeZip
	DataTypeXZ
	DataTypeZ
	DataTypeBZip2
)

func (d DataType) String() string {
	switch d {
	case DataTypeNoCompression:
		return "uncompressed"
	case DataTypeGzip:
		return "gzip"
	case DataTypeZip:
		return "zip"
	case DataTypeXZ:
		return "xz"
	case DataTypeZ:
		return "zlib"
	case DataTypeBZip2:
		return "bzip2"
	}

	return "invalid"
}

// Byte code signatures from https://stackoverflow.com/a/19127748/199475,
// plus the three common zlib FLG bytes.
var byteCodeSigs = []struct {
	dt  DataType
	sig []byte
}{
	{DataTypeGzip, []byte{0x1f, 0x8b, 0x08}},
	{DataTypeZip, []byte{0x50, 0x4b, 0x03, 0x04}},
	{DataTypeXZ, []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}},
	{DataTypeZ, []byte{0x78, 0x01}},
	{DataTypeZ, []byte{0x78, 0x9c}},
	{DataTypeZ, []byte{0x78, 0xda}},
	{DataTypeBZip2, []byte{0x42, 0x5a, 0x68}},
}

// DetectDataType identifies a stream by its leading bytes. The signature is
// peeked, not consumed, so the caller's reader still sees the full stream.
func DetectDataType(br *bufio.Reader) (DataType, error) {
	sig, err := br.Peek(6)
	if err != nil && len(sig) == 0 {
		return DataTypeInvalid, err
	}

Outer:
	for _, candidate := range byteCodeSigs {
		if len(sig) < len(candidate.sig) {
			continue
		}
		for position := range candidate.sig {
			if sig[position] != candidate.sig[position] {
				continue Outer
			}
		}
		return candidate.dt, nil
	}

	return DataTypeNoCompression, nil
}

// MaybeDecompress sniffs a stream and, when it is a compressed single file,
// wraps it in the matching decompressor. Zip archives are reported as
// DataTypeZip but returned unwrapped, since a zip is a container rather than
// a compressed byte stream; callers usually hand those to List.
func MaybeDecompress(r io.Reader) (io.Reader, DataType, error) {
	br := bufio.NewReader(r)

	dt, err := DetectDataType(br)
	if err != nil {
		return nil, DataTypeInvalid, err
	}

	switch dt {
	case DataTypeGzip:
		gz, err := gzip.NewReader(br)
		return gz, dt, err
	case DataTypeZ:
		zr, err := zlib.NewReader(br)
		return zr, dt, err
	case DataTypeBZip2:
		return bzip2.NewReader(br), dt, nil
	case DataTypeXZ:
		xr, err := xz.NewReader(br, 0)
		return xr, dt, err
	}

	return br, dt, nil
}
