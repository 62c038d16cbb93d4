package npyz

import (
	"io"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/krolaw/zipstream"
)

// Entry describes one member of an .npz archive as seen during a streaming
// pass.
type Entry struct {
	// Name is the raw zip member name; Key has the .npy suffix stripped.
	Name string
	Key  string

	CompressedSize   uint64
	UncompressedSize uint64

	// Header is the member's parsed .npy header. Err is set instead when
	// the member is not a parseable .npy array.
	Header Header
	Err    error
}

// List walks an .npz stream front to back without random access, reading
// only each member's .npy header. This keeps inspection of a multi-hundred-
// megabyte container to a handful of kilobytes of reads per member, and
// works on pipes and sequential storage readers.
func List(r io.Reader) ([]Entry, error) {
	zs := zipstream.NewReader(r)

	var out []Entry
	for {
		fh, err := zs.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return out, pfx.Err(err)
		}

		entry := Entry{
			Name:             fh.Name,
			Key:              strings.TrimSuffix(fh.Name, ".npy"),
			CompressedSize:   fh.CompressedSize64,
			UncompressedSize: fh.UncompressedSize64,
		}

		// Next() discards whatever remains of the member, so only the
		// header bytes are ever decompressed here.
		entry.Header, entry.Err = ParseHeader(zs)

		out = append(out, entry)
	}

	return out, nil
}
