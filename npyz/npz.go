package npyz

import (
	"archive/zip"
	"fmt"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"

	"github.com/bodycomp/segnifti"
	"github.com/bodycomp/segnifti/voxel"
)

// Container is an opened .npz archive: a zip file whose members are .npy
// arrays keyed by name.
type Container struct {
	Path string

	rac segnifti.ReaderAtCloser
	zr  *zip.Reader
}

// Open opens an .npz container from a local path or, with a gs:// prefix and
// a non-nil client, from Google Storage.
func Open(path string, client *storage.Client) (*Container, error) {
	rac, nBytes, err := segnifti.MaybeOpenFromGoogleStorage(path, client)
	if err != nil {
		return nil, pfx.Err(err)
	}

	zr, err := zip.NewReader(rac, nBytes)
	if err != nil {
		rac.Close()
		return nil, fmt.Errorf("%s does not look like an npz container: %w", path, err)
	}

	return &Container{Path: path, rac: rac, zr: zr}, nil
}

// Close releases the underlying file or storage reader.
func (c *Container) Close() error {
	return c.rac.Close()
}

// Keys lists the array names in the container, sorted, with the .npy
// member suffix stripped.
func (c *Container) Keys() []string {
	out := make([]string, 0, len(c.zr.File))
	for _, f := range c.zr.File {
		out = append(out, strings.TrimSuffix(f.Name, ".npy"))
	}
	sort.Strings(out)

	return out
}

// member resolves an array key to its zip entry, tolerating callers that
// pass the member name with its .npy suffix already attached.
func (c *Container) member(key string) (*zip.File, error) {
	for _, f := range c.zr.File {
		if f.Name == key+".npy" || f.Name == key {
			return f, nil
		}
	}

	return nil, fmt.Errorf("Container %s has no array %q (has: %s)", c.Path, key, strings.Join(c.Keys(), ", "))
}

// Header reads just the .npy header of one array.
func (c *Container) Header(key string) (Header, error) {
	f, err := c.member(key)
	if err != nil {
		return Header{}, err
	}

	rc, err := f.Open()
	if err != nil {
		return Header{}, pfx.Err(err)
	}
	defer rc.Close()

	h, err := ParseHeader(rc)
	if err != nil {
		return Header{}, fmt.Errorf("Container %s, array %q: %w", c.Path, key, err)
	}

	return h, nil
}

// ReadVolume reads one array as a 3-D float volume.
func (c *Container) ReadVolume(key string) (*voxel.Volume, error) {
	f, err := c.member(key)
	if err != nil {
		return nil, err
	}

	rc, err := f.Open()
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer rc.Close()

	vol, err := ReadVolume(rc)
	if err != nil {
		return nil, fmt.Errorf("Container %s, array %q: %w", c.Path, key, err)
	}

	return vol, nil
}

// ReadVolumes reads the named arrays into a map, failing on the first array
// that is missing or malformed.
func (c *Container) ReadVolumes(keys []string) (map[string]*voxel.Volume, error) {
	out := make(map[string]*voxel.Volume, len(keys))

	for _, key := range keys {
		vol, err := c.ReadVolume(key)
		if err != nil {
			return nil, err
		}
		out[key] = vol
	}

	return out, nil
}
