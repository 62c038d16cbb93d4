package main

import (
	"fmt"
	"io"
	"io/fs"
	"log"
	"path/filepath"
	"strconv"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"

	"github.com/bodycomp/segnifti"
	"github.com/bodycomp/segnifti/npyz"
)

func IterateOverFolder(path string) error {
	var containers []string
	err := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".npz") {
			containers = append(containers, p)
		}

		return nil
	})
	if err != nil {
		return pfx.Err(err)
	}

	for _, container := range containers {
		if err := ProcessContainer(container, nil); err != nil {
			log.Println("Ignoring error and continuing:", err.Error())
		}
	}

	return nil
}

// ProcessContainer dumps the layout of one file: each member of an .npz
// archive, or the single array of an .npy file. Compression wrappers around
// the file are peeled off first, so .npy.gz and friends work too.
func ProcessContainer(path string, client *storage.Client) error {
	fmt.Fprintln(STDOUT, strings.Repeat("=", 30))
	fmt.Fprintln(STDOUT, path)
	fmt.Fprintln(STDOUT, strings.Repeat("=", 30))

	f, _, err := segnifti.MaybeOpenFromGoogleStorage(path, client)
	if err != nil {
		return err
	}
	defer f.Close()

	rdr := io.Reader(f)
	var dt npyz.DataType
	for {
		rdr, dt, err = npyz.MaybeDecompress(rdr)
		if err != nil {
			return pfx.Err(err)
		}

		switch dt {
		case npyz.DataTypeGzip, npyz.DataTypeZ, npyz.DataTypeXZ, npyz.DataTypeBZip2:
			// A wrapper came off; sniff what was inside it.
			continue
		}

		break
	}

	if dt == npyz.DataTypeZip {
		entries, err := npyz.List(rdr)
		if err != nil {
			return err
		}

		for _, entry := range entries {
			if entry.Err != nil {
				fmt.Fprintf(STDOUT, "%s\t(not an npy member: %v)\n", entry.Name, entry.Err)
				continue
			}

			fmt.Fprintf(STDOUT, "%s\t%s\tstored=%d\n", entry.Name, describeHeader(entry.Header), entry.CompressedSize)
		}

		return nil
	}

	h, err := npyz.ParseHeader(rdr)
	if err != nil {
		return err
	}

	fmt.Fprintln(STDOUT, describeHeader(h))

	return nil
}

func describeHeader(h npyz.Header) string {
	size := "?"
	if n, err := h.DataSize(); err == nil {
		size = strconv.FormatInt(n, 10)
	}

	return fmt.Sprintf("descr=%s\tfortran=%t\tshape=%v\telems=%d\tbytes=%s", h.Descr, h.FortranOrder, h.Shape, h.Elems(), size)
}
