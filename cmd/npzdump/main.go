package main

import (
	"bufio"
	"context"
	"flag"
	"log"
	"os"
	"strings"

	"cloud.google.com/go/storage"

	_ "github.com/bodycomp/segnifti/compileinfoprint"
)

var (
	BufferSize = 4096
	STDOUT     = bufio.NewWriterSize(os.Stdout, BufferSize)
)

// Prints the layout of mask containers without decompressing their array
// data. Emits to stdout.
func main() {
	defer STDOUT.Flush()

	var path string

	flag.StringVar(&path, "path", "", "Path to a single .npy or .npz file (may be a gs:// URL, and may be gzip/zlib/xz/bzip2 wrapped), or to a folder holding .npz containers.")
	flag.Parse()

	if path == "" {
		flag.Usage()
		os.Exit(1)
	}

	var client *storage.Client
	if strings.HasPrefix(path, "gs://") {
		var err error
		client, err = storage.NewClient(context.Background())
		if err != nil {
			log.Fatalln(err)
		}
	}

	// Folder of containers
	if client == nil {
		stat, err := os.Stat(path)
		if err != nil {
			log.Fatalln(err)
		}

		if stat.IsDir() {
			if err := IterateOverFolder(path); err != nil {
				log.Fatalln(err)
			}

			return
		}
	}

	// Single file
	if err := ProcessContainer(path, client); err != nil {
		log.Fatalln(err)
	}
}
