// nii2png renders each z-slice of a NIfTI volume to a PNG. With a label
// configuration, voxel codes are painted in their configured colors over a
// transparent background, which suits the composite label volumes this
// pipeline writes. Without one, slices render grayscale, windowed to each
// slice's maximum intensity. One metadata line per PNG goes to stdout.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/henghuang/nifti"

	"github.com/bodycomp/segnifti/nifti1"
	"github.com/bodycomp/segnifti/seglabel"

	_ "github.com/bodycomp/segnifti/compileinfoprint"
)

func main() {
	var filename, output, configPath string

	flag.StringVar(&filename, "file", "", "Name of .nii or .nii.gz file to convert to PNGs. ")
	flag.StringVar(&output, "out", "", "Name of folder where the pngs will be emitted. Filenames will be {orig_filename}.z{z depth}_t{time}.png.")
	flag.StringVar(&configPath, "config", "", "Optional JSON configuration file. When set, voxel codes are painted in their label colors instead of grayscale.")
	flag.Parse()

	if filename == "" || output == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	var colors map[uint16]color.Color
	if configPath != "" {
		config, err := seglabel.ParseJSONConfigFromPath(configPath)
		if err != nil {
			log.Fatalln(err)
		}

		colors, err = config.Labels.ColorsByID()
		if err != nil {
			log.Fatalln(err)
		}
	}

	prefix := filepath.Base(filename)
	prefix = strings.TrimSuffix(prefix, ".nii.gz")
	prefix = strings.TrimSuffix(prefix, ".nii")

	if stat, err := os.Stat(output); err == nil && stat.IsDir() {
		// path is a directory already
	} else {
		os.MkdirAll(output, os.ModePerm)
	}

	niftiImage, err := nifti1.SafeParseImage(filename, true)
	if err != nil {
		log.Fatalln(err)
	}

	niftiHeader, err := nifti1.SafeParseHeader(filename)
	if err != nil {
		log.Fatalln(err)
	}

	if err := nifti2png(niftiImage, niftiHeader, prefix, output, colors); err != nil {
		log.Fatalln(err)
	}
}

func nifti2png(input nifti.Nifti1Image, niftiHeader nifti.Nifti1Header, prefix, output string, colors map[uint16]color.Color) error {
	dims := input.GetDims()
	xm, ym, zm, tm := dims[0], dims[1], dims[2], dims[3]

	rect := image.Rect(0, 0, xm, ym)
	colImg := image.NewRGBA(rect)

	// March forward in time
	for t := 0; t < tm; t++ {
		// And down the stack
		for z := 0; z < zm; z++ {
			at := func(x, y int) float64 {
				return float64(input.GetAt(x, y, z, t))
			}

			if colors != nil {
				if err := paintLabelSlice(colImg, xm, ym, at, colors); err != nil {
					return fmt.Errorf("%s slice z=%d t=%d: %w", prefix, z, t, err)
				}
			} else {
				paintGraySlice(colImg, xm, ym, at)
			}

			f, err := os.Create(filepath.Join(output, fmt.Sprintf("%s.z%06d_t%06d.png", prefix, z, t)))
			if err != nil {
				return err
			}
			fw := bufio.NewWriter(f)

			if err := png.Encode(fw, colImg); err != nil {
				return err
			}
			// Emit metadata about each PNG
			fmt.Printf("%s\t%d\t%d\t%g\t%g\t%g\n", fmt.Sprintf("%s.z%06d_t%06d", prefix, z, t), z, t, niftiHeader.Pixdim[1], niftiHeader.Pixdim[2], niftiHeader.Pixdim[3])

			fw.Flush()
			f.Close()

		}
	}

	return nil
}
