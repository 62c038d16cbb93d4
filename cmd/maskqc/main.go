// maskqc inspects a segmentation mask container before conversion. For each
// stored array it reports the value range, dispersion, tail quantiles, and
// the fraction of voxels the class claims, and across arrays it counts
// voxels that no class claims, voxels that more than one class claims, and
// voxels whose class values do not sum to one. Summary rows go to stdout as
// TSV; histograms and cross-class counts go to stderr so stdout stays
// machine-readable. Containers may be local paths or gs:// URLs.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/bodycomp/segnifti/npyz"
	"github.com/bodycomp/segnifti/seglabel"

	_ "github.com/bodycomp/segnifti/compileinfoprint"
)

func main() {
	start := time.Now()
	log.Println("maskqc start")
	defer func() {
		log.Printf("maskqc end. Took %.2f seconds\n", time.Since(start).Seconds())
	}()

	var containerPath, configPath string
	var bins int
	var tolerance float64
	var hist bool

	flag.StringVar(&containerPath, "container", "", "Path to an .npz mask container. May be a gs:// URL.")
	flag.StringVar(&configPath, "config", "", "Optional JSON configuration file naming the expected masks and shape.")
	flag.IntVar(&bins, "bins", 25, "Number of histogram buckets.")
	flag.Float64Var(&tolerance, "tolerance", 0.01, "Permitted deviation of the per-voxel class sum from 1.")
	flag.BoolVar(&hist, "hist", true, "Print an ASCII histogram of each mask's values to stderr.")
	flag.Parse()

	if containerPath == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	var config *seglabel.JSONConfig
	if configPath != "" {
		cfg, err := seglabel.ParseJSONConfigFromPath(configPath)
		if err != nil {
			log.Fatalln(err)
		}
		config = &cfg
	}

	var client *storage.Client
	if strings.HasPrefix(containerPath, "gs://") {
		var err error
		client, err = storage.NewClient(context.Background())
		if err != nil {
			log.Fatalln(err)
		}
	}

	if err := run(containerPath, config, client, bins, tolerance, hist); err != nil {
		log.Fatalln(err)
	}
}

func run(containerPath string, config *seglabel.JSONConfig, client *storage.Client, bins int, tolerance float64, hist bool) error {
	container, err := npyz.Open(containerPath, client)
	if err != nil {
		return err
	}
	defer container.Close()

	keys := container.Keys()
	if len(keys) == 0 {
		return fmt.Errorf("Container %s holds no arrays", containerPath)
	}

	if config != nil {
		warnConfigMismatch(keys, config)
	}

	masks, err := container.ReadVolumes(keys)
	if err != nil {
		return err
	}

	if config != nil {
		want := config.MaskShape()
		for _, key := range keys {
			if masks[key].Shape != want {
				log.Printf("Mask %s has shape %v but the configured shape implies %v\n", key, masks[key].Shape, want)
			}
		}
	}

	fmt.Println(strings.Join(qcHeader, "\t"))
	for _, key := range keys {
		st := computeMaskStats(masks[key])
		fmt.Println(strings.Join(st.Row(containerPath, key), "\t"))

		if hist {
			if err := printHistogram(os.Stderr, key, st.values, bins); err != nil {
				return err
			}
		}
	}

	unclaimed, multi, badsum, total, err := crossClass(masks, tolerance)
	if err != nil {
		log.Println("Skipping cross-class checks:", err)
		return nil
	}

	log.Printf("%d of %d voxels are claimed by no class (no value above 0.5)\n", unclaimed, total)
	log.Printf("%d of %d voxels are claimed by more than one class\n", multi, total)
	log.Printf("%d of %d voxels have a class sum more than %g away from 1\n", badsum, total, tolerance)

	return nil
}

// warnConfigMismatch logs masks the label map does not name and labels the
// container does not carry. Mismatches are reported rather than fatal so the
// tool can still describe containers from other segmentation runs.
func warnConfigMismatch(keys []string, config *seglabel.JSONConfig) {
	expected := make(map[string]bool)
	for _, label := range config.Labels.Sorted() {
		expected[label.Label] = true
	}

	present := make(map[string]bool)
	for _, key := range keys {
		present[key] = true
		if !expected[key] {
			log.Printf("Mask %s is not named in the configured label map\n", key)
		}
	}

	for _, label := range config.Labels.Sorted() {
		if !present[label.Label] {
			log.Printf("Configured label %s has no mask in this container\n", label.Label)
		}
	}
}
