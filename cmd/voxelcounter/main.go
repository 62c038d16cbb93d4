// voxelcounter tallies label volumes: for each .nii or .nii.gz file it
// emits one TSV row per label with the voxel count and the physical volume
// implied by the header's pixel dimensions. Output is long-format so that
// downstream tools can group by label without parsing column names.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/bodycomp/segnifti/seglabel"

	_ "github.com/bodycomp/segnifti/compileinfoprint"
)

func main() {
	start := time.Now()
	log.Println("voxelcounter start")
	defer func() {
		log.Printf("voxelcounter end. Took %.2f seconds\n", time.Since(start).Seconds())
	}()

	var path, jsonConfig string
	var workers int

	flag.StringVar(&path, "path", "", "A .nii/.nii.gz file, or a folder of them")
	flag.StringVar(&jsonConfig, "config", "", "(Optional) JSONConfig file; when given, codes are reported under their label names and all configured labels get a row")
	flag.IntVar(&workers, "workers", runtime.NumCPU(), "(Optional) Number of files counted concurrently")
	flag.Parse()

	if path == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	var labels seglabel.LabelMap
	if jsonConfig != "" {
		config, err := seglabel.ParseJSONConfigFromPath(jsonConfig)
		if err != nil {
			log.Fatalln(err)
		}
		labels = config.Labels
	}

	files, err := listVolumeFiles(path)
	if err != nil {
		log.Fatalln(err)
	}
	if len(files) == 0 {
		log.Fatalf("No .nii or .nii.gz files found under %s\n", path)
	}

	if workers < 1 {
		workers = 1
	}

	if err := run(files, labels, workers); err != nil {
		log.Fatalln(err)
	}
}

// listVolumeFiles accepts either a single volume or a folder and returns
// the volume files to count.
func listVolumeFiles(path string) ([]string, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if !stat.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, ".nii") || strings.HasSuffix(name, ".nii.gz") {
			out = append(out, filepath.Join(path, name))
		}
	}

	return out, nil
}

func run(files []string, labels seglabel.LabelMap, workers int) error {
	// One goroutine owns stdout so rows from concurrent counts never
	// interleave
	results := make(chan []string)
	printDone := make(chan struct{})
	go func() {
		w := bufio.NewWriter(os.Stdout)
		fmt.Fprintln(w, strings.Join([]string{"file", "subject", "label", "label_id", "voxels", "voxel_mm3", "total_mm3"}, "\t"))
		for row := range results {
			fmt.Fprintln(w, strings.Join(row, "\t"))
		}
		w.Flush()
		close(printDone)
	}()

	failures := make(chan string, len(files))

	sem := make(chan bool, workers)
	for i, file := range files {
		sem <- true
		go func(file string) {
			defer func() { <-sem }()

			rows, err := countOneFile(file, labels)
			if err != nil {
				log.Println(file, err, "Skipping file...")
				failures <- file
				return
			}
			for _, row := range rows {
				results <- row
			}
		}(file)

		if (i+1)%100 == 0 {
			log.Printf("Dispatched %d of %d files\n", i+1, len(files))
		}
	}

	for i := 0; i < cap(sem); i++ {
		sem <- true
	}
	close(results)
	close(failures)
	<-printDone

	failed := 0
	for range failures {
		failed++
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}

	return nil
}
