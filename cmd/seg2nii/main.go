// seg2nii walks a directory of per-subject segmentation mask containers and
// converts each one into a single composite NIfTI label volume, named
// {prefix}{subject}.nii.gz in the output directory. Subjects that already
// have an output file are skipped, so an interrupted batch can simply be
// rerun. A TSV manifest of per-subject outcomes is written to stdout, and
// logs go to stderr.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/bodycomp/segnifti"
	"github.com/bodycomp/segnifti/seglabel"

	_ "github.com/bodycomp/segnifti/compileinfoprint"
)

func init() {
	flag.Usage = func() {
		flag.PrintDefaults()

		log.Println("Example JSONConfig file layout:")
		bts, err := json.MarshalIndent(seglabel.JSONConfig{
			RootPath:      "/path/to/subjects",
			OutputPath:    "/path/to/output",
			ContainerName: seglabel.DefaultContainerName,
			OutputPrefix:  seglabel.DefaultOutputPrefix,
			Shape:         [3]int{320, 260, 316},
			Labels: seglabel.LabelMap{
				"P_BG":  seglabel.Label{ID: 0, Color: "#000000"},
				"P_AT":  seglabel.Label{ID: 1, Color: "#ff0000"},
				"P_LT":  seglabel.Label{ID: 2, Color: "#00ff00"},
				"P_VAT": seglabel.Label{ID: 3, Color: "#0000ff"},
			},
			ExcludeSubjects: []string{"103828_30"},
		}, "", "  ")
		if err == nil {
			log.Println(string(bts))
		}
	}
}

func main() {
	start := time.Now()
	log.Println("seg2nii start")
	defer func() {
		log.Printf("seg2nii end. Took %.2f seconds\n", time.Since(start).Seconds())
	}()

	var jsonConfig, rootPath, outputPath, containerName string
	var workers int
	var reprocess, strict bool

	flag.StringVar(&jsonConfig, "config", "", "JSONConfig file describing paths, volume shape, and labels")
	flag.StringVar(&rootPath, "root", "", "(Optional) Override the config's root_path: the folder whose subdirectories are subjects")
	flag.StringVar(&outputPath, "out", "", "(Optional) Override the config's output_path")
	flag.StringVar(&containerName, "container", "", "(Optional) Override the config's container_name, the mask archive within each subject folder")
	flag.IntVar(&workers, "workers", 1, "(Optional) Number of subjects converted concurrently. Memory use scales with this.")
	flag.BoolVar(&reprocess, "reprocess", false, "(Optional) Convert subjects even when their output file already exists")
	flag.BoolVar(&strict, "strict", false, "(Optional) Require one-hot masks: reject any voxel claimed by more than one non-background mask")
	flag.Parse()

	if jsonConfig == "" {
		flag.Usage()
		os.Exit(1)
	}

	config, err := seglabel.ParseJSONConfigFromPath(jsonConfig)
	if err != nil {
		log.Fatalln(err)
	}

	if rootPath != "" {
		config.RootPath = rootPath
	}
	if outputPath != "" {
		config.OutputPath = outputPath
	}
	if containerName != "" {
		config.ContainerName = containerName
	}

	if err := config.Validate(); err != nil {
		log.Fatalln(err)
	}
	if workers < 1 {
		log.Fatalf("-workers must be at least 1, got %d\n", workers)
	}

	if err := run(config, workers, reprocess, strict); err != nil {
		log.Fatalln(err)
	}
}

func run(config seglabel.JSONConfig, workers int, reprocess, strict bool) error {
	processed := map[string]struct{}{}
	if !reprocess {
		var err error
		if processed, err = segnifti.ProcessedKeys(config.OutputPath); err != nil {
			return err
		}
	}

	exclude := config.ExcludeSet()

	subjects, err := segnifti.EnumerateSubjects(config.RootPath, exclude, processed)
	if err != nil {
		return err
	}

	log.Printf("Found %d subjects to convert under %s (%d already done, %d excluded by config)\n",
		len(subjects), config.RootPath, len(processed), len(exclude))

	if err := os.MkdirAll(config.OutputPath, os.ModePerm); err != nil {
		return err
	}

	// One goroutine owns stdout so manifest lines never interleave
	results := make(chan conversionResult)
	manifestDone := make(chan int)
	go func() {
		failed := 0

		w := bufio.NewWriter(os.Stdout)
		fmt.Fprintln(w, strings.Join([]string{"subject", "status", "output", "error"}, "\t"))
		for res := range results {
			if res.Err != nil {
				failed++
			}
			fmt.Fprintln(w, strings.Join(res.TSV(), "\t"))
		}
		w.Flush()

		manifestDone <- failed
	}()

	sem := make(chan bool, workers)
	for i, subject := range subjects {
		sem <- true
		go func(subject segnifti.Subject) {
			defer func() { <-sem }()

			outPath, err := convertSubject(config, subject, strict)
			if err != nil {
				log.Println(subject.Key, err, "Skipping subject...")
			}
			results <- conversionResult{Subject: subject.Key, Output: outPath, Err: err}
		}(subject)

		if (i+1)%100 == 0 {
			log.Printf("Dispatched %d of %d subjects\n", i+1, len(subjects))
		}
	}

	for i := 0; i < cap(sem); i++ {
		sem <- true
	}
	close(results)

	if failed := <-manifestDone; failed > 0 {
		return fmt.Errorf("%d of %d subjects failed", failed, len(subjects))
	}

	log.Printf("Converted %d subjects\n", len(subjects))

	return nil
}
