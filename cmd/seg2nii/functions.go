package main

import (
	"fmt"
	"strings"

	"github.com/bodycomp/segnifti"
	"github.com/bodycomp/segnifti/nifti1"
	"github.com/bodycomp/segnifti/npyz"
	"github.com/bodycomp/segnifti/seglabel"
	"github.com/bodycomp/segnifti/voxel"
)

type conversionResult struct {
	Subject string
	Output  string
	Err     error
}

// TSV renders the result as manifest fields. Error text is flattened so it
// cannot break the row structure.
func (r conversionResult) TSV() []string {
	status := "converted"
	errText := ""
	if r.Err != nil {
		status = "failed"
		errText = strings.ReplaceAll(r.Err.Error(), "\t", " ")
		errText = strings.ReplaceAll(errText, "\n", " ")
	}

	return []string{r.Subject, status, r.Output, errText}
}

// convertSubject reads one subject's mask container, folds the masks into a
// composite label volume, and writes it as a gzipped NIfTI file. It returns
// the output path on success.
func convertSubject(config seglabel.JSONConfig, subject segnifti.Subject, strict bool) (string, error) {
	container, err := npyz.Open(subject.ContainerPath(config.ContainerName), nil)
	if err != nil {
		return "", err
	}
	defer container.Close()

	names := make([]string, 0, len(config.Labels))
	for _, label := range config.Labels.Sorted() {
		names = append(names, label.Label)
	}

	masks, err := container.ReadVolumes(names)
	if err != nil {
		return "", err
	}

	var composite *voxel.LabelVolume
	if strict {
		composite, err = config.Labels.CompositeVolumeStrict(masks, config.Shape)
	} else {
		composite, err = config.Labels.CompositeVolume(masks, config.Shape)
	}
	if err != nil {
		return "", fmt.Errorf("Compositing %s: %w", subject.Key, err)
	}

	outPath := config.OutputFile(subject.Key)
	if err := nifti1.SaveLabelVolume(outPath, composite, "composite of "+config.ContainerName); err != nil {
		return "", err
	}

	return outPath, nil
}
