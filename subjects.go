package segnifti

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/carbocation/pfx"
)

// Subject is one cohort participant found under the segmentation root
// directory. The directory name doubles as the subject key (e.g.,
// "103828_30" for participant 103828, instance 30).
type Subject struct {
	Key string
	Dir string
}

// ContainerPath returns the path to this subject's mask container file.
func (s Subject) ContainerPath(containerName string) string {
	return filepath.Join(s.Dir, containerName)
}

// EnumerateSubjects lists the subject directories under root in lexicographic
// order. Keys present in exclude or in processed are skipped; non-directory
// entries under root are not subjects. A missing or unreadable root is an
// error. An empty root yields an empty slice and no error.
func EnumerateSubjects(root string, exclude, processed map[string]struct{}) ([]Subject, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, pfx.Err(err)
	}

	subjects := make([]Subject, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		key := entry.Name()
		if _, skip := exclude[key]; skip {
			continue
		}
		if _, skip := processed[key]; skip {
			continue
		}

		subjects = append(subjects, Subject{Key: key, Dir: filepath.Join(root, key)})
	}

	return subjects, nil
}

// ProcessedKeys scans outputDir for label volumes written by an earlier run
// and returns the set of subject keys they encode. A missing output directory
// means nothing has been processed yet and is not an error, since the
// converter creates it on first use.
func ProcessedKeys(outputDir string) (map[string]struct{}, error) {
	keys := make(map[string]struct{})

	entries, err := os.ReadDir(outputDir)
	if os.IsNotExist(err) {
		return keys, nil
	} else if err != nil {
		return nil, pfx.Err(err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		if key, ok := ProcessedKeyFromFilename(entry.Name()); ok {
			keys[key] = struct{}{}
		}
	}

	return keys, nil
}

// ProcessedKeyFromFilename recovers the subject key from an output filename
// such as AT_103828_30.nii.gz. The volume suffix is stripped first, and the
// key is the second and third underscore-delimited tokens rejoined with an
// underscore (the leading token is the cohort tag, e.g. "AT"). Files without
// a .nii or .nii.gz suffix, or without at least one token after the tag, do
// not qualify.
func ProcessedKeyFromFilename(name string) (string, bool) {
	base := name
	switch {
	case strings.HasSuffix(base, ".nii.gz"):
		base = strings.TrimSuffix(base, ".nii.gz")
	case strings.HasSuffix(base, ".nii"):
		base = strings.TrimSuffix(base, ".nii")
	default:
		return "", false
	}

	tokens := strings.Split(base, "_")
	if len(tokens) < 2 {
		return "", false
	}
	if len(tokens) > 3 {
		tokens = tokens[:3]
	}

	key := strings.Join(tokens[1:], "_")
	if key == "" {
		return "", false
	}

	return key, true
}
