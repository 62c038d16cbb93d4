package seglabel

import (
	"encoding/json"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/carbocation/pfx"
)

// DefaultContainerName is the mask container expected within each subject
// directory unless the config overrides it.
const DefaultContainerName = "rework.npz"

// DefaultOutputPrefix is prepended to the subject key when naming output
// NIfTI files, e.g., AT_1234567_2.nii.gz.
const DefaultOutputPrefix = "AT_"

// JSONConfig describes one conversion run: where the per-subject mask
// containers live, where the composite NIfTI volumes should be written, and
// which labels make up the composite.
type JSONConfig struct {
	// ConfigPath is the path to the file this config was parsed from. Not
	// part of the JSON document itself.
	ConfigPath string

	// RootPath is the directory whose immediate subdirectories are subjects.
	RootPath string `json:"root_path"`

	// OutputPath is the directory where composite volumes are written.
	OutputPath string `json:"output_path"`

	// ContainerName is the mask container filename within each subject
	// directory. Defaults to DefaultContainerName.
	ContainerName string `json:"container_name"`

	// OutputPrefix is prepended to the subject key in output filenames.
	// Defaults to DefaultOutputPrefix.
	OutputPrefix string `json:"output_prefix"`

	// Shape is the expected (i, j, k) shape of the composite volume. The
	// masks themselves are stored with the first two axes swapped, i.e.,
	// with shape (j, i, k).
	Shape [3]int `json:"shape"`

	// Labels maps mask names to their composite codes and review colors.
	Labels LabelMap `json:"labels"`

	// ExcludeSubjects lists subject keys that are known to be bad and must
	// be skipped without being treated as failures.
	ExcludeSubjects []string `json:"exclude_subjects"`
}

// ParseJSONConfigFromPath takes a path to a JSON file that represents a
// JSONConfig and attempts to parse it into one.
func ParseJSONConfigFromPath(path string) (JSONConfig, error) {
	path, err := ExpandHomeDir(path)
	if err != nil {
		return JSONConfig{}, pfx.Err(err)
	}

	f, err := os.Open(path)
	if err != nil {
		return JSONConfig{}, pfx.Err(err)
	}
	defer f.Close()

	jc := JSONConfig{ConfigPath: path}

	if err := json.NewDecoder(f).Decode(&jc); err != nil {
		if jsErr, ok := err.(*json.SyntaxError); ok {
			// A syntax error is more useful if we can say where it sits.
			return jc, fmt.Errorf("Syntax error at byte offset %d of %s: %w", jsErr.Offset, path, jsErr)
		}
		return jc, pfx.Err(err)
	}

	// Standardize on lowercase hex colors
	for key, label := range jc.Labels {
		label.Color = strings.ToLower(label.Color)
		jc.Labels[key] = label
	}

	if jc.ContainerName == "" {
		jc.ContainerName = DefaultContainerName
	}

	if jc.OutputPrefix == "" {
		jc.OutputPrefix = DefaultOutputPrefix
	}

	if jc.RootPath, err = ExpandHomeDir(jc.RootPath); err != nil {
		return jc, pfx.Err(err)
	}

	if jc.OutputPath, err = ExpandHomeDir(jc.OutputPath); err != nil {
		return jc, pfx.Err(err)
	}

	return jc, nil
}

// Validate confirms that the parsed config is internally usable before a run
// starts, so that misconfiguration surfaces once rather than per subject.
func (jc JSONConfig) Validate() error {
	if jc.RootPath == "" {
		return fmt.Errorf("Config %s does not set root_path", jc.ConfigPath)
	}

	if jc.OutputPath == "" {
		return fmt.Errorf("Config %s does not set output_path", jc.ConfigPath)
	}

	for i, dim := range jc.Shape {
		if dim < 1 {
			return fmt.Errorf("Config %s: shape dimension %d is %d; all dimensions must be positive", jc.ConfigPath, i, dim)
		}
	}

	if len(jc.Labels) == 0 {
		return fmt.Errorf("Config %s defines no labels", jc.ConfigPath)
	}

	if !jc.Labels.Valid() {
		return fmt.Errorf("Config %s: labels must have unique IDs and exactly one background label with ID 0", jc.ConfigPath)
	}

	return nil
}

// MaskShape returns the shape the raw mask arrays are expected to have: the
// composite Shape with the first two axes swapped.
func (jc JSONConfig) MaskShape() [3]int {
	return [3]int{jc.Shape[1], jc.Shape[0], jc.Shape[2]}
}

// ExcludeSet returns the excluded subject keys as a set.
func (jc JSONConfig) ExcludeSet() map[string]struct{} {
	out := make(map[string]struct{})
	for _, key := range jc.ExcludeSubjects {
		out[key] = struct{}{}
	}

	return out
}

// OutputName returns the filename (not full path) of the composite volume
// for the given subject key.
func (jc JSONConfig) OutputName(subjectKey string) string {
	return jc.OutputPrefix + subjectKey + ".nii.gz"
}

// OutputFile returns the full path of the composite volume for the given
// subject key.
func (jc JSONConfig) OutputFile(subjectKey string) string {
	return filepath.Join(jc.OutputPath, jc.OutputName(subjectKey))
}

// ExpandHomeDir converts a leading ~/ into the current user's home
// directory. Via https://stackoverflow.com/a/17617721/199475
func ExpandHomeDir(path string) (string, error) {
	usr, err := user.Current()
	if err != nil {
		return path, pfx.Err(err)
	}

	if path == "~" {
		// In case of "~", which won't be caught by the "else if"
		path = usr.HomeDir
	} else if strings.HasPrefix(path, "~/") {
		// Use strings.HasPrefix so we don't match paths like "/x/~/x/"
		path = filepath.Join(usr.HomeDir, path[2:])
	}

	return path, nil
}
