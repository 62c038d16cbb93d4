package seglabel

import (
	"os"
	"path/filepath"
	"testing"
)

const testConfigJSON = `{
  "root_path": "/data/masks",
  "output_path": "/data/nifti",
  "shape": [320, 260, 316],
  "labels": {
    "P_BG": {"id": 0, "color": "#000000"},
    "P_AT": {"id": 1, "color": "#FF0000"},
    "P_LT": {"id": 2, "color": "#00FF00"},
    "P_VAT": {"id": 3, "color": "#0000FF"}
  },
  "exclude_subjects": ["103828_30"]
}`

func writeTestConfig(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("Writing test config: %v", err)
	}

	return path
}

func TestParseJSONConfigFromPath(t *testing.T) {
	path := writeTestConfig(t, testConfigJSON)

	jc, err := ParseJSONConfigFromPath(path)
	if err != nil {
		t.Fatalf("ParseJSONConfigFromPath: %v", err)
	}

	if jc.ConfigPath != path {
		t.Errorf("ConfigPath = %s, expected %s", jc.ConfigPath, path)
	}
	if jc.RootPath != "/data/masks" {
		t.Errorf("RootPath = %s", jc.RootPath)
	}
	if jc.Shape != [3]int{320, 260, 316} {
		t.Errorf("Shape = %v", jc.Shape)
	}

	// Defaults fill in when the config is silent
	if jc.ContainerName != DefaultContainerName {
		t.Errorf("ContainerName = %s, expected %s", jc.ContainerName, DefaultContainerName)
	}
	if jc.OutputPrefix != DefaultOutputPrefix {
		t.Errorf("OutputPrefix = %s, expected %s", jc.OutputPrefix, DefaultOutputPrefix)
	}

	// Colors are standardized to lowercase
	if got := jc.Labels["P_AT"].Color; got != "#ff0000" {
		t.Errorf("P_AT color = %s, expected #ff0000", got)
	}

	if err := jc.Validate(); err != nil {
		t.Errorf("Validate() on a good config: %v", err)
	}
}

func TestParseJSONConfigSyntaxError(t *testing.T) {
	path := writeTestConfig(t, `{"root_path": }`)

	if _, err := ParseJSONConfigFromPath(path); err == nil {
		t.Fatal("Expected a syntax error, got none")
	}
}

func TestJSONConfigValidate(t *testing.T) {
	base := func() JSONConfig {
		return JSONConfig{
			ConfigPath: "test.json",
			RootPath:   "/in",
			OutputPath: "/out",
			Shape:      [3]int{2, 3, 4},
			Labels: LabelMap{
				"P_BG": {ID: 0},
				"P_AT": {ID: 1},
			},
		}
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("Base config should validate: %v", err)
	}

	jc := base()
	jc.RootPath = ""
	if err := jc.Validate(); err == nil {
		t.Error("Expected an error for a missing root_path")
	}

	jc = base()
	jc.Shape[1] = 0
	if err := jc.Validate(); err == nil {
		t.Error("Expected an error for a zero shape dimension")
	}

	jc = base()
	jc.Labels = LabelMap{"P_AT": {ID: 1}}
	if err := jc.Validate(); err == nil {
		t.Error("Expected an error when no background label is configured")
	}
}

func TestJSONConfigDerivedValues(t *testing.T) {
	jc := JSONConfig{
		OutputPath:      "/out",
		OutputPrefix:    "AT_",
		Shape:           [3]int{320, 260, 316},
		ExcludeSubjects: []string{"103828_30"},
	}

	if got := jc.MaskShape(); got != [3]int{260, 320, 316} {
		t.Errorf("MaskShape() = %v, expected [260 320 316]", got)
	}

	if got := jc.OutputName("1234567_2"); got != "AT_1234567_2.nii.gz" {
		t.Errorf("OutputName = %s", got)
	}

	if got := jc.OutputFile("1234567_2"); got != filepath.Join("/out", "AT_1234567_2.nii.gz") {
		t.Errorf("OutputFile = %s", got)
	}

	excluded := jc.ExcludeSet()
	if _, ok := excluded["103828_30"]; !ok {
		t.Error("ExcludeSet should contain 103828_30")
	}
	if len(excluded) != 1 {
		t.Errorf("ExcludeSet has %d entries, expected 1", len(excluded))
	}
}

func TestColorsByID(t *testing.T) {
	labels := LabelMap{
		"P_BG": {ID: 0, Color: "#000000"},
		"P_AT": {ID: 1, Color: "#ff0000"},
	}

	colors, err := labels.ColorsByID()
	if err != nil {
		t.Fatalf("ColorsByID: %v", err)
	}

	// Background renders transparent no matter its configured color
	if _, _, _, a := colors[0].RGBA(); a != 0 {
		t.Errorf("Background alpha = %d, expected 0", a)
	}

	r, g, b, a := colors[1].RGBA()
	if r != 0xffff || g != 0 || b != 0 || a != 0xffff {
		t.Errorf("P_AT color channels = (%d, %d, %d, %d), expected opaque red", r, g, b, a)
	}
}
