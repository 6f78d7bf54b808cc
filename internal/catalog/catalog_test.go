package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "class_indices.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write catalog file: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeCatalog(t, `{"0": "Tomato_Late_blight", "1": "Tomato_healthy", "2": "Potato_Early_blight"}`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if c.Size() != 3 {
		t.Fatalf("Size() = %d, want 3", c.Size())
	}
	label, err := c.Label(0)
	if err != nil {
		t.Fatalf("Label(0) failed: %v", err)
	}
	if label != "Tomato - Late Blight" {
		t.Errorf("Label(0) = %q, want %q", label, "Tomato - Late Blight")
	}
	raw, err := c.RawLabel(2)
	if err != nil {
		t.Fatalf("RawLabel(2) failed: %v", err)
	}
	if raw != "Potato_Early_blight" {
		t.Errorf("RawLabel(2) = %q, want %q", raw, "Potato_Early_blight")
	}
}

func TestLoadRejectsBadCatalogs(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing file is surfaced", ""},
		{"gap in indices", `{"0": "A_b", "2": "C_d"}`},
		{"negative index", `{"-1": "A_b", "0": "C_d"}`},
		{"non-integer index", `{"zero": "A_b"}`},
		{"empty catalog", `{}`},
		{"not json", `not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "missing.json")
			if tt.content != "" {
				path = writeCatalog(t, tt.content)
			}
			if _, err := Load(path); err == nil {
				t.Errorf("Load() should have failed")
			}
		})
	}
}

func TestLabelOutOfRange(t *testing.T) {
	path := writeCatalog(t, `{"0": "Tomato_healthy"}`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if _, err := c.Label(5); err == nil {
		t.Errorf("Label(5) should have failed for a 1-class catalog")
	}
}

func TestFormatDiseaseName(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Tomato_Late_blight", "Tomato - Late Blight"},
		{"Pepper__bell___Bacterial_spot", "Pepper - Bell Bacterial Spot"},
		{"Tomato_healthy", "Tomato - Healthy"},
		{"healthy", "Healthy"},
	}
	for _, tt := range tests {
		if got := FormatDiseaseName(tt.raw); got != tt.want {
			t.Errorf("FormatDiseaseName(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestPlantType(t *testing.T) {
	if got := PlantType("Tomato - Late Blight"); got != "Tomato" {
		t.Errorf("PlantType() = %q, want Tomato", got)
	}
	if got := PlantType("Uncertain"); got != DefaultPlantType {
		t.Errorf("PlantType() without separator = %q, want %q", got, DefaultPlantType)
	}
}

func TestIsHealthy(t *testing.T) {
	if !IsHealthy("Tomato - Healthy") {
		t.Errorf("IsHealthy should detect healthy labels")
	}
	if IsHealthy("Tomato - Late Blight") {
		t.Errorf("IsHealthy should reject disease labels")
	}
}
