// Package catalog maps classifier output indices to canonical disease labels.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DefaultPlantType is used when a label carries no plant/condition separator.
const DefaultPlantType = "plant"

// Catalog is the immutable index -> label mapping loaded once at pipeline
// construction. Indices are contiguous from 0.
type Catalog struct {
	labels []string
}

// Load reads a JSON mapping of stringified indices to raw class labels, e.g.
// {"0": "Tomato_Late_blight", "1": "Tomato_healthy"}. Indices must form a
// contiguous range starting at 0; anything else is a configuration error.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read class catalog: %w", err)
	}
	raw := make(map[string]string)
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse class catalog: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("class catalog %s is empty", path)
	}
	labels := make([]string, len(raw))
	for key, label := range raw {
		idx, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("class catalog has non-integer index %q", key)
		}
		if idx < 0 || idx >= len(raw) {
			return nil, fmt.Errorf("class catalog indices are not contiguous: index %d out of range [0, %d)", idx, len(raw))
		}
		if labels[idx] != "" {
			return nil, fmt.Errorf("class catalog has duplicate index %d", idx)
		}
		labels[idx] = label
	}
	for idx, label := range labels {
		if label == "" {
			return nil, fmt.Errorf("class catalog is missing index %d", idx)
		}
	}
	return &Catalog{labels: labels}, nil
}

// Size returns the number of classes.
func (c *Catalog) Size() int {
	return len(c.labels)
}

// Label resolves a classifier output index to its formatted disease name.
func (c *Catalog) Label(index int) (string, error) {
	if index < 0 || index >= len(c.labels) {
		return "", fmt.Errorf("class index %d not present in catalog of %d classes", index, len(c.labels))
	}
	return FormatDiseaseName(c.labels[index]), nil
}

// RawLabel resolves an index to the unformatted class label.
func (c *Catalog) RawLabel(index int) (string, error) {
	if index < 0 || index >= len(c.labels) {
		return "", fmt.Errorf("class index %d not present in catalog of %d classes", index, len(c.labels))
	}
	return c.labels[index], nil
}

// FormatDiseaseName turns a raw class label like "Tomato_Late_blight" into a
// human-readable "Tomato - Late Blight".
func FormatDiseaseName(rawName string) string {
	formatted := strings.ReplaceAll(rawName, "_", " ")
	parts := strings.SplitN(formatted, " ", 2)
	if len(parts) == 2 {
		return parts[0] + " - " + titleCase(parts[1])
	}
	return titleCase(formatted)
}

// PlantType extracts the plant token from a formatted diagnosis, i.e. the
// portion before the " - " separator. Labels without a separator yield
// DefaultPlantType.
func PlantType(diagnosis string) string {
	if plant, _, found := strings.Cut(diagnosis, " - "); found {
		return plant
	}
	return DefaultPlantType
}

// IsHealthy reports whether a diagnosis describes a healthy plant.
func IsHealthy(diagnosis string) bool {
	return strings.Contains(strings.ToLower(diagnosis), "healthy")
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		lower := strings.ToLower(word)
		words[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(words, " ")
}
