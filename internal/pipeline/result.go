package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/leafscan/leafscan-api/internal/advisor"
	"github.com/leafscan/leafscan-api/internal/confidence"
)

// RankedPrediction is one entry of the formatted top-3 list.
type RankedPrediction struct {
	Disease    string  `json:"disease"`
	Confidence float64 `json:"confidence"`
}

// CNNPrediction carries the raw classifier output alongside the derived
// metrics and the formatted top-3 list.
type CNNPrediction struct {
	DiseaseName string             `json:"disease_name"`
	Confidence  float64            `json:"confidence"`
	Metrics     confidence.Metrics `json:"confidence_metrics"`
	Top3        []RankedPrediction `json:"top_3_predictions"`
	Raw         []float32          `json:"raw_predictions"`
}

// DiagnosisResult is the pipeline's output contract. A failed result carries
// only the error message; a successful one has every other field populated
// (VisualDescription only when the captioning fallback ran). Results are
// created fresh per request and never mutated afterwards.
type DiagnosisResult struct {
	ID                string         `json:"id,omitempty"`
	Success           bool           `json:"success"`
	Error             string         `json:"error,omitempty"`
	Diagnosis         string         `json:"diagnosis,omitempty"`
	Confidence        float64        `json:"confidence,omitempty"`
	Source            string         `json:"source,omitempty"`
	Timestamp         string         `json:"timestamp,omitempty"`
	CNNPredictions    *CNNPrediction `json:"cnn_predictions,omitempty"`
	VisualDescription string         `json:"visual_description,omitempty"`
	Advice            *advisor.Block `json:"advice,omitempty"`
	ImagePath         string         `json:"image_path,omitempty"`
}

// PrintResult writes a formatted diagnosis report.
func PrintResult(w io.Writer, result *DiagnosisResult) {
	if !result.Success {
		fmt.Fprintf(w, "Error: %s\n", result.Error)
		return
	}

	divider := strings.Repeat("=", 70)
	fmt.Fprintf(w, "\n%s\nDIAGNOSIS REPORT\n%s\n", divider, divider)
	fmt.Fprintf(w, "Diagnosis: %s\n", result.Diagnosis)
	fmt.Fprintf(w, "Confidence: %.2f%%\n", result.Confidence*100)
	fmt.Fprintf(w, "Source: %s\n", result.Source)
	fmt.Fprintf(w, "Timestamp: %s\n", result.Timestamp)

	if result.CNNPredictions != nil {
		fmt.Fprintf(w, "\n%s\nTOP %d PREDICTIONS\n%s\n", divider, len(result.CNNPredictions.Top3), divider)
		for i, pred := range result.CNNPredictions.Top3 {
			fmt.Fprintf(w, "%d. %s: %.2f%%\n", i+1, pred.Disease, pred.Confidence*100)
		}
	}

	if result.VisualDescription != "" {
		fmt.Fprintf(w, "\n%s\nVISUAL ANALYSIS\n%s\n%s\n", divider, divider, result.VisualDescription)
	}

	if result.Advice != nil {
		fmt.Fprintf(w, "\n%s\nAGRICULTURAL ADVICE\n%s\n%s\n%s\n", divider, divider, result.Advice.FullAdvice, divider)
	}
}

// SaveResult persists the result as indented JSON, creating the target
// directory when needed.
func SaveResult(result *DiagnosisResult, outputPath string) error {
	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(result, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to serialize result: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}
