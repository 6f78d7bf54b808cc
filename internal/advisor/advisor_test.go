package advisor

import (
	"strings"
	"testing"

	"github.com/leafscan/leafscan-api/internal/caption"
	"github.com/leafscan/leafscan-api/internal/common"
)

type fakeClient struct {
	response string
	prompts  []string
}

func (f *fakeClient) Name() string          { return "fake" }
func (f *fakeClient) CheckConnection() bool { return true }
func (f *fakeClient) Generate(prompt string) string {
	f.prompts = append(f.prompts, prompt)
	return f.response
}

func TestForClassifierPredictionUsesClient(t *testing.T) {
	client := &fakeClient{response: "Apply copper fungicide.\n\nDetails follow."}
	a := New(client, common.NewNopLogger())
	block := a.ForClassifierPrediction("Tomato - Late Blight", 0.87, "Tomato")

	if block.Source != SourceClassifier {
		t.Errorf("source = %q, want %q", block.Source, SourceClassifier)
	}
	if block.Diagnosis != "Tomato - Late Blight" {
		t.Errorf("diagnosis = %q", block.Diagnosis)
	}
	if block.Confidence != 0.87 {
		t.Errorf("confidence = %f, want 0.87", block.Confidence)
	}
	if block.FullAdvice != client.response {
		t.Errorf("full advice = %q", block.FullAdvice)
	}
	if block.Summary != "Apply copper fungicide." {
		t.Errorf("summary = %q, want first paragraph", block.Summary)
	}
	if len(client.prompts) != 1 || !strings.Contains(client.prompts[0], "Tomato - Late Blight") {
		t.Errorf("prompt should mention the diagnosis, got %v", client.prompts)
	}
}

func TestForClassifierPredictionNilClientFallsBack(t *testing.T) {
	a := New(nil, common.NewNopLogger())
	block := a.ForClassifierPrediction("Tomato - Late Blight", 0.55, "Tomato")
	if block.Source != SourceBasic {
		t.Errorf("source = %q, want %q", block.Source, SourceBasic)
	}
	if block.FullAdvice == "" {
		t.Errorf("fallback advice must not be empty")
	}
}

func TestForVisualAnalysis(t *testing.T) {
	client := &fakeClient{response: "Likely fungal infection."}
	a := New(client, common.NewNopLogger())
	analysis := caption.Analysis{
		GeneralDescription:  "a leaf",
		DiseaseSymptoms:     "brown spots",
		VisualFeatures:      "yellow halos",
		CombinedDescription: "Visual Analysis: a leaf. Disease Symptoms: brown spots. Additional Features: yellow halos.",
	}
	block := a.ForVisualAnalysis(analysis, 0.4)
	if block.Source != SourceVisual {
		t.Errorf("source = %q, want %q", block.Source, SourceVisual)
	}
	if block.Diagnosis != "Visual Analysis Based" {
		t.Errorf("diagnosis = %q", block.Diagnosis)
	}
	prompt := client.prompts[0]
	for _, want := range []string{"brown spots", "yellow halos", "POSSIBLE DIAGNOSES", "40.0%"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("visual prompt missing %q", want)
		}
	}
}

func TestBuildClassifierPromptBranches(t *testing.T) {
	healthy := BuildClassifierPrompt("Tomato - Healthy", 0.9, "Tomato")
	if !strings.Contains(healthy, "HEALTHY") || strings.Contains(healthy, "DISEASE OVERVIEW") {
		t.Errorf("healthy prompt should use the healthy template")
	}
	diseased := BuildClassifierPrompt("Tomato - Late Blight", 0.9, "Tomato")
	for _, section := range []string{"1. DISEASE OVERVIEW", "2. SYMPTOMS TO VERIFY", "3. TREATMENT RECOMMENDATIONS", "4. PREVENTIVE MEASURES", "5. ADDITIONAL NOTES"} {
		if !strings.Contains(diseased, section) {
			t.Errorf("diseased prompt missing section %q", section)
		}
	}
}

func TestBasicAdvice(t *testing.T) {
	healthy := BasicAdvice("Tomato - Healthy", 0.92)
	if !strings.Contains(healthy.FullAdvice, "HEALTHY") {
		t.Errorf("healthy template not used: %q", healthy.FullAdvice)
	}
	if healthy.Source != SourceBasic {
		t.Errorf("source = %q, want %q", healthy.Source, SourceBasic)
	}

	diseased := BasicAdvice("Tomato - Late Blight", 0.55)
	if !strings.Contains(diseased.FullAdvice, "Disease Detected: Tomato - Late Blight") {
		t.Errorf("diseased template not used: %q", diseased.FullAdvice)
	}
	if !strings.Contains(diseased.Summary, "55.0%") {
		t.Errorf("summary should carry the confidence, got %q", diseased.Summary)
	}

	// Deterministic apart from the timestamp.
	again := BasicAdvice("Tomato - Late Blight", 0.55)
	if again.FullAdvice != diseased.FullAdvice {
		t.Errorf("fallback advice must be deterministic")
	}
}

func TestExtractSummary(t *testing.T) {
	if got := ExtractSummary("short advice", 200); got != "short advice" {
		t.Errorf("short summary = %q", got)
	}

	long := strings.Repeat("word ", 100) // well over 200 chars, single paragraph
	got := ExtractSummary(long, 200)
	if len(got) > 204 {
		t.Errorf("summary length %d exceeds bound", len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("clipped summary should end with ellipsis, got %q", got)
	}

	multi := "first paragraph\n\nsecond paragraph"
	if got := ExtractSummary(multi, 200); got != "first paragraph" {
		t.Errorf("summary = %q, want first paragraph only", got)
	}
}
