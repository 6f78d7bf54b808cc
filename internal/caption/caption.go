// Package caption produces free-text visual descriptions of a leaf photo.
// It is the fallback stage used when the classifier output is not reliable.
package caption

import (
	"fmt"
	"strings"
)

// Prompts for the conditional captioning passes.
const (
	PromptDiseaseSymptoms = "describe the leaf disease symptoms:"
	PromptVisualFeatures  = "describe the visual appearance and any abnormalities:"
)

// Captioner turns an image into a descriptive caption. An empty prompt asks
// for a general, unguided description.
type Captioner interface {
	Caption(imagePath, prompt string) (string, error)
}

// Analysis is the composite output of one captioning pass over an image.
type Analysis struct {
	GeneralDescription  string `json:"general_description"`
	DiseaseSymptoms     string `json:"disease_symptoms"`
	VisualFeatures      string `json:"visual_features"`
	CombinedDescription string `json:"combined_description"`
}

// Analyzer runs the three captioning passes (general, symptom-focused,
// feature-focused) and assembles them into a single description.
type Analyzer struct {
	captioner Captioner
}

func NewAnalyzer(captioner Captioner) *Analyzer {
	return &Analyzer{captioner: captioner}
}

// Analyze never fails: captioning is a best-effort enrichment, so any model
// error degrades to placeholder text instead of surfacing to the caller.
func (a *Analyzer) Analyze(imagePath string) Analysis {
	general, err := a.captioner.Caption(imagePath, "")
	var symptoms, features string
	if err == nil {
		symptoms, err = a.captioner.Caption(imagePath, PromptDiseaseSymptoms)
	}
	if err == nil {
		features, err = a.captioner.Caption(imagePath, PromptVisualFeatures)
	}
	if err != nil {
		return Analysis{
			GeneralDescription:  "Unable to analyze image",
			DiseaseSymptoms:     "Analysis failed",
			VisualFeatures:      "Analysis failed",
			CombinedDescription: fmt.Sprintf("Error: %s", err),
		}
	}
	return Analysis{
		GeneralDescription:  general,
		DiseaseSymptoms:     symptoms,
		VisualFeatures:      features,
		CombinedDescription: CombineDescriptions(general, symptoms, features),
	}
}

// CombineDescriptions merges the three captions in a fixed order, dropping a
// focused caption when it repeats an earlier one verbatim. The comparison is
// exact string equality.
func CombineDescriptions(general, symptoms, features string) string {
	combined := fmt.Sprintf("Visual Analysis: %s. ", general)
	if symptoms != "" && symptoms != general {
		combined += fmt.Sprintf("Disease Symptoms: %s. ", symptoms)
	}
	if features != "" && features != general && features != symptoms {
		combined += fmt.Sprintf("Additional Features: %s.", features)
	}
	return strings.TrimSpace(combined)
}
