package advisor

import (
	"fmt"

	"github.com/leafscan/leafscan-api/internal/caption"
	"github.com/leafscan/leafscan-api/internal/catalog"
)

// BuildClassifierPrompt creates the advisory prompt for a classifier-trusted
// diagnosis. Healthy and diseased plants get different templates.
func BuildClassifierPrompt(diagnosis string, confidence float64, plantType string) string {
	if catalog.IsHealthy(diagnosis) {
		return fmt.Sprintf(`You are an expert agricultural advisor. A %s plant has been analyzed and appears to be HEALTHY with %.1f%% confidence.

Please provide:
1. Confirmation of healthy status
2. Best practices to maintain plant health
3. Common threats to watch for in %s plants
4. Preventive care recommendations

Keep the advice practical, specific to %s, and encouraging for the farmer.`, plantType, confidence*100, plantType, plantType)
	}

	return fmt.Sprintf(`You are an expert agricultural advisor. A %s plant has been diagnosed with: %s
Detection Confidence: %.1f%%

Please provide comprehensive advice including:

1. DISEASE OVERVIEW
   - Brief description of %s
   - Why this disease occurs
   - Risk level assessment

2. SYMPTOMS TO VERIFY
   - Key visual symptoms to confirm diagnosis
   - Disease progression stages

3. TREATMENT RECOMMENDATIONS
   - Immediate actions to take
   - Organic/chemical treatment options
   - Application methods and timing

4. PREVENTIVE MEASURES
   - Cultural practices to prevent recurrence
   - Environmental management
   - Crop rotation suggestions

5. ADDITIONAL NOTES
   - Expected recovery timeline
   - When to seek professional help
   - Economic impact considerations

Keep the advice practical, actionable, and specific to %s cultivation.`, plantType, diagnosis, confidence*100, diagnosis, plantType)
}

// BuildVisualPrompt creates the advisory prompt for the captioning fallback
// route, built from the composite visual description.
func BuildVisualPrompt(analysis caption.Analysis, classifierConfidence float64) string {
	return fmt.Sprintf(`You are an expert agricultural advisor. A plant image has been analyzed visually because automated disease classification was uncertain (classifier confidence: %.1f%%).

VISUAL ANALYSIS:
%s

OBSERVED SYMPTOMS:
%s

VISUAL FEATURES:
%s

Based on these visual observations, please provide:

1. POSSIBLE DIAGNOSES
   - Most likely disease or condition (list top 3 possibilities)
   - Reasoning for each possibility

2. VISUAL SYMPTOM INTERPRETATION
   - What the observed symptoms typically indicate
   - Severity assessment

3. RECOMMENDED ACTIONS
   - Immediate steps to take
   - Diagnostic tests or further examination needed
   - Treatment options for each likely diagnosis

4. PREVENTIVE MEASURES
   - General plant health recommendations
   - Environmental factors to monitor

Note: Since this is based on visual analysis only, recommend consulting with a local agricultural extension office for definitive diagnosis if symptoms worsen.`,
		classifierConfidence*100,
		analysis.CombinedDescription,
		orNotAvailable(analysis.DiseaseSymptoms),
		orNotAvailable(analysis.VisualFeatures))
}

func orNotAvailable(s string) string {
	if s == "" {
		return "Not available"
	}
	return s
}
