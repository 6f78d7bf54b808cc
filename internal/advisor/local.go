package advisor

import (
	"fmt"
	"time"

	"github.com/leafscan/leafscan-api/internal/catalog"
)

// BasicAdvice is the local fallback generator used when no advisory service is
// reachable. It is deterministic: static templates keyed only on whether the
// diagnosis indicates a healthy plant, with the same Block shape as the
// service path.
func BasicAdvice(diagnosis string, confidence float64) Block {
	var adviceText string
	if catalog.IsHealthy(diagnosis) {
		adviceText = fmt.Sprintf(`Your plant appears to be HEALTHY (Confidence: %.1f%%).

General Recommendations:
- Continue current care practices
- Monitor regularly for any changes
- Maintain proper watering and fertilization
- Ensure adequate sunlight and air circulation

Preventive Measures:
- Practice crop rotation
- Remove diseased plant debris
- Avoid overhead watering
- Monitor for pests regularly`, confidence*100)
	} else {
		adviceText = fmt.Sprintf(`Disease Detected: %s (Confidence: %.1f%%)

Immediate Actions:
- Isolate affected plants if possible
- Remove severely infected leaves
- Improve air circulation around plants
- Avoid overhead watering

Treatment Options:
- Consult with local agricultural extension office
- Consider appropriate fungicides or treatments
- Follow product labels carefully

Preventive Measures:
- Practice crop rotation
- Use disease-resistant varieties
- Maintain proper plant spacing
- Monitor plants regularly

Note: For specific treatment recommendations, please consult with a local agricultural expert.`, diagnosis, confidence*100)
	}

	return Block{
		Diagnosis:  diagnosis,
		Confidence: confidence,
		Source:     SourceBasic,
		FullAdvice: adviceText,
		Summary:    fmt.Sprintf("Detected: %s with %.1f%% confidence", diagnosis, confidence*100),
		Timestamp:  time.Now().Format(timestampFormat),
	}
}
