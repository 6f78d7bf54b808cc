// Package confidence derives reliability metrics from a classifier's raw
// probability distribution and decides whether the prediction can be trusted.
package confidence

import (
	"math"
	"sort"
)

// entropyEpsilon is added to every probability before taking the log so that
// exact-zero entries do not produce -Inf.
const entropyEpsilon = 1e-10

// Metrics is a per-prediction snapshot computed from the full probability vector.
type Metrics struct {
	MaxConfidence  float64   `json:"max_confidence"`
	ConfidenceGap  float64   `json:"confidence_gap"`
	Entropy        float64   `json:"entropy"`
	TopKIndices    []int     `json:"top_k_indices"`
	TopKConfidence []float64 `json:"top_k_confidences"`
}

// ComputeMetrics selects the topK highest-probability classes (descending,
// ties broken by the lowest index) and derives confidence statistics from the
// whole vector. It is a pure function: no I/O, no error paths for numeric input.
func ComputeMetrics(probabilities []float32, topK int) Metrics {
	indices := make([]int, len(probabilities))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return probabilities[indices[a]] > probabilities[indices[b]]
	})
	if topK > len(indices) {
		topK = len(indices)
	}
	topIndices := indices[:topK]
	topConfidences := make([]float64, topK)
	for i, idx := range topIndices {
		topConfidences[i] = float64(probabilities[idx])
	}

	maxConfidence := 0.0
	if len(topConfidences) > 0 {
		maxConfidence = topConfidences[0]
	}
	// The gap is defined between the two highest-ranked classes only. A
	// single-class catalog gets the maximal gap so that it never triggers
	// the fallback on its own.
	gap := 1.0
	if len(topConfidences) > 1 {
		gap = topConfidences[0] - topConfidences[1]
	}

	entropy := 0.0
	for _, p := range probabilities {
		entropy -= float64(p) * math.Log(float64(p)+entropyEpsilon)
	}

	return Metrics{
		MaxConfidence:  maxConfidence,
		ConfidenceGap:  gap,
		Entropy:        entropy,
		TopKIndices:    topIndices,
		TopKConfidence: topConfidences,
	}
}

// IsReliable reports whether the classifier output is trustworthy. Both
// criteria must hold: a high top-1 probability alone is not enough when the
// runner-up is close, because visually similar classes produce confident but
// ambiguous distributions.
func IsReliable(metrics Metrics, confidenceThreshold, gapThreshold float64) bool {
	return metrics.MaxConfidence >= confidenceThreshold &&
		metrics.ConfidenceGap >= gapThreshold
}
