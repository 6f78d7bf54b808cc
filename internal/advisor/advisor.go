// Package advisor turns a diagnosis or a visual description into actionable
// agricultural guidance. The language model is reached over an interchangeable
// transport; when no transport is available, a deterministic local template
// generator produces a structurally identical result.
package advisor

import (
	"fmt"
	"strings"
	"time"

	"github.com/leafscan/leafscan-api/internal/caption"
	"github.com/leafscan/leafscan-api/internal/common"
)

// Advisory sources. These describe where the advice text came from and are
// distinct from the pipeline's routing sources.
const (
	SourceClassifier = "CNN Classification"
	SourceVisual     = "Visual Analysis"
	SourceBasic      = "Basic Advisory"
)

const timestampFormat = "2006-01-02 15:04:05"

// summaryMaxLength bounds the derived summary excerpt.
const summaryMaxLength = 200

// Block is the structured advisory attached to every successful diagnosis.
type Block struct {
	Diagnosis  string  `json:"diagnosis"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
	FullAdvice string  `json:"full_advice"`
	Summary    string  `json:"summary"`
	Timestamp  string  `json:"timestamp"`
}

// Client is a transport to the advisory language model. Generate must never
// fail: timeouts, network errors and loading states are all converted to
// descriptive placeholder text so the pipeline always receives some advice.
type Client interface {
	Name() string
	CheckConnection() bool
	Generate(prompt string) string
}

// Advisor builds route-specific prompts, queries the configured transport and
// wraps the response. A nil client means advisory is disabled; every call then
// falls back to the local template generator.
type Advisor struct {
	client Client
	logger common.Logger
}

func New(client Client, logger common.Logger) *Advisor {
	return &Advisor{
		client: client,
		logger: logger,
	}
}

// ForClassifierPrediction produces advice for a trusted (or low-confidence)
// classifier diagnosis.
func (a *Advisor) ForClassifierPrediction(diagnosis string, confidence float64, plantType string) Block {
	if a.client == nil {
		return BasicAdvice(diagnosis, confidence)
	}
	prompt := BuildClassifierPrompt(diagnosis, confidence, plantType)
	response := a.client.Generate(prompt)
	return newBlock(diagnosis, confidence, SourceClassifier, response)
}

// ForVisualAnalysis produces advice from the captioning fallback output.
func (a *Advisor) ForVisualAnalysis(analysis caption.Analysis, classifierConfidence float64) Block {
	if a.client == nil {
		return BasicAdvice("Uncertain - Visual Analysis", classifierConfidence)
	}
	prompt := BuildVisualPrompt(analysis, classifierConfidence)
	response := a.client.Generate(prompt)
	return newBlock("Visual Analysis Based", 0.0, SourceVisual, response)
}

func newBlock(diagnosis string, confidence float64, source, fullAdvice string) Block {
	return Block{
		Diagnosis:  diagnosis,
		Confidence: confidence,
		Source:     source,
		FullAdvice: fullAdvice,
		Summary:    ExtractSummary(fullAdvice, summaryMaxLength),
		Timestamp:  time.Now().Format(timestampFormat),
	}
}

// ExtractSummary takes the first paragraph of the advice, clipped to
// maxLength characters on a word boundary.
func ExtractSummary(response string, maxLength int) string {
	paragraphs := strings.SplitN(response, "\n\n", 2)
	first := strings.TrimSpace(paragraphs[0])
	if len(first) <= maxLength {
		return first
	}
	clipped := first[:maxLength]
	if i := strings.LastIndex(clipped, " "); i > 0 {
		clipped = clipped[:i]
	}
	return clipped + "..."
}

// FormatForDisplay renders an advisory block as a readable report.
func FormatForDisplay(block Block) string {
	divider := strings.Repeat("=", 70)
	return fmt.Sprintf(`
%s
AGRICULTURAL ADVISORY REPORT
%s

Diagnosis: %s
Confidence: %.1f%%
Source: %s
Timestamp: %s

%s
DETAILED ADVICE
%s

%s

%s
`, divider, divider, block.Diagnosis, block.Confidence*100, block.Source, block.Timestamp, divider, divider, block.FullAdvice, divider)
}
