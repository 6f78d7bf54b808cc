// Package pipeline orchestrates the full diagnosis flow: validate the input
// image, classify it, derive confidence metrics, decide whether to trust the
// classifier or fall back to visual captioning, and attach advisory guidance.
package pipeline

import (
	"fmt"
	"image"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/leafscan/leafscan-api/internal/advisor"
	"github.com/leafscan/leafscan-api/internal/caption"
	"github.com/leafscan/leafscan-api/internal/catalog"
	"github.com/leafscan/leafscan-api/internal/classifier"
	"github.com/leafscan/leafscan-api/internal/common"
	"github.com/leafscan/leafscan-api/internal/confidence"
	"github.com/leafscan/leafscan-api/internal/imageproc"
)

const (
	// ConfigKeyModelPath path to the trained classifier model
	ConfigKeyModelPath = "modelPath"
	// ConfigKeyModelMetadataPath path to the model's shape/size metadata
	ConfigKeyModelMetadataPath = "modelMetadataPath"
	// ConfigKeyClassCatalogPath path to the index -> label JSON catalog
	ConfigKeyClassCatalogPath = "classCatalogPath"
	// ConfigKeyConfidenceThreshold minimum top-1 probability to trust the classifier
	ConfigKeyConfidenceThreshold = "confidenceThreshold"
	// ConfigKeyConfidenceGapThreshold minimum top-1/top-2 gap to trust the classifier
	ConfigKeyConfidenceGapThreshold = "confidenceGapThreshold"
	// ConfigKeyUseCaptioning whether the visual fallback stage is enabled
	ConfigKeyUseCaptioning = "useCaptioning"
	// ConfigKeyUseAdvisor whether the advisory service is enabled
	ConfigKeyUseAdvisor = "useAdvisor"
	// ConfigKeyAdvisorTransport which advisory transport to use: "ollama" or "hosted"
	ConfigKeyAdvisorTransport = "advisorTransport"
	// ConfigKeyMaxImageSizeMB reject uploads larger than this
	ConfigKeyMaxImageSizeMB = "maxImageSizeMB"
	// ConfigKeyEnhanceCaptionInput whether to equalize contrast before captioning
	ConfigKeyEnhanceCaptionInput = "enhanceCaptionInput"
)

// Routing sources: which branch produced the final diagnosis.
const (
	SourceClassifier              = "CNN Classification"
	SourceVisualFallback          = "Visual Analysis Fallback"
	SourceClassifierLowConfidence = "CNN Classification (Low Confidence)"
)

const (
	uncertainDiagnosis  = "Uncertain - Visual Analysis"
	lowConfidenceSuffix = " (Low Confidence)"
	topK                = 3
	timestampFormat     = "2006-01-02 15:04:05"
	defaultImageSize    = 224
)

// Pipeline is constructed once per process (model loads are expensive) and
// serves many requests. All fields are read-only after construction, so
// Predict is safe for concurrent callers.
type Pipeline struct {
	classifier          classifier.Classifier
	imageSize           int
	catalog             *catalog.Catalog
	analyzer            *caption.Analyzer
	advisor             *advisor.Advisor
	confidenceThreshold float64
	gapThreshold        float64
	maxImageBytes       int64
	enhanceCaptionInput bool
	logger              common.Logger
	closeFunc           func()
}

// New loads the classifier and the class catalog (both fatal when missing),
// probes the optional captioning and advisory stages, and wires everything
// together. Optional stages that fail to initialize are disabled, not fatal.
func New(config *common.Config, logger common.Logger) (*Pipeline, error) {
	onnx, err := classifier.NewONNXClassifier(
		config.GetStringOrDefault(ConfigKeyModelPath, "models/plant_disease.onnx"),
		config.GetStringOrDefault(ConfigKeyModelMetadataPath, "models/model_metadata.json"),
	)
	if err != nil {
		return nil, err
	}

	cat, err := catalog.Load(config.GetStringOrDefault(ConfigKeyClassCatalogPath, "models/class_indices.json"))
	if err != nil {
		onnx.Close()
		return nil, err
	}
	if cat.Size() != onnx.Metadata.ClassCount() {
		onnx.Close()
		return nil, fmt.Errorf("class catalog has %d entries but the model emits %d classes",
			cat.Size(), onnx.Metadata.ClassCount())
	}

	imageSize := onnx.Metadata.ImageSize
	if imageSize <= 0 {
		imageSize = defaultImageSize
	}

	var analyzer *caption.Analyzer
	if config.GetBoolOrDefault(ConfigKeyUseCaptioning, true) {
		visionModel, err := caption.NewVisionModel(config)
		if err != nil {
			logger.Log(fmt.Sprintf("captioning fallback disabled: %s", err))
		} else {
			analyzer = caption.NewAnalyzer(visionModel)
		}
	}

	var client advisor.Client
	if config.GetBoolOrDefault(ConfigKeyUseAdvisor, true) {
		switch config.GetStringOrDefault(ConfigKeyAdvisorTransport, "ollama") {
		case "hosted":
			client = advisor.NewHostedClient(config, logger)
		default:
			client = advisor.NewOllamaClient(config, logger)
		}
		if !client.CheckConnection() {
			logger.Log(fmt.Sprintf("advisory service %s unreachable, falling back to local templates", client.Name()))
			client = nil
		}
	}

	return &Pipeline{
		classifier:          onnx,
		imageSize:           imageSize,
		catalog:             cat,
		analyzer:            analyzer,
		advisor:             advisor.New(client, logger),
		confidenceThreshold: config.GetFloatOrDefault(ConfigKeyConfidenceThreshold, 0.7),
		gapThreshold:        config.GetFloatOrDefault(ConfigKeyConfidenceGapThreshold, 0.2),
		maxImageBytes:       int64(config.GetIntOrDefault(ConfigKeyMaxImageSizeMB, 10)) << 20,
		enhanceCaptionInput: config.GetBoolOrDefault(ConfigKeyEnhanceCaptionInput, true),
		logger:              logger,
		closeFunc:           onnx.Close,
	}, nil
}

// Close releases the classifier session.
func (p *Pipeline) Close() {
	if p.closeFunc != nil {
		p.closeFunc()
	}
}

// Predict runs the full diagnosis flow for one image. It never panics and
// never returns a Go error: every failure is reported through the result's
// Success flag and Error message.
func (p *Pipeline) Predict(imagePath string) (result *DiagnosisResult) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Log(fmt.Sprintf("predict: recovered from panic: %v", r))
			result = failedResult(fmt.Sprintf("internal error: %v", r))
		}
	}()

	img, validationErr := p.validate(imagePath)
	if validationErr != "" {
		return failedResult(validationErr)
	}

	cnn, err := p.runClassifier(img)
	if err != nil {
		p.logger.Log(fmt.Sprintf("predict: %s", err))
		return failedResult(fmt.Sprintf("classification failed: %s", err))
	}

	reliable := confidence.IsReliable(cnn.Metrics, p.confidenceThreshold, p.gapThreshold)

	var (
		diagnosis string
		source    string
		visual    *caption.Analysis
	)
	switch {
	case reliable:
		diagnosis = cnn.DiseaseName
		source = SourceClassifier
	case p.analyzer != nil:
		analysis := p.runCaptioning(imagePath, img)
		visual = &analysis
		// The classifier confidence is carried through unchanged so callers
		// can see how uncertain the original prediction was.
		diagnosis = uncertainDiagnosis
		source = SourceVisualFallback
	default:
		diagnosis = cnn.DiseaseName + lowConfidenceSuffix
		source = SourceClassifierLowConfidence
	}

	var advice advisor.Block
	if visual != nil {
		advice = p.advisor.ForVisualAnalysis(*visual, cnn.Confidence)
	} else {
		advice = p.advisor.ForClassifierPrediction(diagnosis, cnn.Confidence, catalog.PlantType(diagnosis))
	}

	result = &DiagnosisResult{
		ID:             uuid.NewString(),
		Success:        true,
		Diagnosis:      diagnosis,
		Confidence:     cnn.Confidence,
		Source:         source,
		Timestamp:      time.Now().Format(timestampFormat),
		CNNPredictions: &cnn,
		Advice:         &advice,
		ImagePath:      imagePath,
	}
	if visual != nil {
		result.VisualDescription = visual.CombinedDescription
	}
	return result
}

// validate checks the input file before any model is invoked. Each rejection
// has its own human-readable reason.
func (p *Pipeline) validate(imagePath string) (image.Image, string) {
	info, err := os.Stat(imagePath)
	if err != nil {
		return nil, "File does not exist"
	}
	if info.Size() > p.maxImageBytes {
		return nil, fmt.Sprintf("File too large (%.2f MB > %d MB)",
			float64(info.Size())/(1<<20), p.maxImageBytes>>20)
	}
	img, err := imageproc.DecodeFile(imagePath)
	if err != nil {
		return nil, fmt.Sprintf("Invalid image file: %s", err)
	}
	return img, ""
}

func (p *Pipeline) runClassifier(img image.Image) (CNNPrediction, error) {
	tensor := imageproc.ToTensor(img, p.imageSize)
	probabilities, err := p.classifier.Classify(tensor)
	if err != nil {
		return CNNPrediction{}, err
	}
	if len(probabilities) == 0 {
		return CNNPrediction{}, fmt.Errorf("classifier returned an empty distribution")
	}

	metrics := confidence.ComputeMetrics(probabilities, topK)

	diseaseName, err := p.catalog.Label(metrics.TopKIndices[0])
	if err != nil {
		return CNNPrediction{}, err
	}

	top := make([]RankedPrediction, 0, len(metrics.TopKIndices))
	for i, idx := range metrics.TopKIndices {
		label, err := p.catalog.Label(idx)
		if err != nil {
			return CNNPrediction{}, err
		}
		top = append(top, RankedPrediction{
			Disease:    label,
			Confidence: metrics.TopKConfidence[i],
		})
	}

	return CNNPrediction{
		DiseaseName: diseaseName,
		Confidence:  metrics.MaxConfidence,
		Metrics:     metrics,
		Top3:        top,
		Raw:         probabilities,
	}, nil
}

// runCaptioning enhances the image for the vision model and runs the three
// captioning passes. Enhancement failures fall back to the original file; the
// analyzer itself never fails.
func (p *Pipeline) runCaptioning(imagePath string, img image.Image) caption.Analysis {
	captionPath := imagePath
	if p.enhanceCaptionInput {
		enhanced := imageproc.EnhanceContrast(img)
		tempPath, err := imageproc.WriteTempJPEG(enhanced)
		if err != nil {
			p.logger.Log(fmt.Sprintf("captioning: failed to write enhanced image: %s", err))
		} else {
			captionPath = tempPath
			defer os.Remove(tempPath)
		}
	}
	return p.analyzer.Analyze(captionPath)
}

func failedResult(message string) *DiagnosisResult {
	return &DiagnosisResult{
		Success: false,
		Error:   message,
	}
}
