package caption

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/leafscan/leafscan-api/internal/common"
)

const (
	// ConfigKeyCaptionBinaryPath path to the vision model runner binary
	ConfigKeyCaptionBinaryPath = "captionBinaryPath"
	// ConfigKeyCaptionModelPath path to the vision model weights
	ConfigKeyCaptionModelPath = "captionModelPath"
	// ConfigKeyCaptionProjectionPath path to the multimodal projection weights
	ConfigKeyCaptionProjectionPath = "captionProjectionPath"
	// ConfigKeyCaptionTemperature how creative the captions are
	ConfigKeyCaptionTemperature = "captionTemperature"
)

var mutex sync.Mutex

// VisionModel shells out to a llava.cpp-style binary for captioning.
// Launching a subprocess per caption keeps model crashes from taking the
// service down with them.
type VisionModel struct {
	binaryPath     string
	modelPath      string
	projectionPath string
	temperature    float64
}

func NewVisionModel(config *common.Config) (*VisionModel, error) {
	v := &VisionModel{
		binaryPath:     config.GetStringOrDefault(ConfigKeyCaptionBinaryPath, "./llava.cpp"),
		modelPath:      config.GetStringOrDefault(ConfigKeyCaptionModelPath, "./llava.bin"),
		projectionPath: config.GetStringOrDefault(ConfigKeyCaptionProjectionPath, "./llava-proj.bin"),
		temperature:    config.GetFloatOrDefault(ConfigKeyCaptionTemperature, 0.1),
	}
	if _, err := os.Stat(v.binaryPath); err != nil {
		return nil, fmt.Errorf("vision model binary not found: %s", v.binaryPath)
	}
	return v, nil
}

func (v *VisionModel) Caption(imagePath, prompt string) (string, error) {
	// Only 1 caption can be generated at a time: the vision model usually runs
	// on commodity hardware which can't fit two inferences in VRAM at once.
	mutex.Lock()
	defer mutex.Unlock()
	if prompt == "" {
		prompt = "describe the image:"
	}
	cmd := exec.Command(
		v.binaryPath,
		"-m", v.modelPath,
		"--mmproj", v.projectionPath,
		"--image", imagePath,
		"--temp", fmt.Sprintf("%g", v.temperature),
		"-p", prompt,
	)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return trimModelPreamble(out.String()), nil
}

// The runner echoes its own loading diagnostics before the caption; everything
// up to and including the patch-size line is discarded.
func trimModelPreamble(result string) string {
	const anchor = "per image patch)"
	anchorIndex := strings.Index(result, anchor)
	if anchorIndex != -1 {
		result = result[anchorIndex+len(anchor):]
	}
	return strings.TrimSpace(result)
}
