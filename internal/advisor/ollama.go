package advisor

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/leafscan/leafscan-api/internal/common"
)

const (
	// ConfigKeyAdvisorURL base URL of the local advisory daemon
	ConfigKeyAdvisorURL = "advisorURL"
	// ConfigKeyAdvisorModel model name pulled into the daemon
	ConfigKeyAdvisorModel = "advisorModel"
	// ConfigKeyAdvisorTimeout when to give up on a slow generation (milliseconds)
	ConfigKeyAdvisorTimeout = "advisorTimeout"
	// ConfigKeyAdvisorTemperature how creative the advice is
	ConfigKeyAdvisorTemperature = "advisorTemperature"
	// ConfigKeyAdvisorMaxTokens cap on generated tokens
	ConfigKeyAdvisorMaxTokens = "advisorMaxTokens"
)

// Degraded advisory strings. Each failure kind gets its own human-readable
// text so that the caller can tell them apart in the result.
const (
	degradedTimeout     = "The advisory model is taking longer than expected. Using fallback advice."
	degradedUnavailable = "The advisory service is temporarily unavailable. Using fallback advice."
	degradedLoading     = "The advisory model is currently loading. Please try again in a moment."
)

type ollamaGenerateRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
}

// OllamaClient talks to a local Ollama daemon over its generate API.
type OllamaClient struct {
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
	logger      common.Logger
}

func NewOllamaClient(config *common.Config, logger common.Logger) *OllamaClient {
	return &OllamaClient{
		baseURL:     config.GetStringOrDefault(ConfigKeyAdvisorURL, "http://localhost:11434"),
		model:       config.GetStringOrDefault(ConfigKeyAdvisorModel, "tinyllama"),
		temperature: config.GetFloatOrDefault(ConfigKeyAdvisorTemperature, 0.7),
		maxTokens:   config.GetIntOrDefault(ConfigKeyAdvisorMaxTokens, 1000),
		// Generation on CPU is slow; the timeout defaults to two minutes.
		httpClient: &http.Client{
			Timeout: config.GetDurationOrDefault(ConfigKeyAdvisorTimeout, 2*time.Minute),
		},
		logger: logger,
	}
}

func (c *OllamaClient) Name() string {
	return fmt.Sprintf("ollama(%s)", c.model)
}

// CheckConnection probes the daemon's tag listing. Used once at pipeline
// construction to decide whether the advisory path is enabled at all.
func (c *OllamaClient) CheckConnection() bool {
	probe := &http.Client{Timeout: 5 * time.Second}
	resp, err := probe.Get(c.baseURL + "/api/tags")
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (c *OllamaClient) Generate(prompt string) string {
	payload, err := json.Marshal(ollamaGenerateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
		Options: ollamaOptions{
			Temperature: c.temperature,
			NumPredict:  c.maxTokens,
		},
	})
	if err != nil {
		c.logger.Log(fmt.Sprintf("advisor: failed to marshal request: %s", err))
		return degradedUnavailable
	}

	resp, err := c.httpClient.Post(c.baseURL+"/api/generate", "application/json", bytes.NewReader(payload))
	if err != nil {
		c.logger.Log(fmt.Sprintf("advisor: %s", err))
		if isTimeout(err) {
			return degradedTimeout
		}
		return degradedUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Log(fmt.Sprintf("advisor: unexpected status %d", resp.StatusCode))
		return degradedUnavailable
	}

	var result ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		c.logger.Log(fmt.Sprintf("advisor: failed to decode response: %s", err))
		return degradedUnavailable
	}
	if result.Response == "" {
		return "No response generated"
	}
	return result.Response
}

func isTimeout(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Timeout()
	}
	return false
}
