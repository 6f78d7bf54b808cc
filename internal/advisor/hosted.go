package advisor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/leafscan/leafscan-api/internal/common"
)

const (
	// ConfigKeyHostedModelID model identifier on the hosted inference API
	ConfigKeyHostedModelID = "advisorHostedModelID"
	// ConfigKeyHostedToken bearer token; falls back to the HF_TOKEN env variable
	ConfigKeyHostedToken = "advisorHostedToken"
)

const hostedAPIBase = "https://api-inference.huggingface.co/models/"

type hostedRequest struct {
	Inputs     string           `json:"inputs"`
	Parameters hostedParameters `json:"parameters"`
}

type hostedParameters struct {
	Temperature    float64 `json:"temperature"`
	MaxNewTokens   int     `json:"max_new_tokens"`
	ReturnFullText bool    `json:"return_full_text"`
}

type hostedResponseEntry struct {
	GeneratedText string `json:"generated_text"`
}

// HostedClient talks to a hosted text-generation inference API. It is an
// alternative transport to the local daemon; the pipeline sees only the
// Client interface and does not care which one is active.
type HostedClient struct {
	modelID     string
	endpoint    string
	token       string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
	logger      common.Logger
}

func NewHostedClient(config *common.Config, logger common.Logger) *HostedClient {
	token := config.GetString(ConfigKeyHostedToken)
	if token == "" {
		token = os.Getenv("HF_TOKEN")
	}
	modelID := config.GetStringOrDefault(ConfigKeyHostedModelID, "TinyLlama/TinyLlama-1.1B-Chat-v1.0")
	return &HostedClient{
		modelID:     modelID,
		endpoint:    hostedAPIBase + modelID,
		token:       token,
		temperature: config.GetFloatOrDefault(ConfigKeyAdvisorTemperature, 0.7),
		maxTokens:   config.GetIntOrDefault(ConfigKeyAdvisorMaxTokens, 1000),
		httpClient: &http.Client{
			Timeout: config.GetDurationOrDefault(ConfigKeyAdvisorTimeout, 2*time.Minute),
		},
		logger: logger,
	}
}

func (c *HostedClient) Name() string {
	return fmt.Sprintf("hosted(%s)", c.modelID)
}

// CheckConnection is a best-effort probe of the model endpoint. The hosted
// API answers even for cold models, so only transport-level failures count.
func (c *HostedClient) CheckConnection() bool {
	probe := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequest(http.MethodGet, c.endpoint, nil)
	if err != nil {
		return false
	}
	c.authorize(req)
	resp, err := probe.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < http.StatusInternalServerError
}

func (c *HostedClient) Generate(prompt string) string {
	payload, err := json.Marshal(hostedRequest{
		Inputs: prompt,
		Parameters: hostedParameters{
			Temperature:    c.temperature,
			MaxNewTokens:   c.maxTokens,
			ReturnFullText: false,
		},
	})
	if err != nil {
		c.logger.Log(fmt.Sprintf("advisor: failed to marshal request: %s", err))
		return degradedUnavailable
	}

	req, err := http.NewRequest(http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		c.logger.Log(fmt.Sprintf("advisor: %s", err))
		return degradedUnavailable
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Log(fmt.Sprintf("advisor: %s", err))
		if isTimeout(err) {
			return degradedTimeout
		}
		return degradedUnavailable
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusServiceUnavailable:
		// The hosted model is cold and still loading into memory.
		return degradedLoading
	case http.StatusGone:
		return degradedUnavailable
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Log(fmt.Sprintf("advisor: unexpected status %d", resp.StatusCode))
		return degradedUnavailable
	}

	var entries []hostedResponseEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		c.logger.Log(fmt.Sprintf("advisor: failed to decode response: %s", err))
		return degradedUnavailable
	}
	if len(entries) == 0 || entries[0].GeneratedText == "" {
		return "No response generated"
	}
	return entries[0].GeneratedText
}

func (c *HostedClient) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
