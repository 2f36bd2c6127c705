package llm

import (
	"context"
	"regexp"
	"strings"

	"github.com/veridoc/veridoc/internal/model"
)

// Provider defines the interface for vision-language providers. The
// same provider serves two calls: forensic structured extraction from
// document images, and optional narrative generation for a finished
// decision report.
type Provider interface {
	// Name returns the provider name
	Name() string

	// ExtractDocument runs one forensic extraction call over the given
	// images and returns the raw JSON payload the model produced.
	ExtractDocument(ctx context.Context, req ExtractRequest) (*ExtractResponse, error)

	// Narrate generates free text from a prompt. Used only for the
	// decision narrative, never for the verdict itself.
	Narrate(ctx context.Context, req NarrateRequest) (*NarrateResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// ImageInput is one document page handed to the model
type ImageInput struct {
	MIME string
	Data []byte
}

// ExtractRequest contains the input for one extraction call
type ExtractRequest struct {
	DocumentType model.DocumentType
	Prompt       string
	Images       []ImageInput
	Model        string
	MaxTokens    int
}

// ExtractResponse contains the model's raw JSON output
type ExtractResponse struct {
	JSON       string
	Model      string
	TokensUsed int
}

// NarrateRequest contains the input for narrative generation
type NarrateRequest struct {
	System    string
	Prompt    string
	Model     string
	MaxTokens int
}

// NarrateResponse contains the generated narrative text
type NarrateResponse struct {
	Text       string
	Model      string
	TokensUsed int
}

// Config holds provider configuration
type Config struct {
	// Provider name: "openai", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI-compatible endpoints
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama, proxies)
	BaseURL string

	// Timeout for API requests, seconds
	Timeout int

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "",
		Timeout:   60,
		MaxTokens: 2048,
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(mc model.LLMConfig, proxy model.ProxyConfig) Config {
	return Config{
		Provider:   mc.Provider,
		Model:      mc.Model,
		APIKey:     mc.APIKey,
		BaseURL:    mc.BaseURL,
		Timeout:    mc.Timeout,
		MaxTokens:  mc.MaxTokens,
		HTTPProxy:  proxy.HTTPProxy,
		HTTPSProxy: proxy.HTTPSProxy,
		NoProxy:    proxy.NoProxy,
	}
}

var jsonFencePattern = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

// CleanJSON strips a markdown code fence around a JSON payload. Models
// frequently wrap their output despite instructions not to.
func CleanJSON(text string) string {
	if m := jsonFencePattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return strings.TrimSpace(text)
}
