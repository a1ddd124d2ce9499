package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Message roles shared by every provider. Adapters that use a different
// vocabulary upstream (e.g. Gemini's "model") remap on the wire.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Generation defaults applied when the caller leaves an option unset.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 1000
	DefaultTopP        = 1.0
)

// Provider is the uniform contract every generation backend implements.
// GenerateResponse never returns a Go error: network failures, malformed
// upstream payloads, unsupported models and missing credentials are all
// folded into a GenerationResult with Success set to false.
type Provider interface {
	// Name returns the provider id (e.g. "anthropic", "openai")
	Name() string

	// AvailableModels returns the static model catalog for this provider
	AvailableModels() []ModelInfo

	// SupportsModel reports whether a model id appears in the catalog
	SupportsModel(model string) bool

	// GenerateResponse runs a single completion against the backend
	GenerateResponse(ctx context.Context, messages []Message, model string, opts *GenerationOptions) *GenerationResult
}

// Message is a single turn in a conversation
type Message struct {
	// Role is one of "system", "user", or "assistant"
	Role string `json:"role" validate:"required,oneof=system user assistant"`

	// Content is the message text
	Content string `json:"content" validate:"required"`
}

// GenerationOptions are optional sampling parameters. Nil fields take the
// adapter defaults above. Stream is accepted for interface compatibility but
// every adapter currently forces stream:false on the wire.
type GenerationOptions struct {
	Temperature *float64 `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
	MaxTokens   *int     `json:"max_tokens,omitempty" validate:"omitempty,gt=0"`
	TopP        *float64 `json:"top_p,omitempty" validate:"omitempty,gte=0,lte=1"`
	Stream      bool     `json:"stream,omitempty"`
}

// ResolveTemperature returns the configured temperature or the default.
func (o *GenerationOptions) ResolveTemperature() float64 {
	if o != nil && o.Temperature != nil {
		return *o.Temperature
	}
	return DefaultTemperature
}

// ResolveMaxTokens returns the configured token limit or the default.
func (o *GenerationOptions) ResolveMaxTokens() int {
	if o != nil && o.MaxTokens != nil {
		return *o.MaxTokens
	}
	return DefaultMaxTokens
}

// ResolveTopP returns the configured nucleus sampling value or the default.
func (o *GenerationOptions) ResolveTopP() float64 {
	if o != nil && o.TopP != nil {
		return *o.TopP
	}
	return DefaultTopP
}

// GenerationResult is the normalized outcome of a generation call. Exactly
// one of Content/Error is meaningful depending on Success.
type GenerationResult struct {
	Success  bool   `json:"success"`
	Content  string `json:"content,omitempty"`
	Error    string `json:"error,omitempty"`
	Usage    *Usage `json:"usage,omitempty"`
	Model    string `json:"model"`
	Provider string `json:"provider"`
}

// Usage reports token accounting as returned by the backend
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ModelInfo is static catalog metadata owned by each adapter. Costs are
// USD per 1K tokens.
type ModelInfo struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	ContextWindow     int     `json:"context_window"`
	InputCostPer1K    float64 `json:"input_cost_per_1k"`
	OutputCostPer1K   float64 `json:"output_cost_per_1k"`
	SupportsStreaming bool    `json:"supports_streaming"`
}

// ProviderInfo is static registry metadata, independent of whether the
// provider is currently usable.
type ProviderInfo struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	RequiresAPIKey bool   `json:"requires_api_key"`
	APIKeyEnvVar   string `json:"api_key_env_var,omitempty"`
	IsCustom       bool   `json:"is_custom"`
}

// ProviderConfig holds common construction parameters for hosted adapters
type ProviderConfig struct {
	// APIKey for authentication
	APIKey string

	// BaseURL override for the API (optional)
	BaseURL string

	// Timeout applied to the outbound HTTP call
	Timeout time.Duration

	// MaxRetries for transient (5xx / transport) failures
	MaxRetries int

	// Additional headers sent with every request
	Headers map[string]string
}

// DefaultProviderConfig returns the fixed configuration the registry uses
// when constructing hosted adapters.
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		Timeout:    30 * time.Second,
		MaxRetries: 3,
	}
}

// Failure builds a failed GenerationResult. Adapters use this for every
// internal error so callers are never exposed to raw transport errors.
func Failure(provider, model, format string, args ...interface{}) *GenerationResult {
	return &GenerationResult{
		Success:  false,
		Error:    fmt.Sprintf(format, args...),
		Model:    model,
		Provider: provider,
	}
}

// upstreamError mirrors the error envelope shared by the hosted backends
type upstreamError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// ExtractHTTPError produces a human-readable message from a non-2xx upstream
// response: the nested error.message when the body carries one, otherwise
// "HTTP <status>: <statusText>".
func ExtractHTTPError(statusCode int, statusText string, body []byte) string {
	var envelope upstreamError
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return fmt.Sprintf("HTTP %d: %s", statusCode, statusText)
}
