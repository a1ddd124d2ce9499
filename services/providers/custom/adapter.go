// Package custom implements the provider adapter for user-configured
// endpoints. Unlike the hosted adapters it is constructed per request from
// an EndpointConfig and never cached by the registry: two calls may target
// entirely different endpoints and wire formats.
package custom

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/chatbridge/chatbridge/services/providers"
)

// EndpointConfig describes a caller-supplied endpoint and its wire format
type EndpointConfig struct {
	// BaseURL is the full endpoint URL to POST to. Required.
	BaseURL string `json:"base_url" validate:"required,url"`

	// APIKey is sent as a Bearer token when present. Optional.
	APIKey string `json:"api_key,omitempty"`

	// Headers are extra headers sent with every request
	Headers map[string]string `json:"headers,omitempty"`

	// RequestFormat is "openai" (default) or "custom"
	RequestFormat string `json:"request_format,omitempty" validate:"omitempty,oneof=openai custom"`

	// ResponseFormat is "openai" (default) or "custom"
	ResponseFormat string `json:"response_format,omitempty" validate:"omitempty,oneof=openai custom"`

	// RequestTemplate is a JSON document with {{placeholder}} tokens, used
	// when RequestFormat is "custom"
	RequestTemplate string `json:"request_template,omitempty"`

	// ResponsePath is a dotted path to the reply string, used when
	// ResponseFormat is "custom"
	ResponsePath string `json:"response_path,omitempty"`
}

// Adapter implements the Provider interface for a custom endpoint
type Adapter struct {
	endpoint   EndpointConfig
	config     providers.ProviderConfig
	httpClient *http.Client
	translator *translator
	logger     *zap.Logger
}

// NewAdapter creates a custom adapter. Construction fails only when the base
// URL is absent or does not parse; the API key is optional.
func NewAdapter(endpoint EndpointConfig, logger *zap.Logger) (*Adapter, error) {
	trimmed := strings.TrimSpace(endpoint.BaseURL)
	if trimmed == "" {
		return nil, errors.New("custom: base URL is required")
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("custom: invalid base URL %q", endpoint.BaseURL)
	}
	endpoint.BaseURL = trimmed

	cfg := providers.DefaultProviderConfig()
	return &Adapter{
		endpoint:   endpoint,
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		translator: &translator{endpoint: endpoint, logger: logger},
		logger:     logger,
	}, nil
}

// Name returns the provider id
func (a *Adapter) Name() string {
	return providers.ProviderCustom
}

// AvailableModels returns the single fixed descriptor. The endpoint decides
// what model ids actually mean.
func (a *Adapter) AvailableModels() []providers.ModelInfo {
	return []providers.ModelInfo{providers.CustomModelInfo}
}

// SupportsModel always reports true: the model id is passed through to the
// endpoint as-is.
func (a *Adapter) SupportsModel(string) bool {
	return true
}

// GenerateResponse posts the translated request to the configured endpoint
// and extracts a reply via the translator.
func (a *Adapter) GenerateResponse(ctx context.Context, messages []providers.Message, model string, opts *providers.GenerationOptions) *providers.GenerationResult {
	payload := a.translator.buildRequestBody(messages, model, opts)

	headers := make(map[string]string, len(a.endpoint.Headers)+1)
	if a.endpoint.APIKey != "" {
		headers["Authorization"] = "Bearer " + a.endpoint.APIKey
	}
	for k, v := range a.endpoint.Headers {
		headers[k] = v
	}

	status, statusText, body, err := providers.PostJSON(ctx, a.httpClient, a.endpoint.BaseURL, headers, payload, a.config.MaxRetries)
	if err != nil {
		return providers.Failure(a.Name(), model, "request failed: %v", err)
	}
	if status < 200 || status >= 300 {
		return providers.Failure(a.Name(), model, "%s", providers.ExtractHTTPError(status, statusText, body))
	}

	return &providers.GenerationResult{
		Success:  true,
		Content:  a.translator.extractContent(body),
		Model:    model,
		Provider: a.Name(),
	}
}
