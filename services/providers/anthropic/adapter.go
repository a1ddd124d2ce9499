package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/chatbridge/chatbridge/services/providers"
)

const (
	defaultBaseURL = "https://api.anthropic.com/v1"
	apiVersion     = "2023-06-01"
)

// Adapter implements the Provider interface for the Anthropic Messages API
type Adapter struct {
	config     providers.ProviderConfig
	httpClient *http.Client
	models     map[string]providers.ModelInfo
}

// NewAdapter creates an Anthropic adapter. Construction fails when the API
// key is absent or blank.
func NewAdapter(config providers.ProviderConfig) (*Adapter, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, errors.New("anthropic: API key is required")
	}
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}

	a := &Adapter{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
	a.initModels()
	return a, nil
}

// Name returns the provider id
func (a *Adapter) Name() string {
	return providers.ProviderAnthropic
}

// AvailableModels returns the static catalog, ordered by id
func (a *Adapter) AvailableModels() []providers.ModelInfo {
	models := make([]providers.ModelInfo, 0, len(a.models))
	for _, m := range a.models {
		models = append(models, m)
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models
}

// SupportsModel reports whether the model id is in the catalog
func (a *Adapter) SupportsModel(model string) bool {
	_, ok := a.models[model]
	return ok
}

// GenerateResponse runs a single completion against the Messages API
func (a *Adapter) GenerateResponse(ctx context.Context, messages []providers.Message, model string, opts *providers.GenerationOptions) *providers.GenerationResult {
	if !a.SupportsModel(model) {
		return providers.Failure(a.Name(), model,
			"model %q is not supported; valid models: %s", model, strings.Join(a.modelIDs(), ", "))
	}

	payload := a.buildRequest(messages, model, opts)

	headers := map[string]string{
		"x-api-key":         a.config.APIKey,
		"anthropic-version": apiVersion,
	}
	for k, v := range a.config.Headers {
		headers[k] = v
	}

	status, statusText, body, err := providers.PostJSON(ctx, a.httpClient, a.config.BaseURL+"/messages", headers, payload, a.config.MaxRetries)
	if err != nil {
		return providers.Failure(a.Name(), model, "request failed: %v", err)
	}
	if status < 200 || status >= 300 {
		return providers.Failure(a.Name(), model, "%s", providers.ExtractHTTPError(status, statusText, body))
	}

	var parsed messagesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return providers.Failure(a.Name(), model, "malformed response: %v", err)
	}

	var text strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return providers.Failure(a.Name(), model, "response contained no text content (stop_reason: %s)", parsed.StopReason)
	}

	return &providers.GenerationResult{
		Success:  true,
		Content:  text.String(),
		Model:    model,
		Provider: a.Name(),
		Usage: &providers.Usage{
			PromptTokens:     parsed.Usage.InputTokens,
			CompletionTokens: parsed.Usage.OutputTokens,
			TotalTokens:      parsed.Usage.InputTokens + parsed.Usage.OutputTokens,
		},
	}
}

// buildRequest maps the conversation to the Messages API shape. The first
// system message is elevated to the top-level system field; every system
// message is filtered out of the turn sequence.
func (a *Adapter) buildRequest(messages []providers.Message, model string, opts *providers.GenerationOptions) *messagesRequest {
	req := &messagesRequest{
		Model:       model,
		MaxTokens:   opts.ResolveMaxTokens(),
		Temperature: opts.ResolveTemperature(),
		TopP:        opts.ResolveTopP(),
	}

	for _, msg := range messages {
		if msg.Role == providers.RoleSystem {
			if req.System == "" {
				req.System = msg.Content
			}
			continue
		}
		req.Messages = append(req.Messages, wireMessage{Role: msg.Role, Content: msg.Content})
	}

	return req
}

func (a *Adapter) modelIDs() []string {
	ids := make([]string, 0, len(a.models))
	for _, m := range a.AvailableModels() {
		ids = append(ids, m.ID)
	}
	return ids
}

func (a *Adapter) initModels() {
	a.models = map[string]providers.ModelInfo{
		"claude-3-5-sonnet-20241022": {
			ID:                "claude-3-5-sonnet-20241022",
			Name:              "Claude 3.5 Sonnet",
			Description:       "Balanced intelligence and speed",
			ContextWindow:     200000,
			InputCostPer1K:    0.003,
			OutputCostPer1K:   0.015,
			SupportsStreaming: true,
		},
		"claude-3-5-haiku-20241022": {
			ID:                "claude-3-5-haiku-20241022",
			Name:              "Claude 3.5 Haiku",
			Description:       "Fastest Claude model",
			ContextWindow:     200000,
			InputCostPer1K:    0.0008,
			OutputCostPer1K:   0.004,
			SupportsStreaming: true,
		},
		"claude-3-opus-20240229": {
			ID:                "claude-3-opus-20240229",
			Name:              "Claude 3 Opus",
			Description:       "Most capable Claude 3 model",
			ContextWindow:     200000,
			InputCostPer1K:    0.015,
			OutputCostPer1K:   0.075,
			SupportsStreaming: true,
		},
	}
}

// Anthropic wire types

type messagesRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	TopP        float64       `json:"top_p"`
	Messages    []wireMessage `json:"messages"`
	System      string        `json:"system,omitempty"`
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}
