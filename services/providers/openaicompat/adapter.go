// Package openaicompat implements a generic adapter for chat-completions
// backends that speak the OpenAI wire format. The openai and groq provider
// packages are thin bindings of this adapter to their endpoint and catalog.
package openaicompat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/chatbridge/chatbridge/services/providers"
)

// Adapter implements the Provider interface for an OpenAI-compatible backend
type Adapter struct {
	name       string
	config     providers.ProviderConfig
	httpClient *http.Client
	models     map[string]providers.ModelInfo
}

// NewAdapter creates an adapter bound to one backend. Construction fails
// when the API key is absent or blank.
func NewAdapter(name, defaultBaseURL string, catalog []providers.ModelInfo, config providers.ProviderConfig) (*Adapter, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, fmt.Errorf("%s: API key is required", name)
	}
	if name == "" {
		return nil, errors.New("openaicompat: provider name is required")
	}
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}

	models := make(map[string]providers.ModelInfo, len(catalog))
	for _, m := range catalog {
		models[m.ID] = m
	}

	return &Adapter{
		name:       name,
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		models:     models,
	}, nil
}

// Name returns the provider id
func (a *Adapter) Name() string {
	return a.name
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

// GenerateResponse runs a single chat completion
func (a *Adapter) GenerateResponse(ctx context.Context, messages []providers.Message, model string, opts *providers.GenerationOptions) *providers.GenerationResult {
	if !a.SupportsModel(model) {
		return providers.Failure(a.name, model,
			"model %q is not supported; valid models: %s", model, strings.Join(a.modelIDs(), ", "))
	}

	req := chatRequest{
		Model:       model,
		Temperature: opts.ResolveTemperature(),
		MaxTokens:   opts.ResolveMaxTokens(),
		TopP:        opts.ResolveTopP(),
		Stream:      false,
	}
	for _, msg := range messages {
		req.Messages = append(req.Messages, chatMessage{Role: msg.Role, Content: msg.Content})
	}

	headers := map[string]string{
		"Authorization": "Bearer " + a.config.APIKey,
	}
	for k, v := range a.config.Headers {
		headers[k] = v
	}

	status, statusText, body, err := providers.PostJSON(ctx, a.httpClient, a.config.BaseURL+"/chat/completions", headers, req, a.config.MaxRetries)
	if err != nil {
		return providers.Failure(a.name, model, "request failed: %v", err)
	}
	if status < 200 || status >= 300 {
		return providers.Failure(a.name, model, "%s", providers.ExtractHTTPError(status, statusText, body))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return providers.Failure(a.name, model, "malformed response: %v", err)
	}
	if len(parsed.Choices) == 0 {
		return providers.Failure(a.name, model, "response contained no choices")
	}

	content := parsed.Choices[0].Message.Content
	if content == "" {
		return providers.Failure(a.name, model,
			"response contained no content (finish_reason: %s)", parsed.Choices[0].FinishReason)
	}

	return &providers.GenerationResult{
		Success:  true,
		Content:  content,
		Model:    model,
		Provider: a.name,
		Usage: &providers.Usage{
			PromptTokens:     parsed.Usage.PromptTokens,
			CompletionTokens: parsed.Usage.CompletionTokens,
			TotalTokens:      parsed.Usage.TotalTokens,
		},
	}
}

func (a *Adapter) modelIDs() []string {
	ids := make([]string, 0, len(a.models))
	for _, m := range a.AvailableModels() {
		ids = append(ids, m.ID)
	}
	return ids
}

// OpenAI-compatible wire types

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	TopP        float64       `json:"top_p"`
	Stream      bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}
