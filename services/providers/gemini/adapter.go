package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/chatbridge/chatbridge/services/providers"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Adapter implements the Provider interface for the Generative Language API
type Adapter struct {
	config     providers.ProviderConfig
	httpClient *http.Client
	models     map[string]providers.ModelInfo
}

// NewAdapter creates a Gemini adapter. Construction fails when the API key
// is absent or blank.
func NewAdapter(config providers.ProviderConfig) (*Adapter, error) {
	if strings.TrimSpace(config.APIKey) == "" {
		return nil, errors.New("gemini: API key is required")
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
	return providers.ProviderGemini
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

// GenerateResponse runs a single generateContent call. The API key travels
// as a query parameter, not a header.
func (a *Adapter) GenerateResponse(ctx context.Context, messages []providers.Message, model string, opts *providers.GenerationOptions) *providers.GenerationResult {
	if !a.SupportsModel(model) {
		return providers.Failure(a.Name(), model,
			"model %q is not supported; valid models: %s", model, strings.Join(a.modelIDs(), ", "))
	}

	payload := a.buildRequest(messages, opts)

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		a.config.BaseURL, url.PathEscape(model), url.QueryEscape(a.config.APIKey))

	status, statusText, body, err := providers.PostJSON(ctx, a.httpClient, endpoint, a.config.Headers, payload, a.config.MaxRetries)
	if err != nil {
		return providers.Failure(a.Name(), model, "request failed: %v", err)
	}
	if status < 200 || status >= 300 {
		return providers.Failure(a.Name(), model, "%s", providers.ExtractHTTPError(status, statusText, body))
	}

	var parsed generateContentResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return providers.Failure(a.Name(), model, "malformed response: %v", err)
	}

	if parsed.PromptFeedback.BlockReason != "" {
		return providers.Failure(a.Name(), model, "prompt was blocked: %s", parsed.PromptFeedback.BlockReason)
	}
	if len(parsed.Candidates) == 0 {
		return providers.Failure(a.Name(), model, "response contained no candidates")
	}

	var text strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}
	if text.Len() == 0 {
		return providers.Failure(a.Name(), model,
			"response contained no text (finish_reason: %s)", parsed.Candidates[0].FinishReason)
	}

	return &providers.GenerationResult{
		Success:  true,
		Content:  text.String(),
		Model:    model,
		Provider: a.Name(),
		Usage: &providers.Usage{
			PromptTokens:     parsed.UsageMetadata.PromptTokenCount,
			CompletionTokens: parsed.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      parsed.UsageMetadata.TotalTokenCount,
		},
	}
}

// buildRequest maps the conversation to the generateContent shape. Assistant
// turns use Gemini's "model" role; the first system message becomes the
// systemInstruction and all system messages are dropped from contents.
func (a *Adapter) buildRequest(messages []providers.Message, opts *providers.GenerationOptions) *generateContentRequest {
	req := &generateContentRequest{
		GenerationConfig: generationConfig{
			Temperature:     opts.ResolveTemperature(),
			MaxOutputTokens: opts.ResolveMaxTokens(),
			TopP:            opts.ResolveTopP(),
		},
	}

	for _, msg := range messages {
		switch msg.Role {
		case providers.RoleSystem:
			if req.SystemInstruction == nil {
				req.SystemInstruction = &content{Parts: []part{{Text: msg.Content}}}
			}
		case providers.RoleAssistant:
			req.Contents = append(req.Contents, content{Role: "model", Parts: []part{{Text: msg.Content}}})
		default:
			req.Contents = append(req.Contents, content{Role: "user", Parts: []part{{Text: msg.Content}}})
		}
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
		"gemini-1.5-pro": {
			ID:                "gemini-1.5-pro",
			Name:              "Gemini 1.5 Pro",
			Description:       "Long-context flagship model",
			ContextWindow:     2000000,
			InputCostPer1K:    0.00125,
			OutputCostPer1K:   0.005,
			SupportsStreaming: true,
		},
		"gemini-1.5-flash": {
			ID:                "gemini-1.5-flash",
			Name:              "Gemini 1.5 Flash",
			Description:       "Fast and versatile",
			ContextWindow:     1000000,
			InputCostPer1K:    0.000075,
			OutputCostPer1K:   0.0003,
			SupportsStreaming: true,
		},
		"gemini-2.0-flash": {
			ID:                "gemini-2.0-flash",
			Name:              "Gemini 2.0 Flash",
			Description:       "Next generation Flash model",
			ContextWindow:     1000000,
			InputCostPer1K:    0.0001,
			OutputCostPer1K:   0.0004,
			SupportsStreaming: true,
		},
	}
}

// Gemini wire types

type generateContentRequest struct {
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
	TopP            float64 `json:"topP"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}
