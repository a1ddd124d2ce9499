package openai

import (
	"github.com/chatbridge/chatbridge/services/providers"
	"github.com/chatbridge/chatbridge/services/providers/openaicompat"
)

const defaultBaseURL = "https://api.openai.com/v1"

// catalog is the static model table for the OpenAI backend
var catalog = []providers.ModelInfo{
	{
		ID:                "gpt-4o",
		Name:              "GPT-4o",
		Description:       "Flagship multimodal model",
		ContextWindow:     128000,
		InputCostPer1K:    0.005,
		OutputCostPer1K:   0.015,
		SupportsStreaming: true,
	},
	{
		ID:                "gpt-4o-mini",
		Name:              "GPT-4o Mini",
		Description:       "Small, fast and inexpensive",
		ContextWindow:     128000,
		InputCostPer1K:    0.00015,
		OutputCostPer1K:   0.0006,
		SupportsStreaming: true,
	},
	{
		ID:                "gpt-4-turbo",
		Name:              "GPT-4 Turbo",
		Description:       "Previous generation flagship",
		ContextWindow:     128000,
		InputCostPer1K:    0.01,
		OutputCostPer1K:   0.03,
		SupportsStreaming: true,
	},
	{
		ID:                "gpt-3.5-turbo",
		Name:              "GPT-3.5 Turbo",
		Description:       "Fast legacy model",
		ContextWindow:     16385,
		InputCostPer1K:    0.0005,
		OutputCostPer1K:   0.0015,
		SupportsStreaming: true,
	},
}

// NewAdapter creates the OpenAI adapter. Construction fails when the API key
// is absent or blank.
func NewAdapter(config providers.ProviderConfig) (*openaicompat.Adapter, error) {
	return openaicompat.NewAdapter(providers.ProviderOpenAI, defaultBaseURL, catalog, config)
}
