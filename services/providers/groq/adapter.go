package groq

import (
	"github.com/chatbridge/chatbridge/services/providers"
	"github.com/chatbridge/chatbridge/services/providers/openaicompat"
)

const defaultBaseURL = "https://api.groq.com/openai/v1"

// catalog is the static model table for the Groq backend
var catalog = []providers.ModelInfo{
	{
		ID:                "llama-3.3-70b-versatile",
		Name:              "Llama 3.3 70B Versatile",
		Description:       "General purpose Llama 3.3",
		ContextWindow:     128000,
		InputCostPer1K:    0.00059,
		OutputCostPer1K:   0.00079,
		SupportsStreaming: true,
	},
	{
		ID:                "llama-3.1-8b-instant",
		Name:              "Llama 3.1 8B Instant",
		Description:       "Low latency Llama 3.1",
		ContextWindow:     128000,
		InputCostPer1K:    0.00005,
		OutputCostPer1K:   0.00008,
		SupportsStreaming: true,
	},
	{
		ID:                "mixtral-8x7b-32768",
		Name:              "Mixtral 8x7B",
		Description:       "Mixture-of-experts model",
		ContextWindow:     32768,
		InputCostPer1K:    0.00024,
		OutputCostPer1K:   0.00024,
		SupportsStreaming: true,
	},
}

// NewAdapter creates the Groq adapter. Construction fails when the API key
// is absent or blank.
func NewAdapter(config providers.ProviderConfig) (*openaicompat.Adapter, error) {
	return openaicompat.NewAdapter(providers.ProviderGroq, defaultBaseURL, catalog, config)
}
