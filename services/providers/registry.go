package providers

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Provider ids. The custom provider is always last in listings.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGroq      = "groq"
	ProviderGemini    = "gemini"
	ProviderCustom    = "custom"
)

var (
	// ErrProviderNotFound is returned for unknown provider ids
	ErrProviderNotFound = errors.New("provider not found")

	// ErrCustomNotCached is returned when GetProvider is called for the
	// custom provider. Custom adapters carry per-call endpoint config and
	// are constructed directly by the caller, never cached here.
	ErrCustomNotCached = errors.New("custom provider must be constructed per request with its endpoint config")
)

// providerCatalog is the fixed descriptor list: hosted providers first,
// custom last.
var providerCatalog = []ProviderInfo{
	{
		ID:             ProviderAnthropic,
		Name:           "Anthropic",
		Description:    "Claude models via the Anthropic Messages API",
		RequiresAPIKey: true,
		APIKeyEnvVar:   "ANTHROPIC_API_KEY",
	},
	{
		ID:             ProviderOpenAI,
		Name:           "OpenAI",
		Description:    "GPT models via the OpenAI Chat Completions API",
		RequiresAPIKey: true,
		APIKeyEnvVar:   "OPENAI_API_KEY",
	},
	{
		ID:             ProviderGroq,
		Name:           "Groq",
		Description:    "Open models on Groq's OpenAI-compatible API",
		RequiresAPIKey: true,
		APIKeyEnvVar:   "GROQ_API_KEY",
	},
	{
		ID:             ProviderGemini,
		Name:           "Google Gemini",
		Description:    "Gemini models via the Generative Language API",
		RequiresAPIKey: true,
		APIKeyEnvVar:   "GEMINI_API_KEY",
	},
	{
		ID:          ProviderCustom,
		Name:        "Custom Endpoint",
		Description: "User-configured OpenAI-compatible or custom endpoint",
		IsCustom:    true,
	},
}

// defaultModels is the per-provider preference table. When the preferred id
// is missing from the catalog the first catalog entry is used instead.
var defaultModels = map[string]string{
	ProviderAnthropic: "claude-3-5-sonnet-20241022",
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderGroq:      "llama-3.3-70b-versatile",
	ProviderGemini:    "gemini-1.5-flash",
	ProviderCustom:    "custom-model",
}

// CustomModelInfo is the single fixed descriptor the registry reports for
// the custom provider. The actual model id used on the wire comes from the
// caller's endpoint config.
var CustomModelInfo = ModelInfo{
	ID:            "custom-model",
	Name:          "Custom Model",
	Description:   "Model served by a user-configured endpoint",
	ContextWindow: 4096,
}

// Builder constructs a hosted adapter from its configuration. Builders are
// registered per provider id by the application wiring.
type Builder func(cfg ProviderConfig) (Provider, error)

// Registry discovers usable providers, lazily constructs hosted adapters and
// caches them as process-lifetime singletons. It is an explicit value owned
// by the application wiring, not package-level state.
type Registry struct {
	mu       sync.Mutex
	logger   *zap.Logger
	apiKeys  map[string]string
	builders map[string]Builder
	cache    map[string]Provider
}

// NewRegistry creates a registry. apiKeys maps provider id to its credential;
// blank or missing entries mark a hosted provider unavailable.
func NewRegistry(apiKeys map[string]string, logger *zap.Logger) *Registry {
	keys := make(map[string]string, len(apiKeys))
	for id, key := range apiKeys {
		keys[id] = key
	}
	return &Registry{
		logger:   logger,
		apiKeys:  keys,
		builders: make(map[string]Builder),
		cache:    make(map[string]Provider),
	}
}

// RegisterBuilder registers the factory for a hosted provider id.
func (r *Registry) RegisterBuilder(providerID string, builder Builder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builders[providerID] = builder
}

// SetAPIKey updates the credential for a provider. Pair with ClearCache when
// rotating keys so the next GetProvider constructs a fresh adapter.
func (r *Registry) SetAPIKey(providerID, key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.apiKeys[providerID] = key
}

// Providers returns all provider descriptors in fixed order.
func (r *Registry) Providers() []ProviderInfo {
	out := make([]ProviderInfo, len(providerCatalog))
	copy(out, providerCatalog)
	return out
}

// IsAvailable reports whether a provider can be used right now. The custom
// provider is always available; hosted providers need a non-blank API key.
func (r *Registry) IsAvailable(providerID string) bool {
	if providerID == ProviderCustom {
		return true
	}
	if !isKnownProvider(providerID) {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return strings.TrimSpace(r.apiKeys[providerID]) != ""
}

// AvailableProviders returns the ids of every usable provider, in catalog
// order.
func (r *Registry) AvailableProviders() []string {
	var ids []string
	for _, info := range providerCatalog {
		if r.IsAvailable(info.ID) {
			ids = append(ids, info.ID)
		}
	}
	return ids
}

// GetProvider returns the cached hosted adapter for an id, constructing it
// on first use. Construct-once: the lock is held across construction so
// concurrent first callers wait on the winner instead of racing duplicate
// instances. Construction failures surface as ErrProviderNotFound.
func (r *Registry) GetProvider(providerID string) (Provider, error) {
	if providerID == ProviderCustom {
		return nil, ErrCustomNotCached
	}
	if !isKnownProvider(providerID) {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, providerID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.cache[providerID]; ok {
		return p, nil
	}

	if strings.TrimSpace(r.apiKeys[providerID]) == "" {
		return nil, fmt.Errorf("%w: %s has no API key configured", ErrProviderNotFound, providerID)
	}

	builder, ok := r.builders[providerID]
	if !ok {
		return nil, fmt.Errorf("%w: no builder registered for %s", ErrProviderNotFound, providerID)
	}

	cfg := DefaultProviderConfig()
	cfg.APIKey = r.apiKeys[providerID]

	p, err := builder(cfg)
	if err != nil {
		r.logger.Warn("provider construction failed",
			zap.String("provider", providerID),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %s: %v", ErrProviderNotFound, providerID, err)
	}

	r.cache[providerID] = p
	r.logger.Info("provider adapter constructed", zap.String("provider", providerID))
	return p, nil
}

// ModelsForProvider returns a provider's model catalog. The custom provider
// returns its single fixed descriptor without constructing anything; hosted
// providers that are unavailable return an empty catalog.
func (r *Registry) ModelsForProvider(providerID string) []ModelInfo {
	if providerID == ProviderCustom {
		return []ModelInfo{CustomModelInfo}
	}
	p, err := r.GetProvider(providerID)
	if err != nil {
		return nil
	}
	return p.AvailableModels()
}

// DefaultModel returns the preferred model id for a provider, falling back
// to the first catalog entry when the preference is absent. Empty string
// when the catalog is empty or the provider is unknown.
func (r *Registry) DefaultModel(providerID string) string {
	models := r.ModelsForProvider(providerID)

	preferred, ok := defaultModels[providerID]
	if ok {
		for _, m := range models {
			if m.ID == preferred {
				return preferred
			}
		}
	}
	if len(models) > 0 {
		return models[0].ID
	}
	return ""
}

// ClearCache drops every cached hosted adapter. Used for credential rotation
// and in tests.
func (r *Registry) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]Provider)
}

func isKnownProvider(providerID string) bool {
	for _, info := range providerCatalog {
		if info.ID == providerID {
			return true
		}
	}
	return false
}
