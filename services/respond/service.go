// Package respond orchestrates one "process this text" request: resolve the
// chat's settings, pick and invoke a provider adapter, persist the outcome,
// and publish it to the result broker for live listeners.
package respond

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/chatbridge/chatbridge/models"
	"github.com/chatbridge/chatbridge/repositories"
	"github.com/chatbridge/chatbridge/services/broker"
	"github.com/chatbridge/chatbridge/services/providers"
	"github.com/chatbridge/chatbridge/services/providers/custom"
)

// ErrNoProvidersAvailable is returned when no provider can serve a request
var ErrNoProvidersAvailable = errors.New("no providers available")

// Request is one text-processing request from the transport layer
type Request struct {
	SessionID string `json:"session_id" validate:"required"`
	ChatID    string `json:"chat_id" validate:"required"`
	UserID    string `json:"user_id,omitempty"`

	Messages []providers.Message `json:"messages" validate:"required,min=1,dive"`

	// Provider and Model override the stored chat settings when set
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`

	Options *providers.GenerationOptions `json:"options,omitempty"`

	// Endpoint supplies an inline custom endpoint config, taking precedence
	// over the one stored in chat settings
	Endpoint *custom.EndpointConfig `json:"endpoint,omitempty"`
}

// Service runs the generation pipeline
type Service struct {
	registry  *providers.Registry
	settings  repositories.ChatSettingsRepository
	responses repositories.ResponseRepository
	broker    *broker.Broker
	logger    *zap.Logger
}

// NewService creates the pipeline service
func NewService(
	registry *providers.Registry,
	settings repositories.ChatSettingsRepository,
	responses repositories.ResponseRepository,
	b *broker.Broker,
	logger *zap.Logger,
) *Service {
	return &Service{
		registry:  registry,
		settings:  settings,
		responses: responses,
		broker:    b,
		logger:    logger,
	}
}

// ProcessText runs the full pipeline for one request. Provider-level
// failures come back as a GenerationResult with Success false; a Go error
// is returned only for request-level problems (no usable provider, broken
// settings storage, invalid endpoint config).
func (s *Service) ProcessText(ctx context.Context, req *Request) (*providers.GenerationResult, error) {
	settings, err := s.loadSettings(ctx, req)
	if err != nil {
		return nil, err
	}

	providerID, err := s.resolveProvider(req, settings)
	if err != nil {
		return nil, err
	}

	model := s.resolveModel(req, settings, providerID)

	adapter, err := s.resolveAdapter(req, settings, providerID)
	if err != nil {
		return nil, err
	}

	messages := withSystemPrompt(req.Messages, settings)

	s.logger.Info("processing text request",
		zap.String("session_id", req.SessionID),
		zap.String("chat_id", req.ChatID),
		zap.String("provider", providerID),
		zap.String("model", model))

	result := adapter.GenerateResponse(ctx, messages, model, req.Options)

	s.store(ctx, req, result)
	s.publish(req, result)

	return result, nil
}

// loadSettings fetches the chat's stored settings; absence is not an error.
func (s *Service) loadSettings(ctx context.Context, req *Request) (*models.ChatSettings, error) {
	settings, err := s.settings.GetBySessionAndChat(ctx, req.SessionID, req.ChatID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load chat settings: %w", err)
	}
	return settings, nil
}

// resolveProvider picks the provider id: request override, then stored
// settings, then the first available provider.
func (s *Service) resolveProvider(req *Request, settings *models.ChatSettings) (string, error) {
	if req.Provider != "" {
		return req.Provider, nil
	}
	if req.Endpoint != nil {
		return providers.ProviderCustom, nil
	}
	if settings != nil && settings.Provider != "" {
		return settings.Provider, nil
	}
	if available := s.registry.AvailableProviders(); len(available) > 0 {
		return available[0], nil
	}
	return "", ErrNoProvidersAvailable
}

// resolveModel picks the model id: request override, then stored settings,
// then the provider's default.
func (s *Service) resolveModel(req *Request, settings *models.ChatSettings, providerID string) string {
	if req.Model != "" {
		return req.Model
	}
	if settings != nil && settings.Model != "" {
		return settings.Model
	}
	return s.registry.DefaultModel(providerID)
}

// resolveAdapter returns the adapter for the chosen provider. The custom
// provider is constructed per call from the inline or stored endpoint
// config; hosted providers come from the registry cache.
func (s *Service) resolveAdapter(req *Request, settings *models.ChatSettings, providerID string) (providers.Provider, error) {
	if providerID != providers.ProviderCustom {
		adapter, err := s.registry.GetProvider(providerID)
		if err != nil {
			return nil, fmt.Errorf("provider unavailable: %w", err)
		}
		return adapter, nil
	}

	endpoint := req.Endpoint
	if endpoint == nil && settings != nil && len(settings.EndpointConfig) > 0 {
		endpoint = &custom.EndpointConfig{}
		if err := json.Unmarshal(settings.EndpointConfig, endpoint); err != nil {
			return nil, fmt.Errorf("stored endpoint config is malformed: %w", err)
		}
	}
	if endpoint == nil {
		return nil, errors.New("custom provider requires an endpoint config")
	}

	adapter, err := custom.NewAdapter(*endpoint, s.logger)
	if err != nil {
		return nil, fmt.Errorf("provider unavailable: %w", err)
	}
	return adapter, nil
}

// store persists the result. Storage failures are logged, not propagated:
// the caller already has the generation outcome.
func (s *Service) store(ctx context.Context, req *Request, result *providers.GenerationResult) {
	stored := &models.StoredResponse{
		SessionID: req.SessionID,
		ChatID:    req.ChatID,
		UserID:    req.UserID,
		Provider:  result.Provider,
		Model:     result.Model,
		Success:   result.Success,
		Content:   result.Content,
	}
	if result.Error != "" {
		msg := result.Error
		stored.ErrorMessage = &msg
	}
	if result.Usage != nil {
		stored.PromptTokens = result.Usage.PromptTokens
		stored.CompletionTokens = result.Usage.CompletionTokens
		stored.TotalTokens = result.Usage.TotalTokens
	}

	if err := s.responses.Insert(ctx, stored); err != nil {
		s.logger.Error("failed to store response",
			zap.String("session_id", req.SessionID),
			zap.String("chat_id", req.ChatID),
			zap.Error(err))
	}
}

// publish fans the result out to matching subscribers.
func (s *Service) publish(req *Request, result *providers.GenerationResult) {
	s.broker.Publish(&broker.ResponsePayload{
		SessionID: req.SessionID,
		ChatID:    req.ChatID,
		UserID:    req.UserID,
		Provider:  result.Provider,
		Model:     result.Model,
		Result:    result,
	})
}

// withSystemPrompt prepends the stored system prompt unless the request
// already carries a system message.
func withSystemPrompt(messages []providers.Message, settings *models.ChatSettings) []providers.Message {
	if settings == nil || settings.SystemPrompt == nil || *settings.SystemPrompt == "" {
		return messages
	}
	for _, msg := range messages {
		if msg.Role == providers.RoleSystem {
			return messages
		}
	}
	out := make([]providers.Message, 0, len(messages)+1)
	out = append(out, providers.Message{Role: providers.RoleSystem, Content: *settings.SystemPrompt})
	return append(out, messages...)
}
