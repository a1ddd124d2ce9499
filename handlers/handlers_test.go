package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap/zaptest"

	"github.com/chatbridge/chatbridge/app"
	"github.com/chatbridge/chatbridge/config"
	"github.com/chatbridge/chatbridge/models"
	"github.com/chatbridge/chatbridge/services/broker"
	"github.com/chatbridge/chatbridge/services/providers"
	"github.com/chatbridge/chatbridge/services/respond"
)

// MockChatSettingsRepository is a mock implementation of ChatSettingsRepository
type MockChatSettingsRepository struct {
	mock.Mock
}

func (m *MockChatSettingsRepository) GetBySessionAndChat(ctx context.Context, sessionID, chatID string) (*models.ChatSettings, error) {
	args := m.Called(ctx, sessionID, chatID)
	if settings := args.Get(0); settings != nil {
		return settings.(*models.ChatSettings), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockChatSettingsRepository) Upsert(ctx context.Context, settings *models.ChatSettings) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}

func (m *MockChatSettingsRepository) Delete(ctx context.Context, sessionID, chatID string) error {
	args := m.Called(ctx, sessionID, chatID)
	return args.Error(0)
}

// MockResponseRepository is a mock implementation of ResponseRepository
type MockResponseRepository struct {
	mock.Mock
}

func (m *MockResponseRepository) Insert(ctx context.Context, response *models.StoredResponse) error {
	args := m.Called(ctx, response)
	return args.Error(0)
}

func (m *MockResponseRepository) ListByChat(ctx context.Context, sessionID, chatID string, limit int) ([]*models.StoredResponse, error) {
	args := m.Called(ctx, sessionID, chatID, limit)
	if responses := args.Get(0); responses != nil {
		return responses.([]*models.StoredResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

// echoProvider returns a fixed successful result without any network I/O
type echoProvider struct {
	content string
}

func (p *echoProvider) Name() string { return providers.ProviderOpenAI }
func (p *echoProvider) AvailableModels() []providers.ModelInfo {
	return []providers.ModelInfo{{ID: "gpt-4o-mini", Name: "GPT-4o Mini"}}
}
func (p *echoProvider) SupportsModel(string) bool { return true }
func (p *echoProvider) GenerateResponse(ctx context.Context, messages []providers.Message, model string, opts *providers.GenerationOptions) *providers.GenerationResult {
	return &providers.GenerationResult{
		Success:  true,
		Content:  p.content,
		Model:    model,
		Provider: p.Name(),
	}
}

// newTestDeps wires Dependencies against mocks and an in-memory registry
func newTestDeps(t *testing.T, settings *MockChatSettingsRepository, responses *MockResponseRepository) *app.Dependencies {
	t.Helper()
	logger := zaptest.NewLogger(t)

	registry := providers.NewRegistry(map[string]string{providers.ProviderOpenAI: "sk-test"}, logger)
	registry.RegisterBuilder(providers.ProviderOpenAI, func(cfg providers.ProviderConfig) (providers.Provider, error) {
		return &echoProvider{content: "echo reply"}, nil
	})

	b := broker.New(logger)

	deps := &app.Dependencies{
		Config:       &config.Config{Environment: "test"},
		Logger:       logger,
		ChatSettings: settings,
		Responses:    responses,
		Registry:     registry,
		Broker:       b,
		Sweeper:      broker.NewSweeper(b, logger),
	}
	deps.Respond = respond.NewService(registry, settings, responses, b, logger)
	return deps
}
