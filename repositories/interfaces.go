package repositories

import (
	"context"
	"errors"

	"github.com/chatbridge/chatbridge/models"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

// ChatSettingsRepository handles per-chat generation settings
type ChatSettingsRepository interface {
	// GetBySessionAndChat returns the settings for a (session, chat) pair.
	// When duplicate rows exist the most recently updated one wins.
	GetBySessionAndChat(ctx context.Context, sessionID, chatID string) (*models.ChatSettings, error)

	// Upsert creates or replaces the settings for a (session, chat) pair
	Upsert(ctx context.Context, settings *models.ChatSettings) error

	// Delete removes the settings for a (session, chat) pair
	Delete(ctx context.Context, sessionID, chatID string) error
}

// ResponseRepository persists completed generation results
type ResponseRepository interface {
	// Insert stores one generation result
	Insert(ctx context.Context, response *models.StoredResponse) error

	// ListByChat returns the newest results for a (session, chat) pair,
	// most recent first
	ListByChat(ctx context.Context, sessionID, chatID string, limit int) ([]*models.StoredResponse, error)
}
