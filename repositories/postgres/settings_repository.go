package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chatbridge/chatbridge/models"
	"github.com/chatbridge/chatbridge/repositories"
)

// ChatSettingsRepository implements repositories.ChatSettingsRepository
type ChatSettingsRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewChatSettingsRepository creates a new chat settings repository
func NewChatSettingsRepository(db *DB, logger *zap.Logger) repositories.ChatSettingsRepository {
	return &ChatSettingsRepository{
		db:     db,
		logger: logger,
	}
}

// GetBySessionAndChat returns the settings for a (session, chat) pair.
// Ordered by updated_at so that when duplicate rows exist (a storage-layer
// bug) the most recently updated one is authoritative.
func (r *ChatSettingsRepository) GetBySessionAndChat(ctx context.Context, sessionID, chatID string) (*models.ChatSettings, error) {
	query := `
		SELECT id, session_id, chat_id, provider, model, system_prompt, endpoint_config, created_at, updated_at
		FROM chat_settings
		WHERE session_id = $1 AND chat_id = $2
		ORDER BY updated_at DESC
		LIMIT 1
	`

	settings := &models.ChatSettings{}
	err := r.db.QueryRowContext(ctx, query, sessionID, chatID).Scan(
		&settings.ID,
		&settings.SessionID,
		&settings.ChatID,
		&settings.Provider,
		&settings.Model,
		&settings.SystemPrompt,
		&settings.EndpointConfig,
		&settings.CreatedAt,
		&settings.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chat settings: %w", err)
	}

	return settings, nil
}

// Upsert creates or replaces the settings for a (session, chat) pair
func (r *ChatSettingsRepository) Upsert(ctx context.Context, settings *models.ChatSettings) error {
	if settings.ID == uuid.Nil {
		settings.ID = uuid.New()
	}
	now := time.Now()
	if settings.CreatedAt.IsZero() {
		settings.CreatedAt = now
	}
	settings.UpdatedAt = now

	query := `
		INSERT INTO chat_settings (id, session_id, chat_id, provider, model, system_prompt, endpoint_config, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (session_id, chat_id) DO UPDATE SET
			provider = EXCLUDED.provider,
			model = EXCLUDED.model,
			system_prompt = EXCLUDED.system_prompt,
			endpoint_config = EXCLUDED.endpoint_config,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		settings.ID,
		settings.SessionID,
		settings.ChatID,
		settings.Provider,
		settings.Model,
		settings.SystemPrompt,
		settings.EndpointConfig,
		settings.CreatedAt,
		settings.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert chat settings: %w", err)
	}

	r.logger.Debug("chat settings upserted",
		zap.String("session_id", settings.SessionID),
		zap.String("chat_id", settings.ChatID),
		zap.String("provider", settings.Provider))
	return nil
}

// Delete removes the settings for a (session, chat) pair
func (r *ChatSettingsRepository) Delete(ctx context.Context, sessionID, chatID string) error {
	query := `DELETE FROM chat_settings WHERE session_id = $1 AND chat_id = $2`

	_, err := r.db.ExecContext(ctx, query, sessionID, chatID)
	if err != nil {
		return fmt.Errorf("failed to delete chat settings: %w", err)
	}
	return nil
}
