package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chatbridge/chatbridge/models"
	"github.com/chatbridge/chatbridge/repositories"
)

// ResponseRepository implements repositories.ResponseRepository
type ResponseRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewResponseRepository creates a new response repository
func NewResponseRepository(db *DB, logger *zap.Logger) repositories.ResponseRepository {
	return &ResponseRepository{
		db:     db,
		logger: logger,
	}
}

// Insert stores one generation result
func (r *ResponseRepository) Insert(ctx context.Context, response *models.StoredResponse) error {
	if response.ID == uuid.Nil {
		response.ID = uuid.New()
	}
	if response.CreatedAt.IsZero() {
		response.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO responses (id, session_id, chat_id, user_id, provider, model, success, content, error_message, prompt_tokens, completion_tokens, total_tokens, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecContext(ctx, query,
		response.ID,
		response.SessionID,
		response.ChatID,
		response.UserID,
		response.Provider,
		response.Model,
		response.Success,
		response.Content,
		response.ErrorMessage,
		response.PromptTokens,
		response.CompletionTokens,
		response.TotalTokens,
		response.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert response: %w", err)
	}

	r.logger.Debug("response stored", zap.String("id", response.ID.String()))
	return nil
}

// ListByChat returns the newest results for a (session, chat) pair
func (r *ResponseRepository) ListByChat(ctx context.Context, sessionID, chatID string, limit int) ([]*models.StoredResponse, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, session_id, chat_id, user_id, provider, model, success, content, error_message, prompt_tokens, completion_tokens, total_tokens, created_at
		FROM responses
		WHERE session_id = $1 AND chat_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`

	rows, err := r.db.QueryContext(ctx, query, sessionID, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	defer rows.Close()

	var responses []*models.StoredResponse
	for rows.Next() {
		resp := &models.StoredResponse{}
		if err := rows.Scan(
			&resp.ID,
			&resp.SessionID,
			&resp.ChatID,
			&resp.UserID,
			&resp.Provider,
			&resp.Model,
			&resp.Success,
			&resp.Content,
			&resp.ErrorMessage,
			&resp.PromptTokens,
			&resp.CompletionTokens,
			&resp.TotalTokens,
			&resp.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}
		responses = append(responses, resp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate responses: %w", err)
	}

	return responses, nil
}
