package models

import (
	"time"

	"github.com/google/uuid"
)

// StoredResponse is a persisted generation result, one row per completed
// (or failed) request.
type StoredResponse struct {
	ID        uuid.UUID `json:"id" db:"id"`
	SessionID string    `json:"session_id" db:"session_id"`
	ChatID    string    `json:"chat_id" db:"chat_id"`
	UserID    string    `json:"user_id" db:"user_id"`

	Provider string `json:"provider" db:"provider"`
	Model    string `json:"model" db:"model"`

	Success      bool    `json:"success" db:"success"`
	Content      string  `json:"content" db:"content"`
	ErrorMessage *string `json:"error_message,omitempty" db:"error_message"`

	PromptTokens     int `json:"prompt_tokens" db:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens" db:"completion_tokens"`
	TotalTokens      int `json:"total_tokens" db:"total_tokens"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the StoredResponse model
func (StoredResponse) TableName() string {
	return "responses"
}
