package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ChatSettings holds the per-(session, chat) generation preferences: which
// provider and model to use, an optional system prompt, and the endpoint
// config blob for the custom provider. At most one logical row exists per
// (session_id, chat_id); duplicates are a storage bug, resolved by taking
// the most recently updated row.
type ChatSettings struct {
	ID        uuid.UUID `json:"id" db:"id"`
	SessionID string    `json:"session_id" db:"session_id"`
	ChatID    string    `json:"chat_id" db:"chat_id"`

	// Provider id ("anthropic", "openai", "groq", "gemini", "custom")
	Provider string `json:"provider" db:"provider"`

	// Model id; empty means the provider's default model
	Model string `json:"model" db:"model"`

	// SystemPrompt is prepended to conversations when set
	SystemPrompt *string `json:"system_prompt,omitempty" db:"system_prompt"`

	// EndpointConfig is the serialized custom.EndpointConfig, only
	// meaningful when Provider is "custom"
	EndpointConfig json.RawMessage `json:"endpoint_config,omitempty" db:"endpoint_config"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the ChatSettings model
func (ChatSettings) TableName() string {
	return "chat_settings"
}
