package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/chatbridge/chatbridge/app"
	"github.com/chatbridge/chatbridge/models"
	"github.com/chatbridge/chatbridge/repositories"
	"github.com/chatbridge/chatbridge/services/providers/custom"
	"github.com/chatbridge/chatbridge/utils"
)

// chatSettingsRequest is the write DTO for per-chat settings
type chatSettingsRequest struct {
	SessionID      string                 `json:"session_id" validate:"required"`
	ChatID         string                 `json:"chat_id" validate:"required"`
	Provider       string                 `json:"provider" validate:"required"`
	Model          string                 `json:"model,omitempty"`
	SystemPrompt   *string                `json:"system_prompt,omitempty"`
	EndpointConfig *custom.EndpointConfig `json:"endpoint_config,omitempty"`
}

// GetChatSettingsHandler returns the stored settings for a (session, chat)
// pair, identified by query parameters.
func GetChatSettingsHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.URL.Query().Get("session_id")
		chatID := r.URL.Query().Get("chat_id")
		if sessionID == "" || chatID == "" {
			_ = utils.WriteBadRequest(w, "session_id and chat_id are required", nil)
			return
		}

		settings, err := deps.ChatSettings.GetBySessionAndChat(r.Context(), sessionID, chatID)
		if errors.Is(err, repositories.ErrNotFound) {
			_ = utils.WriteNotFound(w, "no settings for this chat")
			return
		}
		if err != nil {
			deps.Logger.Error("failed to load chat settings", zap.Error(err))
			_ = utils.WriteInternalServerError(w, "")
			return
		}

		_ = utils.WriteOK(w, settings)
	}
}

// PutChatSettingsHandler creates or replaces the settings for a chat
func PutChatSettingsHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chatSettingsRequest
		if err := decodeJSON(r, &req); err != nil {
			_ = utils.WriteBadRequest(w, "invalid request body: "+err.Error(), nil)
			return
		}
		if err := utils.ValidateStruct(&req); err != nil {
			writeRequestError(w, err)
			return
		}
		if req.EndpointConfig != nil {
			if err := utils.ValidateStruct(req.EndpointConfig); err != nil {
				writeRequestError(w, err)
				return
			}
		}

		settings := &models.ChatSettings{
			SessionID:    req.SessionID,
			ChatID:       req.ChatID,
			Provider:     req.Provider,
			Model:        req.Model,
			SystemPrompt: req.SystemPrompt,
		}
		if req.EndpointConfig != nil {
			raw, err := json.Marshal(req.EndpointConfig)
			if err != nil {
				_ = utils.WriteBadRequest(w, "invalid endpoint config", nil)
				return
			}
			settings.EndpointConfig = raw
		}

		if err := deps.ChatSettings.Upsert(r.Context(), settings); err != nil {
			deps.Logger.Error("failed to save chat settings", zap.Error(err))
			_ = utils.WriteInternalServerError(w, "")
			return
		}

		_ = utils.WriteOK(w, settings)
	}
}

// DeleteChatSettingsHandler removes the settings for a chat
func DeleteChatSettingsHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.URL.Query().Get("session_id")
		chatID := r.URL.Query().Get("chat_id")
		if sessionID == "" || chatID == "" {
			_ = utils.WriteBadRequest(w, "session_id and chat_id are required", nil)
			return
		}

		if err := deps.ChatSettings.Delete(r.Context(), sessionID, chatID); err != nil {
			deps.Logger.Error("failed to delete chat settings", zap.Error(err))
			_ = utils.WriteInternalServerError(w, "")
			return
		}

		utils.WriteNoContent(w)
	}
}
