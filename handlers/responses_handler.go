package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/chatbridge/chatbridge/app"
	"github.com/chatbridge/chatbridge/utils"
)

// ListResponsesHandler returns stored results for a (session, chat) pair,
// newest first.
func ListResponsesHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.URL.Query().Get("session_id")
		chatID := r.URL.Query().Get("chat_id")
		if sessionID == "" || chatID == "" {
			_ = utils.WriteBadRequest(w, "session_id and chat_id are required", nil)
			return
		}

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				_ = utils.WriteBadRequest(w, "limit must be a positive integer", nil)
				return
			}
			limit = parsed
		}

		responses, err := deps.Responses.ListByChat(r.Context(), sessionID, chatID, limit)
		if err != nil {
			deps.Logger.Error("failed to list responses", zap.Error(err))
			_ = utils.WriteInternalServerError(w, "")
			return
		}

		_ = utils.WriteOK(w, responses)
	}
}
