package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/chatbridge/chatbridge/app"
	"github.com/chatbridge/chatbridge/services/respond"
	"github.com/chatbridge/chatbridge/utils"
)

// RespondHandler runs the generation pipeline for one text request. The
// response body is always a structured GenerationResult; provider failures
// come back with HTTP 200 and success:false.
func RespondHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req respond.Request
		if err := decodeJSON(r, &req); err != nil {
			_ = utils.WriteBadRequest(w, "invalid request body: "+err.Error(), nil)
			return
		}

		if err := utils.ValidateStruct(&req); err != nil {
			writeRequestError(w, err)
			return
		}

		result, err := deps.Respond.ProcessText(r.Context(), &req)
		if err != nil {
			deps.Logger.Warn("respond pipeline rejected request",
				zap.String("session_id", req.SessionID),
				zap.String("chat_id", req.ChatID),
				zap.Error(err))

			if errors.Is(err, respond.ErrNoProvidersAvailable) {
				_ = utils.WriteServiceUnavailable(w, err.Error())
				return
			}
			writeRequestError(w, err)
			return
		}

		_ = utils.WriteJSON(w, http.StatusOK, result)
	}
}
