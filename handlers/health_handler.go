package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/chatbridge/chatbridge/app"
	"github.com/chatbridge/chatbridge/utils"
)

// HealthHandler reports process liveness.
func HealthHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteOK(w, map[string]interface{}{
			"status":      "ok",
			"environment": deps.Config.Environment,
		})
	}
}

// ReadyHandler reports readiness. The database must answer a ping before
// the service advertises itself as ready.
func ReadyHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.DB.HealthCheck(r.Context()); err != nil {
			deps.Logger.Warn("readiness check failed", zap.Error(err))
			_ = utils.WriteServiceUnavailable(w, "database is unreachable")
			return
		}
		_ = utils.WriteOK(w, map[string]interface{}{
			"status":      "ready",
			"subscribers": deps.Broker.SubscriberCount(),
		})
	}
}
