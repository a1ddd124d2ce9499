package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chatbridge/chatbridge/app"
	"github.com/chatbridge/chatbridge/services/providers"
	"github.com/chatbridge/chatbridge/utils"
)

// providerStatus combines a descriptor with its current availability
type providerStatus struct {
	providers.ProviderInfo
	Available    bool   `json:"available"`
	DefaultModel string `json:"default_model,omitempty"`
}

// ListProvidersHandler returns every provider descriptor with availability
func ListProvidersHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		infos := deps.Registry.Providers()
		statuses := make([]providerStatus, 0, len(infos))
		for _, info := range infos {
			status := providerStatus{
				ProviderInfo: info,
				Available:    deps.Registry.IsAvailable(info.ID),
			}
			if status.Available {
				status.DefaultModel = deps.Registry.DefaultModel(info.ID)
			}
			statuses = append(statuses, status)
		}
		_ = utils.WriteOK(w, statuses)
	}
}

// ListModelsHandler returns the model catalog for one provider
func ListModelsHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providerID := chi.URLParam(r, "id")

		if !deps.Registry.IsAvailable(providerID) {
			_ = utils.WriteNotFound(w, "provider not available: "+providerID)
			return
		}

		models := deps.Registry.ModelsForProvider(providerID)
		_ = utils.WriteOK(w, models)
	}
}
