package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/chatbridge/chatbridge/app"
	"github.com/chatbridge/chatbridge/handlers"
	"github.com/chatbridge/chatbridge/middleware"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimiddleware.Recoverer)

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoints
	r.Get("/healthz", handlers.HealthHandler(deps))
	r.Get("/readyz", handlers.ReadyHandler(deps))

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Request/response endpoints get a bounded lifetime. The stream
		// route stays outside this group so the timeout middleware never
		// cuts long-lived SSE connections.
		r.Group(func(r chi.Router) {
			r.Use(chimiddleware.Timeout(60 * time.Second))

			r.Post("/respond", handlers.RespondHandler(deps))

			r.Get("/providers", handlers.ListProvidersHandler(deps))
			r.Get("/providers/{id}/models", handlers.ListModelsHandler(deps))

			r.Route("/settings", func(r chi.Router) {
				r.Get("/", handlers.GetChatSettingsHandler(deps))
				r.Put("/", handlers.PutChatSettingsHandler(deps))
				r.Delete("/", handlers.DeleteChatSettingsHandler(deps))
			})

			r.Get("/responses", handlers.ListResponsesHandler(deps))
		})

		r.Get("/stream", handlers.StreamHandler(deps))
	})

	return r
}
