package server

import (
	"net/http"

	"github.com/axondocs/axon/internal/api"
	"github.com/axondocs/axon/internal/api/handlers"
	"github.com/axondocs/axon/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	AuthValidator      middleware.AuthValidator
	ContextHandler     *handlers.ContextHandler
	PersonaHandler     *handlers.PersonaHandler
	DocumentSetHandler *handlers.DocumentSetHandler
	AuthHandler        *handlers.AuthHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 1 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(cfg.AuthValidator))

		r.Post("/context", cfg.ContextHandler.AnswerContext)

		r.Route("/personas", func(r chi.Router) {
			r.Post("/", cfg.PersonaHandler.Create)
			r.Get("/", cfg.PersonaHandler.List)
			r.Get("/{id}", cfg.PersonaHandler.Get)
		})

		r.Route("/document-sets", func(r chi.Router) {
			r.Post("/", cfg.DocumentSetHandler.Create)
			r.Get("/", cfg.DocumentSetHandler.List)
		})

		r.Route("/apikeys", func(r chi.Router) {
			r.Post("/", cfg.AuthHandler.CreateAPIKey)
			r.Get("/", cfg.AuthHandler.ListAPIKeys)
			r.Delete("/{id}", cfg.AuthHandler.RevokeAPIKey)
		})
	})

	return r
}
