package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nekoverse/nekobot/internal/handler/event"
	"github.com/nekoverse/nekobot/internal/service/assistant"
)

// NewRouter wires HTTP routes to the conversation core.
func NewRouter(assistantSvc *assistant.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	eventHandler := event.New(assistantSvc)

	r.Route("/api", func(api chi.Router) {
		api.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
		eventHandler.RegisterRoutes(api)
	})

	return r
}
