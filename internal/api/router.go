package api

import (
	"directory-map-service/internal/adapters/geolocation"
	"directory-map-service/internal/api/handlers"
	"directory-map-service/internal/ports"
	"directory-map-service/internal/services"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Dependencies of the HTTP API.
type RouterDeps struct {
	Sessions    *services.SessionStore
	Categories  ports.CategoryLister
	IPLocator   *geolocation.IPLocator
	CorsOrigins []string
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete directories).
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: deps.CorsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	sessionHandler := &handlers.SessionHandler{
		Store:     deps.Sessions,
		IPLocator: deps.IPLocator,
	}
	catalogHandler := &handlers.CatalogHandler{
		Categories: deps.Categories,
		Gazetteer:  deps.Sessions.Gazetteer(),
	}

	r.Get("/health", handlers.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/categories", catalogHandler.ListCategories)
		r.Get("/gazetteer", catalogHandler.Places)

		r.Post("/sessions", sessionHandler.Create)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", sessionHandler.Get)
			r.Delete("/", sessionHandler.Delete)
			r.Put("/text", sessionHandler.SetText)
			r.Put("/category", sessionHandler.SetCategory)
			r.Post("/near-me", sessionHandler.NearMe)
			r.Put("/location", sessionHandler.SetLocation)
			r.Delete("/location", sessionHandler.ClearLocation)
			r.Post("/location/suggestion", sessionHandler.SelectSuggestion)
			r.Put("/selection", sessionHandler.Select)
			r.Delete("/selection", sessionHandler.ClearSelection)
			r.Post("/search-panel", sessionHandler.SearchPanel)
			r.Delete("/error", sessionHandler.DismissError)
			r.Post("/search/retry", sessionHandler.RetrySearch)
			r.Post("/directions", sessionHandler.Directions)
		})
	})

	return r
}
