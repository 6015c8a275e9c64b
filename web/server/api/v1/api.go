package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"go.hackfix.me/dbmap/dbmap"
)

// Handler is the API endpoint handler.
type Handler struct {
	m      dbmap.TextMap
	logger *slog.Logger
}

// Router returns the API router serving the m map.
func Router(m dbmap.TextMap, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))
	// Limit request sizes to 10MB
	r.Use(middleware.RequestSize(10 << (10 * 2)))

	h := Handler{m: m, logger: logger}
	r.Get("/map/value/*", h.MapGet)
	r.Post("/map/value/*", h.MapSet)
	r.Delete("/map/value/*", h.MapDelete)
	r.Get("/map/keys", h.MapKeys)

	return r
}
