package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/DoyleJ11/rts-session/internal/catalog"
	"github.com/DoyleJ11/rts-session/internal/hub"
	"github.com/DoyleJ11/rts-session/internal/ws"
)

func SetupRoutes(h *hub.Hub, c *catalog.Catalog, wsOpts ws.Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	// Public routes
	r.Post("/sessions", CreateSession(h))
	r.Get("/sessions", ListSessions(h))
	r.Get("/sessions/{code}", GetSession(h))
	r.Delete("/sessions/{code}", DeleteSession(h))
	r.Get("/catalog", GetCatalog(c))
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, wsOpts))
	return r
}
