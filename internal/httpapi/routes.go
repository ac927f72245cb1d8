package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/grid-tactics-server/internal/catalog"
	"github.com/DoyleJ11/grid-tactics-server/internal/hub"
	"github.com/DoyleJ11/grid-tactics-server/internal/ws"
)

func SetupRoutes(h *hub.Hub, cat *catalog.Catalog, wsOpts ws.Options, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if wsOpts.Logger == nil {
		wsOpts.Logger = log
	}

	r := chi.NewRouter()

	// Public routes
	r.Post("/lobbies", CreateLobby(h, log))
	r.Get("/lobbies", ListLobbies(h))
	r.Delete("/lobbies/{code}", DeleteLobby(h))
	r.Get("/skills", Skills(cat))
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h, wsOpts))
	return r
}
