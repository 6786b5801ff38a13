package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter mounts every HTTP surface of the relay: the websocket
// upgrade, the history query channel, and the debug endpoint.
func NewRouter(wsHandler, debugHandler http.HandlerFunc, history *HistoryHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/ws", wsHandler)
	r.Get("/history", history.GetHistory)
	r.Get("/debug/stats", debugHandler)
	return r
}
