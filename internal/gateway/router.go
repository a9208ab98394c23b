package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"medcockpit/pkg/logging"
)

// NewRouter assembles the HTTP surface: the JSON API, the websocket event
// stream and the operational endpoints.
func NewRouter(h *Handler, hub *Hub, logger *logging.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/events", hub.ServeWS)

	r.Route("/api", h.Routes)
	return r
}
