package kitchen

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Handler serves the kitchen feed routes
type Handler struct {
	hub *Hub
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// HandleConnect handles GET /ws/kitchen[?category=...]
func (h *Handler) HandleConnect(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if err := h.hub.Upgrade(w, r, category); err != nil {
		// the upgrader has already written the HTTP error
		log.Error().Err(err).Str("category", category).Msg("failed to upgrade kitchen connection")
	}
}

// HandleStats handles GET /ws/kitchen/stats
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(h.hub.Stats()); err != nil {
		log.Error().Err(err).Msg("failed to encode kitchen stats")
	}
}

// RegisterRoutes registers the kitchen routes with an HTTP mux
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws/kitchen", h.HandleConnect)
	mux.HandleFunc("GET /ws/kitchen/stats", h.HandleStats)
}
