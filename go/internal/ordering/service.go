package ordering

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/buffet/go/internal/models"
)

// Service exposes the App over the buffet REST API
type Service struct {
	app *App
}

// NewService creates a new ordering HTTP service
func NewService(app *App) *Service {
	return &Service{app: app}
}

// Register mounts every buffet route on mux
func (s *Service) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /api/orders/start", s.handleStartOrder)
	mux.HandleFunc("GET /api/orders/{id}", s.handleGetOrder)
	mux.HandleFunc("POST /api/orders/{id}/items", s.handleAddItem)
	mux.HandleFunc("POST /api/orders/{id}/checkout", s.handleCheckout)

	mux.HandleFunc("GET /api/menu", s.handleListMenu)
	mux.HandleFunc("POST /api/menu", s.handleCreateMenuItem)
	mux.HandleFunc("PUT /api/menu/{id}", s.handleUpdateMenuItem)
	mux.HandleFunc("DELETE /api/menu/{id}", s.handleDeleteMenuItem)
	mux.HandleFunc("POST /api/seed", s.handleSeed)
}

type messageResponse struct {
	Message string `json:"message"`
	Version string `json:"version,omitempty"`
}

func (s *Service) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: "Buffet Ordering System API", Version: "1.0"})
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Service) handleStartOrder(w http.ResponseWriter, r *http.Request) {
	var req models.StartOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	order, err := s.app.StartOrder(r.Context(), req.TableNumber)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (s *Service) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := s.app.GetOrder(r.Context(), models.ID(r.PathValue("id")))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (s *Service) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req models.AddItemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	line, err := s.app.AddItem(r.Context(), models.ID(r.PathValue("id")), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, line)
}

func (s *Service) handleCheckout(w http.ResponseWriter, r *http.Request) {
	resp, err := s.app.Checkout(r.Context(), models.ID(r.PathValue("id")))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) handleListMenu(w http.ResponseWriter, r *http.Request) {
	items, err := s.app.ListMenu(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Service) handleCreateMenuItem(w http.ResponseWriter, r *http.Request) {
	var req CreateMenuItemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	item, err := s.app.CreateMenuItem(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Service) handleUpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	var req UpdateMenuItemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	item, err := s.app.UpdateMenuItem(r.Context(), models.ID(r.PathValue("id")), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Service) handleDeleteMenuItem(w http.ResponseWriter, r *http.Request) {
	if err := s.app.DeleteMenuItem(r.Context(), models.ID(r.PathValue("id"))); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Menu item deleted successfully"})
}

func (s *Service) handleSeed(w http.ResponseWriter, r *http.Request) {
	result, err := s.app.Seed(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// decodeBody reads a JSON body; an empty body leaves dst at its zero value
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusUnprocessableEntity, models.ErrorResponse{Detail: "Invalid request body"})
		return false
	}
	return true
}

var statusByError = []struct {
	err    error
	status int
}{
	{ErrOrderNotFound, http.StatusNotFound},
	{ErrMenuItemNotFound, http.StatusNotFound},
	{ErrOrderClosed, http.StatusBadRequest},
	{ErrAlreadyCheckedOut, http.StatusBadRequest},
	{ErrMenuItemUnavailable, http.StatusBadRequest},
	{ErrInvalidQuantity, http.StatusBadRequest},
	{ErrInvalidMenuItem, http.StatusBadRequest},
}

// writeError maps domain errors to their status and detail. Anything else is
// logged and reported as a 500.
func writeError(w http.ResponseWriter, err error) {
	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			writeJSON(w, m.status, models.ErrorResponse{Detail: m.err.Error()})
			return
		}
	}
	log.Error().Err(err).Msg("request failed")
	writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Detail: "Internal server error"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
