package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"marquee/models"
	"marquee/services/letterboxd"
	"marquee/services/showtimes"
)

type showtimeService interface {
	Get(ctx context.Context, listPath string) (models.ShowtimesEnvelope, error)
}

var _ showtimeService = (*showtimes.Service)(nil)

// ShowtimesHandler serves the aggregated showtime endpoint consumed by the
// UI.
type ShowtimesHandler struct {
	Service showtimeService
}

func NewShowtimesHandler(service showtimeService) *ShowtimesHandler {
	return &ShowtimesHandler{Service: service}
}

// Get handles GET /api/showtimes/{listPath}. The list path identifies a
// Letterboxd watchlist ("user/watchlist") or custom list
// ("user/list/slug").
func (h *ShowtimesHandler) Get(w http.ResponseWriter, r *http.Request) {
	listPath := strings.Trim(mux.Vars(r)["listPath"], "/")
	if listPath == "" {
		writeError(w, http.StatusBadRequest, "list path is required")
		return
	}

	envelope, err := h.Service.Get(r.Context(), listPath)
	if err != nil {
		if errors.Is(err, letterboxd.ErrListNotFound) {
			writeError(w, http.StatusNotFound,
				"list not found - check the username or list URL")
			return
		}
		writeError(w, http.StatusBadGateway, "could not fetch the list: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(envelope)
}

func (h *ShowtimesHandler) Options(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
