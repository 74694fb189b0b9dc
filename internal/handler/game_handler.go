package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// GameHandler serves game, deal and store lookups
type GameHandler struct {
	service CatalogServiceInterface
}

// NewGameHandler creates a new game handler
func NewGameHandler(svc CatalogServiceInterface) *GameHandler {
	return &GameHandler{service: svc}
}

// Search handles GET /api/games/search?q=&limit=
func (h *GameHandler) Search(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	games, err := h.service.SearchGames(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, games)
}

// Get handles GET /api/games/{gameID}
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	details, err := h.service.GetGame(r.Context(), chi.URLParam(r, "gameID"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, details)
}

// Deals handles GET /api/deals?limit=
func (h *GameHandler) Deals(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	deals, err := h.service.CurrentDeals(r.Context(), limit)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, deals)
}

// Stores handles GET /api/stores
func (h *GameHandler) Stores(w http.ResponseWriter, r *http.Request) {
	stores, err := h.service.ListStores(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, stores)
}
