package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dealwatch/backend/internal/model"
	"github.com/dealwatch/backend/internal/service"
)

// SubscriptionHandler manages a user's game subscriptions
type SubscriptionHandler struct {
	service SubscriptionServiceInterface
}

// NewSubscriptionHandler creates a new subscription handler
func NewSubscriptionHandler(svc SubscriptionServiceInterface) *SubscriptionHandler {
	return &SubscriptionHandler{service: svc}
}

// List handles GET /api/users/{userID}/subscriptions
func (h *SubscriptionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	subs, err := h.service.ListForUser(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, subs)
}

// Create handles POST /api/users/{userID}/subscriptions
func (h *SubscriptionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	var input service.SubscribeInput
	if err := decodeJSON(r, &input); err != nil {
		respondServiceError(w, r, err)
		return
	}

	sub, err := h.service.Subscribe(r.Context(), userID, input)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, sub)
}

// UpdateFilters handles PATCH /api/users/{userID}/subscriptions/{gameID}
func (h *SubscriptionHandler) UpdateFilters(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	var filters model.SubscriptionFilters
	if err := decodeJSON(r, &filters); err != nil {
		respondServiceError(w, r, err)
		return
	}

	if err := h.service.UpdateFilters(r.Context(), userID, chi.URLParam(r, "gameID"), filters); err != nil {
		respondServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/users/{userID}/subscriptions/{gameID}
func (h *SubscriptionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	if err := h.service.Unsubscribe(r.Context(), userID, chi.URLParam(r, "gameID")); err != nil {
		respondServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// History handles GET /api/games/{gameID}/prices/{storeID}/history?limit=
func (h *SubscriptionHandler) History(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	history, err := h.service.PriceHistory(r.Context(), chi.URLParam(r, "gameID"), chi.URLParam(r, "storeID"), limit)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, history)
}
