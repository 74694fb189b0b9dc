package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dealwatch/backend/internal/model"
)

// UserHandler serves user profiles
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler creates a new user handler
func NewUserHandler(svc UserServiceInterface) *UserHandler {
	return &UserHandler{service: svc}
}

// Get handles GET /api/users/{userID}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	user, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// Update handles PATCH /api/users/{userID}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	var profile model.UserProfile
	if err := decodeJSON(r, &profile); err != nil {
		respondServiceError(w, r, err)
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), userID, profile)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}
