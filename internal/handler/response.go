package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/dealwatch/backend/internal/apperror"
	"github.com/dealwatch/backend/internal/logger"
)

// ErrorResponse represents a JSON error response body.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// respondJSON writes a JSON response with the given status code.
// It sets the Content-Type header to application/json.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// respondError writes a JSON error response with the given status code and message.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// respondAppError writes a JSON error response from an AppError.
// It extracts the status code and message from the error.
func respondAppError(w http.ResponseWriter, err *apperror.AppError) {
	resp := ErrorResponse{
		Error: err.Message,
		Field: err.Field,
	}
	respondJSON(w, err.StatusCode, resp)
}

// respondServiceError renders any error returned by a service.
// Server-side failures are logged and never leak their cause to the client.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.StatusCode < http.StatusInternalServerError {
		respondAppError(w, appErr)
		return
	}

	status := apperror.GetStatusCode(err)
	if status < http.StatusInternalServerError {
		respondError(w, status, apperror.GetMessage(err))
		return
	}

	logger.FromContext(r.Context()).Error("Request failed",
		"path", r.URL.Path,
		"status", status,
		"error", err.Error(),
	)
	message := "an internal error occurred"
	switch status {
	case http.StatusBadGateway:
		message = "price feed is unavailable"
	case http.StatusServiceUnavailable:
		message = "service temporarily unavailable"
		if appErr != nil {
			message = appErr.Message
		}
	}
	respondError(w, status, message)
}

// decodeJSON reads a JSON request body into dst.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperror.BadRequest("invalid request body")
	}
	return nil
}

// parseUserID parses a chat/user ID path or query value.
func parseUserID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.ValidationError("userId", "user id must be a positive integer")
	}
	return id, nil
}

// parseLimit parses an optional positive limit. Empty input returns 0.
func parseLimit(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, apperror.ValidationError("limit", "limit must be a non-negative integer")
	}
	return n, nil
}
