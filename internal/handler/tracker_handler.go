package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/dealwatch/backend/internal/apperror"
	"github.com/dealwatch/backend/internal/tracker"
)

// TrackerHandler exposes manual runs and health of the polling cycle
type TrackerHandler struct {
	tracker TrackerInterface
	nextRun func() time.Time
	timeout time.Duration
}

// NewTrackerHandler creates a new tracker handler. nextRun may be nil when no scheduler runs.
func NewTrackerHandler(t TrackerInterface, nextRun func() time.Time, timeout time.Duration) *TrackerHandler {
	if nextRun == nil {
		nextRun = func() time.Time { return time.Time{} }
	}
	return &TrackerHandler{tracker: t, nextRun: nextRun, timeout: timeout}
}

// Run handles POST /api/tracker/run
func (h *TrackerHandler) Run(w http.ResponseWriter, r *http.Request) {
	err := h.tracker.Trigger(r.Context(), h.timeout)
	if errors.Is(err, tracker.ErrCycleInProgress) {
		respondError(w, http.StatusConflict, "a polling cycle is already running")
		return
	}
	if errors.Is(err, tracker.ErrShuttingDown) {
		respondServiceError(w, r, apperror.Unavailable(err, "tracker is shutting down"))
		return
	}
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

// Health handles GET /api/tracker/health
func (h *TrackerHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := h.tracker.Health(h.nextRun())

	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	respondJSON(w, code, status)
}
