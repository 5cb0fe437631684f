// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/lapvn/timecard/internal/domain/dedupe"
	"github.com/lapvn/timecard/internal/domain/model"
)

// EventsHandler handles single punch pushes from terminals.
type EventsHandler struct {
	deps Dependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps Dependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// HandlePostEvent handles POST /events requests.
func (h *EventsHandler) HandlePostEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	ts, err := req.validate()
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	// Delivery idempotency: mark as seen first.
	id := dedupe.Key(req.EmployeeID, ts)
	if h.deps.SeenAndRecord(r.Context(), id) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}

	ev := model.RawEvent{EmployeeID: req.EmployeeID, Timestamp: ts}
	if ok := h.deps.Enqueue(r.Context(), ev); !ok {
		// Roll back the seen mark so the terminal can retry.
		h.deps.Unrecord(r.Context(), id)
		writeError(w, http.StatusTooManyRequests, "backpressure", ErrBackpressure)
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Duplicate: false})
}
