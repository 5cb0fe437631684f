// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/lapvn/timecard/internal/domain/merge"
	"github.com/lapvn/timecard/internal/domain/model"
)

// syncRequest mirrors the OpenAPI schema for POST /sync.
type syncRequest struct {
	Strategy string              `json:"strategy,omitempty"`
	Events   []model.DeviceEvent `json:"events"`
}

// SyncHandler handles synchronous device-sync batches.
type SyncHandler struct {
	deps Dependencies
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(deps Dependencies) *SyncHandler {
	return &SyncHandler{deps: deps}
}

// HandlePostSync handles POST /sync requests.
func (h *SyncHandler) HandlePostSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req syncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	strategy, err := merge.ParseStrategy(req.Strategy)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if req.Strategy == "" {
		strategy = h.deps.DefaultStrategy()
	}
	if len(req.Events) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", ErrEmptyBatch)
		return
	}

	summary := h.deps.SyncBatch(r.Context(), req.Events, strategy)
	writeJSON(w, http.StatusOK, summary)
}
