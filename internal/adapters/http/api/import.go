// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/lapvn/timecard/internal/domain/merge"
	"github.com/lapvn/timecard/internal/domain/model"
)

// importRequest mirrors the OpenAPI schema for POST /import. Rows are the
// output of the external spreadsheet parser: employee, date, raw local
// time strings.
type importRequest struct {
	Strategy string            `json:"strategy,omitempty"`
	Rows     []model.ImportRow `json:"rows"`
}

// ImportHandler handles spreadsheet-import batches.
type ImportHandler struct {
	deps Dependencies
}

// NewImportHandler creates a new import handler.
func NewImportHandler(deps Dependencies) *ImportHandler {
	return &ImportHandler{deps: deps}
}

// HandlePostImport handles POST /import requests.
func (h *ImportHandler) HandlePostImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req importRequest
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
	if len(req.Rows) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", ErrEmptyBatch)
		return
	}

	summary := h.deps.ImportRows(r.Context(), req.Rows, strategy)
	writeJSON(w, http.StatusOK, summary)
}
