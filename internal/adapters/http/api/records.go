// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strings"
)

// RecordsHandler handles daily record reads.
type RecordsHandler struct {
	deps Dependencies
}

// NewRecordsHandler creates a new records handler.
func NewRecordsHandler(deps Dependencies) *RecordsHandler {
	return &RecordsHandler{deps: deps}
}

// HandleGetRecord handles GET /records/{employee_id}/{date} requests.
func (h *RecordsHandler) HandleGetRecord(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/records/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	rec, err := h.deps.Record(r.Context(), parts[0], parts[1])
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// HandleListRecords handles GET /records?date=YYYY-MM-DD and
// GET /records?employee_id=X&from=YYYY-MM-DD&to=YYYY-MM-DD requests.
func (h *RecordsHandler) HandleListRecords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()

	if employee := q.Get("employee_id"); employee != "" {
		from, to := q.Get("from"), q.Get("to")
		if from == "" || to == "" {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		recs, err := h.deps.RecordsForEmployee(r.Context(), employee, from, to)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		writeJSON(w, http.StatusOK, recs)
		return
	}

	date := q.Get("date")
	if date == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	recs, err := h.deps.RecordsForDay(r.Context(), date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}
