// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/lapvn/timecard/internal/adapters/repository"
	"github.com/lapvn/timecard/internal/domain/merge"
	"github.com/lapvn/timecard/internal/domain/model"
)

// Dependencies required by the HTTP handlers. The interface bundle keeps
// the handler layer loosely coupled to the app service.
type Dependencies interface {
	// Push path.
	SeenAndRecord(ctx context.Context, id string) bool
	Unrecord(ctx context.Context, id string)
	Enqueue(ctx context.Context, ev model.RawEvent) bool

	// Batch paths.
	SyncBatch(ctx context.Context, events []model.DeviceEvent, strategy merge.Strategy) model.BatchSummary
	ImportRows(ctx context.Context, rows []model.ImportRow, strategy merge.Strategy) model.BatchSummary
	DefaultStrategy() merge.Strategy

	// Read paths.
	Record(ctx context.Context, employeeID, date string) (model.DayRecord, error)
	RecordsForDay(ctx context.Context, date string) ([]model.DayRecord, error)
	RecordsForEmployee(ctx context.Context, employeeID, from, to string) ([]model.DayRecord, error)
}

// Server wires HTTP routes for the attendance API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	eventsHandler  *EventsHandler
	syncHandler    *SyncHandler
	importHandler  *ImportHandler
	recordsHandler *RecordsHandler
}

// NewServer creates an API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		eventsHandler:  NewEventsHandler(deps),
		syncHandler:    NewSyncHandler(deps),
		importHandler:  NewImportHandler(deps),
		recordsHandler: NewRecordsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/events", MetricsMiddleware(s.eventsHandler.HandlePostEvent, "events"))
	mux.HandleFunc("/sync", MetricsMiddleware(s.syncHandler.HandlePostSync, "sync"))
	mux.HandleFunc("/import", MetricsMiddleware(s.importHandler.HandlePostImport, "import"))
	mux.HandleFunc("/records", MetricsMiddleware(s.recordsHandler.HandleListRecords, "records"))
	mux.HandleFunc("/records/", MetricsMiddleware(s.recordsHandler.HandleGetRecord, "record"))
}

// eventRequest mirrors the OpenAPI schema for POST /events.
type eventRequest struct {
	EmployeeID string `json:"employee_id"`
	Timestamp  string `json:"timestamp"`
}

func (e eventRequest) validate() (time.Time, error) {
	if strings.TrimSpace(e.EmployeeID) == "" {
		return time.Time{}, errors.New("missing employee_id")
	}
	if strings.TrimSpace(e.Timestamp) == "" {
		return time.Time{}, errors.New("missing timestamp")
	}
	ts, err := time.Parse(time.RFC3339, e.Timestamp)
	if err != nil {
		return time.Time{}, errors.New("invalid timestamp; must be RFC3339")
	}
	return ts.UTC(), nil
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isNotFound lets the API translate upstream not-found errors to 404.
func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
