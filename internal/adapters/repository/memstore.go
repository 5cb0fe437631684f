package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lapvn/timecard/internal/domain/clock"
	"github.com/lapvn/timecard/internal/domain/model"
	"github.com/lapvn/timecard/pkg/metrics"
)

const defaultMetricsUpdateInterval = 10 * time.Second

// key is the unique storage key of a daily record.
type key struct {
	employeeID string
	day        clock.CivilDay
}

// MemStore is a mutex-guarded in-memory Store. Records are deep-copied on
// the way in and out so callers can never alias stored state.
type MemStore struct {
	mu      sync.RWMutex
	records map[key]model.DayRecord

	metricsUpdateInterval time.Duration
	stopMetrics           chan struct{}
	closeOnce             sync.Once
}

// NewMemStore creates an in-memory store and starts its background gauge
// updater, which runs until Close or ctx cancellation.
func NewMemStore(ctx context.Context, opts ...Option) *MemStore {
	s := &MemStore{
		records:               make(map[key]model.DayRecord),
		metricsUpdateInterval: defaultMetricsUpdateInterval,
		stopMetrics:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.runMetricsUpdater(ctx)
	return s
}

func (s *MemStore) runMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(s.metricsUpdateInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopMetrics:
			return
		case <-ticker.C:
			metrics.UpdateStoreRecordsTotal(s.Count(ctx))
		}
	}
}

// Get implements Store.
func (s *MemStore) Get(_ context.Context, employeeID string, day clock.CivilDay) (model.DayRecord, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[key{employeeID: employeeID, day: day}]
	if !ok {
		return model.DayRecord{}, ErrNotFound
	}
	return rec.Clone(), nil
}

// Upsert implements Store.
func (s *MemStore) Upsert(_ context.Context, rec model.DayRecord) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpsertLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key{employeeID: rec.EmployeeID, day: rec.Date}] = rec.Clone()
	return nil
}

// ListDay implements Store.
func (s *MemStore) ListDay(_ context.Context, day clock.CivilDay) ([]model.DayRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.DayRecord
	for k, rec := range s.records {
		if k.day == day {
			out = append(out, rec.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

// ListEmployee implements Store.
func (s *MemStore) ListEmployee(_ context.Context, employeeID string, from, to clock.CivilDay) ([]model.DayRecord, error) {
	if from > to {
		return nil, ErrInvalidRange
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.DayRecord
	for k, rec := range s.records {
		if k.employeeID == employeeID && k.day >= from && k.day <= to {
			out = append(out, rec.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// Count implements Store.
func (s *MemStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close stops the metrics updater.
func (s *MemStore) Close() error {
	s.closeOnce.Do(func() { close(s.stopMetrics) })
	return nil
}
