// Package service provides the core attendance service that implements the
// dependencies required by the HTTP API: punch ingestion, batch sync,
// import, and record reads.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	punchqueue "github.com/lapvn/timecard/internal/adapters/mq/queue"
	workerpool "github.com/lapvn/timecard/internal/adapters/mq/worker"
	"github.com/lapvn/timecard/internal/adapters/repository"
	"github.com/lapvn/timecard/internal/domain/aggregate"
	"github.com/lapvn/timecard/internal/domain/clock"
	"github.com/lapvn/timecard/internal/domain/dedupe"
	"github.com/lapvn/timecard/internal/domain/merge"
	"github.com/lapvn/timecard/internal/domain/model"
	"github.com/lapvn/timecard/internal/domain/schedule"
	"github.com/lapvn/timecard/internal/domain/scoring"
	"github.com/lapvn/timecard/pkg/logger"
	"github.com/lapvn/timecard/pkg/metrics"
)

// Store backend names.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Service wires the scoring engine to its collaborators. The engine itself
// is pure; all shared state lives in the store and the ingest queue.
type Service struct {
	mu sync.RWMutex

	// Core components, built on Start.
	norm    *clock.Normalizer
	agg     *aggregate.Aggregator
	scorer  *scoring.Scorer
	merger  *merge.Merger
	store   repository.Store
	queue   punchqueue.Queue
	deduper dedupe.Deduper
	pool    *workerpool.Pool

	// Configuration.
	timezone        string
	week            schedule.Week
	workerCount     int
	queueSize       int
	dedupeSize      int
	storeKind       string
	sqlitePath      string
	defaultStrategy merge.Strategy
	maxBatchErrors  int

	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithTimezone sets the target civil timezone (IANA name).
func WithTimezone(zone string) Option {
	return func(s *Service) {
		if zone != "" {
			s.timezone = zone
		}
	}
}

// WithSchedule sets the weekly shift schedule snapshot.
func WithSchedule(week schedule.Week) Option {
	return func(s *Service) {
		s.week = week
	}
}

// WithWorkerCount sets the number of sync workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the punch queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the delivery dedupe cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithStore selects the record store backend and, for sqlite, its path.
func WithStore(kind, sqlitePath string) Option {
	return func(s *Service) {
		if kind != "" {
			s.storeKind = kind
		}
		if sqlitePath != "" {
			s.sqlitePath = sqlitePath
		}
	}
}

// WithDefaultStrategy sets the merge strategy used when a request names none.
func WithDefaultStrategy(strategy merge.Strategy) Option {
	return func(s *Service) {
		if strategy != "" {
			s.defaultStrategy = strategy
		}
	}
}

// WithMaxBatchErrors bounds the detailed error list in batch summaries.
func WithMaxBatchErrors(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxBatchErrors = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		timezone:        clock.DefaultZone,
		queueSize:       100000,
		dedupeSize:      50000,
		storeKind:       StoreMemory,
		sqlitePath:      "timecard.db",
		defaultStrategy: merge.StrategyReplace,
		maxBatchErrors:  50,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting attendance service...")

	norm, err := clock.NewNormalizer(s.timezone)
	if err != nil {
		return err
	}
	s.norm = norm
	s.agg = aggregate.New(norm)
	s.scorer = scoring.New(s.week)
	s.merger = merge.New(s.scorer, norm)

	switch s.storeKind {
	case StoreSQLite:
		store, err := repository.NewSQLStore(ctx, s.sqlitePath)
		if err != nil {
			return err
		}
		s.store = store
		s.logger.Info(ctx, "using sqlite store", logger.String("path", s.sqlitePath))
	case StoreMemory:
		s.store = repository.NewMemStore(ctx)
		s.logger.Info(ctx, "using in-memory store")
	default:
		return fmt.Errorf("unknown store backend %q", s.storeKind)
	}

	s.deduper = dedupe.NewInMemory(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.queue = punchqueue.NewInMemoryQueue(
		punchqueue.WithCapacity(s.queueSize),
		punchqueue.WithBufferSize(s.queueSize),
	)
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "attendance service started",
		logger.String("timezone", s.norm.Zone()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.String("store", s.storeKind),
		logger.String("defaultStrategy", string(s.defaultStrategy)),
	)
	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping attendance service...")

	if s.queue != nil {
		_ = s.queue.Close()
	}
	if s.pool != nil {
		_ = s.pool.Shutdown(ctx)
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Error(ctx, "error closing store", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(ctx, "attendance service stopped")
}

// DefaultStrategy returns the strategy used when a request names none.
func (s *Service) DefaultStrategy() merge.Strategy {
	return s.defaultStrategy
}

// SeenAndRecord atomically checks whether a punch identity was seen and
// records it if not. Returns true for terminal re-deliveries.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordPunchDuplicate()
	}
	metrics.UpdateDedupeTracked(s.deduper.Size())
	return seen
}

// Unrecord forgets a punch identity so a failed enqueue can be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Enqueue submits a punch for asynchronous processing. Returns false on
// backpressure.
func (s *Service) Enqueue(ctx context.Context, ev model.RawEvent) bool {
	ok := s.queue.Enqueue(ctx, ev)
	if ok {
		metrics.RecordPunchIngested()
	}
	return ok
}

// SyncEvent folds one punch into its employee-day record: normalize, load
// the existing record, union with the new check-in, rescore, upsert. Used
// by the queue workers; always merge semantics so redelivered punches are
// harmless.
func (s *Service) SyncEvent(ctx context.Context, ev model.RawEvent) error {
	day := s.norm.CivilDay(ev.Timestamp)
	t := s.norm.Clock(ev.Timestamp)

	existing, err := s.loadExisting(ctx, ev.EmployeeID, day)
	if err != nil {
		return err
	}

	weekday, err := s.norm.Weekday(day)
	if err != nil {
		return err
	}

	start := time.Now()
	incoming := s.scorer.ScoreDay(ev.EmployeeID, day, weekday, []clock.ClockTime{t})
	merged, err := s.merger.Merge(existing, incoming, merge.StrategyMerge)
	metrics.RecordScoringLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		return err
	}

	if err := s.store.Upsert(ctx, merged); err != nil {
		return err
	}
	s.recordOutcome(existing, merged)
	return nil
}

// SyncBatch runs one synchronous batch pass over raw device events:
// group, score, merge against existing records, upsert. One malformed
// event or one failing employee-day never aborts the rest of the batch.
func (s *Service) SyncBatch(ctx context.Context, events []model.DeviceEvent, strategy merge.Strategy) model.BatchSummary {
	summary := model.BatchSummary{BatchID: uuid.NewString()}
	if strategy == "" {
		strategy = s.defaultStrategy
	}
	metrics.RecordSyncBatch("device", string(strategy))

	raw := make([]model.RawEvent, 0, len(events))
	for _, ev := range events {
		if ev.EmployeeID == "" {
			s.addError(&summary, model.BatchError{
				Input:  ev.Timestamp,
				Reason: "missing employee id",
			})
			metrics.RecordPunchMalformed()
			continue
		}
		ts, err := time.Parse(time.RFC3339, ev.Timestamp)
		if err != nil {
			s.addError(&summary, model.BatchError{
				EmployeeID: ev.EmployeeID,
				Input:      ev.Timestamp,
				Reason:     fmt.Sprintf("unparseable timestamp: %v", err),
			})
			metrics.RecordPunchMalformed()
			continue
		}
		raw = append(raw, model.RawEvent{EmployeeID: ev.EmployeeID, Timestamp: ts.UTC()})
	}

	for key, checkIns := range s.agg.Group(raw) {
		s.persistDay(ctx, key, checkIns, strategy, &summary)
	}

	s.logBatch(ctx, "device sync batch done", summary)
	return summary
}

// ImportRows runs one synchronous batch pass over spreadsheet rows. Rows
// naming the same employee-day are combined before scoring.
func (s *Service) ImportRows(ctx context.Context, rows []model.ImportRow, strategy merge.Strategy) model.BatchSummary {
	summary := model.BatchSummary{BatchID: uuid.NewString()}
	if strategy == "" {
		strategy = s.defaultStrategy
	}
	metrics.RecordSyncBatch("import", string(strategy))

	grouped := make(map[aggregate.Key][]clock.ClockTime)
	for _, row := range rows {
		if row.EmployeeID == "" {
			s.addError(&summary, model.BatchError{
				Date:   row.Date,
				Reason: "missing employee id",
			})
			continue
		}
		day, err := clock.ParseDay(row.Date)
		if err != nil {
			s.addError(&summary, model.BatchError{
				EmployeeID: row.EmployeeID,
				Input:      row.Date,
				Reason:     fmt.Sprintf("unparseable date: %v", err),
			})
			continue
		}
		times := make([]clock.ClockTime, 0, len(row.Times))
		rowOK := true
		for _, raw := range row.Times {
			t, err := clock.ParseClock(raw)
			if err != nil {
				s.addError(&summary, model.BatchError{
					EmployeeID: row.EmployeeID,
					Date:       row.Date,
					Input:      raw,
					Reason:     fmt.Sprintf("unparseable time: %v", err),
				})
				rowOK = false
				break
			}
			times = append(times, t)
		}
		if !rowOK {
			continue
		}
		key := aggregate.Key{EmployeeID: row.EmployeeID, Day: day}
		grouped[key] = aggregate.Merge(grouped[key], times)
	}

	for key, checkIns := range grouped {
		s.persistDay(ctx, key, checkIns, strategy, &summary)
	}

	s.logBatch(ctx, "import batch done", summary)
	return summary
}

// persistDay scores one employee-day against the schedule, merges with any
// existing record under the given strategy, and upserts the outcome.
// Failures become per-record summary errors.
func (s *Service) persistDay(ctx context.Context, key aggregate.Key, checkIns []clock.ClockTime, strategy merge.Strategy, summary *model.BatchSummary) {
	existing, err := s.loadExisting(ctx, key.EmployeeID, key.Day)
	if err != nil {
		s.addError(summary, model.BatchError{
			EmployeeID: key.EmployeeID,
			Date:       string(key.Day),
			Reason:     fmt.Sprintf("store lookup failed: %v", err),
		})
		return
	}

	if !merge.ShouldPersist(existing, strategy) {
		summary.Skipped++
		metrics.RecordRecordSkipped()
		return
	}

	weekday, err := s.norm.Weekday(key.Day)
	if err != nil {
		s.addError(summary, model.BatchError{
			EmployeeID: key.EmployeeID,
			Date:       string(key.Day),
			Reason:     err.Error(),
		})
		return
	}

	start := time.Now()
	incoming := s.scorer.ScoreDay(key.EmployeeID, key.Day, weekday, checkIns)
	merged, err := s.merger.Merge(existing, incoming, strategy)
	metrics.RecordScoringLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		s.addError(summary, model.BatchError{
			EmployeeID: key.EmployeeID,
			Date:       string(key.Day),
			Reason:     err.Error(),
		})
		return
	}

	if err := s.store.Upsert(ctx, merged); err != nil {
		s.addError(summary, model.BatchError{
			EmployeeID: key.EmployeeID,
			Date:       string(key.Day),
			Reason:     fmt.Sprintf("store upsert failed: %v", err),
		})
		return
	}

	if existing == nil {
		summary.Created++
	} else {
		summary.Updated++
	}
	s.recordOutcome(existing, merged)
}

// loadExisting translates the store's not-found into a nil record.
func (s *Service) loadExisting(ctx context.Context, employeeID string, day clock.CivilDay) (*model.DayRecord, error) {
	rec, err := s.store.Get(ctx, employeeID, day)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// recordOutcome updates create/update and point counters after an upsert.
func (s *Service) recordOutcome(existing *model.DayRecord, merged model.DayRecord) {
	if existing == nil {
		metrics.RecordRecordCreated()
		metrics.RecordPointsAwarded(merged.TotalPoints)
		return
	}
	metrics.RecordRecordUpdated()
	metrics.RecordPointsAwarded(merged.TotalPoints - existing.TotalPoints)
}

// addError appends a bounded per-item error and counts the failure.
func (s *Service) addError(summary *model.BatchSummary, e model.BatchError) {
	summary.Failed++
	if len(summary.Errors) < s.maxBatchErrors {
		summary.Errors = append(summary.Errors, e)
	}
}

func (s *Service) logBatch(ctx context.Context, msg string, summary model.BatchSummary) {
	s.logger.Info(ctx, msg,
		logger.String("batchID", summary.BatchID),
		logger.Int("created", summary.Created),
		logger.Int("updated", summary.Updated),
		logger.Int("skipped", summary.Skipped),
		logger.Int("failed", summary.Failed),
	)
}

// Record returns one employee-day record.
func (s *Service) Record(ctx context.Context, employeeID, date string) (model.DayRecord, error) {
	day, err := clock.ParseDay(date)
	if err != nil {
		return model.DayRecord{}, err
	}
	return s.store.Get(ctx, employeeID, day)
}

// RecordsForDay returns all records of one civil day.
func (s *Service) RecordsForDay(ctx context.Context, date string) ([]model.DayRecord, error) {
	day, err := clock.ParseDay(date)
	if err != nil {
		return nil, err
	}
	return s.store.ListDay(ctx, day)
}

// RecordsForEmployee returns one employee's records in [from, to].
func (s *Service) RecordsForEmployee(ctx context.Context, employeeID, from, to string) ([]model.DayRecord, error) {
	fromDay, err := clock.ParseDay(from)
	if err != nil {
		return nil, err
	}
	toDay, err := clock.ParseDay(to)
	if err != nil {
		return nil, err
	}
	return s.store.ListEmployee(ctx, employeeID, fromDay, toDay)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":         s.started,
		"timezone":        s.timezone,
		"store":           s.storeKind,
		"queueSize":       s.queueSize,
		"dedupeSize":      s.dedupeSize,
		"defaultStrategy": string(s.defaultStrategy),
	}
	if s.started {
		queueLen := s.queue.Len(ctx)
		totalRecords := s.store.Count(ctx)
		stats["queueLength"] = queueLen
		stats["totalRecords"] = totalRecords

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateStoreRecordsTotal(totalRecords)
	}
	return stats
}

// Size returns the number of punch identities tracked by the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}
