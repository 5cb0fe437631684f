package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver

	"github.com/lapvn/timecard/internal/domain/clock"
	"github.com/lapvn/timecard/internal/domain/model"
	"github.com/lapvn/timecard/pkg/metrics"
)

// migrations returns the schema statements, one SQL statement per string
// (SQLite executes them one at a time).
func migrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS day_records (
			employee_id  TEXT NOT NULL,
			day          TEXT NOT NULL,
			check_ins    TEXT NOT NULL DEFAULT '[]',
			awards       TEXT NOT NULL DEFAULT '[]',
			total_points REAL NOT NULL DEFAULT 0,
			morning      TEXT,
			afternoon    TEXT,
			updated_at   TEXT NOT NULL DEFAULT (datetime('now')),
			PRIMARY KEY (employee_id, day)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_day_records_day ON day_records(day)`,
	}
}

// SQLStore is a Store backed by an embedded SQLite database. Check-ins and
// awards are stored as JSON columns; the (employee_id, day) primary key plus
// the upsert statement give the per-key atomicity the engine relies on.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore opens (or creates) the database at path and applies the schema.
func NewSQLStore(ctx context.Context, path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	// SQLite allows one writer at a time; a single connection avoids
	// SQLITE_BUSY under concurrent workers.
	db.SetMaxOpenConns(1)

	for _, stmt := range migrations() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply migration: %w", err)
		}
	}
	return &SQLStore{db: db}, nil
}

// Get implements Store.
func (s *SQLStore) Get(ctx context.Context, employeeID string, day clock.CivilDay) (model.DayRecord, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	row := s.db.QueryRowContext(ctx,
		`SELECT employee_id, day, check_ins, awards, total_points, morning, afternoon
		 FROM day_records WHERE employee_id = ? AND day = ?`, employeeID, string(day))
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DayRecord{}, ErrNotFound
	}
	if err != nil {
		metrics.RecordStoreError()
		return model.DayRecord{}, err
	}
	return rec, nil
}

// Upsert implements Store.
func (s *SQLStore) Upsert(ctx context.Context, rec model.DayRecord) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpsertLatency(float64(time.Since(start).Milliseconds()))
	}()

	checkIns, err := json.Marshal(rec.CheckIns)
	if err != nil {
		return fmt.Errorf("marshal check-ins: %w", err)
	}
	awards, err := json.Marshal(rec.Awards)
	if err != nil {
		return fmt.Errorf("marshal awards: %w", err)
	}

	var morning, afternoon any
	if rec.Morning != nil {
		morning = rec.Morning.String()
	}
	if rec.Afternoon != nil {
		afternoon = rec.Afternoon.String()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO day_records (employee_id, day, check_ins, awards, total_points, morning, afternoon, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, datetime('now'))
		 ON CONFLICT(employee_id, day) DO UPDATE SET
			check_ins = excluded.check_ins,
			awards = excluded.awards,
			total_points = excluded.total_points,
			morning = excluded.morning,
			afternoon = excluded.afternoon,
			updated_at = excluded.updated_at`,
		rec.EmployeeID, string(rec.Date), string(checkIns), string(awards),
		rec.TotalPoints, morning, afternoon)
	if err != nil {
		metrics.RecordStoreError()
		return fmt.Errorf("upsert record: %w", err)
	}
	return nil
}

// ListDay implements Store.
func (s *SQLStore) ListDay(ctx context.Context, day clock.CivilDay) ([]model.DayRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT employee_id, day, check_ins, awards, total_points, morning, afternoon
		 FROM day_records WHERE day = ? ORDER BY employee_id`, string(day))
	if err != nil {
		metrics.RecordStoreError()
		return nil, fmt.Errorf("list day: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// ListEmployee implements Store.
func (s *SQLStore) ListEmployee(ctx context.Context, employeeID string, from, to clock.CivilDay) ([]model.DayRecord, error) {
	if from > to {
		return nil, ErrInvalidRange
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT employee_id, day, check_ins, awards, total_points, morning, afternoon
		 FROM day_records WHERE employee_id = ? AND day >= ? AND day <= ? ORDER BY day`,
		employeeID, string(from), string(to))
	if err != nil {
		metrics.RecordStoreError()
		return nil, fmt.Errorf("list employee: %w", err)
	}
	defer rows.Close()
	return collectRecords(rows)
}

// Count implements Store.
func (s *SQLStore) Count(ctx context.Context) int {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM day_records`).Scan(&n); err != nil {
		return 0
	}
	return n
}

// Close implements Store.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (model.DayRecord, error) {
	var (
		rec                model.DayRecord
		day                string
		checkIns, awards   string
		morning, afternoon sql.NullString
	)
	err := sc.Scan(&rec.EmployeeID, &day, &checkIns, &awards, &rec.TotalPoints, &morning, &afternoon)
	if err != nil {
		return model.DayRecord{}, err
	}
	rec.Date = clock.CivilDay(day)
	if err := json.Unmarshal([]byte(checkIns), &rec.CheckIns); err != nil {
		return model.DayRecord{}, fmt.Errorf("unmarshal check-ins: %w", err)
	}
	if err := json.Unmarshal([]byte(awards), &rec.Awards); err != nil {
		return model.DayRecord{}, fmt.Errorf("unmarshal awards: %w", err)
	}
	if morning.Valid {
		t, err := clock.ParseClock(morning.String)
		if err != nil {
			return model.DayRecord{}, err
		}
		rec.Morning = &t
	}
	if afternoon.Valid {
		t, err := clock.ParseClock(afternoon.String)
		if err != nil {
			return model.DayRecord{}, err
		}
		rec.Afternoon = &t
	}
	return rec, nil
}

func collectRecords(rows *sql.Rows) ([]model.DayRecord, error) {
	var out []model.DayRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}
