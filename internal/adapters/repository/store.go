// Package repository defines the daily attendance record store and its errors.
package repository

import (
	"context"

	"github.com/lapvn/timecard/internal/domain/clock"
	"github.com/lapvn/timecard/internal/domain/model"
)

// Store provides read/write access to persisted daily records, keyed
// uniquely by (employee id, civil day). Upsert must be atomic per key;
// that is the serialization point for concurrent sync invocations
// touching the same employee-day.
type Store interface {
	// Get returns the record for one employee-day.
	// Returns ErrNotFound when no record exists.
	Get(ctx context.Context, employeeID string, day clock.CivilDay) (model.DayRecord, error)

	// Upsert inserts or replaces the record for its (employee, day) key.
	Upsert(ctx context.Context, rec model.DayRecord) error

	// ListDay returns all records of one civil day, ordered by employee id.
	ListDay(ctx context.Context, day clock.CivilDay) ([]model.DayRecord, error)

	// ListEmployee returns one employee's records in [from, to], ordered by day.
	ListEmployee(ctx context.Context, employeeID string, from, to clock.CivilDay) ([]model.DayRecord, error)

	// Count returns the number of records held.
	Count(ctx context.Context) int

	// Close releases any underlying resources.
	Close() error
}
