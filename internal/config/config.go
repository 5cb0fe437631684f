// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() defaults and Load(ctx) for layered loading.
// - The weekly shift schedule is part of configuration; it is validated here
//   so the scoring engine never sees an invalid shift window.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/lapvn/timecard/internal/domain/clock"
	"github.com/lapvn/timecard/internal/domain/schedule"
)

// ShiftConfig is one shift window as written in the configuration file.
type ShiftConfig struct {
	ID     string  `koanf:"id"`
	Name   string  `koanf:"name"`
	Start  string  `koanf:"start"`
	End    string  `koanf:"end"`
	Points float64 `koanf:"points"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Timezone is the IANA name of the target civil timezone.
	Timezone string `koanf:"timezone"`

	// QueueSize bounds the in-memory punch queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of sync workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds the punch delivery dedupe cache.
	DedupeSize int `koanf:"dedupe_size"`

	// Store selects the record store backend: "memory" or "sqlite".
	Store string `koanf:"store"`

	// SQLitePath is the database file used when Store is "sqlite".
	SQLitePath string `koanf:"sqlite_path"`

	// DefaultStrategy applies when a sync request names no merge strategy:
	// replace, merge, or skip.
	DefaultStrategy string `koanf:"default_strategy"`

	// MaxBatchErrors bounds the detailed error list in a batch summary.
	MaxBatchErrors int `koanf:"max_batch_errors"`

	// Shifts maps lowercase weekday names (sunday..saturday) to ordered
	// shift lists. List order is the overlap tie-break.
	Shifts map[string][]ShiftConfig `koanf:"shifts"`
}

// New creates a Config with defaults: a Monday-to-Friday two-shift week
// paying one point per shift.
func New() *Config {
	weekdayShifts := []ShiftConfig{
		{ID: "morning", Name: "Morning", Start: "07:00", End: "11:30", Points: 1},
		{ID: "afternoon", Name: "Afternoon", Start: "13:00", End: "17:30", Points: 1},
	}
	shifts := make(map[string][]ShiftConfig)
	for _, day := range []string{"monday", "tuesday", "wednesday", "thursday", "friday"} {
		shifts[day] = weekdayShifts
	}

	return &Config{
		LogLevel:        "info",
		Addr:            ":9080",
		Timezone:        clock.DefaultZone,
		QueueSize:       100_000,
		WorkerCount:     0, // 0 selects the pool's CPU-based default
		DedupeSize:      500_000,
		Store:           "memory",
		SQLitePath:      "timecard.db",
		DefaultStrategy: "replace",
		MaxBatchErrors:  50,
		Shifts:          shifts,
	}
}

// weekdayNames maps configuration keys to weekday indexes (Sunday == 0).
var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// WeekSchedule builds the validated schedule snapshot from the configured
// shift table. Any invalid window fails here, at configuration time.
func (c *Config) WeekSchedule() (schedule.Week, error) {
	days := make(map[time.Weekday][]schedule.Shift, len(c.Shifts))
	for name, entries := range c.Shifts {
		wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return schedule.Week{}, fmt.Errorf("%w: unknown weekday %q", ErrInvalidConfig, name)
		}
		shifts := make([]schedule.Shift, 0, len(entries))
		for _, e := range entries {
			start, err := clock.ParseClock(e.Start)
			if err != nil {
				return schedule.Week{}, fmt.Errorf("%w: shift %s: %v", ErrInvalidConfig, e.ID, err)
			}
			end, err := clock.ParseClock(e.End)
			if err != nil {
				return schedule.Week{}, fmt.Errorf("%w: shift %s: %v", ErrInvalidConfig, e.ID, err)
			}
			shifts = append(shifts, schedule.Shift{
				ID:     e.ID,
				Name:   e.Name,
				Start:  start,
				End:    end,
				Points: e.Points,
			})
		}
		days[wd] = shifts
	}
	week, err := schedule.NewWeek(days)
	if err != nil {
		return schedule.Week{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return week, nil
}
