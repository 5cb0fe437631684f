// Package model contains domain shapes passed between layers.
package model

import (
	"time"

	"github.com/lapvn/timecard/internal/domain/clock"
)

// RawEvent is one biometric punch as delivered by the terminal collaborator:
// an opaque employee identifier plus the captured instant, always UTC.
type RawEvent struct {
	EmployeeID string    // opaque; never interpreted by the engine
	Timestamp  time.Time // capture instant, UTC
}

// DeviceEvent is the wire shape of one punch as the terminal collaborator
// reports it: an employee id plus an ISO-8601 UTC timestamp string. The
// timestamp stays unparsed so a bad value can fail as a per-event error
// inside a batch instead of rejecting the batch wholesale.
type DeviceEvent struct {
	EmployeeID string `json:"employee_id"`
	Timestamp  string `json:"timestamp"`
}

// ImportRow is the output shape of the excluded spreadsheet parser: one
// employee-day with its raw local time strings ("HH:MM" or "HH:MM:SS").
type ImportRow struct {
	EmployeeID string   `json:"employee_id"`
	Date       string   `json:"date"`
	Times      []string `json:"times"`
}

// Award records one shift earned by one specific check-in on one day.
type Award struct {
	ShiftID   string          `json:"shift_id"`
	ShiftName string          `json:"shift_name"`
	CheckIn   clock.ClockTime `json:"check_in"`
	Points    float64         `json:"points"`
}

// DayRecord is the persisted unit: one employee's scored civil day. It is
// keyed by (EmployeeID, Date); the storage layer enforces uniqueness of
// that key via upsert.
//
// Morning and Afternoon are the legacy two-slot view, derived from the raw
// check-ins by a plain noon split. They are display-only and can legitimately
// disagree with the awards list when shift windows straddle noon; consumers
// of the old report format depend on exactly this categorization.
type DayRecord struct {
	EmployeeID  string            `json:"employee_id"`
	Date        clock.CivilDay    `json:"date"`
	CheckIns    []clock.ClockTime `json:"check_ins"`
	Awards      []Award           `json:"awards"`
	TotalPoints float64           `json:"total_points"`
	Morning     *clock.ClockTime  `json:"morning_check_in,omitempty"`
	Afternoon   *clock.ClockTime  `json:"afternoon_check_in,omitempty"`
}

// Clone returns a deep copy. Records cross goroutine boundaries on their
// way to storage, so shared slices would be a data race waiting to happen.
func (r DayRecord) Clone() DayRecord {
	out := r
	out.CheckIns = append([]clock.ClockTime(nil), r.CheckIns...)
	out.Awards = append([]Award(nil), r.Awards...)
	if r.Morning != nil {
		m := *r.Morning
		out.Morning = &m
	}
	if r.Afternoon != nil {
		a := *r.Afternoon
		out.Afternoon = &a
	}
	return out
}

// BatchError describes one failed item of a sync batch with enough context
// to diagnose it without re-running the batch.
type BatchError struct {
	EmployeeID string `json:"employee_id,omitempty"`
	Date       string `json:"date,omitempty"`
	Input      string `json:"input,omitempty"`
	Reason     string `json:"reason"`
}

// BatchSummary reports the outcome of one sync or import pass.
type BatchSummary struct {
	BatchID string       `json:"batch_id"`
	Created int          `json:"created"`
	Updated int          `json:"updated"`
	Skipped int          `json:"skipped"`
	Failed  int          `json:"failed"`
	Errors  []BatchError `json:"errors,omitempty"`
}
