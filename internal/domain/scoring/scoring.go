// Package scoring converts one civil day's check-in set into a scored
// attendance record according to that weekday's shift table.
package scoring

import (
	"time"

	"github.com/lapvn/timecard/internal/domain/clock"
	"github.com/lapvn/timecard/internal/domain/model"
	"github.com/lapvn/timecard/internal/domain/schedule"
)

// Scorer awards points for check-ins against a fixed schedule snapshot.
// It is pure: the same inputs always yield the same record, and no call
// mutates shared state.
type Scorer struct {
	week schedule.Week
}

// New creates a Scorer over one immutable schedule snapshot.
func New(week schedule.Week) *Scorer {
	return &Scorer{week: week}
}

// ScoreDay computes the daily record for one employee-day.
//
// checkIns must be deduplicated and sorted ascending (the aggregator's
// output). For each check-in, the weekday's shifts are scanned in
// configured order and the first still-unawarded shift whose window
// contains the check-in (inclusive at both ends) earns its points; the
// check-in then stops matching. A check-in inside no open window simply
// contributes nothing. Shift windows may overlap: scanning in list order
// keeps the award deterministic and prevents a single punch from being
// paid into two shifts, and the per-shift claim prevents a later punch
// from stealing a shift an earlier one already earned.
func (s *Scorer) ScoreDay(employeeID string, day clock.CivilDay, weekday time.Weekday, checkIns []clock.ClockTime) model.DayRecord {
	shifts := s.week.ShiftsFor(weekday)

	rec := model.DayRecord{
		EmployeeID: employeeID,
		Date:       day,
		CheckIns:   append([]clock.ClockTime(nil), checkIns...),
	}

	awarded := make(map[string]bool, len(shifts))
	for _, t := range checkIns {
		for _, sh := range shifts {
			if awarded[sh.ID] {
				continue
			}
			if !sh.Contains(t) {
				continue
			}
			awarded[sh.ID] = true
			rec.Awards = append(rec.Awards, model.Award{
				ShiftID:   sh.ID,
				ShiftName: sh.Name,
				CheckIn:   t,
				Points:    sh.Points,
			})
			rec.TotalPoints += sh.Points
			break
		}
	}

	rec.Morning, rec.Afternoon = noonSplit(checkIns)
	return rec
}

// noonSplit derives the legacy two-slot view: earliest check-in before
// noon and earliest at or after noon. It deliberately ignores the shift
// table; old report consumers expect the plain noon boundary even when it
// disagrees with the awards.
func noonSplit(checkIns []clock.ClockTime) (morning, afternoon *clock.ClockTime) {
	for _, t := range checkIns {
		t := t
		if t.BeforeNoon() {
			if morning == nil {
				morning = &t
			}
		} else if afternoon == nil {
			afternoon = &t
		}
	}
	return morning, afternoon
}
