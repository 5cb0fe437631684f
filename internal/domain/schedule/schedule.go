// Package schedule models the configurable weekly shift table.
//
// A shift is a named, scored time window that applies on a given weekday.
// The table is an immutable value: callers hand a snapshot of it to the
// scorer so that concurrent sync batches running against different
// configuration versions cannot interfere.
package schedule

import (
	"fmt"
	"time"

	"github.com/lapvn/timecard/internal/domain/clock"
)

// Shift is one scored time window. Start and End are inclusive bounds;
// configuration validation guarantees Start < End before a Shift reaches
// the engine.
type Shift struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Start  clock.ClockTime `json:"start"`
	End    clock.ClockTime `json:"end"`
	Points float64         `json:"points"`
}

// Contains reports whether t falls inside the window, both ends inclusive.
func (s Shift) Contains(t clock.ClockTime) bool {
	return t >= s.Start && t <= s.End
}

// Validate checks the invariants the engine relies on. It is meant to run
// at configuration-load time, not at scoring time.
func (s Shift) Validate() error {
	switch {
	case s.ID == "":
		return fmt.Errorf("shift %q: missing id", s.Name)
	case s.Start >= s.End:
		return fmt.Errorf("shift %s: start %s must be before end %s", s.ID, s.Start, s.End)
	case s.Points < 0:
		return fmt.Errorf("shift %s: negative points", s.ID)
	}
	return nil
}

// Week maps weekdays to their ordered shift lists. Shifts for one weekday
// may overlap; list order is the tie-break (first listed wins). A missing
// weekday and an empty list mean the same thing: no shifts, zero points.
type Week struct {
	days map[time.Weekday][]Shift
}

// NewWeek builds a Week from per-weekday shift lists, validating every
// shift. The input map is copied; later mutation of it has no effect.
func NewWeek(days map[time.Weekday][]Shift) (Week, error) {
	copied := make(map[time.Weekday][]Shift, len(days))
	for wd, shifts := range days {
		if wd < time.Sunday || wd > time.Saturday {
			return Week{}, fmt.Errorf("invalid weekday index %d", wd)
		}
		seen := make(map[string]struct{}, len(shifts))
		for _, s := range shifts {
			if err := s.Validate(); err != nil {
				return Week{}, err
			}
			if _, dup := seen[s.ID]; dup {
				return Week{}, fmt.Errorf("weekday %s: duplicate shift id %s", wd, s.ID)
			}
			seen[s.ID] = struct{}{}
		}
		copied[wd] = append([]Shift(nil), shifts...)
	}
	return Week{days: copied}, nil
}

// ShiftsFor returns the ordered shifts of a weekday. Weekdays with no
// configured entry yield an empty list, never an error.
func (w Week) ShiftsFor(day time.Weekday) []Shift {
	return w.days[day]
}

// Empty reports whether no weekday has any shift configured.
func (w Week) Empty() bool {
	for _, shifts := range w.days {
		if len(shifts) > 0 {
			return false
		}
	}
	return true
}
