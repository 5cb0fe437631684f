// Package aggregate groups raw punch events into per-employee-per-day
// check-in sets ready for scoring.
package aggregate

import (
	"sort"

	"github.com/lapvn/timecard/internal/domain/clock"
	"github.com/lapvn/timecard/internal/domain/model"
)

// Key identifies one employee's civil day.
type Key struct {
	EmployeeID string
	Day        clock.CivilDay
}

// Aggregator converts raw events into deduplicated, ascending check-in
// sets, using the injected normalizer for all time conversions. Stateless
// and safe for concurrent use.
type Aggregator struct {
	norm *clock.Normalizer
}

// New creates an Aggregator bound to one target timezone.
func New(norm *clock.Normalizer) *Aggregator {
	return &Aggregator{norm: norm}
}

// Group maps each event to its employee-day and collects unique clock
// times. Identical minutes collapse; each returned set is sorted ascending,
// which is the order the scorer requires. Employee identifiers pass through
// opaquely, malformed or not.
func (a *Aggregator) Group(events []model.RawEvent) map[Key][]clock.ClockTime {
	sets := make(map[Key]map[clock.ClockTime]struct{})
	for _, ev := range events {
		k := Key{EmployeeID: ev.EmployeeID, Day: a.norm.CivilDay(ev.Timestamp)}
		set, ok := sets[k]
		if !ok {
			set = make(map[clock.ClockTime]struct{})
			sets[k] = set
		}
		set[a.norm.Clock(ev.Timestamp)] = struct{}{}
	}

	out := make(map[Key][]clock.ClockTime, len(sets))
	for k, set := range sets {
		times := make([]clock.ClockTime, 0, len(set))
		for t := range set {
			times = append(times, t)
		}
		sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })
		out[k] = times
	}
	return out
}

// Merge unions two check-in sets into a deduplicated ascending set.
// Used by the merge strategy before rescoring.
func Merge(a, b []clock.ClockTime) []clock.ClockTime {
	set := make(map[clock.ClockTime]struct{}, len(a)+len(b))
	for _, t := range a {
		set[t] = struct{}{}
	}
	for _, t := range b {
		set[t] = struct{}{}
	}
	out := make([]clock.ClockTime, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
