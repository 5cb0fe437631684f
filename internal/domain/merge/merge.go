// Package merge decides how a freshly computed daily record combines with
// an already-persisted record for the same employee-day.
//
// Re-running a sync over a window that was already processed must leave
// storage exactly as if every event had been processed once. Point totals
// are not associative under addition, so the merge strategy never touches
// totals directly: it unions the raw check-ins and rescores.
package merge

import (
	"fmt"

	"github.com/lapvn/timecard/internal/domain/aggregate"
	"github.com/lapvn/timecard/internal/domain/clock"
	"github.com/lapvn/timecard/internal/domain/model"
	"github.com/lapvn/timecard/internal/domain/scoring"
)

// Strategy selects the combine behavior for an employee-day re-sync.
type Strategy string

const (
	// StrategyReplace makes the incoming record fully supersede the
	// existing one. Default for device sync and spreadsheet import.
	StrategyReplace Strategy = "replace"
	// StrategyMerge unions existing and incoming raw check-ins and
	// rescores the union.
	StrategyMerge Strategy = "merge"
	// StrategySkip keeps an existing record untouched and discards the
	// incoming one.
	StrategySkip Strategy = "skip"
)

// ParseStrategy validates a strategy string; empty selects replace.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "":
		return StrategyReplace, nil
	case StrategyReplace, StrategyMerge, StrategySkip:
		return Strategy(s), nil
	default:
		return "", fmt.Errorf("unknown merge strategy %q", s)
	}
}

// Merger applies strategies using a scorer for rescoring unions and a
// normalizer for resolving a record date's weekday.
type Merger struct {
	scorer *scoring.Scorer
	norm   *clock.Normalizer
}

// New creates a Merger.
func New(scorer *scoring.Scorer, norm *clock.Normalizer) *Merger {
	return &Merger{scorer: scorer, norm: norm}
}

// ShouldPersist reports whether the merge outcome needs a storage write.
// False only for skip over a non-nil existing record.
func ShouldPersist(existing *model.DayRecord, strategy Strategy) bool {
	return !(strategy == StrategySkip && existing != nil)
}

// Merge combines existing and incoming under the given strategy and returns
// the record to persist. A nil existing record behaves as create for every
// strategy. Calling Merge twice with identical inputs yields an identical
// result.
func (m *Merger) Merge(existing *model.DayRecord, incoming model.DayRecord, strategy Strategy) (model.DayRecord, error) {
	if existing == nil {
		return incoming, nil
	}

	switch strategy {
	case StrategyReplace, "":
		return incoming, nil
	case StrategySkip:
		return existing.Clone(), nil
	case StrategyMerge:
		weekday, err := m.norm.Weekday(incoming.Date)
		if err != nil {
			return model.DayRecord{}, err
		}
		union := aggregate.Merge(existing.CheckIns, incoming.CheckIns)
		return m.scorer.ScoreDay(incoming.EmployeeID, incoming.Date, weekday, union), nil
	default:
		return model.DayRecord{}, fmt.Errorf("unknown merge strategy %q", strategy)
	}
}
