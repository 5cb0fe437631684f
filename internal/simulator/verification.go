package simulator

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lapvn/timecard/internal/domain/aggregate"
	"github.com/lapvn/timecard/internal/domain/clock"
	"github.com/lapvn/timecard/internal/domain/model"
	"github.com/lapvn/timecard/internal/domain/scoring"
)

// computeExpected rescores the generated punches in-process with the same
// engine the service runs, producing the records a correct service must hold
// after a replace sync.
func computeExpected(punches []Punch, norm *clock.Normalizer, scorer *scoring.Scorer) (map[aggregate.Key]model.DayRecord, error) {
	events := make([]model.RawEvent, 0, len(punches))
	for _, p := range punches {
		ts, err := time.Parse(time.RFC3339, p.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("malformed generated timestamp %q: %w", p.Timestamp, err)
		}
		events = append(events, model.RawEvent{EmployeeID: p.EmployeeID, Timestamp: ts})
	}

	grouped := aggregate.New(norm).Group(events)
	expected := make(map[aggregate.Key]model.DayRecord, len(grouped))
	for key, checkIns := range grouped {
		weekday, err := norm.Weekday(key.Day)
		if err != nil {
			return nil, fmt.Errorf("bad civil day %q: %w", key.Day, err)
		}
		expected[key] = scorer.ScoreDay(key.EmployeeID, key.Day, weekday, checkIns)
	}
	return expected, nil
}

// verifyRecords fetches every expected record from the service concurrently
// and compares it field by field with the in-process rescore.
func verifyRecords(ctx context.Context, config *Config, expected map[aggregate.Key]model.DayRecord, stats *Stats) error {
	log.Printf("🔍 Verifying %d records with %d workers...", len(expected), config.Workers)

	client := newHTTPClient(config.Timeout)

	keys := make([]aggregate.Key, 0, len(expected))
	for key := range expected {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].EmployeeID != keys[j].EmployeeID {
			return keys[i].EmployeeID < keys[j].EmployeeID
		}
		return keys[i].Day < keys[j].Day
	})

	var (
		verified   int64
		mismatched int64
		failed     int64
	)

	keyChan := make(chan aggregate.Key, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for key := range keyChan {
				select {
				case <-ctx.Done():
					return
				default:
					record, err := fetchRecord(ctx, client, config.BaseURL, key.EmployeeID, string(key.Day))
					if err != nil {
						atomic.AddInt64(&failed, 1)
						if config.Verbose {
							log.Printf("⚠️  Failed to fetch record for %s on %s: %v", key.EmployeeID, key.Day, err)
						}
						continue
					}

					if err := compareRecord(expected[key], record); err != nil {
						atomic.AddInt64(&mismatched, 1)
						log.Printf("❌ Mismatch for %s on %s: %v", key.EmployeeID, key.Day, err)
						continue
					}
					atomic.AddInt64(&verified, 1)
				}
			}
		}()
	}

	go func() {
		defer close(keyChan)
		for _, key := range keys {
			select {
			case <-ctx.Done():
				return
			case keyChan <- key:
			}
		}
	}()

	wg.Wait()

	stats.RecordsVerified = int(atomic.LoadInt64(&verified))
	stats.RecordsMismatched = int(atomic.LoadInt64(&mismatched))

	log.Printf(`✅ Record verification completed:
   Verified: %d
   Mismatched: %d
   Fetch failures: %d
`, stats.RecordsVerified, stats.RecordsMismatched, int(atomic.LoadInt64(&failed)))

	if stats.RecordsMismatched > 0 {
		return fmt.Errorf("%d records disagree with the in-process rescore", stats.RecordsMismatched)
	}
	return nil
}

// compareRecord checks a served record against the expected rescore.
func compareRecord(want model.DayRecord, got RecordResponse) error {
	if got.EmployeeID != want.EmployeeID {
		return fmt.Errorf("employee_id %q, want %q", got.EmployeeID, want.EmployeeID)
	}
	if got.Date != string(want.Date) {
		return fmt.Errorf("date %q, want %q", got.Date, want.Date)
	}
	if got.TotalPoints != want.TotalPoints {
		return fmt.Errorf("total_points %.2f, want %.2f", got.TotalPoints, want.TotalPoints)
	}
	if len(got.CheckIns) != len(want.CheckIns) {
		return fmt.Errorf("%d check-ins, want %d", len(got.CheckIns), len(want.CheckIns))
	}
	for i, c := range want.CheckIns {
		if got.CheckIns[i] != c.String() {
			return fmt.Errorf("check_in[%d] %q, want %q", i, got.CheckIns[i], c.String())
		}
	}
	if len(got.Awards) != len(want.Awards) {
		return fmt.Errorf("%d awards, want %d", len(got.Awards), len(want.Awards))
	}
	for i, a := range want.Awards {
		g := got.Awards[i]
		if g.ShiftID != a.ShiftID || g.CheckIn != a.CheckIn.String() || g.Points != a.Points {
			return fmt.Errorf("award[%d] {%s %s %.2f}, want {%s %s %.2f}",
				i, g.ShiftID, g.CheckIn, g.Points, a.ShiftID, a.CheckIn, a.Points)
		}
	}
	return nil
}

// verifyIdempotence replays the same batch and checks that nothing is
// created or updated the second time under the skip strategy, and that a
// replace replay reports only updates.
func verifyIdempotence(first, second SummaryResponse, strategy string) error {
	if second.Failed != first.Failed {
		return fmt.Errorf("replay failed count %d, want %d", second.Failed, first.Failed)
	}
	if second.Created != 0 {
		return fmt.Errorf("replay created %d records, want 0", second.Created)
	}
	if strategy == "skip" && second.Updated != 0 {
		return fmt.Errorf("skip replay updated %d records, want 0", second.Updated)
	}
	return nil
}
