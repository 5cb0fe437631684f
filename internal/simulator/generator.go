package simulator

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/lapvn/timecard/internal/domain/schedule"
	"github.com/lapvn/timecard/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor   = 1000000
	attendancePatterns   = 8
	minutesPerDay        = 24 * 60
	maxSecondOfMinute    = 60
	punctualJitterMin    = 30
	lateGraceMinutes     = 10
	earlyMissMinutes     = 60
	duplicatePunchChance = 10
)

// Constants for attendance pattern cases.
const (
	casePunctual       = 0
	caseSlightlyLate   = 1
	caseEarlyBird      = 2
	caseMissedWindow   = 3
	caseFirstShiftOnly = 4
	caseDoublePunch    = 5
	caseAbsent         = 6
	caseChaotic        = 7
)

// getRandomInt returns a uniform random int in [0, n) using crypto/rand.
func getRandomInt(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// generatePunches creates synthetic punches for the configured number of
// employees over the configured civil-day range. Punch instants are chosen
// around the shift windows of the given week schedule in the given zone and
// emitted as UTC timestamps, the way real devices report them.
func generatePunches(ctx context.Context, config *Config, week schedule.Week, loc *time.Location, stats *Stats) ([]Punch, error) {
	logger.Get().Info(ctx, "generating punches",
		logger.Int("employees", config.NumEmployees),
		logger.Int("days", config.NumDays))

	employeeIDs := make([]string, config.NumEmployees)
	for i := range employeeIDs {
		employeeIDs[i] = "emp-" + uuid.New().String()
	}

	// Days end at yesterday so the service never sees future punches.
	lastDay := time.Now().In(loc).AddDate(0, 0, -1)

	punches := make([]Punch, 0, config.NumEmployees*config.NumDays*2)
	for d := config.NumDays - 1; d >= 0; d-- {
		day := lastDay.AddDate(0, 0, -d)
		shifts := week.ShiftsFor(day.Weekday())
		if len(shifts) == 0 {
			continue
		}
		for _, id := range employeeIDs {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("context cancelled during punch generation: %w", ctx.Err())
			default:
			}
			punches = append(punches, generateDayPunches(id, day, shifts, loc)...)
		}
	}

	stats.PunchesGenerated = len(punches)
	logger.Get().Info(ctx, "generated punches successfully", logger.Int("count", len(punches)))
	return punches, nil
}

// generateDayPunches produces one employee's punches for one civil day,
// following a randomly chosen attendance pattern.
func generateDayPunches(employeeID string, day time.Time, shifts []schedule.Shift, loc *time.Location) []Punch {
	var punches []Punch
	add := func(minuteOfDay int) {
		if minuteOfDay < 0 || minuteOfDay >= minutesPerDay {
			return
		}
		punches = append(punches, punchAt(employeeID, day, minuteOfDay, loc))
	}

	switch getRandomInt(attendancePatterns) {
	case casePunctual:
		// Inside every window, shortly after each shift starts.
		for _, s := range shifts {
			add(int(s.Start) + getRandomInt(punctualJitterMin))
		}
	case caseSlightlyLate:
		for _, s := range shifts {
			width := int(s.End) - int(s.Start)
			add(int(s.Start) + lateGraceMinutes + getRandomInt(width-lateGraceMinutes))
		}
	case caseEarlyBird:
		// Before the first window opens, then inside the rest.
		for i, s := range shifts {
			if i == 0 {
				add(int(s.Start) - 1 - getRandomInt(earlyMissMinutes))
				continue
			}
			add(int(s.Start) + getRandomInt(punctualJitterMin))
		}
	case caseMissedWindow:
		// After every window has closed.
		for _, s := range shifts {
			add(int(s.End) + 1 + getRandomInt(earlyMissMinutes))
		}
	case caseFirstShiftOnly:
		add(int(shifts[0].Start) + getRandomInt(punctualJitterMin))
	case caseDoublePunch:
		// Two punches inside the same window plus an exact device retransmit.
		s := shifts[0]
		first := int(s.Start) + getRandomInt(punctualJitterMin)
		add(first)
		add(first + 1 + getRandomInt(punctualJitterMin))
		if len(punches) > 0 {
			punches = append(punches, punches[0])
		}
	case caseAbsent:
		// No punches at all.
	case caseChaotic:
		// Random instants across the whole day.
		n := 1 + getRandomInt(4)
		for i := 0; i < n; i++ {
			add(getRandomInt(minutesPerDay))
		}
	}

	// Occasional exact duplicate of the first punch, simulating a device
	// that resends on flaky links.
	if len(punches) > 0 && getRandomInt(duplicatePunchChance) == 0 {
		punches = append(punches, punches[0])
	}

	return punches
}

// punchAt builds a wire punch for the given civil day and minute of day,
// reported in UTC with random in-minute seconds.
func punchAt(employeeID string, day time.Time, minuteOfDay int, loc *time.Location) Punch {
	sec := getRandomInt(maxSecondOfMinute)
	local := time.Date(day.Year(), day.Month(), day.Day(), minuteOfDay/60, minuteOfDay%60, sec, 0, loc)
	return Punch{
		EmployeeID: employeeID,
		Timestamp:  local.UTC().Format(time.RFC3339),
	}
}
