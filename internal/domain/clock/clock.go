// Package clock normalizes absolute instants into civil dates and local
// wall-clock times in a fixed target timezone.
//
// Conversions always go through the target zone's own offset rules. Adding a
// hardcoded delta on top of whatever the runtime reports as local time
// double-shifts the result whenever the host zone already matches the target;
// the Normalizer exists to make that mistake impossible.
package clock

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	// Terminals and sync jobs frequently run in scratch containers that
	// ship no zoneinfo database.
	_ "time/tzdata"
)

// DefaultZone is the civil timezone used when none is configured.
const DefaultZone = "Asia/Ho_Chi_Minh"

const (
	civilDayLayout = "2006-01-02"
	minutesPerHour = 60
	minutesPerDay  = 24 * 60
	noonMinute     = 12 * 60
)

// CivilDay is a calendar date (YYYY-MM-DD) in the target civil timezone.
type CivilDay string

// ClockTime is a local wall-clock time-of-day, as minutes since midnight.
// Seconds are discarded on conversion; shift matching is minute-precision.
type ClockTime int

// String renders the time as zero-padded HH:MM.
func (t ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/minutesPerHour, int(t)%minutesPerHour)
}

// BeforeNoon reports whether the time falls in the legacy "morning" slot.
func (t ClockTime) BeforeNoon() bool { return int(t) < noonMinute }

// MarshalJSON encodes the time as an "HH:MM" string.
func (t ClockTime) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(t.String())), nil
}

// UnmarshalJSON decodes an "HH:MM" or "HH:MM:SS" string.
func (t *ClockTime) UnmarshalJSON(b []byte) error {
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return fmt.Errorf("clock time must be a JSON string: %w", err)
	}
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseClock parses "HH:MM" or "HH:MM:SS", truncating any seconds.
func ParseClock(s string) (ClockTime, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid clock time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	if len(parts) == 3 {
		if _, err := strconv.Atoi(parts[2]); err != nil {
			return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
		}
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock time %q out of range", s)
	}
	return ClockTime(h*minutesPerHour + m), nil
}

// MustClock parses a clock string and panics on failure. For tests and
// static schedule literals only.
func MustClock(s string) ClockTime {
	t, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseDay validates and canonicalizes a YYYY-MM-DD string.
func ParseDay(s string) (CivilDay, error) {
	d, err := time.Parse(civilDayLayout, strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("invalid civil day %q: %w", s, err)
	}
	return CivilDay(d.Format(civilDayLayout)), nil
}

// Normalizer converts UTC instants into civil dates and clock times in one
// injected target zone. It is immutable and safe for concurrent use.
type Normalizer struct {
	loc *time.Location
}

// NewNormalizer loads the named IANA zone. An empty name selects DefaultZone.
func NewNormalizer(zone string) (*Normalizer, error) {
	if zone == "" {
		zone = DefaultZone
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", zone, err)
	}
	return &Normalizer{loc: loc}, nil
}

// Zone returns the name of the target zone.
func (n *Normalizer) Zone() string { return n.loc.String() }

// CivilDay returns the calendar date of the instant in the target zone.
func (n *Normalizer) CivilDay(instant time.Time) CivilDay {
	return CivilDay(instant.In(n.loc).Format(civilDayLayout))
}

// Clock returns the instant's local wall-clock time, truncated to the minute.
func (n *Normalizer) Clock(instant time.Time) ClockTime {
	local := instant.In(n.loc)
	return ClockTime(local.Hour()*minutesPerHour + local.Minute())
}

// Weekday returns the day-of-week of a civil day (Sunday == 0).
func (n *Normalizer) Weekday(day CivilDay) (time.Weekday, error) {
	d, err := time.ParseInLocation(civilDayLayout, string(day), n.loc)
	if err != nil {
		return 0, fmt.Errorf("invalid civil day %q: %w", day, err)
	}
	return d.Weekday(), nil
}
