package recurrence

import (
	"errors"
	"fmt"
	"time"

	"github.com/tempora/tempora/pkg/timezone"
)

var (
	// ErrUnsupportedFrequency indicates a frequency outside the four
	// supported values.
	ErrUnsupportedFrequency = errors.New("unsupported recurrence frequency")
	// ErrInvalidRule indicates a malformed rule or generation request.
	ErrInvalidRule = errors.New("invalid recurrence rule")
)

// Frequency is the base period of a recurrence rule.
type Frequency int

const (
	Daily Frequency = iota
	Weekly
	Monthly
	Yearly
)

func (f Frequency) String() string {
	switch f {
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	case Yearly:
		return "yearly"
	default:
		return fmt.Sprintf("frequency(%d)", int(f))
	}
}

// ParseFrequency maps a frequency name (as used by the API and the ICS
// codec) back onto a Frequency.
func ParseFrequency(s string) (Frequency, error) {
	switch s {
	case "daily", "DAILY":
		return Daily, nil
	case "weekly", "WEEKLY":
		return Weekly, nil
	case "monthly", "MONTHLY":
		return Monthly, nil
	case "yearly", "YEARLY":
		return Yearly, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFrequency, s)
	}
}

// Rule describes how an event repeats. Count and Until are alternative
// terminators; a rule may carry neither, in which case generation is bounded
// only by the caller's cap.
//
// Weekdays is stored for round-trip export to RRULE text (BYDAY); the
// occurrence engine does not consult it.
type Rule struct {
	Frequency Frequency
	Interval  int
	Count     int // 0 means no count terminator
	Until     *time.Time
	Weekdays  []time.Weekday
}

// Validate checks the rule's structural invariants.
func (r Rule) Validate() error {
	if r.Frequency < Daily || r.Frequency > Yearly {
		return fmt.Errorf("%w: %d", ErrUnsupportedFrequency, int(r.Frequency))
	}
	if r.Interval < 1 {
		return fmt.Errorf("%w: interval must be at least 1, got %d", ErrInvalidRule, r.Interval)
	}
	if r.Count < 0 {
		return fmt.Errorf("%w: count must not be negative, got %d", ErrInvalidRule, r.Count)
	}
	return nil
}

// Occurrences generates the strictly increasing sequence of occurrence
// instants starting at anchor. The sequence holds at most
// min(Count, cap) instants (cap alone when the rule has no count) and stops
// before any instant past Until; an occurrence exactly at Until is kept.
//
// Stepping preserves civil time: the wall clock of the anchor is kept for
// every occurrence, so the absolute delta across a DST transition day may
// be 23h or 25h. Monthly and yearly steps that land on a day the target
// month does not have (Jan 31 + 1 month, Feb 29 + 1 year) end generation
// early instead of clamping; callers distinguish that from a reached
// terminator by comparing the sequence length with the requested count.
func (r Rule) Occurrences(anchor time.Time, cap int) ([]time.Time, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if cap < 1 {
		return nil, fmt.Errorf("%w: occurrence cap must be positive, got %d", ErrInvalidRule, cap)
	}

	limit := cap
	if r.Count > 0 && r.Count < limit {
		limit = r.Count
	}

	occurrences := make([]time.Time, 0, limit)
	current := anchor

	for len(occurrences) < limit {
		if r.Until != nil && current.After(*r.Until) {
			break
		}
		occurrences = append(occurrences, current)

		next, ok := r.step(current)
		if !ok {
			break
		}
		current = next
	}

	return occurrences, nil
}

// step advances one rule period in civil time, re-resolving the wall clock
// in the instant's own zone. Returns ok=false when the target civil date
// does not exist.
func (r Rule) step(current time.Time) (time.Time, bool) {
	year, month, day := current.Date()
	hour, min, sec := current.Clock()
	loc := current.Location()

	switch r.Frequency {
	case Daily:
		year, month, day = normalizeDate(year, month, day+r.Interval)
	case Weekly:
		year, month, day = normalizeDate(year, month, day+7*r.Interval)
	case Monthly:
		m := int(month) + r.Interval
		for m > 12 {
			m -= 12
			year++
		}
		month = time.Month(m)
		if day > daysIn(year, month) {
			return time.Time{}, false
		}
	case Yearly:
		year += r.Interval
		if day > daysIn(year, month) {
			return time.Time{}, false
		}
	}

	next, err := timezone.ResolveCivil(year, month, day, hour, min, sec, loc, timezone.Earliest)
	if err != nil {
		return time.Time{}, false
	}
	return next, true
}

// normalizeDate carries a day overflow into the following month(s).
func normalizeDate(year int, month time.Month, day int) (int, time.Month, int) {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return t.Year(), t.Month(), t.Day()
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
