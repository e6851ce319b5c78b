package recurrence

import (
	"time"

	"github.com/tempora/tempora/pkg/timezone"
)

// Filter removes occurrences from a generated sequence. Zero value filters
// nothing.
type Filter struct {
	// SkipWeekends drops occurrences falling on Saturday or Sunday in the
	// occurrence's own zone.
	SkipWeekends bool
	// SkipDates drops occurrences sharing a civil calendar date with any
	// entry. Only the date matters; time-of-day and the zone of the stored
	// entry are ignored.
	SkipDates []time.Time
}

// ShouldSkip reports whether the instant is filtered out.
func (f *Filter) ShouldSkip(t time.Time) bool {
	if f.SkipWeekends {
		weekday := t.Weekday()
		if weekday == time.Saturday || weekday == time.Sunday {
			return true
		}
	}
	for _, skip := range f.SkipDates {
		if timezone.SameCivilDate(skip, t) {
			return true
		}
	}
	return false
}

// Apply filters a sequence, preserving relative order.
func (f *Filter) Apply(occurrences []time.Time) []time.Time {
	kept := make([]time.Time, 0, len(occurrences))
	for _, t := range occurrences {
		if !f.ShouldSkip(t) {
			kept = append(kept, t)
		}
	}
	return kept
}
