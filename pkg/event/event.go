package event

import (
	"errors"
	"fmt"
	"time"

	"github.com/tempora/tempora/pkg/recurrence"
	"github.com/tempora/tempora/pkg/timezone"
)

// ErrValidation indicates an event that violates its construction or
// reschedule invariants.
var ErrValidation = errors.New("event validation failed")

// Status is the booking lifecycle state of an event. Every status except
// Cancelled occupies time.
type Status int

const (
	StatusConfirmed Status = iota
	StatusTentative
	StatusCancelled
	StatusBlocked
)

func (s Status) String() string {
	switch s {
	case StatusConfirmed:
		return "confirmed"
	case StatusTentative:
		return "tentative"
	case StatusCancelled:
		return "cancelled"
	case StatusBlocked:
		return "blocked"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// ParseStatus maps a status name back onto a Status.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "confirmed", "CONFIRMED":
		return StatusConfirmed, nil
	case "tentative", "TENTATIVE":
		return StatusTentative, nil
	case "cancelled", "CANCELLED":
		return StatusCancelled, nil
	case "blocked", "BLOCKED":
		return StatusBlocked, nil
	default:
		return 0, fmt.Errorf("%w: unknown status %q", ErrValidation, s)
	}
}

// Event is a titled time interval in a single zone, optionally recurring.
// Start and End are absolute instants rendered in Zone; the invariant
// End > Start holds from construction through every reschedule.
type Event struct {
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	Zone        *time.Location
	Attendees   []string
	Recurrence  *recurrence.Rule
	Filter      *recurrence.Filter
	// ExceptionDates removes individual occurrences of a recurring event.
	// Matching is by civil calendar date only, regardless of time-of-day
	// or the zone the exception was recorded in.
	ExceptionDates []time.Time
	Location       string
	UID            string
	Status         Status
}

// Duration is the length of a single occurrence.
func (e *Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// IsActive reports whether the event occupies time. Only Cancelled events
// are inactive.
func (e *Event) IsActive() bool {
	return e.Status != StatusCancelled
}

// Confirm sets the status to Confirmed.
func (e *Event) Confirm() {
	e.Status = StatusConfirmed
}

// Cancel sets the status to Cancelled. The event stops occupying time but
// stays in its calendar until removed.
func (e *Event) Cancel() {
	e.Status = StatusCancelled
}

// Tentative sets the status to Tentative.
func (e *Event) Tentative() {
	e.Status = StatusTentative
}

// Reschedule moves the event to a new interval. A cancelled event that gets
// rescheduled is considered booked again and returns to Confirmed.
func (e *Event) Reschedule(newStart, newEnd time.Time) error {
	if !newEnd.After(newStart) {
		return fmt.Errorf("%w: end time must be after start time", ErrValidation)
	}
	e.Start = newStart
	e.End = newEnd
	if e.Status == StatusCancelled {
		e.Status = StatusConfirmed
	}
	return nil
}

// OccurrencesBetween lists the start instants of this event inside the
// inclusive window [from, to]. Non-recurring events contribute their own
// start when it falls in the window. Recurring events are expanded from
// their rule (bounded by maxOccurrences), window-restricted, passed through
// the recurrence filter, and stripped of exception dates.
func (e *Event) OccurrencesBetween(from, to time.Time, maxOccurrences int) ([]time.Time, error) {
	if e.Recurrence == nil {
		if !e.Start.Before(from) && !e.Start.After(to) {
			return []time.Time{e.Start}, nil
		}
		return nil, nil
	}

	generated, err := e.Recurrence.Occurrences(e.Start, maxOccurrences)
	if err != nil {
		return nil, err
	}

	occurrences := make([]time.Time, 0, len(generated))
	for _, occ := range generated {
		if occ.Before(from) || occ.After(to) {
			continue
		}
		if e.Filter != nil && e.Filter.ShouldSkip(occ) {
			continue
		}
		if e.isException(occ) {
			continue
		}
		occurrences = append(occurrences, occ)
	}
	return occurrences, nil
}

// OccursOn reports whether the event has an occurrence on the civil day of
// date, with the day bounds resolved in the event's own zone.
func (e *Event) OccursOn(date time.Time, maxOccurrences int) (bool, error) {
	year, month, day := date.Date()
	start, err := timezone.ResolveCivil(year, month, day, 0, 0, 0, e.Zone, timezone.Earliest)
	if err != nil {
		return false, err
	}
	end, err := timezone.ResolveCivil(year, month, day, 23, 59, 59, e.Zone, timezone.Latest)
	if err != nil {
		return false, err
	}
	occurrences, err := e.OccurrencesBetween(start, end, maxOccurrences)
	if err != nil {
		return false, err
	}
	return len(occurrences) > 0, nil
}

func (e *Event) isException(t time.Time) bool {
	for _, exception := range e.ExceptionDates {
		if timezone.SameCivilDate(exception, t) {
			return true
		}
	}
	return false
}
