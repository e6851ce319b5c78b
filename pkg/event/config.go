package event

import (
	"fmt"
	"time"

	"github.com/tempora/tempora/pkg/recurrence"
	"github.com/tempora/tempora/pkg/timezone"
)

// Config carries every field needed to construct an Event. It replaces a
// fluent builder: all fields are collected first and validated atomically
// by New, so no invalid input can be silently dropped along the way.
//
// Start/End accept civil strings ("2006-01-02 15:04:05") resolved against
// Timezone; StartAt/EndAt accept already-resolved instants (the
// deserialization path). Duration derives the end from the start when no
// end is given.
type Config struct {
	Title          string
	Description    string
	Timezone       string
	Start          string
	StartAt        time.Time
	End            string
	EndAt          time.Time
	Duration       time.Duration
	Attendees      []string
	Recurrence     *recurrence.Rule
	Filter         *recurrence.Filter
	ExceptionDates []time.Time
	Location       string
	UID            string
	Status         Status
}

// New validates the config and constructs the Event. Civil times resolve
// with Earliest disambiguation; a civil time in a DST gap shifts forward to
// the first valid instant.
func New(cfg Config) (*Event, error) {
	if cfg.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}

	zone, err := resolveZone(cfg)
	if err != nil {
		return nil, err
	}

	start, err := resolveInstant(cfg.StartAt, cfg.Start, zone)
	if err != nil {
		return nil, err
	}
	if start.IsZero() {
		return nil, fmt.Errorf("%w: start time is required", ErrValidation)
	}

	end, err := resolveInstant(cfg.EndAt, cfg.End, zone)
	if err != nil {
		return nil, err
	}
	if end.IsZero() {
		if cfg.Duration <= 0 {
			return nil, fmt.Errorf("%w: end time or positive duration is required", ErrValidation)
		}
		end = start.Add(cfg.Duration)
	}

	if !end.After(start) {
		return nil, fmt.Errorf("%w: end time must be after start time", ErrValidation)
	}

	if cfg.Recurrence != nil {
		if err := cfg.Recurrence.Validate(); err != nil {
			return nil, err
		}
	}
	if cfg.Status < StatusConfirmed || cfg.Status > StatusBlocked {
		return nil, fmt.Errorf("%w: unknown status %d", ErrValidation, int(cfg.Status))
	}

	return &Event{
		Title:          cfg.Title,
		Description:    cfg.Description,
		Start:          start.In(zone),
		End:            end.In(zone),
		Zone:           zone,
		Attendees:      cfg.Attendees,
		Recurrence:     cfg.Recurrence,
		Filter:         cfg.Filter,
		ExceptionDates: cfg.ExceptionDates,
		Location:       cfg.Location,
		UID:            cfg.UID,
		Status:         cfg.Status,
	}, nil
}

func resolveZone(cfg Config) (*time.Location, error) {
	if cfg.Timezone != "" {
		return timezone.LoadLocation(cfg.Timezone)
	}
	if !cfg.StartAt.IsZero() {
		return cfg.StartAt.Location(), nil
	}
	return nil, fmt.Errorf("%w: timezone is required", ErrValidation)
}

func resolveInstant(at time.Time, civil string, zone *time.Location) (time.Time, error) {
	if !at.IsZero() {
		return at, nil
	}
	if civil == "" {
		return time.Time{}, nil
	}
	return timezone.ResolveIn(civil, zone, timezone.Earliest)
}
