package schedule

import (
	"time"

	"github.com/tempora/tempora/internal/utils"
	"github.com/tempora/tempora/pkg/calendar"
)

// Service answers schedule analysis questions against the calendars held
// by the calendar service.
type Service struct {
	calendars *calendar.Service
	clock     utils.Clock
}

func NewService(calendars *calendar.Service, clock utils.Clock) *Service {
	return &Service{calendars: calendars, clock: clock}
}

func (s *Service) Gaps(name string, from, to time.Time, minDuration time.Duration) ([]Gap, error) {
	var gaps []Gap
	err := s.calendars.WithCalendar(name, func(cal *calendar.Calendar) error {
		var err error
		gaps, err = FindGaps(cal, from, to, minDuration)
		return err
	})
	return gaps, err
}

func (s *Service) Overlaps(name string, from, to time.Time) ([]Overlap, error) {
	var overlaps []Overlap
	err := s.calendars.WithCalendar(name, func(cal *calendar.Calendar) error {
		var err error
		overlaps, err = FindOverlaps(cal, from, to)
		return err
	})
	return overlaps, err
}

func (s *Service) Density(name string, from, to time.Time) (Density, error) {
	var density Density
	err := s.calendars.WithCalendar(name, func(cal *calendar.Calendar) error {
		var err error
		density, err = CalculateDensity(cal, from, to)
		return err
	})
	return density, err
}

func (s *Service) LongestGap(name string, from, to time.Time) (*Gap, error) {
	var gap *Gap
	err := s.calendars.WithCalendar(name, func(cal *calendar.Calendar) error {
		var err error
		gap, err = FindLongestGap(cal, from, to)
		return err
	})
	return gap, err
}

func (s *Service) AvailableSlots(name string, from, to time.Time, duration time.Duration) ([]Gap, error) {
	var slots []Gap
	err := s.calendars.WithCalendar(name, func(cal *calendar.Calendar) error {
		var err error
		slots, err = FindAvailableSlots(cal, from, to, duration)
		return err
	})
	return slots, err
}

func (s *Service) SlotAvailable(name string, start, end time.Time) (bool, error) {
	var available bool
	err := s.calendars.WithCalendar(name, func(cal *calendar.Calendar) error {
		var err error
		available, err = IsSlotAvailable(cal, start, end)
		return err
	})
	return available, err
}

// Alternatives suggests start times for an event near the desired start.
// A zero desired time anchors the search at the current time.
func (s *Service) Alternatives(name string, desired time.Time, duration, searchWindow time.Duration, limit int) ([]time.Time, error) {
	if desired.IsZero() {
		desired = s.clock.Now()
	}
	var suggestions []time.Time
	err := s.calendars.WithCalendar(name, func(cal *calendar.Calendar) error {
		var err error
		suggestions, err = SuggestAlternatives(cal, desired, duration, searchWindow, limit)
		return err
	})
	return suggestions, err
}
