package calendar

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/tempora/tempora/pkg/event"
	"github.com/tempora/tempora/pkg/timezone"
)

var (
	ErrCalendarNotFound = errors.New("calendar not found")
	ErrCalendarExists   = errors.New("calendar already exists")
	ErrEventNotFound    = errors.New("event not found")
)

// Service owns the in-memory calendar store and serializes all access to
// it. Calendars themselves are lock-free; per the core's contract the
// embedding application must serialize, and for the HTTP surface that
// application is this service.
type Service struct {
	mu          sync.RWMutex
	calendars   map[string]*Calendar
	defaultZone string
}

func NewService() *Service {
	return &Service{calendars: make(map[string]*Calendar)}
}

// SetDefaultTimezone sets the zone applied to calendars created without
// one.
func (s *Service) SetDefaultTimezone(tz string) {
	s.defaultZone = tz
}

// Info is a read-only snapshot of a calendar's metadata.
type Info struct {
	Name        string
	Description string
	Timezone    string
	EventCount  int
}

// Create registers a new named calendar. An empty timezone leaves the
// calendar without a default zone.
func (s *Service) Create(name, description, tz string) (Info, error) {
	if tz == "" {
		tz = s.defaultZone
	}
	var zone *time.Location
	if tz != "" {
		loc, err := timezone.LoadLocation(tz)
		if err != nil {
			return Info{}, err
		}
		zone = loc
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.calendars[name]; exists {
		return Info{}, fmt.Errorf("%w: %q", ErrCalendarExists, name)
	}

	cal := New(name)
	cal.Description = description
	cal.Zone = zone
	s.calendars[name] = cal

	log.Infof("Created calendar %q", name)
	return infoOf(cal), nil
}

// Register adds an already-built calendar (the ICS import path), renaming
// on collision is the caller's concern.
func (s *Service) Register(cal *Calendar) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.calendars[cal.Name]; exists {
		return fmt.Errorf("%w: %q", ErrCalendarExists, cal.Name)
	}
	s.calendars[cal.Name] = cal
	log.Infof("Registered calendar %q with %d events", cal.Name, cal.Len())
	return nil
}

// Delete removes a calendar and all of its events.
func (s *Service) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.calendars[name]; !exists {
		return fmt.Errorf("%w: %q", ErrCalendarNotFound, name)
	}
	delete(s.calendars, name)
	log.Infof("Deleted calendar %q", name)
	return nil
}

// List snapshots every calendar's metadata.
func (s *Service) List() []Info {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]Info, 0, len(s.calendars))
	for _, cal := range s.calendars {
		infos = append(infos, infoOf(cal))
	}
	return infos
}

// GetInfo snapshots one calendar's metadata.
func (s *Service) GetInfo(name string) (Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cal, exists := s.calendars[name]
	if !exists {
		return Info{}, fmt.Errorf("%w: %q", ErrCalendarNotFound, name)
	}
	return infoOf(cal), nil
}

// WithCalendar runs fn under the read lock. fn must not retain the
// calendar or any occurrences past its return.
func (s *Service) WithCalendar(name string, fn func(*Calendar) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cal, exists := s.calendars[name]
	if !exists {
		return fmt.Errorf("%w: %q", ErrCalendarNotFound, name)
	}
	return fn(cal)
}

// AddEvent validates and appends a new event, assigning a UID when the
// config carries none. Returns the event's index.
func (s *Service) AddEvent(name string, cfg event.Config) (int, *event.Event, error) {
	if cfg.UID == "" {
		cfg.UID = uuid.NewString()
	}

	e, err := event.New(cfg)
	if err != nil {
		return 0, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cal, exists := s.calendars[name]
	if !exists {
		return 0, nil, fmt.Errorf("%w: %q", ErrCalendarNotFound, name)
	}
	index := cal.AddEvent(e)
	log.Debugf("Added event %q to calendar %q at index %d", e.Title, name, index)
	return index, e, nil
}

// UpdateEventStatus applies a status transition to the event at index.
func (s *Service) UpdateEventStatus(name string, index int, status event.Status) (*event.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cal, exists := s.calendars[name]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrCalendarNotFound, name)
	}

	var updated *event.Event
	ok := cal.UpdateEvent(index, func(e *event.Event) {
		switch status {
		case event.StatusConfirmed:
			e.Confirm()
		case event.StatusTentative:
			e.Tentative()
		case event.StatusCancelled:
			e.Cancel()
		case event.StatusBlocked:
			e.Status = event.StatusBlocked
		}
		updated = e
	})
	if !ok {
		return nil, fmt.Errorf("%w: index %d in calendar %q", ErrEventNotFound, index, name)
	}
	return updated, nil
}

// RescheduleEvent moves the event at index to a new interval.
func (s *Service) RescheduleEvent(name string, index int, newStart, newEnd time.Time) (*event.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cal, exists := s.calendars[name]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrCalendarNotFound, name)
	}

	e, ok := cal.Event(index)
	if !ok {
		return nil, fmt.Errorf("%w: index %d in calendar %q", ErrEventNotFound, index, name)
	}
	if err := e.Reschedule(newStart, newEnd); err != nil {
		return nil, err
	}
	return e, nil
}

// RemoveEvent deletes the event at index.
func (s *Service) RemoveEvent(name string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cal, exists := s.calendars[name]
	if !exists {
		return fmt.Errorf("%w: %q", ErrCalendarNotFound, name)
	}
	if _, ok := cal.RemoveEvent(index); !ok {
		return fmt.Errorf("%w: index %d in calendar %q", ErrEventNotFound, index, name)
	}
	return nil
}

func infoOf(cal *Calendar) Info {
	info := Info{
		Name:        cal.Name,
		Description: cal.Description,
		EventCount:  cal.Len(),
	}
	if cal.Zone != nil {
		info.Timezone = cal.Zone.String()
	}
	return info
}
