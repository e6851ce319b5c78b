package calendar

import (
	"sort"
	"strings"
	"time"

	"github.com/tempora/tempora/pkg/event"
	"github.com/tempora/tempora/pkg/timezone"
)

// MaxOccurrencesPerEvent bounds the expansion of a single event so that
// rules without a terminator cannot generate unboundedly.
const MaxOccurrencesPerEvent = 1000

// Calendar is an insertion-ordered, non-deduplicating collection of events.
// It is not safe for concurrent use; the embedding application serializes
// access (the HTTP service does so with a lock).
type Calendar struct {
	Name        string
	Description string
	// Zone is the default zone for day queries and new events created
	// without one. Optional.
	Zone *time.Location

	events []*event.Event
}

// New creates an empty calendar.
func New(name string) *Calendar {
	return &Calendar{Name: name}
}

// AddEvent appends an event and returns its index. Indices are stable until
// an earlier event is removed.
func (c *Calendar) AddEvent(e *event.Event) int {
	c.events = append(c.events, e)
	return len(c.events) - 1
}

// AddEvents appends several events in order.
func (c *Calendar) AddEvents(events []*event.Event) {
	c.events = append(c.events, events...)
}

// RemoveEvent removes the event at index, shifting later indices down.
func (c *Calendar) RemoveEvent(index int) (*event.Event, bool) {
	if index < 0 || index >= len(c.events) {
		return nil, false
	}
	removed := c.events[index]
	c.events = append(c.events[:index], c.events[index+1:]...)
	return removed, true
}

// UpdateEvent applies fn to the event at index.
func (c *Calendar) UpdateEvent(index int, fn func(*event.Event)) bool {
	if index < 0 || index >= len(c.events) {
		return false
	}
	fn(c.events[index])
	return true
}

// Event returns the event at index.
func (c *Calendar) Event(index int) (*event.Event, bool) {
	if index < 0 || index >= len(c.events) {
		return nil, false
	}
	return c.events[index], true
}

// Events returns the underlying event slice in insertion order. Callers
// must not mutate it.
func (c *Calendar) Events() []*event.Event {
	return c.events
}

// Len is the number of events in the calendar.
func (c *Calendar) Len() int {
	return len(c.events)
}

// Clear removes every event.
func (c *Calendar) Clear() {
	c.events = nil
}

// FindByTitle returns the indices of events whose title contains the query,
// case-insensitively.
func (c *Calendar) FindByTitle(query string) []int {
	query = strings.ToLower(query)
	var matches []int
	for i, e := range c.events {
		if strings.Contains(strings.ToLower(e.Title), query) {
			matches = append(matches, i)
		}
	}
	return matches
}

// Occurrence is one concrete realization of an event inside a query window.
// It references its event by index and resolves it back through the owning
// calendar; occurrences are transient query results and must not outlive
// the calendar that produced them.
type Occurrence struct {
	EventIndex int
	Start      time.Time

	cal *Calendar
}

// Event resolves the occurrence back to its event.
func (o Occurrence) Event() *event.Event {
	return o.cal.events[o.EventIndex]
}

// End is the occurrence's end instant: its start plus the event's duration.
func (o Occurrence) End() time.Time {
	return o.Start.Add(o.Event().Duration())
}

// Title is the owning event's title.
func (o Occurrence) Title() string {
	return o.Event().Title
}

// EventsBetween expands every event into its occurrences inside the
// inclusive window [from, to] and returns them as a single sequence sorted
// by start instant. Occurrences at the identical instant keep event
// insertion order. Each event's expansion is bounded by
// MaxOccurrencesPerEvent.
func (c *Calendar) EventsBetween(from, to time.Time) ([]Occurrence, error) {
	var occurrences []Occurrence
	for index, e := range c.events {
		starts, err := e.OccurrencesBetween(from, to, MaxOccurrencesPerEvent)
		if err != nil {
			return nil, err
		}
		for _, start := range starts {
			occurrences = append(occurrences, Occurrence{EventIndex: index, Start: start, cal: c})
		}
	}

	sort.SliceStable(occurrences, func(i, j int) bool {
		return occurrences[i].Start.Before(occurrences[j].Start)
	})
	return occurrences, nil
}

// EventsOnDate is EventsBetween restricted to the civil day containing
// date, with the day bounds resolved in date's own zone. Earliest/Latest
// disambiguation keeps the window covering the full day across a DST
// transition.
func (c *Calendar) EventsOnDate(date time.Time) ([]Occurrence, error) {
	start, err := timezone.StartOfDay(date)
	if err != nil {
		return nil, err
	}
	end, err := timezone.EndOfDay(date)
	if err != nil {
		return nil, err
	}
	return c.EventsBetween(start, end)
}
