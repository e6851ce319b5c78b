package calendar

import (
	"fmt"
	"time"

	str2duration "github.com/xhit/go-str2duration/v2"

	"github.com/tempora/tempora/pkg/event"
	"github.com/tempora/tempora/pkg/recurrence"
	"github.com/tempora/tempora/pkg/timezone"
)

type CalendarDTO struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Timezone    string `json:"timezone,omitempty"`
	EventCount  int    `json:"eventCount"`
}

type RecurrenceDTO struct {
	Frequency string   `json:"frequency"`
	Interval  int      `json:"interval"`
	Count     int      `json:"count,omitempty"`
	Until     string   `json:"until,omitempty"` // RFC3339
	Weekdays  []string `json:"weekdays,omitempty"`
}

type FilterDTO struct {
	SkipWeekends bool     `json:"skipWeekends"`
	SkipDates    []string `json:"skipDates,omitempty"` // civil dates, 2006-01-02
}

// EventDTO is the full serialization of an event; every core field
// round-trips through it.
type EventDTO struct {
	Index          int            `json:"index"`
	UID            string         `json:"uid,omitempty"`
	Title          string         `json:"title"`
	Description    string         `json:"description,omitempty"`
	Start          time.Time      `json:"start"`
	End            time.Time      `json:"end"`
	Timezone       string         `json:"timezone"`
	Attendees      []string       `json:"attendees,omitempty"`
	Recurrence     *RecurrenceDTO `json:"recurrence,omitempty"`
	Filter         *FilterDTO     `json:"filter,omitempty"`
	ExceptionDates []string       `json:"exceptionDates,omitempty"`
	Location       string         `json:"location,omitempty"`
	Status         string         `json:"status"`
}

// EventCreateRequest accepts civil date-time strings resolved against the
// timezone field, or RFC3339 instants; duration is an alternative to end
// ("1h30m" forms).
type EventCreateRequest struct {
	Title          string         `json:"title"`
	Description    string         `json:"description,omitempty"`
	Timezone       string         `json:"timezone"`
	Start          string         `json:"start"`
	End            string         `json:"end,omitempty"`
	Duration       string         `json:"duration,omitempty"`
	Attendees      []string       `json:"attendees,omitempty"`
	Recurrence     *RecurrenceDTO `json:"recurrence,omitempty"`
	Filter         *FilterDTO     `json:"filter,omitempty"`
	ExceptionDates []string       `json:"exceptionDates,omitempty"`
	Location       string         `json:"location,omitempty"`
	UID            string         `json:"uid,omitempty"`
	Status         string         `json:"status,omitempty"`
}

type OccurrenceDTO struct {
	EventIndex int       `json:"eventIndex"`
	Title      string    `json:"title"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Status     string    `json:"status"`
}

func (r EventCreateRequest) toConfig() (event.Config, error) {
	cfg := event.Config{
		Title:       r.Title,
		Description: r.Description,
		Timezone:    r.Timezone,
		Attendees:   r.Attendees,
		Location:    r.Location,
		UID:         r.UID,
	}

	// Instants may arrive as RFC3339 (deserialization path) or as civil
	// strings resolved against the timezone.
	if t, err := time.Parse(time.RFC3339, r.Start); err == nil {
		cfg.StartAt = t
	} else {
		cfg.Start = r.Start
	}
	if r.End != "" {
		if t, err := time.Parse(time.RFC3339, r.End); err == nil {
			cfg.EndAt = t
		} else {
			cfg.End = r.End
		}
	}
	if r.Duration != "" {
		d, err := str2duration.ParseDuration(r.Duration)
		if err != nil {
			return event.Config{}, fmt.Errorf("%w: invalid duration %q", event.ErrValidation, r.Duration)
		}
		cfg.Duration = d
	}

	if r.Status != "" {
		status, err := event.ParseStatus(r.Status)
		if err != nil {
			return event.Config{}, err
		}
		cfg.Status = status
	}

	if r.Recurrence != nil {
		rule, err := r.Recurrence.toRule()
		if err != nil {
			return event.Config{}, err
		}
		cfg.Recurrence = rule
	}
	if r.Filter != nil {
		filter, err := r.Filter.toFilter()
		if err != nil {
			return event.Config{}, err
		}
		cfg.Filter = filter
	}

	for _, s := range r.ExceptionDates {
		d, err := parseCivilDate(s)
		if err != nil {
			return event.Config{}, err
		}
		cfg.ExceptionDates = append(cfg.ExceptionDates, d)
	}

	return cfg, nil
}

func (r *RecurrenceDTO) toRule() (*recurrence.Rule, error) {
	frequency, err := recurrence.ParseFrequency(r.Frequency)
	if err != nil {
		return nil, err
	}
	rule := &recurrence.Rule{
		Frequency: frequency,
		Interval:  r.Interval,
		Count:     r.Count,
	}
	if rule.Interval == 0 {
		rule.Interval = 1
	}
	if r.Until != "" {
		until, err := time.Parse(time.RFC3339, r.Until)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid until %q, expected RFC3339", recurrence.ErrInvalidRule, r.Until)
		}
		rule.Until = &until
	}
	for _, name := range r.Weekdays {
		weekday, err := parseWeekday(name)
		if err != nil {
			return nil, err
		}
		rule.Weekdays = append(rule.Weekdays, weekday)
	}
	return rule, nil
}

func (f *FilterDTO) toFilter() (*recurrence.Filter, error) {
	filter := &recurrence.Filter{SkipWeekends: f.SkipWeekends}
	for _, s := range f.SkipDates {
		d, err := parseCivilDate(s)
		if err != nil {
			return nil, err
		}
		filter.SkipDates = append(filter.SkipDates, d)
	}
	return filter, nil
}

// parseCivilDate turns a civil date string into a midnight instant. The
// zone is irrelevant: exception and skip dates compare by civil date only.
func parseCivilDate(s string) (time.Time, error) {
	year, month, day, err := timezone.ParseDate(s)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), nil
}

func parseWeekday(name string) (time.Weekday, error) {
	for weekday := time.Sunday; weekday <= time.Saturday; weekday++ {
		if name == weekday.String() {
			return weekday, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown weekday %q", recurrence.ErrInvalidRule, name)
}

func eventToDTO(index int, e *event.Event) EventDTO {
	dto := EventDTO{
		Index:       index,
		UID:         e.UID,
		Title:       e.Title,
		Description: e.Description,
		Start:       e.Start,
		End:         e.End,
		Timezone:    e.Zone.String(),
		Attendees:   e.Attendees,
		Location:    e.Location,
		Status:      e.Status.String(),
	}
	if e.Recurrence != nil {
		dto.Recurrence = ruleToDTO(e.Recurrence)
	}
	if e.Filter != nil {
		dto.Filter = filterToDTO(e.Filter)
	}
	for _, exception := range e.ExceptionDates {
		dto.ExceptionDates = append(dto.ExceptionDates, exception.Format("2006-01-02"))
	}
	return dto
}

func ruleToDTO(rule *recurrence.Rule) *RecurrenceDTO {
	dto := &RecurrenceDTO{
		Frequency: rule.Frequency.String(),
		Interval:  rule.Interval,
		Count:     rule.Count,
	}
	if rule.Until != nil {
		dto.Until = rule.Until.Format(time.RFC3339)
	}
	for _, weekday := range rule.Weekdays {
		dto.Weekdays = append(dto.Weekdays, weekday.String())
	}
	return dto
}

func filterToDTO(filter *recurrence.Filter) *FilterDTO {
	dto := &FilterDTO{SkipWeekends: filter.SkipWeekends}
	for _, skip := range filter.SkipDates {
		dto.SkipDates = append(dto.SkipDates, skip.Format("2006-01-02"))
	}
	return dto
}

func occurrenceToDTO(o Occurrence) OccurrenceDTO {
	e := o.Event()
	return OccurrenceDTO{
		EventIndex: o.EventIndex,
		Title:      e.Title,
		Start:      o.Start,
		End:        o.End(),
		Status:     e.Status.String(),
	}
}
