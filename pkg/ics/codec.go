// Package ics converts calendars to and from the iCalendar wire format.
package ics

import (
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/teambition/rrule-go"

	"github.com/tempora/tempora/pkg/calendar"
	"github.com/tempora/tempora/pkg/event"
	"github.com/tempora/tempora/pkg/recurrence"
)

const (
	prodID = "-//tempora//calendar//EN"

	dateTimeLayout = "20060102T150405"
	dateTimeUTC    = "20060102T150405Z"
	dateLayout     = "20060102"
)

// Export serializes the calendar as an iCalendar stream. Statuses map to
// CONFIRMED/TENTATIVE/CANCELLED; blocked events have no iCalendar
// counterpart and are exported as CONFIRMED.
func Export(cal *calendar.Calendar, w io.Writer) error {
	out := ical.NewCalendar()
	out.SetProductId(prodID)
	out.SetMethod(ical.MethodPublish)
	out.SetXWRCalName(cal.Name)
	if cal.Description != "" {
		out.SetXWRCalDesc(cal.Description)
	}
	if cal.Zone != nil {
		out.SetXWRTimezone(cal.Zone.String())
	}

	for _, e := range cal.Events() {
		exportEvent(out, e)
	}
	return out.SerializeTo(w)
}

func exportEvent(out *ical.Calendar, e *event.Event) {
	uid := e.UID
	if uid == "" {
		uid = uuid.NewString()
	}
	ve := out.AddEvent(uid)
	ve.SetDtStampTime(time.Now())
	ve.SetSummary(e.Title)
	if e.Description != "" {
		ve.SetDescription(e.Description)
	}
	if e.Location != "" {
		ve.SetLocation(e.Location)
	}
	for _, attendee := range e.Attendees {
		ve.AddAttendee(attendee)
	}

	setEventTime(ve, ical.ComponentPropertyDtStart, e.Start, e.Zone)
	setEventTime(ve, ical.ComponentPropertyDtEnd, e.End, e.Zone)

	if e.Recurrence != nil {
		ve.SetProperty(ical.ComponentPropertyRrule, rruleString(e.Recurrence))
	}
	if len(e.ExceptionDates) > 0 {
		values := make([]string, 0, len(e.ExceptionDates))
		for _, d := range e.ExceptionDates {
			values = append(values, d.Format(dateLayout))
		}
		ve.SetProperty(ical.ComponentPropertyExdate, strings.Join(values, ","),
			&ical.KeyValues{Key: "VALUE", Value: []string{"DATE"}})
	}

	switch e.Status {
	case event.StatusTentative:
		ve.SetStatus(ical.ObjectStatusTentative)
	case event.StatusCancelled:
		ve.SetStatus(ical.ObjectStatusCancelled)
	default:
		ve.SetStatus(ical.ObjectStatusConfirmed)
	}
}

// setEventTime writes a date-time property as UTC when the event's zone
// is UTC, and as a local time with a TZID parameter otherwise.
func setEventTime(ve *ical.VEvent, prop ical.ComponentProperty, t time.Time, zone *time.Location) {
	if zone == nil || zone == time.UTC {
		ve.SetProperty(prop, t.UTC().Format(dateTimeUTC))
		return
	}
	ve.SetProperty(prop, t.In(zone).Format(dateTimeLayout),
		&ical.KeyValues{Key: "TZID", Value: []string{zone.String()}})
}

func rruleString(rule *recurrence.Rule) string {
	parts := []string{"FREQ=" + strings.ToUpper(rule.Frequency.String())}
	if rule.Interval > 1 {
		parts = append(parts, fmt.Sprintf("INTERVAL=%d", rule.Interval))
	}
	if rule.Count > 0 {
		parts = append(parts, fmt.Sprintf("COUNT=%d", rule.Count))
	}
	if rule.Until != nil {
		parts = append(parts, "UNTIL="+rule.Until.UTC().Format(dateTimeUTC))
	}
	if len(rule.Weekdays) > 0 {
		days := make([]string, 0, len(rule.Weekdays))
		for _, weekday := range rule.Weekdays {
			days = append(days, byDayCode(weekday))
		}
		parts = append(parts, "BYDAY="+strings.Join(days, ","))
	}
	return strings.Join(parts, ";")
}

func byDayCode(weekday time.Weekday) string {
	return [...]string{"SU", "MO", "TU", "WE", "TH", "FR", "SA"}[weekday]
}

// Import parses an iCalendar stream into a named calendar. Events whose
// recurrence uses parts the engine does not support are kept as plain
// one-off events; the unsupported rule is logged and dropped.
func Import(name string, r io.Reader) (*calendar.Calendar, error) {
	parsed, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("parsing iCalendar stream: %w", err)
	}

	cal := calendar.New(name)
	for _, p := range parsed.CalendarProperties {
		if p.IANAToken == string(ical.PropertyXWRCalDesc) {
			cal.Description = p.Value
		}
	}

	for _, ve := range parsed.Events() {
		e, err := importEvent(ve)
		if err != nil {
			// One bad VEVENT does not fail the whole import.
			log.Warnf("Skipping event during ICS import: %v", err)
			continue
		}
		cal.AddEvent(e)
	}
	log.Infof("Imported %d events into calendar %q", cal.Len(), name)
	return cal, nil
}

func importEvent(ve *ical.VEvent) (*event.Event, error) {
	cfg := event.Config{}

	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		cfg.UID = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		cfg.Title = p.Value
	}
	if cfg.Title == "" {
		return nil, fmt.Errorf("VEVENT %q has no SUMMARY", cfg.UID)
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		cfg.Description = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		cfg.Location = p.Value
	}
	for _, p := range ve.Attendees() {
		cfg.Attendees = append(cfg.Attendees, strings.TrimPrefix(p.Value, "mailto:"))
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return nil, fmt.Errorf("VEVENT %q: %w", cfg.UID, err)
	}
	end, err := ve.GetEndAt()
	if err != nil {
		return nil, fmt.Errorf("VEVENT %q: %w", cfg.UID, err)
	}
	cfg.StartAt = start
	cfg.EndAt = end
	if tzid := propertyParam(ve, ical.ComponentPropertyDtStart, "TZID"); tzid != "" {
		cfg.Timezone = tzid
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		rule, ok := importRRule(p.Value)
		if !ok {
			log.Warnf("Dropping unsupported RRULE %q on event %q; importing as one-off", p.Value, cfg.Title)
		}
		cfg.Recurrence = rule
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, raw := range strings.Split(p.Value, ",") {
			d, err := parseICSTime(strings.TrimSpace(raw))
			if err != nil {
				continue
			}
			cfg.ExceptionDates = append(cfg.ExceptionDates, d)
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyStatus); p != nil {
		switch strings.ToUpper(p.Value) {
		case "TENTATIVE":
			cfg.Status = event.StatusTentative
		case "CANCELLED":
			cfg.Status = event.StatusCancelled
		}
	}

	return event.New(cfg)
}

// importRRule maps an RRULE onto the recurrence engine. Only
// FREQ/INTERVAL/COUNT/UNTIL are expanded; any BY* part is beyond the
// engine and makes the rule unsupported (nil, false).
func importRRule(raw string) (*recurrence.Rule, bool) {
	parsed, err := rrule.StrToRRule(raw)
	if err != nil {
		return nil, false
	}
	opts := parsed.OrigOptions

	if len(opts.Byweekday) > 0 || len(opts.Bymonth) > 0 || len(opts.Bymonthday) > 0 ||
		len(opts.Byyearday) > 0 || len(opts.Byweekno) > 0 || len(opts.Bysetpos) > 0 ||
		len(opts.Byhour) > 0 || len(opts.Byminute) > 0 || len(opts.Bysecond) > 0 {
		return nil, false
	}

	rule := &recurrence.Rule{Interval: opts.Interval, Count: opts.Count}
	if rule.Interval == 0 {
		rule.Interval = 1
	}
	switch opts.Freq {
	case rrule.DAILY:
		rule.Frequency = recurrence.Daily
	case rrule.WEEKLY:
		rule.Frequency = recurrence.Weekly
	case rrule.MONTHLY:
		rule.Frequency = recurrence.Monthly
	case rrule.YEARLY:
		rule.Frequency = recurrence.Yearly
	default:
		return nil, false
	}
	if !opts.Until.IsZero() {
		until := opts.Until
		rule.Until = &until
	}
	return rule, true
}

func propertyParam(ve *ical.VEvent, prop ical.ComponentProperty, key string) string {
	p := ve.GetProperty(prop)
	if p == nil || p.ICalParameters == nil {
		return ""
	}
	if values, ok := p.ICalParameters[key]; ok && len(values) > 0 {
		return values[0]
	}
	return ""
}

// parseICSTime handles the basic DATE, local DATE-TIME and UTC DATE-TIME
// value forms.
func parseICSTime(v string) (time.Time, error) {
	switch {
	case v == "":
		return time.Time{}, fmt.Errorf("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse(dateTimeUTC, v)
	case strings.Contains(v, "T"):
		return time.Parse(dateTimeLayout, v)
	default:
		return time.Parse(dateLayout, v)
	}
}
