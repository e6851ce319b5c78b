package timezone

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTimeParse indicates a civil date-time string that does not match
	// one of the accepted layouts.
	ErrTimeParse = errors.New("failed to parse date/time")
	// ErrInvalidTimezone indicates an unknown IANA timezone name.
	ErrInvalidTimezone = errors.New("invalid timezone")
	// ErrInvalidLocalTime indicates a civil time that does not exist in the
	// target zone (DST spring-forward gap) under strict resolution.
	ErrInvalidLocalTime = errors.New("invalid local time")
)

// Disambiguation selects which absolute instant a civil time resolves to
// when the zone's UTC offset makes it ambiguous or non-existent.
type Disambiguation int

const (
	// Earliest picks the first matching instant for an ambiguous local time
	// (DST fall-back) and shifts a non-existent local time (spring-forward
	// gap) forward to the first valid instant.
	Earliest Disambiguation = iota
	// Latest picks the second matching instant for an ambiguous local time.
	// Non-existent local times are shifted forward, as with Earliest.
	Latest
	// Strict behaves like Earliest for ambiguous times but rejects
	// non-existent local times with ErrInvalidLocalTime.
	Strict
)

// Accepted civil date-time layouts.
const (
	layoutSpace = "2006-01-02 15:04:05"
	layoutT     = "2006-01-02T15:04:05"
	layoutDate  = "2006-01-02"
)

// LoadLocation resolves an IANA timezone name, wrapping failures in
// ErrInvalidTimezone.
func LoadLocation(name string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, name)
	}
	return loc, nil
}

// Resolve parses a civil date-time string ("2006-01-02 15:04:05" or
// "2006-01-02T15:04:05") and resolves it against the named zone into an
// absolute instant.
func Resolve(civil string, zone string, d Disambiguation) (time.Time, error) {
	loc, err := LoadLocation(zone)
	if err != nil {
		return time.Time{}, err
	}
	return ResolveIn(civil, loc, d)
}

// ResolveIn is Resolve with an already-loaded location.
func ResolveIn(civil string, loc *time.Location, d Disambiguation) (time.Time, error) {
	naive, err := parseCivil(civil)
	if err != nil {
		return time.Time{}, err
	}
	return ResolveCivil(naive.Year(), naive.Month(), naive.Day(), naive.Hour(), naive.Minute(), naive.Second(), loc, d)
}

// ParseDate parses a civil date string ("2006-01-02") into its components.
func ParseDate(civil string) (year int, month time.Month, day int, err error) {
	t, perr := time.Parse(layoutDate, civil)
	if perr != nil {
		return 0, 0, 0, fmt.Errorf("%w: %q (expected %q)", ErrTimeParse, civil, layoutDate)
	}
	return t.Year(), t.Month(), t.Day(), nil
}

func parseCivil(civil string) (time.Time, error) {
	if t, err := time.Parse(layoutSpace, civil); err == nil {
		return t, nil
	}
	if t, err := time.Parse(layoutT, civil); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q (expected %q or %q)", ErrTimeParse, civil, layoutSpace, layoutT)
}

// ResolveCivil maps civil date-time components onto an absolute instant in
// loc. A zone transition can make the civil time ambiguous (two instants
// share the same wall clock) or non-existent (the wall clock skips it); the
// disambiguation mode decides the outcome per its documentation.
func ResolveCivil(year int, month time.Month, day, hour, min, sec int, loc *time.Location, d Disambiguation) (time.Time, error) {
	guess := time.Date(year, month, day, hour, min, sec, 0, loc)
	naiveUTC := time.Date(year, month, day, hour, min, sec, 0, time.UTC)

	// Collect every instant whose wall clock in loc matches the requested
	// civil time. Probing the offsets in effect half a day either side of
	// the guess covers both sides of any single transition.
	var candidates []time.Time
	for _, probe := range []time.Time{guess.Add(-12 * time.Hour), guess, guess.Add(12 * time.Hour)} {
		_, offset := probe.In(loc).Zone()
		candidate := naiveUTC.Add(-time.Duration(offset) * time.Second).In(loc)
		if matchesWall(candidate, year, month, day, hour, min, sec) && !containsInstant(candidates, candidate) {
			candidates = append(candidates, candidate)
		}
	}

	switch len(candidates) {
	case 0:
		// Spring-forward gap: the civil time never happened.
		if d == Strict {
			return time.Time{}, fmt.Errorf("%w: %04d-%02d-%02d %02d:%02d:%02d does not exist in %s",
				ErrInvalidLocalTime, year, month, day, hour, min, sec, loc)
		}
		// time.Date already shifted the wall clock past the gap.
		return guess, nil
	case 1:
		return candidates[0], nil
	default:
		if candidates[1].Before(candidates[0]) {
			candidates[0], candidates[1] = candidates[1], candidates[0]
		}
		if d == Latest {
			return candidates[1], nil
		}
		return candidates[0], nil
	}
}

func matchesWall(t time.Time, year int, month time.Month, day, hour, min, sec int) bool {
	y, m, d := t.Date()
	h, mi, s := t.Clock()
	return y == year && m == month && d == day && h == hour && mi == min && s == sec
}

func containsInstant(ts []time.Time, t time.Time) bool {
	for _, existing := range ts {
		if existing.Equal(t) {
			return true
		}
	}
	return false
}

// StartOfDay returns the first instant of the civil day containing t,
// rendered in t's own zone. Earliest disambiguation keeps the result at the
// real beginning of the day even when midnight falls inside a transition.
func StartOfDay(t time.Time) (time.Time, error) {
	year, month, day := t.Date()
	return ResolveCivil(year, month, day, 0, 0, 0, t.Location(), Earliest)
}

// EndOfDay returns the last labeled second (23:59:59) of the civil day
// containing t. Latest disambiguation guarantees the window stays inclusive
// across a fall-back transition.
func EndOfDay(t time.Time) (time.Time, error) {
	year, month, day := t.Date()
	return ResolveCivil(year, month, day, 23, 59, 59, t.Location(), Latest)
}

// Convert re-renders an instant in another zone. The absolute point in time
// is unchanged.
func Convert(t time.Time, loc *time.Location) time.Time {
	return t.In(loc)
}

// IsDST reports whether the instant falls within daylight saving time in
// its own zone.
func IsDST(t time.Time) bool {
	return t.IsDST()
}

// SameCivilDate reports whether two instants share a civil calendar date,
// each rendered in its own zone. Used for exception-date matching, which is
// deliberately zone-insensitive.
func SameCivilDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
