package schedule

import (
	"sort"
	"time"

	"github.com/tempora/tempora/pkg/calendar"
)

// Gap is a free interval between scheduled occurrences.
type Gap struct {
	Start    time.Time
	End      time.Time
	Duration time.Duration
	Before   string // title of the occurrence preceding the gap, if any
	After    string // title of the occurrence following the gap, if any
}

// Overlap is an interval where two occurrences run at the same time.
type Overlap struct {
	Start    time.Time
	End      time.Time
	Duration time.Duration
	Events   []string // titles of the two overlapping occurrences
}

// Density summarizes how occupied a window is.
type Density struct {
	WindowDuration   time.Duration
	BusyDuration     time.Duration
	FreeDuration     time.Duration
	OccupancyPercent float64
	OccurrenceCount  int
	GapCount         int
	OverlapCount     int
}

// IsBusy reports occupancy above 60 percent.
func (d Density) IsBusy() bool {
	return d.OccupancyPercent > 60
}

// IsLight reports occupancy below 30 percent.
func (d Density) IsLight() bool {
	return d.OccupancyPercent < 30
}

// HasConflicts reports whether any occurrences overlap within the window.
func (d Density) HasConflicts() bool {
	return d.OverlapCount > 0
}

// activeOccurrences expands the calendar over the window and drops
// occurrences of cancelled events. A cancelled event frees its slot for
// gap and density purposes.
func activeOccurrences(cal *calendar.Calendar, from, to time.Time) ([]calendar.Occurrence, error) {
	all, err := cal.EventsBetween(from, to)
	if err != nil {
		return nil, err
	}
	active := all[:0:0]
	for _, o := range all {
		if o.Event().IsActive() {
			active = append(active, o)
		}
	}
	return active, nil
}

// FindGaps returns the free intervals of at least minDuration between
// occurrences in [from, to]. Occurrences extending past the window edges
// are clipped to it.
func FindGaps(cal *calendar.Calendar, from, to time.Time, minDuration time.Duration) ([]Gap, error) {
	occurrences, err := activeOccurrences(cal, from, to)
	if err != nil {
		return nil, err
	}

	gaps := []Gap{}
	frontier := from
	frontierTitle := ""
	for _, o := range occurrences {
		start := o.Start
		if start.After(frontier) {
			gap := Gap{
				Start:    frontier,
				End:      start,
				Duration: start.Sub(frontier),
				Before:   frontierTitle,
				After:    o.Title(),
			}
			if gap.Duration >= minDuration {
				gaps = append(gaps, gap)
			}
		}
		end := o.End()
		if end.After(frontier) {
			frontier = end
			frontierTitle = o.Title()
		}
	}
	if to.After(frontier) {
		gap := Gap{
			Start:    frontier,
			End:      to,
			Duration: to.Sub(frontier),
			Before:   frontierTitle,
		}
		if gap.Duration >= minDuration {
			gaps = append(gaps, gap)
		}
	}
	return gaps, nil
}

// FindOverlaps reports every pair of occurrences in [from, to] whose
// intervals intersect with positive duration. Three events running at
// once yield three pairwise overlaps.
func FindOverlaps(cal *calendar.Calendar, from, to time.Time) ([]Overlap, error) {
	occurrences, err := activeOccurrences(cal, from, to)
	if err != nil {
		return nil, err
	}

	overlaps := []Overlap{}
	for i := 0; i < len(occurrences); i++ {
		for j := i + 1; j < len(occurrences); j++ {
			a, b := occurrences[i], occurrences[j]
			if a.Start.Before(b.End()) && b.Start.Before(a.End()) {
				start := laterOf(a.Start, b.Start)
				end := earlierOf(a.End(), b.End())
				overlaps = append(overlaps, Overlap{
					Start:    start,
					End:      end,
					Duration: end.Sub(start),
					Events:   []string{a.Title(), b.Title()},
				})
			}
		}
	}
	return overlaps, nil
}

// CalculateDensity measures the occupancy of [from, to]. Busy time sums
// every occurrence clipped to the window, so overlapping occurrences
// count double and occupancy can exceed 100 percent.
func CalculateDensity(cal *calendar.Calendar, from, to time.Time) (Density, error) {
	occurrences, err := activeOccurrences(cal, from, to)
	if err != nil {
		return Density{}, err
	}

	var busy time.Duration
	for _, o := range occurrences {
		start := laterOf(o.Start, from)
		end := earlierOf(o.End(), to)
		if end.After(start) {
			busy += end.Sub(start)
		}
	}

	gaps, err := FindGaps(cal, from, to, 0)
	if err != nil {
		return Density{}, err
	}
	overlaps, err := FindOverlaps(cal, from, to)
	if err != nil {
		return Density{}, err
	}

	window := to.Sub(from)
	density := Density{
		WindowDuration:  window,
		BusyDuration:    busy,
		OccurrenceCount: len(occurrences),
		GapCount:        len(gaps),
		OverlapCount:    len(overlaps),
	}
	if free := window - busy; free > 0 {
		density.FreeDuration = free
	}
	if window > 0 {
		density.OccupancyPercent = float64(busy) / float64(window) * 100
	}
	return density, nil
}

// FindLongestGap returns the largest free interval in [from, to], or nil
// when the window is fully occupied.
func FindLongestGap(cal *calendar.Calendar, from, to time.Time) (*Gap, error) {
	gaps, err := FindGaps(cal, from, to, 0)
	if err != nil {
		return nil, err
	}
	var longest *Gap
	for i := range gaps {
		if longest == nil || gaps[i].Duration > longest.Duration {
			longest = &gaps[i]
		}
	}
	return longest, nil
}

// FindAvailableSlots returns the gaps in [from, to] that can hold an
// event of the given duration.
func FindAvailableSlots(cal *calendar.Calendar, from, to time.Time, duration time.Duration) ([]Gap, error) {
	return FindGaps(cal, from, to, duration)
}

// IsSlotAvailable reports whether [start, end) collides with any active
// occurrence. Touching boundaries do not collide: a slot starting exactly
// when another event ends is available.
func IsSlotAvailable(cal *calendar.Calendar, start, end time.Time) (bool, error) {
	// Widen the expansion window so occurrences that began before the
	// slot but run into it are still seen.
	occurrences, err := activeOccurrences(cal, start.Add(-24*time.Hour), end)
	if err != nil {
		return false, err
	}
	for _, o := range occurrences {
		if o.Start.Before(end) && start.Before(o.End()) {
			return false, nil
		}
	}
	return true, nil
}

// SuggestAlternatives proposes up to limit start times for an event of
// the given duration near the desired start, searching searchWindow in
// both directions. Candidates are gap starts plus hourly steps within
// each gap, sorted by time.
func SuggestAlternatives(cal *calendar.Calendar, desired time.Time, duration, searchWindow time.Duration, limit int) ([]time.Time, error) {
	if limit <= 0 {
		return nil, nil
	}
	from := desired.Add(-searchWindow)
	to := desired.Add(searchWindow)

	gaps, err := FindGaps(cal, from, to, duration)
	if err != nil {
		return nil, err
	}

	var candidates []time.Time
	for _, gap := range gaps {
		for candidate := gap.Start; !candidate.Add(duration).After(gap.End); candidate = candidate.Add(time.Hour) {
			candidates = append(candidates, candidate)
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Before(candidates[j]) })
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

func laterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earlierOf(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
