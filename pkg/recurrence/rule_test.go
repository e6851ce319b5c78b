package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLocation(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func TestDailyOccurrences(t *testing.T) {
	anchor := time.Date(2025, time.November, 1, 10, 0, 0, 0, time.UTC)

	t.Run("count bounds the sequence", func(t *testing.T) {
		for _, n := range []int{1, 2, 7, 30, 99} {
			rule := Rule{Frequency: Daily, Interval: 1, Count: n}
			occurrences, err := rule.Occurrences(anchor, 1000)
			require.NoError(t, err)
			require.Len(t, occurrences, n)

			assert.True(t, occurrences[0].Equal(anchor))
			for i := 1; i < len(occurrences); i++ {
				assert.Equal(t, 24*time.Hour, occurrences[i].Sub(occurrences[i-1]))
			}
		}
	})

	t.Run("cap bounds an unterminated rule", func(t *testing.T) {
		rule := Rule{Frequency: Daily, Interval: 1}
		occurrences, err := rule.Occurrences(anchor, 50)
		require.NoError(t, err)
		assert.Len(t, occurrences, 50)
	})

	t.Run("cap wins over a larger count", func(t *testing.T) {
		rule := Rule{Frequency: Daily, Interval: 1, Count: 500}
		occurrences, err := rule.Occurrences(anchor, 10)
		require.NoError(t, err)
		assert.Len(t, occurrences, 10)
	})

	t.Run("interval scales the step", func(t *testing.T) {
		rule := Rule{Frequency: Daily, Interval: 3, Count: 5}
		occurrences, err := rule.Occurrences(anchor, 100)
		require.NoError(t, err)
		require.Len(t, occurrences, 5)
		for i := 1; i < len(occurrences); i++ {
			assert.Equal(t, 72*time.Hour, occurrences[i].Sub(occurrences[i-1]))
		}
	})
}

func TestWeeklyOccurrences(t *testing.T) {
	anchor := time.Date(2025, time.November, 3, 9, 0, 0, 0, time.UTC)

	for _, interval := range []int{1, 2, 13, 51} {
		rule := Rule{Frequency: Weekly, Interval: interval, Count: 4}
		occurrences, err := rule.Occurrences(anchor, 100)
		require.NoError(t, err)
		require.Len(t, occurrences, 4)

		expectedDelta := time.Duration(7*interval) * 24 * time.Hour
		for i := 1; i < len(occurrences); i++ {
			assert.Equal(t, expectedDelta, occurrences[i].Sub(occurrences[i-1]))
			assert.Equal(t, anchor.Weekday(), occurrences[i].Weekday())
		}
	}
}

func TestDailyAcrossFallBackPreservesWallClock(t *testing.T) {
	ny := mustLocation(t, "America/New_York")
	// Nov 2 2025 is the fall-back day: clocks repeat 01:00-02:00.
	anchor := time.Date(2025, time.November, 1, 9, 0, 0, 0, ny)

	rule := Rule{Frequency: Daily, Interval: 1, Count: 3}
	occurrences, err := rule.Occurrences(anchor, 10)
	require.NoError(t, err)
	require.Len(t, occurrences, 3)

	for _, occ := range occurrences {
		assert.Equal(t, 9, occ.Hour(), "wall clock must be preserved")
	}
	// Crossing the transition adds the repeated hour.
	assert.Equal(t, 25*time.Hour, occurrences[1].Sub(occurrences[0]))
	assert.Equal(t, 24*time.Hour, occurrences[2].Sub(occurrences[1]))
}

func TestDailyAcrossSpringForwardPreservesWallClock(t *testing.T) {
	ny := mustLocation(t, "America/New_York")
	// Mar 8 2026 is the spring-forward day: clocks skip 02:00-03:00.
	anchor := time.Date(2026, time.March, 7, 9, 0, 0, 0, ny)

	rule := Rule{Frequency: Daily, Interval: 1, Count: 2}
	occurrences, err := rule.Occurrences(anchor, 10)
	require.NoError(t, err)
	require.Len(t, occurrences, 2)

	assert.Equal(t, 9, occurrences[1].Hour())
	assert.Equal(t, 23*time.Hour, occurrences[1].Sub(occurrences[0]))
}

func TestMonthlyOccurrences(t *testing.T) {
	t.Run("preserves day of month and time", func(t *testing.T) {
		anchor := time.Date(2025, time.January, 15, 14, 30, 0, 0, time.UTC)
		rule := Rule{Frequency: Monthly, Interval: 1, Count: 6}
		occurrences, err := rule.Occurrences(anchor, 100)
		require.NoError(t, err)
		require.Len(t, occurrences, 6)
		for i, occ := range occurrences {
			assert.Equal(t, 15, occ.Day())
			assert.Equal(t, 14, occ.Hour())
			assert.Equal(t, time.Month(1+i), occ.Month())
		}
	})

	t.Run("carries the year past December", func(t *testing.T) {
		anchor := time.Date(2025, time.November, 10, 8, 0, 0, 0, time.UTC)
		rule := Rule{Frequency: Monthly, Interval: 1, Count: 4}
		occurrences, err := rule.Occurrences(anchor, 100)
		require.NoError(t, err)
		require.Len(t, occurrences, 4)
		assert.Equal(t, time.January, occurrences[2].Month())
		assert.Equal(t, 2026, occurrences[2].Year())
	})

	t.Run("stops early when the day does not exist", func(t *testing.T) {
		// Jan 31 + 1 month would be Feb 31: generation ends, no clamping.
		anchor := time.Date(2025, time.January, 31, 10, 0, 0, 0, time.UTC)
		rule := Rule{Frequency: Monthly, Interval: 1, Count: 12}
		occurrences, err := rule.Occurrences(anchor, 100)
		require.NoError(t, err)
		assert.Len(t, occurrences, 1)
	})

	t.Run("interval can step over short months", func(t *testing.T) {
		// Jan 31 + 2 months = Mar 31: valid.
		anchor := time.Date(2025, time.January, 31, 10, 0, 0, 0, time.UTC)
		rule := Rule{Frequency: Monthly, Interval: 2, Count: 3}
		occurrences, err := rule.Occurrences(anchor, 100)
		require.NoError(t, err)
		require.Len(t, occurrences, 3)
		assert.Equal(t, time.March, occurrences[1].Month())
		assert.Equal(t, time.May, occurrences[2].Month())
	})
}

func TestYearlyOccurrences(t *testing.T) {
	t.Run("preserves the civil date", func(t *testing.T) {
		anchor := time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)
		rule := Rule{Frequency: Yearly, Interval: 1, Count: 3}
		occurrences, err := rule.Occurrences(anchor, 100)
		require.NoError(t, err)
		require.Len(t, occurrences, 3)
		assert.Equal(t, 2027, occurrences[2].Year())
		assert.Equal(t, time.June, occurrences[2].Month())
		assert.Equal(t, 10, occurrences[2].Day())
	})

	t.Run("stops on Feb 29 landing in a non leap year", func(t *testing.T) {
		anchor := time.Date(2024, time.February, 29, 9, 0, 0, 0, time.UTC)
		rule := Rule{Frequency: Yearly, Interval: 1, Count: 5}
		occurrences, err := rule.Occurrences(anchor, 100)
		require.NoError(t, err)
		assert.Len(t, occurrences, 1)
	})

	t.Run("leap aligned interval keeps going", func(t *testing.T) {
		anchor := time.Date(2024, time.February, 29, 9, 0, 0, 0, time.UTC)
		rule := Rule{Frequency: Yearly, Interval: 4, Count: 3}
		occurrences, err := rule.Occurrences(anchor, 100)
		require.NoError(t, err)
		require.Len(t, occurrences, 3)
		assert.Equal(t, 2032, occurrences[2].Year())
	})
}

func TestUntilTerminator(t *testing.T) {
	anchor := time.Date(2025, time.November, 1, 10, 0, 0, 0, time.UTC)

	t.Run("occurrence exactly at until is included", func(t *testing.T) {
		until := anchor.Add(3 * 24 * time.Hour)
		rule := Rule{Frequency: Daily, Interval: 1, Until: &until}
		occurrences, err := rule.Occurrences(anchor, 100)
		require.NoError(t, err)
		require.Len(t, occurrences, 4)
		assert.True(t, occurrences[3].Equal(until))
	})

	t.Run("occurrence past until is dropped", func(t *testing.T) {
		until := anchor.Add(3*24*time.Hour - time.Minute)
		rule := Rule{Frequency: Daily, Interval: 1, Until: &until}
		occurrences, err := rule.Occurrences(anchor, 100)
		require.NoError(t, err)
		assert.Len(t, occurrences, 3)
	})
}

func TestRuleValidation(t *testing.T) {
	anchor := time.Date(2025, time.November, 1, 10, 0, 0, 0, time.UTC)

	t.Run("unsupported frequency", func(t *testing.T) {
		rule := Rule{Frequency: Frequency(42), Interval: 1}
		_, err := rule.Occurrences(anchor, 10)
		assert.ErrorIs(t, err, ErrUnsupportedFrequency)
	})

	t.Run("zero interval", func(t *testing.T) {
		rule := Rule{Frequency: Daily, Interval: 0}
		_, err := rule.Occurrences(anchor, 10)
		assert.ErrorIs(t, err, ErrInvalidRule)
	})

	t.Run("non positive cap", func(t *testing.T) {
		rule := Rule{Frequency: Daily, Interval: 1}
		_, err := rule.Occurrences(anchor, 0)
		assert.ErrorIs(t, err, ErrInvalidRule)
	})
}

func TestParseFrequency(t *testing.T) {
	for name, want := range map[string]Frequency{
		"daily": Daily, "WEEKLY": Weekly, "monthly": Monthly, "YEARLY": Yearly,
	} {
		got, err := ParseFrequency(name)
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseFrequency("hourly")
	assert.ErrorIs(t, err, ErrUnsupportedFrequency)
}
