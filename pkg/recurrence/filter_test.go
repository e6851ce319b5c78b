package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterSkipWeekends(t *testing.T) {
	filter := &Filter{SkipWeekends: true}

	saturday := time.Date(2025, time.November, 1, 10, 0, 0, 0, time.UTC)
	sunday := time.Date(2025, time.November, 2, 10, 0, 0, 0, time.UTC)
	monday := time.Date(2025, time.November, 3, 10, 0, 0, 0, time.UTC)

	assert.True(t, filter.ShouldSkip(saturday))
	assert.True(t, filter.ShouldSkip(sunday))
	assert.False(t, filter.ShouldSkip(monday))
}

func TestFilterSkipDates(t *testing.T) {
	// The stored skip entry carries a different time-of-day and zone than
	// the occurrence; only the civil date is compared.
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	filter := &Filter{SkipDates: []time.Time{
		time.Date(2025, time.November, 5, 23, 59, 0, 0, tokyo),
	}}

	sameDate := time.Date(2025, time.November, 5, 8, 0, 0, 0, time.UTC)
	otherDate := time.Date(2025, time.November, 6, 8, 0, 0, 0, time.UTC)

	assert.True(t, filter.ShouldSkip(sameDate))
	assert.False(t, filter.ShouldSkip(otherDate))
}

func TestFilterApplyPreservesOrder(t *testing.T) {
	filter := &Filter{SkipWeekends: true}

	// Fri Oct 31 through Tue Nov 4.
	var sequence []time.Time
	for day := 31; day <= 35; day++ {
		sequence = append(sequence, time.Date(2025, time.October, day, 9, 0, 0, 0, time.UTC))
	}

	kept := filter.Apply(sequence)
	require.Len(t, kept, 3)
	assert.Equal(t, time.Friday, kept[0].Weekday())
	assert.Equal(t, time.Monday, kept[1].Weekday())
	assert.Equal(t, time.Tuesday, kept[2].Weekday())
	assert.True(t, kept[0].Before(kept[1]))
}

func TestZeroFilterSkipsNothing(t *testing.T) {
	filter := &Filter{}
	saturday := time.Date(2025, time.November, 1, 10, 0, 0, 0, time.UTC)
	assert.False(t, filter.ShouldSkip(saturday))
}
