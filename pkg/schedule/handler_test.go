package schedule

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tempora/tempora/internal/utils"
	"github.com/tempora/tempora/pkg/calendar"
	"github.com/tempora/tempora/pkg/event"
)

// Test setup helper
func setupHandlerTest(t *testing.T) *Handler {
	t.Helper()
	calendars := calendar.NewService()
	_, err := calendars.Create("work", "", "UTC")
	require.NoError(t, err)

	for _, tc := range []struct {
		title string
		start string
		d     time.Duration
	}{
		{"Standup", "2025-11-03 09:00:00", 15 * time.Minute},
		{"Lunch", "2025-11-03 11:00:00", time.Hour},
	} {
		_, _, err := calendars.AddEvent("work", event.Config{
			Title:    tc.title,
			Timezone: "UTC",
			Start:    tc.start,
			Duration: tc.d,
		})
		require.NoError(t, err)
	}

	clock := &utils.MockClock{FixedNow: time.Date(2025, time.November, 3, 12, 0, 0, 0, time.UTC)}
	return NewHandler(NewService(calendars, clock))
}

func get(t *testing.T, handler http.HandlerFunc, target string, vars map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

var workVars = map[string]string{"name": "work"}

func TestGetGaps(t *testing.T) {
	handler := setupHandlerTest(t)

	w := get(t, handler.GetGaps, "/calendar/work/schedule/gaps?from=2025-11-03T08:00:00Z&to=2025-11-03T18:00:00Z&minDuration=30m", workVars)
	assert.Equal(t, http.StatusOK, w.Code)

	var dtos []GapDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&dtos))
	require.Len(t, dtos, 3)
	assert.Equal(t, "1h0m0s", dtos[0].Duration)
	assert.Equal(t, "Standup", dtos[0].After)
	assert.Equal(t, "1h45m0s", dtos[1].Duration)
	assert.Equal(t, "6h0m0s", dtos[2].Duration)
	assert.Equal(t, "Lunch", dtos[2].Before)

	t.Run("invalid minDuration", func(t *testing.T) {
		w := get(t, handler.GetGaps, "/calendar/work/schedule/gaps?from=2025-11-03T08:00:00Z&to=2025-11-03T18:00:00Z&minDuration=soon", workVars)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("inverted window", func(t *testing.T) {
		w := get(t, handler.GetGaps, "/calendar/work/schedule/gaps?from=2025-11-03T18:00:00Z&to=2025-11-03T08:00:00Z", workVars)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown calendar", func(t *testing.T) {
		w := get(t, handler.GetGaps, "/calendar/missing/schedule/gaps?from=2025-11-03T08:00:00Z&to=2025-11-03T18:00:00Z", map[string]string{"name": "missing"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestGetLongestGap(t *testing.T) {
	handler := setupHandlerTest(t)

	w := get(t, handler.GetLongestGap, "/calendar/work/schedule/gaps/longest?from=2025-11-03T08:00:00Z&to=2025-11-03T18:00:00Z", workVars)
	assert.Equal(t, http.StatusOK, w.Code)

	var dto GapDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&dto))
	assert.Equal(t, "6h0m0s", dto.Duration)
}

func TestGetDensity(t *testing.T) {
	handler := setupHandlerTest(t)

	w := get(t, handler.GetDensity, "/calendar/work/schedule/density?from=2025-11-03T08:00:00Z&to=2025-11-03T18:00:00Z", workVars)
	assert.Equal(t, http.StatusOK, w.Code)

	var dto DensityDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&dto))
	assert.Equal(t, "10h0m0s", dto.WindowDuration)
	assert.Equal(t, "1h15m0s", dto.BusyDuration)
	assert.InDelta(t, 12.5, dto.OccupancyPercent, 0.001)
	assert.Equal(t, 2, dto.OccurrenceCount)
	assert.True(t, dto.Light)
	assert.False(t, dto.Busy)
	assert.False(t, dto.Conflicts)
}

func TestGetAvailableSlots(t *testing.T) {
	handler := setupHandlerTest(t)

	w := get(t, handler.GetAvailableSlots, "/calendar/work/schedule/slots?from=2025-11-03T08:00:00Z&to=2025-11-03T18:00:00Z&duration=2h", workVars)
	assert.Equal(t, http.StatusOK, w.Code)

	var dtos []GapDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&dtos))
	require.Len(t, dtos, 1)
	assert.Equal(t, "6h0m0s", dtos[0].Duration)

	t.Run("duration is required", func(t *testing.T) {
		w := get(t, handler.GetAvailableSlots, "/calendar/work/schedule/slots?from=2025-11-03T08:00:00Z&to=2025-11-03T18:00:00Z", workVars)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCheckAvailability(t *testing.T) {
	handler := setupHandlerTest(t)

	t.Run("free slot", func(t *testing.T) {
		w := get(t, handler.CheckAvailability, "/calendar/work/schedule/availability?start=2025-11-03T14:00:00Z&end=2025-11-03T15:00:00Z", workVars)
		assert.Equal(t, http.StatusOK, w.Code)

		var dto AvailabilityDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&dto))
		assert.True(t, dto.Available)
	})

	t.Run("occupied slot", func(t *testing.T) {
		w := get(t, handler.CheckAvailability, "/calendar/work/schedule/availability?start=2025-11-03T11:30:00Z&end=2025-11-03T12:30:00Z", workVars)
		assert.Equal(t, http.StatusOK, w.Code)

		var dto AvailabilityDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&dto))
		assert.False(t, dto.Available)
	})

	t.Run("inverted slot", func(t *testing.T) {
		w := get(t, handler.CheckAvailability, "/calendar/work/schedule/availability?start=2025-11-03T15:00:00Z&end=2025-11-03T14:00:00Z", workVars)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetSuggestions(t *testing.T) {
	handler := setupHandlerTest(t)

	w := get(t, handler.GetSuggestions, "/calendar/work/schedule/suggestions?desired=2025-11-03T11:00:00Z&duration=1h&window=2h&limit=2", workVars)
	assert.Equal(t, http.StatusOK, w.Code)

	var suggestions []time.Time
	require.NoError(t, json.NewDecoder(w.Body).Decode(&suggestions))
	require.Len(t, suggestions, 2)
	for _, s := range suggestions {
		assert.True(t, s.Before(time.Date(2025, time.November, 3, 11, 0, 0, 0, time.UTC)) ||
			!s.Before(time.Date(2025, time.November, 3, 12, 0, 0, 0, time.UTC)))
	}

	t.Run("desired defaults to the current time", func(t *testing.T) {
		w := get(t, handler.GetSuggestions, "/calendar/work/schedule/suggestions?duration=1h&window=2h", workVars)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("invalid limit", func(t *testing.T) {
		w := get(t, handler.GetSuggestions, "/calendar/work/schedule/suggestions?duration=1h&limit=zero", workVars)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
