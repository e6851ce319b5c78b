package schedule

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	str2duration "github.com/xhit/go-str2duration/v2"

	"github.com/tempora/tempora/internal/rest"
	"github.com/tempora/tempora/pkg/calendar"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service}
}

type GapDTO struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Duration string    `json:"duration"`
	Before   string    `json:"before,omitempty"`
	After    string    `json:"after,omitempty"`
}

type OverlapDTO struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Duration string    `json:"duration"`
	Events   []string  `json:"events"`
}

type DensityDTO struct {
	WindowDuration   string  `json:"windowDuration"`
	BusyDuration     string  `json:"busyDuration"`
	FreeDuration     string  `json:"freeDuration"`
	OccupancyPercent float64 `json:"occupancyPercent"`
	OccurrenceCount  int     `json:"occurrenceCount"`
	GapCount         int     `json:"gapCount"`
	OverlapCount     int     `json:"overlapCount"`
	Busy             bool    `json:"busy"`
	Light            bool    `json:"light"`
	Conflicts        bool    `json:"conflicts"`
}

type AvailabilityDTO struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Available bool      `json:"available"`
}

func (h *Handler) GetGaps(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	from, to, ok := windowParams(w, r)
	if !ok {
		return
	}
	minDuration, ok := durationParam(w, r, "minDuration", 0)
	if !ok {
		return
	}

	gaps, err := h.service.Gaps(name, from, to, minDuration)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, gapsToDTOs(gaps))
}

func (h *Handler) GetLongestGap(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	from, to, ok := windowParams(w, r)
	if !ok {
		return
	}

	gap, err := h.service.LongestGap(name, from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if gap == nil {
		rest.WriteError(w, http.StatusNotFound, "No free time in the requested window", "")
		return
	}
	rest.WriteJSON(w, http.StatusOK, gapToDTO(*gap))
}

func (h *Handler) GetOverlaps(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	from, to, ok := windowParams(w, r)
	if !ok {
		return
	}

	overlaps, err := h.service.Overlaps(name, from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	dtos := make([]OverlapDTO, 0, len(overlaps))
	for _, o := range overlaps {
		dtos = append(dtos, OverlapDTO{
			Start:    o.Start,
			End:      o.End,
			Duration: o.Duration.String(),
			Events:   o.Events,
		})
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetDensity(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	from, to, ok := windowParams(w, r)
	if !ok {
		return
	}

	density, err := h.service.Density(name, from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, DensityDTO{
		WindowDuration:   density.WindowDuration.String(),
		BusyDuration:     density.BusyDuration.String(),
		FreeDuration:     density.FreeDuration.String(),
		OccupancyPercent: density.OccupancyPercent,
		OccurrenceCount:  density.OccurrenceCount,
		GapCount:         density.GapCount,
		OverlapCount:     density.OverlapCount,
		Busy:             density.IsBusy(),
		Light:            density.IsLight(),
		Conflicts:        density.HasConflicts(),
	})
}

func (h *Handler) GetAvailableSlots(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	from, to, ok := windowParams(w, r)
	if !ok {
		return
	}
	duration, ok := requiredDurationParam(w, r, "duration")
	if !ok {
		return
	}

	slots, err := h.service.AvailableSlots(name, from, to, duration)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, gapsToDTOs(slots))
}

func (h *Handler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	query := r.URL.Query()

	start, err := time.Parse(time.RFC3339, query.Get("start"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid start format", "'start' must be in RFC3339 format")
		return
	}
	end, err := time.Parse(time.RFC3339, query.Get("end"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid end format", "'end' must be in RFC3339 format")
		return
	}
	if !end.After(start) {
		rest.WriteError(w, http.StatusBadRequest, "Invalid slot", "'end' must be after 'start'")
		return
	}

	available, err := h.service.SlotAvailable(name, start, end)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, AvailabilityDTO{Start: start, End: end, Available: available})
}

func (h *Handler) GetSuggestions(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	query := r.URL.Query()

	var desired time.Time
	if raw := query.Get("desired"); raw != "" {
		var err error
		desired, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			rest.WriteError(w, http.StatusBadRequest, "Invalid desired format", "'desired' must be in RFC3339 format")
			return
		}
	}
	duration, ok := requiredDurationParam(w, r, "duration")
	if !ok {
		return
	}
	window, ok := durationParam(w, r, "window", 24*time.Hour)
	if !ok {
		return
	}
	limit := 5
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			rest.WriteError(w, http.StatusBadRequest, "Invalid limit", "'limit' must be a positive integer")
			return
		}
		limit = parsed
	}

	suggestions, err := h.service.Alternatives(name, desired, duration, window, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if suggestions == nil {
		suggestions = []time.Time{}
	}
	rest.WriteJSON(w, http.StatusOK, suggestions)
}

func windowParams(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	query := r.URL.Query()
	from, err := time.Parse(time.RFC3339, query.Get("from"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid from (date) format", "'from' must be in RFC3339 format")
		return time.Time{}, time.Time{}, false
	}
	to, err := time.Parse(time.RFC3339, query.Get("to"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid to (date) format", "'to' must be in RFC3339 format")
		return time.Time{}, time.Time{}, false
	}
	if !to.After(from) {
		rest.WriteError(w, http.StatusBadRequest, "Invalid window", "'to' must be after 'from'")
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func durationParam(w http.ResponseWriter, r *http.Request, key string, fallback time.Duration) (time.Duration, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, true
	}
	d, err := str2duration.ParseDuration(raw)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid "+key+" format", "'"+key+"' must be a duration like 30m or 1h30m")
		return 0, false
	}
	return d, true
}

func requiredDurationParam(w http.ResponseWriter, r *http.Request, key string) (time.Duration, bool) {
	if r.URL.Query().Get(key) == "" {
		rest.WriteError(w, http.StatusBadRequest, "Missing "+key, "'"+key+"' is required")
		return 0, false
	}
	return durationParam(w, r, key, 0)
}

func gapsToDTOs(gaps []Gap) []GapDTO {
	dtos := make([]GapDTO, 0, len(gaps))
	for _, gap := range gaps {
		dtos = append(dtos, gapToDTO(gap))
	}
	return dtos
}

func gapToDTO(gap Gap) GapDTO {
	return GapDTO{
		Start:    gap.Start,
		End:      gap.End,
		Duration: gap.Duration.String(),
		Before:   gap.Before,
		After:    gap.After,
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, calendar.ErrCalendarNotFound):
		rest.WriteError(w, http.StatusNotFound, err.Error(), "")
	default:
		log.Errorf("internal error: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, err.Error(), "")
	}
}
