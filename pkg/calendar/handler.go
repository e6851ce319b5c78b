package calendar

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/tempora/tempora/internal/rest"
	"github.com/tempora/tempora/pkg/event"
	"github.com/tempora/tempora/pkg/recurrence"
	"github.com/tempora/tempora/pkg/timezone"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service}
}

func (h *Handler) CreateCalendar(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Timezone    string `json:"timezone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", "")
		return
	}
	if req.Name == "" {
		rest.WriteError(w, http.StatusBadRequest, "Calendar name is required", "")
		return
	}

	info, err := h.service.Create(req.Name, req.Description, req.Timezone)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, infoToDTO(info))
}

func (h *Handler) ListCalendars(w http.ResponseWriter, r *http.Request) {
	infos := h.service.List()
	dtos := make([]CalendarDTO, 0, len(infos))
	for _, info := range infos {
		dtos = append(dtos, infoToDTO(info))
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	info, err := h.service.GetInfo(name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, infoToDTO(info))
}

func (h *Handler) DeleteCalendar(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := h.service.Delete(name); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var req EventCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", "")
		return
	}

	cfg, err := req.toConfig()
	if err != nil {
		writeServiceError(w, err)
		return
	}

	index, e, err := h.service.AddEvent(name, cfg)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusCreated, eventToDTO(index, e))
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	titleQuery := r.URL.Query().Get("title")

	var dtos []EventDTO
	err := h.service.WithCalendar(name, func(cal *Calendar) error {
		if titleQuery != "" {
			for _, index := range cal.FindByTitle(titleQuery) {
				e, _ := cal.Event(index)
				dtos = append(dtos, eventToDTO(index, e))
			}
			return nil
		}
		for index, e := range cal.Events() {
			dtos = append(dtos, eventToDTO(index, e))
		}
		return nil
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if dtos == nil {
		dtos = []EventDTO{}
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

func (h *Handler) UpdateEventStatus(w http.ResponseWriter, r *http.Request) {
	name, index, ok := eventPath(w, r)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", "")
		return
	}
	status, err := event.ParseStatus(req.Status)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid status", err.Error())
		return
	}

	e, err := h.service.UpdateEventStatus(name, index, status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, eventToDTO(index, e))
}

func (h *Handler) RescheduleEvent(w http.ResponseWriter, r *http.Request) {
	name, index, ok := eventPath(w, r)
	if !ok {
		return
	}

	var req struct {
		Start string `json:"start"`
		End   string `json:"end"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", "")
		return
	}

	newStart, err := time.Parse(time.RFC3339, req.Start)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid start format", "'start' must be in RFC3339 format")
		return
	}
	newEnd, err := time.Parse(time.RFC3339, req.End)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid end format", "'end' must be in RFC3339 format")
		return
	}

	e, err := h.service.RescheduleEvent(name, index, newStart, newEnd)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, eventToDTO(index, e))
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	name, index, ok := eventPath(w, r)
	if !ok {
		return
	}
	if err := h.service.RemoveEvent(name, index); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetOccurrences expands the calendar over a window given either as
// from/to RFC3339 instants or as a civil date plus timezone.
func (h *Handler) GetOccurrences(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	query := r.URL.Query()

	var dtos []OccurrenceDTO

	if date := query.Get("date"); date != "" {
		zoneName := query.Get("timezone")
		if zoneName == "" {
			zoneName = "UTC"
		}
		anchor, err := timezone.Resolve(date+" 12:00:00", zoneName, timezone.Earliest)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		err = h.service.WithCalendar(name, func(cal *Calendar) error {
			occurrences, err := cal.EventsOnDate(anchor)
			if err != nil {
				return err
			}
			dtos = occurrencesToDTOs(occurrences)
			return nil
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		rest.WriteJSON(w, http.StatusOK, dtos)
		return
	}

	from, err := time.Parse(time.RFC3339, query.Get("from"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid from (date) format", "'from' must be in RFC3339 format")
		return
	}
	to, err := time.Parse(time.RFC3339, query.Get("to"))
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid to (date) format", "'to' must be in RFC3339 format")
		return
	}

	err = h.service.WithCalendar(name, func(cal *Calendar) error {
		occurrences, err := cal.EventsBetween(from, to)
		if err != nil {
			return err
		}
		dtos = occurrencesToDTOs(occurrences)
		return nil
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, dtos)
}

func occurrencesToDTOs(occurrences []Occurrence) []OccurrenceDTO {
	dtos := make([]OccurrenceDTO, 0, len(occurrences))
	for _, o := range occurrences {
		dtos = append(dtos, occurrenceToDTO(o))
	}
	return dtos
}

func infoToDTO(info Info) CalendarDTO {
	return CalendarDTO{
		Name:        info.Name,
		Description: info.Description,
		Timezone:    info.Timezone,
		EventCount:  info.EventCount,
	}
}

func eventPath(w http.ResponseWriter, r *http.Request) (string, int, bool) {
	vars := mux.Vars(r)
	index, err := strconv.Atoi(vars["index"])
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid event index", "")
		return "", 0, false
	}
	return vars["name"], index, true
}

// writeServiceError maps domain errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrCalendarNotFound), errors.Is(err, ErrEventNotFound):
		rest.WriteError(w, http.StatusNotFound, err.Error(), "")
	case errors.Is(err, ErrCalendarExists):
		rest.WriteError(w, http.StatusConflict, err.Error(), "")
	case errors.Is(err, event.ErrValidation),
		errors.Is(err, timezone.ErrTimeParse),
		errors.Is(err, timezone.ErrInvalidTimezone),
		errors.Is(err, timezone.ErrInvalidLocalTime),
		errors.Is(err, recurrence.ErrUnsupportedFrequency),
		errors.Is(err, recurrence.ErrInvalidRule):
		rest.WriteError(w, http.StatusBadRequest, err.Error(), "")
	default:
		log.Errorf("internal error: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, err.Error(), "")
	}
}
