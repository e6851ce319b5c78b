package ics

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/tempora/tempora/internal/rest"
	"github.com/tempora/tempora/pkg/calendar"
)

type Handler struct {
	service *calendar.Service
}

func NewHandler(service *calendar.Service) *Handler {
	return &Handler{service}
}

// ExportCalendar streams a calendar as text/calendar.
func (h *Handler) ExportCalendar(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	// Serialize into a buffer first so a failure can still produce a
	// clean error response.
	var buf bytes.Buffer
	err := h.service.WithCalendar(name, func(cal *calendar.Calendar) error {
		return Export(cal, &buf)
	})
	if err != nil {
		if errors.Is(err, calendar.ErrCalendarNotFound) {
			rest.WriteError(w, http.StatusNotFound, err.Error(), "")
			return
		}
		log.Errorf("ICS export failed: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Failed to export calendar", "")
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+name+".ics\"")
	if _, err := buf.WriteTo(w); err != nil {
		log.Errorf("failed to write ICS response: %v", err)
	}
}

// ImportCalendar parses a text/calendar body into a new named calendar.
func (h *Handler) ImportCalendar(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		rest.WriteError(w, http.StatusBadRequest, "Calendar name is required", "pass ?name=<calendar>")
		return
	}

	cal, err := Import(name, r.Body)
	if err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid iCalendar payload", err.Error())
		return
	}

	if err := h.service.Register(cal); err != nil {
		if errors.Is(err, calendar.ErrCalendarExists) {
			rest.WriteError(w, http.StatusConflict, err.Error(), "")
			return
		}
		log.Errorf("ICS import failed: %v", err)
		rest.WriteError(w, http.StatusInternalServerError, "Failed to import calendar", "")
		return
	}

	rest.WriteJSON(w, http.StatusCreated, map[string]any{
		"name":       cal.Name,
		"eventCount": cal.Len(),
	})
}
