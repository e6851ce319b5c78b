package app

import (
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	// Calendars
	r.HandleFunc("/api/calendar", deps.CalendarHandler.ListCalendars).Methods("GET")
	r.HandleFunc("/api/calendar", deps.CalendarHandler.CreateCalendar).Methods("POST")
	r.HandleFunc("/api/calendar/ics", deps.ICSHandler.ImportCalendar).Methods("POST")
	r.HandleFunc("/api/calendar/{name}", deps.CalendarHandler.GetCalendar).Methods("GET")
	r.HandleFunc("/api/calendar/{name}", deps.CalendarHandler.DeleteCalendar).Methods("DELETE")
	r.HandleFunc("/api/calendar/{name}/ics", deps.ICSHandler.ExportCalendar).Methods("GET")

	// Events
	r.HandleFunc("/api/calendar/{name}/event", deps.CalendarHandler.ListEvents).Methods("GET")
	r.HandleFunc("/api/calendar/{name}/event", deps.CalendarHandler.CreateEvent).Methods("POST")
	r.HandleFunc("/api/calendar/{name}/event/{index}", deps.CalendarHandler.DeleteEvent).Methods("DELETE")
	r.HandleFunc("/api/calendar/{name}/event/{index}/status", deps.CalendarHandler.UpdateEventStatus).Methods("PATCH")
	r.HandleFunc("/api/calendar/{name}/event/{index}/reschedule", deps.CalendarHandler.RescheduleEvent).Methods("PATCH")

	// Occurrences
	r.HandleFunc("/api/calendar/{name}/occurrences", deps.CalendarHandler.GetOccurrences).Methods("GET")

	// Schedule analysis
	r.HandleFunc("/api/calendar/{name}/schedule/gaps", deps.ScheduleHandler.GetGaps).Methods("GET")
	r.HandleFunc("/api/calendar/{name}/schedule/gaps/longest", deps.ScheduleHandler.GetLongestGap).Methods("GET")
	r.HandleFunc("/api/calendar/{name}/schedule/overlaps", deps.ScheduleHandler.GetOverlaps).Methods("GET")
	r.HandleFunc("/api/calendar/{name}/schedule/density", deps.ScheduleHandler.GetDensity).Methods("GET")
	r.HandleFunc("/api/calendar/{name}/schedule/slots", deps.ScheduleHandler.GetAvailableSlots).Methods("GET")
	r.HandleFunc("/api/calendar/{name}/schedule/availability", deps.ScheduleHandler.CheckAvailability).Methods("GET")
	r.HandleFunc("/api/calendar/{name}/schedule/suggestions", deps.ScheduleHandler.GetSuggestions).Methods("GET")
}
