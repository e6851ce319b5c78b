package app

import (
	"github.com/tempora/tempora/internal/config"
	"github.com/tempora/tempora/internal/utils"
	"github.com/tempora/tempora/pkg/calendar"
	"github.com/tempora/tempora/pkg/ics"
	"github.com/tempora/tempora/pkg/schedule"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	CalendarService *calendar.Service
	CalendarHandler *calendar.Handler

	ScheduleService *schedule.Service
	ScheduleHandler *schedule.Handler

	ICSHandler *ics.Handler

	Clock utils.Clock
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(cfg config.Application) *Dependencies {
	deps := &Dependencies{}

	deps.Clock = &utils.SystemClock{}

	deps.CalendarService = calendar.NewService()
	deps.CalendarService.SetDefaultTimezone(cfg.Calendar.DefaultTimezone)
	deps.CalendarHandler = calendar.NewHandler(deps.CalendarService)

	deps.ScheduleService = schedule.NewService(deps.CalendarService, deps.Clock)
	deps.ScheduleHandler = schedule.NewHandler(deps.ScheduleService)

	deps.ICSHandler = ics.NewHandler(deps.CalendarService)

	return deps
}
