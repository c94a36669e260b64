package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Deps bundles every resource handler the router wires.
type Deps struct {
	Shift      *ShiftHandler
	Attendance *AttendanceHandler
	Timesheet  *TimesheetHandler
	Audit      *AuditHandler
	JWTSecret  string
}

// NewRouter builds the chi router serving every dispatch, timesheet and
// audit route, with the standard middleware stack (request id, request
// logging, panic recovery, and a fixed request timeout).
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(d.JWTSecret))

		r.Route("/dispatch", func(r chi.Router) {
			r.Route("/projects/{pid}/shifts", func(r chi.Router) {
				r.Post("/", d.Shift.Create)
				r.Get("/", d.Shift.ListByProject)
			})
			r.Post("/shifts/without-project", d.Shift.Create)
			r.Get("/shifts", d.Shift.ListGlobal)
			r.Route("/shifts/{id}", func(r chi.Router) {
				r.Get("/", d.Shift.Get)
				r.Patch("/", d.Shift.Update)
				r.Delete("/", d.Shift.Delete)
				r.Get("/attendance", d.Attendance.ListForShift)
			})

			r.Route("/attendance", func(r chi.Router) {
				r.Post("/", d.Attendance.Clock)
				r.Post("/supervisor", d.Attendance.ClockSupervisor)
				r.Post("/direct", d.Attendance.ClockDirect)
				r.Get("/direct/{date}", d.Attendance.ListDirectByDate)
				r.Get("/weekly-summary", d.Timesheet.Summary)
				r.Get("/pending", d.Attendance.ListPending)
				r.Post("/{id}/approve", d.Attendance.Approve)
				r.Post("/{id}/reject", d.Attendance.Reject)
				r.Patch("/{id}", d.Attendance.Update)
			})
		})

		r.Route("/projects", func(r chi.Router) {
			r.Get("/timesheet/summary", d.Timesheet.Summary)
			r.Get("/timesheet/user", d.Timesheet.User)
			r.Get("/{pid}/audit-logs", d.Audit.Timeline)
			r.Route("/{pid}/timesheet", func(r chi.Router) {
				r.Get("/", d.Timesheet.List)
				r.Post("/", d.Timesheet.Create)
				r.Patch("/{id}", d.Timesheet.Update)
				r.Delete("/{id}", d.Timesheet.Delete)
				r.Patch("/{id}/approve", d.Timesheet.Approve)
				r.Get("/{id}/logs", d.Timesheet.Logs)
			})
		})
	})

	return r
}
