package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime/types"

	"github.com/fieldops/dispatch/internal/apierr"
	"github.com/fieldops/dispatch/internal/permission"
	"github.com/fieldops/dispatch/internal/registry"
	"github.com/fieldops/dispatch/internal/timesheet"
)

const attendanceEntryPrefix = "attendance_"

// TimesheetHandler serves the `/projects/{pid}/timesheet...` and
// `/projects/timesheet/...` routes.
type TimesheetHandler struct {
	coord  *timesheet.Coordinator
	reader *timesheet.Reader
	users  *registry.UserRegistry
}

func NewTimesheetHandler(coord *timesheet.Coordinator, reader *timesheet.Reader, users *registry.UserRegistry) *TimesheetHandler {
	return &TimesheetHandler{coord: coord, reader: reader, users: users}
}

type timesheetRowResponse struct {
	ID            string  `json:"id"`
	WorkerName    string  `json:"worker_name"`
	WorkDate      string  `json:"work_date"`
	StartTime     *string `json:"start_time,omitempty"`
	EndTime       *string `json:"end_time,omitempty"`
	Minutes       int     `json:"minutes"`
	BreakMinutes  *int    `json:"break_minutes,omitempty"`
	IsApproved    bool    `json:"is_approved"`
	Source        string  `json:"source"`
	ShiftDeleted  bool    `json:"shift_deleted,omitempty"`
	DeletedByName string  `json:"deleted_by_name,omitempty"`
}

func toRowResponse(r timesheet.Row) timesheetRowResponse {
	return timesheetRowResponse{
		ID: r.ID, WorkerName: r.WorkerName, WorkDate: r.WorkDate.Format("2006-01-02"),
		StartTime: formatClock(r.StartTime), EndTime: formatClock(r.EndTime),
		Minutes: r.Minutes, BreakMinutes: r.BreakMinutes, IsApproved: r.IsApproved,
		Source: r.Source, ShiftDeleted: r.ShiftDeleted, DeletedByName: r.DeletedByName,
	}
}

// List implements GET /projects/{pid}/timesheet?month=YYYY-MM&user_id=….
func (h *TimesheetHandler) List(w http.ResponseWriter, r *http.Request) {
	pid, err := uuid.Parse(chi.URLParam(r, "pid"))
	if err != nil {
		writeError(w, apierr.Validation("invalid project id"))
		return
	}
	from, to, err := monthWindow(r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, apierr.Validation("%s", err))
		return
	}
	var userID *uuid.UUID
	if uid := r.URL.Query().Get("user_id"); uid != "" {
		id, err := uuid.Parse(uid)
		if err != nil {
			writeError(w, apierr.Validation("invalid user_id"))
			return
		}
		userID = &id
	}
	rows, err := h.reader.ListPerProject(r.Context(), pid, userID, from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]timesheetRowResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, toRowResponse(row))
	}
	writeJSON(w, http.StatusOK, out)
}

func monthWindow(month string) (time.Time, time.Time, error) {
	if month == "" {
		now := time.Now().UTC()
		month = now.Format("2006-01")
	}
	t, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	from := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)
	return from, to, nil
}

type manualEntryCreateRequest struct {
	UserID    uuid.UUID `json:"user_id"`
	WorkDate  string    `json:"work_date"`
	StartTime *string   `json:"start_time"`
	EndTime   *string   `json:"end_time"`
	Minutes   int       `json:"minutes"`
	Notes     *string   `json:"notes"`
}

type manualEntryResponse struct {
	ID         types.UUID `json:"id"`
	ProjectID  types.UUID `json:"project_id"`
	UserID     types.UUID `json:"user_id"`
	WorkDate   string     `json:"work_date"`
	Minutes    int        `json:"minutes"`
	IsApproved bool       `json:"is_approved"`
}

func toManualEntryResponse(e *timesheet.Entry) manualEntryResponse {
	return manualEntryResponse{
		ID: e.ID, ProjectID: e.ProjectID, UserID: e.UserID,
		WorkDate: e.WorkDate.Format("2006-01-02"), Minutes: e.Minutes, IsApproved: e.IsApproved,
	}
}

// Create implements POST /projects/{pid}/timesheet.
func (h *TimesheetHandler) Create(w http.ResponseWriter, r *http.Request) {
	actorID, ok := ActorIDFromContext(r.Context())
	if !ok {
		writeError(w, errUnauthorized("missing actor"))
		return
	}
	pid, err := uuid.Parse(chi.URLParam(r, "pid"))
	if err != nil {
		writeError(w, apierr.Validation("invalid project id"))
		return
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, apierr.Validation("could not read request body"))
		return
	}
	if err := validateBody(raw, timesheetEntryCreateSchema); err != nil {
		writeError(w, apierr.Validation("%s", err))
		return
	}
	var req manualEntryCreateRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		writeError(w, apierr.Validation("malformed request body"))
		return
	}
	workDate, err := time.Parse("2006-01-02", req.WorkDate)
	if err != nil {
		writeError(w, apierr.Validation("invalid work_date"))
		return
	}

	in := timesheet.CreateManualInput{ProjectID: pid, UserID: req.UserID, WorkDate: workDate, Minutes: req.Minutes, Notes: req.Notes}
	if req.StartTime != nil {
		t, err := parseLocalClock(*req.StartTime)
		if err != nil {
			writeError(w, apierr.Validation("invalid start_time"))
			return
		}
		in.StartTime = &t
	}
	if req.EndTime != nil {
		t, err := parseLocalClock(*req.EndTime)
		if err != nil {
			writeError(w, apierr.Validation("invalid end_time"))
			return
		}
		in.EndTime = &t
	}

	e, err := h.coord.CreateManual(r.Context(), actorID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toManualEntryResponse(e))
}

type manualEntryUpdateRequest struct {
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
	Minutes   *int    `json:"minutes"`
	Notes     *string `json:"notes"`
}

// Update implements PATCH /projects/{pid}/timesheet/{id}. An id prefixed
// attendance_ identifies an attendance-backed row, which this surface does
// not allow editing directly — only the attendance's own PATCH route does
// (the materialized row stays derived, not independently writable).
func (h *TimesheetHandler) Update(w http.ResponseWriter, r *http.Request) {
	actorID, ok := ActorIDFromContext(r.Context())
	if !ok {
		writeError(w, errUnauthorized("missing actor"))
		return
	}
	rawID := chi.URLParam(r, "id")
	if strings.HasPrefix(rawID, attendanceEntryPrefix) {
		writeError(w, apierr.Validation("attendance-backed entries are edited via the attendance record"))
		return
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		writeError(w, apierr.Validation("invalid entry id"))
		return
	}
	var req manualEntryUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierr.Validation("malformed request body"))
		return
	}
	in := timesheet.UpdateManualInput{Minutes: req.Minutes, Notes: req.Notes}
	if req.StartTime != nil {
		t, err := parseLocalClock(*req.StartTime)
		if err != nil {
			writeError(w, apierr.Validation("invalid start_time"))
			return
		}
		in.StartTime = &t
	}
	if req.EndTime != nil {
		t, err := parseLocalClock(*req.EndTime)
		if err != nil {
			writeError(w, apierr.Validation("invalid end_time"))
			return
		}
		in.EndTime = &t
	}
	e, err := h.coord.UpdateManual(r.Context(), actorID, id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toManualEntryResponse(e))
}

// Delete implements DELETE /projects/{pid}/timesheet/{id}, dispatching to
// the manual or attendance-backed delete path by id prefix.
func (h *TimesheetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actorID, ok := ActorIDFromContext(r.Context())
	if !ok {
		writeError(w, errUnauthorized("missing actor"))
		return
	}
	rawID := chi.URLParam(r, "id")
	if strings.HasPrefix(rawID, attendanceEntryPrefix) {
		attendanceID, err := uuid.Parse(strings.TrimPrefix(rawID, attendanceEntryPrefix))
		if err != nil {
			writeError(w, apierr.Validation("invalid entry id"))
			return
		}
		if err := h.coord.DeleteAttendanceBacked(r.Context(), actorID, attendanceID); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusNoContent, nil)
		return
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		writeError(w, apierr.Validation("invalid entry id"))
		return
	}
	if err := h.coord.DeleteManual(r.Context(), actorID, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

// Approve implements PATCH /projects/{pid}/timesheet/{id}/approve.
func (h *TimesheetHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.setApproval(w, r, true)
}

// setApproval flips approval either way; unapprove is reached via the
// same route with ?approved=false.
func (h *TimesheetHandler) setApproval(w http.ResponseWriter, r *http.Request, approve bool) {
	actorID, ok := ActorIDFromContext(r.Context())
	if !ok {
		writeError(w, errUnauthorized("missing actor"))
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apierr.Validation("invalid entry id"))
		return
	}
	if r.URL.Query().Get("approved") == "false" {
		approve = false
	}

	existing, err := h.coord.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	actor, err := h.users.Get(r.Context(), actorID)
	if err != nil {
		writeError(w, apierr.NotFound("actor not found"))
		return
	}
	owner, err := h.users.Get(r.Context(), existing.UserID)
	if err != nil {
		writeError(w, apierr.NotFound("entry owner not found"))
		return
	}
	actorPerm := permission.Actor{ID: actor.ID, Roles: actor.Roles, Divisions: actor.Divisions}
	ownerPerm := permission.Worker{ID: owner.ID, ManagerUserID: owner.ManagerUserID}

	var e *timesheet.Entry
	if approve {
		e, err = h.coord.ApproveManual(r.Context(), actorID, id, actorPerm, ownerPerm)
	} else {
		e, err = h.coord.UnapproveManual(r.Context(), actorID, id, actorPerm, ownerPerm)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toManualEntryResponse(e))
}

type logResponse struct {
	ID        types.UUID  `json:"id"`
	Action    string      `json:"action"`
	ActorID   *types.UUID `json:"actor_id,omitempty"`
	CreatedAt string      `json:"created_at"`
	Notes     *string     `json:"notes,omitempty"`
}

// Logs implements GET /projects/{pid}/timesheet/{id}/logs.
func (h *TimesheetHandler) Logs(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apierr.Validation("invalid entry id"))
		return
	}
	logs, err := h.coord.Logs(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]logResponse, 0, len(logs))
	for _, l := range logs {
		resp := logResponse{ID: l.ID, Action: l.Action, CreatedAt: l.CreatedAt.UTC().Format(time.RFC3339), Notes: l.Notes}
		if l.ActorID != nil {
			aid := types.UUID(*l.ActorID)
			resp.ActorID = &aid
		}
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, out)
}

type weeklySummaryResponse struct {
	Events      []weeklyEventResponse `json:"events"`
	TotalRegMin int                   `json:"total_reg_minutes"`
	TotalNetMin int                   `json:"total_net_minutes"`
}

type weeklyEventResponse struct {
	AttendanceID        types.UUID `json:"attendance_id"`
	Date                string     `json:"date"`
	GrossMinutes        int        `json:"gross_minutes"`
	BreakMinutes        int        `json:"break_minutes"`
	NetMinutes          int        `json:"net_minutes"`
	HoursWorkedOverride bool       `json:"hours_worked_override"`
}

// Summary implements GET /projects/timesheet/summary?week_start=YYYY-MM-DD.
func (h *TimesheetHandler) Summary(w http.ResponseWriter, r *http.Request) {
	actorID, ok := ActorIDFromContext(r.Context())
	if !ok {
		writeError(w, errUnauthorized("missing actor"))
		return
	}
	weekStart := r.URL.Query().Get("week_start")
	var anchor time.Time
	var err error
	if weekStart != "" {
		anchor, err = time.Parse("2006-01-02", weekStart)
		if err != nil {
			writeError(w, apierr.Validation("invalid week_start"))
			return
		}
	} else {
		anchor = time.Now().UTC()
	}
	tz := "UTC"
	if actor, err := h.users.Get(r.Context(), actorID); err == nil && actor.Timezone != "" {
		tz = actor.Timezone
	}
	events, totalReg, totalNet, err := h.reader.WeeklySummary(r.Context(), actorID, anchor, tz)
	if err != nil {
		writeError(w, err)
		return
	}
	out := weeklySummaryResponse{TotalRegMin: totalReg, TotalNetMin: totalNet}
	for _, ev := range events {
		out.Events = append(out.Events, weeklyEventResponse{
			AttendanceID: ev.AttendanceID, Date: ev.Date.Format("2006-01-02"),
			GrossMinutes: ev.GrossMinutes, BreakMinutes: ev.BreakMinutes,
			NetMinutes: ev.NetMinutes, HoursWorkedOverride: ev.HoursWorkedOverride,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// User implements GET /projects/timesheet/user?user_id=…&month=YYYY-MM,
// a per-user view scoped to one project.
func (h *TimesheetHandler) User(w http.ResponseWriter, r *http.Request) {
	uid := r.URL.Query().Get("user_id")
	if uid == "" {
		writeError(w, apierr.Validation("user_id is required"))
		return
	}
	userID, err := uuid.Parse(uid)
	if err != nil {
		writeError(w, apierr.Validation("invalid user_id"))
		return
	}
	from, to, err := monthWindow(r.URL.Query().Get("month"))
	if err != nil {
		writeError(w, apierr.Validation("%s", err))
		return
	}
	pidStr := r.URL.Query().Get("project_id")
	if pidStr == "" {
		writeError(w, apierr.Validation("project_id is required"))
		return
	}
	pid, err := uuid.Parse(pidStr)
	if err != nil {
		writeError(w, apierr.Validation("invalid project_id"))
		return
	}
	rows, err := h.reader.ListPerProject(r.Context(), pid, &userID, from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]timesheetRowResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, toRowResponse(row))
	}
	writeJSON(w, http.StatusOK, out)
}
