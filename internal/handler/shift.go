package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime/types"

	"github.com/fieldops/dispatch/internal/apierr"
	"github.com/fieldops/dispatch/internal/shift"
)

// ShiftHandler serves the `/dispatch/.../shifts...` routes.
type ShiftHandler struct {
	svc *shift.Service
}

func NewShiftHandler(svc *shift.Service) *ShiftHandler { return &ShiftHandler{svc: svc} }

type shiftResponse struct {
	ID              types.UUID     `json:"id"`
	ProjectID       types.UUID     `json:"project_id"`
	WorkerID        types.UUID     `json:"worker_id"`
	Date            string         `json:"date"`
	StartTime       string         `json:"start_time"`
	EndTime         string         `json:"end_time"`
	Status          string         `json:"status"`
	DefaultBreakMin *int           `json:"default_break_min,omitempty"`
	Geofences       []geofenceWire `json:"geofences,omitempty"`
	JobID           *string        `json:"job_id,omitempty"`
	JobName         *string        `json:"job_name,omitempty"`
}

func toShiftResponse(sh *shift.Shift) shiftResponse {
	var gs []geofenceWire
	for _, g := range sh.Geofences {
		gs = append(gs, geofenceWire{Lat: g.Lat, Lng: g.Lng, RadiusM: g.RadiusM})
	}
	return shiftResponse{
		ID: sh.ID, ProjectID: sh.ProjectID, WorkerID: sh.WorkerID,
		Date: sh.Date.Format("2006-01-02"), StartTime: sh.StartTime.Format("15:04"), EndTime: sh.EndTime.Format("15:04"),
		Status: sh.Status, DefaultBreakMin: sh.DefaultBreakMin, Geofences: gs,
		JobID: sh.JobID, JobName: sh.JobName,
	}
}

type shiftCreateRequest struct {
	ProjectID       *uuid.UUID     `json:"project_id"`
	WorkerID        uuid.UUID      `json:"worker_id"`
	Date            string         `json:"date"`
	StartTime       string         `json:"start_time"`
	EndTime         string         `json:"end_time"`
	DefaultBreakMin *int           `json:"default_break_min"`
	Geofences       []geofenceWire `json:"geofences"`
	JobID           *string        `json:"job_id"`
	JobName         *string        `json:"job_name"`
}

// Create implements POST /dispatch/projects/{pid}/shifts and POST
// /dispatch/shifts/without-project (the latter resolves the sentinel
// "General" project, since the shift manager always needs one).
func (h *ShiftHandler) Create(w http.ResponseWriter, r *http.Request) {
	actorID, ok := ActorIDFromContext(r.Context())
	if !ok {
		writeError(w, errUnauthorized("missing actor"))
		return
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, apierr.Validation("could not read request body"))
		return
	}
	if err := validateBody(raw, shiftCreateSchema); err != nil {
		writeError(w, apierr.Validation("%s", err))
		return
	}

	var req shiftCreateRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		writeError(w, apierr.Validation("malformed request body"))
		return
	}

	projectID := req.ProjectID
	if projectID == nil {
		if pidStr := chi.URLParam(r, "pid"); pidStr != "" {
			pid, err := uuid.Parse(pidStr)
			if err != nil {
				writeError(w, apierr.Validation("invalid project id"))
				return
			}
			projectID = &pid
		} else {
			// POST /dispatch/shifts/without-project: the shift lands in
			// the sentinel "General" project.
			pid, err := h.svc.ResolveGeneralProject(r.Context())
			if err != nil {
				writeError(w, err)
				return
			}
			projectID = &pid
		}
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, apierr.Validation("invalid date"))
		return
	}
	startTime, err := parseLocalClock(req.StartTime)
	if err != nil {
		writeError(w, apierr.Validation("invalid start_time"))
		return
	}
	endTime, err := parseLocalClock(req.EndTime)
	if err != nil {
		writeError(w, apierr.Validation("invalid end_time"))
		return
	}

	var geofences []shift.Geofence
	for _, g := range req.Geofences {
		geofences = append(geofences, shift.Geofence{Lat: g.Lat, Lng: g.Lng, RadiusM: g.RadiusM})
	}

	sh, err := h.svc.Create(r.Context(), actorID, shift.CreateInput{
		ProjectID: *projectID, WorkerID: req.WorkerID, Date: date,
		StartTime: startTime, EndTime: endTime, DefaultBreakMin: req.DefaultBreakMin,
		Geofences: geofences, JobID: req.JobID, JobName: req.JobName,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	resp := toShiftResponse(sh)
	writeJSON(w, http.StatusCreated, resp)
}

func (h *ShiftHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apierr.Validation("invalid shift id"))
		return
	}
	sh, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toShiftResponse(sh))
}

func (h *ShiftHandler) ListByProject(w http.ResponseWriter, r *http.Request) {
	pid, err := uuid.Parse(chi.URLParam(r, "pid"))
	if err != nil {
		writeError(w, apierr.Validation("invalid project id"))
		return
	}
	var from, to *time.Time
	if dr := r.URL.Query().Get("date_range"); dr != "" {
		f, t, err := parseDateRange(dr)
		if err != nil {
			writeError(w, apierr.Validation("%s", err))
			return
		}
		from, to = &f, &t
	}
	var workerID *uuid.UUID
	if wid := r.URL.Query().Get("worker_id"); wid != "" {
		id, err := uuid.Parse(wid)
		if err != nil {
			writeError(w, apierr.Validation("invalid worker_id"))
			return
		}
		workerID = &id
	}
	shifts, err := h.svc.ListByProject(r.Context(), pid, from, to, workerID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]shiftResponse, 0, len(shifts))
	for _, sh := range shifts {
		out = append(out, toShiftResponse(sh))
	}
	writeJSON(w, http.StatusOK, out)
}

// ListGlobal implements GET /dispatch/shifts?date_range=…&worker_id=…,
// the cross-project counterpart of ListByProject.
func (h *ShiftHandler) ListGlobal(w http.ResponseWriter, r *http.Request) {
	var from, to *time.Time
	if dr := r.URL.Query().Get("date_range"); dr != "" {
		f, t, err := parseDateRange(dr)
		if err != nil {
			writeError(w, apierr.Validation("%s", err))
			return
		}
		from, to = &f, &t
	}
	var workerID *uuid.UUID
	if wid := r.URL.Query().Get("worker_id"); wid != "" {
		id, err := uuid.Parse(wid)
		if err != nil {
			writeError(w, apierr.Validation("invalid worker_id"))
			return
		}
		workerID = &id
	}
	shifts, err := h.svc.ListGlobal(r.Context(), from, to, workerID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]shiftResponse, 0, len(shifts))
	for _, sh := range shifts {
		out = append(out, toShiftResponse(sh))
	}
	writeJSON(w, http.StatusOK, out)
}

type shiftUpdateRequest struct {
	Date            *string        `json:"date"`
	WorkerID        *uuid.UUID     `json:"worker_id"`
	StartTime       *string        `json:"start_time"`
	EndTime         *string        `json:"end_time"`
	DefaultBreakMin *int           `json:"default_break_min"`
	Geofences       []geofenceWire `json:"geofences"`
	JobID           *string        `json:"job_id"`
	JobName         *string        `json:"job_name"`
	Status          *string        `json:"status"`
}

func (h *ShiftHandler) Update(w http.ResponseWriter, r *http.Request) {
	actorID, ok := ActorIDFromContext(r.Context())
	if !ok {
		writeError(w, errUnauthorized("missing actor"))
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apierr.Validation("invalid shift id"))
		return
	}
	var req shiftUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierr.Validation("malformed request body"))
		return
	}

	in := shift.UpdateInput{DefaultBreakMin: req.DefaultBreakMin, JobID: req.JobID, JobName: req.JobName, Status: req.Status}
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
	if req.Geofences != nil {
		var gs []shift.Geofence
		for _, g := range req.Geofences {
			gs = append(gs, shift.Geofence{Lat: g.Lat, Lng: g.Lng, RadiusM: g.RadiusM})
		}
		in.Geofences = &gs
	}
	if req.Date != nil {
		d, err := time.Parse("2006-01-02", *req.Date)
		if err != nil {
			writeError(w, apierr.Validation("invalid date"))
			return
		}
		in.AttemptedDate = &d
	}
	in.AttemptedWorkerID = req.WorkerID

	sh, err := h.svc.Update(r.Context(), actorID, id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toShiftResponse(sh))
}

func (h *ShiftHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actorID, ok := ActorIDFromContext(r.Context())
	if !ok {
		writeError(w, errUnauthorized("missing actor"))
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apierr.Validation("invalid shift id"))
		return
	}
	if err := h.svc.Delete(r.Context(), actorID, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}
