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
	"github.com/fieldops/dispatch/internal/attendance"
)

// AttendanceHandler serves the `/dispatch/attendance...` and
// `/dispatch/shifts/{id}/attendance` routes.
type AttendanceHandler struct {
	svc *attendance.Service
}

func NewAttendanceHandler(svc *attendance.Service) *AttendanceHandler { return &AttendanceHandler{svc: svc} }

type attendanceResponse struct {
	ID              types.UUID  `json:"id"`
	ShiftID         *types.UUID `json:"shift_id,omitempty"`
	WorkerID        types.UUID  `json:"worker_id"`
	ClockInTime     *string     `json:"clock_in_time,omitempty"`
	ClockOutTime    *string     `json:"clock_out_time,omitempty"`
	BreakMinutes    *int        `json:"break_minutes,omitempty"`
	Status          string      `json:"status"`
	Source          string      `json:"source"`
	ReasonText      *string     `json:"reason_text,omitempty"`
	RejectionReason *string     `json:"rejection_reason,omitempty"`
}

func toAttendanceResponse(a *attendance.Attendance) attendanceResponse {
	resp := attendanceResponse{
		ID: a.ID, WorkerID: a.WorkerID, BreakMinutes: a.BreakMinutes,
		Status: a.Status, Source: a.Source, ReasonText: a.ReasonText,
		RejectionReason: a.RejectionReason,
	}
	if a.ShiftID != nil {
		sid := types.UUID(*a.ShiftID)
		resp.ShiftID = &sid
	}
	if a.ClockIn != nil {
		s := a.ClockIn.Time.UTC().Format(time.RFC3339)
		resp.ClockInTime = &s
	}
	if a.ClockOut != nil {
		s := a.ClockOut.Time.UTC().Format(time.RFC3339)
		resp.ClockOutTime = &s
	}
	return resp
}

type clockRequest struct {
	ShiftID           *uuid.UUID `json:"shift_id"`
	WorkerID          *uuid.UUID `json:"worker_id"`
	Type              string     `json:"type"`
	TimeSelectedLocal string     `json:"time_selected_local"`
	GPS               *gpsWire   `json:"gps"`
	Reason            *string    `json:"reason_text"`
	JobType           string     `json:"job_type"`
}

func (h *AttendanceHandler) clock(w http.ResponseWriter, r *http.Request, requireWorkerID bool) {
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
	if err := validateBody(raw, attendanceClockSchema); err != nil {
		writeError(w, apierr.Validation("%s", err))
		return
	}
	var req clockRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		writeError(w, apierr.Validation("malformed request body"))
		return
	}

	workerID := actorID
	if req.WorkerID != nil {
		workerID = *req.WorkerID
	} else if requireWorkerID {
		writeError(w, apierr.Validation("worker_id is required"))
		return
	}

	timeLocal, err := parseLocalDateTime(req.TimeSelectedLocal)
	if err != nil {
		writeError(w, apierr.Validation("%s", err))
		return
	}

	in := attendance.ClockInput{
		ShiftID: req.ShiftID, WorkerID: workerID, Type: req.Type,
		TimeLocal: timeLocal, Reason: req.Reason, JobType: req.JobType,
	}
	if req.GPS != nil {
		in.GPS = attendance.GPS{Lat: req.GPS.Lat, Lng: req.GPS.Lng, AccuracyM: req.GPS.AccuracyM, HasReading: true}
		in.Mocked = req.GPS.Mocked
	}

	a, err := h.svc.Clock(r.Context(), actorID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAttendanceResponse(a))
}

// Clock implements POST /dispatch/attendance (own clock, worker_id implied
// by the bearer token).
func (h *AttendanceHandler) Clock(w http.ResponseWriter, r *http.Request) { h.clock(w, r, false) }

// ClockSupervisor implements POST /dispatch/attendance/supervisor (clock
// on behalf of another worker; worker_id is required).
func (h *AttendanceHandler) ClockSupervisor(w http.ResponseWriter, r *http.Request) {
	h.clock(w, r, true)
}

// ClockDirect implements POST /dispatch/attendance/direct (no bound shift;
// job_type required, enforced by the service).
func (h *AttendanceHandler) ClockDirect(w http.ResponseWriter, r *http.Request) { h.clock(w, r, false) }

func (h *AttendanceHandler) Approve(w http.ResponseWriter, r *http.Request) {
	actorID, ok := ActorIDFromContext(r.Context())
	if !ok {
		writeError(w, errUnauthorized("missing actor"))
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apierr.Validation("invalid attendance id"))
		return
	}
	a, err := h.svc.Approve(r.Context(), actorID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAttendanceResponse(a))
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *AttendanceHandler) Reject(w http.ResponseWriter, r *http.Request) {
	actorID, ok := ActorIDFromContext(r.Context())
	if !ok {
		writeError(w, errUnauthorized("missing actor"))
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apierr.Validation("invalid attendance id"))
		return
	}
	var req rejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierr.Validation("malformed request body"))
		return
	}
	a, err := h.svc.Reject(r.Context(), actorID, id, req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAttendanceResponse(a))
}

type updatePendingRequest struct {
	TimeSelectedLocal *string  `json:"time_selected_local"`
	GPS               *gpsWire `json:"gps"`
	Reason            *string  `json:"reason_text"`
	IsClockIn         bool     `json:"is_clock_in"`
}

func (h *AttendanceHandler) Update(w http.ResponseWriter, r *http.Request) {
	actorID, ok := ActorIDFromContext(r.Context())
	if !ok {
		writeError(w, errUnauthorized("missing actor"))
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apierr.Validation("invalid attendance id"))
		return
	}
	var req updatePendingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierr.Validation("malformed request body"))
		return
	}

	in := attendance.UpdatePendingInput{Reason: req.Reason, IsClockIn: req.IsClockIn}
	if req.TimeSelectedLocal != nil {
		t, err := parseLocalDateTime(*req.TimeSelectedLocal)
		if err != nil {
			writeError(w, apierr.Validation("%s", err))
			return
		}
		in.TimeLocal = &t
	}
	if req.GPS != nil {
		in.GPS = &attendance.GPS{Lat: req.GPS.Lat, Lng: req.GPS.Lng, AccuracyM: req.GPS.AccuracyM, HasReading: true}
	}

	a, err := h.svc.UpdatePending(r.Context(), actorID, id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAttendanceResponse(a))
}

func (h *AttendanceHandler) ListForShift(w http.ResponseWriter, r *http.Request) {
	shiftID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apierr.Validation("invalid shift id"))
		return
	}
	rows, err := h.svc.ListForShift(r.Context(), shiftID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeAttendanceList(w, rows)
}

func (h *AttendanceHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.ListPending(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeAttendanceList(w, rows)
}

func (h *AttendanceHandler) ListDirectByDate(w http.ResponseWriter, r *http.Request) {
	actorID, ok := ActorIDFromContext(r.Context())
	if !ok {
		writeError(w, errUnauthorized("missing actor"))
		return
	}
	date, err := time.Parse("2006-01-02", chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, apierr.Validation("invalid date"))
		return
	}
	workerID := actorID
	if wid := r.URL.Query().Get("worker_id"); wid != "" {
		id, err := uuid.Parse(wid)
		if err != nil {
			writeError(w, apierr.Validation("invalid worker_id"))
			return
		}
		workerID = id
	}
	rows, err := h.svc.ListDirectByDate(r.Context(), workerID, date)
	if err != nil {
		writeError(w, err)
		return
	}
	writeAttendanceList(w, rows)
}

func writeAttendanceList(w http.ResponseWriter, rows []*attendance.Attendance) {
	out := make([]attendanceResponse, 0, len(rows))
	for _, a := range rows {
		out = append(out, toAttendanceResponse(a))
	}
	writeJSON(w, http.StatusOK, out)
}
