package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fieldops/dispatch/internal/apierr"
	"github.com/fieldops/dispatch/internal/audit"
	"github.com/fieldops/dispatch/internal/blobstore"
	"github.com/fieldops/dispatch/internal/conflict"
	"github.com/fieldops/dispatch/internal/geofence"
	"github.com/fieldops/dispatch/internal/notify"
	"github.com/fieldops/dispatch/internal/permission"
	"github.com/fieldops/dispatch/internal/policy"
	"github.com/fieldops/dispatch/internal/registry"
	"github.com/fieldops/dispatch/internal/shift"
	"github.com/fieldops/dispatch/internal/task"
	"github.com/fieldops/dispatch/internal/timeutil"
)

// Service is the attendance engine: clock ingestion, pairing, approvals
// and the side effects that hang off them.
type Service struct {
	store        *Store
	shifts       *shift.Store
	projects     *registry.ProjectRegistry
	users        *registry.UserRegistry
	policy       *policy.Lookup
	audit        *audit.Store
	notify       *notify.Gateway
	tasks        *task.Store
	materializer TimesheetMaterializer
	blobs        blobstore.Uploader

	reasonMinChars int
	tzDefault      string

	// toleranceWindowMin is read from TOLERANCE_WINDOW_MIN and carried
	// here, but the status decision gates on the same-day test alone;
	// decideStatus would be the place to consult it.
	toleranceWindowMin int
}

func NewService(store *Store, shifts *shift.Store, projects *registry.ProjectRegistry, users *registry.UserRegistry,
	pol *policy.Lookup, auditStore *audit.Store, notifier *notify.Gateway, tasks *task.Store,
	materializer TimesheetMaterializer, blobs blobstore.Uploader, reasonMinChars, toleranceWindowMin int, tzDefault string) *Service {
	return &Service{
		store: store, shifts: shifts, projects: projects, users: users, policy: pol,
		audit: auditStore, notify: notifier, tasks: tasks, materializer: materializer, blobs: blobs,
		reasonMinChars: reasonMinChars, toleranceWindowMin: toleranceWindowMin, tzDefault: tzDefault,
	}
}

// Attachment is an optional photo captured alongside a clock event.
// Filename is used only to name the uploaded blob.
type Attachment struct {
	Filename string
	Data     []byte
}

// ClockInput carries the common fields of clock, clock_supervisor and
// clock_direct.
type ClockInput struct {
	ShiftID    *uuid.UUID
	WorkerID   uuid.UUID
	Type       string // TypeIn or TypeOut
	TimeLocal  time.Time
	GPS        GPS
	Mocked     bool
	Reason     *string
	JobType    string // required when ShiftID is nil (direct attendance)
	Attachment *Attachment
}

// Clock implements the ingestion pipeline for all three
// public clock operations; the caller (handler layer) resolves actorID
// from the bearer token and passes it through so the permission and
// status-decision rules can tell "clocking own shift" from "on behalf of".
func (svc *Service) Clock(ctx context.Context, actorID uuid.UUID, in ClockInput) (*Attendance, error) {
	actor, err := svc.users.Get(ctx, actorID)
	if err != nil {
		return nil, apierr.NotFound("actor not found")
	}
	worker, err := svc.users.Get(ctx, in.WorkerID)
	if err != nil {
		return nil, apierr.NotFound("worker not found")
	}

	var projTZ string = svc.tzDefault
	var projID *uuid.UUID
	var proj *registry.Project
	var sh *shift.Shift
	if in.ShiftID != nil {
		sh, err = svc.shifts.Get(ctx, *in.ShiftID)
		if err != nil {
			return nil, apierr.NotFound("shift %s not found", *in.ShiftID)
		}
		proj, err = svc.projects.Get(ctx, sh.ProjectID)
		if err != nil {
			return nil, apierr.NotFound("project not found")
		}
		projTZ = proj.Timezone
		projID = &proj.ID
	} else if in.JobType == "" {
		return nil, apierr.Validation("direct attendance requires a job type")
	}

	// Step 2: round, convert to UTC.
	rounded := timeutil.RoundTo5Minutes(in.TimeLocal)
	utc := timeutil.LocalToUTC(rounded, projTZ)

	// Step 3: future-time guard.
	now := time.Now().UTC()
	if timeutil.IsFutureBeyondGrace(utc, now, FutureGrace) {
		return nil, apierr.Validation("clock time is too far in the future")
	}

	ownClock := actorID == in.WorkerID
	if ownClock {
		if !permission.CanClockOwnShift(actorFromUser(actor), workerFromUser(worker)) {
			return nil, apierr.Forbidden("not permitted to clock this shift")
		}
	} else {
		var permProject permission.Project
		if proj != nil {
			permProject = projectFromRegistry(proj)
		}
		if !permission.CanClockOnBehalf(actorFromUser(actor), workerFromUser(worker), permProject) {
			return nil, apierr.Forbidden("not permitted to clock on behalf of this worker")
		}
		reasonText := ""
		if in.Reason != nil {
			reasonText = *in.Reason
		}
		if !permission.ReasonMeetsMinimum(reasonText, svc.reasonMinChars) {
			return nil, apierr.Validation("reason_text of at least %d characters is required when clocking on behalf", svc.reasonMinChars)
		}
	}

	tx, err := svc.store.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Step 4: conflict check against the worker's other attendance in a
	// window straddling the event.
	from := utc.AddDate(0, 0, -1)
	to := utc.AddDate(0, 0, 1)
	var excludeID *uuid.UUID
	var openClockIn *Attendance
	if in.Type == TypeOut {
		if sh != nil {
			openClockIn, err = svc.store.OpenClockInForShift(ctx, tx, in.WorkerID, *in.ShiftID)
		} else {
			openClockIn, err = svc.store.OpenClockInDirect(ctx, tx, in.WorkerID, in.JobType)
		}
		if err != nil && err != ErrNotFound {
			return nil, err
		}
		if openClockIn != nil {
			excludeID = &openClockIn.ID
		} else if sh == nil {
			return nil, apierr.Validation("no open clock-in found; clock in first")
		}
	}

	candidates, err := svc.store.CandidatesForWorker(ctx, tx, in.WorkerID, from, to, excludeID)
	if err != nil {
		return nil, err
	}
	proposedIn, proposedOut := utc, utc
	if in.Type == TypeOut && openClockIn != nil {
		proposedIn = openClockIn.ClockIn.Time
		proposedOut = utc
	}
	var windows []conflict.AttendanceWindow
	for _, c := range candidates {
		w := conflict.AttendanceWindow{ID: c.ID}
		if c.ClockIn != nil {
			w.In = c.ClockIn.Time
		}
		if c.ClockOut != nil {
			w.Out = c.ClockOut.Time
		} else {
			w.Out = w.In
		}
		if c.ClockIn == nil {
			w.In = w.Out
		}
		windows = append(windows, w)
	}
	conflicts := conflict.AttendanceOverlaps(proposedIn, proposedOut, windows, excludeID)
	if len(conflicts) > 0 {
		return nil, apierr.Conflict(conflicts, "clock event overlaps an existing attendance record")
	}

	// Step 5: same-day-as-today test.
	dayEqualsToday := timeutil.SameDayLocal(utc, now, projTZ)

	// Step 6: geofence (non-blocking). A shift's own geofences are
	// evaluated directly; only an empty/nil list falls back to inheriting
	// the project's single point.
	var gpsResult geofence.Result
	if proj != nil {
		var regions []geofence.Region
		if sh != nil && len(sh.Geofences) > 0 {
			regions = make([]geofence.Region, len(sh.Geofences))
			for i, g := range sh.Geofences {
				regions[i] = geofence.Region{Lat: g.Lat, Lng: g.Lng, RadiusM: g.RadiusM}
			}
		} else {
			regions = geofence.InheritFromProject(proj.Lat, proj.Lng, shift.DefaultGeofenceRadiusM)
		}
		gpsResult = geofence.Evaluate(geofence.GPS{Lat: in.GPS.Lat, Lng: in.GPS.Lng, AccuracyM: in.GPS.AccuracyM, HasReading: in.GPS.HasReading}, regions)
	}

	// Step 7: status decision.
	isOnsiteLeadOrSupervisor := false
	if proj != nil {
		isOnsiteLeadOrSupervisor = permission.IsOnsiteLeadOf(actorFromUser(actor), projectFromRegistry(proj)) || permission.IsWorkerSupervisorOf(actorFromUser(actor), workerFromUser(worker))
	} else {
		isOnsiteLeadOrSupervisor = permission.IsWorkerSupervisorOf(actorFromUser(actor), workerFromUser(worker))
	}
	status := decideStatus(ownClock, isOnsiteLeadOrSupervisor, dayEqualsToday)

	endpoint := Endpoint{Time: utc, EnteredUTC: now, Mocked: in.Mocked}
	if in.GPS.HasReading {
		endpoint.GPS = in.GPS
	}

	// Step 8: attachment upload, best-effort and never blocking the clock
	// event.
	var attachmentURL *string
	attachmentUploadFailed := false
	if in.Attachment != nil && svc.blobs != nil {
		url, err := svc.blobs.Upload(ctx, in.WorkerID.String(), in.Attachment.Filename, in.Attachment.Data)
		if err != nil {
			attachmentUploadFailed = true
		} else {
			attachmentURL = &url
		}
	}

	var a *Attendance
	action := "CLOCK_IN"
	if in.Type == TypeIn {
		a = &Attendance{
			ShiftID: in.ShiftID, WorkerID: in.WorkerID, ClockIn: &endpoint,
			Status: status, Source: clockSource(ownClock, actor), ReasonText: in.Reason,
			CreatedBy: &actorID, AttachmentURL: attachmentURL,
		}
		if in.ShiftID == nil {
			a.ReasonText = directReasonText(in.JobType, in.Reason)
		}
		if err := svc.store.Insert(ctx, tx, a); err != nil {
			return nil, err
		}
	} else {
		action = "CLOCK_OUT"
		if openClockIn != nil {
			a = openClockIn
			a.ClockOut = &endpoint
			if attachmentURL != nil {
				a.AttachmentURL = attachmentURL
			}
			bothPresent := true
			gross, _ := a.GrossMinutes()
			eligible, _ := svc.policy.IsBreakEligible(ctx, a.WorkerID)
			def, _ := svc.policy.DefaultBreakMinutes(ctx)
			a.BreakMinutes = ComputeBreakMinutes(nil, bothPresent, gross, eligible, def)
			if a.Status == StatusPending || status == StatusPending {
				a.Status = StatusPending
			} else {
				a.Status = status
			}
			if err := svc.store.UpdateClockOut(ctx, tx, a); err != nil {
				return nil, err
			}
		} else {
			a = &Attendance{
				ShiftID: in.ShiftID, WorkerID: in.WorkerID, ClockOut: &endpoint,
				Status: status, Source: clockSource(ownClock, actor), ReasonText: in.Reason,
				CreatedBy: &actorID, AttachmentURL: attachmentURL,
			}
			if err := svc.store.Insert(ctx, tx, a); err != nil {
				return nil, err
			}
		}
	}

	// Step 9: materialise the timesheet entry once approved and bound to a
	// shift. A lone approved clock-in does not materialise anything yet;
	// the hour accounting only exists once the clock-out lands (or an
	// explicit approval later touches the row).
	if a.Status == StatusApproved && sh != nil && in.Type == TypeOut {
		if err := svc.materializer.MaterializeFromAttendance(ctx, tx, a, sh.ProjectID, sh.Date, sh.StartTime); err != nil {
			return nil, err
		}
	}

	// Pending side effects: route the approval to the worker's manager.
	if a.Status == StatusPending {
		if worker.ManagerUserID != nil {
			manager, err := svc.users.Get(ctx, *worker.ManagerUserID)
			if err != nil {
				return nil, err
			}
			if _, err := svc.notify.Enqueue(ctx, tx, *worker.ManagerUserID, notify.ChannelPush, notify.TemplateAttendancePending,
				map[string]any{"attendance_id": a.ID, "worker_id": a.WorkerID}, notify.PreferencesFromUser(*manager), manager.Timezone); err != nil {
				return nil, err
			}
			title := fmt.Sprintf("Approve attendance for %s – %s", worker.DisplayName(), rounded.Format("2006-01-02"))
			if err := svc.tasks.Seed(ctx, tx, title, task.OriginSystemAttendance, a.ID, *worker.ManagerUserID); err != nil {
				return nil, err
			}
		}
	}

	auditCtx := map[string]any{"worker_id": a.WorkerID.String()}
	if projID != nil {
		auditCtx["project_id"] = projID.String()
	}
	if attachmentUploadFailed {
		auditCtx["attachment_upload_failed"] = true
	}
	if err := svc.audit.Write(ctx, tx, audit.Entry{
		EntityType: "attendance", EntityID: a.ID, Action: action,
		ActorID: &actorID, Source: a.Source,
		Changes: map[string]any{"status": a.Status, "geofence_inside": gpsResult.Inside, "geofence_risk": gpsResult.Risk},
		Context: auditCtx,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func decideStatus(ownClock, isOnsiteLeadOrSupervisor, dayEqualsToday bool) string {
	if ownClock {
		if isOnsiteLeadOrSupervisor {
			return StatusApproved
		}
		if dayEqualsToday {
			return StatusApproved
		}
		return StatusPending
	}
	if isOnsiteLeadOrSupervisor {
		return StatusApproved
	}
	if dayEqualsToday {
		return StatusApproved
	}
	return StatusPending
}

func clockSource(ownClock bool, actor *registry.User) string {
	if ownClock {
		return SourceApp
	}
	if actor.Roles["admin"] {
		return SourceAdmin
	}
	return SourceSupervisor
}

func directReasonText(jobType string, reason *string) *string {
	s := "JOB_TYPE:" + jobType
	if reason != nil && *reason != "" {
		s += "|" + *reason
	}
	return &s
}

// Approve moves a pending attendance to approved, completes its open
// approval tasks, and materialises the timesheet entry.
func (svc *Service) Approve(ctx context.Context, actorID, attendanceID uuid.UUID) (*Attendance, error) {
	actor, err := svc.users.Get(ctx, actorID)
	if err != nil {
		return nil, apierr.NotFound("actor not found")
	}

	tx, err := svc.store.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	a, err := svc.store.GetForUpdate(ctx, tx, attendanceID)
	if err != nil {
		return nil, apierr.NotFound("attendance %s not found", attendanceID)
	}
	if a.Status != StatusPending {
		return nil, apierr.State("attendance is not pending")
	}

	var permProject permission.Project
	var sh *shift.Shift
	if a.ShiftID != nil {
		sh, err = svc.shifts.Get(ctx, *a.ShiftID)
		if err != nil {
			return nil, apierr.NotFound("shift not found")
		}
		proj, err := svc.projects.Get(ctx, sh.ProjectID)
		if err != nil {
			return nil, apierr.NotFound("project not found")
		}
		permProject = projectFromRegistry(proj)
	}
	if !permission.CanApproveAttendance(actorFromUser(actor), permProject) {
		return nil, apierr.Forbidden("not permitted to approve this attendance")
	}

	now := time.Now().UTC()
	if err := svc.store.Approve(ctx, tx, a.ID, actorID, now); err != nil {
		return nil, err
	}
	if err := svc.tasks.CompleteByOrigin(ctx, tx, task.OriginSystemAttendance, a.ID); err != nil {
		return nil, err
	}
	a.Status = StatusApproved
	a.ApprovedAt, a.ApprovedBy = &now, &actorID

	if sh != nil && (a.ClockIn != nil || a.ClockOut != nil) {
		if err := svc.materializer.MaterializeFromAttendance(ctx, tx, a, sh.ProjectID, sh.Date, sh.StartTime); err != nil {
			return nil, err
		}
	}

	if err := svc.audit.Write(ctx, tx, audit.Entry{
		EntityType: "attendance", EntityID: a.ID, Action: "APPROVE",
		ActorID: &actorID, Source: SourceApp,
		Context: map[string]any{"worker_id": a.WorkerID.String()},
	}); err != nil {
		return nil, err
	}
	worker, err := svc.users.Get(ctx, a.WorkerID)
	if err != nil {
		return nil, err
	}
	if _, err := svc.notify.Enqueue(ctx, tx, a.WorkerID, notify.ChannelPush, notify.TemplateAttendanceApproved,
		map[string]any{"attendance_id": a.ID}, notify.PreferencesFromUser(*worker), worker.Timezone); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

// Reject mirrors Approve with a mandatory reason and no timesheet
// materialisation.
func (svc *Service) Reject(ctx context.Context, actorID, attendanceID uuid.UUID, reason string) (*Attendance, error) {
	if reason == "" {
		return nil, apierr.Validation("rejection reason is required")
	}
	actor, err := svc.users.Get(ctx, actorID)
	if err != nil {
		return nil, apierr.NotFound("actor not found")
	}

	tx, err := svc.store.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	a, err := svc.store.GetForUpdate(ctx, tx, attendanceID)
	if err != nil {
		return nil, apierr.NotFound("attendance %s not found", attendanceID)
	}
	if a.Status != StatusPending {
		return nil, apierr.State("attendance is not pending")
	}

	var permProject permission.Project
	if a.ShiftID != nil {
		sh, err := svc.shifts.Get(ctx, *a.ShiftID)
		if err != nil {
			return nil, apierr.NotFound("shift not found")
		}
		proj, err := svc.projects.Get(ctx, sh.ProjectID)
		if err != nil {
			return nil, apierr.NotFound("project not found")
		}
		permProject = projectFromRegistry(proj)
	}
	if !permission.CanApproveAttendance(actorFromUser(actor), permProject) {
		return nil, apierr.Forbidden("not permitted to reject this attendance")
	}

	now := time.Now().UTC()
	if err := svc.store.Reject(ctx, tx, a.ID, actorID, reason, now); err != nil {
		return nil, err
	}
	if err := svc.tasks.CompleteByOrigin(ctx, tx, task.OriginSystemAttendance, a.ID); err != nil {
		return nil, err
	}
	a.Status = StatusRejected
	a.RejectedAt, a.RejectedBy, a.RejectionReason = &now, &actorID, &reason

	if err := svc.audit.Write(ctx, tx, audit.Entry{
		EntityType: "attendance", EntityID: a.ID, Action: "REJECT",
		ActorID: &actorID, Source: SourceApp,
		Changes: map[string]any{"rejection_reason": reason},
		Context: map[string]any{"worker_id": a.WorkerID.String()},
	}); err != nil {
		return nil, err
	}
	worker, err := svc.users.Get(ctx, a.WorkerID)
	if err != nil {
		return nil, err
	}
	if _, err := svc.notify.Enqueue(ctx, tx, a.WorkerID, notify.ChannelPush, notify.TemplateAttendanceRejected,
		map[string]any{"attendance_id": a.ID}, notify.PreferencesFromUser(*worker), worker.Timezone); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

// UpdatePendingInput carries the fields a still-pending attendance
// allows to be edited.
type UpdatePendingInput struct {
	TimeLocal *time.Time
	GPS       *GPS
	Reason    *string
	IsClockIn bool // which endpoint TimeLocal/GPS applies to
}

func (svc *Service) UpdatePending(ctx context.Context, actorID, attendanceID uuid.UUID, in UpdatePendingInput) (*Attendance, error) {
	tx, err := svc.store.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	a, err := svc.store.GetForUpdate(ctx, tx, attendanceID)
	if err != nil {
		return nil, apierr.NotFound("attendance %s not found", attendanceID)
	}
	if a.Status != StatusPending {
		return nil, apierr.State("only a pending attendance can be edited")
	}

	projTZ := svc.tzDefault
	if a.ShiftID != nil {
		sh, err := svc.shifts.Get(ctx, *a.ShiftID)
		if err == nil {
			if proj, err := svc.projects.Get(ctx, sh.ProjectID); err == nil {
				projTZ = proj.Timezone
			}
		}
	}

	if in.TimeLocal != nil {
		rounded := timeutil.RoundTo5Minutes(*in.TimeLocal)
		utc := timeutil.LocalToUTC(rounded, projTZ)
		ep := &Endpoint{Time: utc, EnteredUTC: time.Now().UTC()}
		if in.GPS != nil {
			ep.GPS = *in.GPS
		}
		if in.IsClockIn {
			a.ClockIn = ep
		} else {
			a.ClockOut = ep
		}
		now := time.Now().UTC()
		dayEqualsToday := timeutil.SameDayLocal(utc, now, projTZ)
		if !dayEqualsToday {
			reasonLen := 0
			if in.Reason != nil {
				reasonLen = len(*in.Reason)
			} else if a.ReasonText != nil {
				reasonLen = len(*a.ReasonText)
			}
			if reasonLen < svc.reasonMinChars {
				return nil, apierr.Validation("reason must be at least %d characters when editing to a non-today date", svc.reasonMinChars)
			}
		}
	}
	if in.Reason != nil {
		a.ReasonText = in.Reason
	}

	if err := svc.store.UpdatePending(ctx, tx, a); err != nil {
		return nil, err
	}
	if err := svc.audit.Write(ctx, tx, audit.Entry{
		EntityType: "attendance", EntityID: a.ID, Action: "UPDATE",
		ActorID: &actorID, Source: SourceApp,
		Context: map[string]any{"worker_id": a.WorkerID.String()},
	}); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

// Delete removes an attendance row outright and its paired timesheet
// entry in the same transaction.
func (svc *Service) Delete(ctx context.Context, actorID, attendanceID uuid.UUID) error {
	tx, err := svc.store.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	a, err := svc.store.GetForUpdate(ctx, tx, attendanceID)
	if err != nil {
		return apierr.NotFound("attendance %s not found", attendanceID)
	}
	if err := svc.materializer.DeletePairedEntry(ctx, tx, a.ID); err != nil {
		return err
	}
	if err := svc.store.Delete(ctx, tx, a.ID); err != nil {
		return err
	}
	if err := svc.audit.Write(ctx, tx, audit.Entry{
		EntityType: "attendance", EntityID: a.ID, Action: "DELETE",
		ActorID: &actorID, Source: SourceApp,
		Context: map[string]any{"worker_id": a.WorkerID.String()},
	}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Get returns an attendance row by id for read-only display.
func (svc *Service) Get(ctx context.Context, id uuid.UUID) (*Attendance, error) {
	a, err := svc.store.Get(ctx, id)
	if err != nil {
		return nil, apierr.NotFound("attendance %s not found", id)
	}
	return a, nil
}

// ListForShift returns every attendance row bound to one shift, backing
// GET /dispatch/shifts/{id}/attendance.
func (svc *Service) ListForShift(ctx context.Context, shiftID uuid.UUID) ([]*Attendance, error) {
	return svc.store.ListForShifts(ctx, []uuid.UUID{shiftID})
}

// ListPending returns every attendance row awaiting approval, backing
// GET /dispatch/attendance/pending.
func (svc *Service) ListPending(ctx context.Context) ([]*Attendance, error) {
	return svc.store.ListPending(ctx)
}

// ListDirectByDate returns a worker's direct (shift-less) attendance for
// the local calendar day in the service's default timezone.
func (svc *Service) ListDirectByDate(ctx context.Context, workerID uuid.UUID, date time.Time) ([]*Attendance, error) {
	from := timeutil.LocalToUTC(date, svc.tzDefault)
	to := timeutil.LocalToUTC(date.AddDate(0, 0, 1), svc.tzDefault)
	return svc.store.ListDirectByWorkerDate(ctx, workerID, from, to)
}

func actorFromUser(u *registry.User) permission.Actor {
	return permission.Actor{ID: u.ID, Roles: u.Roles, Divisions: u.Divisions}
}

func workerFromUser(u *registry.User) permission.Worker {
	return permission.Worker{ID: u.ID, ManagerUserID: u.ManagerUserID}
}

func projectFromRegistry(p *registry.Project) permission.Project {
	return permission.Project{ID: p.ID, OnsiteLeadID: p.OnsiteLeadID, DivisionOnsiteLeads: p.DivisionOnsiteLeads}
}
