package timesheet

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fieldops/dispatch/internal/apierr"
	"github.com/fieldops/dispatch/internal/attendance"
	"github.com/fieldops/dispatch/internal/audit"
	"github.com/fieldops/dispatch/internal/dbx"
	"github.com/fieldops/dispatch/internal/permission"
	"github.com/fieldops/dispatch/internal/registry"
)

// Coordinator implements attendance.TimesheetMaterializer and the
// manual-entry operations. It imports
// attendance (for the Attendance type and its store), which is the only
// direction that package pair's dependency runs in — attendance declares
// the materializer interface itself so it never needs to import back.
type Coordinator struct {
	store       *Store
	attendances *attendance.Store
	audit       *audit.Store
	users       *registry.UserRegistry
}

func NewCoordinator(store *Store, attendances *attendance.Store, auditStore *audit.Store, users *registry.UserRegistry) *Coordinator {
	return &Coordinator{store: store, attendances: attendances, audit: auditStore, users: users}
}

// MaterializeFromAttendance creates the entry on first touch; the paired
// endpoint's touch updates it in place.
func (c *Coordinator) MaterializeFromAttendance(ctx context.Context, exec dbx.Querier, a *attendance.Attendance, projectID uuid.UUID, shiftDate, shiftStartTime time.Time) error {
	existing, err := c.store.GetBySourceAttendance(ctx, exec, a.ID)
	if err != nil && err != ErrNotFound {
		return err
	}

	net, _ := a.NetMinutes()
	var start, end *time.Time
	if a.ClockIn != nil {
		t := a.ClockIn.Time
		start = &t
	} else {
		start = &shiftStartTime
	}
	if a.ClockOut != nil {
		t := a.ClockOut.Time
		end = &t
	}

	if existing == nil {
		notes := SourceAttendance
		entry := &Entry{
			ProjectID: projectID, UserID: a.WorkerID, WorkDate: shiftDate,
			StartTime: start, EndTime: end, Minutes: net, Notes: &notes,
			SourceAttendanceID: &a.ID, IsApproved: true,
		}
		now := time.Now().UTC()
		entry.ApprovedAt = &now
		if a.CreatedBy != nil {
			entry.ApprovedBy = a.CreatedBy
		}
		return c.store.Insert(ctx, exec, entry)
	}

	existing.EndTime = end
	existing.Minutes = net
	existing.IsApproved = true
	return c.store.Update(ctx, exec, existing)
}

// DeletePairedEntry removes the entry materialised from an attendance,
// if one exists, and leaves a delete record in the timesheet-entry audit
// stream tagged with the sourcing attendance. Runs on the caller's
// executor so the cascade commits with the attendance delete itself.
func (c *Coordinator) DeletePairedEntry(ctx context.Context, exec dbx.Querier, attendanceID uuid.UUID) error {
	existing, err := c.store.GetBySourceAttendance(ctx, exec, attendanceID)
	if err != nil {
		if err == ErrNotFound {
			return nil
		}
		return err
	}
	if err := c.store.Delete(ctx, exec, existing.ID); err != nil {
		return err
	}
	return c.audit.Write(ctx, exec, audit.Entry{
		EntityType: "timesheet_entry", EntityID: existing.ID, Action: "DELETE",
		Source:  "system",
		Changes: map[string]any{"source": "attendance"},
		Context: map[string]any{
			"attendance_id": attendanceID.String(),
			"project_id":    existing.ProjectID.String(),
			"worker_id":     existing.UserID.String(),
		},
	})
}

// CreateManualInput carries a manual timesheet entry's editable fields.
type CreateManualInput struct {
	ProjectID uuid.UUID
	UserID    uuid.UUID
	WorkDate  time.Time
	StartTime *time.Time
	EndTime   *time.Time
	Minutes   int
	Notes     *string
}

// CreateManual inserts a manually-entered TimesheetEntry and logs the
// creation.
func (c *Coordinator) CreateManual(ctx context.Context, actorID uuid.UUID, in CreateManualInput) (*Entry, error) {
	tx, err := c.store.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	e := &Entry{
		ProjectID: in.ProjectID, UserID: in.UserID, WorkDate: in.WorkDate,
		StartTime: in.StartTime, EndTime: in.EndTime, Minutes: in.Minutes,
		Notes: in.Notes, CreatedBy: &actorID,
	}
	if err := c.store.Insert(ctx, tx, e); err != nil {
		return nil, err
	}
	if err := c.store.AppendLog(ctx, tx, Log{TimeEntryID: &e.ID, Action: "CREATE", ActorID: &actorID}); err != nil {
		return nil, err
	}
	if err := c.audit.Write(ctx, tx, audit.Entry{
		EntityType: "timesheet_entry", EntityID: e.ID, Action: "CREATE",
		ActorID: &actorID, Source: "app",
		Context: map[string]any{"project_id": e.ProjectID.String()},
	}); err != nil {
		return nil, err
	}
	return e, tx.Commit(ctx)
}

// UpdateManualInput carries the editable fields of a PATCH against a
// manual entry.
type UpdateManualInput struct {
	StartTime *time.Time
	EndTime   *time.Time
	Minutes   *int
	Notes     *string
}

// UpdateManual edits a manual entry's time/notes fields. Approval state is
// changed only through ApproveManual/UnapproveManual.
func (c *Coordinator) UpdateManual(ctx context.Context, actorID, entryID uuid.UUID, in UpdateManualInput) (*Entry, error) {
	tx, err := c.store.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	e, err := c.store.GetForUpdate(ctx, tx, entryID)
	if err != nil {
		return nil, apierr.NotFound("timesheet entry %s not found", entryID)
	}
	if in.StartTime != nil {
		e.StartTime = in.StartTime
	}
	if in.EndTime != nil {
		e.EndTime = in.EndTime
	}
	if in.Minutes != nil {
		e.Minutes = *in.Minutes
	}
	if in.Notes != nil {
		e.Notes = in.Notes
	}
	if err := c.store.Update(ctx, tx, e); err != nil {
		return nil, err
	}
	if err := c.store.AppendLog(ctx, tx, Log{TimeEntryID: &e.ID, Action: "UPDATE", ActorID: &actorID}); err != nil {
		return nil, err
	}
	if err := c.audit.Write(ctx, tx, audit.Entry{
		EntityType: "timesheet_entry", EntityID: e.ID, Action: "UPDATE",
		ActorID: &actorID, Source: "app",
		Context: map[string]any{"project_id": e.ProjectID.String()},
	}); err != nil {
		return nil, err
	}
	return e, tx.Commit(ctx)
}

// Get returns a manual entry by id for read-only display.
func (c *Coordinator) Get(ctx context.Context, id uuid.UUID) (*Entry, error) {
	e, err := c.store.Get(ctx, id)
	if err != nil {
		return nil, apierr.NotFound("timesheet entry %s not found", id)
	}
	return e, nil
}

// Logs returns the change log for one entry.
func (c *Coordinator) Logs(ctx context.Context, entryID uuid.UUID) ([]Log, error) {
	rows, err := c.store.pool.Query(ctx, `
		SELECT id, time_entry_id, action, actor_id, created_at, notes
		FROM project_time_entry_logs WHERE time_entry_id = $1 ORDER BY created_at
	`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Log
	for rows.Next() {
		var l Log
		if err := rows.Scan(&l.ID, &l.TimeEntryID, &l.Action, &l.ActorID, &l.CreatedAt, &l.Notes); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// ApproveManual approves a manual TimesheetEntry.
func (c *Coordinator) ApproveManual(ctx context.Context, actorID uuid.UUID, entryID uuid.UUID, actor permission.Actor, entryOwner permission.Worker) (*Entry, error) {
	tx, err := c.store.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	e, err := c.store.GetForUpdate(ctx, tx, entryID)
	if err != nil {
		return nil, apierr.NotFound("timesheet entry %s not found", entryID)
	}
	if !actor.IsAdmin() && !permission.IsWorkerSupervisorOf(actor, entryOwner) {
		return nil, apierr.Forbidden("not permitted to approve this entry")
	}
	now := time.Now().UTC()
	e.IsApproved = true
	e.ApprovedAt, e.ApprovedBy = &now, &actorID
	if err := c.store.Update(ctx, tx, e); err != nil {
		return nil, err
	}
	if err := c.audit.Write(ctx, tx, audit.Entry{
		EntityType: "timesheet_entry", EntityID: e.ID, Action: "APPROVE",
		ActorID: &actorID, Source: "app",
		Context: map[string]any{"project_id": e.ProjectID.String()},
	}); err != nil {
		return nil, err
	}
	return e, tx.Commit(ctx)
}

// UnapproveManual reverses approval.
func (c *Coordinator) UnapproveManual(ctx context.Context, actorID uuid.UUID, entryID uuid.UUID, actor permission.Actor, entryOwner permission.Worker) (*Entry, error) {
	tx, err := c.store.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	e, err := c.store.GetForUpdate(ctx, tx, entryID)
	if err != nil {
		return nil, apierr.NotFound("timesheet entry %s not found", entryID)
	}
	if !actor.IsAdmin() && !permission.IsWorkerSupervisorOf(actor, entryOwner) {
		return nil, apierr.Forbidden("not permitted to unapprove this entry")
	}
	e.IsApproved = false
	e.ApprovedAt, e.ApprovedBy = nil, nil
	if err := c.store.Update(ctx, tx, e); err != nil {
		return nil, err
	}
	if err := c.audit.Write(ctx, tx, audit.Entry{
		EntityType: "timesheet_entry", EntityID: e.ID, Action: "UNAPPROVE",
		ActorID: &actorID, Source: "app",
		Context: map[string]any{"project_id": e.ProjectID.String()},
	}); err != nil {
		return nil, err
	}
	return e, tx.Commit(ctx)
}

// DeleteManual removes a manual entry: audit DELETE, then reset any
// approved attendances sharing (project, worker, date) back to pending
// with an audit RESET each.
func (c *Coordinator) DeleteManual(ctx context.Context, actorID uuid.UUID, entryID uuid.UUID) error {
	tx, err := c.store.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	e, err := c.store.GetForUpdate(ctx, tx, entryID)
	if err != nil {
		return apierr.NotFound("timesheet entry %s not found", entryID)
	}
	if err := c.store.Delete(ctx, tx, e.ID); err != nil {
		return err
	}
	if err := c.audit.Write(ctx, tx, audit.Entry{
		EntityType: "timesheet_entry", EntityID: e.ID, Action: "DELETE",
		ActorID: &actorID, Source: "app",
		Context: map[string]any{"project_id": e.ProjectID.String()},
	}); err != nil {
		return err
	}

	toReset, err := c.attendances.FindApprovedByProjectWorkerDate(ctx, e.ProjectID, e.UserID, e.WorkDate)
	if err != nil {
		return err
	}
	for _, a := range toReset {
		if err := c.attendances.ResetToPending(ctx, tx, a.ID); err != nil {
			return err
		}
		if err := c.audit.Write(ctx, tx, audit.Entry{
			EntityType: "attendance", EntityID: a.ID, Action: "RESET",
			ActorID: &actorID, Source: "app",
			Context: map[string]any{"project_id": e.ProjectID.String(), "worker_id": a.WorkerID.String()},
		}); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// DeleteAttendanceBacked removes an attendance-backed timesheet row: the
// Attendance itself, the paired entry, and one audit DELETE in the
// timesheet-entry stream tagged with source "attendance".
func (c *Coordinator) DeleteAttendanceBacked(ctx context.Context, actorID uuid.UUID, attendanceID uuid.UUID) error {
	tx, err := c.store.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	entry, err := c.store.GetBySourceAttendance(ctx, tx, attendanceID)
	if err != nil && err != ErrNotFound {
		return err
	}
	if err := c.attendances.Delete(ctx, tx, attendanceID); err != nil {
		return err
	}
	if entry != nil {
		if err := c.store.Delete(ctx, tx, entry.ID); err != nil {
			return err
		}
	}
	if err := c.audit.Write(ctx, tx, audit.Entry{
		EntityType: "timesheet_entry", EntityID: attendanceID, Action: "DELETE",
		ActorID: &actorID, Source: "system",
		Changes: map[string]any{"source": "attendance"},
		Context: map[string]any{"attendance_id": attendanceID.String()},
	}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
