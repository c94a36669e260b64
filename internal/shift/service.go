package shift

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fieldops/dispatch/internal/apierr"
	"github.com/fieldops/dispatch/internal/audit"
	"github.com/fieldops/dispatch/internal/conflict"
	"github.com/fieldops/dispatch/internal/notify"
	"github.com/fieldops/dispatch/internal/permission"
	"github.com/fieldops/dispatch/internal/registry"
)

// DefaultGeofenceRadiusM is the fallback for GEO_RADIUS_M_DEFAULT.
const DefaultGeofenceRadiusM = 150.0

type Service struct {
	store    *Store
	projects *registry.ProjectRegistry
	users    *registry.UserRegistry
	audit    *audit.Store
	notify   *notify.Gateway
	radiusM  float64
}

func NewService(store *Store, projects *registry.ProjectRegistry, users *registry.UserRegistry, auditStore *audit.Store, notifier *notify.Gateway, radiusM float64) *Service {
	return &Service{store: store, projects: projects, users: users, audit: auditStore, notify: notifier, radiusM: radiusM}
}

// CreateInput carries the create-shift request fields.
type CreateInput struct {
	ProjectID       uuid.UUID
	WorkerID        uuid.UUID
	Date            time.Time
	StartTime       time.Time
	EndTime         time.Time
	DefaultBreakMin *int
	Geofences       []Geofence
	JobID           *string
	JobName         *string
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

// Create validates, conflict-checks and persists a new shift in one
// transaction: row-lock the worker's candidate shifts, recheck overlap,
// insert, write the audit row, and enqueue the created notification —
// all or nothing.
func (svc *Service) Create(ctx context.Context, actorID uuid.UUID, in CreateInput) (*Shift, error) {
	project, err := svc.projects.Get(ctx, in.ProjectID)
	if err != nil {
		return nil, apierr.NotFound("project %s not found", in.ProjectID)
	}
	worker, err := svc.users.Get(ctx, in.WorkerID)
	if err != nil {
		return nil, apierr.NotFound("worker %s not found", in.WorkerID)
	}
	actor, err := svc.users.Get(ctx, actorID)
	if err != nil {
		return nil, apierr.NotFound("actor %s not found", actorID)
	}

	if !permission.CanCreateShiftFor(actorFromUser(actor), workerFromUser(worker), project.Name) {
		return nil, apierr.Forbidden("not permitted to create a shift for this worker")
	}

	geofences := in.Geofences
	if len(geofences) == 0 {
		geofences = ptrGeofences(project.Lat, project.Lng, svc.radiusM)
	}

	tx, err := svc.store.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	candidates, err := svc.store.CandidatesForWorker(ctx, tx, in.WorkerID, in.Date, nil)
	if err != nil {
		return nil, err
	}
	proposed := conflict.ShiftWindow{Date: in.Date, StartMin: in.StartTime.Hour()*60 + in.StartTime.Minute(), EndMin: in.EndTime.Hour()*60 + in.EndTime.Minute()}
	var windows []conflict.ShiftWindow
	for _, c := range candidates {
		windows = append(windows, conflict.ShiftWindow{ID: c.ID, Date: c.Date, StartMin: c.StartMinutes(), EndMin: c.EndMinutes()})
	}
	conflicts := conflict.ShiftConflicts(in.Date, proposed, windows, nil)
	if len(conflicts) > 0 {
		ids := make([]uuid.UUID, len(conflicts))
		for i, c := range conflicts {
			ids[i] = c.ID
		}
		return nil, apierr.Conflict(ids, "shift overlaps %d existing shift(s)", len(conflicts))
	}

	sh := &Shift{
		ProjectID: in.ProjectID, WorkerID: in.WorkerID, Date: in.Date,
		StartTime: in.StartTime, EndTime: in.EndTime, Status: StatusScheduled,
		DefaultBreakMin: in.DefaultBreakMin, Geofences: geofences,
		JobID: in.JobID, JobName: in.JobName, CreatedBy: &actorID,
	}
	if err := svc.store.Create(ctx, tx, sh); err != nil {
		return nil, err
	}

	if err := svc.audit.Write(ctx, tx, audit.Entry{
		EntityType: "shift", EntityID: sh.ID, Action: "CREATE",
		ActorID: &actorID, Source: "app",
		Changes: map[string]any{"after": shiftSnapshot(sh)},
		Context: map[string]any{"project_id": sh.ProjectID.String(), "worker_id": sh.WorkerID.String()},
	}); err != nil {
		return nil, err
	}

	if _, err := svc.notify.Enqueue(ctx, tx, sh.WorkerID, notify.ChannelPush, notify.TemplateShiftCreated,
		map[string]any{"shift_id": sh.ID}, notify.PreferencesFromUser(*worker), worker.Timezone); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return sh, nil
}

// ResolveGeneralProject looks up the sentinel "General" project a worker
// may self-schedule into. Its absence is a system precondition failure,
// not a caller mistake.
func (svc *Service) ResolveGeneralProject(ctx context.Context) (uuid.UUID, error) {
	p, err := svc.projects.GetByName(ctx, permission.GeneralProjectName)
	if err != nil {
		if err == registry.ErrProjectNotFound {
			return uuid.Nil, apierr.PreconditionMissing("no %q project exists", permission.GeneralProjectName)
		}
		return uuid.Nil, err
	}
	return p.ID, nil
}

// Get returns a shift by id for read-only display.
func (svc *Service) Get(ctx context.Context, id uuid.UUID) (*Shift, error) {
	sh, err := svc.store.Get(ctx, id)
	if err != nil {
		return nil, apierr.NotFound("shift %s not found", id)
	}
	return sh, nil
}

// ListByProject returns a project's scheduled shifts, optionally filtered
// by date window and worker.
func (svc *Service) ListByProject(ctx context.Context, projectID uuid.UUID, from, to *time.Time, workerID *uuid.UUID) ([]*Shift, error) {
	return svc.store.ListByProject(ctx, projectID, from, to, workerID)
}

// ListGlobal returns scheduled shifts across every project, optionally
// filtered by date window and worker.
func (svc *Service) ListGlobal(ctx context.Context, from, to *time.Time, workerID *uuid.UUID) ([]*Shift, error) {
	return svc.store.ListGlobal(ctx, from, to, workerID)
}

func shiftSnapshot(sh *Shift) map[string]any {
	return map[string]any{
		"project_id": sh.ProjectID.String(), "worker_id": sh.WorkerID.String(),
		"date": sh.Date.Format("2006-01-02"), "status": sh.Status,
	}
}

// UpdateInput carries mutable shift fields. Date and WorkerID are
// intentionally absent: they are locked once a shift exists (a caller
// attempting to change either must be rejected).
type UpdateInput struct {
	StartTime       *time.Time
	EndTime         *time.Time
	DefaultBreakMin *int
	Geofences       *[]Geofence
	JobID           *string
	JobName         *string
	Status          *string

	// AttemptedDate/AttemptedWorkerID, if non-nil, let the handler pass
	// through whatever the client sent for these locked fields so the
	// service can validate "unchanged is fine, changed is rejected".
	AttemptedDate     *time.Time
	AttemptedWorkerID *uuid.UUID
}

func (svc *Service) Update(ctx context.Context, actorID, shiftID uuid.UUID, in UpdateInput) (*Shift, error) {
	actor, err := svc.users.Get(ctx, actorID)
	if err != nil {
		return nil, apierr.NotFound("actor not found")
	}

	tx, err := svc.store.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	sh, err := svc.store.GetForUpdate(ctx, tx, shiftID)
	if err != nil {
		return nil, apierr.NotFound("shift %s not found", shiftID)
	}

	if in.AttemptedDate != nil && !in.AttemptedDate.Equal(sh.Date) {
		return nil, apierr.Validation("shift date cannot be changed")
	}
	if in.AttemptedWorkerID != nil && *in.AttemptedWorkerID != sh.WorkerID {
		return nil, apierr.Validation("shift worker cannot be changed")
	}

	worker, err := svc.users.Get(ctx, sh.WorkerID)
	if err != nil {
		return nil, apierr.NotFound("worker not found")
	}
	project, err := svc.projects.Get(ctx, sh.ProjectID)
	if err != nil {
		return nil, apierr.NotFound("project not found")
	}
	if !permission.CanModifyShift(actorFromUser(actor), workerFromUser(worker), projectFromRegistry(project)) {
		return nil, apierr.Forbidden("not permitted to modify this shift")
	}

	before := shiftSnapshot(sh)
	timeChanged := false
	if in.StartTime != nil {
		sh.StartTime = *in.StartTime
		timeChanged = true
	}
	if in.EndTime != nil {
		sh.EndTime = *in.EndTime
		timeChanged = true
	}
	if in.DefaultBreakMin != nil {
		sh.DefaultBreakMin = in.DefaultBreakMin
	}
	if in.Geofences != nil {
		sh.Geofences = *in.Geofences
	}
	if in.JobID != nil {
		sh.JobID = in.JobID
	}
	if in.JobName != nil {
		sh.JobName = in.JobName
	}
	if in.Status != nil {
		sh.Status = *in.Status
	}

	if timeChanged {
		candidates, err := svc.store.CandidatesForWorker(ctx, tx, sh.WorkerID, sh.Date, &sh.ID)
		if err != nil {
			return nil, err
		}
		proposed := conflict.ShiftWindow{Date: sh.Date, StartMin: sh.StartMinutes(), EndMin: sh.EndMinutes()}
		var windows []conflict.ShiftWindow
		for _, c := range candidates {
			windows = append(windows, conflict.ShiftWindow{ID: c.ID, Date: c.Date, StartMin: c.StartMinutes(), EndMin: c.EndMinutes()})
		}
		conflicts := conflict.ShiftConflicts(sh.Date, proposed, windows, &sh.ID)
		if len(conflicts) > 0 {
			ids := make([]uuid.UUID, len(conflicts))
			for i, c := range conflicts {
				ids[i] = c.ID
			}
			return nil, apierr.Conflict(ids, "shift overlaps %d existing shift(s)", len(conflicts))
		}
	}

	if err := svc.store.Update(ctx, tx, sh); err != nil {
		return nil, err
	}

	if err := svc.audit.Write(ctx, tx, audit.Entry{
		EntityType: "shift", EntityID: sh.ID, Action: "UPDATE",
		ActorID: &actorID, Source: "app",
		Changes: map[string]any{"before": before, "after": shiftSnapshot(sh)},
		Context: map[string]any{"project_id": sh.ProjectID.String(), "worker_id": sh.WorkerID.String()},
	}); err != nil {
		return nil, err
	}

	if _, err := svc.notify.Enqueue(ctx, tx, sh.WorkerID, notify.ChannelPush, notify.TemplateShiftUpdated,
		map[string]any{"shift_id": sh.ID}, notify.PreferencesFromUser(*worker), worker.Timezone); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return sh, nil
}

func (svc *Service) Delete(ctx context.Context, actorID, shiftID uuid.UUID) error {
	actor, err := svc.users.Get(ctx, actorID)
	if err != nil {
		return apierr.NotFound("actor not found")
	}

	tx, err := svc.store.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	sh, err := svc.store.GetForUpdate(ctx, tx, shiftID)
	if err != nil {
		return apierr.NotFound("shift %s not found", shiftID)
	}
	worker, err := svc.users.Get(ctx, sh.WorkerID)
	if err != nil {
		return apierr.NotFound("worker not found")
	}
	project, err := svc.projects.Get(ctx, sh.ProjectID)
	if err != nil {
		return apierr.NotFound("project not found")
	}
	if !permission.CanModifyShift(actorFromUser(actor), workerFromUser(worker), projectFromRegistry(project)) {
		return apierr.Forbidden("not permitted to delete this shift")
	}

	before := shiftSnapshot(sh)
	if err := svc.store.Delete(ctx, tx, sh.ID); err != nil {
		return err
	}
	if err := svc.audit.Write(ctx, tx, audit.Entry{
		EntityType: "shift", EntityID: sh.ID, Action: "DELETE",
		ActorID: &actorID, Source: "app",
		Changes: map[string]any{"before": before},
		Context: map[string]any{"project_id": sh.ProjectID.String(), "worker_id": sh.WorkerID.String()},
	}); err != nil {
		return err
	}
	if _, err := svc.notify.Enqueue(ctx, tx, sh.WorkerID, notify.ChannelPush, notify.TemplateShiftCancelled,
		map[string]any{"shift_id": sh.ID}, notify.PreferencesFromUser(*worker), worker.Timezone); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// PropagateProjectCoordinateChange: when a project's coordinates change,
// every shift whose custom geofence was an exact single-point match of
// the old coordinates reverts to inheriting the project's (now new)
// coordinates; shifts with a different custom geofence, or none, are
// untouched. Runs in one transaction with the coordinate write itself.
func (svc *Service) PropagateProjectCoordinateChange(ctx context.Context, projectID uuid.UUID, newLat, newLng *float64) (resetShiftIDs []uuid.UUID, err error) {
	tx, err := svc.store.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	prevLat, prevLng, err := svc.projects.UpdateCoordinates(ctx, tx, projectID, newLat, newLng)
	if err != nil {
		return nil, err
	}
	if prevLat == nil || prevLng == nil {
		return nil, tx.Commit(ctx)
	}

	reset, err := svc.store.ResetGeofencesMatching(ctx, tx, projectID, *prevLat, *prevLng)
	if err != nil {
		return nil, err
	}
	return reset, tx.Commit(ctx)
}

func ptrGeofences(lat, lng *float64, radiusM float64) []Geofence {
	if lat == nil || lng == nil {
		return nil
	}
	return []Geofence{{Lat: *lat, Lng: *lng, RadiusM: radiusM}}
}
