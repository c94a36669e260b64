// Package permission resolves the dispatch action gates against small
// read-only views of a user, a worker and a project — each gate is a
// short-circuited OR of independent boolean checks, never a single
// monolithic condition.
package permission

import "github.com/google/uuid"

const DefaultReasonMinChars = 5

// Actor is the minimal read-only view of the user performing an action.
type Actor struct {
	ID        uuid.UUID
	Roles     map[string]bool
	Divisions []uuid.UUID
}

// Worker is the minimal view of the user a shift/attendance belongs to.
type Worker struct {
	ID            uuid.UUID
	ManagerUserID *uuid.UUID
}

// Project is the minimal view needed for onsite-lead checks.
type Project struct {
	ID                  uuid.UUID
	OnsiteLeadID        *uuid.UUID
	DivisionOnsiteLeads map[uuid.UUID]uuid.UUID // division id -> lead user id
}

func (a Actor) IsAdmin() bool      { return a.Roles["admin"] }
func (a Actor) IsSupervisor() bool { return a.Roles["supervisor"] }
func (a Actor) IsWorker() bool     { return a.Roles["worker"] }

// IsWorkerSupervisorOf reports whether a is the manager on record for w.
func IsWorkerSupervisorOf(a Actor, w Worker) bool {
	return w.ManagerUserID != nil && *w.ManagerUserID == a.ID
}

// IsOnsiteLeadOf reports whether a is the project's onsite lead, either
// directly or via any division-specific lead assignment.
func IsOnsiteLeadOf(a Actor, p Project) bool {
	if p.OnsiteLeadID != nil && *p.OnsiteLeadID == a.ID {
		return true
	}
	for _, lead := range p.DivisionOnsiteLeads {
		if lead == a.ID {
			return true
		}
	}
	return false
}

// GeneralProjectName is the sentinel project a worker may self-schedule
// into without supervisor/admin privilege.
const GeneralProjectName = "General"

// CanCreateShiftFor reports whether a may create a shift assigned to
// worker in the named project.
func CanCreateShiftFor(a Actor, worker Worker, projectName string) bool {
	if a.IsAdmin() || a.IsSupervisor() {
		return true
	}
	return worker.ID == a.ID && projectName == GeneralProjectName
}

// CanModifyShift reports whether a may edit/delete a shift belonging to
// worker in project.
func CanModifyShift(a Actor, worker Worker, project Project) bool {
	if a.IsAdmin() {
		return true
	}
	if IsWorkerSupervisorOf(a, worker) {
		return true
	}
	return IsOnsiteLeadOf(a, project)
}

// CanClockOwnShift reports whether a may clock in/out against a shift
// assigned to worker (a clocks their own shift).
func CanClockOwnShift(a Actor, worker Worker) bool {
	return a.ID == worker.ID
}

// CanClockOnBehalf reports whether a may clock on behalf of worker at
// all. The supplied reason text is a separate, validation-class check —
// see ReasonMeetsMinimum.
func CanClockOnBehalf(a Actor, worker Worker, project Project) bool {
	return a.IsAdmin() || IsWorkerSupervisorOf(a, worker) || IsOnsiteLeadOf(a, project)
}

// ReasonMeetsMinimum reports whether reasonText is long enough to back an
// on-behalf clock event.
func ReasonMeetsMinimum(reasonText string, minChars int) bool {
	return len([]rune(reasonText)) >= minChars
}

// CanApproveAttendance reports whether a may approve/reject attendance in
// project.
func CanApproveAttendance(a Actor, project Project) bool {
	if a.IsAdmin() {
		return true
	}
	return a.IsSupervisor()
}
