// Package attendance implements the attendance engine: the
// clock-in/clock-out state machine, the pairing rule that folds a
// clock-in and its matching clock-out into one row, break-minute
// computation, and approvals.
package attendance

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fieldops/dispatch/internal/dbx"
)

// TimesheetMaterializer is implemented by the timesheet package's
// coordinator. It is declared here, not there, so this package can depend
// on it without importing timesheet — timesheet already depends on
// attendance for the reverse operations (the delete of an
// attendance-backed row, and the approved-attendance reset that follows
// deleting a manual entry), and a two-way package import would cycle.
type TimesheetMaterializer interface {
	// MaterializeFromAttendance creates or updates the TimesheetEntry
	// keyed by (project, worker, shift date) once an attendance bound to
	// a shift becomes approved.
	MaterializeFromAttendance(ctx context.Context, exec dbx.Querier, a *Attendance, shiftProjectID uuid.UUID, shiftDate time.Time, shiftStartTime time.Time) error
	// DeletePairedEntry removes the TimesheetEntry sourced from this
	// attendance, if any.
	DeletePairedEntry(ctx context.Context, exec dbx.Querier, attendanceID uuid.UUID) error
}

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

const (
	SourceApp        = "app"
	SourceSupervisor = "supervisor"
	SourceAdmin      = "admin"
	SourceSystem     = "system"
)

const (
	TypeIn  = "in"
	TypeOut = "out"
)

// BreakEligibleMinDurationMin is the duration threshold a
// clocked pair must meet before the policy default break is applied.
const BreakEligibleMinDurationMin = 300

// FutureGrace is the allowance by which a clock event's resolved UTC
// instant may exceed server-now before being rejected as invalid.
const FutureGrace = 4 * time.Minute

type GPS struct {
	Lat, Lng   float64
	AccuracyM  *float64
	HasReading bool
}

type Endpoint struct {
	Time       time.Time
	EnteredUTC time.Time
	GPS        GPS
	Mocked     bool
}

type Attendance struct {
	ID       uuid.UUID
	ShiftID  *uuid.UUID
	WorkerID uuid.UUID

	ClockIn  *Endpoint
	ClockOut *Endpoint

	BreakMinutes *int
	Status       string
	Source       string
	ReasonText   *string

	ApprovedAt      *time.Time
	ApprovedBy      *uuid.UUID
	RejectedAt      *time.Time
	RejectedBy      *uuid.UUID
	RejectionReason *string

	// AttachmentURL is set once an uploaded photo attachment clears
	// blobstore.Uploader.Upload. A nil value after a clock event that
	// carried an attachment means the upload failed or no uploader is
	// configured; the clock event itself is never blocked on it.
	AttachmentURL *string

	CreatedBy *uuid.UUID
	CreatedAt time.Time
}

// GrossMinutes returns clock_out - clock_in in minutes when both
// endpoints are present.
func (a *Attendance) GrossMinutes() (int, bool) {
	if a.ClockIn == nil || a.ClockOut == nil {
		return 0, false
	}
	out := a.ClockOut.Time
	if out.Before(a.ClockIn.Time) {
		out = out.Add(24 * time.Hour)
	}
	return int(out.Sub(a.ClockIn.Time).Minutes()), true
}

// NetMinutes applies the break to GrossMinutes, never negative.
func (a *Attendance) NetMinutes() (int, bool) {
	gross, ok := a.GrossMinutes()
	if !ok {
		return 0, false
	}
	brk := 0
	if a.BreakMinutes != nil {
		brk = *a.BreakMinutes
	}
	net := gross - brk
	if net < 0 {
		net = 0
	}
	return net, true
}

// JobTypeMarker extracts the JOB_TYPE:<code> prefix of a direct
// attendance's reason_text.
func JobTypeMarker(reasonText *string) (string, bool) {
	if reasonText == nil {
		return "", false
	}
	const prefix = "JOB_TYPE:"
	if !strings.HasPrefix(*reasonText, prefix) {
		return "", false
	}
	rest := (*reasonText)[len(prefix):]
	if i := strings.IndexByte(rest, '|'); i >= 0 {
		rest = rest[:i]
	}
	return rest, true
}

// HoursWorkedOverride extracts the HOURS_WORKED:<float> segment embedded
// in reason_text, used by the weekly summary for entries that
// carry no clock times.
func HoursWorkedOverride(reasonText *string) (float64, bool) {
	if reasonText == nil {
		return 0, false
	}
	const marker = "HOURS_WORKED:"
	idx := strings.Index(*reasonText, marker)
	if idx < 0 {
		return 0, false
	}
	rest := (*reasonText)[idx+len(marker):]
	if i := strings.IndexByte(rest, '|'); i >= 0 {
		rest = rest[:i]
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(rest), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ComputeBreakMinutes resolves the break: a manual override always wins,
// otherwise an eligible worker's shift of five hours or more deducts the
// policy default, otherwise no break applies.
func ComputeBreakMinutes(manualOverride *int, bothPresent bool, grossMinutes int, workerEligible bool, policyDefault *int) *int {
	if manualOverride != nil && *manualOverride >= 0 {
		v := *manualOverride
		return &v
	}
	if bothPresent && grossMinutes >= BreakEligibleMinDurationMin && workerEligible && policyDefault != nil {
		v := *policyDefault
		return &v
	}
	return nil
}
