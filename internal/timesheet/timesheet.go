// Package timesheet is the read-side aggregator, the manual-entry
// manager, and the materialization coordinator: it turns an approved,
// shift-bound attendance into a durable TimesheetEntry row, keeps that
// row in sync with its source attendance, and cascades deletes in both
// directions.
package timesheet

import (
	"time"

	"github.com/google/uuid"
)

// SourceAttendance marks a TimesheetEntry as materialized from an
// attendance record rather than entered manually.
const SourceAttendance = "attendance system"

type Entry struct {
	ID                 uuid.UUID
	ProjectID          uuid.UUID
	UserID             uuid.UUID
	WorkDate           time.Time
	StartTime          *time.Time
	EndTime            *time.Time
	Minutes            int
	Notes              *string
	CreatedBy          *uuid.UUID
	CreatedAt          time.Time
	SourceAttendanceID *uuid.UUID
	IsApproved         bool
	ApprovedAt         *time.Time
	ApprovedBy         *uuid.UUID
}

type Log struct {
	ID          uuid.UUID
	TimeEntryID *uuid.UUID
	Action      string
	ActorID     *uuid.UUID
	CreatedAt   time.Time
	Notes       *string
}

// Row is a list-per-project result row: either a synthetic row derived
// from an attendance, or a manual TimesheetEntry, normalized to one
// shape for the caller.
type Row struct {
	ID            string // "attendance_<id>" or the manual entry's id
	WorkerName    string
	WorkDate      time.Time
	StartTime     *time.Time // project-local
	EndTime       *time.Time // project-local
	Minutes       int
	BreakMinutes  *int
	IsApproved    bool
	Source        string // "attendance" or "manual"
	ShiftDeleted  bool
	DeletedByName string
	DeletedAt     *time.Time
}
