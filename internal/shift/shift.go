// Package shift implements the shift manager: create,
// list, get, update, delete, plus the coordinate-propagation rule that
// resets a shift's geofences back to "inherit from project" when its
// custom geofence exactly matched the project's old coordinates.
package shift

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusScheduled = "scheduled"
	StatusDeleted   = "deleted"
)

// SystemInternalProject is the sentinel project excluded from "visible
// shifts" queries.
const SystemInternalProject = "System Internal"

type Geofence struct {
	Lat, Lng float64
	RadiusM  float64
}

type Shift struct {
	ID              uuid.UUID
	ProjectID       uuid.UUID
	WorkerID        uuid.UUID
	Date            time.Time
	StartTime       time.Time // time-of-day only, local to the project
	EndTime         time.Time
	Status          string
	DefaultBreakMin *int
	Geofences       []Geofence // nil means "inherit from project"
	JobID           *string
	JobName         *string
	CreatedBy       *uuid.UUID
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// StartMinutes/EndMinutes project the shift's local time-of-day onto a
// 0-1440 minute axis, for the conflict package.
func (s Shift) StartMinutes() int { return s.StartTime.Hour()*60 + s.StartTime.Minute() }
func (s Shift) EndMinutes() int   { return s.EndTime.Hour()*60 + s.EndTime.Minute() }

// IsCrossMidnight reports whether the shift's end is at or before its
// start, meaning it runs into the next calendar day.
func (s Shift) IsCrossMidnight() bool {
	return s.EndMinutes() <= s.StartMinutes()
}

const coordMatchEpsilon = 0.0001 // ~11m
