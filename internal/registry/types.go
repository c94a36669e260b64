// Package registry is the dispatch core's view of projects, users,
// divisions and settings. In a split deployment these would be other
// services; here they are concrete Postgres-backed adapters the core
// mostly queries. The writes are ProjectRegistry.UpdateCoordinates (used
// by the shift manager's coordinate propagation) and SettingsStore.SetItem.
package registry

import (
	"time"

	"github.com/google/uuid"
)

// Project is the subset of project data the dispatch core consumes.
type Project struct {
	ID                  uuid.UUID
	Name                string
	Timezone            string
	Lat, Lng            *float64
	OnsiteLeadID        *uuid.UUID
	DivisionOnsiteLeads map[uuid.UUID]uuid.UUID
}

// User is the subset of user/employee-profile data the dispatch core
// consumes for permission and notification routing.
type User struct {
	ID             uuid.UUID
	Username       string
	PreferredName  string
	FirstName      string
	LastName       string
	Roles          map[string]bool
	Divisions      []uuid.UUID
	ManagerUserID  *uuid.UUID
	LegacyDivision *uuid.UUID

	// Timezone and notification preferences used by the notification
	// gateway's should-send rule. Quiet hours are evaluated in this
	// timezone, not the project's.
	Timezone          string
	PushEnabled       bool
	EmailEnabled      bool
	QuietHoursEnabled bool
	QuietHoursStart   time.Time
	QuietHoursEnd     time.Time
}

// DisplayName is the name-resolution fallback chain (preferred name,
// then first+last, then username) used throughout the audit timeline and
// timesheet aggregator.
func (u User) DisplayName() string {
	if u.PreferredName != "" {
		return u.PreferredName
	}
	if u.FirstName != "" || u.LastName != "" {
		name := u.FirstName
		if u.LastName != "" {
			if name != "" {
				name += " "
			}
			name += u.LastName
		}
		return name
	}
	return u.Username
}
