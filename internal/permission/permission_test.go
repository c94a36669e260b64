package permission

import (
	"testing"

	"github.com/google/uuid"
)

func TestCanCreateShiftFor(t *testing.T) {
	admin := Actor{ID: uuid.New(), Roles: map[string]bool{"admin": true}}
	supervisor := Actor{ID: uuid.New(), Roles: map[string]bool{"supervisor": true}}
	worker := Actor{ID: uuid.New(), Roles: map[string]bool{"worker": true}}
	other := Actor{ID: uuid.New(), Roles: map[string]bool{"worker": true}}

	tests := []struct {
		name    string
		actor   Actor
		worker  Worker
		project string
		want    bool
	}{
		{"admin always allowed", admin, Worker{ID: other.ID}, "Acme Site", true},
		{"supervisor always allowed", supervisor, Worker{ID: other.ID}, "Acme Site", true},
		{"worker scheduling self into General", worker, Worker{ID: worker.ID}, GeneralProjectName, true},
		{"worker scheduling self into named project", worker, Worker{ID: worker.ID}, "Acme Site", false},
		{"worker scheduling someone else into General", worker, Worker{ID: other.ID}, GeneralProjectName, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanCreateShiftFor(tt.actor, tt.worker, tt.project); got != tt.want {
				t.Errorf("CanCreateShiftFor() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanModifyShift(t *testing.T) {
	admin := Actor{ID: uuid.New(), Roles: map[string]bool{"admin": true}}
	manager := Actor{ID: uuid.New(), Roles: map[string]bool{"supervisor": true}}
	lead := Actor{ID: uuid.New(), Roles: map[string]bool{"worker": true}}
	stranger := Actor{ID: uuid.New(), Roles: map[string]bool{"worker": true}}
	w := Worker{ID: uuid.New(), ManagerUserID: &manager.ID}
	project := Project{ID: uuid.New(), OnsiteLeadID: &lead.ID}

	tests := []struct {
		name  string
		actor Actor
		want  bool
	}{
		{"admin", admin, true},
		{"worker's manager", manager, true},
		{"project's onsite lead", lead, true},
		{"unrelated worker", stranger, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanModifyShift(tt.actor, w, project); got != tt.want {
				t.Errorf("CanModifyShift() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanClockOnBehalf(t *testing.T) {
	admin := Actor{ID: uuid.New(), Roles: map[string]bool{"admin": true}}
	manager := Actor{ID: uuid.New(), Roles: map[string]bool{"supervisor": true}}
	lead := Actor{ID: uuid.New(), Roles: map[string]bool{"worker": true}}
	stranger := Actor{ID: uuid.New(), Roles: map[string]bool{"worker": true}}
	w := Worker{ID: uuid.New(), ManagerUserID: &manager.ID}
	project := Project{ID: uuid.New(), OnsiteLeadID: &lead.ID}

	tests := []struct {
		name  string
		actor Actor
		want  bool
	}{
		{"admin", admin, true},
		{"worker's manager", manager, true},
		{"project's onsite lead", lead, true},
		{"unprivileged actor", stranger, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanClockOnBehalf(tt.actor, w, project); got != tt.want {
				t.Errorf("CanClockOnBehalf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReasonMeetsMinimum(t *testing.T) {
	if !ReasonMeetsMinimum("worker's phone died", 10) {
		t.Error("long reason should pass")
	}
	if ReasonMeetsMinimum("short", 10) {
		t.Error("short reason should fail")
	}
	if !ReasonMeetsMinimum("exact", 5) {
		t.Error("reason at exactly the minimum should pass")
	}
}

func TestIsOnsiteLeadOf(t *testing.T) {
	directLead := uuid.New()
	divisionLead := uuid.New()
	division := uuid.New()
	project := Project{
		OnsiteLeadID:        &directLead,
		DivisionOnsiteLeads: map[uuid.UUID]uuid.UUID{division: divisionLead},
	}

	if !IsOnsiteLeadOf(Actor{ID: directLead}, project) {
		t.Error("direct lead should match")
	}
	if !IsOnsiteLeadOf(Actor{ID: divisionLead}, project) {
		t.Error("division lead should match")
	}
	if IsOnsiteLeadOf(Actor{ID: uuid.New()}, project) {
		t.Error("unrelated actor should not match")
	}
}
