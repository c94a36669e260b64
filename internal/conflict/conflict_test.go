package conflict

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func day(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestShiftConflicts(t *testing.T) {
	anchor := day("2026-07-15")
	candidateID := uuid.New()

	tests := []struct {
		name       string
		proposed   ShiftWindow
		candidates []ShiftWindow
		wantCount  int
	}{
		{
			name:     "no overlap same day",
			proposed: ShiftWindow{Date: anchor, StartMin: 9 * 60, EndMin: 12 * 60},
			candidates: []ShiftWindow{
				{ID: candidateID, Date: anchor, StartMin: 13 * 60, EndMin: 17 * 60},
			},
			wantCount: 0,
		},
		{
			name:     "overlapping same day",
			proposed: ShiftWindow{Date: anchor, StartMin: 9 * 60, EndMin: 13 * 60},
			candidates: []ShiftWindow{
				{ID: candidateID, Date: anchor, StartMin: 12 * 60, EndMin: 17 * 60},
			},
			wantCount: 1,
		},
		{
			name:     "touching boundary is not a conflict",
			proposed: ShiftWindow{Date: anchor, StartMin: 9 * 60, EndMin: 13 * 60},
			candidates: []ShiftWindow{
				{ID: candidateID, Date: anchor, StartMin: 13 * 60, EndMin: 17 * 60},
			},
			wantCount: 0,
		},
		{
			name:     "cross-midnight shift overlaps next day's early shift",
			proposed: ShiftWindow{Date: anchor, StartMin: 22 * 60, EndMin: 6 * 60},
			candidates: []ShiftWindow{
				{ID: candidateID, Date: day("2026-07-16"), StartMin: 5 * 60, EndMin: 9 * 60},
			},
			wantCount: 1,
		},
		{
			name:     "excluded id is skipped",
			proposed: ShiftWindow{Date: anchor, StartMin: 9 * 60, EndMin: 13 * 60},
			candidates: []ShiftWindow{
				{ID: candidateID, Date: anchor, StartMin: 12 * 60, EndMin: 17 * 60},
			},
			wantCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var exclude *uuid.UUID
			if tt.name == "excluded id is skipped" {
				exclude = &candidateID
			}
			got := ShiftConflicts(anchor, tt.proposed, tt.candidates, exclude)
			if len(got) != tt.wantCount {
				t.Errorf("ShiftConflicts() returned %d conflicts, want %d", len(got), tt.wantCount)
			}
		})
	}
}

func TestAttendanceOverlaps(t *testing.T) {
	base := time.Date(2026, 7, 15, 9, 0, 0, 0, time.UTC)
	existingID := uuid.New()

	tests := []struct {
		name            string
		proposedIn      time.Time
		proposedOut     time.Time
		existing        []AttendanceWindow
		wantConflictLen int
	}{
		{
			name:        "no overlap, well separated",
			proposedIn:  base.Add(3 * time.Hour),
			proposedOut: base.Add(4 * time.Hour),
			existing: []AttendanceWindow{
				{ID: existingID, In: base, Out: base.Add(1 * time.Hour)},
			},
			wantConflictLen: 0,
		},
		{
			name:        "strict overlap",
			proposedIn:  base.Add(30 * time.Minute),
			proposedOut: base.Add(90 * time.Minute),
			existing: []AttendanceWindow{
				{ID: existingID, In: base, Out: base.Add(1 * time.Hour)},
			},
			wantConflictLen: 1,
		},
		{
			name:        "touching boundary allowed",
			proposedIn:  base.Add(1 * time.Hour),
			proposedOut: base.Add(2 * time.Hour),
			existing: []AttendanceWindow{
				{ID: existingID, In: base, Out: base.Add(1 * time.Hour)},
			},
			wantConflictLen: 0,
		},
		{
			name:        "within 1 hour gap before existing start rejected",
			proposedIn:  base.Add(-30 * time.Minute),
			proposedOut: base.Add(-20 * time.Minute),
			existing: []AttendanceWindow{
				{ID: existingID, In: base, Out: base.Add(1 * time.Hour)},
			},
			wantConflictLen: 1,
		},
		{
			name:        "more than 1 hour before existing start is fine",
			proposedIn:  base.Add(-90 * time.Minute),
			proposedOut: base.Add(-70 * time.Minute),
			existing: []AttendanceWindow{
				{ID: existingID, In: base, Out: base.Add(1 * time.Hour)},
			},
			wantConflictLen: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AttendanceOverlaps(tt.proposedIn, tt.proposedOut, tt.existing, nil)
			if len(got) != tt.wantConflictLen {
				t.Errorf("AttendanceOverlaps() returned %d conflicts, want %d", len(got), tt.wantConflictLen)
			}
		})
	}
}
