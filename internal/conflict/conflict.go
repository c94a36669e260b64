// Package conflict detects overlapping shifts and overlapping attendance
// windows for a single worker. It is pure interval math; callers own the
// database fetch and the decision of what to do with a conflict —
// detection never blocks by itself.
package conflict

import (
	"time"

	"github.com/google/uuid"
)

// ShiftWindow is the minimal shape this package needs from a persisted
// shift to test for overlap.
type ShiftWindow struct {
	ID       uuid.UUID
	Date     time.Time // local calendar date, time-of-day ignored
	StartMin int       // minutes since local midnight
	EndMin   int       // minutes since local midnight; may be <= StartMin meaning cross-midnight
}

// axisMinutes projects a shift's (date, start, end) onto a 48-hour axis
// anchored at anchorDate's local midnight, handling cross-day shifts by
// extending the end past 1440 and shifting shifts on the day before/after
// by -1440/+1440.
func axisMinutes(anchorDate time.Time, w ShiftWindow) (start, end int, ok bool) {
	dayOffset := daysBetween(anchorDate, w.Date)
	if dayOffset < -1 || dayOffset > 1 {
		return 0, 0, false
	}
	base := dayOffset * 1440
	s := base + w.StartMin
	e := w.EndMin
	if e <= w.StartMin {
		e += 1440
	}
	e += base
	return s, e, true
}

func daysBetween(anchor, other time.Time) int {
	a := time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, time.UTC)
	o := time.Date(other.Year(), other.Month(), other.Day(), 0, 0, 0, 0, time.UTC)
	return int(o.Sub(a).Hours() / 24)
}

// ShiftConflicts returns every candidate shift whose local time window
// overlaps proposed, given candidates drawn from date-1, date and date+1
// (the caller's store query already narrows to the worker and to
// status=scheduled, excluding excludeID).
func ShiftConflicts(anchorDate time.Time, proposed ShiftWindow, candidates []ShiftWindow, excludeID *uuid.UUID) []ShiftWindow {
	ps, pe, ok := axisMinutes(anchorDate, proposed)
	if !ok {
		return nil
	}
	var conflicts []ShiftWindow
	for _, c := range candidates {
		if excludeID != nil && c.ID == *excludeID {
			continue
		}
		cs, ce, ok := axisMinutes(anchorDate, c)
		if !ok {
			continue
		}
		if ps < ce && cs < pe {
			conflicts = append(conflicts, c)
		}
	}
	return conflicts
}

// AttendanceWindow is an existing clocked-in/out interval (both in UTC).
type AttendanceWindow struct {
	ID  uuid.UUID
	In  time.Time
	Out time.Time
}

// AttendanceOverlaps reports whether proposed (in, out — both UTC) is
// disallowed against the given existing windows:
//   - touching boundaries are allowed (proposed.In == other.Out or
//     proposed.Out == other.In)
//   - a strict interval intersection, or either endpoint strictly inside
//     another window, is rejected
//   - a minimum 1-hour gap is required before an existing window's start:
//     proposed.In strictly inside (other.In-1h, other.In) is rejected even
//     though it wouldn't otherwise intersect.
func AttendanceOverlaps(proposedIn, proposedOut time.Time, existing []AttendanceWindow, excludeID *uuid.UUID) []AttendanceWindow {
	var conflicts []AttendanceWindow
	for _, w := range existing {
		if excludeID != nil && w.ID == *excludeID {
			continue
		}
		if intervalConflicts(proposedIn, proposedOut, w.In, w.Out) {
			conflicts = append(conflicts, w)
			continue
		}
		gapStart := w.In.Add(-1 * time.Hour)
		if proposedIn.After(gapStart) && proposedIn.Before(w.In) {
			conflicts = append(conflicts, w)
		}
	}
	return conflicts
}

func intervalConflicts(aIn, aOut, bIn, bOut time.Time) bool {
	// Touching boundaries are fine.
	if aIn.Equal(bOut) || aOut.Equal(bIn) {
		return false
	}
	// Strict intersection.
	if aIn.Before(bOut) && bIn.Before(aOut) {
		return true
	}
	// Either endpoint strictly inside the other window.
	if aIn.After(bIn) && aIn.Before(bOut) {
		return true
	}
	if aOut.After(bIn) && aOut.Before(bOut) {
		return true
	}
	return false
}
