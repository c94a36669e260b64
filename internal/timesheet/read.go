package timesheet

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/fieldops/dispatch/internal/attendance"
	"github.com/fieldops/dispatch/internal/audit"
	"github.com/fieldops/dispatch/internal/registry"
	"github.com/fieldops/dispatch/internal/shift"
	"github.com/fieldops/dispatch/internal/timeutil"
)

// Reader implements the read-only list-per-project and weekly-summary
// surfaces.
type Reader struct {
	shifts      *shift.Store
	attendances *attendance.Store
	entries     *Store
	audit       *audit.Store
	users       *registry.UserRegistry
	projects    *registry.ProjectRegistry
}

func NewReader(shifts *shift.Store, attendances *attendance.Store, entries *Store, auditStore *audit.Store, users *registry.UserRegistry, projects *registry.ProjectRegistry) *Reader {
	return &Reader{shifts: shifts, attendances: attendances, entries: entries, audit: auditStore, users: users, projects: projects}
}

// ListPerProject merges attendance-derived rows with manual entries for
// a project's date window: attendance rows win a (worker, date) slot,
// manual entries fill the rest.
func (r *Reader) ListPerProject(ctx context.Context, projectID uuid.UUID, userID *uuid.UUID, from, to time.Time) ([]Row, error) {
	proj, err := r.projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}

	shifts, err := r.shifts.ListByProject(ctx, projectID, &from, &to, userID)
	if err != nil {
		return nil, err
	}
	shiftByID := make(map[uuid.UUID]*shift.Shift, len(shifts))
	var shiftIDs []uuid.UUID
	for _, sh := range shifts {
		shiftByID[sh.ID] = sh
		shiftIDs = append(shiftIDs, sh.ID)
	}

	attendances, err := r.attendances.ListForShifts(ctx, shiftIDs)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var rows []Row
	for _, a := range attendances {
		if a.ShiftID == nil {
			continue
		}
		sh, ok := shiftByID[*a.ShiftID]
		if !ok {
			continue
		}
		worker, err := r.users.Get(ctx, a.WorkerID)
		if err != nil {
			continue
		}
		net, _ := a.NetMinutes()
		row := Row{
			ID:           "attendance_" + a.ID.String(),
			WorkerName:   worker.DisplayName(),
			WorkDate:     sh.Date,
			Minutes:      net,
			BreakMinutes: a.BreakMinutes,
			IsApproved:   a.Status == attendance.StatusApproved,
			Source:       "attendance",
		}
		if a.ClockIn != nil {
			t := timeutil.UTCToLocal(a.ClockIn.Time, proj.Timezone)
			row.StartTime = &t
		}
		if a.ClockOut != nil {
			t := timeutil.UTCToLocal(a.ClockOut.Time, proj.Timezone)
			row.EndTime = &t
		}
		if sh.Status == shift.StatusDeleted {
			row.ShiftDeleted = true
			if name, at, ok := r.mostRecentShiftDelete(ctx, projectID, sh.ID); ok {
				row.DeletedByName = name
				row.DeletedAt = at
			}
		}
		seen[worker.ID.String()+sh.Date.Format("2006-01-02")] = true
		rows = append(rows, row)
	}

	manual, err := r.entries.ListManualByWindow(ctx, projectID, userID, from, to)
	if err != nil {
		return nil, err
	}
	for _, e := range manual {
		key := e.UserID.String() + e.WorkDate.Format("2006-01-02")
		if seen[key] {
			continue
		}
		worker, err := r.users.Get(ctx, e.UserID)
		if err != nil {
			continue
		}
		rows = append(rows, Row{
			ID: e.ID.String(), WorkerName: worker.DisplayName(), WorkDate: e.WorkDate,
			StartTime: e.StartTime, EndTime: e.EndTime, Minutes: e.Minutes,
			IsApproved: e.IsApproved, Source: "manual",
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].WorkDate.Equal(rows[j].WorkDate) {
			return rows[i].WorkDate.Before(rows[j].WorkDate)
		}
		return before(rows[i].StartTime, rows[j].StartTime)
	})
	return rows, nil
}

func before(a, b *time.Time) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Before(*b)
}

// mostRecentShiftDelete scans the project's workload timeline (newest
// first) for the shift's DELETE entry and resolves the deleter's name.
func (r *Reader) mostRecentShiftDelete(ctx context.Context, projectID, shiftID uuid.UUID) (string, *time.Time, bool) {
	entries, err := r.audit.ProjectTimeline(ctx, noopResolver{}, projectID, "workload", "", 0, 0)
	if err != nil {
		return "", nil, false
	}
	for _, e := range entries {
		if e.EntityType != "shift" || e.Action != "DELETE" || e.EntityID != shiftID {
			continue
		}
		name := ""
		if e.ActorID != nil {
			if u, err := r.users.Get(ctx, *e.ActorID); err == nil {
				name = u.DisplayName()
			}
		}
		ts := e.Timestamp
		return name, &ts, true
	}
	return "", nil, false
}

type noopResolver struct{}

func (noopResolver) UserName(ctx context.Context, id uuid.UUID) (string, bool)    { return "", false }
func (noopResolver) ProjectName(ctx context.Context, id uuid.UUID) (string, bool) { return "", false }

// WeeklyEvent is one line of the weekly summary.
type WeeklyEvent struct {
	AttendanceID        uuid.UUID
	Date                time.Time
	GrossMinutes        int
	BreakMinutes        int
	NetMinutes          int
	HoursWorkedOverride bool
}

// WeeklySummary builds the Sunday-anchored week view for one user:
// per-event gross/break/net minutes plus week totals.
func (r *Reader) WeeklySummary(ctx context.Context, userID uuid.UUID, anyDayInWeek time.Time, tz string) ([]WeeklyEvent, int, int, error) {
	sunday := startOfWeekSunday(anyDayInWeek)
	// The window runs through the last instant of Saturday.
	weekEnd := sunday.AddDate(0, 0, 7).Add(-time.Nanosecond)

	rows, err := r.attendancesBetween(ctx, userID, sunday, weekEnd)
	if err != nil {
		return nil, 0, 0, err
	}

	var events []WeeklyEvent
	totalReg, totalBreak := 0, 0
	for _, a := range rows {
		if hours, ok := attendance.HoursWorkedOverride(a.ReasonText); ok && (a.ClockIn == nil || a.ClockOut == nil) {
			minutes := int(hours * 60)
			events = append(events, WeeklyEvent{AttendanceID: a.ID, Date: dateOf(a, tz), NetMinutes: minutes, HoursWorkedOverride: true})
			totalReg += minutes
			continue
		}
		gross, ok := a.GrossMinutes()
		if !ok {
			continue
		}
		brk := 0
		if a.BreakMinutes != nil {
			brk = *a.BreakMinutes
		}
		net := gross - brk
		if net < 0 {
			net = 0
		}
		events = append(events, WeeklyEvent{AttendanceID: a.ID, Date: dateOf(a, tz), GrossMinutes: gross, BreakMinutes: brk, NetMinutes: net})
		totalReg += gross
		totalBreak += brk
	}
	return events, totalReg, totalReg - totalBreak, nil
}

func dateOf(a *attendance.Attendance, tz string) time.Time {
	if a.ClockIn != nil {
		return timeutil.UTCToLocal(a.ClockIn.Time, tz)
	}
	if a.ClockOut != nil {
		return timeutil.UTCToLocal(a.ClockOut.Time, tz)
	}
	return time.Time{}
}

func (r *Reader) attendancesBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]*attendance.Attendance, error) {
	tx := r.attendances.Pool()
	rows, err := tx.Query(ctx, `
		SELECT id FROM attendance
		WHERE worker_id = $1 AND COALESCE(clock_in_time, clock_out_time) BETWEEN $2 AND $3
	`, userID, from, to)
	if err != nil {
		return nil, err
	}
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	var out []*attendance.Attendance
	for _, id := range ids {
		a, err := r.attendances.Get(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func startOfWeekSunday(t time.Time) time.Time {
	wd := int(t.Weekday())
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()).AddDate(0, 0, -wd)
}
