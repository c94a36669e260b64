package timesheet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldops/dispatch/internal/dbx"
)

var ErrNotFound = errors.New("timesheet: not found")

type Querier = dbx.Querier

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Pool() *pgxpool.Pool { return s.pool }

const entryColumns = `id, project_id, user_id, work_date, start_time, end_time, minutes, notes,
	created_by, created_at, source_attendance_id, is_approved, approved_at, approved_by`

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.ProjectID, &e.UserID, &e.WorkDate, &e.StartTime, &e.EndTime, &e.Minutes, &e.Notes,
		&e.CreatedBy, &e.CreatedAt, &e.SourceAttendanceID, &e.IsApproved, &e.ApprovedAt, &e.ApprovedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Entry, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+entryColumns+` FROM project_time_entries WHERE id = $1`, id)
	return scanEntry(row)
}

func (s *Store) GetForUpdate(ctx context.Context, tx Querier, id uuid.UUID) (*Entry, error) {
	row := tx.QueryRow(ctx, `SELECT `+entryColumns+` FROM project_time_entries WHERE id = $1 FOR UPDATE`, id)
	return scanEntry(row)
}

// GetBySourceAttendance finds the entry materialized from a given
// attendance id, if any.
func (s *Store) GetBySourceAttendance(ctx context.Context, tx Querier, attendanceID uuid.UUID) (*Entry, error) {
	row := tx.QueryRow(ctx, `SELECT `+entryColumns+` FROM project_time_entries WHERE source_attendance_id = $1`, attendanceID)
	return scanEntry(row)
}

func (s *Store) Insert(ctx context.Context, exec Querier, e *Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := exec.Exec(ctx, `
		INSERT INTO project_time_entries
			(id, project_id, user_id, work_date, start_time, end_time, minutes, notes,
			 created_by, created_at, source_attendance_id, is_approved, approved_at, approved_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`, e.ID, e.ProjectID, e.UserID, e.WorkDate, e.StartTime, e.EndTime, e.Minutes, e.Notes,
		e.CreatedBy, e.CreatedAt, e.SourceAttendanceID, e.IsApproved, e.ApprovedAt, e.ApprovedBy)
	return err
}

func (s *Store) Update(ctx context.Context, exec Querier, e *Entry) error {
	_, err := exec.Exec(ctx, `
		UPDATE project_time_entries SET
			start_time = $2, end_time = $3, minutes = $4, notes = $5,
			is_approved = $6, approved_at = $7, approved_by = $8
		WHERE id = $1
	`, e.ID, e.StartTime, e.EndTime, e.Minutes, e.Notes, e.IsApproved, e.ApprovedAt, e.ApprovedBy)
	return err
}

func (s *Store) Delete(ctx context.Context, exec Querier, id uuid.UUID) error {
	_, err := exec.Exec(ctx, `DELETE FROM project_time_entries WHERE id = $1`, id)
	return err
}

func (s *Store) AppendLog(ctx context.Context, exec Querier, l Log) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	_, err := exec.Exec(ctx, `
		INSERT INTO project_time_entry_logs (id, time_entry_id, action, actor_id, created_at, notes)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, l.ID, l.TimeEntryID, l.Action, l.ActorID, l.CreatedAt, l.Notes)
	return err
}

// ListManualByWindow fetches manual entries for a project/user within a
// date window, merged behind attendance-derived rows by the reader.
func (s *Store) ListManualByWindow(ctx context.Context, projectID uuid.UUID, userID *uuid.UUID, from, to time.Time) ([]*Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM project_time_entries
		WHERE project_id = $1 AND work_date BETWEEN $2 AND $3 AND source_attendance_id IS NULL`
	args := []any{projectID, from, to}
	if userID != nil {
		query += " AND user_id = $4"
		args = append(args, *userID)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListApprovedByProjectWorkerDate mirrors attendance.FindApprovedByProjectWorkerDate
// for timesheet entries. The manual-entry delete resets approvals through
// the attendance store's lookup, not this one.
func (s *Store) ListApprovedByProjectWorkerDate(ctx context.Context, projectID, userID uuid.UUID, date time.Time) ([]*Entry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+entryColumns+` FROM project_time_entries
		WHERE project_id = $1 AND user_id = $2 AND work_date = $3 AND is_approved = true
	`, projectID, userID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
