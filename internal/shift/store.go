package shift

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldops/dispatch/internal/dbx"
)

var ErrNotFound = errors.New("shift: not found")

// Querier aliases the module-wide executor interface, satisfied by
// *pgxpool.Pool and pgx.Tx, for methods that must sometimes run inside
// a caller-managed transaction.
type Querier = dbx.Querier

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Pool() *pgxpool.Pool { return s.pool }

func encodeGeofences(gs []Geofence) ([]byte, error) {
	if gs == nil {
		return nil, nil
	}
	return json.Marshal(gs)
}

func decodeGeofences(raw []byte) []Geofence {
	if len(raw) == 0 {
		return nil
	}
	var gs []Geofence
	if err := json.Unmarshal(raw, &gs); err != nil {
		return nil
	}
	return gs
}

// Create inserts a shift using exec (pool or tx), so callers can fold the
// conflict check + insert into one transaction.
func (s *Store) Create(ctx context.Context, exec Querier, sh *Shift) error {
	if sh.ID == uuid.Nil {
		sh.ID = uuid.New()
	}
	now := time.Now().UTC()
	sh.CreatedAt, sh.UpdatedAt = now, now
	if sh.Status == "" {
		sh.Status = StatusScheduled
	}
	geoJSON, err := encodeGeofences(sh.Geofences)
	if err != nil {
		return err
	}
	_, err = exec.Exec(ctx, `
		INSERT INTO shifts
			(id, project_id, worker_id, date, start_time, end_time, status,
			 default_break_min, geofences, job_id, job_name, created_by, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`, sh.ID, sh.ProjectID, sh.WorkerID, sh.Date, sh.StartTime, sh.EndTime, sh.Status,
		sh.DefaultBreakMin, geoJSON, sh.JobID, sh.JobName, sh.CreatedBy, sh.CreatedAt, sh.UpdatedAt)
	return err
}

func scanShift(row pgx.Row) (*Shift, error) {
	var sh Shift
	var geoRaw []byte
	err := row.Scan(&sh.ID, &sh.ProjectID, &sh.WorkerID, &sh.Date, &sh.StartTime, &sh.EndTime,
		&sh.Status, &sh.DefaultBreakMin, &geoRaw, &sh.JobID, &sh.JobName, &sh.CreatedBy,
		&sh.CreatedAt, &sh.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	sh.Geofences = decodeGeofences(geoRaw)
	return &sh, nil
}

const shiftColumns = `id, project_id, worker_id, date, start_time, end_time, status,
	default_break_min, geofences, job_id, job_name, created_by, created_at, updated_at`

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Shift, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+shiftColumns+` FROM shifts WHERE id = $1`, id)
	return scanShift(row)
}

// GetForUpdate locks the row with the given transaction, for the update
// path's conflict-recheck.
func (s *Store) GetForUpdate(ctx context.Context, tx Querier, id uuid.UUID) (*Shift, error) {
	row := tx.QueryRow(ctx, `SELECT `+shiftColumns+` FROM shifts WHERE id = $1 FOR UPDATE`, id)
	return scanShift(row)
}

// CandidatesForWorker fetches scheduled shifts for worker across the
// three calendar days straddling date, row-locking them so a concurrent
// create can't slip an overlapping shift in underneath this check.
func (s *Store) CandidatesForWorker(ctx context.Context, tx Querier, workerID uuid.UUID, date time.Time, excludeID *uuid.UUID) ([]*Shift, error) {
	from := date.AddDate(0, 0, -1)
	to := date.AddDate(0, 0, 1)
	rows, err := tx.Query(ctx, `
		SELECT `+shiftColumns+` FROM shifts
		WHERE worker_id = $1 AND status = $2 AND date BETWEEN $3 AND $4
		FOR UPDATE
	`, workerID, StatusScheduled, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Shift
	for rows.Next() {
		sh, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		if excludeID != nil && sh.ID == *excludeID {
			continue
		}
		out = append(out, sh)
	}
	return out, rows.Err()
}

func (s *Store) ListByProject(ctx context.Context, projectID uuid.UUID, from, to *time.Time, workerID *uuid.UUID) ([]*Shift, error) {
	query := `SELECT ` + shiftColumns + ` FROM shifts WHERE project_id = $1 AND status = $2`
	args := []any{projectID, StatusScheduled}
	n := 3
	if from != nil {
		query += " AND date >= $" + itoa(n)
		args = append(args, *from)
		n++
	}
	if to != nil {
		query += " AND date <= $" + itoa(n)
		args = append(args, *to)
		n++
	}
	if workerID != nil {
		query += " AND worker_id = $" + itoa(n)
		args = append(args, *workerID)
		n++
	}
	query += " ORDER BY date, start_time"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Shift
	for rows.Next() {
		sh, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sh)
	}
	return out, rows.Err()
}

// ListGlobal returns scheduled shifts across every project, excluding
// shifts attached to the sentinel "System Internal" project.
func (s *Store) ListGlobal(ctx context.Context, from, to *time.Time, workerID *uuid.UUID) ([]*Shift, error) {
	const qualifiedColumns = `s.id, s.project_id, s.worker_id, s.date, s.start_time, s.end_time, s.status,
		s.default_break_min, s.geofences, s.job_id, s.job_name, s.created_by, s.created_at, s.updated_at`
	query := `
		SELECT ` + qualifiedColumns + `
		FROM shifts s
		JOIN projects p ON p.id = s.project_id
		WHERE s.status = $1 AND p.name <> $2
	`
	args := []any{StatusScheduled, SystemInternalProject}
	n := 3
	if from != nil {
		query += " AND s.date >= $" + itoa(n)
		args = append(args, *from)
		n++
	}
	if to != nil {
		query += " AND s.date <= $" + itoa(n)
		args = append(args, *to)
		n++
	}
	if workerID != nil {
		query += " AND s.worker_id = $" + itoa(n)
		args = append(args, *workerID)
		n++
	}
	query += " ORDER BY s.date, s.start_time"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Shift
	for rows.Next() {
		sh, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sh)
	}
	return out, rows.Err()
}

// Update persists mutable fields (time-of-day, break, geofences, job,
// status) using exec (pool or tx). Date and WorkerID are never written
// here — the service layer enforces they're locked.
func (s *Store) Update(ctx context.Context, exec Querier, sh *Shift) error {
	geoJSON, err := encodeGeofences(sh.Geofences)
	if err != nil {
		return err
	}
	sh.UpdatedAt = time.Now().UTC()
	_, err = exec.Exec(ctx, `
		UPDATE shifts SET
			start_time = $2, end_time = $3, default_break_min = $4, geofences = $5,
			job_id = $6, job_name = $7, status = $8, updated_at = $9
		WHERE id = $1
	`, sh.ID, sh.StartTime, sh.EndTime, sh.DefaultBreakMin, geoJSON, sh.JobID, sh.JobName, sh.Status, sh.UpdatedAt)
	return err
}

func (s *Store) Delete(ctx context.Context, exec Querier, id uuid.UUID) error {
	_, err := exec.Exec(ctx, `DELETE FROM shifts WHERE id = $1`, id)
	return err
}

// ResetGeofencesMatching sets geofences = NULL for every shift in
// projectID whose single-region geofence matches (oldLat, oldLng) within
// coordMatchEpsilon, so those shifts go back to inheriting the project
// point. Returns the ids reset.
func (s *Store) ResetGeofencesMatching(ctx context.Context, tx Querier, projectID uuid.UUID, oldLat, oldLng float64) ([]uuid.UUID, error) {
	rows, err := tx.Query(ctx, `SELECT id, geofences FROM shifts WHERE project_id = $1 AND geofences IS NOT NULL`, projectID)
	if err != nil {
		return nil, err
	}
	type candidate struct {
		id  uuid.UUID
		geo []Geofence
	}
	var candidates []candidate
	for rows.Next() {
		var id uuid.UUID
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			rows.Close()
			return nil, err
		}
		candidates = append(candidates, candidate{id: id, geo: decodeGeofences(raw)})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var reset []uuid.UUID
	for _, c := range candidates {
		if len(c.geo) != 1 {
			continue
		}
		g := c.geo[0]
		if absDiff(g.Lat, oldLat) <= coordMatchEpsilon && absDiff(g.Lng, oldLng) <= coordMatchEpsilon {
			if _, err := tx.Exec(ctx, `UPDATE shifts SET geofences = NULL, updated_at = $2 WHERE id = $1`, c.id, time.Now().UTC()); err != nil {
				return nil, err
			}
			reset = append(reset, c.id)
		}
	}
	return reset, nil
}

func absDiff(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}

func itoa(n int) string {
	if n < 10 {
		return string(rune('0' + n))
	}
	return itoa(n/10) + string(rune('0'+n%10))
}
