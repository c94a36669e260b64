package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldops/dispatch/internal/dbx"
)

var ErrNotFound = errors.New("attendance: not found")

// Querier aliases the module-wide executor interface, satisfied by
// *pgxpool.Pool and pgx.Tx.
type Querier = dbx.Querier

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Pool() *pgxpool.Pool { return s.pool }

const attendanceColumns = `id, shift_id, worker_id,
	clock_in_time, clock_in_entered_utc, clock_in_lat, clock_in_lng, clock_in_accuracy_m, clock_in_mocked,
	clock_out_time, clock_out_entered_utc, clock_out_lat, clock_out_lng, clock_out_accuracy_m, clock_out_mocked,
	break_minutes, status, source, reason_text,
	approved_at, approved_by, rejected_at, rejected_by, rejection_reason,
	created_by, created_at, attachment_url`

func scanAttendance(row pgx.Row) (*Attendance, error) {
	var a Attendance
	var inTime, inEntered *time.Time
	var inLat, inLng, inAcc *float64
	var inMocked bool
	var outTime, outEntered *time.Time
	var outLat, outLng, outAcc *float64
	var outMocked bool

	err := row.Scan(
		&a.ID, &a.ShiftID, &a.WorkerID,
		&inTime, &inEntered, &inLat, &inLng, &inAcc, &inMocked,
		&outTime, &outEntered, &outLat, &outLng, &outAcc, &outMocked,
		&a.BreakMinutes, &a.Status, &a.Source, &a.ReasonText,
		&a.ApprovedAt, &a.ApprovedBy, &a.RejectedAt, &a.RejectedBy, &a.RejectionReason,
		&a.CreatedBy, &a.CreatedAt, &a.AttachmentURL,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if inTime != nil {
		a.ClockIn = &Endpoint{Time: *inTime, Mocked: inMocked}
		if inEntered != nil {
			a.ClockIn.EnteredUTC = *inEntered
		}
		if inLat != nil && inLng != nil {
			a.ClockIn.GPS = GPS{Lat: *inLat, Lng: *inLng, AccuracyM: inAcc, HasReading: true}
		}
	}
	if outTime != nil {
		a.ClockOut = &Endpoint{Time: *outTime, Mocked: outMocked}
		if outEntered != nil {
			a.ClockOut.EnteredUTC = *outEntered
		}
		if outLat != nil && outLng != nil {
			a.ClockOut.GPS = GPS{Lat: *outLat, Lng: *outLng, AccuracyM: outAcc, HasReading: true}
		}
	}
	return &a, nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Attendance, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+attendanceColumns+` FROM attendance WHERE id = $1`, id)
	return scanAttendance(row)
}

func (s *Store) GetForUpdate(ctx context.Context, tx Querier, id uuid.UUID) (*Attendance, error) {
	row := tx.QueryRow(ctx, `SELECT `+attendanceColumns+` FROM attendance WHERE id = $1 FOR UPDATE`, id)
	return scanAttendance(row)
}

// OpenClockInForShift finds the most recent row for (worker, shift) with
// clock_in set and clock_out null, locking it
// against concurrent clock-outs.
func (s *Store) OpenClockInForShift(ctx context.Context, tx Querier, workerID uuid.UUID, shiftID uuid.UUID) (*Attendance, error) {
	row := tx.QueryRow(ctx, `
		SELECT `+attendanceColumns+` FROM attendance
		WHERE worker_id = $1 AND shift_id = $2
		  AND clock_in_time IS NOT NULL AND clock_out_time IS NULL
		ORDER BY clock_in_time DESC
		LIMIT 1
		FOR UPDATE
	`, workerID, shiftID)
	return scanAttendance(row)
}

// OpenClockInDirect finds the most recent open direct (no shift) clock-in
// whose reason_text carries the given JOB_TYPE marker.
func (s *Store) OpenClockInDirect(ctx context.Context, tx Querier, workerID uuid.UUID, jobType string) (*Attendance, error) {
	row := tx.QueryRow(ctx, `
		SELECT `+attendanceColumns+` FROM attendance
		WHERE worker_id = $1 AND shift_id IS NULL
		  AND clock_in_time IS NOT NULL AND clock_out_time IS NULL
		  AND reason_text LIKE 'JOB_TYPE:' || $2 || '%'
		ORDER BY clock_in_time DESC
		LIMIT 1
		FOR UPDATE
	`, workerID, jobType)
	return scanAttendance(row)
}

// CandidatesForWorker fetches attendance rows for worker that could
// conflict with a proposed [in,out) window (the overlap predicate in
// internal/conflict operates on these in-memory), locking them for the duration
// of the check-then-insert transaction.
func (s *Store) CandidatesForWorker(ctx context.Context, tx Querier, workerID uuid.UUID, from, to time.Time, excludeID *uuid.UUID) ([]*Attendance, error) {
	rows, err := tx.Query(ctx, `
		SELECT `+attendanceColumns+` FROM attendance
		WHERE worker_id = $1
		  AND COALESCE(clock_in_time, clock_out_time) BETWEEN $2 AND $3
		FOR UPDATE
	`, workerID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Attendance
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		if excludeID != nil && a.ID == *excludeID {
			continue
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) Insert(ctx context.Context, exec Querier, a *Attendance) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	var inTime, inEntered *time.Time
	var inLat, inLng, inAcc *float64
	inMocked := false
	if a.ClockIn != nil {
		t := a.ClockIn.Time
		inTime = &t
		e := a.ClockIn.EnteredUTC
		inEntered = &e
		inMocked = a.ClockIn.Mocked
		if a.ClockIn.GPS.HasReading {
			lat, lng := a.ClockIn.GPS.Lat, a.ClockIn.GPS.Lng
			inLat, inLng, inAcc = &lat, &lng, a.ClockIn.GPS.AccuracyM
		}
	}
	var outTime, outEntered *time.Time
	var outLat, outLng, outAcc *float64
	outMocked := false
	if a.ClockOut != nil {
		t := a.ClockOut.Time
		outTime = &t
		e := a.ClockOut.EnteredUTC
		outEntered = &e
		outMocked = a.ClockOut.Mocked
		if a.ClockOut.GPS.HasReading {
			lat, lng := a.ClockOut.GPS.Lat, a.ClockOut.GPS.Lng
			outLat, outLng, outAcc = &lat, &lng, a.ClockOut.GPS.AccuracyM
		}
	}

	_, err := exec.Exec(ctx, `
		INSERT INTO attendance (
			id, shift_id, worker_id,
			clock_in_time, clock_in_entered_utc, clock_in_lat, clock_in_lng, clock_in_accuracy_m, clock_in_mocked,
			clock_out_time, clock_out_entered_utc, clock_out_lat, clock_out_lng, clock_out_accuracy_m, clock_out_mocked,
			break_minutes, status, source, reason_text,
			approved_at, approved_by, rejected_at, rejected_by, rejection_reason,
			created_by, created_at, attachment_url
		) VALUES (
			$1,$2,$3, $4,$5,$6,$7,$8,$9, $10,$11,$12,$13,$14,$15,
			$16,$17,$18,$19, $20,$21,$22,$23,$24, $25,$26,$27
		)
	`, a.ID, a.ShiftID, a.WorkerID,
		inTime, inEntered, inLat, inLng, inAcc, inMocked,
		outTime, outEntered, outLat, outLng, outAcc, outMocked,
		a.BreakMinutes, a.Status, a.Source, a.ReasonText,
		a.ApprovedAt, a.ApprovedBy, a.RejectedAt, a.RejectedBy, a.RejectionReason,
		a.CreatedBy, a.CreatedAt, a.AttachmentURL)
	return err
}

// UpdateClockOut sets the clock-out endpoint, break minutes and status of
// an existing row, pairing a clock-out with its open clock-in.
func (s *Store) UpdateClockOut(ctx context.Context, exec Querier, a *Attendance) error {
	var outTime, outEntered *time.Time
	var outLat, outLng, outAcc *float64
	outMocked := false
	if a.ClockOut != nil {
		t := a.ClockOut.Time
		outTime = &t
		e := a.ClockOut.EnteredUTC
		outEntered = &e
		outMocked = a.ClockOut.Mocked
		if a.ClockOut.GPS.HasReading {
			lat, lng := a.ClockOut.GPS.Lat, a.ClockOut.GPS.Lng
			outLat, outLng, outAcc = &lat, &lng, a.ClockOut.GPS.AccuracyM
		}
	}
	_, err := exec.Exec(ctx, `
		UPDATE attendance SET
			clock_out_time = $2, clock_out_entered_utc = $3, clock_out_lat = $4, clock_out_lng = $5,
			clock_out_accuracy_m = $6, clock_out_mocked = $7, break_minutes = $8, status = $9,
			attachment_url = COALESCE($10, attachment_url)
		WHERE id = $1
	`, a.ID, outTime, outEntered, outLat, outLng, outAcc, outMocked, a.BreakMinutes, a.Status, a.AttachmentURL)
	return err
}

// UpdatePending rewrites the clock time / gps / reason of a still-pending
// row. Only pending rows are ever handed to this method.
func (s *Store) UpdatePending(ctx context.Context, exec Querier, a *Attendance) error {
	var inTime, inEntered *time.Time
	var inLat, inLng, inAcc *float64
	inMocked := false
	if a.ClockIn != nil {
		t := a.ClockIn.Time
		inTime = &t
		e := a.ClockIn.EnteredUTC
		inEntered = &e
		inMocked = a.ClockIn.Mocked
		if a.ClockIn.GPS.HasReading {
			lat, lng := a.ClockIn.GPS.Lat, a.ClockIn.GPS.Lng
			inLat, inLng, inAcc = &lat, &lng, a.ClockIn.GPS.AccuracyM
		}
	}
	var outTime, outEntered *time.Time
	var outLat, outLng, outAcc *float64
	outMocked := false
	if a.ClockOut != nil {
		t := a.ClockOut.Time
		outTime = &t
		e := a.ClockOut.EnteredUTC
		outEntered = &e
		outMocked = a.ClockOut.Mocked
		if a.ClockOut.GPS.HasReading {
			lat, lng := a.ClockOut.GPS.Lat, a.ClockOut.GPS.Lng
			outLat, outLng, outAcc = &lat, &lng, a.ClockOut.GPS.AccuracyM
		}
	}
	_, err := exec.Exec(ctx, `
		UPDATE attendance SET
			clock_in_time = $2, clock_in_entered_utc = $3, clock_in_lat = $4, clock_in_lng = $5, clock_in_accuracy_m = $6, clock_in_mocked = $7,
			clock_out_time = $8, clock_out_entered_utc = $9, clock_out_lat = $10, clock_out_lng = $11, clock_out_accuracy_m = $12, clock_out_mocked = $13,
			reason_text = $14
		WHERE id = $1
	`, a.ID, inTime, inEntered, inLat, inLng, inAcc, inMocked,
		outTime, outEntered, outLat, outLng, outAcc, outMocked, a.ReasonText)
	return err
}

func (s *Store) Approve(ctx context.Context, exec Querier, id uuid.UUID, approvedBy uuid.UUID, now time.Time) error {
	_, err := exec.Exec(ctx, `
		UPDATE attendance SET status = $2, approved_at = $3, approved_by = $4
		WHERE id = $1
	`, id, StatusApproved, now, approvedBy)
	return err
}

func (s *Store) Reject(ctx context.Context, exec Querier, id uuid.UUID, rejectedBy uuid.UUID, reason string, now time.Time) error {
	_, err := exec.Exec(ctx, `
		UPDATE attendance SET status = $2, rejected_at = $3, rejected_by = $4, rejection_reason = $5
		WHERE id = $1
	`, id, StatusRejected, now, rejectedBy, reason)
	return err
}

// ResetToPending clears approval state; deleting a sourced timesheet
// entry sends its attendance back through the approval flow.
func (s *Store) ResetToPending(ctx context.Context, exec Querier, id uuid.UUID) error {
	_, err := exec.Exec(ctx, `
		UPDATE attendance SET status = $2, approved_at = NULL, approved_by = NULL
		WHERE id = $1
	`, id, StatusPending)
	return err
}

func (s *Store) Delete(ctx context.Context, exec Querier, id uuid.UUID) error {
	_, err := exec.Exec(ctx, `DELETE FROM attendance WHERE id = $1`, id)
	return err
}

// FindApprovedByProjectWorkerDate locates approved attendance rows bound
// (via shift) to the given project/worker/date, used when a manual
// timesheet entry is deleted and those approvals must be re-earned.
func (s *Store) FindApprovedByProjectWorkerDate(ctx context.Context, projectID, workerID uuid.UUID, date time.Time) ([]*Attendance, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+attendanceColumns+` FROM attendance a
		JOIN shifts sh ON sh.id = a.shift_id
		WHERE sh.project_id = $1 AND a.worker_id = $2 AND sh.date = $3 AND a.status = $4
	`, projectID, workerID, date, StatusApproved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Attendance
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListPending returns every attendance row awaiting approval, newest first.
func (s *Store) ListPending(ctx context.Context) ([]*Attendance, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+attendanceColumns+` FROM attendance WHERE status = $1 ORDER BY created_at DESC`, StatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Attendance
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListDirectByWorkerDate returns direct (shift-less) attendance rows for a
// worker whose clock-in instant (or clock-out instant, when there is no
// clock-in) falls within [from, to], backing
// GET /dispatch/attendance/direct/{date}.
func (s *Store) ListDirectByWorkerDate(ctx context.Context, workerID uuid.UUID, from, to time.Time) ([]*Attendance, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+attendanceColumns+` FROM attendance
		WHERE worker_id = $1 AND shift_id IS NULL
		AND COALESCE(clock_in_time, clock_out_time) BETWEEN $2 AND $3
		ORDER BY COALESCE(clock_in_time, clock_out_time)
	`, workerID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Attendance
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ListForShifts returns attendance rows bound to any of the given
// shift ids, used by the timesheet aggregator's list-per-project view.
func (s *Store) ListForShifts(ctx context.Context, shiftIDs []uuid.UUID) ([]*Attendance, error) {
	if len(shiftIDs) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, `SELECT `+attendanceColumns+` FROM attendance WHERE shift_id = ANY($1)`, shiftIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Attendance
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
