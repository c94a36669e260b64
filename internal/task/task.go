// Package task owns the TaskItem queue: the approval-routing side effect
// of a pending attendance row, and the completion of that task once the
// attendance is approved or rejected.
package task

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldops/dispatch/internal/dbx"
)

const (
	OriginSystemAttendance = "system_attendance"

	StatusOpen     = "open"
	StatusComplete = "complete"
)

type Item struct {
	ID          uuid.UUID
	Title       string
	OriginType  string
	OriginID    uuid.UUID
	AssignedTo  uuid.UUID
	Status      string
	CreatedAt   time.Time
	CompletedAt *time.Time
}

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Exec aliases the module-wide executor interface.
type Exec = dbx.Querier

// Seed inserts one open task, used when an attendance event becomes
// pending and needs a supervisor's attention.
func (s *Store) Seed(ctx context.Context, exec Exec, title, originType string, originID, assignedTo uuid.UUID) error {
	_, err := exec.Exec(ctx, `
		INSERT INTO task_items (id, title, origin_type, origin_id, assigned_to, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.New(), title, originType, originID, assignedTo, StatusOpen, time.Now().UTC())
	return err
}

// CompleteByOrigin marks every open task for (originType, originID)
// complete, used by approve/reject.
func (s *Store) CompleteByOrigin(ctx context.Context, exec Exec, originType string, originID uuid.UUID) error {
	_, err := exec.Exec(ctx, `
		UPDATE task_items SET status = $1, completed_at = $2
		WHERE origin_type = $3 AND origin_id = $4 AND status = $5
	`, StatusComplete, time.Now().UTC(), originType, originID, StatusOpen)
	return err
}

// ListOpenForUser returns the open tasks assigned to a supervisor, for a
// "pending approvals" inbox view.
func (s *Store) ListOpenForUser(ctx context.Context, userID uuid.UUID) ([]Item, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, origin_type, origin_id, assigned_to, status, created_at, completed_at
		FROM task_items WHERE assigned_to = $1 AND status = $2
		ORDER BY created_at DESC
	`, userID, StatusOpen)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.Title, &it.OriginType, &it.OriginID, &it.AssignedTo,
			&it.Status, &it.CreatedAt, &it.CompletedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
