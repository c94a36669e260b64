// Package database owns the connection pool and the embedded schema
// migrations: a migration struct keyed by an integer version, a
// schema_migrations tracking table, and sequential apply-if-missing.
package database

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

type DB struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &DB{Pool: pool}, nil
}

func (db *DB) Close() {
	db.Pool.Close()
}

type migration struct {
	version int
	sql     string
}

var migrations = []migration{
	{version: 1, sql: `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS roles (
			name TEXT PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS permission_gates (
			action TEXT PRIMARY KEY,
			description TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			preferred_name TEXT NOT NULL DEFAULT '',
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			roles TEXT[] NOT NULL DEFAULT '{}',
			divisions UUID[] NOT NULL DEFAULT '{}',
			manager_user_id UUID REFERENCES users(id),
			legacy_division UUID
		);

		CREATE TABLE IF NOT EXISTS projects (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			code TEXT,
			client_id UUID,
			timezone TEXT NOT NULL DEFAULT 'America/Vancouver',
			lat DOUBLE PRECISION,
			lng DOUBLE PRECISION,
			onsite_lead_id UUID REFERENCES users(id),
			division_onsite_leads JSONB NOT NULL DEFAULT '{}',
			status TEXT NOT NULL DEFAULT 'active',
			CONSTRAINT projects_lat_lng_both_or_neither
				CHECK ((lat IS NULL) = (lng IS NULL))
		);

		CREATE TABLE IF NOT EXISTS setting_lists (
			list_name TEXT PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS setting_items (
			list_name TEXT NOT NULL,
			item_name TEXT NOT NULL,
			item_value JSONB NOT NULL,
			PRIMARY KEY (list_name, item_name)
		);
	`},
	{version: 2, sql: `
		CREATE TABLE IF NOT EXISTS shifts (
			id UUID PRIMARY KEY,
			project_id UUID NOT NULL REFERENCES projects(id),
			worker_id UUID NOT NULL REFERENCES users(id),
			date DATE NOT NULL,
			start_time TIME NOT NULL,
			end_time TIME NOT NULL,
			status TEXT NOT NULL DEFAULT 'scheduled',
			default_break_min INTEGER,
			geofences JSONB,
			job_id TEXT,
			job_name TEXT,
			created_by UUID REFERENCES users(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);

		CREATE INDEX IF NOT EXISTS idx_shifts_worker_date ON shifts (worker_id, date);
		CREATE INDEX IF NOT EXISTS idx_shifts_project ON shifts (project_id);
	`},
	{version: 3, sql: `
		CREATE TABLE IF NOT EXISTS attendance (
			id UUID PRIMARY KEY,
			shift_id UUID REFERENCES shifts(id) ON DELETE SET NULL,
			worker_id UUID NOT NULL REFERENCES users(id),

			clock_in_time TIMESTAMPTZ,
			clock_in_entered_utc TIMESTAMPTZ,
			clock_in_lat DOUBLE PRECISION,
			clock_in_lng DOUBLE PRECISION,
			clock_in_accuracy_m DOUBLE PRECISION,
			clock_in_mocked BOOLEAN NOT NULL DEFAULT false,

			clock_out_time TIMESTAMPTZ,
			clock_out_entered_utc TIMESTAMPTZ,
			clock_out_lat DOUBLE PRECISION,
			clock_out_lng DOUBLE PRECISION,
			clock_out_accuracy_m DOUBLE PRECISION,
			clock_out_mocked BOOLEAN NOT NULL DEFAULT false,

			break_minutes INTEGER,
			status TEXT NOT NULL DEFAULT 'pending',
			source TEXT NOT NULL DEFAULT 'app',
			reason_text TEXT,

			approved_at TIMESTAMPTZ,
			approved_by UUID REFERENCES users(id),
			rejected_at TIMESTAMPTZ,
			rejected_by UUID REFERENCES users(id),
			rejection_reason TEXT,

			created_by UUID REFERENCES users(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),

			CONSTRAINT attendance_has_an_endpoint
				CHECK (clock_in_time IS NOT NULL OR clock_out_time IS NOT NULL)
		);

		CREATE INDEX IF NOT EXISTS idx_attendance_worker ON attendance (worker_id);
		CREATE INDEX IF NOT EXISTS idx_attendance_shift ON attendance (shift_id);
		CREATE INDEX IF NOT EXISTS idx_attendance_open_clock_in
			ON attendance (worker_id, shift_id, clock_in_time DESC)
			WHERE clock_in_time IS NOT NULL AND clock_out_time IS NULL;
	`},
	{version: 4, sql: `
		CREATE TABLE IF NOT EXISTS project_time_entries (
			id UUID PRIMARY KEY,
			project_id UUID NOT NULL REFERENCES projects(id),
			user_id UUID NOT NULL REFERENCES users(id),
			work_date DATE NOT NULL,
			start_time TIMESTAMPTZ,
			end_time TIMESTAMPTZ,
			minutes INTEGER NOT NULL DEFAULT 0,
			notes TEXT,
			created_by UUID REFERENCES users(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			source_attendance_id UUID REFERENCES attendance(id) ON DELETE SET NULL,
			is_approved BOOLEAN NOT NULL DEFAULT false,
			approved_at TIMESTAMPTZ,
			approved_by UUID REFERENCES users(id)
		);

		CREATE INDEX IF NOT EXISTS idx_time_entries_project_date ON project_time_entries (project_id, work_date);
		CREATE INDEX IF NOT EXISTS idx_time_entries_source_attendance ON project_time_entries (source_attendance_id);

		CREATE TABLE IF NOT EXISTS project_time_entry_logs (
			id UUID PRIMARY KEY,
			time_entry_id UUID REFERENCES project_time_entries(id) ON DELETE SET NULL,
			action TEXT NOT NULL,
			actor_id UUID REFERENCES users(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			notes TEXT
		);
	`},
	{version: 5, sql: `
		CREATE TABLE IF NOT EXISTS audit_logs (
			id UUID PRIMARY KEY,
			entity_type TEXT NOT NULL,
			entity_id UUID NOT NULL,
			action TEXT NOT NULL,
			actor_id UUID,
			actor_role TEXT,
			source TEXT,
			timestamp_utc TIMESTAMPTZ NOT NULL DEFAULT now(),
			changes_json JSONB,
			context JSONB,
			integrity_hash TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_audit_entity ON audit_logs (entity_type, entity_id);
		CREATE INDEX IF NOT EXISTS idx_audit_context_project
			ON audit_logs ((context->>'project_id'));
		CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_logs (timestamp_utc DESC);

		CREATE TABLE IF NOT EXISTS notifications (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id),
			channel TEXT NOT NULL,
			template_key TEXT,
			payload_json JSONB,
			status TEXT NOT NULL DEFAULT 'pending',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`},
	{version: 6, sql: `
		CREATE TABLE IF NOT EXISTS task_items (
			id UUID PRIMARY KEY,
			title TEXT NOT NULL,
			origin_type TEXT NOT NULL,
			origin_id UUID NOT NULL,
			assigned_to UUID NOT NULL REFERENCES users(id),
			status TEXT NOT NULL DEFAULT 'open',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			completed_at TIMESTAMPTZ
		);

		CREATE INDEX IF NOT EXISTS idx_task_items_origin ON task_items (origin_type, origin_id);
		CREATE INDEX IF NOT EXISTS idx_task_items_assigned_open
			ON task_items (assigned_to) WHERE status = 'open';
	`},
	{version: 7, sql: `
		ALTER TABLE attendance ADD COLUMN IF NOT EXISTS attachment_url TEXT;
	`},
	{version: 8, sql: `
		ALTER TABLE users ADD COLUMN IF NOT EXISTS timezone TEXT NOT NULL DEFAULT 'America/Vancouver';
		ALTER TABLE users ADD COLUMN IF NOT EXISTS push_enabled BOOLEAN NOT NULL DEFAULT true;
		ALTER TABLE users ADD COLUMN IF NOT EXISTS email_enabled BOOLEAN NOT NULL DEFAULT false;
		ALTER TABLE users ADD COLUMN IF NOT EXISTS quiet_hours_enabled BOOLEAN NOT NULL DEFAULT false;
		ALTER TABLE users ADD COLUMN IF NOT EXISTS quiet_hours_start TIME NOT NULL DEFAULT '00:00';
		ALTER TABLE users ADD COLUMN IF NOT EXISTS quiet_hours_end TIME NOT NULL DEFAULT '00:00';
	`},
}

// Migrate applies every migration not yet recorded in schema_migrations,
// in version order.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	for _, m := range migrations {
		if err := db.runMigration(ctx, m); err != nil {
			return fmt.Errorf("migration %d: %w", m.version, err)
		}
	}
	return nil
}

func (db *DB) runMigration(ctx context.Context, m migration) error {
	var applied bool
	err := db.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)
	`, m.version).Scan(&applied)
	if err != nil {
		return err
	}
	if applied {
		return nil
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, m.sql); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, m.version); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Printf("database: applied migration %d", m.version)
	return nil
}
