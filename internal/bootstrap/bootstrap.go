// Package bootstrap seeds the fixed role catalogue, the permission-gate
// catalogue (for inspectability — internal/permission remains the source
// of truth for evaluation), and the default timesheet settings.
package bootstrap

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
)

var builtinRoles = []string{"admin", "supervisor", "worker"}

// gates is the action-gate catalogue, stored purely for inspectability.
var gates = []struct {
	Action      string
	Description string
}{
	{"create_shift", "admin OR supervisor OR worker creating own shift in General project"},
	{"modify_shift", "admin OR worker-supervisor-of-assigned-worker OR onsite-lead-of-project"},
	{"clock_own_shift", "worker owns the shift"},
	{"clock_on_behalf", "admin OR worker-supervisor OR onsite-lead, with a reason of minimum length"},
	{"approve_attendance", "admin OR supervisor-of-project"},
}

// Run is idempotent: roles and settings are inserted only when missing,
// and gate rows are upserted so their descriptions are refreshed.
// defaultBreakMin seeds timesheet.default_break_minutes when the setting
// does not exist yet (DEFAULT_BREAK_MIN).
func Run(ctx context.Context, pool *pgxpool.Pool, defaultBreakMin int) error {
	for _, role := range builtinRoles {
		if _, err := pool.Exec(ctx, `
			INSERT INTO roles (name) VALUES ($1)
			ON CONFLICT (name) DO NOTHING
		`, role); err != nil {
			return err
		}
	}

	for _, g := range gates {
		if _, err := pool.Exec(ctx, `
			INSERT INTO permission_gates (action, description) VALUES ($1, $2)
			ON CONFLICT (action) DO UPDATE SET description = EXCLUDED.description
		`, g.Action, g.Description); err != nil {
			return err
		}
	}

	if err := seedDefaultBreakMinutes(ctx, pool, defaultBreakMin); err != nil {
		return err
	}
	if err := seedBreakEligibleEmployees(ctx, pool); err != nil {
		return err
	}
	return nil
}

func seedDefaultBreakMinutes(ctx context.Context, pool *pgxpool.Pool, minutes int) error {
	raw, _ := json.Marshal(minutes)
	_, err := pool.Exec(ctx, `
		INSERT INTO setting_items (list_name, item_name, item_value)
		VALUES ('timesheet', 'default_break_minutes', $1)
		ON CONFLICT (list_name, item_name) DO NOTHING
	`, raw)
	return err
}

func seedBreakEligibleEmployees(ctx context.Context, pool *pgxpool.Pool) error {
	raw, _ := json.Marshal([]string{})
	_, err := pool.Exec(ctx, `
		INSERT INTO setting_items (list_name, item_name, item_value)
		VALUES ('timesheet', 'break_eligible_employees', $1)
		ON CONFLICT (list_name, item_name) DO NOTHING
	`, raw)
	return err
}
