package registry

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrProjectNotFound = errors.New("registry: project not found")
	ErrUserNotFound    = errors.New("registry: user not found")
)

// ProjectRegistry reads the projects table this module owns on behalf of
// the (conceptually external) project-management system.
type ProjectRegistry struct {
	pool *pgxpool.Pool
}

func NewProjectRegistry(pool *pgxpool.Pool) *ProjectRegistry {
	return &ProjectRegistry{pool: pool}
}

func (r *ProjectRegistry) Get(ctx context.Context, id uuid.UUID) (*Project, error) {
	var (
		p      Project
		divRaw []byte
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, timezone, lat, lng, onsite_lead_id, division_onsite_leads
		FROM projects WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Timezone, &p.Lat, &p.Lng, &p.OnsiteLeadID, &divRaw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	p.DivisionOnsiteLeads = decodeDivisionLeads(divRaw)
	return &p, nil
}

func decodeDivisionLeads(raw []byte) map[uuid.UUID]uuid.UUID {
	out := make(map[uuid.UUID]uuid.UUID)
	if len(raw) == 0 {
		return out
	}
	var asStrings map[string]string
	if err := json.Unmarshal(raw, &asStrings); err != nil {
		return out
	}
	for k, v := range asStrings {
		div, err1 := uuid.Parse(k)
		lead, err2 := uuid.Parse(v)
		if err1 == nil && err2 == nil {
			out[div] = lead
		}
	}
	return out
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// GetByName resolves a project by its exact name, used for the sentinel
// "General" project lookup the shift flow depends on.
func (r *ProjectRegistry) GetByName(ctx context.Context, name string) (*Project, error) {
	var (
		p      Project
		divRaw []byte
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, timezone, lat, lng, onsite_lead_id, division_onsite_leads
		FROM projects WHERE name = $1
	`, name).Scan(&p.ID, &p.Name, &p.Timezone, &p.Lat, &p.Lng, &p.OnsiteLeadID, &divRaw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	p.DivisionOnsiteLeads = decodeDivisionLeads(divRaw)
	return &p, nil
}

// UpdateCoordinates updates a project's lat/lng and returns the previous
// values, so the shift manager can decide which shift geofences to reset
// for the coordinate-propagation rule. Pass a transaction so the
// coordinate update and the shift geofence rewrite commit atomically.
func (r *ProjectRegistry) UpdateCoordinates(ctx context.Context, q querier, id uuid.UUID, lat, lng *float64) (prevLat, prevLng *float64, err error) {
	err = q.QueryRow(ctx, `
		WITH old AS (SELECT lat, lng FROM projects WHERE id = $1)
		UPDATE projects SET lat = $2, lng = $3
		WHERE id = $1
		RETURNING (SELECT lat FROM old), (SELECT lng FROM old)
	`, id, lat, lng).Scan(&prevLat, &prevLng)
	return prevLat, prevLng, err
}

// GetTx fetches a project using the given transaction, for callers that
// must read-then-write the same project atomically.
func (r *ProjectRegistry) GetTx(ctx context.Context, q querier, id uuid.UUID) (*Project, error) {
	var (
		p      Project
		divRaw []byte
	)
	err := q.QueryRow(ctx, `
		SELECT id, name, timezone, lat, lng, onsite_lead_id, division_onsite_leads
		FROM projects WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Timezone, &p.Lat, &p.Lng, &p.OnsiteLeadID, &divRaw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	p.DivisionOnsiteLeads = decodeDivisionLeads(divRaw)
	return &p, nil
}

// UserRegistry reads the users table this module owns on behalf of the
// (conceptually external) identity/HR system.
type UserRegistry struct {
	pool *pgxpool.Pool
}

func NewUserRegistry(pool *pgxpool.Pool) *UserRegistry {
	return &UserRegistry{pool: pool}
}

func (r *UserRegistry) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	var (
		u     User
		roles []string
		divs  []uuid.UUID
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, username, preferred_name, first_name, last_name, roles, divisions,
		       manager_user_id, legacy_division, timezone, push_enabled, email_enabled,
		       quiet_hours_enabled, quiet_hours_start, quiet_hours_end
		FROM users WHERE id = $1
	`, id).Scan(&u.ID, &u.Username, &u.PreferredName, &u.FirstName, &u.LastName,
		&roles, &divs, &u.ManagerUserID, &u.LegacyDivision, &u.Timezone, &u.PushEnabled, &u.EmailEnabled,
		&u.QuietHoursEnabled, &u.QuietHoursStart, &u.QuietHoursEnd)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	u.Roles = make(map[string]bool, len(roles))
	for _, role := range roles {
		u.Roles[role] = true
	}
	u.Divisions = divs
	return &u, nil
}

// SettingsStore implements policy.SettingsStore against setting_items.
type SettingsStore struct {
	pool *pgxpool.Pool
}

func NewSettingsStore(pool *pgxpool.Pool) *SettingsStore {
	return &SettingsStore{pool: pool}
}

func (s *SettingsStore) GetItem(ctx context.Context, listName, itemName string) (json.RawMessage, bool, error) {
	var raw json.RawMessage
	err := s.pool.QueryRow(ctx, `
		SELECT item_value FROM setting_items WHERE list_name = $1 AND item_name = $2
	`, listName, itemName).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return raw, true, nil
}

func (s *SettingsStore) SetItem(ctx context.Context, listName, itemName string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO setting_items (list_name, item_name, item_value)
		VALUES ($1, $2, $3)
		ON CONFLICT (list_name, item_name) DO UPDATE SET item_value = EXCLUDED.item_value
	`, listName, itemName, raw)
	return err
}
