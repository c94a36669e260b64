// Package audit implements the append-only, hash-chained audit log.
// Mutations in the dispatch core write their rows here (a cascading
// delete or reset writes one row per affected entity), in the same
// transaction as the mutation they describe.
package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldops/dispatch/internal/dbx"
)

type Entry struct {
	ID            uuid.UUID
	EntityType    string
	EntityID      uuid.UUID
	Action        string
	ActorID       *uuid.UUID
	ActorRole     string
	Source        string
	Timestamp     time.Time
	Changes       map[string]any
	Context       map[string]any
	IntegrityHash string
}

// Store writes and reads audit rows.
type Store struct {
	pool   *pgxpool.Pool
	secret string
}

func NewStore(pool *pgxpool.Pool, integritySecret string) *Store {
	return &Store{pool: pool, secret: integritySecret}
}

// Exec aliases the module-wide executor interface so a write can
// participate in the caller's transaction, and so other packages can pass
// a *Store method to one another without a mismatched-interface-type
// problem.
type Exec = dbx.Querier

// Write appends one audit row using the given executor (pool or tx), so
// callers can fold it into their own transaction. The integrity hash is
// computed over the canonical JSON of {actor,timestamp,changes,context}
// plus every other identifying field, concatenated with the store's
// secret.
func (s *Store) Write(ctx context.Context, exec Exec, e Entry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	e.IntegrityHash = s.computeHash(e)

	changesJSON, _ := json.Marshal(e.Changes)
	contextJSON, _ := json.Marshal(e.Context)

	_, err := exec.Exec(ctx, `
		INSERT INTO audit_logs
			(id, entity_type, entity_id, action, actor_id, actor_role, source,
			 timestamp_utc, changes_json, context, integrity_hash)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, e.ID, e.EntityType, e.EntityID, e.Action, e.ActorID, e.ActorRole, e.Source,
		e.Timestamp, changesJSON, contextJSON, e.IntegrityHash)
	return err
}

// canonicalFields mirrors the Python service's canonical_data dict: only
// non-nil fields participate, and json.Marshal on a map already sorts
// keys lexicographically for us (Go's encoding/json does this for
// map[string]any), matching Python's sort_keys=True.
func (s *Store) canonicalFields(e Entry) map[string]any {
	m := map[string]any{
		"entity_type":   e.EntityType,
		"entity_id":     e.EntityID.String(),
		"action":        e.Action,
		"actor_role":    e.ActorRole,
		"source":        e.Source,
		"timestamp_utc": e.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	if e.ActorID != nil {
		m["actor_id"] = e.ActorID.String()
	}
	if e.Changes != nil {
		m["changes"] = e.Changes
	}
	if e.Context != nil {
		m["context"] = e.Context
	}
	return m
}

// ComputeHash is exported so tests can assert idempotence/reproducibility
// without writing a row.
func (s *Store) ComputeHash(e Entry) string {
	return s.computeHash(e)
}

// computeHash relies on encoding/json sorting map[string]any keys
// lexicographically when marshalling, matching Python's sort_keys=True.
func (s *Store) computeHash(e Entry) string {
	fields := s.canonicalFields(e)
	canonical, _ := json.Marshal(fields)
	h := sha256.Sum256([]byte(string(canonical) + ":" + s.secret))
	return hex.EncodeToString(h[:])
}
