// Package dbx holds the one executor interface shared by every store in
// this module, so that a *pgxpool.Pool and a pgx.Tx are interchangeable
// wherever a store method needs to run standalone or inside a
// caller-managed transaction, and so that stores in different packages
// can hand store methods to one another without each redeclaring an
// equivalent-but-distinct interface type (Go requires the named type to
// match, not just the method set, for this kind of cross-package wiring).
package dbx

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is satisfied by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
