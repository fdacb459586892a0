// Package relational implements domain.RelationalStore: a thin adapter over
// the same Postgres instance the Concept Store uses, scoped to whatever
// tables a tenant's relational schema defines. The Bidirectional
// Synchronizer's forward pass and sql-routed queries are the only callers —
// neither this package nor its caller knows the shape of those tables ahead
// of time, so every statement is caller-supplied and parameterized.
package relational

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/persistor/internal/dbpool"
)

const defaultQueryTimeout = 30 * time.Second

// Store implements domain.RelationalStore over internal/dbpool.
type Store struct {
	Pool *dbpool.Pool
	Log  *logrus.Logger
}

// New creates a new Store.
func New(pool *dbpool.Pool, log *logrus.Logger) *Store {
	return &Store{Pool: pool, Log: log}
}

func setTenant(ctx context.Context, tx pgx.Tx, tenantID string) error {
	if _, err := uuid.Parse(tenantID); err != nil {
		return fmt.Errorf("invalid tenant ID format: %w", err)
	}

	if _, err := tx.Exec(ctx, "SELECT set_config('app.tenant_id', $1, true)", tenantID); err != nil {
		return fmt.Errorf("setting tenant context: %w", err)
	}

	return nil
}

// Query runs a parameterized read-only statement and returns rows as maps
// keyed by column name, one map per row, in result order.
func (s *Store) Query(ctx context.Context, tenantID string, sql string, args ...any) ([]map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("beginning relational read transaction: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	if err := setTenant(ctx, tx, tenantID); err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("executing relational query: %w", err)
	}
	defer rows.Close()

	results, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("collecting relational rows: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing relational read: %w", err)
	}

	return results, nil
}

// Exec runs a parameterized write statement and returns the affected row count.
func (s *Store) Exec(ctx context.Context, tenantID string, sql string, args ...any) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning relational write transaction: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	if err := setTenant(ctx, tx, tenantID); err != nil {
		return 0, err
	}

	tag, err := tx.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("executing relational statement: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing relational write: %w", err)
	}

	return tag.RowsAffected(), nil
}
