package store

import (
	"context"
	"fmt"

	"github.com/persistorai/persistor/internal/models"
)

// QueryLogStore persists one row per Query Router Execute call (spec §4.2),
// independent of audit_log's entity-mutation focus.
type QueryLogStore struct {
	Base
}

// NewQueryLogStore creates a new QueryLogStore.
func NewQueryLogStore(base Base) *QueryLogStore {
	return &QueryLogStore{Base: base}
}

// Write inserts a query log entry. Called unconditionally by the router,
// on both the success and failure paths (spec §4.2).
func (s *QueryLogStore) Write(ctx context.Context, tenantID string, entry models.QueryLogEntry) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("writing query log entry: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // rolled back on early return, no-op after commit.

	_, err = tx.Exec(ctx,
		`INSERT INTO query_log (tenant_id, fingerprint, intent, confidence, degraded, from_cache, result_count, elapsed_ms)
		 VALUES (current_setting('app.tenant_id')::uuid, $1, $2, $3, $4, $5, $6, $7)`,
		entry.Fingerprint, entry.Kind, entry.Confidence, entry.Degraded, entry.FromCache, entry.ResultCount, entry.ElapsedMS,
	)
	if err != nil {
		return fmt.Errorf("inserting query log entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing query log entry: %w", err)
	}

	return nil
}

// RecentForTenant returns the most recent query log entries for tenantID,
// newest first, for the dashboard/CLI's query history view.
func (s *QueryLogStore) RecentForTenant(ctx context.Context, tenantID string, limit int) ([]models.QueryLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("listing query log entries: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // read-only tx, rollback is cleanup.

	rows, err := tx.Query(ctx,
		`SELECT id, fingerprint, intent, confidence, degraded, from_cache, result_count, elapsed_ms, created_at
		 FROM query_log WHERE tenant_id = current_setting('app.tenant_id')::uuid
		 ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying query log entries: %w", err)
	}

	defer rows.Close()

	var out []models.QueryLogEntry

	for rows.Next() {
		e := models.QueryLogEntry{TenantID: tenantID}

		if err := rows.Scan(&e.ID, &e.Fingerprint, &e.Kind, &e.Confidence, &e.Degraded, &e.FromCache, &e.ResultCount, &e.ElapsedMS, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning query log entry: %w", err)
		}

		out = append(out, e)
	}

	return out, rows.Err()
}
