package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/persistorai/persistor/internal/models"
)

// SyncQuarantineStore persists synchronizer rows staged under the `manual`
// conflict policy (spec §4.4), pending operator resolution.
type SyncQuarantineStore struct {
	Base
}

// NewSyncQuarantineStore creates a new SyncQuarantineStore.
func NewSyncQuarantineStore(base Base) *SyncQuarantineStore {
	return &SyncQuarantineStore{Base: base}
}

// Stage inserts a quarantine entry for a row the synchronizer could not
// reconcile automatically.
func (s *SyncQuarantineStore) Stage(ctx context.Context, tenantID string, entry models.SyncQuarantineEntry) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("staging sync quarantine entry: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // rolled back on early return, no-op after commit.

	leftJSON, err := json.Marshal(entry.LeftValue)
	if err != nil {
		return fmt.Errorf("marshaling quarantine left value: %w", err)
	}

	rightJSON, err := json.Marshal(entry.RightValue)
	if err != nil {
		return fmt.Errorf("marshaling quarantine right value: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO sync_quarantine (tenant_id, direction, table_name, entity_id, reason, left_value, right_value)
		 VALUES (current_setting('app.tenant_id')::uuid, $1, $2, $3, $4, $5, $6)`,
		entry.Direction, entry.Table, entry.EntityID, entry.Reason, leftJSON, rightJSON,
	)
	if err != nil {
		return fmt.Errorf("inserting sync quarantine entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing sync quarantine entry: %w", err)
	}

	return nil
}

// List returns unresolved quarantine entries for a tenant.
func (s *SyncQuarantineStore) List(ctx context.Context, tenantID string, limit, offset int) ([]models.SyncQuarantineEntry, bool, error) {
	if limit <= 0 {
		limit = 50
	}

	if limit > maxListLimit {
		limit = maxListLimit
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx, tenantID)
	if err != nil {
		return nil, false, fmt.Errorf("listing sync quarantine entries: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // read-only tx, rollback is cleanup.

	rows, err := tx.Query(ctx,
		`SELECT id, direction, table_name, entity_id, reason, left_value, right_value, created_at, resolved_at
		 FROM sync_quarantine
		 WHERE tenant_id = current_setting('app.tenant_id')::uuid AND resolved_at IS NULL
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`, limit+1, offset)
	if err != nil {
		return nil, false, fmt.Errorf("querying sync quarantine entries: %w", err)
	}

	defer rows.Close()

	var entries []models.SyncQuarantineEntry

	for rows.Next() {
		var (
			e                    models.SyncQuarantineEntry
			leftJSON, rightJSON  []byte
		)

		if err := rows.Scan(&e.ID, &e.Direction, &e.Table, &e.EntityID, &e.Reason, &leftJSON, &rightJSON, &e.CreatedAt, &e.ResolvedAt); err != nil {
			return nil, false, fmt.Errorf("scanning sync quarantine entry: %w", err)
		}

		if len(leftJSON) > 0 {
			if err := json.Unmarshal(leftJSON, &e.LeftValue); err != nil {
				return nil, false, fmt.Errorf("unmarshalling quarantine left value: %w", err)
			}
		}

		if len(rightJSON) > 0 {
			if err := json.Unmarshal(rightJSON, &e.RightValue); err != nil {
				return nil, false, fmt.Errorf("unmarshalling quarantine right value: %w", err)
			}
		}

		entries = append(entries, e)
	}

	hasMore := len(entries) > limit
	if hasMore {
		entries = entries[:limit]
	}

	return entries, hasMore, rows.Err()
}
