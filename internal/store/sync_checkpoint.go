package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/persistorai/persistor/internal/models"
)

// SyncCheckpointStore persists the Bidirectional Synchronizer's per-table
// checkpoints (spec §4.4), so a restart resumes rather than rescans.
type SyncCheckpointStore struct {
	Base
}

// NewSyncCheckpointStore creates a new SyncCheckpointStore.
func NewSyncCheckpointStore(base Base) *SyncCheckpointStore {
	return &SyncCheckpointStore{Base: base}
}

// Load returns the checkpoint for (tenantID, direction, table), or the zero
// cursor with ok=false if this pipeline has never run for that table.
func (s *SyncCheckpointStore) Load(ctx context.Context, tenantID string, direction models.SyncDirection, table string) (models.SyncCheckpoint, bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx, tenantID)
	if err != nil {
		return models.SyncCheckpoint{}, false, fmt.Errorf("loading sync checkpoint: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // read-only tx, rollback is cleanup.

	cp := models.SyncCheckpoint{TenantID: tenantID, Direction: direction, Table: table}

	err = tx.QueryRow(ctx,
		`SELECT cursor, last_run_at, last_success_at FROM sync_checkpoints
		 WHERE tenant_id = current_setting('app.tenant_id')::uuid AND direction = $1 AND table_name = $2`,
		direction, table,
	).Scan(&cp.Cursor, &cp.LastRunAt, &cp.LastSuccessAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.SyncCheckpoint{}, false, nil
		}

		return models.SyncCheckpoint{}, false, fmt.Errorf("scanning sync checkpoint: %w", err)
	}

	return cp, true, nil
}

// ListForTenant returns every checkpoint recorded for tenantID, across all
// tables and directions, for the sync status API/dashboard.
func (s *SyncCheckpointStore) ListForTenant(ctx context.Context, tenantID string) ([]models.SyncCheckpoint, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("listing sync checkpoints: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // read-only tx, rollback is cleanup.

	rows, err := tx.Query(ctx,
		`SELECT direction, table_name, cursor, last_run_at, last_success_at FROM sync_checkpoints
		 WHERE tenant_id = current_setting('app.tenant_id')::uuid ORDER BY table_name, direction`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying sync checkpoints: %w", err)
	}

	defer rows.Close()

	var out []models.SyncCheckpoint

	for rows.Next() {
		cp := models.SyncCheckpoint{TenantID: tenantID}

		if err := rows.Scan(&cp.Direction, &cp.Table, &cp.Cursor, &cp.LastRunAt, &cp.LastSuccessAt); err != nil {
			return nil, fmt.Errorf("scanning sync checkpoint row: %w", err)
		}

		out = append(out, cp)
	}

	return out, rows.Err()
}

// Save upserts a checkpoint, advancing tenantID's resume position for
// (cp.Direction, cp.Table). Called once per successfully committed batch;
// a batch that errors partway through never calls Save, so a restart
// resumes at the last fully-applied row (spec §4.4).
func (s *SyncCheckpointStore) Save(ctx context.Context, tenantID string, cp models.SyncCheckpoint) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("saving sync checkpoint: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // rolled back on early return, no-op after commit.

	if err := s.upsert(ctx, tx, cp); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing sync checkpoint: %w", err)
	}

	return nil
}

// upsert writes cp using an already-open transaction so a caller can commit
// the checkpoint advance atomically with the batch it describes.
func (s *SyncCheckpointStore) upsert(ctx context.Context, tx pgx.Tx, cp models.SyncCheckpoint) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO sync_checkpoints (tenant_id, direction, table_name, cursor, last_run_at, last_success_at)
		 VALUES (current_setting('app.tenant_id')::uuid, $1, $2, $3, $4, $5)
		 ON CONFLICT (tenant_id, direction, table_name) DO UPDATE SET
		   cursor = EXCLUDED.cursor, last_run_at = EXCLUDED.last_run_at, last_success_at = EXCLUDED.last_success_at`,
		cp.Direction, cp.Table, cp.Cursor, cp.LastRunAt, cp.LastSuccessAt,
	)
	if err != nil {
		return fmt.Errorf("upserting sync checkpoint: %w", err)
	}

	return nil
}
