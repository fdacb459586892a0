package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/persistorai/persistor/internal/models"
)

// EvolutionStore persists the Evolution Tracker's per-tenant phase state
// (spec §4.5) so a restart resumes the current phase without replaying the
// rolling window of observed queries.
type EvolutionStore struct {
	Base
}

// NewEvolutionStore creates a new EvolutionStore.
func NewEvolutionStore(base Base) *EvolutionStore {
	return &EvolutionStore{Base: base}
}

// Load returns the persisted evolution state for tenantID, or the zero
// value with ok=false if none has ever been written (a fresh tenant starts
// in PhaseRelational per the Tracker's own default).
func (s *EvolutionStore) Load(ctx context.Context, tenantID string) (models.EvolutionState, bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx, tenantID)
	if err != nil {
		return models.EvolutionState{}, false, fmt.Errorf("loading evolution state: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // read-only tx, rollback is cleanup.

	var (
		state      models.EvolutionState
		advancedAt *time.Time
	)

	err = tx.QueryRow(ctx,
		`SELECT phase, bias, window_size, semantic_frac, resolved_frac, advanced_at, updated_at
		 FROM evolution_state WHERE tenant_id = current_setting('app.tenant_id')::uuid`,
	).Scan(&state.Phase, &state.Bias, &state.WindowSize, &state.SemanticFrac, &state.ResolvedFrac, &advancedAt, &state.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.EvolutionState{}, false, nil
		}

		return models.EvolutionState{}, false, fmt.Errorf("scanning evolution state: %w", err)
	}

	state.AdvancedAt = advancedAt

	return state, true, nil
}

// Save upserts the given evolution state for tenantID.
func (s *EvolutionStore) Save(ctx context.Context, tenantID string, state models.EvolutionState) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("saving evolution state: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // rolled back on early return, no-op after commit.

	_, err = tx.Exec(ctx,
		`INSERT INTO evolution_state (tenant_id, phase, bias, window_size, semantic_frac, resolved_frac, advanced_at, updated_at)
		 VALUES (current_setting('app.tenant_id')::uuid, $1, $2, $3, $4, $5, $6, NOW())
		 ON CONFLICT (tenant_id) DO UPDATE SET
		   phase = EXCLUDED.phase, bias = EXCLUDED.bias, window_size = EXCLUDED.window_size,
		   semantic_frac = EXCLUDED.semantic_frac, resolved_frac = EXCLUDED.resolved_frac,
		   advanced_at = COALESCE(EXCLUDED.advanced_at, evolution_state.advanced_at),
		   updated_at = NOW()`,
		state.Phase, state.Bias, state.WindowSize, state.SemanticFrac, state.ResolvedFrac, state.AdvancedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting evolution state: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing evolution state: %w", err)
	}

	return nil
}
