package store

import (
	"context"
	"fmt"

	"github.com/persistorai/persistor/internal/models"
)

// strengthFormula computes strength_score = clamp(0.1*ln(1+access_count) + 0.05*degree + 0.5*avg(relation strength), 0, 1)
// for a single concept, where degree is the count of relations touching it.
const strengthFormula = `
	LEAST(1.0, GREATEST(0.0,
		0.1 * ln(1 + c.access_count) +
		0.05 * COALESCE(deg.degree, 0) +
		0.5 * COALESCE(deg.avg_relation_strength, 0)
	))`

const strengthBatchSize = 1000

// StrengthStore recomputes and boosts concept strength scores (spec §4.3).
type StrengthStore struct {
	Base
}

// NewStrengthStore creates a new StrengthStore.
func NewStrengthStore(base Base) *StrengthStore {
	return &StrengthStore{Base: base}
}

// BoostConcept marks a concept as user-boosted and recomputes its strength immediately.
func (s *StrengthStore) BoostConcept(ctx context.Context, tenantID, conceptID string) (*models.Concept, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("boosting concept: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	query := `WITH deg AS (
			SELECT r.concept_id, COUNT(*) AS degree, AVG(r.strength_score) AS avg_relation_strength
			FROM (
				SELECT source AS concept_id, strength_score FROM relations WHERE tenant_id = current_setting('app.tenant_id')::uuid AND source = $1
				UNION ALL
				SELECT target AS concept_id, strength_score FROM relations WHERE tenant_id = current_setting('app.tenant_id')::uuid AND target = $1
			) r
			GROUP BY r.concept_id
		)
		UPDATE concepts c
		SET user_boosted = true,
			strength_score = ` + strengthFormula + `
		FROM concepts target
		LEFT JOIN deg ON deg.concept_id = target.id
		WHERE c.tenant_id = current_setting('app.tenant_id')::uuid AND c.id = $1
			AND target.tenant_id = c.tenant_id AND target.id = c.id
		RETURNING ` + conceptColumns

	row := tx.QueryRow(ctx, query, conceptID)

	concept, err := scanConcept(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("scanning boosted concept: %w", err)
	}

	if err := s.decryptConcept(ctx, tenantID, concept); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing boost: %w", err)
	}

	return concept, nil
}

// RecalculateStrength recomputes strength_score for all of a tenant's concepts in
// cursor-based batches, skipping user-boosted concepts so a manual boost isn't
// immediately overwritten by the next scheduled recalculation. Returns the number
// of concepts updated.
func (s *StrengthStore) RecalculateStrength(ctx context.Context, tenantID string) (int, error) {
	var totalUpdated int

	cursor := ""

	for {
		updated, next, err := s.recalculateStrengthBatch(ctx, tenantID, cursor)
		if err != nil {
			return totalUpdated, err
		}

		totalUpdated += updated

		if next == "" {
			break
		}

		cursor = next
	}

	return totalUpdated, nil
}

// recalculateStrengthBatch updates one batch of concepts ordered by id after cursor, returning
// the count updated and the next cursor (empty string when the batch was the last one).
func (s *StrengthStore) recalculateStrengthBatch(ctx context.Context, tenantID, cursor string) (int, string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx, tenantID)
	if err != nil {
		return 0, "", fmt.Errorf("recalculating strength batch: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	query := `WITH batch AS (
			SELECT id FROM concepts
			WHERE tenant_id = current_setting('app.tenant_id')::uuid AND id > $1 AND NOT user_boosted
			ORDER BY id
			LIMIT $2
		),
		deg AS (
			SELECT r.concept_id, COUNT(*) AS degree, AVG(r.strength_score) AS avg_relation_strength
			FROM (
				SELECT source AS concept_id, strength_score FROM relations
				WHERE tenant_id = current_setting('app.tenant_id')::uuid AND source IN (SELECT id FROM batch)
				UNION ALL
				SELECT target AS concept_id, strength_score FROM relations
				WHERE tenant_id = current_setting('app.tenant_id')::uuid AND target IN (SELECT id FROM batch)
			) r
			GROUP BY r.concept_id
		)
		UPDATE concepts c
		SET strength_score = ` + strengthFormula + `
		FROM batch
		LEFT JOIN deg ON deg.concept_id = batch.id
		WHERE c.tenant_id = current_setting('app.tenant_id')::uuid AND c.id = batch.id
		RETURNING c.id`

	rows, err := tx.Query(ctx, query, cursor, strengthBatchSize)
	if err != nil {
		return 0, "", fmt.Errorf("querying strength batch: %w", err)
	}

	var (
		count    int
		lastID   string
	)

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, "", fmt.Errorf("scanning recalculated concept id: %w", err)
		}

		count++
		lastID = id
	}

	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, "", fmt.Errorf("iterating recalculated concepts: %w", err)
	}

	rows.Close()

	if err := tx.Commit(ctx); err != nil {
		return 0, "", fmt.Errorf("committing strength batch: %w", err)
	}

	if count < strengthBatchSize {
		return count, "", nil
	}

	return count, lastID, nil
}
