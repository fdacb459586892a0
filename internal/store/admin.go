package store

import (
	"context"
	"fmt"

	"github.com/persistorai/persistor/internal/models"
)

// AdminStore handles administrative queries over concept metadata.
type AdminStore struct {
	Base
}

// NewAdminStore creates a new AdminStore.
func NewAdminStore(base Base) *AdminStore {
	return &AdminStore{Base: base}
}

// ListConceptsWithoutEmbeddings returns concepts that have no row in
// concept_vectors, up to the given limit. Used to seed the embedding
// backfill worker and to find concepts a Synchronizer forward pass created
// without yet calling the embedding provider.
func (s *AdminStore) ListConceptsWithoutEmbeddings(ctx context.Context, tenantID string, limit int) ([]models.ConceptSummary, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if limit <= 0 {
		limit = 100
	}

	if limit > maxListLimit {
		limit = maxListLimit
	}

	tx, err := s.beginReadTx(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("listing concepts without embeddings: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // read-only tx, rollback is cleanup.

	rows, err := tx.Query(ctx,
		`SELECT c.id, c.type, c.label FROM concepts c
		 LEFT JOIN concept_vectors v ON v.tenant_id = c.tenant_id AND v.concept_id = c.id
		 WHERE c.tenant_id = current_setting('app.tenant_id')::uuid
		   AND v.concept_id IS NULL
		 ORDER BY c.created_at
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying concepts without embeddings: %w", err)
	}

	defer rows.Close()

	var summaries []models.ConceptSummary

	for rows.Next() {
		var s models.ConceptSummary
		if err := rows.Scan(&s.ID, &s.Type, &s.Label); err != nil {
			return nil, fmt.Errorf("scanning concept summary: %w", err)
		}

		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating concept summaries: %w", err)
	}

	return summaries, nil
}
