package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/persistorai/persistor/internal/models"
)

// SourceKeyProperty is the reserved Concept.Properties key the Bidirectional
// Synchronizer's forward pass stamps onto every concept it creates, so a
// later pass can find the same concept again instead of duplicating it
// (spec §4.4: source_key = (table, primary_key)).
const SourceKeyProperty = "_source_key"

// RowHashProperty is the reserved key holding a hash of the relational row
// last synchronized into this concept, making repeated forward passes over
// an unchanged row a no-op (spec §4.4).
const RowHashProperty = "_row_hash"

// FindBySourceKey returns the concept previously created from the given
// synchronizer source key, if one exists.
func (s *ConceptStore) FindBySourceKey(ctx context.Context, tenantID, sourceKey string) (*models.Concept, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("finding concept by source key: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // read-only tx, rollback is cleanup.

	query := "SELECT " + conceptColumns + ` FROM concepts
		WHERE tenant_id = current_setting('app.tenant_id')::uuid AND properties->>'` + SourceKeyProperty + `' = $1`

	row := tx.QueryRow(ctx, query, sourceKey)

	concept, err := scanConcept(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrConceptNotFound
		}

		return nil, fmt.Errorf("scanning concept by source key: %w", err)
	}

	return concept, nil
}
