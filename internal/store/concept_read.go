package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/persistorai/persistor/internal/models"
)

// ListConcepts returns concepts for a tenant with optional type filter and minimum strength.
func (s *ConceptStore) ListConcepts(
	ctx context.Context,
	tenantID string,
	typeFilter string,
	minStrength float64,
	limit, offset int,
) ([]models.Concept, bool, error) {
	if limit <= 0 {
		limit = 50
	}

	if limit > maxListLimit {
		limit = maxListLimit
	}

	if offset < 0 {
		offset = 0
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx, tenantID)
	if err != nil {
		return nil, false, fmt.Errorf("listing concepts: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	where := " WHERE tenant_id = current_setting('app.tenant_id')::uuid"
	filterArgs := make([]any, 0, 2)
	argIdx := 1

	if typeFilter != "" {
		where += fmt.Sprintf(" AND type = $%d", argIdx)
		filterArgs = append(filterArgs, typeFilter)
		argIdx++
	}

	if minStrength > 0 {
		where += fmt.Sprintf(" AND strength_score >= $%d", argIdx)
		filterArgs = append(filterArgs, minStrength)
		argIdx++
	}

	query := "SELECT " + conceptColumns + " FROM concepts" + where
	query += " ORDER BY strength_score DESC, updated_at DESC"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args := make([]any, 0, len(filterArgs)+2)
	args = append(args, filterArgs...)
	args = append(args, limit+1, offset)

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("querying concepts: %w", err)
	}
	defer rows.Close()

	concepts, err := collectConcepts(rows)
	if err != nil {
		return nil, false, err
	}

	hasMore := len(concepts) > limit
	if hasMore {
		concepts = concepts[:limit]
	}

	if err := s.decryptConcepts(ctx, tenantID, concepts); err != nil {
		return nil, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("committing list concepts: %w", err)
	}

	return concepts, hasMore, nil
}

// GetConcept retrieves a single concept by ID (pure read, no side effects).
func (s *ConceptStore) GetConcept(ctx context.Context, tenantID, conceptID string) (*models.Concept, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("getting concept: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	query := `SELECT ` + conceptColumns + ` FROM concepts WHERE tenant_id = current_setting('app.tenant_id')::uuid AND id = $1`

	row := tx.QueryRow(ctx, query, conceptID)

	c, err := scanConcept(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrConceptNotFound
		}

		return nil, fmt.Errorf("scanning concept: %w", err)
	}

	if err := s.decryptConcept(ctx, tenantID, c); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing get concept: %w", err)
	}

	return c, nil
}
