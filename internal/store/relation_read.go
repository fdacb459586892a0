package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/persistorai/persistor/internal/models"
)

// buildRelationListQuery constructs the filtered SELECT query and arguments for ListRelations.
func buildRelationListQuery(source, target, relType string, limit, offset int) (query string, args []any) {
	where := " WHERE tenant_id = current_setting('app.tenant_id')::uuid"
	filterArgs := make([]any, 0, 3)
	argIdx := 1

	if source != "" {
		where += fmt.Sprintf(" AND source = $%d", argIdx)
		filterArgs = append(filterArgs, source)
		argIdx++
	}

	if target != "" {
		where += fmt.Sprintf(" AND target = $%d", argIdx)
		filterArgs = append(filterArgs, target)
		argIdx++
	}

	if relType != "" {
		where += fmt.Sprintf(" AND type = $%d", argIdx)
		filterArgs = append(filterArgs, relType)
		argIdx++
	}

	query = "SELECT " + relationColumns + " FROM relations" + where
	query += " ORDER BY updated_at DESC"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = make([]any, 0, len(filterArgs)+2)
	args = append(args, filterArgs...)
	args = append(args, limit+1, offset)

	return query, args
}

// ListRelations returns relations for a tenant with optional source, target, and type filters.
func (s *RelationStore) ListRelations(
	ctx context.Context,
	tenantID string,
	source, target, relType string,
	limit, offset int,
) ([]models.Relation, bool, error) {
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
		return nil, false, fmt.Errorf("listing relations: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	query, args := buildRelationListQuery(source, target, relType, limit, offset)

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("querying relations: %w", err)
	}
	defer rows.Close()

	relations, err := collectRelations(rows)
	if err != nil {
		return nil, false, err
	}

	hasMore := len(relations) > limit
	if hasMore {
		relations = relations[:limit]
	}

	if err := s.decryptRelations(ctx, tenantID, relations); err != nil {
		return nil, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("committing list relations: %w", err)
	}

	return relations, hasMore, nil
}

// getRelation fetches a single relation within an existing transaction.
func (s *RelationStore) getRelation(
	ctx context.Context,
	tx pgx.Tx,
	source, target, relType string,
) (*models.Relation, error) {
	query := "SELECT " + relationColumns +
		" FROM relations WHERE tenant_id = current_setting('app.tenant_id')::uuid AND source = $1 AND target = $2 AND type = $3"

	row := tx.QueryRow(ctx, query, source, target, relType)

	r, err := scanRelation(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrRelationNotFound
		}

		return nil, fmt.Errorf("scanning relation: %w", err)
	}

	return r, nil
}
