package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/persistorai/persistor/internal/models"
)

// RelationStore provides relation CRUD operations. At most one relation of a
// given type may exist between an ordered (source, target) pair (spec §3);
// that invariant is enforced here and backed by a unique index in migrations.
type RelationStore struct {
	Base
}

// NewRelationStore creates a new RelationStore.
func NewRelationStore(base Base) *RelationStore {
	return &RelationStore{Base: base}
}

// CreateRelation inserts a new relation and returns the created record.
func (s *RelationStore) CreateRelation(
	ctx context.Context,
	tenantID string,
	req models.CreateRelationRequest,
) (*models.Relation, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("creating relation: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	var sourceExists, targetExists bool
	err = tx.QueryRow(ctx,
		`SELECT
			EXISTS(SELECT 1 FROM concepts WHERE tenant_id = $1 AND id = $2),
			EXISTS(SELECT 1 FROM concepts WHERE tenant_id = $1 AND id = $3)`,
		tenantID, req.Source, req.Target).Scan(&sourceExists, &targetExists)
	if err != nil {
		return nil, fmt.Errorf("checking source/target concepts: %w", err)
	}

	if !sourceExists {
		return nil, fmt.Errorf("source concept %q: %w", req.Source, models.ErrConceptNotFound)
	}

	if !targetExists {
		return nil, fmt.Errorf("target concept %q: %w", req.Target, models.ErrConceptNotFound)
	}

	props := req.Properties
	if props == nil {
		props = map[string]any{}
	}

	propsJSON, err := s.encryptProperties(ctx, tenantID, props)
	if err != nil {
		return nil, fmt.Errorf("preparing relation properties: %w", err)
	}

	weight := 1.0
	if req.Weight != nil {
		weight = *req.Weight
	}

	query := `INSERT INTO relations (tenant_id, source, target, type, properties, weight)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + relationColumns

	row := tx.QueryRow(ctx, query,
		tenantID, req.Source, req.Target, req.Type, propsJSON, weight,
	)

	r, err := scanRelation(row.Scan)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, models.ErrDuplicateKey
		}

		return nil, fmt.Errorf("scanning created relation: %w", err)
	}

	if err := s.decryptRelation(ctx, tenantID, r); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing create relation: %w", err)
	}

	s.notify("relations", "insert", tenantID)

	return r, nil
}

// UpdateRelation updates an existing relation by composite key and returns the result.
func (s *RelationStore) UpdateRelation(
	ctx context.Context,
	tenantID string,
	source, target, relType string,
	req models.UpdateRelationRequest,
) (*models.Relation, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("updating relation: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	setClauses := make([]string, 0, 2)
	args := make([]any, 0, 5)
	argIdx := 1

	if req.Properties != nil {
		propsJSON, err := s.encryptProperties(ctx, tenantID, req.Properties)
		if err != nil {
			return nil, fmt.Errorf("preparing relation properties: %w", err)
		}

		setClauses = append(setClauses, fmt.Sprintf("properties = $%d", argIdx))
		args = append(args, propsJSON)
		argIdx++
	}

	if req.Weight != nil {
		setClauses = append(setClauses, fmt.Sprintf("weight = $%d", argIdx))
		args = append(args, *req.Weight)
		argIdx++
	}

	if len(setClauses) == 0 {
		r, err := s.getRelation(ctx, tx, source, target, relType)
		if err != nil {
			return nil, err
		}

		if err := s.decryptRelation(ctx, tenantID, r); err != nil {
			return nil, err
		}

		return r, nil
	}

	query := fmt.Sprintf(
		"UPDATE relations SET %s WHERE tenant_id = current_setting('app.tenant_id')::uuid AND source = $%d AND target = $%d AND type = $%d RETURNING %s",
		strings.Join(setClauses, ", "),
		argIdx,
		argIdx+1,
		argIdx+2,
		relationColumns,
	)
	args = append(args, source, target, relType)

	row := tx.QueryRow(ctx, query, args...)

	r, err := scanRelation(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrRelationNotFound
		}

		return nil, fmt.Errorf("scanning updated relation: %w", err)
	}

	if err := s.decryptRelation(ctx, tenantID, r); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing update relation: %w", err)
	}

	s.notify("relations", "update", tenantID)

	return r, nil
}

// PatchRelationProperties merges a partial property set into a relation's
// existing properties (spec §3: null-valued keys delete, others upsert),
// grounded on UpdateRelation's composite-key update shape. Relations have no
// property_history table (only concepts do — internal/store/history.go), so
// this does not record a diff.
func (s *RelationStore) PatchRelationProperties(
	ctx context.Context,
	tenantID string,
	source, target, relType string,
	req models.PatchPropertiesRequest,
) (*models.Relation, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("patching relation properties: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	existing, err := s.getRelation(ctx, tx, source, target, relType)
	if err != nil {
		return nil, err
	}

	if err := s.decryptRelation(ctx, tenantID, existing); err != nil {
		return nil, err
	}

	mergedProps := models.MergeProperties(existing.Properties, req.Properties)

	propsJSON, err := s.encryptProperties(ctx, tenantID, mergedProps)
	if err != nil {
		return nil, fmt.Errorf("preparing relation properties: %w", err)
	}

	query := fmt.Sprintf(
		"UPDATE relations SET properties = $1 WHERE tenant_id = current_setting('app.tenant_id')::uuid AND source = $2 AND target = $3 AND type = $4 RETURNING %s",
		relationColumns,
	)

	row := tx.QueryRow(ctx, query, propsJSON, source, target, relType)

	r, err := scanRelation(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrRelationNotFound
		}

		return nil, fmt.Errorf("scanning patched relation: %w", err)
	}

	if err := s.decryptRelation(ctx, tenantID, r); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing patch relation properties: %w", err)
	}

	s.notify("relations", "update", tenantID)

	return r, nil
}

// DeleteRelation removes a relation by its composite key.
func (s *RelationStore) DeleteRelation(
	ctx context.Context,
	tenantID string,
	source, target, relType string,
) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("deleting relation: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	tag, err := tx.Exec(ctx,
		"DELETE FROM relations WHERE tenant_id = $1 AND source = $2 AND target = $3 AND type = $4",
		tenantID, source, target, relType,
	)
	if err != nil {
		return fmt.Errorf("executing relation delete: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return models.ErrRelationNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing delete relation: %w", err)
	}

	s.notify("relations", "delete", tenantID)

	return nil
}
