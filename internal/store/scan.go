package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/persistorai/persistor/internal/models"
)

// conceptColumns lists the columns selected for concept queries. Embeddings
// live in the vector store, not here (spec §4.3's two-collaborator split).
const conceptColumns = `id, tenant_id, type, label, properties, access_count,
	last_accessed, strength_score, superseded_by, user_boosted, source,
	created_at, updated_at`

// relationColumns lists the columns selected for relation queries.
const relationColumns = `tenant_id, source, target, type, properties,
	weight, access_count, last_accessed, strength_score, superseded_by,
	user_boosted, created_at, updated_at`

// scanConcept scans a single row into a models.Concept.
func scanConcept(scan func(dest ...any) error) (*models.Concept, error) {
	var c models.Concept
	var tenantID uuid.UUID
	var props []byte
	var lastAccessed *time.Time
	var supersededBy *string

	err := scan(
		&c.ID,
		&tenantID,
		&c.Type,
		&c.Label,
		&props,
		&c.AccessCount,
		&lastAccessed,
		&c.Strength,
		&supersededBy,
		&c.UserBoosted,
		&c.Source,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.TenantID = tenantID
	c.LastAccessed = lastAccessed
	c.SupersededBy = supersededBy

	if err := json.Unmarshal(props, &c.Properties); err != nil {
		return nil, fmt.Errorf("unmarshalling concept properties: %w", err)
	}

	return &c, nil
}

// scanRelation scans a single row into a models.Relation.
func scanRelation(scan func(dest ...any) error) (*models.Relation, error) {
	var r models.Relation
	var tenantID uuid.UUID
	var props []byte
	var lastAccessed *time.Time
	var supersededBy *string

	err := scan(
		&tenantID,
		&r.Source,
		&r.Target,
		&r.Type,
		&props,
		&r.Weight,
		&r.AccessCount,
		&lastAccessed,
		&r.Strength,
		&supersededBy,
		&r.UserBoosted,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.TenantID = tenantID
	r.LastAccessed = lastAccessed
	r.SupersededBy = supersededBy

	if err := json.Unmarshal(props, &r.Properties); err != nil {
		return nil, fmt.Errorf("unmarshalling relation properties: %w", err)
	}

	return &r, nil
}

// collectConcepts scans all rows into a concept slice.
func collectConcepts(rows pgx.Rows) ([]models.Concept, error) {
	concepts := make([]models.Concept, 0, 16)

	for rows.Next() {
		c, err := scanConcept(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning concept row: %w", err)
		}

		concepts = append(concepts, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating concept rows: %w", err)
	}

	return concepts, nil
}

// collectRelations scans all rows into a relation slice.
func collectRelations(rows pgx.Rows) ([]models.Relation, error) {
	relations := make([]models.Relation, 0, 16)

	for rows.Next() {
		r, err := scanRelation(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning relation row: %w", err)
		}

		relations = append(relations, *r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating relation rows: %w", err)
	}

	return relations, nil
}
