package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/persistorai/persistor/internal/models"
)

// Graph query limits.
const (
	maxGraphConceptFetch = 1000 // caps concepts fetched in a single graph query
	defaultRelationsPerQuery = 100  // default relations per direction in neighbor queries
	maxRelationsPerQuery     = 1000 // caps relations per direction
)

// GraphStore handles graph traversal and context queries.
type GraphStore struct {
	Base
}

// NewGraphStore creates a GraphStore with the given shared base.
func NewGraphStore(base Base) *GraphStore {
	return &GraphStore{Base: base}
}

// Neighbors returns all concepts directly connected to conceptID and the relations between them.
func (s *GraphStore) Neighbors(ctx context.Context, tenantID, conceptID string, limit int) (*models.NeighborResult, error) { //nolint:gocognit,gocyclo,cyclop,funlen // existence check adds necessary complexity.
	if limit <= 0 {
		limit = defaultRelationsPerQuery
	}

	if limit > maxRelationsPerQuery {
		limit = maxRelationsPerQuery
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("getting neighbors: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM concepts WHERE tenant_id = current_setting('app.tenant_id')::uuid AND id = $1)`, conceptID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("checking concept existence: %w", err)
	}

	if !exists {
		return nil, models.ErrConceptNotFound
	}

	relationSQL := `(SELECT ` + relationColumns + `
		FROM relations
		WHERE source = $1 AND tenant_id = current_setting('app.tenant_id')::uuid LIMIT $2)
		UNION ALL
		(SELECT ` + relationColumns + `
		FROM relations
		WHERE target = $1 AND tenant_id = current_setting('app.tenant_id')::uuid LIMIT $2)`

	relationRows, err := tx.Query(ctx, relationSQL, conceptID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying neighbor relations: %w", err)
	}
	defer relationRows.Close()

	relationList := make([]models.Relation, 0, 32)
	neighborIDs := make(map[string]bool)

	for relationRows.Next() {
		r, err := scanRelation(relationRows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning neighbor relation: %w", err)
		}

		relationList = append(relationList, *r)

		if r.Source != conceptID {
			neighborIDs[r.Source] = true
		}

		if r.Target != conceptID {
			neighborIDs[r.Target] = true
		}
	}

	if err := relationRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating neighbor relations: %w", err)
	}

	ids := make([]string, 0, len(neighborIDs))
	for nid := range neighborIDs {
		ids = append(ids, nid)
	}

	conceptList := make([]models.Concept, 0, len(ids))

	if len(ids) > 0 {
		conceptSQL := `SELECT ` + conceptColumns + ` FROM concepts WHERE id = ANY($1) AND tenant_id = current_setting('app.tenant_id')::uuid LIMIT ` + fmt.Sprintf("%d", maxGraphConceptFetch)

		conceptRows, err := tx.Query(ctx, conceptSQL, ids)
		if err != nil {
			return nil, fmt.Errorf("querying neighbor concepts: %w", err)
		}
		defer conceptRows.Close()

		conceptList, err = collectConcepts(conceptRows)
		if err != nil {
			return nil, fmt.Errorf("collecting neighbor concepts: %w", err)
		}
	}

	if err := s.decryptConcepts(ctx, tenantID, conceptList); err != nil {
		return nil, err
	}

	if err := s.decryptRelations(ctx, tenantID, relationList); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing neighbors: %w", err)
	}

	return &models.NeighborResult{Concepts: conceptList, Relations: relationList}, nil
}

// GraphContext returns a concept with its immediate neighbors and connecting relations.
func (s *GraphStore) GraphContext( //nolint:gocognit,gocyclo,cyclop,funlen // inherent complexity from multi-query graph assembly.
	ctx context.Context,
	tenantID string,
	conceptID string,
) (*models.ContextResult, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("getting graph context: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	conceptSQL := `SELECT ` + conceptColumns + ` FROM concepts WHERE tenant_id = current_setting('app.tenant_id')::uuid AND id = $1`
	row := tx.QueryRow(ctx, conceptSQL, conceptID)

	concept, err := scanConcept(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrConceptNotFound
		}

		return nil, fmt.Errorf("scanning context concept: %w", err)
	}

	relationSQL := `(SELECT ` + relationColumns + `
		FROM relations
		WHERE source = $1 AND tenant_id = current_setting('app.tenant_id')::uuid LIMIT $2)
		UNION ALL
		(SELECT ` + relationColumns + `
		FROM relations
		WHERE target = $1 AND tenant_id = current_setting('app.tenant_id')::uuid LIMIT $2)`

	relationRows, err := tx.Query(ctx, relationSQL, conceptID, maxRelationsPerQuery)
	if err != nil {
		return nil, fmt.Errorf("querying context relations: %w", err)
	}
	defer relationRows.Close()

	relationList := make([]models.Relation, 0, 32)
	neighborIDs := make(map[string]bool)

	for relationRows.Next() {
		r, err := scanRelation(relationRows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning context relation: %w", err)
		}

		relationList = append(relationList, *r)

		if r.Source != conceptID {
			neighborIDs[r.Source] = true
		}

		if r.Target != conceptID {
			neighborIDs[r.Target] = true
		}
	}

	if err := relationRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating context relations: %w", err)
	}

	ids := make([]string, 0, len(neighborIDs))
	for nid := range neighborIDs {
		ids = append(ids, nid)
	}

	neighbors := make([]models.Concept, 0, len(ids))

	if len(ids) > 0 {
		nSQL := `SELECT ` + conceptColumns + ` FROM concepts WHERE id = ANY($1) AND tenant_id = current_setting('app.tenant_id')::uuid LIMIT ` + fmt.Sprintf("%d", maxGraphConceptFetch)

		nRows, err := tx.Query(ctx, nSQL, ids)
		if err != nil {
			return nil, fmt.Errorf("querying context neighbors: %w", err)
		}
		defer nRows.Close()

		neighbors, err = collectConcepts(nRows)
		if err != nil {
			return nil, fmt.Errorf("collecting context neighbors: %w", err)
		}
	}

	if err := s.decryptConcept(ctx, tenantID, concept); err != nil {
		return nil, err
	}

	if err := s.decryptConcepts(ctx, tenantID, neighbors); err != nil {
		return nil, err
	}

	if err := s.decryptRelations(ctx, tenantID, relationList); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing graph context: %w", err)
	}

	return &models.ContextResult{Concept: *concept, Neighbors: neighbors, Relations: relationList}, nil
}
