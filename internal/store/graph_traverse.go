package store

import (
	"context"
	"fmt"

	"github.com/persistorai/persistor/internal/models"
)

// Traversal safety limits.
const (
	traverseConceptLimit = 500  // max concepts returned from traverse
	traverseRelationLimit = 5000 // max relations returned from traverse
	bfsNeighborLimit      = 1000 // max relations per direction in app-level BFS
	maxTraverseHops       = 3    // caps BFS depth (spec §4.2 bounds graph fan-out to 3 hops)
	maxPathHops           = 10   // caps shortest-path search depth
)

// Traverse performs application-level BFS from conceptID up to maxHops and returns the discovered subgraph.
func (s *GraphStore) Traverse( //nolint:funlen,gocyclo,cyclop,gocognit // BFS loop with neighbor expansion is inherently multi-step.
	ctx context.Context,
	tenantID string,
	conceptID string,
	maxHops int,
) (*models.TraverseResult, error) {
	if maxHops <= 0 {
		maxHops = 1
	}

	if maxHops > maxTraverseHops {
		maxHops = maxTraverseHops
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("traversing graph: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM concepts WHERE tenant_id = current_setting('app.tenant_id')::uuid AND id = $1)`, conceptID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("checking concept existence: %w", err)
	}

	if !exists {
		return nil, models.ErrConceptNotFound
	}

	visited := map[string]bool{conceptID: true}
	frontier := []string{conceptID}

	neighborSQL := `(SELECT DISTINCT source, target FROM relations
		WHERE source = ANY($1) AND tenant_id = current_setting('app.tenant_id')::uuid ORDER BY source, target LIMIT ` + fmt.Sprintf("%d", bfsNeighborLimit) + `)
		UNION
		(SELECT DISTINCT source, target FROM relations
		WHERE target = ANY($1) AND tenant_id = current_setting('app.tenant_id')::uuid ORDER BY source, target LIMIT ` + fmt.Sprintf("%d", bfsNeighborLimit) + `)`

	for hop := 0; hop < maxHops && len(frontier) > 0; hop++ {
		rows, err := tx.Query(ctx, neighborSQL, frontier)
		if err != nil {
			return nil, fmt.Errorf("querying traverse neighbors at hop %d: %w", hop, err)
		}

		var nextFrontier []string

		for rows.Next() {
			var source, target string
			if err := rows.Scan(&source, &target); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scanning traverse relation: %w", err)
			}

			for _, pair := range [][2]string{{source, target}, {target, source}} {
				from, to := pair[0], pair[1]
				if visited[from] && !visited[to] {
					visited[to] = true
					nextFrontier = append(nextFrontier, to)
				}
			}
		}

		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("iterating traverse relations: %w", err)
		}

		rows.Close()

		if len(visited) >= traverseConceptLimit {
			break
		}

		frontier = nextFrontier
	}

	ids := make([]string, 0, len(visited))
	for id := range visited {
		ids = append(ids, id)
	}

	if len(ids) == 0 {
		return &models.TraverseResult{
			Concepts:  make([]models.Concept, 0),
			Relations: make([]models.Relation, 0),
		}, nil
	}

	conceptSQL := `SELECT ` + conceptColumns + ` FROM concepts
		WHERE id = ANY($1) AND tenant_id = current_setting('app.tenant_id')::uuid
		ORDER BY id LIMIT ` + fmt.Sprintf("%d", traverseConceptLimit)

	conceptRows, err := tx.Query(ctx, conceptSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("querying traverse concepts: %w", err)
	}
	defer conceptRows.Close()

	concepts, err := collectConcepts(conceptRows)
	if err != nil {
		return nil, fmt.Errorf("collecting traverse concepts: %w", err)
	}

	relationSQL := `SELECT ` + relationColumns + `
		FROM relations
		WHERE source = ANY($1) AND target = ANY($1)
			AND tenant_id = current_setting('app.tenant_id')::uuid
		ORDER BY source, target LIMIT ` + fmt.Sprintf("%d", traverseRelationLimit)

	relationRows, err := tx.Query(ctx, relationSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("querying traverse relations: %w", err)
	}
	defer relationRows.Close()

	relationList := make([]models.Relation, 0, 32)

	for relationRows.Next() {
		r, err := scanRelation(relationRows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning traverse relation: %w", err)
		}

		relationList = append(relationList, *r)
	}

	if err := relationRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating traverse relations: %w", err)
	}

	if err := s.decryptConcepts(ctx, tenantID, concepts); err != nil {
		return nil, err
	}

	if err := s.decryptRelations(ctx, tenantID, relationList); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing traverse: %w", err)
	}

	return &models.TraverseResult{Concepts: concepts, Relations: relationList}, nil
}
