package store

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/jackc/pgx/v5"

	"github.com/persistorai/persistor/internal/models"
)

// ShortestPath finds the shortest path between two concepts using application-level BFS.
// Returns the ordered concepts and connecting relations from fromID to toID.
func (s *GraphStore) ShortestPath( //nolint:gocognit,gocyclo,cyclop,funlen // BFS loop with parent tracking is inherently multi-step.
	ctx context.Context,
	tenantID, fromID, toID string,
) (*models.PathResult, error) {
	if fromID == toID {
		return s.fetchTrivialPath(ctx, tenantID, fromID)
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("finding shortest path: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	// BFS safety caps.
	const maxVisitedConcepts = 10000
	const maxFrontierPerHop = 500

	visited := map[string]bool{fromID: true}
	parent := map[string]string{} // child -> parent
	frontier := []string{fromID}

	neighborSQL := `(SELECT DISTINCT source, target FROM relations
		WHERE source = ANY($1) AND tenant_id = current_setting('app.tenant_id')::uuid LIMIT ` + fmt.Sprintf("%d", bfsNeighborLimit) + `)
		UNION
		(SELECT DISTINCT source, target FROM relations
		WHERE target = ANY($1) AND tenant_id = current_setting('app.tenant_id')::uuid LIMIT ` + fmt.Sprintf("%d", bfsNeighborLimit) + `)`

	found := false

	for hop := 0; hop < maxPathHops && !found && len(frontier) > 0; hop++ {
		if len(visited) >= maxVisitedConcepts {
			break
		}

		rows, err := tx.Query(ctx, neighborSQL, frontier)
		if err != nil {
			return nil, fmt.Errorf("querying BFS neighbors at hop %d: %w", hop, err)
		}

		var nextFrontier []string

		for rows.Next() {
			var source, target string
			if err := rows.Scan(&source, &target); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scanning BFS relation: %w", err)
			}

			for _, pair := range [][2]string{{source, target}, {target, source}} {
				from, to := pair[0], pair[1]
				if visited[from] && !visited[to] {
					visited[to] = true
					parent[to] = from
					nextFrontier = append(nextFrontier, to)

					if to == toID {
						found = true
					}
				}
			}
		}

		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("iterating BFS relations: %w", err)
		}

		rows.Close()

		if len(nextFrontier) > maxFrontierPerHop {
			rand.Shuffle(len(nextFrontier), func(i, j int) {
				nextFrontier[i], nextFrontier[j] = nextFrontier[j], nextFrontier[i]
			})
			nextFrontier = nextFrontier[:maxFrontierPerHop]
		}

		frontier = nextFrontier
	}

	if !found {
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("committing shortest path: %w", err)
		}

		return &models.PathResult{Found: false}, nil
	}

	// Reconstruct path from toID back to fromID using parent map.
	trail := []string{toID}
	for current := toID; current != fromID; {
		p, ok := parent[current]
		if !ok {
			break
		}

		trail = append(trail, p)
		current = p
	}

	// Reverse trail to get fromID -> toID order.
	for i, j := 0, len(trail)-1; i < j; i, j = i+1, j-1 {
		trail[i], trail[j] = trail[j], trail[i]
	}

	pathSQL := `SELECT ` + conceptColumns + `
		FROM concepts
		INNER JOIN unnest($1::text[]) WITH ORDINALITY AS t(id, ord) USING (id)
		WHERE concepts.tenant_id = current_setting('app.tenant_id')::uuid
		ORDER BY t.ord
		LIMIT ` + fmt.Sprintf("%d", maxGraphConceptFetch)

	pathRows, err := tx.Query(ctx, pathSQL, trail)
	if err != nil {
		return nil, fmt.Errorf("querying path concepts: %w", err)
	}
	defer pathRows.Close()

	concepts, err := collectConcepts(pathRows)
	if err != nil {
		return nil, fmt.Errorf("collecting path concepts: %w", err)
	}

	relationSQL := `SELECT ` + relationColumns + `
		FROM relations
		WHERE tenant_id = current_setting('app.tenant_id')::uuid
			AND source = ANY($1) AND target = ANY($1)
		LIMIT ` + fmt.Sprintf("%d", maxRelationsPerQuery)

	relationRows, err := tx.Query(ctx, relationSQL, trail)
	if err != nil {
		return nil, fmt.Errorf("querying path relations: %w", err)
	}
	defer relationRows.Close()

	relationList := make([]models.Relation, 0, len(trail))

	for relationRows.Next() {
		r, err := scanRelation(relationRows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning path relation: %w", err)
		}

		relationList = append(relationList, *r)
	}

	if err := relationRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating path relations: %w", err)
	}

	if err := s.decryptConcepts(ctx, tenantID, concepts); err != nil {
		return nil, err
	}

	if err := s.decryptRelations(ctx, tenantID, relationList); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing shortest path: %w", err)
	}

	return &models.PathResult{
		Concepts:  concepts,
		Relations: relationList,
		Hops:      len(trail) - 1,
		Found:     true,
	}, nil
}

// fetchTrivialPath handles the from == to case: a single-concept path with no relations.
func (s *GraphStore) fetchTrivialPath(ctx context.Context, tenantID, conceptID string) (*models.PathResult, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("fetching trivial path: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	conceptSQL := `SELECT ` + conceptColumns + ` FROM concepts WHERE id = $1 AND tenant_id = current_setting('app.tenant_id')::uuid`

	row := tx.QueryRow(ctx, conceptSQL, conceptID)

	concept, err := scanConcept(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrConceptNotFound
		}

		return nil, fmt.Errorf("scanning trivial path concept: %w", err)
	}

	concepts := []models.Concept{*concept}

	if err := s.decryptConcepts(ctx, tenantID, concepts); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing trivial path: %w", err)
	}

	return &models.PathResult{
		Concepts:  concepts,
		Relations: []models.Relation{},
		Hops:      0,
		Found:     true,
	}, nil
}
