package store

import (
	"context"
	"fmt"

	"github.com/persistorai/persistor/internal/models"
)

// SearchStore handles full-text search and metadata hydration of vector search
// results. Vector similarity itself is computed by the domain.VectorStore
// collaborator (internal/vectorstore), not here: pgvector-backed embeddings
// live in their own table so the Concept Store and the vector engine stay two
// genuinely separate collaborators per spec §4.3. The Query Router combines
// FullTextSearch ranks with VectorStore.Search ranks via Reciprocal Rank
// Fusion at the Go level (internal/router/semantic.go) and calls
// FetchByIDsScored to hydrate the winning IDs with decrypted concept rows.
type SearchStore struct {
	Base
}

// NewSearchStore creates a new SearchStore.
func NewSearchStore(base Base) *SearchStore {
	return &SearchStore{Base: base}
}

// FullTextSearch searches concepts using PostgreSQL full-text search with
// optional type and minimum-strength filters. Results are ranked by text
// relevance then strength_score.
func (s *SearchStore) FullTextSearch(
	ctx context.Context,
	tenantID string,
	query string,
	typeFilter string,
	minStrength float64,
	limit int,
) ([]models.ScoredConcept, error) {
	if limit <= 0 {
		limit = 20
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("full-text search: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	sql := `SELECT ` + conceptColumns + `, ts_rank(label_tsv, plainto_tsquery('english', $1)) AS rank
		FROM concepts
		WHERE label_tsv @@ plainto_tsquery('english', $1)
			AND tenant_id = current_setting('app.tenant_id')::uuid`

	args := []any{query}
	argIdx := 2

	if typeFilter != "" {
		sql += fmt.Sprintf(" AND type = $%d", argIdx)
		args = append(args, typeFilter)
		argIdx++
	}

	if minStrength > 0 {
		sql += fmt.Sprintf(" AND strength_score >= $%d", argIdx)
		args = append(args, minStrength)
		argIdx++
	}

	sql += fmt.Sprintf(` ORDER BY rank DESC, strength_score DESC LIMIT $%d`, argIdx)
	args = append(args, limit)

	rows, err := tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("executing full-text search: %w", err)
	}
	defer rows.Close()

	scored := make([]models.ScoredConcept, 0, limit)

	for rows.Next() {
		var rank float64

		c, err := scanConcept(func(dest ...any) error {
			return rows.Scan(append(dest, &rank)...) //nolint:gocritic // append to extend scan targets
		})
		if err != nil {
			return nil, fmt.Errorf("scanning full-text result: %w", err)
		}

		scored = append(scored, models.ScoredConcept{Concept: *c, Score: rank})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating full-text rows: %w", err)
	}

	concepts := make([]models.Concept, len(scored))
	for i := range scored {
		concepts[i] = scored[i].Concept
	}

	if err := s.decryptConcepts(ctx, tenantID, concepts); err != nil {
		return nil, err
	}

	for i := range scored {
		scored[i].Concept = concepts[i]
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing full-text search: %w", err)
	}

	return scored, nil
}

// FetchByIDsScored hydrates a caller-ordered list of concept IDs (typically the
// result of a domain.VectorStore.Search call) into decrypted concept rows,
// preserving the input order and pairing each with its caller-supplied score.
// IDs with no matching concept row (e.g. a stale vector entry) are silently
// dropped rather than erroring the whole query.
func (s *SearchStore) FetchByIDsScored(
	ctx context.Context,
	tenantID string,
	ids []string,
	scores []float64,
) ([]models.ScoredConcept, error) {
	if len(ids) != len(scores) {
		return nil, fmt.Errorf("fetching scored concepts: %d ids but %d scores", len(ids), len(scores))
	}

	if len(ids) == 0 {
		return []models.ScoredConcept{}, nil
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("fetching scored concepts: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	sql := `SELECT ` + conceptColumns + ` FROM concepts
		WHERE id = ANY($1) AND tenant_id = current_setting('app.tenant_id')::uuid`

	rows, err := tx.Query(ctx, sql, ids)
	if err != nil {
		return nil, fmt.Errorf("querying scored concepts: %w", err)
	}
	defer rows.Close()

	concepts, err := collectConcepts(rows)
	if err != nil {
		return nil, fmt.Errorf("collecting scored concepts: %w", err)
	}

	if err := s.decryptConcepts(ctx, tenantID, concepts); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing scored concept fetch: %w", err)
	}

	byID := make(map[string]models.Concept, len(concepts))
	for _, c := range concepts {
		byID[c.ID] = c
	}

	scored := make([]models.ScoredConcept, 0, len(ids))

	for i, id := range ids {
		c, ok := byID[id]
		if !ok {
			continue
		}

		scored = append(scored, models.ScoredConcept{Concept: c, Score: scores[i]})
	}

	return scored, nil
}
