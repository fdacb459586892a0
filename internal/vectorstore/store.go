// Package vectorstore implements domain.VectorStore against a dedicated
// pgvector-backed concept_vectors table.
//
// This is a genuinely separate collaborator from internal/store's concept
// metadata (spec §4.3): the Concept Store's two-phase write calls Upsert
// here first, then writes concept metadata, compensating with Delete if the
// metadata write fails. Search results return bare IDs and scores; callers
// hydrate full concept rows via SearchStore.FetchByIDsScored.
package vectorstore

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/persistor/internal/dbpool"
	"github.com/persistorai/persistor/internal/models"
)

const defaultQueryTimeout = 30 * time.Second

// Store implements domain.VectorStore against the concept_vectors table.
type Store struct {
	Pool *dbpool.Pool
	Log  *logrus.Logger
	dim  int
}

// New creates a new Store. dim is the configured embedding dimension
// (EMBEDDING_DIM) — callers passing a shorter or longer vector get
// models.ErrDimensionMismatch before any SQL is issued.
func New(pool *dbpool.Pool, log *logrus.Logger, dim int) *Store {
	return &Store{Pool: pool, Log: log, dim: dim}
}

// Dimension returns the configured embedding dimension.
func (s *Store) Dimension() int {
	return s.dim
}

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultQueryTimeout)
}

func setTenant(ctx context.Context, tx pgx.Tx, tenantID string) error {
	if _, err := uuid.Parse(tenantID); err != nil {
		return fmt.Errorf("invalid tenant ID format: %w", err)
	}

	if _, err := tx.Exec(ctx, "SELECT set_config('app.tenant_id', $1, true)", tenantID); err != nil {
		return fmt.Errorf("setting tenant context: %w", err)
	}

	return nil
}

func (s *Store) beginTx(ctx context.Context, tenantID string) (pgx.Tx, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}

	if err := setTenant(ctx, tx, tenantID); err != nil {
		tx.Rollback(ctx) //nolint:errcheck // best-effort rollback on setup failure.

		return nil, err
	}

	return tx, nil
}

func (s *Store) beginReadTx(ctx context.Context, tenantID string) (pgx.Tx, error) {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("beginning read transaction: %w", err)
	}

	if err := setTenant(ctx, tx, tenantID); err != nil {
		tx.Rollback(ctx) //nolint:errcheck // best-effort rollback on setup failure.

		return nil, err
	}

	return tx, nil
}

// formatEmbedding converts a float32 slice to the pgvector string format "[0.1,0.2,...]".
func formatEmbedding(embedding []float32) string {
	var b strings.Builder
	b.Grow(len(embedding)*8 + 2)
	b.WriteByte('[')

	for i, v := range embedding {
		if i > 0 {
			b.WriteByte(',')
		}

		b.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
	}

	b.WriteByte(']')

	return b.String()
}

// Upsert writes or replaces the embedding for a concept. Called by the
// Concept Store's two-phase write before the metadata row is written.
func (s *Store) Upsert(ctx context.Context, tenantID, conceptID string, embedding []float32) error {
	if len(embedding) != s.dim {
		return fmt.Errorf("%w: got %d, want %d", models.ErrDimensionMismatch, len(embedding), s.dim)
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("%w: %w", models.ErrVectorBackendError, err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	sql := `INSERT INTO concept_vectors (tenant_id, concept_id, embedding)
		VALUES (current_setting('app.tenant_id')::uuid, $1, $2::vector)
		ON CONFLICT (tenant_id, concept_id) DO UPDATE SET embedding = EXCLUDED.embedding, updated_at = NOW()`

	if _, err := tx.Exec(ctx, sql, conceptID, formatEmbedding(embedding)); err != nil {
		return fmt.Errorf("%w: upserting vector: %w", models.ErrVectorBackendError, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: committing vector upsert: %w", models.ErrVectorBackendError, err)
	}

	return nil
}

// Delete removes a concept's embedding. Called by the Concept Store both as
// compensation for a failed metadata write and on DeleteConcept.
func (s *Store) Delete(ctx context.Context, tenantID, conceptID string) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("%w: %w", models.ErrVectorBackendError, err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	sql := `DELETE FROM concept_vectors WHERE tenant_id = current_setting('app.tenant_id')::uuid AND concept_id = $1`

	if _, err := tx.Exec(ctx, sql, conceptID); err != nil {
		return fmt.Errorf("%w: deleting vector: %w", models.ErrVectorBackendError, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: committing vector delete: %w", models.ErrVectorBackendError, err)
	}

	return nil
}

// Search returns the nearest concept IDs by cosine distance, closest first.
// Score is 1 - cosine_distance, so higher is more similar (matching
// FullTextSearch's higher-is-better convention for RRF fusion).
func (s *Store) Search(ctx context.Context, tenantID string, embedding []float32, limit int) ([]models.ScoredConcept, error) {
	if len(embedding) != s.dim {
		return nil, fmt.Errorf("%w: got %d, want %d", models.ErrDimensionMismatch, len(embedding), s.dim)
	}

	if limit <= 0 {
		limit = 20
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrVectorBackendError, err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	sql := `SELECT concept_id, 1 - (embedding <=> $1::vector) AS score
		FROM concept_vectors
		WHERE tenant_id = current_setting('app.tenant_id')::uuid
		ORDER BY embedding <=> $1::vector
		LIMIT $2`

	rows, err := tx.Query(ctx, sql, formatEmbedding(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("%w: querying nearest vectors: %w", models.ErrVectorBackendError, err)
	}
	defer rows.Close()

	results := make([]models.ScoredConcept, 0, limit)

	for rows.Next() {
		var id string
		var score float64

		if err := rows.Scan(&id, &score); err != nil {
			return nil, fmt.Errorf("%w: scanning nearest vector row: %w", models.ErrVectorBackendError, err)
		}

		results = append(results, models.ScoredConcept{Concept: models.Concept{ID: id}, Score: score})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating nearest vector rows: %w", models.ErrVectorBackendError, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: committing vector search: %w", models.ErrVectorBackendError, err)
	}

	return results, nil
}
