// Package db provides database migration and maintenance utilities.
package db

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/persistor/internal/dbpool"
)

// EnsureVectorDimensions checks that the concept_vectors.embedding column
// matches the configured dimensions and alters it (with index rebuild) if
// not. This allows operators to change EMBEDDING_DIM and have the
// schema adapt on next restart. Existing embeddings with mismatched
// dimensions will be dropped so they can be re-generated.
func EnsureVectorDimensions(ctx context.Context, pool *dbpool.Pool, log *logrus.Logger, dimensions int) error {
	if dimensions < 1 || dimensions > 4096 {
		return fmt.Errorf("embedding dimensions must be between 1 and 4096, got %d", dimensions)
	}

	// Query current column type from information_schema via pg_attribute + format_type.
	var currentType string
	err := pool.QueryRow(ctx,
		`SELECT format_type(a.atttypid, a.atttypmod)
		 FROM pg_attribute a
		 JOIN pg_class c ON c.oid = a.attrelid
		 WHERE c.relname = 'concept_vectors' AND a.attname = 'embedding' AND NOT a.attisdropped`,
	).Scan(&currentType)
	if err != nil {
		return fmt.Errorf("querying embedding column type: %w", err)
	}

	expectedType := fmt.Sprintf("vector(%d)", dimensions)
	if currentType == expectedType {
		log.WithField("dimensions", dimensions).Debug("embedding column dimensions match config")
		return nil
	}

	log.WithFields(logrus.Fields{
		"current":  currentType,
		"expected": expectedType,
	}).Info("embedding column dimensions changed, altering schema")

	// Drop the ivfflat index, alter column, drop rows with mismatched
	// dimensions, rebuild index. This runs in a transaction for safety.
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning dimension alter tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	// Drop existing ivfflat index.
	if _, err := tx.Exec(ctx, `DROP INDEX IF EXISTS idx_concept_vectors_ivfflat`); err != nil {
		return fmt.Errorf("dropping embedding index: %w", err)
	}

	// Delete vectors that don't match the new dimensions (they need re-generation).
	if _, err := tx.Exec(ctx,
		`DELETE FROM concept_vectors WHERE vector_dims(embedding) != $1`,
		dimensions,
	); err != nil {
		return fmt.Errorf("dropping mismatched embeddings: %w", err)
	}

	// Alter column type.
	alterSQL := fmt.Sprintf(`ALTER TABLE concept_vectors ALTER COLUMN embedding TYPE vector(%d)`, dimensions)
	if _, err := tx.Exec(ctx, alterSQL); err != nil {
		return fmt.Errorf("altering embedding column: %w", err)
	}

	// Recreate ivfflat index.
	if _, err := tx.Exec(ctx,
		`CREATE INDEX idx_concept_vectors_ivfflat ON concept_vectors
		 USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)`,
	); err != nil {
		return fmt.Errorf("recreating embedding index: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing dimension alter: %w", err)
	}

	log.WithField("dimensions", dimensions).Info("embedding column dimensions updated")
	return nil
}
